package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/undercontrol/storefront/internal/domain/order"
	"github.com/undercontrol/storefront/internal/pkg/apperror"
)

// submitResponse is the body returned by the order submission endpoint
type submitResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HTTPSubmitter posts order payloads to a remote order submission endpoint
type HTTPSubmitter struct {
	endpoint string
	client   *http.Client
}

// NewHTTPSubmitter creates a submitter for endpoint. A nil client gets a
// client with a 30 second timeout.
func NewHTTPSubmitter(endpoint string, client *http.Client) *HTTPSubmitter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSubmitter{endpoint: endpoint, client: client}
}

// Submit posts payload. Any non-200 status or a body without success is a
// provider error; failing to reach the endpoint is a transport error.
func (s *HTTPSubmitter) Submit(ctx context.Context, payload order.Payload) (Receipt, error) {
	const op = "checkout.HTTPSubmitter.Submit"

	body, err := json.Marshal(payload)
	if err != nil {
		return Receipt{}, apperror.Wrap(apperror.KindUnknown, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, apperror.Wrap(apperror.KindConfiguration, op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Receipt{}, apperror.Wrap(apperror.KindTransport, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Receipt{}, apperror.Wrap(apperror.KindTransport, op, err)
	}

	var result submitResponse
	decodeErr := json.Unmarshal(raw, &result)

	if resp.StatusCode != http.StatusOK || decodeErr != nil || !result.Success {
		detail := result.Error
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return Receipt{}, apperror.New(apperror.KindProvider, op,
			fmt.Sprintf("order endpoint returned %d: %s", resp.StatusCode, detail))
	}

	return Receipt{OrderID: payload.OrderID, EmailID: result.ID}, nil
}

// OrderMailer sends the order confirmation email and returns the provider
// message id
type OrderMailer interface {
	SendOrderConfirmation(ctx context.Context, payload order.Payload) (string, error)
}

// DirectSubmitter hands payloads to an in-process mailer
type DirectSubmitter struct {
	mailer OrderMailer
}

// NewDirectSubmitter creates a submitter backed by mailer
func NewDirectSubmitter(mailer OrderMailer) *DirectSubmitter {
	return &DirectSubmitter{mailer: mailer}
}

// Submit sends the confirmation email directly
func (s *DirectSubmitter) Submit(ctx context.Context, payload order.Payload) (Receipt, error) {
	id, err := s.mailer.SendOrderConfirmation(ctx, payload)
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{OrderID: payload.OrderID, EmailID: id}, nil
}
