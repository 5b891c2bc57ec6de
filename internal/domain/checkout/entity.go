// internal/domain/checkout/entity.go
package checkout

import (
	"context"
	"errors"

	"github.com/undercontrol/storefront/internal/domain/cart"
	"github.com/undercontrol/storefront/internal/domain/order"
)

// State is a submission pipeline state
type State string

const (
	StateIdle      State = "idle"
	StateDrafted   State = "drafted"
	StateSending   State = "sending"
	StateCommitted State = "committed"
)

// IsTerminal reports whether the order in this state is finished
func (s State) IsTerminal() bool {
	return s == StateCommitted
}

// Messages shown to customers; provider and transport detail is only logged
const (
	MessageEmptyCart   = "Add at least one product before checking out."
	MessageSendFailed  = "We couldn't send the order email. Please try again."
	MessageUnreachable = "Unable to reach the email service. Please try again in a moment."
)

var (
	// ErrSubmissionInFlight is returned while an order is being sent
	ErrSubmissionInFlight = errors.New("order submission already in flight")
	// ErrNoDraft is returned when there is no confirmed order to send
	ErrNoDraft = errors.New("no order draft to submit")
	// ErrCommitted is returned when the last order is committed and the
	// pipeline has not been reset
	ErrCommitted = errors.New("order already committed")
)

// Receipt is what a successful submission returns
type Receipt struct {
	OrderID string `json:"order_id"`
	EmailID string `json:"email_id,omitempty"`
}

// Submitter delivers an order payload to the order submission endpoint
type Submitter interface {
	Submit(ctx context.Context, payload order.Payload) (Receipt, error)
}

// Cart is the part of the cart store the pipeline reads and clears
type Cart interface {
	Snapshot() cart.State
	Clear(ctx context.Context)
}

// View is a read-only picture of the pipeline for rendering
type View struct {
	State     State        `json:"state"`
	Draft     *order.Draft `json:"draft,omitempty"`
	Error     string       `json:"error,omitempty"`
	Retryable bool         `json:"retryable"`
	Receipt   *Receipt     `json:"receipt,omitempty"`
}
