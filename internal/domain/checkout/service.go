// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/undercontrol/storefront/internal/domain/order"
	"github.com/undercontrol/storefront/internal/pkg/apperror"
)

// DefaultSubmitTimeout bounds a single submission
const DefaultSubmitTimeout = 15 * time.Second

// Pipeline drives one session's order from confirmation to submission.
// At most one submission is in flight; failures return to drafted with the
// draft intact and are never retried automatically.
type Pipeline struct {
	assembler     *order.Assembler
	cart          Cart
	submitter     Submitter
	logger        logrus.FieldLogger
	submitTimeout time.Duration

	mu      sync.Mutex
	state   State
	draft   *order.Draft
	lastErr error
	lastMsg string
	receipt *Receipt
}

// NewPipeline creates an idle pipeline
func NewPipeline(assembler *order.Assembler, cart Cart, submitter Submitter, logger logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		assembler:     assembler,
		cart:          cart,
		submitter:     submitter,
		logger:        logger,
		submitTimeout: DefaultSubmitTimeout,
		state:         StateIdle,
	}
}

// WithSubmitTimeout overrides DefaultSubmitTimeout; zero keeps it
func (p *Pipeline) WithSubmitTimeout(d time.Duration) *Pipeline {
	if d > 0 {
		p.submitTimeout = d
	}
	return p
}

// Confirm assembles a fresh draft from the current cart. It is accepted in
// idle and drafted; an empty cart leaves the state unchanged.
func (p *Pipeline) Confirm(form order.FormInput) (order.Draft, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateSending:
		return order.Draft{}, ErrSubmissionInFlight
	case StateCommitted:
		return order.Draft{}, ErrCommitted
	}

	draft, err := p.assembler.Assemble(p.cart.Snapshot(), form)
	if err != nil {
		p.lastErr = err
		p.lastMsg = MessageEmptyCart
		return order.Draft{}, err
	}

	p.draft = &draft
	p.state = StateDrafted
	p.lastErr = nil
	p.lastMsg = ""

	p.logger.WithFields(logrus.Fields{
		"order_id": draft.OrderID,
		"items":    draft.ItemCount,
		"total":    draft.Total,
	}).Info("Order drafted")

	return draft.Clone(), nil
}

// Cancel discards the draft and returns to idle. It has no effect outside
// drafted, and cannot interrupt a submission.
func (p *Pipeline) Cancel() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateSending:
		return ErrSubmissionInFlight
	case StateDrafted:
		p.state = StateIdle
		p.draft = nil
		p.lastErr = nil
		p.lastMsg = ""
	}
	return nil
}

// Reset returns a finished or drafted pipeline to idle
func (p *Pipeline) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateSending {
		return ErrSubmissionInFlight
	}
	p.state = StateIdle
	p.draft = nil
	p.lastErr = nil
	p.lastMsg = ""
	p.receipt = nil
	return nil
}

// PassOrder sends the current draft. On success the cart is cleared and
// the pipeline is committed; on failure it returns to drafted with the
// same draft. The submission is detached from ctx cancellation and runs
// until it completes or the submit timeout expires.
func (p *Pipeline) PassOrder(ctx context.Context) (Receipt, error) {
	p.mu.Lock()
	switch p.state {
	case StateSending:
		p.mu.Unlock()
		return Receipt{}, ErrSubmissionInFlight
	case StateDrafted:
	default:
		p.mu.Unlock()
		return Receipt{}, ErrNoDraft
	}
	draft := p.draft.Clone()
	p.state = StateSending
	p.lastErr = nil
	p.lastMsg = ""
	p.mu.Unlock()

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.submitTimeout)
	defer cancel()

	receipt, err := p.submitter.Submit(sendCtx, draft.Payload())
	if err != nil {
		classified := classify(err)

		p.mu.Lock()
		p.state = StateDrafted
		p.lastErr = classified
		p.lastMsg = UserMessage(classified)
		p.mu.Unlock()

		p.logger.WithFields(logrus.Fields{
			"order_id":   draft.OrderID,
			"error_kind": apperror.KindOf(classified),
			"error":      classified.Error(),
		}).Error("Order submission failed")
		return Receipt{}, classified
	}

	if receipt.OrderID == "" {
		receipt.OrderID = draft.OrderID
	}
	p.cart.Clear(sendCtx)

	p.mu.Lock()
	p.state = StateCommitted
	p.draft = nil
	p.receipt = &receipt
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"order_id": receipt.OrderID,
		"email_id": receipt.EmailID,
	}).Info("Order committed")

	return receipt, nil
}

// State returns the current state
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Observe returns a copy of everything a renderer needs
func (p *Pipeline) Observe() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	view := View{
		State: p.state,
		Error: p.lastMsg,
	}
	if p.draft != nil {
		draft := p.draft.Clone()
		view.Draft = &draft
	}
	if p.lastErr != nil {
		view.Retryable = p.state == StateDrafted && apperror.Retryable(p.lastErr)
	}
	if p.receipt != nil {
		receipt := *p.receipt
		view.Receipt = &receipt
	}
	return view
}

// UserMessage maps a submission failure to the text shown to customers
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, apperror.ErrEmptyCart):
		return MessageEmptyCart
	case apperror.KindOf(err) == apperror.KindTransport:
		return MessageUnreachable
	default:
		return MessageSendFailed
	}
}

func classify(err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.Wrap(apperror.KindTransport, "checkout.PassOrder", err)
	}
	return apperror.Wrap(apperror.KindUnknown, "checkout.PassOrder", err)
}
