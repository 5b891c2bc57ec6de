package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/undercontrol/storefront/internal/domain/cart"
	"github.com/undercontrol/storefront/internal/domain/catalogue"
	"github.com/undercontrol/storefront/internal/domain/order"
	"github.com/undercontrol/storefront/internal/domain/pricing"
	"github.com/undercontrol/storefront/internal/infrastructure/storage"
	"github.com/undercontrol/storefront/internal/pkg/apperror"
	"github.com/undercontrol/storefront/internal/pkg/logger"
)

type fakeSubmitter struct {
	mu       sync.Mutex
	payloads []order.Payload
	err      error
	emailID  string
	started  chan struct{}
	release  chan struct{}
}

func (f *fakeSubmitter) Submit(ctx context.Context, payload order.Payload) (Receipt, error) {
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	err, emailID := f.err, f.emailID
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{OrderID: payload.OrderID, EmailID: emailID}, nil
}

func (f *fakeSubmitter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

type fixture struct {
	backend   *storage.Memory
	store     *cart.Store
	submitter *fakeSubmitter
	pipeline  *Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := storage.NewMemory()
	store := cart.NewStore(catalogue.Default(), backend, logger.Discard())
	require.NoError(t, store.Load(context.Background()))

	tick := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assembler := order.NewAssembler(catalogue.Default(), pricing.DefaultShippingPolicy).
		WithClock(func() time.Time {
			tick = tick.Add(time.Millisecond)
			return tick
		})

	submitter := &fakeSubmitter{emailID: "email-1"}
	return &fixture{
		backend:   backend,
		store:     store,
		submitter: submitter,
		pipeline:  NewPipeline(assembler, store, submitter, logger.Discard()),
	}
}

func TestConfirmEmptyCartMakesNoCall(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Confirm(order.FormInput{})
	require.ErrorIs(t, err, apperror.ErrEmptyCart)

	view := f.pipeline.Observe()
	assert.Equal(t, StateIdle, view.State)
	assert.Equal(t, MessageEmptyCart, view.Error)
	assert.False(t, view.Retryable)

	_, err = f.pipeline.PassOrder(context.Background())
	assert.ErrorIs(t, err, ErrNoDraft)
	assert.Zero(t, f.submitter.calls())
}

func TestSuccessfulSubmissionCommitsAndClearsCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Increment(ctx, "grip", "black")
	f.store.Increment(ctx, "grip", "")

	draft, err := f.pipeline.Confirm(order.FormInput{FullName: "Maya", Email: "maya@example.com"})
	require.NoError(t, err)
	assert.Equal(t, StateDrafted, f.pipeline.State())

	receipt, err := f.pipeline.PassOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, draft.OrderID, receipt.OrderID)
	assert.Equal(t, "email-1", receipt.EmailID)

	view := f.pipeline.Observe()
	assert.Equal(t, StateCommitted, view.State)
	assert.True(t, view.State.IsTerminal())
	assert.Nil(t, view.Draft)
	require.NotNil(t, view.Receipt)
	assert.Equal(t, draft.OrderID, view.Receipt.OrderID)

	assert.Empty(t, f.store.Snapshot())
	_, found, _ := f.backend.Get(ctx, cart.CartKey)
	assert.False(t, found, "persisted cart must be removed")

	require.Len(t, f.submitter.payloads, 1)
	assert.Equal(t, draft.Payload(), f.submitter.payloads[0])
}

func TestProviderFailureKeepsDraftAndCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Increment(ctx, "light", "")
	f.submitter.err = apperror.New(apperror.KindProvider, "test", "order endpoint returned 502: Unable to send email via Resend.")

	draft, err := f.pipeline.Confirm(order.FormInput{})
	require.NoError(t, err)

	_, err = f.pipeline.PassOrder(ctx)
	require.Error(t, err)
	assert.Equal(t, apperror.KindProvider, apperror.KindOf(err))

	view := f.pipeline.Observe()
	assert.Equal(t, StateDrafted, view.State)
	assert.Equal(t, MessageSendFailed, view.Error)
	assert.True(t, view.Retryable)
	require.NotNil(t, view.Draft)
	assert.Equal(t, draft, *view.Draft)
	assert.Equal(t, 1, f.store.Count())

	f.submitter.err = nil
	_, err = f.pipeline.PassOrder(ctx)
	require.NoError(t, err)
	require.Len(t, f.submitter.payloads, 2)
	assert.Equal(t, f.submitter.payloads[0], f.submitter.payloads[1], "retry resends the same draft")
}

func TestTransportFailureMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Increment(ctx, "grip", "")
	f.submitter.err = apperror.Wrap(apperror.KindTransport, "test", errors.New("connection refused"))

	_, err := f.pipeline.Confirm(order.FormInput{})
	require.NoError(t, err)
	_, err = f.pipeline.PassOrder(ctx)
	require.Error(t, err)

	assert.Equal(t, MessageUnreachable, f.pipeline.Observe().Error)
}

func TestUnclassifiedFailureIsWrapped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Increment(ctx, "grip", "")
	f.submitter.err = errors.New("boom")

	_, err := f.pipeline.Confirm(order.FormInput{})
	require.NoError(t, err)
	_, err = f.pipeline.PassOrder(ctx)

	assert.Equal(t, apperror.KindUnknown, apperror.KindOf(err))
	assert.Equal(t, MessageSendFailed, f.pipeline.Observe().Error)
}

func TestSecondPassWhileSendingIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Increment(ctx, "grip", "")
	f.submitter.started = make(chan struct{}, 1)
	f.submitter.release = make(chan struct{})

	_, err := f.pipeline.Confirm(order.FormInput{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.pipeline.PassOrder(ctx)
		done <- err
	}()
	<-f.submitter.started

	assert.Equal(t, StateSending, f.pipeline.State())
	_, err = f.pipeline.PassOrder(ctx)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	_, err = f.pipeline.Confirm(order.FormInput{})
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.ErrorIs(t, f.pipeline.Cancel(), ErrSubmissionInFlight)
	assert.ErrorIs(t, f.pipeline.Reset(), ErrSubmissionInFlight)

	close(f.submitter.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.submitter.calls())
	assert.Equal(t, StateCommitted, f.pipeline.State())
}

func TestSubmissionIgnoresCallerCancellation(t *testing.T) {
	f := newFixture(t)
	f.store.Increment(context.Background(), "grip", "")
	_, err := f.pipeline.Confirm(order.FormInput{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.pipeline.PassOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, f.pipeline.State())
}

func TestCancelDiscardsDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Increment(ctx, "grip", "")

	_, err := f.pipeline.Confirm(order.FormInput{})
	require.NoError(t, err)
	require.NoError(t, f.pipeline.Cancel())

	view := f.pipeline.Observe()
	assert.Equal(t, StateIdle, view.State)
	assert.Nil(t, view.Draft)
	assert.Equal(t, 1, f.store.Count(), "cancel has no side effects on the cart")
	assert.Zero(t, f.submitter.calls())
}

func TestReconfirmMintsFreshDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Increment(ctx, "grip", "")

	first, err := f.pipeline.Confirm(order.FormInput{FullName: "A"})
	require.NoError(t, err)
	f.store.Increment(ctx, "grip", "")
	second, err := f.pipeline.Confirm(order.FormInput{FullName: "B"})
	require.NoError(t, err)

	assert.NotEqual(t, first.OrderID, second.OrderID)
	assert.Equal(t, 2, second.Lines[0].Quantity)
	assert.Equal(t, "B", f.pipeline.Observe().Draft.CustomerName)
}

func TestCommittedRequiresReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Increment(ctx, "grip", "")

	_, err := f.pipeline.Confirm(order.FormInput{})
	require.NoError(t, err)
	_, err = f.pipeline.PassOrder(ctx)
	require.NoError(t, err)

	f.store.Increment(ctx, "light", "")
	_, err = f.pipeline.Confirm(order.FormInput{})
	assert.ErrorIs(t, err, ErrCommitted)

	require.NoError(t, f.pipeline.Reset())
	view := f.pipeline.Observe()
	assert.Equal(t, StateIdle, view.State)
	assert.Nil(t, view.Receipt)

	_, err = f.pipeline.Confirm(order.FormInput{})
	assert.NoError(t, err)
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, MessageEmptyCart, UserMessage(apperror.ErrEmptyCart))
	assert.Equal(t, MessageUnreachable, UserMessage(apperror.New(apperror.KindTransport, "", "")))
	assert.Equal(t, MessageSendFailed, UserMessage(apperror.New(apperror.KindConfiguration, "", "")))
	assert.Equal(t, MessageSendFailed, UserMessage(errors.New("x")))
}
