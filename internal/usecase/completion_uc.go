// File: internal/usecase/completion_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/adapter"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/repository"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/logging"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/metrics"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/worker"
)

// Compile-time check
var _ CompletionUseCase = (*completionUC)(nil)

// NotifyOutcome tells the webhook handler what happened to a notification.
// Every outcome except an infrastructure error is acknowledged with 200.
type NotifyOutcome string

const (
	NotifyCompleted NotifyOutcome = "completed" // this notification won the transition
	NotifyReplayed  NotifyOutcome = "replayed"  // authentic, but the payment already settled
	NotifyFailed    NotifyOutcome = "failed"    // authentic non-success status code
	NotifyUnknown   NotifyOutcome = "unknown"   // order ref is not ours; acknowledged anyway
	NotifyRejected  NotifyOutcome = "rejected"  // signature verification failed
)

const (
	channelWebhook = "webhook"
	channelReturn  = "return"
	channelManual  = "manual"
)

// EntitlementActivator turns one completed payment into its entitlement.
// Implementations must be idempotent per payment id; the coordinator may
// invoke them again for the same payment after a partial failure.
type EntitlementActivator interface {
	ActivateForPayment(ctx context.Context, p *model.Payment) error
}

// CompletionUseCase converges the three completion channels onto a single
// guarded pending -> completed transition. Whichever channel lands first
// wins; the rest become no-ops.
type CompletionUseCase interface {
	// HandleNotification processes the signed server-to-server webhook.
	// The returned error is reserved for infrastructure failures; business
	// rejections come back as an outcome so the handler can still ack.
	HandleNotification(ctx context.Context, n adapter.Notification) (NotifyOutcome, error)
	// CompleteFromReturn handles the unsigned browser redirect, keyed by the
	// order reference the gateway echoes back. Only recent payments are
	// eligible; older ones return ErrStaleCompletion untouched.
	CompleteFromReturn(ctx context.Context, orderRef string) (*model.Payment, error)
	// CompleteManually handles the authenticated client poll. The caller
	// must own the payment, and the same recency window applies.
	CompleteManually(ctx context.Context, payerID, paymentID string) (*model.Payment, error)
}

// eligibility decides whether a channel may settle the given pending
// payment. The webhook channel has none: its authority is the signature.
type eligibility func(p *model.Payment) error

type completionUC struct {
	payments   repository.PaymentRepository
	gateway    adapter.PaymentGateway
	activators map[model.PurposeKind]EntitlementActivator
	receipts   adapter.ReceiptNotifier
	pool       *worker.Pool
	window     time.Duration
	log        *zerolog.Logger
}

// NewCompletionUseCase wires the coordinator. pool may be nil, in which case
// receipts go out synchronously.
func NewCompletionUseCase(
	payments repository.PaymentRepository,
	gateway adapter.PaymentGateway,
	activators map[model.PurposeKind]EntitlementActivator,
	receipts adapter.ReceiptNotifier,
	pool *worker.Pool,
	window time.Duration,
	logger *zerolog.Logger,
) *completionUC {
	return &completionUC{
		payments:   payments,
		gateway:    gateway,
		activators: activators,
		receipts:   receipts,
		pool:       pool,
		window:     window,
		log:        logger,
	}
}

func (u *completionUC) HandleNotification(ctx context.Context, n adapter.Notification) (NotifyOutcome, error) {
	defer logging.TraceDuration(u.log, "CompletionUC.HandleNotification")()

	v, err := u.gateway.VerifyNotification(n)
	if err != nil {
		metrics.IncCompletion(channelWebhook, "invalid_signature")
		u.log.Warn().Err(err).Str("order_ref", n.OrderRef).Msg("rejected payment notification")
		return NotifyRejected, nil
	}

	p, err := u.payments.FindByOrderRef(ctx, repository.NoTX, v.OrderRef)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncCompletion(channelWebhook, "not_found")
			u.log.Warn().Str("order_ref", v.OrderRef).Msg("notification for unknown order ref")
			return NotifyUnknown, nil
		}
		return "", err
	}

	if !v.Success {
		moved, err := u.payments.FailIfPending(ctx, repository.NoTX, p.ID)
		if err != nil {
			return "", err
		}
		if moved {
			metrics.IncPayment(string(model.PaymentStatusFailed))
		}
		metrics.IncCompletion(channelWebhook, "failed")
		u.log.Info().
			Str("order_ref", v.OrderRef).
			Int("status_code", v.StatusCode).
			Bool("state_changed", moved).
			Msg("gateway reported unsuccessful payment")
		return NotifyFailed, nil
	}

	won, err := u.settle(ctx, channelWebhook, p, v.GatewayPaymentID, nil)
	if err != nil {
		return "", err
	}
	if !won {
		return NotifyReplayed, nil
	}
	return NotifyCompleted, nil
}

func (u *completionUC) CompleteFromReturn(ctx context.Context, orderRef string) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "CompletionUC.CompleteFromReturn")()

	p, err := u.payments.FindByOrderRef(ctx, repository.NoTX, orderRef)
	if err != nil {
		return nil, err
	}
	if _, err := u.settle(ctx, channelReturn, p, "", u.withinWindow); err != nil {
		return nil, err
	}
	return p, nil
}

func (u *completionUC) CompleteManually(ctx context.Context, payerID, paymentID string) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "CompletionUC.CompleteManually")()

	p, err := u.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		return nil, err
	}
	eligible := func(p *model.Payment) error {
		if p.PayerID != payerID {
			return domain.ErrNotPaymentOwner
		}
		return u.withinWindow(p)
	}
	if _, err := u.settle(ctx, channelManual, p, "", eligible); err != nil {
		return nil, err
	}
	return p, nil
}

// withinWindow is the eligibility rule shared by the unsigned channels: a
// pending payment may only be confirmed shortly after checkout, because
// neither the redirect nor the poll carries gateway proof.
func (u *completionUC) withinWindow(p *model.Payment) error {
	if time.Since(p.CreatedAt) > u.window {
		return domain.ErrStaleCompletion
	}
	return nil
}

// settle is the single completion attempt all channels converge on. It
// reports whether this call won the pending -> completed transition; losing
// is not an error. On a win, p is updated in place and the winner runs the
// entitlement activator and receipt dispatch.
func (u *completionUC) settle(ctx context.Context, channel string, p *model.Payment, gatewayPaymentID string, eligible eligibility) (bool, error) {
	if p.Status != model.PaymentStatusPending {
		metrics.IncCompletion(channel, "noop")
		return false, nil
	}
	if eligible != nil {
		if err := eligible(p); err != nil {
			metrics.IncCompletion(channel, eligibilityOutcome(err))
			u.log.Warn().Err(err).
				Str("channel", channel).
				Str("payment_id", p.ID).
				Msg("completion attempt not eligible")
			return false, err
		}
	}

	now := time.Now()
	won, err := u.payments.CompleteIfPending(ctx, repository.NoTX, p.ID, gatewayPaymentID, now)
	if err != nil {
		return false, err
	}
	if !won {
		metrics.IncCompletion(channel, "noop")
		// Another channel moved the row first; report its state.
		if fresh, ferr := u.payments.FindByID(ctx, repository.NoTX, p.ID); ferr == nil {
			*p = *fresh
		}
		return false, nil
	}

	p.Status = model.PaymentStatusCompleted
	if gatewayPaymentID != "" {
		p.GatewayPaymentID = &gatewayPaymentID
	}
	p.CompletedAt = &now

	metrics.IncCompletion(channel, "completed")
	metrics.IncPayment(string(model.PaymentStatusCompleted))
	metrics.AddPaymentRevenue(p.Currency, p.AmountCents)
	u.log.Info().
		Str("channel", channel).
		Str("order_ref", p.OrderRef).
		Str("payment_id", p.ID).
		Int64("amount_cents", p.AmountCents).
		Msg("payment completed")

	if act, ok := u.activators[p.Purpose.Kind]; ok {
		// The payment stays completed whatever happens here; a failed
		// activation is repaired by re-running the activator, never by
		// rolling back money.
		if err := act.ActivateForPayment(ctx, p); err != nil {
			u.log.Error().Err(err).
				Str("payment_id", p.ID).
				Str("purpose", string(p.Purpose.Kind)).
				Msg("entitlement activation failed after completion")
		}
	}
	u.dispatchReceipt(p)
	return true, nil
}

func eligibilityOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrStaleCompletion):
		return "stale"
	case errors.Is(err, domain.ErrNotPaymentOwner):
		return "forbidden"
	default:
		return "failed"
	}
}

func (u *completionUC) dispatchReceipt(p *model.Payment) {
	if u.receipts == nil {
		return
	}
	send := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := u.receipts.SendReceipt(ctx, p); err != nil {
			metrics.IncReceiptDispatch("failed")
			u.log.Warn().Err(err).Str("order_ref", p.OrderRef).Msg("receipt dispatch failed")
			return nil
		}
		metrics.IncReceiptDispatch("sent")
		return nil
	}
	if u.pool == nil {
		_ = send(context.Background())
		return
	}
	if err := u.pool.Submit(send); err != nil {
		metrics.IncReceiptDispatch("dropped")
		u.log.Warn().Err(err).Str("order_ref", p.OrderRef).Msg("receipt task dropped")
	}
}
