// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/repository"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/metrics"
)

// Compile-time checks
var (
	_ SubscriptionUseCase  = (*subscriptionUC)(nil)
	_ EntitlementActivator = (*subscriptionUC)(nil)
)

type SubscriptionUseCase interface {
	// ActivateForPayment converts a completed subscription payment into an
	// active subscription. Idempotent per payment: a payment that already
	// produced or renewed a subscription does nothing on replay.
	ActivateForPayment(ctx context.Context, p *model.Payment) error
	// GetActive returns the live subscription for a (member, instructor)
	// pair, or ErrNotFound.
	GetActive(ctx context.Context, memberID, instructorID string) (*model.Subscription, error)
	ListForMember(ctx context.Context, memberID string) ([]*model.Subscription, error)
	// Cancel revokes one of the member's own subscriptions. Cancelling a
	// subscription that already left the active state is a no-op.
	Cancel(ctx context.Context, memberID, subscriptionID string) (*model.Subscription, error)
	// ExpireDue bulk-expires active subscriptions whose validity has passed
	// and reports how many rows moved. Reruns over unchanged state move 0.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

type subscriptionUC struct {
	subs         repository.SubscriptionRepository
	tm           repository.TransactionManager
	durationDays int
	log          *zerolog.Logger
}

// NewSubscriptionUseCase constructs the activator. durationDays is the
// business renewal interval every paid period grants.
func NewSubscriptionUseCase(
	subs repository.SubscriptionRepository,
	tm repository.TransactionManager,
	durationDays int,
	logger *zerolog.Logger,
) *subscriptionUC {
	return &subscriptionUC{subs: subs, tm: tm, durationDays: durationDays, log: logger}
}

func (u *subscriptionUC) ActivateForPayment(ctx context.Context, p *model.Payment) error {
	if p == nil || p.Purpose.Kind != model.PurposeSubscription {
		return domain.ErrInvalidArgument
	}
	instructorID := p.Purpose.CounterpartyID
	if instructorID == "" && p.BeneficiaryID != nil {
		instructorID = *p.BeneficiaryID
	}
	if instructorID == "" {
		return domain.ErrInvalidArgument
	}

	err := u.activate(ctx, p, instructorID)
	if errors.Is(err, domain.ErrAlreadyExists) {
		// Lost an insert race: the winner's active row exists now, so a
		// second pass lands on the renew path.
		err = u.activate(ctx, p, instructorID)
	}
	return err
}

func (u *subscriptionUC) activate(ctx context.Context, p *model.Payment, instructorID string) error {
	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// Lookup before create: the payment id is the idempotency key.
		existing, err := u.subs.FindByPaymentID(ctx, tx, p.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil {
			metrics.IncSubscriptionActivation("noop")
			return nil
		}

		active, err := u.subs.FindActiveByPair(ctx, tx, p.PayerID, instructorID)
		switch {
		case err == nil:
			active.Renew(p.ID, u.durationDays, time.Now())
			if err := u.subs.Update(ctx, tx, active); err != nil {
				return err
			}
			metrics.IncSubscriptionActivation("renewed")
			u.log.Info().
				Str("subscription_id", active.ID).
				Str("payment_id", p.ID).
				Time("expires_at", active.ExpiresAt).
				Msg("subscription renewed")
			return nil
		case errors.Is(err, domain.ErrNotFound):
			sub, err := model.NewSubscription(uuid.NewString(), p.PayerID, instructorID, p.ID, time.Now(), u.durationDays)
			if err != nil {
				return err
			}
			if err := u.subs.Save(ctx, tx, sub); err != nil {
				return err
			}
			metrics.IncSubscriptionActivation("created")
			u.log.Info().
				Str("subscription_id", sub.ID).
				Str("member_id", sub.MemberID).
				Str("instructor_id", sub.InstructorID).
				Msg("subscription created")
			return nil
		default:
			return err
		}
	})
}

func (u *subscriptionUC) GetActive(ctx context.Context, memberID, instructorID string) (*model.Subscription, error) {
	return u.subs.FindActiveByPair(ctx, repository.NoTX, memberID, instructorID)
}

func (u *subscriptionUC) ListForMember(ctx context.Context, memberID string) ([]*model.Subscription, error) {
	return u.subs.ListByMember(ctx, repository.NoTX, memberID)
}

func (u *subscriptionUC) Cancel(ctx context.Context, memberID, subscriptionID string) (*model.Subscription, error) {
	sub, err := u.subs.FindByID(ctx, repository.NoTX, subscriptionID)
	if err != nil {
		return nil, err
	}
	// A foreign subscription reads as absent rather than forbidden.
	if sub.MemberID != memberID {
		return nil, domain.ErrNotFound
	}
	if sub.Status != model.SubscriptionStatusActive {
		return sub, nil
	}

	sub.Cancel(time.Now())
	if err := u.subs.Update(ctx, repository.NoTX, sub); err != nil {
		return nil, err
	}
	u.log.Info().
		Str("subscription_id", sub.ID).
		Str("member_id", memberID).
		Msg("subscription cancelled")
	return sub, nil
}

func (u *subscriptionUC) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	return u.subs.ExpireDue(ctx, repository.NoTX, now)
}
