// File: internal/usecase/membership_uc.go
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
	_ MembershipUseCase    = (*membershipUC)(nil)
	_ EntitlementActivator = (*membershipUC)(nil)
)

type MembershipUseCase interface {
	// ActivateForPayment converts a completed membership payment into a
	// gym-access period. Buying while a period still runs stacks the new
	// period directly after the current one; paid days are never lost.
	// Idempotent per payment.
	ActivateForPayment(ctx context.Context, p *model.Payment) error
	// Latest returns the member's furthest-reaching current period (running
	// or stacked), or ErrNotFound.
	Latest(ctx context.Context, memberID string) (*model.Membership, error)
	ListForMember(ctx context.Context, memberID string) ([]*model.Membership, error)
	// ExpireDue bulk-expires periods whose end has passed, including stacked
	// ones that were never promoted. Reruns over unchanged state move 0.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	// ActivateDue promotes stacked pending periods whose start has arrived.
	ActivateDue(ctx context.Context, now time.Time) (int64, error)
}

type membershipUC struct {
	memberships repository.MembershipRepository
	tm          repository.TransactionManager
	log         *zerolog.Logger
}

func NewMembershipUseCase(
	memberships repository.MembershipRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *membershipUC {
	return &membershipUC{memberships: memberships, tm: tm, log: logger}
}

func (u *membershipUC) ActivateForPayment(ctx context.Context, p *model.Payment) error {
	if p == nil || p.Purpose.Kind != model.PurposeMembership {
		return domain.ErrInvalidArgument
	}
	if p.Purpose.PlanID == "" || p.Purpose.DurationDays <= 0 {
		return domain.ErrInvalidArgument
	}

	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// Lookup before create: the payment id is the idempotency key.
		existing, err := u.memberships.FindByPaymentID(ctx, tx, p.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil {
			metrics.IncMembershipActivation("noop")
			return nil
		}

		// Locking the latest current period serializes concurrent purchases
		// by the same member, so stacked periods never overlap.
		now := time.Now()
		var latestEnd *time.Time
		latest, err := u.memberships.FindLatestCurrentByMember(ctx, tx, p.PayerID, now)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if latest != nil {
			latestEnd = &latest.EndAt
		}

		start := model.StackStart(latestEnd, now)
		m, err := model.NewMembership(uuid.NewString(), p.PayerID, p.Purpose.PlanID, p.Purpose.PlanName,
			p.ID, p.AmountCents, p.Currency, start, p.Purpose.DurationDays)
		if err != nil {
			return err
		}
		if err := u.memberships.Save(ctx, tx, m); err != nil {
			return err
		}

		action := "created"
		if m.Status == model.MembershipStatusPending {
			action = "stacked"
		}
		metrics.IncMembershipActivation(action)
		u.log.Info().
			Str("membership_id", m.ID).
			Str("member_id", m.MemberID).
			Str("plan_id", m.PlanID).
			Time("start_at", m.StartAt).
			Time("end_at", m.EndAt).
			Str("action", action).
			Msg("membership period granted")
		return nil
	})
}

func (u *membershipUC) Latest(ctx context.Context, memberID string) (*model.Membership, error) {
	return u.memberships.FindLatestCurrentByMember(ctx, repository.NoTX, memberID, time.Now())
}

func (u *membershipUC) ListForMember(ctx context.Context, memberID string) ([]*model.Membership, error) {
	return u.memberships.ListByMember(ctx, repository.NoTX, memberID)
}

func (u *membershipUC) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	return u.memberships.ExpireDue(ctx, repository.NoTX, now)
}

func (u *membershipUC) ActivateDue(ctx context.Context, now time.Time) (int64, error) {
	return u.memberships.ActivateDue(ctx, repository.NoTX, now)
}
