package repository

import (
	"context"
	"time"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
)

// MembershipRepository is the port for purchased gym-access periods.
type MembershipRepository interface {
	Save(ctx context.Context, tx Tx, m *model.Membership) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Membership, error)
	// FindByPaymentID is the activation guard: a hit means this payment has
	// already produced its membership period.
	FindByPaymentID(ctx context.Context, tx Tx, paymentID string) (*model.Membership, error)
	// FindLatestCurrentByMember returns the member's unexpired period with
	// the latest end, counting both running and stacked-but-not-started
	// rows, or ErrNotFound. New purchases stack onto its end.
	FindLatestCurrentByMember(ctx context.Context, tx Tx, memberID string, now time.Time) (*model.Membership, error)
	ListByMember(ctx context.Context, tx Tx, memberID string) ([]*model.Membership, error)

	// ExpireDue bulk-transitions active and pending rows whose end is at or
	// before now to expired, returning how many rows moved.
	ExpireDue(ctx context.Context, tx Tx, now time.Time) (int64, error)
	// ActivateDue promotes stacked pending rows whose period has begun.
	ActivateDue(ctx context.Context, tx Tx, now time.Time) (int64, error)
}
