package repository

import (
	"context"
	"time"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
)

// SubscriptionRepository is the port for instructor subscriptions. At most
// one active row may exist per (member, instructor) pair; the implementation
// backs this with a partial unique index, so Save surfaces
// domain.ErrAlreadyExists when a concurrent activation already inserted one.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, sub *model.Subscription) error
	Update(ctx context.Context, tx Tx, sub *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	// FindByPaymentID is the activation guard: a hit means this payment has
	// already produced its subscription.
	FindByPaymentID(ctx context.Context, tx Tx, paymentID string) (*model.Subscription, error)
	FindActiveByPair(ctx context.Context, tx Tx, memberID, instructorID string) (*model.Subscription, error)
	ListByMember(ctx context.Context, tx Tx, memberID string) ([]*model.Subscription, error)

	// ExpireDue bulk-transitions active rows whose expiry is at or before
	// now to expired, returning how many rows moved.
	ExpireDue(ctx context.Context, tx Tx, now time.Time) (int64, error)
}
