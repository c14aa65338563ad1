package repository

import (
	"context"
	"time"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
)

// -----------------------------
// Payments
// -----------------------------

// PaymentRepository persists payment attempts. Rows are append-only audit
// records; status moves only through the conditional updates below, never
// through a blind overwrite, so concurrent completion channels cannot both
// win the same transition.
type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	// FindByOrderRef resolves the gateway-facing correlation key back to a
	// payment. The order reference is the idempotency key shared by all
	// completion channels.
	FindByOrderRef(ctx context.Context, tx Tx, orderRef string) (*model.Payment, error)
	ListByPayer(ctx context.Context, tx Tx, payerID string) ([]*model.Payment, error)

	// CompleteIfPending transitions pending -> completed and records the
	// gateway payment id and completion time. Returns false when the row is
	// no longer pending; callers treat that as an idempotent no-op.
	CompleteIfPending(ctx context.Context, tx Tx, id string, gatewayPaymentID string, completedAt time.Time) (bool, error)
	// FailIfPending transitions pending -> failed with the same guard.
	FailIfPending(ctx context.Context, tx Tx, id string) (bool, error)
	// RefundIfCompleted transitions completed -> refunded. Refunds are a
	// status flag only; no money movement happens here.
	RefundIfCompleted(ctx context.Context, tx Tx, id string) (bool, error)

	// SumCompletedSince reports completed revenue in minor units from the
	// given instant onward.
	SumCompletedSince(ctx context.Context, tx Tx, since time.Time) (int64, error)
	// ListPendingOlderThan returns checkout attempts that were never
	// completed. Abandoned rows stay pending forever; this is the ops view
	// into them.
	ListPendingOlderThan(ctx context.Context, tx Tx, cutoff time.Time) ([]*model.Payment, error)
}
