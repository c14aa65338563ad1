package adapter

import (
	"context"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
)

// ReceiptNotifier dispatches a payment receipt to the payer. Dispatch is
// fire-and-forget: callers log failures and move on, so a mail outage can
// never roll back a completed payment.
type ReceiptNotifier interface {
	SendReceipt(ctx context.Context, p *model.Payment) error
}
