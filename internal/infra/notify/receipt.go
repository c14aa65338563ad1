// Package notify carries the receipt dispatch adapters. The platform's
// transactional mail goes out through a separate delivery service; this
// module only hands receipts over and records that it did.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/adapter"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/payment/payhere"
)

var _ adapter.ReceiptNotifier = (*LogNotifier)(nil)

// LogNotifier writes the receipt to the structured log. It stands in for
// the mail adapter in environments without a delivery service and doubles
// as the audit trail either way.
type LogNotifier struct {
	log *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	l := logger.With().Str("component", "ReceiptNotifier").Logger()
	return &LogNotifier{log: &l}
}

func (n *LogNotifier) SendReceipt(ctx context.Context, p *model.Payment) error {
	n.log.Info().
		Str("payment_id", p.ID).
		Str("order_ref", p.OrderRef).
		Str("payer_id", p.PayerID).
		Str("amount", payhere.FormatAmount(p.AmountCents)+" "+p.Currency).
		Str("description", p.Description).
		Msg("payment receipt issued")
	return nil
}
