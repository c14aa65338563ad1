// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/adapter"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/repository"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/logging"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// CheckoutInput carries everything one checkout attempt needs. AmountCents
// and Purpose are already resolved; InitiateForPlan fills them from a plan.
type CheckoutInput struct {
	PayerID       string
	BeneficiaryID *string
	AmountCents   int64
	Currency      string
	Description   string
	Purpose       model.PaymentPurpose
	Payer         adapter.PayerDetails
}

type CheckoutUseCase interface {
	// Initiate validates the request, persists exactly one fresh pending
	// payment and returns it with the signed parameter set the client posts
	// to the gateway. The redirect itself never happens here.
	Initiate(ctx context.Context, in CheckoutInput) (*model.Payment, *adapter.CheckoutSession, error)
	// InitiateForPlan builds a membership checkout from a purchasable plan.
	InitiateForPlan(ctx context.Context, payerID, planID string, payer adapter.PayerDetails) (*model.Payment, *adapter.CheckoutSession, error)
	// InitiateForSubscription builds an instructor-subscription checkout.
	// The price is set by the wider platform and passed through.
	InitiateForSubscription(ctx context.Context, payerID, instructorID string, amountCents int64, payer adapter.PayerDetails) (*model.Payment, *adapter.CheckoutSession, error)
}

type checkoutUC struct {
	payments repository.PaymentRepository
	plans    repository.MembershipPlanRepository
	gateway  adapter.PaymentGateway
	currency string
	log      *zerolog.Logger
}

func NewCheckoutUseCase(
	payments repository.PaymentRepository,
	plans repository.MembershipPlanRepository,
	gateway adapter.PaymentGateway,
	currency string,
	logger *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{payments: payments, plans: plans, gateway: gateway, currency: currency, log: logger}
}

func (u *checkoutUC) Initiate(ctx context.Context, in CheckoutInput) (*model.Payment, *adapter.CheckoutSession, error) {
	defer logging.TraceDuration(u.log, "CheckoutUC.Initiate")()

	// Reject a bad contact before any row exists.
	if !acceptableEmail(in.Payer.Email) {
		return nil, nil, domain.ErrInvalidPayerContact
	}
	currency := in.Currency
	if currency == "" {
		currency = u.currency
	}

	p, err := model.NewPayment(uuid.NewString(), newOrderRef(), in.PayerID, in.BeneficiaryID,
		in.AmountCents, currency, in.Description, in.Purpose)
	if err != nil {
		return nil, nil, err
	}
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		u.log.Error().Err(err).Str("order_ref", p.OrderRef).Msg("failed to persist checkout payment")
		return nil, nil, err
	}

	session, err := u.gateway.BuildCheckout(p, in.Payer)
	if err != nil {
		// The pending row would never complete; close it so it does not
		// linger as an abandoned attempt.
		if _, failErr := u.payments.FailIfPending(ctx, repository.NoTX, p.ID); failErr != nil {
			u.log.Error().Err(failErr).Str("payment_id", p.ID).Msg("failed to close unusable checkout payment")
		}
		return nil, nil, err
	}

	metrics.IncPayment(string(model.PaymentStatusPending))
	u.log.Info().
		Str("order_ref", p.OrderRef).
		Str("payer_id", p.PayerID).
		Int64("amount_cents", p.AmountCents).
		Str("purpose", string(p.Purpose.Kind)).
		Msg("checkout initiated")
	return p, session, nil
}

func (u *checkoutUC) InitiateForPlan(ctx context.Context, payerID, planID string, payer adapter.PayerDetails) (*model.Payment, *adapter.CheckoutSession, error) {
	plan, err := u.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, nil, err
	}
	if !plan.Active {
		return nil, nil, domain.ErrInvalidArgument
	}

	return u.Initiate(ctx, CheckoutInput{
		PayerID:     payerID,
		AmountCents: plan.PriceCents,
		Currency:    plan.Currency,
		Description: plan.Name + " membership",
		Purpose:     model.MembershipPurpose(plan.ID, plan.Name, plan.DurationDays),
		Payer:       payer,
	})
}

func (u *checkoutUC) InitiateForSubscription(ctx context.Context, payerID, instructorID string, amountCents int64, payer adapter.PayerDetails) (*model.Payment, *adapter.CheckoutSession, error) {
	if instructorID == "" {
		return nil, nil, domain.ErrInvalidArgument
	}
	return u.Initiate(ctx, CheckoutInput{
		PayerID:       payerID,
		BeneficiaryID: &instructorID,
		AmountCents:   amountCents,
		Description:   "Instructor subscription",
		Purpose:       model.SubscriptionPurpose(instructorID),
		Payer:         payer,
	})
}

// newOrderRef mints the gateway correlation key. ULIDs are time-ordered and
// carry 80 bits of entropy, so refs stay unique without coordination.
func newOrderRef() string {
	return "GF-" + ulid.Make().String()
}

// acceptableEmail mirrors the gateway's minimum contact requirement so the
// attempt is rejected before a payment row is written.
func acceptableEmail(s string) bool {
	return len(s) >= 5 && strings.Contains(s, "@") && strings.Contains(s, ".")
}
