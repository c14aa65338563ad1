package model

import (
	"time"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // checkout built; awaiting gateway outcome
	PaymentStatusCompleted PaymentStatus = "completed" // verified as paid
	PaymentStatusFailed    PaymentStatus = "failed"    // gateway reported failure or cancellation
	PaymentStatusRefunded  PaymentStatus = "refunded"  // money returned after completion (out of band)
)

type PurposeKind string

const (
	PurposeMembership   PurposeKind = "membership"
	PurposeSubscription PurposeKind = "subscription"
	PurposeGeneric      PurposeKind = "generic"
)

// PaymentPurpose is the closed set of reasons money is collected. Kind selects
// which optional field group is meaningful; the activators switch on it and
// ignore everything else. Serialized to JSONB by the repository.
type PaymentPurpose struct {
	Kind PurposeKind `json:"kind"`

	// Membership purchase (Kind == PurposeMembership). The plan snapshot is
	// taken at checkout time; the actual period is computed at activation,
	// where stacking applies.
	PlanID       string `json:"plan_id,omitempty"`
	PlanName     string `json:"plan_name,omitempty"`
	DurationDays int    `json:"duration_days,omitempty"`

	// Instructor subscription (Kind == PurposeSubscription)
	CounterpartyID string `json:"counterparty_id,omitempty"`
}

func MembershipPurpose(planID, planName string, durationDays int) PaymentPurpose {
	return PaymentPurpose{
		Kind:         PurposeMembership,
		PlanID:       planID,
		PlanName:     planName,
		DurationDays: durationDays,
	}
}

func SubscriptionPurpose(counterpartyID string) PaymentPurpose {
	return PaymentPurpose{Kind: PurposeSubscription, CounterpartyID: counterpartyID}
}

func GenericPurpose() PaymentPurpose {
	return PaymentPurpose{Kind: PurposeGeneric}
}

// Payment records one attempt to collect money. It is the append-only source
// of truth for the entitlement records derived from it and is never deleted.
type Payment struct {
	ID               string  // UUID
	OrderRef         string  // merchant-generated gateway correlation key; unique, immutable
	PayerID          string  // UUID of the paying user
	BeneficiaryID    *string // optional UUID, e.g. the instructor being paid for
	AmountCents      int64   // minor units (cents), to avoid float errors
	Currency         string  // ISO-ish code; "LKR" for PayHere
	Status           PaymentStatus
	GatewayPaymentID *string // provider payment id, populated on success only
	Purpose          PaymentPurpose
	Description      string // item description shown at the hosted checkout
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

// NewPayment validates and constructs a pending payment attempt.
func NewPayment(id, orderRef, payerID string, beneficiaryID *string, amountCents int64, currency, description string, purpose PaymentPurpose) (*Payment, error) {
	if id == "" || orderRef == "" || payerID == "" || currency == "" {
		return nil, domain.ErrInvalidArgument
	}
	if amountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	return &Payment{
		ID:            id,
		OrderRef:      orderRef,
		PayerID:       payerID,
		BeneficiaryID: beneficiaryID,
		AmountCents:   amountCents,
		Currency:      currency,
		Status:        PaymentStatusPending,
		Purpose:       purpose,
		Description:   description,
		CreatedAt:     time.Now(),
	}, nil
}
