package model

import (
	"time"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain"
)

// MembershipPlan is a purchasable gym-access tier. Prices are stored in
// minor units of Currency.
type MembershipPlan struct {
	ID           string
	Name         string
	Description  string
	DurationDays int
	PriceCents   int64
	Currency     string
	Active       bool // inactive plans stay resolvable for old receipts but cannot be bought
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewMembershipPlan(id, name string, durationDays int, priceCents int64, currency string) (*MembershipPlan, error) {
	if id == "" || name == "" || currency == "" {
		return nil, domain.ErrInvalidArgument
	}
	if durationDays <= 0 || priceCents <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &MembershipPlan{
		ID:           id,
		Name:         name,
		DurationDays: durationDays,
		PriceCents:   priceCents,
		Currency:     currency,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
