package model

import (
	"time"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain"
)

type MembershipStatus string

const (
	MembershipStatusActive    MembershipStatus = "active"
	MembershipStatusPending   MembershipStatus = "pending" // stacked period that has not started yet
	MembershipStatusExpired   MembershipStatus = "expired"
	MembershipStatusCancelled MembershipStatus = "cancelled"
)

// Membership is one purchased gym-access period, with EndAt as the exclusive
// end instant. A member may hold several rows at once; buying while a period
// is still running appends a new period directly after the latest one ends,
// so paid time is never lost.
type Membership struct {
	ID           string
	MemberID     string
	PlanID       string
	PlanName     string // denormalized so receipts survive plan renames
	DurationDays int
	AmountCents  int64
	Currency     string
	PaymentID    string // completed payment that bought this period
	Status       MembershipStatus
	AutoRenew    bool
	StartAt      time.Time
	EndAt        time.Time
	CreatedAt    time.Time
}

// NewMembership constructs a purchased period. Periods that begin in the
// future (stacked purchases) start out pending and are promoted to active
// once their start date arrives.
func NewMembership(id, memberID, planID, planName, paymentID string, amountCents int64, currency string, startAt time.Time, durationDays int) (*Membership, error) {
	if id == "" || memberID == "" || planID == "" || paymentID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if durationDays <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	status := MembershipStatusActive
	if startAt.After(now) {
		status = MembershipStatusPending
	}
	return &Membership{
		ID:           id,
		MemberID:     memberID,
		PlanID:       planID,
		PlanName:     planName,
		DurationDays: durationDays,
		AmountCents:  amountCents,
		Currency:     currency,
		PaymentID:    paymentID,
		Status:       status,
		StartAt:      startAt,
		EndAt:        startAt.AddDate(0, 0, durationDays),
		CreatedAt:    now,
	}, nil
}

func (m *Membership) ExpiredAt(now time.Time) bool {
	return !m.EndAt.After(now)
}

// StackStart returns the instant a freshly purchased period should begin
// given the exclusive end of the member's latest period. With no current
// period, or one already over, the new period starts immediately; otherwise
// it begins exactly where the running one ends.
func StackStart(latestEnd *time.Time, now time.Time) time.Time {
	if latestEnd == nil || !latestEnd.After(now) {
		return now
	}
	return *latestEnd
}
