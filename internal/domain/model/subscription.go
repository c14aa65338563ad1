package model

import (
	"time"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription grants a member access to one instructor's content for a
// bounded period. At most one active subscription may exist per
// (member, instructor) pair; renewals extend the existing row instead of
// inserting a second one.
type Subscription struct {
	ID           string
	MemberID     string // the paying user
	InstructorID string // the instructor subscribed to
	PaymentID    string // completed payment that activated or last renewed it
	Status       SubscriptionStatus
	StartAt      time.Time
	ExpiresAt    time.Time
	CancelledAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewSubscription(id, memberID, instructorID, paymentID string, startAt time.Time, durationDays int) (*Subscription, error) {
	if id == "" || memberID == "" || instructorID == "" || paymentID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if durationDays <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Subscription{
		ID:           id,
		MemberID:     memberID,
		InstructorID: instructorID,
		PaymentID:    paymentID,
		Status:       SubscriptionStatusActive,
		StartAt:      startAt,
		ExpiresAt:    startAt.AddDate(0, 0, durationDays),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Renew pushes the expiry forward by durationDays, records the paying
// payment and clears any cancellation. An expired-but-not-yet-swept
// subscription restarts from now rather than stacking onto a lapsed period.
func (s *Subscription) Renew(paymentID string, durationDays int, now time.Time) {
	base := s.ExpiresAt
	if base.Before(now) {
		base = now
	}
	s.ExpiresAt = base.AddDate(0, 0, durationDays)
	s.Status = SubscriptionStatusActive
	s.CancelledAt = nil
	s.PaymentID = paymentID
	s.UpdatedAt = now
}

// Cancel revokes the subscription immediately. The row leaves the active
// state, so a later purchase for the same pair inserts a fresh subscription
// instead of extending this one.
func (s *Subscription) Cancel(now time.Time) {
	s.Status = SubscriptionStatusCancelled
	s.CancelledAt = &now
	s.UpdatedAt = now
}

func (s *Subscription) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
