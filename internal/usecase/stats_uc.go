package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// StatsUseCase serves the ops endpoints: completed revenue and visibility
// into checkout attempts that never finished.
type StatsUseCase interface {
	// Revenue reports completed amounts in minor units over the trailing
	// day, week and month.
	Revenue(ctx context.Context) (day, week, month int64, err error)
	// AbandonedCheckouts lists pending payments older than the given age.
	AbandonedCheckouts(ctx context.Context, olderThan time.Duration) ([]*model.Payment, error)
}

type statsUC struct {
	payments repository.PaymentRepository
	log      *zerolog.Logger
}

func NewStatsUseCase(payments repository.PaymentRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{payments: payments, log: logger}
}

func (s *statsUC) Revenue(ctx context.Context) (int64, int64, int64, error) {
	now := time.Now()
	day, err := s.payments.SumCompletedSince(ctx, repository.NoTX, now.AddDate(0, 0, -1))
	if err != nil {
		return 0, 0, 0, err
	}
	week, err := s.payments.SumCompletedSince(ctx, repository.NoTX, now.AddDate(0, 0, -7))
	if err != nil {
		return 0, 0, 0, err
	}
	month, err := s.payments.SumCompletedSince(ctx, repository.NoTX, now.AddDate(0, -1, 0))
	if err != nil {
		return 0, 0, 0, err
	}
	return day, week, month, nil
}

func (s *statsUC) AbandonedCheckouts(ctx context.Context, olderThan time.Duration) ([]*model.Payment, error) {
	return s.payments.ListPendingOlderThan(ctx, repository.NoTX, time.Now().Add(-olderThan))
}
