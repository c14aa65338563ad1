package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/NRCPerera/Get-Fit-backend/internal/infra/metrics"
	"github.com/NRCPerera/Get-Fit-backend/internal/usecase"
)

// Locker serializes sweeps across app instances. The sweeps themselves are
// idempotent, so locking only avoids duplicate work, never corruption; a
// nil Locker runs every pass locally.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	Unlock(ctx context.Context, key, token string) error
}

const (
	sweepLockKey = "lock:entitlement_sweep"
	sweepLockTTL = 10 * time.Minute
)

// ExpiryWorker periodically sweeps lapsed entitlements via the use cases.
// Each pass is a set of bulk conditional updates, so an overlapping or
// repeated run converges on the same state. Payments are never touched.
type ExpiryWorker struct {
	interval time.Duration
	subUC    usecase.SubscriptionUseCase
	memUC    usecase.MembershipUseCase
	locker   Locker
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, subUC usecase.SubscriptionUseCase, memUC usecase.MembershipUseCase, locker Locker, logger *zerolog.Logger) *ExpiryWorker {
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval: interval,
		subUC:    subUC,
		memUC:    memUC,
		locker:   locker,
		log:      &exprLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep runs one pass over both entitlement kinds. Errors are logged and
// left for the next tick to retry; a failed sweep never stops the worker.
func (w *ExpiryWorker) sweep(ctx context.Context) {
	if w.locker != nil {
		token, err := w.locker.TryLock(ctx, sweepLockKey, sweepLockTTL)
		if err != nil {
			w.log.Debug().Err(err).Msg("skipping sweep, another instance holds the lock")
			return
		}
		defer func() {
			if err := w.locker.Unlock(ctx, sweepLockKey, token); err != nil {
				w.log.Warn().Err(err).Msg("failed to release sweep lock")
			}
		}()
	}

	start := time.Now()

	if n, err := w.subUC.ExpireDue(ctx, start); err != nil {
		w.log.Error().Err(err).Msg("subscription expiry sweep failed")
	} else if n > 0 {
		metrics.AddEntitlementsExpired("subscription", n)
		w.log.Info().Int64("count", n).Msg("expired subscriptions finished")
	}

	if n, err := w.memUC.ExpireDue(ctx, start); err != nil {
		w.log.Error().Err(err).Msg("membership expiry sweep failed")
	} else if n > 0 {
		metrics.AddEntitlementsExpired("membership", n)
		w.log.Info().Int64("count", n).Msg("expired membership periods finished")
	}

	if n, err := w.memUC.ActivateDue(ctx, start); err != nil {
		w.log.Error().Err(err).Msg("membership promotion sweep failed")
	} else if n > 0 {
		metrics.AddMembershipsPromoted(n)
		w.log.Info().Int64("count", n).Msg("stacked membership periods started")
	}

	metrics.ObserveSweepDuration(time.Since(start).Seconds())
}
