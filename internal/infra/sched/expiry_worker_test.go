//go:build !integration

package sched

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/NRCPerera/Get-Fit-backend/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

type stubSubUC struct {
	usecase.SubscriptionUseCase // Embed interface; only ExpireDue is used here
	expireCalls                 atomic.Int64
	expireErr                   error
	swept                       chan struct{}
}

func (s *stubSubUC) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	s.expireCalls.Add(1)
	if s.swept != nil {
		select {
		case s.swept <- struct{}{}:
		default:
		}
	}
	if s.expireErr != nil {
		return 0, s.expireErr
	}
	return 1, nil
}

type stubMemUC struct {
	usecase.MembershipUseCase
	expireCalls   atomic.Int64
	activateCalls atomic.Int64
}

func (s *stubMemUC) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	s.expireCalls.Add(1)
	return 0, nil
}

func (s *stubMemUC) ActivateDue(ctx context.Context, now time.Time) (int64, error) {
	s.activateCalls.Add(1)
	return 0, nil
}

type stubLocker struct {
	held    bool
	locks   int
	unlocks int
}

func (s *stubLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.held {
		return "", errors.New("lock already held")
	}
	s.locks++
	return "token-1", nil
}

func (s *stubLocker) Unlock(ctx context.Context, key, token string) error {
	s.unlocks++
	return nil
}

func TestExpiryWorker_Sweep(t *testing.T) {
	t.Run("one pass covers expiry and promotion for both kinds", func(t *testing.T) {
		subUC := &stubSubUC{}
		memUC := &stubMemUC{}
		w := NewExpiryWorker(time.Hour, subUC, memUC, nil, newTestLogger())

		w.sweep(context.Background())

		if subUC.expireCalls.Load() != 1 {
			t.Errorf("subscription ExpireDue calls = %d, want 1", subUC.expireCalls.Load())
		}
		if memUC.expireCalls.Load() != 1 {
			t.Errorf("membership ExpireDue calls = %d, want 1", memUC.expireCalls.Load())
		}
		if memUC.activateCalls.Load() != 1 {
			t.Errorf("membership ActivateDue calls = %d, want 1", memUC.activateCalls.Load())
		}
	})

	t.Run("a failing sweep does not skip the others", func(t *testing.T) {
		subUC := &stubSubUC{expireErr: errors.New("db down")}
		memUC := &stubMemUC{}
		w := NewExpiryWorker(time.Hour, subUC, memUC, nil, newTestLogger())

		w.sweep(context.Background())

		if memUC.expireCalls.Load() != 1 || memUC.activateCalls.Load() != 1 {
			t.Error("expected membership sweeps to run despite the subscription error")
		}
	})

	t.Run("takes and releases the sweep lock", func(t *testing.T) {
		subUC := &stubSubUC{}
		memUC := &stubMemUC{}
		locker := &stubLocker{}
		w := NewExpiryWorker(time.Hour, subUC, memUC, locker, newTestLogger())

		w.sweep(context.Background())

		if locker.locks != 1 || locker.unlocks != 1 {
			t.Errorf("lock/unlock = %d/%d, want 1/1", locker.locks, locker.unlocks)
		}
		if subUC.expireCalls.Load() != 1 {
			t.Error("expected the sweep to run under the lock")
		}
	})

	t.Run("skips the pass when another instance holds the lock", func(t *testing.T) {
		subUC := &stubSubUC{}
		memUC := &stubMemUC{}
		w := NewExpiryWorker(time.Hour, subUC, memUC, &stubLocker{held: true}, newTestLogger())

		w.sweep(context.Background())

		if subUC.expireCalls.Load() != 0 || memUC.expireCalls.Load() != 0 {
			t.Error("expected no sweeps while the lock is held elsewhere")
		}
	})
}

func TestExpiryWorker_Run(t *testing.T) {
	subUC := &stubSubUC{swept: make(chan struct{}, 1)}
	memUC := &stubMemUC{}
	w := NewExpiryWorker(5*time.Millisecond, subUC, memUC, nil, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Wait for two ticks so we know the loop keeps going.
	for i := 0; i < 2; i++ {
		select {
		case <-subUC.swept:
		case <-time.After(2 * time.Second):
			t.Fatal("sweep did not run")
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on cancellation")
	}
}
