// File: cmd/app/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NRCPerera/Get-Fit-backend/internal/config"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/repository"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/db/postgres"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/logging"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/metrics"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/notify"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/payment/payhere"
	red "github.com/NRCPerera/Get-Fit-backend/internal/infra/redis"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/sched"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/web"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/worker"
	"github.com/NRCPerera/Get-Fit-backend/internal/usecase"
)

// Set by the release build via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

// Member tokens are minted by the wider platform with the same secret; the
// TTL here only caps tokens this service mints for tooling.
const tokenTTL = 24 * time.Hour

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		log.Warn().Msg("developer mode enabled")
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	go postgres.ReportPoolStats(ctx, pool, 30*time.Second, log)

	paymentRepo := postgres.NewPaymentRepo(pool)
	membershipRepo := postgres.NewMembershipRepo(pool)
	subscriptionRepo := postgres.NewSubscriptionRepo(pool)
	tm := postgres.NewTxManager(pool)
	var planRepo repository.MembershipPlanRepository = postgres.NewPlanRepo(pool)

	// ---- Redis (optional) ----
	var limiter web.RateLimiter
	var locker sched.Locker
	if cfg.Redis.URL != "" {
		client, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect failed")
		}
		defer client.Close()
		limiter = red.NewCheckoutLimiter(client, cfg.RateLimit.CheckoutPerMinute)
		locker = red.NewLocker(client)
		planRepo = postgres.NewPlanRepoCacheDecorator(planRepo, client)
	} else {
		log.Warn().Msg("redis not configured; checkout rate limiting, the sweep lock and the plan cache are disabled")
	}

	// ---- PayHere gateway ----
	gateway, err := payhere.NewGateway(cfg.Payment.PayHere, *log)
	if err != nil {
		log.Fatal().Err(err).Msg("payhere gateway init failed")
	}

	// ---- Receipt dispatch ----
	receiptPool := worker.NewPool(4, log)
	receiptPool.Start(ctx)
	receipts := notify.NewLogNotifier(log)

	// ---- Use cases ----
	subUC := usecase.NewSubscriptionUseCase(subscriptionRepo, tm, cfg.Subscription.DurationDays, log)
	memUC := usecase.NewMembershipUseCase(membershipRepo, tm, log)
	activators := map[model.PurposeKind]usecase.EntitlementActivator{
		model.PurposeMembership:   memUC,
		model.PurposeSubscription: subUC,
	}
	completionUC := usecase.NewCompletionUseCase(paymentRepo, gateway, activators, receipts, receiptPool, cfg.Payment.CompletionWindow, log)
	checkoutUC := usecase.NewCheckoutUseCase(paymentRepo, planRepo, gateway, cfg.Payment.Currency, log)
	planUC := usecase.NewPlanUseCase(planRepo, log)
	statsUC := usecase.NewStatsUseCase(paymentRepo, log)

	// ---- HTTP servers ----
	auth := web.NewAuthManager(cfg.Server.JWTSecret, tokenTTL)
	api := web.NewServer(checkoutUC, completionUC, planUC, paymentRepo, auth, limiter, log)
	apiDone := make(chan struct{})
	go func() {
		defer close(apiDone)
		if err := api.Run(ctx, fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)); err != nil {
			log.Error().Err(err).Msg("api server stopped")
			cancel()
		}
	}()

	ops := web.NewOpsServer(statsUC, planUC, cfg.Admin.APIKey, log)
	opsDone := make(chan struct{})
	go func() {
		defer close(opsDone)
		if err := ops.Run(ctx, fmt.Sprintf(":%d", cfg.Admin.Port)); err != nil {
			log.Error().Err(err).Msg("ops server stopped")
			cancel()
		}
	}()

	// ---- Entitlement expiry sweeper ----
	sweeper := sched.NewExpiryWorker(cfg.Scheduler.ExpiryInterval, subUC, memUC, locker, log)
	go func() { _ = sweeper.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		log.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}
	cancel()
	<-apiDone
	<-opsDone
	receiptPool.Stop()
	log.Info().Msg("shutdown complete")
}
