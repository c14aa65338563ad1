package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/repository"
	"github.com/NRCPerera/Get-Fit-backend/internal/usecase"
)

// RateLimiter guards checkout initiation. A nil limiter disables the guard.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Server is the member-facing API plus the gateway's callback endpoints.
type Server struct {
	checkoutUC   usecase.CheckoutUseCase
	completionUC usecase.CompletionUseCase
	planUC       usecase.PlanUseCase
	payments     repository.PaymentRepository
	auth         *AuthManager
	limiter      RateLimiter
	log          *zerolog.Logger
}

func NewServer(
	checkoutUC usecase.CheckoutUseCase,
	completionUC usecase.CompletionUseCase,
	planUC usecase.PlanUseCase,
	payments repository.PaymentRepository,
	auth *AuthManager,
	limiter RateLimiter,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		checkoutUC:   checkoutUC,
		completionUC: completionUC,
		planUC:       planUC,
		payments:     payments,
		auth:         auth,
		limiter:      limiter,
		log:          logger,
	}
}

// Routes builds the router. The notify endpoint and the browser-facing
// result pages are unauthenticated; the gateway cannot present a member
// token and neither can a redirected browser.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(TraceID())
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))
	r.Use(Timeout(30 * time.Second))

	r.Post("/api/v1/payments/notify", s.handleNotify)
	r.Get("/payments/return", s.handleReturn)
	r.Get("/payments/cancel", s.handleCancel)
	r.Get("/api/v1/plans", s.handlePlansList)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.RequireMember)
		r.Post("/api/v1/checkout", s.handleCheckout)
		r.Post("/api/v1/payments/{id}/complete", s.handleCompleteManually)
		r.Get("/api/v1/payments/{id}", s.handlePaymentGet)
		r.Get("/api/v1/payments", s.handlePaymentsList)
	})

	return r
}

// Run serves the router until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("api server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
