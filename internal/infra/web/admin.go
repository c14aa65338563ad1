package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain"
	"github.com/NRCPerera/Get-Fit-backend/internal/usecase"
)

// Checkouts still pending after this long count as abandoned in the
// stats report.
const abandonedAfter = 2 * time.Hour

// OpsServer carries the operational surface: health, Prometheus metrics
// and the admin API. It binds on its own port so none of it ever faces
// the public network.
type OpsServer struct {
	statsUC usecase.StatsUseCase
	planUC  usecase.PlanUseCase
	apiKey  string
	log     *zerolog.Logger
}

func NewOpsServer(
	statsUC usecase.StatsUseCase,
	planUC usecase.PlanUseCase,
	apiKey string,
	logger *zerolog.Logger,
) *OpsServer {
	return &OpsServer{
		statsUC: statsUC,
		planUC:  planUC,
		apiKey:  apiKey,
		log:     logger,
	}
}

func (s *OpsServer) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(Recover(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/stats", s.handleStats)
		r.Get("/plans", s.handlePlansAll)
		r.Post("/plans", s.handlePlanCreate)
		r.Delete("/plans/{id}", s.handlePlanDeactivate)
	})
	return r
}

// Run blocks until ctx is cancelled or the listener fails.
func (s *OpsServer) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("ops server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// authMiddleware provides simple Bearer token authentication for the
// admin API.
func (s *OpsServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
			return
		}

		if tokenParts[1] != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *OpsServer) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	day, week, month, err := s.statsUC.Revenue(ctx)
	if err != nil {
		http.Error(w, "Failed to get revenue", http.StatusInternalServerError)
		return
	}
	abandoned, err := s.statsUC.AbandonedCheckouts(ctx, abandonedAfter)
	if err != nil {
		http.Error(w, "Failed to get abandoned checkouts", http.StatusInternalServerError)
		return
	}

	response := struct {
		RevenueCents struct {
			Day   int64 `json:"day"`
			Week  int64 `json:"week"`
			Month int64 `json:"month"`
		} `json:"revenue_cents"`
		AbandonedCheckouts int `json:"abandoned_checkouts"`
	}{
		AbandonedCheckouts: len(abandoned),
	}
	response.RevenueCents.Day = day
	response.RevenueCents.Week = week
	response.RevenueCents.Month = month

	writeJSON(w, http.StatusOK, response)
}

type adminPlanView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	DurationDays int       `json:"duration_days"`
	PriceCents   int64     `json:"price_cents"`
	Currency     string    `json:"currency"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

type planCreateRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DurationDays int    `json:"duration_days"`
	PriceCents   int64  `json:"price_cents"`
	Currency     string `json:"currency"`
}

func (s *OpsServer) handlePlanCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req planCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	plan, err := s.planUC.Create(ctx, req.Name, req.Description, req.DurationDays, req.PriceCents, req.Currency)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to create plan", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, adminPlanView{
		ID:           plan.ID,
		Name:         plan.Name,
		Description:  plan.Description,
		DurationDays: plan.DurationDays,
		PriceCents:   plan.PriceCents,
		Currency:     plan.Currency,
		Active:       plan.Active,
		CreatedAt:    plan.CreatedAt,
	})
}

func (s *OpsServer) handlePlansAll(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.ListAll(r.Context())
	if err != nil {
		http.Error(w, "Failed to list plans", http.StatusInternalServerError)
		return
	}

	views := make([]adminPlanView, 0, len(plans))
	for _, p := range plans {
		views = append(views, adminPlanView{
			ID:           p.ID,
			Name:         p.Name,
			Description:  p.Description,
			DurationDays: p.DurationDays,
			PriceCents:   p.PriceCents,
			Currency:     p.Currency,
			Active:       p.Active,
			CreatedAt:    p.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, struct {
		Data []adminPlanView `json:"data"`
	}{Data: views})
}

func (s *OpsServer) handlePlanDeactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.planUC.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to deactivate plan", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
