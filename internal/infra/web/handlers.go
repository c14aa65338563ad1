package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/adapter"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/repository"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/logging"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/metrics"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/payment/payhere"
)

// ---- JSON views ----

type paymentView struct {
	ID               string     `json:"id"`
	OrderRef         string     `json:"order_ref"`
	Status           string     `json:"status"`
	AmountCents      int64      `json:"amount_cents"`
	Currency         string     `json:"currency"`
	Description      string     `json:"description"`
	Purpose          string     `json:"purpose"`
	GatewayPaymentID *string    `json:"gateway_payment_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

func toPaymentView(p *model.Payment) paymentView {
	return paymentView{
		ID:               p.ID,
		OrderRef:         p.OrderRef,
		Status:           string(p.Status),
		AmountCents:      p.AmountCents,
		Currency:         p.Currency,
		Description:      p.Description,
		Purpose:          string(p.Purpose.Kind),
		GatewayPaymentID: p.GatewayPaymentID,
		CreatedAt:        p.CreatedAt,
		CompletedAt:      p.CompletedAt,
	}
}

type planView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	DurationDays int    `json:"duration_days"`
	PriceCents   int64  `json:"price_cents"`
	Currency     string `json:"currency"`
}

func toPlanView(p *model.MembershipPlan) planView {
	return planView{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		DurationDays: p.DurationDays,
		PriceCents:   p.PriceCents,
		Currency:     p.Currency,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ---- Checkout ----

type checkoutRequest struct {
	PlanID       string `json:"plan_id"`
	InstructorID string `json:"instructor_id"`
	AmountCents  int64  `json:"amount_cents"`
	Payer        struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
		Address   string `json:"address"`
		City      string `json:"city"`
		Country   string `json:"country"`
	} `json:"payer"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, ok := MemberIDFrom(ctx)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, memberID)
		if err != nil {
			// A broken limiter must not take checkout down with it.
			logging.With(ctx, s.log).Warn().Err(err).Msg("rate limiter unavailable")
		} else if !allowed {
			http.Error(w, "Too many checkout attempts", http.StatusTooManyRequests)
			return
		}
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if (req.PlanID == "") == (req.InstructorID == "") {
		http.Error(w, "Exactly one of plan_id or instructor_id is required", http.StatusBadRequest)
		return
	}

	payer := adapter.PayerDetails{
		FirstName: req.Payer.FirstName,
		LastName:  req.Payer.LastName,
		Email:     req.Payer.Email,
		Phone:     req.Payer.Phone,
		Address:   req.Payer.Address,
		City:      req.Payer.City,
		Country:   req.Payer.Country,
	}

	var (
		p    *model.Payment
		sess *adapter.CheckoutSession
		err  error
	)
	if req.PlanID != "" {
		p, sess, err = s.checkoutUC.InitiateForPlan(ctx, memberID, req.PlanID, payer)
	} else {
		p, sess, err = s.checkoutUC.InitiateForSubscription(ctx, memberID, req.InstructorID, req.AmountCents, payer)
	}
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPayerContact):
			http.Error(w, "A valid payer email is required", http.StatusBadRequest)
		case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Plan not found", http.StatusNotFound)
		default:
			logging.With(ctx, s.log).Error().Err(err).Msg("checkout initiation failed")
			http.Error(w, "Failed to initiate checkout", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Payment  paymentView `json:"payment"`
		Checkout struct {
			URL    string            `json:"url"`
			Params map[string]string `json:"params"`
		} `json:"checkout"`
	}{
		Payment: toPaymentView(p),
		Checkout: struct {
			URL    string            `json:"url"`
			Params map[string]string `json:"params"`
		}{URL: sess.CheckoutURL, Params: sess.Params},
	})
}

// ---- Webhook channel ----

// handleNotify acknowledges every notification it can parse, whatever the
// verification outcome. A non-2xx answer makes the gateway redeliver, and
// redelivering a forged or unknown notification cannot help anyone.
func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		metrics.ObserveNotifyDuration("unparseable", time.Since(start).Seconds())
		http.Error(w, "Malformed form body", http.StatusBadRequest)
		return
	}
	n, err := payhere.NotificationFromForm(r.PostForm)
	if err != nil {
		metrics.ObserveNotifyDuration("unparseable", time.Since(start).Seconds())
		http.Error(w, "Malformed notification: "+err.Error(), http.StatusBadRequest)
		return
	}

	ctx = logging.WithOrderRef(ctx, n.OrderRef)
	outcome, err := s.completionUC.HandleNotification(ctx, n)
	if err != nil {
		// Infrastructure failure: let the gateway redeliver later.
		metrics.ObserveNotifyDuration("error", time.Since(start).Seconds())
		logging.With(ctx, s.log).Error().Err(err).Msg("notification handling failed")
		http.Error(w, "Temporary failure", http.StatusInternalServerError)
		return
	}

	metrics.ObserveNotifyDuration(string(outcome), time.Since(start).Seconds())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// ---- Return/cancel pages ----

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderRef := r.URL.Query().Get("order_id")
	if orderRef == "" {
		renderResult(w, http.StatusBadRequest, resultFailed, "The payment reference is missing from the link.")
		return
	}
	ctx = logging.WithOrderRef(ctx, orderRef)

	p, err := s.completionUC.CompleteFromReturn(ctx, orderRef)
	switch {
	case err == nil:
		renderForPayment(w, p)
	case errors.Is(err, domain.ErrStaleCompletion):
		// The webhook may still land; promise nothing either way.
		renderResult(w, http.StatusOK, resultProcessing, "Your payment is being confirmed. Check back in a few minutes.")
	case errors.Is(err, domain.ErrNotFound):
		renderResult(w, http.StatusNotFound, resultFailed, "We could not find this payment.")
	default:
		logging.With(ctx, s.log).Error().Err(err).Msg("return completion failed")
		renderResult(w, http.StatusInternalServerError, resultProcessing, "Something went wrong on our side. Your payment is safe; check back shortly.")
	}
}

func renderForPayment(w http.ResponseWriter, p *model.Payment) {
	switch p.Status {
	case model.PaymentStatusCompleted:
		renderResult(w, http.StatusOK, resultSuccess, "Your payment of "+payhere.FormatAmount(p.AmountCents)+" "+p.Currency+" is confirmed.")
	case model.PaymentStatusFailed:
		renderResult(w, http.StatusOK, resultFailed, "The payment was not completed. You have not been charged.")
	default:
		renderResult(w, http.StatusOK, resultProcessing, "Your payment is being confirmed. Check back in a few minutes.")
	}
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	// Nothing to record: an abandoned checkout stays pending until the
	// gateway says otherwise.
	renderResult(w, http.StatusOK, resultCancelled, "The payment was cancelled. You have not been charged.")
}

// ---- Manual channel + status polls ----

func (s *Server) handleCompleteManually(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, _ := MemberIDFrom(ctx)
	paymentID := chi.URLParam(r, "id")

	p, err := s.completionUC.CompleteManually(ctx, memberID, paymentID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, domain.ErrNotPaymentOwner):
			http.Error(w, "Forbidden", http.StatusForbidden)
		case errors.Is(err, domain.ErrStaleCompletion):
			http.Error(w, "The confirmation window for this payment has passed", http.StatusConflict)
		default:
			logging.With(ctx, s.log).Error().Err(err).Msg("manual completion failed")
			http.Error(w, "Failed to confirm payment", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, toPaymentView(p))
}

func (s *Server) handlePaymentGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, _ := MemberIDFrom(ctx)
	paymentID := chi.URLParam(r, "id")

	p, err := s.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to get payment", http.StatusInternalServerError)
		return
	}
	// Someone else's payment reads as absent.
	if p.PayerID != memberID {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentView(p))
}

func (s *Server) handlePaymentsList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, _ := MemberIDFrom(ctx)

	list, err := s.payments.ListByPayer(ctx, repository.NoTX, memberID)
	if err != nil {
		http.Error(w, "Failed to list payments", http.StatusInternalServerError)
		return
	}
	views := make([]paymentView, 0, len(list))
	for _, p := range list {
		views = append(views, toPaymentView(p))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []paymentView `json:"data"`
	}{Data: views})
}

// ---- Plan catalog ----

func (s *Server) handlePlansList(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.ListActive(r.Context())
	if err != nil {
		http.Error(w, "Failed to list plans", http.StatusInternalServerError)
		return
	}
	views := make([]planView, 0, len(plans))
	for _, p := range plans {
		views = append(views, toPlanView(p))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []planView `json:"data"`
	}{Data: views})
}
