//go:build !integration

package web

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/adapter"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/repository"
	"github.com/NRCPerera/Get-Fit-backend/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// --- Mock Repositories (Ports) ---

type mockPaymentRepo struct {
	repository.PaymentRepository // Embed interface for forward compatibility
	mu                           sync.Mutex
	data                         map[string]*model.Payment
	SaveError                    error // To simulate errors
	FindError                    error
	ListError                    error
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{data: make(map[string]*model.Payment)}
}

func (m *mockPaymentRepo) add(p *model.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.data[p.ID] = &cp
}

func (m *mockPaymentRepo) status(id string) model.PaymentStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.data[id]; ok {
		return p.Status
	}
	return ""
}

func (m *mockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.data[p.ID] = &cp
	return nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPaymentRepo) FindByOrderRef(ctx context.Context, tx repository.Tx, orderRef string) (*model.Payment, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.data {
		if p.OrderRef == orderRef {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockPaymentRepo) ListByPayer(ctx context.Context, tx repository.Tx, payerID string) ([]*model.Payment, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.data {
		if p.PayerID == payerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockPaymentRepo) CompleteIfPending(ctx context.Context, tx repository.Tx, id, gatewayPaymentID string, completedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = model.PaymentStatusCompleted
	if gatewayPaymentID != "" {
		p.GatewayPaymentID = &gatewayPaymentID
	}
	at := completedAt
	p.CompletedAt = &at
	return true, nil
}

func (m *mockPaymentRepo) FailIfPending(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = model.PaymentStatusFailed
	return true, nil
}

func (m *mockPaymentRepo) SumCompletedSince(ctx context.Context, tx repository.Tx, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, p := range m.data {
		if p.Status == model.PaymentStatusCompleted && p.CompletedAt != nil && !p.CompletedAt.Before(since) {
			sum += p.AmountCents
		}
	}
	return sum, nil
}

func (m *mockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.data {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(cutoff) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type mockPlanRepo struct {
	repository.MembershipPlanRepository // Embed interface
	mu                                  sync.Mutex
	plans                               []*model.MembershipPlan
	ListError                           error
	SaveError                           error
}

func (m *mockPlanRepo) Save(ctx context.Context, plan *model.MembershipPlan) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *plan
	for i, existing := range m.plans {
		if existing.ID == plan.ID {
			m.plans[i] = &cp
			return nil
		}
	}
	m.plans = append(m.plans, &cp)
	return nil
}

func (m *mockPlanRepo) FindByID(ctx context.Context, id string) (*model.MembershipPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.plans {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockPlanRepo) ListActive(ctx context.Context) ([]*model.MembershipPlan, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.MembershipPlan
	for _, p := range m.plans {
		if p.Active {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockPlanRepo) ListAll(ctx context.Context) ([]*model.MembershipPlan, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.MembershipPlan, 0, len(m.plans))
	for _, p := range m.plans {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockPlanRepo) Deactivate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.plans {
		if p.ID == id {
			p.Active = false
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- Gateway / activator / limiter stubs ---

// testSignature is the only value mockGateway trusts; handler tests steer
// verification by sending it or not, no MD5 math involved.
const testSignature = "TEST-SIGNATURE"

type mockGateway struct{}

func (mockGateway) Name() string { return "payhere" }

func (mockGateway) BuildCheckout(p *model.Payment, payer adapter.PayerDetails) (*adapter.CheckoutSession, error) {
	return &adapter.CheckoutSession{
		CheckoutURL: "https://sandbox.payhere.lk/pay/checkout",
		Params:      map[string]string{"order_id": p.OrderRef, "hash": "ABC123"},
	}, nil
}

func (mockGateway) VerifyNotification(n adapter.Notification) (*adapter.VerifiedNotification, error) {
	if n.Signature != testSignature {
		return nil, domain.ErrInvalidSignature
	}
	return &adapter.VerifiedNotification{
		Success:          n.StatusCode == 2,
		OrderRef:         n.OrderRef,
		GatewayPaymentID: n.GatewayPaymentID,
		Amount:           n.Amount,
		Currency:         n.Currency,
		StatusCode:       n.StatusCode,
	}, nil
}

type stubActivator struct {
	mu    sync.Mutex
	calls []string
}

func (a *stubActivator) ActivateForPayment(ctx context.Context, p *model.Payment) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, p.ID)
	return nil
}

func (a *stubActivator) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

type stubLimiter struct {
	allow bool
	err   error
}

func (l *stubLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.allow, l.err
}

// --- Test server wiring ---

// testEnv routes requests through real use cases over the mocks above, so
// handler tests exercise the same paths production traffic takes.
type testEnv struct {
	payments  *mockPaymentRepo
	plans     *mockPlanRepo
	activator *stubActivator
	limiter   *stubLimiter
	auth      *AuthManager
	router    http.Handler
}

func newTestEnv() *testEnv {
	logger := newTestLogger()
	payments := newMockPaymentRepo()
	plans := &mockPlanRepo{}
	activator := &stubActivator{}
	limiter := &stubLimiter{allow: true}

	checkoutUC := usecase.NewCheckoutUseCase(payments, plans, mockGateway{}, "LKR", logger)
	completionUC := usecase.NewCompletionUseCase(payments, mockGateway{},
		map[model.PurposeKind]usecase.EntitlementActivator{
			model.PurposeMembership:   activator,
			model.PurposeSubscription: activator,
		}, nil, nil, time.Hour, logger)
	planUC := usecase.NewPlanUseCase(plans, logger)

	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour)
	srv := NewServer(checkoutUC, completionUC, planUC, payments, auth, limiter, logger)

	return &testEnv{
		payments:  payments,
		plans:     plans,
		activator: activator,
		limiter:   limiter,
		auth:      auth,
		router:    srv.Routes(),
	}
}

func (e *testEnv) bearerFor(t *testing.T, memberID string) string {
	t.Helper()
	tok, err := e.auth.Mint(memberID)
	if err != nil {
		t.Fatalf("minting test token: %v", err)
	}
	return "Bearer " + tok
}

func pendingPayment(memberID string) *model.Payment {
	p, err := model.NewPayment(uuid.NewString(), "GF-"+uuid.NewString(), memberID, nil,
		100000, "LKR", "Gold membership", model.MembershipPurpose("plan-gold", "Gold", 30))
	if err != nil {
		panic(err)
	}
	return p
}
