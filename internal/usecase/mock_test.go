//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/adapter"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/repository"
)

// -----------------------------
// Utilities
// -----------------------------

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func strPtr(s string) *string { return &s }

// =============================
// Repositories
// =============================

// ---- Mock PaymentRepository ----

type MockPaymentRepo struct {
	mu   sync.Mutex
	data map[string]*model.Payment // by id

	SaveFunc                 func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	FindByIDFunc             func(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error)
	FindByOrderRefFunc       func(ctx context.Context, tx repository.Tx, orderRef string) (*model.Payment, error)
	CompleteIfPendingFunc    func(ctx context.Context, tx repository.Tx, id, gatewayPaymentID string, completedAt time.Time) (bool, error)
	FailIfPendingFunc        func(ctx context.Context, tx repository.Tx, id string) (bool, error)
	RefundIfCompletedFunc    func(ctx context.Context, tx repository.Tx, id string) (bool, error)
	SumCompletedSinceFunc    func(ctx context.Context, tx repository.Tx, since time.Time) (int64, error)
	ListPendingOlderThanFunc func(ctx context.Context, tx repository.Tx, cutoff time.Time) ([]*model.Payment, error)
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{data: map[string]*model.Payment{}}
}

func (r *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.data {
		if existing.OrderRef == p.OrderRef {
			return domain.ErrAlreadyExists
		}
	}
	cp := *p
	r.data[p.ID] = &cp
	return nil
}

func (r *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockPaymentRepo) FindByOrderRef(ctx context.Context, tx repository.Tx, orderRef string) (*model.Payment, error) {
	if r.FindByOrderRefFunc != nil {
		return r.FindByOrderRefFunc(ctx, tx, orderRef)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.data {
		if p.OrderRef == orderRef {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockPaymentRepo) ListByPayer(ctx context.Context, tx repository.Tx, payerID string) ([]*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.data {
		if p.PayerID == payerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CompleteIfPending mirrors the conditional UPDATE: the status check and the
// transition happen under one lock, so concurrent callers race exactly like
// they do against the database.
func (r *MockPaymentRepo) CompleteIfPending(ctx context.Context, tx repository.Tx, id, gatewayPaymentID string, completedAt time.Time) (bool, error) {
	if r.CompleteIfPendingFunc != nil {
		return r.CompleteIfPendingFunc(ctx, tx, id, gatewayPaymentID, completedAt)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = model.PaymentStatusCompleted
	if gatewayPaymentID != "" {
		p.GatewayPaymentID = strPtr(gatewayPaymentID)
	}
	at := completedAt
	p.CompletedAt = &at
	return true, nil
}

func (r *MockPaymentRepo) FailIfPending(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	if r.FailIfPendingFunc != nil {
		return r.FailIfPendingFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = model.PaymentStatusFailed
	return true, nil
}

func (r *MockPaymentRepo) RefundIfCompleted(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	if r.RefundIfCompletedFunc != nil {
		return r.RefundIfCompletedFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status != model.PaymentStatusCompleted {
		return false, nil
	}
	p.Status = model.PaymentStatusRefunded
	return true, nil
}

func (r *MockPaymentRepo) SumCompletedSince(ctx context.Context, tx repository.Tx, since time.Time) (int64, error) {
	if r.SumCompletedSinceFunc != nil {
		return r.SumCompletedSinceFunc(ctx, tx, since)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, p := range r.data {
		if p.Status == model.PaymentStatusCompleted && p.CompletedAt != nil && !p.CompletedAt.Before(since) {
			sum += p.AmountCents
		}
	}
	return sum, nil
}

func (r *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time) ([]*model.Payment, error) {
	if r.ListPendingOlderThanFunc != nil {
		return r.ListPendingOlderThanFunc(ctx, tx, cutoff)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.data {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(cutoff) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Status is a test helper to peek at stored state.
func (r *MockPaymentRepo) Status(id string) model.PaymentStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[id]; ok {
		return p.Status
	}
	return ""
}

// ---- Mock SubscriptionRepository ----

type MockSubscriptionRepo struct {
	mu   sync.Mutex
	data map[string]*model.Subscription // by id

	SaveFunc             func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
	UpdateFunc           func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
	FindByIDFunc         func(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error)
	FindByPaymentIDFunc  func(ctx context.Context, tx repository.Tx, paymentID string) (*model.Subscription, error)
	FindActiveByPairFunc func(ctx context.Context, tx repository.Tx, memberID, instructorID string) (*model.Subscription, error)
	ExpireDueFunc        func(ctx context.Context, tx repository.Tx, now time.Time) (int64, error)
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{data: map[string]*model.Subscription{}}
}

// Save enforces the partial unique index: one active row per
// (member, instructor) pair.
func (r *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, s)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.Status == model.SubscriptionStatusActive {
		for _, existing := range r.data {
			if existing.MemberID == s.MemberID && existing.InstructorID == s.InstructorID &&
				existing.Status == model.SubscriptionStatusActive && existing.ID != s.ID {
				return domain.ErrAlreadyExists
			}
		}
	}
	cp := *s
	r.data[s.ID] = &cp
	return nil
}

func (r *MockSubscriptionRepo) Update(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if r.UpdateFunc != nil {
		return r.UpdateFunc(ctx, tx, s)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[s.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *s
	r.data[s.ID] = &cp
	return nil
}

func (r *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.data[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockSubscriptionRepo) FindByPaymentID(ctx context.Context, tx repository.Tx, paymentID string) (*model.Subscription, error) {
	if r.FindByPaymentIDFunc != nil {
		return r.FindByPaymentIDFunc(ctx, tx, paymentID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.data {
		if s.PaymentID == paymentID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockSubscriptionRepo) FindActiveByPair(ctx context.Context, tx repository.Tx, memberID, instructorID string) (*model.Subscription, error) {
	if r.FindActiveByPairFunc != nil {
		return r.FindActiveByPairFunc(ctx, tx, memberID, instructorID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.data {
		if s.MemberID == memberID && s.InstructorID == instructorID && s.Status == model.SubscriptionStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockSubscriptionRepo) ListByMember(ctx context.Context, tx repository.Tx, memberID string) ([]*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Subscription
	for _, s := range r.data {
		if s.MemberID == memberID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockSubscriptionRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	if r.ExpireDueFunc != nil {
		return r.ExpireDueFunc(ctx, tx, now)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.data {
		if s.Status == model.SubscriptionStatusActive && !s.ExpiresAt.After(now) {
			s.Status = model.SubscriptionStatusExpired
			n++
		}
	}
	return n, nil
}

// Count is a test helper.
func (r *MockSubscriptionRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// ---- Mock MembershipRepository ----

type MockMembershipRepo struct {
	mu   sync.Mutex
	data map[string]*model.Membership // by id

	SaveFunc                      func(ctx context.Context, tx repository.Tx, m *model.Membership) error
	FindByPaymentIDFunc           func(ctx context.Context, tx repository.Tx, paymentID string) (*model.Membership, error)
	FindLatestCurrentByMemberFunc func(ctx context.Context, tx repository.Tx, memberID string, now time.Time) (*model.Membership, error)
	ExpireDueFunc                 func(ctx context.Context, tx repository.Tx, now time.Time) (int64, error)
	ActivateDueFunc               func(ctx context.Context, tx repository.Tx, now time.Time) (int64, error)
}

var _ repository.MembershipRepository = (*MockMembershipRepo)(nil)

func NewMockMembershipRepo() *MockMembershipRepo {
	return &MockMembershipRepo{data: map[string]*model.Membership{}}
}

func (r *MockMembershipRepo) Save(ctx context.Context, tx repository.Tx, m *model.Membership) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, m)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.data[m.ID] = &cp
	return nil
}

func (r *MockMembershipRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.data[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockMembershipRepo) FindByPaymentID(ctx context.Context, tx repository.Tx, paymentID string) (*model.Membership, error) {
	if r.FindByPaymentIDFunc != nil {
		return r.FindByPaymentIDFunc(ctx, tx, paymentID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.data {
		if m.PaymentID == paymentID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockMembershipRepo) FindLatestCurrentByMember(ctx context.Context, tx repository.Tx, memberID string, now time.Time) (*model.Membership, error) {
	if r.FindLatestCurrentByMemberFunc != nil {
		return r.FindLatestCurrentByMemberFunc(ctx, tx, memberID, now)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.Membership
	for _, m := range r.data {
		if m.MemberID != memberID || m.EndAt.Before(now) || m.EndAt.Equal(now) {
			continue
		}
		if m.Status != model.MembershipStatusActive && m.Status != model.MembershipStatusPending {
			continue
		}
		if latest == nil || m.EndAt.After(latest.EndAt) {
			latest = m
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *MockMembershipRepo) ListByMember(ctx context.Context, tx repository.Tx, memberID string) ([]*model.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Membership
	for _, m := range r.data {
		if m.MemberID == memberID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockMembershipRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	if r.ExpireDueFunc != nil {
		return r.ExpireDueFunc(ctx, tx, now)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.data {
		if (m.Status == model.MembershipStatusActive || m.Status == model.MembershipStatusPending) && !m.EndAt.After(now) {
			m.Status = model.MembershipStatusExpired
			n++
		}
	}
	return n, nil
}

func (r *MockMembershipRepo) ActivateDue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	if r.ActivateDueFunc != nil {
		return r.ActivateDueFunc(ctx, tx, now)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.data {
		if m.Status == model.MembershipStatusPending && !m.StartAt.After(now) && m.EndAt.After(now) {
			m.Status = model.MembershipStatusActive
			n++
		}
	}
	return n, nil
}

// Count is a test helper.
func (r *MockMembershipRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// ---- Mock MembershipPlanRepository ----

type MockPlanRepo struct {
	mu   sync.Mutex
	data map[string]*model.MembershipPlan

	FindByIDFunc func(ctx context.Context, id string) (*model.MembershipPlan, error)
}

var _ repository.MembershipPlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{data: map[string]*model.MembershipPlan{}}
}

func (r *MockPlanRepo) Save(ctx context.Context, plan *model.MembershipPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *plan
	r.data[plan.ID] = &cp
	return nil
}

func (r *MockPlanRepo) FindByID(ctx context.Context, id string) (*model.MembershipPlan, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockPlanRepo) ListActive(ctx context.Context) ([]*model.MembershipPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.MembershipPlan
	for _, p := range r.data {
		if p.Active {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockPlanRepo) ListAll(ctx context.Context) ([]*model.MembershipPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.MembershipPlan
	for _, p := range r.data {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MockPlanRepo) Deactivate(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Active = false
	return nil
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

type MockPaymentGateway struct {
	mu     sync.Mutex
	Builds []*model.Payment // payments BuildCheckout was asked to sign

	BuildCheckoutFunc      func(p *model.Payment, payer adapter.PayerDetails) (*adapter.CheckoutSession, error)
	VerifyNotificationFunc func(n adapter.Notification) (*adapter.VerifiedNotification, error)
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string { return "mockpay" }

func (m *MockPaymentGateway) BuildCheckout(p *model.Payment, payer adapter.PayerDetails) (*adapter.CheckoutSession, error) {
	if m.BuildCheckoutFunc != nil {
		return m.BuildCheckoutFunc(p, payer)
	}
	m.mu.Lock()
	m.Builds = append(m.Builds, p)
	m.mu.Unlock()
	return &adapter.CheckoutSession{
		CheckoutURL: "https://pay.example/checkout",
		Params:      map[string]string{"order_id": p.OrderRef, "hash": "FAKE"},
	}, nil
}

// VerifyNotification's default treats every notification as authentic; tests
// aiming at signature rejection override this.
func (m *MockPaymentGateway) VerifyNotification(n adapter.Notification) (*adapter.VerifiedNotification, error) {
	if m.VerifyNotificationFunc != nil {
		return m.VerifyNotificationFunc(n)
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

// ---- Mock ReceiptNotifier ----

type MockReceiptNotifier struct {
	mu   sync.Mutex
	Sent []*model.Payment

	SendReceiptFunc func(ctx context.Context, p *model.Payment) error
}

var _ adapter.ReceiptNotifier = (*MockReceiptNotifier)(nil)

func (m *MockReceiptNotifier) SendReceipt(ctx context.Context, p *model.Payment) error {
	if m.SendReceiptFunc != nil {
		return m.SendReceiptFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, p)
	return nil
}

func (m *MockReceiptNotifier) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithTx runs the function immediately without a real transaction. Tests
// that need to verify transactional behavior assign WithTxFunc.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// =============================
// Fixtures
// =============================

func pendingPayment(purpose model.PaymentPurpose) *model.Payment {
	p, err := model.NewPayment(uuid.NewString(), "GF-"+uuid.NewString(), uuid.NewString(), nil,
		100000, "LKR", "Gold membership", purpose)
	if err != nil {
		panic(err)
	}
	return p
}
