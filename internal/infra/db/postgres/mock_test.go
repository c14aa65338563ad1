//go:build !integration

package postgres

import (
	"context"
	"time"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/repository"
)

// --- Mocks for cache decorator tests ---

// mockInnerPlanRepo mocks the database repository the decorator wraps.
type mockInnerPlanRepo struct {
	SaveFunc       func(ctx context.Context, plan *model.MembershipPlan) error
	FindByIDFunc   func(ctx context.Context, id string) (*model.MembershipPlan, error)
	ListActiveFunc func(ctx context.Context) ([]*model.MembershipPlan, error)
	ListAllFunc    func(ctx context.Context) ([]*model.MembershipPlan, error)
	DeactivateFunc func(ctx context.Context, id string) error
}

var _ repository.MembershipPlanRepository = (*mockInnerPlanRepo)(nil)

func (m *mockInnerPlanRepo) Save(ctx context.Context, plan *model.MembershipPlan) error {
	return m.SaveFunc(ctx, plan)
}
func (m *mockInnerPlanRepo) FindByID(ctx context.Context, id string) (*model.MembershipPlan, error) {
	return m.FindByIDFunc(ctx, id)
}
func (m *mockInnerPlanRepo) ListActive(ctx context.Context) ([]*model.MembershipPlan, error) {
	return m.ListActiveFunc(ctx)
}
func (m *mockInnerPlanRepo) ListAll(ctx context.Context) ([]*model.MembershipPlan, error) {
	return m.ListAllFunc(ctx)
}
func (m *mockInnerPlanRepo) Deactivate(ctx context.Context, id string) error {
	return m.DeactivateFunc(ctx, id)
}

// mockPlanCache is an in-memory PlanCache that records invalidations.
type mockPlanCache struct {
	data        map[string]string
	deletedKeys []string
	getErr      error
}

var _ PlanCache = (*mockPlanCache)(nil)

func newMockPlanCache() *mockPlanCache {
	return &mockPlanCache{data: map[string]string{}}
}

func (m *mockPlanCache) Get(ctx context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	val, ok := m.data[key]
	return val, ok, nil
}

func (m *mockPlanCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = string(value)
	return nil
}

func (m *mockPlanCache) Del(ctx context.Context, keys ...string) error {
	m.deletedKeys = append(m.deletedKeys, keys...)
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}
