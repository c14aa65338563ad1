package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/repository"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/metrics"
)

// PlanCache is the slice of the redis client the decorator needs. A Get
// miss is reported through the bool, not an error.
type PlanCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// planCacheTTL also bounds how long a failed invalidation can keep serving
// a stale row.
const planCacheTTL = time.Hour

const activePlansKey = "plans:active"

func planKey(id string) string { return "plan:" + id }

var _ repository.MembershipPlanRepository = (*planRepoCacheDecorator)(nil)

// planRepoCacheDecorator caches the read-heavy plan catalog. The catalog
// changes only through admin writes, which invalidate both key families.
type planRepoCacheDecorator struct {
	inner repository.MembershipPlanRepository
	cache PlanCache
}

func NewPlanRepoCacheDecorator(inner repository.MembershipPlanRepository, cache PlanCache) repository.MembershipPlanRepository {
	return &planRepoCacheDecorator{inner: inner, cache: cache}
}

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, id string) (*model.MembershipPlan, error) {
	if val, ok, err := d.cache.Get(ctx, planKey(id)); err == nil && ok {
		var plan model.MembershipPlan
		if json.Unmarshal([]byte(val), &plan) == nil {
			metrics.IncCacheRequest("plan", "hit")
			return &plan, nil
		}
	}
	metrics.IncCacheRequest("plan", "miss")

	plan, err := d.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(plan); err == nil {
		_ = d.cache.Set(ctx, planKey(id), raw, planCacheTTL)
	}
	return plan, nil
}

func (d *planRepoCacheDecorator) ListActive(ctx context.Context) ([]*model.MembershipPlan, error) {
	if val, ok, err := d.cache.Get(ctx, activePlansKey); err == nil && ok {
		var plans []*model.MembershipPlan
		if json.Unmarshal([]byte(val), &plans) == nil {
			metrics.IncCacheRequest("plan_list", "hit")
			return plans, nil
		}
	}
	metrics.IncCacheRequest("plan_list", "miss")

	plans, err := d.inner.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		if raw, err := json.Marshal(plans); err == nil {
			_ = d.cache.Set(ctx, activePlansKey, raw, planCacheTTL)
		}
	}
	return plans, nil
}

// ListAll serves the admin surface and always reads through; it must see
// deactivated rows immediately.
func (d *planRepoCacheDecorator) ListAll(ctx context.Context) ([]*model.MembershipPlan, error) {
	return d.inner.ListAll(ctx)
}

func (d *planRepoCacheDecorator) Save(ctx context.Context, plan *model.MembershipPlan) error {
	if err := d.inner.Save(ctx, plan); err != nil {
		return err
	}
	// Best-effort invalidation after the row is written.
	_ = d.cache.Del(ctx, planKey(plan.ID), activePlansKey)
	return nil
}

func (d *planRepoCacheDecorator) Deactivate(ctx context.Context, id string) error {
	if err := d.inner.Deactivate(ctx, id); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, planKey(id), activePlansKey)
	return nil
}
