package repository

import (
	"context"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
)

// MembershipPlanRepository is the port for plan persistence. Plans are never
// deleted, only deactivated, so old payments and memberships keep resolving.
type MembershipPlanRepository interface {
	Save(ctx context.Context, plan *model.MembershipPlan) error
	FindByID(ctx context.Context, id string) (*model.MembershipPlan, error)
	ListActive(ctx context.Context) ([]*model.MembershipPlan, error)
	ListAll(ctx context.Context) ([]*model.MembershipPlan, error)
	Deactivate(ctx context.Context, id string) error
}
