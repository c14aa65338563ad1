package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/repository"
)

// PlanUseCase manages the purchasable membership plan catalog.
type PlanUseCase interface {
	Create(ctx context.Context, name, description string, durationDays int, priceCents int64, currency string) (*model.MembershipPlan, error)
	Get(ctx context.Context, id string) (*model.MembershipPlan, error)
	// ListActive returns plans members can currently buy, cheapest first.
	ListActive(ctx context.Context) ([]*model.MembershipPlan, error)
	ListAll(ctx context.Context) ([]*model.MembershipPlan, error)
	// Deactivate soft-deletes a plan: it disappears from the catalog but
	// stays resolvable for existing memberships and receipts.
	Deactivate(ctx context.Context, id string) error
}

var _ PlanUseCase = (*planUC)(nil)

type planUC struct {
	plans repository.MembershipPlanRepository
	log   *zerolog.Logger
}

func NewPlanUseCase(plans repository.MembershipPlanRepository, logger *zerolog.Logger) *planUC {
	return &planUC{plans: plans, log: logger}
}

func (u *planUC) Create(ctx context.Context, name, description string, durationDays int, priceCents int64, currency string) (*model.MembershipPlan, error) {
	plan, err := model.NewMembershipPlan(uuid.NewString(), name, durationDays, priceCents, currency)
	if err != nil {
		return nil, err
	}
	plan.Description = description
	if err := u.plans.Save(ctx, plan); err != nil {
		return nil, err
	}
	u.log.Info().Str("plan_id", plan.ID).Str("name", plan.Name).Msg("membership plan created")
	return plan, nil
}

func (u *planUC) Get(ctx context.Context, id string) (*model.MembershipPlan, error) {
	return u.plans.FindByID(ctx, id)
}

func (u *planUC) ListActive(ctx context.Context) ([]*model.MembershipPlan, error) {
	return u.plans.ListActive(ctx)
}

func (u *planUC) ListAll(ctx context.Context) ([]*model.MembershipPlan, error) {
	return u.plans.ListAll(ctx)
}

func (u *planUC) Deactivate(ctx context.Context, id string) error {
	if err := u.plans.Deactivate(ctx, id); err != nil {
		return err
	}
	u.log.Info().Str("plan_id", id).Msg("membership plan deactivated")
	return nil
}
