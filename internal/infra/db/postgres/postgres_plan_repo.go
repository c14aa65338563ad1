package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/repository"
)

// Ensure planRepo implements repository.MembershipPlanRepository
var _ repository.MembershipPlanRepository = (*planRepo)(nil)

type planRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

func (r *planRepo) Save(ctx context.Context, plan *model.MembershipPlan) error {
	const q = `
INSERT INTO membership_plans (
  id, name, description, duration_days, price_cents, currency, active, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  name=$2, description=$3, duration_days=$4, price_cents=$5, currency=$6, active=$7, updated_at=$9;`

	_, err := execSQL(ctx, r.pool, nil, q,
		plan.ID, plan.Name, plan.Description, plan.DurationDays, plan.PriceCents,
		plan.Currency, plan.Active, plan.CreatedAt, plan.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *planRepo) FindByID(ctx context.Context, id string) (*model.MembershipPlan, error) {
	const q = `
SELECT id, name, description, duration_days, price_cents, currency, active, created_at, updated_at
  FROM membership_plans
 WHERE id=$1;`
	return r.queryOne(ctx, q, id)
}

func (r *planRepo) ListActive(ctx context.Context) ([]*model.MembershipPlan, error) {
	const q = `
SELECT id, name, description, duration_days, price_cents, currency, active, created_at, updated_at
  FROM membership_plans
 WHERE active
 ORDER BY price_cents ASC;`
	return r.queryMany(ctx, q)
}

func (r *planRepo) ListAll(ctx context.Context) ([]*model.MembershipPlan, error) {
	const q = `
SELECT id, name, description, duration_days, price_cents, currency, active, created_at, updated_at
  FROM membership_plans
 ORDER BY created_at ASC;`
	return r.queryMany(ctx, q)
}

func (r *planRepo) Deactivate(ctx context.Context, id string) error {
	const q = `UPDATE membership_plans SET active=FALSE, updated_at=NOW() WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, nil, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *planRepo) queryOne(ctx context.Context, sql string, args ...any) (*model.MembershipPlan, error) {
	row, err := pickRow(ctx, r.pool, nil, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanPlan(row)
}

func (r *planRepo) queryMany(ctx context.Context, sql string, args ...any) ([]*model.MembershipPlan, error) {
	rows, err := queryRows(ctx, r.pool, nil, sql, args...)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.MembershipPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanPlan(row pgx.Row) (*model.MembershipPlan, error) {
	p := &model.MembershipPlan{}
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.DurationDays, &p.PriceCents, &p.Currency, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
