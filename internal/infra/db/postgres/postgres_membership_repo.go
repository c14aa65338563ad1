package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/repository"
)

// Ensure membershipRepo implements repository.MembershipRepository
var _ repository.MembershipRepository = (*membershipRepo)(nil)

type membershipRepo struct {
	pool *pgxpool.Pool
}

func NewMembershipRepo(pool *pgxpool.Pool) *membershipRepo {
	return &membershipRepo{pool: pool}
}

func (r *membershipRepo) Save(ctx context.Context, tx repository.Tx, m *model.Membership) error {
	const q = `
INSERT INTO memberships (
  id, member_id, plan_id, plan_name, duration_days, amount_cents, currency, payment_id, status, auto_renew, start_at, end_at, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13);`

	_, err := execSQL(ctx, r.pool, tx, q,
		m.ID, m.MemberID, m.PlanID, m.PlanName, m.DurationDays, m.AmountCents, m.Currency,
		m.PaymentID, string(m.Status), m.AutoRenew, m.StartAt, m.EndAt, m.CreatedAt)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return domain.ErrAlreadyExists
			}
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *membershipRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Membership, error) {
	const q = `
SELECT id, member_id, plan_id, plan_name, duration_days, amount_cents, currency, payment_id, status, auto_renew, start_at, end_at, created_at
  FROM memberships
 WHERE id=$1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *membershipRepo) FindByPaymentID(ctx context.Context, tx repository.Tx, paymentID string) (*model.Membership, error) {
	const q = `
SELECT id, member_id, plan_id, plan_name, duration_days, amount_cents, currency, payment_id, status, auto_renew, start_at, end_at, created_at
  FROM memberships
 WHERE payment_id=$1
 LIMIT 1;`
	return r.queryOne(ctx, tx, q, paymentID)
}

// FindLatestCurrentByMember returns the unexpired period ending last,
// counting stacked-but-not-started rows, so a new purchase stacks onto the
// true end of the member's paid time.
func (r *membershipRepo) FindLatestCurrentByMember(ctx context.Context, tx repository.Tx, memberID string, now time.Time) (*model.Membership, error) {
	q := `
SELECT id, member_id, plan_id, plan_name, duration_days, amount_cents, currency, payment_id, status, auto_renew, start_at, end_at, created_at
  FROM memberships
 WHERE member_id=$1 AND status IN ('active','pending') AND end_at > $2
 ORDER BY end_at DESC
 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	return r.queryOne(ctx, tx, q, memberID, now)
}

func (r *membershipRepo) ListByMember(ctx context.Context, tx repository.Tx, memberID string) ([]*model.Membership, error) {
	const q = `
SELECT id, member_id, plan_id, plan_name, duration_days, amount_cents, currency, payment_id, status, auto_renew, start_at, end_at, created_at
  FROM memberships
 WHERE member_id=$1
 ORDER BY start_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, memberID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

// ExpireDue is one of the sweeper's bulk conditional updates. Pending rows
// are included so a stacked period that was never promoted cannot outlive
// its end date.
func (r *membershipRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	const q = `
UPDATE memberships
   SET status='expired'
 WHERE status IN ('active','pending') AND end_at <= $1;`

	cmd, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return cmd.RowsAffected(), nil
}

// ActivateDue promotes stacked periods whose start has arrived.
func (r *membershipRepo) ActivateDue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	const q = `
UPDATE memberships
   SET status='active'
 WHERE status='pending' AND start_at <= $1 AND end_at > $1;`

	cmd, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return cmd.RowsAffected(), nil
}

func (r *membershipRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.Membership, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanMembership(row)
}

func scanMembership(row pgx.Row) (*model.Membership, error) {
	m := &model.Membership{}
	var status string
	if err := row.Scan(&m.ID, &m.MemberID, &m.PlanID, &m.PlanName, &m.DurationDays, &m.AmountCents, &m.Currency, &m.PaymentID, &status, &m.AutoRenew, &m.StartAt, &m.EndAt, &m.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	m.Status = model.MembershipStatus(status)
	return m, nil
}
