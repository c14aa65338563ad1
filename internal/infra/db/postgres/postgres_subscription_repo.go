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

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

// Save inserts a new subscription. A partial unique index on
// (member_id, instructor_id) WHERE status='active' backs the at-most-one
// invariant; a violation surfaces as ErrAlreadyExists so the activator can
// fall back to renewing the winner's row.
func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (
  id, member_id, instructor_id, payment_id, status, start_at, expires_at, cancelled_at, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);`

	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.MemberID, s.InstructorID, s.PaymentID, string(s.Status),
		s.StartAt, s.ExpiresAt, s.CancelledAt, s.CreatedAt, s.UpdatedAt)
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

func (r *subscriptionRepo) Update(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
UPDATE subscriptions
   SET payment_id=$2, status=$3, start_at=$4, expires_at=$5, cancelled_at=$6, updated_at=$7
 WHERE id=$1;`

	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.PaymentID, string(s.Status), s.StartAt, s.ExpiresAt, s.CancelledAt, s.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	const q = `
SELECT id, member_id, instructor_id, payment_id, status, start_at, expires_at, cancelled_at, created_at, updated_at
  FROM subscriptions
 WHERE id=$1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *subscriptionRepo) FindByPaymentID(ctx context.Context, tx repository.Tx, paymentID string) (*model.Subscription, error) {
	const q = `
SELECT id, member_id, instructor_id, payment_id, status, start_at, expires_at, cancelled_at, created_at, updated_at
  FROM subscriptions
 WHERE payment_id=$1
 LIMIT 1;`
	return r.queryOne(ctx, tx, q, paymentID)
}

func (r *subscriptionRepo) FindActiveByPair(ctx context.Context, tx repository.Tx, memberID, instructorID string) (*model.Subscription, error) {
	q := `
SELECT id, member_id, instructor_id, payment_id, status, start_at, expires_at, cancelled_at, created_at, updated_at
  FROM subscriptions
 WHERE member_id=$1 AND instructor_id=$2 AND status='active'
 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	return r.queryOne(ctx, tx, q, memberID, instructorID)
}

func (r *subscriptionRepo) ListByMember(ctx context.Context, tx repository.Tx, memberID string) ([]*model.Subscription, error) {
	const q = `
SELECT id, member_id, instructor_id, payment_id, status, start_at, expires_at, cancelled_at, created_at, updated_at
  FROM subscriptions
 WHERE member_id=$1
 ORDER BY created_at DESC;`
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

	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

// ExpireDue is one of the sweeper's bulk conditional updates. Rerunning it
// is harmless: rows already expired no longer match the WHERE clause.
func (r *subscriptionRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	const q = `
UPDATE subscriptions
   SET status='expired', updated_at=NOW()
 WHERE status='active' AND expires_at <= $1;`

	cmd, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return cmd.RowsAffected(), nil
}

func (r *subscriptionRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.Subscription, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	s := &model.Subscription{}
	var status string
	if err := row.Scan(&s.ID, &s.MemberID, &s.InstructorID, &s.PaymentID, &status, &s.StartAt, &s.ExpiresAt, &s.CancelledAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	s.Status = model.SubscriptionStatus(status)
	return s, nil
}
