package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

// Save inserts a new payment attempt. Payments are append-only audit rows,
// so there is no upsert: a duplicate id or order reference surfaces as
// ErrAlreadyExists instead of silently overwriting history.
func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	purpose, err := json.Marshal(p.Purpose)
	if err != nil {
		return domain.ErrInvalidArgument
	}

	const q = `
INSERT INTO payments (
  id, order_ref, payer_id, beneficiary_id, amount_cents, currency, status, gateway_payment_id, purpose, description, created_at, completed_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12);`

	_, err = execSQL(ctx, r.pool, tx, q,
		p.ID, p.OrderRef, p.PayerID, p.BeneficiaryID, p.AmountCents, p.Currency,
		string(p.Status), p.GatewayPaymentID, purpose, p.Description, p.CreatedAt, p.CompletedAt)
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

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `
SELECT id, order_ref, payer_id, beneficiary_id, amount_cents, currency, status, gateway_payment_id, purpose, description, created_at, completed_at
  FROM payments
 WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	return r.queryOne(ctx, tx, q, id)
}

func (r *paymentRepo) FindByOrderRef(ctx context.Context, tx repository.Tx, orderRef string) (*model.Payment, error) {
	q := `
SELECT id, order_ref, payer_id, beneficiary_id, amount_cents, currency, status, gateway_payment_id, purpose, description, created_at, completed_at
  FROM payments
 WHERE order_ref=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	return r.queryOne(ctx, tx, q, orderRef)
}

func (r *paymentRepo) ListByPayer(ctx context.Context, tx repository.Tx, payerID string) ([]*model.Payment, error) {
	const q = `
SELECT id, order_ref, payer_id, beneficiary_id, amount_cents, currency, status, gateway_payment_id, purpose, description, created_at, completed_at
  FROM payments
 WHERE payer_id=$1
 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, payerID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
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

// CompleteIfPending atomically transitions pending -> completed. The status
// guard in the WHERE clause is the synchronization primitive that lets all
// three completion channels race safely: at most one caller sees a row
// moved.
func (r *paymentRepo) CompleteIfPending(ctx context.Context, tx repository.Tx, id string, gatewayPaymentID string, completedAt time.Time) (bool, error) {
	const q = `
UPDATE payments
   SET status = 'completed',
       gateway_payment_id = $2,
       completed_at = $3
 WHERE id = $1
   AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, gatewayPaymentID, completedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

// FailIfPending atomically transitions pending -> failed.
func (r *paymentRepo) FailIfPending(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `
UPDATE payments
   SET status = 'failed'
 WHERE id = $1
   AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

// RefundIfCompleted atomically transitions completed -> refunded.
func (r *paymentRepo) RefundIfCompleted(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `
UPDATE payments
   SET status = 'refunded'
 WHERE id = $1
   AND status = 'completed';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time) ([]*model.Payment, error) {
	const q = `
SELECT id, order_ref, payer_id, beneficiary_id, amount_cents, currency, status, gateway_payment_id, purpose, description, created_at, completed_at
  FROM payments
 WHERE status='pending' AND created_at < $1
 ORDER BY created_at ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, cutoff)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
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

func (r *paymentRepo) SumCompletedSince(ctx context.Context, tx repository.Tx, since time.Time) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount_cents),0) FROM payments WHERE status='completed' AND completed_at >= $1;`
	row, err := pickRow(ctx, r.pool, tx, q, since)
	if err != nil {
		return 0, err
	}

	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}

func (r *paymentRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.Payment, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	var status string
	var purpose []byte
	if err := row.Scan(&p.ID, &p.OrderRef, &p.PayerID, &p.BeneficiaryID, &p.AmountCents, &p.Currency, &status, &p.GatewayPaymentID, &purpose, &p.Description, &p.CreatedAt, &p.CompletedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	p.Status = model.PaymentStatus(status)
	if len(purpose) > 0 {
		if err := json.Unmarshal(purpose, &p.Purpose); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return p, nil
}
