package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/soundloop/soundloop-api/internal/domain"
)

type OTPRepository struct {
	db *sqlx.DB
}

func NewOTPRepo(db *sqlx.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

func (r *OTPRepository) Create(ctx context.Context, email, code string, expiresAt time.Time) (*domain.OTP, error) {
	const query = `
        INSERT INTO otp (email, code, status, expires_at)
        VALUES ($1, $2, 'pending', $3)
        RETURNING id, email, code, status, created_at, expires_at
    `
	var record domain.OTP
	if err := r.db.QueryRowxContext(ctx, query, email, code, expiresAt).StructScan(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *OTPRepository) FindLatestByEmail(ctx context.Context, email string) (*domain.OTP, error) {
	const query = `
        SELECT id, email, code, status, created_at, expires_at
        FROM otp
        WHERE email = $1
        ORDER BY created_at DESC, id DESC
        LIMIT 1
    `
	var record domain.OTP
	if err := r.db.GetContext(ctx, &record, query, email); err != nil {
		return nil, err
	}
	return &record, nil
}

// MarkSuccess consumes a pending code. The status guard makes the transition
// a compare-and-set, so exactly one concurrent validator wins.
func (r *OTPRepository) MarkSuccess(ctx context.Context, id int64) (bool, error) {
	const query = `
        UPDATE otp
        SET status = 'success'
        WHERE id = $1 AND status = 'pending'
    `
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
