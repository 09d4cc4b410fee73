package ports

import (
	"context"
	"time"

	"github.com/soundloop/soundloop-api/internal/domain"
)

// OTPRepository persists one-time code challenges. Rows are never deleted;
// FindLatestByEmail returns the newest row for the address regardless of
// status so the caller can distinguish consumed from missing codes.
// MarkSuccess transitions pending to success and reports whether this call
// won the transition, so concurrent validators resolve to one winner.
type OTPRepository interface {
	Create(ctx context.Context, email, code string, expiresAt time.Time) (*domain.OTP, error)
	FindLatestByEmail(ctx context.Context, email string) (*domain.OTP, error)
	MarkSuccess(ctx context.Context, id int64) (bool, error)
}
