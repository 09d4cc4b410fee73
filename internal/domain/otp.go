package domain

import "time"

type OTPStatus string

const (
	OTPStatusPending OTPStatus = "pending"
	OTPStatusSuccess OTPStatus = "success"
)

// OTP is a one-time code challenge bound to an email address. Records are
// append-only: a resend creates a new row, and only the newest row per email
// is consulted at validation time. Consumption flips Status to success
// exactly once.
type OTP struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Code      string    `db:"code" json:"-"`
	Status    OTPStatus `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}

// Expired reports whether the code's validity window has passed.
func (o *OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
