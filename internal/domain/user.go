package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the account record owned by the identity directory. PasswordHash is
// nil for accounts created through a federated provider that never set a
// password.
type User struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Username      string    `db:"username" json:"username"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  []byte    `db:"password_hash" json:"-"`
	GoogleID      *string   `db:"google_id" json:"-"`
	AvatarURL     *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	EmailVerified bool      `db:"email_verified" json:"email_verified"`
	IsAdmin       bool      `db:"is_admin" json:"is_admin"`
	Deactivated   bool      `db:"deactivated" json:"deactivated"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// HasPassword reports whether the account can authenticate with a password.
func (u *User) HasPassword() bool {
	return len(u.PasswordHash) > 0
}
