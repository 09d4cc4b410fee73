package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the one-to-one public profile created alongside every user
// account. Rows are removed by the database when the owning user is deleted.
type Profile struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	Bio           *string   `db:"bio" json:"bio,omitempty"`
	ImageURL      *string   `db:"image_url" json:"image_url,omitempty"`
	CoverImageURL *string   `db:"cover_image_url" json:"cover_image_url,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
