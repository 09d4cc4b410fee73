package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/soundloop/soundloop-api/internal/domain"
)

const userColumns = `id, username, email, password_hash, google_id, avatar_url, email_verified, is_admin, deactivated, created_at, updated_at`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user and its empty profile row in one transaction. A
// concurrent signup with the same email surfaces as a unique violation from
// the users insert.
func (r *UserRepository) Create(ctx context.Context, username, email string, passwordHash []byte) (*domain.User, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const insertUser = `
        INSERT INTO users (username, email, password_hash)
        VALUES ($1, $2, $3)
        RETURNING ` + userColumns

	var user domain.User
	if err := tx.QueryRowxContext(ctx, insertUser, username, email, passwordHash).StructScan(&user); err != nil {
		return nil, err
	}

	const insertProfile = `INSERT INTO profile (user_id) VALUES ($1)`
	if _, err := tx.ExecContext(ctx, insertProfile, user.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindOrCreateByGoogleID resolves a federated assertion to a local account.
// An existing account with the asserted email is linked to the provider id;
// otherwise a passwordless account plus profile row is created. The provider
// verified the address, so email_verified starts true for new accounts.
func (r *UserRepository) FindOrCreateByGoogleID(ctx context.Context, profile domain.FederatedProfile) (*domain.User, error) {
	const byGoogleID = `SELECT ` + userColumns + ` FROM users WHERE google_id = $1`
	var user domain.User
	err := r.db.GetContext(ctx, &user, byGoogleID, profile.ProviderID)
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	username := strings.TrimSpace(profile.DisplayName)
	if username == "" {
		username = profile.Email
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const upsert = `
        INSERT INTO users (username, email, google_id, email_verified)
        VALUES ($1, $2, $3, TRUE)
        ON CONFLICT (email) DO UPDATE
        SET google_id = EXCLUDED.google_id,
            email_verified = TRUE,
            updated_at = NOW()
        RETURNING ` + userColumns
	if err := tx.QueryRowxContext(ctx, upsert, username, profile.Email, profile.ProviderID).StructScan(&user); err != nil {
		return nil, err
	}

	const ensureProfile = `INSERT INTO profile (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, ensureProfile, user.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) SetEmailVerified(ctx context.Context, email string) error {
	const query = `
        UPDATE users
        SET email_verified = TRUE,
            updated_at = NOW()
        WHERE email = $1
    `
	_, err := r.db.ExecContext(ctx, query, email)
	return err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash []byte) error {
	const query = `
        UPDATE users
        SET password_hash = $2,
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.ExecContext(ctx, query, id, passwordHash)
	return err
}

func (r *UserRepository) UpdateAvatarURL(ctx context.Context, id uuid.UUID, url string) error {
	const query = `
        UPDATE users
        SET avatar_url = $2,
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.ExecContext(ctx, query, id, url)
	return err
}
