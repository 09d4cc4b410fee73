package service

import (
	"bytes"
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"google.golang.org/api/idtoken"

	"github.com/soundloop/soundloop-api/internal/domain"
	"github.com/soundloop/soundloop-api/internal/media"
	"github.com/soundloop/soundloop-api/internal/repository/ports"
	"github.com/soundloop/soundloop-api/internal/util"
)

const pgUniqueViolation = "23505"

// OTPMailer delivers one-time codes. Delivery failures surface to the caller
// because every issuing flow promises the code in its response.
type OTPMailer interface {
	SendVerificationCode(ctx context.Context, email, otp string) error
	SendPasswordResetCode(ctx context.Context, email, otp string) error
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// AuthResult is returned by the flows that establish a session.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService composes the identity directory, OTP store, credential vault,
// token issuer, and mail transport into the account-access flows. It holds no
// per-request state; the storage layer's row-level atomicity and uniqueness
// constraints arbitrate races.
type AuthService struct {
	users        ports.UserRepository
	otps         ports.OTPRepository
	storage      ports.ObjectStorage
	mailer       OTPMailer
	sessions     *util.JWTManager
	googleAud    string
	avatarBucket string
	otpTTL       time.Duration
	otpLength    int

	httpClient httpDoer
}

func NewAuthService(
	users ports.UserRepository,
	otps ports.OTPRepository,
	storage ports.ObjectStorage,
	mailer OTPMailer,
	sessions *util.JWTManager,
	googleAud string,
	avatarBucket string,
	otpTTL time.Duration,
	otpLength int,
) *AuthService {
	if otpTTL <= 0 {
		otpTTL = 15 * time.Minute
	}
	if otpLength <= 0 {
		otpLength = 6
	}
	return &AuthService{
		users:        users,
		otps:         otps,
		storage:      storage,
		mailer:       mailer,
		sessions:     sessions,
		googleAud:    googleAud,
		avatarBucket: avatarBucket,
		otpTTL:       otpTTL,
		otpLength:    otpLength,
		httpClient:   http.DefaultClient,
	}
}

// Register creates an unverified account with its profile row, then issues
// and emails a verification code. The insert races are settled by the email
// uniqueness constraint; a lost race surfaces as ErrEmailAlreadyUsed.
func (s *AuthService) Register(ctx context.Context, username, email, password string) error {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)

	// Advisory pre-check first: it spares the hash work on the common
	// duplicate case. The unique constraint still decides races.
	if existing, err := s.users.FindByEmail(ctx, email); err == nil && existing != nil {
		return ErrEmailAlreadyUsed
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return err
	}

	if _, err := s.users.Create(ctx, username, email, hash); err != nil {
		if isUniqueViolation(err) {
			return ErrEmailAlreadyUsed
		}
		return fmt.Errorf("create user: %w", err)
	}

	return s.issueOTP(ctx, email, s.mailer.SendVerificationCode)
}

// Login verifies credentials and mints a session token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.HasPassword() || !util.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if user.Deactivated {
		return nil, ErrAccountDeactivated
	}

	return s.startSession(user)
}

// ForgotPassword issues and emails a password-reset code. The OTP alone
// authorizes the subsequent reset.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	return s.issueOTP(ctx, email, s.mailer.SendPasswordResetCode)
}

// ResetPassword validates the submitted code, replaces the password, and only
// then consumes the code, so a failed update never burns it. Losing the
// consume race reports already_used even though the password write went
// through; the winner's mutation is the authoritative one.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)

	record, err := s.validateOTP(ctx, email, code)
	if err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOTPNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	hash, err := util.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return s.consumeOTP(ctx, record.ID)
}

// VerifyEmail validates the submitted code, flips the verification flag, and
// consumes the code.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)

	record, err := s.validateOTP(ctx, email, code)
	if err != nil {
		return err
	}

	if err := s.users.SetEmailVerified(ctx, email); err != nil {
		return fmt.Errorf("set email verified: %w", err)
	}

	return s.consumeOTP(ctx, record.ID)
}

// ResendOTP issues a fresh verification code without requiring an account;
// codes are bound to the address, not the directory. Prior pending codes stay
// in place but stop being consulted, since validation only reads the newest
// record per email.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	return s.issueOTP(ctx, normalizeEmail(email), s.mailer.SendVerificationCode)
}

// LoginWithGoogle verifies the provider assertion and hands the resulting
// profile to FederatedLogin.
func (s *AuthService) LoginWithGoogle(ctx context.Context, idTok string) (*AuthResult, error) {
	payload, err := idtoken.Validate(ctx, idTok, s.googleAud)
	if err != nil {
		return nil, ErrInvalidGoogleToken
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	return s.FederatedLogin(ctx, domain.FederatedProfile{
		ProviderID:  payload.Subject,
		DisplayName: name,
		Email:       normalizeEmail(email),
		PictureURL:  picture,
	})
}

// FederatedLogin resolves a verified provider profile to a local account and
// starts a session. Avatar caching is best-effort; its failures are logged
// and never fail the login.
func (s *AuthService) FederatedLogin(ctx context.Context, profile domain.FederatedProfile) (*AuthResult, error) {
	if profile.ProviderID == "" || profile.Email == "" {
		return nil, ErrInvalidGoogleToken
	}

	user, err := s.users.FindOrCreateByGoogleID(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("find or create federated user: %w", err)
	}
	if user.Deactivated {
		return nil, ErrAccountDeactivated
	}

	if s.shouldCacheAvatar(user.AvatarURL, profile.PictureURL) {
		if url, err := s.cacheAvatar(ctx, user.ID, profile.PictureURL); err != nil {
			log.Printf("cache avatar for %s: %v", user.ID, err)
		} else {
			if err := s.users.UpdateAvatarURL(ctx, user.ID, *url); err != nil {
				log.Printf("store avatar url for %s: %v", user.ID, err)
			} else {
				user.AvatarURL = url
			}
		}
	}

	return s.startSession(user)
}

// Authenticate resolves a bearer token to its account for protected routes.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.sessions.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user.Deactivated {
		return nil, ErrAccountDeactivated
	}
	return user, nil
}

func (s *AuthService) startSession(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.sessions.Generate(user.ID, user.Email, user.EmailVerified, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) issueOTP(ctx context.Context, email string, send func(context.Context, string, string) error) error {
	code, err := util.GenerateNumericOTP(s.otpLength)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	if _, err := s.otps.Create(ctx, email, code, time.Now().Add(s.otpTTL)); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	if err := send(ctx, email, code); err != nil {
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}
	return nil
}

// validateOTP is read-only: it checks the newest record for the email and
// reports why it cannot be accepted. Consumption is a separate step so the
// accompanying business mutation stays sequenced between the two.
func (s *AuthService) validateOTP(ctx context.Context, email, code string) (*domain.OTP, error) {
	record, err := s.otps.FindLatestByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOTPNotFound
		}
		return nil, fmt.Errorf("find otp: %w", err)
	}
	if record.Expired(time.Now()) {
		return nil, ErrOTPExpired
	}
	if record.Status == domain.OTPStatusSuccess {
		return nil, ErrOTPAlreadyUsed
	}
	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(code)) != 1 {
		return nil, ErrOTPMismatch
	}
	return record, nil
}

func (s *AuthService) consumeOTP(ctx context.Context, id int64) error {
	won, err := s.otps.MarkSuccess(ctx, id)
	if err != nil {
		return fmt.Errorf("mark otp success: %w", err)
	}
	if !won {
		return ErrOTPAlreadyUsed
	}
	return nil
}

func (s *AuthService) shouldCacheAvatar(existing *string, pictureURL string) bool {
	if s.storage == nil || s.avatarBucket == "" {
		return false
	}
	if strings.TrimSpace(pictureURL) == "" {
		return false
	}
	if existing == nil || strings.TrimSpace(*existing) == "" {
		return true
	}
	// Re-cache only when the stored avatar still points at the provider.
	return strings.Contains(*existing, "googleusercontent.com")
}

func (s *AuthService) cacheAvatar(ctx context.Context, userID uuid.UUID, pictureURL string) (*string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pictureURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch avatar: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, err
	}

	normalized, err := media.NormalizeAvatar(raw, media.DefaultAvatarMaxDimension)
	if err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("avatars/%s/google/%s.jpg", userID, uuid.New())
	url, err := s.storage.Upload(ctx, s.avatarBucket, objectName, "image/jpeg", bytes.NewReader(normalized), int64(len(normalized)))
	if err != nil {
		return nil, err
	}
	return &url, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
