package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"

	"github.com/soundloop/soundloop-api/internal/domain"
	"github.com/soundloop/soundloop-api/internal/service"
	"github.com/soundloop/soundloop-api/internal/util"
)

type memUserRepo struct {
	byEmail map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byEmail: make(map[string]*domain.User)}
}

func (m *memUserRepo) Create(ctx context.Context, username, email string, passwordHash []byte) (*domain.User, error) {
	if _, ok := m.byEmail[email]; ok {
		return nil, &pgconn.PgError{Code: "23505"}
	}
	user := &domain.User{ID: uuid.New(), Username: username, Email: email, PasswordHash: passwordHash}
	m.byEmail[email] = user
	return user, nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if user, ok := m.byEmail[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUserRepo) FindOrCreateByGoogleID(ctx context.Context, profile domain.FederatedProfile) (*domain.User, error) {
	for _, user := range m.byEmail {
		if user.GoogleID != nil && *user.GoogleID == profile.ProviderID {
			return user, nil
		}
	}
	providerID := profile.ProviderID
	user := &domain.User{ID: uuid.New(), Username: profile.DisplayName, Email: profile.Email, GoogleID: &providerID, EmailVerified: true}
	m.byEmail[profile.Email] = user
	return user, nil
}

func (m *memUserRepo) SetEmailVerified(ctx context.Context, email string) error {
	if user, ok := m.byEmail[email]; ok {
		user.EmailVerified = true
	}
	return nil
}

func (m *memUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash []byte) error {
	for _, user := range m.byEmail {
		if user.ID == id {
			user.PasswordHash = passwordHash
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memUserRepo) UpdateAvatarURL(ctx context.Context, id uuid.UUID, url string) error {
	return nil
}

type memOTPRepo struct {
	records []*domain.OTP
	nextID  int64
}

func (m *memOTPRepo) Create(ctx context.Context, email, code string, expiresAt time.Time) (*domain.OTP, error) {
	m.nextID++
	record := &domain.OTP{ID: m.nextID, Email: email, Code: code, Status: domain.OTPStatusPending, CreatedAt: time.Now(), ExpiresAt: expiresAt}
	m.records = append(m.records, record)
	return record, nil
}

func (m *memOTPRepo) FindLatestByEmail(ctx context.Context, email string) (*domain.OTP, error) {
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].Email == email {
			clone := *m.records[i]
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memOTPRepo) MarkSuccess(ctx context.Context, id int64) (bool, error) {
	for _, record := range m.records {
		if record.ID == id && record.Status == domain.OTPStatusPending {
			record.Status = domain.OTPStatusSuccess
			return true, nil
		}
	}
	return false, nil
}

func (m *memOTPRepo) latest(email string) *domain.OTP {
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].Email == email {
			return m.records[i]
		}
	}
	return nil
}

type memMailer struct {
	sent int
	err  error
}

func (m *memMailer) SendVerificationCode(ctx context.Context, email, otp string) error {
	m.sent++
	return m.err
}

func (m *memMailer) SendPasswordResetCode(ctx context.Context, email, otp string) error {
	m.sent++
	return m.err
}

type authTestEnv struct {
	e      *echo.Echo
	users  *memUserRepo
	otps   *memOTPRepo
	mailer *memMailer
	svc    *service.AuthService
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()
	users := newMemUserRepo()
	otps := &memOTPRepo{}
	mailer := &memMailer{}
	sessions := util.NewJWTManager("handler-test-secret", 24*time.Hour)
	svc := service.NewAuthService(users, otps, nil, mailer, sessions, "aud", "", 15*time.Minute, 6)

	e := echo.New()
	RegisterAuth(e, svc)
	return &authTestEnv{e: e, users: users, otps: otps, mailer: mailer, svc: svc}
}

func (env *authTestEnv) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestSignupEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		env := newAuthTestEnv(t)
		rec := env.post(t, "/api/auth/signup", `{"username":"alice","email":"a@x.com","password":"pw123456"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
		}
		body := decodeBody(t, rec)
		if body["message"] == "" {
			t.Fatal("expected a message in the response")
		}
		if env.mailer.sent != 1 {
			t.Fatalf("expected one verification mail, got %d", env.mailer.sent)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		env := newAuthTestEnv(t)
		env.post(t, "/api/auth/signup", `{"username":"alice","email":"a@x.com","password":"pw123456"}`)
		rec := env.post(t, "/api/auth/signup", `{"username":"bob","email":"a@x.com","password":"pw123456"}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("validation failures", func(t *testing.T) {
		env := newAuthTestEnv(t)
		rec := env.post(t, "/api/auth/signup", `{"username":"","email":"not-an-email","password":"short"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		body := decodeBody(t, rec)
		errs, ok := body["errors"].([]any)
		if !ok || len(errs) != 3 {
			t.Fatalf("expected 3 field errors, got %v", body["errors"])
		}
		if env.mailer.sent != 0 {
			t.Fatal("expected no mail on rejected request")
		}
	})

	t.Run("mail failure is a retryable 500", func(t *testing.T) {
		env := newAuthTestEnv(t)
		env.mailer.err = io.ErrUnexpectedEOF
		rec := env.post(t, "/api/auth/signup", `{"username":"alice","email":"a@x.com","password":"pw123456"}`)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

func TestLoginEndpointEnumerationResistance(t *testing.T) {
	env := newAuthTestEnv(t)
	env.post(t, "/api/auth/signup", `{"username":"alice","email":"a@x.com","password":"pw123456"}`)

	unknown := env.post(t, "/api/auth/login", `{"email":"ghost@x.com","password":"pw123456"}`)
	wrongPassword := env.post(t, "/api/auth/login", `{"email":"a@x.com","password":"wrong-pass"}`)

	if unknown.Code != http.StatusUnauthorized || wrongPassword.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both, got %d and %d", unknown.Code, wrongPassword.Code)
	}
	if unknown.Body.String() != wrongPassword.Body.String() {
		t.Fatalf("expected identical bodies, got %q vs %q", unknown.Body.String(), wrongPassword.Body.String())
	}
}

func TestLoginEndpointSuccess(t *testing.T) {
	env := newAuthTestEnv(t)
	env.post(t, "/api/auth/signup", `{"username":"alice","email":"a@x.com","password":"pw123456"}`)

	rec := env.post(t, "/api/auth/login", `{"email":"a@x.com","password":"pw123456"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("expected token in response")
	}
}

func TestForgotPasswordEndpoint(t *testing.T) {
	env := newAuthTestEnv(t)
	env.post(t, "/api/auth/signup", `{"username":"alice","email":"a@x.com","password":"pw123456"}`)

	if rec := env.post(t, "/api/auth/forgot-password", `{"email":"ghost@x.com"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", rec.Code)
	}
	if rec := env.post(t, "/api/auth/forgot-password", `{"email":"a@x.com"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestResetPasswordEndpoint(t *testing.T) {
	env := newAuthTestEnv(t)
	env.post(t, "/api/auth/signup", `{"username":"alice","email":"a@x.com","password":"pw123456"}`)
	env.post(t, "/api/auth/forgot-password", `{"email":"a@x.com"}`)

	code := env.otps.latest("a@x.com").Code
	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}

	rec := env.post(t, "/api/auth/reset-password", `{"email":"a@x.com","otp":"`+wrong+`","newPassword":"brand-new-pass"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong code, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "mismatch" {
		t.Fatalf("expected mismatch reason, got %v", body["error"])
	}

	rec = env.post(t, "/api/auth/reset-password", `{"email":"a@x.com","otp":"`+code+`","newPassword":"brand-new-pass"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	if rec := env.post(t, "/api/auth/login", `{"email":"a@x.com","password":"pw123456"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected old password rejected, got %d", rec.Code)
	}
	if rec := env.post(t, "/api/auth/login", `{"email":"a@x.com","password":"brand-new-pass"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected new password accepted, got %d", rec.Code)
	}
}

func TestVerifyEmailEndpointSingleUse(t *testing.T) {
	env := newAuthTestEnv(t)
	env.post(t, "/api/auth/signup", `{"username":"alice","email":"a@x.com","password":"pw123456"}`)
	code := env.otps.latest("a@x.com").Code

	if rec := env.post(t, "/api/auth/verify-email", `{"email":"a@x.com","otp":"`+code+`"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !env.users.byEmail["a@x.com"].EmailVerified {
		t.Fatal("expected account to be verified")
	}

	rec := env.post(t, "/api/auth/verify-email", `{"email":"a@x.com","otp":"`+code+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on reuse, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "already_used" {
		t.Fatalf("expected already_used reason, got %v", body["error"])
	}
}

func TestResendOTPEndpoint(t *testing.T) {
	env := newAuthTestEnv(t)
	env.post(t, "/api/auth/signup", `{"username":"alice","email":"a@x.com","password":"pw123456"}`)
	firstID := env.otps.latest("a@x.com").ID

	rec := env.post(t, "/api/auth/resend-otp", `{"email":"a@x.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env.otps.latest("a@x.com").ID == firstID {
		t.Fatal("expected resend to create a new otp record")
	}

	// No account needed: codes are bound to the address alone.
	if rec := env.post(t, "/api/auth/resend-otp", `{"email":"ghost@x.com"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unregistered email, got %d", rec.Code)
	}
	if env.otps.latest("ghost@x.com") == nil {
		t.Fatal("expected otp record for unregistered email")
	}
}

func TestRequireAuthMiddleware(t *testing.T) {
	env := newAuthTestEnv(t)
	env.post(t, "/api/auth/signup", `{"username":"alice","email":"a@x.com","password":"pw123456"}`)

	env.e.GET("/protected", func(c echo.Context) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.JSON(http.StatusInternalServerError, util.Error("no user in context"))
		}
		return c.JSON(http.StatusOK, util.Data("email", user.Email))
	}, RequireAuth(env.svc))

	login := env.post(t, "/api/auth/login", `{"email":"a@x.com","password":"pw123456"}`)
	token, _ := decodeBody(t, login)["token"].(string)

	t.Run("valid bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		env.e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		if body := decodeBody(t, rec); body["email"] != "a@x.com" {
			t.Fatalf("expected user email in response, got %v", body)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		rec := httptest.NewRecorder()
		env.e.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Basic "+token)
		rec := httptest.NewRecorder()
		env.e.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		env.e.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestRequireAdminMiddleware(t *testing.T) {
	env := newAuthTestEnv(t)
	env.post(t, "/api/auth/signup", `{"username":"alice","email":"a@x.com","password":"pw123456"}`)

	env.e.GET("/admin", func(c echo.Context) error {
		return c.JSON(http.StatusOK, util.Data("ok", true))
	}, RequireAuth(env.svc), RequireAdmin())

	login := env.post(t, "/api/auth/login", `{"email":"a@x.com","password":"pw123456"}`)
	token, _ := decodeBody(t, login)["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	env.users.byEmail["a@x.com"].IsAdmin = true
	rec = httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
}
