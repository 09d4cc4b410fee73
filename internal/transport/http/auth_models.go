package http

// FieldError reports a single request-validation failure.
type FieldError struct {
	Field   string `json:"field" example:"email"`
	Message string `json:"message" example:"must be a valid email address"`
}

// ErrorResponse represents a generic error payload.
type ErrorResponse struct {
	Error string `json:"error" example:"invalid credentials"`
}

// ValidationErrorResponse carries the field errors of a rejected request.
type ValidationErrorResponse struct {
	Errors []FieldError `json:"errors"`
}

// MessageResponse is returned by flows that only report an outcome.
type MessageResponse struct {
	Message string `json:"message" example:"User registered successfully. Please verify your email."`
}

// TokenResponse is returned by endpoints that establish a session.
type TokenResponse struct {
	Message string `json:"message" example:"Login successful"`
	Token   string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// SignupRequest carries local registration fields.
type SignupRequest struct {
	Username string `json:"username" example:"alice"`
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"StrongPass!23"`
}

// LoginRequest carries email login fields.
type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"StrongPass!23"`
}

// EmailRequest carries flows keyed on the address alone.
type EmailRequest struct {
	Email string `json:"email" example:"user@example.com"`
}

// ResetPasswordRequest confirms a password reset with a one-time code.
type ResetPasswordRequest struct {
	Email       string `json:"email" example:"user@example.com"`
	OTP         string `json:"otp" example:"123456"`
	NewPassword string `json:"newPassword" example:"NewPass!45"`
}

// VerifyEmailRequest confirms address ownership with a one-time code.
type VerifyEmailRequest struct {
	Email string `json:"email" example:"user@example.com"`
	OTP   string `json:"otp" example:"123456"`
}

// GoogleLoginRequest carries the Google ID token for federated login.
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" example:"eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."`
}
