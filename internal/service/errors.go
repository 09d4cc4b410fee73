package service

import "errors"

var (
	ErrEmailAlreadyUsed   = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidGoogleToken = errors.New("invalid google token")
	ErrMailDelivery       = errors.New("mail delivery failed")
	ErrOTPNotFound        = errors.New("otp not_found")
	ErrOTPExpired         = errors.New("otp expired")
	ErrOTPMismatch        = errors.New("otp mismatch")
	ErrOTPAlreadyUsed     = errors.New("otp already_used")
)

// OTPReason maps an OTP validation error to its audit reason string.
func OTPReason(err error) string {
	switch {
	case errors.Is(err, ErrOTPNotFound):
		return "not_found"
	case errors.Is(err, ErrOTPExpired):
		return "expired"
	case errors.Is(err, ErrOTPMismatch):
		return "mismatch"
	case errors.Is(err, ErrOTPAlreadyUsed):
		return "already_used"
	default:
		return ""
	}
}
