package http

import (
	"regexp"
	"strings"
)

var (
	emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	otpRx   = regexp.MustCompile(`^[0-9]{6}$`)
)

const minPasswordLength = 8

func validateEmail(errs []FieldError, email string) []FieldError {
	email = strings.TrimSpace(email)
	if email == "" {
		return append(errs, FieldError{Field: "email", Message: "email is required"})
	}
	if !emailRx.MatchString(email) {
		return append(errs, FieldError{Field: "email", Message: "must be a valid email address"})
	}
	return errs
}

func validatePassword(errs []FieldError, field, password string) []FieldError {
	if password == "" {
		return append(errs, FieldError{Field: field, Message: field + " is required"})
	}
	if len(password) < minPasswordLength {
		return append(errs, FieldError{Field: field, Message: "must be at least 8 characters long"})
	}
	return errs
}

func validateOTP(errs []FieldError, otp string) []FieldError {
	if otp == "" {
		return append(errs, FieldError{Field: "otp", Message: "otp is required"})
	}
	if !otpRx.MatchString(otp) {
		return append(errs, FieldError{Field: "otp", Message: "must be a 6-digit code"})
	}
	return errs
}

func (r SignupRequest) validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(r.Username) == "" {
		errs = append(errs, FieldError{Field: "username", Message: "username is required"})
	}
	errs = validateEmail(errs, r.Email)
	errs = validatePassword(errs, "password", r.Password)
	return errs
}

func (r LoginRequest) validate() []FieldError {
	var errs []FieldError
	errs = validateEmail(errs, r.Email)
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}
	return errs
}

func (r EmailRequest) validate() []FieldError {
	return validateEmail(nil, r.Email)
}

func (r ResetPasswordRequest) validate() []FieldError {
	var errs []FieldError
	errs = validateEmail(errs, r.Email)
	errs = validateOTP(errs, r.OTP)
	errs = validatePassword(errs, "newPassword", r.NewPassword)
	return errs
}

func (r VerifyEmailRequest) validate() []FieldError {
	var errs []FieldError
	errs = validateEmail(errs, r.Email)
	errs = validateOTP(errs, r.OTP)
	return errs
}
