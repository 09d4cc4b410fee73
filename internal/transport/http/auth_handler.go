package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/soundloop/soundloop-api/internal/service"
	"github.com/soundloop/soundloop-api/internal/util"
)

// RegisterAuth mounts the account-access endpoints.
func RegisterAuth(e *echo.Echo, auth *service.AuthService) {
	h := &authHandler{auth: auth}

	g := e.Group("/api/auth")
	g.POST("/signup", h.signup)
	g.POST("/login", h.login)
	g.POST("/forgot-password", h.forgotPassword)
	g.POST("/reset-password", h.resetPassword)
	g.POST("/verify-email", h.verifyEmail)
	g.POST("/resend-otp", h.resendOTP)
	g.POST("/google", h.googleLogin)
}

type authHandler struct {
	auth *service.AuthService
}

func (h *authHandler) signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if errs := req.validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, util.Data("errors", errs))
	}

	if err := h.auth.Register(c.Request().Context(), req.Username, req.Email, req.Password); err != nil {
		if errors.Is(err, service.ErrEmailAlreadyUsed) {
			return c.JSON(http.StatusConflict, util.Error("Email already exists. Please log in or use a different email."))
		}
		return h.internalError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Message("User registered successfully. Please verify your email."))
}

func (h *authHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if errs := req.validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, util.Data("errors", errs))
	}

	result, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		// Unknown email, wrong password, and deactivated accounts share one
		// response to avoid account enumeration.
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrAccountDeactivated) {
			return c.JSON(http.StatusUnauthorized, util.Error("Invalid credentials"))
		}
		return h.internalError(c, err)
	}
	return c.JSON(http.StatusOK, TokenResponse{Message: "Login successful", Token: result.Token})
}

func (h *authHandler) forgotPassword(c echo.Context) error {
	var req EmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if errs := req.validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, util.Data("errors", errs))
	}

	if err := h.auth.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, util.Error("User not found"))
		}
		return h.internalError(c, err)
	}
	return c.JSON(http.StatusOK, util.Message("Reset code sent to your email"))
}

func (h *authHandler) resetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if errs := req.validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, util.Data("errors", errs))
	}

	if err := h.auth.ResetPassword(c.Request().Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		if reason := service.OTPReason(err); reason != "" {
			return c.JSON(http.StatusBadRequest, util.Error(reason))
		}
		return h.internalError(c, err)
	}
	return c.JSON(http.StatusOK, util.Message("Password reset successfully"))
}

func (h *authHandler) verifyEmail(c echo.Context) error {
	var req VerifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if errs := req.validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, util.Data("errors", errs))
	}

	if err := h.auth.VerifyEmail(c.Request().Context(), req.Email, req.OTP); err != nil {
		if reason := service.OTPReason(err); reason != "" {
			return c.JSON(http.StatusBadRequest, util.Error(reason))
		}
		return h.internalError(c, err)
	}
	return c.JSON(http.StatusOK, util.Message("Email verified successfully"))
}

func (h *authHandler) resendOTP(c echo.Context) error {
	var req EmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if errs := req.validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, util.Data("errors", errs))
	}

	if err := h.auth.ResendOTP(c.Request().Context(), req.Email); err != nil {
		return h.internalError(c, err)
	}
	return c.JSON(http.StatusOK, util.Message("New OTP sent to your email"))
}

func (h *authHandler) googleLogin(c echo.Context) error {
	var req GoogleLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if req.IDToken == "" {
		return c.JSON(http.StatusBadRequest, util.Data("errors", []FieldError{{Field: "id_token", Message: "id_token is required"}}))
	}

	result, err := h.auth.LoginWithGoogle(c.Request().Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidGoogleToken) || errors.Is(err, service.ErrAccountDeactivated) {
			return c.JSON(http.StatusUnauthorized, util.Error("invalid google token"))
		}
		return h.internalError(c, err)
	}
	return c.JSON(http.StatusOK, TokenResponse{Message: "Login successful", Token: result.Token})
}

// internalError logs full detail server-side and returns a generic message,
// never raw storage or crypto error text.
func (h *authHandler) internalError(c echo.Context, err error) error {
	log.Printf("auth: %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	if errors.Is(err, service.ErrMailDelivery) {
		return c.JSON(http.StatusInternalServerError, util.Error("failed to send email, please try again"))
	}
	return c.JSON(http.StatusInternalServerError, util.Error("internal server error"))
}
