package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yudapratama/go-todo-auth/internal/application"
	"github.com/yudapratama/go-todo-auth/internal/infrastructure/supabase"
	"github.com/yudapratama/go-todo-auth/pkg/response"
	"github.com/yudapratama/go-todo-auth/pkg/validation"
)

type AuthHandler struct {
	Svc    *application.AuthService
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type signupRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,pwd"`
	FullName *string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type verifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Token string `json:"token" binding:"required"`
	Type  string `json:"type" binding:"omitempty,oneof=email signup magiclink recovery email_change"`
}

type resendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
	Type  string `json:"type" binding:"omitempty,oneof=signup email_change"`
}

type passwordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type newPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        any    `json:"user"`
}

// providerDetail extracts the provider's message for passthrough responses.
func providerDetail(err error) (string, bool) {
	var pe *supabase.ProviderError
	if errors.As(err, &pe) {
		return pe.Message, true
	}
	return "", false
}

// Signup POST /auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res, err := h.Svc.Signup(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		if errors.Is(err, application.ErrDuplicateUser) {
			response.Error[any](c, http.StatusBadRequest, "user with this email already exists", nil)
			return
		}
		if detail, ok := providerDetail(err); ok {
			response.Error[any](c, http.StatusBadRequest, "signup failed", detail)
			return
		}
		h.Logger.WithError(err).Error("signup failed")
		response.Error[any](c, http.StatusInternalServerError, "signup failed", nil)
		return
	}

	if res.Pending {
		response.Success[any](c, http.StatusAccepted, nil, res.Message, nil)
		return
	}
	response.Success(c, http.StatusCreated, authResponse{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		User:        res.User.Public(),
	}, "signup successful", nil)
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) {
			// Deliberately generic: no distinction between wrong password and
			// unknown account.
			response.Error[any](c, http.StatusUnauthorized, "incorrect email or password", nil)
			return
		}
		h.Logger.WithError(err).Error("login failed")
		response.Error[any](c, http.StatusInternalServerError, "login failed", nil)
		return
	}
	response.Success(c, http.StatusOK, authResponse{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		User:        res.User.Public(),
	}, "login successful", nil)
}

// VerifyEmail POST /auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if req.Type == "" {
		req.Type = "email"
	}

	res, err := h.Svc.VerifyEmail(c.Request.Context(), req.Email, req.Token, req.Type)
	if err != nil {
		if detail, ok := providerDetail(err); ok {
			status := http.StatusBadRequest
			var pe *supabase.ProviderError
			if errors.As(err, &pe) && pe.Status == http.StatusUnauthorized {
				status = http.StatusUnauthorized
			}
			response.Error[any](c, status, "email verification failed", detail)
			return
		}
		h.Logger.WithError(err).Error("email verification failed")
		response.Error[any](c, http.StatusInternalServerError, "email verification failed", nil)
		return
	}
	response.Success(c, http.StatusOK, authResponse{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		User:        res.User.Public(),
	}, "email verified", nil)
}

// ResendVerification POST /auth/resend-verification
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req resendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if req.Type == "" {
		req.Type = "signup"
	}

	msg, err := h.Svc.ResendVerification(c.Request.Context(), req.Email, req.Type)
	if err != nil {
		if detail, ok := providerDetail(err); ok {
			response.Error[any](c, http.StatusBadRequest, "resend verification failed", detail)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "resend verification failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": msg}, msg, nil)
}

// ResetPassword POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req passwordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	msg, err := h.Svc.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		if detail, ok := providerDetail(err); ok {
			response.Error[any](c, http.StatusBadRequest, "password reset request failed", detail)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "password reset request failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": msg}, msg, nil)
}

// ResetPasswordConfirm POST /auth/reset-password/confirm
func (h *AuthHandler) ResetPasswordConfirm(c *gin.Context) {
	var req newPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	msg, err := h.Svc.ConfirmPasswordReset(c.Request.Context(), req.Token, req.NewPassword)
	if err != nil {
		if detail, ok := providerDetail(err); ok {
			response.Error[any](c, http.StatusBadRequest, "password reset confirmation failed", detail)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "password reset confirmation failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": msg}, msg, nil)
}
