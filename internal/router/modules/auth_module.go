package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yudapratama/go-todo-auth/internal/application"
	"github.com/yudapratama/go-todo-auth/internal/container"
	handlers "github.com/yudapratama/go-todo-auth/internal/interface/http"
	"github.com/yudapratama/go-todo-auth/internal/interface/middleware"
)

type AuthModule struct {
	Handler *handlers.AuthHandler
	Svc     *application.AuthService
}

func NewAuthModule(h *handlers.AuthHandler, svc *application.AuthService) *AuthModule {
	return &AuthModule{Handler: h, Svc: svc}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	// Public endpoints with IP-based rate limits
	signupLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIP(), nil)
	verifyLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), nil)
	resendLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetInitLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetConfirmLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/signup", signupLimiter, m.Handler.Signup)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/verify-email", verifyLimiter, m.Handler.VerifyEmail)
	rg.POST("/auth/resend-verification", resendLimiter, m.Handler.ResendVerification)
	rg.POST("/auth/reset-password", resetInitLimiter, m.Handler.ResetPassword)
	rg.POST("/auth/reset-password/confirm", resetConfirmLimiter, m.Handler.ResetPasswordConfirm)
}
