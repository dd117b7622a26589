package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yudapratama/go-todo-auth/internal/application"
	"github.com/yudapratama/go-todo-auth/internal/container"
	handlers "github.com/yudapratama/go-todo-auth/internal/interface/http"
	"github.com/yudapratama/go-todo-auth/internal/interface/middleware"
)

// UserModule wires the bearer-protected user routes.
// GET /users/me, GET /users/me/async, GET /users/protected

type UserModule struct {
	Handler *handlers.UserHandler
	Svc     *application.AuthService
}

func NewUserModule(h *handlers.UserHandler, svc *application.AuthService) *UserModule {
	return &UserModule{Handler: h, Svc: svc}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/users")
	auth.Use(middleware.Auth(m.Svc))
	auth.Use(middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP()))
	{
		auth.GET("/me", m.Handler.Me)
		// Compatibility alias kept from the previous API surface; handlers
		// are synchronous either way.
		auth.GET("/me/async", m.Handler.Me)
		auth.GET("/protected", m.Handler.Protected)
	}
}
