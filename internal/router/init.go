package router

import (
	"github.com/yudapratama/go-todo-auth/internal/application"
	"github.com/yudapratama/go-todo-auth/internal/container"
	pginfra "github.com/yudapratama/go-todo-auth/internal/infrastructure/postgres"
	handlers "github.com/yudapratama/go-todo-auth/internal/interface/http"
	"github.com/yudapratama/go-todo-auth/internal/router/modules"
)

// InitModules builds all application modules from container singletons and
// registers them with the router registry. Called once during startup.
func InitModules(r *Registry) {
	pool := container.GetPGPool()
	logger := container.GetLogger()

	userRepo := pginfra.NewUserRepository(pool)
	todoRepo := pginfra.NewTodoRepository(pool)

	authSvc := application.NewAuthService(userRepo, container.GetIdentityProvider(), logger)

	authHandler := handlers.NewAuthHandler(authSvc, logger)
	userHandler := handlers.NewUserHandler(logger)
	todoHandler := handlers.NewTodoHandler(todoRepo, logger)

	r.Add(modules.NewAuthModule(authHandler, authSvc))
	r.Add(modules.NewUserModule(userHandler, authSvc))
	r.Add(modules.NewTodoModule(todoHandler))
}
