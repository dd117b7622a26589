package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yudapratama/go-todo-auth/internal/domain/entity"
	"github.com/yudapratama/go-todo-auth/internal/interface/middleware"
	"github.com/yudapratama/go-todo-auth/pkg/response"
)

type UserHandler struct {
	Logger *logrus.Logger
}

func NewUserHandler(logger *logrus.Logger) *UserHandler {
	return &UserHandler{Logger: logger}
}

// currentUser pulls the user resolved by the auth middleware out of the
// context. The middleware guarantees it is present on protected routes.
func currentUser(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(middleware.CtxUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*entity.User)
	return u, ok
}

// Me GET /users/me — the public projection of the authenticated user.
// Redaction of the password hash happens here, at the serialization boundary.
func (h *UserHandler) Me(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	response.Success(c, http.StatusOK, u.Public(), "current user", nil)
}

// Protected GET /users/protected — example protected route.
func (h *UserHandler) Protected(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Protected data", "user": u.Email}, "protected", nil)
}
