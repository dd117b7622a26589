package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yudapratama/go-todo-auth/internal/application"
	"github.com/yudapratama/go-todo-auth/pkg/response"
)

const (
	// CtxUserKey holds the resolved *entity.User for route handlers.
	CtxUserKey = "currentUser"
	// CtxUserIDKey holds the resolved user id.
	CtxUserIDKey = "userID"
)

// Auth resolves the Authorization bearer token through the identity provider
// and loads the matching local user record. The provider call happens before
// any database work. A token the provider rejects is 401; a valid token whose
// account has no local row is 404 and no row is created here.
func Auth(svc *application.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}

		u, err := svc.CurrentUser(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, application.ErrUserNotFound):
				response.Error[any](c, http.StatusNotFound, "user not found", nil)
			case errors.Is(err, application.ErrUnauthenticated):
				c.Header("WWW-Authenticate", "Bearer")
				response.Error[any](c, http.StatusUnauthorized, "invalid authentication credentials", nil)
			default:
				response.Error[any](c, http.StatusInternalServerError, "authentication failed", nil)
			}
			c.Abort()
			return
		}

		c.Set(CtxUserKey, u)
		c.Set(CtxUserIDKey, u.ID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
