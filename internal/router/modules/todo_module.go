package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/yudapratama/go-todo-auth/internal/interface/http"
)

type TodoModule struct {
	Handler *handlers.TodoHandler
}

func NewTodoModule(h *handlers.TodoHandler) *TodoModule {
	return &TodoModule{Handler: h}
}

func (m *TodoModule) Register(rg *gin.RouterGroup) {
	rg.GET("/todo", m.Handler.List)
	rg.POST("/todo", m.Handler.Create)
	rg.GET("/todo/:id", m.Handler.Get)
	rg.PUT("/todo/:id", m.Handler.Update)
	rg.DELETE("/todo/:id", m.Handler.Delete)
}
