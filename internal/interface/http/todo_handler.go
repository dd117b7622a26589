package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yudapratama/go-todo-auth/internal/domain/entity"
	"github.com/yudapratama/go-todo-auth/internal/domain/repository"
	"github.com/yudapratama/go-todo-auth/pkg/response"
	"github.com/yudapratama/go-todo-auth/pkg/validation"
)

type TodoHandler struct {
	Repo   repository.TodoRepository
	Logger *logrus.Logger
}

func NewTodoHandler(repo repository.TodoRepository, logger *logrus.Logger) *TodoHandler {
	return &TodoHandler{Repo: repo, Logger: logger}
}

type todoCreateRequest struct {
	Title   string  `json:"title" binding:"required"`
	Content *string `json:"content"`
}

type todoUpdateRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Completed *bool   `json:"completed"`
}

type todoView struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Content   *string `json:"content"`
	Completed bool    `json:"completed"`
}

func toView(t *entity.Todo) todoView {
	return todoView{ID: t.ID, Title: t.Title, Content: t.Content, Completed: t.Completed}
}

// List GET /todo?completed=&page=&limit=
func (h *TodoHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	f := repository.TodoFilter{Offset: (page - 1) * limit, Limit: limit}
	if v := c.Query("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.Error[any](c, http.StatusBadRequest, "invalid completed filter", nil)
			return
		}
		f.Completed = &b
	}

	todos, err := h.Repo.List(c.Request.Context(), f)
	if err != nil {
		h.Logger.WithError(err).Error("list todos failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to list todos", nil)
		return
	}
	out := make([]todoView, 0, len(todos))
	for _, t := range todos {
		out = append(out, toView(t))
	}
	response.Success(c, http.StatusOK, out, "todos", gin.H{"page": page, "limit": limit})
}

// Create POST /todo
func (h *TodoHandler) Create(c *gin.Context) {
	var req todoCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	t := &entity.Todo{Title: req.Title, Content: req.Content}
	if err := h.Repo.Create(c.Request.Context(), t); err != nil {
		h.Logger.WithError(err).Error("create todo failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to create todo", nil)
		return
	}
	response.Success(c, http.StatusCreated, toView(t), "todo created", nil)
}

// Get GET /todo/:id
func (h *TodoHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid todo id", nil)
		return
	}
	t, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Error[any](c, http.StatusNotFound, "todo not found", nil)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to get todo", nil)
		return
	}
	response.Success(c, http.StatusOK, toView(t), "todo", nil)
}

// Update PUT /todo/:id
func (h *TodoHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid todo id", nil)
		return
	}
	var req todoUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	t, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Error[any](c, http.StatusNotFound, "todo not found", nil)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to get todo", nil)
		return
	}

	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Content != nil {
		t.Content = req.Content
	}
	if req.Completed != nil {
		t.Completed = *req.Completed
	}
	if err := h.Repo.Update(c.Request.Context(), t); err != nil {
		h.Logger.WithError(err).Error("update todo failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to update todo", nil)
		return
	}
	response.Success(c, http.StatusOK, toView(t), "todo updated", nil)
}

// Delete DELETE /todo/:id
func (h *TodoHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid todo id", nil)
		return
	}
	if err := h.Repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Error[any](c, http.StatusNotFound, "todo not found", nil)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to delete todo", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "todo deleted", nil)
}
