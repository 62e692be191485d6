package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/internal/service"
)

type UserHandler struct {
	base
	users *service.UserService
}

func NewUserHandler(users *service.UserService, flasher Flasher, logger *zap.Logger) *UserHandler {
	return &UserHandler{base: base{flash: flasher, logger: logger}, users: users}
}

// List handles GET /api/users?role=&active=&q=
func (h *UserHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	active, err := queryBool(c, "active")
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	users, err := h.users.List(c.Request.Context(), actor, model.UserFilter{
		Role:   c.Query("role"),
		Active: active,
		Query:  c.Query("q"),
		Page:   queryPage(c),
	})
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *UserHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	u, err := h.users.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var in service.UserInput
	if err := bind(c, &in); err != nil {
		h.fail(c, actor, "Create user", err)
		return
	}
	u, err := h.users.Create(c.Request.Context(), actor, in)
	if err != nil {
		h.fail(c, actor, "Create user", err)
		return
	}
	h.ok(c, http.StatusCreated, actor, "User "+u.Email+" created", u)
}

func (h *UserHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "Update user", err)
		return
	}
	var in service.UserInput
	if err := bind(c, &in); err != nil {
		h.fail(c, actor, "Update user", err)
		return
	}
	u, err := h.users.Update(c.Request.Context(), actor, id, in)
	if err != nil {
		h.fail(c, actor, "Update user", err)
		return
	}
	h.ok(c, http.StatusOK, actor, "User updated", u)
}

func (h *UserHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "Delete user", err)
		return
	}
	if err := h.users.Delete(c.Request.Context(), actor, id); err != nil {
		h.fail(c, actor, "Delete user", err)
		return
	}
	h.ok(c, http.StatusOK, actor, "User deleted", gin.H{"deleted": id})
}
