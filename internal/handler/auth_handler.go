package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"interntrack/internal/flash"
	"interntrack/internal/model"
	"interntrack/internal/service"
)

type AuthHandler struct {
	base
	users *service.UserService
}

func NewAuthHandler(users *service.UserService, flasher Flasher, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{base: base{flash: flasher, logger: logger}, users: users}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var in service.RegisterInput
	if err := bind(c, &in); err != nil {
		h.fail(c, model.Actor{}, "", err)
		return
	}
	u, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		h.fail(c, model.Actor{}, "", err)
		return
	}
	h.log(c).Info("Register: success", zap.Int64("user_id", u.ID))
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var in service.LoginInput
	if err := bind(c, &in); err != nil {
		h.fail(c, model.Actor{}, "", err)
		return
	}
	sess, err := h.users.Login(c.Request.Context(), in)
	if err != nil {
		h.fail(c, model.Actor{}, "", err)
		return
	}
	h.push(c, model.Actor{UserID: sess.User.ID, Role: sess.User.Role},
		flash.Message{Type: flash.TypeInfo, Text: "Welcome back, " + sess.User.Name})
	c.JSON(http.StatusOK, sess)
}

// Me handles GET /api/me
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	u, err := h.users.Me(c.Request.Context(), actor)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Flash handles GET /api/flash and drains the queue.
func (h *AuthHandler) Flash(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	if h.flash == nil {
		c.JSON(http.StatusOK, gin.H{"messages": []any{}})
		return
	}
	msgs, err := h.flash.Pop(c.Request.Context(), actor.UserID)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
