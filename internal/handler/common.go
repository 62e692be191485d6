package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"interntrack/internal/flash"
	"interntrack/internal/model"
	"interntrack/internal/service"
	"interntrack/pkg/logger"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// Flasher queues one-shot messages for the next page load.
type Flasher interface {
	Push(ctx context.Context, userID int64, msg flash.Message) error
	Pop(ctx context.Context, userID int64) ([]flash.Message, error)
}

// SetActor stores the authenticated user on the request context.
func SetActor(c *gin.Context, userID int64, role string) {
	c.Set(ctxUserID, userID)
	c.Set(ctxRole, role)
}

// ActorFrom reads the user placed by the auth middleware.
func ActorFrom(c *gin.Context) (model.Actor, bool) {
	uid, ok := c.Get(ctxUserID)
	if !ok {
		return model.Actor{}, false
	}
	id, ok := uid.(int64)
	if !ok {
		return model.Actor{}, false
	}
	return model.Actor{UserID: id, Role: c.GetString(ctxRole)}, true
}

// base bundles the error mapping, logging and flash behaviour shared by all handlers.
type base struct {
	flash  Flasher
	logger *zap.Logger
}

func (b base) log(c *gin.Context) *zap.Logger {
	return logger.WithTrace(c.Request.Context(), b.logger)
}

// actor aborts with 401 when the request is not authenticated.
func (b base) actor(c *gin.Context) (model.Actor, bool) {
	a, ok := ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return model.Actor{}, false
	}
	return a, true
}

// ok writes data and, for mutations, queues a success flash.
func (b base) ok(c *gin.Context, status int, actor model.Actor, notice string, data any) {
	if notice != "" {
		b.push(c, actor, flash.Message{Type: flash.TypeSuccess, Text: notice})
	}
	if data == nil {
		c.Status(status)
		return
	}
	c.JSON(status, data)
}

// fail maps a service error to a status code, logs it, and flashes it when
// action is non-empty.
func (b base) fail(c *gin.Context, actor model.Actor, action string, err error) {
	status := statusFor(err)
	msg := err.Error()
	log := b.log(c).With(
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int64("user_id", actor.UserID),
		zap.Int("status", status),
	)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.Error(err))
		msg = "internal server error"
	} else {
		log.Warn("Request rejected", zap.Error(err))
	}
	if action != "" && actor.UserID != 0 {
		b.push(c, actor, flashError(action+": "+msg))
	}
	c.JSON(status, gin.H{"error": msg})
}

func (b base) push(c *gin.Context, actor model.Actor, msg flash.Message) {
	if b.flash == nil || actor.UserID == 0 {
		return
	}
	if err := b.flash.Push(c.Request.Context(), actor.UserID, msg); err != nil {
		b.log(c).Warn("Failed to push flash message", zap.Error(err))
	}
}

func flashError(text string) flash.Message {
	return flash.Message{Type: flash.TypeError, Text: text}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInactiveUser):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrTimerRunning),
		errors.Is(err, service.ErrNoRunningTimer):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func badRequest(msg string) error {
	return fmt.Errorf("%w: %s", service.ErrValidation, msg)
}

// bind accepts JSON or form bodies depending on Content-Type.
func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBind(dst); err != nil {
		return badRequest("invalid request body: " + err.Error())
	}
	return nil
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id")
	}
	return id, nil
}

func queryInt64(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, badRequest("invalid " + name)
	}
	return &v, nil
}

func queryBool(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, badRequest("invalid " + name)
	}
	return &v, nil
}

func queryDate(c *gin.Context, name string) (*time.Time, error) {
	return service.ParseDate(c.Query(name))
}

// queryDateEnd reads an exclusive range end; a bare date includes that day.
func queryDateEnd(c *gin.Context, name string) (*time.Time, error) {
	return service.ParseDateEnd(c.Query(name))
}

func queryPage(c *gin.Context) model.Page {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return model.Page{Limit: limit, Offset: offset}.Normalize()
}
