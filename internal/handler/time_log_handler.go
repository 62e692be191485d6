package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/internal/service"
)

type TimeLogHandler struct {
	base
	logs *service.TimeLogService
}

func NewTimeLogHandler(logs *service.TimeLogService, flasher Flasher, logger *zap.Logger) *TimeLogHandler {
	return &TimeLogHandler{base: base{flash: flasher, logger: logger}, logs: logs}
}

// List handles GET /api/time-logs?user_id=&task_id=&from=&to=
func (h *TimeLogHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var f model.TimeLogFilter
	var err error
	if f.UserID, err = queryInt64(c, "user_id"); err == nil {
		if f.TaskID, err = queryInt64(c, "task_id"); err == nil {
			if f.From, err = queryDate(c, "from"); err == nil {
				f.To, err = queryDateEnd(c, "to")
			}
		}
	}
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	f.Page = queryPage(c)
	logs, err := h.logs.List(c.Request.Context(), actor, f)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"time_logs": logs})
}

func (h *TimeLogHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	l, err := h.logs.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *TimeLogHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var in service.TimeLogInput
	if err := bind(c, &in); err != nil {
		h.fail(c, actor, "Log time", err)
		return
	}
	l, err := h.logs.Create(c.Request.Context(), actor, in)
	if err != nil {
		h.fail(c, actor, "Log time", err)
		return
	}
	h.ok(c, http.StatusCreated, actor, "Time logged", l)
}

func (h *TimeLogHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "Update time log", err)
		return
	}
	var in service.TimeLogInput
	if err := bind(c, &in); err != nil {
		h.fail(c, actor, "Update time log", err)
		return
	}
	l, err := h.logs.Update(c.Request.Context(), actor, id, in)
	if err != nil {
		h.fail(c, actor, "Update time log", err)
		return
	}
	h.ok(c, http.StatusOK, actor, "Time log updated", l)
}

func (h *TimeLogHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "Delete time log", err)
		return
	}
	if err := h.logs.Delete(c.Request.Context(), actor, id); err != nil {
		h.fail(c, actor, "Delete time log", err)
		return
	}
	h.ok(c, http.StatusOK, actor, "Time log deleted", gin.H{"deleted": id})
}

// StartTimer handles POST /api/time-logs/timer/start
func (h *TimeLogHandler) StartTimer(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var in service.TimerInput
	if c.Request.ContentLength != 0 {
		if err := bind(c, &in); err != nil {
			h.fail(c, actor, "Start timer", err)
			return
		}
	}
	l, err := h.logs.StartTimer(c.Request.Context(), actor, in)
	if err != nil {
		h.fail(c, actor, "Start timer", err)
		return
	}
	h.ok(c, http.StatusCreated, actor, "Timer started", l)
}

// StopTimer handles POST /api/time-logs/timer/stop
func (h *TimeLogHandler) StopTimer(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	l, err := h.logs.StopTimer(c.Request.Context(), actor)
	if err != nil {
		h.fail(c, actor, "Stop timer", err)
		return
	}
	h.ok(c, http.StatusOK, actor, "Timer stopped", l)
}

// Running handles GET /api/time-logs/timer; timer is null when nothing runs.
func (h *TimeLogHandler) Running(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	l, err := h.logs.Running(c.Request.Context(), actor)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": l})
}

// Summary handles GET /api/time-logs/summary?user_id=&from=&to=
func (h *TimeLogHandler) Summary(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	userID, err := queryInt64(c, "user_id")
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	from, err := queryDate(c, "from")
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	to, err := queryDateEnd(c, "to")
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	var uid int64
	if userID != nil {
		uid = *userID
	}
	sum, err := h.logs.Summary(c.Request.Context(), actor, uid, from, to)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
