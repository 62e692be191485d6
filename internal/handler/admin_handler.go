package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"interntrack/pkg/outbox"
)

// OutboxReplayer is satisfied by *outbox.ReplayService.
type OutboxReplayer interface {
	ReplayEvent(ctx context.Context, eventID int64) error
	ReplayFailedEvents(ctx context.Context, limit int) (int, error)
	FailedEvents(ctx context.Context, limit int) ([]*outbox.Event, error)
}

type AdminHandler struct {
	base
	replayService OutboxReplayer
}

func NewAdminHandler(replayService OutboxReplayer, flasher Flasher, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		base:          base{flash: flasher, logger: logger},
		replayService: replayService,
	}
}

// FailedOutboxEvents 列出失败的 Outbox 事件
// GET /api/admin/outbox/failed?limit=100
func (h *AdminHandler) FailedOutboxEvents(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	events, err := h.replayService.FailedEvents(c.Request.Context(), replayLimit(c))
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// ReplayOutboxEvent 重放指定的 Outbox 事件
// POST /api/admin/outbox/replay?id=xxx
func (h *AdminHandler) ReplayOutboxEvent(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	idStr := c.Query("id")
	if idStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing id parameter"})
		return
	}

	eventID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id parameter"})
		return
	}

	if err := h.replayService.ReplayEvent(c.Request.Context(), eventID); err != nil {
		if errors.Is(err, outbox.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		h.log(c).Error("Failed to replay event",
			zap.Int64("event_id", eventID),
			zap.Error(err),
		)
		h.push(c, actor, flashError("Replay failed: "+err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to replay event",
			"details": err.Error(),
		})
		return
	}

	h.ok(c, http.StatusOK, actor, "Event replayed", gin.H{
		"status":   "replayed",
		"event_id": eventID,
	})
}

// ReplayFailedEvents 重放所有失败的事件
// POST /api/admin/outbox/replay-failed?limit=100
func (h *AdminHandler) ReplayFailedEvents(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	limit := replayLimit(c)

	successCount, err := h.replayService.ReplayFailedEvents(c.Request.Context(), limit)
	if err != nil {
		h.log(c).Error("Failed to replay failed events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to replay failed events",
			"details": err.Error(),
		})
		return
	}

	h.ok(c, http.StatusOK, actor, "Replayed "+strconv.Itoa(successCount)+" events", gin.H{
		"status":        "completed",
		"success_count": successCount,
		"limit":         limit,
	})
}

func replayLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	return limit
}
