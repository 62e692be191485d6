package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/internal/service"
)

type ListItemHandler struct {
	base
	items *service.ListItemService
}

func NewListItemHandler(items *service.ListItemService, flasher Flasher, logger *zap.Logger) *ListItemHandler {
	return &ListItemHandler{base: base{flash: flasher, logger: logger}, items: items}
}

func (h *ListItemHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	f := model.ListItemFilter{Page: queryPage(c)}
	var err error
	if f.TaskID, err = queryInt64(c, "task_id"); err == nil {
		f.Done, err = queryBool(c, "done")
	}
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	items, err := h.items.List(c.Request.Context(), actor, f)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ListItemHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	item, err := h.items.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ListItemHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var in service.ListItemInput
	if err := bind(c, &in); err != nil {
		h.fail(c, actor, "Add item", err)
		return
	}
	item, err := h.items.Create(c.Request.Context(), actor, in)
	if err != nil {
		h.fail(c, actor, "Add item", err)
		return
	}
	h.ok(c, http.StatusCreated, actor, "Item added", item)
}

func (h *ListItemHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "Update item", err)
		return
	}
	var in service.ListItemInput
	if err := bind(c, &in); err != nil {
		h.fail(c, actor, "Update item", err)
		return
	}
	item, err := h.items.Update(c.Request.Context(), actor, id, in)
	if err != nil {
		h.fail(c, actor, "Update item", err)
		return
	}
	h.ok(c, http.StatusOK, actor, "Item updated", item)
}

// Toggle handles POST /api/list-items/:id/toggle
func (h *ListItemHandler) Toggle(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "Toggle item", err)
		return
	}
	item, err := h.items.Toggle(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, actor, "Toggle item", err)
		return
	}
	// checkbox clicks are too frequent to flash
	c.JSON(http.StatusOK, item)
}

func (h *ListItemHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "Delete item", err)
		return
	}
	if err := h.items.Delete(c.Request.Context(), actor, id); err != nil {
		h.fail(c, actor, "Delete item", err)
		return
	}
	h.ok(c, http.StatusOK, actor, "Item deleted", gin.H{"deleted": id})
}

// Reorder handles POST /api/list-items/reorder with {"ids": [...]} or ids=1&ids=2.
func (h *ListItemHandler) Reorder(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var in service.ReorderInput
	if err := bind(c, &in); err != nil {
		h.fail(c, actor, "Reorder list", err)
		return
	}
	if err := h.items.Reorder(c.Request.Context(), actor, in.IDs); err != nil {
		h.fail(c, actor, "Reorder list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "count": len(in.IDs)})
}

// ClearDone handles POST /api/list-items/clear-done
func (h *ListItemHandler) ClearDone(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	n, err := h.items.ClearDone(c.Request.Context(), actor)
	if err != nil {
		h.fail(c, actor, "Clear done items", err)
		return
	}
	h.ok(c, http.StatusOK, actor, "Removed "+strconv.FormatInt(n, 10)+" done items", gin.H{"removed": n})
}
