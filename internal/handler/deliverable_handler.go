package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/internal/service"
)

type DeliverableHandler struct {
	base
	deliverables *service.DeliverableService
}

func NewDeliverableHandler(deliverables *service.DeliverableService, flasher Flasher, logger *zap.Logger) *DeliverableHandler {
	return &DeliverableHandler{base: base{flash: flasher, logger: logger}, deliverables: deliverables}
}

func (h *DeliverableHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	f := model.DeliverableFilter{Status: c.Query("status"), Page: queryPage(c)}
	var err error
	if f.UserID, err = queryInt64(c, "user_id"); err == nil {
		if f.ProjectID, err = queryInt64(c, "project_id"); err == nil {
			f.TaskID, err = queryInt64(c, "task_id")
		}
	}
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	list, err := h.deliverables.List(c.Request.Context(), actor, f)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deliverables": list})
}

func (h *DeliverableHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	d, err := h.deliverables.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DeliverableHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var in service.DeliverableInput
	if err := bind(c, &in); err != nil {
		h.fail(c, actor, "Submit deliverable", err)
		return
	}
	d, err := h.deliverables.Submit(c.Request.Context(), actor, in)
	if err != nil {
		h.fail(c, actor, "Submit deliverable", err)
		return
	}
	h.ok(c, http.StatusCreated, actor, "Deliverable submitted", d)
}

func (h *DeliverableHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "Update deliverable", err)
		return
	}
	var in service.DeliverableInput
	if err := bind(c, &in); err != nil {
		h.fail(c, actor, "Update deliverable", err)
		return
	}
	d, err := h.deliverables.Update(c.Request.Context(), actor, id, in)
	if err != nil {
		h.fail(c, actor, "Update deliverable", err)
		return
	}
	h.ok(c, http.StatusOK, actor, "Deliverable resubmitted", d)
}

func (h *DeliverableHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "Delete deliverable", err)
		return
	}
	if err := h.deliverables.Delete(c.Request.Context(), actor, id); err != nil {
		h.fail(c, actor, "Delete deliverable", err)
		return
	}
	h.ok(c, http.StatusOK, actor, "Deliverable deleted", gin.H{"deleted": id})
}

// Review handles POST /api/deliverables/:id/review
func (h *DeliverableHandler) Review(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "Review deliverable", err)
		return
	}
	var in service.ReviewInput
	if err := bind(c, &in); err != nil {
		h.fail(c, actor, "Review deliverable", err)
		return
	}
	d, err := h.deliverables.Review(c.Request.Context(), actor, id, in)
	if err != nil {
		h.fail(c, actor, "Review deliverable", err)
		return
	}
	h.ok(c, http.StatusOK, actor, "Review saved", d)
}
