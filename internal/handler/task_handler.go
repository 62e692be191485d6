package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/internal/service"
)

type TaskHandler struct {
	base
	tasks *service.TaskService
}

func NewTaskHandler(tasks *service.TaskService, flasher Flasher, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{base: base{flash: flasher, logger: logger}, tasks: tasks}
}

// List handles GET /api/tasks
// status may be repeated or comma separated; sort is one of due, priority, created, title.
func (h *TaskHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	f, err := taskFilter(c)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	tasks, err := h.tasks.List(c.Request.Context(), actor, f)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	h.log(c).Debug("ListTasks: success",
		zap.Int64("user_id", actor.UserID),
		zap.Int("task_count", len(tasks)),
	)
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func taskFilter(c *gin.Context) (model.TaskFilter, error) {
	f := model.TaskFilter{
		Priority: c.Query("priority"),
		Query:    c.Query("q"),
		Sort:     c.Query("sort"),
		Page:     queryPage(c),
	}
	for _, raw := range c.QueryArray("status") {
		for _, st := range strings.Split(raw, ",") {
			if st = strings.TrimSpace(st); st != "" {
				f.Statuses = append(f.Statuses, st)
			}
		}
	}
	var err error
	if f.ProjectID, err = queryInt64(c, "project_id"); err != nil {
		return f, err
	}
	if f.AssigneeID, err = queryInt64(c, "assignee_id"); err != nil {
		return f, err
	}
	if f.DueBefore, err = queryDate(c, "due_before"); err != nil {
		return f, err
	}
	if f.DueAfter, err = queryDate(c, "due_after"); err != nil {
		return f, err
	}
	return f, nil
}

func (h *TaskHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	t, err := h.tasks.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TaskHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var in service.TaskInput
	if err := bind(c, &in); err != nil {
		h.fail(c, actor, "Create task", err)
		return
	}
	t, err := h.tasks.Create(c.Request.Context(), actor, in)
	if err != nil {
		h.fail(c, actor, "Create task", err)
		return
	}
	h.ok(c, http.StatusCreated, actor, "Task created", t)
}

func (h *TaskHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "Update task", err)
		return
	}
	var in service.TaskInput
	if err := bind(c, &in); err != nil {
		h.fail(c, actor, "Update task", err)
		return
	}
	t, err := h.tasks.Update(c.Request.Context(), actor, id, in)
	if err != nil {
		h.fail(c, actor, "Update task", err)
		return
	}
	h.ok(c, http.StatusOK, actor, "Task updated", t)
}

// ChangeStatus handles PATCH /api/tasks/:id/status, the AJAX status toggle.
func (h *TaskHandler) ChangeStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "Update status", err)
		return
	}
	var req struct {
		Status string `json:"status" form:"status"`
	}
	if err := bind(c, &req); err != nil {
		h.fail(c, actor, "Update status", err)
		return
	}
	t, err := h.tasks.ChangeStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		h.fail(c, actor, "Update status", err)
		return
	}
	h.ok(c, http.StatusOK, actor, "Task marked "+strings.ReplaceAll(t.Status, "_", " "), t)
}

// Assign handles POST /api/tasks/:id/assign; assignee_id 0 or missing unassigns.
func (h *TaskHandler) Assign(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "Assign task", err)
		return
	}
	var req struct {
		AssigneeID *int64 `json:"assignee_id" form:"assignee_id"`
	}
	if err := bind(c, &req); err != nil {
		h.fail(c, actor, "Assign task", err)
		return
	}
	if req.AssigneeID != nil && *req.AssigneeID == 0 {
		req.AssigneeID = nil
	}
	t, err := h.tasks.Assign(c.Request.Context(), actor, id, req.AssigneeID)
	if err != nil {
		h.fail(c, actor, "Assign task", err)
		return
	}
	h.ok(c, http.StatusOK, actor, "Task assigned", t)
}

// Delete handles DELETE /api/tasks/:id and the form alias POST /api/tasks/:id/delete.
func (h *TaskHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "Delete task", err)
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), actor, id); err != nil {
		h.fail(c, actor, "Delete task", err)
		return
	}
	h.ok(c, http.StatusOK, actor, "Task deleted", gin.H{"deleted": id})
}
