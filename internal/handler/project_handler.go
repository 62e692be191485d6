package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/internal/service"
)

type ProjectHandler struct {
	base
	projects *service.ProjectService
}

func NewProjectHandler(projects *service.ProjectService, flasher Flasher, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{base: base{flash: flasher, logger: logger}, projects: projects}
}

// List handles GET /api/projects?status=&owner_id=&q=
func (h *ProjectHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	owner, err := queryInt64(c, "owner_id")
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	list, err := h.projects.List(c.Request.Context(), actor, model.ProjectFilter{
		Status:  c.Query("status"),
		OwnerID: owner,
		Query:   c.Query("q"),
		Page:    queryPage(c),
	})
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": list})
}

func (h *ProjectHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	p, err := h.projects.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProjectHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var in service.ProjectInput
	if err := bind(c, &in); err != nil {
		h.fail(c, actor, "Create project", err)
		return
	}
	p, err := h.projects.Create(c.Request.Context(), actor, in)
	if err != nil {
		h.fail(c, actor, "Create project", err)
		return
	}
	h.ok(c, http.StatusCreated, actor, "Project created", p)
}

func (h *ProjectHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "Update project", err)
		return
	}
	var in service.ProjectInput
	if err := bind(c, &in); err != nil {
		h.fail(c, actor, "Update project", err)
		return
	}
	p, err := h.projects.Update(c.Request.Context(), actor, id, in)
	if err != nil {
		h.fail(c, actor, "Update project", err)
		return
	}
	h.ok(c, http.StatusOK, actor, "Project updated", p)
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "Delete project", err)
		return
	}
	if err := h.projects.Delete(c.Request.Context(), actor, id); err != nil {
		h.fail(c, actor, "Delete project", err)
		return
	}
	h.ok(c, http.StatusOK, actor, "Project deleted", gin.H{"deleted": id})
}
