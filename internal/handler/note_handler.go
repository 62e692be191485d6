package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/internal/service"
)

type NoteHandler struct {
	base
	notes *service.NoteService
}

func NewNoteHandler(notes *service.NoteService, flasher Flasher, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{base: base{flash: flasher, logger: logger}, notes: notes}
}

func (h *NoteHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	f := model.NoteFilter{Query: c.Query("q"), Page: queryPage(c)}
	var err error
	if f.TaskID, err = queryInt64(c, "task_id"); err == nil {
		if f.ProjectID, err = queryInt64(c, "project_id"); err == nil {
			f.Pinned, err = queryBool(c, "pinned")
		}
	}
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	notes, err := h.notes.List(c.Request.Context(), actor, f)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

func (h *NoteHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	n, err := h.notes.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NoteHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var in service.NoteInput
	if err := bind(c, &in); err != nil {
		h.fail(c, actor, "Save note", err)
		return
	}
	n, err := h.notes.Create(c.Request.Context(), actor, in)
	if err != nil {
		h.fail(c, actor, "Save note", err)
		return
	}
	h.ok(c, http.StatusCreated, actor, "Note saved", n)
}

func (h *NoteHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "Update note", err)
		return
	}
	var in service.NoteInput
	if err := bind(c, &in); err != nil {
		h.fail(c, actor, "Update note", err)
		return
	}
	n, err := h.notes.Update(c.Request.Context(), actor, id, in)
	if err != nil {
		h.fail(c, actor, "Update note", err)
		return
	}
	h.ok(c, http.StatusOK, actor, "Note updated", n)
}

// Pin handles POST /api/notes/:id/pin and flips the pinned flag.
func (h *NoteHandler) Pin(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "Pin note", err)
		return
	}
	n, err := h.notes.TogglePin(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, actor, "Pin note", err)
		return
	}
	notice := "Note unpinned"
	if n.Pinned {
		notice = "Note pinned"
	}
	h.ok(c, http.StatusOK, actor, notice, n)
}

func (h *NoteHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.fail(c, actor, "Delete note", err)
		return
	}
	if err := h.notes.Delete(c.Request.Context(), actor, id); err != nil {
		h.fail(c, actor, "Delete note", err)
		return
	}
	h.ok(c, http.StatusOK, actor, "Note deleted", gin.H{"deleted": id})
}
