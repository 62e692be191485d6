package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/internal/service"
)

// InsightHandler serves Smart Focus, the dashboard, reports and the activity feed.
type InsightHandler struct {
	base
	focus    *service.SmartFocusService
	reports  *service.ReportService
	activity *service.ActivityService
}

func NewInsightHandler(focus *service.SmartFocusService, reports *service.ReportService, activity *service.ActivityService, logger *zap.Logger) *InsightHandler {
	return &InsightHandler{
		base:     base{logger: logger},
		focus:    focus,
		reports:  reports,
		activity: activity,
	}
}

// SmartFocus handles GET /api/smart-focus?refresh=1
func (h *InsightHandler) SmartFocus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	refresh, _ := strconv.ParseBool(c.DefaultQuery("refresh", "false"))
	focus, err := h.focus.Suggest(c.Request.Context(), actor, refresh)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, focus)
}

// Dashboard handles GET /api/dashboard
func (h *InsightHandler) Dashboard(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	d, err := h.reports.Dashboard(c.Request.Context(), actor)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Hours handles GET /api/reports/hours?group=user|project&from=&to=
func (h *InsightHandler) Hours(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
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
	rep, err := h.reports.Hours(c.Request.Context(), actor, c.Query("group"), from, to)
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// Activity handles GET /api/admin/activity?entity=&actor_id=
func (h *InsightHandler) Activity(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	actorID, err := queryInt64(c, "actor_id")
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	list, err := h.activity.List(c.Request.Context(), actor, model.ActivityFilter{
		Entity:  c.Query("entity"),
		ActorID: actorID,
		Page:    queryPage(c),
	})
	if err != nil {
		h.fail(c, actor, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": list})
}
