package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"interntrack/internal/handler"
	"interntrack/pkg/otel"
	"interntrack/pkg/rbac"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnChecker is satisfied by *mq.Consumer.
type ConnChecker interface {
	IsConnected() bool
}

type Handlers struct {
	Auth         *handler.AuthHandler
	Users        *handler.UserHandler
	Projects     *handler.ProjectHandler
	Tasks        *handler.TaskHandler
	TimeLogs     *handler.TimeLogHandler
	Deliverables *handler.DeliverableHandler
	Notes        *handler.NoteHandler
	ListItems    *handler.ListItemHandler
	Insights     *handler.InsightHandler
	Admin        *handler.AdminHandler
}

type Options struct {
	JWTSecret    string
	AllowOrigins []string
	DB           Pinger
	// MQ may be nil when the activity consumer is not running.
	MQ     ConnChecker
	Logger *zap.Logger
}

type Router struct {
	Engine *gin.Engine
}

// crud mounts the list/get/create/update/delete shape shared by every entity,
// plus the POST .../delete alias for plain HTML forms.
type crud interface {
	List(*gin.Context)
	Get(*gin.Context)
	Create(*gin.Context)
	Update(*gin.Context)
	Delete(*gin.Context)
}

func mount(g *gin.RouterGroup, h crud) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.POST("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/delete", h.Delete)
}

func NewRouter(h Handlers, opts Options) *Router {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(otel.GinMiddleware())
	r.Use(RequestLogger(opts.Logger))
	r.Use(MetricsMiddleware())
	r.Use(CORS(opts.AllowOrigins))

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := opts.DB.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		if opts.MQ != nil && !opts.MQ.IsConnected() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	public := r.Group("/api/auth")
	{
		public.POST("/register", h.Auth.Register)
		public.POST("/login", h.Auth.Login)
	}

	// Protected
	api := r.Group("/api")
	api.Use(AuthMiddleware(opts.JWTSecret))
	{
		api.GET("/me", h.Auth.Me)
		api.GET("/flash", h.Auth.Flash)

		tasks := api.Group("/tasks")
		mount(tasks, h.Tasks)
		tasks.PATCH("/:id/status", h.Tasks.ChangeStatus)
		tasks.POST("/:id/status", h.Tasks.ChangeStatus)
		tasks.POST("/:id/assign", RequirePermission(rbac.PermissionManageTasks), h.Tasks.Assign)

		mount(api.Group("/projects"), h.Projects)

		logs := api.Group("/time-logs")
		logs.GET("/timer", h.TimeLogs.Running)
		logs.POST("/timer/start", h.TimeLogs.StartTimer)
		logs.POST("/timer/stop", h.TimeLogs.StopTimer)
		logs.GET("/summary", h.TimeLogs.Summary)
		mount(logs, h.TimeLogs)

		deliverables := api.Group("/deliverables")
		mount(deliverables, h.Deliverables)
		deliverables.POST("/:id/review", RequirePermission(rbac.PermissionReviewWork), h.Deliverables.Review)

		notes := api.Group("/notes")
		mount(notes, h.Notes)
		notes.POST("/:id/pin", h.Notes.Pin)

		items := api.Group("/list-items")
		items.POST("/reorder", h.ListItems.Reorder)
		items.POST("/clear-done", h.ListItems.ClearDone)
		mount(items, h.ListItems)
		items.POST("/:id/toggle", h.ListItems.Toggle)
		items.PATCH("/:id/toggle", h.ListItems.Toggle)

		api.GET("/smart-focus", RequirePermission(rbac.PermissionUseSmartFocus), h.Insights.SmartFocus)
		api.GET("/dashboard", h.Insights.Dashboard)

		users := api.Group("/users", RequirePermission(rbac.PermissionManageUsers))
		mount(users, h.Users)

		api.GET("/reports/hours", RequirePermission(rbac.PermissionViewReports), h.Insights.Hours)

		admin := api.Group("/admin")
		{
			admin.GET("/activity", RequirePermission(rbac.PermissionViewActivity), h.Insights.Activity)

			outbox := admin.Group("/outbox", RequirePermission(rbac.PermissionReplayOutbox))
			outbox.GET("/failed", h.Admin.FailedOutboxEvents)
			outbox.POST("/replay", h.Admin.ReplayOutboxEvent)
			outbox.POST("/replay-failed", h.Admin.ReplayFailedEvents)
		}
	}

	return &Router{Engine: r}
}

// Handler exposes the engine for http.Server.
func (r *Router) Handler() http.Handler {
	return r.Engine
}
