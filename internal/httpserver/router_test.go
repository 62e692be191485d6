package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"interntrack/internal/auth"
	"interntrack/internal/handler"
	"interntrack/internal/service"
	"interntrack/internal/testutil"
	"interntrack/pkg/rbac"
	"interntrack/pkg/trace"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeConn bool

func (f fakeConn) IsConnected() bool { return bool(f) }

func newTestRouter(t *testing.T, db Pinger, mq ConnChecker) *Router {
	t.Helper()
	log := zap.NewNop()
	fl := testutil.NewFlash()
	tx := &testutil.TxRunner{}
	events := &testutil.EventRecorder{}
	tasks := &testutil.TaskStore{}
	logs := &testutil.TimeLogStore{}
	deliverables := &testutil.DeliverableStore{}
	items := &testutil.ListItemStore{}
	cache := testutil.NewFocusCache()

	timeLogs := service.NewTimeLogService(logs, tx, events, log)
	users := service.NewUserService(&testutil.UserStore{}, secret, time.Hour, log)

	h := Handlers{
		Auth:         handler.NewAuthHandler(users, fl, log),
		Users:        handler.NewUserHandler(users, fl, log),
		Projects:     handler.NewProjectHandler(service.NewProjectService(&testutil.ProjectStore{}, tx, events, log), fl, log),
		Tasks:        handler.NewTaskHandler(service.NewTaskService(tasks, tx, events, cache, log), fl, log),
		TimeLogs:     handler.NewTimeLogHandler(timeLogs, fl, log),
		Deliverables: handler.NewDeliverableHandler(service.NewDeliverableService(deliverables, tx, events, log), fl, log),
		Notes:        handler.NewNoteHandler(service.NewNoteService(&testutil.NoteStore{}, log), fl, log),
		ListItems:    handler.NewListItemHandler(service.NewListItemService(items, tx, log), fl, log),
		Insights: handler.NewInsightHandler(
			service.NewSmartFocusService(tasks, nil, cache, 20, 3, log),
			service.NewReportService(&testutil.ReportStore{}, tasks, logs, deliverables, items, log),
			service.NewActivityService(&testutil.ActivityStore{}, log),
			log,
		),
		Admin: handler.NewAdminHandler(nil, fl, log),
	}
	return NewRouter(h, Options{JWTSecret: secret, DB: db, MQ: mq, Logger: log})
}

func token(t *testing.T, userID int64, role string) string {
	t.Helper()
	tok, err := auth.GenerateJWT(userID, role, secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func serve(r *Router, method, path, tok string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestRouter(t, fakePinger{}, fakeConn(true))

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodHead, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "").Code)

	w := serve(r, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready"}`, w.Body.String())

	w = serve(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_request_duration_seconds")
}

func TestReadyz_NotReady(t *testing.T) {
	r := newTestRouter(t, fakePinger{err: errors.New("dial tcp: refused")}, fakeConn(true))
	w := serve(r, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "db_not_ready")

	r = newTestRouter(t, fakePinger{}, fakeConn(false))
	w = serve(r, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "mq_not_ready")

	r = newTestRouter(t, fakePinger{}, nil)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/readyz", "").Code)
}

func TestAuthMiddleware(t *testing.T) {
	r := newTestRouter(t, fakePinger{}, nil)

	w := serve(r, http.MethodGet, "/api/tasks", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing token")

	w = serve(r, http.MethodGet, "/api/tasks", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token")

	w = serve(r, http.MethodGet, "/api/tasks", token(t, 2, rbac.RoleIntern))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tasks"`)
}

func TestRequirePermission(t *testing.T) {
	r := newTestRouter(t, fakePinger{}, nil)
	intern := token(t, 2, rbac.RoleIntern)
	admin := token(t, 1, rbac.RoleAdmin)

	for _, path := range []string{"/api/users", "/api/reports/hours", "/api/admin/activity", "/api/admin/outbox/failed"} {
		assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, path, intern).Code, path)
	}
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/api/tasks/1/assign", intern).Code)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/users", admin).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/admin/activity", admin).Code)
}

func TestStaticRoutesBeatParams(t *testing.T) {
	r := newTestRouter(t, fakePinger{}, nil)
	intern := token(t, 2, rbac.RoleIntern)

	w := serve(r, http.MethodGet, "/api/time-logs/timer", intern)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"timer":null}`, w.Body.String())

	assert.Equal(t, http.StatusConflict, serve(r, http.MethodPost, "/api/time-logs/timer/stop", intern).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodPost, "/api/list-items/9/delete", intern).Code)
}

func TestTraceMiddleware(t *testing.T) {
	r := newTestRouter(t, fakePinger{}, nil)

	w := serve(r, http.MethodGet, "/healthz", "")
	assert.Len(t, w.Header().Get(trace.HeaderName()), 32)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(trace.HeaderName(), "upstream-trace")
	w = httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)
	assert.Equal(t, "upstream-trace", w.Header().Get(trace.HeaderName()))
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, fakePinger{}, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
