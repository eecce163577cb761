package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskd/deskd/internal/domain/resolver"
	"github.com/deskd/deskd/internal/infrastructure/logging"
)

// fakeResolver satisfies resolver.Resolver with canned responses.
type fakeResolver struct {
	target   resolver.ResolvedExecutable
	apps     []resolver.AppInfo
	status   resolver.Status
	err      error
	closed   []string
	opened   []string
	snapshot map[string]resolver.ResolvedExecutable
}

func (f *fakeResolver) Resolve(ctx context.Context, name string) (resolver.ResolvedExecutable, error) {
	return f.target, f.err
}

func (f *fakeResolver) Open(ctx context.Context, name string) error {
	if f.err != nil {
		return f.err
	}
	f.opened = append(f.opened, name)
	return nil
}

func (f *fakeResolver) Close(ctx context.Context, name string) error {
	if f.err != nil {
		return f.err
	}
	f.closed = append(f.closed, name)
	return nil
}

func (f *fakeResolver) Status(ctx context.Context, name string) (resolver.Status, error) {
	return f.status, f.err
}

func (f *fakeResolver) List(ctx context.Context) ([]resolver.AppInfo, error) {
	return f.apps, f.err
}

func (f *fakeResolver) CacheSnapshot() map[string]resolver.ResolvedExecutable {
	return f.snapshot
}

func newTestRouter(r resolver.Resolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandlers(r, logging.NewNop())

	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/resolve/:name", h.Resolve)
	router.POST("/apps/open", h.Open)
	router.POST("/apps/close", h.Close)
	router.GET("/apps/:name/status", h.Status)
	router.GET("/apps", h.List)
	router.GET("/cache", h.Cache)
	return router
}

func perform(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&fakeResolver{})

	w := perform(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestResolveFound(t *testing.T) {
	fake := &fakeResolver{
		target: resolver.ResolvedExecutable{Path: "/usr/bin/spotify", Origin: "path"},
	}
	router := newTestRouter(fake)

	w := perform(router, http.MethodGet, "/resolve/Spotify", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/usr/bin/spotify")
	assert.Contains(t, w.Body.String(), `"spotify"`)
}

func TestResolveNotFound(t *testing.T) {
	fake := &fakeResolver{err: &resolver.NotFoundError{Name: "ghost"}}
	router := newTestRouter(fake)

	w := perform(router, http.MethodGet, "/resolve/ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOpen(t *testing.T) {
	fake := &fakeResolver{}
	router := newTestRouter(fake)

	w := perform(router, http.MethodPost, "/apps/open", `{"name":"spotify"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"spotify"}, fake.opened)
}

func TestOpenMissingName(t *testing.T) {
	router := newTestRouter(&fakeResolver{})

	w := perform(router, http.MethodPost, "/apps/open", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOpenLaunchFailure(t *testing.T) {
	fake := &fakeResolver{err: &resolver.LaunchFailedError{Target: "/usr/bin/broken"}}
	router := newTestRouter(fake)

	w := perform(router, http.MethodPost, "/apps/open", `{"name":"broken"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestClose(t *testing.T) {
	fake := &fakeResolver{}
	router := newTestRouter(fake)

	w := perform(router, http.MethodPost, "/apps/close", `{"name":"spotify"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"spotify"}, fake.closed)
}

func TestStatus(t *testing.T) {
	fake := &fakeResolver{status: resolver.StatusRunning}
	router := newTestRouter(fake)

	w := perform(router, http.MethodGet, "/apps/spotify/status", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "running")
}

func TestList(t *testing.T) {
	fake := &fakeResolver{apps: []resolver.AppInfo{
		{PID: 1, Name: "init", Path: "/sbin/init", Responding: true},
		{PID: 42, Name: "spotify", Path: "/usr/bin/spotify", Responding: true},
	}}
	router := newTestRouter(fake)

	w := perform(router, http.MethodGet, "/apps", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":2`)
	assert.Contains(t, w.Body.String(), "spotify")
}

func TestCacheDump(t *testing.T) {
	fake := &fakeResolver{snapshot: map[string]resolver.ResolvedExecutable{
		"spotify": {Path: "/usr/bin/spotify", Origin: "desktop-entry"},
	}}
	router := newTestRouter(fake)

	w := perform(router, http.MethodGet, "/cache", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "desktop-entry")
}
