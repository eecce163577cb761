package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/deskd/deskd/internal/domain/resolver"
	"github.com/deskd/deskd/internal/infrastructure/logging"
)

// Handlers exposes the resolver over HTTP.
type Handlers struct {
	resolver resolver.Resolver
	log      *logging.Logger
	started  time.Time
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(r resolver.Resolver, log *logging.Logger) *Handlers {
	return &Handlers{
		resolver: r,
		log:      log,
		started:  time.Now(),
	}
}

// openRequest is the body of POST /apps/open and /apps/close.
type openRequest struct {
	Name string `json:"name" binding:"required"`
}

// Root returns service information.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "deskd",
		"status":  "running",
	})
}

// Health returns service health.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"uptime_seconds": time.Since(h.started).Seconds(),
	})
}

// Resolve handles GET /resolve/:name.
func (h *Handlers) Resolve(c *gin.Context) {
	name := c.Param("name")

	target, err := h.resolver.Resolve(c.Request.Context(), name)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":   resolver.NormalizeName(name),
		"target": target,
	})
}

// Open handles POST /apps/open.
func (h *Handlers) Open(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	if err := h.resolver.Open(c.Request.Context(), req.Name); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": resolver.NormalizeName(req.Name), "opened": true})
}

// Close handles POST /apps/close.
func (h *Handlers) Close(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	if err := h.resolver.Close(c.Request.Context(), req.Name); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": resolver.NormalizeName(req.Name), "closed": true})
}

// Status handles GET /apps/:name/status.
func (h *Handlers) Status(c *gin.Context) {
	name := c.Param("name")

	status, err := h.resolver.Status(c.Request.Context(), name)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":   resolver.NormalizeName(name),
		"status": status,
	})
}

// List handles GET /apps.
func (h *Handlers) List(c *gin.Context) {
	apps, err := h.resolver.List(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"apps":  apps,
		"count": len(apps),
	})
}

// Cache handles GET /cache, a diagnostic dump of the resolution table.
func (h *Handlers) Cache(c *gin.Context) {
	entries := h.resolver.CacheSnapshot()
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// renderError maps resolver errors onto HTTP statuses.
func (h *Handlers) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, resolver.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, resolver.ErrPlatformNotSupported):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
	case errors.Is(err, resolver.ErrLaunchFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
