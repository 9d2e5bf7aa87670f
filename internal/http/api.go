package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"synchron/internal/audit"
	"synchron/internal/registry"
)

// Handler wires HTTP routes to the registry core.
type Handler struct {
	registry *registry.Registry
	log      *audit.Log
	auth     AuthConfig
	logger   *logrus.Entry
}

func NewHandler(reg *registry.Registry, log *audit.Log, auth AuthConfig, logger *logrus.Logger) *Handler {
	return &Handler{
		registry: reg,
		log:      log,
		auth:     auth,
		logger:   logger.WithField("component", "http"),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		api.GET("/status", h.publicStatus)
		api.POST("/auth/login", h.login)

		admin := api.Group("", h.requireAdmin())
		{
			admin.POST("/users", h.registerUser)
			admin.POST("/register", h.registerUser)
			admin.GET("/users", h.listUsers)
			admin.PATCH("/users/:id", h.patchUser)
			admin.DELETE("/users/:id", h.deleteUser)
			admin.GET("/stats", h.stats)
			admin.GET("/logs", h.listLogs)
			admin.POST("/broadcast", h.setBroadcast)
			admin.POST("/maintenance", h.setMaintenance)
			admin.POST("/cache/clear", h.clearCache)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Admin-Token")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// respondError maps registry errors onto the three-way status distinction
// the console relies on: 400 validation, 404 not found, 500 otherwise.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registry.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, registry.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) registerUser(c *gin.Context) {
	var payload registry.RegisterPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	count, created, err := h.registry.Register(payload)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"success": true, "totalUsers": count})
}

func (h *Handler) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.List())
}

func (h *Handler) patchUser(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.registry.ApplyPatch(c.Param("id"), fields)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.registry.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted successfully"})
}

func (h *Handler) stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.Stats())
}

func (h *Handler) listLogs(c *gin.Context) {
	c.JSON(http.StatusOK, h.log.List())
}

type broadcastRequest struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

func (h *Handler) setBroadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.registry.SetBroadcast(req.Message, req.Severity); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type maintenanceRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *Handler) setMaintenance(c *gin.Context) {
	var req maintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.registry.SetMaintenance(req.Enabled)
	c.JSON(http.StatusOK, gin.H{"success": true, "maintenance": req.Enabled})
}

func (h *Handler) clearCache(c *gin.Context) {
	// no server-side cache yet; the console still expects the ack
	h.logger.Info("cache clear requested by admin")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Server cache cleared successfully"})
}

func (h *Handler) publicStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.PublicStatus())
}
