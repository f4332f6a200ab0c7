// Package http exposes the lifecycle core over REST for the shell surfaces:
// the start menu launches, the taskbar lists and switches, status badges
// poll the count.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/catalog"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/coordinator"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

// Handlers bundles the REST endpoints over the coordinator and catalog.
type Handlers struct {
	coord  *coordinator.Coordinator
	cat    *catalog.Catalog
	logger *logging.Logger
}

// New creates the handler set.
func New(coord *coordinator.Coordinator, cat *catalog.Catalog, logger *logging.Logger) *Handlers {
	return &Handlers{coord: coord, cat: cat, logger: logger.Named("http")}
}

// Register attaches all routes.
func (h *Handlers) Register(r gin.IRouter) {
	r.POST("/launch", h.Launch)
	r.GET("/instances", h.List)
	r.GET("/instances/count", h.Count)
	r.POST("/instances/:id/switch", h.Switch)
	r.DELETE("/instances/:id", h.Terminate)
	r.GET("/catalog", h.Catalog)
	r.GET("/health", h.Health)
}

type launchRequest struct {
	AppID    string     `json:"app_id" binding:"required"`
	Username string     `json:"username" binding:"required"`
	Role     types.Role `json:"role"`
}

// Launch starts a catalog application for a user, or switches to the
// already-running instance.
func (h *Handlers) Launch(c *gin.Context) {
	var req launchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Role == "" {
		req.Role = types.RoleStandard
	}

	d, ok := h.cat.Get(req.AppID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown application id"})
		return
	}

	inst, err := h.coord.Launch(c.Request.Context(), d, coordinator.User{
		Username: req.Username,
		Role:     req.Role,
	})
	if err != nil {
		h.logger.Warn("launch rejected",
			zap.String("app", req.AppID),
			zap.String("user", req.Username),
			zap.Error(err),
		)
		c.JSON(launchStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"instance": inst})
}

func launchStatus(err error) int {
	var mechErr *types.LaunchMechanismError
	switch {
	case errors.Is(err, types.ErrRoleDenied):
		return http.StatusForbidden
	case errors.Is(err, types.ErrUnsupportedDescriptor):
		return http.StatusUnprocessableEntity
	case errors.As(err, &mechErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// List returns all instances, most recently activated first.
func (h *Handlers) List(c *gin.Context) {
	instances := h.coord.Instances()
	c.JSON(http.StatusOK, gin.H{
		"instances": instances,
		"count":     len(instances),
	})
}

// Count returns the instance count for status badges.
func (h *Handlers) Count(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": h.coord.Count()})
}

// Switch activates the instance. A stale instance is pruned and reported
// as gone.
func (h *Handlers) Switch(c *gin.Context) {
	instanceID := c.Param("id")
	if !h.coord.SwitchTo(c.Request.Context(), instanceID) {
		c.JSON(http.StatusNotFound, gin.H{"error": types.ErrInstanceNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"switched": true, "instance_id": instanceID})
}

// Terminate shuts the instance down. force=true skips the graceful path.
func (h *Handlers) Terminate(c *gin.Context) {
	instanceID := c.Param("id")
	force := c.Query("force") == "true"
	if !h.coord.Terminate(c.Request.Context(), instanceID, force) {
		c.JSON(http.StatusNotFound, gin.H{"error": types.ErrInstanceNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"terminated": true, "instance_id": instanceID})
}

// Catalog lists the applications the given role may launch.
func (h *Handlers) Catalog(c *gin.Context) {
	role := types.Role(c.DefaultQuery("role", string(types.RoleStandard)))
	apps := h.cat.VisibleTo(role)
	c.JSON(http.StatusOK, gin.H{
		"applications": apps,
		"count":        len(apps),
	})
}

// Health reports service liveness and registry stats.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"stats":  h.coord.Stats(),
	})
}
