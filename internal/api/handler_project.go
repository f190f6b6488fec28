package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"projecttracker/internal/service"
)

type ProjectHandler struct {
	projectService *service.ProjectService
	tracker        *service.MilestoneTracker
	authService    *service.AuthService
}

func NewProjectHandler(
	projectService *service.ProjectService,
	tracker *service.MilestoneTracker,
	authService *service.AuthService,
) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		tracker:        tracker,
		authService:    authService,
	}
}

// Create handles POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req struct {
		Code    string `json:"code" binding:"required"`
		Name    string `json:"name" binding:"required"`
		LeadID  int    `json:"lead_id" binding:"required"`
		DBAID   int    `json:"dba_id" binding:"required"`
		OwnerID int    `json:"owner_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	p, err := h.projectService.Create(c.Request.Context(), req.Code, req.Name, req.LeadID, req.DBAID, req.OwnerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, p)
}

// Get handles GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	p, err := h.projectService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	status, err := h.tracker.Status(c.Request.Context(), p.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project": p,
		"status":  status,
	})
}

// StatusDict handles GET /projects/:id/milestones/status
func (h *ProjectHandler) StatusDict(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	dict, err := h.tracker.StatusDict(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"milestones": dict})
}

// Milestones handles GET /projects/:id/milestones
func (h *ProjectHandler) Milestones(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	milestones, err := h.tracker.Milestones(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"milestones": milestones})
}

// Watch handles POST /projects/:id/watch
func (h *ProjectHandler) Watch(c *gin.Context) {
	h.setWatch(c, true)
}

// Unwatch handles DELETE /projects/:id/watch
func (h *ProjectHandler) Unwatch(c *gin.Context) {
	h.setWatch(c, false)
}

func (h *ProjectHandler) setWatch(c *gin.Context, watch bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	employeeID, ok := h.currentEmployeeID(c)
	if !ok {
		return
	}

	var err error
	if watch {
		err = h.projectService.Watch(c.Request.Context(), id, employeeID)
	} else {
		err = h.projectService.Unwatch(c.Request.Context(), id, employeeID)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// currentEmployeeID resolves the authenticated user's directory entry.
func (h *ProjectHandler) currentEmployeeID(c *gin.Context) (int, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return 0, false
	}
	u, err := h.authService.UserByID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return 0, false
	}
	if u.EmployeeID == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "account has no directory entry"})
		return 0, false
	}
	return *u.EmployeeID, true
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
