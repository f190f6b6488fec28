package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"projecttracker/internal/service"
)

type LifecycleHandler struct {
	tracker     *service.MilestoneTracker
	authService *service.AuthService
}

func NewLifecycleHandler(tracker *service.MilestoneTracker, authService *service.AuthService) *LifecycleHandler {
	return &LifecycleHandler{
		tracker:     tracker,
		authService: authService,
	}
}

// Approve handles POST /projects/:id/approve
func (h *LifecycleHandler) Approve(c *gin.Context) {
	h.simple(c, h.tracker.Approve)
}

// Unapprove handles POST /projects/:id/unapprove
func (h *LifecycleHandler) Unapprove(c *gin.Context) {
	h.simple(c, h.tracker.Unapprove)
}

// Reopen handles POST /projects/:id/reopen
func (h *LifecycleHandler) Reopen(c *gin.Context) {
	h.simple(c, h.tracker.Reopen)
}

// Cancel handles POST /projects/:id/cancel
func (h *LifecycleHandler) Cancel(c *gin.Context) {
	h.simple(c, h.tracker.Cancel)
}

// Uncancel handles POST /projects/:id/uncancel
func (h *LifecycleHandler) Uncancel(c *gin.Context) {
	h.simple(c, h.tracker.Uncancel)
}

// SignOff handles POST /projects/:id/signoff
func (h *LifecycleHandler) SignOff(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	actor, err := h.authService.UserByID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.tracker.SignOff(c.Request.Context(), id, actor); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status handles GET /projects/:id/status
func (h *LifecycleHandler) Status(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	status, err := h.tracker.Status(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// MilestoneComplete handles GET /projects/:id/milestones/complete?label=...
// The response mirrors the tri-state query: completed is null when the
// milestone was never attached.
func (h *LifecycleHandler) MilestoneComplete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	label := c.Query("label")
	if label == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing label"})
		return
	}

	done, err := h.tracker.MilestoneComplete(c.Request.Context(), id, label)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"label": label, "completed": done})
}

// Attach handles POST /projects/:id/milestones
func (h *LifecycleHandler) Attach(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		DefinitionID int  `json:"definition_id" binding:"required"`
		Required     bool `json:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.tracker.AttachMilestone(c.Request.Context(), id, req.DefinitionID, req.Required); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *LifecycleHandler) simple(c *gin.Context, op func(ctx context.Context, projectID int) error) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := op(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
