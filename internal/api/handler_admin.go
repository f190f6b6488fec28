package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"projecttracker/pkg/outbox"
)

// AdminHandler exposes the outbox's failure queue so parked delivery events
// can be inspected and replayed by an operator.
type AdminHandler struct {
	outboxRepo *outbox.Repository
}

func NewAdminHandler(outboxRepo *outbox.Repository) *AdminHandler {
	return &AdminHandler{
		outboxRepo: outboxRepo,
	}
}

// FailedEvents handles GET /admin/outbox/failed
func (h *AdminHandler) FailedEvents(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	events, err := h.outboxRepo.GetFailedEvents(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// ReplayEvent handles POST /admin/outbox/:id/replay
func (h *AdminHandler) ReplayEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.outboxRepo.ReplayEvent(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to replay event"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "queued"})
}
