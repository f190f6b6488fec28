package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"projecttracker/internal/model"
	"projecttracker/internal/repository"
	"projecttracker/internal/service"
)

type MessageHandler struct {
	notifications *service.NotificationEngine
	authService   *service.AuthService
	deliveries    *repository.DeliveryRepository
}

func NewMessageHandler(
	notifications *service.NotificationEngine,
	authService *service.AuthService,
	deliveries *repository.DeliveryRepository,
) *MessageHandler {
	return &MessageHandler{
		notifications: notifications,
		authService:   authService,
		deliveries:    deliveries,
	}
}

// MyMessages handles GET /messages. Unread only unless ?all=true.
func (h *MessageHandler) MyMessages(c *gin.Context) {
	employeeID, ok := h.currentEmployeeID(c)
	if !ok {
		return
	}

	onlyUnread := c.Query("all") != "true"
	views, err := h.notifications.MyMessages(c.Request.Context(), employeeID, onlyUnread)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": model.MessagesDict(views)})
}

// MarkRead handles POST /messages/:id/read. The id is the recipient row, so
// a user can only mark their own copy.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	rowID, ok := pathID(c, "id")
	if !ok {
		return
	}
	employeeID, ok := h.currentEmployeeID(c)
	if !ok {
		return
	}

	if err := h.notifications.MarkAsRead(c.Request.Context(), rowID, employeeID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MyDeliveries handles GET /messages/deliveries: the caller's delivery
// history as recorded by the worker, newest first.
func (h *MessageHandler) MyDeliveries(c *gin.Context) {
	employeeID, ok := h.currentEmployeeID(c)
	if !ok {
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	deliveries, err := h.deliveries.ListForRecipient(c.Request.Context(), employeeID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deliveries": deliveries})
}

func (h *MessageHandler) currentEmployeeID(c *gin.Context) (int, bool) {
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
