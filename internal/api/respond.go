package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"projecttracker/internal/model"
	"projecttracker/internal/service"
)

// writeError maps the service error taxonomy onto HTTP statuses. Consistency
// errors are operational incidents: the client sees a generic 500 and the
// detail stays in the logs.
func writeError(c *gin.Context, err error) {
	var consistency *model.ConsistencyError
	switch {
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, model.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
	case errors.Is(err, model.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.As(err, &consistency):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal inconsistency"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// currentUserID reads the user id the auth middleware stored on the context.
func currentUserID(c *gin.Context) (int, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return 0, false
	}
	id, ok := v.(int)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid user_id"})
		return 0, false
	}
	return id, true
}
