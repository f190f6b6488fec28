package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"projecttracker/internal/service"
)

type SisterHandler struct {
	families *service.FamilyManager
}

func NewSisterHandler(families *service.FamilyManager) *SisterHandler {
	return &SisterHandler{
		families: families,
	}
}

// Add handles POST /projects/:id/sisters
func (h *SisterHandler) Add(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		SisterID int `json:"sister_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.families.AddSister(c.Request.Context(), id, req.SisterID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Remove handles DELETE /projects/:id/sisters
func (h *SisterHandler) Remove(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.families.DeleteSister(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// List handles GET /projects/:id/sisters
func (h *SisterHandler) List(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	sisters, err := h.families.GetSisters(c.Request.Context(), id, false)
	if err != nil {
		writeError(c, err)
		return
	}

	familyID, err := h.families.GetFamily(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"family_id": familyID,
		"sisters":   sisters,
	})
}

// Candidates handles GET /projects/:id/sisters/candidates
func (h *SisterHandler) Candidates(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	candidates, err := h.families.Candidates(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}
