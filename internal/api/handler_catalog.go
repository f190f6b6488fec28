package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"projecttracker/internal/model"
	"projecttracker/internal/service"
)

type CatalogHandler struct {
	catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
	}
}

// List handles GET /milestones
func (h *CatalogHandler) List(c *gin.Context) {
	defs, err := h.catalog.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"definitions": defs})
}

// Create handles POST /milestones
func (h *CatalogHandler) Create(c *gin.Context) {
	var req struct {
		Label        string `json:"label" binding:"required"`
		Category     string `json:"category" binding:"required"`
		IsReport     bool   `json:"is_report"`
		DisplayOrder int    `json:"display_order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	d := &model.MilestoneDefinition{
		Label:        req.Label,
		Category:     model.MilestoneCategory(req.Category),
		IsReport:     req.IsReport,
		DisplayOrder: req.DisplayOrder,
	}
	if err := h.catalog.Create(c.Request.Context(), d); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Delete handles DELETE /milestones/:id
func (h *CatalogHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
