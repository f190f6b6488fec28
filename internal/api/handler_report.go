package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"projecttracker/internal/model"
	"projecttracker/internal/service"
)

type ReportHandler struct {
	reports     *service.ReportService
	fulfillment *service.FulfillmentResolver
}

func NewReportHandler(reports *service.ReportService, fulfillment *service.FulfillmentResolver) *ReportHandler {
	return &ReportHandler{
		reports:     reports,
		fulfillment: fulfillment,
	}
}

// Register handles POST /projects/:id/reports. The file has already been
// stored by the upload subsystem; this records the reference.
func (h *ReportHandler) Register(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Path         string `json:"path" binding:"required"`
		Hash         string `json:"hash" binding:"required"`
		DefinitionID int    `json:"definition_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	rep := &model.Report{
		Path:         req.Path,
		Hash:         req.Hash,
		UploadedByID: userID,
	}
	if err := h.reports.Register(c.Request.Context(), rep, id, req.DefinitionID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report_id": rep.ID})
}

// Outstanding handles GET /projects/:id/reports/outstanding
func (h *ReportHandler) Outstanding(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	outstanding, err := h.fulfillment.GetOutstanding(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outstanding": outstanding})
}

// Complete handles GET /projects/:id/reports/complete
func (h *ReportHandler) Complete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	complete, err := h.fulfillment.GetComplete(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"complete": complete})
}
