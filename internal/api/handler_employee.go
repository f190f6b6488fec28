package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"projecttracker/internal/model"
	"projecttracker/internal/repository"
	"projecttracker/internal/service"
)

type EmployeeHandler struct {
	employeeRepo *repository.EmployeeRepository
	directory    *service.Directory
}

func NewEmployeeHandler(employeeRepo *repository.EmployeeRepository, directory *service.Directory) *EmployeeHandler {
	return &EmployeeHandler{
		employeeRepo: employeeRepo,
		directory:    directory,
	}
}

// Create handles POST /employees
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req struct {
		Name         string `json:"name" binding:"required"`
		SupervisorID *int   `json:"supervisor_id"`
		Role         string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	e := &model.Employee{
		Name:         req.Name,
		SupervisorID: req.SupervisorID,
		Role:         model.EmployeeRole(req.Role),
	}
	id, err := h.employeeRepo.Insert(c.Request.Context(), e)
	if err != nil {
		writeError(c, err)
		return
	}
	e.ID = id

	c.JSON(http.StatusOK, e)
}

// Get handles GET /employees/:id
func (h *EmployeeHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	e, err := h.directory.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// Supervisors handles GET /employees/:id/supervisors
func (h *EmployeeHandler) Supervisors(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	chain, err := h.directory.Chain(c.Request.Context(), id, 0)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"supervisors": chain})
}

// Reports handles GET /employees/:id/reports, listing every transitive
// report.
func (h *EmployeeHandler) Reports(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	reports, err := h.directory.Reports(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}
