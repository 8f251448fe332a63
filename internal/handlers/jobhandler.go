package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/justsurfingit/jobboard/internal/services"
	"gorm.io/gorm"
)

// JobHandler serves the read-only job and company endpoints.
type JobHandler struct {
	JobService *services.JobService
}

// NewJobHandler creates the handler with dependencies
func NewJobHandler(j *services.JobService) *JobHandler {
	return &JobHandler{JobService: j}
}

// ListJobs is GET /api/jobs/
func (h *JobHandler) ListJobs(c *gin.Context) {
	var filter dtos.JobFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Invalid query: "+err.Error()))
		return
	}

	jobs, err := h.JobService.ListJobs(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("Failed to list jobs: "+err.Error()))
		return
	}

	out := make([]dtos.JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, dtos.NewJobResponse(j))
	}
	c.JSON(http.StatusOK, out)
}

// GetJob is GET /api/jobs/:id/
func (h *JobHandler) GetJob(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	job, err := h.JobService.GetJob(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, errorBody("Not found."))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("Failed to load job: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, dtos.NewJobResponse(*job))
}

// ListCompanies is GET /api/companies/
func (h *JobHandler) ListCompanies(c *gin.Context) {
	companies, err := h.JobService.ListCompanies(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("Failed to list companies: "+err.Error()))
		return
	}

	out := make([]dtos.CompanyResponse, 0, len(companies))
	for _, co := range companies {
		out = append(out, dtos.NewCompanyResponse(co))
	}
	c.JSON(http.StatusOK, out)
}

// GetCompany is GET /api/companies/:id/
func (h *JobHandler) GetCompany(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	company, err := h.JobService.GetCompany(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, errorBody("Not found."))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("Failed to load company: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, dtos.NewCompanyResponse(*company))
}

// pathID writes a 404 itself when :id is not a positive integer.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, errorBody("Not found."))
		return 0, false
	}
	return uint(id), true
}

func errorBody(msg string) dtos.ErrorResponse {
	return dtos.ErrorResponse{Status: "error", Message: msg}
}
