package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/justsurfingit/jobboard/internal/services"
)

// Scraper is the subset of services.ScraperService the endpoints use.
type Scraper interface {
	Run(ctx context.Context, maxItems int) (*dtos.RunResult, error)
	Running() bool
	LastRun(ctx context.Context) (*dtos.RunStatus, error)
}

type ScrapeHandler struct {
	Scraper         Scraper
	DefaultMaxItems int
}

func NewScrapeHandler(s Scraper, defaultMaxItems int) *ScrapeHandler {
	return &ScrapeHandler{Scraper: s, DefaultMaxItems: defaultMaxItems}
}

// TriggerScrape is POST /api/scrape/. It blocks until the run finishes and
// returns the aggregated result; a client disconnect does not stop the run.
func (h *ScrapeHandler) TriggerScrape(c *gin.Context) {
	var req dtos.ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, errorBody("Invalid request: "+err.Error()))
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	result, err := h.Scraper.Run(ctx, req.Limit(h.DefaultMaxItems))
	switch {
	case errors.Is(err, services.ErrRunInProgress):
		c.JSON(http.StatusConflict, errorBody(err.Error()))
	case err != nil:
		c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	default:
		c.JSON(http.StatusOK, result)
	}
}

// ScrapeStatus is GET /api/scrape/
func (h *ScrapeHandler) ScrapeStatus(c *gin.Context) {
	resp := dtos.ScrapeStatusResponse{
		Status:  "ready",
		Message: "Send a POST request to start scraping",
	}
	if h.Scraper.Running() {
		resp.Status = "running"
		resp.Message = "A scrape run is in progress"
	}

	last, err := h.Scraper.LastRun(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("Failed to load last run: "+err.Error()))
		return
	}
	resp.LastRun = last
	c.JSON(http.StatusOK, resp)
}

// HealthCheck is GET /api/health
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
