package dtos

import (
	"time"

	"github.com/justsurfingit/jobboard/internal/models"
)

// ScrapeRequest is the body of POST /api/scrape/. max_items is accepted as
// an alias of max_jobs.
type ScrapeRequest struct {
	MaxJobs  *int `json:"max_jobs" binding:"omitempty,min=1,max=50"`
	MaxItems *int `json:"max_items" binding:"omitempty,min=1,max=50"`
}

// Limit resolves the per-site cap, falling back to def.
func (r ScrapeRequest) Limit(def int) int {
	switch {
	case r.MaxJobs != nil:
		return *r.MaxJobs
	case r.MaxItems != nil:
		return *r.MaxItems
	default:
		return def
	}
}

// RunResult is the aggregate outcome of one run across all sites.
type RunResult struct {
	Success     bool     `json:"success"`
	JobsAdded   int      `json:"jobs_added"`
	JobsUpdated int      `json:"jobs_updated"`
	Errors      []string `json:"errors"`
}

func NewRunResult() *RunResult {
	return &RunResult{Errors: []string{}}
}

// AddError records an error and marks the run unsuccessful.
func (r *RunResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Success = false
}

// Finish sets Success from the error list.
func (r *RunResult) Finish() {
	r.Success = len(r.Errors) == 0
}

// RunStatus is what the status store remembers about the latest run.
type RunStatus struct {
	RunID      string     `json:"run_id"`
	State      string     `json:"state"` // running, completed, failed
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	MaxItems   int        `json:"max_items"`
	Result     *RunResult `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
}

const (
	RunStateRunning   = "running"
	RunStateCompleted = "completed"
	RunStateFailed    = "failed"
)

// ScrapeStatusResponse is returned by GET /api/scrape/.
type ScrapeStatusResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	LastRun *RunStatus `json:"last_run,omitempty"`
}

// ErrorResponse is the body of non-2xx responses.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JobFilter holds the optional substring filters of GET /api/jobs/.
type JobFilter struct {
	Company  string `form:"company"`
	Title    string `form:"title"`
	Location string `form:"location"`
	Skill    string `form:"skill"`
}

type CompanyResponse struct {
	ID      uint    `json:"id"`
	Name    string  `json:"name"`
	Rating  *string `json:"rating"`
	Reviews *string `json:"reviews"`
	LogoURL *string `json:"logo_url"`
}

type JobResponse struct {
	ID          uint            `json:"id"`
	JobID       string          `json:"job_id"`
	Title       string          `json:"title"`
	Company     CompanyResponse `json:"company"`
	Experience  *string         `json:"experience"`
	Salary      *string         `json:"salary"`
	Location    *string         `json:"location"`
	Description *string         `json:"description"`
	DetailURL   string          `json:"detail_url"`
	PostedDate  *string         `json:"posted_date"`
	DateScraped time.Time       `json:"date_scraped"`
	Skills      []string        `json:"skills"`
}

func NewCompanyResponse(c models.Company) CompanyResponse {
	return CompanyResponse{
		ID:      c.ID,
		Name:    c.Name,
		Rating:  c.Rating,
		Reviews: c.Reviews,
		LogoURL: c.LogoURL,
	}
}

// NewJobResponse expects Company and Skills to be preloaded.
func NewJobResponse(j models.Job) JobResponse {
	return JobResponse{
		ID:          j.ID,
		JobID:       j.ExternalID,
		Title:       j.Title,
		Company:     NewCompanyResponse(j.Company),
		Experience:  j.Experience,
		Salary:      j.Salary,
		Location:    j.Location,
		Description: j.Description,
		DetailURL:   j.DetailURL,
		PostedDate:  j.PostedDate,
		DateScraped: j.DateScraped,
		Skills:      j.SkillNames(),
	}
}
