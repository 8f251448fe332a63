package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/justsurfingit/jobboard/internal/config"
	"github.com/justsurfingit/jobboard/internal/database"
	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/justsurfingit/jobboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	url := "file:" + filepath.Join(t.TempDir(), "jobs.db") + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := database.Connect(config.DatabaseConfig{Driver: config.DriverSQLite, URL: url}, discardLogger())
	require.NoError(t, err)
	return db
}

func ns(s string) dtos.NullString {
	return dtos.NullString{Value: s, Valid: true}
}

func record(jobID, title, company string, skills ...string) dtos.JobRecord {
	return dtos.JobRecord{
		JobID:   ns(jobID),
		Title:   ns(title),
		Company: ns(company),
		Skills:  skills,
	}
}

func skillsOf(t *testing.T, db *gorm.DB, externalID string) []string {
	t.Helper()
	var job models.Job
	require.NoError(t, db.Preload("Skills").Where("job_id = ?", externalID).First(&job).Error)
	return job.SkillNames()
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestUpsertJob_CreatesCompanyJobAndSkills(t *testing.T) {
	db := newTestDB(t)
	svc := NewJobService(db, discardLogger())
	results := dtos.NewRunResult()

	rec := record("A1", "Engineer", "Acme", "go", "sql")
	rec.CompanyRating = ns("4.1")
	rec.Salary = ns("10-20 Lacs PA")
	rec.DetailURL = ns("https://example.com/a1")

	ok := svc.UpsertJob(context.Background(), rec, results)
	require.True(t, ok)
	assert.Equal(t, 1, results.JobsAdded)
	assert.Equal(t, 0, results.JobsUpdated)
	assert.Empty(t, results.Errors)

	var job models.Job
	require.NoError(t, db.Preload("Company").Where("job_id = ?", "A1").First(&job).Error)
	assert.Equal(t, "Engineer", job.Title)
	assert.Equal(t, "Acme", job.Company.Name)
	require.NotNil(t, job.Company.Rating)
	assert.Equal(t, "4.1", *job.Company.Rating)
	require.NotNil(t, job.Salary)
	assert.Equal(t, "10-20 Lacs PA", *job.Salary)
	assert.Nil(t, job.Location)
	assert.False(t, job.DateScraped.IsZero())
	assert.ElementsMatch(t, []string{"go", "sql"}, skillsOf(t, db, "A1"))
}

func TestUpsertJob_SecondPassUpdatesInPlace(t *testing.T) {
	db := newTestDB(t)
	svc := NewJobService(db, discardLogger())
	ctx := context.Background()

	first := dtos.NewRunResult()
	require.True(t, svc.UpsertJob(ctx, record("A1", "Engineer", "Acme"), first))

	var before models.Job
	require.NoError(t, db.Where("job_id = ?", "A1").First(&before).Error)

	time.Sleep(10 * time.Millisecond)

	second := dtos.NewRunResult()
	rec := record("A1", "Senior Engineer", "Acme")
	rec.Location = ns("Bengaluru")
	require.True(t, svc.UpsertJob(ctx, rec, second))

	assert.Equal(t, 0, second.JobsAdded)
	assert.Equal(t, 1, second.JobsUpdated)
	assert.EqualValues(t, 1, count(t, db, &models.Job{}))
	assert.EqualValues(t, 1, count(t, db, &models.Company{}))

	var after models.Job
	require.NoError(t, db.Where("job_id = ?", "A1").First(&after).Error)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, "Senior Engineer", after.Title)
	require.NotNil(t, after.Location)
	assert.Equal(t, "Bengaluru", *after.Location)
	assert.True(t, before.DateScraped.Equal(after.DateScraped), "capture timestamp must not change")
}

func TestUpsertJob_ReplacesSkills(t *testing.T) {
	db := newTestDB(t)
	svc := NewJobService(db, discardLogger())
	ctx := context.Background()

	require.True(t, svc.UpsertJob(ctx, record("A1", "Engineer", "Acme", "python", "django"), dtos.NewRunResult()))
	require.True(t, svc.UpsertJob(ctx, record("A1", "Engineer", "Acme", "python"), dtos.NewRunResult()))

	assert.Equal(t, []string{"python"}, skillsOf(t, db, "A1"))

	require.True(t, svc.UpsertJob(ctx, record("A1", "Engineer", "Acme"), dtos.NewRunResult()))
	assert.Empty(t, skillsOf(t, db, "A1"))
}

func TestUpsertJob_DuplicateSkillsAreCollapsed(t *testing.T) {
	db := newTestDB(t)
	svc := NewJobService(db, discardLogger())
	results := dtos.NewRunResult()

	require.True(t, svc.UpsertJob(context.Background(), record("A1", "Engineer", "Acme", "go", "go", "sql"), results))
	assert.Empty(t, results.Errors)
	assert.ElementsMatch(t, []string{"go", "sql"}, skillsOf(t, db, "A1"))
}

func TestUpsertJob_SkillsAreTrimmedBeforeInsert(t *testing.T) {
	db := newTestDB(t)
	svc := NewJobService(db, discardLogger())
	results := dtos.NewRunResult()

	require.True(t, svc.UpsertJob(context.Background(), record("A1", "Engineer", "Acme", "Go", " Go ", " "), results))
	assert.Empty(t, results.Errors)
	assert.Equal(t, []string{"Go"}, skillsOf(t, db, "A1"))
}

func TestUpsertJob_CompanyLastWriteWins(t *testing.T) {
	db := newTestDB(t)
	svc := NewJobService(db, discardLogger())
	ctx := context.Background()

	rec := record("A1", "Engineer", "Acme")
	rec.CompanyRating = ns("4.1")
	rec.CompanyReviews = ns("120 Reviews")
	require.True(t, svc.UpsertJob(ctx, rec, dtos.NewRunResult()))

	// a later sighting without rating clears it
	rec2 := record("A2", "Analyst", "Acme")
	rec2.CompanyReviews = ns("130 Reviews")
	require.True(t, svc.UpsertJob(ctx, rec2, dtos.NewRunResult()))

	var company models.Company
	require.NoError(t, db.Where("name = ?", "Acme").First(&company).Error)
	assert.Nil(t, company.Rating)
	require.NotNil(t, company.Reviews)
	assert.Equal(t, "130 Reviews", *company.Reviews)
	assert.EqualValues(t, 1, count(t, db, &models.Company{}))
}

func TestUpsertJob_MissingJobIDIsRecorded(t *testing.T) {
	db := newTestDB(t)
	svc := NewJobService(db, discardLogger())
	results := dtos.NewRunResult()

	rec := dtos.JobRecord{Title: ns("Ghost Role"), Company: ns("Acme")}
	ok := svc.UpsertJob(context.Background(), rec, results)

	assert.False(t, ok)
	require.Len(t, results.Errors, 1)
	assert.Contains(t, results.Errors[0], "Error processing job Ghost Role")
	assert.Contains(t, results.Errors[0], "job_id")
	assert.Zero(t, results.JobsAdded)
	assert.EqualValues(t, 0, count(t, db, &models.Company{}))
}

func TestUpsertJob_RollsBackAllWrites(t *testing.T) {
	db := newTestDB(t)
	svc := NewJobService(db, discardLogger())

	err := db.Callback().Create().Before("gorm:create").Register("test:fail_skills", func(tx *gorm.DB) {
		if tx.Statement.Table == "job_skills" {
			tx.AddError(errors.New("injected skill failure"))
		}
	})
	require.NoError(t, err)

	results := dtos.NewRunResult()
	ok := svc.UpsertJob(context.Background(), record("A1", "Engineer", "Acme", "go"), results)

	assert.False(t, ok)
	require.Len(t, results.Errors, 1)
	assert.Contains(t, results.Errors[0], "injected skill failure")
	assert.Zero(t, results.JobsAdded)
	assert.EqualValues(t, 0, count(t, db, &models.Company{}))
	assert.EqualValues(t, 0, count(t, db, &models.Job{}))
	assert.EqualValues(t, 0, count(t, db, &models.JobSkill{}))
}

func TestUpsertJob_FailureDoesNotAffectNextJob(t *testing.T) {
	db := newTestDB(t)
	svc := NewJobService(db, discardLogger())
	results := dtos.NewRunResult()
	ctx := context.Background()

	svc.UpsertJob(ctx, dtos.JobRecord{Title: ns("Broken")}, results)
	svc.UpsertJob(ctx, record("A2", "Analyst", "Acme", "sql"), results)

	assert.Equal(t, 1, results.JobsAdded)
	assert.Len(t, results.Errors, 1)
	assert.EqualValues(t, 1, count(t, db, &models.Job{}))
}

func seedJobs(t *testing.T, svc *JobService) {
	t.Helper()
	ctx := context.Background()
	recs := []dtos.JobRecord{
		record("A1", "Backend Engineer", "Acme", "Go", "PostgreSQL"),
		record("A2", "Data Analyst", "Acme", "SQL"),
		record("B1", "Frontend Engineer", "Globex", "React"),
		record("B2", "100% Remote QA_Lead", "Globex"),
	}
	recs[0].Location = ns("Bengaluru")
	recs[2].Location = ns("Mumbai")
	for _, r := range recs {
		require.True(t, svc.UpsertJob(ctx, r, dtos.NewRunResult()))
	}
}

func externalIDs(jobs []models.Job) []string {
	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ExternalID)
	}
	return ids
}

func TestListJobs_Filters(t *testing.T) {
	db := newTestDB(t)
	svc := NewJobService(db, discardLogger())
	seedJobs(t, svc)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter dtos.JobFilter
		want   []string
	}{
		{"no filter", dtos.JobFilter{}, []string{"A1", "A2", "B1", "B2"}},
		{"company", dtos.JobFilter{Company: "acm"}, []string{"A1", "A2"}},
		{"title", dtos.JobFilter{Title: "ENGINEER"}, []string{"A1", "B1"}},
		{"location", dtos.JobFilter{Location: "bengal"}, []string{"A1"}},
		{"skill", dtos.JobFilter{Skill: "postgres"}, []string{"A1"}},
		{"combined", dtos.JobFilter{Company: "globex", Title: "engineer"}, []string{"B1"}},
		{"percent is literal", dtos.JobFilter{Title: "100%"}, []string{"B2"}},
		{"underscore is literal", dtos.JobFilter{Title: "qa_"}, []string{"B2"}},
		{"no match", dtos.JobFilter{Skill: "cobol"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs, err := svc.ListJobs(ctx, tt.filter)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, externalIDs(jobs))
		})
	}
}

func TestListJobs_CancelledContext(t *testing.T) {
	db := newTestDB(t)
	svc := NewJobService(db, discardLogger())
	seedJobs(t, svc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.ListJobs(ctx, dtos.JobFilter{Company: "acme", Skill: "go"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListJobs_PreloadsCompanyAndSkills(t *testing.T) {
	db := newTestDB(t)
	svc := NewJobService(db, discardLogger())
	seedJobs(t, svc)

	jobs, err := svc.ListJobs(context.Background(), dtos.JobFilter{Skill: "react"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Globex", jobs[0].Company.Name)
	assert.Equal(t, []string{"React"}, jobs[0].SkillNames())
}

func TestGetJobAndCompany(t *testing.T) {
	db := newTestDB(t)
	svc := NewJobService(db, discardLogger())
	seedJobs(t, svc)
	ctx := context.Background()

	jobs, err := svc.ListJobs(ctx, dtos.JobFilter{Title: "analyst"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	job, err := svc.GetJob(ctx, jobs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "A2", job.ExternalID)

	_, err = svc.GetJob(ctx, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	companies, err := svc.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "Acme", companies[0].Name)

	company, err := svc.GetCompany(ctx, companies[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Globex", company.Name)

	_, err = svc.GetCompany(ctx, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
