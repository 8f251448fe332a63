package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/justsurfingit/jobboard/internal/database"
	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/justsurfingit/jobboard/internal/models"
	"gorm.io/gorm"
)

type JobService struct {
	DB     *gorm.DB
	logger *slog.Logger
}

func NewJobService(db *gorm.DB, logger *slog.Logger) *JobService {
	return &JobService{
		DB:     db,
		logger: logger,
	}
}

// UpsertJob writes one extracted record: company by name, job by its
// external id, then a full replace of the job's skills, all in one
// transaction. Failures roll back, are appended to results and reported
// as false; counters only move after commit.
func (s *JobService) UpsertJob(ctx context.Context, rec dtos.JobRecord, results *dtos.RunResult) bool {
	created, err := s.upsert(ctx, rec)
	if err != nil {
		err = database.DescribeError(err)
		s.logger.Warn("job upsert rolled back", "job_id", rec.JobID.Trimmed(), "title", rec.DisplayName(), "error", err)
		results.AddError(fmt.Sprintf("Error processing job %s: %v", rec.DisplayName(), err))
		return false
	}

	if created {
		results.JobsAdded++
	} else {
		results.JobsUpdated++
	}
	return true
}

func (s *JobService) upsert(ctx context.Context, rec dtos.JobRecord) (created bool, err error) {
	if err := rec.Validate(); err != nil {
		return false, err
	}
	s.logger.Debug("upserting job", "record", rec.Summary())

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		company, err := upsertCompany(tx, rec)
		if err != nil {
			return fmt.Errorf("company: %w", err)
		}

		job, isNew, err := upsertJob(tx, rec, company.ID)
		if err != nil {
			return fmt.Errorf("job: %w", err)
		}
		created = isNew

		if err := replaceSkills(tx, job.ID, rec.Skills.Unique()); err != nil {
			return fmt.Errorf("skills: %w", err)
		}
		return nil
	})
	return created, err
}

// upsertCompany overwrites rating, reviews and logo on every sighting,
// including with nulls.
func upsertCompany(tx *gorm.DB, rec dtos.JobRecord) (*models.Company, error) {
	var company models.Company
	err := tx.Where("name = ?", rec.Company.Trimmed()).First(&company).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		company = models.Company{
			Name:    rec.Company.Trimmed(),
			Rating:  rec.CompanyRating.Ptr(),
			Reviews: rec.CompanyReviews.Ptr(),
			LogoURL: rec.LogoURL.Ptr(),
		}
		if err := tx.Create(&company).Error; err != nil {
			return nil, err
		}
		return &company, nil
	}
	if err != nil {
		return nil, err
	}

	err = tx.Model(&company).Updates(map[string]any{
		"rating":   rec.CompanyRating.Ptr(),
		"reviews":  rec.CompanyReviews.Ptr(),
		"logo_url": rec.LogoURL.Ptr(),
	}).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// upsertJob never touches date_scraped on update.
func upsertJob(tx *gorm.DB, rec dtos.JobRecord, companyID uint) (*models.Job, bool, error) {
	var job models.Job
	err := tx.Where("job_id = ?", rec.JobID.Trimmed()).First(&job).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		job = models.Job{
			ExternalID:  rec.JobID.Trimmed(),
			Title:       rec.Title.Trimmed(),
			CompanyID:   companyID,
			Experience:  rec.Experience.Ptr(),
			Salary:      rec.Salary.Ptr(),
			Location:    rec.Location.Ptr(),
			Description: rec.Description.Ptr(),
			DetailURL:   rec.DetailURL.Trimmed(),
			PostedDate:  rec.Posted.Ptr(),
		}
		if err := tx.Omit("Company", "Skills").Create(&job).Error; err != nil {
			return nil, false, err
		}
		return &job, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	err = tx.Model(&job).Updates(map[string]any{
		"title":       rec.Title.Trimmed(),
		"company_id":  companyID,
		"experience":  rec.Experience.Ptr(),
		"salary":      rec.Salary.Ptr(),
		"location":    rec.Location.Ptr(),
		"description": rec.Description.Ptr(),
		"detail_url":  rec.DetailURL.Trimmed(),
		"posted_date": rec.Posted.Ptr(),
	}).Error
	if err != nil {
		return nil, false, err
	}
	return &job, false, nil
}

func replaceSkills(tx *gorm.DB, jobID uint, skills []string) error {
	if err := tx.Where("job_id = ?", jobID).Delete(&models.JobSkill{}).Error; err != nil {
		return err
	}
	if len(skills) == 0 {
		return nil
	}

	rows := make([]models.JobSkill, 0, len(skills))
	for _, skill := range skills {
		rows = append(rows, models.JobSkill{JobID: jobID, Skill: skill})
	}
	return tx.Create(&rows).Error
}

// ListJobs returns jobs newest first. Filters are case-insensitive
// substring matches combined with AND.
func (s *JobService) ListJobs(ctx context.Context, f dtos.JobFilter) ([]models.Job, error) {
	q := s.DB.WithContext(ctx).Preload("Company").Preload("Skills")

	if f.Company != "" {
		companies := s.DB.WithContext(ctx).Model(&models.Company{}).Select("id").
			Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(f.Company))
		q = q.Where("company_id IN (?)", companies)
	}
	if f.Title != "" {
		q = q.Where(`LOWER(title) LIKE ? ESCAPE '\'`, likePattern(f.Title))
	}
	if f.Location != "" {
		q = q.Where(`LOWER(location) LIKE ? ESCAPE '\'`, likePattern(f.Location))
	}
	if f.Skill != "" {
		skilled := s.DB.WithContext(ctx).Model(&models.JobSkill{}).Select("job_id").
			Where(`LOWER(skill) LIKE ? ESCAPE '\'`, likePattern(f.Skill))
		q = q.Where("id IN (?)", skilled)
	}

	var jobs []models.Job
	if err := q.Order("date_scraped DESC").Order("id DESC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// GetJob returns gorm.ErrRecordNotFound when id does not exist.
func (s *JobService) GetJob(ctx context.Context, id uint) (*models.Job, error) {
	var job models.Job
	if err := s.DB.WithContext(ctx).Preload("Company").Preload("Skills").First(&job, id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *JobService) ListCompanies(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	if err := s.DB.WithContext(ctx).Order("name").Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

func (s *JobService) GetCompany(ctx context.Context, id uint) (*models.Company, error) {
	var company models.Company
	if err := s.DB.WithContext(ctx).First(&company, id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}
