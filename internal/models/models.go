package models

import (
	"time"
)

type Company struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Name is the natural key used by the scraper upsert
	Name    string  `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Rating  *string `gorm:"size:50" json:"rating"`
	Reviews *string `gorm:"size:100" json:"reviews"`
	LogoURL *string `gorm:"column:logo_url" json:"logo_url"`

	// 'omitempty' prevents infinite loops when fetching a Job -> Company -> Jobs -> ...
	Jobs []Job `json:"jobs,omitempty"`
}

type Job struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// ExternalID is the identifier the job board assigns to the posting
	ExternalID string `gorm:"column:job_id;size:100;uniqueIndex;not null" json:"job_id"`
	Title      string `gorm:"size:255;not null" json:"title"`

	// Foreign Key
	CompanyID uint `gorm:"not null;index" json:"company_id"`
	// Association: GORM needs Preload() to fill this
	Company Company `gorm:"constraint:OnDelete:CASCADE" json:"company"`

	Experience  *string `gorm:"size:100" json:"experience"`
	Salary      *string `gorm:"size:100" json:"salary"`
	Location    *string `gorm:"size:255" json:"location"`
	Description *string `gorm:"type:text" json:"description"`
	DetailURL   string  `gorm:"column:detail_url" json:"detail_url"`
	PostedDate  *string `gorm:"size:100" json:"posted_date"`

	// Set once on insert; upserts never write it again
	DateScraped time.Time `gorm:"autoCreateTime;index" json:"date_scraped"`

	Skills []JobSkill `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type JobSkill struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	JobID uint   `gorm:"not null;uniqueIndex:idx_job_skill" json:"job_id"`
	Skill string `gorm:"size:100;not null;uniqueIndex:idx_job_skill" json:"skill"`
}

// SkillNames flattens the preloaded skill rows.
func (j *Job) SkillNames() []string {
	names := make([]string, 0, len(j.Skills))
	for _, s := range j.Skills {
		names = append(names, s.Skill)
	}
	return names
}
