package model

import (
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Job is a posting scraped from an external board. ID is the dedup key, so
// repeated ingestion of the same posting updates the row.
type Job struct {
	ID              string                      `gorm:"type:text;primaryKey" json:"id"`
	Source          string                      `gorm:"type:text" json:"source"`
	SourceID        *string                     `gorm:"type:text" json:"source_id"`
	Company         string                      `gorm:"type:citext;index:jobs_company_idx" json:"company"`
	Title           string                      `gorm:"type:text" json:"title"`
	Locations       datatypes.JSONSlice[string] `gorm:"type:jsonb;default:'[]'" json:"locations"`
	Remote          *bool                       `json:"remote"`
	PostedAt        *time.Time                  `gorm:"type:timestamptz;index:jobs_posted_at_idx" json:"posted_at"`
	URL             *string                     `gorm:"type:text" json:"url"`
	DescriptionHTML string                      `gorm:"type:text" json:"description_html"`
	DescriptionText string                      `gorm:"type:text" json:"description_text"`
	Tags            pq.StringArray              `gorm:"type:text[];default:'{}'" json:"tags"`
	Compensation    datatypes.JSON              `gorm:"type:jsonb" json:"compensation"`
	IsActive        bool                        `gorm:"not null;default:true" json:"is_active"`
	InsertedAt      time.Time                   `gorm:"type:timestamptz;not null;default:now()" json:"inserted_at"`
	UpdatedAt       time.Time                   `gorm:"type:timestamptz;not null;default:now()" json:"updated_at"`
}

func (j *Job) TableName() string {
	return "jobs"
}

// PrimaryLocation is the first listed location, or "" when there is none.
func (j *Job) PrimaryLocation() string {
	if len(j.Locations) == 0 {
		return ""
	}
	return j.Locations[0]
}

// TextToEmbed is the text the backfill embeds for a job:
// "<title> at <company> in <loc1, loc2>" with "Remote" when no location is listed.
func (j *Job) TextToEmbed() string {
	locs := "Remote"
	if len(j.Locations) > 0 {
		locs = strings.Join(j.Locations, ", ")
	}
	return j.Title + " at " + j.Company + " in " + locs
}
