package dto

import (
	"encoding/json"
	"time"

	"github.com/fadilmartias/jobseek/internal/model"
	"github.com/fadilmartias/jobseek/internal/util"
	"gorm.io/datatypes"
)

// JobInput is a posting as produced by a board fetcher, before it becomes a row.
type JobInput struct {
	ID              string
	Source          string
	SourceID        string
	Company         string
	Title           string
	Locations       []string
	Remote          *bool
	PostedAt        *time.Time
	URL             string
	DescriptionHTML string
	DescriptionText string
	Tags            []string
	Compensation    json.RawMessage
}

// ToModel normalizes the posting. The id falls back to the dedup key and the
// plain-text description is derived from the HTML when absent.
func (in JobInput) ToModel() model.Job {
	var primary string
	if len(in.Locations) > 0 {
		primary = in.Locations[0]
	}
	id := in.ID
	if id == "" {
		id = util.DedupeKey(in.Company, in.Title, primary, in.URL)
	}
	text := in.DescriptionText
	if text == "" {
		text = util.StripHTML(in.DescriptionHTML)
	}
	job := model.Job{
		ID:              id,
		Source:          in.Source,
		Company:         in.Company,
		Title:           in.Title,
		Locations:       datatypes.JSONSlice[string](nonNil(in.Locations)),
		Remote:          in.Remote,
		PostedAt:        in.PostedAt,
		DescriptionHTML: in.DescriptionHTML,
		DescriptionText: text,
		Tags:            nonNil(in.Tags),
		IsActive:        true,
	}
	if in.SourceID != "" {
		sid := in.SourceID
		job.SourceID = &sid
	}
	if in.URL != "" {
		u := in.URL
		job.URL = &u
	}
	if len(in.Compensation) > 0 && string(in.Compensation) != "null" {
		job.Compensation = datatypes.JSON(in.Compensation)
	}
	return job
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type JobDetailDTO struct {
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	SourceID        *string         `json:"source_id"`
	Company         string          `json:"company"`
	Title           string          `json:"title"`
	Locations       []string        `json:"locations"`
	Remote          *bool           `json:"remote"`
	PostedAt        *time.Time      `json:"posted_at"`
	URL             *string         `json:"url"`
	DescriptionText string          `json:"description_text"`
	Tags            []string        `json:"tags"`
	Compensation    json.RawMessage `json:"compensation,omitempty"`
	IsActive        bool            `json:"is_active"`
	InsertedAt      time.Time       `json:"inserted_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func NewJobDetailDTO(j *model.Job) JobDetailDTO {
	out := JobDetailDTO{
		ID:              j.ID,
		Source:          j.Source,
		SourceID:        j.SourceID,
		Company:         j.Company,
		Title:           j.Title,
		Locations:       nonNil([]string(j.Locations)),
		Remote:          j.Remote,
		PostedAt:        j.PostedAt,
		URL:             j.URL,
		DescriptionText: j.DescriptionText,
		Tags:            nonNil([]string(j.Tags)),
		IsActive:        j.IsActive,
		InsertedAt:      j.InsertedAt,
		UpdatedAt:       j.UpdatedAt,
	}
	if len(j.Compensation) > 0 {
		out.Compensation = json.RawMessage(j.Compensation)
	}
	return out
}
