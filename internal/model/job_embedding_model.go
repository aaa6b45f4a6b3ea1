package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// JobEmbedding holds the single current vector of a job. JobID is the primary
// key, so a re-embed replaces the row instead of versioning it.
type JobEmbedding struct {
	JobID       string          `gorm:"type:text;primaryKey" json:"job_id"`
	ModelName   string          `gorm:"type:text;not null" json:"model_name"`
	Embedding   pgvector.Vector `gorm:"type:vector;not null" json:"-"`
	ContentHash string          `gorm:"type:text;not null;default:''" json:"content_hash"`
	EmbeddedAt  time.Time       `gorm:"type:timestamptz;not null;default:now()" json:"embedded_at"`

	Job *Job `gorm:"foreignKey:JobID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (e *JobEmbedding) TableName() string {
	return "job_embeddings"
}

// PendingEmbedding is a job whose embedding is absent or stale, together with
// the text that should be embedded for it.
type PendingEmbedding struct {
	JobID       string
	TextToEmbed string
}
