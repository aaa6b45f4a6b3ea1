package repository

import (
	"context"
	"fmt"

	"github.com/fadilmartias/jobseek/internal/model"
	"gorm.io/gorm"
)

// IVFFlatLists is the list count of the cosine ivfflat index.
const IVFFlatLists = 100

// Migrate creates the extensions, tables and indexes the search relies on.
// job_embeddings is created by hand because its vector dimension comes from
// configuration. An existing table with another dimension is a fatal error:
// switching models needs the table dropped and a full re-embed.
func Migrate(ctx context.Context, db *gorm.DB, dimension int) error {
	db = db.WithContext(ctx)
	for _, ext := range []string{"vector", "citext"} {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS " + ext).Error; err != nil {
			return fmt.Errorf("create extension %s: %w", ext, err)
		}
	}
	if err := db.AutoMigrate(&model.Job{}); err != nil {
		return fmt.Errorf("migrate jobs: %w", err)
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS job_embeddings (
	job_id       text PRIMARY KEY REFERENCES jobs(id) ON DELETE CASCADE,
	model_name   text NOT NULL,
	embedding    vector(%d) NOT NULL,
	content_hash text NOT NULL DEFAULT '',
	embedded_at  timestamptz NOT NULL DEFAULT now()
)`, dimension),
		`ALTER TABLE job_embeddings ADD COLUMN IF NOT EXISTS content_hash text NOT NULL DEFAULT ''`,
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS job_embeddings_ivfflat_cos
	ON job_embeddings USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d)`, IVFFlatLists),
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate job_embeddings: %w", err)
		}
	}

	// pgvector stores the declared dimension in atttypmod.
	var stored int
	err := db.Raw(`SELECT atttypmod FROM pg_attribute
		WHERE attrelid = 'job_embeddings'::regclass AND attname = 'embedding'`).Scan(&stored).Error
	if err != nil {
		return fmt.Errorf("read embedding dimension: %w", err)
	}
	if stored != dimension {
		return fmt.Errorf("%w: job_embeddings.embedding is vector(%d), configured %d", model.ErrDimensionMismatch, stored, dimension)
	}
	return nil
}
