package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oktel/attendance-report/internal/models"
)

// FileRepository persists upload metadata.
type FileRepository struct {
	db *sqlx.DB
}

// NewFileRepository constructs the repository.
func NewFileRepository(db *sqlx.DB) *FileRepository {
	return &FileRepository{db: db}
}

// Create inserts the metadata row, assigning id and timestamps when empty.
func (r *FileRepository) Create(ctx context.Context, info *models.FileInfo) error {
	if info.ID == "" {
		info.ID = uuid.NewString()
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now().UTC()
	}
	info.CreateAt = info.CreatedAt.UnixMilli()
	const query = `INSERT INTO file_infos (id, channel_id, name, extension, mime_type, size, path, created_by, created_at)
VALUES (:id, :channel_id, :name, :extension, :mime_type, :size, :path, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, info); err != nil {
		return fmt.Errorf("create file info: %w", err)
	}
	return nil
}

// GetByID loads file metadata.
func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.FileInfo, error) {
	const query = `SELECT id, channel_id, name, extension, mime_type, size, path, created_by, created_at
FROM file_infos WHERE id = $1`
	var info models.FileInfo
	if err := r.db.GetContext(ctx, &info, query, id); err != nil {
		return nil, fmt.Errorf("get file info: %w", err)
	}
	info.CreateAt = info.CreatedAt.UnixMilli()
	return &info, nil
}
