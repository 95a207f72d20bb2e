package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oktel/attendance-report/internal/dto"
	"github.com/oktel/attendance-report/internal/models"
	appErrors "github.com/oktel/attendance-report/pkg/errors"
	"github.com/oktel/attendance-report/pkg/storage"
)

type fileInfoStore interface {
	Create(ctx context.Context, info *models.FileInfo) error
	GetByID(ctx context.Context, id string) (*models.FileInfo, error)
}

type uploadStorage interface {
	SaveStream(name string, r io.Reader, limit int64) (int64, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

// FileUpload carries one multipart file part.
type FileUpload struct {
	Filename string
	Size     int64
	MimeType string
	Content  io.ReadSeeker
}

// FileDownload bundles an open stored file with its metadata.
type FileDownload struct {
	File *os.File
	Info *models.FileInfo
}

// FileServiceConfig holds upload limits.
type FileServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
}

// FileService stores uploaded attachments and their metadata.
type FileService struct {
	repo      fileInfoStore
	storage   uploadStorage
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       FileServiceConfig
	mimeSet   map[string]struct{}
}

// NewFileService constructs the service with defaults.
func NewFileService(repo fileInfoStore, store uploadStorage, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, cfg FileServiceConfig) *FileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/png", "image/jpeg", "image/gif", "image/webp", "application/pdf"}
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(mt)] = struct{}{}
	}
	return &FileService{
		repo:      repo,
		storage:   store,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		mimeSet:   mimeSet,
	}
}

// Upload validates and stores one file for a channel.
func (s *FileService) Upload(ctx context.Context, req dto.UploadFileRequest, upload FileUpload, actor *models.JWTClaims) (*models.FileInfo, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "channel_id is required")
	}
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	mimeType, err := detectMime(upload)
	if err != nil {
		return nil, err
	}
	if _, allowed := s.mimeSet[mimeType]; !allowed {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("mime type %s not allowed", mimeType))
	}

	name := filepath.Base(upload.Filename)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	id := uuid.NewString()
	rel := path.Join(sanitizeSegment(req.ChannelID), id)
	if ext != "" {
		rel += "." + ext
	}

	size, err := s.storage.SaveStream(rel, upload.Content, s.cfg.MaxFileSize)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
		}
		return nil, appErrors.Internal(err, "failed to persist file")
	}

	info := &models.FileInfo{
		ID:        id,
		ChannelID: req.ChannelID,
		Name:      name,
		Extension: ext,
		MimeType:  mimeType,
		Size:      size,
		Path:      rel,
		CreatedBy: actor.UserID,
	}
	if err := s.repo.Create(ctx, info); err != nil {
		if delErr := s.storage.Delete(rel); delErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("path", rel), zap.Error(delErr))
		}
		return nil, appErrors.Internal(err, "failed to save file metadata")
	}
	s.metrics.ObserveUpload(size)
	s.logger.Info("file uploaded",
		zap.String("file_id", info.ID),
		zap.String("channel_id", info.ChannelID),
		zap.String("mime_type", mimeType),
		zap.Int64("size", size),
	)
	return info, nil
}

// Open resolves a stored file by id.
func (s *FileService) Open(ctx context.Context, id string) (*FileDownload, error) {
	info, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load file metadata")
	}
	file, err := s.storage.Open(info.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to open stored file")
	}
	return &FileDownload{File: file, Info: info}, nil
}

// detectMime sniffs the leading bytes and falls back to the declared type
// when sniffing is inconclusive. Parameters such as charset are dropped.
func detectMime(upload FileUpload) (string, error) {
	header := make([]byte, 512)
	n, err := upload.Content.Read(header)
	if err != nil && err != io.EOF {
		return "", appErrors.Internal(err, "failed to inspect file")
	}
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return "", appErrors.Internal(err, "failed to reset upload stream")
	}
	if n == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "empty file")
	}
	detected := http.DetectContentType(header[:n])
	if detected == "application/octet-stream" && upload.MimeType != "" {
		detected = upload.MimeType
	}
	mediaType, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return strings.ToLower(detected), nil
	}
	return strings.ToLower(mediaType), nil
}

func sanitizeSegment(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
