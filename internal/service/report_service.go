package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oktel/attendance-report/internal/dto"
	"github.com/oktel/attendance-report/internal/models"
	appErrors "github.com/oktel/attendance-report/pkg/errors"
)

type attendanceStore interface {
	ListByRange(ctx context.Context, filter models.ReportFilter) ([]models.AttendanceRecord, error)
}

type leaveStore interface {
	ListOverlapping(ctx context.Context, filter models.ReportFilter) ([]models.LeaveRequest, error)
}

// ReportServiceConfig tunes aggregation and caching.
type ReportServiceConfig struct {
	CacheTTL     time.Duration
	Location     *time.Location
	MaxRangeDays int
}

// ReportService answers the stats and report queries of the attendance console.
type ReportService struct {
	attendance attendanceStore
	leaves     leaveStore
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        ReportServiceConfig
}

// NewReportService constructs the report service.
func NewReportService(attendance attendanceStore, leaves leaveStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = 366
	}
	return &ReportService{
		attendance: attendance,
		leaves:     leaves,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// ValidateQuery checks the date range and returns the repository filter.
func (s *ReportService) ValidateQuery(q dto.ReportQuery) (models.ReportFilter, error) {
	if err := s.validator.Struct(q); err != nil {
		return models.ReportFilter{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "from and to must be YYYY-MM-DD dates")
	}
	from, _ := time.Parse(models.DateLayout, q.From)
	to, _ := time.Parse(models.DateLayout, q.To)
	if to.Before(from) {
		return models.ReportFilter{}, appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > s.cfg.MaxRangeDays {
		return models.ReportFilter{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("date range exceeds %d days", s.cfg.MaxRangeDays))
	}
	return q.Filter(), nil
}

// Stats returns the aggregate counters for the range. The boolean reports a cache hit.
func (s *ReportService) Stats(ctx context.Context, q dto.ReportQuery) (*models.AttendanceStats, bool, error) {
	filter, err := s.ValidateQuery(q)
	if err != nil {
		return nil, false, err
	}
	key := cacheKey("stats", filter)
	var cached models.AttendanceStats
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	records, leaves, err := s.load(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	stats := BuildStats(filter, records, leaves)
	s.cache.Set(ctx, key, stats, s.cfg.CacheTTL)
	return &stats, false, nil
}

// Report returns the per-user report for the range. The boolean reports a cache hit.
func (s *ReportService) Report(ctx context.Context, q dto.ReportQuery) (*models.AttendanceReport, bool, error) {
	filter, err := s.ValidateQuery(q)
	if err != nil {
		return nil, false, err
	}
	key := cacheKey("report", filter)
	var cached models.AttendanceReport
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	records, leaves, err := s.load(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	report := BuildReport(filter, records, leaves, s.cfg.Location)
	s.cache.Set(ctx, key, report, s.cfg.CacheTTL)
	return &report, false, nil
}

// InvalidateCache drops every cached stats and report document.
func (s *ReportService) InvalidateCache(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx, "*"); err != nil {
		return appErrors.Internal(err, "failed to invalidate report cache")
	}
	return nil
}

func (s *ReportService) load(ctx context.Context, filter models.ReportFilter) ([]models.AttendanceRecord, []models.LeaveRequest, error) {
	var (
		records []models.AttendanceRecord
		leaves  []models.LeaveRequest
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.attendance.ListByRange(gCtx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		leaves, err = s.leaves.ListOverlapping(gCtx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("load attendance range", zap.String("from", filter.From), zap.String("to", filter.To), zap.Error(err))
		return nil, nil, appErrors.Internal(err, "failed to load attendance data")
	}
	return records, leaves, nil
}

func cacheKey(kind string, filter models.ReportFilter) string {
	team := filter.TeamID
	if team == "" {
		team = "all"
	}
	return fmt.Sprintf("%s:%s:%s:%s", kind, filter.From, filter.To, team)
}
