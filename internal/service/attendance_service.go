package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/oktel/attendance-report/internal/dto"
	"github.com/oktel/attendance-report/internal/models"
	"github.com/oktel/attendance-report/internal/repository"
	appErrors "github.com/oktel/attendance-report/pkg/errors"
)

type attendanceRecordStore interface {
	GetByUserDate(ctx context.Context, userID, date string) (*models.AttendanceRecord, error)
	Create(ctx context.Context, rec *models.AttendanceRecord) error
	Transition(ctx context.Context, rec *models.AttendanceRecord, from models.AttendanceStatus) error
}

type leaveRequestStore interface {
	Create(ctx context.Context, req *models.LeaveRequest) error
	GetByID(ctx context.Context, id string) (*models.LeaveRequest, error)
	Decide(ctx context.Context, req *models.LeaveRequest) error
}

type reportCacheInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

// AttendanceServiceConfig sets the clock and the zone that decides "today".
type AttendanceServiceConfig struct {
	Location *time.Location
	Now      func() time.Time
}

// AttendanceService applies check-in, break and check-out events and the
// leave request lifecycle. Every applied write drops the cached reports.
type AttendanceService struct {
	records   attendanceRecordStore
	leaves    leaveRequestStore
	reports   reportCacheInvalidator
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       AttendanceServiceConfig
}

// NewAttendanceService constructs the service.
func NewAttendanceService(records attendanceRecordStore, leaves leaveRequestStore, reports reportCacheInvalidator, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, cfg AttendanceServiceConfig) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AttendanceService{
		records:   records,
		leaves:    leaves,
		reports:   reports,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

func (s *AttendanceService) now() time.Time {
	return s.cfg.Now().In(s.cfg.Location)
}

// CheckIn opens the caller's record for today.
func (s *AttendanceService) CheckIn(ctx context.Context, actor *models.JWTClaims, req dto.CheckInRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "channel_id and team_id are required")
	}
	now := s.now()
	date := now.Format(models.DateLayout)

	existing, err := s.today(ctx, actor.UserID, date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.metrics.RecordAttendanceEvent("check_in", false)
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("@%s already checked in at %s", actor.Username, clock(existing.CheckIn, s.cfg.Location)))
	}

	rec := &models.AttendanceRecord{
		UserID:    actor.UserID,
		Username:  actor.Username,
		TeamID:    req.TeamID,
		ChannelID: req.ChannelID,
		Date:      date,
		CheckIn:   &now,
		Status:    models.AttendanceStatusWorking,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, s.writeFailed("check_in", err)
	}
	s.applied(ctx, "check_in", zap.String("user_id", actor.UserID), zap.String("date", date))
	return rec, nil
}

// StartBreak moves a working record onto a break.
func (s *AttendanceService) StartBreak(ctx context.Context, actor *models.JWTClaims) (*models.AttendanceRecord, error) {
	rec, err := s.requireToday(ctx, actor, "break_start")
	if err != nil {
		return nil, err
	}
	switch rec.Status {
	case models.AttendanceStatusWorking:
	case models.AttendanceStatusBreak:
		s.metrics.RecordAttendanceEvent("break_start", false)
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("@%s is already on break", actor.Username))
	default:
		s.metrics.RecordAttendanceEvent("break_start", false)
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("@%s is not working (status: %s)", actor.Username, rec.Status))
	}

	now := s.now()
	rec.BreakStart = &now
	rec.BreakEnd = nil
	rec.Status = models.AttendanceStatusBreak
	if err := s.records.Transition(ctx, rec, models.AttendanceStatusWorking); err != nil {
		return nil, s.writeFailed("break_start", err)
	}
	s.applied(ctx, "break_start", zap.String("user_id", actor.UserID))
	return rec, nil
}

// EndBreak returns a record on break to working.
func (s *AttendanceService) EndBreak(ctx context.Context, actor *models.JWTClaims) (*models.AttendanceRecord, error) {
	rec, err := s.requireToday(ctx, actor, "break_end")
	if err != nil {
		return nil, err
	}
	if rec.Status != models.AttendanceStatusBreak {
		s.metrics.RecordAttendanceEvent("break_end", false)
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("@%s is not on break", actor.Username))
	}

	now := s.now()
	rec.BreakEnd = &now
	rec.Status = models.AttendanceStatusWorking
	if err := s.records.Transition(ctx, rec, models.AttendanceStatusBreak); err != nil {
		return nil, s.writeFailed("break_end", err)
	}
	s.applied(ctx, "break_end", zap.String("user_id", actor.UserID))
	return rec, nil
}

// CheckOut completes today's record. An open break ends at check-out.
func (s *AttendanceService) CheckOut(ctx context.Context, actor *models.JWTClaims) (*models.AttendanceRecord, error) {
	rec, err := s.requireToday(ctx, actor, "check_out")
	if err != nil {
		return nil, err
	}
	if rec.CheckOut != nil || rec.Status == models.AttendanceStatusCompleted {
		s.metrics.RecordAttendanceEvent("check_out", false)
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("@%s already checked out at %s", actor.Username, clock(rec.CheckOut, s.cfg.Location)))
	}

	now := s.now()
	from := rec.Status
	if from == models.AttendanceStatusBreak && rec.BreakEnd == nil {
		rec.BreakEnd = &now
	}
	rec.CheckOut = &now
	rec.Status = models.AttendanceStatusCompleted
	if err := s.records.Transition(ctx, rec, from); err != nil {
		return nil, s.writeFailed("check_out", err)
	}
	s.applied(ctx, "check_out", zap.String("user_id", actor.UserID))
	return rec, nil
}

// CreateLeaveRequest files a pending request for the caller. Dates must be
// today or later; late-arrival and early-departure requests cover one date and
// carry the expected time.
func (s *AttendanceService) CreateLeaveRequest(ctx context.Context, actor *models.JWTClaims, req dto.CreateLeaveRequest) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave request")
	}
	today := s.now().Format(models.DateLayout)
	dates := make([]string, 0, len(req.Dates))
	seen := make(map[string]struct{}, len(req.Dates))
	for _, d := range req.Dates {
		if d < today {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("date %s is in the past", d))
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var expected *string
	if !req.Type.CountsAsAbsence() {
		if len(dates) != 1 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "late arrival and early departure requests cover exactly one date")
		}
		if req.ExpectedTime == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "expected_time is required for late arrival and early departure")
		}
		expected = &req.ExpectedTime
	}

	leave := &models.LeaveRequest{
		UserID:       actor.UserID,
		Username:     actor.Username,
		TeamID:       req.TeamID,
		ChannelID:    req.ChannelID,
		Type:         req.Type,
		Dates:        dates,
		Reason:       req.Reason,
		ExpectedTime: expected,
		Status:       models.LeaveStatusPending,
	}
	if err := s.leaves.Create(ctx, leave); err != nil {
		return nil, s.writeFailed("leave_request", err)
	}
	s.applied(ctx, "leave_request", zap.String("user_id", actor.UserID), zap.String("type", string(leave.Type)))
	return leave, nil
}

// ApproveLeave approves a pending request made by someone else.
func (s *AttendanceService) ApproveLeave(ctx context.Context, actor *models.JWTClaims, id string) (*models.LeaveRequest, error) {
	return s.decide(ctx, actor, id, models.LeaveStatusApproved, "")
}

// RejectLeave rejects a pending request made by someone else.
func (s *AttendanceService) RejectLeave(ctx context.Context, actor *models.JWTClaims, id string, req dto.RejectLeaveRequest) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "reason is too long")
	}
	return s.decide(ctx, actor, id, models.LeaveStatusRejected, req.Reason)
}

func (s *AttendanceService) decide(ctx context.Context, actor *models.JWTClaims, id string, status models.LeaveStatus, reason string) (*models.LeaveRequest, error) {
	event := "leave_" + string(status)
	leave, err := s.leaves.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave request not found")
		}
		return nil, appErrors.Internal(err, "failed to load leave request")
	}
	if leave.Status != models.LeaveStatusPending {
		s.metrics.RecordAttendanceEvent(event, false)
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("request already %s", leave.Status))
	}
	if leave.UserID == actor.UserID {
		s.metrics.RecordAttendanceEvent(event, false)
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot decide your own request")
	}

	now := s.now()
	approverID, approverName := actor.UserID, actor.Username
	leave.Status = status
	leave.ApproverID = &approverID
	leave.ApproverUsername = &approverName
	leave.ApprovedAt = &now
	if reason != "" {
		leave.RejectReason = &reason
	}
	if err := s.leaves.Decide(ctx, leave); err != nil {
		return nil, s.writeFailed(event, err)
	}
	s.applied(ctx, event, zap.String("request_id", id), zap.String("approver_id", actor.UserID))
	return leave, nil
}

func (s *AttendanceService) today(ctx context.Context, userID, date string) (*models.AttendanceRecord, error) {
	rec, err := s.records.GetByUserDate(ctx, userID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Internal(err, "failed to load attendance record")
	}
	return rec, nil
}

func (s *AttendanceService) requireToday(ctx context.Context, actor *models.JWTClaims, event string) (*models.AttendanceRecord, error) {
	rec, err := s.today(ctx, actor.UserID, s.now().Format(models.DateLayout))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		s.metrics.RecordAttendanceEvent(event, false)
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("@%s has not checked in today", actor.Username))
	}
	return rec, nil
}

func (s *AttendanceService) writeFailed(event string, err error) error {
	if errors.Is(err, repository.ErrStateConflict) {
		s.metrics.RecordAttendanceEvent(event, false)
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "state changed by another request, reload and retry")
	}
	s.logger.Error("attendance write failed", zap.String("event", event), zap.Error(err))
	return appErrors.Internal(err, "failed to save attendance change")
}

// applied counts the event and drops cached reports so the next read sees it.
// A failed invalidation only delays freshness until the cache TTL.
func (s *AttendanceService) applied(ctx context.Context, event string, fields ...zap.Field) {
	s.metrics.RecordAttendanceEvent(event, true)
	s.logger.Info("attendance event applied", append(fields, zap.String("event", event))...)
	if s.reports == nil {
		return
	}
	if err := s.reports.InvalidateCache(ctx); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.String("event", event), zap.Error(err))
	}
}

func clock(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return t.In(loc).Format("15:04:05")
}
