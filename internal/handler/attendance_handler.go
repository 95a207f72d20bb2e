package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oktel/attendance-report/internal/dto"
	"github.com/oktel/attendance-report/internal/middleware"
	"github.com/oktel/attendance-report/internal/models"
	appErrors "github.com/oktel/attendance-report/pkg/errors"
	"github.com/oktel/attendance-report/pkg/response"
)

type attendanceReporter interface {
	Stats(ctx context.Context, q dto.ReportQuery) (*models.AttendanceStats, bool, error)
	Report(ctx context.Context, q dto.ReportQuery) (*models.AttendanceReport, bool, error)
	InvalidateCache(ctx context.Context) error
}

// AttendanceHandler serves the aggregate stats and per-user report.
type AttendanceHandler struct {
	service attendanceReporter
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(svc attendanceReporter) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Stats godoc
// @Summary Aggregate attendance counters for a date range
// @Tags Attendance
// @Produce json
// @Param from query string true "First day (YYYY-MM-DD)"
// @Param to query string true "Last day (YYYY-MM-DD)"
// @Param team_id query string false "Team filter"
// @Success 200 {object} models.AttendanceStats
// @Failure 400 {object} response.Envelope
// @Router /attendance/stats [get]
func (h *AttendanceHandler) Stats(c *gin.Context) {
	q, ok := bindReportQuery(c)
	if !ok {
		return
	}
	stats, hit, err := h.service.Stats(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.Raw(c, http.StatusOK, stats)
}

// Report godoc
// @Summary Per-user attendance report for a date range
// @Tags Attendance
// @Produce json
// @Param from query string true "First day (YYYY-MM-DD)"
// @Param to query string true "Last day (YYYY-MM-DD)"
// @Param team_id query string false "Team filter"
// @Success 200 {object} models.AttendanceReport
// @Failure 400 {object} response.Envelope
// @Router /attendance/report [get]
func (h *AttendanceHandler) Report(c *gin.Context) {
	q, ok := bindReportQuery(c)
	if !ok {
		return
	}
	report, hit, err := h.service.Report(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.Raw(c, http.StatusOK, report)
}

// InvalidateCache godoc
// @Summary Drop cached stats and reports
// @Tags Attendance
// @Security BearerAuth
// @Success 204
// @Router /bot-service/attendance/cache [delete]
func (h *AttendanceHandler) InvalidateCache(c *gin.Context) {
	if err := h.service.InvalidateCache(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func bindReportQuery(c *gin.Context) (dto.ReportQuery, bool) {
	var q dto.ReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return q, false
	}
	return q, true
}
