package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oktel/attendance-report/internal/dto"
	"github.com/oktel/attendance-report/internal/models"
	appErrors "github.com/oktel/attendance-report/pkg/errors"
	"github.com/oktel/attendance-report/pkg/response"
)

type attendanceRecorder interface {
	CheckIn(ctx context.Context, actor *models.JWTClaims, req dto.CheckInRequest) (*models.AttendanceRecord, error)
	StartBreak(ctx context.Context, actor *models.JWTClaims) (*models.AttendanceRecord, error)
	EndBreak(ctx context.Context, actor *models.JWTClaims) (*models.AttendanceRecord, error)
	CheckOut(ctx context.Context, actor *models.JWTClaims) (*models.AttendanceRecord, error)
	CreateLeaveRequest(ctx context.Context, actor *models.JWTClaims, req dto.CreateLeaveRequest) (*models.LeaveRequest, error)
	ApproveLeave(ctx context.Context, actor *models.JWTClaims, id string) (*models.LeaveRequest, error)
	RejectLeave(ctx context.Context, actor *models.JWTClaims, id string, req dto.RejectLeaveRequest) (*models.LeaveRequest, error)
}

// AttendanceEventHandler records the caller's working day and leave requests.
type AttendanceEventHandler struct {
	service attendanceRecorder
}

// NewAttendanceEventHandler constructs the handler.
func NewAttendanceEventHandler(svc attendanceRecorder) *AttendanceEventHandler {
	return &AttendanceEventHandler{service: svc}
}

// CheckIn godoc
// @Summary Check in for today
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CheckInRequest true "Channel and team"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bot-service/attendance/check-in [post]
func (h *AttendanceEventHandler) CheckIn(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid check-in payload"))
		return
	}
	rec, err := h.service.CheckIn(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rec)
}

// StartBreak godoc
// @Summary Start a break
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bot-service/attendance/break/start [post]
func (h *AttendanceEventHandler) StartBreak(c *gin.Context) {
	h.transition(c, h.service.StartBreak)
}

// EndBreak godoc
// @Summary End the current break
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bot-service/attendance/break/end [post]
func (h *AttendanceEventHandler) EndBreak(c *gin.Context) {
	h.transition(c, h.service.EndBreak)
}

// CheckOut godoc
// @Summary Check out for today
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bot-service/attendance/check-out [post]
func (h *AttendanceEventHandler) CheckOut(c *gin.Context) {
	h.transition(c, h.service.CheckOut)
}

func (h *AttendanceEventHandler) transition(c *gin.Context, apply func(context.Context, *models.JWTClaims) (*models.AttendanceRecord, error)) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	rec, err := apply(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rec)
}

// CreateLeave godoc
// @Summary Submit a leave request
// @Tags Leave
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateLeaveRequest true "Leave request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /bot-service/attendance/leave-requests [post]
func (h *AttendanceEventHandler) CreateLeave(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid leave request payload"))
		return
	}
	leave, err := h.service.CreateLeaveRequest(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave)
}

// ApproveLeave godoc
// @Summary Approve a pending leave request
// @Tags Leave
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bot-service/attendance/leave-requests/{id}/approve [post]
func (h *AttendanceEventHandler) ApproveLeave(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	leave, err := h.service.ApproveLeave(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave)
}

// RejectLeave godoc
// @Summary Reject a pending leave request
// @Tags Leave
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param payload body dto.RejectLeaveRequest false "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bot-service/attendance/leave-requests/{id}/reject [post]
func (h *AttendanceEventHandler) RejectLeave(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RejectLeaveRequest
	// the body is optional
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid reject payload"))
		return
	}
	leave, err := h.service.RejectLeave(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave)
}
