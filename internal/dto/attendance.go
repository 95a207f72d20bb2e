package dto

import "github.com/oktel/attendance-report/internal/models"

// CheckInRequest starts the caller's working day in a channel.
type CheckInRequest struct {
	ChannelID string `json:"channel_id" validate:"required,max=64"`
	TeamID    string `json:"team_id" validate:"required,max=64"`
}

// CreateLeaveRequest submits a leave, late-arrival or early-departure request.
// ExpectedTime (HH:MM) is required for late arrivals and early departures.
type CreateLeaveRequest struct {
	ChannelID    string           `json:"channel_id" validate:"required,max=64"`
	TeamID       string           `json:"team_id" validate:"required,max=64"`
	Type         models.LeaveType `json:"type" validate:"required,oneof=leave emergency sick late_arrival early_departure"`
	Dates        []string         `json:"dates" validate:"required,min=1,max=31,dive,datetime=2006-01-02"`
	Reason       string           `json:"reason" validate:"required,max=500"`
	ExpectedTime string           `json:"expected_time" validate:"omitempty,datetime=15:04"`
}

// RejectLeaveRequest carries the optional rejection reason.
type RejectLeaveRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}
