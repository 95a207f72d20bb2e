package models

import (
	"time"

	"github.com/lib/pq"
)

// LeaveType enumerates request kinds.
type LeaveType string

const (
	LeaveTypeLeave          LeaveType = "leave"
	LeaveTypeEmergency      LeaveType = "emergency"
	LeaveTypeSick           LeaveType = "sick"
	LeaveTypeLateArrival    LeaveType = "late_arrival"
	LeaveTypeEarlyDeparture LeaveType = "early_departure"
)

// CountsAsAbsence reports whether approved days of this type count as leave days.
func (t LeaveType) CountsAsAbsence() bool {
	switch t {
	case LeaveTypeLeave, LeaveTypeEmergency, LeaveTypeSick:
		return true
	default:
		return false
	}
}

// LeaveStatus is the approval state of a request.
type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "pending"
	LeaveStatusApproved LeaveStatus = "approved"
	LeaveStatusRejected LeaveStatus = "rejected"
)

// LeaveRequest is a leave, late-arrival or early-departure request. Dates
// holds YYYY-MM-DD values; ExpectedTime is HH:MM for late/early requests.
type LeaveRequest struct {
	ID               string         `db:"id" json:"id"`
	UserID           string         `db:"user_id" json:"user_id"`
	Username         string         `db:"username" json:"username"`
	TeamID           string         `db:"team_id" json:"team_id"`
	ChannelID        string         `db:"channel_id" json:"channel_id"`
	Type             LeaveType      `db:"type" json:"type"`
	Dates            pq.StringArray `db:"dates" json:"dates"`
	Reason           string         `db:"reason" json:"reason"`
	ExpectedTime     *string        `db:"expected_time" json:"expected_time,omitempty"`
	Status           LeaveStatus    `db:"status" json:"status"`
	ApproverID       *string        `db:"approver_id" json:"approver_id,omitempty"`
	ApproverUsername *string        `db:"approver_username" json:"approver_username,omitempty"`
	ApprovedAt       *time.Time     `db:"approved_at" json:"approved_at,omitempty"`
	RejectReason     *string        `db:"reject_reason" json:"reject_reason,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// DatesWithin returns the request dates falling inside [from, to].
// Dates compare lexically because they are zero-padded ISO dates.
func (l LeaveRequest) DatesWithin(from, to string) []string {
	out := make([]string, 0, len(l.Dates))
	for _, d := range l.Dates {
		if d >= from && d <= to {
			out = append(out, d)
		}
	}
	return out
}
