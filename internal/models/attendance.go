package models

import "time"

// AttendanceStatus is the lifecycle state of one working day.
type AttendanceStatus string

const (
	AttendanceStatusWorking   AttendanceStatus = "working"
	AttendanceStatusBreak     AttendanceStatus = "break"
	AttendanceStatusCompleted AttendanceStatus = "completed"
)

// DateLayout is the ISO calendar date used for record keys and query params.
const DateLayout = "2006-01-02"

// AttendanceRecord is one user's check-in row for a date. (user_id, date) is unique.
type AttendanceRecord struct {
	ID         string           `db:"id" json:"id"`
	UserID     string           `db:"user_id" json:"user_id"`
	Username   string           `db:"username" json:"username"`
	TeamID     string           `db:"team_id" json:"team_id"`
	ChannelID  string           `db:"channel_id" json:"channel_id"`
	Date       string           `db:"date" json:"date"`
	CheckIn    *time.Time       `db:"check_in" json:"check_in,omitempty"`
	BreakStart *time.Time       `db:"break_start" json:"break_start,omitempty"`
	BreakEnd   *time.Time       `db:"break_end" json:"break_end,omitempty"`
	CheckOut   *time.Time       `db:"check_out" json:"check_out,omitempty"`
	Status     AttendanceStatus `db:"status" json:"status"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}
