package models

// ReportFilter scopes the stats and report aggregation.
type ReportFilter struct {
	From   string
	To     string
	TeamID string
}

// AttendanceStats is the aggregate snapshot for a date range.
type AttendanceStats struct {
	From                 string `json:"from"`
	To                   string `json:"to"`
	TotalCheckedIn       int    `json:"total_checked_in"`
	TotalWorking         int    `json:"total_working"`
	TotalOnBreak         int    `json:"total_on_break"`
	TotalCheckedOut      int    `json:"total_checked_out"`
	TotalOnLeave         int    `json:"total_on_leave"`
	TotalLateArrivals    int    `json:"total_late_arrivals"`
	TotalEarlyDepartures int    `json:"total_early_departures"`
	PendingRequests      int    `json:"pending_requests"`
}

// AttendanceReport holds per-user detail for a date range.
type AttendanceReport struct {
	From  string       `json:"from"`
	To    string       `json:"to"`
	Users []UserReport `json:"users"`
}

// UserReport is one user's summary plus their attendance and requests.
type UserReport struct {
	UserID          string            `json:"user_id"`
	Username        string            `json:"username"`
	DaysWorked      int               `json:"days_worked"`
	DaysLeave       int               `json:"days_leave"`
	LateArrivals    int               `json:"late_arrivals"`
	EarlyDepartures int               `json:"early_departures"`
	Attendance      []AttendanceEntry `json:"attendance"`
	LeaveRequests   []LeaveEntry      `json:"leave_requests"`
}

// AttendanceEntry is one dated row of a user's attendance. Date is unique per user.
type AttendanceEntry struct {
	Date     string  `json:"date"`
	CheckIn  string  `json:"check_in"`
	CheckOut *string `json:"check_out,omitempty"`
	Status   string  `json:"status"`
}

// LeaveEntry is one request as shown in the user detail view.
type LeaveEntry struct {
	Type         string   `json:"type"`
	Dates        []string `json:"dates"`
	Reason       string   `json:"reason"`
	ExpectedTime *string  `json:"expected_time,omitempty"`
	Status       string   `json:"status"`
}
