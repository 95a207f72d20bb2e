package reportview

import "github.com/oktel/attendance-report/internal/models"

// StatCard is one counter tile. TitleID is a message id for the translator.
type StatCard struct {
	TitleID string
	Icon    string
	Count   int
	Warning bool
}

// SummaryCards are the dashboard counters shown above the user table.
func SummaryCards(stats *models.AttendanceStats) []StatCard {
	if stats == nil {
		return nil
	}
	return []StatCard{
		{TitleID: "analytics.attendance.checkedIn", Icon: "fa-check", Count: stats.TotalCheckedIn},
		{TitleID: "analytics.attendance.onLeave", Icon: "fa-calendar-times-o", Count: stats.TotalOnLeave},
		{TitleID: "analytics.attendance.lateArrivals", Icon: "fa-clock-o", Count: stats.TotalLateArrivals, Warning: stats.TotalLateArrivals > 0},
		{TitleID: "analytics.attendance.earlyDepartures", Icon: "fa-sign-out", Count: stats.TotalEarlyDepartures},
		{TitleID: "analytics.attendance.pendingRequests", Icon: "fa-hourglass-half", Count: stats.PendingRequests, Warning: stats.PendingRequests > 0},
	}
}

// DetailCards are the four counters of a user's detail panel.
func DetailCards(user models.UserReport) []StatCard {
	return []StatCard{
		{TitleID: "analytics.attendance.daysWorked", Icon: "fa-briefcase", Count: user.DaysWorked},
		{TitleID: "analytics.attendance.daysLeave", Icon: "fa-calendar-times-o", Count: user.DaysLeave},
		{TitleID: "analytics.attendance.lateArrivals", Icon: "fa-clock-o", Count: user.LateArrivals, Warning: user.LateArrivals > 0},
		{TitleID: "analytics.attendance.earlyDepartures", Icon: "fa-sign-out", Count: user.EarlyDepartures},
	}
}
