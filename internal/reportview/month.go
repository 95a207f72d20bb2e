// Package reportview holds the pure view logic of the attendance console:
// month ranges, username filtering, sorting, pagination, badges and counters.
package reportview

import (
	"fmt"
	"regexp"
	"time"

	"github.com/oktel/attendance-report/internal/models"
)

// MonthLayout is the value format of the month picker.
const MonthLayout = "2006-01"

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidMonth reports whether value is a well-formed YYYY-MM month.
func ValidMonth(value string) bool {
	return monthPattern.MatchString(value)
}

// CurrentMonth renders now as YYYY-MM in UTC.
func CurrentMonth(now time.Time) string {
	return now.UTC().Format(MonthLayout)
}

// MonthRange returns the first and last calendar day of month as YYYY-MM-DD.
func MonthRange(month string) (from, to string, err error) {
	if !ValidMonth(month) {
		return "", "", fmt.Errorf("invalid month %q", month)
	}
	start, err := time.Parse(MonthLayout, month)
	if err != nil {
		return "", "", fmt.Errorf("invalid month %q: %w", month, err)
	}
	end := start.AddDate(0, 1, -1)
	return start.Format(models.DateLayout), end.Format(models.DateLayout), nil
}

// MonthFilter builds the report filter for month and an optional team.
// The all-teams sentinel and the empty id both mean no team filter.
func MonthFilter(month, teamID string) (models.ReportFilter, error) {
	from, to, err := MonthRange(month)
	if err != nil {
		return models.ReportFilter{}, err
	}
	if teamID == AllTeamsValue {
		teamID = ""
	}
	return models.ReportFilter{From: from, To: to, TeamID: teamID}, nil
}

// AllTeamsValue is the option value of the "All teams" entry.
const AllTeamsValue = "teams_filter_for_all_teams"
