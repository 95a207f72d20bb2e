package dto

import "github.com/oktel/attendance-report/internal/models"

// ReportQuery binds the query string of the stats and report endpoints.
type ReportQuery struct {
	From   string `form:"from" validate:"required,datetime=2006-01-02"`
	To     string `form:"to" validate:"required,datetime=2006-01-02"`
	TeamID string `form:"team_id" validate:"omitempty,max=64"`
}

// Filter converts the query into a repository filter.
func (q ReportQuery) Filter() models.ReportFilter {
	return models.ReportFilter{From: q.From, To: q.To, TeamID: q.TeamID}
}
