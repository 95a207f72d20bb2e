package dto

import "github.com/oktel/attendance-report/internal/models"

// ExportRequest captures POST /attendance/report/exports.
type ExportRequest struct {
	From   string              `json:"from" validate:"required,datetime=2006-01-02"`
	To     string              `json:"to" validate:"required,datetime=2006-01-02"`
	TeamID string              `json:"team_id" validate:"omitempty,max=64"`
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// Query returns the report scope of the request.
func (r ExportRequest) Query() ReportQuery {
	return ReportQuery{From: r.From, To: r.To, TeamID: r.TeamID}
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
