package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oktel/attendance-report/internal/models"
)

const leaveColumns = `lr.id, lr.user_id, lr.username, lr.team_id, lr.channel_id, lr.type, lr.dates,
        lr.reason, lr.expected_time, lr.status, lr.approver_id, lr.approver_username, lr.approved_at,
        lr.reject_reason, lr.created_at, lr.updated_at`

// LeaveRepository stores leave, late-arrival and early-departure requests.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs the repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// ListOverlapping returns requests with at least one date inside
// [filter.From, filter.To], optionally restricted to one team.
func (r *LeaveRepository) ListOverlapping(ctx context.Context, filter models.ReportFilter) ([]models.LeaveRequest, error) {
	where := []string{"EXISTS (SELECT 1 FROM unnest(lr.dates) AS d WHERE d BETWEEN $1 AND $2)"}
	args := []interface{}{filter.From, filter.To}
	if filter.TeamID != "" {
		where = append(where, fmt.Sprintf("lr.team_id = $%d", len(args)+1))
		args = append(args, filter.TeamID)
	}

	query := fmt.Sprintf(`SELECT `+leaveColumns+`
        FROM leave_requests lr
        WHERE %s
        ORDER BY lr.user_id ASC, lr.created_at ASC`, strings.Join(where, " AND "))

	var rows []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list leave requests: %w", err)
	}
	return rows, nil
}

// Create inserts a new request.
func (r *LeaveRepository) Create(ctx context.Context, req *models.LeaveRequest) error {
	now := time.Now().UTC()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now
	const query = `INSERT INTO leave_requests (id, user_id, username, team_id, channel_id, type, dates, reason, expected_time, status, created_at, updated_at)
VALUES (:id, :user_id, :username, :team_id, :channel_id, :type, :dates, :reason, :expected_time, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create leave request: %w", err)
	}
	return nil
}

// GetByID loads one request, or sql.ErrNoRows.
func (r *LeaveRepository) GetByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + `
        FROM leave_requests lr WHERE lr.id = $1`
	var req models.LeaveRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, fmt.Errorf("get leave request: %w", err)
	}
	return &req, nil
}

// Decide records an approval or rejection. Only a pending row is updated;
// anything else yields ErrStateConflict.
func (r *LeaveRepository) Decide(ctx context.Context, req *models.LeaveRequest) error {
	req.UpdatedAt = time.Now().UTC()
	const query = `UPDATE leave_requests
SET status = $1, approver_id = $2, approver_username = $3, approved_at = $4, reject_reason = $5, updated_at = $6
WHERE id = $7 AND status = $8`
	result, err := r.db.ExecContext(ctx, query, req.Status, req.ApproverID, req.ApproverUsername, req.ApprovedAt,
		req.RejectReason, req.UpdatedAt, req.ID, models.LeaveStatusPending)
	if err != nil {
		return fmt.Errorf("decide leave request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check decided leave rows: %w", err)
	}
	if affected == 0 {
		return ErrStateConflict
	}
	return nil
}
