package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oktel/attendance-report/internal/models"
)

// ErrStateConflict reports a write that lost a race: the row already exists
// or no longer has the status the caller read.
var ErrStateConflict = errors.New("attendance state changed concurrently")

const attendanceSelect = `SELECT ar.id, ar.user_id, ar.username, ar.team_id, ar.channel_id,
        to_char(ar.date, 'YYYY-MM-DD') AS date, ar.check_in, ar.break_start, ar.break_end, ar.check_out,
        ar.status, ar.created_at, ar.updated_at
        FROM attendance_records ar`

// AttendanceRepository reads and writes daily check-in rows.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByRange returns the records dated within [filter.From, filter.To],
// optionally restricted to one team, ordered by user then date.
func (r *AttendanceRepository) ListByRange(ctx context.Context, filter models.ReportFilter) ([]models.AttendanceRecord, error) {
	where := []string{"ar.date >= $1::date", "ar.date <= $2::date"}
	args := []interface{}{filter.From, filter.To}
	if filter.TeamID != "" {
		where = append(where, fmt.Sprintf("ar.team_id = $%d", len(args)+1))
		args = append(args, filter.TeamID)
	}

	query := fmt.Sprintf(attendanceSelect+`
        WHERE %s
        ORDER BY ar.user_id ASC, ar.date ASC`, strings.Join(where, " AND "))

	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return rows, nil
}

// GetByUserDate returns the user's row for date, or sql.ErrNoRows.
func (r *AttendanceRepository) GetByUserDate(ctx context.Context, userID, date string) (*models.AttendanceRecord, error) {
	query := attendanceSelect + `
        WHERE ar.user_id = $1 AND ar.date = $2::date`
	var rec models.AttendanceRecord
	if err := r.db.GetContext(ctx, &rec, query, userID, date); err != nil {
		return nil, fmt.Errorf("get attendance record: %w", err)
	}
	return &rec, nil
}

// Create inserts a check-in row. A row already present for (user_id, date)
// yields ErrStateConflict.
func (r *AttendanceRepository) Create(ctx context.Context, rec *models.AttendanceRecord) error {
	now := time.Now().UTC()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	const query = `INSERT INTO attendance_records (id, user_id, username, team_id, channel_id, date, check_in, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8, $9, $10)
ON CONFLICT (user_id, date) DO NOTHING RETURNING id`
	var id string
	err := r.db.QueryRowxContext(ctx, query, rec.ID, rec.UserID, rec.Username, rec.TeamID, rec.ChannelID,
		rec.Date, rec.CheckIn, rec.Status, rec.CreatedAt, rec.UpdatedAt).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStateConflict
		}
		return fmt.Errorf("create attendance record: %w", err)
	}
	return nil
}

// Transition persists the break and check-out fields and status of rec, but
// only while the stored status is still from.
func (r *AttendanceRepository) Transition(ctx context.Context, rec *models.AttendanceRecord, from models.AttendanceStatus) error {
	rec.UpdatedAt = time.Now().UTC()
	const query = `UPDATE attendance_records
SET break_start = $1, break_end = $2, check_out = $3, status = $4, updated_at = $5
WHERE id = $6 AND status = $7`
	result, err := r.db.ExecContext(ctx, query, rec.BreakStart, rec.BreakEnd, rec.CheckOut, rec.Status, rec.UpdatedAt, rec.ID, from)
	if err != nil {
		return fmt.Errorf("update attendance record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated attendance rows: %w", err)
	}
	if affected == 0 {
		return ErrStateConflict
	}
	return nil
}
