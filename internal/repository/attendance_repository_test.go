package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oktel/attendance-report/internal/models"
)

var leaveColumnNames = []string{"id", "user_id", "username", "team_id", "channel_id", "type", "dates", "reason", "expected_time", "status", "approver_id", "approver_username", "approved_at", "reject_reason", "created_at", "updated_at"}

func TestAttendanceRepositoryGetByUserDate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	checkIn := time.Date(2024, 2, 1, 8, 55, 0, 0, time.UTC)
	mock.ExpectQuery(`WHERE ar.user_id = \$1 AND ar.date = \$2::date`).
		WithArgs("u1", "2024-02-01").
		WillReturnRows(sqlmock.NewRows(attendanceColumns).
			AddRow("r1", "u1", "alice", "team-1", "ch-1", "2024-02-01", checkIn, nil, nil, nil, "working", time.Now(), time.Now()))

	rec, err := repo.GetByUserDate(context.Background(), "u1", "2024-02-01")
	require.NoError(t, err)
	assert.Equal(t, "r1", rec.ID)
	assert.Equal(t, models.AttendanceStatusWorking, rec.Status)

	mock.ExpectQuery(`WHERE ar.user_id = \$1 AND ar.date = \$2::date`).
		WithArgs("u2", "2024-02-01").
		WillReturnRows(sqlmock.NewRows(attendanceColumns))
	_, err = repo.GetByUserDate(context.Background(), "u2", "2024-02-01")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	checkIn := time.Date(2024, 2, 1, 8, 55, 0, 0, time.UTC)
	insert := regexp.QuoteMeta("INSERT INTO attendance_records") + `(.|\s)+` + regexp.QuoteMeta("ON CONFLICT (user_id, date) DO NOTHING RETURNING id")
	mock.ExpectQuery(insert).
		WithArgs(sqlmock.AnyArg(), "u1", "alice", "team-1", "ch-1", "2024-02-01", checkIn, "working", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("r1"))

	rec := &models.AttendanceRecord{UserID: "u1", Username: "alice", TeamID: "team-1", ChannelID: "ch-1", Date: "2024-02-01", CheckIn: &checkIn, Status: models.AttendanceStatusWorking}
	require.NoError(t, repo.Create(context.Background(), rec))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	// a concurrent check-in already inserted the row
	mock.ExpectQuery(insert).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	err := repo.Create(context.Background(), &models.AttendanceRecord{UserID: "u1", Date: "2024-02-01", CheckIn: &checkIn, Status: models.AttendanceStatusWorking})
	assert.ErrorIs(t, err, ErrStateConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryTransitionGuardsStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	breakStart := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	update := regexp.QuoteMeta("UPDATE attendance_records") + `(.|\s)+` + regexp.QuoteMeta("WHERE id = $6 AND status = $7")
	mock.ExpectExec(update).
		WithArgs(breakStart, nil, nil, "break", sqlmock.AnyArg(), "r1", "working").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(update).
		WithArgs(breakStart, nil, nil, "break", sqlmock.AnyArg(), "r1", "working").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := &models.AttendanceRecord{ID: "r1", BreakStart: &breakStart, Status: models.AttendanceStatusBreak}
	require.NoError(t, repo.Transition(context.Background(), rec, models.AttendanceStatusWorking))
	assert.ErrorIs(t, repo.Transition(context.Background(), rec, models.AttendanceStatusWorking), ErrStateConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepositoryCreateAndGet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeaveRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO leave_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	expected := "10:30"
	req := &models.LeaveRequest{
		UserID: "u1", Username: "alice", TeamID: "team-1", ChannelID: "ch-1",
		Type: models.LeaveTypeLateArrival, Dates: pq.StringArray{"2024-02-05"},
		Reason: "dentist", ExpectedTime: &expected, Status: models.LeaveStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), req))
	require.NotEmpty(t, req.ID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM leave_requests lr WHERE lr.id = $1")).
		WithArgs(req.ID).
		WillReturnRows(sqlmock.NewRows(leaveColumnNames).
			AddRow(req.ID, "u1", "alice", "team-1", "ch-1", "late_arrival", "{2024-02-05}", "dentist", "10:30", "pending", nil, nil, nil, nil, time.Now(), time.Now()))

	fetched, err := repo.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusPending, fetched.Status)
	assert.Equal(t, []string{"2024-02-05"}, []string(fetched.Dates))
	assert.Nil(t, fetched.ApproverID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepositoryDecideOnlyPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeaveRepository(db)

	approver, username := "u9", "boss"
	at := time.Date(2024, 2, 2, 9, 0, 0, 0, time.UTC)
	update := regexp.QuoteMeta("UPDATE leave_requests") + `(.|\s)+` + regexp.QuoteMeta("WHERE id = $7 AND status = $8")
	mock.ExpectExec(update).
		WithArgs("approved", approver, username, at, nil, sqlmock.AnyArg(), "l1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(update).
		WithArgs("approved", approver, username, at, nil, sqlmock.AnyArg(), "l1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	req := &models.LeaveRequest{ID: "l1", Status: models.LeaveStatusApproved, ApproverID: &approver, ApproverUsername: &username, ApprovedAt: &at}
	require.NoError(t, repo.Decide(context.Background(), req))
	assert.ErrorIs(t, repo.Decide(context.Background(), req), ErrStateConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}
