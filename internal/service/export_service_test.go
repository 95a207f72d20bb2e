package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oktel/attendance-report/internal/dto"
	"github.com/oktel/attendance-report/internal/models"
	"github.com/oktel/attendance-report/internal/repository"
	appErrors "github.com/oktel/attendance-report/pkg/errors"
	"github.com/oktel/attendance-report/pkg/jobs"
	"github.com/oktel/attendance-report/pkg/storage"
)

type memoryExportStore struct {
	mu   sync.Mutex
	jobs map[string]*models.ExportJob
	seq  int
}

func newMemoryExportStore() *memoryExportStore {
	return &memoryExportStore{jobs: map[string]*models.ExportJob{}}
}

func (m *memoryExportStore) Create(ctx context.Context, job *models.ExportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	job.ID = fmt.Sprintf("job-%d", m.seq)
	job.CreatedAt = time.Now()
	clone := *job
	m.jobs[job.ID] = &clone
	return nil
}

func (m *memoryExportStore) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("get export job: %w", sql.ErrNoRows)
	}
	clone := *job
	return &clone, nil
}

func (m *memoryExportStore) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		url := *params.ResultURL
		job.ResultURL = &url
	}
	if params.ErrorMessage != nil {
		msg := *params.ErrorMessage
		job.ErrorMessage = &msg
	}
	if params.FinishedAt != nil {
		at := *params.FinishedAt
		job.FinishedAt = &at
	}
	return nil
}

func (m *memoryExportStore) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ExportJob
	for _, job := range m.jobs {
		if job.Status == models.ExportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (m *memoryExportStore) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ExportJob
	for _, job := range m.jobs {
		if job.Status == models.ExportStatusFinished && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			out = append(out, *job)
		}
	}
	return out, nil
}

type dispatcherStub struct {
	jobs []jobs.Job
	err  error
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type reportSourceStub struct {
	report *models.AttendanceReport
	err    error
}

func (r *reportSourceStub) Report(ctx context.Context, q dto.ReportQuery) (*models.AttendanceReport, bool, error) {
	return r.report, false, r.err
}

type exportFixture struct {
	store      *memoryExportStore
	dispatcher *dispatcherStub
	generator  *ExportGenerator
	service    *ExportService
	worker     *ExportWorker
	source     *reportSourceStub
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()
	fs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	source := &reportSourceStub{report: &models.AttendanceReport{
		From: "2024-02-01",
		To:   "2024-02-29",
		Users: []models.UserReport{
			{UserID: "u1", Username: "alice", DaysWorked: 18, DaysLeave: 1, LeaveRequests: []models.LeaveEntry{{Status: "pending"}}},
			{UserID: "u2", Username: "bob", DaysWorked: 20, LateArrivals: 2},
		},
	}}
	store := newMemoryExportStore()
	dispatcher := &dispatcherStub{}
	generator := NewExportGenerator(source, fs, signer, ExportGeneratorConfig{APIPrefix: "/api/"}, nil, nil, nil)
	queries := newTestReportService(&attendanceStoreStub{}, &leaveStoreStub{}, nil)
	return &exportFixture{
		store:      store,
		dispatcher: dispatcher,
		generator:  generator,
		service:    NewExportService(store, queries, dispatcher, generator, nil, nil, ExportServiceConfig{ResultTTL: time.Hour}),
		worker:     NewExportWorker(store, generator, nil, nil),
		source:     source,
	}
}

func TestExportServiceLifecycleCSV(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()
	owner := &models.JWTClaims{UserID: "user-1", Roles: []string{models.RoleUser}}

	created, err := f.service.CreateJob(ctx, dto.ExportRequest{From: "2024-02-01", To: "2024-02-29", Format: models.ExportFormatCSV}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, created.Status)
	require.Len(t, f.dispatcher.jobs, 1)
	assert.Equal(t, created.ID, f.dispatcher.jobs[0].ID)

	require.NoError(t, f.worker.Handle(ctx, f.dispatcher.jobs[0]))

	status, err := f.service.GetStatus(ctx, created.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, status.Status)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.ResultURL)
	assert.True(t, strings.HasPrefix(*status.ResultURL, "/api/attendance/exports/"))
	assert.Nil(t, status.Error)

	download, err := f.service.ResolveDownload(ctx, extractToken(*status.ResultURL))
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, models.ExportFormatCSV, download.Format)
	assert.True(t, strings.HasSuffix(download.Filename, ".csv"))
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Username,User ID,Days Worked")
	assert.Contains(t, string(body), "alice,u1,18,1,0,0,1")
}

func TestExportServiceGetStatusForbidden(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()
	created, err := f.service.CreateJob(ctx, dto.ExportRequest{From: "2024-02-01", To: "2024-02-29", Format: models.ExportFormatPDF}, "user-1")
	require.NoError(t, err)

	_, err = f.service.GetStatus(ctx, created.ID, &models.JWTClaims{UserID: "user-2"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.service.GetStatus(ctx, created.ID, &models.JWTClaims{UserID: "admin", Roles: []string{models.RoleSystemAdmin}})
	assert.NoError(t, err)

	_, err = f.service.GetStatus(ctx, "missing", &models.JWTClaims{UserID: "admin", Roles: []string{models.RoleSystemAdmin}})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportServiceCreateJobValidation(t *testing.T) {
	f := newExportFixture(t)

	_, err := f.service.CreateJob(context.Background(), dto.ExportRequest{From: "2024-02-01", To: "2024-02-29", Format: "xlsx"}, "u")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.service.CreateJob(context.Background(), dto.ExportRequest{From: "2024-03-01", To: "2024-02-01", Format: models.ExportFormatCSV}, "u")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, f.dispatcher.jobs)
}

func TestExportServiceEnqueueFailureMarksJobFailed(t *testing.T) {
	f := newExportFixture(t)
	f.dispatcher.err = jobs.ErrQueueFull

	_, err := f.service.CreateJob(context.Background(), dto.ExportRequest{From: "2024-02-01", To: "2024-02-29", Format: models.ExportFormatCSV}, "u")
	require.Error(t, err)

	job, getErr := f.store.GetByID(context.Background(), "job-1")
	require.NoError(t, getErr)
	assert.Equal(t, models.ExportStatusFailed, job.Status)
	require.NotNil(t, job.FinishedAt)
}

func TestExportWorkerFailureRequeuesAndExhaustionFails(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()
	f.source.err = errors.New("db down")

	created, err := f.service.CreateJob(ctx, dto.ExportRequest{From: "2024-02-01", To: "2024-02-29", Format: models.ExportFormatCSV}, "u")
	require.NoError(t, err)

	err = f.worker.Handle(ctx, f.dispatcher.jobs[0])
	require.Error(t, err)
	job, _ := f.store.GetByID(ctx, created.ID)
	assert.Equal(t, models.ExportStatusQueued, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "db down")

	f.service.HandleExhausted(f.dispatcher.jobs[0], err)
	job, _ = f.store.GetByID(ctx, created.ID)
	assert.Equal(t, models.ExportStatusFailed, job.Status)
	assert.Equal(t, 100, job.Progress)
}

func TestExportServiceResolveDownloadRejectsBadToken(t *testing.T) {
	f := newExportFixture(t)

	_, err := f.service.ResolveDownload(context.Background(), "garbage")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestExportServiceRecoverPendingJobs(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()
	_, err := f.service.CreateJob(ctx, dto.ExportRequest{From: "2024-02-01", To: "2024-02-29", Format: models.ExportFormatCSV}, "u")
	require.NoError(t, err)

	f.service.RecoverPendingJobs(ctx)
	assert.Len(t, f.dispatcher.jobs, 2)
}

func TestExportServiceCleanupExpired(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()
	created, err := f.service.CreateJob(ctx, dto.ExportRequest{From: "2024-02-01", To: "2024-02-29", Format: models.ExportFormatCSV}, "u")
	require.NoError(t, err)
	require.NoError(t, f.worker.Handle(ctx, f.dispatcher.jobs[0]))

	job, _ := f.store.GetByID(ctx, created.ID)
	token := extractToken(*job.ResultURL)
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, f.store.Update(ctx, created.ID, repository.UpdateExportJobParams{FinishedAt: &old}))

	f.service.CleanupExpired(ctx)

	_, err = f.service.ResolveDownload(ctx, token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestBuildExportDataset(t *testing.T) {
	ds := BuildExportDataset(models.ExportParams{From: "2024-02-01", To: "2024-02-29", TeamID: "t1"}, &models.AttendanceReport{
		Users: []models.UserReport{{UserID: "u1", Username: "alice", EarlyDepartures: 3}},
	})
	require.NoError(t, ds.Validate())
	assert.Equal(t, []string{"Period: 2024-02-01 to 2024-02-29", "Team: t1"}, ds.Notes)
	assert.Equal(t, []string{"alice", "u1", "0", "0", "0", "3", "0"}, ds.Rows[0])
}
