package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oktel/attendance-report/internal/dto"
	"github.com/oktel/attendance-report/internal/models"
	"github.com/oktel/attendance-report/pkg/export"
	"github.com/oktel/attendance-report/pkg/storage"
)

type reportSource interface {
	Report(ctx context.Context, q dto.ReportQuery) (*models.AttendanceReport, bool, error)
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportGeneratorConfig tunes export output.
type ExportGeneratorConfig struct {
	APIPrefix string
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportGenerator renders an attendance report into a stored file and signs
// a download URL for it.
type ExportGenerator struct {
	reports reportSource
	storage fileStorage
	csv     datasetRenderer
	pdf     datasetRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportGeneratorConfig
}

// NewExportGenerator constructs a generator. Nil renderers fall back to the
// pkg/export implementations.
func NewExportGenerator(reports reportSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportGeneratorConfig, logger *zap.Logger, csv, pdf datasetRenderer) *ExportGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportGenerator{
		reports: reports,
		storage: store,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate builds the dataset for job and stores the rendered export.
func (g *ExportGenerator) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	p := job.Params
	report, _, err := g.reports.Report(ctx, dto.ReportQuery{From: p.From, To: p.To, TeamID: p.TeamID})
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	dataset := BuildExportDataset(p, report)

	var payload []byte
	switch p.Format {
	case models.ExportFormatCSV:
		payload, err = g.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = g.pdf.Render(dataset)
	default:
		err = fmt.Errorf("unsupported format %s", p.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := g.storage.Save(exportFilename(job), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := g.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(g.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api"
	}
	g.logger.Debug("export generated", zap.String("job_id", job.ID), zap.String("path", relPath), zap.Int("bytes", len(payload)))

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/attendance/exports/%s", prefix, token),
		Format:       p.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (g *ExportGenerator) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return g.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (g *ExportGenerator) Open(relPath string) (*os.File, error) {
	return g.storage.Open(relPath)
}

// Delete removes a stored export file.
func (g *ExportGenerator) Delete(relPath string) error {
	return g.storage.Delete(relPath)
}

// Cleanup removes stored exports older than ttl.
func (g *ExportGenerator) Cleanup(ttl time.Duration) ([]string, error) {
	return g.storage.CleanupOlderThan(ttl)
}

// BuildExportDataset flattens the per-user summary into export rows.
func BuildExportDataset(p models.ExportParams, report *models.AttendanceReport) export.Dataset {
	notes := []string{fmt.Sprintf("Period: %s to %s", p.From, p.To)}
	if p.TeamID != "" {
		notes = append(notes, "Team: "+p.TeamID)
	}
	ds := export.Dataset{
		Title:   "Attendance Report",
		Notes:   notes,
		Headers: []string{"Username", "User ID", "Days Worked", "Days Leave", "Late Arrivals", "Early Departures", "Pending Requests"},
	}
	if report == nil {
		return ds
	}
	for _, u := range report.Users {
		pending := 0
		for _, l := range u.LeaveRequests {
			if l.Status == string(models.LeaveStatusPending) {
				pending++
			}
		}
		ds.Rows = append(ds.Rows, []string{
			u.Username,
			u.UserID,
			strconv.Itoa(u.DaysWorked),
			strconv.Itoa(u.DaysLeave),
			strconv.Itoa(u.LateArrivals),
			strconv.Itoa(u.EarlyDepartures),
			strconv.Itoa(pending),
		})
	}
	return ds
}

func exportFilename(job *models.ExportJob) string {
	return fmt.Sprintf("attendance_%s_%s_%s.%s",
		strings.ReplaceAll(job.Params.From, "-", ""),
		strings.ReplaceAll(job.Params.To, "-", ""),
		job.ID,
		job.Params.Format,
	)
}
