// Package console hosts the attendance admin console: per-session page state,
// filter controls, the upload setting and their gin handlers.
package console

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oktel/attendance-report/internal/botclient"
	"github.com/oktel/attendance-report/internal/models"
	"github.com/oktel/attendance-report/internal/reportview"
	"github.com/oktel/attendance-report/internal/service"
	"github.com/oktel/attendance-report/pkg/middleware/requestid"
)

// fallbackLoadError is shown when a fetch fails without a message.
const fallbackLoadError = "Failed to load attendance data"

// ReportFetcher loads stats and report together; either failing fails both.
type ReportFetcher interface {
	FetchAll(ctx context.Context, filter models.ReportFilter) (*models.AttendanceStats, *models.AttendanceReport, error)
}

// ViewKind is the one block the page renders.
type ViewKind string

const (
	ViewLoading ViewKind = "loading"
	ViewError   ViewKind = "error"
	ViewDetail  ViewKind = "detail"
	ViewSummary ViewKind = "summary"
)

// View is an immutable snapshot of the page for rendering.
type View struct {
	Kind        ViewKind                 `json:"kind"`
	Month       string                   `json:"month"`
	TeamID      string                   `json:"team_id,omitempty"`
	TeamLabel   string                   `json:"team_label,omitempty"`
	SearchTerm  string                   `json:"search_term"`
	Loading     bool                     `json:"loading"`
	Error       string                   `json:"error,omitempty"`
	Stats       *models.AttendanceStats  `json:"stats,omitempty"`
	Cards       []reportview.StatCard    `json:"cards,omitempty"`
	Table       reportview.Page          `json:"table"`
	Sorting     reportview.Sorting       `json:"sorting"`
	Selected    *models.UserReport       `json:"selected,omitempty"`
	DetailCards []reportview.StatCard    `json:"detail_cards,omitempty"`
	Report      *models.AttendanceReport `json:"-"`
	Seq         uint64                   `json:"seq"`
}

// PageConfig wires a page.
type PageConfig struct {
	Month   string
	Logger  *zap.Logger
	Metrics *service.MetricsService
	Now     func() time.Time
}

// Page is one session's attendance report state. Fetches run in the
// background; only the response of the latest fetch is applied.
type Page struct {
	mu      sync.Mutex
	fetcher ReportFetcher
	logger  *zap.Logger
	metrics *service.MetricsService

	month      string
	teamID     string
	teamLabel  string
	searchTerm string

	loading    bool
	errMsg     string
	stats      *models.AttendanceStats
	report     *models.AttendanceReport
	selectedID string

	sorting   reportview.Sorting
	pageIndex int
	pageSize  int

	seq    uint64
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPage builds a page for the configured month, defaulting to the current one.
// Nothing is fetched until Refresh.
func NewPage(fetcher ReportFetcher, cfg PageConfig) *Page {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	month := cfg.Month
	if !reportview.ValidMonth(month) {
		month = reportview.CurrentMonth(cfg.Now())
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Page{
		fetcher:  fetcher,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		month:    month,
		loading:  true,
		pageSize: reportview.PageSizes[0],
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Refresh starts a fetch for the current filters and returns its sequence number.
func (p *Page) Refresh(ctx context.Context) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshLocked(ctx)
}

func (p *Page) refreshLocked(ctx context.Context) uint64 {
	p.seq++
	seq := p.seq
	p.loading = true
	p.errMsg = ""
	p.selectedID = ""

	filter, err := reportview.MonthFilter(p.month, p.teamID)
	if err != nil {
		p.loading = false
		p.errMsg = err.Error()
		return seq
	}

	p.wg.Add(1)
	go p.fetch(detach(p.ctx, ctx), seq, filter)
	return seq
}

// detach carries the request id and caller token of from onto base, so a
// fetch outlives the request that started it but still acts as its caller.
func detach(base, from context.Context) context.Context {
	ctx := requestid.WithValue(base, requestid.FromContext(from))
	if token, ok := botclient.TokenFromContext(from); ok {
		ctx = botclient.WithToken(ctx, token)
	}
	return ctx
}

func (p *Page) fetch(ctx context.Context, seq uint64, filter models.ReportFilter) {
	defer p.wg.Done()
	stats, report, err := p.fetcher.FetchAll(ctx, filter)
	p.apply(seq, stats, report, err)
}

func (p *Page) apply(seq uint64, stats *models.AttendanceStats, report *models.AttendanceReport, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if seq != p.seq {
		p.metrics.RecordStaleResponse()
		p.logger.Debug("discarding stale attendance response",
			zap.Uint64("seq", seq),
			zap.Uint64("latest", p.seq),
			zap.Error(err),
		)
		return
	}

	p.loading = false
	if err != nil {
		p.errMsg = err.Error()
		if p.errMsg == "" {
			p.errMsg = fallbackLoadError
		}
		p.logger.Warn("attendance fetch failed", zap.Uint64("seq", seq), zap.Error(err))
		return
	}
	p.stats = stats
	p.report = report
}

// SetMonth changes the period and refetches. Invalid months are rejected and
// leave the page untouched.
func (p *Page) SetMonth(ctx context.Context, month string) bool {
	if !reportview.ValidMonth(month) {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if month == p.month {
		return true
	}
	p.month = month
	p.refreshLocked(ctx)
	return true
}

// SetTeam changes the team filter and refetches. The all-teams sentinel or
// an empty id clears the filter.
func (p *Page) SetTeam(ctx context.Context, id, label string) {
	if id == reportview.AllTeamsValue {
		id = ""
	}
	if id == "" {
		label = ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if id == p.teamID {
		p.teamLabel = label
		return
	}
	p.teamID = id
	p.teamLabel = label
	p.refreshLocked(ctx)
}

// SetSearch applies a settled search term. It never fetches.
func (p *Page) SetSearch(term string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.searchTerm = term
	p.pageIndex = 0
}

// Select shows the detail of the visible user with userID.
func (p *Page) Select(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range p.visibleLocked() {
		if u.UserID == userID {
			p.selectedID = userID
			return true
		}
	}
	return false
}

// Back returns to the summary without refetching.
func (p *Page) Back() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selectedID = ""
}

// Sort toggles the sort column.
func (p *Page) Sort(col reportview.SortColumn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sorting = p.sorting.Toggle(col)
}

// SetPagination moves to pageIndex with pageSize rows per page.
func (p *Page) SetPagination(pageIndex, pageSize int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	size := reportview.NormalizePageSize(pageSize)
	if size != p.pageSize {
		pageIndex = 0
	}
	if pageIndex < 0 {
		pageIndex = 0
	}
	p.pageSize = size
	p.pageIndex = pageIndex
}

func (p *Page) visibleLocked() []models.UserReport {
	if p.report == nil {
		return nil
	}
	return reportview.FilterUsers(p.report.Users, p.searchTerm)
}

// View snapshots the state. Exactly one block is chosen: loading (only before
// any report arrived), then error, then the selected user, then the summary.
func (p *Page) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := View{
		Month:      p.month,
		TeamID:     p.teamID,
		TeamLabel:  p.teamLabel,
		SearchTerm: p.searchTerm,
		Loading:    p.loading,
		Error:      p.errMsg,
		Stats:      p.stats,
		Report:     p.report,
		Sorting:    p.sorting,
		Seq:        p.seq,
	}

	visible := p.visibleLocked()
	if p.selectedID != "" {
		for i := range visible {
			if visible[i].UserID == p.selectedID {
				user := visible[i]
				v.Selected = &user
				break
			}
		}
	}

	switch {
	case p.loading && p.report == nil:
		v.Kind = ViewLoading
	case p.errMsg != "":
		v.Kind = ViewError
	case v.Selected != nil:
		v.Kind = ViewDetail
		v.DetailCards = reportview.DetailCards(*v.Selected)
	default:
		v.Kind = ViewSummary
		v.Cards = reportview.SummaryCards(p.stats)
		v.Table = reportview.Paginate(reportview.SortUsers(visible, p.sorting), p.pageIndex, p.pageSize)
	}
	return v
}

// Wait blocks until in-flight fetches have finished.
func (p *Page) Wait() {
	p.wg.Wait()
}

// Close cancels in-flight fetches and waits for them.
func (p *Page) Close() {
	p.cancel()
	p.wg.Wait()
}
