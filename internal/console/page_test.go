package console

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oktel/attendance-report/internal/botclient"
	"github.com/oktel/attendance-report/internal/models"
	"github.com/oktel/attendance-report/internal/service"
)

type staticFetcher struct {
	mu      sync.Mutex
	stats   *models.AttendanceStats
	report  *models.AttendanceReport
	err     error
	filters []models.ReportFilter
	tokens  []string
}

func (f *staticFetcher) FetchAll(ctx context.Context, filter models.ReportFilter) (*models.AttendanceStats, *models.AttendanceReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	token, _ := botclient.TokenFromContext(ctx)
	f.tokens = append(f.tokens, token)
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.stats, f.report, nil
}

func (f *staticFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.filters)
}

func (f *staticFetcher) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type fetchResult struct {
	stats  *models.AttendanceStats
	report *models.AttendanceReport
	err    error
}

type pendingFetch struct {
	filter models.ReportFilter
	result chan fetchResult
}

// gatedFetcher blocks every call until the test releases it.
type gatedFetcher struct {
	calls chan *pendingFetch
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{calls: make(chan *pendingFetch, 8)}
}

func (f *gatedFetcher) FetchAll(_ context.Context, filter models.ReportFilter) (*models.AttendanceStats, *models.AttendanceReport, error) {
	call := &pendingFetch{filter: filter, result: make(chan fetchResult, 1)}
	f.calls <- call
	r := <-call.result
	return r.stats, r.report, r.err
}

func (f *gatedFetcher) next(t *testing.T) *pendingFetch {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("fetch was not issued")
		return nil
	}
}

func sampleReport() *models.AttendanceReport {
	return &models.AttendanceReport{
		From: "2024-02-01",
		To:   "2024-02-29",
		Users: []models.UserReport{
			{UserID: "u1", Username: "alice", DaysWorked: 18, LateArrivals: 2},
			{UserID: "u2", Username: "bob", DaysWorked: 20},
			{UserID: "u3", Username: "Alicia", DaysWorked: 15, DaysLeave: 3},
		},
	}
}

func sampleStats() *models.AttendanceStats {
	return &models.AttendanceStats{From: "2024-02-01", To: "2024-02-29", TotalCheckedIn: 53, TotalLateArrivals: 3}
}

func loadedPage(t *testing.T, fetcher ReportFetcher) *Page {
	t.Helper()
	page := NewPage(fetcher, PageConfig{Month: "2024-02"})
	t.Cleanup(page.Close)
	page.Refresh(context.Background())
	page.Wait()
	return page
}

func TestPageLoadsMonth(t *testing.T) {
	fetcher := &staticFetcher{stats: sampleStats(), report: sampleReport()}
	page := NewPage(fetcher, PageConfig{Month: "2024-02"})
	defer page.Close()

	assert.Equal(t, ViewLoading, page.View().Kind)

	page.Refresh(context.Background())
	page.Wait()

	view := page.View()
	assert.Equal(t, ViewSummary, view.Kind)
	assert.False(t, view.Loading)
	assert.Equal(t, 53, view.Stats.TotalCheckedIn)
	require.Len(t, view.Cards, 5)
	assert.True(t, view.Cards[2].Warning)
	assert.Len(t, view.Table.Rows, 3)
	assert.Equal(t, []models.ReportFilter{{From: "2024-02-01", To: "2024-02-29"}}, fetcher.filters)
}

func TestPageFetchesActAsRequestingUser(t *testing.T) {
	fetcher := &staticFetcher{stats: sampleStats(), report: sampleReport()}
	page := NewPage(fetcher, PageConfig{Month: "2024-02"})
	defer page.Close()

	reqCtx, cancel := context.WithCancel(botclient.WithToken(context.Background(), "alice-jwt"))
	page.Refresh(reqCtx)
	// the request ending must not cancel the background fetch
	cancel()
	page.Wait()
	require.True(t, page.SetMonth(botclient.WithToken(context.Background(), "alice-jwt-2"), "2024-03"))
	page.Wait()

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	assert.Equal(t, []string{"alice-jwt", "alice-jwt-2"}, fetcher.tokens)
	assert.Equal(t, ViewSummary, page.View().Kind)
}

func TestPageDefaultsToCurrentMonth(t *testing.T) {
	page := NewPage(&staticFetcher{}, PageConfig{Month: "bogus", Now: func() time.Time {
		return time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC)
	}})
	defer page.Close()
	assert.Equal(t, "2023-02", page.View().Month)
}

func TestPageFailureKeepsPreviousData(t *testing.T) {
	fetcher := &staticFetcher{stats: sampleStats(), report: sampleReport()}
	page := loadedPage(t, fetcher)
	before := page.View()

	fetcher.fail(&botclient.StatusError{Kind: "Report", Status: 500})
	require.True(t, page.SetMonth(context.Background(), "2024-03"))
	page.Wait()

	view := page.View()
	assert.Equal(t, ViewError, view.Kind)
	assert.Equal(t, "Report API error: 500", view.Error)
	assert.Same(t, before.Stats, view.Stats)
	assert.Same(t, before.Report, view.Report)
	assert.Equal(t, models.ReportFilter{From: "2024-03-01", To: "2024-03-31"}, fetcher.filters[1])
}

func TestPageFailureWithoutMessageUsesFallback(t *testing.T) {
	page := loadedPage(t, &staticFetcher{err: errors.New("")})
	view := page.View()
	assert.Equal(t, ViewError, view.Kind)
	assert.Equal(t, "Failed to load attendance data", view.Error)
}

func TestPageDiscardsStaleResponses(t *testing.T) {
	metrics := service.NewMetricsService("test")
	fetcher := newGatedFetcher()
	page := NewPage(fetcher, PageConfig{Month: "2024-02", Metrics: metrics})
	defer page.Close()

	first := page.Refresh(context.Background())
	firstCall := fetcher.next(t)
	require.True(t, page.SetMonth(context.Background(), "2024-03"))
	secondCall := fetcher.next(t)
	assert.Equal(t, "2024-03-01", secondCall.filter.From)

	march := &models.AttendanceReport{From: "2024-03-01", To: "2024-03-31", Users: []models.UserReport{{UserID: "m1", Username: "mar"}}}
	secondCall.result <- fetchResult{stats: &models.AttendanceStats{From: "2024-03-01"}, report: march}
	firstCall.result <- fetchResult{stats: sampleStats(), report: sampleReport()}
	page.Wait()

	view := page.View()
	assert.Greater(t, view.Seq, first)
	assert.Equal(t, ViewSummary, view.Kind)
	assert.Same(t, march, view.Report)
	assert.Equal(t, "2024-03-01", view.Stats.From)

	// a late failure from a superseded fetch is dropped too
	page.SetTeam(context.Background(), "t1", "Team One")
	third := fetcher.next(t)
	page.SetTeam(context.Background(), "t2", "Team Two")
	fourth := fetcher.next(t)
	fourth.result <- fetchResult{stats: sampleStats(), report: sampleReport()}
	third.result <- fetchResult{err: errors.New("boom")}
	page.Wait()

	view = page.View()
	assert.Empty(t, view.Error)
	assert.Equal(t, "t2", view.TeamID)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	var stale float64
	for _, mf := range families {
		if mf.GetName() == "test_stale_responses_total" {
			stale = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(2), stale)
}

func TestPageSelectAndBack(t *testing.T) {
	fetcher := &staticFetcher{stats: sampleStats(), report: sampleReport()}
	page := loadedPage(t, fetcher)

	require.True(t, page.Select("u2"))
	view := page.View()
	assert.Equal(t, ViewDetail, view.Kind)
	require.NotNil(t, view.Selected)
	assert.Equal(t, "bob", view.Selected.Username)
	require.Len(t, view.DetailCards, 4)
	assert.Equal(t, 20, view.DetailCards[0].Count)

	page.Back()
	view = page.View()
	assert.Equal(t, ViewSummary, view.Kind)
	assert.Nil(t, view.Selected)
	assert.Equal(t, 1, fetcher.calls())

	assert.False(t, page.Select("nobody"))
	page.SetSearch("ali")
	assert.False(t, page.Select("u2"))
	assert.True(t, page.Select("u3"))
}

func TestPageRefreshClearsSelection(t *testing.T) {
	page := loadedPage(t, &staticFetcher{stats: sampleStats(), report: sampleReport()})
	require.True(t, page.Select("u1"))
	page.SetTeam(context.Background(), "t9", "Nine")
	page.Wait()
	assert.Equal(t, ViewSummary, page.View().Kind)
}

func TestPageSearchFiltersAndResetsPage(t *testing.T) {
	report := &models.AttendanceReport{}
	for i := 0; i < 25; i++ {
		name := "user"
		if i%5 == 0 {
			name = "Alice"
		}
		report.Users = append(report.Users, models.UserReport{UserID: string(rune('a' + i)), Username: name})
	}
	page := loadedPage(t, &staticFetcher{stats: sampleStats(), report: report})

	page.SetPagination(2, 10)
	assert.Equal(t, 2, page.View().Table.PageIndex)

	page.SetSearch("  aLi ")
	view := page.View()
	assert.Equal(t, 0, view.Table.PageIndex)
	assert.Equal(t, 5, view.Table.Total)
	assert.Equal(t, "  aLi ", view.SearchTerm)

	page.SetPagination(0, 20)
	assert.Equal(t, 20, page.View().Table.PageSize)
}

func TestPageRejectsInvalidMonth(t *testing.T) {
	fetcher := &staticFetcher{stats: sampleStats(), report: sampleReport()}
	page := loadedPage(t, fetcher)

	assert.False(t, page.SetMonth(context.Background(), "2024-13"))
	assert.True(t, page.SetMonth(context.Background(), "2024-02"))
	page.Wait()
	assert.Equal(t, "2024-02", page.View().Month)
	assert.Equal(t, 1, fetcher.calls())
}

func TestPageTeamSentinelClearsFilter(t *testing.T) {
	fetcher := &staticFetcher{stats: sampleStats(), report: sampleReport()}
	page := loadedPage(t, fetcher)

	page.SetTeam(context.Background(), "teams_filter_for_all_teams", "All teams")
	page.Wait()
	assert.Equal(t, 1, fetcher.calls())

	page.SetTeam(context.Background(), "t1", "One")
	page.Wait()
	assert.Equal(t, "t1", fetcher.filters[1].TeamID)

	page.SetTeam(context.Background(), "teams_filter_for_all_teams", "All teams")
	page.Wait()
	assert.Equal(t, "", fetcher.filters[2].TeamID)
	assert.Empty(t, page.View().TeamLabel)
}

func TestPageSortToggles(t *testing.T) {
	page := loadedPage(t, &staticFetcher{stats: sampleStats(), report: sampleReport()})

	page.Sort("days_worked")
	rows := page.View().Table.Rows
	assert.Equal(t, []string{"u3", "u1", "u2"}, []string{rows[0].UserID, rows[1].UserID, rows[2].UserID})

	page.Sort("days_worked")
	rows = page.View().Table.Rows
	assert.Equal(t, "u2", rows[0].UserID)
}

func TestDebouncerDeliversLastValue(t *testing.T) {
	got := make(chan string, 4)
	d := NewDebouncer(20*time.Millisecond, func(v string) { got <- v })
	d.Push("a")
	d.Push("al")
	d.Push("ali")

	select {
	case v := <-got:
		assert.Equal(t, "ali", v)
	case <-time.After(time.Second):
		t.Fatal("debounced value not delivered")
	}
	select {
	case v := <-got:
		t.Fatalf("unexpected extra value %q", v)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestDebouncerClearFiresImmediately(t *testing.T) {
	got := make(chan string, 4)
	d := NewDebouncer(time.Hour, func(v string) { got <- v })
	d.Push("pending")
	d.Clear()

	select {
	case v := <-got:
		assert.Equal(t, "", v)
	default:
		t.Fatal("clear did not fire synchronously")
	}
}

func TestDebouncerStop(t *testing.T) {
	got := make(chan string, 4)
	d := NewDebouncer(10*time.Millisecond, func(v string) { got <- v })
	d.Push("x")
	d.Stop()
	d.Push("y")
	d.Clear()

	select {
	case v := <-got:
		t.Fatalf("stopped debouncer delivered %q", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDebouncerClearWinsOverFiredTimer(t *testing.T) {
	var got []string
	d := NewDebouncer(time.Hour, func(v string) { got = append(got, v) })
	d.Push("stale")
	d.mu.Lock()
	gen := d.gen
	d.mu.Unlock()

	d.Clear()
	// a timer callback that started before Clear stopped the timer
	d.deliver(gen, "stale")

	assert.Equal(t, []string{""}, got)
}

func TestDebouncerClearLeavesEmptyTermUnderRace(t *testing.T) {
	var (
		mu   sync.Mutex
		last = "unset"
	)
	d := NewDebouncer(time.Nanosecond, func(v string) {
		mu.Lock()
		last = v
		mu.Unlock()
	})
	for i := 0; i < 200; i++ {
		d.Push("x")
		d.Clear()
	}
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "", last)
}
