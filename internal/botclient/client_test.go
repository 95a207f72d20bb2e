package botclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oktel/attendance-report/internal/models"
)

type fakeBotService struct {
	statsStatus  int
	reportStatus int
	calls        int32
	lastAuth     atomic.Value
	lastQuery    atomic.Value
}

func (f *fakeBotService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v4/bot-service/attendance/stats", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.calls, 1)
		f.lastAuth.Store(r.Header.Get("Authorization"))
		f.lastQuery.Store(r.URL.RawQuery)
		if f.statsStatus != 0 {
			w.WriteHeader(f.statsStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(models.AttendanceStats{From: r.URL.Query().Get("from"), To: r.URL.Query().Get("to"), TotalCheckedIn: 7})
	})
	mux.HandleFunc("/api/v4/bot-service/attendance/report", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.calls, 1)
		if f.reportStatus != 0 {
			w.WriteHeader(f.reportStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(models.AttendanceReport{Users: []models.UserReport{{UserID: "u1", Username: "alice"}}})
	})
	mux.HandleFunc("/api/v4/files", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("files")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		if r.FormValue("channel_id") != "ch-1" || header.Filename != "avatar.png" || string(body) != "img" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"file_infos":[{"id":"file-9","name":"avatar.png"}]}`))
	})
	return mux
}

func newTestClient(t *testing.T, fake *fakeBotService, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	client, err := New(Config{BaseURL: srv.URL + "/api/v4/", Tokens: StaticToken(token)})
	require.NoError(t, err)
	return client
}

var feb = models.ReportFilter{From: "2024-02-01", To: "2024-02-29"}

func TestFetchAll(t *testing.T) {
	fake := &fakeBotService{}
	client := newTestClient(t, fake, "tok")

	stats, report, err := client.FetchAll(context.Background(), models.ReportFilter{From: "2024-02-01", To: "2024-02-29", TeamID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, 7, stats.TotalCheckedIn)
	assert.Equal(t, "2024-02-01", stats.From)
	require.Len(t, report.Users, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fake.calls))
	assert.Equal(t, "Bearer tok", fake.lastAuth.Load())
	assert.Equal(t, "from=2024-02-01&team_id=t1&to=2024-02-29", fake.lastQuery.Load())
}

func TestFetchAllOmitsEmptyToken(t *testing.T) {
	fake := &fakeBotService{}
	client := newTestClient(t, fake, "")

	_, err := client.FetchStats(context.Background(), feb)
	require.NoError(t, err)
	assert.Equal(t, "", fake.lastAuth.Load())
}

func TestFetchStatsForwardsCallerToken(t *testing.T) {
	fake := &fakeBotService{}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	client, err := New(Config{BaseURL: srv.URL + "/api/v4", Tokens: CallerToken{}})
	require.NoError(t, err)

	_, err = client.FetchStats(WithToken(context.Background(), "alice-jwt"), feb)
	require.NoError(t, err)
	assert.Equal(t, "Bearer alice-jwt", fake.lastAuth.Load())

	_, err = client.FetchStats(WithToken(context.Background(), "bob-jwt"), feb)
	require.NoError(t, err)
	assert.Equal(t, "Bearer bob-jwt", fake.lastAuth.Load())

	calls := atomic.LoadInt32(&fake.calls)
	_, err = client.FetchStats(context.Background(), feb)
	assert.ErrorIs(t, err, ErrNoCallerToken)
	assert.Equal(t, calls, atomic.LoadInt32(&fake.calls))
}

func TestFetchAllStatusErrors(t *testing.T) {
	fake := &fakeBotService{reportStatus: http.StatusInternalServerError}
	client := newTestClient(t, fake, "")

	stats, report, err := client.FetchAll(context.Background(), feb)
	require.Error(t, err)
	assert.Nil(t, stats)
	assert.Nil(t, report)
	assert.Equal(t, "Report API error: 500", err.Error())

	fake = &fakeBotService{statsStatus: http.StatusUnauthorized}
	client = newTestClient(t, fake, "")
	_, err = client.FetchStats(context.Background(), feb)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "Stats", statusErr.Kind)
	assert.Equal(t, "Stats API error: 401", err.Error())
}

func TestUploadFile(t *testing.T) {
	client := newTestClient(t, &fakeBotService{}, "tok")

	id, err := client.UploadFile(context.Background(), "ch-1", "avatar.png", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "file-9", id)

	_, err = client.UploadFile(context.Background(), "other", "avatar.png", strings.NewReader("img"))
	assert.EqualError(t, err, "Upload API error: 400")
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: ""})
	assert.Error(t, err)
	_, err = New(Config{BaseURL: "not a url"})
	assert.Error(t, err)
}
