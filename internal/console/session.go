package console

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oktel/attendance-report/internal/i18n"
	"github.com/oktel/attendance-report/internal/service"
	appErrors "github.com/oktel/attendance-report/pkg/errors"
)

// ErrSessionLimit is returned when every session slot is held by an active user.
var ErrSessionLimit = appErrors.Clone(appErrors.ErrUnavailable, "too many console sessions, try again later")

// SessionCookie names the console session cookie.
const SessionCookie = "attendance_console_session"

// PhotoSettingName is the form field driven by the upload control.
const PhotoSettingName = "profile_photo"

// Session is one signed-in user's console state.
type Session struct {
	ID     string
	UserID string
	Locale string
	Page   *Page
	Search *Debouncer
	Teams  *TeamSelector
	Photo  *FileUploadSetting

	mu       sync.Mutex
	settings map[string]string
	lastSeen time.Time
}

// Setting returns a stored form value.
func (s *Session) Setting(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[name]
}

func (s *Session) setSetting(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[name] = value
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

func (s *Session) close() {
	s.Search.Stop()
	s.Page.Close()
}

// RegistryConfig wires session construction.
type RegistryConfig struct {
	Fetcher         ReportFetcher
	Teams           TeamLister
	Uploader        Uploader
	Translator      *i18n.Translator
	Metrics         *service.MetricsService
	Logger          *zap.Logger
	Locale          string
	TTL             time.Duration
	MaxSessions     int
	SearchDebounce  time.Duration
	TeamsPerPage    int
	UploadChannelID string
	Now             func() time.Time
}

// Registry owns the live sessions and evicts idle ones. A user holds at
// most one session.
type Registry struct {
	mu       sync.Mutex
	cfg      RegistryConfig
	sessions map[string]*Session
	byUser   map[string]*Session
}

// NewRegistry builds an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}
	if cfg.Locale == "" {
		cfg.Locale = "en"
	}
	return &Registry{cfg: cfg, sessions: make(map[string]*Session), byUser: make(map[string]*Session)}
}

// Get returns a live session and marks it used.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		sess.touch(r.cfg.Now())
	}
	return sess, ok
}

// Open returns userID's live session, or starts one and kicks off its first
// fetch with ctx. It fails with ErrSessionLimit when the registry is full of
// sessions that are not idle.
func (r *Registry) Open(ctx context.Context, userID string) (*Session, error) {
	r.mu.Lock()
	if sess, ok := r.byUser[userID]; ok {
		r.mu.Unlock()
		sess.touch(r.cfg.Now())
		return sess, nil
	}
	full := len(r.sessions) >= r.cfg.MaxSessions
	r.mu.Unlock()
	if full {
		r.EvictIdle()
	}

	sess := r.newSession(uuid.NewString(), userID)
	r.mu.Lock()
	if existing, ok := r.byUser[userID]; ok {
		r.mu.Unlock()
		sess.close()
		existing.touch(r.cfg.Now())
		return existing, nil
	}
	if len(r.sessions) >= r.cfg.MaxSessions {
		r.mu.Unlock()
		sess.close()
		r.cfg.Logger.Warn("console session limit reached", zap.Int("max_sessions", r.cfg.MaxSessions))
		return nil, ErrSessionLimit
	}
	r.sessions[sess.ID] = sess
	r.byUser[userID] = sess
	r.mu.Unlock()

	sess.Page.Refresh(ctx)
	r.cfg.Logger.Debug("console session created", zap.String("session_id", sess.ID), zap.String("user_id", userID))
	return sess, nil
}

func (r *Registry) newSession(id, userID string) *Session {
	locale := r.cfg.Locale
	translate := func(msgID string) string { return r.cfg.Translator.Localize(locale, msgID) }

	sess := &Session{
		ID:       id,
		UserID:   userID,
		Locale:   locale,
		settings: make(map[string]string),
		lastSeen: r.cfg.Now(),
	}
	sess.Page = NewPage(r.cfg.Fetcher, PageConfig{
		Logger:  r.cfg.Logger.With(zap.String("session_id", id)),
		Metrics: r.cfg.Metrics,
		Now:     r.cfg.Now,
	})
	sess.Search = NewDebouncer(r.cfg.SearchDebounce, sess.Page.SetSearch)
	sess.Teams = NewTeamSelector(r.cfg.Teams, TeamSelectorConfig{
		PerPage:   r.cfg.TeamsPerPage,
		Locale:    locale,
		Translate: translate,
		Logger:    r.cfg.Logger,
	})
	sess.Photo = NewFileUploadSetting(
		PhotoSettingName,
		r.cfg.UploadChannelID,
		r.cfg.Uploader,
		translate("interactive_dialog.error.file_upload_failed"),
		sess.setSetting,
		r.cfg.Logger,
	)
	return sess
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle closes sessions idle for longer than the TTL and returns how many.
func (r *Registry) EvictIdle() int {
	now := r.cfg.Now()
	var expired []*Session

	r.mu.Lock()
	for id, sess := range r.sessions {
		if sess.idleSince(now) > r.cfg.TTL {
			expired = append(expired, sess)
			delete(r.sessions, id)
			delete(r.byUser, sess.UserID)
		}
	}
	r.mu.Unlock()

	for _, sess := range expired {
		sess.close()
	}
	if len(expired) > 0 {
		r.cfg.Logger.Info("evicted idle console sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run evicts idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.EvictIdle()
		}
	}
}

// Close ends every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.byUser = make(map[string]*Session)
	r.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
	}
}
