package console

import (
	"embed"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/oktel/attendance-report/internal/botclient"
	"github.com/oktel/attendance-report/internal/i18n"
	"github.com/oktel/attendance-report/internal/middleware"
	"github.com/oktel/attendance-report/internal/reportview"
	appErrors "github.com/oktel/attendance-report/pkg/errors"
	"github.com/oktel/attendance-report/pkg/response"
)

//go:embed templates/*.html
var templateFS embed.FS

const sessionKey = "console_session"

// DefaultAuthCookie carries the user's session token when no Authorization
// header is sent.
const DefaultAuthCookie = "attendance_auth_token"

// maxPhotoBytes caps the photo form upload read by the console.
const maxPhotoBytes = 10 << 20

// HandlerConfig wires the console routes.
type HandlerConfig struct {
	Registry *Registry
	// Auth validates the caller's session token on every console request.
	Auth       middleware.TokenValidator
	AuthCookie string
	// AllowedRoles restricts the console to callers holding one of the roles.
	// Empty admits any signed-in user.
	AllowedRoles []string
	Translator   *i18n.Translator
	Theme        reportview.Theme
	Logger       *zap.Logger
	SecureCookie bool
	// ReloadAfter is how long the page waits after typing before reloading.
	ReloadAfter time.Duration
}

// Handler serves the console pages.
type Handler struct {
	cfg HandlerConfig
}

// NewHandler constructs the handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.ReloadAfter <= 0 {
		cfg.ReloadAfter = 600 * time.Millisecond
	}
	if cfg.AuthCookie == "" {
		cfg.AuthCookie = DefaultAuthCookie
	}
	return &Handler{cfg: cfg}
}

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("console").Funcs(template.FuncMap{
		"join":    strings.Join,
		"inc":     func(i int) int { return i + 1 },
		"dec":     func(i int) int { return i - 1 },
		"safeURL": func(s string) template.URL { return template.URL(s) }, //nolint:gosec
	}).ParseFS(templateFS, "templates/*.html")
}

// Register mounts the console on r.
func (h *Handler) Register(r *gin.Engine) error {
	tmpl, err := Templates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)

	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/attendance") })

	authed := r.Group("/", h.authenticate())
	if len(h.cfg.AllowedRoles) > 0 {
		authed.Use(middleware.RequireRoles(h.cfg.AllowedRoles...))
	}
	// only the page loads start a session; everything else needs one
	authed.GET("/attendance", h.openSession(), h.Page)
	authed.GET("/settings", h.openSession(), h.Settings)

	g := authed.Group("/", h.requireSession())
	g.GET("/attendance/state", h.State)
	g.POST("/attendance/month", h.SetMonth)
	g.POST("/attendance/team", h.SetTeam)
	g.POST("/attendance/search", h.Search)
	g.POST("/attendance/search/clear", h.ClearSearch)
	g.POST("/attendance/sort", h.Sort)
	g.POST("/attendance/page", h.Paginate)
	g.POST("/attendance/users/:id", h.SelectUser)
	g.POST("/attendance/back", h.Back)
	g.GET("/attendance/teams", h.Teams)
	g.GET("/attendance/teams/search", h.SearchTeams)
	g.GET("/settings/state", h.SettingsState)
	g.POST("/settings/photo", h.UploadPhoto)
	g.POST("/settings/photo/remove", h.RemovePhoto)
	return nil
}

// authenticate requires a valid session token from the Authorization header
// or the auth cookie. The token rides the request context so calls to the
// bot service act as this user.
func (h *Handler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := callerToken(c, h.cfg.AuthCookie)
		if token == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "sign in required"))
			c.Abort()
			return
		}
		claims, err := h.cfg.Auth.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(middleware.ContextUserKey, claims)
		c.Request = c.Request.WithContext(botclient.WithToken(c.Request.Context(), token))
		c.Next()
	}
}

func callerToken(c *gin.Context, cookie string) string {
	header := c.GetHeader("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	if value, err := c.Cookie(cookie); err == nil {
		return value
	}
	return ""
}

// ownSession returns the cookie's session when it belongs to the caller.
func (h *Handler) ownSession(c *gin.Context) *Session {
	id, err := c.Cookie(SessionCookie)
	if err != nil || id == "" {
		return nil
	}
	sess, ok := h.cfg.Registry.Get(id)
	if !ok || sess.UserID != middleware.Claims(c).UserID {
		return nil
	}
	return sess
}

func (h *Handler) openSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := h.ownSession(c)
		if sess == nil {
			var err error
			sess, err = h.cfg.Registry.Open(c.Request.Context(), middleware.Claims(c).UserID)
			if err != nil {
				response.Error(c, err)
				c.Abort()
				return
			}
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, sess.ID, int(h.cfg.Registry.cfg.TTL.Seconds()), "/", "", h.cfg.SecureCookie, true)
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := h.ownSession(c)
		if sess == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "console session expired, reload the page"))
			c.Abort()
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func currentSession(c *gin.Context) *Session {
	value, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := value.(*Session)
	return sess
}

func backToPage(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/attendance")
}

type column struct {
	Column  reportview.SortColumn
	TitleID string
}

var summaryColumns = []column{
	{reportview.SortUsername, "analytics.attendance.username"},
	{reportview.SortDaysWorked, "analytics.attendance.daysWorked"},
	{reportview.SortDaysLeave, "analytics.attendance.daysLeave"},
	{reportview.SortLateArrivals, "analytics.attendance.lateArrivals"},
	{reportview.SortEarlyDepartures, "analytics.attendance.earlyDepartures"},
}

type pageData struct {
	Locale        string
	View          View
	Teams         []TeamOption
	SelectedTeam  string
	TeamError     string
	Columns       []column
	PageSizes     []int
	ReloadAfterMs int64
	Upload        UploadState

	translator *i18n.Translator
	theme      reportview.Theme
}

func (d pageData) T(id string) string { return d.translator.Localize(d.Locale, id) }

func (d pageData) Badge(status string) reportview.Badge { return reportview.StatusBadge(status, d.theme) }

func (d pageData) UserDetailTitle(username string) string {
	return d.translator.Localize(d.Locale, "analytics.attendance.userDetail", map[string]interface{}{"Username": username})
}

func (d pageData) PageInfo() string {
	return d.translator.Localize(d.Locale, "analytics.attendance.pageInfo", map[string]interface{}{
		"Page":  d.View.Table.PageIndex + 1,
		"Pages": d.View.Table.PageCount,
		"Total": d.View.Table.Total,
	})
}

func (d pageData) Uploading(fileName string) string {
	return d.translator.Localize(d.Locale, "interactive_dialog.file_uploading", map[string]interface{}{"FileName": fileName})
}

func (h *Handler) data(sess *Session) pageData {
	return pageData{
		Locale:        sess.Locale,
		Columns:       summaryColumns,
		PageSizes:     reportview.PageSizes,
		ReloadAfterMs: h.cfg.ReloadAfter.Milliseconds(),
		translator:    h.cfg.Translator,
		theme:         h.cfg.Theme,
	}
}

// Page renders the attendance report.
func (h *Handler) Page(c *gin.Context) {
	sess := currentSession(c)
	options := sess.Teams.Options()
	if len(options) == 0 {
		options = sess.Teams.Load(c.Request.Context(), 0)
	}
	data := h.data(sess)
	data.View = sess.Page.View()
	data.Teams = options
	data.SelectedTeam = data.View.TeamID
	if data.SelectedTeam == "" {
		data.SelectedTeam = reportview.AllTeamsValue
	}
	data.TeamError = sess.Teams.Error()
	c.HTML(http.StatusOK, "attendance.html", data)
}

// State returns the page snapshot as JSON.
func (h *Handler) State(c *gin.Context) {
	response.Raw(c, http.StatusOK, currentSession(c).Page.View())
}

// SetMonth applies the month picker.
func (h *Handler) SetMonth(c *gin.Context) {
	if !currentSession(c).Page.SetMonth(c.Request.Context(), c.PostForm("month")) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must be YYYY-MM"))
		return
	}
	backToPage(c)
}

// SetTeam applies the team filter. The label is looked up from loaded options
// when the form does not carry one.
func (h *Handler) SetTeam(c *gin.Context) {
	sess := currentSession(c)
	id := c.PostForm("team_id")
	label := c.PostForm("team_label")
	if label == "" {
		for _, opt := range sess.Teams.Options() {
			if opt.Value == id {
				label = opt.Label
				break
			}
		}
	}
	sess.Page.SetTeam(c.Request.Context(), id, label)
	backToPage(c)
}

// Search schedules a debounced search term.
func (h *Handler) Search(c *gin.Context) {
	term := c.PostForm("q")
	currentSession(c).Search.Push(term)
	response.Accepted(c, gin.H{"term": term})
}

// ClearSearch clears the search term immediately.
func (h *Handler) ClearSearch(c *gin.Context) {
	currentSession(c).Search.Clear()
	backToPage(c)
}

// Sort toggles a column sort.
func (h *Handler) Sort(c *gin.Context) {
	currentSession(c).Page.Sort(reportview.ParseSortColumn(c.PostForm("col")))
	backToPage(c)
}

// Paginate moves through the table.
func (h *Handler) Paginate(c *gin.Context) {
	index, _ := strconv.Atoi(c.PostForm("index"))
	size, _ := strconv.Atoi(c.PostForm("size"))
	currentSession(c).Page.SetPagination(index, size)
	backToPage(c)
}

// SelectUser opens the detail panel.
func (h *Handler) SelectUser(c *gin.Context) {
	if !currentSession(c).Page.Select(c.Param("id")) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "user not in current report"))
		return
	}
	backToPage(c)
}

// Back closes the detail panel.
func (h *Handler) Back(c *gin.Context) {
	currentSession(c).Page.Back()
	backToPage(c)
}

// Teams loads team options: page=N loads that page, page=next the next one.
func (h *Handler) Teams(c *gin.Context) {
	sess := currentSession(c)
	var options []TeamOption
	switch raw := c.DefaultQuery("page", "0"); raw {
	case "next":
		options = sess.Teams.LoadMore(c.Request.Context())
	default:
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "page must be a non-negative integer or next"))
			return
		}
		options = sess.Teams.Load(c.Request.Context(), page)
	}
	response.Raw(c, http.StatusOK, gin.H{
		"options":   options,
		"next_page": sess.Teams.NextPage(),
		"error":     sess.Teams.Error(),
	})
}

// SearchTeams runs a server-side team search.
func (h *Handler) SearchTeams(c *gin.Context) {
	sess := currentSession(c)
	options := sess.Teams.Search(c.Request.Context(), c.Query("q"))
	response.Raw(c, http.StatusOK, gin.H{"options": options, "error": sess.Teams.Error()})
}

// Settings renders the upload setting.
func (h *Handler) Settings(c *gin.Context) {
	sess := currentSession(c)
	data := h.data(sess)
	data.Upload = sess.Photo.State()
	c.HTML(http.StatusOK, "settings.html", data)
}

// SettingsState returns the upload control and stored value as JSON.
func (h *Handler) SettingsState(c *gin.Context) {
	sess := currentSession(c)
	response.Raw(c, http.StatusOK, gin.H{
		"upload": sess.Photo.State(),
		"value":  sess.Setting(PhotoSettingName),
	})
}

// UploadPhoto forwards the chosen file to the upload endpoint.
func (h *Handler) UploadPhoto(c *gin.Context) {
	sess := currentSession(c)
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if header.Size > maxPhotoBytes {
		response.Error(c, appErrors.ErrPayloadTooLarge)
		return
	}
	src, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to open file"))
		return
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, maxPhotoBytes))
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read file"))
		return
	}

	// the preview uses the sniffed type, never the client header
	mimeType := http.DetectContentType(data)
	if err := sess.Photo.Upload(c.Request.Context(), header.Filename, mimeType, data); err != nil {
		h.cfg.Logger.Info("photo upload rejected", zap.String("session_id", sess.ID), zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/settings")
}

// RemovePhoto clears the upload control.
func (h *Handler) RemovePhoto(c *gin.Context) {
	currentSession(c).Photo.Remove()
	c.Redirect(http.StatusSeeOther, "/settings")
}
