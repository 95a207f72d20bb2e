package console

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/oktel/attendance-report/internal/mattermost"
	"github.com/oktel/attendance-report/internal/reportview"
)

// TeamLister is the chat server's team API.
type TeamLister interface {
	GetTeams(ctx context.Context, page, perPage int) ([]mattermost.Team, error)
	SearchTeams(ctx context.Context, term string, page, perPage int) ([]mattermost.Team, error)
}

// TeamOption is one entry of the team dropdown.
type TeamOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// TeamSelectorConfig wires a selector.
type TeamSelectorConfig struct {
	PerPage   int
	Locale    string
	Translate func(id string) string
	Logger    *zap.Logger
}

// TeamSelector pages through teams for the team filter. The cursor only
// advances when a page returned teams.
type TeamSelector struct {
	mu        sync.Mutex
	lister    TeamLister
	perPage   int
	collator  *collate.Collator
	translate func(string) string
	logger    *zap.Logger

	options  []TeamOption
	nextPage int
	errMsg   string
}

// NewTeamSelector builds a selector. PerPage defaults to 50.
func NewTeamSelector(lister TeamLister, cfg TeamSelectorConfig) *TeamSelector {
	if cfg.PerPage <= 0 {
		cfg.PerPage = 50
	}
	if cfg.Translate == nil {
		cfg.Translate = func(id string) string { return id }
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		tag = language.English
	}
	return &TeamSelector{
		lister:    lister,
		perPage:   cfg.PerPage,
		collator:  collate.New(tag),
		translate: cfg.Translate,
		logger:    cfg.Logger,
	}
}

// Load fetches page. Page 0 replaces the list and leads with the all-teams
// option; later pages append. An empty page changes nothing.
func (s *TeamSelector) Load(ctx context.Context, page int) []TeamOption {
	teams, err := s.lister.GetTeams(ctx, page, s.perPage)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errMsg = s.translate("admin.system_users.filters.team.errorLoading")
		s.logger.Error("load teams failed", zap.Int("page", page), zap.Error(err))
		return s.snapshotLocked()
	}
	if len(teams) == 0 {
		return s.snapshotLocked()
	}

	list := toOptions(teams)
	sort.SliceStable(list, func(i, j int) bool {
		return s.collator.CompareString(list[i].Label, list[j].Label) < 0
	})
	if page == 0 {
		all := TeamOption{Value: reportview.AllTeamsValue, Label: s.translate("admin.system_users.filters.team.allTeams")}
		s.options = append([]TeamOption{all}, list...)
	} else {
		s.options = append(s.options, list...)
	}
	s.nextPage = page + 1
	return s.snapshotLocked()
}

// LoadMore fetches the page after the last one that returned teams.
func (s *TeamSelector) LoadMore(ctx context.Context) []TeamOption {
	s.mu.Lock()
	page := s.nextPage
	s.mu.Unlock()
	return s.Load(ctx, page)
}

// Search queries the server for term. Results keep server order and carry no
// all-teams option; failures return an empty list.
func (s *TeamSelector) Search(ctx context.Context, term string) []TeamOption {
	teams, err := s.lister.SearchTeams(ctx, term, 0, s.perPage)
	if err != nil {
		s.mu.Lock()
		s.errMsg = s.translate("admin.system_users.filters.team.errorSearching")
		s.mu.Unlock()
		s.logger.Error("search teams failed", zap.String("term", term), zap.Error(err))
		return []TeamOption{}
	}
	return toOptions(teams)
}

// Options returns the loaded options.
func (s *TeamSelector) Options() []TeamOption {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Error returns the last load or search failure message.
func (s *TeamSelector) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// NextPage is the page LoadMore will request.
func (s *TeamSelector) NextPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextPage
}

func (s *TeamSelector) snapshotLocked() []TeamOption {
	out := make([]TeamOption, len(s.options))
	copy(out, s.options)
	return out
}

func toOptions(teams []mattermost.Team) []TeamOption {
	out := make([]TeamOption, 0, len(teams))
	for _, t := range teams {
		out = append(out, TeamOption{Value: t.ID, Label: t.DisplayName})
	}
	return out
}
