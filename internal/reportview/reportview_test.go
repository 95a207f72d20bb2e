package reportview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oktel/attendance-report/internal/models"
)

func TestMonthRange(t *testing.T) {
	cases := []struct {
		month    string
		from, to string
	}{
		{"2024-02", "2024-02-01", "2024-02-29"},
		{"2023-02", "2023-02-01", "2023-02-28"},
		{"2024-12", "2024-12-01", "2024-12-31"},
		{"2024-04", "2024-04-01", "2024-04-30"},
	}
	for _, tc := range cases {
		from, to, err := MonthRange(tc.month)
		require.NoError(t, err, tc.month)
		assert.Equal(t, tc.from, from)
		assert.Equal(t, tc.to, to)
	}

	for _, bad := range []string{"", "2024-13", "2024-2", "24-02", "2024-02-01", "abcd-ef"} {
		_, _, err := MonthRange(bad)
		assert.Error(t, err, bad)
	}
}

func TestMonthFilterDropsAllTeamsSentinel(t *testing.T) {
	f, err := MonthFilter("2024-02", AllTeamsValue)
	require.NoError(t, err)
	assert.Equal(t, models.ReportFilter{From: "2024-02-01", To: "2024-02-29"}, f)

	f, err = MonthFilter("2024-02", "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", f.TeamID)
}

func TestCurrentMonth(t *testing.T) {
	assert.Equal(t, "2024-03", CurrentMonth(time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)))
}

func users(names ...string) []models.UserReport {
	out := make([]models.UserReport, len(names))
	for i, n := range names {
		out[i] = models.UserReport{UserID: "id-" + n, Username: n}
	}
	return out
}

func usernames(rows []models.UserReport) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Username
	}
	return out
}

func TestFilterUsers(t *testing.T) {
	all := users("Alice", "bob", "alicia", "Mallory")

	assert.Equal(t, []string{"Alice", "alicia"}, usernames(FilterUsers(all, "  ALI ")))
	assert.Equal(t, []string{"Alice", "bob", "alicia", "Mallory"}, usernames(FilterUsers(all, "")))
	assert.Equal(t, []string{"Alice", "bob", "alicia", "Mallory"}, usernames(FilterUsers(all, "   ")))
	assert.Empty(t, FilterUsers(all, "zed"))
	assert.Empty(t, FilterUsers(nil, "a"))
}

func TestStatusBadge(t *testing.T) {
	theme := DefaultTheme()
	cases := map[string]string{
		"approved":  "#339970",
		"completed": "#339970",
		"pending":   "#f5a623",
		"working":   "#f5a623",
		"rejected":  "#d24b4e",
		"break":     "#1e88e5",
		"Approved":  "#999",
		"":          "#999",
		"unknown":   "#999",
	}
	for status, color := range cases {
		b := StatusBadge(status, theme)
		assert.Equal(t, color, b.Color, status)
		assert.Equal(t, status, b.Label)
	}
}

func TestStatusBadgeCustomTheme(t *testing.T) {
	b := StatusBadge("rejected", Theme{Danger: "red"})
	assert.Equal(t, "red", b.Color)
	b = StatusBadge("approved", Theme{Danger: "red"})
	assert.Equal(t, "#339970", b.Color)
}

func TestSummaryCardsWarnings(t *testing.T) {
	cards := SummaryCards(&models.AttendanceStats{TotalCheckedIn: 4, TotalLateArrivals: 0, PendingRequests: 0})
	require.Len(t, cards, 5)
	for _, c := range cards {
		assert.False(t, c.Warning, c.TitleID)
	}

	cards = SummaryCards(&models.AttendanceStats{TotalLateArrivals: 3, PendingRequests: 1})
	assert.True(t, cards[2].Warning)
	assert.Equal(t, 3, cards[2].Count)
	assert.True(t, cards[4].Warning)
	assert.False(t, cards[3].Warning)

	assert.Nil(t, SummaryCards(nil))
}

func TestDetailCards(t *testing.T) {
	cards := DetailCards(models.UserReport{DaysWorked: 18, DaysLeave: 1, LateArrivals: 2, EarlyDepartures: 5})
	require.Len(t, cards, 4)
	assert.Equal(t, 18, cards[0].Count)
	assert.True(t, cards[2].Warning)
	assert.False(t, cards[3].Warning)
}

func TestSortUsers(t *testing.T) {
	rows := []models.UserReport{
		{UserID: "1", Username: "carol", DaysWorked: 3},
		{UserID: "2", Username: "Bob", DaysWorked: 5},
		{UserID: "3", Username: "alice", DaysWorked: 3},
		{UserID: "4", Username: "bob", DaysWorked: 1},
	}

	byName := SortUsers(rows, Sorting{Column: SortUsername})
	assert.Equal(t, []string{"alice", "Bob", "bob", "carol"}, usernames(byName))

	byWorkedDesc := SortUsers(rows, Sorting{Column: SortDaysWorked, Desc: true})
	assert.Equal(t, []string{"Bob", "carol", "alice", "bob"}, usernames(byWorkedDesc))

	assert.Equal(t, usernames(rows), usernames(SortUsers(rows, Sorting{})))
	assert.Equal(t, "carol", rows[0].Username, "input must not be reordered")
}

func TestSortingToggle(t *testing.T) {
	s := Sorting{}.Toggle(SortLateArrivals)
	assert.Equal(t, Sorting{Column: SortLateArrivals}, s)
	s = s.Toggle(SortLateArrivals)
	assert.Equal(t, Sorting{Column: SortLateArrivals, Desc: true}, s)
	s = s.Toggle(SortUsername)
	assert.Equal(t, Sorting{Column: SortUsername}, s)
	assert.Equal(t, Sorting{}, s.Toggle(ParseSortColumn("nope")))
	assert.Equal(t, SortDaysLeave, ParseSortColumn(" DAYS_LEAVE "))
}

func TestPaginate(t *testing.T) {
	rows := make([]models.UserReport, 25)
	for i := range rows {
		rows[i] = models.UserReport{UserID: string(rune('a' + i))}
	}

	p := Paginate(rows, 0, 0)
	assert.Equal(t, 10, p.PageSize)
	assert.Len(t, p.Rows, 10)
	assert.Equal(t, 3, p.PageCount)
	assert.False(t, p.HasPrev())
	assert.True(t, p.HasNext())

	p = Paginate(rows, 2, 10)
	assert.Len(t, p.Rows, 5)
	assert.Equal(t, "u", p.Rows[0].UserID)
	assert.False(t, p.HasNext())

	p = Paginate(rows, 9, 20)
	assert.Equal(t, 1, p.PageIndex)
	assert.Len(t, p.Rows, 5)

	p = Paginate(rows, 0, 33)
	assert.Equal(t, 10, p.PageSize)

	empty := Paginate(nil, 3, 50)
	assert.Equal(t, 0, empty.PageIndex)
	assert.Equal(t, 1, empty.PageCount)
	assert.Empty(t, empty.Rows)
}
