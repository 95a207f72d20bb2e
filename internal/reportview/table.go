package reportview

import (
	"sort"
	"strings"

	"github.com/oktel/attendance-report/internal/models"
)

// FilterUsers keeps users whose lowercased username contains the trimmed,
// lowercased term. Order is preserved and an empty term keeps everyone.
func FilterUsers(users []models.UserReport, term string) []models.UserReport {
	needle := strings.ToLower(strings.TrimSpace(term))
	out := make([]models.UserReport, 0, len(users))
	for _, u := range users {
		if needle == "" || strings.Contains(strings.ToLower(u.Username), needle) {
			out = append(out, u)
		}
	}
	return out
}

// SortColumn names a sortable summary column.
type SortColumn string

const (
	SortNone            SortColumn = ""
	SortUsername        SortColumn = "username"
	SortDaysWorked      SortColumn = "days_worked"
	SortDaysLeave       SortColumn = "days_leave"
	SortLateArrivals    SortColumn = "late_arrivals"
	SortEarlyDepartures SortColumn = "early_departures"
)

var sortColumns = map[SortColumn]bool{
	SortUsername:        true,
	SortDaysWorked:      true,
	SortDaysLeave:       true,
	SortLateArrivals:    true,
	SortEarlyDepartures: true,
}

// ParseSortColumn maps a query value to a column; unknown values yield SortNone.
func ParseSortColumn(raw string) SortColumn {
	col := SortColumn(strings.ToLower(strings.TrimSpace(raw)))
	if !sortColumns[col] {
		return SortNone
	}
	return col
}

// Sorting is the table's sort state.
type Sorting struct {
	Column SortColumn
	Desc   bool
}

// Toggle returns the state after clicking col: a new column sorts ascending,
// the active column flips direction.
func (s Sorting) Toggle(col SortColumn) Sorting {
	if col == SortNone {
		return Sorting{}
	}
	if s.Column == col {
		return Sorting{Column: col, Desc: !s.Desc}
	}
	return Sorting{Column: col}
}

// SortUsers returns a sorted copy. The sort is stable, so ties keep the
// incoming order. Usernames compare case-insensitively.
func SortUsers(users []models.UserReport, s Sorting) []models.UserReport {
	out := make([]models.UserReport, len(users))
	copy(out, users)
	if s.Column == SortNone {
		return out
	}
	less := func(a, b models.UserReport) bool {
		switch s.Column {
		case SortUsername:
			return strings.ToLower(a.Username) < strings.ToLower(b.Username)
		case SortDaysWorked:
			return a.DaysWorked < b.DaysWorked
		case SortDaysLeave:
			return a.DaysLeave < b.DaysLeave
		case SortLateArrivals:
			return a.LateArrivals < b.LateArrivals
		default:
			return a.EarlyDepartures < b.EarlyDepartures
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if s.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// PageSizes are the selectable page sizes; the first is the default.
var PageSizes = []int{10, 20, 50, 100}

// NormalizePageSize falls back to the default for unsupported sizes.
func NormalizePageSize(size int) int {
	for _, s := range PageSizes {
		if s == size {
			return size
		}
	}
	return PageSizes[0]
}

// Page is one window of rows.
type Page struct {
	Rows      []models.UserReport
	PageIndex int
	PageSize  int
	Total     int
	PageCount int
}

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool { return p.PageIndex > 0 }

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool { return p.PageIndex+1 < p.PageCount }

// Paginate slices rows into the requested page, clamping the index into range.
func Paginate(rows []models.UserReport, pageIndex, pageSize int) Page {
	pageSize = NormalizePageSize(pageSize)
	total := len(rows)
	pageCount := (total + pageSize - 1) / pageSize
	if pageCount == 0 {
		pageCount = 1
	}
	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageIndex >= pageCount {
		pageIndex = pageCount - 1
	}
	start := pageIndex * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	return Page{
		Rows:      rows[start:end],
		PageIndex: pageIndex,
		PageSize:  pageSize,
		Total:     total,
		PageCount: pageCount,
	}
}
