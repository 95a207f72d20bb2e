package reportview

import "github.com/oktel/attendance-report/internal/models"

// Theme holds the badge palette. Pass it to the renderer; there is no global.
type Theme struct {
	Success string
	Warning string
	Danger  string
	Info    string
	Neutral string
}

// DefaultTheme is the stock palette.
func DefaultTheme() Theme {
	return Theme{
		Success: "#339970",
		Warning: "#f5a623",
		Danger:  "#d24b4e",
		Info:    "#1e88e5",
		Neutral: "#999",
	}
}

func (t Theme) withDefaults() Theme {
	def := DefaultTheme()
	if t.Success == "" {
		t.Success = def.Success
	}
	if t.Warning == "" {
		t.Warning = def.Warning
	}
	if t.Danger == "" {
		t.Danger = def.Danger
	}
	if t.Info == "" {
		t.Info = def.Info
	}
	if t.Neutral == "" {
		t.Neutral = def.Neutral
	}
	return t
}

// Badge is a rendered status pill. Label is always the raw status.
type Badge struct {
	Label string
	Color string
}

// StatusBadge colors status by exact match; anything unknown is neutral.
func StatusBadge(status string, theme Theme) Badge {
	theme = theme.withDefaults()
	color := theme.Neutral
	switch status {
	case string(models.LeaveStatusApproved), string(models.AttendanceStatusCompleted):
		color = theme.Success
	case string(models.LeaveStatusPending), string(models.AttendanceStatusWorking):
		color = theme.Warning
	case string(models.LeaveStatusRejected):
		color = theme.Danger
	case string(models.AttendanceStatusBreak):
		color = theme.Info
	}
	return Badge{Label: status, Color: color}
}
