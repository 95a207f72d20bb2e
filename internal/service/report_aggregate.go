package service

import (
	"sort"
	"strings"
	"time"

	"github.com/oktel/attendance-report/internal/models"
)

const clockLayout = "15:04:05"

// BuildStats folds the attendance rows and requests of a range into the
// aggregate counters. Leave, late and early counts are distinct user-days
// inside the range taken from approved requests only.
func BuildStats(filter models.ReportFilter, records []models.AttendanceRecord, leaves []models.LeaveRequest) models.AttendanceStats {
	stats := models.AttendanceStats{From: filter.From, To: filter.To}

	for _, rec := range records {
		if rec.CheckIn != nil {
			stats.TotalCheckedIn++
		}
		switch rec.Status {
		case models.AttendanceStatusWorking:
			stats.TotalWorking++
		case models.AttendanceStatusBreak:
			stats.TotalOnBreak++
		case models.AttendanceStatusCompleted:
			stats.TotalCheckedOut++
		}
	}

	days := collectRequestDays(filter, leaves)
	for _, d := range days {
		stats.TotalOnLeave += len(d.leave)
		stats.TotalLateArrivals += len(d.late)
		stats.TotalEarlyDepartures += len(d.early)
		stats.PendingRequests += d.pending
	}
	return stats
}

// BuildReport groups rows per user. Users are ordered by username without
// regard to case, then by user id; attendance is ordered by date.
func BuildReport(filter models.ReportFilter, records []models.AttendanceRecord, leaves []models.LeaveRequest, loc *time.Location) models.AttendanceReport {
	if loc == nil {
		loc = time.UTC
	}

	users := make(map[string]*models.UserReport)
	worked := make(map[string]map[string]struct{})
	get := func(userID, username string) *models.UserReport {
		u, ok := users[userID]
		if !ok {
			u = &models.UserReport{
				UserID:        userID,
				Attendance:    []models.AttendanceEntry{},
				LeaveRequests: []models.LeaveEntry{},
			}
			users[userID] = u
		}
		if username != "" {
			u.Username = username
		}
		return u
	}

	for _, rec := range records {
		u := get(rec.UserID, rec.Username)
		entry := models.AttendanceEntry{Date: rec.Date, Status: string(rec.Status)}
		if rec.CheckIn != nil {
			entry.CheckIn = rec.CheckIn.In(loc).Format(clockLayout)
			if worked[rec.UserID] == nil {
				worked[rec.UserID] = make(map[string]struct{})
			}
			worked[rec.UserID][rec.Date] = struct{}{}
		}
		if rec.CheckOut != nil {
			out := rec.CheckOut.In(loc).Format(clockLayout)
			entry.CheckOut = &out
		}
		u.Attendance = append(u.Attendance, entry)
	}

	for _, req := range leaves {
		u := get(req.UserID, req.Username)
		dates := append([]string(nil), req.Dates...)
		sort.Strings(dates)
		u.LeaveRequests = append(u.LeaveRequests, models.LeaveEntry{
			Type:         string(req.Type),
			Dates:        dates,
			Reason:       req.Reason,
			ExpectedTime: req.ExpectedTime,
			Status:       string(req.Status),
		})
	}

	days := collectRequestDays(filter, leaves)
	out := make([]models.UserReport, 0, len(users))
	for id, u := range users {
		u.DaysWorked = len(worked[id])
		if d, ok := days[id]; ok {
			u.DaysLeave = len(d.leave)
			u.LateArrivals = len(d.late)
			u.EarlyDepartures = len(d.early)
		}
		sort.SliceStable(u.Attendance, func(i, j int) bool {
			return u.Attendance[i].Date < u.Attendance[j].Date
		})
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Username), strings.ToLower(out[j].Username)
		if a != b {
			return a < b
		}
		return out[i].UserID < out[j].UserID
	})

	return models.AttendanceReport{From: filter.From, To: filter.To, Users: out}
}

type requestDays struct {
	leave   map[string]struct{}
	late    map[string]struct{}
	early   map[string]struct{}
	pending int
}

func collectRequestDays(filter models.ReportFilter, leaves []models.LeaveRequest) map[string]*requestDays {
	byUser := make(map[string]*requestDays)
	for _, req := range leaves {
		d, ok := byUser[req.UserID]
		if !ok {
			d = &requestDays{
				leave: map[string]struct{}{},
				late:  map[string]struct{}{},
				early: map[string]struct{}{},
			}
			byUser[req.UserID] = d
		}
		inRange := req.DatesWithin(filter.From, filter.To)
		if req.Status == models.LeaveStatusPending && len(inRange) > 0 {
			d.pending++
		}
		if req.Status != models.LeaveStatusApproved {
			continue
		}
		var target map[string]struct{}
		switch {
		case req.Type.CountsAsAbsence():
			target = d.leave
		case req.Type == models.LeaveTypeLateArrival:
			target = d.late
		case req.Type == models.LeaveTypeEarlyDeparture:
			target = d.early
		default:
			continue
		}
		for _, date := range inRange {
			target[date] = struct{}{}
		}
	}
	return byUser
}
