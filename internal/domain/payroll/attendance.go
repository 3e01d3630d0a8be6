package payroll

import (
	"slices"
	"strings"
	"time"
)

// AttendanceSheet is keyed by date (YYYY-MM-DD) then employee id and holds
// at most one merged record per pair.
type AttendanceSheet map[string]map[string]AttendanceDay

// MergeAttendance folds raw rows into a sheet: hours are summed and
// locations unioned in first-seen order. Negative hours count as zero.
func MergeAttendance(rows []AttendanceRow) AttendanceSheet {
	sheet := make(AttendanceSheet)
	for _, row := range rows {
		sheet.Add(row)
	}
	return sheet
}

func (s AttendanceSheet) Add(row AttendanceRow) {
	if row.EmployeeID == "" || row.Date.IsZero() {
		return
	}
	key := DateKey(row.Date)
	byEmployee, ok := s[key]
	if !ok {
		byEmployee = make(map[string]AttendanceDay)
		s[key] = byEmployee
	}
	day := byEmployee[row.EmployeeID]
	day.Hours += clampHours(row.Hours)
	for _, loc := range row.Locations {
		loc = strings.TrimSpace(loc)
		if loc == "" || slices.Contains(day.Locations, loc) {
			continue
		}
		day.Locations = append(day.Locations, loc)
	}
	byEmployee[row.EmployeeID] = day
}

func (s AttendanceSheet) Lookup(date time.Time, employeeID string) (AttendanceDay, bool) {
	byEmployee, ok := s[DateKey(date)]
	if !ok {
		return AttendanceDay{}, false
	}
	day, ok := byEmployee[employeeID]
	return day, ok
}

// Worked reports the hours for a day the employee attended.
func (s AttendanceSheet) Worked(date time.Time, employeeID string) (AttendanceDay, bool) {
	day, ok := s.Lookup(date, employeeID)
	if !ok || clampHours(day.Hours) <= 0 {
		return AttendanceDay{}, false
	}
	day.Hours = clampHours(day.Hours)
	return day, true
}

func clampHours(hours float64) float64 {
	if hours < 0 {
		return 0
	}
	return hours
}
