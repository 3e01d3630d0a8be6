package payroll

import (
	"sort"
	"time"
)

// LocationSummary maps a work location to the fractional days credited to it.
type LocationSummary map[string]float64

// DistributeLocations credits each attended day to its recorded locations,
// splitting the day evenly when several are listed and falling back to the
// employee's home location when none is.
func DistributeLocations(employee Employee, sheet AttendanceSheet, days []time.Time) LocationSummary {
	summary := make(LocationSummary)
	for _, date := range days {
		record, ok := sheet.Worked(date, employee.ID)
		if !ok {
			continue
		}
		locations := record.Locations
		if len(locations) == 0 {
			locations = []string{employee.HomeLocation()}
		}
		share := 1 / float64(len(locations))
		for _, loc := range locations {
			summary[loc] += share
		}
	}
	return summary
}

func (s LocationSummary) TotalDays() float64 {
	var total float64
	for _, days := range s {
		total += days
	}
	return total
}

// Names returns the locations in lexical order.
func (s LocationSummary) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
