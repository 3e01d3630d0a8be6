package payroll

import (
	"strings"
	"time"
)

var weekdayNames = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// Rest days keyed in the Arabic UI are accepted alongside English names.
var weekdayAliases = map[string]time.Weekday{
	"الأحد":    time.Sunday,
	"الاحد":    time.Sunday,
	"الإثنين":  time.Monday,
	"الاثنين":  time.Monday,
	"الثلاثاء": time.Tuesday,
	"الأربعاء": time.Wednesday,
	"الاربعاء": time.Wednesday,
	"الخميس":   time.Thursday,
	"الجمعة":   time.Friday,
	"السبت":    time.Saturday,
	"sun":      time.Sunday,
	"mon":      time.Monday,
	"tue":      time.Tuesday,
	"wed":      time.Wednesday,
	"thu":      time.Thursday,
	"fri":      time.Friday,
	"sat":      time.Saturday,
}

func WeekdayName(day time.Weekday) string {
	return weekdayNames[day]
}

// NormalizeWeekday maps a user supplied weekday to its canonical identifier.
func NormalizeWeekday(value string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(value))
	for _, name := range weekdayNames {
		if key == name {
			return name, true
		}
	}
	if day, ok := weekdayAliases[key]; ok {
		return weekdayNames[day], true
	}
	return "", false
}

// HolidayCalendar is an exact-date lookup of public holidays.
type HolidayCalendar map[string]string

func NewHolidayCalendar(holidays []PublicHoliday) HolidayCalendar {
	calendar := make(HolidayCalendar, len(holidays))
	for _, h := range holidays {
		calendar[DateKey(h.Date)] = h.Name
	}
	return calendar
}

func (c HolidayCalendar) IsHoliday(date time.Time) bool {
	_, ok := c[DateKey(date)]
	return ok
}

func (c HolidayCalendar) Name(date time.Time) string {
	return c[DateKey(date)]
}

type DayClass struct {
	Date        time.Time `json:"date"`
	Weekday     string    `json:"weekday"`
	IsHoliday   bool      `json:"isHoliday"`
	HolidayName string    `json:"holidayName,omitempty"`
	IsRestDay   bool      `json:"isRestDay"`
}

func (d DayClass) IsThursday() bool {
	return d.Weekday == weekdayNames[time.Thursday]
}

func ClassifyDay(date time.Time, employee Employee, holidays HolidayCalendar) DayClass {
	d := DateOf(date)
	class := DayClass{
		Date:    d,
		Weekday: WeekdayName(d.Weekday()),
	}
	if name, ok := holidays[DateKey(d)]; ok {
		class.IsHoliday = true
		class.HolidayName = name
	}
	for _, rest := range employee.RestDays {
		if name, ok := NormalizeWeekday(rest); ok && name == class.Weekday {
			class.IsRestDay = true
			break
		}
	}
	return class
}
