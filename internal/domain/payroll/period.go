package payroll

import (
	"fmt"
	"time"
)

// Period is the administrative payroll month: it runs from the 26th of the
// previous calendar month through the 25th of Month, inclusive.
type Period struct {
	Year  int
	Month time.Month
}

func NewPeriod(year int, month time.Month) Period {
	return Period{Year: year, Month: month}
}

// ParsePeriod accepts YYYY-MM.
func ParsePeriod(value string) (Period, error) {
	parsed, err := time.Parse(PeriodLayout, value)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, value)
	}
	return Period{Year: parsed.Year(), Month: parsed.Month()}, nil
}

// PeriodOf returns the payroll period a calendar day belongs to.
func PeriodOf(date time.Time) Period {
	d := DateOf(date)
	if d.Day() >= PeriodStartDay {
		next := d.AddDate(0, 0, 10)
		return Period{Year: next.Year(), Month: next.Month()}
	}
	return Period{Year: d.Year(), Month: d.Month()}
}

func (p Period) Valid() bool {
	return p.Year > 0 && p.Month >= time.January && p.Month <= time.December
}

func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) String() string {
	return p.Key()
}

// MarshalText encodes the period as YYYY-MM, the zero period as "".
func (p Period) MarshalText() ([]byte, error) {
	if p == (Period{}) {
		return []byte{}, nil
	}
	return []byte(p.Key()), nil
}

func (p *Period) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*p = Period{}
		return nil
	}
	parsed, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Start is the 26th of the previous month. time.Date normalises month 0 to
// December of the previous year.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month-1, PeriodStartDay, 0, 0, 0, 0, time.UTC)
}

func (p Period) End() time.Time {
	return time.Date(p.Year, p.Month, PeriodEndDay, 0, 0, 0, 0, time.UTC)
}

func (p Period) Days() []time.Time {
	start, end := p.Start(), p.End()
	days := make([]time.Time, 0, 31)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func (p Period) Contains(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(p.Start()) && !d.After(p.End())
}

// Index counts months since year zero; used for month arithmetic and ordering.
func (p Period) Index() int {
	return p.Year*12 + int(p.Month) - 1
}

func (p Period) AddMonths(n int) Period {
	idx := p.Index() + n
	return Period{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

func (p Period) Before(other Period) bool {
	return p.Index() < other.Index()
}

// PayrollDays returns every calendar day of the payroll period named by
// year and month, in ascending order.
func PayrollDays(year int, month time.Month) []time.Time {
	return Period{Year: year, Month: month}.Days()
}

// DateOf truncates t to its calendar day in UTC. The wall-clock date is kept
// so a local midnight never slides into the previous UTC day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func DateKey(t time.Time) string {
	return DateOf(t).Format(DateLayout)
}

func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed, nil
}
