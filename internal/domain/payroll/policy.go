package payroll

// Policy carries the rate constants and thresholds of the overtime rules, so
// site variations are expressed as data instead of forked calculators.
type Policy struct {
	WeekdayRate float64
	RestDayRate float64

	// HolidayFlatHours is credited to monthly-paid staff who attend a
	// public holiday, independent of the hours worked.
	HolidayFlatHours float64

	ThursdayHours           float64
	ThursdayHeadOfficeHours float64

	DefaultHoursPerDay float64
	HourlyDivisor      float64
	MonthDays          float64
}

func DefaultPolicy() Policy {
	return Policy{
		WeekdayRate:             1.5,
		RestDayRate:             2.0,
		HolidayFlatHours:        16,
		ThursdayHours:           4,
		ThursdayHeadOfficeHours: 3,
		DefaultHoursPerDay:      8,
		HourlyDivisor:           8,
		MonthDays:               30,
	}
}

// withDefaults fills zero fields from DefaultPolicy so a partially
// configured policy never divides by zero.
func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.WeekdayRate <= 0 {
		p.WeekdayRate = d.WeekdayRate
	}
	if p.RestDayRate <= 0 {
		p.RestDayRate = d.RestDayRate
	}
	if p.HolidayFlatHours < 0 {
		p.HolidayFlatHours = d.HolidayFlatHours
	}
	if p.ThursdayHours <= 0 {
		p.ThursdayHours = d.ThursdayHours
	}
	if p.ThursdayHeadOfficeHours <= 0 {
		p.ThursdayHeadOfficeHours = d.ThursdayHeadOfficeHours
	}
	if p.DefaultHoursPerDay <= 0 {
		p.DefaultHoursPerDay = d.DefaultHoursPerDay
	}
	if p.HourlyDivisor <= 0 {
		p.HourlyDivisor = d.HourlyDivisor
	}
	if p.MonthDays <= 0 {
		p.MonthDays = d.MonthDays
	}
	return p
}

// DailyRate is the salary for daily-paid staff, salary/MonthDays otherwise.
func (p Policy) DailyRate(e Employee) float64 {
	p = p.withDefaults()
	if e.IsDaily() {
		return e.SalaryAmount
	}
	return e.SalaryAmount / p.MonthDays
}

func (p Policy) HourlyRate(e Employee) float64 {
	p = p.withDefaults()
	return p.DailyRate(e) / p.HourlyDivisor
}

func (p Policy) StandardHours(e Employee) float64 {
	if e.HoursPerDay > 0 {
		return e.HoursPerDay
	}
	return p.withDefaults().DefaultHoursPerDay
}

func (p Policy) ThursdayThreshold(e Employee) float64 {
	p = p.withDefaults()
	if e.IsHeadOffice {
		return p.ThursdayHeadOfficeHours
	}
	return p.ThursdayHours
}
