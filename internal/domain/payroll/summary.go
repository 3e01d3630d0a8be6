package payroll

import "time"

// Summarize computes one employee's attendance days and overtime buckets
// over days. Each day is evaluated independently; the first matching rule
// wins: rest day on a holiday, holiday (monthly-paid), rest day, Thursday,
// ordinary weekday.
func (p Policy) Summarize(employee Employee, sheet AttendanceSheet, holidays HolidayCalendar, days []time.Time) AttendanceSummary {
	p = p.withDefaults()
	summary := AttendanceSummary{EmployeeID: employee.ID}
	hourly := p.HourlyRate(employee)

	for _, date := range days {
		record, ok := sheet.Worked(date, employee.ID)
		if !ok {
			continue
		}
		summary.ActualAttendanceDays++
		hours := record.Hours
		class := ClassifyDay(date, employee, holidays)

		switch {
		case class.IsHoliday && class.IsRestDay:
			summary.RestDayOvertime.add(hours, hours*p.RestDayRate*hourly)
		case class.IsHoliday && !employee.IsDaily():
			summary.HolidayOvertime.add(p.HolidayFlatHours, p.HolidayFlatHours*hourly)
		case class.IsRestDay:
			summary.RestDayOvertime.add(hours, hours*p.RestDayRate*hourly)
		case class.IsThursday():
			extra := overtimeHours(hours, p.ThursdayThreshold(employee))
			summary.ThursdayOvertime.add(extra, extra*p.WeekdayRate*hourly)
		default:
			extra := overtimeHours(hours, p.StandardHours(employee))
			summary.WeekdayOvertime.add(extra, extra*p.WeekdayRate*hourly)
		}
	}

	summary.TotalOvertimeValue = summary.WeekdayOvertime.CalculatedValue +
		summary.ThursdayOvertime.CalculatedValue +
		summary.RestDayOvertime.CalculatedValue +
		summary.HolidayOvertime.CalculatedValue
	return summary
}

func overtimeHours(worked, standard float64) float64 {
	return max(0, worked-standard)
}
