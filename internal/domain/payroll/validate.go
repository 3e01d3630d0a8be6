package payroll

import (
	"fmt"
	"slices"
	"strings"
)

// Normalize trims identifiers and maps rest days to canonical weekday names.
// It rejects records the calculators cannot interpret.
func (e Employee) Normalize() (Employee, error) {
	e.ID = strings.TrimSpace(e.ID)
	e.Name = strings.TrimSpace(e.Name)
	e.WorkLocation = strings.TrimSpace(e.WorkLocation)
	e.Vehicle = strings.TrimSpace(e.Vehicle)
	if e.ID == "" {
		return Employee{}, fmt.Errorf("%w: id is required", ErrInvalidEmployee)
	}
	if e.Name == "" {
		return Employee{}, fmt.Errorf("%w: name is required", ErrInvalidEmployee)
	}
	if e.SalaryType != SalaryMonthly && e.SalaryType != SalaryDaily {
		return Employee{}, fmt.Errorf("%w: unknown salary type %q", ErrInvalidEmployee, e.SalaryType)
	}
	if e.SalaryAmount <= 0 {
		return Employee{}, fmt.Errorf("%w: salary amount must be positive", ErrInvalidEmployee)
	}
	if e.HoursPerDay < 0 {
		return Employee{}, fmt.Errorf("%w: hours per day must not be negative", ErrInvalidEmployee)
	}

	restDays := make([]string, 0, len(e.RestDays))
	for _, raw := range e.RestDays {
		day, ok := NormalizeWeekday(raw)
		if !ok {
			return Employee{}, fmt.Errorf("%w: unknown rest day %q", ErrInvalidEmployee, raw)
		}
		if !slices.Contains(restDays, day) {
			restDays = append(restDays, day)
		}
	}
	e.RestDays = restDays

	seen := make(map[AllowanceType]bool, len(e.Allowances))
	for _, a := range e.Allowances {
		if !slices.Contains(AllowanceTypes, a.Type) {
			return Employee{}, fmt.Errorf("%w: unknown allowance %q", ErrInvalidEmployee, a.Type)
		}
		if a.Frequency != FrequencyMonthly && a.Frequency != FrequencyDaily {
			return Employee{}, fmt.Errorf("%w: unknown allowance frequency %q", ErrInvalidEmployee, a.Frequency)
		}
		if a.Amount < 0 {
			return Employee{}, fmt.Errorf("%w: allowance %s is negative", ErrInvalidEmployee, a.Type)
		}
		if seen[a.Type] {
			return Employee{}, fmt.Errorf("%w: allowance %s listed twice", ErrInvalidEmployee, a.Type)
		}
		seen[a.Type] = true
	}
	return e, nil
}

func (l Loan) Validate() error {
	switch {
	case strings.TrimSpace(l.EmployeeID) == "":
		return fmt.Errorf("%w: employee is required", ErrInvalidLoan)
	case l.TotalAmount <= 0:
		return fmt.Errorf("%w: amount must be positive", ErrInvalidLoan)
	case l.Installments <= 0:
		return fmt.Errorf("%w: installments must be positive", ErrInvalidLoan)
	case !l.StartPeriod.Valid():
		return fmt.Errorf("%w: start period is required", ErrInvalidLoan)
	}
	return nil
}

// MaxDailyHours bounds a single attendance entry.
const MaxDailyHours = 24

func (r AttendanceRow) Validate() error {
	switch {
	case strings.TrimSpace(r.EmployeeID) == "":
		return fmt.Errorf("%w: employee is required", ErrInvalidAttendance)
	case r.Date.IsZero():
		return fmt.Errorf("%w: date is required", ErrInvalidAttendance)
	case r.Hours < 0 || r.Hours > MaxDailyHours:
		return fmt.Errorf("%w: hours must be between 0 and %d", ErrInvalidAttendance, MaxDailyHours)
	}
	return nil
}
