package payroll

import (
	"context"
	"fmt"
	"strings"
	"time"
)

func (s *Service) ListEmployees(ctx context.Context, tenantID string) ([]Employee, error) {
	return s.store.ListEmployees(ctx, tenantID)
}

func (s *Service) UpsertEmployee(ctx context.Context, tenantID string, employee Employee) (Employee, error) {
	normalized, err := employee.Normalize()
	if err != nil {
		return Employee{}, err
	}
	if err := s.store.UpsertEmployee(ctx, tenantID, normalized); err != nil {
		return Employee{}, err
	}
	return normalized, nil
}

func (s *Service) ListHolidays(ctx context.Context, tenantID string, from, to time.Time) ([]PublicHoliday, error) {
	return s.store.ListHolidays(ctx, tenantID, from, to)
}

func (s *Service) AddHoliday(ctx context.Context, tenantID string, holiday PublicHoliday) error {
	if holiday.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidHoliday)
	}
	holiday.Date = DateOf(holiday.Date)
	holiday.Name = strings.TrimSpace(holiday.Name)
	if err := s.ensureOpen(ctx, tenantID, PeriodOf(holiday.Date)); err != nil {
		return err
	}
	return s.store.AddHoliday(ctx, tenantID, holiday)
}

// RecordAttendance appends a raw row; rows for the same day and employee are
// merged when the period is read.
func (s *Service) RecordAttendance(ctx context.Context, tenantID string, row AttendanceRow) error {
	if err := row.Validate(); err != nil {
		return err
	}
	row.Date = DateOf(row.Date)
	if _, err := s.store.GetEmployee(ctx, tenantID, row.EmployeeID); err != nil {
		return err
	}
	if err := s.ensureOpen(ctx, tenantID, PeriodOf(row.Date)); err != nil {
		return err
	}
	return s.store.RecordAttendance(ctx, tenantID, row)
}

func (s *Service) ListLoans(ctx context.Context, tenantID string) ([]Loan, error) {
	return s.store.ListLoans(ctx, tenantID)
}

func (s *Service) CreateLoan(ctx context.Context, tenantID string, loan Loan) (Loan, error) {
	if err := loan.Validate(); err != nil {
		return Loan{}, err
	}
	if _, err := s.store.GetEmployee(ctx, tenantID, loan.EmployeeID); err != nil {
		return Loan{}, err
	}
	if err := s.ensureOpen(ctx, tenantID, loan.StartPeriod); err != nil {
		return Loan{}, err
	}
	id, err := s.store.CreateLoan(ctx, tenantID, loan)
	if err != nil {
		return Loan{}, err
	}
	loan.ID = id
	loan.CreatedAt = s.now().UTC()
	return loan, nil
}

func (s *Service) SetBonusDeduction(ctx context.Context, tenantID string, entry BonusDeduction) error {
	if entry.BonusAmount < 0 || entry.DeductionAmount < 0 {
		return fmt.Errorf("%w: bonus and deduction must not be negative", ErrInvalidAmount)
	}
	if _, err := s.store.GetEmployee(ctx, tenantID, entry.EmployeeID); err != nil {
		return err
	}
	if err := s.ensureOpen(ctx, tenantID, entry.Period); err != nil {
		return err
	}
	return s.store.SetBonusDeduction(ctx, tenantID, entry)
}

func (s *Service) PeriodSettings(ctx context.Context, tenantID string, period Period) (PeriodSettings, error) {
	if !period.Valid() {
		return PeriodSettings{}, ErrInvalidPeriod
	}
	return s.store.PeriodSettings(ctx, tenantID, period)
}

func (s *Service) SetPeriodSettings(ctx context.Context, tenantID string, settings PeriodSettings) error {
	if settings.GeneralBonusDays < 0 {
		return fmt.Errorf("%w: general bonus days must not be negative", ErrInvalidAmount)
	}
	if err := s.ensureOpen(ctx, tenantID, settings.Period); err != nil {
		return err
	}
	return s.store.SetPeriodSettings(ctx, tenantID, settings)
}

func (s *Service) ListPayslips(ctx context.Context, tenantID string, period Period) ([]Payslip, error) {
	if !period.Valid() {
		return nil, ErrInvalidPeriod
	}
	return s.store.ListPayslips(ctx, tenantID, period)
}

// Calendar classifies every day of the period. With an employee ID the
// employee's rest days are applied too.
func (s *Service) Calendar(ctx context.Context, tenantID string, period Period, employeeID string) ([]DayClass, error) {
	if !period.Valid() {
		return nil, ErrInvalidPeriod
	}
	var employee Employee
	if employeeID != "" {
		var err error
		if employee, err = s.store.GetEmployee(ctx, tenantID, employeeID); err != nil {
			return nil, err
		}
	}
	holidays, err := s.store.ListHolidays(ctx, tenantID, period.Start(), period.End())
	if err != nil {
		return nil, fmt.Errorf("load holidays: %w", err)
	}
	calendar := NewHolidayCalendar(holidays)
	days := period.Days()
	out := make([]DayClass, 0, len(days))
	for _, day := range days {
		out = append(out, ClassifyDay(day, employee, calendar))
	}
	return out, nil
}
