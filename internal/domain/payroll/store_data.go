package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

func (s *Store) ListEmployees(ctx context.Context, tenantID string) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, job_title, work_location, salary_type, salary_amount, payment_source,
           rest_days, hours_per_day, is_head_office, vehicle
    FROM employees
    WHERE tenant_id = $1
    ORDER BY position, created_at, id
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	allowances, err := s.listAllowances(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for i := range employees {
		employees[i].Allowances = allowances[employees[i].ID]
	}
	return employees, nil
}

func (s *Store) GetEmployee(ctx context.Context, tenantID, employeeID string) (Employee, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, name, job_title, work_location, salary_type, salary_amount, payment_source,
           rest_days, hours_per_day, is_head_office, vehicle
    FROM employees
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, employeeID)
	employee, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	allowances, err := s.listAllowances(ctx, tenantID)
	if err != nil {
		return Employee{}, err
	}
	employee.Allowances = allowances[employee.ID]
	return employee, nil
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	var salaryType string
	err := row.Scan(&e.ID, &e.Name, &e.JobTitle, &e.WorkLocation, &salaryType, &e.SalaryAmount, &e.PaymentSource,
		&e.RestDays, &e.HoursPerDay, &e.IsHeadOffice, &e.Vehicle)
	e.SalaryType = SalaryType(salaryType)
	return e, err
}

func (s *Store) listAllowances(ctx context.Context, tenantID string) (map[string][]Allowance, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, allowance_type, amount, frequency
    FROM employee_allowances
    WHERE tenant_id = $1
    ORDER BY employee_id, allowance_type
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]Allowance{}
	for rows.Next() {
		var employeeID, allowanceType, frequency string
		var a Allowance
		if err := rows.Scan(&employeeID, &allowanceType, &a.Amount, &frequency); err != nil {
			return nil, err
		}
		a.Type = AllowanceType(allowanceType)
		a.Frequency = Frequency(frequency)
		out[employeeID] = append(out[employeeID], a)
	}
	return out, rows.Err()
}

// UpsertEmployee writes the employee and replaces its allowances. New
// employees are appended to the end of the roster.
func (s *Store) UpsertEmployee(ctx context.Context, tenantID string, e Employee) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	restDays := e.RestDays
	if restDays == nil {
		restDays = []string{}
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO employees (tenant_id, id, name, job_title, work_location, salary_type, salary_amount,
                           payment_source, rest_days, hours_per_day, is_head_office, vehicle, position)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,
            (SELECT COALESCE(MAX(position), 0) + 1 FROM employees WHERE tenant_id = $1))
    ON CONFLICT (tenant_id, id) DO UPDATE SET
      name = EXCLUDED.name,
      job_title = EXCLUDED.job_title,
      work_location = EXCLUDED.work_location,
      salary_type = EXCLUDED.salary_type,
      salary_amount = EXCLUDED.salary_amount,
      payment_source = EXCLUDED.payment_source,
      rest_days = EXCLUDED.rest_days,
      hours_per_day = EXCLUDED.hours_per_day,
      is_head_office = EXCLUDED.is_head_office,
      vehicle = EXCLUDED.vehicle,
      updated_at = now()
  `, tenantID, e.ID, e.Name, e.JobTitle, e.WorkLocation, string(e.SalaryType), e.SalaryAmount,
		e.PaymentSource, restDays, e.HoursPerDay, e.IsHeadOffice, e.Vehicle); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, "DELETE FROM employee_allowances WHERE tenant_id = $1 AND employee_id = $2", tenantID, e.ID); err != nil {
		return err
	}
	for _, a := range e.Allowances {
		if _, err := tx.Exec(ctx, `
      INSERT INTO employee_allowances (tenant_id, employee_id, allowance_type, amount, frequency)
      VALUES ($1,$2,$3,$4,$5)
    `, tenantID, e.ID, string(a.Type), a.Amount, string(a.Frequency)); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) ListHolidays(ctx context.Context, tenantID string, from, to time.Time) ([]PublicHoliday, error) {
	query := "SELECT holiday_date, name FROM public_holidays WHERE tenant_id = $1"
	args := []any{tenantID}
	if !from.IsZero() {
		query += fmt.Sprintf(" AND holiday_date >= $%d", len(args)+1)
		args = append(args, from)
	}
	if !to.IsZero() {
		query += fmt.Sprintf(" AND holiday_date <= $%d", len(args)+1)
		args = append(args, to)
	}
	query += " ORDER BY holiday_date"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []PublicHoliday
	for rows.Next() {
		var h PublicHoliday
		if err := rows.Scan(&h.Date, &h.Name); err != nil {
			return nil, err
		}
		h.Date = DateOf(h.Date)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func (s *Store) AddHoliday(ctx context.Context, tenantID string, h PublicHoliday) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO public_holidays (tenant_id, holiday_date, name)
    VALUES ($1,$2,$3)
    ON CONFLICT (tenant_id, holiday_date) DO UPDATE SET name = EXCLUDED.name
  `, tenantID, DateOf(h.Date), h.Name)
	return err
}

// ListAttendance returns the raw rows dated within the period; duplicates
// are merged by the caller.
func (s *Store) ListAttendance(ctx context.Context, tenantID string, period Period) ([]AttendanceRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT work_date, employee_id, hours, locations
    FROM attendance_entries
    WHERE tenant_id = $1 AND work_date BETWEEN $2 AND $3
    ORDER BY work_date, created_at
  `, tenantID, period.Start(), period.End())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttendanceRow
	for rows.Next() {
		var row AttendanceRow
		if err := rows.Scan(&row.Date, &row.EmployeeID, &row.Hours, &row.Locations); err != nil {
			return nil, err
		}
		row.Date = DateOf(row.Date)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) RecordAttendance(ctx context.Context, tenantID string, row AttendanceRow) error {
	locations := row.Locations
	if locations == nil {
		locations = []string{}
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO attendance_entries (tenant_id, work_date, employee_id, hours, locations)
    VALUES ($1,$2,$3,$4,$5)
  `, tenantID, DateOf(row.Date), row.EmployeeID, row.Hours, locations)
	return err
}

func (s *Store) ListLoans(ctx context.Context, tenantID string) ([]Loan, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, total_amount, installments, start_period, created_at
    FROM loans
    WHERE tenant_id = $1
    ORDER BY created_at
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []Loan
	for rows.Next() {
		var loan Loan
		var start string
		if err := rows.Scan(&loan.ID, &loan.EmployeeID, &loan.TotalAmount, &loan.Installments, &start, &loan.CreatedAt); err != nil {
			return nil, err
		}
		period, err := ParsePeriod(start)
		if err != nil {
			return nil, fmt.Errorf("loan %s: %w", loan.ID, err)
		}
		loan.StartPeriod = period
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

func (s *Store) CreateLoan(ctx context.Context, tenantID string, loan Loan) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO loans (tenant_id, employee_id, total_amount, installments, start_period)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, tenantID, loan.EmployeeID, loan.TotalAmount, loan.Installments, loan.StartPeriod.Key()).Scan(&id)
	return id, err
}

func (s *Store) BonusDeductions(ctx context.Context, tenantID string, period Period) (map[string]BonusDeduction, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, bonus_amount, deduction_amount
    FROM bonus_deductions
    WHERE tenant_id = $1 AND period = $2
  `, tenantID, period.Key())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]BonusDeduction{}
	for rows.Next() {
		entry := BonusDeduction{Period: period}
		if err := rows.Scan(&entry.EmployeeID, &entry.BonusAmount, &entry.DeductionAmount); err != nil {
			return nil, err
		}
		out[entry.EmployeeID] = entry
	}
	return out, rows.Err()
}

func (s *Store) SetBonusDeduction(ctx context.Context, tenantID string, entry BonusDeduction) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO bonus_deductions (tenant_id, employee_id, period, bonus_amount, deduction_amount)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (tenant_id, employee_id, period) DO UPDATE SET
      bonus_amount = EXCLUDED.bonus_amount,
      deduction_amount = EXCLUDED.deduction_amount,
      updated_at = now()
  `, tenantID, entry.EmployeeID, entry.Period.Key(), entry.BonusAmount, entry.DeductionAmount)
	return err
}

// PeriodSettings returns zero settings when none were saved.
func (s *Store) PeriodSettings(ctx context.Context, tenantID string, period Period) (PeriodSettings, error) {
	settings := PeriodSettings{Period: period}
	var excluded []string
	err := s.DB.QueryRow(ctx, `
    SELECT general_bonus_days, excluded_employee_ids
    FROM period_settings
    WHERE tenant_id = $1 AND period = $2
  `, tenantID, period.Key()).Scan(&settings.GeneralBonusDays, &excluded)
	if errors.Is(err, pgx.ErrNoRows) {
		return settings, nil
	}
	if err != nil {
		return PeriodSettings{}, err
	}
	settings.ExcludedEmployeeIDs = make(map[string]bool, len(excluded))
	for _, id := range excluded {
		settings.ExcludedEmployeeIDs[id] = true
	}
	return settings, nil
}

func (s *Store) SetPeriodSettings(ctx context.Context, tenantID string, settings PeriodSettings) error {
	excluded := make([]string, 0, len(settings.ExcludedEmployeeIDs))
	for id, ok := range settings.ExcludedEmployeeIDs {
		if ok {
			excluded = append(excluded, id)
		}
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO period_settings (tenant_id, period, general_bonus_days, excluded_employee_ids)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (tenant_id, period) DO UPDATE SET
      general_bonus_days = EXCLUDED.general_bonus_days,
      excluded_employee_ids = EXCLUDED.excluded_employee_ids,
      updated_at = now()
  `, tenantID, settings.Period.Key(), settings.GeneralBonusDays, excluded)
	return err
}
