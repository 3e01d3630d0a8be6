package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Sealer protects archives and payslip files at rest. An unconfigured
// sealer passes data through unchanged.
type Sealer interface {
	Configured() bool
	Seal(plain []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// Enqueuer schedules background work; jobs.Service satisfies it.
type Enqueuer interface {
	Enqueue(jobType, tenantID string, run func(context.Context) (any, error))
}

type Service struct {
	store  StoreAPI
	policy Policy
	sealer Sealer

	// Jobs receives the payslip run queued after an archive. Nil skips it.
	Jobs       Enqueuer
	PayslipDir string

	now func() time.Time
}

func NewService(store StoreAPI, policy Policy, sealer Sealer) *Service {
	return &Service{
		store:      store,
		policy:     policy.withDefaults(),
		sealer:     sealer,
		PayslipDir: "storage/payslips",
		now:        time.Now,
	}
}

func (s *Service) Policy() Policy {
	return s.policy
}

// Inputs loads the snapshot every calculator of a period reads from.
func (s *Service) Inputs(ctx context.Context, tenantID string, period Period) (Inputs, error) {
	if !period.Valid() {
		return Inputs{}, ErrInvalidPeriod
	}
	employees, err := s.store.ListEmployees(ctx, tenantID)
	if err != nil {
		return Inputs{}, fmt.Errorf("load employees: %w", err)
	}
	rows, err := s.store.ListAttendance(ctx, tenantID, period)
	if err != nil {
		return Inputs{}, fmt.Errorf("load attendance: %w", err)
	}
	holidays, err := s.store.ListHolidays(ctx, tenantID, period.Start(), period.End())
	if err != nil {
		return Inputs{}, fmt.Errorf("load holidays: %w", err)
	}
	loans, err := s.store.ListLoans(ctx, tenantID)
	if err != nil {
		return Inputs{}, fmt.Errorf("load loans: %w", err)
	}
	bonuses, err := s.store.BonusDeductions(ctx, tenantID, period)
	if err != nil {
		return Inputs{}, fmt.Errorf("load bonuses: %w", err)
	}
	settings, err := s.store.PeriodSettings(ctx, tenantID, period)
	if err != nil {
		return Inputs{}, fmt.Errorf("load period settings: %w", err)
	}

	return Inputs{
		Period:     period,
		Employees:  employees,
		Attendance: MergeAttendance(rows),
		Holidays:   NewHolidayCalendar(holidays),
		Loans:      loans,
		Bonuses:    bonuses,
		Settings:   settings,
	}, nil
}

// Report returns the archived report of a closed period, otherwise a report
// computed from the current data.
func (s *Service) Report(ctx context.Context, tenantID string, period Period) (Report, error) {
	archived, err := s.archived(ctx, tenantID, period)
	if err == nil {
		return archived.Report, nil
	}
	if !errors.Is(err, ErrHistoryNotFound) {
		return Report{}, err
	}
	in, err := s.Inputs(ctx, tenantID, period)
	if err != nil {
		return Report{}, err
	}
	return s.policy.BuildReport(in), nil
}

// EmployeeBreakdown recomputes one employee's views from the current data.
func (s *Service) EmployeeBreakdown(ctx context.Context, tenantID string, period Period, employeeID string) (EmployeeBreakdown, error) {
	in, err := s.Inputs(ctx, tenantID, period)
	if err != nil {
		return EmployeeBreakdown{}, err
	}
	for _, employee := range in.Employees {
		if employee.ID == employeeID {
			return s.policy.Breakdown(in, employee), nil
		}
	}
	return EmployeeBreakdown{}, ErrEmployeeNotFound
}

func (s *Service) Closed(ctx context.Context, tenantID string, period Period) (bool, error) {
	if !period.Valid() {
		return false, ErrInvalidPeriod
	}
	_, err := s.store.History(ctx, tenantID, period)
	if errors.Is(err, ErrHistoryNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Archive freezes the period's report. Once archived the period is closed:
// reports are served from the archive and its inputs can no longer change.
func (s *Service) Archive(ctx context.Context, tenantID string, period Period, actorID string) (HistoricalPayroll, error) {
	closed, err := s.Closed(ctx, tenantID, period)
	if err != nil {
		return HistoricalPayroll{}, err
	}
	if closed {
		return HistoricalPayroll{}, ErrPeriodClosed
	}
	in, err := s.Inputs(ctx, tenantID, period)
	if err != nil {
		return HistoricalPayroll{}, err
	}

	report := s.policy.BuildReport(in)
	report.Closed = true
	history := HistoricalPayroll{
		Period:     period,
		Report:     report,
		ArchivedBy: actorID,
		ArchivedAt: s.now().UTC(),
	}

	payload, err := json.Marshal(history)
	if err != nil {
		return HistoricalPayroll{}, err
	}
	if s.sealer != nil {
		if payload, err = s.sealer.Seal(payload); err != nil {
			return HistoricalPayroll{}, fmt.Errorf("seal archive: %w", err)
		}
	}
	if err := s.store.ArchiveHistory(ctx, tenantID, SealedHistory{
		Period:     period,
		Payload:    payload,
		ArchivedBy: actorID,
		ArchivedAt: history.ArchivedAt,
	}); err != nil {
		return HistoricalPayroll{}, err
	}

	if s.Jobs != nil {
		s.Jobs.Enqueue(JobPayslips, tenantID, func(ctx context.Context) (any, error) {
			return s.GeneratePayslips(ctx, tenantID, period)
		})
	}
	slog.Info("payroll period archived", "tenantId", tenantID, "period", period.Key(), "employees", len(report.Lines))
	return history, nil
}

// ArchiveDue archives the last period that ended before now, if it is still
// open. The scheduler runs it per tenant.
func (s *Service) ArchiveDue(ctx context.Context, tenantID string, now time.Time) (any, error) {
	period := PeriodOf(now).AddMonths(-1)
	closed, err := s.Closed(ctx, tenantID, period)
	if err != nil {
		return nil, err
	}
	if closed {
		return map[string]any{"period": period.Key(), "archived": false}, nil
	}
	history, err := s.Archive(ctx, tenantID, period, SystemActor)
	if err != nil {
		return nil, err
	}
	return map[string]any{"period": period.Key(), "archived": true, "employees": len(history.Report.Lines)}, nil
}

// Reopen removes the archive so the period can be edited and recomputed.
func (s *Service) Reopen(ctx context.Context, tenantID string, period Period) error {
	if !period.Valid() {
		return ErrInvalidPeriod
	}
	err := s.store.DeleteHistory(ctx, tenantID, period)
	if errors.Is(err, ErrHistoryNotFound) {
		return ErrPeriodNotClosed
	}
	return err
}

func (s *Service) archived(ctx context.Context, tenantID string, period Period) (HistoricalPayroll, error) {
	if !period.Valid() {
		return HistoricalPayroll{}, ErrInvalidPeriod
	}
	entry, err := s.store.History(ctx, tenantID, period)
	if err != nil {
		return HistoricalPayroll{}, err
	}
	payload := entry.Payload
	if s.sealer != nil {
		if payload, err = s.sealer.Open(payload); err != nil {
			return HistoricalPayroll{}, fmt.Errorf("open archive %s: %w", period, err)
		}
	}
	var history HistoricalPayroll
	if err := json.Unmarshal(payload, &history); err != nil {
		return HistoricalPayroll{}, fmt.Errorf("decode archive %s: %w", period, err)
	}
	history.Report.Closed = true
	return history, nil
}

func (s *Service) History(ctx context.Context, tenantID string) ([]HistoryEntry, error) {
	return s.store.ListHistory(ctx, tenantID)
}

// ensureOpen rejects edits that would change an archived period.
func (s *Service) ensureOpen(ctx context.Context, tenantID string, period Period) error {
	closed, err := s.Closed(ctx, tenantID, period)
	if err != nil {
		return err
	}
	if closed {
		return fmt.Errorf("%w: %s", ErrPeriodClosed, period)
	}
	return nil
}
