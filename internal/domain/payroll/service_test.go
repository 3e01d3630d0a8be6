package payroll

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu         sync.Mutex
	employees  []Employee
	holidays   []PublicHoliday
	attendance []AttendanceRow
	loans      []Loan
	bonuses    map[string]BonusDeduction
	settings   map[string]PeriodSettings
	history    map[string]SealedHistory
	payslips   map[string]Payslip
	failWith   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		bonuses:  map[string]BonusDeduction{},
		settings: map[string]PeriodSettings{},
		history:  map[string]SealedHistory{},
		payslips: map[string]Payslip{},
	}
}

func (m *memoryStore) ListEmployees(_ context.Context, _ string) ([]Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	return slices.Clone(m.employees), nil
}

func (m *memoryStore) GetEmployee(_ context.Context, _ string, employeeID string) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.employees {
		if e.ID == employeeID {
			return e, nil
		}
	}
	return Employee{}, ErrEmployeeNotFound
}

func (m *memoryStore) UpsertEmployee(_ context.Context, _ string, employee Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.employees {
		if e.ID == employee.ID {
			m.employees[i] = employee
			return nil
		}
	}
	m.employees = append(m.employees, employee)
	return nil
}

func (m *memoryStore) ListHolidays(_ context.Context, _ string, from, to time.Time) ([]PublicHoliday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PublicHoliday
	for _, h := range m.holidays {
		if (!from.IsZero() && h.Date.Before(from)) || (!to.IsZero() && h.Date.After(to)) {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func (m *memoryStore) AddHoliday(_ context.Context, _ string, holiday PublicHoliday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays = append(m.holidays, holiday)
	return nil
}

func (m *memoryStore) ListAttendance(_ context.Context, _ string, period Period) ([]AttendanceRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AttendanceRow
	for _, row := range m.attendance {
		if period.Contains(row.Date) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memoryStore) RecordAttendance(_ context.Context, _ string, row AttendanceRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attendance = append(m.attendance, row)
	return nil
}

func (m *memoryStore) ListLoans(_ context.Context, _ string) ([]Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.loans), nil
}

func (m *memoryStore) CreateLoan(_ context.Context, _ string, loan Loan) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loan.ID = fmt.Sprintf("loan-%d", len(m.loans)+1)
	m.loans = append(m.loans, loan)
	return loan.ID, nil
}

func (m *memoryStore) BonusDeductions(_ context.Context, _ string, period Period) (map[string]BonusDeduction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]BonusDeduction{}
	for _, entry := range m.bonuses {
		if entry.Period == period {
			out[entry.EmployeeID] = entry
		}
	}
	return out, nil
}

func (m *memoryStore) SetBonusDeduction(_ context.Context, _ string, entry BonusDeduction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bonuses[entry.Period.Key()+"/"+entry.EmployeeID] = entry
	return nil
}

func (m *memoryStore) PeriodSettings(_ context.Context, _ string, period Period) (PeriodSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if settings, ok := m.settings[period.Key()]; ok {
		return settings, nil
	}
	return PeriodSettings{Period: period}, nil
}

func (m *memoryStore) SetPeriodSettings(_ context.Context, _ string, settings PeriodSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[settings.Period.Key()] = settings
	return nil
}

func (m *memoryStore) History(_ context.Context, _ string, period Period) (SealedHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.history[period.Key()]
	if !ok {
		return SealedHistory{}, ErrHistoryNotFound
	}
	return entry, nil
}

func (m *memoryStore) ArchiveHistory(_ context.Context, _ string, entry SealedHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.history[entry.Period.Key()]; ok {
		return ErrPeriodClosed
	}
	m.history[entry.Period.Key()] = entry
	return nil
}

func (m *memoryStore) DeleteHistory(_ context.Context, _ string, period Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.history[period.Key()]; !ok {
		return ErrHistoryNotFound
	}
	delete(m.history, period.Key())
	return nil
}

func (m *memoryStore) ListHistory(_ context.Context, _ string) ([]HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []HistoryEntry
	for _, entry := range m.history {
		out = append(out, HistoryEntry{Period: entry.Period, ArchivedBy: entry.ArchivedBy, ArchivedAt: entry.ArchivedAt})
	}
	return out, nil
}

func (m *memoryStore) RecordPayslip(_ context.Context, _ string, payslip Payslip) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payslip.ID = payslip.Period + "/" + payslip.EmployeeID
	m.payslips[payslip.ID] = payslip
	return payslip.ID, nil
}

func (m *memoryStore) ListPayslips(_ context.Context, _ string, period Period) ([]Payslip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Payslip
	for _, p := range m.payslips {
		if p.Period == period.Key() {
			out = append(out, p)
		}
	}
	return out, nil
}

// xorSealer flips every byte; enough to prove archives pass through it.
type xorSealer struct{}

func (xorSealer) Configured() bool { return true }

func (xorSealer) Seal(plain []byte) ([]byte, error) {
	out := make([]byte, len(plain))
	for i, b := range plain {
		out[i] = b ^ 0xff
	}
	return out, nil
}

func (x xorSealer) Open(sealed []byte) ([]byte, error) {
	return x.Seal(sealed)
}

type recordingJobs struct {
	mu   sync.Mutex
	jobs []func(context.Context) (any, error)
	kind []string
}

func (r *recordingJobs) Enqueue(jobType, _ string, run func(context.Context) (any, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kind = append(r.kind, jobType)
	r.jobs = append(r.jobs, run)
}

const tenant = "tenant-1"

var march = NewPeriod(2025, time.March)

func seededService(t *testing.T) (*Service, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	store.employees = []Employee{
		{ID: "m", Name: "Monthly", SalaryType: SalaryMonthly, SalaryAmount: 3000, HoursPerDay: 8, RestDays: []string{"friday"}, WorkLocation: "HQ"},
		{ID: "d", Name: "Daily", SalaryType: SalaryDaily, SalaryAmount: 200, HoursPerDay: 8, WorkLocation: "Yard", Vehicle: "TRK-1"},
	}
	store.attendance = []AttendanceRow{
		{Date: date(2025, time.March, 3), EmployeeID: "m", Hours: 6},
		{Date: date(2025, time.March, 3), EmployeeID: "m", Hours: 4, Locations: []string{"Site A"}},
		{Date: date(2025, time.March, 3), EmployeeID: "d", Hours: 8},
		{Date: date(2025, time.March, 4), EmployeeID: "d", Hours: 8},
		{Date: date(2025, time.March, 26), EmployeeID: "d", Hours: 8},
	}
	svc := NewService(store, DefaultPolicy(), xorSealer{})
	svc.PayslipDir = t.TempDir()
	svc.now = func() time.Time { return time.Date(2025, time.March, 28, 10, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestServiceReportMergesDuplicateRows(t *testing.T) {
	svc, _ := seededService(t)

	report, err := svc.Report(context.Background(), tenant, march)
	require.NoError(t, err)
	require.Len(t, report.Lines, 2)

	monthly := report.Lines[0]
	assert.Equal(t, "m", monthly.EmployeeID)
	assert.Equal(t, 1, monthly.TotalWorkDays)
	assert.InDelta(t, 2*1.5*12.5, monthly.TotalOvertimePay, eps)

	daily := report.Lines[1]
	assert.Equal(t, 2, daily.TotalWorkDays)
	assert.InDelta(t, 400, daily.BasePay, eps)
	assert.False(t, report.Closed)
}

func TestServiceReportRejectsInvalidPeriod(t *testing.T) {
	svc, _ := seededService(t)
	_, err := svc.Report(context.Background(), tenant, Period{Year: 2025, Month: 13})
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestServiceReportPropagatesStoreErrors(t *testing.T) {
	svc, store := seededService(t)
	store.failWith = errors.New("connection reset")
	_, err := svc.Report(context.Background(), tenant, march)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load employees")
}

func TestServiceArchiveFreezesReport(t *testing.T) {
	ctx := context.Background()
	svc, store := seededService(t)

	history, err := svc.Archive(ctx, tenant, march, "admin")
	require.NoError(t, err)
	assert.True(t, history.Report.Closed)
	assert.Equal(t, "admin", history.ArchivedBy)
	assert.NotContains(t, string(store.history[march.Key()].Payload), `"lines"`)

	store.employees[0].SalaryAmount = 9000
	report, err := svc.Report(ctx, tenant, march)
	require.NoError(t, err)
	assert.True(t, report.Closed)
	assert.InDelta(t, 3000, report.Lines[0].BasePay, eps)

	_, err = svc.Archive(ctx, tenant, march, "admin")
	assert.ErrorIs(t, err, ErrPeriodClosed)
}

func TestServiceRejectsEditsToClosedPeriod(t *testing.T) {
	ctx := context.Background()
	svc, _ := seededService(t)
	_, err := svc.Archive(ctx, tenant, march, "admin")
	require.NoError(t, err)

	err = svc.RecordAttendance(ctx, tenant, AttendanceRow{Date: date(2025, time.March, 10), EmployeeID: "m", Hours: 8})
	assert.ErrorIs(t, err, ErrPeriodClosed)

	err = svc.SetBonusDeduction(ctx, tenant, BonusDeduction{EmployeeID: "m", Period: march, BonusAmount: 10})
	assert.ErrorIs(t, err, ErrPeriodClosed)

	err = svc.SetPeriodSettings(ctx, tenant, PeriodSettings{Period: march, GeneralBonusDays: 1})
	assert.ErrorIs(t, err, ErrPeriodClosed)

	_, err = svc.CreateLoan(ctx, tenant, Loan{EmployeeID: "m", TotalAmount: 300, Installments: 3, StartPeriod: march})
	assert.ErrorIs(t, err, ErrPeriodClosed)

	err = svc.AddHoliday(ctx, tenant, PublicHoliday{Date: date(2025, time.March, 12), Name: "Holiday"})
	assert.ErrorIs(t, err, ErrPeriodClosed)

	// Days from the 26th on belong to the April period, which is still open.
	err = svc.RecordAttendance(ctx, tenant, AttendanceRow{Date: date(2025, time.March, 27), EmployeeID: "m", Hours: 8})
	assert.NoError(t, err)
}

func TestServiceReopen(t *testing.T) {
	ctx := context.Background()
	svc, store := seededService(t)

	assert.ErrorIs(t, svc.Reopen(ctx, tenant, march), ErrPeriodNotClosed)

	_, err := svc.Archive(ctx, tenant, march, "admin")
	require.NoError(t, err)
	require.NoError(t, svc.Reopen(ctx, tenant, march))

	store.employees[0].SalaryAmount = 9000
	report, err := svc.Report(ctx, tenant, march)
	require.NoError(t, err)
	assert.False(t, report.Closed)
	assert.InDelta(t, 9000, report.Lines[0].BasePay, eps)
}

func TestServiceArchiveQueuesPayslips(t *testing.T) {
	ctx := context.Background()
	svc, store := seededService(t)
	jobs := &recordingJobs{}
	svc.Jobs = jobs

	_, err := svc.Archive(ctx, tenant, march, "admin")
	require.NoError(t, err)
	require.Len(t, jobs.jobs, 1)
	assert.Equal(t, JobPayslips, jobs.kind[0])

	details, err := jobs.jobs[0](ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"period": "2025-03", "generated": 2}, details)

	payslips, err := svc.ListPayslips(ctx, tenant, march)
	require.NoError(t, err)
	require.Len(t, payslips, 2)
	for _, p := range store.payslips {
		assert.FileExists(t, p.FileURL)
		assert.Contains(t, p.FileURL, ".pdf.enc")
	}
}

func TestWritePayslipKeepsDistinctIDsApart(t *testing.T) {
	svc := NewService(newMemoryStore(), DefaultPolicy(), nil)
	dir := t.TempDir()

	first, err := svc.writePayslip(dir, "a/b", []byte("first"))
	require.NoError(t, err)
	second, err := svc.writePayslip(dir, "c/b", []byte("second"))
	require.NoError(t, err)
	traversal, err := svc.writePayslip(dir, "../../etc/b", []byte("third"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	for _, path := range []string{first, second, traversal} {
		assert.Equal(t, dir, filepath.Dir(path))
		assert.FileExists(t, path)
		assert.True(t, strings.HasSuffix(path, ".pdf"))
	}

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
	data, err = os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	assert.Equal(t, payslipFileName("a/b"), payslipFileName("a/b"))
	assert.NotEqual(t, payslipFileName("a_b"), payslipFileName("a/b"))
}

func TestServiceEmployeeBreakdown(t *testing.T) {
	ctx := context.Background()
	svc, _ := seededService(t)

	breakdown, err := svc.EmployeeBreakdown(ctx, tenant, march, "m")
	require.NoError(t, err)
	assert.Equal(t, 1, breakdown.Summary.ActualAttendanceDays)
	assert.InDelta(t, 1, breakdown.Locations["Site A"], eps)
	require.Len(t, breakdown.Distribution.Locations, 1)
	assert.Equal(t, "Site A", breakdown.Distribution.Locations[0].Location)
	assert.Nil(t, breakdown.Loan)

	_, err = svc.EmployeeBreakdown(ctx, tenant, march, "ghost")
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestServiceCreateLoanFlowsIntoReport(t *testing.T) {
	ctx := context.Background()
	svc, _ := seededService(t)

	loan, err := svc.CreateLoan(ctx, tenant, Loan{EmployeeID: "m", TotalAmount: 600, Installments: 3, StartPeriod: march})
	require.NoError(t, err)
	assert.NotEmpty(t, loan.ID)

	report, err := svc.Report(ctx, tenant, march)
	require.NoError(t, err)
	assert.InDelta(t, 200, report.Lines[0].LoanInstallment, eps)

	_, err = svc.CreateLoan(ctx, tenant, Loan{EmployeeID: "m", TotalAmount: 600, StartPeriod: march})
	assert.ErrorIs(t, err, ErrInvalidLoan)
	_, err = svc.CreateLoan(ctx, tenant, Loan{EmployeeID: "ghost", TotalAmount: 600, Installments: 2, StartPeriod: march})
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestServiceRecordAttendanceValidates(t *testing.T) {
	ctx := context.Background()
	svc, _ := seededService(t)

	err := svc.RecordAttendance(ctx, tenant, AttendanceRow{Date: date(2025, time.March, 5), EmployeeID: "m", Hours: 25})
	assert.ErrorIs(t, err, ErrInvalidAttendance)
	err = svc.RecordAttendance(ctx, tenant, AttendanceRow{EmployeeID: "m", Hours: 8})
	assert.ErrorIs(t, err, ErrInvalidAttendance)
	err = svc.RecordAttendance(ctx, tenant, AttendanceRow{Date: date(2025, time.March, 5), EmployeeID: "ghost", Hours: 8})
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestServiceUpsertEmployeeNormalizesRestDays(t *testing.T) {
	ctx := context.Background()
	svc, store := seededService(t)

	saved, err := svc.UpsertEmployee(ctx, tenant, Employee{
		ID: " n ", Name: "New", SalaryType: SalaryDaily, SalaryAmount: 150,
		RestDays: []string{"الجمعة", "Fri", "saturday"},
	})
	require.NoError(t, err)
	assert.Equal(t, "n", saved.ID)
	assert.Equal(t, []string{"friday", "saturday"}, saved.RestDays)
	assert.Len(t, store.employees, 3)

	_, err = svc.UpsertEmployee(ctx, tenant, Employee{ID: "x", Name: "X", SalaryType: "weekly"})
	assert.ErrorIs(t, err, ErrInvalidEmployee)
	_, err = svc.UpsertEmployee(ctx, tenant, Employee{ID: "x", Name: "X", SalaryType: SalaryDaily, SalaryAmount: 100, RestDays: []string{"someday"}})
	assert.ErrorIs(t, err, ErrInvalidEmployee)
	_, err = svc.UpsertEmployee(ctx, tenant, Employee{ID: "x", Name: "X", SalaryType: SalaryMonthly, SalaryAmount: 0})
	assert.ErrorIs(t, err, ErrInvalidEmployee)
	assert.Len(t, store.employees, 3)
}

func TestServiceExportRegister(t *testing.T) {
	ctx := context.Background()
	svc, _ := seededService(t)

	var csvOut bytes.Buffer
	require.NoError(t, svc.ExportRegisterCSV(ctx, tenant, march, &csvOut))
	lines := bytes.Split(bytes.TrimSpace(csvOut.Bytes()), []byte("\n"))
	require.Len(t, lines, 4)
	assert.True(t, bytes.HasPrefix(lines[0], []byte("employee_id,name")))
	assert.True(t, bytes.HasPrefix(lines[3], []byte("TOTAL,2 employees")))

	var xlsx bytes.Buffer
	require.NoError(t, svc.ExportRegister(ctx, tenant, march, &xlsx))
	assert.True(t, bytes.HasPrefix(xlsx.Bytes(), []byte("PK")))
}

func TestServicePayslip(t *testing.T) {
	ctx := context.Background()
	svc, _ := seededService(t)

	pdf, err := svc.Payslip(ctx, tenant, march, "d")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, err = svc.Payslip(ctx, tenant, march, "ghost")
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestServiceArchiveDue(t *testing.T) {
	svc, store := seededService(t)
	ctx := context.Background()
	now := time.Date(2025, time.March, 28, 1, 0, 0, 0, time.UTC)

	details, err := svc.ArchiveDue(ctx, tenant, now)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"period": "2025-03", "archived": true, "employees": 2}, details)
	assert.Equal(t, SystemActor, store.history[march.Key()].ArchivedBy)

	details, err = svc.ArchiveDue(ctx, tenant, now)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"period": "2025-03", "archived": false}, details)
}

func TestServiceCalendar(t *testing.T) {
	svc, store := seededService(t)
	store.holidays = []PublicHoliday{{Date: date(2025, time.March, 20), Name: "Spring"}}

	days, err := svc.Calendar(context.Background(), tenant, march, "m")
	require.NoError(t, err)
	require.Len(t, days, 28)
	assert.Equal(t, "2025-02-26", DateKey(days[0].Date))
	assert.Equal(t, "2025-03-25", DateKey(days[len(days)-1].Date))

	byKey := map[string]DayClass{}
	for _, d := range days {
		byKey[DateKey(d.Date)] = d
	}
	assert.True(t, byKey["2025-03-20"].IsHoliday)
	assert.Equal(t, "Spring", byKey["2025-03-20"].HolidayName)
	assert.True(t, byKey["2025-03-07"].IsRestDay)

	_, err = svc.Calendar(context.Background(), tenant, march, "ghost")
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}
