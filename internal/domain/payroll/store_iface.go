package payroll

import (
	"context"
	"time"
)

type StoreAPI interface {
	ListEmployees(ctx context.Context, tenantID string) ([]Employee, error)
	GetEmployee(ctx context.Context, tenantID, employeeID string) (Employee, error)
	UpsertEmployee(ctx context.Context, tenantID string, employee Employee) error
	ListHolidays(ctx context.Context, tenantID string, from, to time.Time) ([]PublicHoliday, error)
	AddHoliday(ctx context.Context, tenantID string, holiday PublicHoliday) error
	ListAttendance(ctx context.Context, tenantID string, period Period) ([]AttendanceRow, error)
	RecordAttendance(ctx context.Context, tenantID string, row AttendanceRow) error
	ListLoans(ctx context.Context, tenantID string) ([]Loan, error)
	CreateLoan(ctx context.Context, tenantID string, loan Loan) (string, error)
	BonusDeductions(ctx context.Context, tenantID string, period Period) (map[string]BonusDeduction, error)
	SetBonusDeduction(ctx context.Context, tenantID string, entry BonusDeduction) error
	PeriodSettings(ctx context.Context, tenantID string, period Period) (PeriodSettings, error)
	SetPeriodSettings(ctx context.Context, tenantID string, settings PeriodSettings) error
	History(ctx context.Context, tenantID string, period Period) (SealedHistory, error)
	ArchiveHistory(ctx context.Context, tenantID string, entry SealedHistory) error
	DeleteHistory(ctx context.Context, tenantID string, period Period) error
	ListHistory(ctx context.Context, tenantID string) ([]HistoryEntry, error)
	RecordPayslip(ctx context.Context, tenantID string, payslip Payslip) (string, error)
	ListPayslips(ctx context.Context, tenantID string, period Period) ([]Payslip, error)
}
