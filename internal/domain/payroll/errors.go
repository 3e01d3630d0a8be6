package payroll

import "errors"

var (
	ErrInvalidPeriod     = errors.New("invalid payroll period")
	ErrPeriodClosed      = errors.New("payroll period is archived")
	ErrPeriodNotClosed   = errors.New("payroll period is not archived")
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrHistoryNotFound   = errors.New("payroll history not found")
	ErrInvalidEmployee   = errors.New("invalid employee record")
	ErrInvalidLoan       = errors.New("invalid loan")
	ErrInvalidAttendance = errors.New("invalid attendance entry")
	ErrInvalidHoliday    = errors.New("invalid public holiday")
	ErrInvalidAmount     = errors.New("invalid amount")
)
