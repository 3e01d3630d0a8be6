package payroll

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const (
	registerSheet = "Register"
	vehicleSheet  = "Vehicles"
)

var registerHeader = []string{
	"employee_id", "name", "job_title", "work_location", "payment_source", "salary_type",
	"work_days", "base_pay", "overtime", "allowances", "bonuses", "general_bonus",
	"loan_installment", "deduction", "net_salary",
}

func registerRow(l ReportLine) []any {
	return []any{
		l.EmployeeID, l.Name, l.JobTitle, l.WorkLocation, l.PaymentSource, string(l.SalaryType),
		l.TotalWorkDays, RoundMoney(l.BasePay), RoundMoney(l.TotalOvertimePay), RoundMoney(l.TotalAllowances),
		RoundMoney(l.TotalBonuses), RoundMoney(l.GeneralBonus), RoundMoney(l.LoanInstallment),
		RoundMoney(l.ManualDeduction), RoundMoney(l.NetSalary),
	}
}

func totalsRow(t ReportTotals) []any {
	return []any{
		"TOTAL", fmt.Sprintf("%d employees", t.EmployeeCount), "", "", "", "",
		t.TotalWorkDays, t.BasePay, t.TotalOvertimePay, t.TotalAllowances,
		t.TotalBonuses, t.GeneralBonus, t.LoanInstallment, t.ManualDeduction, t.NetSalary,
	}
}

// ExportRegister writes the period register as an XLSX workbook.
func (s *Service) ExportRegister(ctx context.Context, tenantID string, period Period, w io.Writer) error {
	report, err := s.Report(ctx, tenantID, period)
	if err != nil {
		return err
	}
	f, err := RegisterWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// ExportRegisterCSV writes the period register as CSV.
func (s *Service) ExportRegisterCSV(ctx context.Context, tenantID string, period Period, w io.Writer) error {
	report, err := s.Report(ctx, tenantID, period)
	if err != nil {
		return err
	}
	return WriteRegisterCSV(report, w)
}

func RegisterWorkbook(report Report) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(registerSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Payroll register %s (%s to %s)", report.Period, report.Period.Start().Format(DateLayout), report.Period.End().Format(DateLayout))
	if report.Closed {
		title += " - archived"
	}
	if err := f.SetCellValue(registerSheet, "A1", title); err != nil {
		return nil, err
	}

	const headerRow = 3
	if err := writeRow(f, registerSheet, headerRow, stringsToAny(registerHeader)); err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(registerHeader), headerRow)
	if err := f.SetCellStyle(registerSheet, "A3", last, headerStyle); err != nil {
		return nil, err
	}

	row := headerRow + 1
	for _, line := range report.Lines {
		if err := writeRow(f, registerSheet, row, registerRow(line)); err != nil {
			return nil, err
		}
		row++
	}
	if err := writeRow(f, registerSheet, row, totalsRow(report.Totals)); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(registerSheet, "H4", fmt.Sprintf("O%d", row), moneyStyle); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(registerSheet, "A", "F", 18); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(registerSheet, "G", "O", 14); err != nil {
		return nil, err
	}

	if len(report.Vehicles) > 0 {
		if _, err := f.NewSheet(vehicleSheet); err != nil {
			return nil, err
		}
		if err := writeRow(f, vehicleSheet, 1, []any{"vehicle", "drivers", "work_days", "overtime", "net_salary"}); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(vehicleSheet, "A1", "E1", headerStyle); err != nil {
			return nil, err
		}
		for i, v := range report.Vehicles {
			if err := writeRow(f, vehicleSheet, i+2, []any{v.Vehicle, len(v.Drivers), v.TotalWorkDays, v.TotalOvertimePay, v.NetSalary}); err != nil {
				return nil, err
			}
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func WriteRegisterCSV(report Report, w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(registerHeader); err != nil {
		return err
	}
	for _, line := range report.Lines {
		if err := writer.Write(csvRecord(registerRow(line))); err != nil {
			return err
		}
	}
	if err := writer.Write(csvRecord(totalsRow(report.Totals))); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func csvRecord(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		switch value := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(value, 'f', 2, 64)
		case int:
			out[i] = strconv.Itoa(value)
		case string:
			out[i] = value
		default:
			out[i] = fmt.Sprint(value)
		}
	}
	return out
}
