package payroll

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

type payslipItem struct {
	label  string
	amount float64
}

// RenderPayslip lays out one report line as an A4 PDF.
func RenderPayslip(period Period, line ReportLine, closed bool) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employee: %s (%s)", line.Name, line.EmployeeID))
	pdf.Ln(6)
	if line.JobTitle != "" {
		pdf.Cell(0, 7, fmt.Sprintf("Job title: %s", line.JobTitle))
		pdf.Ln(6)
	}
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s (%s to %s)", period, period.Start().Format(DateLayout), period.End().Format(DateLayout)))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Work location: %s   Paid from: %s", line.WorkLocation, line.PaymentSource))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Days worked: %d", line.TotalWorkDays))
	pdf.Ln(10)

	section := func(title string, items []payslipItem) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, title)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, item := range items {
			pdf.CellFormat(90, 7, item.label, "B", 0, "L", false, 0, "")
			pdf.CellFormat(50, 7, fmt.Sprintf("%.2f", RoundMoney(item.amount)), "B", 1, "R", false, 0, "")
		}
		pdf.Ln(4)
	}
	section("Earnings", []payslipItem{
		{"Base pay", line.BasePay},
		{"Overtime", line.TotalOvertimePay},
		{"Allowances", line.TotalAllowances},
		{"Bonus", line.TotalBonuses},
		{"General bonus", line.GeneralBonus},
	})
	section("Deductions", []payslipItem{
		{"Loan installment", line.LoanInstallment},
		{"Deduction", line.ManualDeduction},
	})

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(90, 9, "Net salary", "T", 0, "L", false, 0, "")
	pdf.CellFormat(50, 9, fmt.Sprintf("%.2f", RoundMoney(line.NetSalary)), "T", 1, "R", false, 0, "")
	if !closed {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.Cell(0, 6, "Provisional: the period has not been archived.")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Payslip renders the payslip of one employee from the period report.
func (s *Service) Payslip(ctx context.Context, tenantID string, period Period, employeeID string) ([]byte, error) {
	report, err := s.Report(ctx, tenantID, period)
	if err != nil {
		return nil, err
	}
	for _, line := range report.Lines {
		if line.EmployeeID == employeeID {
			return RenderPayslip(period, line, report.Closed)
		}
	}
	return nil, ErrEmployeeNotFound
}

// GeneratePayslips renders, stores and records every payslip of an archived
// period. It runs as a background job after Archive.
func (s *Service) GeneratePayslips(ctx context.Context, tenantID string, period Period) (any, error) {
	history, err := s.archived(ctx, tenantID, period)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(s.PayslipDir, tenantID, period.Key())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	generated := 0
	for _, line := range history.Report.Lines {
		if err := ctx.Err(); err != nil {
			return map[string]any{"period": period.Key(), "generated": generated}, err
		}
		data, err := RenderPayslip(period, line, true)
		if err != nil {
			return nil, fmt.Errorf("render payslip %s: %w", line.EmployeeID, err)
		}
		path, err := s.writePayslip(dir, line.EmployeeID, data)
		if err != nil {
			return nil, err
		}
		if _, err := s.store.RecordPayslip(ctx, tenantID, Payslip{
			Period:     period.Key(),
			EmployeeID: line.EmployeeID,
			Net:        RoundMoney(line.NetSalary),
			FileURL:    path,
		}); err != nil {
			return nil, err
		}
		generated++
	}
	return map[string]any{"period": period.Key(), "generated": generated}, nil
}

func (s *Service) writePayslip(dir, employeeID string, data []byte) (string, error) {
	path := filepath.Join(dir, payslipFileName(employeeID))
	if s.sealer != nil && s.sealer.Configured() {
		sealed, err := s.sealer.Seal(data)
		if err != nil {
			return "", err
		}
		path += ".enc"
		return path, os.WriteFile(path, sealed, 0o600)
	}
	return path, os.WriteFile(path, data, 0o644)
}

const maxPayslipNameLen = 48

// payslipFileName keeps the readable part of an employee id and suffixes a
// digest of the full id, so distinct ids never share a file.
func payslipFileName(employeeID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, employeeID)
	if len(safe) > maxPayslipNameLen {
		safe = safe[:maxPayslipNameLen]
	}
	sum := sha256.Sum256([]byte(employeeID))
	return safe + "-" + hex.EncodeToString(sum[:])[:12] + ".pdf"
}
