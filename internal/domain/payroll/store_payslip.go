package payroll

import (
	"context"
)

// RecordPayslip stores or replaces the payslip of one employee for a period.
func (s *Store) RecordPayslip(ctx context.Context, tenantID string, p Payslip) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payslips (tenant_id, period, employee_id, net, file_url)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (tenant_id, period, employee_id) DO UPDATE SET
      net = EXCLUDED.net,
      file_url = EXCLUDED.file_url,
      created_at = now()
    RETURNING id
  `, tenantID, p.Period, p.EmployeeID, p.Net, p.FileURL).Scan(&id)
	return id, err
}

func (s *Store) ListPayslips(ctx context.Context, tenantID string, period Period) ([]Payslip, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, period, employee_id, net, file_url, created_at
    FROM payslips
    WHERE tenant_id = $1 AND period = $2
    ORDER BY employee_id
  `, tenantID, period.Key())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payslip
	for rows.Next() {
		var p Payslip
		if err := rows.Scan(&p.ID, &p.Period, &p.EmployeeID, &p.Net, &p.FileURL, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
