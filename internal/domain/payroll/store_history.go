package payroll

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

func (s *Store) History(ctx context.Context, tenantID string, period Period) (SealedHistory, error) {
	entry := SealedHistory{Period: period}
	err := s.DB.QueryRow(ctx, `
    SELECT payload, archived_by, archived_at
    FROM payroll_history
    WHERE tenant_id = $1 AND period = $2
  `, tenantID, period.Key()).Scan(&entry.Payload, &entry.ArchivedBy, &entry.ArchivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return SealedHistory{}, ErrHistoryNotFound
	}
	if err != nil {
		return SealedHistory{}, err
	}
	return entry, nil
}

// ArchiveHistory fails with ErrPeriodClosed when the period already has an
// archive.
func (s *Store) ArchiveHistory(ctx context.Context, tenantID string, entry SealedHistory) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO payroll_history (tenant_id, period, payload, archived_by, archived_at)
    VALUES ($1,$2,$3,$4,$5)
  `, tenantID, entry.Period.Key(), entry.Payload, entry.ArchivedBy, entry.ArchivedAt)
	if isUniqueViolation(err) {
		return ErrPeriodClosed
	}
	return err
}

func (s *Store) DeleteHistory(ctx context.Context, tenantID string, period Period) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM payroll_history WHERE tenant_id = $1 AND period = $2", tenantID, period.Key())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrHistoryNotFound
	}
	return nil
}

func (s *Store) ListHistory(ctx context.Context, tenantID string) ([]HistoryEntry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT period, archived_by, archived_at
    FROM payroll_history
    WHERE tenant_id = $1
    ORDER BY period DESC
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var key string
		var entry HistoryEntry
		if err := rows.Scan(&key, &entry.ArchivedBy, &entry.ArchivedAt); err != nil {
			return nil, err
		}
		period, err := ParsePeriod(key)
		if err != nil {
			return nil, err
		}
		entry.Period = period
		out = append(out, entry)
	}
	return out, rows.Err()
}
