package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"hrpay/internal/platform/querier"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// TenantJob is a unit of scheduled work run once per tenant on every tick.
type TenantJob struct {
	Type     string
	Interval time.Duration
	Run      func(ctx context.Context, tenantID string, now time.Time) (any, error)
}

type Service struct {
	DB        querier.Querier
	queue     chan job
	scheduled []TenantJob
	now       func() time.Time
}

type job struct {
	Type     string
	TenantID string
	Run      func(context.Context) (any, error)
}

func New(db querier.Querier, queueSize int) *Service {
	if queueSize <= 0 {
		queueSize = 128
	}
	return &Service{
		DB:    db,
		queue: make(chan job, queueSize),
		now:   time.Now,
	}
}

// Schedule registers a tenant job; jobs with a non-positive interval are ignored.
func (s *Service) Schedule(j TenantJob) {
	if j.Interval <= 0 || j.Run == nil {
		return
	}
	s.scheduled = append(s.scheduled, j)
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	for _, j := range s.scheduled {
		go s.schedule(ctx, j)
	}
}

func (s *Service) Enqueue(jobType, tenantID string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, TenantID: tenantID, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType, "tenantId", tenantID)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, TenantID: tenantID, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "tenantId", j.TenantID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (tenant_id, job_type, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, j.TenantID, j.Type, StatusRunning).Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "jobType", j.Type, "err", err)
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		details = map[string]any{"error": err.Error(), "partial": details}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "runId", runID, "err", updErr)
		}
	}
	return details, err
}

func (s *Service) schedule(ctx context.Context, j TenantJob) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.dispatch(ctx, j)
		}
	}
}

// dispatch queues one run of j for every tenant.
func (s *Service) dispatch(ctx context.Context, j TenantJob) {
	tenants, err := s.listTenants(ctx)
	if err != nil {
		slog.Warn("scheduler tenant lookup failed", "jobType", j.Type, "err", err)
		return
	}
	now := s.now()
	for _, tenantID := range tenants {
		tenantID := tenantID
		s.Enqueue(j.Type, tenantID, func(ctx context.Context) (any, error) {
			return j.Run(ctx, tenantID, now)
		})
	}
}

func (s *Service) listTenants(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT id FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
