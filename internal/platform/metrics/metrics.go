package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Payroll event counters.
const (
	ReportsBuilt      = "payrollReportsTotal"
	PeriodsArchived   = "payrollArchivesTotal"
	PeriodsReopened   = "payrollReopensTotal"
	RegistersExported = "payrollExportsTotal"
	PayslipsRendered  = "payslipsRenderedTotal"
	LoginsFailed      = "loginFailuresTotal"
)

type Collector struct {
	totalRequests   atomic.Uint64
	errorRequests   atomic.Uint64
	rateLimited     atomic.Uint64
	totalDurationMs atomic.Uint64

	mu     sync.RWMutex
	events map[string]*atomic.Uint64
}

func New() *Collector {
	return &Collector{events: map[string]*atomic.Uint64{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	c.totalRequests.Add(1)
	if status >= 500 {
		c.errorRequests.Add(1)
	}
	if status == 429 {
		c.rateLimited.Add(1)
	}
	c.totalDurationMs.Add(uint64(duration.Milliseconds()))
}

// Inc bumps a named event counter. A nil collector ignores it.
func (c *Collector) Inc(name string) {
	if c == nil {
		return
	}
	c.mu.RLock()
	counter, ok := c.events[name]
	c.mu.RUnlock()
	if !ok {
		c.mu.Lock()
		if counter, ok = c.events[name]; !ok {
			counter = &atomic.Uint64{}
			c.events[name] = counter
		}
		c.mu.Unlock()
	}
	counter.Add(1)
}

func (c *Collector) Snapshot() map[string]any {
	total := c.totalRequests.Load()
	totalMs := c.totalDurationMs.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	out := map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      c.errorRequests.Load(),
		"rateLimitedTotal": c.rateLimited.Load(),
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
	}
	c.mu.RLock()
	for name, counter := range c.events {
		out[name] = counter.Load()
	}
	c.mu.RUnlock()
	return out
}
