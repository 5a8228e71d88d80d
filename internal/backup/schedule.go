package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseSchedule validates a 5-field cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", expr, err)
	}
	return sched, nil
}

// Start runs Run followed by Prune on the configured schedule until Stop.
// It does nothing when the manager is disabled or no schedule is set.
func (m *Manager) Start(ctx context.Context) error {
	if m.client == nil || m.cfg.Schedule == "" {
		return nil
	}
	sched, err := ParseSchedule(m.cfg.Schedule)
	if err != nil {
		return err
	}

	c := cron.New(cron.WithLocation(time.UTC))
	c.Schedule(sched, cron.FuncJob(func() { m.scheduled(ctx) }))

	m.mu.Lock()
	m.cron = c
	m.mu.Unlock()

	c.Start()
	m.logger.Info("snapshot schedule started", "schedule", m.cfg.Schedule, "next", sched.Next(m.now()))
	return nil
}

func (m *Manager) scheduled(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := m.Run(ctx); err != nil {
		m.logger.Error("scheduled snapshot failed", "error", err)
		return
	}
	removed, err := m.Prune(ctx, m.cfg.RetentionDays)
	if err != nil {
		m.logger.Error("prune snapshots", "error", err)
		return
	}
	if removed > 0 {
		m.logger.Info("pruned snapshots", "removed", removed)
	}
}

// Stop halts the schedule and waits for a running snapshot to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}
