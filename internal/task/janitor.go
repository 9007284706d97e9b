package task

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// JanitorConfig controls retention of terminal records.
type JanitorConfig struct {
	// Retention is how long terminal records stay pollable.
	// Zero or negative disables eviction.
	Retention time.Duration

	// Interval is how often to sweep. If zero, defaults to one minute.
	Interval time.Duration
}

// RetentionJanitor periodically evicts terminal records that have outlived
// the polling window.
type RetentionJanitor struct {
	store  TaskStore
	config JanitorConfig
	logger *slog.Logger
	now    func() time.Time
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRetentionJanitor creates a janitor for store.
func NewRetentionJanitor(store TaskStore, config JanitorConfig, logger *slog.Logger) *RetentionJanitor {
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RetentionJanitor{
		store:  store,
		config: config,
		logger: logger.With("component", "retention_janitor"),
		now:    func() time.Time { return time.Now().UTC() },
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the sweep loop. It is a no-op when retention is disabled.
func (j *RetentionJanitor) Start() {
	if j.config.Retention <= 0 {
		j.logger.Info("record retention disabled")
		return
	}
	j.wg.Add(1)
	go j.loop()
}

// Stop ends the sweep loop and waits for it to exit.
func (j *RetentionJanitor) Stop() {
	j.cancel()
	j.wg.Wait()
}

// Sweep removes expired terminal records once.
func (j *RetentionJanitor) Sweep(ctx context.Context) (int, error) {
	cutoff := j.now().Add(-j.config.Retention)
	removed, err := j.store.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		j.logger.Info("evicted expired task records", "count", removed, "cutoff", cutoff)
	}
	return removed, nil
}

func (j *RetentionJanitor) loop() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.Sweep(j.ctx); err != nil {
				j.logger.Error("failed to evict expired task records", "error", err)
			}
		}
	}
}
