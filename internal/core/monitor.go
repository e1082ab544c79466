package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BatchChecker is the part of the Checker the monitor needs.
type BatchChecker interface {
	CheckAll(ctx context.Context, playlistIDs []string) []PlaylistCheck
}

// Monitor runs the recurring batch check over the configured playlists. Each
// tick spawns an independent batch; a hung upstream call stalls that batch
// only, not the ticker.
type Monitor struct {
	checker     BatchChecker
	playlistIDs []string
	interval    time.Duration
	metrics     CheckMetrics
	logger      *zap.Logger

	mu      sync.RWMutex
	lastRun time.Time
}

// NewMonitor creates a monitor over the configured playlist list. metrics
// may be nil.
func NewMonitor(checker BatchChecker, config *MonitorConfig, metrics CheckMetrics, logger *zap.Logger) *Monitor {
	interval := config.Interval
	if interval <= 0 {
		interval = DefaultCheckInterval
	}

	return &Monitor{
		checker:     checker,
		playlistIDs: config.PlaylistIDs,
		interval:    interval,
		metrics:     metrics,
		logger:      logger,
	}
}

// Run blocks until the context is cancelled. With no playlists configured
// the schedule is disabled and Run returns immediately.
func (m *Monitor) Run(ctx context.Context) error {
	if len(m.playlistIDs) == 0 {
		m.logger.Info("No playlists configured, monitor disabled")
		return nil
	}

	m.logger.Info("Starting playlist monitor",
		zap.Strings("playlistIDs", m.playlistIDs),
		zap.Duration("interval", m.interval))

	go m.runBatch(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Playlist monitor stopped")
			return nil
		case <-ticker.C:
			// Each batch gets its own goroutine so a hung upstream call
			// never suppresses later ticks. Overlapping checks of the same
			// playlist are safe; a lost create race continues as an update.
			go m.runBatch(ctx)
		}
	}
}

// LastRun returns the start time of the most recent batch.
func (m *Monitor) LastRun() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRun
}

func (m *Monitor) runBatch(ctx context.Context) {
	start := time.Now()

	m.mu.Lock()
	m.lastRun = start
	m.mu.Unlock()

	m.logger.Info("Running scheduled playlist check")

	results := m.checker.CheckAll(ctx, m.playlistIDs)

	newSongs := 0
	failures := 0
	for _, result := range results {
		m.record(result)
		newSongs += len(result.NewSongs)
		if !result.Success {
			failures++
		}
	}

	m.logger.Info("Scheduled playlist check finished",
		zap.Int("playlists", len(results)),
		zap.Int("newSongs", newSongs),
		zap.Int("failures", failures),
		zap.Duration("duration", time.Since(start)))
}

func (m *Monitor) record(result PlaylistCheck) {
	if m.metrics == nil {
		return
	}

	status := "success"
	if !result.Success {
		status = "error"
	}
	m.metrics.RecordCheck("scheduled", status)
	m.metrics.RecordNewSongs(len(result.NewSongs))
	m.metrics.ObserveCheckDuration("scheduled", result.Duration)

	if len(result.NewSongs) > 0 && !result.IsFirstCheck {
		notifyStatus := "sent"
		if !result.EmailSent {
			notifyStatus = "failed"
		}
		m.metrics.RecordNotification(notifyStatus)
	}
}
