// Package monitor periodically logs aggregate session counts. It reads
// snapshots only and never mutates or reaps state.
package monitor

import (
	"time"

	"go.uber.org/zap"
)

// Snapshot returns the current player and room counts.
type Snapshot func() (players, rooms int)

type Manager struct {
	interval time.Duration
	snapshot Snapshot
	logger   *zap.Logger
	stopChan chan struct{}
	done     chan struct{}
}

func New(interval time.Duration, snapshot Snapshot, logger *zap.Logger) *Manager {
	return &Manager{
		interval: interval,
		snapshot: snapshot,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sampling loop. A zero interval disables sampling.
func (m *Manager) Start() {
	if m.interval <= 0 {
		close(m.done)
		return
	}

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				players, rooms := m.snapshot()
				m.logger.Info("session stats",
					zap.Int("total_players", players),
					zap.Int("active_rooms", rooms))
			case <-m.stopChan:
				return
			}
		}
	}()
}

// Stop halts the sampling loop and waits for it to exit.
func (m *Manager) Stop() {
	close(m.stopChan)
	<-m.done
}
