package session

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Sweeper proactively refreshes OAuth sessions that are about to expire,
// so the first action after a long idle period does not pay the refresh
// latency. Purely an optimization: EnsureValid remains the correctness
// path for staleness.
type Sweeper struct {
	manager *Manager
	cron    *cron.Cron
}

// NewSweeper creates a sweeper that checks every minute for sessions
// expiring within twice the manager's refresh margin.
func NewSweeper(manager *Manager) *Sweeper {
	return &Sweeper{
		manager: manager,
		cron:    cron.New(),
	}
}

// Start begins the background sweep schedule.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc("@every 1m", s.sweep)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) sweep() {
	horizon := 2 * s.manager.margin
	for _, name := range s.manager.ExpiringWithin(horizon) {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		if _, err := s.manager.EnsureValid(ctx, name); err != nil {
			log.Warn().Err(err).Str("device", name).Msg("Proactive session refresh failed")
		}
		cancel()
	}
}

// Margin returns the manager's refresh margin.
func (m *Manager) Margin() time.Duration { return m.margin }
