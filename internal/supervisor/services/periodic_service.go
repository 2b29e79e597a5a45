// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PeriodicTask is one supervised cycle of work — a discovery run, a
// risk rescore sweep. It returns whatever per-run statistics the caller
// wants logged.
type PeriodicTask func(ctx context.Context) (summary string, err error)

// PeriodicService runs a task immediately (if configured), then again
// every interval, until the supervisor tree shuts it down. The
// discovery scheduler and the risk rescorer are both wrapped this way
// instead of each owning its own ticker loop. A failed run is logged and
// the next run waits for the following tick; the error is not returned
// to the supervisor.
type PeriodicService struct {
	task         PeriodicTask
	interval     time.Duration
	runOnStartup bool
	logger       zerolog.Logger
	name         string
}

// NewPeriodicService creates a new periodic service wrapper.
func NewPeriodicService(name string, task PeriodicTask, interval time.Duration, runOnStartup bool, logger zerolog.Logger) *PeriodicService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &PeriodicService{
		task:         task,
		interval:     interval,
		runOnStartup: runOnStartup,
		logger:       logger.With().Str("service", name).Logger(),
		name:         name,
	}
}

// Serve implements suture.Service.
func (s *PeriodicService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("periodic service starting")

	if s.runOnStartup {
		if summary, err := s.task(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("initial run failed (will retry on schedule)")
		} else {
			s.logger.Info().Str("summary", summary).Msg("initial run complete")
		}
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("periodic service shutting down")
			return ctx.Err()

		case <-ticker.C:
			summary, err := s.task(ctx)
			if err != nil {
				s.logger.Warn().Err(err).Msg("scheduled run failed")
				continue
			}
			s.logger.Info().Str("summary", summary).Msg("scheduled run complete")
		}
	}
}

// String implements fmt.Stringer for logging.
func (s *PeriodicService) String() string {
	return s.name
}
