// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package resilience

import (
	"context"
	"fmt"
)

// Service wraps a Sweeper as a one-shot suture.Service: it runs the
// sweep exactly once at startup, then blocks until the supervisor tree
// shuts down. If the sweep fails, Serve returns the error and suture
// restarts the service, which runs the sweep again.
type Service struct {
	sweeper *Sweeper
}

// NewService returns a ready Service.
func NewService(sweeper *Sweeper) *Service {
	return &Service{sweeper: sweeper}
}

// Serve implements suture.Service.
func (s *Service) Serve(ctx context.Context) error {
	reset, err := s.sweeper.Run(ctx)
	if err != nil {
		return fmt.Errorf("resilience service: startup sweep: %w", err)
	}
	s.sweeper.logger.Info().Int("reset", reset).Msg("resilience service: startup sweep complete, idling")

	<-ctx.Done()
	return ctx.Err()
}

// String implements fmt.Stringer; suture uses this to identify the
// service in log lines.
func (s *Service) String() string {
	return "resilience-startup-sweep"
}
