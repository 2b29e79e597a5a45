// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package services

import (
	"context"
	"fmt"
	"time"
)

// EventBus interface matches the lifecycle methods of *eventbus.Bus.
//
// This interface allows the RouterService to work with the event bus
// without importing internal/eventbus directly, avoiding a dependency
// this package's tests would otherwise need to satisfy with a real
// Watermill router.
//
// Satisfied by *eventbus.Bus:
//   - RunRouter(ctx) error runs the bus's Watermill router
//   - Close() error stops the underlying publisher/subscriber
type EventBus interface {
	RunRouter(ctx context.Context) error
	Close() error
}

// RouterService wraps the event bus's Watermill router as a supervised
// service. The bus is mandatory in this pipeline — its handler (the
// vision dispatcher's scan-ready consumer) is registered against it
// before the pipeline layer starts, so there is no optional/disabled variant the
// way the teacher's NATS integration had.
type RouterService struct {
	bus             EventBus
	shutdownTimeout time.Duration
	name            string
}

// NewRouterService creates a new event bus router service wrapper.
func NewRouterService(bus EventBus, shutdownTimeout time.Duration) *RouterService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &RouterService{
		bus:             bus,
		shutdownTimeout: shutdownTimeout,
		name:            "event-bus-router",
	}
}

// Serve implements suture.Service.
//
// RunRouter blocks until its context is cancelled or the router fails,
// matching Watermill's own Router.Run contract. On shutdown the bus's
// publisher/subscriber connections are closed with a bounded timeout.
func (r *RouterService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.bus.RunRouter(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("event bus router failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		done := make(chan struct{})
		go func() {
			<-errCh
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(r.shutdownTimeout):
		}

		if err := r.bus.Close(); err != nil {
			return fmt.Errorf("event bus close failed: %w", err)
		}
		return ctx.Err()
	}
}

// String implements fmt.Stringer for logging.
func (r *RouterService) String() string {
	return r.name
}
