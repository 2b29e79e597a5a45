// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

/*
Package services provides suture.Service wrappers for the detection
pipeline's long-running components.

This package adapts the pipeline's Start/Stop and ListenAndServe
lifecycle patterns into suture's context-aware Serve pattern.

# Overview

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts ListenAndServe pattern to Serve
  - Serves the health/readiness/metrics mux

Event Bus Router (RouterService):
  - Wraps the event bus's Watermill router
  - Runs the handlers registered on it (the server registers the scan-ready
    vision-dispatcher consumer)
  - Closes the bus's publisher/subscriber on shutdown

# Lifecycle Patterns

The package handles two lifecycle patterns:

Run Pattern (RouterService):

	func (s *RouterService) Serve(ctx context.Context) error {
	    errCh := make(chan error, 1)
	    go func() { errCh <- s.bus.RunRouter(ctx) }()
	    select {
	    case err := <-errCh: return err
	    case <-ctx.Done(): s.bus.Close(); return ctx.Err()
	    }
	}

ListenAndServe Pattern (HTTPServerService):

	func (s *HTTPServerService) Serve(ctx context.Context) error {
	    go s.server.ListenAndServe()
	    <-ctx.Done()
	    return s.server.Shutdown(shutdownCtx)
	}

# Error Handling

Return values determine supervisor behavior:

	nil         -> Service stopped cleanly, will not restart
	error       -> Service crashed, supervisor will restart
	ctx.Err()   -> Shutdown requested, normal termination

# Service Identification

All services implement fmt.Stringer for logging:

	func (s *HTTPServerService) String() string {
	    return "http-server"
	}

# See Also

  - internal/supervisor: SupervisorTree that manages these services
  - internal/eventbus: the bus wrapped by RouterService
  - github.com/thejerf/suture/v4: Underlying supervision library
*/
package services
