// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

// Package eventbus wires the three inbound/outbound event streams of the
// detection pipeline over NATS JetStream via Watermill:
//
//   - video-discovered: event type and topic defined; no handler subscribes to it
//   - scan-ready:        discovery dispatch trigger -> vision dispatcher
//   - vision-feedback:   event type and topic defined; no handler subscribes to it
//
// The server registers only the scan-ready consumer; the risk engine does
// not consume any stream.
//
// The router applies a retry middleware (bounded attempts, exponential
// backoff) before a message is routed to a poison-queue topic, matching
// the error-kind classification of the detection pipeline: transient
// errors are retried by the router itself, terminal errors are acked by
// the handler without reaching the poison queue.
package eventbus
