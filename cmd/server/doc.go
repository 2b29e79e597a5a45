// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

// Package main is the entry point for the vigilnet server.
//
// vigilnet continuously discovers videos on an external platform that may
// infringe a configured set of protected intellectual properties, scores
// them for risk, and dispatches the highest-priority backlog to a
// multimodal vision model for a structured infringement verdict. It never
// serves a public API; the only HTTP surface is operational (health,
// readiness, Prometheus metrics).
//
// # Application Architecture
//
// The process initializes in the following order:
//
//  1. Configuration: load settings from defaults, an optional YAML file,
//     and environment variables (Koanf v2).
//  2. Logging: initialize zerolog, then bridge to slog for the supervisor
//     tree's structured event log.
//  3. Storage: open the BadgerDB key-value store (video/channel/scan-
//     history records) and the DuckDB rollup database (quota ledgers,
//     keyword search history, vision spend ledger).
//  4. IP configuration: load the protected-property list the discovery
//     and matching stages run against.
//  5. Event bus: dial (or embed) NATS JetStream and build the Watermill
//     router the pipeline's three stages publish/consume through.
//  6. Pipeline components: the discovery scheduler, the risk engine, the
//     vision dispatcher, and the startup resilience sweep.
//  7. Supervisor tree: every long-running component is wrapped as a
//     suture.Service and added to one of three failure-isolated layers.
//  8. HTTP server: a minimal health/readiness/metrics mux.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, an optional config.yaml, and
// built-in defaults. See internal/config for the full schema.
//
// Secrets (the external search API key, the vision model's access
// credentials) are never part of the Koanf-loaded Config; they are read
// directly from the environment at startup.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the root
// context is cancelled, every supervised service is given its configured
// shutdown timeout to stop, and any service still running past that
// timeout is reported by name before the process exits.
package main
