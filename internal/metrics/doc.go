// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

// Package metrics exposes Prometheus instrumentation for the discovery
// scheduler, risk engine, vision dispatcher, result processor, and the
// resilience recovery sweep. All metrics are registered via promauto
// against the default registry at process init, then scraped by the
// thin health/metrics mux in cmd/server.
package metrics
