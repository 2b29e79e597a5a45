// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

/*
Package config provides centralized configuration management for vigilnet.

Configuration is layered through koanf v2: built-in defaults, an optional
YAML file, then environment variables (highest priority). The merged
result is validated with go-playground/validator struct tags before
Load returns.

# Environment Variables

Quota & budget (Quota, Budget):
  - DAILY_QUOTA_UNITS: daily external search quota, Pacific-time keyed (default 10000)
  - DAILY_BUDGET_EUR: daily vision-model monetary budget, UTC keyed (default 260)

Discovery (Discovery):
  - MAX_VIDEOS_TO_SCAN: videos enqueued per discovery trigger (default 500)
  - MINIMUM_SCAN_PRIORITY: dispatcher skip threshold (default 0)

Vision (Vision):
  - MAX_FRAMES: loaded and validated (default 300); the frame cap the
    vision calculator applies is the fixed vision.MaxFrames (300), not this value
  - VISION_MODEL_NAME, VISION_MODEL_REGION
  - VISION_INPUT_PRICE_PER_1M, VISION_OUTPUT_PRICE_PER_1M (EUR per 1M tokens)

Store (Store):
  - STORE_PROJECT, STORE_DATABASE
  - STORE_BADGER_DIR, STORE_DUCKDB_PATH

NATS / event bus (NATS): reuses the same env-helper pattern the
eventbus package draws its own defaults from.
*/
package config
