// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package config

import "time"

// Config holds all application configuration loaded from defaults, an
// optional YAML file, and environment variables, in that precedence order.
type Config struct {
	Quota      QuotaConfig      `koanf:"quota"`
	Budget     BudgetConfig     `koanf:"budget"`
	Discovery  DiscoveryConfig  `koanf:"discovery"`
	Vision     VisionConfig     `koanf:"vision"`
	Store      StoreConfig      `koanf:"store"`
	NATS       NATSConfig       `koanf:"nats"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// QuotaConfig bounds the discovery scheduler's external search spend.
// The ledger this gates is keyed by Pacific-time date, matching the
// external search API's own quota reset boundary.
type QuotaConfig struct {
	DailyUnits int `koanf:"daily_units" validate:"min=1"`
}

// BudgetConfig bounds the vision dispatcher's external model spend.
// The ledger this gates is keyed by UTC date, matching billing.
type BudgetConfig struct {
	DailyEUR float64 `koanf:"daily_eur" validate:"min=0"`
}

// DiscoveryConfig tunes the discovery scheduler and dispatch trigger.
type DiscoveryConfig struct {
	MaxVideosToScan      int `koanf:"max_videos_to_scan" validate:"min=1"`
	MinimumScanPriority  int `koanf:"minimum_scan_priority" validate:"min=0,max=100"`
	MaxChannelsPerRun    int `koanf:"max_channels_per_run" validate:"min=0"`
	ChannelScanCooldown  time.Duration `koanf:"channel_scan_cooldown"`
	FreshContentQuota    int `koanf:"fresh_content_quota" validate:"min=0"`
	FreshContentWindow   time.Duration `koanf:"fresh_content_window"`
	MaxQueriesPerRun     int `koanf:"max_queries_per_run" validate:"min=1"`
	SearchAPIBaseURL     string `koanf:"search_api_base_url"`
	IPConfigPath         string `koanf:"ip_config_path" validate:"required"`
	// SearchQueryInterval paces outbound keyword-search calls independent
	// of the daily quota ledger: quota is a spend budget, this is a rate
	// limit against bursting the upstream search API.
	SearchQueryInterval  time.Duration `koanf:"search_query_interval"`
}

// VisionConfig tunes the video-config calculator and model client.
type VisionConfig struct {
	Project            string  `koanf:"project"`
	MaxFrames          int     `koanf:"max_frames" validate:"min=1"`
	ModelName          string  `koanf:"model_name"`
	ModelRegion        string  `koanf:"model_region"`
	InputPricePer1M    float64 `koanf:"input_price_per_1m" validate:"min=0"`
	OutputPricePer1M   float64 `koanf:"output_price_per_1m" validate:"min=0"`
	CallTimeout        time.Duration `koanf:"call_timeout"`
	WorkerPoolSize     int     `koanf:"worker_pool_size" validate:"min=1"`
}

// StoreConfig locates persisted state.
type StoreConfig struct {
	Project    string `koanf:"project"`
	Database   string `koanf:"database"`
	BadgerDir  string `koanf:"badger_dir"`
	DuckDBPath string `koanf:"duckdb_path"`
}

// NATSConfig configures the JetStream-backed event bus.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
}

// ServerConfig configures the thin health/readiness/metrics HTTP surface.
// This is operational infrastructure, not the product API the spec's
// Non-goals exclude.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level string `koanf:"level"`
}

// SupervisorConfig tunes the suture tree's failure-handling parameters.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}
