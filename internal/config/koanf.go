// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/vigilnet/internal/validation"
)

// DefaultConfigPaths lists the paths where a config file is searched for,
// in order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/vigilnet/config.yaml",
	"/etc/vigilnet/config.yml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Quota: QuotaConfig{
			DailyUnits: 10000,
		},
		Budget: BudgetConfig{
			DailyEUR: 260,
		},
		Discovery: DiscoveryConfig{
			MaxVideosToScan:     500,
			MinimumScanPriority: 0,
			MaxChannelsPerRun:   5,
			ChannelScanCooldown: 7 * 24 * time.Hour,
			FreshContentQuota:   0,
			FreshContentWindow:  48 * time.Hour,
			MaxQueriesPerRun:    20,
			SearchAPIBaseURL:    "https://www.googleapis.com/youtube/v3",
			IPConfigPath:        "/etc/vigilnet/ip_targets.yaml",
			SearchQueryInterval: 500 * time.Millisecond,
		},
		Vision: VisionConfig{
			Project:          "vigilnet",
			MaxFrames:        300,
			ModelName:        "vision-analysis-v1",
			ModelRegion:      "us-central1",
			InputPricePer1M:  0.30,
			OutputPricePer1M: 2.50,
			CallTimeout:      15 * time.Minute,
			WorkerPoolSize:   8,
		},
		Store: StoreConfig{
			Project:    "vigilnet",
			Database:   "default",
			BadgerDir:  "/data/vigilnet/badger",
			DuckDBPath: "/data/vigilnet/rollups.duckdb",
		},
		NATS: NATSConfig{
			Enabled:        true,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/vigilnet/jetstream",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5.0,
			FailureDecay:     30.0,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// envTransformFunc maps VIGILNET-flavored and spec-literal environment
// variable names to koanf dotted paths.
func envTransformFunc(key string) string {
	mappings := map[string]string{
		"daily_quota_units":      "quota.daily_units",
		"daily_budget_eur":       "budget.daily_eur",
		"max_videos_to_scan":     "discovery.max_videos_to_scan",
		"minimum_scan_priority":  "discovery.minimum_scan_priority",
		"max_channels_per_run":   "discovery.max_channels_per_run",
		"channel_scan_cooldown":  "discovery.channel_scan_cooldown",
		"fresh_content_quota":    "discovery.fresh_content_quota",
		"fresh_content_window":   "discovery.fresh_content_window",
		"max_queries_per_run":    "discovery.max_queries_per_run",
		"search_api_base_url":    "discovery.search_api_base_url",
		"ip_config_path":         "discovery.ip_config_path",
		"search_query_interval":  "discovery.search_query_interval",
		"max_frames":             "vision.max_frames",
		"vision_project":         "vision.project",
		"vision_model_name":      "vision.model_name",
		"vision_model_region":    "vision.model_region",
		"vision_input_price_per_1m":  "vision.input_price_per_1m",
		"vision_output_price_per_1m": "vision.output_price_per_1m",
		"vision_call_timeout":    "vision.call_timeout",
		"vision_worker_pool_size": "vision.worker_pool_size",
		"store_project":          "store.project",
		"store_database":         "store.database",
		"store_badger_dir":       "store.badger_dir",
		"store_duckdb_path":      "store.duckdb_path",
		"nats_enabled":           "nats.enabled",
		"nats_url":               "nats.url",
		"nats_embedded":          "nats.embedded_server",
		"nats_store_dir":         "nats.store_dir",
		"server_host":            "server.host",
		"server_port":            "server.port",
		"log_level":              "logging.level",
	}

	lower := strings.ToLower(key)
	if mapped, ok := mappings[lower]; ok {
		return mapped
	}
	return strings.ReplaceAll(lower, "_", ".")
}

// Load builds the final configuration from defaults, an optional YAML
// file, and environment variables (highest priority), then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func validate(cfg *Config) error {
	if verr := validation.ValidateStruct(cfg); verr != nil {
		return verr
	}
	return nil
}
