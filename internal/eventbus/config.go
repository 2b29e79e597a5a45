// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package eventbus

import (
	"os"
	"strconv"
	"time"
)

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return defaultVal
}

func getEnvString(key string, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

// NATSConfig holds NATS JetStream connection settings for the event bus.
type NATSConfig struct {
	// Enabled is loaded from the environment; nothing consults it, and the
	// server always connects the event bus on startup.
	// Env: NATS_ENABLED (default: true)
	Enabled bool

	// URL is the NATS server connection URL.
	// Env: NATS_URL (default: nats://127.0.0.1:4222)
	URL string

	// EmbeddedServer runs an in-process NATS server instead of dialing URL.
	// Env: NATS_EMBEDDED (default: false)
	EmbeddedServer bool

	// StoreDir is the JetStream storage directory for the embedded server.
	// Env: NATS_STORE_DIR (default: /data/nats/jetstream)
	StoreDir string

	// StreamRetention is how long delivered events are retained.
	// Env: NATS_RETENTION (default: 168h, 7 days)
	StreamRetention time.Duration

	// SubscribersCount is the number of concurrent handler goroutines per topic.
	// Env: NATS_SUBSCRIBERS (default: 4)
	SubscribersCount int

	// DurableName is the JetStream consumer durable name.
	// Env: NATS_DURABLE_NAME (default: vigilnet)
	DurableName string

	// QueueGroup load-balances delivery across replicas of the same consumer.
	// Env: NATS_QUEUE_GROUP (default: vigilnet-workers)
	QueueGroup string
}

// DefaultNATSConfig returns production defaults for the event bus connection.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		Enabled:          true,
		URL:              "nats://127.0.0.1:4222",
		EmbeddedServer:   false,
		StoreDir:         "/data/nats/jetstream",
		StreamRetention:  7 * 24 * time.Hour,
		SubscribersCount: 4,
		DurableName:      "vigilnet",
		QueueGroup:       "vigilnet-workers",
	}
}

// LoadNATSConfig loads NATS configuration from environment variables,
// falling back to DefaultNATSConfig for unset values.
func LoadNATSConfig() NATSConfig {
	cfg := DefaultNATSConfig()

	cfg.Enabled = getEnvBool("NATS_ENABLED", cfg.Enabled)
	cfg.URL = getEnvString("NATS_URL", cfg.URL)
	cfg.EmbeddedServer = getEnvBool("NATS_EMBEDDED", cfg.EmbeddedServer)
	cfg.StoreDir = getEnvString("NATS_STORE_DIR", cfg.StoreDir)
	cfg.StreamRetention = getEnvDuration("NATS_RETENTION", cfg.StreamRetention)
	cfg.SubscribersCount = getEnvInt("NATS_SUBSCRIBERS", cfg.SubscribersCount)
	cfg.DurableName = getEnvString("NATS_DURABLE_NAME", cfg.DurableName)
	cfg.QueueGroup = getEnvString("NATS_QUEUE_GROUP", cfg.QueueGroup)

	return cfg
}

// RouterConfig holds configuration for the Watermill Router shared by every
// topic handler registered on the bus.
type RouterConfig struct {
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	ThrottlePerSecond int64

	PoisonQueueTopic string

	DeduplicationEnabled bool
	DeduplicationTTL     time.Duration
}

// DefaultRouterConfig returns production defaults for the Router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      5,
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     time.Minute,
		RetryMultiplier:      2.0,
		ThrottlePerSecond:    0,
		PoisonQueueTopic:     "dlq.vigilnet",
		DeduplicationEnabled: false,
		DeduplicationTTL:     5 * time.Minute,
	}
}

// CircuitBreakerConfig holds circuit breaker settings for an outbound call
// wrapped by NewCircuitBreaker.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultCircuitBreakerConfig returns production defaults for a named breaker.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}
