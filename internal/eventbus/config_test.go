// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultNATSConfig(t *testing.T) {
	cfg := DefaultNATSConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.URL)
	assert.False(t, cfg.EmbeddedServer)
	assert.Equal(t, 4, cfg.SubscribersCount)
}

func TestLoadNATSConfig_EnvOverride(t *testing.T) {
	t.Setenv("NATS_URL", "nats://nats.internal:4222")
	t.Setenv("NATS_SUBSCRIBERS", "8")
	t.Setenv("NATS_EMBEDDED", "true")

	cfg := LoadNATSConfig()
	assert.Equal(t, "nats://nats.internal:4222", cfg.URL)
	assert.Equal(t, 8, cfg.SubscribersCount)
	assert.True(t, cfg.EmbeddedServer)
}

func TestDefaultRouterConfig(t *testing.T) {
	cfg := DefaultRouterConfig()
	assert.Equal(t, 5, cfg.RetryMaxRetries)
	assert.Equal(t, "dlq.vigilnet", cfg.PoisonQueueTopic)
	assert.False(t, cfg.DeduplicationEnabled)
}

func TestDefaultCircuitBreakerConfig(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("vision-model")
	assert.Equal(t, "vision-model", cfg.Name)
	assert.Equal(t, uint32(5), cfg.FailureThreshold)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}
