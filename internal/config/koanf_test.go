// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.Quota.DailyUnits)
	assert.Equal(t, 260.0, cfg.Budget.DailyEUR)
	assert.Equal(t, 500, cfg.Discovery.MaxVideosToScan)
	assert.Equal(t, 0, cfg.Discovery.MinimumScanPriority)
	assert.Equal(t, 300, cfg.Vision.MaxFrames)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DAILY_QUOTA_UNITS", "5000")
	t.Setenv("DAILY_BUDGET_EUR", "99.5")
	t.Setenv("MAX_FRAMES", "150")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Quota.DailyUnits)
	assert.Equal(t, 99.5, cfg.Budget.DailyEUR)
	assert.Equal(t, 150, cfg.Vision.MaxFrames)
}

func TestLoad_ValidationRejectsBadPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "99999")
	_, err := Load()
	require.Error(t, err)
}

func TestFindConfigFile_ExplicitPath(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	require.NoError(t, err)
	defer f.Close()

	t.Setenv(ConfigPathEnvVar, f.Name())
	assert.Equal(t, f.Name(), findConfigFile())
}
