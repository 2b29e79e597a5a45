// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package riskengine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tomtom215/vigilnet/internal/store"
)

func TestTier_Thresholds(t *testing.T) {
	assert.Equal(t, store.TierCritical, Tier(95))
	assert.Equal(t, store.TierHigh, Tier(75))
	assert.Equal(t, store.TierMedium, Tier(55))
	assert.Equal(t, store.TierLow, Tier(35))
	assert.Equal(t, store.TierVeryLow, Tier(10))
}

func TestCombine_WeightsVideoMoreThanChannel(t *testing.T) {
	assert.Equal(t, 60, Combine(100, 0))
	assert.Equal(t, 40, Combine(0, 100))
	assert.Equal(t, 100, Combine(100, 100))
}

func TestEngine_VideoRisk_NewVideoWithNoChannelHistory(t *testing.T) {
	e := NewEngine()
	v := &store.Video{
		Title:      "Starlight Wanderer AI recreation",
		ViewCount:  500_000,
		DurationSeconds: 400,
	}
	score, tier := e.VideoRisk(v, []string{"starlight-saga"}, true, &store.Channel{})
	assert.Greater(t, score, 0)
	assert.Equal(t, Tier(score), tier)
}

func TestEngine_VideoRisk_HighPriorityMatchScoresHigherThanPlainMatch(t *testing.T) {
	e := NewEngine()
	base := &store.Video{ViewCount: 1000}
	plain, _ := e.VideoRisk(base, []string{"starlight-saga"}, false, &store.Channel{})
	high, _ := e.VideoRisk(base, []string{"starlight-saga"}, true, &store.Channel{})
	assert.Greater(t, high, plain)
}

func TestEngine_Rescore_NoChangeProducesSameScore(t *testing.T) {
	e := NewEngine()
	v := &store.Video{ViewCount: 1000, ScanCount: 1}
	ch := &store.Channel{VideosScanned: 5, ConfirmedInfringements: 1}

	p1, t1, _, _ := e.Rescore(v, ch)
	p2, t2, _, _ := e.Rescore(v, ch)
	assert.Equal(t, p1, p2)
	assert.Equal(t, t1, t2)
}
