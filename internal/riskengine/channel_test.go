// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package riskengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelCalculator_NoScansYieldsZero(t *testing.T) {
	c := NewChannelCalculator()
	score, factors := c.Calculate(ChannelRiskInput{})
	assert.Equal(t, 0, score)
	assert.Equal(t, ChannelFactors{}, factors)
}

func TestVolumePoints_Stepwise(t *testing.T) {
	assert.Equal(t, 6, volumePoints(1))
	assert.Equal(t, 12, volumePoints(4))
	assert.Equal(t, 18, volumePoints(8))
	assert.Equal(t, 23, volumePoints(15))
	assert.Equal(t, 27, volumePoints(30))
	assert.Equal(t, 30, volumePoints(50))
}

func TestReachPoints_Stepwise(t *testing.T) {
	assert.Equal(t, 0, reachPoints(500))
	assert.Equal(t, 4, reachPoints(5_000))
	assert.Equal(t, 8, reachPoints(20_000))
	assert.Equal(t, 20, reachPoints(2_000_000))
}

func TestDamagePoints_Stepwise(t *testing.T) {
	assert.Equal(t, 0, damagePoints(5_000))
	assert.Equal(t, 2, damagePoints(50_000))
	assert.Equal(t, 10, damagePoints(20_000_000))
}

func TestInfringementRatePoints_SerialInfringerNearsCap(t *testing.T) {
	assert.Equal(t, 40, infringementRatePoints(1.0))
	assert.Equal(t, 0, infringementRatePoints(0))
}

func TestChannelCalculator_Calculate_SerialInfringerMaxesOut(t *testing.T) {
	c := NewChannelCalculator()
	score, factors := c.Calculate(ChannelRiskInput{
		ConfirmedInfringements: 60,
		VideosScanned:          60,
		SubscriberCount:        5_000_000,
		TotalViews:             50_000_000,
	})
	assert.Equal(t, 100, score)
	assert.Equal(t, score, factors.Sum())
}
