// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package riskengine

// ChannelFactors is the factor-by-factor breakdown behind a ChannelRisk score.
type ChannelFactors struct {
	InfringementRate int
	Volume           int
	Reach            int
	DamageDone       int
}

func (f ChannelFactors) Sum() int {
	return clamp(f.InfringementRate+f.Volume+f.Reach+f.DamageDone, 0, 100)
}

// ChannelRiskInput is the subset of channel state the 4-factor scorer reads.
type ChannelRiskInput struct {
	ConfirmedInfringements int
	VideosScanned          int
	SubscriberCount        int64
	TotalViews             int64
}

// ChannelCalculator computes the 4-factor channel risk score (§4.3),
// weighted toward actual business impact rather than raw scan volume.
type ChannelCalculator struct{}

// NewChannelCalculator returns a ready ChannelCalculator.
func NewChannelCalculator() *ChannelCalculator { return &ChannelCalculator{} }

// Calculate returns the clamped 0-100 score and its factor breakdown. A
// channel with no scanned videos yet scores 0 across every factor.
func (c *ChannelCalculator) Calculate(in ChannelRiskInput) (int, ChannelFactors) {
	if in.VideosScanned == 0 {
		return 0, ChannelFactors{}
	}

	rate := float64(in.ConfirmedInfringements) / float64(in.VideosScanned)
	estimatedInfringingViews := int64(float64(in.TotalViews) * rate)

	factors := ChannelFactors{
		InfringementRate: infringementRatePoints(rate),
		Volume:           volumePoints(in.ConfirmedInfringements),
		Reach:            reachPoints(in.SubscriberCount),
		DamageDone:       damagePoints(estimatedInfringingViews),
	}
	return factors.Sum(), factors
}

// infringementRatePoints implements factor 1 (0-40 pts), a piecewise-
// linear curve over the confirmed/scanned ratio.
func infringementRatePoints(rate float64) int {
	var points float64
	switch {
	case rate <= 0.10:
		points = rate * 150
	case rate <= 0.25:
		points = 15 + (rate-0.10)*66.67
	case rate <= 0.50:
		points = 25 + (rate-0.25)*40
	case rate <= 0.75:
		points = 35 + (rate-0.50)*16
	default:
		points = 39 + (rate-0.75)*4
	}
	return clamp(int(points+0.5), 0, 40)
}

// volumePoints implements factor 2 (0-30 pts), stepwise over the
// absolute count of confirmed infringements.
func volumePoints(confirmed int) int {
	switch {
	case confirmed <= 2:
		return 6
	case confirmed <= 5:
		return 12
	case confirmed <= 10:
		return 18
	case confirmed <= 20:
		return 23
	case confirmed <= 40:
		return 27
	default:
		return 30
	}
}

// reachPoints implements factor 3 (0-20 pts), stepwise over subscriber count.
func reachPoints(subscribers int64) int {
	switch {
	case subscribers >= 1_000_000:
		return 20
	case subscribers >= 500_000:
		return 17
	case subscribers >= 100_000:
		return 14
	case subscribers >= 50_000:
		return 11
	case subscribers >= 10_000:
		return 8
	case subscribers >= 1_000:
		return 4
	default:
		return 0
	}
}

// damagePoints implements factor 4 (0-10 pts), stepwise over the
// estimated view count attributable to infringing content.
func damagePoints(estimatedInfringingViews int64) int {
	switch {
	case estimatedInfringingViews >= 10_000_000:
		return 10
	case estimatedInfringingViews >= 5_000_000:
		return 9
	case estimatedInfringingViews >= 1_000_000:
		return 8
	case estimatedInfringingViews >= 500_000:
		return 6
	case estimatedInfringingViews >= 100_000:
		return 4
	case estimatedInfringingViews >= 10_000:
		return 2
	default:
		return 0
	}
}
