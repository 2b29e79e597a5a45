// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

// Package vision implements the pipeline's third stage: the dispatcher
// that turns a scan-ready video into a vision-model call, the analysis
// configuration and budget arithmetic that keeps that call affordable,
// and the result processor that folds a finished analysis back into
// video/channel/system counters (§4.5, §4.6, §4.7).
package vision

import "github.com/tomtom215/vigilnet/internal/store"

// MaxFrames caps a single analysis call's frame count so the model's
// JSON response never blows past a sane output-token budget.
const MaxFrames = 300

// Per-1M-token Gemini 2.5 Flash pricing (USD), and the frame/audio token
// model used to estimate a call's cost before it's made.
const (
	InputCostPerMillionTokens  = 0.30
	OutputCostPerMillionTokens = 2.50
	TokensPerFrameLowRes       = 66
	TokensPerSecondAudio       = 32
	EstimatedOutputTokens      = 1000
)

var tierFPSMultiplier = map[store.PriorityTier]float64{
	store.TierCritical: 2.0,
	store.TierHigh:     1.5,
	store.TierMedium:   1.0,
	store.TierLow:      0.75,
	store.TierVeryLow:  0.5,
}

// AnalysisConfig is the sampling plan and cost estimate for one video's
// vision-model call (§4.6).
type AnalysisConfig struct {
	FPS                    float64
	StartOffsetSeconds     int
	EndOffsetSeconds       int
	EstimatedCostUSD       float64
	EstimatedInputTokens   int
	EstimatedOutputTokens  int
	FramesAnalyzed         int
	EffectiveDurationSecs  int
}

// ConfigCalculator computes AnalysisConfig from a video's duration,
// priority tier, and the current budget/queue pressure. Stateless: every
// method is a pure function of its arguments.
type ConfigCalculator struct{}

// NewConfigCalculator returns a ready ConfigCalculator.
func NewConfigCalculator() *ConfigCalculator {
	return &ConfigCalculator{}
}

// Calculate derives the full sampling plan for a video of durationSeconds
// at priorityTier, given remainingBudgetUSD and the dispatcher's current
// queueSize (§4.5's configuration-computation algorithm).
func (c *ConfigCalculator) Calculate(durationSeconds int, tier store.PriorityTier, remainingBudgetUSD float64, queueSize int) AnalysisConfig {
	fps := baseFPSByLength(durationSeconds)
	fps *= tierMultiplier(tier)
	fps *= budgetPressureMultiplier(remainingBudgetUSD, queueSize)
	fps = clampFPS(fps)

	start, end := trimOffsets(durationSeconds)
	effectiveDuration := end - start
	if effectiveDuration <= 0 {
		effectiveDuration = 1
	}

	if framesForFPS(fps, effectiveDuration) > MaxFrames {
		fps = float64(MaxFrames) / float64(effectiveDuration)
	}

	frameTokens := int(fps * TokensPerFrameLowRes * float64(effectiveDuration))
	audioTokens := TokensPerSecondAudio * effectiveDuration
	inputTokens := frameTokens + audioTokens

	inputCost := (float64(inputTokens) / 1_000_000) * InputCostPerMillionTokens
	outputCost := (float64(EstimatedOutputTokens) / 1_000_000) * OutputCostPerMillionTokens

	return AnalysisConfig{
		FPS:                   fps,
		StartOffsetSeconds:    start,
		EndOffsetSeconds:      end,
		EstimatedCostUSD:      inputCost + outputCost,
		EstimatedInputTokens:  inputTokens,
		EstimatedOutputTokens: EstimatedOutputTokens,
		FramesAnalyzed:        framesForFPS(fps, effectiveDuration),
		EffectiveDurationSecs: effectiveDuration,
	}
}

func framesForFPS(fps float64, effectiveDuration int) int {
	return int(fps * float64(effectiveDuration))
}

// baseFPSByLength is step 1 of §4.5's algorithm: shorter videos get
// denser sampling, videos past an hour fall back to a formula that keeps
// the full video's frame count under MaxFrames without ever truncating it.
func baseFPSByLength(durationSeconds int) float64 {
	switch {
	case durationSeconds <= 120:
		return 1.0
	case durationSeconds <= 300:
		return 0.5
	case durationSeconds <= 600:
		return 0.33
	case durationSeconds <= 1200:
		return 0.25
	case durationSeconds <= 1800:
		return 0.2
	case durationSeconds <= 3600:
		return 0.1
	default:
		maxFPSForLength := float64(MaxFrames) / float64(durationSeconds)
		if maxFPSForLength < 0.01 {
			return 0.01
		}
		return maxFPSForLength
	}
}

func tierMultiplier(tier store.PriorityTier) float64 {
	if m, ok := tierFPSMultiplier[tier]; ok {
		return m
	}
	return 1.0
}

// budgetPressureMultiplier is step 3: spread a shrinking daily budget
// across the remaining queue by cutting sampling density for everything
// still waiting, rather than only refusing the last few videos outright.
func budgetPressureMultiplier(remainingBudgetUSD float64, queueSize int) float64 {
	if remainingBudgetUSD <= 0 {
		return 0.5
	}
	if queueSize < 1 {
		queueSize = 1
	}
	avgBudgetPerVideo := remainingBudgetUSD / float64(queueSize)
	switch {
	case avgBudgetPerVideo < 0.05:
		return 0.5
	case avgBudgetPerVideo < 0.10:
		return 0.75
	default:
		return 1.0
	}
}

func clampFPS(fps float64) float64 {
	if fps < 0.05 {
		return 0.05
	}
	if fps > 1.0 {
		return 1.0
	}
	return fps
}

// trimOffsets is step 5: a stepped table of intro/outro skips. Never
// truncates the analyzed window from the far end — only the edges
// carrying branding/credits are skipped.
func trimOffsets(durationSeconds int) (start, end int) {
	switch {
	case durationSeconds <= 30:
		return 0, durationSeconds
	case durationSeconds <= 60:
		return 2, durationSeconds - 2
	case durationSeconds <= 300:
		return 5, durationSeconds - 5
	case durationSeconds <= 600:
		return 10, durationSeconds - 10
	case durationSeconds <= 1800:
		return 15, durationSeconds - 30
	case durationSeconds <= 3600:
		return 30, durationSeconds - 60
	default:
		return 60, durationSeconds - 120
	}
}
