// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package vision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Recommended-action values the vision model's overall_recommendation
// and per-IP recommended_action fields are restricted to (§6).
const (
	ActionImmediateTakedown = "immediate_takedown"
	ActionTolerated         = "tolerated"
	ActionMonitor           = "monitor"
	ActionSafeHarbor        = "safe_harbor"
	ActionIgnore            = "ignore"
)

// CharacterDetection is one character sighting within an IP's analysis.
type CharacterDetection struct {
	Name              string   `json:"name"`
	ScreenTimeSeconds float64  `json:"screen_time_seconds"`
	Prominence        string   `json:"prominence"`
	Timestamps        []string `json:"timestamps"`
	Description       string   `json:"description"`
}

// IPResult is one matched IP's full verdict within a multi-IP analysis.
type IPResult struct {
	IPID                   string                `json:"ip_id"`
	IPName                 string                `json:"ip_name"`
	ContainsInfringement   bool                  `json:"contains_infringement"`
	CharactersDetected     []CharacterDetection  `json:"characters_detected"`
	IsAIGenerated          bool                  `json:"is_ai_generated"`
	AIToolsDetected        []string              `json:"ai_tools_detected"`
	FairUseApplies         bool                  `json:"fair_use_applies"`
	FairUseReasoning       string                `json:"fair_use_reasoning"`
	ContentType            string                `json:"content_type"`
	InfringementLikelihood int                   `json:"infringement_likelihood"`
	Reasoning              string                `json:"reasoning"`
	RecommendedAction      string                `json:"recommended_action"`
}

// AnalysisResult is the model's full multi-IP verdict (§6's response schema).
type AnalysisResult struct {
	IPResults             []IPResult `json:"ip_results"`
	OverallRecommendation string     `json:"overall_recommendation"`
	OverallNotes          string     `json:"overall_notes"`
}

// ContainsInfringement reports whether any analyzed IP was flagged.
func (a AnalysisResult) ContainsInfringement() bool {
	for _, ip := range a.IPResults {
		if ip.ContainsInfringement {
			return true
		}
	}
	return false
}

// MaxLikelihood returns the highest infringement_likelihood across every
// analyzed IP, or 0 if none were analyzed.
func (a AnalysisResult) MaxLikelihood() int {
	max := 0
	for _, ip := range a.IPResults {
		if ip.InfringementLikelihood > max {
			max = ip.InfringementLikelihood
		}
	}
	return max
}

// Actionable reports whether the overall recommendation is a takedown.
func (a AnalysisResult) Actionable() bool {
	return a.OverallRecommendation == ActionImmediateTakedown
}

// CharacterNames collects every distinct character name found across
// every IP result, in first-seen order.
func (a AnalysisResult) CharacterNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, ip := range a.IPResults {
		for _, c := range ip.CharactersDetected {
			if !seen[c.Name] {
				seen[c.Name] = true
				names = append(names, c.Name)
			}
		}
	}
	return names
}

// Metrics is the token/cost/timing accounting for one model call.
type Metrics struct {
	InputTokens    int64
	OutputTokens   int64
	CostUSD        float64
	ProcessingTime time.Duration
	FramesAnalyzed int
	FPSUsed        float64
}

// AnalyzeRequest is everything the model needs for one call (§4.5).
type AnalyzeRequest struct {
	VideoID            string
	VideoURL           string
	Prompt             string
	FPS                float64
	StartOffsetSeconds int
	EndOffsetSeconds   int
}

// Sentinel error classes the dispatcher's retry loop switches on (§4.5,
// §7). A concrete Model implementation must wrap the underlying
// transport error in one of these so RetryingModel can classify it
// without depending on any particular SDK's error types.
var (
	// ErrRateLimited marks a retryable rate-limit rejection.
	ErrRateLimited = errors.New("vision: rate limited")
	// ErrValidationFailed marks a response that didn't parse into the
	// required schema after null-coercion.
	ErrValidationFailed = errors.New("vision: response failed validation")
	// ErrPermissionDenied marks a video the model cannot access
	// (private, restricted, deleted) — always terminal, never retried.
	ErrPermissionDenied = errors.New("vision: permission denied")
)

// Model abstracts the external vision model (§6). A single call is
// already the full round trip: invoke, parse the JSON response,
// null-coerce known boolean fields, and validate against the schema.
type Model interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (AnalysisResult, Metrics, error)
}

// rateLimitBackoff is §4.5's exact retry delay sequence for rate-limit
// rejections: 1s, 8s, 16s, 32s, 64s.
var rateLimitBackoff = []time.Duration{1 * time.Second, 8 * time.Second, 16 * time.Second, 32 * time.Second, 64 * time.Second}

// validationRetryDelay is the short fixed backoff between
// validation-failure retries.
const validationRetryDelay = 2 * time.Second

const maxAttempts = 5

// RetryingModel wraps a Model with §4.5's retry policy: up to 5 attempts
// on rate-limit with exponential-ish backoff, up to 5 attempts on
// response-validation failure with a short fixed backoff, and immediate
// termination (no retry) on permission-denied.
type RetryingModel struct {
	inner  Model
	sleep  func(context.Context, time.Duration) error
	logger zerolog.Logger
}

// NewRetryingModel wraps inner with the standard retry policy.
func NewRetryingModel(inner Model, logger zerolog.Logger) *RetryingModel {
	return &RetryingModel{inner: inner, sleep: sleepCtx, logger: logger}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Analyze calls inner.Analyze, retrying on rate-limit and
// validation-failure errors per the backoff policy above. Permission
// errors and any other error class return immediately.
func (r *RetryingModel) Analyze(ctx context.Context, req AnalyzeRequest) (AnalysisResult, Metrics, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, metrics, err := r.inner.Analyze(ctx, req)
		if err == nil {
			return result, metrics, nil
		}
		lastErr = err

		switch {
		case errors.Is(err, ErrPermissionDenied):
			return AnalysisResult{}, Metrics{}, err

		case errors.Is(err, ErrRateLimited):
			if attempt == maxAttempts-1 {
				return AnalysisResult{}, Metrics{}, fmt.Errorf("vision: rate limit exceeded after %d attempts: %w", maxAttempts, err)
			}
			r.logger.Warn().Err(err).Str("video_id", req.VideoID).Int("attempt", attempt+1).Msg("vision: rate limited, backing off")
			if serr := r.sleep(ctx, rateLimitBackoff[attempt]); serr != nil {
				return AnalysisResult{}, Metrics{}, serr
			}

		case errors.Is(err, ErrValidationFailed):
			if attempt == maxAttempts-1 {
				return AnalysisResult{}, Metrics{}, fmt.Errorf("vision: validation failed after %d attempts: %w", maxAttempts, err)
			}
			r.logger.Warn().Err(err).Str("video_id", req.VideoID).Int("attempt", attempt+1).Msg("vision: response failed validation, retrying")
			if serr := r.sleep(ctx, validationRetryDelay); serr != nil {
				return AnalysisResult{}, Metrics{}, serr
			}

		default:
			return AnalysisResult{}, Metrics{}, err
		}
	}
	return AnalysisResult{}, Metrics{}, lastErr
}

// CoerceNullBooleans applies §6's coercion rule in place: a null value
// in fair_use_applies or is_ai_generated is treated as false before
// validation. JSON decoding into the strict AnalysisResult struct above
// already maps JSON null to Go's zero value (false) for bool fields, so
// this is a no-op for decoders built on encoding/json-compatible
// libraries; it exists as the single documented place that rule lives
// for callers decoding from a raw map first.
func CoerceNullBooleans(raw map[string]any) {
	ipResults, ok := raw["ip_results"].([]any)
	if !ok {
		return
	}
	for _, entry := range ipResults {
		ip, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		for _, field := range []string{"fair_use_applies", "is_ai_generated"} {
			if v, present := ip[field]; present && v == nil {
				ip[field] = false
			}
		}
	}
}
