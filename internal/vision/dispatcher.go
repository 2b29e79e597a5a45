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

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/vigilnet/internal/eventbus"
	"github.com/tomtom215/vigilnet/internal/ipconfig"
	"github.com/tomtom215/vigilnet/internal/store"
)

// MinimumScanPriority gates which scan-ready messages the dispatcher will
// analyze at all. It defaults to 0 (scan everything) — there is no
// time-based rescheduling in this pipeline, only a pure priority queue,
// so the only way a video is ever skipped is an explicit priority floor
// raised by the operator.
const MinimumScanPriority = 0

// ErrNoConfigsMatched marks a scan-ready message whose matched_ips no
// longer resolve to any enabled IP config. Discovery is expected to have
// already filtered against enabled configs, so this should never happen
// in practice; when it does, the video is marked failed rather than
// retried forever.
var ErrNoConfigsMatched = errors.New("vision: no IP configs matched")

// ErrBudgetExhausted marks a video skipped because its estimated cost
// would exceed the remaining daily budget. The video is left in a
// failed, retryable state rather than permanently dropped.
var ErrBudgetExhausted = errors.New("vision: daily budget exhausted")

// Dispatcher consumes scan-ready events and runs each one through the
// full analysis pipeline: config calculation, budget gate, prompt
// construction, model invocation (with retry), and result processing.
// A bounded semaphore caps how many of these — each one potentially a
// multi-minute model call — run concurrently, so a burst of scan-ready
// messages can't starve the process's health endpoint or other
// schedulers of CPU and network connections.
type Dispatcher struct {
	videos    *store.VideoStore
	scans     *store.ScanHistoryStore
	ipMgr     *ipconfig.Manager
	budget    *Budget
	configs   *ConfigCalculator
	prompts   *PromptBuilder
	model     Model
	processor *ResultProcessor
	logger    zerolog.Logger

	sem chan struct{}
	now func() time.Time
}

// NewDispatcher returns a ready Dispatcher. concurrency bounds the number
// of simultaneous model calls; it is clamped to at least 1.
func NewDispatcher(videos *store.VideoStore, scans *store.ScanHistoryStore, ipMgr *ipconfig.Manager, budget *Budget, configs *ConfigCalculator, prompts *PromptBuilder, model Model, processor *ResultProcessor, logger zerolog.Logger, concurrency int) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{
		videos:    videos,
		scans:     scans,
		ipMgr:     ipMgr,
		budget:    budget,
		configs:   configs,
		prompts:   prompts,
		model:     model,
		processor: processor,
		logger:    logger,
		sem:       make(chan struct{}, concurrency),
		now:       time.Now,
	}
}

// HandlerFunc adapts Dispatcher to a Watermill no-publish consumer
// handler for the scan-ready topic. Decode failures are logged and
// acked (the message is malformed, not transient); everything else is
// delegated to Handle, whose error is returned so the router's retry
// middleware can act on it.
func (d *Dispatcher) HandlerFunc() message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		var evt eventbus.ScanReadyEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			d.logger.Error().Err(err).Msg("vision dispatcher: malformed scan-ready message, dropping")
			return nil
		}
		return d.Handle(msg.Context(), evt)
	}
}

// Handle runs one scan-ready event through the full pipeline. It
// acquires the concurrency semaphore before doing any expensive work and
// releases it on return.
func (d *Dispatcher) Handle(ctx context.Context, evt eventbus.ScanReadyEvent) error {
	select {
	case d.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-d.sem }()

	return d.analyze(ctx, evt)
}

func (d *Dispatcher) analyze(ctx context.Context, evt eventbus.ScanReadyEvent) error {
	videoID := evt.VideoID
	log := d.logger.With().Str("video_id", videoID).Logger()

	video, err := d.videos.Get(ctx, videoID)
	if err != nil {
		return fmt.Errorf("vision dispatcher: load video %s: %w", videoID, err)
	}
	if video.Status != store.StatusDiscovered {
		log.Info().Str("status", string(video.Status)).Msg("vision dispatcher: scan-ready redelivered for a video no longer discovered, skipping")
		return nil
	}

	if evt.Metadata.ScanPriority < MinimumScanPriority {
		log.Info().Int("scan_priority", evt.Metadata.ScanPriority).Msg("vision dispatcher: below minimum scan priority, skipping")
		return d.markSkipped(ctx, videoID, fmt.Sprintf("scan_priority %d < minimum %d", evt.Metadata.ScanPriority, MinimumScanPriority))
	}

	configs := make([]ipconfig.Target, 0, len(evt.Metadata.MatchedIPs))
	for _, ipID := range evt.Metadata.MatchedIPs {
		if target, ok := d.ipMgr.ByID(ipID); ok && target.Active() {
			configs = append(configs, target)
		} else {
			log.Warn().Str("ip_id", ipID).Msg("vision dispatcher: matched IP has no active config")
		}
	}
	if len(configs) == 0 {
		d.markFailed(ctx, videoID, ErrNoConfigsMatched)
		return nil
	}

	scanID := uuid.NewString()
	d.startScan(ctx, scanID, videoID)

	if err := d.markProcessing(ctx, videoID); err != nil {
		log.Warn().Err(err).Msg("vision dispatcher: failed to mark video processing")
	}

	remaining, err := d.budget.Remaining(ctx)
	if err != nil {
		d.failScan(ctx, scanID, err)
		return fmt.Errorf("vision dispatcher: check remaining budget: %w", err)
	}

	cfg := d.configs.Calculate(evt.Metadata.DurationSeconds, evt.Metadata.RiskTier, remaining, 1)

	afford, err := d.budget.CanAfford(ctx, cfg.EstimatedCostUSD)
	if err != nil {
		d.failScan(ctx, scanID, err)
		return fmt.Errorf("vision dispatcher: budget check: %w", err)
	}
	if !afford {
		log.Info().Float64("estimated_cost_usd", cfg.EstimatedCostUSD).Float64("remaining_usd", remaining).Msg("vision dispatcher: budget exhausted, deferring")
		d.failScan(ctx, scanID, ErrBudgetExhausted)
		d.markFailed(ctx, videoID, ErrBudgetExhausted)
		return ErrBudgetExhausted
	}

	if err := d.budget.EnforceRateLimit(ctx); err != nil {
		d.failScan(ctx, scanID, err)
		return fmt.Errorf("vision dispatcher: rate limit: %w", err)
	}

	prompt := d.prompts.Build(evt.Metadata, configs)

	result, metrics, err := d.model.Analyze(ctx, AnalyzeRequest{
		VideoID:            videoID,
		VideoURL:           evt.Metadata.URL,
		Prompt:             prompt,
		FPS:                cfg.FPS,
		StartOffsetSeconds: cfg.StartOffsetSeconds,
		EndOffsetSeconds:   cfg.EndOffsetSeconds,
	})
	if err != nil {
		d.failScan(ctx, scanID, err)
		d.markFailed(ctx, videoID, err)
		return fmt.Errorf("vision dispatcher: analyze video %s: %w", videoID, err)
	}

	if err := d.budget.RecordUsage(ctx, metrics.CostUSD, metrics.InputTokens, metrics.OutputTokens); err != nil {
		log.Warn().Err(err).Msg("vision dispatcher: failed to record budget usage")
	}

	outcome, err := d.processor.Process(ctx, videoID, result, metrics)
	if err != nil {
		d.failScan(ctx, scanID, err)
		d.markFailed(ctx, videoID, err)
		return fmt.Errorf("vision dispatcher: process result for %s: %w", videoID, err)
	}

	d.completeScan(ctx, scanID)

	log.Info().
		Bool("was_rescan", outcome.WasRescan).
		Bool("contains_infringement", outcome.HasInfringement).
		Bool("actionable", outcome.Actionable).
		Float64("cost_usd", metrics.CostUSD).
		Msg("vision dispatcher: analysis complete")

	return nil
}

// startScan records a running scan-history entry before any paid work
// begins, so the resilience sweep has something to cross-reference if the
// process dies mid-analysis. Failure to persist it is logged, not fatal —
// the analysis itself is what matters to the caller.
func (d *Dispatcher) startScan(ctx context.Context, scanID, videoID string) {
	rec := &store.ScanHistoryRecord{
		ScanID:    scanID,
		VideoID:   videoID,
		Status:    store.ScanRunning,
		StartedAt: d.now(),
	}
	if err := d.scans.Put(ctx, rec); err != nil {
		d.logger.Warn().Err(err).Str("scan_id", scanID).Str("video_id", videoID).Msg("vision dispatcher: failed to record scan-history start")
	}
}

func (d *Dispatcher) completeScan(ctx context.Context, scanID string) {
	d.finishScan(ctx, scanID, store.ScanCompleted, nil)
}

func (d *Dispatcher) failScan(ctx context.Context, scanID string, cause error) {
	d.finishScan(ctx, scanID, store.ScanFailed, cause)
}

func (d *Dispatcher) finishScan(ctx context.Context, scanID string, status store.ScanStatus, cause error) {
	rec, err := d.scans.Get(ctx, scanID)
	if err != nil {
		d.logger.Warn().Err(err).Str("scan_id", scanID).Msg("vision dispatcher: failed to load scan-history record to finish")
		return
	}
	rec.Status = status
	rec.CompletedAt = d.now()
	if cause != nil {
		rec.Error = cause.Error()
	}
	if err := d.scans.Put(ctx, rec); err != nil {
		d.logger.Warn().Err(err).Str("scan_id", scanID).Msg("vision dispatcher: failed to record scan-history completion")
	}
}

func (d *Dispatcher) markProcessing(ctx context.Context, videoID string) error {
	v, err := d.videos.Get(ctx, videoID)
	if err != nil {
		return err
	}
	v.Status = store.StatusProcessing
	v.UpdatedAt = d.now()
	return d.videos.Upsert(ctx, v)
}

func (d *Dispatcher) markSkipped(ctx context.Context, videoID, reason string) error {
	v, err := d.videos.Get(ctx, videoID)
	if err != nil {
		return err
	}
	v.Status = store.StatusSkippedLowPriority
	v.UpdatedAt = d.now()
	if err := d.videos.Upsert(ctx, v); err != nil {
		return err
	}
	d.logger.Info().Str("video_id", videoID).Str("reason", reason).Msg("vision dispatcher: video skipped")
	return nil
}

// markFailed records a video as failed so it can be picked back up by a
// later resilience sweep; the error itself isn't persisted on the video
// record beyond the log line, since store.Video carries no error field.
func (d *Dispatcher) markFailed(ctx context.Context, videoID string, cause error) {
	v, err := d.videos.Get(ctx, videoID)
	if err != nil {
		d.logger.Warn().Err(err).Str("video_id", videoID).Msg("vision dispatcher: failed to load video to mark failed")
		return
	}
	v.Status = store.StatusFailed
	v.UpdatedAt = d.now()
	if err := d.videos.Upsert(ctx, v); err != nil {
		d.logger.Warn().Err(err).Str("video_id", videoID).Msg("vision dispatcher: failed to persist failed status")
		return
	}
	d.logger.Error().Err(cause).Str("video_id", videoID).Msg("vision dispatcher: video marked failed")
}
