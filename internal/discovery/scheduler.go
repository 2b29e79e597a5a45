// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package discovery

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/vigilnet/internal/channel"
	"github.com/tomtom215/vigilnet/internal/eventbus"
	"github.com/tomtom215/vigilnet/internal/ipconfig"
	"github.com/tomtom215/vigilnet/internal/metrics"
	"github.com/tomtom215/vigilnet/internal/store"
	"github.com/tomtom215/vigilnet/internal/store/rollup"
)

// breakerStateValue maps a gobreaker state to the gauge value convention
// shared by every circuit-breaker metric in this module: 0=closed,
// 1=half-open, 2=open.
func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// recordBreakerResult updates the request-outcome counter for a
// breaker-guarded call. A rejection (open circuit, or half-open and over
// the concurrent-probe limit) is counted separately from a genuine
// upstream failure, matching the source pipeline's circuit-breaker client.
func recordBreakerResult(name string, err error) {
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(name, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(name, "failure").Inc()
	}
}

// Stats is the run-statistics record returned by Scheduler.Run (§4.1).
type Stats struct {
	NewVideos         int
	RediscoveredVideos int
	AlreadyScanned    int
	UniqueChannels    int
	QuotaUsed         int
	Duration          time.Duration
}

// Scheduler runs one discovery cycle: build a plan, execute it against
// the external search client with quota enforcement, process every
// result, and trigger batch vision dispatch for the resulting backlog.
type Scheduler struct {
	client    Client
	breaker   *gobreaker.CircuitBreaker[SearchPage]
	quota     *rollup.DB
	history   *History
	planner   *PlanBuilder
	processor *Processor
	videos    *store.VideoStore
	channels  *channel.Tracker
	ipMgr     *ipconfig.Manager
	logger    zerolog.Logger
	breakerName string
	searchLimiter *rate.Limiter

	maxChannels   int
	maxQueries    int
	dailyQuota    int
	channelCooldown time.Duration
}

// NewScheduler wires a ready Scheduler. breakerName identifies the
// circuit breaker's metrics/log lines. searchInterval paces outbound
// keyword-search calls independent of the quota ledger: quota bounds
// total daily spend, this bounds how fast that spend can be burned
// against the upstream search API. A non-positive interval disables
// pacing (the limiter allows every call through immediately).
func NewScheduler(client Client, quota *rollup.DB, history *History, planner *PlanBuilder, processor *Processor, videos *store.VideoStore, channels *channel.Tracker, ipMgr *ipconfig.Manager, logger zerolog.Logger, dailyQuota, maxChannels, maxQueries int, channelCooldown, searchInterval time.Duration, breakerName string) *Scheduler {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0) // 0 = closed

	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	}
	limit := rate.Inf
	if searchInterval > 0 {
		limit = rate.Every(searchInterval)
	}

	return &Scheduler{
		client:      client,
		breaker:     gobreaker.NewCircuitBreaker[SearchPage](settings),
		searchLimiter: rate.NewLimiter(limit, 1),
		quota:       quota,
		history:     history,
		planner:     planner,
		processor:   processor,
		videos:      videos,
		channels:    channels,
		ipMgr:       ipMgr,
		logger:      logger,
		breakerName: breakerName,
		maxChannels: maxChannels,
		maxQueries:  maxQueries,
		dailyQuota:  dailyQuota,
		channelCooldown: channelCooldown,
	}
}

// Run executes one discovery cycle per §4.1. maxQuotaUnits bounds this
// run's own spend on top of whatever the daily ledger already reflects.
func (s *Scheduler) Run(ctx context.Context, maxQuotaUnits int) (Stats, error) {
	start := time.Now()
	var stats Stats

	quotaStatus, err := s.quota.GetQuota(ctx, start, s.dailyQuota)
	if err != nil {
		return stats, err
	}
	budget := maxQuotaUnits
	if int64(budget) > quotaStatus.Remaining() {
		budget = int(quotaStatus.Remaining())
	}

	keywords := KeywordsFromTargets(s.ipMgr.Enabled())
	allChannels, err := s.eligibleChannels(ctx)
	if err != nil {
		return stats, err
	}

	plan, err := s.planner.Build(ctx, keywords, allChannels, budget, s.maxChannels, s.maxQueries)
	if err != nil {
		return stats, err
	}

	channelsTouched := make(map[string]struct{})
	exhausted := make(map[string]bool)

	// plan.Steps interleaves channel scans and keyword queries in one
	// shuffled sequence (§4.1 step 3) rather than draining every scan
	// before starting any query.
	for _, step := range plan.Steps {
		switch step.Kind {
		case StepScan:
			if s.remaining(ctx, start) < CostChannelScan {
				continue
			}
			if err := s.runChannelScan(ctx, step.Scan.ChannelID, &stats); err != nil {
				s.logger.Warn().Err(err).Str("channel_id", step.Scan.ChannelID).Msg("channel scan failed")
				continue
			}
			channelsTouched[step.Scan.ChannelID] = struct{}{}
		case StepQuery:
			q := step.Query
			if exhausted[q.Keyword] {
				continue
			}
			if s.remaining(ctx, start) < CostSearchPage {
				continue
			}
			if err := s.runKeywordQuery(ctx, q, &stats, channelsTouched, exhausted); err != nil {
				s.logger.Warn().Err(err).Str("keyword", q.Keyword).Str("order", string(q.Order)).Msg("keyword query failed")
				continue
			}
		}
	}

	stats.UniqueChannels = len(channelsTouched)
	stats.Duration = time.Since(start)
	return stats, nil
}

func (s *Scheduler) remaining(ctx context.Context, runStart time.Time) int64 {
	status, err := s.quota.GetQuota(ctx, runStart, s.dailyQuota)
	if err != nil {
		return 0
	}
	return status.Remaining()
}

func (s *Scheduler) eligibleChannels(ctx context.Context) ([]string, error) {
	return s.channels.EligibleForScan(ctx, s.channelCooldown, time.Now())
}

func (s *Scheduler) runChannelScan(ctx context.Context, channelID string, stats *Stats) error {
	if _, err := s.channels.GetOrCreate(ctx, channelID, ""); err != nil {
		return err
	}

	details, err := s.callChannelDetails(ctx, channelID)
	if err != nil {
		return err
	}
	if err := s.quota.RecordQuotaUsage(ctx, time.Now(), CostChannelDetails); err != nil {
		return err
	}

	pageToken := ""
	for {
		ids, next, err := s.client.ChannelUploads(ctx, details.UploadsPlaylistID, pageToken)
		if err != nil {
			return err
		}
		if err := s.quota.RecordQuotaUsage(ctx, time.Now(), CostPlaylistPage); err != nil {
			return err
		}
		if err := s.fetchAndProcess(ctx, ids, stats); err != nil {
			return err
		}
		if next == "" {
			break
		}
		pageToken = next
	}

	return s.channels.RecordScanCompleted(ctx, channelID, time.Now())
}

func (s *Scheduler) callChannelDetails(ctx context.Context, channelID string) (RawChannel, error) {
	return s.client.ChannelDetails(ctx, channelID)
}

func (s *Scheduler) runKeywordQuery(ctx context.Context, q QueryPlanItem, stats *Stats, channelsTouched map[string]struct{}, exhausted map[string]bool) error {
	shouldSearch, window, err := s.history.ShouldSearch(ctx, q.Keyword, q.Order)
	if err != nil || !shouldSearch {
		return err
	}

	var tw *TimeWindow
	if window != nil {
		tw = window
	}

	if err := s.searchLimiter.Wait(ctx); err != nil {
		return err
	}

	page, err := s.breaker.Execute(func() (SearchPage, error) {
		return s.client.SearchVideos(ctx, q.Keyword, q.Order, tw, "")
	})
	recordBreakerResult(s.breakerName, err)
	if err := s.quota.RecordQuotaUsage(ctx, time.Now(), CostSearchPage); err != nil {
		return err
	}
	if err != nil {
		return err
	}

	for _, v := range page.Videos {
		channelsTouched[v.ChannelID] = struct{}{}
	}
	if err := s.fetchAndProcess(ctx, videoIDs(page.Videos), stats); err != nil {
		return err
	}

	if err := s.history.RecordSearch(ctx, q.Keyword, q.Order, len(page.Videos), window, q.Tier); err != nil {
		return err
	}

	if len(page.Videos) < 50 {
		// Exhausted is keyed by keyword alone, so this marks all four
		// orderings of the keyword as processed for the rest of this run.
		exhausted[q.Keyword] = true
	}
	return nil
}

func videoIDs(videos []RawVideo) []string {
	ids := make([]string, len(videos))
	for i, v := range videos {
		ids[i] = v.VideoID
	}
	return ids
}

func (s *Scheduler) fetchAndProcess(ctx context.Context, ids []string, stats *Stats) error {
	if len(ids) == 0 {
		return nil
	}
	for start := 0; start < len(ids); start += 50 {
		end := start + 50
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		details, err := s.client.VideoDetails(ctx, batch)
		if err != nil {
			return err
		}
		if err := s.quota.RecordQuotaUsage(ctx, time.Now(), CostVideoDetails); err != nil {
			return err
		}

		for _, raw := range details {
			existed, err := s.videos.Exists(ctx, raw.VideoID)
			if err != nil {
				return err
			}
			if err := s.processor.Process(ctx, raw); err != nil {
				return err
			}
			switch {
			case !existed:
				stats.NewVideos++
			default:
				stats.RediscoveredVideos++
			}
		}
	}
	return nil
}

// DispatchTrigger fans out a "scan-ready" event for the top-K unscanned
// videos in priority-tier order, the discovery scheduler's final step
// (§4.1: "does not wait for analysis completion; it only enqueues").
type DispatchTrigger struct {
	videos *store.VideoStore
	bus    interface {
		PublishScanReady(ctx context.Context, evt eventbus.ScanReadyEvent) error
	}
}

// NewDispatchTrigger returns a ready DispatchTrigger.
func NewDispatchTrigger(videos *store.VideoStore, bus interface {
	PublishScanReady(ctx context.Context, evt eventbus.ScanReadyEvent) error
}) *DispatchTrigger {
	return &DispatchTrigger{videos: videos, bus: bus}
}

// TriggerBatch publishes a scan-ready event for up to topK discovered
// videos drawn tier-by-tier (CRITICAL first), skipping any still below
// minimumPriority.
func (d *DispatchTrigger) TriggerBatch(ctx context.Context, topK int, minimumPriority int) (int, error) {
	tiers := []store.PriorityTier{store.TierCritical, store.TierHigh, store.TierMedium, store.TierLow, store.TierVeryLow}

	dispatched := 0
	for _, tier := range tiers {
		if dispatched >= topK {
			break
		}
		candidates, err := d.videos.ListByTier(ctx, tier, topK-dispatched)
		if err != nil {
			return dispatched, err
		}
		for _, v := range candidates {
			if v.Status != store.StatusDiscovered || v.CurrentRisk < minimumPriority {
				continue
			}
			if err := d.bus.PublishScanReady(ctx, eventbus.ScanReadyEvent{
				VideoID:  v.ID,
				Priority: v.CurrentRisk,
				Metadata: eventbus.VideoMetadata{
					VideoID:      v.ID,
					Title:        v.Title,
					ChannelID:    v.ChannelID,
					ChannelTitle: v.ChannelTitle,
					RiskScore:    v.CurrentRisk,
					RiskTier:     eventbus.PriorityTier(v.PriorityTier),
					MatchedIPs:   v.MatchedIPConfigIDs,
					DiscoveredAt: v.DiscoveredAt,
					ScanPriority: v.CurrentRisk,
				},
			}); err != nil {
				return dispatched, err
			}
			dispatched++
			if dispatched >= topK {
				break
			}
		}
	}
	return dispatched, nil
}
