// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/vigilnet/internal/channel"
	"github.com/tomtom215/vigilnet/internal/eventbus"
	"github.com/tomtom215/vigilnet/internal/ipconfig"
	"github.com/tomtom215/vigilnet/internal/store"
)

// RiskScorer computes a video's initial risk score and tier (§4.3),
// implemented by internal/riskengine. Declared here, not imported from
// there, so discovery depends only on the interface it needs.
type RiskScorer interface {
	VideoRisk(video *store.Video, matchedIPs []string, viaHighPriority bool, channel *store.Channel) (score int, tier store.PriorityTier)
}

// Publisher is the subset of the event bus the processor needs.
type Publisher interface {
	PublishVideoDiscovered(ctx context.Context, evt eventbus.VideoDiscoveredEvent) error
}

// Processor implements §4.4's per-video ingestion algorithm: metadata
// normalization, IP matching, new/rediscovered/already-triggered
// branching, channel rollup maintenance, and event emission.
type Processor struct {
	videos   *store.VideoStore
	channels *channel.Tracker
	ipconfig *ipconfig.Manager
	matcher  *ipconfig.Matcher
	risk     RiskScorer
	bus      Publisher
}

// NewProcessor returns a ready Processor.
func NewProcessor(videos *store.VideoStore, channels *channel.Tracker, ipMgr *ipconfig.Manager, matcher *ipconfig.Matcher, risk RiskScorer, bus Publisher) *Processor {
	return &Processor{videos: videos, channels: channels, ipconfig: ipMgr, matcher: matcher, risk: risk, bus: bus}
}

// ExtractMetadata normalizes a RawVideo into a store.Video, applying the
// field-level fallbacks of §4.4 step 1. The returned record has zero
// value for fields only the risk engine or vision pipeline populate.
func ExtractMetadata(raw RawVideo) *store.Video {
	return &store.Video{
		ID:              raw.VideoID,
		Title:           raw.Title,
		Description:     raw.Description,
		Tags:            raw.Tags,
		ChannelID:       raw.ChannelID,
		ChannelTitle:    raw.ChannelTitle,
		DurationSeconds: parseISO8601Duration(raw.DurationISO8601),
		ViewCount:       raw.ViewCount,
		LikeCount:       raw.LikeCount,
		CommentCount:    raw.CommentCount,
		DiscoveredAt:    parsePublishedAt(raw.PublishedAt),
		Status:          store.StatusDiscovered,
	}
}

// matchText joins the fields the text-only matcher considers: title,
// description, tags, and channel title (§4.4 step 2).
func matchText(v *store.Video) string {
	return strings.Join([]string{v.Title, v.Description, strings.Join(v.Tags, " "), v.ChannelTitle}, " ")
}

// Process runs §4.4's full per-video algorithm for one raw result.
func (p *Processor) Process(ctx context.Context, raw RawVideo) error {
	incoming := ExtractMetadata(raw)

	existing, lookupErr := p.videos.Get(ctx, incoming.ID)
	if lookupErr != nil && lookupErr != store.ErrNotFound {
		return fmt.Errorf("lookup video %s: %w", incoming.ID, lookupErr)
	}

	matched := p.matcher.Match(matchText(incoming), p.ipconfig.Enabled())
	matchedIDs := make([]string, len(matched))
	viaHighPriority := false
	for i, m := range matched {
		matchedIDs[i] = m.Target.ID
		if m.ViaHighPriority {
			viaHighPriority = true
		}
	}

	ch, err := p.channels.RecordVideoFound(ctx, incoming.ChannelID, incoming.ChannelTitle, incoming.ViewCount)
	if err != nil {
		return fmt.Errorf("update channel rollup for %s: %w", incoming.ChannelID, err)
	}

	if lookupErr == store.ErrNotFound {
		return p.processNew(ctx, incoming, matchedIDs, viaHighPriority, ch)
	}
	return p.processExisting(ctx, existing, matchedIDs, viaHighPriority)
}

func (p *Processor) processNew(ctx context.Context, v *store.Video, matchedIDs []string, viaHighPriority bool, channel *store.Channel) error {
	v.MatchedIPConfigIDs = matchedIDs
	v.MatchedHighPriority = viaHighPriority
	score, tier := p.risk.VideoRisk(v, matchedIDs, viaHighPriority, channel)
	v.InitialRisk = score
	v.CurrentRisk = score
	v.PriorityTier = tier

	if err := p.videos.Upsert(ctx, v); err != nil {
		return fmt.Errorf("persist new video %s: %w", v.ID, err)
	}

	return p.bus.PublishVideoDiscovered(ctx, eventbus.VideoDiscoveredEvent{
		VideoID:  v.ID,
		Priority: score,
		Metadata: eventbus.VideoMetadata{
			VideoID:         v.ID,
			Title:           v.Title,
			DurationSeconds: v.DurationSeconds,
			ViewCount:       v.ViewCount,
			ChannelID:       v.ChannelID,
			ChannelTitle:    v.ChannelTitle,
			RiskScore:       score,
			RiskTier:        eventbus.PriorityTier(tier),
			MatchedIPs:      matchedIDs,
			DiscoveredAt:    v.DiscoveredAt,
			ScanPriority:    score,
		},
	})
}

// processExisting applies §4.4 step 2's "present" branch: additively
// merge newly matched IPs, and only emit a discovery event (by setting
// the triggered marker) the first time a never-triggered video is seen
// again. A video already enqueued for vision analysis is updated
// silently.
func (p *Processor) processExisting(ctx context.Context, existing *store.Video, newMatches []string, viaHighPriority bool) error {
	merged := mergeIDs(existing.MatchedIPConfigIDs, newMatches)
	changed := len(merged) != len(existing.MatchedIPConfigIDs)
	existing.MatchedIPConfigIDs = merged
	if viaHighPriority {
		existing.MatchedHighPriority = true
	}

	alreadyTriggered := existing.Status != store.StatusDiscovered
	if alreadyTriggered {
		if changed {
			if err := p.videos.Upsert(ctx, existing); err != nil {
				return fmt.Errorf("update matched ips for %s: %w", existing.ID, err)
			}
		}
		return nil
	}

	// Never triggered: this run is the trigger.
	existing.Status = store.StatusProcessing
	existing.UpdatedAt = time.Now()
	if err := p.videos.Upsert(ctx, existing); err != nil {
		return fmt.Errorf("trigger vision dispatch for %s: %w", existing.ID, err)
	}

	return p.bus.PublishVideoDiscovered(ctx, eventbus.VideoDiscoveredEvent{
		VideoID:  existing.ID,
		Priority: existing.CurrentRisk,
		Metadata: eventbus.VideoMetadata{
			VideoID:      existing.ID,
			Title:        existing.Title,
			ChannelID:    existing.ChannelID,
			ChannelTitle: existing.ChannelTitle,
			RiskScore:    existing.CurrentRisk,
			RiskTier:     eventbus.PriorityTier(existing.PriorityTier),
			MatchedIPs:   existing.MatchedIPConfigIDs,
			DiscoveredAt: existing.DiscoveredAt,
			ScanPriority: existing.CurrentRisk,
		},
	})
}

func mergeIDs(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	out := append([]string(nil), existing...)
	for _, id := range existing {
		seen[id] = struct{}{}
	}
	for _, id := range incoming {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
