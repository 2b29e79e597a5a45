// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

// Package channel maintains per-uploader reputation: the rollup
// counters both the discovery scheduler (video-found, last-scanned) and
// the risk engine (confirmed/cleared counts feeding channel risk, §4.3)
// read and update.
package channel

import (
	"context"
	"time"

	"github.com/tomtom215/vigilnet/internal/store"
)

// Tracker owns channel-rollup maintenance the discovery scheduler calls
// before planning a run and after completing a channel scan.
type Tracker struct {
	channels *store.ChannelStore
}

// NewTracker wraps an already-open ChannelStore.
func NewTracker(channels *store.ChannelStore) *Tracker {
	return &Tracker{channels: channels}
}

// EligibleForScan returns channel ids ordered by descending video count,
// excluding any channel scanned within cooldown of now (§4.1 step 1).
func (t *Tracker) EligibleForScan(ctx context.Context, cooldown time.Duration, now time.Time) ([]string, error) {
	all, err := t.channels.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var eligible []*store.Channel
	for _, c := range all {
		if now.Sub(c.LastScannedAt) < cooldown {
			continue
		}
		eligible = append(eligible, c)
	}
	for i := 1; i < len(eligible); i++ {
		for j := i; j > 0 && eligible[j-1].TotalVideosFound < eligible[j].TotalVideosFound; j-- {
			eligible[j-1], eligible[j] = eligible[j], eligible[j-1]
		}
	}
	ids := make([]string, len(eligible))
	for i, c := range eligible {
		ids[i] = c.ID
	}
	return ids, nil
}

// RecentlyUploading returns channel ids that have been scanned before
// (so their upload cadence is known) but whose last scan was within the
// fresh-content window — the fresh-content scanner's candidate pool,
// deliberately bypassing the normal cooldown so a known-infringing
// channel's newest upload isn't stuck behind it.
func (t *Tracker) RecentlyUploading(ctx context.Context, window time.Duration, now time.Time) ([]string, error) {
	all, err := t.channels.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, c := range all {
		if c.LastScannedAt.IsZero() {
			continue
		}
		if now.Sub(c.LastScannedAt) <= window {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

// GetOrCreate returns the channel record for id, seeding a zero-value
// one (not yet persisted) if absent.
func (t *Tracker) GetOrCreate(ctx context.Context, id, title string) (*store.Channel, error) {
	return t.channels.GetOrCreate(ctx, id, title)
}

// Upsert writes c in full, replacing any prior record.
func (t *Tracker) Upsert(ctx context.Context, c *store.Channel) error {
	return t.channels.Upsert(ctx, c)
}

// RecordScanCompleted stamps the channel's last-scanned time, closing
// out one channel-scan pass.
func (t *Tracker) RecordScanCompleted(ctx context.Context, channelID string, at time.Time) error {
	_, err := t.channels.Mutate(ctx, channelID, "", func(c *store.Channel) {
		c.LastScannedAt = at
		if c.FirstSeenAt.IsZero() {
			c.FirstSeenAt = at
		}
	})
	return err
}

// RecordVideoFound increments the channel's lifetime video-found counter
// and running view-count total — called once per sighting of any video
// belonging to the channel, matched or not (§4.4 step 3). The view total
// feeds the channel risk calculator's damage-done factor (§4.3).
func (t *Tracker) RecordVideoFound(ctx context.Context, channelID, title string, viewCount int64) (*store.Channel, error) {
	return t.channels.Mutate(ctx, channelID, title, func(c *store.Channel) {
		c.TotalVideosFound++
		c.TotalViews += viewCount
	})
}
