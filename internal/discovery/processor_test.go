// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/vigilnet/internal/channel"
	"github.com/tomtom215/vigilnet/internal/eventbus"
	"github.com/tomtom215/vigilnet/internal/ipconfig"
	"github.com/tomtom215/vigilnet/internal/store"
)

const processorTestYAML = `
ip_targets:
  - id: starlight-saga
    display_name: The Starlight Wanderer
    enabled: true
    search_keywords:
      high:
        - "starlight wanderer ai"
`

type fakeRiskScorer struct {
	score int
	tier  store.PriorityTier
}

func (f fakeRiskScorer) VideoRisk(video *store.Video, matchedIPs []string, viaHighPriority bool, channel *store.Channel) (int, store.PriorityTier) {
	return f.score, f.tier
}

type fakePublisher struct {
	published []eventbus.VideoDiscoveredEvent
}

func (f *fakePublisher) PublishVideoDiscovered(ctx context.Context, evt eventbus.VideoDiscoveredEvent) error {
	f.published = append(f.published, evt)
	return nil
}

func newTestProcessor(t *testing.T) (*Processor, *store.VideoStore, *fakePublisher) {
	t.Helper()
	db, err := store.OpenBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	videos := store.NewVideoStore(db)
	channels := channel.NewTracker(store.NewChannelStore(db))

	path := filepath.Join(t.TempDir(), "ip.yaml")
	require.NoError(t, os.WriteFile(path, []byte(processorTestYAML), 0o600))
	mgr, err := ipconfig.NewManager(path)
	require.NoError(t, err)

	pub := &fakePublisher{}
	proc := NewProcessor(videos, channels, mgr, ipconfig.NewMatcher(), fakeRiskScorer{score: 72, tier: store.TierHigh}, pub)
	return proc, videos, pub
}

func TestProcessor_Process_NewVideoMatchesAndPublishes(t *testing.T) {
	ctx := context.Background()
	proc, videos, pub := newTestProcessor(t)

	raw := RawVideo{
		VideoID:      "v1",
		Title:        "Starlight Wanderer AI recreation",
		ChannelID:    "c1",
		ChannelTitle: "Some Channel",
		PublishedAt:  "2026-01-01T00:00:00Z",
	}
	require.NoError(t, proc.Process(ctx, raw))

	v, err := videos.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusDiscovered, v.Status)
	assert.Equal(t, 72, v.InitialRisk)
	assert.Equal(t, []string{"starlight-saga"}, v.MatchedIPConfigIDs)
	require.Len(t, pub.published, 1)
	assert.Equal(t, "v1", pub.published[0].VideoID)
}

func TestProcessor_Process_UnmatchedVideoStillPersists(t *testing.T) {
	ctx := context.Background()
	proc, videos, pub := newTestProcessor(t)

	raw := RawVideo{VideoID: "v2", Title: "unrelated cooking tutorial", ChannelID: "c2"}
	require.NoError(t, proc.Process(ctx, raw))

	v, err := videos.Get(ctx, "v2")
	require.NoError(t, err)
	assert.Empty(t, v.MatchedIPConfigIDs)
	assert.Len(t, pub.published, 1)
}

func TestProcessor_Process_NeverTriggeredExistingVideoTriggersOnce(t *testing.T) {
	ctx := context.Background()
	proc, videos, pub := newTestProcessor(t)

	raw := RawVideo{VideoID: "v3", Title: "unrelated", ChannelID: "c3"}
	require.NoError(t, proc.Process(ctx, raw))
	require.Len(t, pub.published, 1)

	// Second sighting of the same never-triggered video re-triggers exactly once.
	require.NoError(t, proc.Process(ctx, raw))
	assert.Len(t, pub.published, 2)

	v, err := videos.Get(ctx, "v3")
	require.NoError(t, err)
	assert.Equal(t, store.StatusProcessing, v.Status)
}

func TestProcessor_Process_AlreadyTriggeredVideoOnlyMergesMatches(t *testing.T) {
	ctx := context.Background()
	proc, videos, pub := newTestProcessor(t)

	require.NoError(t, videos.Upsert(ctx, &store.Video{
		ID:     "v4",
		Status: store.StatusAnalyzed,
	}))

	raw := RawVideo{VideoID: "v4", Title: "Starlight Wanderer AI clip", ChannelID: "c4"}
	require.NoError(t, proc.Process(ctx, raw))

	assert.Empty(t, pub.published, "an already-triggered video must never re-emit")

	v, err := videos.Get(ctx, "v4")
	require.NoError(t, err)
	assert.Equal(t, []string{"starlight-saga"}, v.MatchedIPConfigIDs)
}

func TestProcessor_Process_ChannelRollupIncrementsOnEverySighting(t *testing.T) {
	ctx := context.Background()
	proc, _, _ := newTestProcessor(t)

	raw := RawVideo{VideoID: "v5", Title: "x", ChannelID: "chan-rollup"}
	require.NoError(t, proc.Process(ctx, raw))
	raw2 := RawVideo{VideoID: "v6", Title: "y", ChannelID: "chan-rollup"}
	require.NoError(t, proc.Process(ctx, raw2))

	c, err := proc.channels.GetOrCreate(ctx, "chan-rollup", "")
	require.NoError(t, err)
	assert.Equal(t, 2, c.TotalVideosFound)
}
