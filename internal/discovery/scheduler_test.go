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
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/vigilnet/internal/channel"
	"github.com/tomtom215/vigilnet/internal/eventbus"
	"github.com/tomtom215/vigilnet/internal/ipconfig"
	"github.com/tomtom215/vigilnet/internal/store"
	"github.com/tomtom215/vigilnet/internal/store/rollup"
)

const schedulerTestYAML = `
ip_targets:
  - id: starlight-saga
    display_name: The Starlight Wanderer
    enabled: true
    search_keywords:
      high:
        - "starlight wanderer ai"
`

// fakeClient serves one page of videos per keyword and one channel with
// no uploads, so a single Run never loops indefinitely.
type fakeClient struct {
	videosPerKeyword map[string][]RawVideo
	channels         map[string]RawChannel
}

func (f *fakeClient) SearchVideos(ctx context.Context, keyword string, order SearchOrder, window *TimeWindow, pageToken string) (SearchPage, error) {
	return SearchPage{Videos: f.videosPerKeyword[keyword]}, nil
}

func (f *fakeClient) VideoDetails(ctx context.Context, videoIDs []string) ([]RawVideo, error) {
	byID := make(map[string]RawVideo)
	for _, vs := range f.videosPerKeyword {
		for _, v := range vs {
			byID[v.VideoID] = v
		}
	}
	var out []RawVideo
	for _, id := range videoIDs {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeClient) ChannelDetails(ctx context.Context, channelID string) (RawChannel, error) {
	return f.channels[channelID], nil
}

func (f *fakeClient) ChannelUploads(ctx context.Context, uploadsPlaylistID string, pageToken string) ([]string, string, error) {
	return nil, "", nil
}

type schedulerFixture struct {
	scheduler *Scheduler
	videos    *store.VideoStore
}

func newSchedulerFixture(t *testing.T, client Client) schedulerFixture {
	t.Helper()
	ctx := context.Background()

	bdb, err := store.OpenBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bdb.Close() })

	rdb, err := rollup.Open(ctx, filepath.Join(t.TempDir(), "rollup.duckdb"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	videos := store.NewVideoStore(bdb)
	channels := channel.NewTracker(store.NewChannelStore(bdb))

	path := filepath.Join(t.TempDir(), "ip.yaml")
	require.NoError(t, os.WriteFile(path, []byte(schedulerTestYAML), 0o600))
	ipMgr, err := ipconfig.NewManager(path)
	require.NoError(t, err)

	history := NewHistory(rdb, 1)
	planner := NewPlanBuilder(history, 1)
	processor := NewProcessor(videos, channels, ipMgr, ipconfig.NewMatcher(), fakeRiskScorer{score: 50, tier: store.TierMedium}, &fakePublisher{})

	sched := NewScheduler(client, rdb, history, planner, processor, videos, channels, ipMgr, zerolog.Nop(), 1_000_000, 10, 5, 7*24*time.Hour, 0, "test")
	return schedulerFixture{scheduler: sched, videos: videos}
}

func TestScheduler_Run_ProcessesKeywordSearchResults(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{
		videosPerKeyword: map[string][]RawVideo{
			"starlight wanderer ai": {
				{VideoID: "v1", Title: "Starlight Wanderer AI recreation", ChannelID: "c1", PublishedAt: "2026-01-01T00:00:00Z"},
			},
		},
		channels: map[string]RawChannel{},
	}
	fixture := newSchedulerFixture(t, client)

	stats, err := fixture.scheduler.Run(ctx, 1000)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.NewVideos, 1)

	v, err := fixture.videos.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, []string{"starlight-saga"}, v.MatchedIPConfigIDs)
}

func TestScheduler_Run_StopsWhenQuotaExhausted(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{
		videosPerKeyword: map[string][]RawVideo{
			"starlight wanderer ai": {{VideoID: "v1", ChannelID: "c1"}},
		},
		channels: map[string]RawChannel{},
	}
	fixture := newSchedulerFixture(t, client)

	// A budget smaller than one search page's cost must yield an empty plan.
	stats, err := fixture.scheduler.Run(ctx, CostSearchPage-1)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.NewVideos)
}

func TestDispatchTrigger_TriggerBatch_SkipsAlreadyAnalyzed(t *testing.T) {
	ctx := context.Background()
	bdb, err := store.OpenBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bdb.Close() })

	videos := store.NewVideoStore(bdb)
	require.NoError(t, videos.Upsert(ctx, &store.Video{
		ID: "analyzed", Status: store.StatusAnalyzed, PriorityTier: store.TierCritical, CurrentRisk: 90,
	}))
	require.NoError(t, videos.Upsert(ctx, &store.Video{
		ID: "pending", Status: store.StatusDiscovered, PriorityTier: store.TierCritical, CurrentRisk: 90,
	}))

	bus := &fakeScanReadyPublisher{}
	trigger := NewDispatchTrigger(videos, bus)

	dispatched, err := trigger.TriggerBatch(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, dispatched)
	require.Len(t, bus.published, 1)
	assert.Equal(t, "pending", bus.published[0].VideoID)
}

type fakeScanReadyPublisher struct {
	published []eventbus.ScanReadyEvent
}

func (f *fakeScanReadyPublisher) PublishScanReady(ctx context.Context, evt eventbus.ScanReadyEvent) error {
	f.published = append(f.published, evt)
	return nil
}
