// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// ErrNotFound is returned when a lookup by id finds nothing.
var ErrNotFound = errors.New("store: not found")

const (
	videoKeyPrefix        = "video:"
	videoByChannelPrefix  = "video_channel:"
	videoTierIndexPrefix  = "video_tier:"
)

// VideoStore owns per-video truth: point lookups and updates keyed by id,
// plus a channel-id secondary index for the discovery scheduler's
// per-channel scan pass and a tier secondary index for the scan-priority
// queue's tier-ordered reads (§4.8).
type VideoStore struct {
	db *badger.DB
}

// NewVideoStore wraps an already-open BadgerDB handle.
func NewVideoStore(db *badger.DB) *VideoStore {
	return &VideoStore{db: db}
}

func videoKey(id string) []byte { return []byte(videoKeyPrefix + id) }

func videoChannelKey(channelID, videoID string) []byte {
	return []byte(videoByChannelPrefix + channelID + ":" + videoID)
}

func videoTierKey(tier PriorityTier, videoID string) []byte {
	return []byte(videoTierIndexPrefix + string(tier) + ":" + videoID)
}

// Upsert writes v, replacing any prior secondary-index entries for its
// channel and tier. Callers hold the single-writer-per-video invariant by
// routing all mutation through the risk engine and dispatcher goroutines
// that own a video at a given pipeline stage (§3).
func (s *VideoStore) Upsert(ctx context.Context, v *Video) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal video %s: %w", v.ID, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		var prev Video
		hadPrev := false
		if item, err := txn.Get(videoKey(v.ID)); err == nil {
			if verr := item.Value(func(val []byte) error { return json.Unmarshal(val, &prev) }); verr == nil {
				hadPrev = true
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get existing video %s: %w", v.ID, err)
		}

		if hadPrev && prev.ChannelID != v.ChannelID {
			if derr := txn.Delete(videoChannelKey(prev.ChannelID, v.ID)); derr != nil && !errors.Is(derr, badger.ErrKeyNotFound) {
				return derr
			}
		}
		if hadPrev && prev.PriorityTier != v.PriorityTier {
			if derr := txn.Delete(videoTierKey(prev.PriorityTier, v.ID)); derr != nil && !errors.Is(derr, badger.ErrKeyNotFound) {
				return derr
			}
		}

		if err := txn.Set(videoKey(v.ID), data); err != nil {
			return fmt.Errorf("set video %s: %w", v.ID, err)
		}
		if err := txn.Set(videoChannelKey(v.ChannelID, v.ID), []byte(v.ID)); err != nil {
			return fmt.Errorf("set channel index for video %s: %w", v.ID, err)
		}
		if err := txn.Set(videoTierKey(v.PriorityTier, v.ID), []byte(v.ID)); err != nil {
			return fmt.Errorf("set tier index for video %s: %w", v.ID, err)
		}
		return nil
	})
}

// Get returns the video with id, or ErrNotFound.
func (s *VideoStore) Get(ctx context.Context, id string) (*Video, error) {
	var v Video
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(videoKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get video %s: %w", id, err)
		}
		return item.Value(func(val []byte) error { return json.Unmarshal(val, &v) })
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Exists reports whether a video with id has already been recorded —
// used by discovery to classify a search hit as new vs. rediscovered.
func (s *VideoStore) Exists(ctx context.Context, id string) (bool, error) {
	exists := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(videoKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	return exists, err
}

// ListByChannel returns every video discovered for channelID.
func (s *VideoStore) ListByChannel(ctx context.Context, channelID string) ([]*Video, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(videoByChannelPrefix + channelID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list videos for channel %s: %w", channelID, err)
	}

	videos := make([]*Video, 0, len(ids))
	for _, id := range ids {
		v, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, nil
}

// ListByStatus returns every non-deleted video currently in status — the
// rescorer sweep's candidate pool (videos already analyzed at least
// once, whose risk may have drifted since).
func (s *VideoStore) ListByStatus(ctx context.Context, status VideoStatus) ([]*Video, error) {
	var videos []*Video
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(videoKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			var v Video
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &v) }); err != nil {
				return fmt.Errorf("decode video: %w", err)
			}
			if v.Deleted || v.Status != status {
				continue
			}
			videos = append(videos, &v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// ListByTier returns every non-deleted video currently in tier, in
// video-id order (the tier index's key order) — backs the scan-priority queue's per-tier drain (§4.8).
func (s *VideoStore) ListByTier(ctx context.Context, tier PriorityTier, limit int) ([]*Video, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(videoTierIndexPrefix + string(tier) + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(ids) >= limit {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list videos for tier %s: %w", tier, err)
	}

	videos := make([]*Video, 0, len(ids))
	for _, id := range ids {
		v, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if v.Deleted {
			continue
		}
		videos = append(videos, v)
	}
	return videos, nil
}
