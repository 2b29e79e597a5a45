// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const channelKeyPrefix = "channel:"

func channelKey(id string) []byte { return []byte(channelKeyPrefix + id) }

// ChannelStore owns per-channel reputation rollups (§3). channelLocks
// serializes read-modify-write Mutate calls per channel id so concurrent
// result-processor reclassifications (§4.7) never lose an update.
type ChannelStore struct {
	db           *badger.DB
	channelLocks sync.Map
}

// NewChannelStore wraps an already-open BadgerDB handle.
func NewChannelStore(db *badger.DB) *ChannelStore {
	return &ChannelStore{db: db}
}

// Upsert writes c in full, replacing any prior record.
func (s *ChannelStore) Upsert(ctx context.Context, c *Channel) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal channel %s: %w", c.ID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(channelKey(c.ID), data)
	})
}

// Get returns the channel with id, or ErrNotFound.
func (s *ChannelStore) Get(ctx context.Context, id string) (*Channel, error) {
	var c Channel
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(channelKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get channel %s: %w", id, err)
		}
		return item.Value(func(val []byte) error { return json.Unmarshal(val, &c) })
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreate returns the existing channel record for id, or a zero-value
// Channel seeded with id/title ready for the caller to Upsert.
func (s *ChannelStore) GetOrCreate(ctx context.Context, id, title string) (*Channel, error) {
	c, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return &Channel{ID: id, Title: title}, nil
	}
	return c, err
}

// ListAll returns every channel record, for the discovery scheduler's
// channel-scan candidate pool (§4.1 step 1).
func (s *ChannelStore) ListAll(ctx context.Context) ([]*Channel, error) {
	var channels []*Channel
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(channelKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			var c Channel
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &c) }); err != nil {
				return fmt.Errorf("decode channel: %w", err)
			}
			channels = append(channels, &c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return channels, nil
}

// Mutate applies fn to the current channel record (creating one seeded
// with id/title if absent) and writes the result back — the update path
// the result processor's reclassification protocol drives (§4.7).
func (s *ChannelStore) Mutate(ctx context.Context, id, title string, fn func(c *Channel)) (*Channel, error) {
	lockIface, _ := s.channelLocks.LoadOrStore(id, &sync.Mutex{})
	lock := lockIface.(*sync.Mutex)
	lock.Lock()
	defer lock.Unlock()

	c, err := s.GetOrCreate(ctx, id, title)
	if err != nil {
		return nil, err
	}
	fn(c)
	if err := s.Upsert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
