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

const scanHistoryKeyPrefix = "scan_history:"

func scanHistoryKey(scanID string) []byte { return []byte(scanHistoryKeyPrefix + scanID) }

// ScanHistoryStore owns one record per dispatched analysis attempt (§3).
// A record left in status=running across a process restart implies a
// crash mid-analysis; the resilience startup sweep (§4.9) scans this
// store for exactly that condition.
type ScanHistoryStore struct {
	db *badger.DB
}

// NewScanHistoryStore wraps an already-open BadgerDB handle.
func NewScanHistoryStore(db *badger.DB) *ScanHistoryStore {
	return &ScanHistoryStore{db: db}
}

// Put writes r, replacing any prior record with the same ScanID.
func (s *ScanHistoryStore) Put(ctx context.Context, r *ScanHistoryRecord) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal scan history %s: %w", r.ScanID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(scanHistoryKey(r.ScanID), data)
	})
}

// Get returns the scan-history record with scanID, or ErrNotFound.
func (s *ScanHistoryStore) Get(ctx context.Context, scanID string) (*ScanHistoryRecord, error) {
	var r ScanHistoryRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(scanHistoryKey(scanID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get scan history %s: %w", scanID, err)
		}
		return item.Value(func(val []byte) error { return json.Unmarshal(val, &r) })
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRunning returns every scan-history record currently in status
// running — the set the resilience sweep reclassifies on startup (§4.9).
func (s *ScanHistoryStore) ListRunning(ctx context.Context) ([]*ScanHistoryRecord, error) {
	var records []*ScanHistoryRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(scanHistoryKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r ScanHistoryRecord
			err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &r) })
			if err != nil {
				return err
			}
			if r.Status == ScanRunning {
				rc := r
				records = append(records, &rc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list running scans: %w", err)
	}
	return records, nil
}
