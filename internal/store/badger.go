// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package store

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// OpenBadger opens (creating if necessary) the BadgerDB directory backing
// VideoStore, ChannelStore, and ScanHistoryStore.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // disables BadgerDB's internal logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db at %s: %w", dir, err)
	}
	return db, nil
}
