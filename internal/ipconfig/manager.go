// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package ipconfig

import (
	"fmt"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Manager holds the loaded set of IP targets and supports an in-place
// Reload, mirroring the source pipeline's config hot-reload workflow.
type Manager struct {
	path string

	mu      sync.RWMutex
	targets []Target
}

// NewManager loads targets from path and returns a ready Manager.
func NewManager(path string) (*Manager, error) {
	m := &Manager{path: path}
	if err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Reload re-reads the config file from disk, replacing the in-memory set
// of targets atomically. A failed reload leaves the previous set intact.
func (m *Manager) Reload() error {
	k := koanf.New(".")
	if err := k.Load(file.Provider(m.path), yaml.Parser()); err != nil {
		return fmt.Errorf("load ip config %s: %w", m.path, err)
	}

	var doc document
	if err := k.Unmarshal("", &doc); err != nil {
		return fmt.Errorf("unmarshal ip config %s: %w", m.path, err)
	}

	m.mu.Lock()
	m.targets = doc.IPTargets
	m.mu.Unlock()
	return nil
}

// All returns every configured target, enabled or not.
func (m *Manager) All() []Target {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Target, len(m.targets))
	copy(out, m.targets)
	return out
}

// Enabled returns every active (enabled, non-deleted) target.
func (m *Manager) Enabled() []Target {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Target, 0, len(m.targets))
	for _, t := range m.targets {
		if t.Active() {
			out = append(out, t)
		}
	}
	return out
}

// ByID returns the target with the given id, or false if none matches or
// it has been soft-deleted.
func (m *Manager) ByID(id string) (Target, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.targets {
		if t.ID == id && !t.Deleted {
			return t, true
		}
	}
	return Target{}, false
}

// ByPriority returns every active target whose search_keywords has at
// least one keyword in the given priority bucket.
func (m *Manager) ByPriority(p Priority) []Target {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Target, 0, len(m.targets))
	for _, t := range m.targets {
		if t.Active() && len(t.SearchKeywords.ByPriority(p)) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// AllKeywords returns the deduplicated union of every active target's
// search keywords across all priority buckets — the seed list §4.1's
// scheduler draws a cycle's search plan from.
func (m *Manager) AllKeywords() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for _, t := range m.targets {
		if !t.Active() {
			continue
		}
		for _, kw := range t.SearchKeywords.All() {
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}

// Summary is the configured-target census returned by Summary().
type Summary struct {
	Total       int
	Enabled     int
	Deleted     int
	HighKeyword int
	MedKeyword  int
	LowKeyword  int
}

// Summary reports target counts, mirroring the source pipeline's
// get_summary diagnostic.
func (m *Manager) Summary() Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var s Summary
	s.Total = len(m.targets)
	for _, t := range m.targets {
		if t.Deleted {
			s.Deleted++
			continue
		}
		if t.Enabled {
			s.Enabled++
		}
		s.HighKeyword += len(t.SearchKeywords.High)
		s.MedKeyword += len(t.SearchKeywords.Medium)
		s.LowKeyword += len(t.SearchKeywords.Low)
	}
	return s
}
