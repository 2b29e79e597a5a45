// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

// Package ipconfig loads and matches against the set of protected
// intellectual-property descriptors that drive discovery's search plan
// and the text-only relevance filter (§3, §4.1, §4.4).
package ipconfig

// Priority buckets the search_keywords list is partitioned into. The
// discovery plan draws keywords from all three buckets alike.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Keywords is one IP's search_keywords list, partitioned by priority.
type Keywords struct {
	High   []string `koanf:"high" yaml:"high"`
	Medium []string `koanf:"medium" yaml:"medium"`
	Low    []string `koanf:"low" yaml:"low"`
}

// All returns every configured keyword across all three priority buckets.
func (k Keywords) All() []string {
	out := make([]string, 0, len(k.High)+len(k.Medium)+len(k.Low))
	out = append(out, k.High...)
	out = append(out, k.Medium...)
	out = append(out, k.Low...)
	return out
}

// ByPriority returns the keyword bucket for the given priority, or nil for
// an unrecognized one.
func (k Keywords) ByPriority(p Priority) []string {
	switch p {
	case PriorityHigh:
		return k.High
	case PriorityMedium:
		return k.Medium
	case PriorityLow:
		return k.Low
	default:
		return nil
	}
}

// Target is a single protected-property descriptor: one entry of the IP
// config list (§3). FalsePositiveFilters is loaded with the target;
// Matcher.Match does not read it, so a filter string does not disqualify
// a matched target.
type Target struct {
	ID                   string   `koanf:"id" yaml:"id" validate:"required"`
	DisplayName          string   `koanf:"display_name" yaml:"display_name" validate:"required"`
	Owner                string   `koanf:"owner" yaml:"owner"`
	Characters           []string `koanf:"characters" yaml:"characters"`
	VisualMarkers        []string `koanf:"visual_markers" yaml:"visual_markers"`
	AIToolNamePatterns   []string `koanf:"ai_tool_name_patterns" yaml:"ai_tool_name_patterns"`
	FalsePositiveFilters []string `koanf:"false_positive_filters" yaml:"false_positive_filters"`
	SearchKeywords       Keywords `koanf:"search_keywords" yaml:"search_keywords"`
	Enabled              bool     `koanf:"enabled" yaml:"enabled"`
	Deleted              bool     `koanf:"deleted" yaml:"deleted"`
}

// Active reports whether this target should participate in discovery and
// matching: enabled and not soft-deleted.
func (t Target) Active() bool {
	return t.Enabled && !t.Deleted
}

// document is the top-level shape of the IP config YAML file.
type document struct {
	IPTargets []Target `koanf:"ip_targets" yaml:"ip_targets"`
}
