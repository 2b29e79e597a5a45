// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package ipconfig

import (
	"regexp"
	"strings"
	"sync"
)

var (
	punctuation    = regexp.MustCompile(`[^\w\s]`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
	leadingArticle = regexp.MustCompile(`\b(the|a|an)\s+`)
)

// normalize lowercases text and flattens punctuation into whitespace, the
// same normalization the relevance filter applies before substring and
// word-boundary matching.
func normalize(text string) string {
	lower := strings.ToLower(text)
	stripped := punctuation.ReplaceAllString(lower, " ")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(stripped, " "))
}

// Matcher evaluates candidate text (a video's title, description and tags
// joined together) against a set of active IP targets, following the
// three-check relevance algorithm: keyword substring, word-boundary name
// match, and article-stripped word-boundary match. The cache field keeps
// the compiled per-target patterns alive across repeated calls, since the
// discovery pipeline re-matches the same target set against many videos.
type Matcher struct {
	mu    sync.Mutex
	cache map[string]*nameMatcher
}

type nameMatcher struct {
	full    *regexp.Regexp
	stripped *regexp.Regexp // nil if stripping the name changed nothing
}

// NewMatcher returns a ready Matcher with an empty compiled-pattern cache.
func NewMatcher() *Matcher {
	return &Matcher{cache: make(map[string]*nameMatcher)}
}

func (m *Matcher) nameMatcherFor(t Target) *nameMatcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	if nm, ok := m.cache[t.ID]; ok {
		return nm
	}

	name := strings.ToLower(t.DisplayName)
	nm := &nameMatcher{full: wordBoundary(name)}

	withoutArticle := strings.TrimSpace(leadingArticle.ReplaceAllString(name, ""))
	if withoutArticle != "" && withoutArticle != name {
		nm.stripped = wordBoundary(withoutArticle)
	}

	m.cache[t.ID] = nm
	return nm
}

func wordBoundary(name string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
}

// MatchResult pairs a matched target with whether the hit came from that
// target's high-priority keyword bucket. The risk engine's "configured
// high-priority match" bonus (§4.3) reads ViaHighPriority rather than
// re-deriving it from the target's keyword lists.
type MatchResult struct {
	Target          Target
	ViaHighPriority bool
}

// Match returns every active target in targets whose keywords, display
// name, or article-stripped display name appear in text. A target matches
// on the first of the checks that hits; duplicates are never returned
// twice.
func (m *Matcher) Match(text string, targets []Target) []MatchResult {
	normalized := normalize(text)

	var matched []MatchResult
	for _, t := range targets {
		if !t.Active() {
			continue
		}
		if hit, viaHigh := m.matchesOne(normalized, t); hit {
			matched = append(matched, MatchResult{Target: t, ViaHighPriority: viaHigh})
		}
	}
	return matched
}

// matchesOne reports whether t matches normalized text, and whether that
// match came specifically from t's high-priority keyword bucket — checked
// first so a video matching both a high- and a lower-priority keyword is
// still credited as a high-priority match.
func (m *Matcher) matchesOne(normalized string, t Target) (matched, viaHigh bool) {
	if containsAny(normalized, t.SearchKeywords.High) {
		return true, true
	}
	if containsAny(normalized, t.SearchKeywords.Medium) || containsAny(normalized, t.SearchKeywords.Low) {
		return true, false
	}

	nm := m.nameMatcherFor(t)
	if nm.full.MatchString(normalized) {
		return true, false
	}
	if nm.stripped != nil && nm.stripped.MatchString(normalized) {
		return true, false
	}
	return false, false
}

func containsAny(normalized string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(normalized, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
