// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package discovery

import (
	"context"
	"math/rand"
	"time"

	"github.com/tomtom215/vigilnet/internal/ipconfig"
	"github.com/tomtom215/vigilnet/internal/store"
)

// QueryPlanItem is one planned keyword search, priced at CostSearchPage.
type QueryPlanItem struct {
	Keyword string
	Order   SearchOrder
	Tier    int
}

// ChannelScanItem is one planned channel-uploads scan, priced at CostChannelScan.
type ChannelScanItem struct {
	ChannelID string
}

// StepKind distinguishes the two operation kinds a combined plan step can
// carry.
type StepKind int

const (
	StepQuery StepKind = iota
	StepScan
)

// PlanStep is one entry of the combined, shuffled plan: either a keyword
// query or a channel scan, tagged by Kind so the scheduler can dispatch
// each step without caring about its position relative to the other kind.
type PlanStep struct {
	Kind  StepKind
	Query QueryPlanItem
	Scan  ChannelScanItem
}

// Plan is a shuffled, budget-bounded set of operations for one discovery
// run. Steps is the single combined, shuffled execution order (§4.1 step
// 3); Queries and Scans are unshuffled convenience views over the same
// draw, kept for callers that only care about one operation kind.
type Plan struct {
	Queries []QueryPlanItem
	Scans   []ChannelScanItem
	Steps   []PlanStep
}

// tierWeights implements §4.1's tier-1/2/3 weighted sampling.
var tierWeights = map[int]float64{1: 0.50, 2: 0.35, 3: 0.15}

// PlanBuilder constructs a Plan from the configured IP targets, keyword
// search-history tiers, and channel eligibility, bounded by maxQuotaUnits.
type PlanBuilder struct {
	history *History
	rng     *rand.Rand
}

// NewPlanBuilder returns a PlanBuilder using history for tier lookups.
func NewPlanBuilder(history *History, seed int64) *PlanBuilder {
	return &PlanBuilder{history: history, rng: rand.New(rand.NewSource(seed))}
}

// Build constructs a plan. maxQuotaUnits bounds the combined cost of
// channel scans and keyword queries; channelCandidates must already be
// ordered by descending video count and exclude channels scanned within
// the cooldown window (the caller's responsibility per §4.1 step 1).
func (b *PlanBuilder) Build(ctx context.Context, keywords []string, channelCandidates []string, maxQuotaUnits, maxChannels, maxQueries int) (Plan, error) {
	var plan Plan
	remaining := maxQuotaUnits

	for i := 0; i < len(channelCandidates) && i < maxChannels; i++ {
		if remaining < CostChannelScan {
			break
		}
		plan.Scans = append(plan.Scans, ChannelScanItem{ChannelID: channelCandidates[i]})
		remaining -= CostChannelScan
	}

	drawn := make(map[string]struct{})
	attempts := 0
	maxAttempts := maxQueries * 10
	for len(plan.Queries) < maxQueries && remaining >= CostSearchPage && attempts < maxAttempts {
		attempts++
		kw, err := b.weightedKeyword(ctx, keywords)
		if err != nil {
			return Plan{}, err
		}
		if kw == "" {
			break
		}
		order := AllOrders[b.rng.Intn(len(AllOrders))]
		key := kw + "|" + string(order)
		if _, seen := drawn[key]; seen {
			continue
		}
		tier, err := b.history.db.KeywordTier(ctx, kw, string(order))
		if err != nil {
			return Plan{}, err
		}
		drawn[key] = struct{}{}
		plan.Queries = append(plan.Queries, QueryPlanItem{Keyword: kw, Order: order, Tier: tier})
		remaining -= CostSearchPage
	}

	b.shuffle(&plan)
	return plan, nil
}

// weightedKeyword picks one keyword by its §4.1 tier weight. Tier is read
// from the most recent search-history record for an arbitrary canonical
// ordering (date), matching the source pipeline's per-keyword (not
// per-keyword-and-order) tier classification.
func (b *PlanBuilder) weightedKeyword(ctx context.Context, keywords []string) (string, error) {
	if len(keywords) == 0 {
		return "", nil
	}

	type bucket struct {
		keyword string
		weight  float64
	}
	var buckets []bucket
	var total float64
	for _, kw := range keywords {
		tier, err := b.history.db.KeywordTier(ctx, kw, string(OrderDate))
		if err != nil {
			return "", err
		}
		w := tierWeights[tier]
		if w == 0 {
			w = tierWeights[3]
		}
		buckets = append(buckets, bucket{keyword: kw, weight: w})
		total += w
	}

	roll := b.rng.Float64() * total
	var cumulative float64
	for _, bk := range buckets {
		cumulative += bk.weight
		if roll <= cumulative {
			return bk.keyword, nil
		}
	}
	return buckets[len(buckets)-1].keyword, nil
}

// shuffle combines channel scans and keyword queries into one sequence
// and shuffles it as a unit, so execution interleaves the two operation
// kinds instead of draining every scan before starting any query (§4.1
// step 3: "shuffle the combined plan").
func (b *PlanBuilder) shuffle(plan *Plan) {
	steps := make([]PlanStep, 0, len(plan.Queries)+len(plan.Scans))
	for _, s := range plan.Scans {
		steps = append(steps, PlanStep{Kind: StepScan, Scan: s})
	}
	for _, q := range plan.Queries {
		steps = append(steps, PlanStep{Kind: StepQuery, Query: q})
	}
	b.rng.Shuffle(len(steps), func(i, j int) {
		steps[i], steps[j] = steps[j], steps[i]
	})
	plan.Steps = steps
}

// EligibleChannels returns channel ids from candidates ordered by
// descending video count, excluding any scanned within cooldown of now.
func EligibleChannels(ctx context.Context, channels []*store.Channel, cooldown time.Duration, now time.Time) []string {
	var eligible []*store.Channel
	for _, c := range channels {
		if now.Sub(c.LastScannedAt) < cooldown {
			continue
		}
		eligible = append(eligible, c)
	}
	// Stable, descending by TotalVideosFound.
	for i := 1; i < len(eligible); i++ {
		for j := i; j > 0 && eligible[j-1].TotalVideosFound < eligible[j].TotalVideosFound; j-- {
			eligible[j-1], eligible[j] = eligible[j], eligible[j-1]
		}
	}
	ids := make([]string, len(eligible))
	for i, c := range eligible {
		ids[i] = c.ID
	}
	return ids
}

// KeywordsFromTargets flattens the active IP targets' keyword lists into
// one deduplicated slice, the seed list §4.1's plan draws from.
func KeywordsFromTargets(targets []ipconfig.Target) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range targets {
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
