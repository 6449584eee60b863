// Package verify implements the evidence triangulation engine: it aggregates
// independent extraction attempts into value groups, adjudicates a single
// outcome with full provenance, and drives the bounded acquisition loop that
// decides when enough evidence has been collected.
package verify

import "fmt"

// Tier is the ordinal strength of an evidence type. Lower is stronger: an
// explicit structured field beats a narrative mention beats a category tag.
type Tier int

// TierUnranked is assigned when an attempt carries no evidence type at all.
// It loses every tie-break.
const TierUnranked Tier = 1 << 20

// RankingTable maps evidence-type labels to their ordinal strength. The
// ordering comes from configuration (strongest label first) and is fixed for
// the lifetime of a run.
type RankingTable struct {
	order []string
	ranks map[string]Tier
}

// NewRankingTable builds a ranking table from an ordered label list.
func NewRankingTable(order []string) (*RankingTable, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("evidence tier order must not be empty")
	}
	ranks := make(map[string]Tier, len(order))
	for i, label := range order {
		if label == "" {
			return nil, fmt.Errorf("evidence tier order contains an empty label at index %d", i)
		}
		if _, dup := ranks[label]; dup {
			return nil, fmt.Errorf("evidence tier order contains duplicate label %q", label)
		}
		ranks[label] = Tier(i)
	}
	return &RankingTable{order: append([]string(nil), order...), ranks: ranks}, nil
}

// Rank resolves a label to its tier. An empty label is legal (the attempt is
// simply unranked); an unknown non-empty label is a configuration error.
func (t *RankingTable) Rank(label string) (Tier, error) {
	if label == "" {
		return TierUnranked, nil
	}
	rank, ok := t.ranks[label]
	if !ok {
		return TierUnranked, fmt.Errorf("evidence type %q is not in the configured tier order %v", label, t.order)
	}
	return rank, nil
}

// Contains reports whether the table knows the given label.
func (t *RankingTable) Contains(label string) bool {
	_, ok := t.ranks[label]
	return ok
}

// Label returns the label for a tier, or "" for unranked/out-of-range tiers.
func (t *RankingTable) Label(tier Tier) string {
	if tier < 0 || int(tier) >= len(t.order) {
		return ""
	}
	return t.order[tier]
}

// Labels returns the configured order, strongest first.
func (t *RankingTable) Labels() []string {
	return append([]string(nil), t.order...)
}
