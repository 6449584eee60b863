package verify

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/patterson-s/EliteResearchAgent/internal/model"
)

// Keyer normalizes a claimed value to a canonical equivalence key. Attempts
// whose values normalize to the same key corroborate each other. Domains
// supply their own Keyer so non-scalar facts can reuse the engine.
type Keyer interface {
	Key(value any) (string, error)
}

// YearKeyer normalizes integer years, accepting the numeric and string
// representations that extraction produces ("1950" and 1950 are one group).
type YearKeyer struct{}

func (YearKeyer) Key(value any) (string, error) {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		if v != float64(int64(v)) {
			return "", fmt.Errorf("year value %v is not integral", v)
		}
		return strconv.FormatInt(int64(v), 10), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return "", fmt.Errorf("year value %q is not numeric", v)
		}
		return strconv.Itoa(n), nil
	default:
		return "", fmt.Errorf("unsupported year value type %T", value)
	}
}

// StringKeyer folds case and whitespace, for name-like facts.
type StringKeyer struct{}

func (StringKeyer) Key(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("unsupported string value type %T", value)
	}
	folded := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	if folded == "" {
		return "", fmt.Errorf("string value is empty after normalization")
	}
	return folded, nil
}

// group is the mutable aggregation state for one equivalence class.
type group struct {
	key          string
	value        any // First representative seen
	sourceGroups map[string]bool
	groupOrder   []string // Insertion order, for stable serialization
	sourceIDs    []string
	bestTier     Tier
	bestLabel    string
}

// Ledger is the aggregator: a running mapping from normalized claimed value
// to its value group, plus counters for units that held no evidence. One
// ledger belongs to exactly one verification run and is not safe for
// concurrent use.
type Ledger struct {
	keyer  Keyer
	table  *RankingTable
	groups map[string]*group
	keys   []string // Insertion order
	total  int
	empty  int
}

// NewLedger creates an empty ledger for one run.
func NewLedger(keyer Keyer, table *RankingTable) *Ledger {
	return &Ledger{
		keyer:  keyer,
		table:  table,
		groups: make(map[string]*group),
	}
}

// Ingest records one extraction attempt. Attempts without a usable value
// only increment the empty counter; they stay out of every value group but
// are still counted toward the total considered. The returned error is a
// configuration fault (unknown tier label, broken keyer), never an evidence
// judgment.
func (l *Ledger) Ingest(att model.ExtractionAttempt) error {
	l.total++
	if !att.Corroborates() {
		l.empty++
		return nil
	}

	tier, err := l.table.Rank(att.EvidenceType)
	if err != nil {
		return err
	}
	key, err := l.keyer.Key(att.Value)
	if err != nil {
		return fmt.Errorf("normalize claimed value from %s: %w", att.SourceID, err)
	}

	g, ok := l.groups[key]
	if !ok {
		g = &group{
			key:          key,
			value:        att.Value,
			sourceGroups: make(map[string]bool),
			bestTier:     TierUnranked,
		}
		l.groups[key] = g
		l.keys = append(l.keys, key)
	}

	if att.SourceGroup != "" && !g.sourceGroups[att.SourceGroup] {
		g.sourceGroups[att.SourceGroup] = true
		g.groupOrder = append(g.groupOrder, att.SourceGroup)
	}
	g.sourceIDs = append(g.sourceIDs, att.SourceID)
	if tier < g.bestTier {
		g.bestTier = tier
		g.bestLabel = l.table.Label(tier)
	}
	return nil
}

// Total returns the number of attempts considered so far.
func (l *Ledger) Total() int { return l.total }

// Empty returns the number of attempts that contributed no value.
func (l *Ledger) Empty() int { return l.empty }

// Snapshot serializes the current value groups, ordered strongest first:
// by distinct source groups descending, then best tier ascending, then key.
// The ordering depends only on the accumulated counts, never on arrival
// order, so identical evidence sets always snapshot identically.
func (l *Ledger) Snapshot() []model.ValueGroup {
	out := make([]model.ValueGroup, 0, len(l.keys))
	for _, key := range l.keys {
		g := l.groups[key]
		out = append(out, model.ValueGroup{
			Key:          g.key,
			Value:        g.value,
			SourceGroups: append([]string(nil), g.groupOrder...),
			SourceIDs:    append([]string(nil), g.sourceIDs...),
			BestTier:     int(g.bestTier),
			BestTierName: g.bestLabel,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Independent() != out[j].Independent() {
			return out[i].Independent() > out[j].Independent()
		}
		if out[i].BestTier != out[j].BestTier {
			return out[i].BestTier < out[j].BestTier
		}
		return out[i].Key < out[j].Key
	})
	return out
}
