package verify

import (
	"testing"

	"github.com/patterson-s/EliteResearchAgent/internal/model"
)

func TestYearKeyer_NormalizesRepresentations(t *testing.T) {
	keyer := YearKeyer{}

	tests := []struct {
		value   any
		want    string
		wantErr bool
	}{
		{1950, "1950", false},
		{"1950", "1950", false},
		{" 1950 ", "1950", false},
		{int64(1950), "1950", false},
		{float64(1950), "1950", false}, // JSON round-trips numbers as float64
		{1950.5, "", true},
		{"nineteen fifty", "", true},
		{[]int{1950}, "", true},
	}

	for _, tt := range tests {
		got, err := keyer.Key(tt.value)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Key(%v): expected error, got %q", tt.value, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Key(%v): unexpected error: %v", tt.value, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Key(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestStringKeyer_FoldsCaseAndWhitespace(t *testing.T) {
	keyer := StringKeyer{}

	a, err := keyer.Key("  Harvard   University ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := keyer.Key("harvard university")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Errorf("equivalent strings produced different keys: %q vs %q", a, b)
	}

	if _, err := keyer.Key("   "); err == nil {
		t.Error("expected error for blank string")
	}
	if _, err := keyer.Key(42); err == nil {
		t.Error("expected error for non-string value")
	}
}

func TestLedger_StringAndIntYearsShareAGroup(t *testing.T) {
	ledger := NewLedger(YearKeyer{}, testTable(t))

	if err := ledger.Ingest(yearAttempt("c1", "a.org", 1950, model.EvidenceBornField)); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	att := yearAttempt("c2", "b.org", 0, model.EvidenceBornNarrative)
	att.Value = "1950"
	if err := ledger.Ingest(att); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	groups := ledger.Snapshot()
	if len(groups) != 1 {
		t.Fatalf("expected one group for \"1950\" and 1950, got %d", len(groups))
	}
	if groups[0].Independent() != 2 {
		t.Errorf("independent count = %d, want 2", groups[0].Independent())
	}
}

func TestLedger_EmptyAndAnomalousAttemptsOnlyCount(t *testing.T) {
	ledger := NewLedger(YearKeyer{}, testTable(t))

	attempts := []model.ExtractionAttempt{
		{SourceID: "c1", SourceGroup: "a.org", Present: false},
		{SourceID: "c2", SourceGroup: "b.org", Present: true, Anomaly: true},
		{SourceID: "c3", SourceGroup: "c.org", Present: true}, // present but no value
		yearAttempt("c4", "d.org", 1950, model.EvidenceBornField),
	}
	for _, att := range attempts {
		if err := ledger.Ingest(att); err != nil {
			t.Fatalf("ingest %s: %v", att.SourceID, err)
		}
	}

	if ledger.Total() != 4 {
		t.Errorf("total = %d, want 4", ledger.Total())
	}
	if ledger.Empty() != 3 {
		t.Errorf("empty = %d, want 3", ledger.Empty())
	}
	groups := ledger.Snapshot()
	if len(groups) != 1 || groups[0].Independent() != 1 {
		t.Errorf("expected one group with one source, got %+v", groups)
	}
}

func TestLedger_UnknownTierLabelIsFatal(t *testing.T) {
	ledger := NewLedger(YearKeyer{}, testTable(t))

	att := yearAttempt("c1", "a.org", 1950, "gossip")
	if err := ledger.Ingest(att); err == nil {
		t.Fatal("expected error for evidence type outside the configured tier order")
	}
}

func TestLedger_BestTierTracksStrongestMember(t *testing.T) {
	ledger := NewLedger(YearKeyer{}, testTable(t))

	for _, att := range []model.ExtractionAttempt{
		yearAttempt("c1", "a.org", 1950, model.EvidenceCategory),
		yearAttempt("c2", "b.org", 1950, model.EvidenceBornField),
		yearAttempt("c3", "c.org", 1950, model.EvidenceOther),
	} {
		if err := ledger.Ingest(att); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}

	groups := ledger.Snapshot()
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	if groups[0].BestTier != 0 || groups[0].BestTierName != model.EvidenceBornField {
		t.Errorf("best tier = %d (%s), want 0 (%s)", groups[0].BestTier, groups[0].BestTierName, model.EvidenceBornField)
	}
}

func TestRankingTable_Validation(t *testing.T) {
	if _, err := NewRankingTable(nil); err == nil {
		t.Error("expected error for empty tier order")
	}
	if _, err := NewRankingTable([]string{"a", ""}); err == nil {
		t.Error("expected error for blank label")
	}
	if _, err := NewRankingTable([]string{"a", "b", "a"}); err == nil {
		t.Error("expected error for duplicate label")
	}

	table, err := NewRankingTable([]string{"strong", "weak"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rank, err := table.Rank("weak"); err != nil || rank != 1 {
		t.Errorf("Rank(weak) = %d, %v; want 1, nil", rank, err)
	}
	if rank, err := table.Rank(""); err != nil || rank != TierUnranked {
		t.Errorf("Rank(\"\") = %d, %v; want unranked, nil", rank, err)
	}
	if _, err := table.Rank("unknown"); err == nil {
		t.Error("expected error for unknown label")
	}
}
