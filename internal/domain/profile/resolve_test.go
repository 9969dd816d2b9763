package profile

import (
	"testing"
	"time"
)

func testSnapshot() *Snapshot {
	entities := []Entity{
		{Kind: KindPlayer, ID: "p-kohli", RegistryKey: "ba607b88", Name: "V Kohli", AltNames: []string{"Virat Kohli"}},
		{Kind: KindPlayer, ID: "p-sharma-a", Name: "R Sharma"},
		{Kind: KindPlayer, ID: "p-sharma-b", Name: "R Sharma"},
		{Kind: KindOfficial, ID: "o-dharmasena", Name: "HDPK Dharmasena"},
		{Kind: KindTeam, ID: "t-ind-m", Name: "India", Scope: "male"},
		{Kind: KindTeam, ID: "t-ind-f", Name: "India", Scope: "female"},
		{Kind: KindVenue, ID: "v-eden", Name: "Eden Gardens", Scope: "Kolkata"},
	}
	aliases := []Alias{
		{Kind: KindPlayer, Name: "Virat", EntityID: "p-kohli"},
		{Kind: KindVenue, Name: "Eden Gardens Stadium", Scope: "Kolkata", EntityID: "v-eden"},
		{Kind: KindTeam, Name: "Ind", Scope: "female", EntityID: "t-ind-f"},
	}
	return NewSnapshot(entities, aliases)
}

func TestResolve_Order(t *testing.T) {
	t.Parallel()

	s := testSnapshot()
	cases := []struct {
		name   string
		kind   Kind
		raw    string
		hints  Hints
		wantID string
		method Method
	}{
		{name: "registry key", kind: KindPlayer, raw: "Somebody Else", hints: Hints{Key: "ba607b88"}, wantID: "p-kohli", method: MethodExact},
		{name: "canonical name", kind: KindPlayer, raw: "v. kohli", wantID: "p-kohli", method: MethodExact},
		{name: "alt name", kind: KindPlayer, raw: "Virat  Kohli", wantID: "p-kohli", method: MethodExact},
		{name: "official shares person namespace", kind: KindPlayer, raw: "HDPK Dharmasena", wantID: "o-dharmasena", method: MethodExact},
		{name: "team scoped by gender", kind: KindTeam, raw: "India", hints: Hints{Scope: "female"}, wantID: "t-ind-f", method: MethodExact},
		{name: "venue scoped alias", kind: KindVenue, raw: "Eden Gardens Stadium", hints: Hints{Scope: "kolkata"}, wantID: "v-eden", method: MethodAlias},
		{name: "unscoped alias", kind: KindPlayer, raw: "virat", wantID: "p-kohli", method: MethodAlias},
		{name: "scoped alias wrong scope", kind: KindTeam, raw: "Ind", hints: Hints{Scope: "male"}, method: MethodUnresolved},
		{name: "unknown", kind: KindPlayer, raw: "Nobody", method: MethodUnresolved},
		{name: "ambiguous name", kind: KindPlayer, raw: "R Sharma", method: MethodUnresolved},
		{name: "team without scope is ambiguous", kind: KindTeam, raw: "India", method: MethodUnresolved},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Resolve(s, nil, tc.kind, tc.raw, tc.hints)
			if got.Method != tc.method || got.ID != tc.wantID {
				t.Fatalf("unexpected resolution: got=%+v want id=%s method=%s", got, tc.wantID, tc.method)
			}
		})
	}
}

func TestResolve_AmbiguousListsCandidates(t *testing.T) {
	t.Parallel()

	got := Resolve(testSnapshot(), nil, KindPlayer, "R Sharma", Hints{})
	if got.Resolved() {
		t.Fatalf("expected unresolved, got %+v", got)
	}
	if len(got.Candidates) != 2 || got.Candidates[0] != "p-sharma-a" {
		t.Fatalf("unexpected candidates: %+v", got.Candidates)
	}
}

func TestResolve_ContextMemoPicksNearestDate(t *testing.T) {
	t.Parallel()

	s := testSnapshot()
	memo := NewRunMemo(365 * 24 * time.Hour)
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	memo.Remember(KindPlayer, "R Sharma", "t-ind-m", day(1), "p-sharma-b")
	memo.Remember(KindPlayer, "R Sharma", "t-ind-m", day(20), "p-sharma-a")
	memo.Remember(KindPlayer, "R Sharma", "t-other", day(10), "p-sharma-a")

	got := Resolve(s, memo, KindPlayer, "R. Sharma", Hints{TeamID: "t-ind-m", Date: day(5)})
	if got.Method != MethodContext || got.ID != "p-sharma-b" {
		t.Fatalf("unexpected resolution: %+v", got)
	}

	got = Resolve(s, memo, KindPlayer, "R Sharma", Hints{TeamID: "t-ind-m", Date: day(15)})
	if got.ID != "p-sharma-a" {
		t.Fatalf("expected nearest entry, got %+v", got)
	}

	got = Resolve(s, memo, KindPlayer, "R Sharma", Hints{TeamID: "t-unknown", Date: day(15)})
	if got.Resolved() {
		t.Fatalf("expected unresolved without team context, got %+v", got)
	}
}

func TestRunMemo_TieBreaksByLowestID(t *testing.T) {
	t.Parallel()

	memo := NewRunMemo(0)
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	memo.Remember(KindPlayer, "A Khan", "t1", day(1), "z-id")
	memo.Remember(KindPlayer, "A Khan", "t1", day(9), "a-id")

	id, ok := memo.Lookup(KindPlayer, NormalizeName("A Khan"), "t1", day(5), nil)
	if !ok || id != "a-id" {
		t.Fatalf("expected lowest id on equal distance, got=%s ok=%v", id, ok)
	}
}

func TestRunMemo_WindowExcludesDistantDates(t *testing.T) {
	t.Parallel()

	memo := NewRunMemo(24 * time.Hour)
	memo.Remember(KindPlayer, "A Khan", "t1", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), "p1")
	if _, ok := memo.Lookup(KindPlayer, "a khan", "t1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil); ok {
		t.Fatalf("expected entry outside window to be ignored")
	}
}

func TestResolve_Stable(t *testing.T) {
	t.Parallel()

	s := testSnapshot()
	hints := Hints{Scope: "Kolkata"}
	first := Resolve(s, nil, KindVenue, "Eden Gardens", hints)
	for i := 0; i < 20; i++ {
		if got := Resolve(s, nil, KindVenue, "Eden Gardens", hints); got.ID != first.ID || got.Method != first.Method {
			t.Fatalf("resolution changed between calls: first=%+v got=%+v", first, got)
		}
	}
}

func TestSnapshot_Known(t *testing.T) {
	t.Parallel()

	s := testSnapshot()
	if !s.Known(KindOfficial, "p-kohli") {
		t.Fatalf("expected person ids to be known across player/official kinds")
	}
	if s.Known(KindTeam, "p-kohli") {
		t.Fatalf("expected namespaces to be separate")
	}
	if s.Size() != 7 || s.AliasCount() != 3 {
		t.Fatalf("unexpected sizes: entities=%d aliases=%d", s.Size(), s.AliasCount())
	}
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	if got := NormalizeName("  M.S.   Dhoni "); got != "ms dhoni" {
		t.Fatalf("unexpected normalized name %q", got)
	}
}
