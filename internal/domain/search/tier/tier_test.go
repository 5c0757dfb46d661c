package tier

import "testing"

func TestIsValid(t *testing.T) {
	valid := []Tier{VectorSemantic, FullText, AIFields, Keyword, Basic}
	for _, v := range valid {
		if !v.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", v)
		}
	}

	invalid := []Tier{"", "vector", "ai-enhanced", "KEYWORD"}
	for _, v := range invalid {
		if v.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", v)
		}
	}
}

func TestFallbackOrder(t *testing.T) {
	want := []Tier{"vector-semantic", "fulltext", "ai-fields", "keyword"}
	if len(Fallback) != len(want) {
		t.Fatalf("Fallback has %d tiers, want %d", len(Fallback), len(want))
	}
	for i := range want {
		if Fallback[i] != want[i] {
			t.Errorf("Fallback[%d] = %q, want %q", i, Fallback[i], want[i])
		}
	}
}
