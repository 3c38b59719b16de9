package tagme

import (
	"sort"
	"testing"
)

func TestTopKEntitiesSingleCandidate(t *testing.T) {
	got := topKEntities(map[string]float32{"A": 1.0}, 0.3)
	if len(got) != 1 || got[0] != "A" {
		t.Errorf("got %v, want [A]", got)
	}
}

func TestTopKEntitiesBandsByDistinctScore(t *testing.T) {
	scores := map[string]float32{
		"A": 5.0,
		"B": 5.0,
		"C": 3.0,
		"D": 1.0,
	}
	// n=4, kTh=0.3 -> round(1.2)=1 -> k=1: only the first distinct-score
	// band survives, which is the A/B tie (both scored 5.0).
	got := topKEntities(scores, 0.3)
	sort.Strings(got)
	want := []string{"A", "B"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTopKEntitiesNeverBelowOne(t *testing.T) {
	scores := map[string]float32{"A": 3.0, "B": 2.0, "C": 1.0}
	got := topKEntities(scores, 0.0)
	if len(got) != 1 || got[0] != "A" {
		t.Errorf("got %v, want [A] (k clamped to 1)", got)
	}
}

func TestPruneContainmentDropsShorterHigherProbLonger(t *testing.T) {
	e := &Engine{}
	e.linkProb.set("tower", 0.2)
	e.linkProb.set("eiffel tower", 0.9)

	candidates := map[string]candidateSet{
		"tower":        {"Eiffel_Tower": 0.5},
		"eiffel tower": {"Eiffel_Tower": 0.9},
	}
	out := e.pruneContainment(candidates)
	if _, ok := out["tower"]; ok {
		t.Error("expected shorter mention 'tower' to be dropped")
	}
	if _, ok := out["eiffel tower"]; !ok {
		t.Error("expected longer mention 'eiffel tower' to survive")
	}
}

func TestPruneContainmentKeepsTies(t *testing.T) {
	e := &Engine{}
	e.linkProb.set("tower", 0.5)
	e.linkProb.set("eiffel tower", 0.5)

	candidates := map[string]candidateSet{
		"tower":        {"Eiffel_Tower": 0.5},
		"eiffel tower": {"Eiffel_Tower": 0.9},
	}
	out := e.pruneContainment(candidates)
	if _, ok := out["tower"]; !ok {
		t.Error("expected a tie in link probability to keep the shorter mention")
	}
}

func TestPruneContainmentKeepsUnrelatedMentions(t *testing.T) {
	e := &Engine{}
	e.linkProb.set("paris", 0.8)
	e.linkProb.set("london", 0.8)

	candidates := map[string]candidateSet{
		"paris":  {"Paris": 0.8},
		"london": {"London": 0.8},
	}
	out := e.pruneContainment(candidates)
	if len(out) != 2 {
		t.Errorf("got %d survivors, want 2: %v", len(out), out)
	}
}
