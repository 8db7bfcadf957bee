package collab

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
)

const epsilon = 0.0001

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func newTestFilter(cfg Config, ratings map[string]map[string]float64) *Filter {
	f := NewFilter(NewGraph(), cfg)
	for learner, items := range ratings {
		for item, r := range items {
			f.AddRating(learner, item, r)
		}
	}
	return f
}

func TestRecommendations_NoRatings(t *testing.T) {
	f := newTestFilter(DefaultConfig(), map[string]map[string]float64{
		"b": {"m1": 5, "m2": 4},
	})
	if got := f.Recommendations("a", 5); len(got) != 0 {
		t.Errorf("Recommendations(no ratings) = %v, want empty", got)
	}
	if got := f.Neighbors("a"); len(got) != 0 {
		t.Errorf("Neighbors(no ratings) = %v, want empty", got)
	}
}

func TestRecommendations_NonPositiveCount(t *testing.T) {
	f := newTestFilter(DefaultConfig(), map[string]map[string]float64{
		"a": {"m1": 4},
		"b": {"m1": 4, "m2": 5},
	})
	if got := f.Recommendations("a", 0); got != nil {
		t.Errorf("Recommendations(count=0) = %v, want nil", got)
	}
	if got := f.Recommendations("a", -1); got != nil {
		t.Errorf("Recommendations(count=-1) = %v, want nil", got)
	}
}

func TestAddRating_LastWriteWins(t *testing.T) {
	f := NewFilter(nil, DefaultConfig())
	f.AddRating("a", "m1", 2)
	f.AddRating("a", "m1", 5)

	g := f.Graph()
	if g.Len() != 1 {
		t.Errorf("Len = %d, want 1", g.Len())
	}
	if r, _ := g.Rating("a", "m1"); r != 5 {
		t.Errorf("Rating = %v, want 5", r)
	}
	if n := g.RaterCount("m1"); n != 1 {
		t.Errorf("RaterCount = %d, want 1", n)
	}
}

func TestSimilarity(t *testing.T) {
	f := newTestFilter(DefaultConfig(), map[string]map[string]float64{
		"a": {"m1": 5, "m2": 3, "m3": 1},
		"b": {"m4": 5},
		"c": {"m1": 1, "m2": 5},
		"z": {"m1": 0},
	})

	if got := f.Similarity("a", "a"); !almostEqual(got, 1) {
		t.Errorf("Similarity(a, a) = %f, want 1", got)
	}
	if got := f.Similarity("a", "b"); got != 0 {
		t.Errorf("Similarity(no overlap) = %f, want 0", got)
	}
	if got := f.Similarity("a", "z"); got != 0 {
		t.Errorf("Similarity(zero norm) = %f, want 0", got)
	}
	if got := f.Similarity("a", "nobody"); got != 0 {
		t.Errorf("Similarity(unknown) = %f, want 0", got)
	}
	// Over {m1, m2}: (5*1 + 3*5) / (sqrt(34) * sqrt(26))
	want := 20 / (math.Sqrt(34) * math.Sqrt(26))
	if got := f.Similarity("a", "c"); !almostEqual(got, want) {
		t.Errorf("Similarity(a, c) = %f, want %f", got, want)
	}
	if f.Similarity("a", "c") != f.Similarity("c", "a") {
		t.Error("Similarity is not symmetric")
	}
}

func TestRecommendations_WeightedScore(t *testing.T) {
	f := newTestFilter(DefaultConfig(), map[string]map[string]float64{
		"a": {"m1": 4},
		"b": {"m1": 4, "x": 5},
		"c": {"m1": 2, "x": 1},
		"e": {"m1": 5, "y": 2},
	})

	got := f.Recommendations("a", 5)
	if len(got) != 1 {
		t.Fatalf("Recommendations = %+v, want only x", got)
	}
	rec := got[0]
	if rec.ItemID != "x" {
		t.Errorf("ItemID = %q, want x", rec.ItemID)
	}
	// Every neighbor shares one item with a, so all similarities are 1.
	if !almostEqual(rec.Score, 3) {
		t.Errorf("Score = %f, want 3", rec.Score)
	}
	// 2 raters of x + 2 contributing neighbors.
	if !almostEqual(rec.Confidence, 0.2) {
		t.Errorf("Confidence = %f, want 0.2", rec.Confidence)
	}
	if !strings.Contains(rec.Reason, "b, c") {
		t.Errorf("Reason = %q, want it to name b and c", rec.Reason)
	}
}

func TestRecommendations_OrderAndTruncate(t *testing.T) {
	f := newTestFilter(DefaultConfig(), map[string]map[string]float64{
		"a": {"m1": 4},
		"b": {"m1": 4, "p": 3, "q": 5, "r": 4, "s": 4},
	})

	got := f.Recommendations("a", 3)
	want := []string{"q", "r", "s"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ItemID != id {
			t.Errorf("got[%d] = %q, want %q", i, got[i].ItemID, id)
		}
	}
	for _, rec := range got {
		if _, ok := f.Graph().Rating("a", rec.ItemID); ok {
			t.Errorf("recommended already-rated item %q", rec.ItemID)
		}
	}
}

func TestRecommendations_ConfidenceCapped(t *testing.T) {
	ratings := map[string]map[string]float64{"a": {"m1": 3}}
	for i := 0; i < 20; i++ {
		ratings[fmt.Sprintf("n%02d", i)] = map[string]float64{"m1": 3, "z": 5}
	}
	f := newTestFilter(DefaultConfig(), ratings)

	got := f.Recommendations("a", 1)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Confidence != 0.9 {
		t.Errorf("Confidence = %f, want cap 0.9", got[0].Confidence)
	}
	if !strings.Contains(got[0].Reason, "10 similar learners, including n00, n01, n02") {
		t.Errorf("Reason = %q", got[0].Reason)
	}
}

func TestNeighbors_MaxAndTieBreak(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxNeighbors = 2
	f := newTestFilter(cfg, map[string]map[string]float64{
		"a": {"m1": 4},
		"d": {"m1": 3},
		"c": {"m1": 5},
		"b": {"m1": 1},
	})

	got := f.Neighbors("a")
	if len(got) != 2 || got[0].LearnerID != "b" || got[1].LearnerID != "c" {
		t.Errorf("Neighbors = %+v, want [b c]", got)
	}
}

func TestNeighbors_MinSimilarityIsStrict(t *testing.T) {
	ratings := map[string]map[string]float64{
		"a": {"m1": 5, "m2": 1},
		"b": {"m1": 1, "m2": 5},
	}
	probe := newTestFilter(DefaultConfig(), ratings)
	sim := probe.Similarity("a", "b")

	cfg := DefaultConfig()
	cfg.MinSimilarity = sim
	f := newTestFilter(cfg, ratings)
	if got := f.Neighbors("a"); len(got) != 0 {
		t.Errorf("Neighbors at threshold %f = %+v, want none", sim, got)
	}
}

func TestGraph_CloneIsIndependent(t *testing.T) {
	g := NewGraph()
	g.AddRating("a", "m1", 4)
	c := g.Clone()
	c.AddRating("a", "m2", 5)

	if g.Len() != 1 || c.Len() != 2 {
		t.Errorf("Len original=%d clone=%d, want 1 and 2", g.Len(), c.Len())
	}
	if got := c.Learners(); len(got) != 1 || got[0] != "a" {
		t.Errorf("Learners = %v, want [a]", got)
	}
}

func TestFilter_ConcurrentAccess(t *testing.T) {
	g := NewGraph()
	f := NewFilter(g, DefaultConfig())
	f.AddRating("a", "m0", 4)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			g.AddRating(fmt.Sprintf("n%d", i), "m0", 4)
			g.AddRating(fmt.Sprintf("n%d", i), fmt.Sprintf("m%d", i+1), 5)
		}(i)
		go func() {
			defer wg.Done()
			_ = NewFilter(g, DefaultConfig()).Recommendations("a", 5)
		}()
	}
	wg.Wait()

	if got := f.Recommendations("a", 20); len(got) != 10 {
		t.Errorf("len(Recommendations) = %d, want 10", len(got))
	}
}
