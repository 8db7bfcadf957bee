// Package collab recommends unseen content items by user-based
// collaborative filtering over a sparse learner-item rating graph.
package collab

import (
	"sort"
	"sync"

	"github.com/abhisek/prepcoach/internal/history"
)

// Graph is the bipartite rating structure: learner -> item -> rating, plus
// item -> learners for co-occurrence lookups. Writes are serialized and
// reads are shared, so one Graph may back many concurrent filters.
type Graph struct {
	mu      sync.RWMutex
	ratings map[string]map[string]float64
	raters  map[string]map[string]struct{}
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		ratings: make(map[string]map[string]float64),
		raters:  make(map[string]map[string]struct{}),
	}
}

// AddRating records a rating. A later rating for the same pair replaces the earlier one.
func (g *Graph) AddRating(learnerID, itemID string, rating float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addLocked(learnerID, itemID, rating)
}

// Load adds every edge under a single write lock, in slice order.
func (g *Graph) Load(edges []history.RatingEdge) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, e := range edges {
		g.addLocked(e.LearnerID, e.ItemID, e.Rating)
	}
}

func (g *Graph) addLocked(learnerID, itemID string, rating float64) {
	items, ok := g.ratings[learnerID]
	if !ok {
		items = make(map[string]float64)
		g.ratings[learnerID] = items
	}
	items[itemID] = rating

	set, ok := g.raters[itemID]
	if !ok {
		set = make(map[string]struct{})
		g.raters[itemID] = set
	}
	set[learnerID] = struct{}{}
}

// Rating returns the learner's rating for an item.
func (g *Graph) Rating(learnerID, itemID string) (float64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.ratings[learnerID][itemID]
	return r, ok
}

// RatingsOf returns a copy of everything the learner has rated.
func (g *Graph) RatingsOf(learnerID string) map[string]float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]float64, len(g.ratings[learnerID]))
	for item, r := range g.ratings[learnerID] {
		out[item] = r
	}
	return out
}

// RaterCount returns how many learners have rated the item.
func (g *Graph) RaterCount(itemID string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.raters[itemID])
}

// Learners returns every learner with at least one rating, sorted.
func (g *Graph) Learners() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.ratings))
	for id := range g.ratings {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of distinct (learner, item) edges.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, items := range g.ratings {
		n += len(items)
	}
	return n
}

// Clone returns an independent copy, for a private per-request view of a shared graph.
func (g *Graph) Clone() *Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c := NewGraph()
	for learner, items := range g.ratings {
		for item, r := range items {
			c.addLocked(learner, item, r)
		}
	}
	return c
}
