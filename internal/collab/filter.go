package collab

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/abhisek/prepcoach/internal/metrics"
)

// Config tunes neighbor selection and scoring.
type Config struct {
	// MaxNeighbors caps how many similar learners are consulted.
	MaxNeighbors int `koanf:"max_neighbors" validate:"gte=1"`

	// MinSimilarity is exclusive: a neighbor must be strictly more similar.
	MinSimilarity float64 `koanf:"min_similarity" validate:"gte=0,lt=1"`

	// MinNeighborRating is the lowest neighbor rating that nominates an item.
	MinNeighborRating float64 `koanf:"min_neighbor_rating" validate:"gte=1,lte=5"`

	// ConfidenceRamp is the evidence count at which confidence would reach 1.
	ConfidenceRamp float64 `koanf:"confidence_ramp" validate:"gt=0"`
	MaxConfidence  float64 `koanf:"max_confidence" validate:"gt=0,lte=1"`

	// ReasonNeighbors is how many neighbors are named in a recommendation reason.
	ReasonNeighbors int `koanf:"reason_neighbors" validate:"gte=0"`
}

// DefaultConfig returns the standard neighborhood settings.
func DefaultConfig() Config {
	return Config{
		MaxNeighbors:      10,
		MinSimilarity:     0.1,
		MinNeighborRating: 3,
		ConfidenceRamp:    20,
		MaxConfidence:     0.9,
		ReasonNeighbors:   3,
	}
}

// Neighbor is a learner similar to the target.
type Neighbor struct {
	LearnerID  string  `json:"learner_id"`
	Similarity float64 `json:"similarity"`
}

// Recommendation is an unseen item with its estimated rating.
type Recommendation struct {
	ItemID     string  `json:"item_id"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Filter scores items for a learner from the ratings of similar learners.
type Filter struct {
	graph *Graph
	cfg   Config
}

// NewFilter creates a filter over g. A nil graph gets a fresh empty one.
// Non-positive limits in cfg fall back to DefaultConfig; MinSimilarity and
// ReasonNeighbors are taken as given.
func NewFilter(g *Graph, cfg Config) *Filter {
	if g == nil {
		g = NewGraph()
	}
	def := DefaultConfig()
	if cfg.MaxNeighbors <= 0 {
		cfg.MaxNeighbors = def.MaxNeighbors
	}
	if cfg.MinNeighborRating <= 0 {
		cfg.MinNeighborRating = def.MinNeighborRating
	}
	if cfg.ConfidenceRamp <= 0 {
		cfg.ConfidenceRamp = def.ConfidenceRamp
	}
	if cfg.MaxConfidence <= 0 {
		cfg.MaxConfidence = def.MaxConfidence
	}
	return &Filter{graph: g, cfg: cfg}
}

// Graph returns the underlying rating graph.
func (f *Filter) Graph() *Graph { return f.graph }

// AddRating records a rating in the underlying graph. Last write wins.
func (f *Filter) AddRating(learnerID, itemID string, rating float64) {
	f.graph.AddRating(learnerID, itemID, rating)
}

// Similarity returns the cosine similarity of two learners over the items
// both have rated. No overlap or a zero vector gives 0.
func (f *Filter) Similarity(a, b string) float64 {
	f.graph.mu.RLock()
	defer f.graph.mu.RUnlock()
	return cosine(f.graph.ratings[a], f.graph.ratings[b])
}

// Neighbors returns up to MaxNeighbors learners more similar than
// MinSimilarity, most similar first.
func (f *Filter) Neighbors(learnerID string) []Neighbor {
	f.graph.mu.RLock()
	defer f.graph.mu.RUnlock()
	return f.neighborsLocked(learnerID)
}

func (f *Filter) neighborsLocked(learnerID string) []Neighbor {
	target := f.graph.ratings[learnerID]
	if len(target) == 0 {
		return nil
	}

	var out []Neighbor
	for other, ratings := range f.graph.ratings {
		if other == learnerID {
			continue
		}
		if sim := cosine(target, ratings); sim > f.cfg.MinSimilarity {
			out = append(out, Neighbor{LearnerID: other, Similarity: sim})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].LearnerID < out[j].LearnerID
	})
	if len(out) > f.cfg.MaxNeighbors {
		out = out[:f.cfg.MaxNeighbors]
	}
	return out
}

type candidate struct {
	num, den     float64
	contributors []string
}

// Recommendations returns at most count items the learner has not rated,
// best first. A learner without ratings, or a non-positive count, gets nil.
func (f *Filter) Recommendations(learnerID string, count int) []Recommendation {
	if count <= 0 {
		return nil
	}

	f.graph.mu.RLock()
	defer f.graph.mu.RUnlock()

	neighbors := f.neighborsLocked(learnerID)
	if len(neighbors) == 0 {
		metrics.ContentRecommendations.Observe(0)
		return nil
	}
	seen := f.graph.ratings[learnerID]

	// Nominate items a neighbor rated well that the learner has not seen.
	cands := make(map[string]*candidate)
	for _, n := range neighbors {
		for item, r := range f.graph.ratings[n.LearnerID] {
			if _, rated := seen[item]; rated || r < f.cfg.MinNeighborRating {
				continue
			}
			if cands[item] == nil {
				cands[item] = &candidate{}
			}
		}
	}

	// Score against every neighbor who rated the item, in similarity order.
	for _, n := range neighbors {
		for item, c := range cands {
			r, ok := f.graph.ratings[n.LearnerID][item]
			if !ok {
				continue
			}
			c.num += n.Similarity * r
			c.den += n.Similarity
			c.contributors = append(c.contributors, n.LearnerID)
		}
	}

	out := make([]Recommendation, 0, len(cands))
	for item, c := range cands {
		score := 0.0
		if c.den > 0 {
			score = c.num / c.den
		}
		evidence := float64(len(f.graph.raters[item]) + len(c.contributors))
		out = append(out, Recommendation{
			ItemID:     item,
			Score:      score,
			Confidence: math.Min(f.cfg.MaxConfidence, evidence/f.cfg.ConfidenceRamp),
			Reason:     f.reason(c.contributors),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ItemID < out[j].ItemID
	})
	if len(out) > count {
		out = out[:count]
	}
	metrics.ContentRecommendations.Observe(float64(len(out)))
	return out
}

func (f *Filter) reason(contributors []string) string {
	names := contributors
	if len(names) > f.cfg.ReasonNeighbors {
		names = names[:f.cfg.ReasonNeighbors]
	}
	noun := "learners"
	if len(contributors) == 1 {
		noun = "learner"
	}
	if len(names) == 0 {
		return fmt.Sprintf("rated highly by %d similar %s", len(contributors), noun)
	}
	return fmt.Sprintf("rated highly by %d similar %s, including %s",
		len(contributors), noun, strings.Join(names, ", "))
}

// cosine is computed over co-rated items only. Items are visited in sorted
// order so repeated calls produce bit-identical results.
func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	common := make([]string, 0, len(a))
	for item := range a {
		if _, ok := b[item]; ok {
			common = append(common, item)
		}
	}
	sort.Strings(common)

	var dot, normA, normB float64
	for _, item := range common {
		ra, rb := a[item], b[item]
		dot += ra * rb
		normA += ra * ra
		normB += rb * rb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return math.Min(1, dot/math.Sqrt(normA*normB))
}
