package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/abhisek/prepcoach/internal/collab"
	"github.com/abhisek/prepcoach/internal/history"
	"github.com/abhisek/prepcoach/internal/logging"
	"github.com/abhisek/prepcoach/internal/metrics"
	"github.com/abhisek/prepcoach/internal/predict"
	"github.com/abhisek/prepcoach/internal/stats"
)

// Insight thresholds.
const (
	strongAccuracy = 80.0
	solidAccuracy  = 60.0

	steadyConsistency = 0.7
)

// InsufficientDataInsight is the only insight given when there is no usable history.
const InsufficientDataInsight = "Not enough practice data yet to personalise your plan. Complete a few sessions in each subject area."

// Bundle is everything the caller needs to render one learner's plan. It is
// rebuilt on every request and never stored by the engine.
type Bundle struct {
	LearnerID              string                  `json:"learner_id"`
	DifficultyAdjustments  map[string]float64      `json:"difficulty_adjustments"`
	Predictions            []predict.Prediction    `json:"predictions"`
	ContentRecommendations []collab.Recommendation `json:"content_recommendations"`
	LearningPath           []string                `json:"learning_path"`
	Insights               []string                `json:"insights"`
	Summary                string                  `json:"summary,omitempty"`
	Degraded               bool                    `json:"degraded"`
	GeneratedAt            time.Time               `json:"generated_at"`
}

// Recommendations assembles the bundle for learnerID. It never fails: an
// engine that was not initialized, or whose fetch failed, returns baseline
// difficulty adjustments, no content and a single insufficient-data insight.
func (e *Engine) Recommendations(ctx context.Context, learnerID string) Bundle {
	e.mu.RLock()
	b := e.assemble(ctx, learnerID)
	e.mu.RUnlock()

	if b.Degraded {
		metrics.BundlesTotal.WithLabelValues("degraded").Inc()
		return b
	}
	metrics.BundlesTotal.WithLabelValues("complete").Inc()

	if e.narrator != nil {
		summary, err := e.narrator.Narrate(ctx, b)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("learner_id", learnerID).Msg("bundle narration failed")
		} else {
			b.Summary = summary
		}
	}
	return b
}

// assemble runs with e.mu held for reading.
func (e *Engine) assemble(ctx context.Context, learnerID string) Bundle {
	b := Bundle{
		LearnerID:              learnerID,
		DifficultyAdjustments:  make(map[string]float64),
		ContentRecommendations: []collab.Recommendation{},
		LearningPath:           []string{},
		GeneratedAt:            e.now().UTC(),
	}

	if !e.initialized || e.fetchErr != nil {
		if !e.initialized {
			logging.Ctx(ctx).Warn().Err(ErrNotInitialized).Str("learner_id", learnerID).Msg("serving degraded bundle")
		}
		b.Degraded = true
		e.fillPredictions(&b, learnerID, nil)
		b.Insights = []string{InsufficientDataInsight}
		return b
	}

	// Only the initialized learner's history is held; anyone else is answered
	// from an empty history.
	var records []history.PerformanceRecord
	if learnerID == e.learnerID {
		records = e.records
		b.LearningPath = append(b.LearningPath, e.path...)
	}

	e.fillPredictions(&b, learnerID, records)
	if recs := e.filter.Recommendations(learnerID, e.cfg.RecommendationCount); recs != nil {
		b.ContentRecommendations = recs
	}
	b.Insights = Insights(records, b.LearningPath)
	return b
}

func (e *Engine) fillPredictions(b *Bundle, learnerID string, records []history.PerformanceRecord) {
	for _, subject := range e.subjects(records) {
		p := e.predictor.Predict(learnerID, subject, e.cfg.DefaultDifficulty)
		b.DifficultyAdjustments[subject] = p.RecommendedDifficulty
		b.Predictions = append(b.Predictions, p)
	}
}

// subjects is the configured list plus anything seen in records, sorted.
func (e *Engine) subjects(records []history.PerformanceRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range append(append([]string(nil), e.cfg.SubjectAreas...), history.Subjects(records)...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Insights derives the plain-language commentary for a learner's records.
func Insights(records []history.PerformanceRecord, path []string) []string {
	if len(records) == 0 {
		return []string{InsufficientDataInsight}
	}

	accs := make([]float64, len(records))
	for i, r := range records {
		accs[i] = r.Accuracy
	}
	mean := stats.Mean(accs)
	consistency := stats.Consistency(accs)

	var out []string
	switch {
	case mean >= strongAccuracy:
		out = append(out, fmt.Sprintf("Strong overall accuracy (%.0f%%). You are ready for harder material.", mean))
	case mean >= solidAccuracy:
		out = append(out, fmt.Sprintf("Solid progress at %.0f%% overall. Target your weaker areas to move up.", mean))
	default:
		out = append(out, fmt.Sprintf("Overall accuracy is %.0f%%. Rebuild the fundamentals before raising difficulty.", mean))
	}

	if consistency >= steadyConsistency {
		out = append(out, "Your results are consistent from session to session.")
	} else {
		out = append(out, "Your results swing a lot between sessions. A fixed study routine will help.")
	}

	if len(path) > 0 {
		out = append(out, fmt.Sprintf("Start with %s, your weakest subject area.", path[0]))
	}
	return out
}
