// Package predict estimates how a learner will score on a subject area at a
// given difficulty, and what they should do about it.
package predict

import (
	"math"
	"sync"

	"github.com/abhisek/prepcoach/internal/features"
	"github.com/abhisek/prepcoach/internal/history"
	"github.com/abhisek/prepcoach/internal/metrics"
	"github.com/abhisek/prepcoach/internal/stats"
)

// Scoring weights and thresholds.
const (
	neutralDifficulty = 3.0
	difficultyWeight  = 5.0
	consistencyWeight = 10.0
	improvementWeight = 20.0

	baselineConfidence = 0.3
	confidenceRamp     = 20.0
	maxConfidence      = 0.95

	difficultyStep = 0.5
	stepUpAbove    = 85.0
	stepDownBelow  = 60.0

	lowConsistency     = 0.3
	slowResponseSecs   = 120.0
	lowPerformance     = 50.0
	decliningTrend     = -0.2
	routineConsistency = 0.4
	timeMgmtSecs       = 90.0
	reviewBelow        = 70.0
	risingTrend        = 0.2
)

// Config tunes the predictor.
type Config struct {
	// MinRecords is the number of matching records needed before the model
	// path replaces the baseline.
	MinRecords int `koanf:"min_records" validate:"gte=1"`

	// BaselineAccuracy is predicted for a learner with no history in the subject.
	// Callers may set it to a population mean.
	BaselineAccuracy float64 `koanf:"baseline_accuracy" validate:"gte=0,lte=100"`

	// JitterAmplitude enables a seeded perturbation of +/- this many points.
	// Zero disables it.
	JitterAmplitude float64 `koanf:"jitter_amplitude" validate:"gte=0,lte=20"`
	JitterSeed      uint64  `koanf:"jitter_seed"`
}

// DefaultConfig returns a Config with the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinRecords:       3,
		BaselineAccuracy: 70,
	}
}

// Prediction is the outcome for one (learner, subject, difficulty) query.
type Prediction struct {
	LearnerID             string          `json:"learner_id"`
	SubjectArea           string          `json:"subject_area"`
	PredictedAccuracy     float64         `json:"predicted_accuracy"`
	Confidence            float64         `json:"confidence"`
	RecommendedDifficulty float64         `json:"recommended_difficulty"`
	RiskFactors           []RiskFactor    `json:"risk_factors"`
	Suggestions           []Suggestion    `json:"suggestions"`
	Baseline              bool            `json:"baseline"`
	Features              features.Vector `json:"features"`
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithJitter overrides the jitter derived from Config.
func WithJitter(j Jitter) Option {
	return func(p *Predictor) {
		if j != nil {
			p.jitter = j
		}
	}
}

// Predictor holds a snapshot of performance records. Train swaps the
// snapshot; Predict reads it. Both are safe for concurrent use.
type Predictor struct {
	cfg    Config
	jitter Jitter

	mu      sync.RWMutex
	records []history.PerformanceRecord
}

// New creates a Predictor with no records.
func New(cfg Config, opts ...Option) *Predictor {
	if cfg.MinRecords <= 0 {
		cfg.MinRecords = DefaultConfig().MinRecords
	}
	p := &Predictor{cfg: cfg, jitter: NoJitter{}}
	if cfg.JitterAmplitude > 0 {
		p.jitter = HashJitter{Seed: cfg.JitterSeed, Amplitude: cfg.JitterAmplitude}
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Train replaces the record set. The slice is copied.
// Rows with a non-finite accuracy, time or difficulty are dropped.
func (p *Predictor) Train(records []history.PerformanceRecord) {
	snapshot := make([]history.PerformanceRecord, 0, len(records))
	for _, r := range records {
		if !finite(r.Accuracy) || !finite(r.TimeSpentSeconds) || !finite(r.Difficulty) {
			continue
		}
		snapshot = append(snapshot, r)
	}

	p.mu.Lock()
	p.records = snapshot
	p.mu.Unlock()
}

// Len returns the number of records in the current snapshot.
func (p *Predictor) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.records)
}

// Predict never fails; sparse history falls back to the baseline rule.
func (p *Predictor) Predict(learnerID, subject string, targetDifficulty float64) Prediction {
	p.mu.RLock()
	v := features.Extract(p.records, learnerID, subject)
	p.mu.RUnlock()

	if v.Samples < p.cfg.MinRecords {
		metrics.PredictionsTotal.WithLabelValues("baseline").Inc()
		return p.baseline(learnerID, subject, targetDifficulty, v)
	}
	metrics.PredictionsTotal.WithLabelValues("model").Inc()

	predicted := v.AvgAccuracy +
		(neutralDifficulty-targetDifficulty)*difficultyWeight +
		v.Consistency*consistencyWeight +
		v.ImprovementRate*improvementWeight +
		p.jitter.Offset(learnerID, subject, targetDifficulty)
	predicted = stats.Clamp(predicted, 0, 100)

	return Prediction{
		LearnerID:             learnerID,
		SubjectArea:           subject,
		PredictedAccuracy:     predicted,
		Confidence:            math.Min(maxConfidence, float64(v.Samples)/confidenceRamp),
		RecommendedDifficulty: adjustDifficulty(targetDifficulty, predicted),
		RiskFactors:           riskFactors(v, predicted),
		Suggestions:           suggestions(v, predicted),
		Features:              v,
	}
}

func (p *Predictor) baseline(learnerID, subject string, targetDifficulty float64, v features.Vector) Prediction {
	acc := p.cfg.BaselineAccuracy
	if v.Samples > 0 {
		acc = v.AvgAccuracy
	}
	return Prediction{
		LearnerID:             learnerID,
		SubjectArea:           subject,
		PredictedAccuracy:     stats.Clamp(acc, 0, 100),
		Confidence:            baselineConfidence,
		RecommendedDifficulty: targetDifficulty,
		RiskFactors:           []RiskFactor{},
		Suggestions:           []Suggestion{SuggestGatherMoreData},
		Baseline:              true,
		Features:              v,
	}
}

func adjustDifficulty(target, predicted float64) float64 {
	switch {
	case predicted > stepUpAbove:
		return math.Min(history.MaxDifficulty, target+difficultyStep)
	case predicted < stepDownBelow:
		return math.Max(history.MinDifficulty, target-difficultyStep)
	default:
		return target
	}
}

func riskFactors(v features.Vector, predicted float64) []RiskFactor {
	out := []RiskFactor{}
	if v.Consistency < lowConsistency {
		out = append(out, RiskLowConsistency)
	}
	if v.AvgTimeSpent > slowResponseSecs {
		out = append(out, RiskSlowResponse)
	}
	if predicted < lowPerformance {
		out = append(out, RiskLowPerformance)
	}
	if v.ImprovementRate < decliningTrend {
		out = append(out, RiskDecliningTrend)
	}
	return out
}

func suggestions(v features.Vector, predicted float64) []Suggestion {
	out := []Suggestion{}
	if v.Consistency < routineConsistency {
		out = append(out, SuggestBuildRoutine)
	}
	if v.AvgTimeSpent > timeMgmtSecs {
		out = append(out, SuggestTimeManagement)
	}
	if predicted < reviewBelow {
		out = append(out, SuggestReviewBasics, SuggestEasierDifficulty)
	}
	if v.ImprovementRate > risingTrend {
		out = append(out, SuggestHarderDifficulty)
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
