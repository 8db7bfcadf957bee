// Package engine combines the predictor and the collaborative filter into a
// single recommendation bundle for one learner.
//
// An Engine is meant to live for one request: Initialize loads the learner's
// history, Recommendations assembles the bundle. Learner-specific state is
// never shared between Engine instances. The rating graph may be shared
// read-mostly across instances with WithGraph.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/prepcoach/internal/collab"
	"github.com/abhisek/prepcoach/internal/history"
	"github.com/abhisek/prepcoach/internal/logging"
	"github.com/abhisek/prepcoach/internal/metrics"
	"github.com/abhisek/prepcoach/internal/predict"
	"github.com/abhisek/prepcoach/internal/stats"
)

// DefaultSubjectAreas are the scored areas of the exam.
var DefaultSubjectAreas = []string{"PU", "PPU", "PBM", "PK", "LBI", "LBE", "PM"}

// ErrNotInitialized is reported in the bundle log when Recommendations runs
// before a successful Initialize.
var ErrNotInitialized = errors.New("engine not initialized")

// Config holds the orchestration settings.
type Config struct {
	// DefaultDifficulty is the level each subject is predicted at.
	DefaultDifficulty float64 `koanf:"default_difficulty" validate:"gte=1,lte=5"`

	// RecommendationCount is how many content items a bundle carries. Zero
	// selects the default of 5.
	RecommendationCount int `koanf:"recommendation_count" validate:"gte=0,lte=100"`

	// SubjectAreas always appear in DifficultyAdjustments, even without history.
	SubjectAreas []string `koanf:"subject_areas"`

	// FetchTimeout bounds the data source calls in Initialize. Zero means
	// only the caller's context applies.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`
}

// DefaultConfig returns the standard orchestration settings.
func DefaultConfig() Config {
	return Config{
		DefaultDifficulty:   3,
		RecommendationCount: 5,
		SubjectAreas:        append([]string(nil), DefaultSubjectAreas...),
		FetchTimeout:        10 * time.Second,
	}
}

// Narrator turns a finished bundle into a short prose summary.
type Narrator interface {
	Narrate(ctx context.Context, b Bundle) (string, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Defaults to the global logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithGraph makes the engine read a shared rating graph instead of fetching
// ratings into a private one.
func WithGraph(g *collab.Graph) Option {
	return func(e *Engine) { e.shared = g }
}

// WithPredictConfig overrides the predictor settings.
func WithPredictConfig(cfg predict.Config) Option {
	return func(e *Engine) { e.predictCfg = cfg }
}

// WithCollabConfig overrides the collaborative filter settings.
func WithCollabConfig(cfg collab.Config) Option {
	return func(e *Engine) { e.collabCfg = cfg }
}

// WithJitter injects a prediction jitter source.
func WithJitter(j predict.Jitter) Option {
	return func(e *Engine) { e.jitter = j }
}

// WithNarrator adds a prose summary to complete bundles.
func WithNarrator(n Narrator) Option {
	return func(e *Engine) { e.narrator = n }
}

// WithClock overrides time.Now for bundle timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine orchestrates one learner's recommendation cycle.
type Engine struct {
	source     DataSource
	cfg        Config
	predictCfg predict.Config
	collabCfg  collab.Config
	jitter     predict.Jitter
	shared     *collab.Graph
	narrator   Narrator
	log        zerolog.Logger
	now        func() time.Time

	mu          sync.RWMutex
	learnerID   string
	initialized bool
	fetchErr    error
	records     []history.PerformanceRecord
	predictor   *predict.Predictor
	filter      *collab.Filter
	path        []string
}

// New creates an Engine reading from source.
func New(source DataSource, cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.DefaultDifficulty == 0 {
		cfg.DefaultDifficulty = def.DefaultDifficulty
	}
	if cfg.RecommendationCount <= 0 {
		cfg.RecommendationCount = def.RecommendationCount
	}
	e := &Engine{
		source:     source,
		cfg:        cfg,
		predictCfg: predict.DefaultConfig(),
		collabCfg:  collab.DefaultConfig(),
		log:        logging.With().Str("component", "engine").Logger(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	e.reset()
	return e
}

// reset installs empty predictor and filter state. Caller holds mu or owns e.
func (e *Engine) reset() {
	var popts []predict.Option
	if e.jitter != nil {
		popts = append(popts, predict.WithJitter(e.jitter))
	}
	e.predictor = predict.New(e.predictCfg, popts...)
	g := e.shared
	if g == nil {
		g = collab.NewGraph()
	}
	e.filter = collab.NewFilter(g, e.collabCfg)
	e.records = nil
	e.path = nil
}

// Initialize fetches the learner's history and the rating graph, trains the
// predictor and computes the learning path. On a fetch failure the engine is
// left in a degraded state and the error is returned for the caller to log
// or inspect; Recommendations still works afterwards.
func (e *Engine) Initialize(ctx context.Context, learnerID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := e.log.With().
		Str("learner_id", learnerID).
		Str("correlation_id", logging.CorrelationID(ctx)).
		Logger()
	start := time.Now()
	defer func() { metrics.InitializeDuration.Observe(time.Since(start).Seconds()) }()

	e.reset()
	e.learnerID = learnerID
	e.initialized = true
	e.fetchErr = nil

	records, edges, err := e.fetch(ctx, learnerID)
	if err != nil {
		e.fetchErr = err
		metrics.InitializeTotal.WithLabelValues("degraded").Inc()
		log.Error().Err(err).Msg("data source fetch failed; serving degraded recommendations")
		return fmt.Errorf("initialize %s: %w", learnerID, err)
	}

	records, rejected := history.SanitizeRecords(records)
	logRejected(log, "record", rejected)
	edges, rejectedEdges := history.SanitizeRatings(edges)
	logRejected(log, "rating", rejectedEdges)

	e.records = history.ForLearner(records, learnerID)
	e.predictor.Train(e.records)
	if e.shared == nil {
		e.filter.Graph().Load(edges)
	}
	e.path = LearningPath(e.records)

	metrics.InitializeTotal.WithLabelValues("ok").Inc()
	log.Debug().
		Int("records", len(e.records)).
		Int("ratings", e.filter.Graph().Len()).
		Strs("path", e.path).
		Dur("took", time.Since(start)).
		Msg("engine initialized")
	return nil
}

func (e *Engine) fetch(ctx context.Context, learnerID string) ([]history.PerformanceRecord, []history.RatingEdge, error) {
	if e.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.FetchTimeout)
		defer cancel()
	}

	var (
		records []history.PerformanceRecord
		edges   []history.RatingEdge
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := e.source.PerformanceRecords(gctx, learnerID)
		if err != nil {
			return fmt.Errorf("fetch performance records: %w", err)
		}
		records = r
		return nil
	})
	if e.shared == nil {
		g.Go(func() error {
			r, err := e.source.Ratings(gctx)
			if err != nil {
				return fmt.Errorf("fetch ratings: %w", err)
			}
			edges = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return records, edges, nil
}

func logRejected(log zerolog.Logger, kind string, rejected []history.Rejected) {
	if len(rejected) == 0 {
		return
	}
	metrics.RejectedRows.WithLabelValues(kind).Add(float64(len(rejected)))
	log.Warn().
		Str("kind", kind).
		Int("count", len(rejected)).
		AnErr("first", rejected[0].Err).
		Msg("dropped malformed rows from data source")
}

// LearningPath orders the subjects in records weakest first by mean
// accuracy. Equal means are ordered by subject code.
func LearningPath(records []history.PerformanceRecord) []string {
	bySubject := make(map[string][]float64)
	for _, r := range records {
		bySubject[r.SubjectArea] = append(bySubject[r.SubjectArea], r.Accuracy)
	}

	type subjectMean struct {
		code string
		mean float64
	}
	means := make([]subjectMean, 0, len(bySubject))
	for code, accs := range bySubject {
		means = append(means, subjectMean{code: code, mean: stats.Mean(accs)})
	}
	sort.Slice(means, func(i, j int) bool {
		if means[i].mean != means[j].mean {
			return means[i].mean < means[j].mean
		}
		return means[i].code < means[j].code
	})

	path := make([]string, len(means))
	for i, m := range means {
		path[i] = m.code
	}
	return path
}

// LearningPath returns a copy of the path computed by the last Initialize.
func (e *Engine) LearningPath() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.path...)
}

// Degraded reports whether the last Initialize failed to fetch.
func (e *Engine) Degraded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fetchErr != nil
}
