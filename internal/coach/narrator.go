// Package coach narrates a recommendation bundle through a language model.
// The narration only rephrases what the bundle already says.
package coach

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/goccy/go-json"

	"github.com/abhisek/prepcoach/internal/engine"
	"github.com/abhisek/prepcoach/internal/llm"
	"github.com/abhisek/prepcoach/internal/predict"
)

// Purpose labels narration requests in llm logs and metrics.
const Purpose = "bundle-summary"

// ErrEmptySummary is returned when the model answers with only whitespace.
var ErrEmptySummary = errors.New("coach: empty summary")

// Config holds narration settings.
type Config struct {
	MaxTokens   int
	Temperature float64

	// Timeout bounds one narration including retries. Zero means only the
	// caller's context applies.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   400,
		Temperature: 0.4,
		Timeout:     30 * time.Second,
	}
}

// Narrator implements engine.Narrator.
type Narrator struct {
	provider llm.Provider
	cfg      Config
}

var _ engine.Narrator = (*Narrator)(nil)

func NewNarrator(provider llm.Provider, cfg Config) *Narrator {
	return &Narrator{provider: provider, cfg: cfg}
}

type summaryOutput struct {
	Summary string `json:"summary"`
}

// Narrate returns a short summary of b.
func (n *Narrator) Narrate(ctx context.Context, b engine.Bundle) (string, error) {
	ctx = llm.WithPurpose(ctx, Purpose)
	if n.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.Timeout)
		defer cancel()
	}

	prompt, err := buildDigest(b)
	if err != nil {
		return "", fmt.Errorf("build summary prompt: %w", err)
	}

	req := llm.UserPrompt(systemPrompt, prompt, SummarySchema, n.cfg.MaxTokens)
	req.Temperature = n.cfg.Temperature

	resp, err := n.provider.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("narrate bundle: %w", err)
	}

	var out summaryOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", fmt.Errorf("parse summary response: %w", err)
	}
	summary := strings.TrimSpace(out.Summary)
	if summary == "" {
		return "", ErrEmptySummary
	}
	return summary, nil
}

const systemPrompt = `You are a supportive exam-preparation coach. You receive a learner's computed study plan.

Instructions:
- Summarise the plan in two or three short sentences addressed to the learner.
- Only use facts present in the plan. Do not invent scores, subjects or materials.
- Mention the first subject of the learning path when there is one.
- Do not give numeric predictions that are not in the plan.`

// digest is the trimmed view of a bundle that the prompt is built from.
type digest struct {
	Path       []string
	Subjects   []subjectLine
	Content    []string
	Insights   []string
	HasHistory bool
}

type subjectLine struct {
	Code       string
	Predicted  float64
	Difficulty float64
	Risks      []string
}

var digestTemplate = template.Must(template.New("digest").Parse(`{{if .HasHistory}}Learning path (weakest first): {{range $i, $s := .Path}}{{if $i}}, {{end}}{{$s}}{{end}}
{{else}}The learner has no practice history yet.
{{end}}
Subjects:
{{range .Subjects}}- {{.Code}}: predicted {{printf "%.0f" .Predicted}}%, next difficulty {{printf "%.1f" .Difficulty}}{{if .Risks}}, risks: {{range $i, $r := .Risks}}{{if $i}}; {{end}}{{$r}}{{end}}{{end}}
{{end}}{{if .Content}}
Suggested materials: {{range $i, $c := .Content}}{{if $i}}, {{end}}{{$c}}{{end}}
{{end}}
Insights:
{{range .Insights}}- {{.}}
{{end}}`))

func buildDigest(b engine.Bundle) (string, error) {
	d := digest{
		Path:       b.LearningPath,
		Insights:   b.Insights,
		HasHistory: len(b.LearningPath) > 0,
	}
	for _, p := range b.Predictions {
		if p.Baseline {
			continue
		}
		d.Subjects = append(d.Subjects, subjectLine{
			Code:       p.SubjectArea,
			Predicted:  p.PredictedAccuracy,
			Difficulty: p.RecommendedDifficulty,
			Risks:      riskLabels(p.RiskFactors),
		})
	}
	for _, r := range b.ContentRecommendations {
		d.Content = append(d.Content, r.ItemID)
	}

	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func riskLabels(risks []predict.RiskFactor) []string {
	out := make([]string, len(risks))
	for i, r := range risks {
		out[i] = r.Label()
	}
	return out
}
