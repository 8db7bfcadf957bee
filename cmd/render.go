package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/goccy/go-json"

	"github.com/abhisek/prepcoach/internal/engine"
	"github.com/abhisek/prepcoach/internal/predict"
)

// Palette
var (
	colorPrimary = lipgloss.Color("#8B5CF6")
	colorGood    = lipgloss.Color("#22C55E")
	colorWarn    = lipgloss.Color("#F97316")
	colorBad     = lipgloss.Color("#F43F5E")
	colorDim     = lipgloss.Color("#94A3B8")
	colorBorder  = lipgloss.Color("#334155")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorWarn).
			Bold(true)
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// accuracyStyle colours an accuracy by the same bands the insights use.
func accuracyStyle(acc float64) lipgloss.Style {
	switch {
	case acc >= 80:
		return lipgloss.NewStyle().Foreground(colorGood)
	case acc >= 60:
		return lipgloss.NewStyle().Foreground(colorWarn)
	default:
		return lipgloss.NewStyle().Foreground(colorBad)
	}
}

func renderPrediction(p predict.Prediction) string {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("%s · %s", p.LearnerID, p.SubjectArea)),
		fmt.Sprintf("Predicted accuracy  %s", accuracyStyle(p.PredictedAccuracy).Render(fmt.Sprintf("%.1f%%", p.PredictedAccuracy))),
		fmt.Sprintf("Confidence          %.0f%%", p.Confidence*100),
		fmt.Sprintf("Next difficulty     %.1f", p.RecommendedDifficulty),
	}
	if p.Baseline {
		lines = append(lines, hintStyle.Render(fmt.Sprintf("Baseline estimate from %d session(s).", p.Features.Samples)))
	}
	for _, r := range p.RiskFactors {
		lines = append(lines, warnStyle.Render("! "+r.Label()))
	}
	for _, s := range p.Suggestions {
		lines = append(lines, "→ "+s.Label())
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func renderBundle(b engine.Bundle) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Study plan for " + b.LearnerID))
	sb.WriteString("\n")
	if b.Degraded {
		sb.WriteString(warnStyle.Render("History unavailable; showing defaults."))
		sb.WriteString("\n")
	}
	if b.Summary != "" {
		sb.WriteString(cardStyle.Render(b.Summary))
		sb.WriteString("\n")
	}

	if len(b.LearningPath) > 0 {
		sb.WriteString(headingStyle.Render("Learning path"))
		sb.WriteString("\n")
		sb.WriteString(strings.Join(b.LearningPath, " → "))
		sb.WriteString("\n")
	}

	sb.WriteString(headingStyle.Render("Difficulty"))
	sb.WriteString("\n")
	subjects := make([]string, 0, len(b.DifficultyAdjustments))
	for s := range b.DifficultyAdjustments {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)
	predicted := make(map[string]predict.Prediction, len(b.Predictions))
	for _, p := range b.Predictions {
		predicted[p.SubjectArea] = p
	}
	for _, s := range subjects {
		line := fmt.Sprintf("  %-5s %.1f", s, b.DifficultyAdjustments[s])
		if p, ok := predicted[s]; ok && !p.Baseline {
			line += "  " + accuracyStyle(p.PredictedAccuracy).Render(fmt.Sprintf("(%.0f%% predicted)", p.PredictedAccuracy))
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if len(b.ContentRecommendations) > 0 {
		sb.WriteString(headingStyle.Render("Suggested materials"))
		sb.WriteString("\n")
		for _, r := range b.ContentRecommendations {
			fmt.Fprintf(&sb, "  %-12s %.2f  %s\n", r.ItemID, r.Score, hintStyle.Render(r.Reason))
		}
	}

	sb.WriteString(headingStyle.Render("Insights"))
	sb.WriteString("\n")
	for _, in := range b.Insights {
		sb.WriteString("  • " + in + "\n")
	}
	return sb.String()
}
