package coach

import "github.com/abhisek/prepcoach/internal/llm"

// SummarySchema is the response shape asked of the model.
var SummarySchema = &llm.Schema{
	Name:        "bundle-summary",
	Description: "A short study-plan summary for one learner",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"minLength":   1,
				"maxLength":   600,
				"description": "Two or three plain sentences addressed to the learner",
			},
		},
		"required":             []any{"summary"},
		"additionalProperties": false,
	},
}
