package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func summarySchemaForTest() *Schema {
	return &Schema{
		Name:        "test-summary",
		Description: "A bundle summary",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"summary": map[string]any{"type": "string", "minLength": 1},
				"focus":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"tone":    map[string]any{"type": "string", "enum": []any{"encouraging", "neutral"}},
				"weeks":   map[string]any{"type": "integer", "minimum": 0},
			},
			"required":             []any{"summary"},
			"additionalProperties": false,
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"summary":"Work on PU.","focus":["PU"],"tone":"neutral","weeks":3}`, false},
		{"required only", `{"summary":"Work on PU."}`, false},
		{"missing required", `{"focus":["PU"]}`, true},
		{"wrong type", `{"summary":42}`, true},
		{"empty string", `{"summary":""}`, true},
		{"bad enum", `{"summary":"x","tone":"harsh"}`, true},
		{"wrong item type", `{"summary":"x","focus":[1,2]}`, true},
		{"fractional integer", `{"summary":"x","weeks":1.5}`, true},
		{"extra property", `{"summary":"x","score":1}`, true},
		{"malformed", `{not json}`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(summarySchemaForTest(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var invErr *ErrInvalidResponse
				if !errors.As(err, &invErr) {
					t.Fatalf("expected ErrInvalidResponse, got: %T", err)
				}
				if string(invErr.Content) != tt.raw {
					t.Errorf("Content = %s, want the raw response", invErr.Content)
				}
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`not even json`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_CachesCompiledSchema(t *testing.T) {
	s := summarySchemaForTest()
	s.Name = "test-cache"
	if err := validateResponse(s, json.RawMessage(`{"summary":"a"}`)); err != nil {
		t.Fatalf("first validate: %v", err)
	}
	if _, ok := schemaCache.Load("test-cache"); !ok {
		t.Fatal("compiled schema not cached")
	}
	if err := validateResponse(s, json.RawMessage(`{}`)); err == nil {
		t.Fatal("cached schema accepted a missing required field")
	}
}
