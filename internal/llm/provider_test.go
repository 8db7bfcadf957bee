package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prepcoach/internal/metrics"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5}},
		MockResponse{Content: json.RawMessage(`{"b":2}`)},
	)

	resp1, err := mock.Generate(context.Background(), UserPrompt("", "first", nil, 0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(resp1.Content))
	assert.Equal(t, 10, resp1.Usage.InputTokens)
	assert.Equal(t, "end", resp1.StopReason)

	resp2, err := mock.Generate(context.Background(), UserPrompt("", "second", nil, 0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":2}`, string(resp2.Content))

	_, err = mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail)
}

func TestMockProvider_ValidatesSchema(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"wrong":true}`)})
	_, err := mock.Generate(context.Background(), UserPrompt("", "x", summarySchemaForTest(), 0))
	var invalid *ErrInvalidResponse
	assert.ErrorAs(t, err, &invalid)
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	_, _ = mock.Generate(context.Background(), UserPrompt("sys", "hello", nil, 0))

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "sys", calls[0].System)
	assert.Equal(t, "hello", calls[0].Prompt)
	assert.Equal(t, "mock", mock.ModelID())
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "unknown", PurposeFrom(ctx))
	assert.Equal(t, "bundle-summary", PurposeFrom(WithPurpose(ctx, "bundle-summary")))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled", Config{}, false},
		{"anthropic without key", Config{Provider: ProviderAnthropic}, true},
		{"anthropic with key", Config{Provider: ProviderAnthropic, Anthropic: AnthropicConfig{APIKey: "sk"}}, false},
		{"openai without key", Config{Provider: ProviderOpenAI}, true},
		{"gemini with key", Config{Provider: ProviderGemini, Gemini: GeminiConfig{APIKey: "g"}}, false},
		{"openrouter without key", Config{Provider: ProviderOpenRouter}, true},
		{"mock needs no key", Config{Provider: ProviderMock}, false},
		{"unknown provider", Config{Provider: "unknown"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_WithDiscovered(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENROUTER_API_KEY", "sk-or")

	cfg := DefaultConfig()
	assert.Equal(t, "", cfg.WithDiscovered().Provider, "discovery is opt-in")

	cfg.Discover = true
	got := cfg.WithDiscovered()
	assert.Equal(t, ProviderAnthropic, got.Provider)
	assert.Equal(t, "sk-ant", got.Anthropic.APIKey)

	cfg.Provider = ProviderMock
	assert.Equal(t, ProviderMock, cfg.WithDiscovered().Provider, "explicit provider wins")
}

func TestNewProvider(t *testing.T) {
	_, err := NewProvider(context.Background(), DefaultConfig())
	assert.ErrorIs(t, err, ErrDisabled)

	cfg := DefaultConfig()
	cfg.Provider = ProviderOpenAI
	_, err = NewProvider(context.Background(), cfg)
	assert.Error(t, err, "missing key must fail")

	cfg.Provider = ProviderMock
	p, err := NewProvider(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())
	_, ok := p.(*RetryProvider)
	assert.True(t, ok, "provider should be wrapped with retries")
}

func TestLoggingProvider_RecordsMetricsAndLogs(t *testing.T) {
	// The global level (info by default) gates events before the logger's own level.
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"summary":"ok"}`), Usage: Usage{InputTokens: 7, OutputTokens: 3}},
		MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}},
	)
	p := WithLogging(mock, log)
	ctx := WithPurpose(context.Background(), "logging-test")

	okBefore := testutil.ToFloat64(metrics.LLMRequests.WithLabelValues("logging-test", "success"))
	rlBefore := testutil.ToFloat64(metrics.LLMRequests.WithLabelValues("logging-test", "rate_limited"))
	inBefore := testutil.ToFloat64(metrics.LLMTokens.WithLabelValues("input"))

	_, err := p.Generate(ctx, UserPrompt("", "x", summarySchemaForTest(), 10))
	require.NoError(t, err)
	_, err = p.Generate(ctx, UserPrompt("", "x", nil, 10))
	require.Error(t, err)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(metrics.LLMRequests.WithLabelValues("logging-test", "success")))
	assert.Equal(t, rlBefore+1, testutil.ToFloat64(metrics.LLMRequests.WithLabelValues("logging-test", "rate_limited")))
	assert.Equal(t, inBefore+7, testutil.ToFloat64(metrics.LLMTokens.WithLabelValues("input")))

	out := buf.String()
	assert.Contains(t, out, `"purpose":"logging-test"`)
	assert.Contains(t, out, `"input_tokens":7`)
	assert.Contains(t, out, `"level":"warn"`)
	assert.NotContains(t, out, "llm exchange", "prompts are only logged at trace level")
}

func TestClassifyStatus(t *testing.T) {
	base := errors.New("x")
	var rl *ErrRateLimit
	assert.ErrorAs(t, classifyStatus(http.StatusTooManyRequests, base), &rl)
	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, classifyStatus(http.StatusBadGateway, base), &unavail)
	var rejected *ErrRequestRejected
	assert.ErrorAs(t, classifyStatus(http.StatusForbidden, base), &rejected)
	assert.ErrorIs(t, classifyStatus(http.StatusForbidden, base), base)
}
