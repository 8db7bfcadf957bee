package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/prepcoach/internal/logging"
	"github.com/abhisek/prepcoach/internal/metrics"
)

// LoggingProvider records every request as a structured log event and in
// the llm metrics. Prompts and completions are logged at trace level only.
type LoggingProvider struct {
	inner Provider
	log   zerolog.Logger
}

// WithLogging wraps p with request logging.
func WithLogging(p Provider, log zerolog.Logger) Provider {
	return &LoggingProvider{inner: p, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	metrics.LLMRequests.WithLabelValues(purpose, outcome(err)).Inc()

	ev := l.log.Debug()
	if err != nil {
		ev = l.log.Warn().Err(err)
	}
	ev = ev.Str("purpose", purpose).
		Str("model", l.inner.ModelID()).
		Dur("latency", time.Since(start))
	if id := logging.CorrelationID(ctx); id != "" {
		ev = ev.Str("correlation_id", id)
	}
	if resp != nil {
		metrics.LLMTokens.WithLabelValues("input").Add(float64(resp.Usage.InputTokens))
		metrics.LLMTokens.WithLabelValues("output").Add(float64(resp.Usage.OutputTokens))
		ev = ev.Str("served_by", resp.Model).
			Int("input_tokens", resp.Usage.InputTokens).
			Int("output_tokens", resp.Usage.OutputTokens)
	}
	ev.Msg("llm request")

	if tr := l.log.Trace(); tr.Enabled() {
		tr = tr.Str("purpose", purpose).Str("system", req.System).Str("prompt", req.Prompt)
		if resp != nil {
			tr = tr.Bytes("completion", resp.Content)
		}
		tr.Msg("llm exchange")
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
