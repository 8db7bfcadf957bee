package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/prepcoach/internal/logging"
)

// NewProvider builds the configured provider wrapped as
// caller -> retry -> logging -> provider. It returns ErrDisabled when no
// provider is selected.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	cfg = cfg.WithDiscovered()
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini, "")
	case ProviderMock:
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	log := logging.With().Str("component", "llm").Str("provider", cfg.Provider).Logger()
	return WithRetry(WithLogging(base, log), cfg.Retry), nil
}
