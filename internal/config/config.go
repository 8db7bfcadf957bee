// Package config loads prepcoach settings with koanf.
//
// Layers, lowest priority first:
//  1. Defaults from Default()
//  2. An optional YAML file
//  3. PREPCOACH_* environment variables
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/abhisek/prepcoach/internal/coach"
	"github.com/abhisek/prepcoach/internal/collab"
	"github.com/abhisek/prepcoach/internal/engine"
	"github.com/abhisek/prepcoach/internal/llm"
	"github.com/abhisek/prepcoach/internal/logging"
	"github.com/abhisek/prepcoach/internal/predict"
	"github.com/abhisek/prepcoach/internal/validation"
)

// EnvPrefix marks the environment variables read by Load.
const EnvPrefix = "PREPCOACH_"

// ConfigPathEnvVar names a config file when --config is not given.
const ConfigPathEnvVar = "PREPCOACH_CONFIG"

// DefaultConfigPaths are searched in order when no path is given.
var DefaultConfigPaths = []string{
	"prepcoach.yaml",
	"prepcoach.yml",
}

// Config is the complete application configuration.
type Config struct {
	Store   StoreConfig          `koanf:"store"`
	Logging logging.Config       `koanf:"logging"`
	Engine  engine.Config        `koanf:"engine"`
	Predict predict.Config       `koanf:"predict"`
	Collab  collab.Config        `koanf:"collab"`
	Breaker engine.BreakerConfig `koanf:"breaker"`
	LLM     llm.Config           `koanf:"llm"`
}

// StoreConfig locates the database. An empty Path falls back to
// store.DefaultDBPath.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: logging.DefaultConfig(),
		Engine:  engine.DefaultConfig(),
		Predict: predict.DefaultConfig(),
		Collab:  collab.DefaultConfig(),
		Breaker: engine.DefaultBreakerConfig(),
		LLM:     llm.DefaultConfig(),
	}
}

// Coach derives the narration settings from the llm section.
func (c *Config) Coach() coach.Config {
	cfg := coach.DefaultConfig()
	if c.LLM.MaxTokens > 0 {
		cfg.MaxTokens = c.LLM.MaxTokens
	}
	cfg.Timeout = c.LLM.Timeout
	return cfg
}

// Validate checks every section's tags and the provider credentials.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	return nil
}

// Load builds a Config from defaults, the YAML file at path (or the first
// file found by FindConfigFile when path is empty) and the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = FindConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// FindConfigFile returns the file named by PREPCOACH_CONFIG, or the first
// existing DefaultConfigPaths entry, or "".
func FindConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths arrive from the environment as comma-separated strings.
var sliceConfigPaths = []string{
	"engine.subject_areas",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// sections are the key prefixes that map to nested config paths, longest
// first so llm_retry_ wins over llm_.
var sections = func() []string {
	s := []string{
		"store", "logging", "engine", "predict", "collab", "breaker", "llm",
		"llm_anthropic", "llm_openai", "llm_gemini", "llm_openrouter", "llm_retry",
	}
	sort.Slice(s, func(i, j int) bool { return len(s[i]) > len(s[j]) })
	return s
}()

// envTransformFunc maps an environment variable to a koanf path:
//   - PREPCOACH_ENGINE_DEFAULT_DIFFICULTY -> engine.default_difficulty
//   - PREPCOACH_LLM_RETRY_MAX_ATTEMPTS -> llm.retry.max_attempts
//
// Variables outside a known section (PREPCOACH_DB, PREPCOACH_CONFIG) are
// skipped.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	for _, sec := range sections {
		if rest, ok := strings.CutPrefix(key, sec+"_"); ok && rest != "" {
			return strings.ReplaceAll(sec, "_", ".") + "." + rest
		}
	}
	return ""
}
