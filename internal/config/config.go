// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config provides configuration management for the asistente server.
// It handles loading and parsing the YAML configuration file and provides
// structured access to application settings: network binding, logging,
// knowledge base location, emergency phrases, cache and rate-limit tuning,
// the generative backend, steering rules, and the management key.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alertaciudadana/asistente/internal/classification"
)

// Backend kinds accepted in the configuration file.
const (
	BackendOpenAI   = "openai"
	BackendOllama   = "ollama"
	BackendDisabled = "disabled"
)

// EnvAPIKey is the environment variable that overrides backend.api-key, so
// secrets can stay out of the config file.
const EnvAPIKey = "ASISTENTE_BACKEND_API_KEY"

// Duration wraps time.Duration with YAML support for values like "10m" or
// "60s".
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML renders the duration back to its string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Config is the application's configuration, loaded from a YAML file.
type Config struct {
	// Host is the interface the API server binds. Empty binds all
	// interfaces; use "127.0.0.1" for local-only access.
	Host string `yaml:"host"`

	// Port is the port the API server listens on.
	Port int `yaml:"port"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug"`

	// LoggingToFile switches logs from stdout to rotating files.
	LoggingToFile bool `yaml:"logging-to-file"`

	// LogsDir is where rotating log files are written when LoggingToFile
	// is set. Defaults to "logs".
	LogsDir string `yaml:"logs-dir"`

	// KnowledgeFile is the path of the knowledge base YAML file. Required:
	// the engine refuses to start without a loadable knowledge base.
	KnowledgeFile string `yaml:"knowledge-file"`

	// WatchKnowledge hot-reloads the knowledge file on change, bumping the
	// knowledge version and invalidating cached answers.
	WatchKnowledge bool `yaml:"watch-knowledge"`

	// Emergency configures the escalation phrase list.
	Emergency EmergencyConfig `yaml:"emergency"`

	// Classifier tunes intent classification.
	Classifier ClassifierConfig `yaml:"classifier"`

	// Cache tunes the response cache.
	Cache CacheConfig `yaml:"cache"`

	// RateLimit tunes per-user admission to the generative backend.
	RateLimit RateLimitConfig `yaml:"rate-limit"`

	// Backend selects and configures the generative provider.
	Backend BackendConfig `yaml:"backend"`

	// Steering points at the optional override rules directory.
	Steering SteeringConfig `yaml:"steering"`

	// Management guards the operational endpoints.
	Management ManagementConfig `yaml:"management"`
}

// EmergencyConfig holds the escalation phrase list. When empty, the built-in
// Spanish defaults apply.
type EmergencyConfig struct {
	Phrases []classification.EmergencyPhrase `yaml:"phrases"`
}

// ClassifierConfig tunes intent classification.
type ClassifierConfig struct {
	// MinConfidence is the score floor below which a message is Unknown.
	MinConfidence float64 `yaml:"min-confidence"`
}

// CacheConfig tunes the response cache.
type CacheConfig struct {
	// TTL is how long an answer stays cached. Default 10m.
	TTL Duration `yaml:"ttl"`

	// Capacity bounds live entries before LRU eviction. Default 1024.
	Capacity int `yaml:"capacity"`
}

// RateLimitConfig tunes the sliding-window limiter.
type RateLimitConfig struct {
	// Limit is admissions per user per window. Default 8.
	Limit int `yaml:"limit"`

	// Window is the rolling window. Default 60s.
	Window Duration `yaml:"window"`

	// IdleTTL is how long an inactive user's bucket is kept. Default 15m.
	IdleTTL Duration `yaml:"idle-ttl"`
}

// BackendConfig selects the generative provider.
type BackendConfig struct {
	// Kind is one of "openai", "ollama", or "disabled".
	Kind string `yaml:"kind"`

	// BaseURL is the provider endpoint, e.g. "https://api.openai.com/v1"
	// or "http://localhost:11434".
	BaseURL string `yaml:"base-url"`

	// APIKey authenticates against hosted providers. Overridable via the
	// ASISTENTE_BACKEND_API_KEY environment variable.
	APIKey string `yaml:"api-key"`

	// Model names the model to query.
	Model string `yaml:"model"`

	// Timeout bounds one generation call. Default 20s.
	Timeout Duration `yaml:"timeout"`
}

// SteeringConfig points at the override rules directory. Empty disables
// steering.
type SteeringConfig struct {
	RulesDir string `yaml:"rules-dir"`
}

// ManagementConfig guards the stats and reload endpoints. KeyHash is a
// bcrypt hash of the management key; when empty those endpoints are open,
// which is only sensible for local-only binds.
type ManagementConfig struct {
	KeyHash string `yaml:"key-hash"`
}

// Load reads, parses, validates, and defaults a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8317
	}
	if c.LogsDir == "" {
		c.LogsDir = "logs"
	}
	if c.Cache.TTL.Duration == 0 {
		c.Cache.TTL.Duration = 10 * time.Minute
	}
	if c.Cache.Capacity == 0 {
		c.Cache.Capacity = 1024
	}
	if c.RateLimit.Limit == 0 {
		c.RateLimit.Limit = 8
	}
	if c.RateLimit.Window.Duration == 0 {
		c.RateLimit.Window.Duration = time.Minute
	}
	if c.RateLimit.IdleTTL.Duration == 0 {
		c.RateLimit.IdleTTL.Duration = 15 * time.Minute
	}
	if c.Backend.Kind == "" {
		c.Backend.Kind = BackendDisabled
	}
	if c.Backend.Timeout.Duration == 0 {
		c.Backend.Timeout.Duration = 20 * time.Second
	}
	if key := os.Getenv(EnvAPIKey); key != "" {
		c.Backend.APIKey = key
	}
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if strings.TrimSpace(c.KnowledgeFile) == "" {
		return fmt.Errorf("knowledge-file is required")
	}
	switch c.Backend.Kind {
	case BackendOpenAI:
		if c.Backend.BaseURL == "" {
			return fmt.Errorf("backend.base-url is required for kind %q", BackendOpenAI)
		}
		if c.Backend.Model == "" {
			return fmt.Errorf("backend.model is required for kind %q", BackendOpenAI)
		}
	case BackendOllama:
		if c.Backend.Model == "" {
			return fmt.Errorf("backend.model is required for kind %q", BackendOllama)
		}
	case BackendDisabled:
	default:
		return fmt.Errorf("unknown backend kind %q", c.Backend.Kind)
	}
	if c.Classifier.MinConfidence < 0 || c.Classifier.MinConfidence > 1 {
		return fmt.Errorf("classifier.min-confidence must be within [0, 1]")
	}
	return nil
}
