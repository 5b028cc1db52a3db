// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
knowledge-file: config/knowledge.yaml
`))
	require.NoError(t, err)

	assert.Equal(t, 8317, cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL.Duration)
	assert.Equal(t, 1024, cfg.Cache.Capacity)
	assert.Equal(t, 8, cfg.RateLimit.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window.Duration)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.IdleTTL.Duration)
	assert.Equal(t, BackendDisabled, cfg.Backend.Kind)
	assert.Equal(t, 20*time.Second, cfg.Backend.Timeout.Duration)
	assert.Equal(t, "logs", cfg.LogsDir)
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
host: 127.0.0.1
port: 9000
debug: true
knowledge-file: /etc/asistente/knowledge.yaml
watch-knowledge: true
emergency:
  phrases:
    - phrase: "me están robando"
      action: call_emergency_services
classifier:
  min-confidence: 0.3
cache:
  ttl: 5m
  capacity: 256
rate-limit:
  limit: 4
  window: 30s
  idle-ttl: 5m
backend:
  kind: openai
  base-url: https://api.openai.com/v1
  api-key: sk-from-file
  model: gpt-4o-mini
  timeout: 10s
steering:
  rules-dir: /etc/asistente/steering
management:
  key-hash: "$2a$10$abcdefghijklmnopqrstuv"
`))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.WatchKnowledge)
	require.Len(t, cfg.Emergency.Phrases, 1)
	assert.Equal(t, "me están robando", cfg.Emergency.Phrases[0].Phrase)
	assert.Equal(t, 0.3, cfg.Classifier.MinConfidence)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL.Duration)
	assert.Equal(t, 256, cfg.Cache.Capacity)
	assert.Equal(t, 4, cfg.RateLimit.Limit)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window.Duration)
	assert.Equal(t, BackendOpenAI, cfg.Backend.Kind)
	assert.Equal(t, "sk-from-file", cfg.Backend.APIKey)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout.Duration)
	assert.Equal(t, "/etc/asistente/steering", cfg.Steering.RulesDir)
	assert.NotEmpty(t, cfg.Management.KeyHash)
}

func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "missing knowledge file", content: "port: 8000"},
		{name: "bad port", content: "knowledge-file: kb.yaml\nport: 70000"},
		{name: "unknown backend kind", content: "knowledge-file: kb.yaml\nbackend:\n  kind: carrier-pigeon"},
		{name: "openai without base url", content: "knowledge-file: kb.yaml\nbackend:\n  kind: openai\n  model: m"},
		{name: "openai without model", content: "knowledge-file: kb.yaml\nbackend:\n  kind: openai\n  base-url: https://x"},
		{name: "ollama without model", content: "knowledge-file: kb.yaml\nbackend:\n  kind: ollama"},
		{name: "bad duration", content: "knowledge-file: kb.yaml\ncache:\n  ttl: pronto"},
		{name: "bad confidence", content: "knowledge-file: kb.yaml\nclassifier:\n  min-confidence: 1.5"},
		{name: "invalid yaml", content: "knowledge-file: ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestAPIKeyEnvOverride(t *testing.T) {
	t.Setenv(EnvAPIKey, "sk-from-env")

	cfg, err := Load(writeConfig(t, `
knowledge-file: kb.yaml
backend:
  kind: openai
  base-url: https://api.openai.com/v1
  api-key: sk-from-file
  model: gpt-4o-mini
`))
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.Backend.APIKey)
}
