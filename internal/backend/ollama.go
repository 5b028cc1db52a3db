// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package backend

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// Ollama generates against a local Ollama server, the fully offline option.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama builds the adapter. An empty baseURL targets the default local
// server address.
func NewOllama(baseURL, model string, timeout time.Duration) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (o *Ollama) Name() string { return "ollama" }

type ollamaRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Generate performs one /api/generate round trip against the local server.
func (o *Ollama) Generate(ctx context.Context, message string, hints Hints) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:  o.model,
		System: systemPrompt,
		Prompt: buildUserPrompt(message, hints),
		Stream: false,
	})
	if err != nil {
		log.Errorf("ollama: failed to encode request: %v", err)
		return "", ErrUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		log.Errorf("ollama: failed to build request: %v", err)
		return "", ErrUnavailable
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		log.Warnf("ollama: request failed: %v", err)
		return "", ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("ollama: unexpected status %d", resp.StatusCode)
		return "", ErrUnavailable
	}

	var parsed ollamaResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&parsed); err != nil {
		log.Warnf("ollama: failed to parse response: %v", err)
		return "", ErrUnavailable
	}

	answer := strings.TrimSpace(parsed.Response)
	if answer == "" {
		log.Warn("ollama: empty response from model")
		return "", ErrUnavailable
	}

	return answer, nil
}
