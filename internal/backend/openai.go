// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package backend

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// maxResponseBody caps how much of a provider response is read.
const maxResponseBody = 1 * 1024 * 1024

// OpenAICompat talks to any OpenAI-compatible chat-completions endpoint
// (hosted APIs, LM Studio, vLLM, and similar local servers).
type OpenAICompat struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewOpenAICompat builds the adapter. timeout bounds the whole call
// including connection setup and body read; non-positive values fall back to
// DefaultTimeout.
func NewOpenAICompat(baseURL, apiKey, model string, timeout time.Duration) *OpenAICompat {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OpenAICompat{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (o *OpenAICompat) Name() string { return "openai-compat" }

// Generate performs one chat-completions round trip. Any transport, status,
// or payload problem is logged and reported as ErrUnavailable; the error is
// never propagated raw to the caller.
func (o *OpenAICompat) Generate(ctx context.Context, message string, hints Hints) (string, error) {
	payload, err := o.buildPayload(message, hints)
	if err != nil {
		log.Errorf("openai-compat: failed to build payload: %v", err)
		return "", ErrUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", strings.NewReader(payload))
	if err != nil {
		log.Errorf("openai-compat: failed to build request: %v", err)
		return "", ErrUnavailable
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		log.Warnf("openai-compat: request failed: %v", err)
		return "", ErrUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		log.Warnf("openai-compat: failed to read response: %v", err)
		return "", ErrUnavailable
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warnf("openai-compat: unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
		return "", ErrUnavailable
	}

	content := gjson.GetBytes(body, "choices.0.message.content").String()
	content = strings.TrimSpace(content)
	if content == "" {
		log.Warnf("openai-compat: empty completion in response: %s", truncate(string(body), 200))
		return "", ErrUnavailable
	}

	return content, nil
}

// buildPayload assembles the chat-completions body without intermediate
// structs.
func (o *OpenAICompat) buildPayload(message string, hints Hints) (string, error) {
	payload := "{}"
	var err error
	if payload, err = sjson.Set(payload, "model", o.model); err != nil {
		return "", err
	}
	if payload, err = sjson.Set(payload, "messages.0.role", "system"); err != nil {
		return "", err
	}
	if payload, err = sjson.Set(payload, "messages.0.content", systemPrompt); err != nil {
		return "", err
	}
	if payload, err = sjson.Set(payload, "messages.1.role", "user"); err != nil {
		return "", err
	}
	if payload, err = sjson.Set(payload, "messages.1.content", buildUserPrompt(message, hints)); err != nil {
		return "", err
	}
	if payload, err = sjson.Set(payload, "temperature", 0.3); err != nil {
		return "", err
	}
	return payload, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
