// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestOpenAICompatGenerate(t *testing.T) {
	var captured string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		captured = string(body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Puedes reportarlo desde la aplicación."}}]}`))
	}))
	defer server.Close()

	adapter := NewOpenAICompat(server.URL+"/v1", "sk-test", "gpt-4o-mini", 5*time.Second)
	answer, err := adapter.Generate(context.Background(), "¿cómo reporto un robo?", Hints{Category: "robo", Urgency: "high"})

	require.NoError(t, err)
	assert.Equal(t, "Puedes reportarlo desde la aplicación.", answer)

	// Payload sanity: model, system prompt, and hint-enriched user message.
	assert.Equal(t, "gpt-4o-mini", gjson.Get(captured, "model").String())
	assert.Equal(t, "system", gjson.Get(captured, "messages.0.role").String())
	userContent := gjson.Get(captured, "messages.1.content").String()
	assert.Contains(t, userContent, "¿cómo reporto un robo?")
	assert.Contains(t, userContent, "robo")
}

func TestOpenAICompatServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	adapter := NewOpenAICompat(server.URL, "", "m", 5*time.Second)
	_, err := adapter.Generate(context.Background(), "hola", Hints{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAICompatEmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  "}}]}`))
	}))
	defer server.Close()

	adapter := NewOpenAICompat(server.URL, "", "m", 5*time.Second)
	_, err := adapter.Generate(context.Background(), "hola", Hints{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAICompatMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	adapter := NewOpenAICompat(server.URL, "", "m", 5*time.Second)
	_, err := adapter.Generate(context.Background(), "hola", Hints{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAICompatTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"tarde"}}]}`))
	}))
	defer server.Close()

	adapter := NewOpenAICompat(server.URL, "", "m", 50*time.Millisecond)
	_, err := adapter.Generate(context.Background(), "hola", Hints{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAICompatContextCancellation(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the payload first: until the request is fully read the
		// server never observes the client going away, and the handler
		// would block server.Close forever.
		_, _ = io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	adapter := NewOpenAICompat(server.URL, "", "m", 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := adapter.Generate(ctx, "hola", Hints{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDisabledAlwaysUnavailable(t *testing.T) {
	var g Generator = Disabled{}
	_, err := g.Generate(context.Background(), "hola", Hints{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "disabled", g.Name())
}
