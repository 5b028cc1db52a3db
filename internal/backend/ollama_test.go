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

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req ollamaRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "llama3", req.Model)
		assert.False(t, req.Stream)
		assert.Contains(t, req.Prompt, "robo")

		_, _ = w.Write([]byte(`{"response":"Desde la pantalla principal toca Reportar."}`))
	}))
	defer server.Close()

	adapter := NewOllama(server.URL, "llama3", 5*time.Second)
	answer, err := adapter.Generate(context.Background(), "me robaron ayer", Hints{Category: "robo"})

	require.NoError(t, err)
	assert.Equal(t, "Desde la pantalla principal toca Reportar.", answer)
}

func TestOllamaFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{{{`))
			},
		},
		{
			name: "empty response field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"response":"   "}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			adapter := NewOllama(server.URL, "llama3", 5*time.Second)
			_, err := adapter.Generate(context.Background(), "hola", Hints{})
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestOllamaConnectionRefused(t *testing.T) {
	// Port 1 is essentially never listening.
	adapter := NewOllama("http://127.0.0.1:1", "llama3", time.Second)
	_, err := adapter.Generate(context.Background(), "hola", Hints{})
	assert.ErrorIs(t, err, ErrUnavailable)
}
