// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package backend wraps the generative language-model providers the engine
// can fall back to when the knowledge base has no confident answer. It is
// the only component in the engine allowed to perform network I/O, and every
// failure mode collapses into ErrUnavailable so the orchestrator can degrade
// instead of surfacing an error to the user.
package backend

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned for any generation failure: timeout, connection
// refused, non-2xx status, or malformed output. Callers fall back to the
// knowledge base when they see it.
var ErrUnavailable = errors.New("generative backend unavailable")

// DefaultTimeout bounds a single generation call when the configuration does
// not set one.
const DefaultTimeout = 20 * time.Second

// Hints carries classification context into the prompt so the model answers
// in the right register without the engine depending on any provider shape.
type Hints struct {
	Category string
	Urgency  string
}

// Generator is the pluggable capability contract. Implementations must honor
// ctx cancellation and must never return an empty response with a nil error.
type Generator interface {
	// Generate produces a reply for the user's message, or ErrUnavailable.
	Generate(ctx context.Context, message string, hints Hints) (string, error)

	// Name identifies the adapter in logs and the stats endpoint.
	Name() string
}

// Disabled is the no-op adapter for offline deployments and tests. Every
// call reports ErrUnavailable, which exercises the engine's fallback path.
type Disabled struct{}

func (Disabled) Generate(context.Context, string, Hints) (string, error) {
	return "", ErrUnavailable
}

func (Disabled) Name() string { return "disabled" }

// systemPrompt frames every generative call. The model is a civic-safety
// assistant, not a general chatbot, and must defer emergencies to 911.
const systemPrompt = "Eres el asistente de una aplicación ciudadana de reportes de incidentes de seguridad. " +
	"Responde en español, breve y concreto, orientando al usuario sobre cómo reportar incidentes o mantenerse seguro. " +
	"Nunca des consejos médicos ni legales detallados. Si el mensaje sugiere una emergencia, indica llamar al 911."

// buildUserPrompt folds the hints into the outgoing message.
func buildUserPrompt(message string, hints Hints) string {
	prompt := message
	if hints.Category != "" && hints.Category != "unknown" {
		prompt += "\n\n(Contexto del sistema: la consulta parece tratarse de " + hints.Category
		if hints.Urgency != "" {
			prompt += ", urgencia " + hints.Urgency
		}
		prompt += ".)"
	}
	return prompt
}
