// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package assistant implements the response orchestrator: the end-to-end
// pipeline that turns a raw user message into exactly one assistant
// response. Stage order is fixed: emergency detection, cache probe, rate
// admission, classification with steering overrides, knowledge base, and
// only then the generative backend, with a knowledge fallback that is never
// empty.
package assistant

import (
	"github.com/alertaciudadana/asistente/internal/classification"
)

// Source records which pipeline stage produced a response. It is exposed to
// clients for debugging and exercised heavily by tests.
type Source string

const (
	SourceEmergency    Source = "emergency"
	SourceCache        Source = "cache"
	SourceKnowledge    Source = "knowledge_base"
	SourceGenerative   Source = "generative"
	SourceSteering     Source = "steering"
	SourceFallback     Source = "fallback"
	SourceInvalidInput Source = "invalid_input"
)

// Response is the single terminal product of every pipeline run. The UI
// renders the urgent call-to-911 affordance off IsEmergency; the engine
// never places calls itself.
type Response struct {
	Text            string                         `json:"text"`
	Category        classification.Category        `json:"category"`
	Urgency         classification.UrgencyTier     `json:"urgency"`
	IsEmergency     bool                           `json:"is_emergency"`
	SuggestedAction classification.SuggestedAction `json:"suggested_action"`
	Source          Source                         `json:"source"`
}

// Built-in terminal texts. The knowledge base can override the emergency and
// fallback wording with entries for the emergency/unknown categories; these
// constants guarantee the engine always has something to say.
const (
	invalidInputText = "Parece que tu mensaje está vacío. Cuéntame qué ocurrió o qué necesitas y con gusto te ayudo."

	genericFallbackText = "No tengo información específica sobre tu consulta. " +
		"Te sugiero contactar directamente a la autoridad correspondiente, o escribir al chat de atención ciudadana desde la sección Contacto de la aplicación."

	emergencyFallbackText = "Si estás en peligro o presencias una emergencia, llama al 911 de inmediato. " +
		"No esperes una respuesta del asistente."
)
