// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package classification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmergencyDetectorDetect(t *testing.T) {
	detector := NewEmergencyDetector(DefaultEmergencyPhrases())

	tests := []struct {
		name       string
		input      string
		wantMatch  bool
		wantAction SuggestedAction
	}{
		{
			name:       "active robbery",
			input:      "Me están robando en este momento",
			wantMatch:  true,
			wantAction: ActionCallEmergencyServices,
		},
		{
			name:       "accent-insensitive match",
			input:      "me estan robando!!!",
			wantMatch:  true,
			wantAction: ActionCallEmergencyServices,
		},
		{
			name:       "domestic violence routes to authority chat",
			input:      "sufro violencia doméstica en casa",
			wantMatch:  true,
			wantAction: ActionContactAuthorityChat,
		},
		{
			name:       "plain question is not an emergency",
			input:      "¿Cómo reporto un robo?",
			wantMatch:  false,
			wantAction: ActionNone,
		},
		{
			name:       "empty input",
			input:      "",
			wantMatch:  false,
			wantAction: ActionNone,
		},
		{
			name:       "unrelated text",
			input:      "gracias por la ayuda",
			wantMatch:  false,
			wantAction: ActionNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := detector.Detect(Normalize(tt.input))
			assert.Equal(t, tt.wantMatch, decision.IsEmergency)
			assert.Equal(t, tt.wantAction, decision.SuggestedAction)
			if tt.wantMatch {
				assert.NotEmpty(t, decision.MatchedPhrase)
			} else {
				assert.Empty(t, decision.MatchedPhrase)
			}
		})
	}
}

func TestEmergencyDetectorFirstMatchWins(t *testing.T) {
	detector := NewEmergencyDetector([]EmergencyPhrase{
		{Phrase: "auxilio", Action: ActionContactAuthorityChat},
		{Phrase: "auxilio urgente", Action: ActionCallEmergencyServices},
	})

	decision := detector.Detect(Normalize("auxilio urgente por favor"))
	require.True(t, decision.IsEmergency)
	// List order defines priority, even when a later phrase is more specific.
	assert.Equal(t, "auxilio", decision.MatchedPhrase)
	assert.Equal(t, ActionContactAuthorityChat, decision.SuggestedAction)
}

func TestEmergencyDetectorConfigHygiene(t *testing.T) {
	detector := NewEmergencyDetector([]EmergencyPhrase{
		{Phrase: "   ", Action: ActionCallEmergencyServices},
		{Phrase: "Incendio Grave"},
	})

	require.Equal(t, 1, detector.PhraseCount())

	decision := detector.Detect(Normalize("hay un incendio grave"))
	require.True(t, decision.IsEmergency)
	// Missing action defaults to the strongest escalation.
	assert.Equal(t, ActionCallEmergencyServices, decision.SuggestedAction)
}
