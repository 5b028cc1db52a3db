// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package classification

import "strings"

// EmergencyPhrase pairs a trigger phrase with the action the UI should offer
// when it matches. Phrases are matched as substrings of the normalized text.
type EmergencyPhrase struct {
	Phrase string          `yaml:"phrase"`
	Action SuggestedAction `yaml:"action"`
}

// EmergencyDetector scans normalized text for life-threatening situations.
// It runs before every other pipeline stage and cannot be rate-limited or
// served from cache. The phrase list order defines priority: the first
// matching phrase wins.
type EmergencyDetector struct {
	phrases []EmergencyPhrase
}

// NewEmergencyDetector builds a detector from the configured phrase list.
// Phrases are normalized at construction so matching is accent- and
// case-insensitive. Entries with an empty phrase are dropped; an entry
// without an action defaults to CallEmergencyServices.
func NewEmergencyDetector(phrases []EmergencyPhrase) *EmergencyDetector {
	prepared := make([]EmergencyPhrase, 0, len(phrases))
	for _, p := range phrases {
		normalized := Normalize(p.Phrase)
		if normalized == "" {
			continue
		}
		action := p.Action
		if action == "" || action == ActionNone {
			action = ActionCallEmergencyServices
		}
		prepared = append(prepared, EmergencyPhrase{Phrase: normalized, Action: action})
	}
	return &EmergencyDetector{phrases: prepared}
}

// Detect evaluates the normalized text against the phrase list.
// It is a pure function: no I/O, bounded by len(text) x len(phrases), and it
// never fails — unmatched or empty input yields the safe default
// (IsEmergency=false, ActionNone).
func (d *EmergencyDetector) Detect(normalized string) EscalationDecision {
	if normalized == "" {
		return EscalationDecision{SuggestedAction: ActionNone}
	}
	for _, p := range d.phrases {
		if strings.Contains(normalized, p.Phrase) {
			return EscalationDecision{
				IsEmergency:     true,
				MatchedPhrase:   p.Phrase,
				SuggestedAction: p.Action,
			}
		}
	}
	return EscalationDecision{SuggestedAction: ActionNone}
}

// PhraseCount reports how many phrases the detector is armed with.
func (d *EmergencyDetector) PhraseCount() int {
	return len(d.phrases)
}

// DefaultEmergencyPhrases is the built-in Spanish phrase list used when the
// configuration does not supply one. Order encodes priority.
func DefaultEmergencyPhrases() []EmergencyPhrase {
	return []EmergencyPhrase{
		{Phrase: "me están robando", Action: ActionCallEmergencyServices},
		{Phrase: "me estan atacando", Action: ActionCallEmergencyServices},
		{Phrase: "me quiere matar", Action: ActionCallEmergencyServices},
		{Phrase: "está armado", Action: ActionCallEmergencyServices},
		{Phrase: "tiene un arma", Action: ActionCallEmergencyServices},
		{Phrase: "accidente grave", Action: ActionCallEmergencyServices},
		{Phrase: "hay heridos", Action: ActionCallEmergencyServices},
		{Phrase: "se está incendiando", Action: ActionCallEmergencyServices},
		{Phrase: "auxilio", Action: ActionCallEmergencyServices},
		{Phrase: "socorro", Action: ActionCallEmergencyServices},
		{Phrase: "emergencia", Action: ActionCallEmergencyServices},
		{Phrase: "violencia doméstica", Action: ActionContactAuthorityChat},
		{Phrase: "me está golpeando", Action: ActionCallEmergencyServices},
		{Phrase: "amenaza de muerte", Action: ActionContactAuthorityChat},
	}
}
