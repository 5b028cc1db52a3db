// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package knowledge

import (
	"strings"

	"github.com/alertaciudadana/asistente/internal/classification"
)

// DefaultMinConfidence is the score floor below which a message is treated
// as CategoryUnknown.
const DefaultMinConfidence = 0.25

// Classifier assigns a category, urgency tier, and confidence to normalized
// text by scoring keyword overlap against knowledge entries. It is fully
// deterministic: the same input and snapshot always produce the same result.
type Classifier struct {
	minConfidence float64
}

// NewClassifier builds a classifier with the given confidence floor.
// Non-positive floors fall back to DefaultMinConfidence.
func NewClassifier(minConfidence float64) *Classifier {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Classifier{minConfidence: minConfidence}
}

// Classify scores the normalized text against every entry in the snapshot.
// Confidence is the fraction of an entry's keywords present in the text.
// The highest-scoring entry wins; a tie keeps the earlier-declared entry,
// which makes results reproducible across runs. Scores below the confidence
// floor yield CategoryUnknown with confidence 0.
func (c *Classifier) Classify(normalized string, snap *Snapshot) classification.Result {
	if normalized == "" || snap == nil {
		return unknownResult()
	}

	tokens := tokenSet(normalized)

	best := unknownResult()
	for _, entry := range snap.Entries() {
		score := scoreEntry(normalized, tokens, entry.Keywords)
		// Strictly-greater keeps the first-declared entry on ties.
		if score > best.Confidence {
			best = classification.Result{
				Category:   entry.Category,
				Urgency:    entry.Urgency,
				Confidence: score,
			}
		}
	}

	if best.Confidence < c.minConfidence {
		return unknownResult()
	}
	return best
}

// MinConfidence returns the configured confidence floor.
func (c *Classifier) MinConfidence() float64 {
	return c.minConfidence
}

func unknownResult() classification.Result {
	return classification.Result{
		Category: classification.CategoryUnknown,
		Urgency:  classification.UrgencyLow,
	}
}

// scoreEntry computes overlap density: matched keywords over total keywords.
// Single-word keywords match whole tokens; multi-word keywords match as a
// substring of the normalized text.
func scoreEntry(normalized string, tokens map[string]struct{}, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}

	matched := 0
	for _, kw := range keywords {
		if strings.ContainsRune(kw, ' ') {
			if strings.Contains(normalized, kw) {
				matched++
			}
			continue
		}
		if _, ok := tokens[kw]; ok {
			matched++
		}
	}

	return float64(matched) / float64(len(keywords))
}

// tokenSet splits normalized text into a word set, stripping surrounding
// punctuation so "robo?" still matches the keyword "robo".
func tokenSet(normalized string) map[string]struct{} {
	fields := strings.Fields(normalized)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		trimmed := strings.TrimFunc(f, isPunct)
		if trimmed != "" {
			set[trimmed] = struct{}{}
		}
	}
	return set
}

func isPunct(r rune) bool {
	switch r {
	case '.', ',', ';', ':', '!', '?', '¿', '¡', '"', '\'', '(', ')', '[', ']':
		return true
	}
	return false
}
