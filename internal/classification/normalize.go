// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package classification

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes free text so semantically identical messages map
// to the same cache and matcher key: lower-cased, trimmed, diacritics folded
// ("qué" and "que" are the same word to the matchers), and inner whitespace
// collapsed to single spaces.
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	folded := foldDiacritics(raw)
	lower := strings.ToLower(folded)
	return strings.Join(strings.Fields(lower), " ")
}

// foldDiacritics strips combining marks after NFD decomposition.
// Transformer chains carry state, so a fresh chain is built per call to stay
// safe under concurrent requests.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		// Malformed input passes through unfolded rather than failing the request.
		return s
	}
	return folded
}
