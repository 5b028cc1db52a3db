// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package classification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lowercases",
			in:   "ME ROBARON",
			want: "me robaron",
		},
		{
			name: "trims and collapses whitespace",
			in:   "  cómo   reporto\tun robo \n",
			want: "como reporto un robo",
		},
		{
			name: "folds diacritics",
			in:   "¿Qué pasó en la estación?",
			want: "¿que paso en la estacion?",
		},
		{
			name: "enye folds like any combining mark",
			in:   "daño en la cañería",
			want: "dano en la caneria",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
		{
			name: "whitespace only",
			in:   " \t\n ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Me Están Robando",
		"  VIOLENCIA   doméstica ",
		"¿Cómo reporto un robo?",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}
