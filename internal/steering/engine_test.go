// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package steering

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRule(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestEngineMatchForceCategory(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "grua.yaml", `
name: grua-siempre-transito
when: Text contains "grua"
priority: 10
action:
  force-category: traffic
  deny-generative: true
`)

	engine, err := NewEngine(dir)
	require.NoError(t, err)
	require.Equal(t, 1, engine.RuleCount())

	outcome := engine.Match(&Context{Text: "se llevaron mi auto con grua", Category: "unknown"})
	require.NotNil(t, outcome)
	assert.Equal(t, "grua-siempre-transito", outcome.RuleName)
	assert.Equal(t, "traffic", outcome.ForceCategory)
	assert.True(t, outcome.DenyGenerative)

	assert.Nil(t, engine.Match(&Context{Text: "consulta sin relacion"}))
}

func TestEnginePriorityOrder(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "low.yaml", `
name: low
when: Category == "robbery"
priority: 1
action:
  respond: "respuesta de baja prioridad"
`)
	writeRule(t, dir, "high.yaml", `
name: high
when: Category == "robbery"
priority: 100
action:
  respond: "respuesta de alta prioridad"
`)

	engine, err := NewEngine(dir)
	require.NoError(t, err)

	outcome := engine.Match(&Context{Category: "robbery"})
	require.NotNil(t, outcome)
	assert.Equal(t, "high", outcome.RuleName)
	assert.Equal(t, "respuesta de alta prioridad", outcome.Respond)
}

func TestEngineSkipsBrokenRules(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "broken-yaml.yaml", `name: [`)
	writeRule(t, dir, "broken-expr.yaml", `
name: broken-expr
when: "Text contains"
action:
  deny-generative: true
`)
	writeRule(t, dir, "good.yaml", `
name: good
when: Hour >= 22 || Hour < 6
action:
  deny-generative: true
`)

	engine, err := NewEngine(dir)
	require.NoError(t, err)
	// Only the valid rule survives the load.
	assert.Equal(t, 1, engine.RuleCount())

	outcome := engine.Match(&Context{Hour: 23})
	require.NotNil(t, outcome)
	assert.True(t, outcome.DenyGenerative)
	assert.Nil(t, engine.Match(&Context{Hour: 12}))
}

func TestEngineMissingDirectory(t *testing.T) {
	engine, err := NewEngine(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Equal(t, 0, engine.RuleCount())
	assert.Nil(t, engine.Match(&Context{Text: "cualquier cosa"}))
}

func TestNilEngineMatchesNothing(t *testing.T) {
	var engine *Engine
	assert.Nil(t, engine.Match(&Context{Text: "hola"}))
	assert.Equal(t, 0, engine.RuleCount())
}

func TestEngineReloadPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	engine, err := NewEngine(dir)
	require.NoError(t, err)
	require.Equal(t, 0, engine.RuleCount())

	writeRule(t, dir, "nuevo.yaml", `
name: nuevo
when: UserID == "vip"
action:
  respond: "canal prioritario"
`)
	require.NoError(t, engine.LoadRules())
	require.Equal(t, 1, engine.RuleCount())

	outcome := engine.Match(&Context{UserID: "vip"})
	require.NotNil(t, outcome)
	assert.Equal(t, "canal prioritario", outcome.Respond)
}
