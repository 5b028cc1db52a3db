// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package steering lets operators override the response pipeline with small
// YAML rule files: an expr condition over the request context plus an action
// that can force a category, block the generative fallback, or answer with a
// canned response. Rules hot-reload from disk.
package steering

// Rule is one operator-supplied override, loaded from a YAML file.
type Rule struct {
	// Name identifies the rule in logs.
	Name string `yaml:"name"`

	// Description is free text for operators; the engine ignores it.
	Description string `yaml:"description"`

	// Priority orders evaluation; higher runs first. Rules with equal
	// priority run in file-path order.
	Priority int `yaml:"priority"`

	// When is an expr condition over Context. Empty or "true" always
	// matches.
	When string `yaml:"when"`

	// Action is what the rule does when it matches.
	Action Action `yaml:"action"`

	// FilePath records where the rule came from.
	FilePath string `yaml:"-"`
}

// Action describes the override a matched rule applies.
type Action struct {
	// ForceCategory replaces the classifier verdict with this category.
	ForceCategory string `yaml:"force-category"`

	// DenyGenerative blocks the generative backend for this request,
	// forcing the knowledge-base path.
	DenyGenerative bool `yaml:"deny-generative"`

	// Respond short-circuits the pipeline with this canned text.
	Respond string `yaml:"respond"`
}

// Context is the expr evaluation environment. Field names are part of the
// rule-file contract.
type Context struct {
	UserID     string
	Text       string
	Category   string
	Urgency    string
	Confidence float64
	Hour       int
}

// Outcome is the effect of the first matching rule.
type Outcome struct {
	RuleName       string
	ForceCategory  string
	DenyGenerative bool
	Respond        string
}
