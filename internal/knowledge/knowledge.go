// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package knowledge provides the static knowledge base that backs the
// assistant: category-keyed canned answers with match keywords, loaded from
// YAML at startup and hot-reloadable behind a monotonically increasing
// version tag. The keyword classifier lives here too, since it scores
// messages directly against knowledge entries.
package knowledge

import (
	"strings"
	"sync/atomic"

	"github.com/alertaciudadana/asistente/internal/classification"
)

// Entry is one knowledge base record: a category, the keywords that vote for
// it, the canned response template, and the urgency tier its answers carry.
// Entries are immutable once loaded.
type Entry struct {
	Category classification.Category
	Keywords []string
	Template string
	Urgency  classification.UrgencyTier
}

// Snapshot is an immutable view of the knowledge base at one version.
// Request handling always works against a snapshot, so a concurrent reload
// never changes the data mid-pipeline.
type Snapshot struct {
	version    uint64
	entries    []Entry
	byCategory map[classification.Category]int
}

// newSnapshot indexes entries by category. The first entry declared for a
// category wins the index slot; later duplicates still participate in
// classification scoring.
func newSnapshot(version uint64, entries []Entry) *Snapshot {
	byCategory := make(map[classification.Category]int, len(entries))
	for i, e := range entries {
		if _, exists := byCategory[e.Category]; !exists {
			byCategory[e.Category] = i
		}
	}
	return &Snapshot{version: version, entries: entries, byCategory: byCategory}
}

// Version returns the tag attached to every answer this snapshot produces.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Entries returns the entries in declaration order.
func (s *Snapshot) Entries() []Entry {
	return s.entries
}

// Lookup returns the raw response template for a category.
func (s *Snapshot) Lookup(category classification.Category) (string, bool) {
	i, ok := s.byCategory[category]
	if !ok {
		return "", false
	}
	return s.entries[i].Template, true
}

// Render returns the response for a category with template placeholders
// substituted. Templates support plain string placeholders only, no
// conditional logic: {{category}} becomes the category display label.
func (s *Snapshot) Render(category classification.Category) (string, bool) {
	template, ok := s.Lookup(category)
	if !ok {
		return "", false
	}
	return RenderTemplate(template, category), true
}

// RenderTemplate substitutes the supported placeholders into a template.
func RenderTemplate(template string, category classification.Category) string {
	return strings.ReplaceAll(template, "{{category}}", category.Label())
}

// Base owns the current knowledge snapshot and its version counter.
// Reads are lock-free; Reload builds a complete new snapshot and swaps it in
// atomically, bumping the version so cached answers from older snapshots
// turn into cache misses.
type Base struct {
	path    string
	version atomic.Uint64
	current atomic.Pointer[Snapshot]
}

// Snapshot returns the current immutable view.
func (b *Base) Snapshot() *Snapshot {
	return b.current.Load()
}

// Version returns the current version tag.
func (b *Base) Version() uint64 {
	return b.Snapshot().Version()
}

// Path returns the file the base was loaded from.
func (b *Base) Path() string {
	return b.path
}

// swap installs entries as the new current snapshot under the next version.
func (b *Base) swap(entries []Entry) *Snapshot {
	snap := newSnapshot(b.version.Add(1), entries)
	b.current.Store(snap)
	return snap
}
