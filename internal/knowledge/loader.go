// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package knowledge

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/alertaciudadana/asistente/internal/classification"
)

// maxKnowledgeFileSize bounds how much YAML the loader will read, protecting
// against accidental multi-megabyte files on the hot-reload path.
const maxKnowledgeFileSize = 1 * 1024 * 1024

// entryFile is the on-disk YAML shape of the knowledge base.
type entryFile struct {
	Entries []entryDoc `yaml:"entries"`
}

type entryDoc struct {
	Category string   `yaml:"category"`
	Urgency  string   `yaml:"urgency"`
	Keywords []string `yaml:"keywords"`
	Template string   `yaml:"template"`
}

// Load reads the knowledge base from path and returns a Base at version 1.
// A load failure here is fatal to startup: the engine must never run with an
// empty knowledge base.
func Load(path string) (*Base, error) {
	entries, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	b := &Base{path: path}
	snap := b.swap(entries)
	log.Infof("knowledge base loaded: %d entries, version %d", len(snap.Entries()), snap.Version())
	return b, nil
}

// Reload re-reads the backing file and, on success, swaps in a new snapshot
// with a bumped version tag. On failure the previous snapshot stays live and
// the error is returned for the caller to log.
func (b *Base) Reload() error {
	entries, err := parseFile(b.path)
	if err != nil {
		return fmt.Errorf("knowledge reload rejected, keeping version %d: %w", b.Version(), err)
	}

	snap := b.swap(entries)
	log.Infof("knowledge base reloaded: %d entries, version %d", len(snap.Entries()), snap.Version())
	return nil
}

func parseFile(path string) ([]Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat knowledge file: %w", err)
	}
	if info.Size() > maxKnowledgeFileSize {
		return nil, fmt.Errorf("knowledge file %s too large (%d bytes)", path, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file: %w", err)
	}

	var file entryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge file %s: %w", path, err)
	}

	return buildEntries(file.Entries)
}

// buildEntries validates and normalizes the raw documents. Keywords are
// normalized the same way inbound text is, so matching stays accent- and
// case-insensitive.
func buildEntries(docs []entryDoc) ([]Entry, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("knowledge file contains no entries")
	}

	entries := make([]Entry, 0, len(docs))
	for i, doc := range docs {
		categoryName := strings.TrimSpace(doc.Category)
		if categoryName == "" {
			return nil, fmt.Errorf("entry %d: missing category", i)
		}
		category := classification.Category(categoryName)
		if !category.Valid() {
			return nil, fmt.Errorf("entry %d: unknown category %q", i, categoryName)
		}
		if strings.TrimSpace(doc.Template) == "" {
			return nil, fmt.Errorf("entry %d (%s): missing template", i, categoryName)
		}

		keywords := make([]string, 0, len(doc.Keywords))
		for _, kw := range doc.Keywords {
			normalized := classification.Normalize(kw)
			if normalized != "" {
				keywords = append(keywords, normalized)
			}
		}

		urgency := classification.ParseUrgency(strings.TrimSpace(doc.Urgency))
		if urgency == classification.UrgencyCritical && category != classification.CategoryEmergency {
			// Critical is reserved for emergency escalations.
			log.Warnf("knowledge entry %d (%s): critical urgency clamped to high", i, categoryName)
			urgency = classification.UrgencyHigh
		}

		entries = append(entries, Entry{
			Category: category,
			Keywords: keywords,
			Template: doc.Template,
			Urgency:  urgency,
		})
	}

	return entries, nil
}
