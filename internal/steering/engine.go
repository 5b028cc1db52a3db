// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package steering

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// maxRuleFileSize bounds a single rule file read.
const maxRuleFileSize = 256 * 1024

// Engine loads steering rules from a directory and matches them against
// request contexts. A nil *Engine is valid and matches nothing, so callers
// can leave steering unconfigured.
type Engine struct {
	rulesDir  string
	evaluator *conditionEvaluator

	mu    sync.RWMutex
	rules []*Rule

	watcher *fsnotify.Watcher
	stop    chan struct{}
}

// NewEngine creates an engine over rulesDir and performs the initial load.
// A missing directory is not an error; it just yields zero rules.
func NewEngine(rulesDir string) (*Engine, error) {
	e := &Engine{
		rulesDir:  rulesDir,
		evaluator: newConditionEvaluator(),
		stop:      make(chan struct{}),
	}
	if err := e.LoadRules(); err != nil {
		return nil, err
	}
	return e, nil
}

// LoadRules re-reads every YAML file under the rules directory. Files that
// fail to parse or compile are logged and skipped; one bad rule must not take
// down the rest.
func (e *Engine) LoadRules() error {
	if _, err := os.Stat(e.rulesDir); os.IsNotExist(err) {
		e.mu.Lock()
		e.rules = nil
		e.mu.Unlock()
		return nil
	}

	var loaded []*Rule
	err := filepath.Walk(e.rulesDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			log.Warnf("steering: skipping symlink %s", path)
			return nil
		}
		if info.IsDir() || (!strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml")) {
			return nil
		}
		if info.Size() > maxRuleFileSize {
			log.Warnf("steering: skipping oversized rule file %s (%d bytes)", path, info.Size())
			return nil
		}

		rule, err := e.loadRuleFile(path)
		if err != nil {
			log.Errorf("steering: %v", err)
			return nil
		}
		loaded = append(loaded, rule)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan steering rules directory: %w", err)
	}

	// Higher priority first; file path as the stable tiebreaker.
	sort.SliceStable(loaded, func(i, j int) bool {
		if loaded[i].Priority != loaded[j].Priority {
			return loaded[i].Priority > loaded[j].Priority
		}
		return loaded[i].FilePath < loaded[j].FilePath
	})

	e.mu.Lock()
	e.rules = loaded
	e.mu.Unlock()

	log.Infof("steering: loaded %d rules from %s", len(loaded), e.rulesDir)
	return nil
}

func (e *Engine) loadRuleFile(path string) (*Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule %s: %w", path, err)
	}

	var rule Rule
	if err := yaml.Unmarshal(data, &rule); err != nil {
		return nil, fmt.Errorf("failed to parse rule %s: %w", path, err)
	}
	rule.FilePath = path
	if rule.Name == "" {
		rule.Name = filepath.Base(path)
	}

	// Compile eagerly so broken conditions surface at load time, not on the
	// request path.
	if _, err := e.evaluator.compile(rule.When); rule.When != "" && rule.When != "true" && err != nil {
		return nil, fmt.Errorf("rule %s rejected: %w", path, err)
	}

	return &rule, nil
}

// Match evaluates rules in priority order and returns the first match, or
// nil when nothing applies. Evaluation errors demote the rule for this
// request only.
func (e *Engine) Match(ctx *Context) *Outcome {
	if e == nil {
		return nil
	}

	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()

	for _, rule := range rules {
		matched, err := e.evaluator.evaluate(rule.When, ctx)
		if err != nil {
			log.Warnf("steering: rule %s evaluation failed: %v", rule.Name, err)
			continue
		}
		if !matched {
			continue
		}
		return &Outcome{
			RuleName:       rule.Name,
			ForceCategory:  rule.Action.ForceCategory,
			DenyGenerative: rule.Action.DenyGenerative,
			Respond:        rule.Action.Respond,
		}
	}
	return nil
}

// RuleCount reports how many rules are currently loaded.
func (e *Engine) RuleCount() int {
	if e == nil {
		return 0
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// StartWatcher hot-reloads rules when the directory changes.
func (e *Engine) StartWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(e.rulesDir); err != nil {
		watcher.Close()
		return err
	}
	e.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				time.Sleep(100 * time.Millisecond)
				if err := e.LoadRules(); err != nil {
					log.Errorf("steering: reload failed: %v", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("steering: watcher error: %v", err)
			case <-e.stop:
				return
			}
		}
	}()

	return nil
}

// StopWatcher stops the file watcher. Safe to call more than once.
func (e *Engine) StopWatcher() {
	if e == nil {
		return
	}
	select {
	case <-e.stop:
	default:
		close(e.stop)
	}
	if e.watcher != nil {
		e.watcher.Close()
		e.watcher = nil
	}
}
