// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package steering

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// conditionEvaluator compiles and caches expr conditions. Compilation is
// expensive relative to evaluation, and the same condition runs on every
// request, so programs are cached by source text.
type conditionEvaluator struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
}

func newConditionEvaluator() *conditionEvaluator {
	return &conditionEvaluator{programs: make(map[string]*vm.Program)}
}

// evaluate runs a condition against the request context. Empty and "true"
// conditions always match.
func (e *conditionEvaluator) evaluate(condition string, ctx *Context) (bool, error) {
	if condition == "" || condition == "true" {
		return true, nil
	}

	program, err := e.compile(condition)
	if err != nil {
		return false, err
	}

	output, err := expr.Run(program, ctx)
	if err != nil {
		return false, fmt.Errorf("failed to run condition %q: %w", condition, err)
	}

	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not return a boolean", condition)
	}
	return result, nil
}

func (e *conditionEvaluator) compile(condition string) (*vm.Program, error) {
	e.mu.RLock()
	program, ok := e.programs[condition]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(condition, expr.Env(&Context{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile condition %q: %w", condition, err)
	}

	e.mu.Lock()
	e.programs[condition] = program
	e.mu.Unlock()
	return program, nil
}
