// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/alertaciudadana/asistente/internal/backend"
	"github.com/alertaciudadana/asistente/internal/cache"
	"github.com/alertaciudadana/asistente/internal/classification"
	"github.com/alertaciudadana/asistente/internal/knowledge"
	"github.com/alertaciudadana/asistente/internal/ratelimit"
	"github.com/alertaciudadana/asistente/internal/steering"
)

// Options wires the engine's collaborators. KB, Cache, and Limiter are
// required; the rest have working defaults so tests and offline deployments
// can leave them unset.
type Options struct {
	KB        *knowledge.Base
	Cache     *cache.ResponseCache
	Limiter   *ratelimit.Limiter
	Generator backend.Generator

	// Detector defaults to the built-in Spanish emergency phrase list.
	Detector *classification.EmergencyDetector

	// Classifier defaults to NewClassifier with the package default floor.
	Classifier *knowledge.Classifier

	// Steering is optional; nil disables overrides.
	Steering *steering.Engine

	// GenerateTimeout bounds a single generative call. Defaults to
	// backend.DefaultTimeout.
	GenerateTimeout time.Duration
}

// Engine is the response orchestrator. It is safe for concurrent use: every
// request works against an immutable knowledge snapshot, and the cache and
// limiter are internally synchronized.
type Engine struct {
	kb         *knowledge.Base
	cache      *cache.ResponseCache
	limiter    *ratelimit.Limiter
	generator  backend.Generator
	detector   *classification.EmergencyDetector
	classifier *knowledge.Classifier
	steering   *steering.Engine
	genTimeout time.Duration

	// now is swappable in tests.
	now func() time.Time
}

// New builds the engine.
func New(opts Options) (*Engine, error) {
	if opts.KB == nil {
		return nil, errors.New("assistant: knowledge base is required")
	}
	if opts.Cache == nil {
		return nil, errors.New("assistant: response cache is required")
	}
	if opts.Limiter == nil {
		return nil, errors.New("assistant: rate limiter is required")
	}

	generator := opts.Generator
	if generator == nil {
		generator = backend.Disabled{}
	}
	detector := opts.Detector
	if detector == nil {
		detector = classification.NewEmergencyDetector(classification.DefaultEmergencyPhrases())
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = knowledge.NewClassifier(0)
	}
	genTimeout := opts.GenerateTimeout
	if genTimeout <= 0 {
		genTimeout = backend.DefaultTimeout
	}

	return &Engine{
		kb:         opts.KB,
		cache:      opts.Cache,
		limiter:    opts.Limiter,
		generator:  generator,
		detector:   detector,
		classifier: classifier,
		steering:   opts.Steering,
		genTimeout: genTimeout,
		now:        time.Now,
	}, nil
}

// HandleUserMessage runs the full pipeline for one message. It always
// returns a valid response; no failure below this line reaches the caller
// as an error.
func (e *Engine) HandleUserMessage(ctx context.Context, userID, text string) Response {
	if strings.TrimSpace(text) == "" {
		return Response{
			Text:            invalidInputText,
			Category:        classification.CategoryUnknown,
			Urgency:         classification.UrgencyLow,
			SuggestedAction: classification.ActionNone,
			Source:          SourceInvalidInput,
		}
	}

	normalized := classification.Normalize(text)
	snap := e.kb.Snapshot()

	// Emergencies preempt everything: no cache, no rate limiting, and the
	// decision itself is computed fresh on every request.
	if decision := e.detector.Detect(normalized); decision.IsEmergency {
		log.WithFields(log.Fields{"user_id": userID, "phrase": decision.MatchedPhrase}).
			Warn("emergency escalation triggered")
		return e.escalate(snap, decision)
	}

	if entry, ok := e.cache.Get(normalized, snap.Version()); ok {
		log.WithFields(log.Fields{"user_id": userID, "hits": entry.HitCount}).
			Debug("cache hit")
		return Response{
			Text:            entry.Response,
			Category:        entry.Category,
			Urgency:         entry.Urgency,
			SuggestedAction: classification.ActionNone,
			Source:          SourceCache,
		}
	}

	admitted := e.limiter.Admit(userID, e.now())
	result := e.classifier.Classify(normalized, snap)

	// A classifier verdict of emergency escalates exactly like a detector
	// match: critical urgency exists only on the escalation path, and an
	// escalation is never cached and never subject to steering.
	if result.Category == classification.CategoryEmergency {
		log.WithFields(log.Fields{"user_id": userID, "confidence": result.Confidence}).
			Warn("emergency escalation via classifier")
		return e.escalate(snap, classification.EscalationDecision{
			IsEmergency:     true,
			SuggestedAction: classification.ActionCallEmergencyServices,
		})
	}

	denyGenerative := false
	if outcome := e.matchSteering(userID, normalized, result); outcome != nil {
		log.WithFields(log.Fields{"user_id": userID, "rule": outcome.RuleName}).
			Debug("steering rule matched")
		if outcome.Respond != "" {
			// Canned responses bypass the cache so a rule edit takes effect
			// immediately.
			return Response{
				Text:            outcome.Respond,
				Category:        result.Category,
				Urgency:         result.Urgency,
				SuggestedAction: classification.ActionNone,
				Source:          SourceSteering,
			}
		}
		if outcome.ForceCategory != "" {
			result = e.forceCategory(snap, outcome.ForceCategory, result)
			if result.Category == classification.CategoryEmergency {
				return e.escalate(snap, classification.EscalationDecision{
					IsEmergency:     true,
					SuggestedAction: classification.ActionCallEmergencyServices,
				})
			}
		}
		denyGenerative = outcome.DenyGenerative
	}

	if result.Category != classification.CategoryUnknown {
		if rendered, ok := snap.Render(result.Category); ok {
			response := Response{
				Text:            rendered,
				Category:        result.Category,
				Urgency:         result.Urgency,
				SuggestedAction: classification.ActionNone,
				Source:          SourceKnowledge,
			}
			e.writeCache(normalized, snap.Version(), response)
			return response
		}
	}

	if admitted && !denyGenerative {
		if answer, err := e.generate(ctx, text, result); err == nil {
			response := Response{
				Text:            answer,
				Category:        result.Category,
				Urgency:         result.Urgency,
				SuggestedAction: classification.ActionNone,
				Source:          SourceGenerative,
			}
			e.writeCache(normalized, snap.Version(), response)
			return response
		}
	} else {
		log.WithField("user_id", userID).Debug("generative backend skipped, serving degraded response")
	}

	return e.fallback(snap, result)
}

// escalate builds the terminal emergency response. It prefers the knowledge
// base's emergency template and falls back to the built-in guidance, so the
// escalation path works even against a minimal knowledge file.
func (e *Engine) escalate(snap *knowledge.Snapshot, decision classification.EscalationDecision) Response {
	text, ok := snap.Render(classification.CategoryEmergency)
	if !ok {
		text = emergencyFallbackText
	}
	return Response{
		Text:            text,
		Category:        classification.CategoryEmergency,
		Urgency:         classification.UrgencyCritical,
		IsEmergency:     true,
		SuggestedAction: decision.SuggestedAction,
		Source:          SourceEmergency,
	}
}

// fallback is the terminal degraded path: the unknown-category template when
// the knowledge base has one, the built-in generic guidance otherwise.
// It never returns empty text.
func (e *Engine) fallback(snap *knowledge.Snapshot, result classification.Result) Response {
	text, ok := snap.Render(classification.CategoryUnknown)
	if !ok {
		text = genericFallbackText
	}
	return Response{
		Text:            text,
		Category:        result.Category,
		Urgency:         result.Urgency,
		SuggestedAction: classification.ActionContactAuthorityChat,
		Source:          SourceFallback,
	}
}

// generate invokes the backend under its own timeout so a slow provider
// cannot hold the request longer than configured, while still honoring the
// caller's cancellation.
func (e *Engine) generate(ctx context.Context, text string, result classification.Result) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, e.genTimeout)
	defer cancel()

	return e.generator.Generate(genCtx, text, backend.Hints{
		Category: string(result.Category),
		Urgency:  result.Urgency.String(),
	})
}

func (e *Engine) matchSteering(userID, normalized string, result classification.Result) *steering.Outcome {
	if e.steering == nil {
		return nil
	}
	return e.steering.Match(&steering.Context{
		UserID:     userID,
		Text:       normalized,
		Category:   string(result.Category),
		Urgency:    result.Urgency.String(),
		Confidence: result.Confidence,
		Hour:       e.now().Hour(),
	})
}

// forceCategory applies a steering category override, picking up the target
// entry's urgency when the knowledge base has one.
func (e *Engine) forceCategory(snap *knowledge.Snapshot, name string, result classification.Result) classification.Result {
	forced := classification.ParseCategory(name)
	result.Category = forced
	result.Confidence = 1
	for _, entry := range snap.Entries() {
		if entry.Category == forced {
			result.Urgency = entry.Urgency
			break
		}
	}
	return result
}

// writeCache stores a successful answer. Only knowledge and generative
// responses land here; emergencies, steering responses, and fallbacks are
// deliberately never cached.
func (e *Engine) writeCache(key string, kbVersion uint64, response Response) {
	e.cache.Put(&cache.Entry{
		Key:       key,
		Response:  response.Text,
		Category:  response.Category,
		Urgency:   response.Urgency,
		KBVersion: kbVersion,
	})
}
