// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package api exposes the assistant engine over HTTP. It mounts the public
// message endpoint, the health probe, and the management surface (stats and
// knowledge reload) behind an optional bcrypt-hashed key.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/alertaciudadana/asistente/internal/assistant"
	"github.com/alertaciudadana/asistente/internal/cache"
	"github.com/alertaciudadana/asistente/internal/knowledge"
	"github.com/alertaciudadana/asistente/internal/ratelimit"
)

// Options carries the server's collaborators and tuning.
type Options struct {
	Engine  *assistant.Engine
	KB      *knowledge.Base
	Cache   *cache.ResponseCache
	Limiter *ratelimit.Limiter

	// ManagementKeyHash is the bcrypt hash guarding /v1/management and the
	// stats endpoint. Empty leaves them open, which is only sensible for
	// local-only binds.
	ManagementKeyHash string

	// Debug switches gin out of release mode.
	Debug bool
}

// Server wires the HTTP routes over the assistant engine.
type Server struct {
	engine  *assistant.Engine
	kb      *knowledge.Base
	cache   *cache.ResponseCache
	limiter *ratelimit.Limiter
	router  *gin.Engine
	httpSrv *http.Server
}

// NewServer builds the router and handlers. It does not start listening.
func NewServer(opts Options) (*Server, error) {
	if opts.Engine == nil {
		return nil, errors.New("api: assistant engine is required")
	}
	if opts.KB == nil {
		return nil, errors.New("api: knowledge base is required")
	}

	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine:  opts.Engine,
		kb:      opts.KB,
		cache:   opts.Cache,
		limiter: opts.Limiter,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())

	router.GET("/healthz", s.handleHealth)

	v1 := router.Group("/v1")
	v1.POST("/assistant/message", s.handleMessage)

	guarded := v1.Group("/")
	guarded.Use(ManagementKeyMiddleware(opts.ManagementKeyHash))
	guarded.GET("/assistant/stats", s.handleStats)
	guarded.POST("/management/knowledge/reload", s.handleKnowledgeReload)

	s.router = router
	return s, nil
}

// Handler exposes the router, mainly for httptest in unit tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving on addr and blocks until the listener fails or
// Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Infof("API server listening on %s", addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api: server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
