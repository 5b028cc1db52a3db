// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main provides the entry point for the asistente server.
// The server answers citizen questions for the incident-reporting app:
// it classifies each message, escalates emergencies, and serves answers
// from the knowledge base, the response cache, or the generative backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/alertaciudadana/asistente/internal/api"
	"github.com/alertaciudadana/asistente/internal/assistant"
	"github.com/alertaciudadana/asistente/internal/backend"
	"github.com/alertaciudadana/asistente/internal/buildinfo"
	"github.com/alertaciudadana/asistente/internal/cache"
	"github.com/alertaciudadana/asistente/internal/classification"
	"github.com/alertaciudadana/asistente/internal/config"
	"github.com/alertaciudadana/asistente/internal/knowledge"
	"github.com/alertaciudadana/asistente/internal/logging"
	"github.com/alertaciudadana/asistente/internal/ratelimit"
	"github.com/alertaciudadana/asistente/internal/steering"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	configPath := flag.String("config", "config.yaml", "path of the configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(buildinfo.Summary())
		return
	}

	// A .env file is optional; it mainly carries ASISTENTE_BACKEND_API_KEY
	// in development setups.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("failed to load .env file: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if err := logging.ConfigureLogOutput(cfg.LoggingToFile, cfg.LogsDir); err != nil {
		log.Fatalf("failed to configure log output: %v", err)
	}

	log.Info(buildinfo.Summary())

	kb, err := knowledge.Load(cfg.KnowledgeFile)
	if err != nil {
		log.Fatalf("failed to load knowledge base: %v", err)
	}
	log.Infof("knowledge base loaded from %s, %d entries", cfg.KnowledgeFile, len(kb.Snapshot().Entries()))

	if cfg.WatchKnowledge {
		watcher, err := knowledge.StartWatcher(kb)
		if err != nil {
			log.Warnf("knowledge watcher disabled: %v", err)
		} else {
			defer watcher.Stop()
		}
	}

	var rules *steering.Engine
	if cfg.Steering.RulesDir != "" {
		rules, err = steering.NewEngine(cfg.Steering.RulesDir)
		if err != nil {
			log.Fatalf("failed to load steering rules: %v", err)
		}
		if err := rules.StartWatcher(); err != nil {
			log.Warnf("steering watcher disabled: %v", err)
		} else {
			defer rules.StopWatcher()
		}
	}

	generator := buildGenerator(cfg)
	log.Infof("generative backend: %s", generator.Name())

	responseCache := cache.New(cfg.Cache.TTL.Duration, cfg.Cache.Capacity)

	limiter := ratelimit.New(cfg.RateLimit.Limit, cfg.RateLimit.Window.Duration, cfg.RateLimit.IdleTTL.Duration)
	limiter.StartJanitor()
	defer limiter.Stop()

	detector := classification.NewEmergencyDetector(classification.DefaultEmergencyPhrases())
	if len(cfg.Emergency.Phrases) > 0 {
		detector = classification.NewEmergencyDetector(cfg.Emergency.Phrases)
	}

	engine, err := assistant.New(assistant.Options{
		KB:              kb,
		Cache:           responseCache,
		Limiter:         limiter,
		Generator:       generator,
		Detector:        detector,
		Classifier:      knowledge.NewClassifier(cfg.Classifier.MinConfidence),
		Steering:        rules,
		GenerateTimeout: cfg.Backend.Timeout.Duration,
	})
	if err != nil {
		log.Fatalf("failed to build assistant engine: %v", err)
	}

	server, err := api.NewServer(api.Options{
		Engine:            engine,
		KB:                kb,
		Cache:             responseCache,
		Limiter:           limiter,
		ManagementKeyHash: cfg.Management.KeyHash,
		Debug:             cfg.Debug,
	})
	if err != nil {
		log.Fatalf("failed to build API server: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigCh:
		log.Infof("received signal %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Errorf("graceful shutdown failed: %v", err)
		}
	}
}

// buildGenerator constructs the configured generative adapter. The engine
// treats every backend failure as a degraded path, so a misconfigured
// backend never prevents startup.
func buildGenerator(cfg *config.Config) backend.Generator {
	switch cfg.Backend.Kind {
	case config.BackendOpenAI:
		return backend.NewOpenAICompat(cfg.Backend.BaseURL, cfg.Backend.APIKey, cfg.Backend.Model, cfg.Backend.Timeout.Duration)
	case config.BackendOllama:
		return backend.NewOllama(cfg.Backend.BaseURL, cfg.Backend.Model, cfg.Backend.Timeout.Duration)
	default:
		return backend.Disabled{}
	}
}
