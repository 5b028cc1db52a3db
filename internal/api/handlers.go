// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/alertaciudadana/asistente/internal/buildinfo"
)

// maxMessageBytes bounds the message body. Citizen questions are short; a
// larger payload is either a client bug or abuse.
const maxMessageBytes = 64 << 10

// messageRequest is the public message endpoint's body.
type messageRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Text   string `json:"text"`
}

func (s *Server) handleMessage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxMessageBytes)

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required and the body must be valid JSON"})
		return
	}

	resp := s.engine.HandleUserMessage(c.Request.Context(), req.UserID, req.Text)

	log.WithFields(log.Fields{
		"request_id": requestID(c),
		"user_id":    req.UserID,
		"source":     resp.Source,
		"category":   resp.Category,
	}).Info("assistant response served")

	c.JSON(http.StatusOK, gin.H{
		"request_id": requestID(c),
		"response":   resp,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"version":           buildinfo.Version,
		"knowledge_version": s.kb.Version(),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	stats := gin.H{
		"knowledge_version": s.kb.Version(),
	}
	if s.cache != nil {
		stats["cache"] = s.cache.Snapshot()
	}
	if s.limiter != nil {
		stats["rate_limit"] = s.limiter.Snapshot()
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleKnowledgeReload(c *gin.Context) {
	if err := s.kb.Reload(); err != nil {
		log.WithField("request_id", requestID(c)).Errorf("manual knowledge reload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	log.WithField("request_id", requestID(c)).Infof("knowledge reloaded, version %d", s.kb.Version())
	c.JSON(http.StatusOK, gin.H{
		"status":            "reloaded",
		"knowledge_version": s.kb.Version(),
	})
}
