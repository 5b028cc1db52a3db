// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Header and context keys shared by the middleware and handlers.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderManagementKey = "X-Management-Key"

	ctxKeyRequestID = "request_id"
)

// validRequestID bounds what a client-supplied id may look like. The id is
// interpolated into log lines, so anything outside this charset (control
// characters, newlines) gets replaced, not echoed.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestIDMiddleware tags every request with a short id, echoed in the
// response header and attached to all log lines for the request.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if !validRequestID.MatchString(id) {
			id = uuid.NewString()[:8]
		}
		c.Set(ctxKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// requestID returns the id assigned by RequestIDMiddleware.
func requestID(c *gin.Context) string {
	return c.GetString(ctxKeyRequestID)
}

// ManagementKeyMiddleware guards operational endpoints with a bcrypt-hashed
// key. An empty hash disables the check.
func ManagementKeyMiddleware(keyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if keyHash == "" {
			c.Next()
			return
		}
		key := c.GetHeader(HeaderManagementKey)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "management key required"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid management key"})
			return
		}
		c.Next()
	}
}
