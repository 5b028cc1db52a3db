// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logging

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFormatterIncludesRequestID(t *testing.T) {
	formatter := &LogFormatter{}
	entry := &log.Entry{
		Time:    time.Date(2026, 8, 24, 12, 30, 0, 0, time.UTC),
		Level:   log.InfoLevel,
		Message: "cache hit\n",
		Data:    log.Fields{"request_id": "a1b2c3d4", "user_id": "u-77"},
	}

	out, err := formatter.Format(entry)
	require.NoError(t, err)

	line := string(out)
	assert.Contains(t, line, "[2026-08-24 12:30:00]")
	assert.Contains(t, line, "[a1b2c3d4]")
	assert.Contains(t, line, "[info ]")
	assert.Contains(t, line, "cache hit")
	assert.Contains(t, line, "user_id=u-77")
	assert.NotContains(t, line, "request_id=")
}

func TestLogFormatterPlaceholderWithoutRequestID(t *testing.T) {
	formatter := &LogFormatter{}
	entry := &log.Entry{
		Time:    time.Now(),
		Level:   log.WarnLevel,
		Message: "knowledge reload failed",
		Data:    log.Fields{},
	}

	out, err := formatter.Format(entry)
	require.NoError(t, err)

	line := string(out)
	assert.Contains(t, line, "[--------]")
	assert.Contains(t, line, "[warn ]")
}
