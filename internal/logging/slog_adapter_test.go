// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSlogLoggerWritesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer

	SetLogger(zerolog.New(&buf))
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	slogger := NewSlogLogger()
	slogger.Info("supervisor event", slog.String("service", "trainer"))

	output := buf.String()
	if !strings.Contains(output, "supervisor event") {
		t.Errorf("expected message in output: %s", output)
	}
	if !strings.Contains(output, `"service":"trainer"`) {
		t.Errorf("expected attr in output: %s", output)
	}
	if !strings.Contains(output, `"level":"info"`) {
		t.Errorf("expected info level in output: %s", output)
	}
}

func TestSlogLevelMapping(t *testing.T) {
	tests := []struct {
		name  string
		log   func(l *slog.Logger)
		level string
	}{
		{"Debug", func(l *slog.Logger) { l.Debug("m") }, "debug"},
		{"Info", func(l *slog.Logger) { l.Info("m") }, "info"},
		{"Warn", func(l *slog.Logger) { l.Warn("m") }, "warn"},
		{"Error", func(l *slog.Logger) { l.Error("m") }, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetLogger(zerolog.New(&buf))
			zerolog.SetGlobalLevel(zerolog.TraceLevel)

			tt.log(NewSlogLogger())

			if !strings.Contains(buf.String(), `"level":"`+tt.level+`"`) {
				t.Errorf("expected %s level, got: %s", tt.level, buf.String())
			}
		})
	}
}

func TestSlogWithAttrs(t *testing.T) {
	var buf bytes.Buffer

	SetLogger(zerolog.New(&buf))
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	slogger := NewSlogLogger().With(slog.String("fixed", "yes"))
	slogger.Info("configured")

	if !strings.Contains(buf.String(), `"fixed":"yes"`) {
		t.Errorf("expected pre-configured attr in output: %s", buf.String())
	}
}

func TestSlogWithGroup(t *testing.T) {
	var buf bytes.Buffer

	SetLogger(zerolog.New(&buf))
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	slogger := NewSlogLogger().WithGroup("svc")
	slogger.Info("grouped", slog.Int("restarts", 2))

	if !strings.Contains(buf.String(), `"svc.restarts":2`) {
		t.Errorf("expected group-prefixed attr in output: %s", buf.String())
	}
}
