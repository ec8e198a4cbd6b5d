package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}

	if cfg.Pretty != false {
		t.Error("Expected default pretty to be false")
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		level    LogLevel
		logFunc  func(logger zerolog.Logger, msg string)
		testMsg  string
		expected bool
	}{
		{
			name:  "info_visible_at_info_level",
			level: LevelInfo,
			logFunc: func(logger zerolog.Logger, msg string) {
				logger.Info().Msg(msg)
			},
			testMsg:  "aggregation complete",
			expected: true,
		},
		{
			name:  "debug_hidden_at_info_level",
			level: LevelInfo,
			logFunc: func(logger zerolog.Logger, msg string) {
				logger.Debug().Msg(msg)
			},
			testMsg:  "cache hit",
			expected: false,
		},
		{
			name:  "debug_visible_at_debug_level",
			level: LevelDebug,
			logFunc: func(logger zerolog.Logger, msg string) {
				logger.Debug().Msg(msg)
			},
			testMsg:  "cache hit",
			expected: true,
		},
		{
			name:  "warn_visible_at_warn_level",
			level: LevelWarn,
			logFunc: func(logger zerolog.Logger, msg string) {
				logger.Warn().Msg(msg)
			},
			testMsg:  "retrying request",
			expected: true,
		},
		{
			name:  "info_hidden_at_error_level",
			level: LevelError,
			logFunc: func(logger zerolog.Logger, msg string) {
				logger.Info().Msg(msg)
			},
			testMsg:  "server started",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := Setup(Config{
				Level:  tt.level,
				Pretty: false,
				Output: buf,
			})

			tt.logFunc(logger, tt.testMsg)

			got := strings.Contains(buf.String(), tt.testMsg)
			if got != tt.expected {
				t.Errorf("message visibility = %v, want %v (output: %q)", got, tt.expected, buf.String())
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Output: buf})

	logger := NewLogger("fetcher")
	logger.Info().Msg("component test")

	out := buf.String()
	if !strings.Contains(out, `"component":"fetcher"`) {
		t.Errorf("Expected component field in output, got %q", out)
	}
}
