package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    LogLevel
		expected zerolog.Level
	}{
		{"debug", LevelDebug, zerolog.DebugLevel},
		{"info", LevelInfo, zerolog.InfoLevel},
		{"warn", LevelWarn, zerolog.WarnLevel},
		{"warning alias", LogLevel("warning"), zerolog.WarnLevel},
		{"error", LevelError, zerolog.ErrorLevel},
		{"mixed case", LogLevel("DEBUG"), zerolog.DebugLevel},
		{"unknown defaults to info", LogLevel("verbose"), zerolog.InfoLevel},
		{"empty defaults to info", LogLevel(""), zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLevel(tt.level); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.level, got, tt.expected)
			}
		})
	}
}

func TestSetup_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(Config{Level: LevelInfo, Output: &buf})

	logger.Info().Str("component", "test").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"component":"test"`) {
		t.Errorf("expected JSON field in output, got: %s", out)
	}
	if !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("expected message in output, got: %s", out)
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(Config{Level: LevelWarn, Output: &buf})

	logger.Info().Msg("filtered")
	logger.Warn().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "filtered") {
		t.Errorf("info message should be filtered at warn level, got: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn message should pass at warn level, got: %s", out)
	}
}

func TestTokenSuffix(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		n        int
		expected string
	}{
		{"long token", "abcdefghij", 4, "ghij"},
		{"exact length", "abcd", 4, "abcd"},
		{"shorter than n", "ab", 4, "ab"},
		{"empty", "", 6, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenSuffix(tt.token, tt.n); got != tt.expected {
				t.Errorf("TokenSuffix(%q, %d) = %q, want %q", tt.token, tt.n, got, tt.expected)
			}
		})
	}
}
