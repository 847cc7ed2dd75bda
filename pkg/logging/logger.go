// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	var output io.Writer = cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// TokenSuffix returns the last n characters of a credential token for log
// context. The full token must never appear in log output.
func TokenSuffix(token string, n int) string {
	if len(token) <= n {
		return token
	}
	return token[len(token)-n:]
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Listing pagination (page number, cursor, page size)
//   - Wave scheduling (wave index, wave size, pacing delay)
//   - Cache operations (hit/miss, key, TTL)
//
// Info: Normal operation events
//   - Migration start/finish with aggregate counts
//   - Rate limit state updates (healthy)
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Rate limit warnings (throttling active)
//   - Individual item or chunk failures (recorded, migration continues)
//   - Cache errors (fallback to direct request)
//
// Error: Error conditions requiring attention
//   - Listing fetch failures (content kind aborted)
//   - Credential verification failures
//   - Critical rate limit blocks
//
// Context Fields:
//   - migration_id: UUID of one orchestration run
//   - endpoint: Reddit endpoint path
//   - status_code: HTTP status code
//   - error_class: Error classification (auth, client, server, rate_limit, network)
//   - remaining: Current Reddit rate limit budget
//   - token_suffix: Last characters of a credential, never the full value
