package logger

import (
	"strings"

	"github.com/rs/zerolog"

	corelogger "github.com/kilianp07/dockid/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)        {}
func (NopLogger) Infof(string, ...any)         {}
func (NopLogger) Infow(string, map[string]any) {}
func (NopLogger) Warnf(string, ...any)         {}
func (NopLogger) Errorf(string, ...any)        {}

// New returns a Logger for the given component. The output format is
// selected via the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// SetLevel sets the global log level. Unknown names fall back to info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
