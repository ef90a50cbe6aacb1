// Package logger builds the zerolog loggers shared by the service.
// Every line is a single JSON object carrying "ts" (RFC3339Nano in the configured timezone) and "level".
package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.MessageFieldName = "msg"
}

// New returns a JSON logger writing to w. Unknown levels fall back to info.
func New(w io.Writer, level string, loc *time.Location) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if loc == nil {
		loc = time.UTC
	}
	return zerolog.New(w).Level(lvl).Hook(timestampHook{loc: loc})
}

type timestampHook struct {
	loc *time.Location
}

func (h timestampHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Str("ts", time.Now().In(h.loc).Format(time.RFC3339Nano))
}
