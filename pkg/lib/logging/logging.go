// Package logging provides the leveled logger injected into the supervisor,
// the orchestrator and the RPC client.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a leveled, structured logger. Key/value pairs follow the message;
// the category of a message is carried by a "module" key added with With.
type Logger interface {
	Debug(msg string, keyVals ...interface{})
	Info(msg string, keyVals ...interface{})
	Warn(msg string, keyVals ...interface{})
	Error(msg string, keyVals ...interface{})
	With(keyVals ...interface{}) Logger
}

const (
	FormatPlain = "plain"
	FormatText  = "text"
	FormatJSON  = "json"
)

// ZeroLogger passes messages to a zerolog logger.
type ZeroLogger struct {
	Zerolog zerolog.Logger
}

// New creates a logger writing to w in the given format and level.
func New(w io.Writer, format, level string) (Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	switch strings.ToLower(format) {
	case "", FormatPlain, FormatText:
		w = &zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    true,
			TimeFormat: time.RFC3339,
			FormatLevel: func(i interface{}) string {
				if ll, ok := i.(string); ok {
					return strings.ToUpper(ll)
				}
				return "????"
			},
		}
	case FormatJSON:
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}

	if level == "" {
		level = zerolog.InfoLevel.String()
	}
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %v", err)
	}

	zl := zerolog.New(w).Level(logLevel).With().Timestamp().Logger()
	return &ZeroLogger{Zerolog: zl}, nil
}

func (l *ZeroLogger) Debug(msg string, keyVals ...interface{}) {
	l.Zerolog.Debug().Fields(getLogFields(keyVals...)).Msg(msg)
}

func (l *ZeroLogger) Info(msg string, keyVals ...interface{}) {
	l.Zerolog.Info().Fields(getLogFields(keyVals...)).Msg(msg)
}

func (l *ZeroLogger) Warn(msg string, keyVals ...interface{}) {
	l.Zerolog.Warn().Fields(getLogFields(keyVals...)).Msg(msg)
}

func (l *ZeroLogger) Error(msg string, keyVals ...interface{}) {
	l.Zerolog.Error().Fields(getLogFields(keyVals...)).Msg(msg)
}

func (l *ZeroLogger) With(keyVals ...interface{}) Logger {
	return &ZeroLogger{
		Zerolog: l.Zerolog.With().Fields(getLogFields(keyVals...)).Logger(),
	}
}

// missingValue stands in for the value of a trailing key without one.
const missingValue = "(MISSING)"

func getLogFields(keyVals ...interface{}) map[string]interface{} {
	if len(keyVals) == 0 {
		return nil
	}

	fields := make(map[string]interface{}, (len(keyVals)+1)/2)
	for i := 0; i < len(keyVals); i += 2 {
		if i+1 == len(keyVals) {
			fields[fmt.Sprint(keyVals[i])] = missingValue
			break
		}
		fields[fmt.Sprint(keyVals[i])] = keyVals[i+1]
	}

	return fields
}
