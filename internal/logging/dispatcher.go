package logging

import (
	"time"

	"github.com/rs/zerolog"
)

// badKey labels a value whose key is missing or not a string, as slog does.
const badKey = "!BADKEY"

// DispatcherLogger writes dispatcher key/value logs through zerolog. Every
// entry carries component=dispatcher.
type DispatcherLogger struct {
	logger zerolog.Logger
}

// NewDispatcherLogger wraps logger for use as a dispatcher.Logger.
func NewDispatcherLogger(logger zerolog.Logger) *DispatcherLogger {
	return &DispatcherLogger{logger: logger.With().Str("component", "dispatcher").Logger()}
}

func (l *DispatcherLogger) Debug(msg string, keysAndValues ...any) {
	write(l.logger.Debug(), msg, keysAndValues)
}

func (l *DispatcherLogger) Info(msg string, keysAndValues ...any) {
	write(l.logger.Info(), msg, keysAndValues)
}

func (l *DispatcherLogger) Error(msg string, keysAndValues ...any) {
	write(l.logger.Error(), msg, keysAndValues)
}

// write adds alternating keys and values to ev. A disabled level gives a
// nil event, on which every call is a no-op.
func write(ev *zerolog.Event, msg string, kv []any) {
	if ev == nil {
		return
	}
	for i := 0; i < len(kv); {
		key, ok := kv[i].(string)
		if !ok || i+1 == len(kv) {
			ev = ev.Interface(badKey, kv[i])
			i++
			continue
		}
		switch v := kv[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		case string:
			ev = ev.Str(key, v)
		case time.Duration:
			ev = ev.Dur(key, v)
		default:
			ev = ev.Interface(key, v)
		}
		i += 2
	}
	ev.Msg(msg)
}
