package fiber

import (
	"context"
	"log/slog"
	"os"

	"github.com/joeycumines/logiface"
)

// slogEvent adapts the github.com/joeycumines/logiface Event interface
// onto the standard library's log/slog, so the runtime's ambient logging
// concern is expressed through that facade while writing through a real
// slog.Handler sink. Deliberately minimal: one mandatory field path
// (AddField), feeding straight into a slog.Attr slice.
type slogEvent struct {
	logiface.UnimplementedEvent
	level slog.Level
	msg   string
	attrs []slog.Attr
}

func (e *slogEvent) Level() logiface.Level {
	switch e.level {
	case slog.LevelDebug:
		return logiface.LevelDebug
	case slog.LevelInfo:
		return logiface.LevelInformational
	case slog.LevelWarn:
		return logiface.LevelWarning
	case slog.LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

func (e *slogEvent) AddField(key string, val any) {
	e.attrs = append(e.attrs, slog.Any(key, val))
}

func (e *slogEvent) AddMessage(msg string) bool {
	e.msg = msg
	return true
}

func (e *slogEvent) AddError(err error) bool {
	e.attrs = append(e.attrs, slog.Any("error", err))
	return true
}

// slogEventFactory and slogEventWriter bridge a logiface.Logger to a
// *slog.Logger, via the NewEvent/Write split logiface's own Backend
// interface expects.
type slogEventFactory struct {
	level logiface.Level
}

func toSlogLevel(l logiface.Level) slog.Level {
	switch {
	case l >= logiface.LevelDebug:
		return slog.LevelDebug
	case l >= logiface.LevelInformational:
		return slog.LevelInfo
	case l >= logiface.LevelWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func (f *slogEventFactory) NewEvent(level logiface.Level) *slogEvent {
	return &slogEvent{level: toSlogLevel(level)}
}

type slogEventWriter struct {
	sink *slog.Logger
}

func (w *slogEventWriter) Write(e *slogEvent) error {
	w.sink.LogAttrs(context.Background(), e.level, e.msg, e.attrs...)
	return nil
}

// disabledLogger returns a logiface.Logger configured at LevelDisabled, the
// default for a Runtime that hasn't been given WithLogger.
func disabledLogger() *logiface.Logger[logiface.Event] {
	return newSlogBackedLogger(slog.NewTextHandler(os.Stderr, nil), logiface.LevelDisabled)
}

// NewSlogLogger builds a logiface.Logger[logiface.Event] that writes
// through the given slog.Handler, for use with WithLogger. level gates
// which logiface levels are enabled.
func NewSlogLogger(handler slog.Handler, level logiface.Level) *logiface.Logger[logiface.Event] {
	return newSlogBackedLogger(handler, level)
}

func newSlogBackedLogger(handler slog.Handler, level logiface.Level) *logiface.Logger[logiface.Event] {
	typed := logiface.New[*slogEvent](
		logiface.WithLevel[*slogEvent](level),
		logiface.WithEventFactory[*slogEvent](&slogEventFactory{level: level}),
		logiface.WithWriter[*slogEvent](&slogEventWriter{sink: slog.New(handler)}),
	)
	return typed.Logger()
}
