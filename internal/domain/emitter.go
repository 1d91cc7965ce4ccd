package domain

import (
	"context"
	"log/slog"
)

// Event is an observational trace record.
type Event struct {
	Level     slog.Level
	Component string
	Action    string
	Detail    string
	RequestID string
}

// Emitter receives trace events. Implementations must not block.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

type slogEmitter struct {
	logger *slog.Logger
}

// NewSlogEmitter forwards events to logger; a nil logger uses slog.Default.
func NewSlogEmitter(logger *slog.Logger) Emitter {
	if logger == nil {
		logger = slog.Default()
	}

	return &slogEmitter{logger: logger}
}

func (e *slogEmitter) Emit(ctx context.Context, event Event) {
	e.logger.Log(ctx, event.Level, event.Component,
		"action", event.Action,
		"url", event.Detail,
		"request_id", event.RequestID,
	)
}
