package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook copies the command name and invocation id from an event's
// context onto the event.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if name := GetCommand(ctx); name != "" {
		e.Str("command", name)
	}

	if id := GetInvocationID(ctx); id != "" {
		e.Str("invocation_id", id)
	}
}
