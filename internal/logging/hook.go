package logging

import "github.com/rs/zerolog"

// ContextProvider returns fields to attach to every log event at the time
// it is written.
type ContextProvider func() map[string]any

// ContextHook injects dynamic context fields into each event.
type ContextHook struct {
	provider ContextProvider
}

// NewContextHook creates a hook backed by provider.
func NewContextHook(provider ContextProvider) ContextHook {
	return ContextHook{provider: provider}
}

// Run implements zerolog.Hook.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if h.provider == nil {
		return
	}
	if fields := h.provider(); len(fields) > 0 {
		e.Fields(fields)
	}
}
