// Package memory keeps the recording in process memory. It backs tests and
// the simulator command.
package memory

import (
	"sync"

	"github.com/OCAP2/telemetry-bridge/pkg/core"
)

// Backend stores sessions, frames and events in slices.
type Backend struct {
	mu       sync.RWMutex
	sessions []core.Session
	frames   []core.FrameSample
	events   []core.GameEvent
	closed   bool
}

// New creates an empty memory backend.
func New() *Backend {
	return &Backend{}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close marks the backend closed. Recorded data stays readable.
func (b *Backend) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (b *Backend) Closed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// StartSession records a new session.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions = append(b.sessions, *s)
	return nil
}

// RecordFrame appends a frame sample.
func (b *Backend) RecordFrame(f *core.FrameSample) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, *f)
	return nil
}

// RecordEvent appends a game event.
func (b *Backend) RecordEvent(e *core.GameEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, *e)
	return nil
}

// Sessions returns a copy of the recorded sessions.
func (b *Backend) Sessions() []core.Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.Session(nil), b.sessions...)
}

// Frames returns a copy of the recorded frame samples.
func (b *Backend) Frames() []core.FrameSample {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.FrameSample(nil), b.frames...)
}

// Events returns a copy of the recorded events.
func (b *Backend) Events() []core.GameEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.GameEvent(nil), b.events...)
}
