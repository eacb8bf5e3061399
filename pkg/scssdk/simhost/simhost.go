// Package simhost is an in-process stand-in for the game side of the
// telemetry API. It keeps the registrations a plugin makes and lets callers
// deliver events and channel values the way the game would.
package simhost

import (
	"errors"
	"fmt"
	"sync"

	"github.com/OCAP2/telemetry-bridge/pkg/scssdk"
)

// ErrNotRegistered is returned when delivering to a channel nobody registered.
var ErrNotRegistered = errors.New("channel not registered")

// LogEntry is one message the plugin wrote to the game console.
type LogEntry struct {
	Type    scssdk.LogType
	Message string
}

type channelKey struct {
	name  string
	index uint32
}

type channelReg struct {
	valueType scssdk.ValueType
	flags     scssdk.ChannelFlag
	cb        scssdk.ChannelCallback
}

// Host implements scssdk.Host.
type Host struct {
	common scssdk.CommonParams

	mu       sync.Mutex
	events   map[scssdk.Event]scssdk.EventCallback
	channels map[channelKey]channelReg
	logs     []LogEntry

	// EventResults forces RegisterForEvent to fail with the given result.
	EventResults map[scssdk.Event]scssdk.Result
	// ChannelResults forces RegisterForChannel to fail with the given result.
	ChannelResults map[string]scssdk.Result
}

var _ scssdk.Host = (*Host)(nil)

// New creates a host pretending to be the given game.
func New(common scssdk.CommonParams) *Host {
	return &Host{
		common:         common,
		events:         make(map[scssdk.Event]scssdk.EventCallback),
		channels:       make(map[channelKey]channelReg),
		EventResults:   make(map[scssdk.Event]scssdk.Result),
		ChannelResults: make(map[string]scssdk.Result),
	}
}

// NewETS2 creates a host reporting the current Euro Truck Simulator 2 version.
func NewETS2() *Host {
	return New(scssdk.CommonParams{
		GameName:    "Euro Truck Simulator 2",
		GameID:      scssdk.GameIDEUT2,
		GameVersion: scssdk.EUT2GameVersionCurrent,
	})
}

// Params returns the init parameters handed to a plugin.
func (h *Host) Params() scssdk.InitParams {
	return scssdk.InitParams{Common: h.common, Host: h}
}

// Load initializes the plugin with the telemetry version this host speaks.
func (h *Host) Load(p scssdk.Plugin) scssdk.Result {
	return p.Init(scssdk.TelemetryVersion1_01, h.Params())
}

// Unload shuts the plugin down and drops every registration, as the game
// does when it unloads a plugin.
func (h *Host) Unload(p scssdk.Plugin) {
	p.Shutdown()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = make(map[scssdk.Event]scssdk.EventCallback)
	h.channels = make(map[channelKey]channelReg)
}

// Log records a console message.
func (h *Host) Log(t scssdk.LogType, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logs = append(h.logs, LogEntry{Type: t, Message: message})
}

// Logs returns a copy of every console message written so far.
func (h *Host) Logs() []LogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]LogEntry, len(h.logs))
	copy(out, h.logs)
	return out
}

// RegisterForEvent implements scssdk.Host.
func (h *Host) RegisterForEvent(event scssdk.Event, cb scssdk.EventCallback) scssdk.Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.EventResults[event]; ok && r != scssdk.ResultOK {
		return r
	}
	if cb == nil || event == scssdk.EventInvalid {
		return scssdk.ResultInvalidParameter
	}
	if _, ok := h.events[event]; ok {
		return scssdk.ResultAlreadyRegistered
	}
	h.events[event] = cb
	return scssdk.ResultOK
}

// UnregisterFromEvent implements scssdk.Host.
func (h *Host) UnregisterFromEvent(event scssdk.Event) scssdk.Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.events[event]; !ok {
		return scssdk.ResultNotFound
	}
	delete(h.events, event)
	return scssdk.ResultOK
}

// RegisterForChannel implements scssdk.Host.
func (h *Host) RegisterForChannel(name string, index uint32, t scssdk.ValueType, flags scssdk.ChannelFlag, cb scssdk.ChannelCallback) scssdk.Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.ChannelResults[name]; ok && r != scssdk.ResultOK {
		return r
	}
	if cb == nil || name == "" {
		return scssdk.ResultInvalidParameter
	}
	key := channelKey{name: name, index: index}
	if _, ok := h.channels[key]; ok {
		return scssdk.ResultAlreadyRegistered
	}
	h.channels[key] = channelReg{valueType: t, flags: flags, cb: cb}
	return scssdk.ResultOK
}

// UnregisterFromChannel implements scssdk.Host.
func (h *Host) UnregisterFromChannel(name string, index uint32, t scssdk.ValueType) scssdk.Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := channelKey{name: name, index: index}
	reg, ok := h.channels[key]
	if !ok || reg.valueType != t {
		return scssdk.ResultNotFound
	}
	delete(h.channels, key)
	return scssdk.ResultOK
}

// HasEvent reports whether a callback is registered for event.
func (h *Host) HasEvent(event scssdk.Event) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.events[event]
	return ok
}

// HasChannel reports whether a callback is registered for the unindexed channel.
func (h *Host) HasChannel(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.channels[channelKey{name: name, index: scssdk.U32Nil}]
	return ok
}

// RegistrationCount returns the number of live event and channel registrations.
func (h *Host) RegistrationCount() (events, channels int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events), len(h.channels)
}

func (h *Host) fire(event scssdk.Event, info any) bool {
	h.mu.Lock()
	cb, ok := h.events[event]
	h.mu.Unlock()
	if !ok {
		return false
	}
	cb(event, info)
	return true
}

// FrameStart delivers a frame start event.
func (h *Host) FrameStart(info scssdk.FrameStartInfo) bool {
	return h.fire(scssdk.EventFrameStart, &info)
}

// FrameEnd delivers a frame end event.
func (h *Host) FrameEnd() bool {
	return h.fire(scssdk.EventFrameEnd, nil)
}

// Pause delivers the paused event.
func (h *Host) Pause() bool {
	return h.fire(scssdk.EventPaused, nil)
}

// Start delivers the started event.
func (h *Host) Start() bool {
	return h.fire(scssdk.EventStarted, nil)
}

// Configuration delivers a configuration event.
func (h *Host) Configuration(id string, attrs ...scssdk.NamedValue) bool {
	return h.fire(scssdk.EventConfiguration, &scssdk.ConfigurationInfo{ID: id, Attributes: attrs})
}

// Gameplay delivers a gameplay event.
func (h *Host) Gameplay(id string, attrs ...scssdk.NamedValue) bool {
	return h.fire(scssdk.EventGameplay, &scssdk.GameplayEventInfo{ID: id, Attributes: attrs})
}

// Channel delivers a value on an unindexed channel. A nil value is only
// delivered when the plugin asked for ChannelFlagNoValue; otherwise it is
// silently skipped, as the game would.
func (h *Host) Channel(name string, value *scssdk.Value) error {
	h.mu.Lock()
	reg, ok := h.channels[channelKey{name: name, index: scssdk.U32Nil}]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrNotRegistered)
	}
	if value == nil && reg.flags&scssdk.ChannelFlagNoValue == 0 {
		return nil
	}
	reg.cb(name, scssdk.U32Nil, value)
	return nil
}
