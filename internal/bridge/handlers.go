package bridge

import (
	"fmt"

	"github.com/OCAP2/telemetry-bridge/internal/dispatcher"
	"github.com/OCAP2/telemetry-bridge/internal/recorder"
	"github.com/OCAP2/telemetry-bridge/internal/router"
	"github.com/OCAP2/telemetry-bridge/pkg/core"
	"github.com/OCAP2/telemetry-bridge/pkg/scssdk"
)

var (
	requiredEvents = []scssdk.Event{
		scssdk.EventFrameStart,
		scssdk.EventFrameEnd,
		scssdk.EventPaused,
		scssdk.EventStarted,
	}
	// Older game versions do not provide these.
	optionalEvents = []scssdk.Event{
		scssdk.EventConfiguration,
		scssdk.EventGameplay,
	}
)

// registerHandlers fills the dispatcher. Handlers run with mu held.
func (b *Bridge) registerHandlers() {
	b.dispatcher.Register(scssdk.EventFrameStart.String(), b.handleFrameStart)
	b.dispatcher.Register(scssdk.EventFrameEnd.String(), b.handleFrameEnd)
	b.dispatcher.Register(scssdk.EventPaused.String(), b.handlePause, dispatcher.Logged())
	b.dispatcher.Register(scssdk.EventStarted.String(), b.handlePause, dispatcher.Logged())
	b.dispatcher.Register(scssdk.EventConfiguration.String(), b.handleConfiguration, dispatcher.Logged())
	b.dispatcher.Register(scssdk.EventGameplay.String(), b.handleGameplay, dispatcher.Logged())

	for _, binding := range router.Bindings {
		b.dispatcher.Register(binding.Channel, func(e dispatcher.Event) error {
			v, _ := e.Payload.(*scssdk.Value)
			b.router.Apply(binding, v)
			return nil
		})
	}
}

// onEvent is the callback handed to the host for every event.
func (b *Bridge) onEvent(event scssdk.Event, info any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active() {
		return
	}
	if err := b.dispatcher.Dispatch(dispatcher.Event{Name: event.String(), Payload: info}); err != nil {
		b.logger.Error().Err(err).Str("event", event.String()).Msg("Event not handled")
	}
}

// onChannel is the callback handed to the host for every channel.
func (b *Bridge) onChannel(name string, index uint32, value *scssdk.Value) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active() {
		return
	}
	if err := b.dispatcher.Dispatch(dispatcher.Event{Name: name, Payload: value}); err != nil {
		b.logger.Error().Err(err).Str("channel", name).Uint32("index", index).Msg("Channel not handled")
	}
}

func (b *Bridge) active() bool {
	switch b.state {
	case StateReady, StatePaused, StateRunning:
		return true
	default:
		return false
	}
}

func (b *Bridge) handleFrameStart(e dispatcher.Event) error {
	info, ok := e.Payload.(*scssdk.FrameStartInfo)
	if !ok || info == nil {
		return fmt.Errorf("frame_start without timing info")
	}
	b.store.FrameStart(*info)
	return nil
}

func (b *Bridge) handleFrameEnd(dispatcher.Event) error {
	if b.state != StateRunning {
		return nil
	}
	s := b.store.Snapshot()
	b.diag.Frame(s)

	sample := recorder.Sample(b.session.ID, s, b.opts.Now())
	if err := b.recorder.RecordFrame(&sample); err != nil {
		return fmt.Errorf("record frame: %w", err)
	}
	return nil
}

func (b *Bridge) handlePause(e dispatcher.Event) error {
	paused := e.Name == scssdk.EventPaused.String()
	b.store.SetPaused(paused)

	kind := core.EventStarted
	if paused {
		b.state = StatePaused
		kind = core.EventPaused
		b.diag.Line("Telemetry paused")
	} else {
		b.state = StateRunning
		b.diag.Line("Telemetry unpaused")
	}
	b.diag.RequestHeader()

	return b.recordEvent(kind, "", nil)
}

func (b *Bridge) handleConfiguration(e dispatcher.Event) error {
	info, ok := e.Payload.(*scssdk.ConfigurationInfo)
	if !ok || info == nil {
		return fmt.Errorf("configuration without info")
	}
	b.diag.Line("Configuration: %s", info.ID)
	b.diag.Attributes(info.Attributes)
	b.diag.RequestHeader()
	return b.recordEvent(core.EventConfiguration, info.ID, info.Attributes)
}

func (b *Bridge) handleGameplay(e dispatcher.Event) error {
	info, ok := e.Payload.(*scssdk.GameplayEventInfo)
	if !ok || info == nil {
		return fmt.Errorf("gameplay event without info")
	}
	b.diag.Line("Gameplay event: %s", info.ID)
	b.diag.Attributes(info.Attributes)
	b.diag.RequestHeader()
	return b.recordEvent(core.EventGameplay, info.ID, info.Attributes)
}

func (b *Bridge) recordEvent(kind, id string, attrs []scssdk.NamedValue) error {
	ev := core.GameEvent{
		SessionID:  b.session.ID,
		Time:       b.opts.Now(),
		Kind:       kind,
		EventID:    id,
		Attributes: recorder.Attributes(attrs),
	}
	if err := b.recorder.RecordEvent(&ev); err != nil {
		return fmt.Errorf("record %s event: %w", kind, err)
	}
	return nil
}

// registerError reports a required registration the host refused.
type registerError struct {
	what   string
	result scssdk.Result
}

func (e registerError) Error() string {
	return fmt.Sprintf("unable to register %s: %s", e.what, e.result)
}

// registration tracks what Init registered so it can be undone.
type registration struct {
	events   []scssdk.Event
	channels []router.Binding
}

func (r *registration) rollback(host scssdk.Host) {
	for i := len(r.channels) - 1; i >= 0; i-- {
		c := r.channels[i]
		host.UnregisterFromChannel(c.Channel, scssdk.U32Nil, c.Type)
	}
	for i := len(r.events) - 1; i >= 0; i-- {
		host.UnregisterFromEvent(r.events[i])
	}
	r.events, r.channels = nil, nil
}

// register hooks every event and channel into the host. The returned
// registration is valid even on error.
func (b *Bridge) register(host scssdk.Host) (*registration, error) {
	reg := &registration{}

	for _, ev := range requiredEvents {
		if res := host.RegisterForEvent(ev, b.onEvent); res != scssdk.ResultOK {
			return reg, registerError{what: "event callbacks", result: res}
		}
		reg.events = append(reg.events, ev)
	}

	for _, ev := range optionalEvents {
		if res := host.RegisterForEvent(ev, b.onEvent); res != scssdk.ResultOK {
			b.logger.Warn().Str("event", ev.String()).Str("result", res.String()).
				Msg("Optional event not available")
			continue
		}
		reg.events = append(reg.events, ev)
	}

	for _, binding := range router.Bindings {
		res := host.RegisterForChannel(binding.Channel, scssdk.U32Nil, binding.Type, binding.Flags, b.onChannel)
		if res != scssdk.ResultOK {
			return reg, registerError{what: "channel " + binding.Channel, result: res}
		}
		reg.channels = append(reg.channels, binding)
	}
	return reg, nil
}
