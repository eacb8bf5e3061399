// Package router applies channel values to the snapshot store and sends the
// full snapshot after every scalar update.
package router

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/OCAP2/telemetry-bridge/internal/sink"
	"github.com/OCAP2/telemetry-bridge/internal/snapshot"
	"github.com/OCAP2/telemetry-bridge/internal/wire"
	"github.com/OCAP2/telemetry-bridge/pkg/scssdk"
)

// Binding ties a host channel to the store member it updates.
type Binding struct {
	Channel string
	Type    scssdk.ValueType
	Flags   scssdk.ChannelFlag
	// Field is the scalar updated by the channel. Unused when Orientation is set.
	Field       snapshot.Field
	Orientation bool
}

// Bindings lists every channel the bridge registers, in registration order.
var Bindings = []Binding{
	{Channel: scssdk.ChannelWorldPlacement, Type: scssdk.ValueTypeEuler, Flags: scssdk.ChannelFlagNoValue, Orientation: true},
	{Channel: scssdk.ChannelSpeed, Type: scssdk.ValueTypeFloat, Field: snapshot.FieldSpeed},
	{Channel: scssdk.ChannelEngineRPM, Type: scssdk.ValueTypeFloat, Field: snapshot.FieldRPM},
	{Channel: scssdk.ChannelEngineGear, Type: scssdk.ValueTypeS32, Field: snapshot.FieldGear},
	{Channel: scssdk.ChannelDisplayedGear, Type: scssdk.ValueTypeS32, Field: snapshot.FieldDisplayedGear},
	{Channel: scssdk.ChannelInputSteering, Type: scssdk.ValueTypeFloat, Field: snapshot.FieldSteering},
	{Channel: scssdk.ChannelInputThrottle, Type: scssdk.ValueTypeFloat, Field: snapshot.FieldThrottle},
	{Channel: scssdk.ChannelInputBrake, Type: scssdk.ValueTypeFloat, Field: snapshot.FieldBrake},
	{Channel: scssdk.ChannelInputClutch, Type: scssdk.ValueTypeFloat, Field: snapshot.FieldClutch},
	{Channel: scssdk.ChannelCruiseControl, Type: scssdk.ValueTypeFloat, Field: snapshot.FieldCruiseControl},
}

// TypeMismatch is the panic value used when a channel delivers a value
// whose type differs from the registered one.
type TypeMismatch struct {
	Channel string
	Want    scssdk.ValueType
	Got     scssdk.ValueType
}

func (e TypeMismatch) Error() string {
	return fmt.Sprintf("host contract violation: channel %s registered as %s delivered %s", e.Channel, e.Want, e.Got)
}

// Stats counts emission outcomes.
type Stats struct {
	Emitted     uint64
	EncodeFails uint64
	SendFails   uint64
}

// Router owns no state of its own besides counters. It is driven from the
// bridge's serialised callbacks and is not safe for concurrent use.
type Router struct {
	store  *snapshot.Store
	sink   sink.Sink
	logger zerolog.Logger
	stats  Stats
}

// New creates a router writing to store and emitting through s.
func New(store *snapshot.Store, s sink.Sink, logger zerolog.Logger) *Router {
	if s == nil {
		s = sink.Discard{}
	}
	return &Router{store: store, sink: s, logger: logger.With().Str("component", "router").Logger()}
}

// Apply routes a channel value according to b. A nil value marks the
// channel as having no value: orientation becomes unavailable, scalars are
// left untouched and nothing is sent.
func (r *Router) Apply(b Binding, v *scssdk.Value) {
	if v != nil && v.Type != b.Type {
		panic(TypeMismatch{Channel: b.Channel, Want: b.Type, Got: v.Type})
	}

	if b.Orientation {
		if v == nil {
			r.UpdateOrientation(nil)
			return
		}
		r.UpdateOrientation(&snapshot.Orientation{
			Heading: v.Euler.Heading * 360,
			Pitch:   v.Euler.Pitch * 360,
			Roll:    v.Euler.Roll * 360,
		})
		return
	}

	if v == nil {
		r.logger.Debug().Str("channel", b.Channel).Msg("Channel has no value")
		return
	}

	switch b.Type {
	case scssdk.ValueTypeFloat:
		r.UpdateFloat(b.Field, v.Float)
	case scssdk.ValueTypeS32:
		r.UpdateInt(b.Field, v.S32)
	default:
		panic(TypeMismatch{Channel: b.Channel, Want: b.Type, Got: v.Type})
	}
}

// UpdateFloat stores v and emits the snapshot.
func (r *Router) UpdateFloat(f snapshot.Field, v float32) {
	r.store.ApplyFloat(f, v)
	r.Emit()
}

// UpdateInt stores v and emits the snapshot.
func (r *Router) UpdateInt(f snapshot.Field, v int32) {
	r.store.ApplyInt(f, v)
	r.Emit()
}

// UpdateOrientation stores o, or marks orientation unavailable when o is
// nil. Nothing is sent.
func (r *Router) UpdateOrientation(o *snapshot.Orientation) {
	r.store.ApplyOrientation(o)
	if o == nil {
		r.logger.Debug().Msg("Orientation unavailable")
		return
	}
	r.logger.Trace().
		Float32("heading", o.Heading).
		Float32("pitch", o.Pitch).
		Float32("roll", o.Roll).
		Msg("Orientation updated")
}

// Emit encodes the current snapshot and sends it. Failures are logged and
// counted; the message is dropped.
func (r *Router) Emit() {
	msg, err := wire.Encode(r.store.Snapshot())
	if err != nil {
		r.stats.EncodeFails++
		r.logger.Warn().Err(err).Msg("Dropping telemetry message")
		return
	}
	if err := r.sink.Send(msg); err != nil {
		// The sink logs its own state transitions.
		r.stats.SendFails++
		return
	}
	r.stats.Emitted++
}

// SetSink replaces the destination used by Emit.
func (r *Router) SetSink(s sink.Sink) {
	if s == nil {
		s = sink.Discard{}
	}
	r.sink = s
}

// Stats returns the emission counters.
func (r *Router) Stats() Stats {
	return r.stats
}
