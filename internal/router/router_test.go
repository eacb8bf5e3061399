package router

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/telemetry-bridge/internal/snapshot"
	"github.com/OCAP2/telemetry-bridge/pkg/scssdk"
)

type recordingSink struct {
	msgs [][]byte
	err  error
}

func (s *recordingSink) Send(msg []byte) error {
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, append([]byte(nil), msg...))
	return nil
}

func (s *recordingSink) Close() error { return nil }

func newTestRouter() (*Router, *snapshot.Store, *recordingSink) {
	store := snapshot.NewStore()
	rec := &recordingSink{}
	return New(store, rec, zerolog.Nop()), store, rec
}

func binding(t *testing.T, channel string) Binding {
	t.Helper()
	for _, b := range Bindings {
		if b.Channel == channel {
			return b
		}
	}
	t.Fatalf("no binding for %s", channel)
	return Binding{}
}

func TestBindings(t *testing.T) {
	require.Len(t, Bindings, 10)

	seen := map[string]bool{}
	orientation := 0
	for _, b := range Bindings {
		assert.False(t, seen[b.Channel], "duplicate binding %s", b.Channel)
		seen[b.Channel] = true
		if b.Orientation {
			orientation++
			assert.Equal(t, scssdk.ValueTypeEuler, b.Type)
			assert.Equal(t, scssdk.ChannelFlagNoValue, b.Flags)
			continue
		}
		assert.Equal(t, scssdk.ChannelFlagNone, b.Flags, b.Channel)
		if b.Field.Kind() == snapshot.KindInt {
			assert.Equal(t, scssdk.ValueTypeS32, b.Type, b.Channel)
		} else {
			assert.Equal(t, scssdk.ValueTypeFloat, b.Type, b.Channel)
		}
	}
	assert.Equal(t, 1, orientation)
}

func TestApply_SpeedEmitsExactMessage(t *testing.T) {
	r, _, rec := newTestRouter()

	r.Apply(binding(t, scssdk.ChannelSpeed), scssdk.FloatValue(27.778))

	require.Len(t, rec.msgs, 1)
	assert.Equal(t,
		`{"speed":27.778,"rpm":0.0,"gear":0,"dgear":0,"steer":0.000,"throttle":0.000,"brake":0.000,"clutch":0.000,"cruise":0.000}`+"\n",
		string(rec.msgs[0]))
}

func TestApply_EveryScalarEmitsOnce(t *testing.T) {
	r, _, rec := newTestRouter()

	scalars := 0
	for _, b := range Bindings {
		if b.Orientation {
			continue
		}
		scalars++
		if b.Type == scssdk.ValueTypeS32 {
			r.Apply(b, scssdk.S32Value(3))
		} else {
			r.Apply(b, scssdk.FloatValue(0.5))
		}
		assert.Len(t, rec.msgs, scalars, "after %s", b.Channel)
	}

	var last map[string]float64
	require.NoError(t, json.Unmarshal(rec.msgs[len(rec.msgs)-1], &last))
	assert.Equal(t, map[string]float64{
		"speed": 0.5, "rpm": 0.5, "gear": 3, "dgear": 3,
		"steer": 0.5, "throttle": 0.5, "brake": 0.5, "clutch": 0.5, "cruise": 0.5,
	}, last)
	assert.Equal(t, uint64(9), r.Stats().Emitted)
}

func TestApply_MessageCarriesFullSnapshot(t *testing.T) {
	r, _, rec := newTestRouter()

	r.Apply(binding(t, scssdk.ChannelEngineRPM), scssdk.FloatValue(1500))
	r.Apply(binding(t, scssdk.ChannelEngineGear), scssdk.S32Value(5))

	require.Len(t, rec.msgs, 2)
	assert.Contains(t, string(rec.msgs[1]), `"rpm":1500.0,"gear":5,`)
}

func TestApply_OrientationDoesNotEmit(t *testing.T) {
	r, store, rec := newTestRouter()
	b := binding(t, scssdk.ChannelWorldPlacement)

	r.Apply(b, scssdk.EulerValue(0.25, -0.125, 0.5))
	assert.Empty(t, rec.msgs)
	require.NotNil(t, store.Snapshot().Orientation)
	assert.Equal(t, snapshot.Orientation{Heading: 90, Pitch: -45, Roll: 180}, *store.Snapshot().Orientation)

	r.Apply(b, nil)
	assert.Empty(t, rec.msgs)
	assert.Nil(t, store.Snapshot().Orientation)
}

func TestApply_NilScalarIsIgnored(t *testing.T) {
	r, store, rec := newTestRouter()
	b := binding(t, scssdk.ChannelSpeed)

	r.Apply(b, scssdk.FloatValue(10))
	r.Apply(b, nil)

	assert.Len(t, rec.msgs, 1)
	assert.Equal(t, float32(10), store.Snapshot().Speed)
}

func TestApply_TypeMismatchPanics(t *testing.T) {
	r, _, rec := newTestRouter()

	assert.PanicsWithValue(t,
		TypeMismatch{Channel: scssdk.ChannelSpeed, Want: scssdk.ValueTypeFloat, Got: scssdk.ValueTypeS32},
		func() { r.Apply(binding(t, scssdk.ChannelSpeed), scssdk.S32Value(1)) })
	assert.Empty(t, rec.msgs)
}

func TestEmit_IndependentOfPause(t *testing.T) {
	r, store, rec := newTestRouter()
	require.True(t, store.Snapshot().Paused)

	r.UpdateFloat(snapshot.FieldThrottle, 1)
	store.SetPaused(false)
	r.UpdateFloat(snapshot.FieldThrottle, 0.5)

	assert.Len(t, rec.msgs, 2)
}

func TestEmit_NonFiniteIsDropped(t *testing.T) {
	r, store, rec := newTestRouter()

	r.UpdateFloat(snapshot.FieldRPM, float32(math.NaN()))

	assert.Empty(t, rec.msgs)
	assert.Equal(t, uint64(1), r.Stats().EncodeFails)
	assert.True(t, math.IsNaN(float64(store.Snapshot().RPM)), "store keeps the latest value")
}

func TestEmit_SendErrorIsSwallowed(t *testing.T) {
	r, store, rec := newTestRouter()
	rec.err = errors.New("network unreachable")

	assert.NotPanics(t, func() { r.UpdateInt(snapshot.FieldGear, 2) })
	assert.Equal(t, int32(2), store.Snapshot().Gear)
	assert.Equal(t, Stats{SendFails: 1}, r.Stats())
}

func TestSetSink(t *testing.T) {
	r, _, first := newTestRouter()
	second := &recordingSink{}

	r.SetSink(second)
	r.UpdateFloat(snapshot.FieldBrake, 1)
	r.SetSink(nil)
	r.UpdateFloat(snapshot.FieldBrake, 0)

	assert.Empty(t, first.msgs)
	assert.Len(t, second.msgs, 1)
	assert.Equal(t, uint64(2), r.Stats().Emitted)
}
