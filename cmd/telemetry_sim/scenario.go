package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/OCAP2/telemetry-bridge/pkg/scssdk"
	"github.com/OCAP2/telemetry-bridge/pkg/scssdk/simhost"
)

// Scenario is a scripted sequence of host callbacks.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step holds exactly one action.
type Step struct {
	Frame         *FrameStep    `yaml:"frame,omitempty"`
	Pause         bool          `yaml:"pause,omitempty"`
	Start         bool          `yaml:"start,omitempty"`
	Channel       *ChannelStep  `yaml:"channel,omitempty"`
	Configuration *EventStep    `yaml:"configuration,omitempty"`
	Gameplay      *EventStep    `yaml:"gameplay,omitempty"`
	Sleep         time.Duration `yaml:"sleep,omitempty"`
}

// FrameStep delivers frame_start followed by frame_end. Render and
// simulation times default to the paused simulation time.
type FrameStep struct {
	Time       uint64  `yaml:"time"`
	Render     *uint64 `yaml:"render,omitempty"`
	Simulation *uint64 `yaml:"simulation,omitempty"`
	Restart    bool    `yaml:"restart,omitempty"`
}

// ValueStep is a channel or attribute value; exactly one member is set.
type ValueStep struct {
	Float  *float32  `yaml:"float,omitempty"`
	Int    *int32    `yaml:"int,omitempty"`
	Bool   *bool     `yaml:"bool,omitempty"`
	String *string   `yaml:"string,omitempty"`
	Euler  []float32 `yaml:"euler,omitempty"`
}

// ChannelStep sets a channel value. None reports the channel unavailable.
type ChannelStep struct {
	Name      string `yaml:"name"`
	ValueStep `yaml:",inline"`
	None      bool `yaml:"none,omitempty"`
}

// EventStep is a configuration or gameplay event.
type EventStep struct {
	ID         string          `yaml:"id"`
	Attributes []AttributeStep `yaml:"attributes,omitempty"`
}

// AttributeStep is one event attribute.
type AttributeStep struct {
	Name      string  `yaml:"name"`
	Index     *uint32 `yaml:"index,omitempty"`
	ValueStep `yaml:",inline"`
}

var (
	errEmptyStep    = errors.New("step has no action")
	errMultipleStep = errors.New("step has more than one action")
	errValue        = errors.New("exactly one of float, int, bool, string or euler is required")
)

// LoadScenario decodes and validates a scenario.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks that every step holds exactly one well formed action.
func (sc *Scenario) Validate() error {
	for i, st := range sc.Steps {
		if err := st.validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (st Step) validate() error {
	actions := 0
	for _, set := range []bool{
		st.Frame != nil, st.Pause, st.Start, st.Channel != nil,
		st.Configuration != nil, st.Gameplay != nil, st.Sleep > 0,
	} {
		if set {
			actions++
		}
	}
	switch {
	case actions == 0:
		return errEmptyStep
	case actions > 1:
		return errMultipleStep
	}

	if c := st.Channel; c != nil {
		if c.Name == "" {
			return errors.New("channel name is required")
		}
		if !c.None {
			if _, err := c.value(); err != nil {
				return fmt.Errorf("channel %s: %w", c.Name, err)
			}
		}
	}
	for _, ev := range []*EventStep{st.Configuration, st.Gameplay} {
		if ev == nil {
			continue
		}
		if ev.ID == "" {
			return errors.New("event id is required")
		}
		if _, err := ev.attributes(); err != nil {
			return err
		}
	}
	return nil
}

func (v ValueStep) value() (*scssdk.Value, error) {
	var out []*scssdk.Value
	if v.Float != nil {
		out = append(out, scssdk.FloatValue(*v.Float))
	}
	if v.Int != nil {
		out = append(out, scssdk.S32Value(*v.Int))
	}
	if v.Bool != nil {
		out = append(out, &scssdk.Value{Type: scssdk.ValueTypeBool, Bool: *v.Bool})
	}
	if v.String != nil {
		out = append(out, scssdk.StringValue(*v.String))
	}
	if v.Euler != nil {
		if len(v.Euler) != 3 {
			return nil, errors.New("euler needs heading, pitch and roll")
		}
		out = append(out, scssdk.EulerValue(v.Euler[0], v.Euler[1], v.Euler[2]))
	}
	if len(out) != 1 {
		return nil, errValue
	}
	return out[0], nil
}

func (ev *EventStep) attributes() ([]scssdk.NamedValue, error) {
	attrs := make([]scssdk.NamedValue, 0, len(ev.Attributes))
	for _, a := range ev.Attributes {
		v, err := a.value()
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", a.Name, err)
		}
		idx := scssdk.U32Nil
		if a.Index != nil {
			idx = *a.Index
		}
		attrs = append(attrs, scssdk.NamedValue{Name: a.Name, Index: idx, Value: *v})
	}
	return attrs, nil
}

// Play runs every step against host. It stops early when ctx is done.
func Play(ctx context.Context, host *simhost.Host, sc *Scenario) error {
	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := st.run(ctx, host); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (st Step) run(ctx context.Context, host *simhost.Host) error {
	switch {
	case st.Frame != nil:
		host.FrameStart(st.Frame.info())
		host.FrameEnd()
	case st.Pause:
		host.Pause()
	case st.Start:
		host.Start()
	case st.Channel != nil:
		var v *scssdk.Value
		if !st.Channel.None {
			var err error
			if v, err = st.Channel.value(); err != nil {
				return err
			}
		}
		return host.Channel(st.Channel.Name, v)
	case st.Configuration != nil:
		attrs, err := st.Configuration.attributes()
		if err != nil {
			return err
		}
		host.Configuration(st.Configuration.ID, attrs...)
	case st.Gameplay != nil:
		attrs, err := st.Gameplay.attributes()
		if err != nil {
			return err
		}
		host.Gameplay(st.Gameplay.ID, attrs...)
	case st.Sleep > 0:
		t := time.NewTimer(st.Sleep)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

func (f *FrameStep) info() scssdk.FrameStartInfo {
	info := scssdk.FrameStartInfo{
		RenderTime:           scssdk.Timestamp(f.Time),
		SimulationTime:       scssdk.Timestamp(f.Time),
		PausedSimulationTime: scssdk.Timestamp(f.Time),
	}
	if f.Render != nil {
		info.RenderTime = scssdk.Timestamp(*f.Render)
	}
	if f.Simulation != nil {
		info.SimulationTime = scssdk.Timestamp(*f.Simulation)
	}
	if f.Restart {
		info.Flags |= scssdk.FrameStartFlagTimerRestart
	}
	return info
}
