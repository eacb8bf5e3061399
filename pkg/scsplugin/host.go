package scsplugin

/*
#include <stdlib.h>
#include <string.h>
#include "telemetry.h"

extern void goTelemetryEvent(scs_event_t event, void *info, scs_context_t context);
extern void goTelemetryChannel(char *name, scs_u32_t index, scs_value_t *value, scs_context_t context);

static void call_log(const scs_telemetry_init_params_v101_t *p, scs_log_type_t type, const char *message) {
	if (p->common.log != NULL) {
		p->common.log(type, message);
	}
}

static scs_result_t call_register_for_event(const scs_telemetry_init_params_v101_t *p, scs_event_t event) {
	return p->register_for_event(event, (scs_telemetry_event_callback_t)goTelemetryEvent, NULL);
}

static scs_result_t call_unregister_from_event(const scs_telemetry_init_params_v101_t *p, scs_event_t event) {
	return p->unregister_from_event(event);
}

static scs_result_t call_register_for_channel(const scs_telemetry_init_params_v101_t *p, const char *name, scs_u32_t index, scs_value_type_t type, scs_u32_t flags) {
	return p->register_for_channel(name, index, type, flags, (scs_telemetry_channel_callback_t)goTelemetryChannel, NULL);
}

static scs_result_t call_unregister_from_channel(const scs_telemetry_init_params_v101_t *p, const char *name, scs_u32_t index, scs_value_type_t type) {
	return p->unregister_from_channel(name, index, type);
}

static void flatten_value(const scs_value_t *v, flat_value_t *out) {
	memset(out, 0, sizeof(*out));
	out->type = v->type;
	switch (v->type) {
	case 1: out->b = v->u.value_bool.value; break;
	case 2: out->s32 = v->u.value_s32.value; break;
	case 3: out->u32 = v->u.value_u32.value; break;
	case 4: out->u64 = v->u.value_u64.value; break;
	case 5: out->f = v->u.value_float.value; break;
	case 6: out->d = v->u.value_double.value; break;
	case 7:
		out->fv[0] = v->u.value_fvector.x;
		out->fv[1] = v->u.value_fvector.y;
		out->fv[2] = v->u.value_fvector.z;
		break;
	case 8:
		out->dv[0] = v->u.value_dvector.x;
		out->dv[1] = v->u.value_dvector.y;
		out->dv[2] = v->u.value_dvector.z;
		break;
	case 9:
		out->euler[0] = v->u.value_euler.heading;
		out->euler[1] = v->u.value_euler.pitch;
		out->euler[2] = v->u.value_euler.roll;
		break;
	case 10:
		out->fv[0] = v->u.value_fplacement.position.x;
		out->fv[1] = v->u.value_fplacement.position.y;
		out->fv[2] = v->u.value_fplacement.position.z;
		out->euler[0] = v->u.value_fplacement.orientation.heading;
		out->euler[1] = v->u.value_fplacement.orientation.pitch;
		out->euler[2] = v->u.value_fplacement.orientation.roll;
		break;
	case 11:
		out->dv[0] = v->u.value_dplacement.position.x;
		out->dv[1] = v->u.value_dplacement.position.y;
		out->dv[2] = v->u.value_dplacement.position.z;
		out->euler[0] = v->u.value_dplacement.orientation.heading;
		out->euler[1] = v->u.value_dplacement.orientation.pitch;
		out->euler[2] = v->u.value_dplacement.orientation.roll;
		break;
	case 12: out->str = v->u.value_string.value; break;
	case 13: out->s64 = v->u.value_s64.value; break;
	}
}
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/OCAP2/telemetry-bridge/pkg/scssdk"
)

// cHost implements scssdk.Host on top of the function table the game
// passes to scs_telemetry_init.
type cHost struct {
	params C.scs_telemetry_init_params_v101_t
	reg    *registry

	mu    sync.Mutex
	names map[string]*C.char
}

var _ scssdk.Host = (*cHost)(nil)

func newCHost(params *C.scs_telemetry_init_params_v101_t) *cHost {
	return &cHost{
		params: *params,
		reg:    newRegistry(),
		names:  make(map[string]*C.char),
	}
}

func (h *cHost) common() scssdk.CommonParams {
	return scssdk.CommonParams{
		GameName:    goString(h.params.common.game_name),
		GameID:      goString(h.params.common.game_id),
		GameVersion: uint32(h.params.common.game_version),
	}
}

// cName returns a C copy of name that stays valid until release.
func (h *cHost) cName(name string) *C.char {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cs, ok := h.names[name]; ok {
		return cs
	}
	cs := C.CString(name)
	h.names[name] = cs
	return cs
}

// release frees the channel names handed to the game. The game drops its
// registrations before unloading the plugin.
func (h *cHost) release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for name, cs := range h.names {
		C.free(unsafe.Pointer(cs))
		delete(h.names, name)
	}
}

func (h *cHost) Log(t scssdk.LogType, message string) {
	cs := C.CString(message)
	defer C.free(unsafe.Pointer(cs))
	C.call_log(&h.params, C.scs_log_type_t(t), cs)
}

// RegisterForEvent stores cb before asking the game, which may fire the
// event from inside the register call.
func (h *cHost) RegisterForEvent(event scssdk.Event, cb scssdk.EventCallback) scssdk.Result {
	if cb == nil {
		return scssdk.ResultInvalidParameter
	}
	if !h.reg.addEvent(event, cb) {
		return scssdk.ResultAlreadyRegistered
	}
	res := scssdk.Result(C.call_register_for_event(&h.params, C.scs_event_t(event)))
	if res != scssdk.ResultOK {
		h.reg.removeEvent(event)
	}
	return res
}

func (h *cHost) UnregisterFromEvent(event scssdk.Event) scssdk.Result {
	res := scssdk.Result(C.call_unregister_from_event(&h.params, C.scs_event_t(event)))
	h.reg.removeEvent(event)
	return res
}

func (h *cHost) RegisterForChannel(name string, index uint32, t scssdk.ValueType, flags scssdk.ChannelFlag, cb scssdk.ChannelCallback) scssdk.Result {
	if cb == nil || name == "" {
		return scssdk.ResultInvalidParameter
	}
	if !h.reg.addChannel(name, index, cb) {
		return scssdk.ResultAlreadyRegistered
	}
	res := scssdk.Result(C.call_register_for_channel(&h.params, h.cName(name),
		C.scs_u32_t(index), C.scs_value_type_t(t), C.scs_u32_t(flags)))
	if res != scssdk.ResultOK {
		h.reg.removeChannel(name, index)
	}
	return res
}

func (h *cHost) UnregisterFromChannel(name string, index uint32, t scssdk.ValueType) scssdk.Result {
	res := scssdk.Result(C.call_unregister_from_channel(&h.params, h.cName(name),
		C.scs_u32_t(index), C.scs_value_type_t(t)))
	h.reg.removeChannel(name, index)
	return res
}

func goString(s C.scs_string_t) string {
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

// goValue copies a game value. A nil value stays nil.
func goValue(v *C.scs_value_t) *scssdk.Value {
	if v == nil {
		return nil
	}
	var f C.flat_value_t
	C.flatten_value(v, &f)
	return flatValue{
		Type:   uint32(f._type),
		Bool:   uint8(f.b),
		S32:    int32(f.s32),
		U32:    uint32(f.u32),
		U64:    uint64(f.u64),
		S64:    int64(f.s64),
		Float:  float32(f.f),
		Double: float64(f.d),
		FV:     [3]float32{float32(f.fv[0]), float32(f.fv[1]), float32(f.fv[2])},
		DV:     [3]float64{float64(f.dv[0]), float64(f.dv[1]), float64(f.dv[2])},
		Euler:  [3]float32{float32(f.euler[0]), float32(f.euler[1]), float32(f.euler[2])},
		String: goString(f.str),
	}.value()
}

// namedValues walks an attribute list terminated by an entry without a name.
func namedValues(p *C.scs_named_value_t) []scssdk.NamedValue {
	var out []scssdk.NamedValue
	for p != nil && p.name != nil {
		out = append(out, scssdk.NamedValue{
			Name:  goString(p.name),
			Index: uint32(p.index),
			Value: *goValue(&p.value),
		})
		p = (*C.scs_named_value_t)(unsafe.Add(unsafe.Pointer(p), C.sizeof_scs_named_value_t))
	}
	return out
}

// eventInfo converts the payload of event into the scssdk type the
// plugin expects.
func eventInfo(event scssdk.Event, info unsafe.Pointer) any {
	if info == nil {
		return nil
	}
	switch event {
	case scssdk.EventFrameStart:
		fs := (*C.scs_telemetry_frame_start_t)(info)
		return &scssdk.FrameStartInfo{
			Flags:                uint32(fs.flags),
			RenderTime:           scssdk.Timestamp(fs.render_time),
			SimulationTime:       scssdk.Timestamp(fs.simulation_time),
			PausedSimulationTime: scssdk.Timestamp(fs.paused_simulation_time),
		}
	case scssdk.EventConfiguration:
		c := (*C.scs_telemetry_configuration_t)(info)
		return &scssdk.ConfigurationInfo{ID: goString(c.id), Attributes: namedValues(c.attributes)}
	case scssdk.EventGameplay:
		g := (*C.scs_telemetry_gameplay_event_t)(info)
		return &scssdk.GameplayEventInfo{ID: goString(g.id), Attributes: namedValues(g.attributes)}
	default:
		return nil
	}
}
