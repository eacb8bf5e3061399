package scsplugin

/*
#include "telemetry.h"
*/
import "C"

import (
	"unsafe"

	"github.com/OCAP2/telemetry-bridge/pkg/scssdk"
)

// called by the game when it loads the plugin
//
//export scs_telemetry_init
func scs_telemetry_init(version C.scs_u32_t, params unsafe.Pointer) C.scs_result_t {
	p := Config.Plugin()
	if p == nil {
		return C.scs_result_t(scssdk.ResultGenericError)
	}

	// Only the 1.01 layout is known; anything else goes to the plugin
	// without parameters so it can refuse the version.
	if uint32(version) != scssdk.TelemetryVersion1_01 || params == nil {
		return C.scs_result_t(p.Init(uint32(version), scssdk.InitParams{}))
	}

	if Config.host() != nil {
		return C.scs_result_t(scssdk.ResultNotNow)
	}

	h := newCHost((*C.scs_telemetry_init_params_v101_t)(params))
	Config.setHost(h)

	res := p.Init(uint32(version), scssdk.InitParams{Common: h.common(), Host: h})
	if res != scssdk.ResultOK {
		Config.setHost(nil)
		h.release()
	}
	return C.scs_result_t(res)
}

// called by the game before it unloads the plugin
//
//export scs_telemetry_shutdown
func scs_telemetry_shutdown() {
	if p := Config.Plugin(); p != nil {
		p.Shutdown()
	}
	if h := Config.setHost(nil); h != nil {
		h.release()
	}
}

//export goTelemetryEvent
func goTelemetryEvent(event C.scs_event_t, info unsafe.Pointer, _ C.scs_context_t) {
	h := Config.host()
	if h == nil {
		return
	}
	ev := scssdk.Event(event)
	if cb := h.reg.event(ev); cb != nil {
		cb(ev, eventInfo(ev, info))
	}
}

//export goTelemetryChannel
func goTelemetryChannel(name *C.char, index C.scs_u32_t, value *C.scs_value_t, _ C.scs_context_t) {
	h := Config.host()
	if h == nil {
		return
	}
	n := C.GoString(name)
	if cb := h.reg.channel(n, uint32(index)); cb != nil {
		cb(n, uint32(index), goValue(value))
	}
}
