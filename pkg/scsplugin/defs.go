// Package scsplugin exports the C entry points the game looks for in a
// telemetry plugin library and forwards them to a scssdk.Plugin.
package scsplugin

import (
	"sync"

	"github.com/OCAP2/telemetry-bridge/pkg/scssdk"
)

// Config holds the plugin served by the exported entry points.
var Config configStruct

type configStruct struct {
	mu     sync.RWMutex
	plugin scssdk.Plugin
	active *cHost
}

// SetPlugin sets the plugin that scs_telemetry_init and
// scs_telemetry_shutdown drive. Call it from init in the library's main
// package, before the game loads the library.
func SetPlugin(p scssdk.Plugin) {
	Config.mu.Lock()
	Config.plugin = p
	Config.mu.Unlock()
}

// Plugin returns the configured plugin, or nil if not set.
func (c *configStruct) Plugin() scssdk.Plugin {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.plugin
}

func (c *configStruct) host() *cHost {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// setHost replaces the active host and returns the previous one.
func (c *configStruct) setHost(h *cHost) *cHost {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.active
	c.active = h
	return prev
}
