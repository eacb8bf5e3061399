package scsplugin

import (
	"sync"

	"github.com/OCAP2/telemetry-bridge/pkg/scssdk"
)

type channelKey struct {
	name  string
	index uint32
}

// registry maps what the game calls back with to the Go callbacks the
// plugin registered. The game passes no usable context, so lookups go by
// event id and channel name.
type registry struct {
	mu       sync.RWMutex
	events   map[scssdk.Event]scssdk.EventCallback
	channels map[channelKey]scssdk.ChannelCallback
}

func newRegistry() *registry {
	return &registry{
		events:   make(map[scssdk.Event]scssdk.EventCallback),
		channels: make(map[channelKey]scssdk.ChannelCallback),
	}
}

// addEvent stores cb unless the event already has a callback.
func (r *registry) addEvent(event scssdk.Event, cb scssdk.EventCallback) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event]; ok {
		return false
	}
	r.events[event] = cb
	return true
}

func (r *registry) removeEvent(event scssdk.Event) {
	r.mu.Lock()
	delete(r.events, event)
	r.mu.Unlock()
}

func (r *registry) event(event scssdk.Event) scssdk.EventCallback {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.events[event]
}

// addChannel stores cb unless the channel already has a callback.
func (r *registry) addChannel(name string, index uint32, cb scssdk.ChannelCallback) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := channelKey{name: name, index: index}
	if _, ok := r.channels[key]; ok {
		return false
	}
	r.channels[key] = cb
	return true
}

func (r *registry) removeChannel(name string, index uint32) {
	r.mu.Lock()
	delete(r.channels, channelKey{name: name, index: index})
	r.mu.Unlock()
}

func (r *registry) channel(name string, index uint32) scssdk.ChannelCallback {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channels[channelKey{name: name, index: index}]
}

func (r *registry) size() (events, channels int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events), len(r.channels)
}
