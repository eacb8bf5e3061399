package scssdk

// EventCallback receives a lifecycle event. info is *FrameStartInfo,
// *ConfigurationInfo or *GameplayEventInfo depending on the event, nil
// otherwise.
type EventCallback func(event Event, info any)

// ChannelCallback receives a channel value. value is nil when the channel
// was registered with ChannelFlagNoValue and became unavailable.
type ChannelCallback func(name string, index uint32, value *Value)

// Host is the registration surface the game hands to a plugin during init.
// Callbacks are invoked synchronously from the host's game thread.
type Host interface {
	Log(t LogType, message string)
	RegisterForEvent(event Event, cb EventCallback) Result
	UnregisterFromEvent(event Event) Result
	RegisterForChannel(name string, index uint32, t ValueType, flags ChannelFlag, cb ChannelCallback) Result
	UnregisterFromChannel(name string, index uint32, t ValueType) Result
}

// CommonParams identifies the running game.
type CommonParams struct {
	GameName    string
	GameID      string
	GameVersion uint32
}

// InitParams is what the host passes to Plugin.Init for TelemetryVersion1_01.
type InitParams struct {
	Common CommonParams
	Host   Host
}

// Plugin is implemented by telemetry plugins loaded by the host.
type Plugin interface {
	Init(version uint32, params InitParams) Result
	Shutdown()
}
