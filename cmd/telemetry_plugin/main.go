// Command telemetry_plugin is built as the shared library the game loads
// from its plugins directory:
//
//	go build -buildmode=c-shared -o telemetry_bridge.dll ./cmd/telemetry_plugin
package main

import "C" // required for -buildmode=c-shared

import (
	"fmt"
	"os"
	"time"

	"github.com/OCAP2/telemetry-bridge/internal/app"
	"github.com/OCAP2/telemetry-bridge/pkg/scsplugin"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentPluginVersion = "0.0.1"
	BuildDate            = "unknown"
)

// init runs when the game loads the library, before scs_telemetry_init.
func init() {
	dir, err := scsplugin.ModuleDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry bridge: %v, using working directory\n", err)
		dir = "."
	}

	a, err := load(dir, time.Now)
	if err != nil {
		// Without a plugin scs_telemetry_init reports a generic error and
		// the game carries on without telemetry.
		fmt.Fprintf(os.Stderr, "telemetry bridge: %v\n", err)
		return
	}
	scsplugin.SetPlugin(a.Bridge)
}

// load builds the application with config and logs beside the plugin.
func load(dir string, now func() time.Time) (*app.App, error) {
	a, err := app.New(app.Options{ConfigDir: dir, BaseDir: dir, Now: now})
	if err != nil {
		return nil, err
	}

	logger := a.Logger()
	logger.Info().
		Str("version", CurrentPluginVersion).
		Str("build", BuildDate).
		Str("dir", dir).
		Msg("Telemetry bridge loaded")
	return a, nil
}

func main() {}
