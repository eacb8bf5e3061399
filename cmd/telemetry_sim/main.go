// telemetry_sim drives a telemetry bridge through a simulated game. It
// plays a YAML scenario of lifecycle events, frames and channel values so
// the datagram stream and the diagnostic outputs can be checked without
// the game running.
package main

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/OCAP2/telemetry-bridge/internal/app"
	"github.com/OCAP2/telemetry-bridge/internal/router"
	"github.com/OCAP2/telemetry-bridge/pkg/scssdk"
	"github.com/OCAP2/telemetry-bridge/pkg/scssdk/simhost"
)

//go:embed default.yaml
var defaultScenario []byte

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var (
		scenarioPath string
		configDir    string
		game         string
		gameVersion  string
		loop         int
	)

	flagSet := pflag.NewFlagSet("telemetry_sim", pflag.ContinueOnError)
	flagSet.SetOutput(stdout)
	flagSet.StringVar(&scenarioPath, "scenario", "", "scenario YAML file (default: built-in depot departure)")
	flagSet.StringVar(&configDir, "config-dir", ".", "directory holding telemetry_bridge.cfg.json; a relative logsDir is resolved against it")
	flagSet.StringVar(&game, "game", scssdk.GameIDEUT2, "game id reported to the bridge (eut2, ats)")
	flagSet.StringVar(&gameVersion, "game-version", "", "game version as major.minor (default: current for the game)")
	flagSet.IntVar(&loop, "loop", 1, "play the scenario this many times, 0 to repeat until interrupted")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	sc, err := readScenario(scenarioPath)
	if err != nil {
		return err
	}
	if err := checkChannelTypes(sc); err != nil {
		return err
	}
	common, err := gameParams(game, gameVersion)
	if err != nil {
		return err
	}

	a, err := app.New(app.Options{ConfigDir: configDir, BaseDir: configDir, Console: true})
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.Logger()

	host := simhost.New(common)
	if res := host.Load(a.Bridge); res != scssdk.ResultOK {
		return fmt.Errorf("bridge refused to initialize: %s", res)
	}
	defer host.Unload(a.Bridge)

	logger.Info().Str("scenario", sc.Name).Int("steps", len(sc.Steps)).Int("loop", loop).Msg("Playing scenario")
	for i := 0; loop == 0 || i < loop; i++ {
		if err := Play(ctx, host, sc); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			return err
		}
	}

	stats := a.Bridge.Stats()
	fmt.Fprintf(stdout, "scenario=%q emitted=%d encodeFailures=%d sendFailures=%d diagnosticLog=%s\n",
		sc.Name, stats.Emitted, stats.EncodeFails, stats.SendFails, a.LogsDir())
	return nil
}

func readScenario(path string) (*Scenario, error) {
	if path == "" {
		return LoadScenario(bytes.NewReader(defaultScenario))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open scenario: %w", err)
	}
	defer f.Close()
	sc, err := LoadScenario(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// checkChannelTypes rejects values the bridge would treat as a host
// contract violation.
func checkChannelTypes(sc *Scenario) error {
	types := make(map[string]scssdk.ValueType, len(router.Bindings))
	for _, b := range router.Bindings {
		types[b.Channel] = b.Type
	}
	for i, st := range sc.Steps {
		if st.Channel == nil || st.Channel.None {
			continue
		}
		want, ok := types[st.Channel.Name]
		if !ok {
			continue
		}
		v, err := st.Channel.value()
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		if v.Type != want {
			return fmt.Errorf("step %d: channel %s takes %s, got %s", i+1, st.Channel.Name, want, v.Type)
		}
	}
	return nil
}

func gameParams(game, version string) (scssdk.CommonParams, error) {
	common := scssdk.CommonParams{GameID: game}
	switch game {
	case scssdk.GameIDEUT2:
		common.GameName = "Euro Truck Simulator 2"
		common.GameVersion = scssdk.EUT2GameVersionCurrent
	case scssdk.GameIDATS:
		common.GameName = "American Truck Simulator"
		common.GameVersion = scssdk.ATSGameVersionCurrent
	default:
		common.GameName = game
	}
	if version == "" {
		return common, nil
	}
	v, err := parseVersion(version)
	if err != nil {
		return common, err
	}
	common.GameVersion = v
	return common, nil
}

func parseVersion(s string) (uint32, error) {
	major, minor, ok := strings.Cut(s, ".")
	if !ok {
		return 0, fmt.Errorf("invalid game version %q: want major.minor", s)
	}
	ma, err := strconv.ParseUint(major, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid game version %q: %w", s, err)
	}
	mi, err := strconv.ParseUint(minor, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid game version %q: %w", s, err)
	}
	return scssdk.MakeVersion(uint16(ma), uint16(mi)), nil
}
