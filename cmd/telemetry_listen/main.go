// telemetry_listen receives the bridge's datagrams, checks that each one
// is a well formed telemetry message and prints it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/OCAP2/telemetry-bridge/internal/sink"
)

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
		addr  string
		count int
		raw   bool
	)

	flagSet := pflag.NewFlagSet("telemetry_listen", pflag.ContinueOnError)
	flagSet.SetOutput(stdout)
	flagSet.StringVar(&addr, "addr", sink.DefaultAddress, "UDP address to listen on")
	flagSet.IntVar(&count, "count", 0, "exit after this many datagrams, 0 to run until interrupted")
	flagSet.BoolVar(&raw, "raw", false, "print datagrams verbatim instead of as log lines")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	defer conn.Close()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: stdout, NoColor: true, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	logger.Info().Str("addr", conn.LocalAddr().String()).Msg("Listening for telemetry")

	stats, err := Listen(ctx, conn, count, func(d Datagram) {
		switch {
		case raw:
			fmt.Fprint(stdout, string(d.Payload))
		case d.Err != nil:
			logger.Warn().Err(d.Err).Str("from", d.From).Bytes("payload", d.Payload).Msg("Invalid datagram")
		default:
			m := d.Message
			logger.Info().
				Float64("speed", m.Speed).
				Float64("rpm", m.RPM).
				Int32("gear", m.Gear).
				Int32("dgear", m.DisplayedGear).
				Float64("steer", m.Steering).
				Float64("throttle", m.Throttle).
				Float64("brake", m.Brake).
				Float64("clutch", m.Clutch).
				Float64("cruise", m.CruiseControl).
				Msg("Telemetry")
		}
	})
	logger.Info().Int("received", stats.Received).Int("invalid", stats.Invalid).Msg("Stopped listening")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
