package main

import (
	"context"
	"errors"
	"net"
	"os"
	"time"

	"github.com/OCAP2/telemetry-bridge/internal/wire"
)

// pollInterval bounds how long a read blocks before ctx is checked again.
const pollInterval = 200 * time.Millisecond

// Datagram is one received message. Err is set when the payload is not a
// valid telemetry message.
type Datagram struct {
	From    string
	Payload []byte
	Message wire.Message
	Err     error
}

// ListenStats counts what Listen received.
type ListenStats struct {
	Received int
	Invalid  int
}

// Listen reads datagrams from conn and hands each one to handle until ctx
// is done or, when count is positive, count datagrams were received.
func Listen(ctx context.Context, conn net.PacketConn, count int, handle func(Datagram)) (ListenStats, error) {
	var stats ListenStats
	buf := make([]byte, 64*1024)

	for count <= 0 || stats.Received < count {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := conn.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			return stats, err
		}
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			return stats, err
		}

		d := Datagram{From: from.String(), Payload: append([]byte(nil), buf[:n]...)}
		d.Message, d.Err = wire.Decode(d.Payload)
		stats.Received++
		if d.Err != nil {
			stats.Invalid++
		}
		handle(d)
	}
	return stats, nil
}
