// Package sink sends encoded snapshots to the local consumer as UDP datagrams.
//
// Delivery is best effort: a failed write is counted and reported to the
// caller, never retried. The destination is fixed at construction.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DefaultAddress is where consumers listen for the feed.
const DefaultAddress = "127.0.0.1:49001"

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("sink closed")

// WarnInterval is the minimum gap between two "delivery failing" warnings.
const WarnInterval = time.Minute

// Sink is a best-effort datagram destination.
type Sink interface {
	Send(msg []byte) error
	Close() error
}

// Conn is a datagram socket bound to one destination.
type Conn interface {
	Write(b []byte) (int, error)
	Close() error
	RemoteAddr() net.Addr
}

// Dialer opens a datagram socket for address.
type Dialer func(network, address string) (Conn, error)

// DialUDP is the default Dialer. The socket is left unconnected so ICMP
// port-unreachable replies from an absent consumer never surface as write
// errors.
func DialUDP(network, address string) (Conn, error) {
	raddr, err := net.ResolveUDPAddr(network, address)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve address %s: %w", address, err)
	}
	if raddr.IP.To4() != nil {
		network = "udp4"
	}
	conn, err := net.ListenUDP(network, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open socket to %s: %w", address, err)
	}
	return &udpConn{UDPConn: conn, raddr: raddr}, nil
}

// udpConn sends every write to raddr with sendto.
type udpConn struct {
	*net.UDPConn
	raddr *net.UDPAddr
}

func (c *udpConn) Write(b []byte) (int, error) {
	return c.UDPConn.WriteToUDP(b, c.raddr)
}

func (c *udpConn) RemoteAddr() net.Addr {
	return c.raddr
}

// Option configures a UDPSink.
type Option func(*options)

type options struct {
	dialer Dialer
	logger zerolog.Logger
	now    func() time.Time
}

// WithDialer replaces the socket factory, mainly for tests.
func WithDialer(d Dialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithLogger sets the logger used for delivery state changes.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClock replaces time.Now for warning rate limiting.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Stats counts datagrams since the sink was opened.
type Stats struct {
	Sent   uint64
	Failed uint64
}

// UDPSink writes each message as one datagram.
type UDPSink struct {
	conn    Conn
	address string
	log     zerolog.Logger
	now     func() time.Time

	sentCounter   metric.Int64Counter
	failedCounter metric.Int64Counter
	addrAttr      attribute.KeyValue

	sent   atomic.Uint64
	failed atomic.Uint64

	// failing is set from the first failed write until the next success.
	// warned records whether that episode was logged.
	failing  bool
	warned   bool
	lastWarn time.Time

	mu     sync.Mutex
	closed bool
}

// New opens a datagram socket to address.
func New(address string, opts ...Option) (*UDPSink, error) {
	o := options{dialer: DialUDP, logger: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	m := meter()
	sent, err := m.Int64Counter("sink.datagrams.sent",
		metric.WithDescription("Datagrams written to the consumer socket"))
	if err != nil {
		return nil, fmt.Errorf("creating sent counter: %w", err)
	}
	failed, err := m.Int64Counter("sink.datagrams.failed",
		metric.WithDescription("Datagrams the socket refused"))
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	conn, err := o.dialer("udp", address)
	if err != nil {
		return nil, err
	}

	return &UDPSink{
		conn:          conn,
		address:       address,
		log:           o.logger,
		now:           o.now,
		sentCounter:   sent,
		failedCounter: failed,
		addrAttr:      attribute.String("address", address),
	}, nil
}

// Address returns the destination the sink was opened for.
func (s *UDPSink) Address() string {
	return s.address
}

// Send writes msg as a single datagram.
func (s *UDPSink) Send(msg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	n, err := s.conn.Write(msg)
	if err == nil && n < len(msg) {
		err = io.ErrShortWrite
	}
	if err != nil {
		s.failed.Add(1)
		s.failedCounter.Add(context.Background(), 1, metric.WithAttributes(s.addrAttr))
		if !s.failing {
			s.failing = true
			now := s.now()
			if s.lastWarn.IsZero() || now.Sub(s.lastWarn) >= WarnInterval {
				s.warned = true
				s.lastWarn = now
				s.log.Warn().Err(err).Str("address", s.address).Msg("Datagram delivery failing")
			}
		}
		return fmt.Errorf("send to %s: %w", s.address, err)
	}

	s.sent.Add(1)
	s.sentCounter.Add(context.Background(), 1, metric.WithAttributes(s.addrAttr))
	if s.failing {
		s.failing = false
		if s.warned {
			s.warned = false
			s.log.Info().Str("address", s.address).Uint64("failed", s.failed.Load()).Msg("Datagram delivery recovered")
		}
	}
	return nil
}

// Stats returns the delivery counters.
func (s *UDPSink) Stats() Stats {
	return Stats{Sent: s.sent.Load(), Failed: s.failed.Load()}
}

// Close releases the socket. Calling it again is a no-op.
func (s *UDPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}

// Discard is the sink used when the socket could not be opened.
type Discard struct{}

// Send drops msg.
func (Discard) Send([]byte) error { return nil }

// Close does nothing.
func (Discard) Close() error { return nil }
