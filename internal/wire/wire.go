// Package wire encodes vehicle snapshots into the JSON datagram consumers
// read from the loopback socket.
//
// The format is fixed: keys, order and decimal places never change, and
// every message is a single newline-terminated JSON object.
package wire

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/OCAP2/telemetry-bridge/internal/snapshot"
)

// MaxMessageSize is the largest datagram the encoder will produce.
const MaxMessageSize = 512

var (
	// ErrMessageTooLarge is returned when the encoded message exceeds MaxMessageSize.
	ErrMessageTooLarge = errors.New("encoded message exceeds size bound")
	// ErrNonFinite is returned when a field is NaN or infinite, which JSON
	// cannot represent.
	ErrNonFinite = errors.New("non-finite value")
)

type floatField struct {
	name string
	key  string
	prec int
	get  func(*snapshot.VehicleSnapshot) float32
}

var (
	speedField = floatField{"speed", `{"speed":`, 3, func(s *snapshot.VehicleSnapshot) float32 { return s.Speed }}
	rpmField   = floatField{"rpm", `,"rpm":`, 1, func(s *snapshot.VehicleSnapshot) float32 { return s.RPM }}

	controlFields = []floatField{
		{"steer", `,"steer":`, 3, func(s *snapshot.VehicleSnapshot) float32 { return s.Steering }},
		{"throttle", `,"throttle":`, 3, func(s *snapshot.VehicleSnapshot) float32 { return s.Throttle }},
		{"brake", `,"brake":`, 3, func(s *snapshot.VehicleSnapshot) float32 { return s.Brake }},
		{"clutch", `,"clutch":`, 3, func(s *snapshot.VehicleSnapshot) float32 { return s.Clutch }},
		{"cruise", `,"cruise":`, 3, func(s *snapshot.VehicleSnapshot) float32 { return s.CruiseControl }},
	}
)

// Encode renders the snapshot as
//
//	{"speed":S,"rpm":R,"gear":G,"dgear":D,"steer":S,"throttle":T,"brake":B,"clutch":C,"cruise":K}\n
//
// A zero float, negative zero included, is always written as positive zero.
func Encode(s snapshot.VehicleSnapshot) ([]byte, error) {
	buf := make([]byte, 0, MaxMessageSize)

	var err error
	if buf, err = appendFloat(buf, speedField, &s); err != nil {
		return nil, err
	}
	if buf, err = appendFloat(buf, rpmField, &s); err != nil {
		return nil, err
	}
	buf = append(buf, `,"gear":`...)
	buf = strconv.AppendInt(buf, int64(s.Gear), 10)
	buf = append(buf, `,"dgear":`...)
	buf = strconv.AppendInt(buf, int64(s.DisplayedGear), 10)
	for _, f := range controlFields {
		if buf, err = appendFloat(buf, f, &s); err != nil {
			return nil, err
		}
	}
	buf = append(buf, '}', '\n')

	if len(buf) > MaxMessageSize {
		return nil, fmt.Errorf("%d bytes: %w", len(buf), ErrMessageTooLarge)
	}
	return buf, nil
}

func appendFloat(buf []byte, f floatField, s *snapshot.VehicleSnapshot) ([]byte, error) {
	v := float64(f.get(s))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%s: %w", f.name, ErrNonFinite)
	}
	if v == 0 {
		v = 0
	}
	buf = append(buf, f.key...)
	return strconv.AppendFloat(buf, v, 'f', f.prec, 64), nil
}
