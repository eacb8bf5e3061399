package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/telemetry-bridge/internal/snapshot"
)

func TestDecode_EncodedMessage(t *testing.T) {
	msg, err := Encode(snapshot.VehicleSnapshot{
		Speed: 13.5, RPM: 1234.5, Gear: 7, DisplayedGear: -2,
		Steering: -0.25, Throttle: 0.8, Brake: 0.125, Clutch: 1, CruiseControl: 22.5,
	})
	require.NoError(t, err)

	got, err := Decode(msg)
	require.NoError(t, err)
	assert.Equal(t, Message{
		Speed: 13.5, RPM: 1234.5, Gear: 7, DisplayedGear: -2,
		Steering: -0.25, Throttle: 0.8, Brake: 0.125, Clutch: 1, CruiseControl: 22.5,
	}, got)
}

func TestDecode_Malformed(t *testing.T) {
	valid := `{"speed":0.000,"rpm":0.0,"gear":0,"dgear":0,"steer":0.000,"throttle":0.000,"brake":0.000,"clutch":0.000,"cruise":0.000}`

	tests := []struct {
		name string
		msg  string
	}{
		{"no newline", valid},
		{"not json", "speed=1\n"},
		{"array", "[1,2]\n"},
		{"two objects", valid + valid + "\n"},
		{"missing key", `{"speed":0.000,"rpm":0.0,"gear":0,"dgear":0,"steer":0.000,"throttle":0.000,"brake":0.000,"clutch":0.000}` + "\n"},
		{"extra key", `{"speed":0.000,"rpm":0.0,"gear":0,"dgear":0,"steer":0.000,"throttle":0.000,"brake":0.000,"clutch":0.000,"cruise":0.000,"fuel":1}` + "\n"},
		{"fractional gear", `{"speed":0.000,"rpm":0.0,"gear":1.5,"dgear":0,"steer":0.000,"throttle":0.000,"brake":0.000,"clutch":0.000,"cruise":0.000}` + "\n"},
		{"too large", string(make([]byte, MaxMessageSize+1))},
		{"reordered keys", `{"rpm":0.0,"speed":0.000,"gear":0,"dgear":0,"steer":0.000,"throttle":0.000,"brake":0.000,"clutch":0.000,"cruise":0.000}` + "\n"},
		{"short precision", `{"speed":27.8,"rpm":0.0,"gear":0,"dgear":0,"steer":0.000,"throttle":0.000,"brake":0.000,"clutch":0.000,"cruise":0.000}` + "\n"},
		{"long precision", `{"speed":0.000,"rpm":0.00,"gear":0,"dgear":0,"steer":0.000,"throttle":0.000,"brake":0.000,"clutch":0.000,"cruise":0.000}` + "\n"},
		{"integer float", `{"speed":0,"rpm":0.0,"gear":0,"dgear":0,"steer":0.000,"throttle":0.000,"brake":0.000,"clutch":0.000,"cruise":0.000}` + "\n"},
		{"decimal gear", `{"speed":0.000,"rpm":0.0,"gear":0,"dgear":1.0,"steer":0.000,"throttle":0.000,"brake":0.000,"clutch":0.000,"cruise":0.000}` + "\n"},
		{"exponent", `{"speed":0.000,"rpm":1e3,"gear":0,"dgear":0,"steer":0.000,"throttle":0.000,"brake":0.000,"clutch":0.000,"cruise":0.000}` + "\n"},
		{"negative zero", `{"speed":0.000,"rpm":0.0,"gear":0,"dgear":0,"steer":-0.000,"throttle":0.000,"brake":0.000,"clutch":0.000,"cruise":0.000}` + "\n"},
		{"string value", `{"speed":"0.000","rpm":0.0,"gear":0,"dgear":0,"steer":0.000,"throttle":0.000,"brake":0.000,"clutch":0.000,"cruise":0.000}` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.msg))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}

	_, err := Decode([]byte(valid + "\n"))
	assert.NoError(t, err)
}
