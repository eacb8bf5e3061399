package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformed is returned by Decode for anything Encode would not produce.
var ErrMalformed = errors.New("malformed telemetry message")

// Message is a decoded datagram.
type Message struct {
	Speed         float64 `json:"speed"`
	RPM           float64 `json:"rpm"`
	Gear          int32   `json:"gear"`
	DisplayedGear int32   `json:"dgear"`
	Steering      float64 `json:"steer"`
	Throttle      float64 `json:"throttle"`
	Brake         float64 `json:"brake"`
	Clutch        float64 `json:"clutch"`
	CruiseControl float64 `json:"cruise"`
}

// Keys lists the message keys in wire order.
var Keys = []string{"speed", "rpm", "gear", "dgear", "steer", "throttle", "brake", "clutch", "cruise"}

// decimals is the number of fraction digits Encode writes per key. Integer
// keys have none and no decimal point.
var decimals = func() map[string]int {
	d := map[string]int{
		speedField.name: speedField.prec,
		rpmField.name:   rpmField.prec,
		"gear":          0,
		"dgear":         0,
	}
	for _, f := range controlFields {
		d[f.name] = f.prec
	}
	return d
}()

// Decode parses one datagram. It must be exactly what Encode writes: a
// single newline-terminated JSON object with Keys in order and each number
// in fixed-point form with the key's precision.
func Decode(msg []byte) (Message, error) {
	var m Message
	if len(msg) > MaxMessageSize {
		return m, fmt.Errorf("%w: %d bytes", ErrMalformed, len(msg))
	}
	body, ok := bytes.CutSuffix(msg, []byte("\n"))
	if !ok {
		return m, fmt.Errorf("%w: missing trailing newline", ErrMalformed)
	}
	if err := checkLayout(body); err != nil {
		return m, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if err := json.Unmarshal(body, &m); err != nil {
		return m, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return m, nil
}

func checkLayout(body []byte) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	if tok, err := dec.Token(); err != nil {
		return err
	} else if tok != json.Delim('{') {
		return fmt.Errorf("expected object, got %v", tok)
	}

	for _, want := range Keys {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if key, _ := tok.(string); key != want {
			return fmt.Errorf("got key %v, want %q", tok, want)
		}
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		num, ok := tok.(json.Number)
		if !ok {
			return fmt.Errorf("%s: %v is not a number", want, tok)
		}
		if err := checkNumber(string(num), decimals[want]); err != nil {
			return fmt.Errorf("%s: %w", want, err)
		}
	}

	if tok, err := dec.Token(); err != nil {
		return err
	} else if tok != json.Delim('}') {
		return fmt.Errorf("unexpected %v after %q", tok, Keys[len(Keys)-1])
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("trailing data after object")
	}
	return nil
}

func checkNumber(s string, places int) error {
	if strings.ContainsAny(s, "eE") {
		return fmt.Errorf("%s uses an exponent", s)
	}
	_, frac, dot := strings.Cut(s, ".")
	switch {
	case places == 0 && dot:
		return fmt.Errorf("%s is not an integer", s)
	case places > 0 && (!dot || len(frac) != places):
		return fmt.Errorf("%s does not have %d decimals", s, places)
	}
	if strings.HasPrefix(s, "-") && strings.Trim(s, "-0.") == "" {
		return fmt.Errorf("%s is negative zero", s)
	}
	return nil
}
