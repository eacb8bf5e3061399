// Package diaglog writes the human readable telemetry.log that mirrors what
// the bridge sees from the game: lifecycle notes, event attributes and one
// semicolon separated line per rendered frame.
package diaglog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/OCAP2/telemetry-bridge/internal/snapshot"
	"github.com/OCAP2/telemetry-bridge/pkg/scssdk"
)

// Header is printed before the first data line and after every event that
// interrupts the frame stream.
const Header = "timestamp[us];raw rendering timestamp[us];raw simulation timestamp[us];" +
	"raw paused simulation timestamp[us];heading[deg];pitch[deg];roll[deg];speed[m/s];rpm;gear"

// Log is an open diagnostic log. Write errors are sticky and reported by
// Err and Close; the bridge never stops on them.
type Log struct {
	mu            sync.Mutex
	w             io.Writer
	closer        io.Closer
	headerPending bool
	err           error
}

// Open creates (truncating) the log file at path, creating parent
// directories as needed, and writes the opening line.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open diagnostic log: %w", err)
	}
	l := New(f)
	l.closer = f
	return l, nil
}

// New wraps w and writes the opening line.
func New(w io.Writer) *Log {
	l := &Log{w: w, headerPending: true}
	l.write("Log opened\n")
	return l
}

func (l *Log) write(s string) {
	if l.w == nil || l.err != nil {
		return
	}
	_, l.err = io.WriteString(l.w, s)
}

// Line writes one formatted line.
func (l *Log) Line(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.write(fmt.Sprintf(format, args...) + "\n")
}

// RequestHeader makes the next Frame print the column header first.
func (l *Log) RequestHeader() {
	l.mu.Lock()
	l.headerPending = true
	l.mu.Unlock()
}

// Frame writes one data line for s.
func (l *Log) Frame(s snapshot.VehicleSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.headerPending {
		l.headerPending = false
		l.write(Header + "\n")
	}
	l.write(FormatFrame(s) + "\n")
}

// FormatFrame renders s as a data line without the trailing newline.
func FormatFrame(s snapshot.VehicleSnapshot) string {
	line := fmt.Sprintf("%d;%d;%d;%d", s.FrameTime, s.RenderTime, s.SimulationTime, s.PausedSimulationTime)
	if o := s.Orientation; o != nil {
		line += fmt.Sprintf(";%f;%f;%f", o.Heading, o.Pitch, o.Roll)
	} else {
		line += ";---;---;---"
	}
	return line + fmt.Sprintf(";%f;%f;%d", s.Speed, s.RPM, s.Gear)
}

// Attributes writes one indented line per attribute.
func (l *Log) Attributes(attrs []scssdk.NamedValue) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, a := range attrs {
		l.write(FormatAttribute(a) + "\n")
	}
}

// FormatAttribute renders a as "  name[index] : type = value".
func FormatAttribute(a scssdk.NamedValue) string {
	s := "  " + a.Name
	if a.Index != scssdk.U32Nil {
		s += fmt.Sprintf("[%d]", a.Index)
	}
	return s + " : " + FormatValue(a.Value)
}

// FormatValue renders v with its type name. Orientations are shown in
// degrees.
func FormatValue(v scssdk.Value) string {
	switch v.Type {
	case scssdk.ValueTypeInvalid:
		return "none"
	case scssdk.ValueTypeBool:
		return fmt.Sprintf("bool = %t", v.Bool)
	case scssdk.ValueTypeS32:
		return fmt.Sprintf("s32 = %d", v.S32)
	case scssdk.ValueTypeU32:
		return fmt.Sprintf("u32 = %d", v.U32)
	case scssdk.ValueTypeS64:
		return fmt.Sprintf("s64 = %d", v.S64)
	case scssdk.ValueTypeU64:
		return fmt.Sprintf("u64 = %d", v.U64)
	case scssdk.ValueTypeFloat:
		return fmt.Sprintf("float = %f", v.Float)
	case scssdk.ValueTypeDouble:
		return fmt.Sprintf("double = %f", v.Double)
	case scssdk.ValueTypeFVector:
		return fmt.Sprintf("fvector = (%f,%f,%f)", v.FVector.X, v.FVector.Y, v.FVector.Z)
	case scssdk.ValueTypeDVector:
		return fmt.Sprintf("dvector = (%f,%f,%f)", v.DVector.X, v.DVector.Y, v.DVector.Z)
	case scssdk.ValueTypeEuler:
		return "euler = " + formatEuler(v.Euler)
	case scssdk.ValueTypeFPlacement:
		p := v.FPlacement.Position
		return fmt.Sprintf("fplacement = (%f,%f,%f) ", p.X, p.Y, p.Z) + formatEuler(v.FPlacement.Orientation)
	case scssdk.ValueTypeDPlacement:
		p := v.DPlacement.Position
		return fmt.Sprintf("dplacement = (%f,%f,%f) ", p.X, p.Y, p.Z) + formatEuler(v.DPlacement.Orientation)
	case scssdk.ValueTypeString:
		return "string = " + v.String
	default:
		return "unknown"
	}
}

func formatEuler(e scssdk.Euler) string {
	return fmt.Sprintf("h:%f p:%f r:%f", e.Heading*360, e.Pitch*360, e.Roll*360)
}

// Err returns the first write error, if any.
func (l *Log) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Close writes the closing line and closes the underlying file. Calling it
// again is a no-op.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.w == nil {
		return nil
	}
	l.write("Log ended\n")
	err := l.err
	if l.closer != nil {
		if cerr := l.closer.Close(); err == nil {
			err = cerr
		}
	}
	l.w = nil
	l.closer = nil
	return err
}
