package scsplugin

import "github.com/OCAP2/telemetry-bridge/pkg/scssdk"

// flatValue is the Go side of flat_value_t: every union member of the
// game's value laid out side by side.
type flatValue struct {
	Type   uint32
	Bool   uint8
	S32    int32
	U32    uint32
	U64    uint64
	S64    int64
	Float  float32
	Double float64
	FV     [3]float32
	DV     [3]float64
	Euler  [3]float32
	String string
}

func (f flatValue) value() *scssdk.Value {
	v := &scssdk.Value{Type: scssdk.ValueType(f.Type)}
	euler := scssdk.Euler{Heading: f.Euler[0], Pitch: f.Euler[1], Roll: f.Euler[2]}

	switch v.Type {
	case scssdk.ValueTypeBool:
		v.Bool = f.Bool != 0
	case scssdk.ValueTypeS32:
		v.S32 = f.S32
	case scssdk.ValueTypeU32:
		v.U32 = f.U32
	case scssdk.ValueTypeU64:
		v.U64 = f.U64
	case scssdk.ValueTypeS64:
		v.S64 = f.S64
	case scssdk.ValueTypeFloat:
		v.Float = f.Float
	case scssdk.ValueTypeDouble:
		v.Double = f.Double
	case scssdk.ValueTypeFVector:
		v.FVector = scssdk.FVector{X: f.FV[0], Y: f.FV[1], Z: f.FV[2]}
	case scssdk.ValueTypeDVector:
		v.DVector = scssdk.DVector{X: f.DV[0], Y: f.DV[1], Z: f.DV[2]}
	case scssdk.ValueTypeEuler:
		v.Euler = euler
	case scssdk.ValueTypeFPlacement:
		v.FPlacement = scssdk.FPlacement{
			Position:    scssdk.FVector{X: f.FV[0], Y: f.FV[1], Z: f.FV[2]},
			Orientation: euler,
		}
	case scssdk.ValueTypeDPlacement:
		v.DPlacement = scssdk.DPlacement{
			Position:    scssdk.DVector{X: f.DV[0], Y: f.DV[1], Z: f.DV[2]},
			Orientation: euler,
		}
	case scssdk.ValueTypeString:
		v.String = f.String
	}
	return v
}
