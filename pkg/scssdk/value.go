package scssdk

import "fmt"

// ValueType tags the active member of a Value.
type ValueType uint32

const (
	ValueTypeInvalid    ValueType = 0
	ValueTypeBool       ValueType = 1
	ValueTypeS32        ValueType = 2
	ValueTypeU32        ValueType = 3
	ValueTypeU64        ValueType = 4
	ValueTypeFloat      ValueType = 5
	ValueTypeDouble     ValueType = 6
	ValueTypeFVector    ValueType = 7
	ValueTypeDVector    ValueType = 8
	ValueTypeEuler      ValueType = 9
	ValueTypeFPlacement ValueType = 10
	ValueTypeDPlacement ValueType = 11
	ValueTypeString     ValueType = 12
	ValueTypeS64        ValueType = 13
)

var valueTypeNames = [...]string{
	"invalid", "bool", "s32", "u32", "u64", "float", "double",
	"fvector", "dvector", "euler", "fplacement", "dplacement", "string", "s64",
}

func (t ValueType) String() string {
	if int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint32(t))
}

// FVector is a single precision vector.
type FVector struct{ X, Y, Z float32 }

// DVector is a double precision vector.
type DVector struct{ X, Y, Z float64 }

// Euler holds an orientation. Each angle is a fraction of a full turn, so
// 0.25 heading means 90 degrees.
type Euler struct{ Heading, Pitch, Roll float32 }

// FPlacement is a single precision position plus orientation.
type FPlacement struct {
	Position    FVector
	Orientation Euler
}

// DPlacement is a double precision position plus orientation.
type DPlacement struct {
	Position    DVector
	Orientation Euler
}

// Value is the tagged union the host passes to channel callbacks and in
// event attributes. Only the member matching Type is meaningful.
type Value struct {
	Type       ValueType
	Bool       bool
	S32        int32
	U32        uint32
	U64        uint64
	S64        int64
	Float      float32
	Double     float64
	FVector    FVector
	DVector    DVector
	Euler      Euler
	FPlacement FPlacement
	DPlacement DPlacement
	String     string
}

// FloatValue builds a float value.
func FloatValue(v float32) *Value { return &Value{Type: ValueTypeFloat, Float: v} }

// S32Value builds a signed 32-bit value.
func S32Value(v int32) *Value { return &Value{Type: ValueTypeS32, S32: v} }

// EulerValue builds an orientation value from fractions of a turn.
func EulerValue(heading, pitch, roll float32) *Value {
	return &Value{Type: ValueTypeEuler, Euler: Euler{Heading: heading, Pitch: pitch, Roll: roll}}
}

// StringValue builds a string value.
func StringValue(v string) *Value { return &Value{Type: ValueTypeString, String: v} }

// NamedValue is one attribute of a configuration or gameplay event.
type NamedValue struct {
	Name  string
	Index uint32
	Value Value
}
