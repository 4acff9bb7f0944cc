package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unsafe"

	"github.com/dlclark/regexp2"
)

type ValueType uint8

const (
	TypeUndefined ValueType = iota
	TypeNull

	TypeString
	TypeSymbol

	TypeFloatNumber
	TypeIntegerNumber

	TypeBoolean

	TypeNativeFunction
	TypeNativeFunctionWithProps

	TypeObject
)

// String returns a human-readable string representation of the ValueType
func (vt ValueType) String() string {
	switch vt {
	case TypeNull:
		return "null"
	case TypeUndefined:
		return "undefined"
	case TypeString:
		return "string"
	case TypeSymbol:
		return "symbol"
	case TypeFloatNumber, TypeIntegerNumber:
		return "number"
	case TypeBoolean:
		return "boolean"
	case TypeNativeFunction, TypeNativeFunctionWithProps:
		return "native function"
	case TypeObject:
		return "object"
	default:
		return fmt.Sprintf("<unknown type: %d>", vt)
	}
}

type StringObject struct {
	Object
	value string
}

type SymbolObject struct {
	Object
	value string
}

type Value struct {
	typ     ValueType
	payload uint64
	obj     unsafe.Pointer
}

var (
	Undefined = Value{typ: TypeUndefined}
	Null      = Value{typ: TypeNull}
	True      = Value{typ: TypeBoolean, payload: 1}
	False     = Value{typ: TypeBoolean, payload: 0}
	NaN       = Value{typ: TypeFloatNumber, payload: math.Float64bits(math.NaN())}
)

func NumberValue(value float64) Value {
	return Value{typ: TypeFloatNumber, payload: math.Float64bits(value)}
}

func IntegerValue(value int32) Value {
	return Value{typ: TypeIntegerNumber, payload: uint64(int64(value))}
}

func BooleanValue(value bool) Value {
	if value {
		return True
	}
	return False
}

func NewString(value string) Value {
	return Value{typ: TypeString, obj: unsafe.Pointer(&StringObject{value: value})}
}

// NewSymbol creates a fresh symbol. Every call yields a distinct identity.
func NewSymbol(description string) Value {
	return Value{typ: TypeSymbol, obj: unsafe.Pointer(&SymbolObject{value: description})}
}

func NewValueFromPlainObject(plainObj *PlainObject) Value {
	return Value{typ: TypeObject, obj: unsafe.Pointer(plainObj)}
}

func (v Value) IsNumber() bool {
	return v.typ == TypeFloatNumber || v.typ == TypeIntegerNumber
}

func (v Value) IsString() bool {
	return v.typ == TypeString
}

func (v Value) IsSymbol() bool {
	return v.typ == TypeSymbol
}

func (v Value) IsBoolean() bool {
	return v.typ == TypeBoolean
}

func (v Value) IsObject() bool {
	return v.typ == TypeObject
}

func (v Value) IsCallable() bool {
	return v.typ == TypeNativeFunction || v.typ == TypeNativeFunctionWithProps
}

func (v Value) IsUndefined() bool {
	return v.typ == TypeUndefined
}

func (v Value) IsNull() bool {
	return v.typ == TypeNull
}

// IsObjectLike reports whether v can carry properties (plain objects and functions).
func (v Value) IsObjectLike() bool {
	return v.typ == TypeObject || v.IsCallable()
}

func (v Value) Type() ValueType {
	return v.typ
}

func (v Value) TypeName() string {
	switch v.typ {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeFloatNumber, TypeIntegerNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeSymbol:
		return "symbol"
	case TypeNativeFunction, TypeNativeFunctionWithProps:
		return "function"
	case TypeObject:
		return "object"
	default:
		return fmt.Sprintf("<unknown type: %d>", v.typ)
	}
}

func (v Value) AsFloat() float64 {
	if v.typ != TypeFloatNumber {
		panic("value is not a float")
	}
	return math.Float64frombits(v.payload)
}

func (v Value) AsInteger() int32 {
	if v.typ != TypeIntegerNumber {
		panic("value is not an integer")
	}
	return int32(v.payload)
}

func (v Value) AsString() string {
	if v.typ != TypeString {
		panic("value is not a string")
	}
	return (*StringObject)(v.obj).value
}

func (v Value) AsSymbol() string {
	if v.typ != TypeSymbol {
		panic("value is not a symbol")
	}
	return (*SymbolObject)(v.obj).value
}

func (v Value) AsPlainObject() *PlainObject {
	if v.typ != TypeObject {
		panic("value is not an object")
	}
	return (*PlainObject)(v.obj)
}

func (v Value) AsNativeFunction() *NativeFunctionObject {
	switch v.typ {
	case TypeNativeFunction:
		return (*NativeFunctionObject)(v.obj)
	case TypeNativeFunctionWithProps:
		return &(*NativeFunctionObjectWithProps)(v.obj).NativeFunctionObject
	}
	panic("value is not a native function")
}

func (v Value) AsNativeFunctionWithProps() *NativeFunctionObjectWithProps {
	if v.typ != TypeNativeFunctionWithProps {
		panic("value is not a native function with props")
	}
	return (*NativeFunctionObjectWithProps)(v.obj)
}

func (v Value) AsBoolean() bool {
	if v.typ != TypeBoolean {
		panic("value is not a boolean")
	}
	return v.payload != 0
}

// ToFloat converts the value to a float64 following ToNumber for the
// primitive types this runtime models. Objects convert to NaN.
func (v Value) ToFloat() float64 {
	switch v.typ {
	case TypeFloatNumber:
		return v.AsFloat()
	case TypeIntegerNumber:
		return float64(v.AsInteger())
	case TypeBoolean:
		if v.AsBoolean() {
			return 1
		}
		return 0
	case TypeNull:
		return 0
	case TypeString:
		return stringToNumber(v.AsString())
	default:
		return math.NaN()
	}
}

// decimalLiteral matches StrDecimalLiteral without the Infinity forms.
var decimalLiteral = regexp2.MustCompile(`^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?$`, regexp2.None)

// stringToNumber applies the StringNumericLiteral grammar. Out-of-range
// decimals round to a signed infinity.
func stringToNumber(str string) float64 {
	s := strings.TrimFunc(str, func(r rune) bool { return unicode.IsSpace(r) || r == '\uFEFF' })
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			return radixToNumber(s[2:], 16)
		case 'o', 'O':
			return radixToNumber(s[2:], 8)
		case 'b', 'B':
			return radixToNumber(s[2:], 2)
		}
	}
	if ok, _ := decimalLiteral.MatchString(s); !ok {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, isNum := err.(*strconv.NumError); isNum && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}

// radixToNumber reads unsigned digits in the given base. Values past 2^53
// accumulate in float64 the same way the binary literal grammar does.
func radixToNumber(digits string, base int) float64 {
	if digits == "" {
		return math.NaN()
	}
	var n float64
	for _, r := range digits {
		d, ok := digitValue(r)
		if !ok || d >= base {
			return math.NaN()
		}
		n = n*float64(base) + float64(d)
	}
	return n
}

func digitValue(r rune) (int, bool) {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0'), true
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10, true
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10, true
	}
	return 0, false
}

func (v Value) ToString() string {
	switch v.typ {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		if v.AsBoolean() {
			return "true"
		}
		return "false"
	case TypeIntegerNumber:
		return strconv.FormatInt(int64(v.AsInteger()), 10)
	case TypeFloatNumber:
		return formatNumber(v.AsFloat())
	case TypeString:
		return v.AsString()
	case TypeSymbol:
		return "Symbol(" + v.AsSymbol() + ")"
	case TypeNativeFunction, TypeNativeFunctionWithProps:
		return "function " + v.AsNativeFunction().Name + "() { [native code] }"
	case TypeObject:
		return "[object Object]"
	default:
		return fmt.Sprintf("<unknown type: %d>", v.typ)
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (v Value) IsFalsey() bool {
	switch v.typ {
	case TypeUndefined, TypeNull:
		return true
	case TypeBoolean:
		return !v.AsBoolean()
	case TypeFloatNumber:
		f := v.AsFloat()
		return f == 0 || math.IsNaN(f)
	case TypeIntegerNumber:
		return v.AsInteger() == 0
	case TypeString:
		return v.AsString() == ""
	default:
		return false
	}
}

func (v Value) IsTruthy() bool {
	return !v.IsFalsey()
}

// Is implements SameValue: identity for reference types, NaN equals NaN,
// and +0 is distinct from -0.
func (v Value) Is(other Value) bool {
	if v.IsNumber() && other.IsNumber() {
		a, b := v.ToFloat(), other.ToFloat()
		if math.IsNaN(a) && math.IsNaN(b) {
			return true
		}
		if a == 0 && b == 0 {
			return math.Signbit(a) == math.Signbit(b)
		}
		return a == b
	}
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeUndefined, TypeNull:
		return true
	case TypeBoolean:
		return v.payload == other.payload
	case TypeString:
		return v.AsString() == other.AsString()
	default:
		return v.obj == other.obj
	}
}

// StrictlyEquals implements ===.
func (v Value) StrictlyEquals(other Value) bool {
	if v.IsNumber() && other.IsNumber() {
		return v.ToFloat() == other.ToFloat()
	}
	return v.Is(other)
}

// Inspect returns a developer-facing rendering of the value.
func (v Value) Inspect() string {
	switch v.typ {
	case TypeString:
		return strconv.Quote(v.AsString())
	case TypeObject:
		if IsSIMD(v) {
			t := SIMDGetType(v)
			lanes := SIMDGetArray(v)
			parts := make([]string, len(lanes))
			for i, l := range lanes {
				parts[i] = l.Inspect()
			}
			return t.Name() + "(" + strings.Join(parts, ", ") + ")"
		}
		return "[object Object]"
	case TypeNativeFunction, TypeNativeFunctionWithProps:
		return "[Function: " + v.AsNativeFunction().Name + "]"
	default:
		return v.ToString()
	}
}
