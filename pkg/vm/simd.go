package vm

import (
	"math"

	"github.com/nooga/simdjs/pkg/errors"
)

// SIMDElementKind represents the scalar type of one lane of a SIMD value
type SIMDElementKind uint8

const (
	SIMDFloat32 SIMDElementKind = iota
	SIMDInt32
	SIMDInt16
	SIMDInt8
	SIMDUint32
	SIMDUint16
	SIMDUint8
	SIMDBool32
	SIMDBool16
	SIMDBool8
)

func (k SIMDElementKind) String() string {
	switch k {
	case SIMDFloat32:
		return "float32"
	case SIMDInt32:
		return "int32"
	case SIMDInt16:
		return "int16"
	case SIMDInt8:
		return "int8"
	case SIMDUint32:
		return "uint32"
	case SIMDUint16:
		return "uint16"
	case SIMDUint8:
		return "uint8"
	case SIMDBool32:
		return "bool32"
	case SIMDBool16:
		return "bool16"
	case SIMDBool8:
		return "bool8"
	default:
		return "unknown"
	}
}

// Bits returns the lane width in bits.
func (k SIMDElementKind) Bits() int {
	switch k {
	case SIMDFloat32, SIMDInt32, SIMDUint32, SIMDBool32:
		return 32
	case SIMDInt16, SIMDUint16, SIMDBool16:
		return 16
	default:
		return 8
	}
}

// IsBool reports whether lanes hold booleans.
func (k SIMDElementKind) IsBool() bool {
	return k == SIMDBool32 || k == SIMDBool16 || k == SIMDBool8
}

// SIMDType describes one concrete SIMD kind. It is immutable and shared by
// every instance of the kind.
type SIMDType struct {
	name    string
	lanes   int
	element SIMDElementKind
	factory *SIMDTypeFactory
}

func (t *SIMDType) Name() string              { return t.name }
func (t *SIMDType) Lanes() int                { return t.lanes }
func (t *SIMDType) Element() SIMDElementKind  { return t.element }
func (t *SIMDType) Factory() *SIMDTypeFactory { return t.factory }
func (t *SIMDType) String() string            { return t.name }

// SIMDTypeFactory produces the canonical descriptor of a kind.
type SIMDTypeFactory struct {
	name      string
	canonical *SIMDType
}

func newSIMDTypeFactory(name string, lanes int, element SIMDElementKind) *SIMDTypeFactory {
	f := &SIMDTypeFactory{name: name}
	f.canonical = &SIMDType{name: name, lanes: lanes, element: element, factory: f}
	return f
}

func (f *SIMDTypeFactory) Name() string { return f.name }

// CreateSIMDType returns the kind's descriptor. Every call returns the same
// pointer, so descriptors may be compared by identity.
func (f *SIMDTypeFactory) CreateSIMDType() *SIMDType { return f.canonical }

var (
	Float32x4Factory = newSIMDTypeFactory("Float32x4", 4, SIMDFloat32)
	Int32x4Factory   = newSIMDTypeFactory("Int32x4", 4, SIMDInt32)
	Int16x8Factory   = newSIMDTypeFactory("Int16x8", 8, SIMDInt16)
	Int8x16Factory   = newSIMDTypeFactory("Int8x16", 16, SIMDInt8)
	Uint32x4Factory  = newSIMDTypeFactory("Uint32x4", 4, SIMDUint32)
	Uint16x8Factory  = newSIMDTypeFactory("Uint16x8", 8, SIMDUint16)
	Uint8x16Factory  = newSIMDTypeFactory("Uint8x16", 16, SIMDUint8)
	Bool32x4Factory  = newSIMDTypeFactory("Bool32x4", 4, SIMDBool32)
	Bool16x8Factory  = newSIMDTypeFactory("Bool16x8", 8, SIMDBool16)
	Bool8x16Factory  = newSIMDTypeFactory("Bool8x16", 16, SIMDBool8)
)

// SIMDTypeFactories lists every declared kind in installation order.
func SIMDTypeFactories() []*SIMDTypeFactory {
	return []*SIMDTypeFactory{
		Float32x4Factory,
		Int32x4Factory,
		Int16x8Factory,
		Int8x16Factory,
		Uint32x4Factory,
		Uint16x8Factory,
		Uint8x16Factory,
		Bool32x4Factory,
		Bool16x8Factory,
		Bool8x16Factory,
	}
}

// LookupSIMDTypeFactory finds a declared kind by its exact name.
func LookupSIMDTypeFactory(name string) (*SIMDTypeFactory, bool) {
	for _, f := range SIMDTypeFactories() {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}

// SIMDClass is the object class of every SIMD instance.
var SIMDClass = NewObjectClass("SIMDTypes")

// The type slot holds a *SIMDType and never changes once set; the array slot
// holds the lane buffer ([]Value).
var (
	simdTypeSlot  = NewReadOnlyHiddenSlot("simdtype")
	simdArraySlot = NewHiddenSlot("simdarray")
)

// InitSIMDPrototype stores t and an empty lane buffer as the defaults of a
// kind prototype. proto must not carry them yet.
func InitSIMDPrototype(proto *PlainObject, t *SIMDType) {
	errors.Assert(proto != nil, "InitSIMDPrototype", "nil prototype")
	errors.Assert(t != nil, "InitSIMDPrototype", "nil SIMD type")
	errors.Assert(!simdTypeSlot.Has(proto), "InitSIMDPrototype", "prototype already holds a SIMD type")
	simdTypeSlot.Put(proto, t)
	simdArraySlot.Put(proto, []Value{})
}

// SIMDPrototypeDefaults returns the defaults stored by InitSIMDPrototype. The
// returned buffer is a copy.
func SIMDPrototypeDefaults(proto *PlainObject) (*SIMDType, []Value, bool) {
	if !simdTypeSlot.Has(proto) || !simdArraySlot.Has(proto) {
		return nil, nil, false
	}
	t, ok := simdTypeSlot.Get(proto).(*SIMDType)
	if !ok {
		return nil, nil, false
	}
	lanes, ok := simdArraySlot.Get(proto).([]Value)
	if !ok {
		return nil, nil, false
	}
	return t, append([]Value(nil), lanes...), true
}

// MakeInitialSIMDShape derives the instance shape for prototype proto: its
// SIMD proto-child shape extended with the type slot, then the array slot.
// The type slot is tagged with t's name so kinds sharing a prototype still
// get distinct shapes; a nil t derives the untagged lineage.
func MakeInitialSIMDShape(proto *PlainObject, t *SIMDType) *Shape {
	tag := ""
	if t != nil {
		tag = t.name
	}
	shape := ProtoChildShape(proto, SIMDClass)
	shape = shape.AddHidden(simdTypeSlot, tag)
	shape = shape.AddHidden(simdArraySlot, "")
	return shape
}

// SIMDObjectFactory allocates instances of one kind within one realm.
type SIMDObjectFactory struct {
	shape *Shape
	typ   *SIMDType
}

func (f *SIMDObjectFactory) Shape() *Shape   { return f.shape }
func (f *SIMDObjectFactory) Type() *SIMDType { return f.typ }

func (f *SIMDObjectFactory) create() Value {
	lanes := make([]Value, f.typ.lanes)
	for i := range lanes {
		lanes[i] = Null
	}
	return NewValueFromPlainObject(NewObjectFromShape(f.shape, f.typ, lanes))
}

// CreateSIMD allocates a fresh instance of t in realm with every lane set to
// null. The kind must have been wired into the realm.
func CreateSIMD(realm *Realm, t *SIMDType) Value {
	errors.Assert(t != nil, "CreateSIMD", "nil SIMD type")
	f, ok := realm.SIMDObjectFactory(t.factory)
	if !ok {
		panic(contractf("CreateSIMD", "SIMD kind %s is not installed in realm %d", t.name, realm.ID()))
	}
	return f.create()
}

// IsSIMD reports whether v is a SIMD instance. It never panics.
func IsSIMD(v Value) bool {
	return v.typ == TypeObject && v.AsPlainObject().shape.class == SIMDClass
}

// SIMDGetType returns the kind of a SIMD instance.
func SIMDGetType(v Value) *SIMDType {
	errors.Assert(IsSIMD(v), "SIMDGetType", "receiver is not a SIMD value")
	t, ok := simdTypeSlot.Get(v.AsPlainObject()).(*SIMDType)
	if !ok {
		panic(contractf("SIMDGetType", "type slot does not hold a SIMD type"))
	}
	return t
}

// SIMDGetArray returns the lane buffer of a SIMD instance. The slice is owned
// by the instance.
func SIMDGetArray(v Value) []Value {
	errors.Assert(IsSIMD(v), "SIMDGetArray", "receiver is not a SIMD value")
	lanes, ok := simdArraySlot.Get(v.AsPlainObject()).([]Value)
	if !ok {
		panic(contractf("SIMDGetArray", "array slot does not hold a lane buffer"))
	}
	return lanes
}

// SIMDSetArray rebinds the lane buffer of a SIMD instance.
func SIMDSetArray(v Value, lanes []Value) {
	errors.Assert(IsSIMD(v), "SIMDSetArray", "receiver is not a SIMD value")
	errors.Assert(lanes != nil, "SIMDSetArray", "nil lane buffer")
	simdArraySlot.Set(v.AsPlainObject(), lanes)
}

// CoerceLane converts v to the lane representation of element kind k.
func CoerceLane(k SIMDElementKind, v Value) Value {
	switch k {
	case SIMDFloat32:
		return NumberValue(float64(float32(v.ToFloat())))
	case SIMDInt32:
		return IntegerValue(int32(toUint32(v.ToFloat())))
	case SIMDInt16:
		return IntegerValue(int32(int16(toUint32(v.ToFloat()))))
	case SIMDInt8:
		return IntegerValue(int32(int8(toUint32(v.ToFloat()))))
	case SIMDUint32:
		return NumberValue(float64(toUint32(v.ToFloat())))
	case SIMDUint16:
		return IntegerValue(int32(uint16(toUint32(v.ToFloat()))))
	case SIMDUint8:
		return IntegerValue(int32(uint8(toUint32(v.ToFloat()))))
	default:
		return BooleanValue(v.IsTruthy())
	}
}

// toUint32 implements the modular ToUint32 conversion.
func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Mod(math.Trunc(f), 4294967296)
	if f < 0 {
		f += 4294967296
	}
	return uint32(f)
}
