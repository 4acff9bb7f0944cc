package vm

import (
	"fmt"
	"sync"
	"unsafe"
)

type KeyKind uint8

const (
	KeyKindString KeyKind = iota
	KeyKindSymbol
	KeyKindHidden // engine-internal slots, never visible to scripts
)

// PropertyKey represents a property key which can be a string, symbol, or hidden slot
type PropertyKey struct {
	kind      KeyKind
	name      string      // for string keys; debug name for hidden keys
	symbolVal Value       // for symbol keys (TypeSymbol)
	hidden    *HiddenSlot // for hidden keys
}

func keyFromString(name string) PropertyKey {
	return PropertyKey{kind: KeyKindString, name: name}
}

func keyFromSymbol(sym Value) PropertyKey {
	return PropertyKey{kind: KeyKindSymbol, symbolVal: sym}
}

// NewStringKey constructs an exported PropertyKey for string-named properties.
func NewStringKey(name string) PropertyKey { return keyFromString(name) }

// NewSymbolKey constructs an exported PropertyKey for symbol-named properties.
func NewSymbolKey(sym Value) PropertyKey { return keyFromSymbol(sym) }

func (k PropertyKey) isString() bool { return k.kind == KeyKindString }
func (k PropertyKey) isSymbol() bool { return k.kind == KeyKindSymbol }
func (k PropertyKey) isHidden() bool { return k.kind == KeyKindHidden }

func (k PropertyKey) debugName() string {
	switch k.kind {
	case KeyKindString:
		return k.name
	case KeyKindSymbol:
		return fmt.Sprintf("Symbol(%s)", k.symbolVal.AsSymbol())
	case KeyKindHidden:
		return "#" + k.name
	default:
		return "<unknown-key>"
	}
}

func (k PropertyKey) hash() string {
	switch k.kind {
	case KeyKindString:
		return "s:" + k.name
	case KeyKindSymbol:
		return fmt.Sprintf("y:%p", k.symbolVal.obj)
	case KeyKindHidden:
		return fmt.Sprintf("h:%p", k.hidden)
	default:
		return "?"
	}
}

type Object struct {
}

type PlainObject struct {
	Object
	shape      *Shape
	prototype  Value
	properties []Value
	// Hidden slot storage, indexed by the hidden field's offset in the shape
	hidden []any
	// Accessor storage keyed by PropertyKey.hash()
	getters map[string]Value
	setters map[string]Value
	// Extensible flag - when false, no new properties can be added
	extensible bool

	// Root shapes of objects using this object as their prototype
	protoChildren map[*ObjectClass]*Shape
	childMu       sync.Mutex
}

// Shape returns the object's current shape.
func (o *PlainObject) Shape() *Shape { return o.shape }

// GetOwn looks up a direct (own) property by name. Returns (value, true) if present.
func (o *PlainObject) GetOwn(name string) (Value, bool) {
	return o.GetOwnByKey(keyFromString(name))
}

// GetOwnByKey looks up a direct (own) property by key. Returns (value, true) if present.
// Hidden slots are never reported.
func (o *PlainObject) GetOwnByKey(key PropertyKey) (Value, bool) {
	if key.isHidden() {
		return Undefined, false
	}
	i, ok := o.shape.lookup(key)
	if !ok {
		return Undefined, false
	}
	f := o.shape.fields[i]
	if f.isAccessor || f.offset >= len(o.properties) {
		return Undefined, true
	}
	return o.properties[f.offset], true
}

// GetOwnDescriptorByKey returns the value and attribute flags for an own property.
// Returns (value, writable, enumerable, configurable, exists).
func (o *PlainObject) GetOwnDescriptorByKey(key PropertyKey) (Value, bool, bool, bool, bool) {
	if key.isHidden() {
		return Undefined, false, false, false, false
	}
	i, ok := o.shape.lookup(key)
	if !ok {
		return Undefined, false, false, false, false
	}
	f := o.shape.fields[i]
	if f.isAccessor {
		return Undefined, false, f.enumerable, f.configurable, true
	}
	return o.properties[f.offset], f.writable, f.enumerable, f.configurable, true
}

// GetOwnAccessorByKey returns accessor pair for an own property by key.
// Returns (get, set, enumerable, configurable, exists)
func (o *PlainObject) GetOwnAccessorByKey(key PropertyKey) (Value, Value, bool, bool, bool) {
	i, ok := o.shape.lookup(key)
	if !ok || !o.shape.fields[i].isAccessor {
		return Undefined, Undefined, false, false, false
	}
	f := o.shape.fields[i]
	g, s := Undefined, Undefined
	if v, ok := o.getters[key.hash()]; ok {
		g = v
	}
	if v, ok := o.setters[key.hash()]; ok {
		s = v
	}
	return g, s, f.enumerable, f.configurable, true
}

// SetOwn sets or defines an own property with ordinary assignment semantics.
// If the property exists and is non-writable, this is a no-op.
func (o *PlainObject) SetOwn(name string, v Value) {
	o.setOwn(keyFromString(name), v, true)
}

// SetOwnNonEnumerable sets or defines an own property as non-enumerable (for built-in methods).
func (o *PlainObject) SetOwnNonEnumerable(name string, v Value) {
	o.setOwn(keyFromString(name), v, false)
}

func (o *PlainObject) setOwn(key PropertyKey, v Value, enumerable bool) {
	if i, ok := o.shape.lookup(key); ok {
		f := o.shape.fields[i]
		// existing property: honor writable flag
		if f.writable && !f.isAccessor {
			o.properties[f.offset] = v
		}
		return
	}
	if !o.extensible {
		return
	}
	o.shape = o.shape.addField(key, Field{writable: true, enumerable: enumerable, configurable: true})
	o.properties = append(o.properties, v)
}

// DefineOwnPropertyByKey defines or updates an own data property with explicit attributes.
// For existing properties, unspecified attributes (nil) keep their previous values;
// new properties default to false. Returns false when the definition is rejected.
func (o *PlainObject) DefineOwnPropertyByKey(key PropertyKey, value Value, writable *bool, enumerable *bool, configurable *bool) bool {
	if key.isHidden() {
		return false
	}
	if i, ok := o.shape.lookup(key); ok {
		f := o.shape.fields[i]
		if !f.configurable {
			if (configurable != nil && *configurable) || (enumerable != nil && *enumerable != f.enumerable) {
				return false
			}
			if f.isAccessor {
				return false
			}
			if !f.writable {
				if writable != nil && *writable {
					return false
				}
				return o.properties[f.offset].Is(value)
			}
		}
		newF := f
		if f.isAccessor {
			newF.isAccessor = false
			newF.writable = false
			delete(o.getters, key.hash())
			delete(o.setters, key.hash())
		}
		if writable != nil {
			newF.writable = *writable
		}
		if enumerable != nil {
			newF.enumerable = *enumerable
		}
		if configurable != nil {
			newF.configurable = *configurable
		}
		o.properties[f.offset] = value
		if newF != f {
			o.shape = o.shape.withField(i, newF)
		}
		return true
	}
	if !o.extensible {
		return false
	}
	fld := Field{}
	if writable != nil {
		fld.writable = *writable
	}
	if enumerable != nil {
		fld.enumerable = *enumerable
	}
	if configurable != nil {
		fld.configurable = *configurable
	}
	o.shape = o.shape.addField(key, fld)
	o.properties = append(o.properties, value)
	return true
}

// DefineAccessorPropertyByKey defines or updates an accessor own property.
// Returns false when the definition is rejected.
func (o *PlainObject) DefineAccessorPropertyByKey(key PropertyKey, getter Value, hasGetter bool, setter Value, hasSetter bool, enumerable *bool, configurable *bool) bool {
	if key.isHidden() {
		return false
	}
	hashKey := key.hash()
	if i, ok := o.shape.lookup(key); ok {
		f := o.shape.fields[i]
		// If existing field is not configurable, cannot change it to accessor or modify flags
		if !f.configurable {
			return false
		}
		newF := f
		newF.isAccessor = true
		newF.writable = false
		if enumerable != nil {
			newF.enumerable = *enumerable
		}
		if configurable != nil {
			newF.configurable = *configurable
		}
		o.properties[f.offset] = Undefined
		if newF != f {
			o.shape = o.shape.withField(i, newF)
		}
	} else {
		if !o.extensible {
			return false
		}
		fld := Field{isAccessor: true}
		if enumerable != nil {
			fld.enumerable = *enumerable
		}
		if configurable != nil {
			fld.configurable = *configurable
		}
		o.shape = o.shape.addField(key, fld)
		// Keep properties slice length consistent
		o.properties = append(o.properties, Undefined)
	}
	if o.getters == nil {
		o.getters = make(map[string]Value)
	}
	if o.setters == nil {
		o.setters = make(map[string]Value)
	}
	if hasGetter {
		o.getters[hashKey] = getter
	}
	if hasSetter {
		o.setters[hashKey] = setter
	}
	return true
}

// HasOwn reports whether the object has an own string-keyed property.
func (o *PlainObject) HasOwn(name string) bool {
	return o.HasOwnByKey(keyFromString(name))
}

func (o *PlainObject) HasOwnByKey(key PropertyKey) bool {
	if key.isHidden() {
		return false
	}
	_, ok := o.shape.lookup(key)
	return ok
}

// OwnKeys returns the enumerable own string keys in insertion order.
func (o *PlainObject) OwnKeys() []string {
	keys := make([]string, 0, len(o.shape.fields))
	for _, f := range o.shape.fields {
		if f.keyKind == KeyKindString && f.enumerable {
			keys = append(keys, f.name)
		}
	}
	return keys
}

// OwnPropertyNames returns all own string keys, enumerable or not.
func (o *PlainObject) OwnPropertyNames() []string {
	keys := make([]string, 0, len(o.shape.fields))
	for _, f := range o.shape.fields {
		if f.keyKind == KeyKindString {
			keys = append(keys, f.name)
		}
	}
	return keys
}

// OwnSymbolKeys returns all own symbol keys.
func (o *PlainObject) OwnSymbolKeys() []Value {
	var syms []Value
	for _, f := range o.shape.fields {
		if f.keyKind == KeyKindSymbol {
			syms = append(syms, f.symbolVal)
		}
	}
	return syms
}

// Get looks up a data property by name along the prototype chain. Accessors
// report Undefined here; use Realm.GetProperty to invoke them.
func (o *PlainObject) Get(name string) (Value, bool) {
	owner, _, ok := o.Lookup(keyFromString(name))
	if !ok {
		return Undefined, false
	}
	return owner.GetOwn(name)
}

// Has reports whether a property with the given name exists (own or inherited).
func (o *PlainObject) Has(name string) bool {
	_, _, ok := o.Lookup(keyFromString(name))
	return ok
}

// Lookup finds the object on the prototype chain that owns key and reports
// whether the property is an accessor.
func (o *PlainObject) Lookup(key PropertyKey) (*PlainObject, bool, bool) {
	if key.isHidden() {
		return nil, false, false
	}
	for cur := o; cur != nil; {
		if i, ok := cur.shape.lookup(key); ok {
			return cur, cur.shape.fields[i].isAccessor, true
		}
		cur = cur.prototypeObject()
	}
	return nil, false, false
}

func (o *PlainObject) prototypeObject() *PlainObject {
	return propertyHolder(o.prototype)
}

func (o *PlainObject) GetPrototype() Value {
	return o.prototype
}

// SetPrototype changes [[Prototype]]. Returns false for non-object values,
// non-extensible objects and cycles.
func (o *PlainObject) SetPrototype(proto Value) bool {
	if !proto.IsObjectLike() && proto.typ != TypeNull {
		return false
	}
	if o.prototype.Is(proto) {
		return true
	}
	if !o.extensible {
		return false
	}
	for po := propertyHolder(proto); po != nil; po = po.prototypeObject() {
		if po == o {
			return false
		}
	}
	o.prototype = proto
	if o.shape.proto != nil {
		var newProto *PlainObject
		if proto.typ == TypeObject {
			newProto = proto.AsPlainObject()
		}
		o.shape = o.shape.withPrototype(newProto)
	}
	return true
}

func (o *PlainObject) IsExtensible() bool {
	return o.extensible
}

func (o *PlainObject) SetExtensible(extensible bool) {
	// Once non-extensible, an object stays non-extensible
	if !extensible {
		o.extensible = false
	}
}

// Define the shared default prototype for plain objects
var DefaultObjectPrototype Value
var RootShape *Shape

// Initialize the DefaultObjectPrototype once at package initialization
func init() {
	RootShape = &Shape{
		class:       OrdinaryClass,
		fields:      []Field{},
		transitions: make(map[string]*Shape),
	}
	// The default prototype is an object whose own prototype is Null.
	protoObj := &PlainObject{prototype: Null, shape: RootShape, extensible: true}
	DefaultObjectPrototype = Value{typ: TypeObject, obj: unsafe.Pointer(protoObj)}
}

func NewObject(proto Value) Value {
	prototype := DefaultObjectPrototype
	if proto.IsObjectLike() || proto.typ == TypeNull {
		prototype = proto
	}
	plainObj := &PlainObject{prototype: prototype, shape: RootShape, extensible: true}
	return Value{typ: TypeObject, obj: unsafe.Pointer(plainObj)}
}

// NewObjectFromShape allocates an object whose layout is shape, seeding its
// hidden slots in shape order. shape must be rooted at a proto-child shape.
func NewObjectFromShape(shape *Shape, hidden ...any) *PlainObject {
	if shape == nil || shape.proto == nil {
		panic(contractf("NewObjectFromShape", "shape is not rooted at a prototype"))
	}
	if len(hidden) != shape.hiddenCount {
		panic(contractf("NewObjectFromShape", "expected %d hidden values, got %d", shape.hiddenCount, len(hidden)))
	}
	for i, h := range hidden {
		if h == nil {
			panic(contractf("NewObjectFromShape", "hidden value %d is nil", i))
		}
	}
	properties := make([]Value, shape.propCount)
	for i := range properties {
		properties[i] = Undefined
	}
	return &PlainObject{
		shape:      shape,
		prototype:  NewValueFromPlainObject(shape.proto),
		properties: properties,
		hidden:     append([]any(nil), hidden...),
		extensible: true,
	}
}
