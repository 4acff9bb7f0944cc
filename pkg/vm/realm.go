package vm

import (
	"github.com/nooga/simdjs/pkg/errors"
)

// Well-known symbols are shared by every realm.
var (
	SymbolToStringTag = NewSymbol("Symbol.toStringTag")
	SymbolSpecies     = NewSymbol("Symbol.species")
)

// ConstructorPair is a constructor function and the object installed as its
// prototype property.
type ConstructorPair struct {
	Constructor Value
	Prototype   Value
}

// Realm represents an isolated JavaScript execution environment.
// Each realm has its own global object, built-in prototypes, and intrinsics.
// A realm is driven by one goroutine at a time.
type Realm struct {
	// Identity
	id int // Unique realm identifier

	// Global environment
	GlobalObject *PlainObject

	// Built-in prototypes
	ObjectPrototype   Value
	FunctionPrototype Value

	// Constructors
	ObjectConstructor Value

	// Well-known symbols
	SymbolToStringTag Value
	SymbolSpecies     Value

	// SIMD family: the abstract SIMDTypes pair plus one pair and one object
	// factory per installed kind
	SIMDTypes     ConstructorPair
	simdPairs     map[*SIMDTypeFactory]ConstructorPair
	simdFactories map[*SIMDTypeFactory]*SIMDObjectFactory
	simdOrder     []*SIMDTypeFactory

	// Receivers of the native calls in progress
	thisStack []Value

	// Initialization state
	initialized bool
}

// NewRealm creates a realm holding only Object.prototype, Function.prototype
// and an empty global object. Builtins are installed by initializers.
func NewRealm(id int) *Realm {
	objectProto := NewObject(Null)
	functionProto := NewObject(objectProto)
	return &Realm{
		id:                id,
		GlobalObject:      NewObject(objectProto).AsPlainObject(),
		ObjectPrototype:   objectProto,
		FunctionPrototype: functionProto,
		ObjectConstructor: Undefined,
		SymbolToStringTag: SymbolToStringTag,
		SymbolSpecies:     SymbolSpecies,
		simdPairs:         make(map[*SIMDTypeFactory]ConstructorPair),
		simdFactories:     make(map[*SIMDTypeFactory]*SIMDObjectFactory),
	}
}

// ID returns the realm's unique identifier.
func (r *Realm) ID() int { return r.id }

// IsInitialized reports whether bootstrap completed.
func (r *Realm) IsInitialized() bool { return r.initialized }

// MarkInitialized records that every builtin initializer ran successfully.
func (r *Realm) MarkInitialized() { r.initialized = true }

// NewNativeFunction creates a native function whose [[Prototype]] is this
// realm's Function.prototype.
func (r *Realm) NewNativeFunction(arity int, variadic bool, name string, fn func(args []Value) (Value, error)) Value {
	return NewConstructorWithProps(arity, variadic, name, r.FunctionPrototype, fn)
}

// GetThis returns the receiver of the innermost native call.
func (r *Realm) GetThis() Value {
	if len(r.thisStack) == 0 {
		return Undefined
	}
	return r.thisStack[len(r.thisStack)-1]
}

// Call invokes a native function with the given receiver.
func (r *Realm) Call(fn Value, this Value, args []Value) (Value, error) {
	if !fn.IsCallable() {
		return Undefined, r.NewTypeError(fn.TypeName() + " is not a function")
	}
	r.thisStack = append(r.thisStack, this)
	defer func() { r.thisStack = r.thisStack[:len(r.thisStack)-1] }()
	return fn.AsNativeFunction().Fn(args)
}

// NewTypeError constructs a TypeError for builtin helpers to return
func (r *Realm) NewTypeError(message string) error {
	return &errors.RuntimeError{Name: "TypeError", Msg: message}
}

func (r *Realm) holderFor(v Value) *PlainObject {
	if h := propertyHolder(v); h != nil {
		return h
	}
	if v.typ == TypeNativeFunction {
		return r.FunctionPrototype.AsPlainObject()
	}
	return nil
}

// GetProperty performs [[Get]] on receiver, invoking inherited getters with
// receiver as this. Primitives without a wrapper model yield undefined.
func (r *Realm) GetProperty(receiver Value, key PropertyKey) (Value, error) {
	holder := r.holderFor(receiver)
	if holder == nil {
		return Undefined, nil
	}
	owner, isAccessor, ok := holder.Lookup(key)
	if !ok {
		return Undefined, nil
	}
	if !isAccessor {
		v, _ := owner.GetOwnByKey(key)
		return v, nil
	}
	getter, _, _, _, _ := owner.GetOwnAccessorByKey(key)
	if !getter.IsCallable() {
		return Undefined, nil
	}
	return r.Call(getter, receiver, nil)
}

// Get is GetProperty for string keys.
func (r *Realm) Get(receiver Value, name string) (Value, error) {
	return r.GetProperty(receiver, NewStringKey(name))
}

// DefineGlobal installs a non-enumerable property on the global object.
func (r *Realm) DefineGlobal(name string, value Value) error {
	r.GlobalObject.SetOwnNonEnumerable(name, value)
	return nil
}

// GetGlobal reads an own property of the global object.
func (r *Realm) GetGlobal(name string) (Value, bool) {
	return r.GlobalObject.GetOwn(name)
}

// LookupFunction resolves a pre-declared function stored as namespace.name on
// the global object.
func (r *Realm) LookupFunction(namespace, name string) (Value, bool) {
	ns, ok := r.GetGlobal(namespace)
	if !ok {
		return Undefined, false
	}
	holder := propertyHolder(ns)
	if holder == nil {
		return Undefined, false
	}
	fn, ok := holder.GetOwn(name)
	if !ok || !fn.IsCallable() {
		return Undefined, false
	}
	return fn, true
}

// ClassName returns the tag used by Object.prototype.toString: the value of
// Symbol.toStringTag when it is a string, otherwise the builtin tag.
func (r *Realm) ClassName(v Value) (string, error) {
	switch v.typ {
	case TypeUndefined:
		return "Undefined", nil
	case TypeNull:
		return "Null", nil
	}
	builtin := "Object"
	switch v.typ {
	case TypeFloatNumber, TypeIntegerNumber:
		builtin = "Number"
	case TypeString:
		builtin = "String"
	case TypeBoolean:
		builtin = "Boolean"
	case TypeSymbol:
		builtin = "Symbol"
	case TypeNativeFunction, TypeNativeFunctionWithProps:
		builtin = "Function"
	}
	tag, err := r.GetProperty(v, NewSymbolKey(r.SymbolToStringTag))
	if err != nil {
		return "", err
	}
	if tag.IsString() {
		return tag.AsString(), nil
	}
	return builtin, nil
}

// RegisterSIMDKind records the constructor pair and instance shape of a kind.
// Each kind is registered once per realm.
func (r *Realm) RegisterSIMDKind(f *SIMDTypeFactory, pair ConstructorPair, shape *Shape) {
	if _, exists := r.simdFactories[f]; exists {
		panic(contractf("Realm.RegisterSIMDKind", "SIMD kind %s registered twice", f.name))
	}
	r.simdPairs[f] = pair
	r.simdFactories[f] = &SIMDObjectFactory{shape: shape, typ: f.CreateSIMDType()}
	r.simdOrder = append(r.simdOrder, f)
}

// SIMDObjectFactory returns the instance factory of an installed kind.
func (r *Realm) SIMDObjectFactory(f *SIMDTypeFactory) (*SIMDObjectFactory, bool) {
	of, ok := r.simdFactories[f]
	return of, ok
}

// SIMDConstructor returns the constructor pair of an installed kind.
func (r *Realm) SIMDConstructor(f *SIMDTypeFactory) (ConstructorPair, bool) {
	p, ok := r.simdPairs[f]
	return p, ok
}

// SIMDKinds lists the installed kinds in installation order.
func (r *Realm) SIMDKinds() []*SIMDTypeFactory {
	out := make([]*SIMDTypeFactory, len(r.simdOrder))
	copy(out, r.simdOrder)
	return out
}
