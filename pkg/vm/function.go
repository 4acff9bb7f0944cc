package vm

import (
	"unsafe"
)

// NativeFunctionObject represents a native Go function callable from scripts.
// The receiver is available through Realm.GetThis while Fn runs.
type NativeFunctionObject struct {
	Object
	Arity    int
	Variadic bool
	Name     string
	Fn       func(args []Value) (Value, error)
}

// NativeFunctionObjectWithProps is a native function that carries its own
// properties (e.g. constructors with a prototype property). Properties'
// [[Prototype]] is the function's [[Prototype]].
type NativeFunctionObjectWithProps struct {
	NativeFunctionObject
	Properties *PlainObject
}

func NewNativeFunction(arity int, variadic bool, name string, fn func(args []Value) (Value, error)) Value {
	return Value{typ: TypeNativeFunction, obj: unsafe.Pointer(&NativeFunctionObject{
		Arity:    arity,
		Variadic: variadic,
		Name:     name,
		Fn:       fn,
	})}
}

// NewConstructorWithProps creates a native function with its own property
// storage whose [[Prototype]] is proto.
func NewConstructorWithProps(arity int, variadic bool, name string, proto Value, fn func(args []Value) (Value, error)) Value {
	return Value{typ: TypeNativeFunctionWithProps, obj: unsafe.Pointer(&NativeFunctionObjectWithProps{
		NativeFunctionObject: NativeFunctionObject{
			Arity:    arity,
			Variadic: variadic,
			Name:     name,
			Fn:       fn,
		},
		Properties: NewObject(proto).AsPlainObject(),
	})}
}

// propertyHolder returns the object storing v's own properties, or nil for
// values that carry none.
func propertyHolder(v Value) *PlainObject {
	switch v.typ {
	case TypeObject:
		return v.AsPlainObject()
	case TypeNativeFunctionWithProps:
		return v.AsNativeFunctionWithProps().Properties
	}
	return nil
}
