package builtins

import (
	"github.com/nooga/simdjs/pkg/vm"
)

// ObjectInitializer implements the Object builtin
type ObjectInitializer struct{}

func (o *ObjectInitializer) Name() string {
	return "Object"
}

func (o *ObjectInitializer) Priority() int {
	return PriorityObject // Must be first (base prototype)
}

func (o *ObjectInitializer) InitRuntime(ctx *RuntimeContext) error {
	realm := ctx.Realm
	objectProto := ctx.ObjectPrototype.AsPlainObject()

	// Object.prototype.hasOwnProperty(name)
	objectProto.SetOwnNonEnumerable("hasOwnProperty", realm.NewNativeFunction(1, false, "hasOwnProperty", func(args []vm.Value) (vm.Value, error) {
		thisVal := realm.GetThis()
		if len(args) < 1 {
			return vm.False, nil
		}
		var key vm.PropertyKey
		if args[0].IsSymbol() {
			key = vm.NewSymbolKey(args[0])
		} else {
			key = vm.NewStringKey(args[0].ToString())
		}
		switch thisVal.Type() {
		case vm.TypeObject:
			return vm.BooleanValue(thisVal.AsPlainObject().HasOwnByKey(key)), nil
		case vm.TypeNativeFunctionWithProps:
			return vm.BooleanValue(thisVal.AsNativeFunctionWithProps().Properties.HasOwnByKey(key)), nil
		case vm.TypeUndefined, vm.TypeNull:
			return vm.Undefined, realm.NewTypeError("Cannot convert undefined or null to object")
		default:
			return vm.False, nil
		}
	}))

	// Object.prototype.toString() - "[object " + class tag + "]"
	objectProto.SetOwnNonEnumerable("toString", realm.NewNativeFunction(0, false, "toString", func(args []vm.Value) (vm.Value, error) {
		tag, err := realm.ClassName(realm.GetThis())
		if err != nil {
			return vm.Undefined, err
		}
		return vm.NewString("[object " + tag + "]"), nil
	}))

	// Object(value) returns objects unchanged and a fresh object otherwise
	objectCtor := realm.NewNativeFunction(1, false, "Object", func(args []vm.Value) (vm.Value, error) {
		if len(args) > 0 && args[0].IsObjectLike() {
			return args[0], nil
		}
		return vm.NewObject(ctx.ObjectPrototype), nil
	})
	ctorProps := objectCtor.AsNativeFunctionWithProps().Properties

	// Object.getPrototypeOf(value)
	ctorProps.SetOwnNonEnumerable("getPrototypeOf", realm.NewNativeFunction(1, false, "getPrototypeOf", func(args []vm.Value) (vm.Value, error) {
		if len(args) < 1 || args[0].IsUndefined() || args[0].IsNull() {
			return vm.Undefined, realm.NewTypeError("Cannot convert undefined or null to object")
		}
		switch args[0].Type() {
		case vm.TypeObject:
			return args[0].AsPlainObject().GetPrototype(), nil
		case vm.TypeNativeFunctionWithProps:
			return args[0].AsNativeFunctionWithProps().Properties.GetPrototype(), nil
		case vm.TypeNativeFunction:
			return realm.FunctionPrototype, nil
		default:
			return vm.Null, nil
		}
	}))

	falseVal := false
	ctorProps.DefineOwnPropertyByKey(vm.NewStringKey("prototype"), ctx.ObjectPrototype, &falseVal, &falseVal, &falseVal)
	objectProto.SetOwnNonEnumerable("constructor", objectCtor)
	realm.ObjectConstructor = objectCtor

	return ctx.DefineGlobal("Object", objectCtor)
}
