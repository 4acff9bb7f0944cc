package builtins

import (
	"github.com/nooga/simdjs/pkg/vm"
)

// FunctionInitializer installs Function.prototype methods
type FunctionInitializer struct{}

func (f *FunctionInitializer) Name() string {
	return "Function"
}

func (f *FunctionInitializer) Priority() int {
	return PriorityFunction
}

func (f *FunctionInitializer) InitRuntime(ctx *RuntimeContext) error {
	realm := ctx.Realm
	functionProto := ctx.FunctionPrototype.AsPlainObject()

	// Function.prototype.call(thisArg, ...args)
	functionProto.SetOwnNonEnumerable("call", realm.NewNativeFunction(1, true, "call", func(args []vm.Value) (vm.Value, error) {
		fn := realm.GetThis()
		thisArg := vm.Undefined
		if len(args) > 0 {
			thisArg = args[0]
			args = args[1:]
		}
		return realm.Call(fn, thisArg, args)
	}))

	return nil
}
