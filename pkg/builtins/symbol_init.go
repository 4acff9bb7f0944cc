package builtins

import (
	"github.com/nooga/simdjs/pkg/vm"
)

// SymbolInitializer exposes the well-known symbols used by the builtins
type SymbolInitializer struct{}

func (s *SymbolInitializer) Name() string {
	return "Symbol"
}

func (s *SymbolInitializer) Priority() int {
	return PrioritySymbol
}

func (s *SymbolInitializer) InitRuntime(ctx *RuntimeContext) error {
	realm := ctx.Realm

	// Symbol(description) creates a fresh symbol
	symbolCtor := realm.NewNativeFunction(0, true, "Symbol", func(args []vm.Value) (vm.Value, error) {
		description := ""
		if len(args) > 0 && !args[0].IsUndefined() {
			description = args[0].ToString()
		}
		return vm.NewSymbol(description), nil
	})

	// Well-known symbols are non-writable, non-enumerable, non-configurable
	falseVal := false
	props := symbolCtor.AsNativeFunctionWithProps().Properties
	props.DefineOwnPropertyByKey(vm.NewStringKey("toStringTag"), realm.SymbolToStringTag, &falseVal, &falseVal, &falseVal)
	props.DefineOwnPropertyByKey(vm.NewStringKey("species"), realm.SymbolSpecies, &falseVal, &falseVal, &falseVal)

	return ctx.DefineGlobal("Symbol", symbolCtor)
}
