package builtins

import (
	"github.com/nooga/simdjs/pkg/config"
	"github.com/nooga/simdjs/pkg/vm"
)

// BuiltinInitializer is implemented by each builtin module
type BuiltinInitializer interface {
	// Name returns the module name (e.g., "Object", "Symbol", "SIMD")
	Name() string

	// Priority returns initialization order (lower = earlier)
	Priority() int

	// InitRuntime creates runtime values for the realm
	InitRuntime(ctx *RuntimeContext) error
}

// RuntimeContext provides everything needed for runtime initialization
type RuntimeContext struct {
	// The realm being bootstrapped
	Realm *vm.Realm

	// Configuration the realm was requested with
	Config *config.Config

	// Define a global value
	DefineGlobal func(name string, value vm.Value) error

	// Get built-in prototypes (set as initializers run)
	ObjectPrototype   vm.Value
	FunctionPrototype vm.Value
}

// Priority constants for initialization order
const (
	PriorityObject   = 0   // Object must be first (base prototype)
	PriorityFunction = 1   // Function second (inherits from Object)
	PrioritySymbol   = 2   // Well-known symbols, needed by accessor keys
	PrioritySIMD     = 430 // SIMD namespace, base and kinds
)
