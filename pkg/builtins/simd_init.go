package builtins

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nooga/simdjs/pkg/errors"
	"github.com/nooga/simdjs/pkg/vm"
)

const (
	SIMDObjectName     = "SIMD"
	SIMDTypesClassName = "SIMDTypes"
)

// SIMDInitializer installs the SIMD namespace: the abstract SIMDTypes
// constructor and one constructor per configured kind.
type SIMDInitializer struct{}

func (i *SIMDInitializer) Name() string {
	return SIMDObjectName
}

func (i *SIMDInitializer) Priority() int {
	return PrioritySIMD
}

func (i *SIMDInitializer) InitRuntime(ctx *RuntimeContext) (err error) {
	if !ctx.Config.SIMDEnabled() {
		return nil
	}
	kinds, err := ctx.Config.SIMDKinds()
	if err != nil {
		return (&errors.BootstrapError{Initializer: SIMDObjectName, Msg: "invalid SIMD configuration"}).CausedBy(err)
	}

	// Internal contract failures abort the realm like any other bootstrap error
	defer func() {
		if r := recover(); r != nil {
			cv, ok := r.(*errors.ContractViolation)
			if !ok {
				panic(r)
			}
			err = (&errors.BootstrapError{Initializer: SIMDObjectName, Msg: "wiring failed"}).CausedBy(cv)
		}
	}()

	if err := declareSIMDConstructors(ctx, kinds); err != nil {
		return err
	}

	w := NewSIMDWiring(ctx.Realm)
	base, err := w.BuildBase()
	if err != nil {
		return err
	}
	for _, f := range kinds {
		if _, err := w.BuildKind(f, base); err != nil {
			return err
		}
	}
	return w.Finish()
}

// declareSIMDConstructors creates the SIMD namespace object holding the
// constructor functions the wiring later looks up by name.
func declareSIMDConstructors(ctx *RuntimeContext, kinds []*vm.SIMDTypeFactory) error {
	realm := ctx.Realm
	simdObj := vm.NewObject(ctx.ObjectPrototype).AsPlainObject()

	falseVal, trueVal := false, true
	simdObj.DefineOwnPropertyByKey(vm.NewSymbolKey(realm.SymbolToStringTag), vm.NewString(SIMDObjectName), &falseVal, &falseVal, &trueVal)

	simdObj.SetOwnNonEnumerable(SIMDTypesClassName, realm.NewNativeFunction(0, false, SIMDTypesClassName, func(args []vm.Value) (vm.Value, error) {
		return vm.Undefined, realm.NewTypeError("Abstract class SIMDTypes not directly constructable")
	}))

	for _, f := range kinds {
		t := f.CreateSIMDType()
		simdObj.SetOwnNonEnumerable(f.Name(), realm.NewNativeFunction(t.Lanes(), false, f.Name(), func(args []vm.Value) (vm.Value, error) {
			obj := vm.CreateSIMD(realm, t)
			lanes := make([]vm.Value, t.Lanes())
			for i := range lanes {
				arg := vm.Undefined
				if i < len(args) {
					arg = args[i]
				}
				lanes[i] = vm.CoerceLane(t.Element(), arg)
			}
			vm.SIMDSetArray(obj, lanes)
			return obj, nil
		}))
	}

	return ctx.DefineGlobal(SIMDObjectName, vm.NewValueFromPlainObject(simdObj))
}

// WiringState tracks SIMD bootstrap progress within one realm.
type WiringState int

const (
	WiringUnbuilt WiringState = iota
	WiringBaseBuilt
	WiringKindBuilt
	WiringReady
)

func (s WiringState) String() string {
	switch s {
	case WiringUnbuilt:
		return "unbuilt"
	case WiringBaseBuilt:
		return "base-built"
	case WiringKindBuilt:
		return "kind-built"
	case WiringReady:
		return "ready"
	default:
		return fmt.Sprintf("WiringState(%d)", int(s))
	}
}

// SIMDWiring builds the SIMD prototype graph of a realm: the shared SIMDTypes
// base first, then each kind. Every step runs at most once.
type SIMDWiring struct {
	realm *vm.Realm
	state WiringState
	base  vm.ConstructorPair
	built map[*vm.SIMDTypeFactory]bool
	log   *zap.Logger
}

func NewSIMDWiring(realm *vm.Realm) *SIMDWiring {
	return &SIMDWiring{
		realm: realm,
		built: make(map[*vm.SIMDTypeFactory]bool),
		log:   Logger().With(zap.Int("realm", realm.ID())),
	}
}

func (w *SIMDWiring) State() WiringState { return w.state }

func (w *SIMDWiring) fail(format string, args ...any) error {
	return &errors.BootstrapError{Initializer: SIMDObjectName, Msg: fmt.Sprintf(format, args...)}
}

// lookupConstructor resolves a pre-declared SIMD constructor that carries its
// own property storage.
func (w *SIMDWiring) lookupConstructor(name string) (vm.Value, *vm.PlainObject, error) {
	ctor, ok := w.realm.LookupFunction(SIMDObjectName, name)
	if !ok {
		return vm.Undefined, nil, w.fail("constructor %s.%s is not declared", SIMDObjectName, name)
	}
	if ctor.Type() != vm.TypeNativeFunctionWithProps {
		return vm.Undefined, nil, w.fail("constructor %s.%s cannot hold properties", SIMDObjectName, name)
	}
	return ctor, ctor.AsNativeFunctionWithProps().Properties, nil
}

// BuildBase creates SIMDTypes.prototype with its Symbol.toStringTag getter and
// links it to the SIMDTypes constructor, which gets a Symbol.species getter.
func (w *SIMDWiring) BuildBase() (vm.ConstructorPair, error) {
	if w.state != WiringUnbuilt {
		return vm.ConstructorPair{}, w.fail("BuildBase called in state %s", w.state)
	}
	realm := w.realm
	ctor, ctorProps, err := w.lookupConstructor(SIMDTypesClassName)
	if err != nil {
		return vm.ConstructorPair{}, err
	}

	proto := vm.NewObject(realm.ObjectPrototype).AsPlainObject()
	proto.SetOwnNonEnumerable("constructor", ctor)

	// Non-members answer undefined so generic stringification never throws
	tagGetter := realm.NewNativeFunction(0, false, "get [Symbol.toStringTag]", func(args []vm.Value) (vm.Value, error) {
		thisVal := realm.GetThis()
		if vm.IsSIMD(thisVal) {
			return vm.NewString(vm.SIMDGetType(thisVal).Name()), nil
		}
		return vm.Undefined, nil
	})
	falseVal, trueVal := false, true
	proto.DefineAccessorPropertyByKey(vm.NewSymbolKey(realm.SymbolToStringTag), tagGetter, true, vm.Undefined, false, &falseVal, &trueVal)

	protoVal := vm.NewValueFromPlainObject(proto)
	ctorProps.DefineOwnPropertyByKey(vm.NewStringKey("prototype"), protoVal, &falseVal, &falseVal, &falseVal)
	w.installSpecies(ctorProps)

	w.base = vm.ConstructorPair{Constructor: ctor, Prototype: protoVal}
	realm.SIMDTypes = w.base
	w.state = WiringBaseBuilt
	w.log.Debug("SIMD base wired", zap.String("constructor", SIMDTypesClassName))
	return w.base, nil
}

// BuildKind wires one kind below base: the kind constructor inherits from the
// base constructor, and the kind prototype inherits from the base prototype
// and carries the kind's default type and an empty lane buffer.
func (w *SIMDWiring) BuildKind(factory *vm.SIMDTypeFactory, base vm.ConstructorPair) (vm.ConstructorPair, error) {
	if w.state != WiringBaseBuilt && w.state != WiringKindBuilt {
		return vm.ConstructorPair{}, w.fail("BuildKind(%s) called in state %s", factory.Name(), w.state)
	}
	if !base.Constructor.Is(w.base.Constructor) || !base.Prototype.Is(w.base.Prototype) {
		return vm.ConstructorPair{}, w.fail("BuildKind(%s) given a foreign base", factory.Name())
	}
	if w.built[factory] {
		return vm.ConstructorPair{}, w.fail("SIMD kind %s already built", factory.Name())
	}
	realm := w.realm
	ctor, ctorProps, err := w.lookupConstructor(factory.Name())
	if err != nil {
		return vm.ConstructorPair{}, err
	}
	if !ctorProps.SetPrototype(base.Constructor) {
		return vm.ConstructorPair{}, w.fail("cannot link %s to %s", factory.Name(), SIMDTypesClassName)
	}

	t := factory.CreateSIMDType()
	proto := vm.NewObject(base.Prototype).AsPlainObject()
	vm.InitSIMDPrototype(proto, t)
	proto.SetOwnNonEnumerable("constructor", ctor)

	protoVal := vm.NewValueFromPlainObject(proto)
	falseVal := false
	ctorProps.DefineOwnPropertyByKey(vm.NewStringKey("prototype"), protoVal, &falseVal, &falseVal, &falseVal)
	w.installSpecies(ctorProps)

	pair := vm.ConstructorPair{Constructor: ctor, Prototype: protoVal}
	shape := vm.MakeInitialSIMDShape(proto, t)
	realm.RegisterSIMDKind(factory, pair, shape)
	w.built[factory] = true
	w.state = WiringKindBuilt
	w.log.Debug("SIMD kind wired",
		zap.String("kind", t.Name()),
		zap.Int("lanes", t.Lanes()),
		zap.Stringer("element", t.Element()),
		zap.String("shape", shape.Describe()))
	return pair, nil
}

// Finish marks the family ready. No further wiring is accepted.
func (w *SIMDWiring) Finish() error {
	if w.state != WiringBaseBuilt && w.state != WiringKindBuilt {
		return w.fail("Finish called in state %s", w.state)
	}
	w.state = WiringReady
	w.log.Debug("SIMD family ready", zap.Int("kinds", len(w.built)))
	return nil
}

// installSpecies defines a configurable Symbol.species getter returning the
// receiver, so reading it off a constructor yields that constructor.
func (w *SIMDWiring) installSpecies(ctorProps *vm.PlainObject) {
	realm := w.realm
	getter := realm.NewNativeFunction(0, false, "get [Symbol.species]", func(args []vm.Value) (vm.Value, error) {
		return realm.GetThis(), nil
	})
	falseVal, trueVal := false, true
	ctorProps.DefineAccessorPropertyByKey(vm.NewSymbolKey(realm.SymbolSpecies), getter, true, vm.Undefined, false, &falseVal, &trueVal)
}
