package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nooga/simdjs/pkg/config"
	"github.com/nooga/simdjs/pkg/errors"
	"github.com/nooga/simdjs/pkg/vm"
)

func newSIMDRealm(t *testing.T) *vm.Realm {
	t.Helper()
	realm, err := NewRealm(nil)
	require.NoError(t, err)
	require.True(t, realm.IsInitialized())
	return realm
}

func simdConstructor(t *testing.T, realm *vm.Realm, name string) vm.Value {
	t.Helper()
	ctor, ok := realm.LookupFunction(SIMDObjectName, name)
	require.True(t, ok, "SIMD.%s not declared", name)
	return ctor
}

func prototypeOf(v vm.Value) vm.Value {
	switch v.Type() {
	case vm.TypeObject:
		return v.AsPlainObject().GetPrototype()
	case vm.TypeNativeFunctionWithProps:
		return v.AsNativeFunctionWithProps().Properties.GetPrototype()
	}
	return vm.Null
}

func TestSIMDInitializer(t *testing.T) {
	var initializer BuiltinInitializer = &SIMDInitializer{}
	assert.Equal(t, "SIMD", initializer.Name())
	assert.Equal(t, PrioritySIMD, initializer.Priority())
}

func TestSIMDBootstrapInstallsEveryKind(t *testing.T) {
	realm := newSIMDRealm(t)
	assert.Equal(t, vm.SIMDTypeFactories(), realm.SIMDKinds())

	base := realm.SIMDTypes
	require.True(t, base.Constructor.IsCallable())
	require.True(t, base.Prototype.IsObject())
	assert.True(t, prototypeOf(base.Prototype).Is(realm.ObjectPrototype))

	for _, f := range vm.SIMDTypeFactories() {
		pair, ok := realm.SIMDConstructor(f)
		require.True(t, ok, f.Name())
		assert.True(t, pair.Constructor.Is(simdConstructor(t, realm, f.Name())), f.Name())

		// the kind is wired directly below the base on both chains
		assert.True(t, prototypeOf(pair.Prototype).Is(base.Prototype), f.Name())
		assert.True(t, prototypeOf(pair.Constructor).Is(base.Constructor), f.Name())

		proto, err := realm.Get(pair.Constructor, "prototype")
		require.NoError(t, err)
		assert.True(t, proto.Is(pair.Prototype), f.Name())
		ctor, err := realm.Get(pair.Prototype, "constructor")
		require.NoError(t, err)
		assert.True(t, ctor.Is(pair.Constructor), f.Name())

		// kind prototypes hold the default type and an empty buffer but are not members
		defType, defLanes, ok := vm.SIMDPrototypeDefaults(pair.Prototype.AsPlainObject())
		require.True(t, ok, f.Name())
		assert.Same(t, f.CreateSIMDType(), defType, f.Name())
		assert.Empty(t, defLanes, f.Name())
		assert.False(t, vm.IsSIMD(pair.Prototype), f.Name())
	}
}

func TestSIMDCreateYieldsNullFilledBuffer(t *testing.T) {
	realm := newSIMDRealm(t)
	for _, f := range vm.SIMDTypeFactories() {
		typ := f.CreateSIMDType()
		v := vm.CreateSIMD(realm, typ)
		require.True(t, vm.IsSIMD(v), f.Name())
		assert.Same(t, typ, vm.SIMDGetType(v), f.Name())

		lanes := vm.SIMDGetArray(v)
		require.Len(t, lanes, typ.Lanes(), f.Name())
		for i, l := range lanes {
			assert.True(t, l.IsNull(), "%s lane %d", f.Name(), i)
		}

		pair, _ := realm.SIMDConstructor(f)
		assert.True(t, prototypeOf(v).Is(pair.Prototype), f.Name())
		of, _ := realm.SIMDObjectFactory(f)
		assert.Same(t, of.Shape(), v.AsPlainObject().Shape(), f.Name())
		assert.Empty(t, v.AsPlainObject().OwnPropertyNames(), f.Name())
	}
}

func TestSIMDShapesAreDistinctPerKindAndRealm(t *testing.T) {
	r1 := newSIMDRealm(t)
	r2 := newSIMDRealm(t)

	seen := make(map[*vm.Shape]string)
	for _, f := range vm.SIMDTypeFactories() {
		of, _ := r1.SIMDObjectFactory(f)
		if prev, dup := seen[of.Shape()]; dup {
			t.Fatalf("%s shares a shape with %s", f.Name(), prev)
		}
		seen[of.Shape()] = f.Name()
		assert.Same(t, vm.SIMDClass, of.Shape().Class())

		of2, _ := r2.SIMDObjectFactory(f)
		assert.NotSame(t, of.Shape(), of2.Shape(), "%s shape leaked across realms", f.Name())
	}
}

func TestSIMDFloat32x4AndInt32x4Scenario(t *testing.T) {
	realm := newSIMDRealm(t)
	f := vm.CreateSIMD(realm, vm.Float32x4Factory.CreateSIMDType())
	i := vm.CreateSIMD(realm, vm.Int32x4Factory.CreateSIMDType())

	assert.Len(t, vm.SIMDGetArray(f), 4)
	assert.Len(t, vm.SIMDGetArray(i), 4)
	assert.NotSame(t, f.AsPlainObject().Shape(), i.AsPlainObject().Shape())

	// instance -> kind prototype -> SIMDTypes.prototype -> Object.prototype
	for _, v := range []vm.Value{f, i} {
		kindProto := prototypeOf(v)
		baseProto := prototypeOf(kindProto)
		assert.False(t, kindProto.Is(realm.SIMDTypes.Prototype))
		assert.True(t, baseProto.Is(realm.SIMDTypes.Prototype))
		assert.True(t, prototypeOf(baseProto).Is(realm.ObjectPrototype))
	}

	toString, _ := realm.ObjectPrototype.AsPlainObject().GetOwn("toString")
	got, err := realm.Call(toString, f, nil)
	require.NoError(t, err)
	assert.Equal(t, "[object Float32x4]", got.AsString())
	got, err = realm.Call(toString, i, nil)
	require.NoError(t, err)
	assert.Equal(t, "[object Int32x4]", got.AsString())

	// through Function.prototype.call, as scripts reach it
	call, _ := realm.FunctionPrototype.AsPlainObject().GetOwn("call")
	got, err = realm.Call(call, toString, []vm.Value{f})
	require.NoError(t, err)
	assert.Equal(t, "[object Float32x4]", got.AsString())
}

func TestSIMDToStringTag(t *testing.T) {
	realm := newSIMDRealm(t)
	tagKey := vm.NewSymbolKey(realm.SymbolToStringTag)

	baseProto := realm.SIMDTypes.Prototype.AsPlainObject()
	getter, setter, enumerable, configurable, exists := baseProto.GetOwnAccessorByKey(tagKey)
	require.True(t, exists, "toStringTag must be an accessor on SIMDTypes.prototype")
	assert.True(t, getter.IsCallable())
	assert.True(t, setter.IsUndefined())
	assert.False(t, enumerable)
	assert.True(t, configurable)

	for _, f := range vm.SIMDTypeFactories() {
		v := vm.CreateSIMD(realm, f.CreateSIMDType())
		tag, err := realm.GetProperty(v, tagKey)
		require.NoError(t, err)
		assert.Equal(t, f.Name(), tag.AsString())
	}

	// non-members read undefined instead of throwing
	pair, _ := realm.SIMDConstructor(vm.Int16x8Factory)
	nonMembers := []vm.Value{
		vm.Undefined,
		vm.Null,
		vm.IntegerValue(4),
		vm.NewString("Int16x8"),
		vm.NewObject(realm.ObjectPrototype),
		realm.SIMDTypes.Prototype,
		pair.Prototype,
		vm.NewObject(pair.Prototype),
	}
	for _, v := range nonMembers {
		tag, err := realm.Call(getter, v, nil)
		require.NoError(t, err)
		assert.True(t, tag.IsUndefined(), "tag of %s", v.Inspect())
	}

	toString, _ := realm.ObjectPrototype.AsPlainObject().GetOwn("toString")
	got, err := realm.Call(toString, pair.Prototype, nil)
	require.NoError(t, err)
	assert.Equal(t, "[object Object]", got.AsString())
}

func TestSIMDSpecies(t *testing.T) {
	realm := newSIMDRealm(t)
	speciesKey := vm.NewSymbolKey(realm.SymbolSpecies)

	ctors := []vm.Value{realm.SIMDTypes.Constructor}
	for _, f := range vm.SIMDTypeFactories() {
		pair, _ := realm.SIMDConstructor(f)
		ctors = append(ctors, pair.Constructor)
	}
	for _, ctor := range ctors {
		props := ctor.AsNativeFunctionWithProps().Properties
		getter, setter, enumerable, configurable, exists := props.GetOwnAccessorByKey(speciesKey)
		require.True(t, exists, "species must be an own accessor of %s", ctor.Inspect())
		assert.True(t, getter.IsCallable())
		assert.True(t, setter.IsUndefined())
		assert.False(t, enumerable)
		assert.True(t, configurable)

		species, err := realm.GetProperty(ctor, speciesKey)
		require.NoError(t, err)
		assert.True(t, species.Is(ctor), "species of %s", ctor.Inspect())
	}
}

func TestSIMDPrototypePropertyIsFrozen(t *testing.T) {
	realm := newSIMDRealm(t)
	pair, _ := realm.SIMDConstructor(vm.Uint8x16Factory)
	props := pair.Constructor.AsNativeFunctionWithProps().Properties

	_, writable, enumerable, configurable, exists := props.GetOwnDescriptorByKey(vm.NewStringKey("prototype"))
	require.True(t, exists)
	assert.False(t, writable)
	assert.False(t, enumerable)
	assert.False(t, configurable)

	props.SetOwn("prototype", vm.Null)
	proto, _ := realm.Get(pair.Constructor, "prototype")
	assert.True(t, proto.Is(pair.Prototype))
}

func TestSIMDConstructorsCoerceLanes(t *testing.T) {
	realm := newSIMDRealm(t)

	v, err := realm.Call(simdConstructor(t, realm, "Int32x4"), vm.Undefined,
		[]vm.Value{vm.NumberValue(1.9), vm.NumberValue(-2.5), vm.NewString("7")})
	require.NoError(t, err)
	require.True(t, vm.IsSIMD(v))
	assert.Equal(t, "Int32x4(1, -2, 7, 0)", v.Inspect())

	v, err = realm.Call(simdConstructor(t, realm, "Bool32x4"), vm.Undefined,
		[]vm.Value{vm.IntegerValue(1), vm.IntegerValue(0)})
	require.NoError(t, err)
	assert.Equal(t, "Bool32x4(true, false, false, false)", v.Inspect())

	v, err = realm.Call(simdConstructor(t, realm, "Uint8x16"), vm.Undefined, []vm.Value{vm.IntegerValue(-1)})
	require.NoError(t, err)
	lanes := vm.SIMDGetArray(v)
	require.Len(t, lanes, 16)
	assert.Equal(t, int32(255), lanes[0].AsInteger())
	assert.Equal(t, int32(0), lanes[15].AsInteger())
}

func TestSIMDTypesIsNotConstructable(t *testing.T) {
	realm := newSIMDRealm(t)
	_, err := realm.Call(realm.SIMDTypes.Constructor, vm.Undefined, nil)
	require.Error(t, err)
	var rt *errors.RuntimeError
	require.ErrorAs(t, err, &rt)
	assert.Equal(t, "TypeError", rt.Name)
}

func TestSIMDNamespace(t *testing.T) {
	realm := newSIMDRealm(t)
	ns, ok := realm.GetGlobal(SIMDObjectName)
	require.True(t, ok)
	tag, err := realm.GetProperty(ns, vm.NewSymbolKey(realm.SymbolToStringTag))
	require.NoError(t, err)
	assert.Equal(t, "SIMD", tag.AsString())

	names := ns.AsPlainObject().OwnPropertyNames()
	assert.Contains(t, names, SIMDTypesClassName)
	for _, f := range vm.SIMDTypeFactories() {
		assert.Contains(t, names, f.Name())
	}
	assert.Empty(t, ns.AsPlainObject().OwnKeys(), "namespace members are not enumerable")
}

func TestSIMDConfiguredSubset(t *testing.T) {
	cfg, err := config.Parse(`
[simd]
kinds = ["int32x4", "Float32x4"]
`)
	require.NoError(t, err)
	realm, err := NewRealm(cfg)
	require.NoError(t, err)

	assert.Equal(t, []*vm.SIMDTypeFactory{vm.Int32x4Factory, vm.Float32x4Factory}, realm.SIMDKinds())
	_, ok := realm.SIMDObjectFactory(vm.Int8x16Factory)
	assert.False(t, ok)
	_, ok = realm.LookupFunction(SIMDObjectName, "Int8x16")
	assert.False(t, ok)
	assert.Panics(t, func() { vm.CreateSIMD(realm, vm.Int8x16Factory.CreateSIMDType()) })
	assert.True(t, vm.IsSIMD(vm.CreateSIMD(realm, vm.Float32x4Factory.CreateSIMDType())))
}

func TestSIMDDisabled(t *testing.T) {
	cfg, err := config.Parse("[simd]\nenabled = false\n")
	require.NoError(t, err)
	realm, err := NewRealm(cfg)
	require.NoError(t, err)

	assert.Empty(t, realm.SIMDKinds())
	_, ok := realm.GetGlobal(SIMDObjectName)
	assert.False(t, ok)
	assert.True(t, realm.SIMDTypes.Constructor.IsUndefined())
}

func TestSIMDWiringStateMachine(t *testing.T) {
	realm, ctx := newCoreRealm(t)
	require.NoError(t, declareSIMDConstructors(ctx, vm.SIMDTypeFactories()))
	w := NewSIMDWiring(realm)
	assert.Equal(t, WiringUnbuilt, w.State())

	var be *errors.BootstrapError
	_, err := w.BuildKind(vm.Float32x4Factory, vm.ConstructorPair{})
	require.ErrorAs(t, err, &be, "BuildKind before BuildBase")
	require.ErrorAs(t, w.Finish(), &be, "Finish before BuildBase")

	base, err := w.BuildBase()
	require.NoError(t, err)
	assert.Equal(t, WiringBaseBuilt, w.State())
	_, err = w.BuildBase()
	require.ErrorAs(t, err, &be, "second BuildBase")

	foreign := vm.ConstructorPair{Constructor: base.Constructor, Prototype: vm.NewObject(realm.ObjectPrototype)}
	_, err = w.BuildKind(vm.Float32x4Factory, foreign)
	require.ErrorAs(t, err, &be, "foreign base")

	_, err = w.BuildKind(vm.Float32x4Factory, base)
	require.NoError(t, err)
	assert.Equal(t, WiringKindBuilt, w.State())
	_, err = w.BuildKind(vm.Float32x4Factory, base)
	require.ErrorAs(t, err, &be, "duplicate kind")
	_, err = w.BuildKind(vm.Int32x4Factory, base)
	require.NoError(t, err)

	require.NoError(t, w.Finish())
	assert.Equal(t, WiringReady, w.State())
	_, err = w.BuildKind(vm.Int16x8Factory, base)
	require.ErrorAs(t, err, &be, "BuildKind after Finish")
	require.ErrorAs(t, w.Finish(), &be, "second Finish")

	assert.Equal(t, []*vm.SIMDTypeFactory{vm.Float32x4Factory, vm.Int32x4Factory}, realm.SIMDKinds())
}

func TestSIMDWiringWithoutBaseKinds(t *testing.T) {
	realm, ctx := newCoreRealm(t)
	require.NoError(t, declareSIMDConstructors(ctx, nil))
	w := NewSIMDWiring(realm)
	_, err := w.BuildBase()
	require.NoError(t, err)
	require.NoError(t, w.Finish())
	assert.Empty(t, realm.SIMDKinds())
}

func TestSIMDWiringMissingConstructor(t *testing.T) {
	realm, ctx := newCoreRealm(t)

	// nothing declared at all
	_, err := NewSIMDWiring(realm).BuildBase()
	var be *errors.BootstrapError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, SIMDObjectName, be.Initializer)

	// only Float32x4 declared
	require.NoError(t, declareSIMDConstructors(ctx, []*vm.SIMDTypeFactory{vm.Float32x4Factory}))
	w := NewSIMDWiring(realm)
	base, err := w.BuildBase()
	require.NoError(t, err)
	_, err = w.BuildKind(vm.Int32x4Factory, base)
	require.ErrorAs(t, err, &be)
	assert.Contains(t, be.Msg, "Int32x4")
	_, ok := realm.SIMDObjectFactory(vm.Int32x4Factory)
	assert.False(t, ok)
}

func TestSIMDWiringRejectsPlainFunctionConstructor(t *testing.T) {
	realm, ctx := newCoreRealm(t)
	ns := vm.NewObject(ctx.ObjectPrototype).AsPlainObject()
	ns.SetOwn(SIMDTypesClassName, vm.NewNativeFunction(0, false, SIMDTypesClassName, nil))
	require.NoError(t, ctx.DefineGlobal(SIMDObjectName, vm.NewValueFromPlainObject(ns)))

	_, err := NewSIMDWiring(realm).BuildBase()
	var be *errors.BootstrapError
	require.ErrorAs(t, err, &be)
	assert.Contains(t, be.Msg, "cannot hold properties")
}

func TestWiringStateString(t *testing.T) {
	assert.Equal(t, "unbuilt", WiringUnbuilt.String())
	assert.Equal(t, "base-built", WiringBaseBuilt.String())
	assert.Equal(t, "kind-built", WiringKindBuilt.String())
	assert.Equal(t, "ready", WiringReady.String())
	assert.Equal(t, "WiringState(9)", WiringState(9).String())
}
