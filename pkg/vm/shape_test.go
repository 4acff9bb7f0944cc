package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nooga/simdjs/pkg/errors"
)

var testClass = NewObjectClass("TestClass")

// requireContractViolation runs fn and checks that it panics with a
// *errors.ContractViolation raised by op.
func requireContractViolation(t *testing.T, op string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected %s to panic", op)
		cv, ok := r.(*errors.ContractViolation)
		require.True(t, ok, "expected *errors.ContractViolation, got %T: %v", r, r)
		assert.Equal(t, op, cv.Op)
	}()
	fn()
}

func TestProtoChildShapeIsCachedPerPrototypeAndClass(t *testing.T) {
	proto := NewObject(DefaultObjectPrototype).AsPlainObject()
	other := NewObject(DefaultObjectPrototype).AsPlainObject()

	s1 := ProtoChildShape(proto, testClass)
	s2 := ProtoChildShape(proto, testClass)
	assert.Same(t, s1, s2)
	assert.Same(t, RootShape, s1.Parent())
	assert.Same(t, proto, s1.Prototype())
	assert.Same(t, testClass, s1.Class())
	assert.Equal(t, 0, s1.FieldCount())

	assert.NotSame(t, s1, ProtoChildShape(other, testClass))
	assert.NotSame(t, s1, ProtoChildShape(proto, OrdinaryClass))
}

func TestAddHiddenTransitionsAreShared(t *testing.T) {
	proto := NewObject(DefaultObjectPrototype).AsPlainObject()
	slot := NewHiddenSlot("payload")
	root := ProtoChildShape(proto, testClass)

	a := root.AddHidden(slot, "int")
	b := root.AddHidden(slot, "int")
	c := root.AddHidden(slot, "string")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Same(t, root, a.Parent())
	assert.Equal(t, 1, a.HiddenCount())
	assert.Equal(t, 1, a.FieldCount())
	assert.Same(t, testClass, a.Class(), "hidden transitions keep the class")
	assert.Same(t, proto, a.Prototype())
}

func TestAddHiddenTwicePanics(t *testing.T) {
	slot := NewHiddenSlot("once")
	s := ProtoChildShape(NewObject(DefaultObjectPrototype).AsPlainObject(), testClass).AddHidden(slot, "")

	defer func() {
		r := recover()
		require.NotNil(t, r)
		cv, ok := r.(*errors.ContractViolation)
		require.True(t, ok, "expected *errors.ContractViolation, got %T", r)
		assert.Equal(t, "Shape.AddHidden", cv.Op)
	}()
	s.AddHidden(slot, "")
}

func TestProtoChildShapeRejectsNilPrototype(t *testing.T) {
	assert.Panics(t, func() { ProtoChildShape(nil, testClass) })
	assert.Panics(t, func() { ProtoChildShape(NewObject(DefaultObjectPrototype).AsPlainObject(), nil) })
}

func TestShapeDescribe(t *testing.T) {
	proto := NewObject(DefaultObjectPrototype).AsPlainObject()
	s := ProtoChildShape(proto, testClass).
		AddHidden(NewHiddenSlot("first"), "tag").
		AddHidden(NewHiddenSlot("second"), "")
	assert.Equal(t, "TestClass{#first:tag,#second}@v2", s.Describe())
}

func TestNewObjectFromShape(t *testing.T) {
	proto := NewObject(DefaultObjectPrototype).AsPlainObject()
	slot := NewHiddenSlot("value")
	shape := ProtoChildShape(proto, testClass).AddHidden(slot, "")

	obj := NewObjectFromShape(shape, 42)
	assert.Same(t, shape, obj.Shape())
	assert.Same(t, proto, obj.GetPrototype().AsPlainObject())
	assert.Equal(t, 42, slot.Get(obj))
	assert.Empty(t, obj.OwnPropertyNames())

	assert.Panics(t, func() { NewObjectFromShape(shape) }, "missing hidden value")
	assert.Panics(t, func() { NewObjectFromShape(shape, nil) }, "nil hidden value")
	assert.Panics(t, func() { NewObjectFromShape(RootShape) }, "shape without prototype")
}

func TestNewObjectFromShapeCopiesHiddenValues(t *testing.T) {
	proto := NewObject(DefaultObjectPrototype).AsPlainObject()
	first, second := NewHiddenSlot("first"), NewHiddenSlot("second")
	shape := ProtoChildShape(proto, testClass).AddHidden(first, "").AddHidden(second, "")

	vals := []any{"a", "b"}
	obj := NewObjectFromShape(shape, vals...)
	vals[0] = "changed"
	assert.Equal(t, "a", first.Get(obj), "caller's slice must not alias object storage")

	second.Set(obj, "c")
	assert.Equal(t, "b", vals[1], "object writes must not leak into caller's slice")

	other := NewObjectFromShape(shape, vals...)
	first.Set(other, "z")
	assert.Equal(t, "a", first.Get(obj), "objects built from one slice stay independent")
}
