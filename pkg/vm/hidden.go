package vm

import (
	"fmt"

	"github.com/nooga/simdjs/pkg/errors"
)

// HiddenSlot is an engine-internal storage location on an object. Hidden
// slots are part of the shape but are never enumerable, never configurable and
// never reachable through string or symbol property lookup. Once present on
// an object a hidden slot always holds a non-nil value.
type HiddenSlot struct {
	name     string
	readOnly bool
}

// NewHiddenSlot declares a hidden slot. Slots are compared by identity, so
// declare each one once as a package-level value.
func NewHiddenSlot(name string) *HiddenSlot {
	return &HiddenSlot{name: name}
}

// NewReadOnlyHiddenSlot declares a hidden slot whose value is fixed once the
// slot is present on an object.
func NewReadOnlyHiddenSlot(name string) *HiddenSlot {
	return &HiddenSlot{name: name, readOnly: true}
}

func (h *HiddenSlot) ReadOnly() bool { return h.readOnly }

func (h *HiddenSlot) Name() string { return h.name }

// Key returns the property key addressing this slot inside a shape.
func (h *HiddenSlot) Key() PropertyKey {
	return PropertyKey{kind: KeyKindHidden, name: h.name, hidden: h}
}

func (h *HiddenSlot) offset(o *PlainObject) (int, bool) {
	i, ok := o.shape.lookup(h.Key())
	if !ok {
		return -1, false
	}
	return o.shape.fields[i].offset, true
}

// Has reports whether o's shape carries the slot.
func (h *HiddenSlot) Has(o *PlainObject) bool {
	_, ok := h.offset(o)
	return ok
}

// Get returns the slot's value. Reading a slot the object does not carry is a
// contract violation.
func (h *HiddenSlot) Get(o *PlainObject) any {
	off, ok := h.offset(o)
	if !ok {
		panic(contractf("HiddenSlot.Get", "object has no hidden slot %q", h.name))
	}
	v := o.hidden[off]
	if v == nil {
		panic(contractf("HiddenSlot.Get", "hidden slot %q read before being set", h.name))
	}
	return v
}

// Set replaces the value of a slot the object already carries.
func (h *HiddenSlot) Set(o *PlainObject, v any) {
	errors.Assert(v != nil, "HiddenSlot.Set", "nil value for hidden slot %q", h.name)
	off, ok := h.offset(o)
	if !ok {
		panic(contractf("HiddenSlot.Set", "object has no hidden slot %q", h.name))
	}
	if h.readOnly {
		panic(contractf("HiddenSlot.Set", "hidden slot %q is read-only", h.name))
	}
	o.hidden[off] = v
}

// Put defines the slot on o (transitioning its shape) or replaces its value.
func (h *HiddenSlot) Put(o *PlainObject, v any) {
	errors.Assert(v != nil, "HiddenSlot.Put", "nil value for hidden slot %q", h.name)
	if off, ok := h.offset(o); ok {
		if h.readOnly {
			panic(contractf("HiddenSlot.Put", "hidden slot %q is read-only", h.name))
		}
		o.hidden[off] = v
		return
	}
	o.shape = o.shape.AddHidden(h, "")
	o.hidden = append(o.hidden, v)
}

func contractf(op, format string, args ...any) *errors.ContractViolation {
	return &errors.ContractViolation{Op: op, Msg: fmt.Sprintf(format, args...)}
}
