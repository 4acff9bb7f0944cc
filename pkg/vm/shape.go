package vm

import (
	"strconv"
	"sync"

	"github.com/nooga/simdjs/pkg/errors"
)

// ObjectClass identifies the family of objects allocated from a shape lineage.
// Membership tests compare class pointers, so every class must be a single
// package-level instance.
type ObjectClass struct {
	name string
}

// NewObjectClass declares a new object class. Call it once per family.
func NewObjectClass(name string) *ObjectClass {
	return &ObjectClass{name: name}
}

func (c *ObjectClass) Name() string { return c.name }

// OrdinaryClass is the class of every object that is not a member of a
// builtin family.
var OrdinaryClass = NewObjectClass("Object")

type Field struct {
	offset int
	// For string keys, name holds the property name; for symbols, it may be empty (debug-only)
	name         string
	keyKind      KeyKind
	symbolVal    Value       // valid when keyKind == KeyKindSymbol
	hidden       *HiddenSlot // valid when keyKind == KeyKindHidden
	typeTag      string      // hidden slots only: declared content type, part of shape identity
	writable     bool
	enumerable   bool
	configurable bool
	isAccessor   bool
}

func (f *Field) matches(key PropertyKey) bool {
	if f.keyKind != key.kind {
		return false
	}
	switch key.kind {
	case KeyKindString:
		return f.name == key.name
	case KeyKindSymbol:
		return f.symbolVal.obj == key.symbolVal.obj
	case KeyKindHidden:
		return f.hidden == key.hidden
	}
	return false
}

// Shape describes an object's prototype lineage, class and property layout.
// A shape is immutable once published: adding a property follows (or creates)
// a transition, and attribute changes produce a private copy.
type Shape struct {
	parent      *Shape
	proto       *PlainObject // non-nil for shapes rooted at a proto-child shape
	class       *ObjectClass
	fields      []Field
	propCount   int
	hiddenCount int
	transitions map[string]*Shape // keyed by PropertyKey.hash() plus attribute tag
	mu          sync.RWMutex      // Protects transitions map
	version     uint32            // Bumped on any layout/flags change
}

// Parent returns the shape this one was derived from, or nil for a root.
func (s *Shape) Parent() *Shape { return s.parent }

// Class returns the object class shared by the lineage.
func (s *Shape) Class() *ObjectClass { return s.class }

// Prototype returns the prototype the lineage was rooted at, or nil when the
// prototype is tracked per object (the generic root shape).
func (s *Shape) Prototype() *PlainObject { return s.proto }

// FieldCount returns the number of fields, hidden slots included.
func (s *Shape) FieldCount() int { return len(s.fields) }

// HiddenCount returns the number of hidden slots in the layout.
func (s *Shape) HiddenCount() int { return s.hiddenCount }

func (s *Shape) lookup(key PropertyKey) (int, bool) {
	for i := range s.fields {
		if s.fields[i].matches(key) {
			return i, true
		}
	}
	return -1, false
}

func attributeTag(f Field) string {
	b := []byte{'-', '-', '-', '-'}
	if f.writable {
		b[0] = 'w'
	}
	if f.enumerable {
		b[1] = 'e'
	}
	if f.configurable {
		b[2] = 'c'
	}
	if f.isAccessor {
		b[3] = 'a'
	}
	return string(b) + f.typeTag
}

// addField returns the shared successor of s that appends fld under key.
func (s *Shape) addField(key PropertyKey, fld Field) *Shape {
	hashKey := key.hash() + "|" + attributeTag(fld)
	s.mu.RLock()
	next, ok := s.transitions[hashKey]
	s.mu.RUnlock()
	if ok {
		return next
	}

	fld.keyKind = key.kind
	fld.name = key.name
	fld.symbolVal = key.symbolVal
	fld.hidden = key.hidden
	next = &Shape{
		parent:      s,
		proto:       s.proto,
		class:       s.class,
		propCount:   s.propCount,
		hiddenCount: s.hiddenCount,
		transitions: make(map[string]*Shape),
		version:     s.version + 1,
	}
	if key.kind == KeyKindHidden {
		fld.offset = s.hiddenCount
		next.hiddenCount++
	} else {
		fld.offset = s.propCount
		next.propCount++
	}
	next.fields = make([]Field, len(s.fields)+1)
	copy(next.fields, s.fields)
	next.fields[len(s.fields)] = fld

	s.mu.Lock()
	if existing, exists := s.transitions[hashKey]; exists {
		next = existing
	} else {
		s.transitions[hashKey] = next
	}
	s.mu.Unlock()
	return next
}

// withField returns an unshared copy of s where field i is replaced by f.
func (s *Shape) withField(i int, f Field) *Shape {
	fields := make([]Field, len(s.fields))
	copy(fields, s.fields)
	fields[i] = f
	return &Shape{
		parent:      s.parent,
		proto:       s.proto,
		class:       s.class,
		fields:      fields,
		propCount:   s.propCount,
		hiddenCount: s.hiddenCount,
		transitions: make(map[string]*Shape),
		version:     s.version + 1,
	}
}

// withPrototype returns an unshared copy of s rooted at a different prototype.
func (s *Shape) withPrototype(proto *PlainObject) *Shape {
	fields := make([]Field, len(s.fields))
	copy(fields, s.fields)
	return &Shape{
		parent:      s.parent,
		proto:       proto,
		class:       s.class,
		fields:      fields,
		propCount:   s.propCount,
		hiddenCount: s.hiddenCount,
		transitions: make(map[string]*Shape),
		version:     s.version + 1,
	}
}

// AddHidden returns the shape extending s with the hidden slot. typeTag
// declares what the slot holds; shapes with different tags are distinct.
func (s *Shape) AddHidden(slot *HiddenSlot, typeTag string) *Shape {
	errors.Assert(slot != nil, "Shape.AddHidden", "nil hidden slot")
	if _, exists := s.lookup(slot.Key()); exists {
		panic(&errors.ContractViolation{Op: "Shape.AddHidden", Msg: "hidden slot " + slot.name + " already in shape"})
	}
	return s.addField(slot.Key(), Field{typeTag: typeTag})
}

// ProtoChildShape returns the root shape for objects of class whose prototype
// is proto. Every call with the same pair yields the same shape.
func ProtoChildShape(proto *PlainObject, class *ObjectClass) *Shape {
	errors.Assert(proto != nil, "ProtoChildShape", "nil prototype")
	errors.Assert(class != nil, "ProtoChildShape", "nil object class")
	proto.childMu.Lock()
	defer proto.childMu.Unlock()
	if s, ok := proto.protoChildren[class]; ok {
		return s
	}
	if proto.protoChildren == nil {
		proto.protoChildren = make(map[*ObjectClass]*Shape)
	}
	s := &Shape{
		parent:      RootShape,
		proto:       proto,
		class:       class,
		fields:      []Field{},
		transitions: make(map[string]*Shape),
	}
	proto.protoChildren[class] = s
	return s
}

// Describe renders the layout for debugging, e.g. "SIMDTypes{#simdtype:Float32x4,#simdarray}".
func (s *Shape) Describe() string {
	out := s.class.name + "{"
	for i, f := range s.fields {
		if i > 0 {
			out += ","
		}
		switch f.keyKind {
		case KeyKindHidden:
			out += "#" + f.name
			if f.typeTag != "" {
				out += ":" + f.typeTag
			}
		case KeyKindSymbol:
			out += "@@" + f.symbolVal.AsSymbol()
		default:
			out += f.name
		}
	}
	return out + "}@v" + strconv.FormatUint(uint64(s.version), 10)
}
