// Package types implements the compiler's type model: a small tagged union of primitive, structured
// and higher-order types, with structural uniquing for Tuple and Array and nominal identity for Data.
//
// Grounded on original_source/types.c (new_type/types_init/fn_type/generic_type/constructor_type/
// tuple_type/data_type/array_type/pointer_type).
package types

import (
	"fmt"
	"strings"
	"sync"

	"jitc/src/symbol"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Tag discriminates the kind of a Type.
type Tag int

const (
	Nil Tag = iota
	Bool
	Int
	UInt
	Double
	Char
	String
	ZZ
	Tuple
	Array
	Data
	Fn
	Generic
	Constructor
	Ptr
	Ref
)

// Type is the compiler's single type representation. Primitive tags only use Tag. Compound tags use
// the fields documented below.
type Type struct {
	Tag Tag

	// Tuple: Elems holds the component types in order.
	// Fn: Elems[0] is the return type, Elems[1:] are the parameter types.
	// Generic: Elems holds the candidate overloads (each itself Fn or Constructor).
	// Constructor: Elems holds the declared field types, in slot order.
	Elems []*Type

	// Array/Ptr/Ref: Elem is the pointee/element type.
	Elem *Type

	// Data/Constructor: Name identifies the nominal type or the constructor's declaring data type.
	Name symbol.Symbol

	// Data: Slots names each field in declaration order, aligned with the Constructor's Elems.
	Slots []symbol.Symbol

	// Data: Ctor is the type's single constructor signature (a Constructor type), nil until bound.
	Ctor *Type

	// Fn/Data: set once by the foreign registry or codegen lowering to mark an externally-implemented
	// (as opposed to user-defined) entity. Codegen routes calls to a Foreign Fn through the JIT bridge
	// and lays out a Foreign Data type as an opaque pointer.
	Foreign bool

	// Data: HasDtor/HasCopyCtor/HasAssign/HasCtor record whether the user (or the foreign registry)
	// bound an explicit lifecycle hook by this name, independent of what the slots require.
	HasDtor, HasCopyCtor, HasAssign, HasCtor bool
}

// -------------------------
// ----- primitives -----
// -------------------------

// Primitive singletons. Primitive types carry no payload so they are safe to share by pointer.
var (
	TNil    = &Type{Tag: Nil}
	TBool   = &Type{Tag: Bool}
	TInt    = &Type{Tag: Int}
	TUInt   = &Type{Tag: UInt}
	TDouble = &Type{Tag: Double}
	TChar   = &Type{Tag: Char}
	TString = &Type{Tag: String}
	TZZ     = &Type{Tag: ZZ}
)

// -------------------------
// ----- uniquing state -----
// -------------------------

// registry holds the uniquing tables for structural types (Tuple, Array) and the nominal table for
// Data types. Mirrors original_source/types.c's tuple_type_list/array_type_list linked lists, but
// keyed for O(1) lookup since Go gives us maps where the C source had to walk a list.
type registry struct {
	mx      sync.Mutex
	tuples  map[string]*Type
	arrays  map[*Type]*Type
	data    map[symbol.Symbol]*Type
	ptrs    map[*Type]*Type
	refs    map[*Type]*Type
}

var reg = &registry{
	tuples: make(map[string]*Type),
	arrays: make(map[*Type]*Type),
	data:   make(map[symbol.Symbol]*Type),
	ptrs:   make(map[*Type]*Type),
	refs:   make(map[*Type]*Type),
}

// tupleKey builds a uniquing key from component type identities (pointer identity, since every
// Type value other than Tuple/Array/Data itself is already unique-by-construction or a singleton).
func tupleKey(elems []*Type) string {
	var sb strings.Builder
	for _, e := range elems {
		fmt.Fprintf(&sb, "%p,", e)
	}
	return sb.String()
}

// NewTuple returns the unique Tuple type over elems. Two calls with structurally identical element
// lists return the same *Type, so type equality is pointer equality. A single-element list still
// allocates a Tuple (the singleton `(a,)` literal is a distinct type from its bare element, printed
// with a trailing comma by the driver's formatter).
func NewTuple(elems []*Type) *Type {
	if len(elems) == 0 {
		return TNil
	}
	key := tupleKey(elems)
	reg.mx.Lock()
	defer reg.mx.Unlock()
	if t, ok := reg.tuples[key]; ok {
		return t
	}
	t := &Type{Tag: Tuple, Elems: append([]*Type(nil), elems...)}
	reg.tuples[key] = t
	return t
}

// NewArray returns the unique Array type with element type elem.
func NewArray(elem *Type) *Type {
	reg.mx.Lock()
	defer reg.mx.Unlock()
	if t, ok := reg.arrays[elem]; ok {
		return t
	}
	t := &Type{Tag: Array, Elem: elem}
	reg.arrays[elem] = t
	return t
}

// NewPtr returns the unique Ptr type pointing to elem.
func NewPtr(elem *Type) *Type {
	reg.mx.Lock()
	defer reg.mx.Unlock()
	if t, ok := reg.ptrs[elem]; ok {
		return t
	}
	t := &Type{Tag: Ptr, Elem: elem}
	reg.ptrs[elem] = t
	return t
}

// NewRef returns the unique Ref type aliasing elem.
func NewRef(elem *Type) *Type {
	reg.mx.Lock()
	defer reg.mx.Unlock()
	if t, ok := reg.refs[elem]; ok {
		return t
	}
	t := &Type{Tag: Ref, Elem: elem}
	reg.refs[elem] = t
	return t
}

// NewFn returns a new Fn type. Fn types are not uniqued: every declaration site gets its own Type
// value, because two textually identical signatures at different declarations are still distinct
// overload candidates (they carry distinct backend identity once lowered).
func NewFn(ret *Type, params []*Type) *Type {
	elems := make([]*Type, 0, len(params)+1)
	elems = append(elems, ret)
	elems = append(elems, params...)
	return &Type{Tag: Fn, Elems: elems}
}

// RetOf returns an Fn type's return type.
func (t *Type) RetOf() *Type {
	if t.Tag != Fn {
		panic("types: RetOf on non-Fn type")
	}
	return t.Elems[0]
}

// ParamsOf returns an Fn type's parameter types.
func (t *Type) ParamsOf() []*Type {
	if t.Tag != Fn {
		panic("types: ParamsOf on non-Fn type")
	}
	return t.Elems[1:]
}

// NewConstructor returns a new Constructor type for a Data type named owner with the given slot
// types in declaration order. Like Fn, Constructor types are not uniqued.
func NewConstructor(owner symbol.Symbol, fields []*Type) *Type {
	return &Type{Tag: Constructor, Name: owner, Elems: append([]*Type(nil), fields...)}
}

// NewGeneric returns a Generic type wrapping the given overload candidates (each Fn or Constructor).
// Generic types are not uniqued: each binding site gets its own overload set.
func NewGeneric(candidates []*Type) *Type {
	return &Type{Tag: Generic, Elems: append([]*Type(nil), candidates...)}
}

// AddOverload appends candidate to a Generic type's candidate list in place.
func (t *Type) AddOverload(candidate *Type) {
	if t.Tag != Generic {
		panic("types: AddOverload on non-Generic type")
	}
	t.Elems = append(t.Elems, candidate)
}

// LookupData returns the existing Data type named name, or creates and registers a new, empty one.
// The second return value is false when a fresh Type was created (caller must populate Slots/Ctor).
func LookupData(name symbol.Symbol) (*Type, bool) {
	reg.mx.Lock()
	defer reg.mx.Unlock()
	if t, ok := reg.data[name]; ok {
		return t, true
	}
	t := &Type{Tag: Data, Name: name}
	reg.data[name] = t
	return t, false
}

// ---------------------
// ----- predicates -----
// ---------------------

// IsScalar reports whether t is passed/returned by value with no lifecycle hooks: every primitive
// plus Ptr/Ref. ZZ is intentionally excluded: it is a foreign Data type with a finalizer.
func (t *Type) IsScalar() bool {
	switch t.Tag {
	case Nil, Bool, Int, UInt, Double, Char, String, Ptr, Ref:
		return true
	default:
		return false
	}
}

// IsStructured reports whether t is an aggregate that may require construction/copy/assignment/
// destruction hooks when lowered: Tuple, Array, Data (including the foreign ZZ).
func (t *Type) IsStructured() bool {
	switch t.Tag {
	case Tuple, Array, Data, ZZ:
		return true
	default:
		return false
	}
}

// String renders t for diagnostics and the pretty-printer's type-phrase fallback.
func (t *Type) String() string {
	switch t.Tag {
	case Nil:
		return "()"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case UInt:
		return "uint"
	case Double:
		return "double"
	case Char:
		return "char"
	case String:
		return "string"
	case ZZ:
		return "ZZ"
	case Tuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case Array:
		return "array[" + t.Elem.String() + "]"
	case Data:
		return t.Name.String()
	case Fn:
		parts := make([]string, len(t.ParamsOf()))
		for i, p := range t.ParamsOf() {
			parts[i] = p.String()
		}
		return "fn(" + strings.Join(parts, ", ") + ") -> " + t.RetOf().String()
	case Generic:
		return fmt.Sprintf("generic[%d]", len(t.Elems))
	case Constructor:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return t.Name.String() + "(" + strings.Join(parts, ", ") + ")"
	case Ptr:
		return "*" + t.Elem.String()
	case Ref:
		return "&" + t.Elem.String()
	}
	return "<?>"
}
