package types

import (
	"testing"

	"jitc/src/symbol"
)

func TestNewTupleUniquing(t *testing.T) {
	a := NewTuple([]*Type{TInt, TBool})
	b := NewTuple([]*Type{TInt, TBool})
	if a != b {
		t.Fatalf("structurally identical tuples should unique to the same *Type")
	}
	c := NewTuple([]*Type{TBool, TInt})
	if a == c {
		t.Fatalf("tuples with swapped element order should not unique together")
	}
}

func TestNewTupleDegenerateCases(t *testing.T) {
	if got := NewTuple(nil); got != TNil {
		t.Errorf("NewTuple(nil) = %v, want TNil", got)
	}
	singleton := NewTuple([]*Type{TInt})
	if singleton == TInt {
		t.Errorf("NewTuple([]{TInt}) must not collapse to TInt itself; (a,) is a distinct tuple type")
	}
	if singleton.Tag != Tuple || len(singleton.Elems) != 1 || singleton.Elems[0] != TInt {
		t.Errorf("NewTuple([]{TInt}) = %v, want a 1-element Tuple wrapping TInt", singleton)
	}
	if NewTuple([]*Type{TInt}) != singleton {
		t.Errorf("singleton tuples should unique the same way as larger tuples")
	}
}

func TestNewArrayUniquing(t *testing.T) {
	a := NewArray(TDouble)
	b := NewArray(TDouble)
	if a != b {
		t.Fatalf("arrays of the same element type should unique to the same *Type")
	}
	if NewArray(TInt) == a {
		t.Fatalf("arrays of different element types must not unique together")
	}
}

func TestLookupDataIsNominal(t *testing.T) {
	name := symbol.Intern("TestLookupDataIsNominal$Point")
	first, existed := LookupData(name)
	if existed {
		t.Fatalf("first LookupData of a fresh name should report existed == false")
	}
	second, existed := LookupData(name)
	if !existed {
		t.Fatalf("second LookupData of the same name should report existed == true")
	}
	if first != second {
		t.Fatalf("LookupData should return the same *Type for a given name")
	}
}

func TestFnRetAndParams(t *testing.T) {
	fn := NewFn(TBool, []*Type{TInt, TInt})
	if fn.RetOf() != TBool {
		t.Errorf("RetOf() = %v, want TBool", fn.RetOf())
	}
	params := fn.ParamsOf()
	if len(params) != 2 || params[0] != TInt || params[1] != TInt {
		t.Errorf("ParamsOf() = %v, want [TInt TInt]", params)
	}
}

func TestGenericAddOverload(t *testing.T) {
	a := NewFn(TInt, []*Type{TInt, TInt})
	b := NewFn(TDouble, []*Type{TDouble, TDouble})
	g := NewGeneric([]*Type{a})
	g.AddOverload(b)
	if len(g.Elems) != 2 || g.Elems[1] != b {
		t.Fatalf("AddOverload should append in place, got %v", g.Elems)
	}
}

func TestIsScalarAndIsStructured(t *testing.T) {
	for _, typ := range []*Type{TNil, TBool, TInt, TUInt, TDouble, TChar, TString} {
		if !typ.IsScalar() {
			t.Errorf("%s should be scalar", typ)
		}
		if typ.IsStructured() {
			t.Errorf("%s should not be structured", typ)
		}
	}
	if TZZ.IsScalar() {
		t.Errorf("ZZ is a foreign Data type with a finalizer and must not be scalar")
	}
	if !TZZ.IsStructured() {
		t.Errorf("ZZ should be structured")
	}
	tup := NewTuple([]*Type{TInt, TBool})
	if !tup.IsStructured() || tup.IsScalar() {
		t.Errorf("tuple should be structured and not scalar")
	}
}

func TestStringRendering(t *testing.T) {
	cases := []struct {
		typ  *Type
		want string
	}{
		{TInt, "int"},
		{TBool, "bool"},
		{NewTuple([]*Type{TInt, TBool}), "(int, bool)"},
		{NewArray(TInt), "array[int]"},
		{NewFn(TBool, []*Type{TInt, TInt}), "fn(int, int) -> bool"},
	}
	for _, c := range cases {
		if got := c.typ.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestRetOfPanicsOnNonFn(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("RetOf on a non-Fn type should panic")
		}
	}()
	TInt.RetOf()
}
