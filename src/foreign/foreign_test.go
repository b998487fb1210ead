package foreign

import (
	"testing"

	"jitc/src/envm"
	"jitc/src/symbol"
	"jitc/src/types"
)

func TestInstallPrimitivesBindsAllSevenNames(t *testing.T) {
	g := envm.NewGlobal()
	InstallPrimitives(g)

	if _, ok := g.FindSymbol(symbol.Intern("ZZ")); ok {
		t.Errorf("ZZ must not be bound by InstallPrimitives; registerZZ binds it as a constructor Generic")
	}
	want := map[string]*types.Type{
		"nil": types.TNil, "bool": types.TBool, "int": types.TInt, "uint": types.TUInt,
		"double": types.TDouble, "char": types.TChar, "string": types.TString,
	}
	for name, typ := range want {
		b, ok := g.FindSymbol(symbol.Intern(name))
		if !ok {
			t.Errorf("primitive %q was not bound", name)
			continue
		}
		if b.Type != typ {
			t.Errorf("primitive %q bound to %s, want %s", name, b.Type, typ)
		}
	}
}

func TestInitRegistersZZOverloads(t *testing.T) {
	g := envm.NewGlobal()
	r := Init(g)

	b, ok := g.FindSymbol(symbol.Intern("+"))
	if !ok {
		t.Fatalf("ZZ registration should bind \"+\" as a generic overload")
	}
	if _, ok := FindCandidate(b.Type, ZZBinopSignature); !ok {
		t.Errorf("\"+\" should carry a candidate matching ZZBinopSignature")
	}

	entry, ok := r.Lookup(symbol.Intern("+"), ZZBinopSignature)
	if !ok {
		t.Fatalf("registry should have a direct \"+\" entry for ZZBinopSignature")
	}
	if entry.Impl == nil {
		t.Errorf("ZZ \"+\" entry should carry a non-nil implementation")
	}
}

func TestZZGreaterEqualIsNotShadowedByLessEqual(t *testing.T) {
	g := envm.NewGlobal()
	r := Init(g)

	le, ok := r.Lookup(symbol.Intern("<="), ZZCmpSignature)
	if !ok {
		t.Fatalf("expected a \"<=\" entry")
	}
	ge, ok := r.Lookup(symbol.Intern(">="), ZZCmpSignature)
	if !ok {
		t.Fatalf("expected a \">=\" entry registered under its own symbol")
	}

	a, _ := NewZZFromString("5")
	b, _ := NewZZFromString("5")

	leResult, err := le.Impl([]Value{a, b})
	if err != nil {
		t.Fatalf("<=: %s", err)
	}
	geResult, err := ge.Impl([]Value{a, b})
	if err != nil {
		t.Fatalf(">=: %s", err)
	}
	if leResult.(bool) != true || geResult.(bool) != true {
		t.Errorf("5 <= 5 and 5 >= 5 should both be true, got <=:%v >=:%v", leResult, geResult)
	}

	c, _ := NewZZFromString("3")
	geFalse, err := ge.Impl([]Value{c, a})
	if err != nil {
		t.Fatalf(">=: %s", err)
	}
	if geFalse.(bool) != false {
		t.Errorf("3 >= 5 should be false (confirms >= was not silently bound to the <= implementation)")
	}
}

func TestZZArithmetic(t *testing.T) {
	g := envm.NewGlobal()
	r := Init(g)
	add, _ := r.Lookup(symbol.Intern("*"), ZZBinopSignature)

	a, _ := NewZZFromString("123456789012345678901234567890")
	b, _ := NewZZFromString("2")
	res, err := add.Impl([]Value{a, b})
	if err != nil {
		t.Fatalf("*: %s", err)
	}
	want := "246913578024691357802469135780"
	if got := res.(*ZZVal).String(); got != want {
		t.Errorf("ZZ multiplication = %s, want %s", got, want)
	}
}

// FindCandidate walks a Generic type's candidates looking for one identical to want, mirroring how
// inference's overload resolution compares Fn types by identity.
func FindCandidate(candidateSet *types.Type, want *types.Type) (*types.Type, bool) {
	if candidateSet.Tag != types.Generic {
		return nil, candidateSet == want
	}
	for _, c := range candidateSet.Elems {
		if c == want {
			return c, true
		}
	}
	return nil, false
}
