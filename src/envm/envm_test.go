package envm

import (
	"testing"

	"jitc/src/symbol"
	"jitc/src/types"
)

func TestBindAndFindSymbol(t *testing.T) {
	g := NewGlobal()
	x := symbol.Intern("envm$x")
	g.BindSymbol(x, types.TInt, "x.0")
	b, ok := g.FindSymbol(x)
	if !ok {
		t.Fatalf("expected to find bound symbol")
	}
	if b.Type != types.TInt || b.Backend != "x.0" {
		t.Errorf("got binding %+v, want Type=TInt Backend=x.0", b)
	}
}

func TestDownShadowsWithoutMutatingParent(t *testing.T) {
	g := NewGlobal()
	x := symbol.Intern("envm$shadow")
	g.BindSymbol(x, types.TInt, "x.0")

	child := g.Down()
	child.BindSymbol(x, types.TDouble, "x.1")

	cb, _ := child.FindSymbol(x)
	if cb.Type != types.TDouble {
		t.Errorf("child scope should see its own shadowing binding, got %s", cb.Type)
	}
	gb, _ := g.FindSymbol(x)
	if gb.Type != types.TInt {
		t.Errorf("parent scope's binding must be unaffected by a child's shadow, got %s", gb.Type)
	}
}

func TestFindSymbolWalksUp(t *testing.T) {
	g := NewGlobal()
	x := symbol.Intern("envm$walkup")
	g.BindSymbol(x, types.TInt, "x.0")
	child := g.Down()
	b, ok := child.FindSymbol(x)
	if !ok || b.Type != types.TInt {
		t.Errorf("FindSymbol should walk up into enclosing scopes")
	}
}

func TestFindInCurrentScopeDoesNotWalkUp(t *testing.T) {
	g := NewGlobal()
	x := symbol.Intern("envm$local-only")
	g.BindSymbol(x, types.TInt, "x.0")
	child := g.Down()
	if _, ok := child.FindInCurrentScope(x); ok {
		t.Errorf("FindInCurrentScope must not see a binding from an enclosing scope")
	}
}

func TestIsGlobalAndUpDown(t *testing.T) {
	g := NewGlobal()
	if !g.IsGlobal() {
		t.Errorf("a scope with no parent should be global")
	}
	child := g.Down()
	if child.IsGlobal() {
		t.Errorf("a child scope should not be global")
	}
	if child.Up() != g {
		t.Errorf("Up() should return the scope Down() was called on")
	}
}

func TestIsGlobalBinding(t *testing.T) {
	g := NewGlobal()
	gx := symbol.Intern("envm$global-binding")
	g.BindSymbol(gx, types.TInt, "gx")

	child := g.Down()
	lx := symbol.Intern("envm$local-binding")
	child.BindSymbol(lx, types.TInt, "lx")

	if !child.IsGlobalBinding(gx) {
		t.Errorf("a symbol bound only at global scope should report IsGlobalBinding == true even seen from a child")
	}
	if child.IsGlobalBinding(lx) {
		t.Errorf("a symbol bound in a child scope should report IsGlobalBinding == false")
	}
	if child.IsGlobalBinding(symbol.Intern("envm$never-bound")) {
		t.Errorf("an unbound symbol should report IsGlobalBinding == false")
	}
}

func TestBindGenericAccumulatesOverloads(t *testing.T) {
	g := NewGlobal()
	op := symbol.Intern("envm$+overload")
	intFn := types.NewFn(types.TInt, []*types.Type{types.TInt, types.TInt})
	dblFn := types.NewFn(types.TDouble, []*types.Type{types.TDouble, types.TDouble})

	g.BindGeneric(op, intFn)
	g.BindGeneric(op, dblFn)

	b, ok := g.FindSymbol(op)
	if !ok {
		t.Fatalf("expected generic binding to be found")
	}
	if b.Type.Tag != types.Generic {
		t.Fatalf("accumulated overloads should bind a Generic type, got %s", b.Type)
	}
	if len(b.Type.Elems) != 2 {
		t.Errorf("expected 2 accumulated overloads, got %d", len(b.Type.Elems))
	}
}
