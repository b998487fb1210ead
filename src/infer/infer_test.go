package infer

import (
	"testing"

	"jitc/src/ast"
	"jitc/src/envm"
	"jitc/src/foreign"
	"jitc/src/frontend"
	"jitc/src/types"
)

// newTestEnv returns a fresh global scope with the primitive names and ZZ wiring installed, the way
// driver.New bootstraps one for a REPL session.
func newTestEnv() *envm.Scope {
	g := envm.NewGlobal()
	foreign.Init(g)
	return g
}

func inferSrc(t *testing.T, env *envm.Scope, src string) *ast.Node {
	t.Helper()
	p := frontend.NewParser(src)
	n, err := p.ParsePhrase()
	if err != nil {
		t.Fatalf("parse error for %q: %s", src, err)
	}
	if err := Infer(env, n); err != nil {
		t.Fatalf("infer error for %q: %s", src, err)
	}
	return n
}

func TestInferArithmeticResolvesToInt(t *testing.T) {
	env := newTestEnv()
	n := inferSrc(t, env, "1 + 2 * 3")
	if n.Type != types.TInt {
		t.Errorf("type = %s, want int", n.Type)
	}
}

func TestInferUndefinedIdentifierErrors(t *testing.T) {
	env := newTestEnv()
	p := frontend.NewParser("undefined_name")
	n, err := p.ParsePhrase()
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	if err := Infer(env, n); err == nil {
		t.Fatalf("expected an inference error for an undefined identifier")
	}
}

func TestInferTupleDestructuring(t *testing.T) {
	env := newTestEnv()
	p := frontend.NewParser("(a, b) = (1, 2)")
	n, err := p.ParsePhrase()
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	if err := Infer(env, n); err != nil {
		t.Fatalf("infer error: %s", err)
	}
	a, ok := env.FindSymbol(n.Children[0].Children[0].Sym)
	if !ok || a.Type != types.TInt {
		t.Errorf("expected a bound as int, got %v ok=%v", a, ok)
	}
	b, ok := env.FindSymbol(n.Children[0].Children[1].Sym)
	if !ok || b.Type != types.TInt {
		t.Errorf("expected b bound as int, got %v ok=%v", b, ok)
	}
}

func TestInferDataDeclAndSlotAccess(t *testing.T) {
	env := newTestEnv()
	inferSrc(t, env, "data Pair(x: int, y: int)")
	n := inferSrc(t, env, "Pair(1, 2).y")
	if n.Type != types.TInt {
		t.Errorf("type = %s, want int", n.Type)
	}
}

func TestInferArrayIndexUsesIndexedExpressionType(t *testing.T) {
	// Regression for the array-index/slot lowering bug: the element type must come from the indexed
	// expression's own inferred type, not from the node's syntactic tag.
	env := newTestEnv()
	n := inferSrc(t, env, "[1, 2, 3][0]")
	if n.Type != types.TInt {
		t.Errorf("type = %s, want int", n.Type)
	}
}

func TestInferRecursiveFunction(t *testing.T) {
	env := newTestEnv()
	inferSrc(t, env, "fn fact(n: int) -> int { return n }")
	n := inferSrc(t, env, "fact(5)")
	if n.Type != types.TInt {
		t.Errorf("type = %s, want int", n.Type)
	}
}

func TestInferMutualRecursionViaLazyFnBody(t *testing.T) {
	env := newTestEnv()
	// isEven calls isOdd before isOdd has been declared; its body must only be forced once isOdd is
	// available, matching the lazy-inference behaviour for mutual recursion.
	inferSrc(t, env, "fn isEven(n: int) -> bool { return isOdd(n) }")
	inferSrc(t, env, "fn isOdd(n: int) -> bool { return true }")
	n := inferSrc(t, env, "isEven(4)")
	if n.Type != types.TBool {
		t.Errorf("type = %s, want bool", n.Type)
	}
}

func TestInferWhileLoopConditionMustBeBool(t *testing.T) {
	env := newTestEnv()
	p := frontend.NewParser("while 1 { }")
	n, err := p.ParsePhrase()
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	if err := Infer(env, n); err == nil {
		t.Fatalf("expected an error for a non-bool while-condition")
	}
}

func TestInferZZArithmeticOverload(t *testing.T) {
	env := newTestEnv()
	n := inferSrc(t, env, `ZZ("123456789012345678901234567890") * ZZ("2")`)
	if n.Type != types.TZZ {
		t.Errorf("type = %s, want ZZ", n.Type)
	}
}

func TestFindPrototypeMatchesByIdentity(t *testing.T) {
	intFn := types.NewFn(types.TInt, []*types.Type{types.TInt, types.TInt})
	dblFn := types.NewFn(types.TDouble, []*types.Type{types.TDouble, types.TDouble})
	g := types.NewGeneric([]*types.Type{intFn, dblFn})

	cand, ok := FindPrototype(g, []*types.Type{types.TDouble, types.TDouble})
	if !ok || cand != dblFn {
		t.Errorf("FindPrototype should match the double overload by identity, got %v ok=%v", cand, ok)
	}

	if _, ok := FindPrototype(g, []*types.Type{types.TString, types.TString}); ok {
		t.Errorf("FindPrototype should not match an overload set with no matching candidate")
	}
}
