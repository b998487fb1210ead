package ast

import (
	"strings"
	"testing"

	"jitc/src/symbol"
)

func TestNewSymbolReturnsTheBuiltNode(t *testing.T) {
	sym := symbol.Intern("ast$x")
	n := NewSymbol(Ident, 1, 1, sym)
	if n == nil {
		t.Fatalf("NewSymbol must return the node it built, got nil")
	}
	if n.Tag != Ident || n.Sym != sym {
		t.Errorf("got Tag=%s Sym=%s, want Tag=Ident Sym=%s", n.Tag, n.Sym, sym)
	}
}

func TestAppendChainsAndMutatesInPlace(t *testing.T) {
	n := New(Block, 1, 1)
	child1 := New(Return, 1, 1)
	child2 := New(Return, 2, 1)
	got := n.Append(child1).Append(child2)
	if got != n {
		t.Fatalf("Append should return the receiver for chaining")
	}
	if len(n.Children) != 2 || n.Children[0] != child1 || n.Children[1] != child2 {
		t.Errorf("Children = %v, want [child1 child2]", n.Children)
	}
}

func TestToLValueAndIsLValue(t *testing.T) {
	dual, ok := ToLValue(Ident)
	if !ok || dual != LIdent {
		t.Errorf("ToLValue(Ident) = (%s, %v), want (LIdent, true)", dual, ok)
	}
	if _, ok := ToLValue(Block); ok {
		t.Errorf("Block has no L-value dual, ToLValue should report false")
	}
	if !IsLValue(LTuple) {
		t.Errorf("LTuple should report IsLValue == true")
	}
	if IsLValue(Tuple) {
		t.Errorf("Tuple (the expression form) should report IsLValue == false")
	}
}

func TestOpReturnsBinopOperator(t *testing.T) {
	op := symbol.Intern("+")
	n := NewBinop(1, 1, op, NewLit(Int, 1, 1, int64(1)), NewLit(Int, 1, 3, int64(2)))
	if n.Op() != op {
		t.Errorf("Op() = %s, want %s", n.Op(), op)
	}
}

func TestTagString(t *testing.T) {
	if got := Ident.String(); got != "Ident" {
		t.Errorf("Ident.String() = %q, want %q", got, "Ident")
	}
	if got := Tag(-1).String(); !strings.HasPrefix(got, "Tag(") {
		t.Errorf("unknown Tag.String() = %q, want a Tag(n) fallback", got)
	}
}

func TestPrintNilNode(t *testing.T) {
	var n *Node
	if got := n.Print(0); !strings.Contains(got, "<nil>") {
		t.Errorf("Print on a nil *Node should render <nil>, got %q", got)
	}
}

func TestPrintIncludesSymAndData(t *testing.T) {
	n := NewLit(Int, 1, 1, int64(42))
	n.Sym = symbol.Intern("ast$print-sym")
	out := n.Print(0)
	if !strings.Contains(out, "42") {
		t.Errorf("Print output %q should contain the literal's data", out)
	}
	if !strings.Contains(out, "ast$print-sym") {
		t.Errorf("Print output %q should contain the node's symbol", out)
	}
}
