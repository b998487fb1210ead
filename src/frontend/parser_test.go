package frontend

import (
	"testing"

	"jitc/src/ast"
)

func parseOnePhrase(t *testing.T, src string) *ast.Node {
	t.Helper()
	p := NewParser(src)
	n, err := p.ParsePhrase()
	if err != nil {
		t.Fatalf("parse error for %q: %s", src, err)
	}
	if n == nil {
		t.Fatalf("expected a node for %q, got nil", src)
	}
	return n
}

func TestParseArithmeticPrecedence(t *testing.T) {
	// 1 + 2 * 3 should parse as 1 + (2 * 3): the Binop for "+" has "2 * 3" as its right child.
	n := parseOnePhrase(t, "1 + 2 * 3")
	if n.Tag != ast.Binop || n.Op().String() != "+" {
		t.Fatalf("root = %s %v, want Binop +", n.Tag, n.Data)
	}
	rhs := n.Children[1]
	if rhs.Tag != ast.Binop || rhs.Op().String() != "*" {
		t.Fatalf("rhs = %s %v, want Binop *", rhs.Tag, rhs.Data)
	}
}

func TestParseParenthesesOverridePrecedence(t *testing.T) {
	n := parseOnePhrase(t, "(1 + 2) * 3")
	if n.Tag != ast.Binop || n.Op().String() != "*" {
		t.Fatalf("root = %s %v, want Binop *", n.Tag, n.Data)
	}
	lhs := n.Children[0]
	if lhs.Tag != ast.Binop || lhs.Op().String() != "+" {
		t.Fatalf("lhs = %s %v, want Binop +", lhs.Tag, lhs.Data)
	}
}

func TestParseTupleLiteral(t *testing.T) {
	n := parseOnePhrase(t, "(1, 2, 3)")
	if n.Tag != ast.Tuple {
		t.Fatalf("got %s, want Tuple", n.Tag)
	}
	if len(n.Children) != 3 {
		t.Fatalf("got %d elements, want 3", len(n.Children))
	}
}

func TestParseSingleParenIsNotATuple(t *testing.T) {
	n := parseOnePhrase(t, "(1)")
	if n.Tag != ast.Int {
		t.Fatalf("(1) should parse as a plain literal, got %s", n.Tag)
	}
}

func TestParseAssignment(t *testing.T) {
	n := parseOnePhrase(t, "x = 1")
	if n.Tag != ast.Assignment {
		t.Fatalf("got %s, want Assignment", n.Tag)
	}
	if n.Children[0].Tag != ast.Ident {
		t.Errorf("lhs tag = %s, want Ident (inference later promotes to LIdent)", n.Children[0].Tag)
	}
}

func TestParseTupleDestructuringAssignment(t *testing.T) {
	n := parseOnePhrase(t, "(a, b) = (1, 2)")
	if n.Tag != ast.Assignment {
		t.Fatalf("got %s, want Assignment", n.Tag)
	}
	if n.Children[0].Tag != ast.LTuple {
		t.Errorf("lhs tag = %s, want LTuple (marked directly by the parser)", n.Children[0].Tag)
	}
}

func TestParseFnDecl(t *testing.T) {
	n := parseOnePhrase(t, "fn add(a: int, b: int) -> int { return a + b }")
	if n.Tag != ast.FnStmt {
		t.Fatalf("got %s, want FnStmt", n.Tag)
	}
	name, params, ret, body := n.Children[0], n.Children[1], n.Children[2], n.Children[3]
	if name.Sym.String() != "add" {
		t.Errorf("name = %s, want add", name.Sym)
	}
	if len(params.Children) != 2 {
		t.Errorf("got %d params, want 2", len(params.Children))
	}
	if ret.Tag != ast.TypeName || ret.Sym.String() != "int" {
		t.Errorf("ret = %s %s, want TypeName int", ret.Tag, ret.Sym)
	}
	if body.Tag != ast.FnBody {
		t.Errorf("body tag = %s, want FnBody", body.Tag)
	}
}

func TestParseDataDecl(t *testing.T) {
	n := parseOnePhrase(t, "data Pair(x: int, y: int)")
	if n.Tag != ast.DataStmt || n.Sym.String() != "Pair" {
		t.Fatalf("got %s %s, want DataStmt Pair", n.Tag, n.Sym)
	}
	body := n.Children[0]
	if len(body.Children) != 2 {
		t.Fatalf("got %d slots, want 2", len(body.Children))
	}
	if body.Children[0].Sym.String() != "x" || body.Children[1].Sym.String() != "y" {
		t.Errorf("slots = %s, %s, want x, y", body.Children[0].Sym, body.Children[1].Sym)
	}
}

func TestParseWhileLoop(t *testing.T) {
	n := parseOnePhrase(t, "while i < 10 { i = i + 1 }")
	if n.Tag != ast.WhileStmt {
		t.Fatalf("got %s, want WhileStmt", n.Tag)
	}
	cond := n.Children[0]
	if cond.Tag != ast.Binop || cond.Op().String() != "<" {
		t.Errorf("cond = %s %v, want Binop <", cond.Tag, cond.Data)
	}
}

func TestParseSlotAndIndexPostfix(t *testing.T) {
	n := parseOnePhrase(t, "p.x")
	if n.Tag != ast.Slot || n.Sym.String() != "x" {
		t.Fatalf("got %s %s, want Slot x", n.Tag, n.Sym)
	}

	n2 := parseOnePhrase(t, "a[0]")
	if n2.Tag != ast.Locn {
		t.Fatalf("got %s, want Locn", n2.Tag)
	}
}

func TestParseArrayLiteral(t *testing.T) {
	n := parseOnePhrase(t, "[1, 2, 3]")
	if n.Tag != ast.Array {
		t.Fatalf("got %s, want Array", n.Tag)
	}
	if len(n.Children) != 3 {
		t.Fatalf("got %d elements, want 3", len(n.Children))
	}
}

func TestParseFunctionCall(t *testing.T) {
	n := parseOnePhrase(t, "f(1, 2)")
	if n.Tag != ast.Appl {
		t.Fatalf("got %s, want Appl", n.Tag)
	}
	if len(n.Children) != 3 { // callee + 2 args
		t.Fatalf("got %d children, want 3", len(n.Children))
	}
}

func TestParseUnaryMinus(t *testing.T) {
	n := parseOnePhrase(t, "-x")
	if n.Tag != ast.Binop || n.Op().String() != "-" {
		t.Fatalf("got %s %v, want Binop - (desugared from 0 - x)", n.Tag, n.Data)
	}
	lhs := n.Children[0]
	if lhs.Tag != ast.Int || lhs.Data.(int64) != 0 {
		t.Errorf("lhs = %s %v, want literal 0", lhs.Tag, lhs.Data)
	}
}

func TestParseIfExpression(t *testing.T) {
	n := parseOnePhrase(t, "if x then 1 else 2")
	if n.Tag != ast.IfElseExpr {
		t.Fatalf("got %s, want IfElseExpr", n.Tag)
	}
}

func TestParseUnexpectedTokenReportsError(t *testing.T) {
	p := NewParser(")")
	_, err := p.ParsePhrase()
	if err == nil {
		t.Fatalf("expected a parse error for a bare closing paren")
	}
}

func TestParsePhraseAtEOFReturnsNilNil(t *testing.T) {
	p := NewParser("")
	n, err := p.ParsePhrase()
	if n != nil || err != nil {
		t.Fatalf("ParsePhrase on empty input should return (nil, nil), got (%v, %v)", n, err)
	}
}
