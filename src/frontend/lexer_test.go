package frontend

import "testing"

// scanAll drains a lexer to completion, returning every item up to but excluding EOF.
func scanAll(t *testing.T, src string) []item {
	t.Helper()
	l := newLexer(src)
	var items []item
	for {
		it := l.nextItem()
		if it.typ == itemEOF {
			return items
		}
		if it.typ == itemError {
			t.Fatalf("lex error: %s", it.val)
		}
		items = append(items, it)
	}
}

func TestLexerBasicExpression(t *testing.T) {
	items := scanAll(t, "1 + 2 * 3")
	want := []struct {
		typ itemType
		val string
	}{
		{itemInt, "1"}, {itemOp, "+"}, {itemInt, "2"}, {itemOp, "*"}, {itemInt, "3"},
	}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d: %v", len(items), len(want), items)
	}
	for i, w := range want {
		if items[i].typ != w.typ || items[i].val != w.val {
			t.Errorf("item %d = {%v %q}, want {%v %q}", i, items[i].typ, items[i].val, w.typ, w.val)
		}
	}
}

func TestLexerKeywordsVsIdents(t *testing.T) {
	items := scanAll(t, "while x do break")
	wantTypes := []itemType{itemKeyword, itemIdent, itemKeyword, itemKeyword}
	if len(items) != len(wantTypes) {
		t.Fatalf("got %d items, want %d", len(items), len(wantTypes))
	}
	for i, w := range wantTypes {
		if items[i].typ != w {
			t.Errorf("item %d (%q) typ = %v, want %v", i, items[i].val, items[i].typ, w)
		}
	}
}

func TestLexerNumberSuffixes(t *testing.T) {
	items := scanAll(t, "42 3.14 7u 1e10")
	wantTypes := []itemType{itemInt, itemDouble, itemUInt, itemDouble}
	if len(items) != len(wantTypes) {
		t.Fatalf("got %d items, want %d", len(items), len(wantTypes))
	}
	for i, w := range wantTypes {
		if items[i].typ != w {
			t.Errorf("item %d (%q) typ = %v, want %v", i, items[i].val, items[i].typ, w)
		}
	}
}

func TestLexerStringAndCharLiterals(t *testing.T) {
	items := scanAll(t, `"hello" 'c'`)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %v", len(items), items)
	}
	if items[0].typ != itemString || items[0].val != "hello" {
		t.Errorf("string literal = %+v, want val=hello", items[0])
	}
	if items[1].typ != itemChar || items[1].val != "c" {
		t.Errorf("char literal = %+v, want val=c", items[1])
	}
}

func TestLexerArrowAndAssignAreDistinctFromOp(t *testing.T) {
	items := scanAll(t, "-> =")
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %v", len(items), items)
	}
	if items[0].typ != itemArrow {
		t.Errorf("\"->\" should lex as itemArrow, got %v", items[0].typ)
	}
	if items[1].typ != itemAssign {
		t.Errorf("\"=\" should lex as itemAssign, got %v", items[1].typ)
	}
}

func TestLexerPosTracksColumnOnOneLine(t *testing.T) {
	items := scanAll(t, "foo bar")
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].pos != 1 {
		t.Errorf("first ident pos = %d, want 1", items[0].pos)
	}
	if items[1].pos != 5 {
		t.Errorf("second ident pos = %d, want 5", items[1].pos)
	}
}

func TestLexerUnterminatedStringErrors(t *testing.T) {
	l := newLexer(`"unterminated`)
	it := l.nextItem()
	if it.typ != itemError {
		t.Fatalf("expected itemError for unterminated string, got %v", it.typ)
	}
}
