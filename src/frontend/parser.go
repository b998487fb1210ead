// Package frontend tokenizes and parses source text into an untyped ast.Node tree.
//
// The lexer (lexer.go) is a Rob-Pike-style concurrent scanner, targeting this language's token set.
// The parser below is hand-written recursive descent rather than a generated grammar. Operator
// precedence follows original_source/parser.c's recursive-descent structure; only Tuple
// (destructuring-assignment targets) is marked as an L-value directly by the parser — every other
// L-value tag is produced later by the inference pass's to_lvalue conversion.
package frontend

import (
	"fmt"
	"strconv"
	"strings"

	"jitc/src/ast"
	"jitc/src/symbol"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Parser consumes a token stream produced by the lexer and builds an ast.Node tree.
type Parser struct {
	lex  *lexer
	cur  item
	peek item
}

// precedence table, low to high. Operators not listed bind tighter than any listed operator (unary,
// postfix application).
var precedence = map[string]int{
	"||": 1, "&&": 2,
	"==": 3, "!=": 3, "<": 3, ">": 3, "<=": 3, ">=": 3,
	"+": 4, "-": 4,
	"*": 5, "/": 5, "%": 5,
}

// ---------------------
// ----- construction -----
// ---------------------

// NewParser starts lexing src and returns a Parser positioned at the first token.
func NewParser(src string) *Parser {
	p := &Parser{lex: newLexer(src)}
	p.cur = p.lex.nextItem()
	p.peek = p.lex.nextItem()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.nextItem()
}

func (p *Parser) at(typ itemType) bool { return p.cur.typ == typ }

func (p *Parser) atKeyword(kw string) bool { return p.cur.typ == itemKeyword && p.cur.val == kw }

func (p *Parser) expect(typ itemType, what string) (item, error) {
	if p.cur.typ != typ {
		return item{}, p.errorf("expected %s, got %s", what, p.cur)
	}
	it := p.cur
	p.advance()
	return it, nil
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%d:%d: %s", p.cur.line, p.cur.pos, fmt.Sprintf(format, args...))
}

// ---------------------
// ----- entry points -----
// ---------------------

// ParsePhrase parses exactly one top-level declaration or statement, the unit a REPL reads and
// infers/executes at a time.
func (p *Parser) ParsePhrase() (*ast.Node, error) {
	if p.at(itemEOF) {
		return nil, nil
	}
	switch {
	case p.atKeyword("data"):
		return p.parseDataDecl()
	case p.atKeyword("fn"):
		return p.parseFnDecl()
	default:
		n, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if p.at(itemSemi) {
			p.advance()
		}
		return n, nil
	}
}

// ---------------------
// ----- declarations -----
// ---------------------

func (p *Parser) parseDataDecl() (*ast.Node, error) {
	line, pos := p.cur.line, p.cur.pos
	p.advance() // 'data'
	nameTok, err := p.expect(itemIdent, "data type name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(itemLParen, "("); err != nil {
		return nil, err
	}
	body := ast.New(ast.DataBody, line, pos)
	for !p.at(itemRParen) {
		slotTok, err := p.expect(itemIdent, "slot name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(itemColon, ":"); err != nil {
			return nil, err
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		slot := ast.NewSymbol(ast.DataSlot, slotTok.line, slotTok.pos, symbol.Intern(slotTok.val))
		slot.Children = []*ast.Node{typ}
		body.Append(slot)
		if p.at(itemComma) {
			p.advance()
		} else {
			break
		}
	}
	if _, err := p.expect(itemRParen, ")"); err != nil {
		return nil, err
	}
	n := ast.NewSymbol(ast.DataStmt, line, pos, symbol.Intern(nameTok.val))
	n.Children = []*ast.Node{body}
	return n, nil
}

func (p *Parser) parseFnDecl() (*ast.Node, error) {
	line, pos := p.cur.line, p.cur.pos
	p.advance() // 'fn'
	nameTok, err := p.expect(itemIdent, "function name")
	if err != nil {
		return nil, err
	}
	nameNode := ast.NewSymbol(ast.Ident, nameTok.line, nameTok.pos, symbol.Intern(nameTok.val))

	if _, err := p.expect(itemLParen, "("); err != nil {
		return nil, err
	}
	paramBody := ast.New(ast.ParamBody, line, pos)
	for !p.at(itemRParen) {
		paramTok, err := p.expect(itemIdent, "parameter name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(itemColon, ":"); err != nil {
			return nil, err
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		param := ast.NewSymbol(ast.Param, paramTok.line, paramTok.pos, symbol.Intern(paramTok.val))
		param.Children = []*ast.Node{typ}
		paramBody.Append(param)
		if p.at(itemComma) {
			p.advance()
		} else {
			break
		}
	}
	if _, err := p.expect(itemRParen, ")"); err != nil {
		return nil, err
	}
	if _, err := p.expect(itemArrow, "->"); err != nil {
		return nil, err
	}
	retType, err := p.parseType()
	if err != nil {
		return nil, err
	}
	block, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	fnBody := ast.New(ast.FnBody, line, pos, block)

	n := ast.New(ast.FnStmt, line, pos, nameNode, paramBody, retType, fnBody)
	return n, nil
}

// ---------------------
// ----- types -----
// ---------------------

func (p *Parser) parseType() (*ast.Node, error) {
	line, pos := p.cur.line, p.cur.pos
	switch {
	case p.at(itemLParen):
		p.advance()
		n := ast.New(ast.TupleType, line, pos)
		for !p.at(itemRParen) {
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			n.Append(t)
			if p.at(itemComma) {
				p.advance()
			} else {
				break
			}
		}
		if _, err := p.expect(itemRParen, ")"); err != nil {
			return nil, err
		}
		return n, nil
	case p.atKeyword("array"):
		p.advance()
		if _, err := p.expect(itemLBracket, "["); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(itemRBracket, "]"); err != nil {
			return nil, err
		}
		return ast.New(ast.ArrayType, line, pos, elem), nil
	case p.at(itemIdent):
		tok := p.cur
		p.advance()
		return ast.NewSymbol(ast.TypeName, tok.line, tok.pos, symbol.Intern(tok.val)), nil
	case p.atKeyword("nil"):
		p.advance()
		return ast.NewSymbol(ast.TypeName, line, pos, symbol.Intern("nil")), nil
	default:
		return nil, p.errorf("expected a type, got %s", p.cur)
	}
}

// ---------------------
// ----- statements -----
// ---------------------

func (p *Parser) parseBlock() (*ast.Node, error) {
	line, pos := p.cur.line, p.cur.pos
	if _, err := p.expect(itemLBrace, "{"); err != nil {
		return nil, err
	}
	n := ast.New(ast.Block, line, pos)
	for !p.at(itemRBrace) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		n.Append(s)
		if p.at(itemSemi) {
			p.advance()
		}
	}
	if _, err := p.expect(itemRBrace, "}"); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseStmt() (*ast.Node, error) {
	switch {
	case p.at(itemLBrace):
		return p.parseBlock()
	case p.atKeyword("if"):
		return p.parseIf()
	case p.atKeyword("while"):
		return p.parseWhile()
	case p.atKeyword("break"):
		n := ast.New(ast.Break, p.cur.line, p.cur.pos)
		p.advance()
		return n, nil
	case p.atKeyword("return"):
		line, pos := p.cur.line, p.cur.pos
		p.advance()
		if p.at(itemSemi) || p.at(itemRBrace) {
			return ast.New(ast.Return, line, pos), nil
		}
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		return ast.New(ast.Return, line, pos, e), nil
	default:
		return p.parseExprOrAssignment()
	}
}

func (p *Parser) parseIf() (*ast.Node, error) {
	line, pos := p.cur.line, p.cur.pos
	p.advance() // 'if'
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.atKeyword("then") {
		// if cond then expr else expr  (expression form)
		p.advance()
		thenE, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(itemKeyword, "else"); err != nil {
			return nil, err
		}
		elseE, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		return ast.New(ast.IfElseExpr, line, pos, cond, thenE, elseE), nil
	}
	thenBlock, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	then := ast.New(ast.Then, line, pos, thenBlock)
	if p.atKeyword("else") {
		p.advance()
		var elseBlock *ast.Node
		if p.atKeyword("if") {
			elseBlock, err = p.parseIf()
		} else {
			elseBlock, err = p.parseBlock()
		}
		if err != nil {
			return nil, err
		}
		els := ast.New(ast.Else, line, pos, elseBlock)
		return ast.New(ast.IfElseStmt, line, pos, cond, then, els), nil
	}
	return ast.New(ast.IfStmt, line, pos, cond, then), nil
}

func (p *Parser) parseWhile() (*ast.Node, error) {
	line, pos := p.cur.line, p.cur.pos
	p.advance() // 'while'
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	block, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	do := ast.New(ast.Do, line, pos, block)
	return ast.New(ast.WhileStmt, line, pos, cond, do), nil
}

// parseExprOrAssignment parses an expression, then checks for a trailing '=' turning it into an
// assignment statement.
func (p *Parser) parseExprOrAssignment() (*ast.Node, error) {
	lhs, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.at(itemAssign) {
		line, pos := p.cur.line, p.cur.pos
		p.advance()
		rhs, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if lhs.Tag == ast.Tuple {
			lhs.Tag = ast.LTuple
		}
		return ast.New(ast.Assignment, line, pos, lhs, rhs), nil
	}
	return lhs, nil
}

// ---------------------
// ----- expressions -----
// ---------------------

func (p *Parser) parseExpr(minPrec int) (*ast.Node, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		opVal, ok := p.currentOperator()
		if !ok {
			break
		}
		prec, known := precedence[opVal]
		if !known || prec < minPrec {
			break
		}
		line, pos := p.cur.line, p.cur.pos
		p.advance()
		rhs, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		lhs = ast.NewBinop(line, pos, symbol.Intern(opVal), lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) currentOperator() (string, bool) {
	if p.cur.typ == itemOp {
		return p.cur.val, true
	}
	return "", false
}

func (p *Parser) parseUnary() (*ast.Node, error) {
	if p.cur.typ == itemOp && (p.cur.val == "-" || p.cur.val == "!") {
		op := p.cur.val
		line, pos := p.cur.line, p.cur.pos
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		zero := ast.NewLit(ast.Int, line, pos, int64(0))
		if op == "-" {
			return ast.NewBinop(line, pos, symbol.Intern("-"), zero, operand), nil
		}
		return ast.NewBinop(line, pos, symbol.Intern("!="), operand, ast.NewLit(ast.Int, line, pos, int64(0))), nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (*ast.Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.at(itemLParen):
			line, pos := p.cur.line, p.cur.pos
			p.advance()
			args := []*ast.Node{n}
			for !p.at(itemRParen) {
				a, err := p.parseExpr(0)
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.at(itemComma) {
					p.advance()
				} else {
					break
				}
			}
			if _, err := p.expect(itemRParen, ")"); err != nil {
				return nil, err
			}
			n = ast.New(ast.Appl, line, pos, args...)
		case p.at(itemDot):
			line, pos := p.cur.line, p.cur.pos
			p.advance()
			slotTok, err := p.expect(itemIdent, "slot name")
			if err != nil {
				return nil, err
			}
			slot := ast.NewSymbol(ast.Slot, line, pos, symbol.Intern(slotTok.val))
			slot.Children = []*ast.Node{n}
			n = slot
		case p.at(itemLBracket):
			line, pos := p.cur.line, p.cur.pos
			p.advance()
			idx, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(itemRBracket, "]"); err != nil {
				return nil, err
			}
			n = ast.New(ast.Locn, line, pos, n, idx)
		default:
			return n, nil
		}
	}
}

func (p *Parser) parsePrimary() (*ast.Node, error) {
	tok := p.cur
	switch {
	case tok.typ == itemInt:
		p.advance()
		v, err := strconv.ParseInt(tok.val, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid integer literal %q", tok.val)
		}
		return ast.NewLit(ast.Int, tok.line, tok.pos, v), nil
	case tok.typ == itemUInt:
		p.advance()
		v, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimSuffix(tok.val, "u"), "U"), 10, 64)
		if err != nil {
			return nil, p.errorf("invalid unsigned integer literal %q", tok.val)
		}
		return ast.NewLit(ast.UWord, tok.line, tok.pos, v), nil
	case tok.typ == itemDouble:
		p.advance()
		v, err := strconv.ParseFloat(tok.val, 64)
		if err != nil {
			return nil, p.errorf("invalid double literal %q", tok.val)
		}
		return ast.NewLit(ast.Double, tok.line, tok.pos, v), nil
	case tok.typ == itemChar:
		p.advance()
		r := []rune(tok.val)[0]
		return ast.NewLit(ast.Char, tok.line, tok.pos, r), nil
	case tok.typ == itemString:
		p.advance()
		return ast.NewLit(ast.String, tok.line, tok.pos, tok.val), nil
	case tok.typ == itemKeyword && tok.val == "true":
		// true/false desugar to the int comparisons 0 == 0 and 0 != 0, so they infer as bool.
		p.advance()
		zero := ast.NewLit(ast.Int, tok.line, tok.pos, int64(0))
		return ast.NewBinop(tok.line, tok.pos, symbol.Intern("=="), zero, zero), nil
	case tok.typ == itemKeyword && tok.val == "false":
		p.advance()
		zero := ast.NewLit(ast.Int, tok.line, tok.pos, int64(0))
		return ast.NewBinop(tok.line, tok.pos, symbol.Intern("!="), zero, zero), nil
	case tok.typ == itemIdent:
		p.advance()
		return ast.NewSymbol(ast.Ident, tok.line, tok.pos, symbol.Intern(tok.val)), nil
	case tok.typ == itemLBracket:
		p.advance()
		n := ast.New(ast.Array, tok.line, tok.pos)
		for !p.at(itemRBracket) {
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			n.Append(e)
			if p.at(itemComma) {
				p.advance()
			} else {
				break
			}
		}
		if _, err := p.expect(itemRBracket, "]"); err != nil {
			return nil, err
		}
		return n, nil
	case tok.typ == itemLParen:
		p.advance()
		if p.at(itemRParen) {
			p.advance()
			return ast.New(ast.Tuple, tok.line, tok.pos), nil
		}
		first, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if p.at(itemComma) {
			n := ast.New(ast.Tuple, tok.line, tok.pos, first)
			for p.at(itemComma) {
				p.advance()
				if p.at(itemRParen) {
					break
				}
				e, err := p.parseExpr(0)
				if err != nil {
					return nil, err
				}
				n.Append(e)
			}
			if _, err := p.expect(itemRParen, ")"); err != nil {
				return nil, err
			}
			return n, nil
		}
		if _, err := p.expect(itemRParen, ")"); err != nil {
			return nil, err
		}
		return first, nil
	case tok.typ == itemKeyword && tok.val == "if":
		return p.parseIf()
	default:
		return nil, p.errorf("unexpected token %s", tok)
	}
}
