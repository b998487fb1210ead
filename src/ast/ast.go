// Package ast defines the compiler's untyped/typed-in-place syntax tree. A single Node type serves
// both the parser's output and the inference pass's annotated result: Type and Env start nil and are
// filled in by the infer package as it walks the tree.
//
// Node carries a slice-of-children shape (Tag/Line/Pos/Data layout, String/Print) over the full
// literal/expression/L-value/statement/type-phrase tag family.
package ast

import (
	"fmt"
	"strings"

	"jitc/src/envm"
	"jitc/src/symbol"
	"jitc/src/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Tag identifies the syntactic form of a Node.
type Tag int

const (
	None Tag = iota

	// Literals.
	Int
	Word
	UWord
	Double
	Char
	String

	// Expressions.
	Binop
	Block
	IfElseExpr
	Tuple
	Array
	ArrayConstructor
	Ident
	Slot
	Locn
	Appl

	// L-value duals of the expression forms above. The parser only ever marks LTuple directly
	// (destructuring-assignment targets are syntactically distinguishable); every other L-value tag
	// is assigned by the inference pass's to_lvalue conversion.
	LIdent
	LTuple
	LSlot
	LLocn
	LAppl

	// Statements.
	IfElseStmt
	IfStmt
	Then
	Else
	Assignment
	WhileStmt
	Do
	Break
	Return

	// Declarations.
	DataStmt
	DataBody
	DataSlot
	FnStmt
	FnBody
	ParamBody
	Param

	// Type phrases.
	TupleType
	TypeName
	ArrayType
)

// Node is a single syntax tree node. Children holds sub-expressions/sub-statements in left-to-right
// order; its interpretation (operator operands, block statements, call arguments, ...) is keyed off
// Tag. Sym is set for every node that names something (Ident/LIdent, Slot names, FnStmt/DataStmt
// names, Param names). Type and Env are nil until the inference pass visits the node.
type Node struct {
	Tag      Tag
	Line     int
	Pos      int
	Children []*Node
	Sym      symbol.Symbol
	Type     *types.Type
	Env      *envm.Scope

	// Resolved holds the specific overload (Fn or Constructor) chosen by overload resolution for
	// Binop/Appl/Ident/LIdent/LAppl nodes whose Type is a Generic — filled in by the infer package,
	// consulted by codegen so it lowers a call through the exact candidate inference picked rather
	// than re-resolving at lowering time.
	Resolved *types.Type

	// Global marks an Ident/LIdent node whose binding lives in the global scope rather than some
	// enclosing function scope, set by the infer package. The code generator uses it to route the
	// identifier's storage to a module-level LLVM global (durable across REPL phrases) instead of a
	// function-local alloca (torn down when the phrase's anonymous function returns).
	Global bool

	// Data carries literal payloads: int64 for Int/Word/UWord, float64 for Double, rune for Char,
	// string for String, and the chosen operator symbol.Symbol for Binop.
	Data interface{}
}

// ---------------------
// ----- constructors -----
// ---------------------

// New returns a Node with the given tag and children, at the given source position.
func New(tag Tag, line, pos int, children ...*Node) *Node {
	return &Node{Tag: tag, Line: line, Pos: pos, Children: children}
}

// NewLit returns a leaf literal node carrying data as its payload.
func NewLit(tag Tag, line, pos int, data interface{}) *Node {
	return &Node{Tag: tag, Line: line, Pos: pos, Data: data}
}

// NewSymbol returns an Ident-family leaf node naming sym. Fixes the historical bug where the
// constructor built the node but returned nil/void: every constructor in this package returns the
// node it built.
func NewSymbol(tag Tag, line, pos int, sym symbol.Symbol) *Node {
	return &Node{Tag: tag, Line: line, Pos: pos, Sym: sym}
}

// NewBinop returns a Binop node over lhs/rhs tagged with the operator symbol op.
func NewBinop(line, pos int, op symbol.Symbol, lhs, rhs *Node) *Node {
	return &Node{Tag: Binop, Line: line, Pos: pos, Data: op, Children: []*Node{lhs, rhs}}
}

// Append adds child to n's children and returns n, for chained tree assembly in the parser.
func (n *Node) Append(child *Node) *Node {
	n.Children = append(n.Children, child)
	return n
}

// ---------------------
// ----- accessors -----
// ---------------------

// Op returns a Binop node's operator symbol.
func (n *Node) Op() symbol.Symbol { return n.Data.(symbol.Symbol) }

// ---------------------
// ----- lvalue duals -----
// ---------------------

// lvalueDual maps an expression tag to its L-value dual, used by the inference pass's to_lvalue.
var lvalueDual = map[Tag]Tag{
	Ident: LIdent,
	Tuple: LTuple,
	Slot:  LSlot,
	Locn:  LLocn,
	Appl:  LAppl,
}

// ToLValue returns the L-value dual of tag, and whether one exists.
func ToLValue(tag Tag) (Tag, bool) {
	t, ok := lvalueDual[tag]
	return t, ok
}

// IsLValue reports whether tag is one of the L-value-family tags.
func IsLValue(tag Tag) bool {
	switch tag {
	case LIdent, LTuple, LSlot, LLocn, LAppl:
		return true
	default:
		return false
	}
}

// ---------------------
// ----- printing -----
// ---------------------

var tagNames = map[Tag]string{
	None: "None", Int: "Int", Word: "Word", UWord: "UWord", Double: "Double", Char: "Char", String: "String",
	Binop: "Binop", Block: "Block", IfElseExpr: "IfElseExpr", Tuple: "Tuple", Array: "Array",
	ArrayConstructor: "ArrayConstructor", Ident: "Ident", Slot: "Slot", Locn: "Locn", Appl: "Appl",
	LIdent: "LIdent", LTuple: "LTuple", LSlot: "LSlot", LLocn: "LLocn", LAppl: "LAppl",
	IfElseStmt: "IfElseStmt", IfStmt: "IfStmt", Then: "Then", Else: "Else", Assignment: "Assignment",
	WhileStmt: "WhileStmt", Do: "Do", Break: "Break", Return: "Return",
	DataStmt: "DataStmt", DataBody: "DataBody", DataSlot: "DataSlot",
	FnStmt: "FnStmt", FnBody: "FnBody", ParamBody: "ParamBody", Param: "Param",
	TupleType: "TupleType", TypeName: "TypeName", ArrayType: "ArrayType",
}

// String returns the tag's name, for diagnostics.
func (t Tag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// Print renders the tree rooted at n as an indented debug dump (used behind the -vb verbose flag).
func (n *Node) Print(indent int) string {
	if n == nil {
		return strings.Repeat("  ", indent) + "<nil>\n"
	}
	var sb strings.Builder
	sb.WriteString(strings.Repeat("  ", indent))
	sb.WriteString(n.Tag.String())
	if !n.Sym.Zero() {
		fmt.Fprintf(&sb, " %q", n.Sym.String())
	}
	if n.Data != nil {
		fmt.Fprintf(&sb, " %v", n.Data)
	}
	if n.Type != nil {
		fmt.Fprintf(&sb, " : %s", n.Type.String())
	}
	sb.WriteByte('\n')
	for _, c := range n.Children {
		sb.WriteString(c.Print(indent + 1))
	}
	return sb.String()
}
