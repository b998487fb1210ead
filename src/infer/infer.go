// Package infer implements the type inference and overload resolution pass: a single recursive
// walk that annotates every ast.Node's Type (and, for overloaded call sites, Resolved) in place.
//
// Grounded on original_source/inference.c's inference()/to_lvalue/assign_inference/find_prototype/
// list_inference/assign_args/assign_syms/find_slot, adapted to Go idiom (explicit error returns
// instead of the original's longjmp-style jit_exception abort).
package infer

import (
	"fmt"

	"jitc/src/ast"
	"jitc/src/envm"
	"jitc/src/symbol"
	"jitc/src/types"
)

// ----------------------------
// ----- errors -----
// ----------------------------

// Error reports an inference failure at a source position, matching the compiler's "every error is
// fatal to the current phrase" model: the driver catches this, discards the partial
// tree, resets the code generator's per-phrase state and waits for the next phrase. Bindings
// the phrase already made in the scope chain are not undone.
type Error struct {
	Line, Pos int
	Msg       string
}

func (e *Error) Error() string { return fmt.Sprintf("%d:%d: %s", e.Line, e.Pos, e.Msg) }

func errf(n *ast.Node, format string, args ...interface{}) error {
	return &Error{Line: n.Line, Pos: n.Pos, Msg: fmt.Sprintf(format, args...)}
}

// ---------------------
// ----- entry point -----
// ---------------------

// Infer annotates n and its subtree with types, resolving overloads against env. It is the
// exported equivalent of original_source/inference.c's inference().
func Infer(env *envm.Scope, n *ast.Node) error {
	if n == nil {
		return nil
	}
	n.Env = env
	switch n.Tag {

	// ---- literals ----
	case ast.Int, ast.Word:
		n.Type = types.TInt
	case ast.UWord:
		n.Type = types.TUInt
	case ast.Double:
		n.Type = types.TDouble
	case ast.Char:
		n.Type = types.TChar
	case ast.String:
		n.Type = types.TString

	case ast.Binop:
		return inferBinop(env, n)

	case ast.Block:
		for _, c := range n.Children {
			if err := Infer(env, c); err != nil {
				return err
			}
		}
		if len(n.Children) > 0 {
			n.Type = n.Children[len(n.Children)-1].Type
		} else {
			n.Type = types.TNil
		}

	case ast.IfElseExpr:
		cond, then, els := n.Children[0], n.Children[1], n.Children[2]
		if err := Infer(env, cond); err != nil {
			return err
		}
		if cond.Type != types.TBool {
			return errf(n, "condition of if-expression must be bool, got %s", cond.Type)
		}
		if err := Infer(env, then); err != nil {
			return err
		}
		if err := Infer(env, els); err != nil {
			return err
		}
		if then.Type != els.Type {
			return errf(n, "if-expression branches disagree: %s vs %s", then.Type, els.Type)
		}
		n.Type = then.Type

	case ast.Tuple:
		elems := make([]*types.Type, len(n.Children))
		for i, c := range n.Children {
			if err := Infer(env, c); err != nil {
				return err
			}
			elems[i] = c.Type
		}
		n.Type = types.NewTuple(elems)

	case ast.Array, ast.ArrayConstructor:
		return inferArray(env, n)

	case ast.Ident:
		b, ok := env.FindSymbol(n.Sym)
		if !ok {
			return errf(n, "undefined identifier: %s", n.Sym)
		}
		n.Type = b.Type
		n.Global = env.IsGlobalBinding(n.Sym)

	case ast.Slot:
		return inferSlot(env, n)

	case ast.Locn:
		return inferLocn(env, n)

	case ast.Appl:
		return inferAppl(env, n)

	case ast.Assignment:
		return inferAssignment(env, n)

	case ast.IfStmt:
		if err := inferCondBody(env, n); err != nil {
			return err
		}
		n.Type = types.TNil

	case ast.IfElseStmt:
		cond, then, els := n.Children[0], n.Children[1], n.Children[2]
		if err := Infer(env, cond); err != nil {
			return err
		}
		if cond.Type != types.TBool {
			return errf(n, "condition of if-statement must be bool, got %s", cond.Type)
		}
		if err := Infer(env, then); err != nil {
			return err
		}
		if err := Infer(env, els); err != nil {
			return err
		}
		n.Type = types.TNil

	case ast.Then, ast.Else, ast.Do:
		for _, c := range n.Children {
			if err := Infer(env, c); err != nil {
				return err
			}
		}
		n.Type = types.TNil

	case ast.WhileStmt:
		if err := inferCondBody(env, n); err != nil {
			return err
		}
		n.Type = types.TNil

	case ast.Break:
		n.Type = types.TNil

	case ast.Return:
		if len(n.Children) == 1 {
			if err := Infer(env, n.Children[0]); err != nil {
				return err
			}
			n.Type = n.Children[0].Type
		} else {
			n.Type = types.TNil
		}

	case ast.TypeName:
		b, ok := env.FindSymbol(n.Sym)
		if !ok {
			return errf(n, "undefined type: %s", n.Sym)
		}
		if b.Type.Tag == types.Generic {
			// A data type's name is bound once, to the generic overload set holding its constructor
			// (so call sites can resolve it through the same FindPrototype path as any other
			// function), so a type-phrase use of the name has to unwrap it back to the owning Data
			// type here rather than finding it bound directly.
			dt, ok := dataTypeOfGeneric(b.Type)
			if !ok {
				return errf(n, "%s does not name a type", n.Sym)
			}
			n.Type = dt
		} else {
			n.Type = b.Type
		}

	case ast.TupleType:
		elems := make([]*types.Type, len(n.Children))
		for i, c := range n.Children {
			if err := Infer(env, c); err != nil {
				return err
			}
			elems[i] = c.Type
		}
		n.Type = types.NewTuple(elems)

	case ast.ArrayType:
		if err := Infer(env, n.Children[0]); err != nil {
			return err
		}
		n.Type = types.NewArray(n.Children[0].Type)

	case ast.DataStmt:
		return inferDataStmt(env, n)

	case ast.FnStmt:
		return inferFnStmtHeader(env, n)

	case ast.FnBody:
		return inferFnBody(env, n)

	default:
		return errf(n, "inference: unhandled node tag %s", n.Tag)
	}
	return nil
}

// ---------------------
// ----- helpers -----
// ---------------------

func inferCondBody(env *envm.Scope, n *ast.Node) error {
	cond, body := n.Children[0], n.Children[1]
	if err := Infer(env, cond); err != nil {
		return err
	}
	if cond.Type != types.TBool {
		return errf(n, "condition must be bool, got %s", cond.Type)
	}
	return Infer(env, body)
}

// inferBinop resolves n's operator against the operand types using find_prototype's identity match.
func inferBinop(env *envm.Scope, n *ast.Node) error {
	lhs, rhs := n.Children[0], n.Children[1]
	if err := Infer(env, lhs); err != nil {
		return err
	}
	if err := Infer(env, rhs); err != nil {
		return err
	}
	op := n.Op()
	b, ok := env.FindSymbol(op)
	if !ok {
		return errf(n, "undefined operator: %s", op)
	}
	cand, ok := FindPrototype(b.Type, []*types.Type{lhs.Type, rhs.Type})
	if !ok {
		return errf(n, "no overload of %s for (%s, %s)", op, lhs.Type, rhs.Type)
	}
	n.Resolved = cand
	n.Type = cand.RetOf()
	return nil
}

func inferArray(env *envm.Scope, n *ast.Node) error {
	if len(n.Children) == 0 {
		return errf(n, "cannot infer element type of empty array literal")
	}
	if err := Infer(env, n.Children[0]); err != nil {
		return err
	}
	elemT := n.Children[0].Type
	for _, c := range n.Children[1:] {
		if err := Infer(env, c); err != nil {
			return err
		}
		if c.Type != elemT {
			return errf(n, "array elements must share a type: %s vs %s", elemT, c.Type)
		}
	}
	n.Type = types.NewArray(elemT)
	return nil
}

// inferSlot infers a.b-style field access: the AST node's own tag is Slot, but the type used to
// resolve which slot is the indexed expression's inferred type, not a property of the node itself
// (the fourth documented bug: array-index/slot lowering must consult the operand's type, not the
// node's syntactic tag).
func inferSlot(env *envm.Scope, n *ast.Node) error {
	obj := n.Children[0]
	if err := Infer(env, obj); err != nil {
		return err
	}
	if obj.Type.Tag != types.Data {
		return errf(n, "slot access on non-data type %s", obj.Type)
	}
	for i, name := range obj.Type.Slots {
		if name == n.Sym {
			n.Type = obj.Type.Ctor.Elems[i]
			return nil
		}
	}
	return errf(n, "type %s has no slot %s", obj.Type.Name, n.Sym)
}

// inferLocn infers a[i]-style indexing. As with inferSlot, the element type comes from the indexed
// expression's own inferred type, never from n's tag.
func inferLocn(env *envm.Scope, n *ast.Node) error {
	arr, idx := n.Children[0], n.Children[1]
	if err := Infer(env, arr); err != nil {
		return err
	}
	if err := Infer(env, idx); err != nil {
		return err
	}
	if arr.Type.Tag != types.Array {
		return errf(n, "index operator applied to non-array type %s", arr.Type)
	}
	if idx.Type != types.TInt && idx.Type != types.TUInt {
		return errf(n, "array index must be int or uint, got %s", idx.Type)
	}
	n.Type = arr.Type.Elem
	return nil
}

// inferAppl infers a function/constructor call: f(args...).
func inferAppl(env *envm.Scope, n *ast.Node) error {
	callee, argList := n.Children[0], n.Children[1:]
	argTypes := make([]*types.Type, len(argList))
	for i, a := range argList {
		if err := Infer(env, a); err != nil {
			return err
		}
		argTypes[i] = a.Type
	}
	if callee.Tag != ast.Ident {
		if err := Infer(env, callee); err != nil {
			return err
		}
		if callee.Type.Tag != types.Fn {
			return errf(n, "cannot call non-function type %s", callee.Type)
		}
		n.Type = callee.Type.RetOf()
		return nil
	}
	b, ok := env.FindSymbol(callee.Sym)
	if !ok {
		return errf(n, "undefined function: %s", callee.Sym)
	}
	cand, ok := FindPrototype(b.Type, argTypes)
	if !ok {
		return errf(n, "no overload of %s matches argument types", callee.Sym)
	}
	callee.Type = cand
	n.Resolved = cand
	if cand.Tag == types.Constructor {
		if data, ok := types.LookupData(cand.Name); ok {
			n.Type = data
		} else {
			return errf(n, "constructor %s has no owning data type", cand.Name)
		}
	} else {
		// Lazily infer the callee's body before the call site's own type becomes final, so mutual
		// recursion through names already bound in scope resolves (original's lazy AST_FN_BODY).
		if err := ensureFnBodyInferred(cand); err != nil {
			return err
		}
		n.Type = cand.RetOf()
	}
	return nil
}

// pendingBodies maps an Fn Type to its unlowered FnBody node, installed by inferFnStmtHeader and
// consumed the first time a call site forces inference of that body.
var pendingBodies = map[*types.Type]*ast.Node{}
var pendingEnvs = map[*types.Type]*envm.Scope{}

func ensureFnBodyInferred(fnType *types.Type) error {
	body, ok := pendingBodies[fnType]
	if !ok {
		return nil
	}
	delete(pendingBodies, fnType)
	savedEnv := pendingEnvs[fnType]
	delete(pendingEnvs, fnType)
	return Infer(savedEnv, body)
}

// inferDataStmt infers a `data Name(slot: Type, ...)` declaration, installing the data type, its
// constructor, and per-slot accessor bindings into env.
func inferDataStmt(env *envm.Scope, n *ast.Node) error {
	name := n.Sym
	body := n.Children[0]
	dataType, existed := types.LookupData(name)
	if existed {
		return errf(n, "data type %s already declared", name)
	}
	slotTypes := make([]*types.Type, 0, len(body.Children))
	slotNames := make([]symbol.Symbol, 0, len(body.Children))
	for _, slot := range body.Children {
		typeNode := slot.Children[0]
		if err := Infer(env, typeNode); err != nil {
			return err
		}
		slotTypes = append(slotTypes, typeNode.Type)
		slotNames = append(slotNames, slot.Sym)
	}
	dataType.Slots = slotNames
	ctor := types.NewConstructor(name, slotTypes)
	dataType.Ctor = ctor
	env.BindGeneric(name, ctor)
	n.Type = types.TNil
	return nil
}

// dataTypeOfGeneric looks through a Generic overload set for a Constructor candidate and returns the
// Data type it builds, for resolving a data type's name back from the binding its constructor shares.
// Foreign Data types such as ZZ share their name with a Generic of plain Fn constructor overloads
// rather than a Constructor-tagged candidate (they have no user-declared slot list), so this also
// accepts any Fn candidate and returns its return type; every constructor-style overload of a given
// type name returns that same type, so the first candidate found is as good as any other.
func dataTypeOfGeneric(generic *types.Type) (*types.Type, bool) {
	for _, c := range generic.Elems {
		if c.Tag == types.Constructor {
			return types.LookupData(c.Name)
		}
	}
	for _, c := range generic.Elems {
		if c.Tag == types.Fn && (c.RetOf().Tag == types.Data || c.RetOf().Tag == types.ZZ) {
			return c.RetOf(), true
		}
	}
	return nil, false
}

// inferFnStmtHeader infers a `fn name(params) -> ret { body }` declaration's signature eagerly and
// defers inferring its body until first called, matching the lazy AST_FN_BODY behaviour.
func inferFnStmtHeader(env *envm.Scope, n *ast.Node) error {
	name := n.Children[0].Sym
	paramBody, retTypeNode, fnBody := n.Children[1], n.Children[2], n.Children[3]

	params := make([]*types.Type, 0, len(paramBody.Children))
	fnEnv := env.Down()
	for _, p := range paramBody.Children {
		if err := Infer(env, p.Children[0]); err != nil {
			return err
		}
		t := p.Children[0].Type
		params = append(params, t)
		fnEnv.BindSymbol(p.Sym, t, p.Sym.String())
	}
	if err := Infer(env, retTypeNode); err != nil {
		return err
	}
	fnType := types.NewFn(retTypeNode.Type, params)
	env.BindGeneric(name, fnType)

	fnBody.Type = fnType.RetOf()
	pendingBodies[fnType] = fnBody
	pendingEnvs[fnType] = fnEnv
	n.Type = types.TNil
	return nil
}

func inferFnBody(env *envm.Scope, n *ast.Node) error {
	block := n.Children[0]
	if err := Infer(env, block); err != nil {
		return err
	}
	if block.Type != n.Type {
		return errf(n, "function body type %s does not match declared return type %s", block.Type, n.Type)
	}
	return nil
}

// inferAssignment infers `lhs = rhs`, converting lhs to its L-value dual tag first (to_lvalue) and
// then checking the target against rhs's type via AssignInference.
func inferAssignment(env *envm.Scope, n *ast.Node) error {
	lhs, rhs := n.Children[0], n.Children[1]
	if err := Infer(env, rhs); err != nil {
		return err
	}
	if dual, ok := ast.ToLValue(lhs.Tag); ok {
		lhs.Tag = dual
	}
	if err := AssignInference(env, lhs, rhs.Type); err != nil {
		return err
	}
	n.Type = types.TNil
	return nil
}

// AssignInference infers an L-value target node against the expected type te, mirroring
// original_source/inference.c's assign_inference dispatch over LIdent/LTuple/LSlot/LLocn/LAppl.
func AssignInference(env *envm.Scope, lhs *ast.Node, te *types.Type) error {
	lhs.Env = env
	switch lhs.Tag {
	case ast.LIdent:
		b, ok := env.FindSymbol(lhs.Sym)
		if !ok {
			// First assignment to a bare identifier declares it (global or local, per scope.Down()
			// nesting already established by the caller).
			env.BindSymbol(lhs.Sym, te, lhs.Sym.String())
			lhs.Type = te
			lhs.Global = env.IsGlobal()
			return nil
		}
		if b.Type != te {
			return errf(lhs, "cannot assign %s to %s", te, b.Type)
		}
		lhs.Type = te
		lhs.Global = env.IsGlobalBinding(lhs.Sym)
		return nil

	case ast.LTuple:
		if te.Tag != types.Tuple || len(te.Elems) != len(lhs.Children) {
			return errf(lhs, "tuple assignment arity mismatch")
		}
		for i, c := range lhs.Children {
			if dual, ok := ast.ToLValue(c.Tag); ok {
				c.Tag = dual
			}
			if err := AssignInference(env, c, te.Elems[i]); err != nil {
				return err
			}
		}
		lhs.Type = te
		return nil

	case ast.LSlot:
		obj := lhs.Children[0]
		if err := Infer(env, obj); err != nil {
			return err
		}
		if obj.Type.Tag != types.Data {
			return errf(lhs, "slot access on non-data type %s", obj.Type)
		}
		found := false
		for i, name := range obj.Type.Slots {
			if name == lhs.Sym {
				if obj.Type.Ctor.Elems[i] != te {
					return errf(lhs, "cannot assign %s to slot %s of type %s", te, lhs.Sym, obj.Type.Ctor.Elems[i])
				}
				found = true
				break
			}
		}
		if !found {
			return errf(lhs, "type %s has no slot %s", obj.Type.Name, lhs.Sym)
		}
		lhs.Type = te
		return nil

	case ast.LLocn:
		if err := Infer(env, lhs.Children[0]); err != nil {
			return err
		}
		if err := Infer(env, lhs.Children[1]); err != nil {
			return err
		}
		if lhs.Children[0].Type.Tag != types.Array {
			return errf(lhs, "index-assignment on non-array type %s", lhs.Children[0].Type)
		}
		if lhs.Children[0].Type.Elem != te {
			return errf(lhs, "cannot assign %s into array of %s", te, lhs.Children[0].Type.Elem)
		}
		lhs.Type = te
		return nil

	case ast.LAppl:
		return errf(lhs, "cannot assign to a function call result")

	default:
		return errf(lhs, "not an assignable expression")
	}
}

// ---------------------
// ----- overload resolution -----
// ---------------------

// FindPrototype recurses through nested Generic alternatives of candidateSet looking for
// a candidate whose parameter types match args by identity (pointer equality, since every Type other
// than Tuple/Array/Data is either a singleton or uniqued). Mirrors original_source/inference.c's
// find_prototype exactly, including matching by type-value identity rather than structural equality.
func FindPrototype(candidateSet *types.Type, args []*types.Type) (*types.Type, bool) {
	switch candidateSet.Tag {
	case types.Generic:
		for _, c := range candidateSet.Elems {
			if m, ok := FindPrototype(c, args); ok {
				return m, ok
			}
		}
		return nil, false
	case types.Fn:
		params := candidateSet.ParamsOf()
		if len(params) != len(args) {
			return nil, false
		}
		for i, p := range params {
			if p != args[i] {
				return nil, false
			}
		}
		return candidateSet, true
	case types.Constructor:
		if len(candidateSet.Elems) != len(args) {
			return nil, false
		}
		for i, p := range candidateSet.Elems {
			if p != args[i] {
				return nil, false
			}
		}
		return candidateSet, true
	default:
		return nil, false
	}
}
