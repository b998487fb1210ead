package codegen

import (
	"fmt"

	"jitc/src/ast"
	"jitc/src/symbol"
	"jitc/src/types"
	"tinygo.org/x/go-llvm"
)

// genTupleLiteral builds an aggregate struct value by inserting each component in turn, using
// CreateInsertValue to compose the multi-value result.
func (g *Generator) genTupleLiteral(n *ast.Node) (llvm.Value, error) {
	st := g.genType(n.Type)
	agg := llvm.Undef(st)
	for i, c := range n.Children {
		v, err := g.genExpression(c)
		if err != nil {
			return llvm.Value{}, err
		}
		agg = g.builder.CreateInsertValue(agg, v, i, "")
	}
	return agg, nil
}

// genArrayLiteral allocates heap-backed storage for a fixed-size array literal via malloc and stores
// each element, returning the {ptr, len} fat-pointer struct codegen uses to represent Array
// everywhere. Heap storage (rather than a stack alloca) is required for an array value to outlive the
// REPL phrase or function activation that built it, and for call_assign's growth path to realloc it.
func (g *Generator) genArrayLiteral(n *ast.Node) (llvm.Value, error) {
	elemT := n.Type.Elem
	elemLT := g.genType(elemT)
	count := len(n.Children)
	total := llvm.ConstInt(g.ctx.Int64Type(), uint64(g.sizeOf(elemT)*count), false)
	ptr := g.genMalloc(total, elemLT)
	for i, c := range n.Children {
		v, err := g.genExpression(c)
		if err != nil {
			return llvm.Value{}, err
		}
		slot := g.builder.CreateInBoundsGEP(elemLT, ptr, []llvm.Value{
			llvm.ConstInt(g.ctx.Int64Type(), uint64(i), false),
		}, "")
		g.builder.CreateStore(v, slot)
	}
	fat := llvm.Undef(g.genType(n.Type))
	fat = g.builder.CreateInsertValue(fat, ptr, 0, "")
	fat = g.builder.CreateInsertValue(fat, llvm.ConstInt(g.ctx.Int64Type(), uint64(count), false), 1, "")
	return fat, nil
}

// genSlotRead extracts a named field from a Data struct value.
func (g *Generator) genSlotRead(n *ast.Node) (llvm.Value, error) {
	obj, err := g.genExpression(n.Children[0])
	if err != nil {
		return llvm.Value{}, err
	}
	objT := n.Children[0].Type
	idx := slotIndex(objT, n.Sym)
	if idx < 0 {
		return llvm.Value{}, fmt.Errorf("codegen: slot %s not found on %s", n.Sym, objT.Name)
	}
	return g.builder.CreateExtractValue(obj, idx, ""), nil
}

func slotIndex(t *types.Type, sym interface{ String() string }) int {
	for i, s := range t.Slots {
		if s.String() == sym.String() {
			return i
		}
	}
	return -1
}

// genLocnRead loads the element at a dynamic index out of an array's fat pointer.
func (g *Generator) genLocnRead(n *ast.Node) (llvm.Value, error) {
	arr, err := g.genExpression(n.Children[0])
	if err != nil {
		return llvm.Value{}, err
	}
	idx, err := g.genExpression(n.Children[1])
	if err != nil {
		return llvm.Value{}, err
	}
	ptr := g.builder.CreateExtractValue(arr, 0, "")
	elemLT := g.genType(n.Children[0].Type.Elem)
	slot := g.builder.CreateInBoundsGEP(elemLT, ptr, []llvm.Value{idx}, "")
	return g.builder.CreateLoad(elemLT, slot, ""), nil
}

// genAppl lowers a call site: a user-defined function (lazily lowered on first use), a foreign
// function/operator, a data constructor, or the swap intrinsic.
func (g *Generator) genAppl(n *ast.Node) (llvm.Value, error) {
	callee := n.Children[0]
	argNodes := n.Children[1:]

	if callee.Tag == ast.Ident && callee.Sym.String() == "swap" && len(argNodes) == 2 {
		return g.genSwap(argNodes[0], argNodes[1])
	}

	args := make([]llvm.Value, len(argNodes))
	for i, a := range argNodes {
		v, err := g.genExpression(a)
		if err != nil {
			return llvm.Value{}, err
		}
		args[i] = v
	}

	if n.Resolved != nil && n.Resolved.Tag == types.Constructor {
		return g.genConstructorCall(n.Resolved, args, n.Type)
	}
	if n.Resolved != nil && n.Resolved.Foreign && callee.Sym.String() == "ZZ" {
		return g.genZZConstructorCall(n.Resolved, args)
	}
	if n.Resolved != nil && n.Resolved.Foreign {
		return g.genForeignCall(n.Resolved, callee.Sym.String(), args, n.Type)
	}

	fn, err := g.lowerFnByType(n.Resolved)
	if err != nil {
		return llvm.Value{}, err
	}
	return g.builder.CreateCall(fnElementType(fn), fn, args, ""), nil
}

func fnElementType(fn llvm.Value) llvm.Type {
	return fn.GlobalValueType()
}

// genConstructorCall assembles a Data struct value from constructor arguments in slot order.
func (g *Generator) genConstructorCall(ctor *types.Type, args []llvm.Value, dataT *types.Type) (llvm.Value, error) {
	st := g.genType(dataT)
	agg := llvm.Undef(st)
	for i, v := range args {
		agg = g.builder.CreateInsertValue(agg, v, i, "")
	}
	return agg, nil
}

// genForeignCall routes a foreign operator/function call through the cgo JIT bridge (bridge.go) when
// the operand type is ZZ, the only foreign Data type this compiler wires in.
func (g *Generator) genForeignCall(resolved *types.Type, opSym string, args []llvm.Value, retT *types.Type) (llvm.Value, error) {
	if len(args) != 2 {
		return llvm.Value{}, fmt.Errorf("codegen: foreign calls of arity %d are not supported", len(args))
	}
	if retT == types.TBool {
		fn := g.declareZZCmpTrampoline()
		code := zzCmpCode(opSym)
		raw := g.builder.CreateCall(fn.GlobalValueType(), fn, []llvm.Value{
			llvm.ConstInt(g.ctx.Int64Type(), uint64(code), true), args[0], args[1],
		}, "")
		return g.builder.CreateTrunc(raw, g.ctx.Int1Type(), ""), nil
	}
	fn := g.declareZZBinopTrampoline()
	code := zzOpCode(opSym)
	return g.builder.CreateCall(fn.GlobalValueType(), fn, []llvm.Value{
		llvm.ConstInt(g.ctx.Int64Type(), uint64(code), true), args[0], args[1],
	}, ""), nil
}

// genZZConstructorCall routes a ZZ(...) call site to the matching cgo bridge trampoline: the default
// constructor (no args), the string constructor (one string arg) or the copy constructor (one ZZ arg).
// cand (the Fn overload inference resolved) disambiguates instead of re-inspecting argument count,
// since that is exactly what overload resolution already decided.
func (g *Generator) genZZConstructorCall(cand *types.Type, args []llvm.Value) (llvm.Value, error) {
	params := cand.ParamsOf()
	switch {
	case len(params) == 0:
		fn := g.declareZZNewTrampoline()
		null := llvm.ConstNull(llvm.PointerType(g.ctx.Int8Type(), 0))
		return g.builder.CreateCall(fn.GlobalValueType(), fn, []llvm.Value{null}, ""), nil
	case len(params) == 1 && params[0] == types.TString:
		fn := g.declareZZNewTrampoline()
		return g.builder.CreateCall(fn.GlobalValueType(), fn, []llvm.Value{args[0]}, ""), nil
	case len(params) == 1 && params[0].Tag == types.ZZ:
		fn := g.declareZZCopyTrampoline()
		return g.builder.CreateCall(fn.GlobalValueType(), fn, []llvm.Value{args[0]}, ""), nil
	default:
		return llvm.Value{}, fmt.Errorf("codegen: unsupported ZZ constructor overload %s", cand)
	}
}

func zzOpCode(sym string) zzOp {
	switch sym {
	case "+":
		return zzAdd
	case "-":
		return zzSub
	case "*":
		return zzMul
	case "/":
		return zzDiv
	default:
		return zzRem
	}
}

func zzCmpCode(sym string) zzCmp {
	switch sym {
	case "==":
		return zzEQ
	case "!=":
		return zzNE
	case "<":
		return zzLT
	case ">":
		return zzGT
	case "<=":
		return zzLE
	default:
		return zzGE
	}
}

// genSwap exchanges two array/data locals' storage pointers without copying, mirroring
// original_source/backend.c's call_swap. Only legal on two plain-identifier locals of Array or Data
// type, matching the original's restriction.
func (g *Generator) genSwap(a, b *ast.Node) (llvm.Value, error) {
	if a.Tag != ast.Ident || b.Tag != ast.Ident {
		return llvm.Value{}, fmt.Errorf("codegen: swap requires two plain identifiers")
	}
	if !a.Type.IsStructured() || a.Type != b.Type {
		return llvm.Value{}, fmt.Errorf("codegen: swap requires two locals of the same array/data type")
	}
	pa, err := g.identPtr(a)
	if err != nil {
		return llvm.Value{}, err
	}
	pb, err := g.identPtr(b)
	if err != nil {
		return llvm.Value{}, err
	}
	lt := g.genType(a.Type)
	va := g.builder.CreateLoad(lt, pa, "")
	vb := g.builder.CreateLoad(lt, pb, "")
	g.builder.CreateStore(vb, pa)
	g.builder.CreateStore(va, pb)
	return llvm.Value{}, nil
}

// genAssign lowers `lhs = rhs`, storing through the L-value's storage pointer. Tuple-destructuring
// targets recurse component-wise instead of storing one aggregate value.
func (g *Generator) genAssign(n *ast.Node) (llvm.Value, error) {
	lhs, rhs := n.Children[0], n.Children[1]
	v, err := g.genExpression(rhs)
	if err != nil {
		return llvm.Value{}, err
	}
	return llvm.Value{}, g.storeInto(lhs, v)
}

func (g *Generator) storeInto(lhs *ast.Node, v llvm.Value) error {
	switch lhs.Tag {
	case ast.LIdent:
		if lhs.Global {
			_, existed := g.globals[lhs.Sym]
			ptr := g.globalStorage(lhs.Sym, lhs.Type)
			if existed {
				return g.genCallAssign(ptr, v, lhs.Type)
			}
			init, err := g.genCopyConstruct(v, lhs.Type)
			if err != nil {
				return err
			}
			g.builder.CreateStore(init, ptr)
			return nil
		}
		if ptr, ok := g.locals.get(lhs.Sym); ok {
			return g.genCallAssign(ptr, v, lhs.Type)
		}
		ptr := g.builder.CreateAlloca(g.genType(lhs.Type), lhs.Sym.String())
		g.locals.set(lhs.Sym, ptr, lhs.Type)
		init, err := g.genCopyConstruct(v, lhs.Type)
		if err != nil {
			return err
		}
		g.builder.CreateStore(init, ptr)
		return nil
	case ast.LTuple:
		for i, c := range lhs.Children {
			comp := g.builder.CreateExtractValue(v, i, "")
			if err := g.storeInto(c, comp); err != nil {
				return err
			}
		}
		return nil
	case ast.LSlot:
		objPtr, err := g.identPtr(lhs.Children[0])
		if err != nil {
			return err
		}
		objT := lhs.Children[0].Type
		obj := g.builder.CreateLoad(g.genType(objT), objPtr, "")
		idx := slotIndex(objT, lhs.Sym)
		fieldT := objT.Ctor.Elems[idx]
		old := g.builder.CreateExtractValue(obj, idx, "")
		merged, err := g.genCallAssignValue(old, v, fieldT)
		if err != nil {
			return err
		}
		obj = g.builder.CreateInsertValue(obj, merged, idx, "")
		g.builder.CreateStore(obj, objPtr)
		return nil
	case ast.LLocn:
		arr, err := g.genExpression(lhs.Children[0])
		if err != nil {
			return err
		}
		idx, err := g.genExpression(lhs.Children[1])
		if err != nil {
			return err
		}
		ptr := g.builder.CreateExtractValue(arr, 0, "")
		elemLT := g.genType(lhs.Children[0].Type.Elem)
		slot := g.builder.CreateInBoundsGEP(elemLT, ptr, []llvm.Value{idx}, "")
		g.builder.CreateStore(v, slot)
		return nil
	default:
		return fmt.Errorf("codegen: cannot assign into %s", lhs.Tag)
	}
}

// lowerFn declares and emits a user-defined function's body, caching the result by the function's
// Fn Type so a later call site (possibly encountered before this declaration, in mutual recursion)
// reuses the same llvm.Value.
func (g *Generator) lowerFn(n *ast.Node) (llvm.Value, error) {
	nameSym := n.Children[0].Sym
	paramBody := n.Children[1]
	fnBody := n.Children[3]

	b, ok := n.Env.FindSymbol(nameSym)
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: function %s has no binding", nameSym)
	}
	fnType, ok := findMatchingFn(b.Type, paramBody)
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: no matching Fn type for %s", nameSym)
	}

	fn, err := g.lowerFnByType(fnType)
	if err != nil {
		return llvm.Value{}, err
	}
	if g.emitted[fnType] {
		return fn, nil
	}
	g.emitted[fnType] = true

	savedBlock := g.builder.GetInsertBlock()
	savedLocals := g.locals
	g.locals = newLocalMap()

	entry := llvm.AddBasicBlock(fn, "entry")
	g.builder.SetInsertPointAtEnd(entry)
	params := fn.Params()
	for i, p := range paramBody.Children {
		paramT := fnType.ParamsOf()[i]
		ptr := g.builder.CreateAlloca(g.genType(paramT), p.Sym.String())
		init, err := g.genCopyConstruct(params[i], paramT)
		if err != nil {
			return llvm.Value{}, err
		}
		g.builder.CreateStore(init, ptr)
		g.locals.set(p.Sym, ptr, paramT)
	}
	v, err := g.genExpression(fnBody.Children[0])
	if err != nil {
		return llvm.Value{}, err
	}

	if g.haveInsertPoint() {
		retExpr := fnBody.Children[0]
		var skip symbol.Symbol
		var hasSkip bool
		if retExpr.Tag == ast.Ident {
			skip, hasSkip = retExpr.Sym, true
		}
		if err := g.genDestroyScope(skip, hasSkip); err != nil {
			return llvm.Value{}, err
		}
		if fnType.RetOf() == types.TNil {
			g.builder.CreateRetVoid()
		} else {
			g.builder.CreateRet(v)
		}
	}

	g.locals = savedLocals
	if savedBlock.IsNil() {
		return fn, nil
	}
	g.builder.SetInsertPointAtEnd(savedBlock)
	return fn, nil
}

// findMatchingFn recovers the specific Fn candidate a FnStmt declared, by arity and by the identity
// of each declared parameter type, when only the Generic binding is available. The first candidate
// that matches is returned.
func findMatchingFn(generic *types.Type, paramBody *ast.Node) (*types.Type, bool) {
	if generic.Tag == types.Fn {
		return generic, true
	}
	if generic.Tag != types.Generic {
		return nil, false
	}
	for _, c := range generic.Elems {
		if c.Tag != types.Fn || len(c.ParamsOf()) != len(paramBody.Children) {
			continue
		}
		match := true
		for i, p := range paramBody.Children {
			if c.ParamsOf()[i] != p.Children[0].Type {
				match = false
				break
			}
		}
		if match {
			return c, true
		}
	}
	return nil, false
}

func (g *Generator) lowerFnByType(fnType *types.Type) (llvm.Value, error) {
	if fn, ok := g.fnCache[fnType]; ok {
		return fn, nil
	}
	params := make([]llvm.Type, len(fnType.ParamsOf()))
	for i, p := range fnType.ParamsOf() {
		params[i] = g.genType(p)
	}
	lt := llvm.FunctionType(g.genType(fnType.RetOf()), params, false)
	fn := llvm.AddFunction(g.mod, "fn."+fmt.Sprintf("%p", fnType), lt)
	g.fnCache[fnType] = fn
	return fn, nil
}
