package codegen

import (
	"jitc/src/symbol"
	"jitc/src/types"
	"tinygo.org/x/go-llvm"
)

// This file implements the aggregate-value lifecycle predicates and their call_* lowering
// counterparts, grounded line-for-line on original_source/backend.c's requires_destructor/
// call_destructors, requires_assign/call_assign, requires_constructor/call_constructors,
// requires_copy_construct/copy_construct and call_swap.
//
// The fifth documented bug is fixed here: every requires_* predicate over a Tuple explicitly
// returns false once no component needs the hook, instead of falling through a switch with no
// default case (which left the result undefined for an all-scalar tuple in the original).

// requiresDestructor reports whether values of type t own resources that must be released when the
// value goes out of scope: arrays always do (they own a heap allocation), ZZ does when its finalizer
// is registered, a Data type does if it carries an explicit finalizer or any of its slots recursively
// does, a Tuple does if any component does, nothing else does.
func requiresDestructor(t *types.Type) bool {
	switch t.Tag {
	case types.Array:
		return true
	case types.ZZ:
		return t.HasDtor
	case types.Tuple:
		for _, e := range t.Elems {
			if requiresDestructor(e) {
				return true
			}
		}
		return false
	case types.Data:
		if t.HasDtor {
			return true
		}
		if t.Ctor == nil {
			return false
		}
		for _, e := range t.Ctor.Elems {
			if requiresDestructor(e) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// requiresAssign reports whether assigning a value of type t needs more than a bitwise copy: arrays
// always do (the destination's existing backing storage must be released first), a Data type does if
// it defines its own assignment operator or any slot does.
func requiresAssign(t *types.Type) bool {
	switch t.Tag {
	case types.Array:
		return true
	case types.ZZ:
		return t.HasAssign
	case types.Tuple:
		for _, e := range t.Elems {
			if requiresAssign(e) {
				return true
			}
		}
		return false
	case types.Data:
		if t.HasAssign {
			return true
		}
		if t.Ctor == nil {
			return false
		}
		for _, e := range t.Ctor.Elems {
			if requiresAssign(e) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// requiresCopyConstruct reports whether duplicating a value of type t (passing by value, returning
// by value) needs more than a bitwise copy. Same recursive shape as requiresAssign.
func requiresCopyConstruct(t *types.Type) bool {
	switch t.Tag {
	case types.Array:
		return true
	case types.ZZ:
		return t.HasCopyCtor
	case types.Tuple:
		for _, e := range t.Elems {
			if requiresCopyConstruct(e) {
				return true
			}
		}
		return false
	case types.Data:
		if t.HasCopyCtor {
			return true
		}
		if t.Ctor == nil {
			return false
		}
		for _, e := range t.Ctor.Elems {
			if requiresCopyConstruct(e) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// requiresConstructor reports whether default-constructing a value of type t (a declaration with no
// initializer) needs more than zero-initialized storage.
func requiresConstructor(t *types.Type) bool {
	switch t.Tag {
	case types.Array:
		return true
	case types.ZZ:
		return t.HasCtor
	case types.Tuple:
		for _, e := range t.Elems {
			if requiresConstructor(e) {
				return true
			}
		}
		return false
	case types.Data:
		if t.HasCtor {
			return true
		}
		if t.Ctor == nil {
			return false
		}
		for _, e := range t.Ctor.Elems {
			if requiresConstructor(e) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// -----------------------------
// ----- lowering, call_* ------
// -----------------------------

// genCallAssign stores rhs into the location dstPtr points at, running t's assignment hook (or
// recursing into its structure) instead of a bare overwrite when requiresAssign(t) holds. Mirrors
// original_source/backend.c's call_assign.
func (g *Generator) genCallAssign(dstPtr llvm.Value, rhs llvm.Value, t *types.Type) error {
	if !requiresAssign(t) {
		g.builder.CreateStore(rhs, dstPtr)
		return nil
	}
	old := g.builder.CreateLoad(g.genType(t), dstPtr, "")
	merged, err := g.genCallAssignValue(old, rhs, t)
	if err != nil {
		return err
	}
	g.builder.CreateStore(merged, dstPtr)
	return nil
}

// genCallAssignValue computes the value call_assign(old, rhs, t) would leave in storage, operating on
// already-loaded SSA values rather than a pointer. Used both by genCallAssign and by L-value targets
// (a Data slot, a tuple component) whose storage is reached by loading/inserting into an enclosing
// struct value rather than through a standalone pointer.
func (g *Generator) genCallAssignValue(old, rhs llvm.Value, t *types.Type) (llvm.Value, error) {
	if !requiresAssign(t) {
		return rhs, nil
	}
	switch t.Tag {
	case types.ZZ:
		fn := g.declareZZAssignTrampoline()
		return g.builder.CreateCall(fn.GlobalValueType(), fn, []llvm.Value{old, rhs}, ""), nil
	case types.Tuple:
		agg := rhs
		for i, e := range t.Elems {
			if !requiresAssign(e) {
				continue
			}
			merged, err := g.genCallAssignValue(
				g.builder.CreateExtractValue(old, i, ""),
				g.builder.CreateExtractValue(rhs, i, ""), e)
			if err != nil {
				return llvm.Value{}, err
			}
			agg = g.builder.CreateInsertValue(agg, merged, i, "")
		}
		return agg, nil
	case types.Data:
		agg := rhs
		for i, e := range t.Ctor.Elems {
			if !requiresAssign(e) {
				continue
			}
			merged, err := g.genCallAssignValue(
				g.builder.CreateExtractValue(old, i, ""),
				g.builder.CreateExtractValue(rhs, i, ""), e)
			if err != nil {
				return llvm.Value{}, err
			}
			agg = g.builder.CreateInsertValue(agg, merged, i, "")
		}
		return agg, nil
	case types.Array:
		return g.genArrayAssign(old, rhs, t)
	default:
		return rhs, nil
	}
}

// genArrayAssign implements call_assign's array-growth rule: if rhs is longer than the destination's
// current capacity, the destination's backing storage is reallocated to fit; otherwise the existing
// storage is reused. Either way every element of rhs is then copied in (per-element call_assign when
// the element type itself needs one, a flat memcpy otherwise), and the destination's length is
// updated to rhs's.
func (g *Generator) genArrayAssign(old, rhs llvm.Value, t *types.Type) (llvm.Value, error) {
	elemT := t.Elem
	elemLT := g.genType(elemT)
	i8p := llvm.PointerType(g.ctx.Int8Type(), 0)

	oldPtr := g.builder.CreateExtractValue(old, 0, "")
	oldLen := g.builder.CreateExtractValue(old, 1, "")
	newPtr := g.builder.CreateExtractValue(rhs, 0, "")
	newLen := g.builder.CreateExtractValue(rhs, 1, "")

	fn := g.builder.GetInsertBlock().Parent()
	cond := g.builder.CreateICmp(llvm.IntUGT, newLen, oldLen, "arr.grow.cond")
	growBB := llvm.AddBasicBlock(fn, "arr.grow")
	fitBB := llvm.AddBasicBlock(fn, "arr.fit")
	joinBB := llvm.AddBasicBlock(fn, "arr.join")
	g.builder.CreateCondBr(cond, growBB, fitBB)

	g.builder.SetInsertPointAtEnd(growBB)
	elemSize := llvm.ConstInt(g.ctx.Int64Type(), uint64(g.sizeOf(elemT)), false)
	growBytes := g.builder.CreateMul(newLen, elemSize, "")
	grown := g.genRealloc(oldPtr, growBytes, elemLT)
	g.builder.CreateBr(joinBB)
	growEnd := g.builder.GetInsertBlock()

	g.builder.SetInsertPointAtEnd(fitBB)
	g.builder.CreateBr(joinBB)
	fitEnd := g.builder.GetInsertBlock()

	g.builder.SetInsertPointAtEnd(joinBB)
	dstPtr := g.builder.CreatePHI(llvm.PointerType(elemLT, 0), "arr.dst")
	dstPtr.AddIncoming([]llvm.Value{grown, oldPtr}, []llvm.BasicBlock{growEnd, fitEnd})

	if requiresAssign(elemT) {
		if err := g.genArrayElementLoop(dstPtr, newPtr, newLen, elemT); err != nil {
			return llvm.Value{}, err
		}
	} else {
		bytes := g.builder.CreateMul(newLen, elemSize, "")
		dstRaw := g.builder.CreateBitCast(dstPtr, i8p, "")
		srcRaw := g.builder.CreateBitCast(newPtr, i8p, "")
		g.genMemcpy(dstRaw, srcRaw, bytes)
	}

	result := llvm.Undef(g.genType(t))
	result = g.builder.CreateInsertValue(result, llvm.Value(dstPtr), 0, "")
	result = g.builder.CreateInsertValue(result, newLen, 1, "")
	return result, nil
}

// genArrayElementLoop assigns src[0:count] into dst[0:count] element by element, running each
// element's own call_assign so nested arrays/data grow and release resources correctly instead of
// being bitwise overwritten.
func (g *Generator) genArrayElementLoop(dst, src, count llvm.Value, elemT *types.Type) error {
	elemLT := g.genType(elemT)
	fn := g.builder.GetInsertBlock().Parent()
	preheader := g.builder.GetInsertBlock()
	condBB := llvm.AddBasicBlock(fn, "arr.loop.cond")
	bodyBB := llvm.AddBasicBlock(fn, "arr.loop.body")
	afterBB := llvm.AddBasicBlock(fn, "arr.loop.after")
	g.builder.CreateBr(condBB)

	g.builder.SetInsertPointAtEnd(condBB)
	idx := g.builder.CreatePHI(g.ctx.Int64Type(), "arr.i")
	idx.AddIncoming([]llvm.Value{llvm.ConstInt(g.ctx.Int64Type(), 0, false)}, []llvm.BasicBlock{preheader})
	cont := g.builder.CreateICmp(llvm.IntULT, llvm.Value(idx), count, "")
	g.builder.CreateCondBr(cont, bodyBB, afterBB)

	g.builder.SetInsertPointAtEnd(bodyBB)
	dstSlot := g.builder.CreateInBoundsGEP(elemLT, dst, []llvm.Value{llvm.Value(idx)}, "")
	srcSlot := g.builder.CreateInBoundsGEP(elemLT, src, []llvm.Value{llvm.Value(idx)}, "")
	oldElem := g.builder.CreateLoad(elemLT, dstSlot, "")
	newElem := g.builder.CreateLoad(elemLT, srcSlot, "")
	merged, err := g.genCallAssignValue(oldElem, newElem, elemT)
	if err != nil {
		return err
	}
	g.builder.CreateStore(merged, dstSlot)
	next := g.builder.CreateAdd(llvm.Value(idx), llvm.ConstInt(g.ctx.Int64Type(), 1, false), "")
	bodyEnd := g.builder.GetInsertBlock()
	idx.AddIncoming([]llvm.Value{next}, []llvm.BasicBlock{bodyEnd})
	g.builder.CreateBr(condBB)

	g.builder.SetInsertPointAtEnd(afterBB)
	return nil
}

// genCopyConstruct duplicates v for use as an independent value (a by-value parameter, a fresh
// `let x = y` binding initializer), running t's copy-constructor hook instead of sharing ownership of
// v's heap resources when requiresCopyConstruct(t) holds. Mirrors original_source/backend.c's
// copy_construct.
func (g *Generator) genCopyConstruct(v llvm.Value, t *types.Type) (llvm.Value, error) {
	if !requiresCopyConstruct(t) {
		return v, nil
	}
	switch t.Tag {
	case types.ZZ:
		fn := g.declareZZCopyTrampoline()
		return g.builder.CreateCall(fn.GlobalValueType(), fn, []llvm.Value{v}, ""), nil
	case types.Tuple:
		agg := v
		for i, e := range t.Elems {
			if !requiresCopyConstruct(e) {
				continue
			}
			c, err := g.genCopyConstruct(g.builder.CreateExtractValue(v, i, ""), e)
			if err != nil {
				return llvm.Value{}, err
			}
			agg = g.builder.CreateInsertValue(agg, c, i, "")
		}
		return agg, nil
	case types.Data:
		agg := v
		for i, e := range t.Ctor.Elems {
			if !requiresCopyConstruct(e) {
				continue
			}
			c, err := g.genCopyConstruct(g.builder.CreateExtractValue(v, i, ""), e)
			if err != nil {
				return llvm.Value{}, err
			}
			agg = g.builder.CreateInsertValue(agg, c, i, "")
		}
		return agg, nil
	case types.Array:
		elemT := t.Elem
		elemLT := g.genType(elemT)
		ptr := g.builder.CreateExtractValue(v, 0, "")
		length := g.builder.CreateExtractValue(v, 1, "")
		elemSize := llvm.ConstInt(g.ctx.Int64Type(), uint64(g.sizeOf(elemT)), false)
		bytes := g.builder.CreateMul(length, elemSize, "")
		dst := g.genMalloc(bytes, elemLT)
		if requiresCopyConstruct(elemT) {
			if err := g.genArrayCopyLoop(dst, ptr, length, elemT); err != nil {
				return llvm.Value{}, err
			}
		} else {
			i8p := llvm.PointerType(g.ctx.Int8Type(), 0)
			g.genMemcpy(g.builder.CreateBitCast(dst, i8p, ""), g.builder.CreateBitCast(ptr, i8p, ""), bytes)
		}
		out := llvm.Undef(g.genType(t))
		out = g.builder.CreateInsertValue(out, dst, 0, "")
		out = g.builder.CreateInsertValue(out, length, 1, "")
		return out, nil
	default:
		return v, nil
	}
}

// genArrayCopyLoop copy-constructs src[0:count] into the freshly allocated dst[0:count], element by
// element.
func (g *Generator) genArrayCopyLoop(dst, src, count llvm.Value, elemT *types.Type) error {
	elemLT := g.genType(elemT)
	fn := g.builder.GetInsertBlock().Parent()
	preheader := g.builder.GetInsertBlock()
	condBB := llvm.AddBasicBlock(fn, "arr.copy.cond")
	bodyBB := llvm.AddBasicBlock(fn, "arr.copy.body")
	afterBB := llvm.AddBasicBlock(fn, "arr.copy.after")
	g.builder.CreateBr(condBB)

	g.builder.SetInsertPointAtEnd(condBB)
	idx := g.builder.CreatePHI(g.ctx.Int64Type(), "arr.ci")
	idx.AddIncoming([]llvm.Value{llvm.ConstInt(g.ctx.Int64Type(), 0, false)}, []llvm.BasicBlock{preheader})
	cont := g.builder.CreateICmp(llvm.IntULT, llvm.Value(idx), count, "")
	g.builder.CreateCondBr(cont, bodyBB, afterBB)

	g.builder.SetInsertPointAtEnd(bodyBB)
	srcSlot := g.builder.CreateInBoundsGEP(elemLT, src, []llvm.Value{llvm.Value(idx)}, "")
	dstSlot := g.builder.CreateInBoundsGEP(elemLT, dst, []llvm.Value{llvm.Value(idx)}, "")
	elem := g.builder.CreateLoad(elemLT, srcSlot, "")
	copied, err := g.genCopyConstruct(elem, elemT)
	if err != nil {
		return err
	}
	g.builder.CreateStore(copied, dstSlot)
	next := g.builder.CreateAdd(llvm.Value(idx), llvm.ConstInt(g.ctx.Int64Type(), 1, false), "")
	bodyEnd := g.builder.GetInsertBlock()
	idx.AddIncoming([]llvm.Value{next}, []llvm.BasicBlock{bodyEnd})
	g.builder.CreateBr(condBB)

	g.builder.SetInsertPointAtEnd(afterBB)
	return nil
}

// genDestroyScope runs call_destructors over every local bound in the current function activation,
// skipping the one named by skip (when hasSkip holds) so a `return x` does not destroy the very value
// being handed back to the caller. Mirrors original_source/backend.c's call_destructors, invoked at
// function exit (by genReturn for an explicit return, and by lowerFn when the body falls off its end)
// rather than the original's per-block bookkeeping, since this generator's locals are scoped to one
// function activation already (see lowerFn's fresh localMap).
func (g *Generator) genDestroyScope(skip symbol.Symbol, hasSkip bool) error {
	for sym, e := range g.locals.all() {
		if hasSkip && sym == skip {
			continue
		}
		if !requiresDestructor(e.typ) {
			continue
		}
		v := g.builder.CreateLoad(g.genType(e.typ), e.ptr, "")
		if err := g.genDestroy(v, e.typ); err != nil {
			return err
		}
	}
	return nil
}

// genDestroy runs t's destructor/finalizer on v, recursing into structured types and freeing an
// array's backing allocation last, after its elements have been destroyed.
func (g *Generator) genDestroy(v llvm.Value, t *types.Type) error {
	switch t.Tag {
	case types.ZZ:
		fn := g.declareZZFinalizeTrampoline()
		g.builder.CreateCall(fn.GlobalValueType(), fn, []llvm.Value{v}, "")
		return nil
	case types.Tuple:
		for i, e := range t.Elems {
			if !requiresDestructor(e) {
				continue
			}
			if err := g.genDestroy(g.builder.CreateExtractValue(v, i, ""), e); err != nil {
				return err
			}
		}
		return nil
	case types.Data:
		for i, e := range t.Ctor.Elems {
			if !requiresDestructor(e) {
				continue
			}
			if err := g.genDestroy(g.builder.CreateExtractValue(v, i, ""), e); err != nil {
				return err
			}
		}
		return nil
	case types.Array:
		elemT := t.Elem
		if requiresDestructor(elemT) {
			ptr := g.builder.CreateExtractValue(v, 0, "")
			length := g.builder.CreateExtractValue(v, 1, "")
			if err := g.genArrayDestroyLoop(ptr, length, elemT); err != nil {
				return err
			}
		}
		g.genFree(g.builder.CreateExtractValue(v, 0, ""))
		return nil
	default:
		return nil
	}
}

// genArrayDestroyLoop runs call_destructors over every element of an array backing store before it is
// freed.
func (g *Generator) genArrayDestroyLoop(ptr, count llvm.Value, elemT *types.Type) error {
	elemLT := g.genType(elemT)
	fn := g.builder.GetInsertBlock().Parent()
	preheader := g.builder.GetInsertBlock()
	condBB := llvm.AddBasicBlock(fn, "arr.dtor.cond")
	bodyBB := llvm.AddBasicBlock(fn, "arr.dtor.body")
	afterBB := llvm.AddBasicBlock(fn, "arr.dtor.after")
	g.builder.CreateBr(condBB)

	g.builder.SetInsertPointAtEnd(condBB)
	idx := g.builder.CreatePHI(g.ctx.Int64Type(), "arr.di")
	idx.AddIncoming([]llvm.Value{llvm.ConstInt(g.ctx.Int64Type(), 0, false)}, []llvm.BasicBlock{preheader})
	cont := g.builder.CreateICmp(llvm.IntULT, llvm.Value(idx), count, "")
	g.builder.CreateCondBr(cont, bodyBB, afterBB)

	g.builder.SetInsertPointAtEnd(bodyBB)
	slot := g.builder.CreateInBoundsGEP(elemLT, ptr, []llvm.Value{llvm.Value(idx)}, "")
	elem := g.builder.CreateLoad(elemLT, slot, "")
	if err := g.genDestroy(elem, elemT); err != nil {
		return err
	}
	next := g.builder.CreateAdd(llvm.Value(idx), llvm.ConstInt(g.ctx.Int64Type(), 1, false), "")
	bodyEnd := g.builder.GetInsertBlock()
	idx.AddIncoming([]llvm.Value{next}, []llvm.BasicBlock{bodyEnd})
	g.builder.CreateBr(condBB)

	g.builder.SetInsertPointAtEnd(afterBB)
	return nil
}
