package codegen

import "tinygo.org/x/go-llvm"

// This file declares the external allocator functions array lifecycle lowering calls through:
// malloc/realloc/free. They are ordinary libc symbols already present in the process's address space
// (the Go runtime links against them transitively via cgo), so unlike the ZZ bridge trampolines in
// bridge.go these need no AddGlobalMapping: the execution engine's default symbol resolution finds
// them by name once declared in the module.

// declareMalloc declares (once) `i8* malloc(i64)` in the module.
func (g *Generator) declareMalloc() llvm.Value {
	if !g.mallocFn.IsNil() {
		return g.mallocFn
	}
	i8p := llvm.PointerType(g.ctx.Int8Type(), 0)
	ft := llvm.FunctionType(i8p, []llvm.Type{g.ctx.Int64Type()}, false)
	g.mallocFn = llvm.AddFunction(g.mod, "malloc", ft)
	return g.mallocFn
}

// declareRealloc declares (once) `i8* realloc(i8*, i64)` in the module.
func (g *Generator) declareRealloc() llvm.Value {
	if !g.reallocFn.IsNil() {
		return g.reallocFn
	}
	i8p := llvm.PointerType(g.ctx.Int8Type(), 0)
	ft := llvm.FunctionType(i8p, []llvm.Type{i8p, g.ctx.Int64Type()}, false)
	g.reallocFn = llvm.AddFunction(g.mod, "realloc", ft)
	return g.reallocFn
}

// declareFree declares (once) `void free(i8*)` in the module.
func (g *Generator) declareFree() llvm.Value {
	if !g.freeFn.IsNil() {
		return g.freeFn
	}
	i8p := llvm.PointerType(g.ctx.Int8Type(), 0)
	ft := llvm.FunctionType(g.ctx.VoidType(), []llvm.Type{i8p}, false)
	g.freeFn = llvm.AddFunction(g.mod, "free", ft)
	return g.freeFn
}

// genMalloc emits a call to malloc(size) and bitcasts the result to elemLT*.
func (g *Generator) genMalloc(size llvm.Value, elemLT llvm.Type) llvm.Value {
	fn := g.declareMalloc()
	raw := g.builder.CreateCall(fn.GlobalValueType(), fn, []llvm.Value{size}, "")
	return g.builder.CreateBitCast(raw, llvm.PointerType(elemLT, 0), "")
}

// genRealloc emits a call to realloc(ptr, size) and bitcasts the result to elemLT*.
func (g *Generator) genRealloc(ptr llvm.Value, size llvm.Value, elemLT llvm.Type) llvm.Value {
	fn := g.declareRealloc()
	i8p := llvm.PointerType(g.ctx.Int8Type(), 0)
	raw := g.builder.CreateBitCast(ptr, i8p, "")
	res := g.builder.CreateCall(fn.GlobalValueType(), fn, []llvm.Value{raw, size}, "")
	return g.builder.CreateBitCast(res, llvm.PointerType(elemLT, 0), "")
}

// genFree emits a call to free(ptr).
func (g *Generator) genFree(ptr llvm.Value) {
	fn := g.declareFree()
	i8p := llvm.PointerType(g.ctx.Int8Type(), 0)
	raw := g.builder.CreateBitCast(ptr, i8p, "")
	g.builder.CreateCall(fn.GlobalValueType(), fn, []llvm.Value{raw}, "")
}

// declareMemcpy declares (once) `i8* memcpy(i8*, i8*, i64)` in the module.
func (g *Generator) declareMemcpy() llvm.Value {
	if !g.memcpyFn.IsNil() {
		return g.memcpyFn
	}
	i8p := llvm.PointerType(g.ctx.Int8Type(), 0)
	ft := llvm.FunctionType(i8p, []llvm.Type{i8p, i8p, g.ctx.Int64Type()}, false)
	g.memcpyFn = llvm.AddFunction(g.mod, "memcpy", ft)
	return g.memcpyFn
}

// genMemcpy emits a call to memcpy(dst, src, n), bulk-copying elements whose type needs no per-element
// assignment hook.
func (g *Generator) genMemcpy(dst, src, n llvm.Value) {
	fn := g.declareMemcpy()
	g.builder.CreateCall(fn.GlobalValueType(), fn, []llvm.Value{dst, src, n}, "")
}
