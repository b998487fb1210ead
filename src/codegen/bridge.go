package codegen

// This file bridges JIT-executed IR back into Go for foreign operations whose representation (a ZZ
// value) is owned by the Go heap rather than emitted field layout. tinygo.org/x/go-llvm's execution
// engine already crosses this boundary via cgo to drive the LLVM C API; the same mechanism lets JIT'd
// code call back into a Go trampoline through llvm.ExecutionEngine.AddGlobalMapping, the standard way
// an MCJIT-hosted program calls a host function (compare tinygo's own runtime/intrinsics shims).

/*
#include <stdint.h>
extern void *jitc_zz_binop_trampoline(long long, void *, void *);
extern long long jitc_zz_cmp_trampoline(long long, void *, void *);
extern void *jitc_zz_new_trampoline(char *);
extern void *jitc_zz_copy_trampoline(void *);
extern void *jitc_zz_assign_trampoline(void *, void *);
extern void jitc_zz_finalize_trampoline(void *);
static void *jitc_zz_binop_addr(void)    { return (void *)jitc_zz_binop_trampoline; }
static void *jitc_zz_cmp_addr(void)      { return (void *)jitc_zz_cmp_trampoline; }
static void *jitc_zz_new_addr(void)      { return (void *)jitc_zz_new_trampoline; }
static void *jitc_zz_copy_addr(void)     { return (void *)jitc_zz_copy_trampoline; }
static void *jitc_zz_assign_addr(void)   { return (void *)jitc_zz_assign_trampoline; }
static void *jitc_zz_finalize_addr(void) { return (void *)jitc_zz_finalize_trampoline; }
*/
import "C"

import (
	"unsafe"

	"jitc/src/foreign"
	"jitc/src/symbol"
	"tinygo.org/x/go-llvm"
)

func internOp(sym string) symbol.Symbol { return symbol.Intern(sym) }

// zzOp enumerates the arithmetic opcodes the trampoline dispatches on. Kept distinct from the
// operator symbol table so the JIT-side immediate operand is a plain integer, not a pointer into
// the symbol interner.
type zzOp int64

const (
	zzAdd zzOp = iota
	zzSub
	zzMul
	zzDiv
	zzRem
)

type zzCmp int64

const (
	zzEQ zzCmp = iota
	zzNE
	zzLT
	zzGT
	zzLE
	zzGE
)

// bridgeRegistry is set once by bindForeignBridge so the exported trampolines below, which cgo requires to
// be free functions, can still reach the active foreign.Registry implementations.
var bridgeRegistry *foreign.Registry

func bindForeignBridge(r *foreign.Registry) { bridgeRegistry = r }

//export jitc_zz_binop_trampoline
func jitc_zz_binop_trampoline(op C.longlong, a, b unsafe.Pointer) unsafe.Pointer {
	av := (*foreign.ZZVal)(a)
	bv := (*foreign.ZZVal)(b)
	var sym string
	switch zzOp(op) {
	case zzAdd:
		sym = "+"
	case zzSub:
		sym = "-"
	case zzMul:
		sym = "*"
	case zzDiv:
		sym = "/"
	case zzRem:
		sym = "%"
	}
	out := dispatchZZBinop(sym, av, bv)
	return unsafe.Pointer(out)
}

//export jitc_zz_cmp_trampoline
func jitc_zz_cmp_trampoline(op C.longlong, a, b unsafe.Pointer) C.longlong {
	av := (*foreign.ZZVal)(a)
	bv := (*foreign.ZZVal)(b)
	var sym string
	switch zzCmp(op) {
	case zzEQ:
		sym = "=="
	case zzNE:
		sym = "!="
	case zzLT:
		sym = "<"
	case zzGT:
		sym = ">"
	case zzLE:
		sym = "<="
	case zzGE:
		sym = ">="
	}
	if dispatchZZCmp(sym, av, bv) {
		return 1
	}
	return 0
}

func dispatchZZBinop(sym string, a, b *foreign.ZZVal) *foreign.ZZVal {
	entry, ok := bridgeRegistry.Lookup(internOp(sym), foreign.ZZBinopSignature)
	if !ok {
		return foreign.NewZZ()
	}
	res, err := entry.Impl([]foreign.Value{a, b})
	if err != nil {
		return foreign.NewZZ()
	}
	return res.(*foreign.ZZVal)
}

func dispatchZZCmp(sym string, a, b *foreign.ZZVal) bool {
	entry, ok := bridgeRegistry.Lookup(internOp(sym), foreign.ZZCmpSignature)
	if !ok {
		return false
	}
	res, err := entry.Impl([]foreign.Value{a, b})
	if err != nil {
		return false
	}
	return res.(bool)
}

//export jitc_zz_new_trampoline
func jitc_zz_new_trampoline(s *C.char) unsafe.Pointer {
	if s == nil {
		entry, ok := bridgeRegistry.Lookup(internOp("ZZ"), foreign.ZZCtorDefaultSignature)
		if !ok {
			return unsafe.Pointer(foreign.NewZZ())
		}
		res, err := entry.Impl(nil)
		if err != nil {
			return unsafe.Pointer(foreign.NewZZ())
		}
		return unsafe.Pointer(res.(*foreign.ZZVal))
	}
	entry, ok := bridgeRegistry.Lookup(internOp("ZZ"), foreign.ZZCtorStringSignature)
	if !ok {
		return unsafe.Pointer(foreign.NewZZ())
	}
	res, err := entry.Impl([]foreign.Value{C.GoString(s)})
	if err != nil {
		return unsafe.Pointer(foreign.NewZZ())
	}
	return unsafe.Pointer(res.(*foreign.ZZVal))
}

//export jitc_zz_copy_trampoline
func jitc_zz_copy_trampoline(z unsafe.Pointer) unsafe.Pointer {
	entry, ok := bridgeRegistry.Lookup(internOp("ZZ"), foreign.ZZCopySignature)
	if !ok {
		return z
	}
	res, err := entry.Impl([]foreign.Value{(*foreign.ZZVal)(z)})
	if err != nil {
		return z
	}
	return unsafe.Pointer(res.(*foreign.ZZVal))
}

//export jitc_zz_assign_trampoline
func jitc_zz_assign_trampoline(dst, src unsafe.Pointer) unsafe.Pointer {
	entry, ok := bridgeRegistry.Lookup(internOp("="), foreign.ZZAssignSignature)
	if !ok {
		return dst
	}
	res, err := entry.Impl([]foreign.Value{(*foreign.ZZVal)(dst), (*foreign.ZZVal)(src)})
	if err != nil {
		return dst
	}
	return unsafe.Pointer(res.(*foreign.ZZVal))
}

//export jitc_zz_finalize_trampoline
func jitc_zz_finalize_trampoline(z unsafe.Pointer) {
	entry, ok := bridgeRegistry.Lookup(internOp("finalizer"), foreign.ZZFinalizerSignature)
	if !ok {
		return
	}
	entry.Impl([]foreign.Value{(*foreign.ZZVal)(z)})
}

// zzBinopTrampolineAddr and zzCmpTrampolineAddr return the native address of the exported cgo
// trampolines above, for registration with the execution engine via AddGlobalMapping.
func zzBinopTrampolineAddr() unsafe.Pointer    { return unsafe.Pointer(C.jitc_zz_binop_addr()) }
func zzCmpTrampolineAddr() unsafe.Pointer      { return unsafe.Pointer(C.jitc_zz_cmp_addr()) }
func zzNewTrampolineAddr() unsafe.Pointer      { return unsafe.Pointer(C.jitc_zz_new_addr()) }
func zzCopyTrampolineAddr() unsafe.Pointer     { return unsafe.Pointer(C.jitc_zz_copy_addr()) }
func zzAssignTrampolineAddr() unsafe.Pointer   { return unsafe.Pointer(C.jitc_zz_assign_addr()) }
func zzFinalizeTrampolineAddr() unsafe.Pointer { return unsafe.Pointer(C.jitc_zz_finalize_addr()) }

// declareZZBinopTrampoline declares (once) the i8*(i64, i8*, i8*) signature of the ZZ arithmetic
// bridge in the module and maps it to the cgo trampoline's address so the execution engine can call
// into Go when JIT'd code calls this declared function.
func (g *Generator) declareZZBinopTrampoline() llvm.Value {
	if !g.zzBinopFn.IsNil() {
		return g.zzBinopFn
	}
	i8p := llvm.PointerType(g.ctx.Int8Type(), 0)
	ft := llvm.FunctionType(i8p, []llvm.Type{g.ctx.Int64Type(), i8p, i8p}, false)
	fn := llvm.AddFunction(g.mod, "jitc_zz_binop_trampoline", ft)
	g.engine.AddGlobalMapping(fn, zzBinopTrampolineAddr())
	g.zzBinopFn = fn
	return fn
}

// declareZZCmpTrampoline is declareZZBinopTrampoline's comparison counterpart, returning i64 (1 or
// 0), which genForeignCall truncates to i1.
func (g *Generator) declareZZCmpTrampoline() llvm.Value {
	if !g.zzCmpFn.IsNil() {
		return g.zzCmpFn
	}
	i8p := llvm.PointerType(g.ctx.Int8Type(), 0)
	ft := llvm.FunctionType(g.ctx.Int64Type(), []llvm.Type{g.ctx.Int64Type(), i8p, i8p}, false)
	fn := llvm.AddFunction(g.mod, "jitc_zz_cmp_trampoline", ft)
	g.engine.AddGlobalMapping(fn, zzCmpTrampolineAddr())
	g.zzCmpFn = fn
	return fn
}

// declareZZNewTrampoline declares the i8*(i8*) constructor bridge: a null C-string argument selects
// the default constructor, a non-null one the string constructor.
func (g *Generator) declareZZNewTrampoline() llvm.Value {
	if !g.zzNewFn.IsNil() {
		return g.zzNewFn
	}
	i8p := llvm.PointerType(g.ctx.Int8Type(), 0)
	ft := llvm.FunctionType(i8p, []llvm.Type{i8p}, false)
	fn := llvm.AddFunction(g.mod, "jitc_zz_new_trampoline", ft)
	g.engine.AddGlobalMapping(fn, zzNewTrampolineAddr())
	g.zzNewFn = fn
	return fn
}

// declareZZCopyTrampoline declares the i8*(i8*) copy-construct bridge.
func (g *Generator) declareZZCopyTrampoline() llvm.Value {
	if !g.zzCopyFn.IsNil() {
		return g.zzCopyFn
	}
	i8p := llvm.PointerType(g.ctx.Int8Type(), 0)
	ft := llvm.FunctionType(i8p, []llvm.Type{i8p}, false)
	fn := llvm.AddFunction(g.mod, "jitc_zz_copy_trampoline", ft)
	g.engine.AddGlobalMapping(fn, zzCopyTrampolineAddr())
	g.zzCopyFn = fn
	return fn
}

// declareZZAssignTrampoline declares the i8*(i8*, i8*) in-place assignment bridge, returning the
// mutated destination pointer.
func (g *Generator) declareZZAssignTrampoline() llvm.Value {
	if !g.zzAssignFn.IsNil() {
		return g.zzAssignFn
	}
	i8p := llvm.PointerType(g.ctx.Int8Type(), 0)
	ft := llvm.FunctionType(i8p, []llvm.Type{i8p, i8p}, false)
	fn := llvm.AddFunction(g.mod, "jitc_zz_assign_trampoline", ft)
	g.engine.AddGlobalMapping(fn, zzAssignTrampolineAddr())
	g.zzAssignFn = fn
	return fn
}

// declareZZFinalizeTrampoline declares the void(i8*) destructor bridge.
func (g *Generator) declareZZFinalizeTrampoline() llvm.Value {
	if !g.zzFinalizeFn.IsNil() {
		return g.zzFinalizeFn
	}
	i8p := llvm.PointerType(g.ctx.Int8Type(), 0)
	ft := llvm.FunctionType(g.ctx.VoidType(), []llvm.Type{i8p}, false)
	fn := llvm.AddFunction(g.mod, "jitc_zz_finalize_trampoline", ft)
	g.engine.AddGlobalMapping(fn, zzFinalizeTrampolineAddr())
	g.zzFinalizeFn = fn
	return fn
}
