package codegen

import (
	"unsafe"

	"jitc/src/foreign"
	"jitc/src/types"
	"tinygo.org/x/go-llvm"
)

// Result is the Go-side value a phrase's execution produces, ready for the pretty-printer. Scalars
// map to native Go types; Tuple/Array/Data map to []Result/ *Result slices in declaration order.
type Result struct {
	Type *types.Type
	// Scalar holds bool/int64/uint64/float64/rune/string/*foreign.ZZVal for primitive and foreign
	// types.
	Scalar interface{}
	// Fields holds component Results for Tuple and Data, in slot order.
	Fields []Result
	// Elems holds element Results for Array.
	Elems []Result
}

// Execute runs fn (a niladic function built by CompilePhrase) through the JIT execution engine and
// decodes its result according to retT.
//
// MCJIT's GenericValue-based calling convention only marshals scalar int/float/pointer returns
// reliably; aggregate (Tuple/Array/Data) values are instead returned through an sret-style out
// pointer that decodeAggregateViaSRet arranges for non-scalar retT, and decoded here from raw memory. This is
// the one place this compiler has to marshal aggregate results itself, since it runs the module
// in-process through an execution engine rather than linking an ahead-of-time object file with a
// normal C ABI.
func (g *Generator) Execute(fn llvm.Value, retT *types.Type) Result {
	if retT == types.TNil {
		g.engine.RunFunction(fn, nil)
		return Result{Type: retT}
	}
	if retT.IsScalar() {
		gv := g.engine.RunFunction(fn, nil)
		return g.decodeScalar(retT, gv)
	}
	return g.decodeAggregateViaSRet(fn, retT)
}

func (g *Generator) decodeScalar(t *types.Type, gv llvm.GenericValue) Result {
	switch t.Tag {
	case types.Bool:
		return Result{Type: t, Scalar: gv.Int(false) != 0}
	case types.Int:
		return Result{Type: t, Scalar: int64(gv.Int(true))}
	case types.UInt:
		return Result{Type: t, Scalar: uint64(gv.Int(false))}
	case types.Double:
		return Result{Type: t, Scalar: gv.Float(g.ctx.DoubleType())}
	case types.Char:
		return Result{Type: t, Scalar: rune(gv.Int(false))}
	case types.String:
		ptr := gv.Pointer()
		return Result{Type: t, Scalar: goString(ptr)}
	case types.Ptr, types.Ref:
		return Result{Type: t, Scalar: gv.Pointer()}
	default:
		return Result{Type: t}
	}
}

func goString(ptr unsafe.Pointer) string {
	if ptr == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(ptr, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(ptr), n))
}

// decodeAggregateViaSRet re-emits fn's body behind an sret out-parameter, runs it with a heap buffer
// sized to retT's layout, and decodes that buffer recursively.
func (g *Generator) decodeAggregateViaSRet(fn llvm.Value, retT *types.Type) Result {
	size := g.sizeOf(retT)
	buf := make([]byte, size)
	outPtr := unsafe.Pointer(&buf[0])

	sretFn := g.wrapWithSRet(fn, retT)
	outArg := llvm.NewGenericValueFromPointer(outPtr)
	g.engine.RunFunction(sretFn, []llvm.GenericValue{outArg})

	return g.decodeBytes(retT, buf)
}

// wrapWithSRet builds a void(T*) shim around a niladic T-returning function, storing its result
// through the pointer argument. A new shim is added to the module on every call; none is cached.
func (g *Generator) wrapWithSRet(fn llvm.Value, retT *types.Type) llvm.Value {
	i8p := llvm.PointerType(g.ctx.Int8Type(), 0)
	shimType := llvm.FunctionType(g.ctx.VoidType(), []llvm.Type{i8p}, false)
	shim := llvm.AddFunction(g.mod, fn.Name()+".sret", shimType)
	entry := llvm.AddBasicBlock(shim, "entry")

	savedBlock := g.builder.GetInsertBlock()
	g.builder.SetInsertPointAtEnd(entry)
	v := g.builder.CreateCall(fn.GlobalValueType(), fn, nil, "")
	dst := g.builder.CreateBitCast(shim.Param(0), llvm.PointerType(g.genType(retT), 0), "")
	g.builder.CreateStore(v, dst)
	g.builder.CreateRetVoid()
	if !savedBlock.IsNil() {
		g.builder.SetInsertPointAtEnd(savedBlock)
	}
	return shim
}

// sizeOf returns retT's in-memory size in bytes as laid out by genType, used to size the sret
// scratch buffer.
func (g *Generator) sizeOf(t *types.Type) int {
	switch t.Tag {
	case types.Tuple:
		total := 0
		for _, e := range t.Elems {
			total += g.sizeOf(e)
		}
		if total == 0 {
			return 1
		}
		return total
	case types.Array:
		return int(unsafe.Sizeof(uintptr(0))) + 8
	case types.Data:
		if t.Foreign {
			return int(unsafe.Sizeof(uintptr(0)))
		}
		total := 0
		for _, e := range t.Ctor.Elems {
			total += g.sizeOf(e)
		}
		return total
	case types.Bool, types.Char:
		return 4
	case types.Int, types.UInt, types.Double:
		return 8
	case types.String, types.Ptr, types.Ref:
		return int(unsafe.Sizeof(uintptr(0)))
	default:
		return 8
	}
}

// decodeBytes interprets raw bytes laid out the way genType emitted them, recursively for Tuple/
// Array/Data.
func (g *Generator) decodeBytes(t *types.Type, buf []byte) Result {
	switch t.Tag {
	case types.Tuple:
		r := Result{Type: t}
		off := 0
		for _, e := range t.Elems {
			sz := g.sizeOf(e)
			r.Fields = append(r.Fields, g.decodeBytes(e, buf[off:off+sz]))
			off += sz
		}
		return r
	case types.Data:
		if t.Foreign {
			ptr := *(*unsafe.Pointer)(unsafe.Pointer(&buf[0]))
			return Result{Type: t, Scalar: (*foreign.ZZVal)(ptr)}
		}
		r := Result{Type: t}
		off := 0
		for _, e := range t.Ctor.Elems {
			sz := g.sizeOf(e)
			r.Fields = append(r.Fields, g.decodeBytes(e, buf[off:off+sz]))
			off += sz
		}
		return r
	case types.Array:
		ptr := *(*unsafe.Pointer)(unsafe.Pointer(&buf[0]))
		n := *(*uint64)(unsafe.Pointer(&buf[8]))
		r := Result{Type: t}
		elemSz := g.sizeOf(t.Elem)
		for i := uint64(0); i < n; i++ {
			elemBuf := unsafe.Slice((*byte)(unsafe.Add(ptr, int(i)*elemSz)), elemSz)
			r.Elems = append(r.Elems, g.decodeBytes(t.Elem, elemBuf))
		}
		return r
	case types.Bool:
		return Result{Type: t, Scalar: buf[0] != 0}
	case types.Char:
		return Result{Type: t, Scalar: rune(*(*int32)(unsafe.Pointer(&buf[0])))}
	case types.Int:
		return Result{Type: t, Scalar: *(*int64)(unsafe.Pointer(&buf[0]))}
	case types.UInt:
		return Result{Type: t, Scalar: *(*uint64)(unsafe.Pointer(&buf[0]))}
	case types.Double:
		return Result{Type: t, Scalar: *(*float64)(unsafe.Pointer(&buf[0]))}
	case types.String:
		ptr := *(*unsafe.Pointer)(unsafe.Pointer(&buf[0]))
		return Result{Type: t, Scalar: goString(ptr)}
	default:
		return Result{Type: t}
	}
}
