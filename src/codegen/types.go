package codegen

import (
	"fmt"

	"jitc/src/types"
	"tinygo.org/x/go-llvm"
)

// genType lowers a compiler Type to its LLVM representation. Nil lowers to an empty struct ({}),
// Tuple/Data to named or literal structs, Array to a pointer-plus-length pair (fat pointer), ZZ
// (and any other foreign Data type) to an opaque pointer since its storage is managed by the
// foreign registry's Go-side representation, not by IR-emitted field layout.
func (g *Generator) genType(t *types.Type) llvm.Type {
	if v, ok := g.typeCache[t]; ok {
		return v
	}
	var lt llvm.Type
	switch t.Tag {
	case types.Nil:
		lt = g.ctx.StructType(nil, false)
	case types.Bool:
		lt = g.ctx.Int1Type()
	case types.Int, types.UInt:
		lt = g.ctx.Int64Type()
	case types.Double:
		lt = g.ctx.DoubleType()
	case types.Char:
		lt = g.ctx.Int32Type()
	case types.String:
		lt = llvm.PointerType(g.ctx.Int8Type(), 0)
	case types.ZZ:
		lt = llvm.PointerType(g.ctx.Int8Type(), 0)
	case types.Tuple:
		fields := make([]llvm.Type, len(t.Elems))
		for i, e := range t.Elems {
			fields[i] = g.genType(e)
		}
		lt = g.ctx.StructType(fields, false)
	case types.Array:
		lt = g.ctx.StructType([]llvm.Type{
			llvm.PointerType(g.genType(t.Elem), 0),
			g.ctx.Int64Type(),
		}, false)
	case types.Data:
		if t.Foreign {
			lt = llvm.PointerType(g.ctx.Int8Type(), 0)
		} else {
			name := "data." + t.Name.String()
			st := g.ctx.StructCreateNamed(name)
			g.typeCache[t] = st // break recursion for self-referential data types
			fields := make([]llvm.Type, len(t.Ctor.Elems))
			for i, e := range t.Ctor.Elems {
				fields[i] = g.genType(e)
			}
			st.StructSetBody(fields, false)
			lt = st
		}
	case types.Ptr, types.Ref:
		lt = llvm.PointerType(g.genType(t.Elem), 0)
	case types.Fn:
		params := make([]llvm.Type, len(t.ParamsOf()))
		for i, p := range t.ParamsOf() {
			params[i] = g.genType(p)
		}
		lt = llvm.PointerType(llvm.FunctionType(g.genType(t.RetOf()), params, false), 0)
	default:
		panic(fmt.Sprintf("codegen: no IR representation for type tag %d", t.Tag))
	}
	g.typeCache[t] = lt
	return lt
}
