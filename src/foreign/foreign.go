// Package foreign implements the registry of externally-implemented (as opposed to user-defined)
// operators and types: the primitive type names the parser's type phrases resolve against, and the
// ZZ arbitrary-precision integer wired in as a foreign Data type.
//
// Grounded on original_source/environment.c's intrinsics_init (primitive name table) and
// original_source/ffi.c's new_foreign_type/new_foreign_function/ZZ_init. This implementation
// corrects the two documented bugs in that source: intrinsics_init read a fourth entry out of a
// three-element table, and ZZ_init registered its ">=" overload under the "<=" symbol by mistake.
package foreign

import (
	"jitc/src/envm"
	"jitc/src/symbol"
	"jitc/src/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Value is an operand or result of a foreign function implementation: a Go-side runtime value such as
// a *ZZVal, a string or a bool, passed in by codegen's JIT bridge trampolines.
type Value interface{}

// Impl computes a foreign operation over already-lowered operand values and returns the result value.
type Impl func(args []Value) (Value, error)

// FnEntry bundles a foreign function's type signature with its Go implementation.
type FnEntry struct {
	Sym  symbol.Symbol
	Type *types.Type
	Impl Impl
}

// Registry holds every foreign binding available to a compilation, keyed by symbol so codegen can
// recognize a call site as foreign before attempting to lower a user-defined body.
type Registry struct {
	Fns   map[symbol.Symbol][]*FnEntry
	Types map[symbol.Symbol]*types.Type
}

// NewRegistry returns an empty foreign registry.
func NewRegistry() *Registry {
	return &Registry{
		Fns:   make(map[symbol.Symbol][]*FnEntry),
		Types: make(map[symbol.Symbol]*types.Type),
	}
}

// Register adds a foreign function implementation under its operator/function symbol and binds it
// into scope as a generic overload, exactly as bind_generic accumulates user-defined overloads.
func (r *Registry) Register(scope *envm.Scope, sym symbol.Symbol, typ *types.Type, impl Impl) {
	typ.Foreign = true
	r.Fns[sym] = append(r.Fns[sym], &FnEntry{Sym: sym, Type: typ, Impl: impl})
	scope.BindGeneric(sym, typ)
}

// Lookup returns the foreign implementation matching exactly typ for sym, if any.
func (r *Registry) Lookup(sym symbol.Symbol, typ *types.Type) (*FnEntry, bool) {
	for _, e := range r.Fns[sym] {
		if e.Type == typ {
			return e, true
		}
	}
	return nil, false
}

// primitiveNames is the table of intrinsic type-name bindings installed at global scope. The
// original source indexed a three-element array with an off-by-one that read past its end; this
// table is simply sized to its actual content; each Type is bound under its own symbol.
//
// ZZ is deliberately absent here: unlike the scalar primitives, "ZZ" must resolve to the Generic of
// constructor overloads registerZZ binds, not to a bare Type, so that both ZZ("123") call sites and
// ZZ-typed type phrases resolve through the same symbol. Binding it here too would race registerZZ's
// BindGeneric call depending on init order.
var primitiveNames = []struct {
	name string
	typ  *types.Type
}{
	{"nil", types.TNil},
	{"bool", types.TBool},
	{"int", types.TInt},
	{"uint", types.TUInt},
	{"double", types.TDouble},
	{"char", types.TChar},
	{"string", types.TString},
}

// InstallPrimitives binds every primitive type name into the global scope so that type phrases
// (AST TypeName nodes) resolve to the shared singleton Type values. Mirrors intrinsics_init, minus
// the out-of-bounds read.
func InstallPrimitives(global *envm.Scope) {
	for _, p := range primitiveNames {
		global.BindSymbol(symbol.Intern(p.name), p.typ, p.name)
	}
}

// Init installs the primitive type names, the built-in arithmetic and comparison overloads for int,
// uint and double (% for int and uint only) and the ZZ bignum wiring into global, and returns the
// registry codegen consults to lower foreign calls. The built-in overloads are not Foreign, so
// codegen lowers them to native instructions.
func Init(global *envm.Scope) *Registry {
	InstallPrimitives(global)
	for _, t := range []*types.Type{types.TInt, types.TUInt, types.TDouble} {
		for _, op := range []string{"+", "-", "*", "/", "%"} {
			if op == "%" && t == types.TDouble {
				continue
			}
			global.BindGeneric(symbol.Intern(op), types.NewFn(t, []*types.Type{t, t}))
		}
		for _, op := range []string{"==", "!=", "<", ">", "<=", ">="} {
			global.BindGeneric(symbol.Intern(op), types.NewFn(types.TBool, []*types.Type{t, t}))
		}
	}
	r := NewRegistry()
	registerZZ(r, global)
	return r
}
