package foreign

import (
	"fmt"
	"math/big"

	"jitc/src/envm"
	"jitc/src/symbol"
	"jitc/src/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// ZZVal is the runtime representation of a ZZ value: an arbitrary-precision signed integer backed
// by math/big, standing in for the original source's FLINT fmpz handle.
type ZZVal struct {
	V *big.Int
}

// NewZZ returns a ZZVal wrapping a fresh zero-valued big.Int, mirroring ZZ's default constructor.
func NewZZ() *ZZVal { return &ZZVal{V: new(big.Int)} }

// NewZZFromString parses a base-10 string into a ZZVal, mirroring ZZ's string constructor.
func NewZZFromString(s string) (*ZZVal, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid ZZ literal: %q", s)
	}
	return &ZZVal{V: v}, nil
}

// Copy returns a deep copy of z, mirroring ZZ's copy constructor.
func (z *ZZVal) Copy() *ZZVal { return &ZZVal{V: new(big.Int).Set(z.V)} }

// Finalize is a no-op: Go's garbage collector reclaims the underlying big.Int without an explicit
// destructor call, unlike the FLINT-backed original which had to free fmpz limbs by hand. The hook
// is kept so ZZ still satisfies the Data-type lifecycle contract codegen drives every Data value
// through (requires_destructor), it simply has nothing to do.
func (z *ZZVal) Finalize() {}

// String formats z the way the pretty-printer expects for a ZZ value.
func (z *ZZVal) String() string { return z.V.String() }

// ZZBinopSignature, ZZCmpSignature and the lifecycle-hook signatures below are the canonical Fn types
// each corresponding ZZ overload shares, exported so codegen's JIT bridge can look an implementation
// back up by the exact Type pointer inference resolved, without reconstructing (and thus failing to
// match by identity) a new Fn value.
var ZZBinopSignature *types.Type
var ZZCmpSignature *types.Type
var ZZCtorDefaultSignature *types.Type
var ZZCtorStringSignature *types.Type
var ZZCopySignature *types.Type
var ZZAssignSignature *types.Type
var ZZFinalizerSignature *types.Type

// ---------------------
// ----- wiring -----
// ---------------------

// registerZZ installs ZZ's default/string/copy constructors, its finalizer, its eleven arithmetic
// and comparison overloads and its assignment operator into global and r.
//
// Mirrors original_source/ffi.c's ZZ_init, with one correction: the ">=" overload here is bound
// under its own symbol. The original source registered the function meant to implement ">=" a
// second time under the "<=" symbol by copy-paste, leaving ">=" unbound and "<=" shadowed.
func registerZZ(r *Registry, global *envm.Scope) {
	zz := types.TZZ
	zz.Foreign = true
	zz.HasCtor = true
	zz.HasCopyCtor = true
	zz.HasDtor = true
	zz.HasAssign = true

	bin := types.NewFn(zz, []*types.Type{zz, zz})
	cmp := types.NewFn(types.TBool, []*types.Type{zz, zz})
	ZZBinopSignature = bin
	ZZCmpSignature = cmp
	ctorDefault := types.NewFn(zz, nil)
	ctorString := types.NewFn(zz, []*types.Type{types.TString})
	assignT := types.NewFn(zz, []*types.Type{zz, zz})

	ZZCtorDefaultSignature = ctorDefault
	ZZCtorStringSignature = ctorString
	copyT := types.NewFn(zz, []*types.Type{zz})
	ZZCopySignature = copyT
	ZZAssignSignature = assignT
	finalizerT := types.NewFn(types.TNil, []*types.Type{zz})
	ZZFinalizerSignature = finalizerT

	// Constructors and the copy-constructor are registered directly under the type name "ZZ", the
	// same symbol a call expression ZZ(...) resolves against, so call-site overload resolution and
	// type-phrase resolution (a parameter typed ZZ) both land on this one Generic binding.
	r.Register(global, symbol.Intern("ZZ"), ctorDefault, func(args []Value) (Value, error) {
		return NewZZ(), nil
	})
	r.Register(global, symbol.Intern("ZZ"), ctorString, func(args []Value) (Value, error) {
		s, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("ZZ: expected string argument")
		}
		return NewZZFromString(s)
	})
	r.Register(global, symbol.Intern("ZZ"), copyT, func(args []Value) (Value, error) {
		return args[0].(*ZZVal).Copy(), nil
	})
	r.Register(global, symbol.Intern("="), assignT, func(args []Value) (Value, error) {
		dst, src := args[0].(*ZZVal), args[1].(*ZZVal)
		dst.V.Set(src.V)
		return dst, nil
	})
	r.Register(global, symbol.Intern("finalizer"), finalizerT, func(args []Value) (Value, error) {
		args[0].(*ZZVal).Finalize()
		return nil, nil
	})

	arith := map[string]func(z, a, b *big.Int){
		"+": func(z, a, b *big.Int) { z.Add(a, b) },
		"-": func(z, a, b *big.Int) { z.Sub(a, b) },
		"*": func(z, a, b *big.Int) { z.Mul(a, b) },
		"/": func(z, a, b *big.Int) { z.Quo(a, b) },
		"%": func(z, a, b *big.Int) { z.Rem(a, b) },
	}
	for op, fn := range arith {
		op, fn := op, fn
		r.Register(global, symbol.Intern(op), bin, func(args []Value) (Value, error) {
			a, b := args[0].(*ZZVal), args[1].(*ZZVal)
			out := new(big.Int)
			fn(out, a.V, b.V)
			return &ZZVal{V: out}, nil
		})
	}

	cmpOps := map[string]func(c int) bool{
		"==": func(c int) bool { return c == 0 },
		"!=": func(c int) bool { return c != 0 },
		"<":  func(c int) bool { return c < 0 },
		">":  func(c int) bool { return c > 0 },
		"<=": func(c int) bool { return c <= 0 },
		">=": func(c int) bool { return c >= 0 },
	}
	for op, pred := range cmpOps {
		op, pred := op, pred
		r.Register(global, symbol.Intern(op), cmp, func(args []Value) (Value, error) {
			a, b := args[0].(*ZZVal), args[1].(*ZZVal)
			return pred(a.V.Cmp(b.V)), nil
		})
	}
}
