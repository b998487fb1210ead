// Package codegen lowers an inferred ast.Node tree to LLVM IR via tinygo.org/x/go-llvm and executes
// it in-process through an MCJIT ExecutionEngine.
//
// For the aggregate-value lifecycle this follows original_source/backend.c's requires_destructor/
// call_destructors/requires_assign/call_assign/requires_constructor/call_constructors/
// requires_copy_construct/copy_construct/call_swap. Unlike an ahead-of-time compiler emitting object
// code for a target triple, this generator runs the module in-process through an
// llvm.ExecutionEngine, because it drives a REPL that must execute each phrase immediately rather
// than link a standalone binary.
package codegen

import (
	"fmt"

	"jitc/src/ast"
	"jitc/src/envm"
	"jitc/src/foreign"
	"jitc/src/symbol"
	"jitc/src/types"
	"jitc/src/util"
	"tinygo.org/x/go-llvm"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Generator holds the LLVM state shared across every phrase compiled in one REPL session: one
// context, one module (new functions are appended to it phrase after phrase) and one execution
// engine JIT-compiling that module incrementally.
type Generator struct {
	ctx     llvm.Context
	mod     llvm.Module
	builder llvm.Builder
	engine  llvm.ExecutionEngine

	foreign *foreign.Registry

	typeCache map[*types.Type]llvm.Type
	fnCache   map[*types.Type]llvm.Value
	emitted   map[*types.Type]bool

	locals  *localMap
	globals map[symbol.Symbol]llvm.Value // module-level storage for top-level REPL bindings, durable across phrases
	breaks  *util.Stack                  // innermost loop's exit block on top, for Break lowering

	// lazily declared JIT bridge trampolines, see bridge.go
	zzBinopFn, zzCmpFn                          llvm.Value
	zzNewFn, zzCopyFn, zzAssignFn, zzFinalizeFn llvm.Value

	// lazily declared external allocator functions, see allocator.go
	mallocFn, reallocFn, freeFn, memcpyFn llvm.Value
}

// New creates a Generator: a fresh LLVM context and module, and an MCJIT execution engine attached
// to that module. f is the foreign registry built by foreign.Init, consulted when lowering calls
// to operators/functions with no user-defined body.
func New(f *foreign.Registry) (*Generator, error) {
	llvm.InitializeNativeTarget()
	llvm.InitializeNativeAsmPrinter()

	ctx := llvm.NewContext()
	mod := ctx.NewModule("jitc")
	builder := ctx.NewBuilder()

	opts := llvm.NewMCJITCompilerOptions()
	opts.SetMCJITOptimizationLevel(1)
	engine, err := llvm.NewMCJITCompiler(mod, opts)
	if err != nil {
		return nil, fmt.Errorf("codegen: failed to create execution engine: %w", err)
	}

	bindForeignBridge(f)

	return &Generator{
		ctx:       ctx,
		mod:       mod,
		builder:   builder,
		engine:    engine,
		foreign:   f,
		typeCache: make(map[*types.Type]llvm.Type),
		fnCache:   make(map[*types.Type]llvm.Value),
		emitted:   make(map[*types.Type]bool),
		locals:    newLocalMap(),
		globals:   make(map[symbol.Symbol]llvm.Value),
		breaks:    &util.Stack{},
	}, nil
}

// Dispose releases the underlying LLVM context and execution engine.
func (g *Generator) Dispose() {
	g.engine.Dispose()
	g.builder.Dispose()
	g.ctx.Dispose()
}

// Reset clears the per-phrase local-name map and break-target stack (used when a phrase is abandoned
// after an inference or codegen error), matching the single-threaded "reset and retry next phrase"
// concurrency model. It removes no function from the module: CompilePhrase erases its own phrase
// function on error, and a function left partially emitted by lowerFn stays in the module. The module
// and execution engine persist across phrases so previously defined functions and globals remain
// callable.
func (g *Generator) Reset() {
	g.locals = newLocalMap()
	g.breaks = &util.Stack{}
}

// globalStorage returns the module-level global variable backing sym, creating it zero-initialised
// on first use. Mirrors original_source/backend.c's implicit zero-value slot for a top-level
// declaration: the global is installed once and every later phrase that reads or assigns sym reaches
// the same storage.
func (g *Generator) globalStorage(sym symbol.Symbol, typ *types.Type) llvm.Value {
	if v, ok := g.globals[sym]; ok {
		return v
	}
	t := g.genType(typ)
	gv := llvm.AddGlobal(g.mod, t, "g."+sym.String())
	gv.SetInitializer(llvm.ConstNull(t))
	g.globals[sym] = gv
	return gv
}

// identPtr returns n's storage pointer, routing through globalStorage for identifiers the infer
// pass marked Global and through the current phrase's local-name map otherwise.
func (g *Generator) identPtr(n *ast.Node) (llvm.Value, error) {
	if n.Global {
		return g.globalStorage(n.Sym, n.Type), nil
	}
	ptr, ok := g.locals.get(n.Sym)
	if !ok {
		return llvm.Value{}, fmt.Errorf("codegen: no storage for identifier %s", n.Sym)
	}
	return ptr, nil
}

// ---------------------
// ----- top level -----
// ---------------------

// CompilePhrase wraps a single top-level expression/statement node in an anonymous niladic function,
// lowers it, and returns the callable llvm.Value along with the phrase's static Type so the driver
// can execute it and format the result.
func (g *Generator) CompilePhrase(n *ast.Node, global *envm.Scope) (llvm.Value, *types.Type, error) {
	name := symbol.Intern("__phrase").String() + "." + fmt.Sprint(len(g.fnCache))
	retType := n.Type
	fnType := llvm.FunctionType(g.genType(retType), nil, false)
	fn := llvm.AddFunction(g.mod, name, fnType)
	fn.SetLinkage(llvm.ExternalLinkage)

	entry := llvm.AddBasicBlock(fn, "entry")
	g.builder.SetInsertPointAtEnd(entry)

	v, err := g.genExpression(n)
	if err != nil {
		fn.EraseFromParentAsFunction()
		return llvm.Value{}, nil, err
	}
	if retType == types.TNil {
		g.builder.CreateRetVoid()
	} else {
		g.builder.CreateRet(v)
	}
	return fn, retType, nil
}

// LowerDecl lowers a top-level declaration (FnStmt/DataStmt/Assignment) with no value to return.
func (g *Generator) LowerDecl(n *ast.Node) error {
	switch n.Tag {
	case ast.FnStmt:
		_, err := g.lowerFn(n)
		return err
	case ast.DataStmt:
		// Declaring a data type emits no code of its own; its LLVM struct layout is created lazily
		// by genType the first time a value of that type is lowered.
		return nil
	case ast.Assignment:
		_, err := g.genExpression(n)
		return err
	default:
		_, err := g.genExpression(n)
		return err
	}
}
