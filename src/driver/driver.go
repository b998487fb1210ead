// Package driver implements the REPL: it reads one phrase at a time, infers, compiles, executes it
// through the code generator's execution engine, and formats the resulting value.
//
// Grounded on original_source/backend.c's exec_root (wrapping a phrase's value, running it, printing
// it), orchestrating parse -> infer -> codegen -> execute for each phrase in turn.
package driver

import (
	"fmt"

	"jitc/src/ast"
	"jitc/src/codegen"
	"jitc/src/envm"
	"jitc/src/foreign"
	"jitc/src/frontend"
	"jitc/src/infer"
	"jitc/src/types"
	"tinygo.org/x/go-llvm"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Driver holds the process-wide state that survives across phrases: the global scope, the foreign
// registry and the code generator (and, through it, the one LLVM module/execution engine the whole
// REPL session shares). This compiler state is single-threaded and non-reentrant: concurrent
// phrases are not supported, each must finish before the next starts.
type Driver struct {
	Global  *envm.Scope
	Foreign *foreign.Registry
	Gen     *codegen.Generator
	Verbose bool
}

// New creates a Driver with a freshly initialised global scope, foreign registry and code generator.
func New(verbose bool) (*Driver, error) {
	global := envm.NewGlobal()
	reg := foreign.Init(global)
	gen, err := codegen.New(reg)
	if err != nil {
		return nil, err
	}
	return &Driver{Global: global, Foreign: reg, Gen: gen, Verbose: verbose}, nil
}

// Close releases the driver's LLVM resources.
func (d *Driver) Close() { d.Gen.Dispose() }

// EvalPhrase parses, infers, compiles and executes a single phrase, returning its printed result (or
// an empty string for a declaration). On any error the phrase's partial effects on the code
// generator are discarded (Gen.Reset) but the global scope and module persist, so a REPL can retry
// the next phrase unaffected: every error is fatal only to the current phrase.
func (d *Driver) EvalPhrase(src string) (string, error) {
	p := frontend.NewParser(src)
	n, err := p.ParsePhrase()
	if err != nil {
		return "", fmt.Errorf("parse error: %w", err)
	}
	if n == nil {
		return "", nil
	}

	if err := infer.Infer(d.Global, n); err != nil {
		d.Gen.Reset()
		return "", fmt.Errorf("type error: %w", err)
	}
	if d.Verbose {
		fmt.Print(n.Print(0))
	}

	switch n.Tag {
	case ast.FnStmt, ast.DataStmt:
		if err := d.Gen.LowerDecl(n); err != nil {
			d.Gen.Reset()
			return "", fmt.Errorf("codegen error: %w", err)
		}
		return "", nil

	case ast.Assignment:
		fn, retT, err := d.Gen.CompilePhrase(n, d.Global)
		if err != nil {
			d.Gen.Reset()
			return "", fmt.Errorf("codegen error: %w", err)
		}
		return d.runAndFormat(fn, retT)

	default:
		fn, retT, err := d.Gen.CompilePhrase(n, d.Global)
		if err != nil {
			d.Gen.Reset()
			return "", fmt.Errorf("codegen error: %w", err)
		}
		return d.runAndFormat(fn, retT)
	}
}

func (d *Driver) runAndFormat(fn llvm.Value, retT *types.Type) (string, error) {
	result := d.Gen.Execute(fn, retT)
	return Format(retT, result), nil
}
