// Command jitc is a just-in-time expression compiler: by default it runs an interactive REPL that
// reads one phrase at a time, infers its type, lowers it to LLVM IR and executes it immediately; a
// `run FILE` subcommand instead compiles the declarations in FILE and calls its first declared
// function with argv converted to its parameter types.
//
// Parses options, reads source, drives the compiler and reports errors (a REPL phrase's error to
// stdout, a fatal error to stderr), built as a REPL driver rather than a one-shot batch compiler.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"jitc/src/ast"
	"jitc/src/driver"
	"jitc/src/frontend"
	"jitc/src/infer"
	"jitc/src/symbol"
	"jitc/src/types"
	"jitc/src/util"
)

func main() {
	opt, err := util.ParseArgs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if opt.Src != "" {
		if err := runFile(opt); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := repl(opt); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// repl reads phrases from stdin, one per line, until EOF, printing each phrase's result.
// Mirrors original_source/backend.c's top-level read-eval-print loop (exec_root called once per
// parsed phrase).
func repl(opt util.Options) error {
	d, err := driver.New(opt.Verbose)
	if err != nil {
		return err
	}
	defer d.Close()

	fmt.Println("jitc - type an expression or declaration, Ctrl-D to quit")
	r := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, rerr := util.ReadPhrase(r)
		if line == "" && rerr != nil {
			break
		}
		out, err := d.EvalPhrase(line)
		if err != nil {
			fmt.Println(err)
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
	}
	return nil
}

// runFile compiles every declaration in the named source file, then calls its first declared
// function, converting trailing argv strings into that function's parameter types the way
// original_source/backend.c's argv-driven exec_root does for a standalone run. With -ts, it prints
// the token stream instead of compiling.
func runFile(opt util.Options) error {
	src, err := util.ReadSource(opt)
	if err != nil {
		return err
	}

	if opt.TokenStream {
		return frontend.DumpTokens(src, os.Stdout)
	}

	d, err := driver.New(opt.Verbose)
	if err != nil {
		return err
	}
	defer d.Close()

	p := frontend.NewParser(src)
	var firstFn *ast.Node
	for {
		n, err := p.ParsePhrase()
		if err != nil {
			return fmt.Errorf("parse error: %w", err)
		}
		if n == nil {
			break
		}
		if err := infer.Infer(d.Global, n); err != nil {
			return fmt.Errorf("type error: %w", err)
		}
		if n.Tag == ast.FnStmt || n.Tag == ast.DataStmt {
			if err := d.Gen.LowerDecl(n); err != nil {
				return fmt.Errorf("codegen error: %w", err)
			}
			if n.Tag == ast.FnStmt && firstFn == nil {
				firstFn = n
			}
			continue
		}
		out, err := evalTopLevel(d, n)
		if err != nil {
			return err
		}
		if out != "" {
			fmt.Println(out)
		}
	}

	if firstFn == nil {
		return fmt.Errorf("run: %s declares no function to execute", opt.Src)
	}
	return callEntryPoint(d, firstFn, opt.Args)
}

func evalTopLevel(d *driver.Driver, n *ast.Node) (string, error) {
	fn, retT, err := d.Gen.CompilePhrase(n, d.Global)
	if err != nil {
		return "", fmt.Errorf("codegen error: %w", err)
	}
	result := d.Gen.Execute(fn, retT)
	return driver.Format(retT, result), nil
}

// callEntryPoint parses argv into firstFn's declared parameter types (atoi/atof-style conversion,
// mirroring original_source's argc/argv binding), then lowers a synthetic Appl node calling firstFn
// with the parsed literals and runs it through the same CompilePhrase/Execute path evalTopLevel uses
// for REPL phrases.
func callEntryPoint(d *driver.Driver, firstFn *ast.Node, argv []string) error {
	params := firstFn.Children[1].Children
	if len(argv) != len(params) {
		return fmt.Errorf("run: %s expects %d argument(s), got %d", firstFn.Children[0].Sym, len(params), len(argv))
	}

	args := make([]*ast.Node, len(params))
	for i, p := range params {
		lit, err := argLiteral(p.Children[0].Type, argv[i])
		if err != nil {
			return fmt.Errorf("run: argument %d: %w", i+1, err)
		}
		args[i] = lit
	}

	callee := ast.NewSymbol(ast.Ident, firstFn.Line, firstFn.Pos, firstFn.Children[0].Sym)
	call := ast.New(ast.Appl, firstFn.Line, firstFn.Pos, append([]*ast.Node{callee}, args...)...)
	if err := infer.Infer(d.Global, call); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	out, err := evalTopLevel(d, call)
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Println(out)
	}
	return nil
}

// argLiteral converts one argv string into a literal node of the given declared parameter type,
// mirroring original_source's argc/argv-to-typed-literal conversion.
func argLiteral(t *types.Type, raw string) (*ast.Node, error) {
	switch t {
	case types.TInt:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %q", raw)
		}
		return ast.NewLit(ast.Int, 0, 0, v), nil
	case types.TUInt:
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected unsigned integer, got %q", raw)
		}
		return ast.NewLit(ast.UWord, 0, 0, int64(v)), nil
	case types.TDouble:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expected float, got %q", raw)
		}
		return ast.NewLit(ast.Double, 0, 0, v), nil
	case types.TBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("expected bool, got %q", raw)
		}
		// Same desugaring the parser uses for true/false: 0 == 0 or 0 != 0, typed bool.
		op := "!="
		if v {
			op = "=="
		}
		zero := ast.NewLit(ast.Int, 0, 0, int64(0))
		return ast.NewBinop(0, 0, symbol.Intern(op), zero, zero), nil
	case types.TChar:
		r := []rune(raw)
		if len(r) != 1 {
			return nil, fmt.Errorf("expected single character, got %q", raw)
		}
		return ast.NewLit(ast.Char, 0, 0, r[0]), nil
	case types.TString:
		return ast.NewLit(ast.String, 0, 0, raw), nil
	default:
		return nil, fmt.Errorf("unsupported parameter type %s for a command-line argument", t)
	}
}
