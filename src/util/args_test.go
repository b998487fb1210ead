package util

import (
	"os"
	"testing"
)

// withArgs runs fn with os.Args set to a fake argv0 followed by args, restoring the original
// os.Args afterward. ParseArgs reads directly from os.Args so this is the only way to drive it.
func withArgs(t *testing.T, args []string, fn func()) {
	t.Helper()
	saved := os.Args
	defer func() { os.Args = saved }()
	os.Args = append([]string{"jitc"}, args...)
	fn()
}

func TestParseArgsNoFlagsStartsREPL(t *testing.T) {
	var opt Options
	var err error
	withArgs(t, nil, func() { opt, err = ParseArgs() })
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if opt.Src != "" {
		t.Errorf("Src = %q, want empty for REPL mode", opt.Src)
	}
}

func TestParseArgsVerboseAndTokenStream(t *testing.T) {
	var opt Options
	var err error
	withArgs(t, []string{"-vb", "-ts"}, func() { opt, err = ParseArgs() })
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !opt.Verbose {
		t.Errorf("Verbose = false, want true")
	}
	if !opt.TokenStream {
		t.Errorf("TokenStream = false, want true")
	}
}

func TestParseArgsRunForwardsSourceAndArgv(t *testing.T) {
	var opt Options
	var err error
	withArgs(t, []string{"run", "prog.src", "a", "b"}, func() { opt, err = ParseArgs() })
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if opt.Src != "prog.src" {
		t.Errorf("Src = %q, want prog.src", opt.Src)
	}
	if len(opt.Args) != 2 || opt.Args[0] != "a" || opt.Args[1] != "b" {
		t.Errorf("Args = %v, want [a b]", opt.Args)
	}
}

func TestParseArgsRunWithoutPathErrors(t *testing.T) {
	var err error
	withArgs(t, []string{"run"}, func() { _, err = ParseArgs() })
	if err == nil {
		t.Fatalf("expected an error for 'run' with no source path")
	}
}

func TestParseArgsUnknownFlagErrors(t *testing.T) {
	var err error
	withArgs(t, []string{"-bogus"}, func() { _, err = ParseArgs() })
	if err == nil {
		t.Fatalf("expected an error for an unrecognised flag")
	}
}

func TestParseArgsUnexpectedArgumentErrors(t *testing.T) {
	var err error
	withArgs(t, []string{"prog.src"}, func() { _, err = ParseArgs() })
	if err == nil {
		t.Fatalf("expected an error for a bare argument with no 'run' keyword")
	}
}
