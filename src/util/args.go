package util

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Options holds the parsed command line configuration for the jitc driver.
type Options struct {
	Src         string   // Path to source file for `run` mode. Empty means REPL mode.
	Verbose     bool     // Set true if the driver should log statistical data to stdout.
	TokenStream bool     // Set true if the driver should print the token stream and exit.
	Args        []string // Remaining argv to forward to `run <file>`'s entry function.
}

// ---------------------
// ----- Constants -----
// ---------------------

const appVersion = "jitc 1.0"

// ---------------------
// ----- functions -----
// ---------------------

// ParseArgs parses command line arguments. Recognised flags are:
//
//	-h, -help      print usage and exit
//	-v, -version   print version and exit
//	-vb            verbose mode
//	-ts            print token stream and exit
//	run <file>     compile and execute file, forwarding any trailing args as argv
//
// With no `run` subcommand, Options.Src is empty and the caller should start the REPL.
func ParseArgs() (Options, error) {
	opt := Options{}
	args := os.Args[1:]
	i1 := 0
	for ; i1 < len(args); i1++ {
		switch args[i1] {
		case "-h", "--h", "-help", "--help":
			printHelp()
			os.Exit(0)
		case "-v", "--v", "-version", "--version":
			fmt.Println(appVersion)
			os.Exit(0)
		case "-vb":
			opt.Verbose = true
		case "-ts":
			opt.TokenStream = true
		case "run":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("run requires a source file path")
			}
			opt.Src = args[i1+1]
			opt.Args = args[i1+2:]
			return opt, nil
		default:
			if strings.HasPrefix(args[i1], "-") {
				return opt, fmt.Errorf("unexpected flag: %s", args[i1])
			}
			return opt, fmt.Errorf("unexpected argument: %s (did you mean 'run %s'?)", args[i1], args[i1])
		}
	}
	return opt, nil
}

// printHelp prints a helpful usage message to stdout.
func printHelp() {
	fmt.Println("jitc - a just-in-time expression compiler")
	fmt.Println()
	fmt.Println("usage:")
	fmt.Println("  jitc [flags]            start the interactive REPL")
	fmt.Println("  jitc [flags] run FILE [argv...]   compile FILE and execute its entry function")
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 6, 1, 1, 0, 0)
	_, _ = fmt.Fprintln(w, "-h, -help\tPrints this help message and exits.")
	_, _ = fmt.Fprintln(w, "-v, -version\tPrints the version and exits.")
	_, _ = fmt.Fprintln(w, "-vb\tVerbose mode: print inference and codegen tracing to stdout.")
	_, _ = fmt.Fprintln(w, "-ts\tPrint the token stream of the input and exit.")
	_ = w.Flush()
}
