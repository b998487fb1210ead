package frontend

import (
	"fmt"
	"io"
)

// DumpTokens scans src to completion and writes one line per token to w, using item's own String
// representation. Driven by the -ts flag, for inspecting the token stream ahead of parsing.
func DumpTokens(src string, w io.Writer) error {
	l := newLexer(src)
	for {
		it := l.nextItem()
		if _, err := fmt.Fprintln(w, it.String()); err != nil {
			return err
		}
		if it.typ == itemEOF || it.typ == itemError {
			if it.typ == itemError {
				return fmt.Errorf("lex error: %s", it.val)
			}
			return nil
		}
	}
}
