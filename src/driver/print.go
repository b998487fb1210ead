package driver

import (
	"fmt"
	"strconv"
	"strings"

	"jitc/src/codegen"
	"jitc/src/foreign"
	"jitc/src/types"
)

// Format renders a phrase's result the way the REPL prints it back, mirroring
// original_source/backend.c's print_gen/print_special/print_struct_entry:
//
//	int     -> "7i"            (decimal, "i" suffix)
//	uint    -> "7u"            (decimal, "u" suffix)
//	double  -> "%g"-style      (shortest round-tripping form, as the original's "%lg")
//	char    -> 'c' or '\n' etc, single-quoted and escaped
//	string  -> "s" or "a\"b",  double-quoted and escaped
//	bool    -> true / false
//	tuple   -> (a, b, c)       a lone singleton keeps its trailing comma: (a,)
//	data    -> Name(a, b, c)
//	array   -> the literal word "array" (original_source never formats array contents, only the
//	           type name, leaving element inspection to explicit indexing)
//	ZZ      -> the bignum's decimal string
func Format(t *types.Type, r codegen.Result) string {
	switch t.Tag {
	case types.Nil:
		return "()"
	case types.Bool:
		if r.Scalar.(bool) {
			return "true"
		}
		return "false"
	case types.Int:
		return fmt.Sprintf("%di", r.Scalar.(int64))
	case types.UInt:
		return fmt.Sprintf("%du", r.Scalar.(uint64))
	case types.Double:
		return strconv.FormatFloat(r.Scalar.(float64), 'g', -1, 64)
	case types.Char:
		return "'" + escapeRune(r.Scalar.(rune)) + "'"
	case types.String:
		return strconv.Quote(r.Scalar.(string))
	case types.ZZ:
		return r.Scalar.(*foreign.ZZVal).String()
	case types.Tuple:
		parts := make([]string, len(r.Fields))
		for i, f := range r.Fields {
			parts[i] = Format(t.Elems[i], f)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case types.Data:
		parts := make([]string, len(r.Fields))
		for i, f := range r.Fields {
			parts[i] = Format(t.Ctor.Elems[i], f)
		}
		return t.Name.String() + "(" + strings.Join(parts, ", ") + ")"
	case types.Array:
		return "array"
	default:
		return "<?>"
	}
}

func escapeRune(r rune) string {
	switch r {
	case '\n':
		return `\n`
	case '\t':
		return `\t`
	case '\'':
		return `\'`
	case '\\':
		return `\\`
	default:
		return string(r)
	}
}
