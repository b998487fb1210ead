package driver

import (
	"testing"

	"jitc/src/codegen"
	"jitc/src/foreign"
	"jitc/src/symbol"
	"jitc/src/types"
)

func TestFormatScalars(t *testing.T) {
	cases := []struct {
		t    *types.Type
		r    codegen.Result
		want string
	}{
		{types.TNil, codegen.Result{Type: types.TNil}, "()"},
		{types.TBool, codegen.Result{Type: types.TBool, Scalar: true}, "true"},
		{types.TBool, codegen.Result{Type: types.TBool, Scalar: false}, "false"},
		{types.TInt, codegen.Result{Type: types.TInt, Scalar: int64(7)}, "7i"},
		{types.TUInt, codegen.Result{Type: types.TUInt, Scalar: uint64(7)}, "7u"},
		{types.TChar, codegen.Result{Type: types.TChar, Scalar: 'c'}, "'c'"},
		{types.TChar, codegen.Result{Type: types.TChar, Scalar: '\n'}, `'\n'`},
		{types.TString, codegen.Result{Type: types.TString, Scalar: `a"b`}, `"a\"b"`},
	}
	for _, c := range cases {
		if got := Format(c.t, c.r); got != c.want {
			t.Errorf("Format(%s, %v) = %q, want %q", c.t, c.r.Scalar, got, c.want)
		}
	}
}

func TestFormatTupleSingletonKeepsTrailingComma(t *testing.T) {
	tup := types.NewTuple([]*types.Type{types.TInt})
	r := codegen.Result{
		Type: tup,
		Fields: []codegen.Result{
			{Type: types.TInt, Scalar: int64(1)},
		},
	}
	if got := Format(tup, r); got != "(1i,)" {
		t.Errorf("Format(tuple) = %q, want (1i,)", got)
	}
}

func TestFormatDataRendersNameAndFields(t *testing.T) {
	name := symbol.Intern("Pair")
	dataType, _ := types.LookupData(name)
	dataType.Ctor = types.NewConstructor(name, []*types.Type{types.TInt, types.TInt})

	r := codegen.Result{
		Type: dataType,
		Fields: []codegen.Result{
			{Type: types.TInt, Scalar: int64(1)},
			{Type: types.TInt, Scalar: int64(2)},
		},
	}
	if got := Format(dataType, r); got != "Pair(1i, 2i)" {
		t.Errorf("Format(data) = %q, want Pair(1i, 2i)", got)
	}
}

func TestFormatArrayIsOpaque(t *testing.T) {
	arr := types.NewArray(types.TInt)
	if got := Format(arr, codegen.Result{Type: arr}); got != "array" {
		t.Errorf("Format(array) = %q, want array", got)
	}
}

func TestFormatZZRendersDecimalString(t *testing.T) {
	z, err := foreign.NewZZFromString("123456789012345678901234567890")
	if err != nil {
		t.Fatalf("NewZZFromString: %s", err)
	}
	r := codegen.Result{Type: types.TZZ, Scalar: z}
	if got := Format(types.TZZ, r); got != "123456789012345678901234567890" {
		t.Errorf("Format(ZZ) = %q, want the original decimal string", got)
	}
}
