package compiler

import (
	goparser "go/parser"
	gotoken "go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/pseudo/diag"
)

// emit compiles src and checks that the result parses as Go.
func emit(t *testing.T, src string) string {
	t.Helper()
	res, err := (&Compiler{}).CompileSource(src, "")
	require.NoError(t, err)
	_, err = goparser.ParseFile(gotoken.NewFileSet(), "main.go", res.GoSource, 0)
	require.NoError(t, err, res.GoSource)
	return res.GoSource
}

func compileErr(t *testing.T, src string) *diag.Error {
	t.Helper()
	_, err := (&Compiler{}).CompileSource(src, "")
	require.Error(t, err)
	de, ok := err.(*diag.Error)
	require.True(t, ok, "want *diag.Error, got %T: %v", err, err)
	return de
}

func TestEmitStatements(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			"assignment and output",
			"DECLARE x : INTEGER\nx ← 5\nOUTPUT \"x=\", x",
			[]string{"var v_x rtCell[int64]", "v_x.Put(5)", `rtOutput("x=", rtFmtInt(v_x.V))`},
		},
		{
			"integer widened to real",
			"DECLARE r : REAL\nr ← 5",
			[]string{"var v_r rtCell[float64]", "v_r.Put(5.0)"},
		},
		{
			"constant",
			"CONSTANT Max = 10\nOUTPUT Max",
			[]string{"var c_Max int64 = 10", "rtOutput(rtFmtInt(c_Max))"},
		},
		{
			"date literal",
			"DECLARE d : DATE\nd ← \"25/12/2024\"",
			[]string{"v_d.Put(rtMkDate(25, 12, 2024))"},
		},
		{
			"array",
			"DECLARE a : ARRAY[1:3, 0:1] OF CHAR\na[2, 0] ← 'x'\nOUTPUT a[2, 0]",
			[]string{
				"var v_a *rtArray[rune]",
				`v_a = rtNewArray[rune]("a", 1, 1, 3, 0, 1)`,
				"v_a.Store(2, 'x', 2, 0)",
				"rtFmtChar(v_a.Load(3, 2, 0))",
			},
		},
		{
			"three dimensional array",
			"DECLARE a : ARRAY[1:2, 1:2, 0:3] OF INTEGER\na[2, 1, 3] ← 7",
			[]string{`v_a = rtNewArray[int64]("a", 1, 1, 2, 1, 2, 0, 3)`, "v_a.Store(2, 7, 2, 1, 3)"},
		},
		{
			"record",
			"TYPE Pupil\n  DECLARE Name : STRING\nENDTYPE\nDECLARE p : Pupil\np.Name ← \"Ann\"\nOUTPUT p.Name",
			[]string{"type T_Pupil struct", "f_Name string", "var v_p rtCell[T_Pupil]", `v_p.V.f_Name = "Ann"`, "rtOutput(v_p.V.f_Name)"},
		},
		{
			"input",
			"DECLARE n : INTEGER\nINPUT n",
			[]string{`v_n.Put(rtParseInt(2, rtInput(2, "n"), "INPUT n"))`},
		},
		{
			"concatenation",
			"DECLARE c : CHAR\nc ← 'a'\nOUTPUT c & \"b\"",
			[]string{`rtOutput(string(v_c.V) + "b")`},
		},
		{
			"integer division",
			"DECLARE q : INTEGER\nq ← 7 DIV 2\nOUTPUT 7 / 2",
			[]string{"v_q.Put(rtDiv(2, 7, 2))", "rtRealDiv(3, 7.0, 2.0)"},
		},
		{
			"string to number into integer",
			"DECLARE n : INTEGER\nn ← STR_TO_NUM(\"12\")",
			[]string{`v_n.Put(rtSTR_TO_INT(2, "12"))`},
		},
		{
			"library result narrowed to char",
			"DECLARE c : CHAR\nc ← LEFT(\"abc\", 1)",
			[]string{`v_c.Put(rtToChar(2, rtLEFT(2, "abc", 1)))`},
		},
		{
			"for loop with literal step",
			"FOR i ← 10 TO 1 STEP -2\n  OUTPUT i\nNEXT i",
			[]string{"var v_i rtCell[int64]", "var to1 int64 = 1", "for v_i.Put(10); v_i.V >= to1; v_i.V += -2 {"},
		},
		{
			"for loop with variable step",
			"DECLARE s : INTEGER\ns ← 2\nFOR i ← 1 TO 9 STEP s\nNEXT i",
			[]string{"var to1 int64 = 9", "var step2 int64 = rtStep[int64](3, v_s.V)", "rtForCond(v_i.V, to1, step2)"},
		},
		{
			"repeat",
			"DECLARE n : INTEGER\nn ← 0\nREPEAT\n  n ← n + 1\nUNTIL n > 3",
			[]string{"for {", "v_n.Put(v_n.V + 1)", "if v_n.V > 3 {", "break"},
		},
		{
			"case",
			"DECLARE g : CHAR\ng ← 'B'\nCASE OF g\n  'A' TO 'C' : OUTPUT \"top\"\n  'D', 'E' : OUTPUT \"pass\"\n  OTHERWISE : OUTPUT \"fail\"\nENDCASE",
			[]string{"var sel1 rune = v_g.V", "if sel1 >= 'A' && sel1 <= 'C' {", "} else if sel1 == 'D' || sel1 == 'E' {", "} else {"},
		},
		{
			"case on a literal subject",
			"DECLARE k : INTEGER\nk ← 1\nCASE OF 1\n  k : OUTPUT \"one\"\nENDCASE",
			[]string{"var sel1 int64 = 1", "if sel1 == v_k.V {"},
		},
		{
			"for loop over real bounds",
			"FOR x ← 0 TO 1.5 STEP 0.5\n  OUTPUT x\nNEXT x",
			[]string{"var v_x rtCell[float64]", "var to1 float64 = 1.5", "for v_x.Put(0.0); v_x.V <= to1; v_x.V += 0.5 {"},
		},
		{
			"date comparison",
			"DECLARE d : DATE\nd ← 01/02/2024\nOUTPUT d <= 05/06/2024",
			[]string{"!v_d.V.After(rtMkDate(5, 6, 2024))"},
		},
		{
			"boolean operators",
			"DECLARE a : BOOLEAN\na ← TRUE\na ← NOT (TRUE AND FALSE) OR a",
			[]string{"v_a.Put(!(true && false) || v_a.V)"},
		},
		{
			"files",
			"DECLARE s : STRING\nOPENFILE \"f.txt\" FOR READ\nREADFILE \"f.txt\", s\nCLOSEFILE \"f.txt\"",
			[]string{`rtOpenFile(2, "f.txt", "READ")`, `v_s.Put(rtReadFile(3, "f.txt"))`, `rtCloseFile(4, "f.txt")`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := emit(t, tt.src)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}

func TestEmitRoutines(t *testing.T) {
	got := emit(t, `PROCEDURE Swap(BYREF a : INTEGER, BYREF b : INTEGER)
  DECLARE t : INTEGER
  t ← a
  a ← b
  b ← t
ENDPROCEDURE
FUNCTION Twice(n : INTEGER) RETURNS INTEGER
  RETURN n * 2
ENDFUNCTION
PROCEDURE Fill(BYREF xs : ARRAY OF INTEGER)
  xs[1] ← 7
ENDPROCEDURE
DECLARE x : INTEGER
DECLARE y : INTEGER
DECLARE v : ARRAY[1:2] OF INTEGER
x ← 1
y ← Twice(x)
CALL Swap(x, y)
CALL Swap(v[1], v[2])
CALL Fill(v)`)

	assert.Contains(t, got, "// PROCEDURE Swap, line 1\nfunc p_Swap(v_a *rtCell[int64], v_b *rtCell[int64]) {")
	assert.Contains(t, got, "// FUNCTION Twice, line 7\nfunc fn_Twice(")
	assert.Contains(t, got, "func fn_Twice(v_n rtCell[int64]) int64 {")
	assert.Contains(t, got, "return v_n.V * 2")
	assert.Contains(t, got, `panic(rtNoReturn(9, "Twice"))`)
	assert.Contains(t, got, "func p_Fill(v_xs *rtArray[int64]) {")
	assert.Contains(t, got, "v_y.Put(fn_Twice(rtCell[int64]{V: v_x.V, Set: true}))")
	assert.Contains(t, got, "p_Swap(&v_x, &v_y)")
	assert.Contains(t, got, "ref1 := &rtCell[int64]{V: v_v.Load(19, 1), Set: true}")
	assert.Contains(t, got, "v_v.Store(19, ref1.V, 1)")
	assert.Contains(t, got, "p_Fill(v_v)")
}

func TestEmitGuards(t *testing.T) {
	t.Run("unassigned read is checked", func(t *testing.T) {
		got := emit(t, "DECLARE x : INTEGER\nOUTPUT x")
		assert.Contains(t, got, `rtNeed(v_x.Set, "x", 2)`)
	})
	t.Run("assigned read is not checked", func(t *testing.T) {
		got := emit(t, "DECLARE x : INTEGER\nx ← 1\nOUTPUT x")
		assert.NotContains(t, got, "rtNeed(v_x.Set")
	})
	t.Run("both branches assign", func(t *testing.T) {
		got := emit(t, "DECLARE x : INTEGER\nIF TRUE THEN\n  x ← 1\nELSE\n  x ← 2\nENDIF\nOUTPUT x")
		assert.NotContains(t, got, "rtNeed(v_x.Set")
	})
	t.Run("one branch assigns", func(t *testing.T) {
		got := emit(t, "DECLARE x : INTEGER\nIF TRUE THEN\n  x ← 1\nENDIF\nOUTPUT x")
		assert.Contains(t, got, `rtNeed(v_x.Set, "x", 5)`)
	})
	t.Run("loop body may not run", func(t *testing.T) {
		got := emit(t, "DECLARE x : INTEGER\nWHILE FALSE\n  x ← 1\nENDWHILE\nOUTPUT x")
		assert.Contains(t, got, `rtNeed(v_x.Set, "x", 5)`)
	})
	t.Run("repeat body always runs", func(t *testing.T) {
		got := emit(t, "DECLARE x : INTEGER\nREPEAT\n  x ← 1\nUNTIL TRUE\nOUTPUT x")
		assert.NotContains(t, got, "rtNeed(v_x.Set")
	})
	t.Run("globals read in routines are checked", func(t *testing.T) {
		got := emit(t, "PROCEDURE Show\n  OUTPUT g\nENDPROCEDURE\nDECLARE g : INTEGER\ng ← 1\nCALL Show")
		assert.Contains(t, got, `rtNeed(v_g.Set, "g", 2)`)
	})
}

func TestEmitDeterministic(t *testing.T) {
	src := `TYPE P
  DECLARE A : INTEGER
  DECLARE B : STRING
ENDTYPE
FUNCTION F(x : REAL) RETURNS REAL
  RETURN x / 2
ENDFUNCTION
DECLARE p : P
p.A ← 1
OUTPUT F(p.A)`
	first := emit(t, src)
	for range 5 {
		assert.Equal(t, first, emit(t, src))
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind diag.Kind
		line int
		want string
	}{
		{"type mismatch", "DECLARE x : INTEGER\nx ← \"hello\"", diag.Type, 2,
			`type mismatch: cannot assign to x: "hello" is STRING, expected INTEGER`},
		{"undeclared", "OUTPUT y", diag.Declaration, 1, "y is not declared"},
		{"undeclared with hint", "DECLARE total : INTEGER\ntotal ← 1\nOUTPUT totl", diag.Declaration, 3,
			"totl is not declared (did you mean total?)"},
		{"used before declare", "x ← 1\nDECLARE x : INTEGER", diag.Declaration, 1,
			"x is used before its DECLARE on line 2"},
		{"duplicate declare", "DECLARE x : INTEGER\nDECLARE x : REAL", diag.Declaration, 2,
			"x is already declared on line 1"},
		{"unknown type", "DECLARE x : INTEGR", diag.Declaration, 1, "unknown datatype INTEGR (did you mean INTEGER?)"},
		{"assign constant", "CONSTANT Max = 3\nMax ← 4", diag.Type, 2,
			"cannot assign to constant Max (declared on line 1)"},
		{"constant must be literal", "CONSTANT Max = 1 + 2", diag.Type, 1, "must be a literal value"},
		{"plus on text", "DECLARE s : STRING\ns ← \"a\" + \"b\"", diag.Type, 2, "use & to join text"},
		{"join number", "OUTPUT \"n=\" & 5", diag.Type, 1, "convert numbers with NUM_TO_STR"},
		{"condition type", "IF 1 THEN\nENDIF", diag.Type, 1, "IF condition must be BOOLEAN, got INTEGER 1"},
		{"procedure used as value", "PROCEDURE P\nENDPROCEDURE\nOUTPUT P()", diag.Type, 3,
			"PROCEDURE P does not return a value"},
		{"call builtin", "CALL LENGTH(\"a\")", diag.Type, 1, "LENGTH is a built-in function"},
		{"call function", "FUNCTION F RETURNS INTEGER\n  RETURN 1\nENDFUNCTION\nCALL F", diag.Type, 4, "F is a FUNCTION"},
		{"builtin arity", "OUTPUT LENGTH(\"a\", \"b\")", diag.Type, 1, "LENGTH expects 1 argument(s), got 2"},
		{"routine arity", "PROCEDURE P(n : INTEGER)\nENDPROCEDURE\nCALL P(1, 2)", diag.Type, 3,
			"PROCEDURE P expects 1 argument(s), got 2"},
		{"byref constant", "CONSTANT K = 1\nPROCEDURE P(BYREF n : INTEGER)\nENDPROCEDURE\nCALL P(K)", diag.Type, 4,
			"constant K cannot be passed BYREF"},
		{"byref exact type", "DECLARE r : REAL\nPROCEDURE P(BYREF n : INTEGER)\nENDPROCEDURE\nCALL P(r)", diag.Type, 4,
			"BYREF needs exactly INTEGER"},
		{"inherited byref needs a variable", "PROCEDURE P(BYREF a : INTEGER, n : INTEGER)\nENDPROCEDURE\nDECLARE x : INTEGER\nx ← 1\nCALL P(x, 10)",
			diag.Type, 5, "a BYREF argument must be a variable"},
		{"procedure returns value", "PROCEDURE P\n  RETURN 1\nENDPROCEDURE", diag.Type, 2,
			"PROCEDURE P cannot RETURN a value"},
		{"return outside routine", "RETURN 1", diag.Structural, 1, "RETURN outside a PROCEDURE or FUNCTION"},
		{"step zero", "FOR i ← 1 TO 3 STEP 0\nNEXT i", diag.Type, 1, "STEP cannot be 0"},
		{"array dimensions", "DECLARE a : ARRAY[1:3] OF INTEGER\na[1, 2] ← 0", diag.Type, 2,
			"array a has 1 dimension(s), got 2 index(es)"},
		{"unknown field", "TYPE T\n  DECLARE Name : STRING\nENDTYPE\nDECLARE t : T\nt.Nme ← \"x\"", diag.Declaration, 5,
			"TYPE T has no field Nme (did you mean Name?)"},
		{"invalid date", "DECLARE d : DATE\nd ← \"31/02/2024\"", diag.Type, 2, "invalid date"},
		{"nested procedure", "IF TRUE THEN\n  PROCEDURE P\n  ENDPROCEDURE\nENDIF", diag.Structural, 2,
			"PROCEDURE P must be defined at the top level"},
		{"record field of record type", "TYPE A\n  DECLARE X : INTEGER\nENDTYPE\nTYPE B\n  DECLARE Y : A\nENDTYPE", diag.Declaration, 5,
			"cannot have record type A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compileErr(t, tt.src)
			assert.Equal(t, tt.kind, err.Kind)
			assert.Equal(t, tt.line, err.Pos.Line)
			assert.Contains(t, err.Msg, tt.want)
		})
	}
}

func TestCompileErrorNamesFile(t *testing.T) {
	_, err := (&Compiler{}).CompileSource("OUTPUT y", "prog.pseudo")
	require.Error(t, err)
	assert.Equal(t, "prog.pseudo:1: y is not declared", err.Error())
}
