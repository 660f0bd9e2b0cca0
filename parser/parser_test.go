package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/pseudo/ast"
	"github.com/rubiojr/pseudo/diag"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := ParseSource(src, "")
	require.NoError(t, err)
	return prog
}

func parseErr(t *testing.T, src string) error {
	t.Helper()
	_, err := ParseSource(src, "")
	require.Error(t, err)
	return err
}

func TestParseSingleStatements(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{`CONSTANT Max = 10`, &ast.Constant{}},
		{`DECLARE x : INTEGER`, &ast.Declare{}},
		{`DECLARE a : ARRAY[1:5] OF REAL`, &ast.DeclareArray{}},
		{`x ← 1`, &ast.Assignment{}},
		{`p.Age ← 1`, &ast.AssignRecordField{}},
		{`a[1] ← 1`, &ast.AssignArrayElement{}},
		{`a[1].Age ← 1`, &ast.AssignArrayRecordField{}},
		{`OUTPUT "a", b`, &ast.Output{}},
		{`INPUT name`, &ast.Input{}},
		{`CALL Show(1)`, &ast.Call{}},
		{`OPENFILE "f" FOR READ`, &ast.OpenFile{}},
		{`CLOSEFILE "f"`, &ast.CloseFile{}},
		{`READFILE "f", line`, &ast.ReadFile{}},
		{`WRITEFILE "f", line`, &ast.WriteFile{}},
		{`RETURN 1`, &ast.Return{}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			prog := parse(t, tt.src)
			require.Len(t, prog.Statements, 1)
			assert.IsType(t, tt.want, prog.Statements[0])
			assert.Equal(t, 1, prog.Statements[0].StmtLine())
		})
	}
}

func TestParseFieldsPopulated(t *testing.T) {
	prog := parse(t, "DECLARE grid : ARRAY[1:3, 0:4] OF CHAR\ngrid[2, 0] ← 'x'\nOUTPUT \"v=\", grid[2, 0]\n")
	require.Len(t, prog.Statements, 3)

	decl := prog.Statements[0].(*ast.DeclareArray)
	assert.Equal(t, "grid", decl.Name)
	assert.Equal(t, "CHAR", decl.DataType)
	require.Len(t, decl.Bounds, 2)
	assert.Equal(t, "0", decl.Bounds[1].Lower.String())

	assign := prog.Statements[1].(*ast.AssignArrayElement)
	assert.Len(t, assign.Indices, 2)
	assert.Equal(t, &ast.CharLit{Value: 'x'}, assign.Value)

	out := prog.Statements[2].(*ast.Output)
	assert.Len(t, out.Values, 2)
	assert.Equal(t, 3, out.StmtLine())
}

func TestParseIfElse(t *testing.T) {
	prog := parse(t, `IF x > 1 THEN
  OUTPUT "big"
  OUTPUT "really"
ELSE
  OUTPUT "small"
ENDIF`)
	require.Len(t, prog.Statements, 1)
	s := prog.Statements[0].(*ast.If)
	assert.Len(t, s.Then, 2)
	assert.Len(t, s.Else, 1)
	assert.Equal(t, 6, s.StmtEndLine())
}

func TestParseNestedLoops(t *testing.T) {
	prog := parse(t, `FOR i ← 1 TO 3
  WHILE j < i DO
    REPEAT
      j ← j + 1
    UNTIL j > 2
  ENDWHILE
NEXT i`)
	f := prog.Statements[0].(*ast.For)
	assert.Equal(t, "i", f.Var)
	assert.Nil(t, f.Step)
	w := f.Body[0].(*ast.While)
	r := w.Body[0].(*ast.Repeat)
	assert.Len(t, r.Body, 1)
	assert.Equal(t, "j > 2", r.Until.String())
	assert.Equal(t, 5, r.StmtEndLine())
}

func TestParseCase(t *testing.T) {
	prog := parse(t, `CASE OF g
  'A' TO 'M': OUTPUT "first half"
  'Z' :
    OUTPUT "last"
    OUTPUT "letter"
  'X', 'Y' : n ← 1
  OTHERWISE: OUTPUT "second half"
ENDCASE`)
	c := prog.Statements[0].(*ast.Case)
	require.Len(t, c.Clauses, 3)
	assert.Equal(t, ast.ValueRange, c.Clauses[0].Form)
	assert.Equal(t, &ast.CharLit{Value: 'A'}, c.Clauses[0].Low)
	assert.Len(t, c.Clauses[1].Body, 2)
	assert.Equal(t, ast.MultipleValues, c.Clauses[2].Form)
	assert.IsType(t, &ast.Assignment{}, c.Clauses[2].Body[0])
	require.NotNil(t, c.Otherwise)
	assert.Len(t, c.Otherwise.Body, 1)
	assert.Equal(t, 8, c.StmtEndLine())
}

func TestParseCaseOtherwiseRules(t *testing.T) {
	err := parseErr(t, "CASE OF x\n1 : OUTPUT 1\nOTHERWISE : OUTPUT 2\n2 : OUTPUT 3\nENDCASE")
	assert.Contains(t, err.Error(), "line 4")
	assert.Contains(t, err.Error(), "after OTHERWISE")

	err = parseErr(t, "CASE OF x\nOTHERWISE : OUTPUT 2\nOTHERWISE : OUTPUT 3\nENDCASE")
	assert.Contains(t, err.Error(), "second OTHERWISE")

	err = parseErr(t, "CASE OF x\n1 : IF x THEN\nENDCASE")
	assert.Contains(t, err.Error(), "unsupported statement in CASE clause")
}

func TestParseRoutinesAndTypes(t *testing.T) {
	prog := parse(t, `TYPE Student
  DECLARE Name : STRING
  DECLARE Age : INTEGER
ENDTYPE
PROCEDURE Inc(BYREF n : INTEGER)
  n ← n + 1
ENDPROCEDURE
FUNCTION Sq(n : INTEGER) RETURNS INTEGER
  RETURN n * n
ENDFUNCTION`)
	require.Len(t, prog.Statements, 3)
	td := prog.Statements[0].(*ast.TypeDefinition)
	assert.Equal(t, "Student", td.Name)
	assert.Len(t, td.Fields, 2)

	proc := prog.Statements[1].(*ast.ProcedureDefinition)
	assert.Equal(t, []ast.Param{{Name: "n", DataType: "INTEGER", ByRef: true}}, proc.Params)

	fn := prog.Statements[2].(*ast.FunctionDefinition)
	assert.Equal(t, "INTEGER", fn.Returns)
	assert.IsType(t, &ast.Return{}, fn.Body[0])
}

func TestParseTypeBodyRestricted(t *testing.T) {
	err := parseErr(t, "TYPE T\nOUTPUT 1\nENDTYPE")
	assert.Contains(t, err.Error(), "only DECLARE statements")
}

func TestParseMissingTerminator(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"FOR i ← 1 TO 3\nOUTPUT i", "line 1: missing NEXT i for FOR opened on line 1"},
		{"OUTPUT 0\nIF x THEN\nOUTPUT 1", "missing ENDIF for IF opened on line 2"},
		{"IF x THEN\nELSE\nOUTPUT 1", "missing ENDIF"},
		{"WHILE x\n", "missing ENDWHILE"},
		{"REPEAT\nx ← 1", "missing UNTIL"},
		{"CASE OF x\n1 : OUTPUT 1", "missing ENDCASE"},
		{"TYPE T\nDECLARE a : INTEGER", "missing ENDTYPE"},
		{"PROCEDURE P\nOUTPUT 1", "missing ENDPROCEDURE"},
		{"FUNCTION F RETURNS INTEGER\nRETURN 1", "missing ENDFUNCTION"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			err := parseErr(t, tt.src)
			assert.Contains(t, err.Error(), tt.want)
			kind, ok := diag.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, diag.Structural, kind)
		})
	}
}

func TestParseMismatchedNext(t *testing.T) {
	err := parseErr(t, "FOR i ← 1 TO 3\nNEXT j")
	assert.Contains(t, err.Error(), "NEXT j does not match FOR i")
}

func TestParseStrayTerminatorsSkipped(t *testing.T) {
	prog := parse(t, "ENDIF\nOUTPUT 1\nNEXT i\nENDWHILE\nOUTPUT 2")
	require.Len(t, prog.Statements, 2)
	assert.Equal(t, 5, prog.Statements[1].StmtLine())
}

func TestParseErrorColumns(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		line   int
		column int
	}{
		{"assignment value", "DECLARE total : INTEGER\n  total ← total + $", 2, 21},
		{"for bound", "FOR i1 ← 1 TO )\nNEXT i1", 1, 17},
		{"inline clause", "DECLARE x : INTEGER\nCASE OF x\n  1 : OUTPUT x +\nENDCASE", 3, 17},
		{"unrecognised line", "OUTPUT 1\n    OUTPT 2", 2, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseErr(t, tt.src)
			var de *diag.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.line, de.Pos.Line)
			assert.Equal(t, tt.column, de.Pos.Column)
		})
	}
}

func TestParseSourceStampsFile(t *testing.T) {
	_, err := ParseSource("OUTPT 1", "demo.pseudo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "demo.pseudo:1:")
}
