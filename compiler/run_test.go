package compiler

import (
	"errors"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xyproto/env/v2"
)

// requireGo skips end-to-end tests when no Go toolchain is available.
func requireGo(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping end-to-end test in short mode")
	}
	if _, err := exec.LookPath(env.Str("PSEUDO_GO", "go")); err != nil {
		t.Skip("go toolchain not found")
	}
}

// setEnv sets name for the test through env, whose cache would not see a
// plain t.Setenv once loaded.
func setEnv(t *testing.T, name, value string) {
	t.Helper()
	old, had := os.LookupEnv(name)
	require.NoError(t, env.Set(name, value))
	t.Cleanup(func() {
		if had {
			env.Set(name, old)
			return
		}
		env.Unset(name)
		os.Unsetenv(name)
	})
}

func run(t *testing.T, src string, input ...string) []string {
	t.Helper()
	out, _, err := (&Compiler{}).RunCapture(src, input, nil)
	require.NoError(t, err)
	return out
}

func TestRunPrograms(t *testing.T) {
	requireGo(t)

	tests := []struct {
		name  string
		src   string
		input []string
		want  []string
	}{
		{
			"for total",
			`DECLARE total : INTEGER
total ← 0
FOR i ← 1 TO 5
  total ← total + i
NEXT i
OUTPUT total`,
			nil, []string{"15"},
		},
		{
			"for with negative step",
			`FOR i ← 5 TO 1 STEP -2
  OUTPUT i
NEXT i`,
			nil, []string{"5", "3", "1"},
		},
		{
			"case char range",
			`DECLARE g : CHAR
INPUT g
CASE OF g
  'A' TO 'C' : OUTPUT "good"
  OTHERWISE : OUTPUT "other"
ENDCASE`,
			[]string{"B"}, []string{"good"},
		},
		{
			"case otherwise",
			`DECLARE g : CHAR
INPUT g
CASE OF g
  'A' TO 'C' : OUTPUT "good"
  OTHERWISE : OUTPUT "other"
ENDCASE`,
			[]string{"Z"}, []string{"other"},
		},
		{
			"byref mutates caller",
			`PROCEDURE Inc(BYREF n : INTEGER)
  n ← n + 1
ENDPROCEDURE
PROCEDURE Keep(n : INTEGER)
  n ← n + 100
ENDPROCEDURE
DECLARE x : INTEGER
x ← 1
CALL Inc(x)
CALL Keep(x)
OUTPUT x`,
			nil, []string{"2"},
		},
		{
			"byref array element",
			`DECLARE a : ARRAY[1:3] OF INTEGER
PROCEDURE Put99(BYREF n : INTEGER)
  n ← 99
ENDPROCEDURE
a[1] ← 0
CALL Put99(a[1])
OUTPUT a[1]`,
			nil, []string{"99"},
		},
		{
			"real widening",
			`DECLARE r : REAL
r ← 5
OUTPUT r / 2
OUTPUT r`,
			nil, []string{"2.5", "5"},
		},
		{
			"recursion",
			`FUNCTION Fact(n : INTEGER) RETURNS INTEGER
  IF n <= 1 THEN
    RETURN 1
  ENDIF
  RETURN n * Fact(n - 1)
ENDFUNCTION
OUTPUT Fact(5)`,
			nil, []string{"120"},
		},
		{
			"records and strings",
			`TYPE Pupil
  DECLARE Name : STRING
  DECLARE Mark : INTEGER
ENDTYPE
DECLARE p : Pupil
p.Name ← "Ann"
p.Mark ← 7
OUTPUT p.Name & " scored " & NUM_TO_STR(p.Mark)
OUTPUT LENGTH(p.Name), TO_UPPER(p.Name)`,
			nil, []string{"Ann scored 7", "3ANN"},
		},
		{
			"repeat until",
			`DECLARE n : INTEGER
n ← 0
REPEAT
  n ← n + 1
UNTIL n = 3
OUTPUT n`,
			nil, []string{"3"},
		},
		{
			"for over a literal bound with a real step",
			`FOR x ← 0 TO 1 STEP 0.5
  OUTPUT x
NEXT x`,
			nil, []string{"0", "0.5", "1"},
		},
		{
			"for with a variable step",
			`DECLARE s : INTEGER
s ← 3
FOR i ← 1 TO 7 STEP s
  OUTPUT i
NEXT i`,
			nil, []string{"1", "4", "7"},
		},
		{
			"case on a literal subject",
			`DECLARE k : INTEGER
k ← 1
CASE OF 1
  k : OUTPUT "one"
  OTHERWISE : OUTPUT "other"
ENDCASE`,
			nil, []string{"one"},
		},
		{
			"case on an integer expression",
			`DECLARE n : INTEGER
n ← 7
CASE OF n MOD 3
  0 : OUTPUT "zero"
  1, 2 : OUTPUT "rest"
ENDCASE`,
			nil, []string{"rest"},
		},
		{
			"three dimensional array",
			`DECLARE a : ARRAY[1:2, 1:2, 1:2] OF INTEGER
a[2, 1, 2] ← 7
OUTPUT a[2, 1, 2]`,
			nil, []string{"7"},
		},
		{
			"input parsing",
			`DECLARE age : INTEGER
DECLARE ok : BOOLEAN
INPUT age
INPUT ok
IF ok AND age >= 18 THEN
  OUTPUT "adult"
ELSE
  OUTPUT "minor"
ENDIF`,
			[]string{"21", "TRUE"}, []string{"adult"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(t, tt.src, tt.input...))
		})
	}
}

func TestRunBuildFailure(t *testing.T) {
	failing, err := exec.LookPath("false")
	if err != nil {
		t.Skip("no false binary")
	}
	setEnv(t, "PSEUDO_GO", failing)
	setEnv(t, "PSEUDO_NO_CACHE", "1")

	_, _, err = (&Compiler{}).RunCapture("OUTPUT 1", nil, nil)
	require.Error(t, err)
	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
	assert.Contains(t, err.Error(), "go build failed")
}

func TestRunFiles(t *testing.T) {
	requireGo(t)

	src := `DECLARE text : STRING
OPENFILE "data.txt" FOR WRITE
WRITEFILE "data.txt", "hello"
WRITEFILE "data.txt", 42
CLOSEFILE "data.txt"
OPENFILE "data.txt" FOR READ
WHILE NOT EOF("data.txt")
  READFILE "data.txt", text
  OUTPUT text
ENDWHILE
CLOSEFILE "data.txt"
OPENFILE "seed.txt" FOR READ
READFILE "seed.txt", text
CLOSEFILE "seed.txt"
OUTPUT text`
	out, files, err := (&Compiler{}).RunCapture(src, nil, map[string][]string{"seed.txt": {"from seed"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "42", "from seed"}, out)
	assert.Equal(t, map[string][]string{"data.txt": {"hello", "42"}}, files)
}

func TestRunRuntimeErrors(t *testing.T) {
	requireGo(t)

	tests := []struct {
		name  string
		src   string
		input []string
		out   []string
		want  string
	}{
		{"unassigned variable", "DECLARE x : INTEGER\nIF FALSE THEN\n  x ← 1\nENDIF\nOUTPUT x", nil, nil,
			`line 5: variable "x" has no value`},
		{"division by zero", "DECLARE z : INTEGER\nz ← 0\nOUTPUT \"start\"\nOUTPUT 1 DIV z", nil, []string{"start"}, "line 4:"},
		{"index out of bounds", "DECLARE a : ARRAY[1:3] OF INTEGER\na[4] ← 1", nil, nil, "line 2:"},
		{"input exhausted", "DECLARE s : STRING\nINPUT s", nil, nil, "no more input"},
		{"bad integer input", "DECLARE n : INTEGER\nINPUT n", []string{"abc"}, nil, "is not an INTEGER"},
		{"missing file", "OPENFILE \"nope.txt\" FOR READ", nil, nil, "line 1:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := (&Compiler{}).RunCapture(tt.src, tt.input, nil)
			require.Error(t, err)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 1, exitErr.Code)
			assert.Contains(t, exitErr.Error(), tt.want)
			assert.Equal(t, tt.out, out)
		})
	}
}
