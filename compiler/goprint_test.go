package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintGoFile_Minimal(t *testing.T) {
	f := &GoFile{
		Package: "main",
		Init: []GoStmt{
			GoExprStmt{Expr: GoCallExpr{Func: "rtMain", Args: []GoExpr{GoIdentExpr{Name: "program"}}}},
		},
	}
	got := PrintGoFile(f)
	assert.Contains(t, got, "package main\n")
	assert.Contains(t, got, "func main() {\n")
	assert.Contains(t, got, "\trtMain(program)\n")
	assert.Contains(t, got, "}\n")
}

func TestPrintGoFile_Imports(t *testing.T) {
	f := &GoFile{
		Package: "main",
		Imports: []GoImport{
			{Path: "fmt"},
			{Path: "time"},
		},
	}
	got := PrintGoFile(f)
	assert.Contains(t, got, "import (\n")
	assert.Contains(t, got, "\t\"fmt\"\n")
	assert.Contains(t, got, "\t\"time\"\n")
	assert.Contains(t, got, ")\n")
}

func TestPrintGoFile_VarDecl(t *testing.T) {
	f := &GoFile{
		Package: "main",
		Decls: []GoDecl{
			GoVarDecl{Name: "v_Total", Type: "rtCell[int64]"},
			GoVarDecl{Name: "c_Max", Type: "int64", Value: GoRawExpr{Code: "42"}},
		},
	}
	got := PrintGoFile(f)
	assert.Contains(t, got, "var v_Total rtCell[int64]\n")
	assert.Contains(t, got, "var c_Max int64 = 42\n")
}

func TestPrintGoFile_TypeDecl(t *testing.T) {
	f := &GoFile{
		Package: "main",
		Decls: []GoDecl{
			GoTypeDecl{Name: "T_Student", Fields: []GoParam{
				{Name: "f_Name", Type: "string"},
				{Name: "f_Mark", Type: "int64"},
			}},
		},
	}
	got := PrintGoFile(f)
	assert.Contains(t, got, "type T_Student struct {\n\tf_Name string\n\tf_Mark int64\n}\n")
}

func TestPrintGoFile_FuncDecl(t *testing.T) {
	f := &GoFile{
		Package: "main",
		Decls: []GoDecl{
			GoFuncDecl{
				Name:   "fn_Add",
				Params: []GoParam{{Name: "v_A", Type: "rtCell[int64]"}, {Name: "v_B", Type: "*rtCell[int64]"}},
				Return: "int64",
				Body: []GoStmt{
					GoReturnStmt{Value: GoRawExpr{Code: "v_A.V + v_B.V"}},
				},
			},
		},
	}
	got := PrintGoFile(f)
	assert.Contains(t, got, "func fn_Add(v_A rtCell[int64], v_B *rtCell[int64]) int64 {\n")
	assert.Contains(t, got, "\treturn v_A.V + v_B.V\n")
	assert.Contains(t, got, "}\n")
}

func TestPrintGoFile_IfElse(t *testing.T) {
	f := &GoFile{
		Package: "main",
		Init: []GoStmt{
			GoIfStmt{
				Cond: GoRawExpr{Code: "v_X.V > 0"},
				Body: []GoStmt{
					GoExprStmt{Expr: GoRawExpr{Code: `rtOutput("positive")`}},
				},
				ElseIf: []GoElseIf{
					{
						Cond: GoRawExpr{Code: "v_X.V == 0"},
						Body: []GoStmt{
							GoExprStmt{Expr: GoRawExpr{Code: `rtOutput("zero")`}},
						},
					},
				},
				Else: []GoStmt{
					GoExprStmt{Expr: GoRawExpr{Code: `rtOutput("negative")`}},
				},
			},
		},
	}
	got := PrintGoFile(f)
	assert.Contains(t, got, "\tif v_X.V > 0 {\n")
	assert.Contains(t, got, "\t\trtOutput(\"positive\")\n")
	assert.Contains(t, got, "\t} else if v_X.V == 0 {\n")
	assert.Contains(t, got, "\t} else {\n")
	assert.Contains(t, got, "\t\trtOutput(\"negative\")\n")
}

func TestPrintGoFile_IfEmptyElseOmitted(t *testing.T) {
	f := &GoFile{
		Package: "main",
		Init:    []GoStmt{GoIfStmt{Cond: GoBoolLit{Value: true}, Else: []GoStmt{}}},
	}
	got := PrintGoFile(f)
	assert.NotContains(t, got, "else")
}

func TestPrintGoFile_ForLoop(t *testing.T) {
	f := &GoFile{
		Package: "main",
		Init: []GoStmt{
			GoForStmt{
				Init: "v_I.Put(1)",
				Cond: "v_I.V <= to1",
				Post: "v_I.V++",
				Body: []GoStmt{
					GoExprStmt{Expr: GoRawExpr{Code: "rtOutput(rtFmtInt(v_I.V))"}},
				},
			},
		},
	}
	got := PrintGoFile(f)
	assert.Contains(t, got, "\tfor v_I.Put(1); v_I.V <= to1; v_I.V++ {\n")
	assert.Contains(t, got, "\t\trtOutput(rtFmtInt(v_I.V))\n")
}

func TestPrintGoFile_WhileLoop(t *testing.T) {
	f := &GoFile{
		Package: "main",
		Init: []GoStmt{
			GoForStmt{
				Cond: "v_N.V > 0",
				Body: []GoStmt{GoBreakStmt{}},
			},
		},
	}
	got := PrintGoFile(f)
	assert.Contains(t, got, "\tfor v_N.V > 0 {\n")
	assert.Contains(t, got, "\t\tbreak\n")
}

func TestPrintGoFile_InfiniteLoop(t *testing.T) {
	f := &GoFile{
		Package: "main",
		Init: []GoStmt{
			GoForStmt{Body: []GoStmt{
				GoIfStmt{Cond: GoRawExpr{Code: "v_Done.V"}, Body: []GoStmt{GoBreakStmt{}}},
			}},
		},
	}
	got := PrintGoFile(f)
	assert.Contains(t, got, "\tfor {\n\t\tif v_Done.V {\n\t\t\tbreak\n\t\t}\n\t}\n")
}

func TestPrintGoFile_IfChainInBlock(t *testing.T) {
	f := &GoFile{
		Package: "main",
		Init: []GoStmt{
			GoBlockStmt{Body: []GoStmt{
				GoVarStmt{Name: "sel1", Type: "rune", Value: GoRawExpr{Code: "v_Grade.V"}},
				GoIfStmt{
					Cond: GoBinaryExpr{
						Left:  GoBinaryExpr{Left: GoIdentExpr{Name: "sel1"}, Op: ">=", Right: GoRawExpr{Code: "'A'"}},
						Op:    "&&",
						Right: GoBinaryExpr{Left: GoIdentExpr{Name: "sel1"}, Op: "<=", Right: GoRawExpr{Code: "'C'"}},
					},
					Body: []GoStmt{GoExprStmt{Expr: GoCallExpr{Func: "rtOutput", Args: []GoExpr{GoStringLit{Value: "pass"}}}}},
					Else: []GoStmt{GoExprStmt{Expr: GoCallExpr{Func: "rtOutput", Args: []GoExpr{GoStringLit{Value: "fail"}}}}},
				},
			}},
		},
	}
	got := PrintGoFile(f)
	assert.Contains(t, got, "\t{\n\t\tvar sel1 rune = v_Grade.V\n")
	assert.Contains(t, got, "\t\tif sel1 >= 'A' && sel1 <= 'C' {\n\t\t\trtOutput(\"pass\")\n\t\t} else {\n")
}

func TestPrintGoFile_Comment(t *testing.T) {
	f := &GoFile{
		Package: "main",
		Decls: []GoDecl{
			GoComment{Text: "PROCEDURE Swap, line 3"},
			GoFuncDecl{Name: "p_Swap", Body: []GoStmt{GoComment{Text: "body"}}},
		},
	}
	got := PrintGoFile(f)
	assert.Contains(t, got, "// PROCEDURE Swap, line 3\nfunc p_Swap() {\n\t// body\n}\n")
}

func TestPrintGoFile_Assign(t *testing.T) {
	f := &GoFile{
		Package: "main",
		Init: []GoStmt{
			GoAssignStmt{Target: "ref1", Op: ":=", Value: GoRawExpr{Code: "&rtCell[int64]{V: 1, Set: true}"}},
			GoAssignStmt{Target: "_", Op: "=", Value: GoIdentExpr{Name: "ref1"}},
		},
	}
	got := PrintGoFile(f)
	assert.Contains(t, got, "\tref1 := &rtCell[int64]{V: 1, Set: true}\n")
	assert.Contains(t, got, "\t_ = ref1\n")
}

func TestPrintGoFile_RawDecl(t *testing.T) {
	f := &GoFile{
		Package: "main",
		Decls: []GoDecl{
			GoRawDecl{Code: "type rtCell[T any] struct {\n\tV   T\n\tSet bool\n}\n"},
		},
	}
	got := PrintGoFile(f)
	assert.Contains(t, got, "type rtCell[T any] struct {\n\tV   T\n\tSet bool\n}\n")
}

func TestPrintGoFile_NestedIndent(t *testing.T) {
	f := &GoFile{
		Package: "main",
		Decls: []GoDecl{
			GoFuncDecl{
				Name: "p_Work",
				Body: []GoStmt{
					GoIfStmt{
						Cond: GoRawExpr{Code: "true"},
						Body: []GoStmt{
							GoForStmt{
								Cond: "v_I.V < 10",
								Body: []GoStmt{
									GoExprStmt{Expr: GoRawExpr{Code: "work()"}},
								},
							},
						},
					},
				},
			},
		},
	}
	got := PrintGoFile(f)
	for _, line := range strings.Split(got, "\n") {
		if strings.Contains(line, "work()") {
			assert.True(t, strings.HasPrefix(line, "\t\t\t"), "expected 3 tabs, got: %q", line)
		}
	}
}

func TestPrintGoFile_BareReturn(t *testing.T) {
	f := &GoFile{
		Package: "main",
		Decls: []GoDecl{
			GoFuncDecl{
				Name: "p_Noop",
				Body: []GoStmt{GoReturnStmt{}},
			},
		},
	}
	got := PrintGoFile(f)
	assert.Contains(t, got, "\treturn\n")
}

func TestPrinter_Exprs(t *testing.T) {
	tests := []struct {
		name string
		expr GoExpr
		want string
	}{
		{"ident", GoIdentExpr{Name: "v_X"}, "v_X"},
		{"int", GoIntLit{Value: "42"}, "42"},
		{"string", GoStringLit{Value: `a\"b`}, `"a\"b"`},
		{"true", GoBoolLit{Value: true}, "true"},
		{"false", GoBoolLit{Value: false}, "false"},
		{"binary", GoBinaryExpr{Left: GoIdentExpr{Name: "a"}, Op: "+", Right: GoIntLit{Value: "1"}}, "a + 1"},
		{"unary", GoUnaryExpr{Op: "!", Operand: GoIdentExpr{Name: "ok"}}, "!ok"},
		{"call", GoCallExpr{Func: "rtDiv", Args: []GoExpr{GoIntLit{Value: "3"}, GoIdentExpr{Name: "a"}, GoIdentExpr{Name: "b"}}}, "rtDiv(3, a, b)"},
		{"call no args", GoCallExpr{Func: "rtTODAY"}, "rtTODAY()"},
		{"method", GoMethodCallExpr{Object: GoIdentExpr{Name: "v_X"}, Method: "Put", Args: []GoExpr{GoIntLit{Value: "5"}}}, "v_X.Put(5)"},
		{"dot", GoDotExpr{Object: GoIdentExpr{Name: "v_X"}, Field: "Set"}, "v_X.Set"},
		{"paren", GoParenExpr{Inner: GoBinaryExpr{Left: GoIdentExpr{Name: "a"}, Op: "+", Right: GoIdentExpr{Name: "b"}}}, "(a + b)"},
		{"negated method", GoUnaryExpr{Op: "!", Operand: GoMethodCallExpr{Object: GoIdentExpr{Name: "d"}, Method: "Before", Args: []GoExpr{GoIdentExpr{Name: "e"}}}}, "!d.Before(e)"},
		{"nested binary", GoBinaryExpr{Left: GoParenExpr{Inner: GoBinaryExpr{Left: GoIdentExpr{Name: "a"}, Op: "||", Right: GoIdentExpr{Name: "b"}}}, Op: "&&", Right: GoIdentExpr{Name: "c"}}, "(a || b) && c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, goExprString(tt.expr))
		})
	}
}
