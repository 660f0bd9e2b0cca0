package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rubiojr/pseudo/ast"
	"github.com/rubiojr/pseudo/diag"
)

// block compiles a statement list in the current scope.
func (g *codeGen) block(stmts []ast.Statement) []GoStmt {
	var out []GoStmt
	for _, s := range stmts {
		out = append(out, g.stmt(s)...)
	}
	return out
}

// condBlock compiles a body that may not run: it gets its own scope, and
// the init state of outer variables is restored afterwards.
func (g *codeGen) condBlock(stmts []ast.Statement) []GoStmt {
	g.push()
	saved := g.saveInit()
	out := g.block(stmts)
	g.restoreInit(saved)
	g.pop()
	return out
}

// stmt compiles one statement, preceded by the guards of the variables it
// reads.
func (g *codeGen) stmt(s ast.Statement) []GoStmt {
	g.takeGuards()
	var out []GoStmt
	switch st := s.(type) {
	case *ast.Constant:
		return nil
	case *ast.Declare:
		g.decls[st].declared = true
		return nil
	case *ast.DeclareArray:
		out = g.declareArray(st)
	case *ast.Assignment:
		out = g.assign(&ast.Ident{Name: st.Name}, st.Value, st.SourceLine)
	case *ast.AssignRecordField:
		out = g.assign(&ast.Field{Target: &ast.Ident{Name: st.Name}, Name: st.Field}, st.Value, st.SourceLine)
	case *ast.AssignArrayElement:
		out = g.assign(&ast.Index{Name: st.Name, Indices: st.Indices}, st.Value, st.SourceLine)
	case *ast.AssignArrayRecordField:
		out = g.assign(&ast.Field{Target: &ast.Index{Name: st.Name, Indices: st.Indices}, Name: st.Field}, st.Value, st.SourceLine)
	case *ast.Output:
		out = g.output(st)
	case *ast.Input:
		out = g.input(st)
	case *ast.Call:
		return g.callStmt(st)
	case *ast.OpenFile:
		out = g.openFile(st)
	case *ast.CloseFile:
		f := g.fileName(st.File, st.SourceLine)
		out = []GoStmt{rawStmt("rtCloseFile(%d, %s)", st.SourceLine, f)}
	case *ast.ReadFile:
		out = g.readFile(st)
	case *ast.WriteFile:
		f := g.fileName(st.File, st.SourceLine)
		v := g.expr(st.Value, st.SourceLine)
		out = []GoStmt{rawStmt("rtWriteFile(%d, %s, %s)", st.SourceLine, f, g.format(v, st.SourceLine, "WRITEFILE"))}
	case *ast.Return:
		out = g.returnStmt(st)
	case *ast.If:
		return g.ifStmt(st)
	case *ast.Case:
		return g.caseStmt(st)
	case *ast.While:
		return g.whileStmt(st)
	case *ast.Repeat:
		return g.repeatStmt(st)
	case *ast.For:
		return g.forStmt(st)
	case *ast.TypeDefinition, *ast.ProcedureDefinition, *ast.FunctionDefinition:
		g.errorf(diag.Structural, s.StmtLine(), "definitions must be at the top level")
	default:
		g.errorf(diag.Structural, s.StmtLine(), "unsupported statement %T", s)
	}
	return append(g.takeGuards(), out...)
}

func rawStmt(format string, args ...any) GoStmt {
	return GoExprStmt{Expr: GoRawExpr{Code: fmt.Sprintf(format, args...)}}
}

func (g *codeGen) declareArray(d *ast.DeclareArray) []GoStmt {
	sym := g.decls[d]
	args := []string{strconv.Quote(d.Name), strconv.Itoa(d.SourceLine)}
	for _, b := range d.Bounds {
		for _, e := range []ast.Expr{b.Lower, b.Upper} {
			v := g.expr(e, d.SourceLine)
			if v.t.Kind != Integer {
				g.errorf(diag.Type, d.SourceLine, "array bound %s must be INTEGER, got %s", e, v.t)
			}
			args = append(args, v.code)
		}
	}
	if lo, okLo := ast.IntValue(d.Bounds[0].Lower); okLo {
		if hi, okHi := ast.IntValue(d.Bounds[0].Upper); okHi && hi < lo {
			g.errorf(diag.Type, d.SourceLine, "invalid bounds %d:%d for array %s", lo, hi, d.Name)
		}
	}
	sym.declared = true
	return []GoStmt{GoAssignStmt{
		Target: sym.goName,
		Op:     "=",
		Value:  GoRawExpr{Code: fmt.Sprintf("rtNewArray[%s](%s)", sym.Type.Elem.GoType(), strings.Join(args, ", "))},
	}}
}

// assign compiles target ← value for every target shape.
func (g *codeGen) assign(target, val ast.Expr, line int) []GoStmt {
	p := g.target(target, line)
	if p.whole() && p.t.Kind == Array {
		v := g.expr(val, line)
		if v.t.Kind != Array || !v.t.Elem.same(p.t.Elem) {
			g.errorf(diag.Type, line, "type mismatch: cannot assign %s (%s) to array %s (%s)", val, v.t, p.sym.Name, p.t)
		}
		if v.t.Dims > 0 && p.t.Dims > 0 && v.t.Dims != p.t.Dims {
			g.errorf(diag.Type, line, "cannot assign %d-dimensional array %s to %d-dimensional array %s", v.t.Dims, val, p.t.Dims, p.sym.Name)
		}
		return []GoStmt{rawStmt("%s.CopyFrom(%d, %s)", p.sym.goName, line, v.code)}
	}
	v := g.exprWant(val, p.t, line)
	code := g.coerce(v, p.t, line, "assign to "+target.String())
	if p.whole() {
		g.assigned(p.sym)
	}
	return []GoStmt{p.store(line, code)}
}

func (g *codeGen) output(o *ast.Output) []GoStmt {
	parts := make([]GoExpr, len(o.Values))
	for i, e := range o.Values {
		parts[i] = GoRawExpr{Code: g.format(g.expr(e, o.SourceLine), o.SourceLine, "OUTPUT")}
	}
	return []GoStmt{GoExprStmt{Expr: GoCallExpr{Func: "rtOutput", Args: parts}}}
}

func (g *codeGen) input(in *ast.Input) []GoStmt {
	p := g.target(in.Target, in.SourceLine)
	what := "INPUT " + in.Target.String()
	src := fmt.Sprintf("rtInput(%d, %q)", in.SourceLine, in.Target.String())
	code := g.parse(p.t, src, in.SourceLine, what)
	if p.whole() {
		g.assigned(p.sym)
	}
	return []GoStmt{p.store(in.SourceLine, code)}
}

func (g *codeGen) callStmt(c *ast.Call) []GoStmt {
	line := c.SourceLine
	r, ok := g.routines[c.Name]
	if !ok {
		if _, lib := builtins[c.Name]; lib {
			g.errorf(diag.Type, line, "%s is a built-in function: use its result in an expression instead of CALL", c.Name)
		}
		g.errorf(diag.Declaration, line, "unknown procedure %s%s", c.Name, diag.Hint(c.Name, g.procedureNames()))
	}
	if r.function() {
		g.errorf(diag.Type, line, "%s is a FUNCTION: use its result in an expression instead of CALL", c.Name)
	}
	args, pre, post := g.args(r, c.Args, line, true)
	call := GoExprStmt{Expr: GoCallExpr{Func: r.goName(), Args: rawExprs(args)}}
	guards := g.takeGuards()
	if len(pre) == 0 {
		return append(guards, call)
	}
	body := append(pre, call)
	body = append(body, post...)
	return append(guards, GoBlockStmt{Body: body})
}

func (g *codeGen) procedureNames() []string {
	var names []string
	for n, r := range g.routines {
		if !r.function() {
			names = append(names, n)
		}
	}
	return names
}

func rawExprs(codes []string) []GoExpr {
	out := make([]GoExpr, len(codes))
	for i, c := range codes {
		out[i] = GoRawExpr{Code: c}
	}
	return out
}

// fileName compiles a file name operand, a STRING or CHAR value.
func (g *codeGen) fileName(e ast.Expr, line int) string {
	v := g.expr(e, line)
	if !v.t.textual() {
		g.errorf(diag.Type, line, "file name %s must be a STRING, got %s", e, v.t)
	}
	return goExprString(textOperand(v))
}

func (g *codeGen) openFile(o *ast.OpenFile) []GoStmt {
	f := g.fileName(o.File, o.SourceLine)
	return []GoStmt{rawStmt("rtOpenFile(%d, %s, %q)", o.SourceLine, f, o.Mode)}
}

func (g *codeGen) readFile(r *ast.ReadFile) []GoStmt {
	f := g.fileName(r.File, r.SourceLine)
	p := g.target(r.Target, r.SourceLine)
	src := fmt.Sprintf("rtReadFile(%d, %s)", r.SourceLine, f)
	code := g.parse(p.t, src, r.SourceLine, "READFILE "+r.Target.String())
	if p.whole() {
		g.assigned(p.sym)
	}
	return []GoStmt{p.store(r.SourceLine, code)}
}

func (g *codeGen) returnStmt(r *ast.Return) []GoStmt {
	rt := g.current
	if !rt.function() {
		if r.Value != nil {
			g.errorf(diag.Type, r.SourceLine, "PROCEDURE %s cannot RETURN a value", rt.Name)
		}
		return []GoStmt{GoReturnStmt{}}
	}
	if r.Value == nil {
		g.errorf(diag.Type, r.SourceLine, "FUNCTION %s must RETURN a %s value", rt.Name, rt.Returns)
	}
	v := g.exprWant(r.Value, rt.Returns, r.SourceLine)
	code := g.coerce(v, rt.Returns, r.SourceLine, "RETURN from "+rt.Name)
	return []GoStmt{GoReturnStmt{Value: GoRawExpr{Code: code}}}
}
