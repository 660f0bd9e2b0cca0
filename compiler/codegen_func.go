package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rubiojr/pseudo/ast"
	"github.com/rubiojr/pseudo/diag"
)

// callable reports whether name is a library or user FUNCTION.
func (g *codeGen) callable(name string) bool {
	if _, ok := builtins[name]; ok {
		return true
	}
	r, ok := g.routines[name]
	return ok && r.function()
}

func (g *codeGen) functionNames() []string {
	names := BuiltinNames()
	var user []string
	for n := range g.routines {
		user = append(user, n)
	}
	sort.Strings(user)
	return append(names, user...)
}

// call compiles a function call inside an expression.
func (g *codeGen) call(c *ast.CallExpr, line int) value {
	if r, ok := g.routines[c.Name]; ok {
		if !r.function() {
			g.errorf(diag.Type, line, "PROCEDURE %s does not return a value: use CALL %s(...)", c.Name, c.Name)
		}
		args, pre, _ := g.args(r, c.Args, line, false)
		if len(pre) > 0 {
			g.errorf(diag.Type, line, "internal: copy-in arguments in expression")
		}
		return value{code: fmt.Sprintf("%s(%s)", r.goName(), strings.Join(args, ", ")), t: r.Returns, src: c}
	}
	if _, ok := builtins[c.Name]; ok {
		return g.builtinCall(c, line, false)
	}
	if sym := g.scope.lookup(c.Name); sym != nil {
		g.errorf(diag.Type, line, "%s is a variable, not a function", c.Name)
	}
	g.errorf(diag.Declaration, line, "unknown function %s%s", c.Name, diag.Hint(c.Name, g.functionNames()))
	return value{}
}

// builtinCall compiles a library call. asInt selects the INTEGER form of
// STR_TO_NUM.
func (g *codeGen) builtinCall(c *ast.CallExpr, line int, asInt bool) value {
	b := builtins[c.Name]
	if len(c.Args) != len(b.Params) {
		g.errorf(diag.Type, line, "%s expects %d argument(s), got %d", c.Name, len(b.Params), len(c.Args))
	}
	var args []string
	if b.Line {
		args = append(args, fmt.Sprint(line))
	}
	for i, a := range c.Args {
		v := g.expr(a, line)
		args = append(args, g.coerce(v, b.Params[i], line, fmt.Sprintf("pass argument %d of %s", i+1, c.Name)))
	}
	fn, ret := "rt"+c.Name, b.Return
	if asInt {
		fn, ret = "rtSTR_TO_INT", tInteger
	}
	return value{code: fmt.Sprintf("%s(%s)", fn, strings.Join(args, ", ")), t: ret, src: c, builtin: true}
}

// args compiles the arguments of a user routine call. BYREF arguments
// that are array elements or record fields go through a temporary cell
// when copy is set: pre fills it and post writes it back.
func (g *codeGen) args(r *routine, in []ast.Expr, line int, copy bool) (out []string, pre, post []GoStmt) {
	if len(in) != len(r.Params) {
		g.errorf(diag.Type, line, "%s %s expects %d argument(s), got %d", r.kind(), r.Name, len(r.Params), len(in))
	}
	for i, a := range in {
		p, t := r.Params[i], r.types[i]
		what := fmt.Sprintf("pass %s to parameter %s of %s", a, p.Name, r.Name)
		switch {
		case t.Kind == Array:
			v := g.expr(a, line)
			if v.t.Kind != Array || !v.t.same(t) {
				g.errorf(diag.Type, line, "type mismatch: cannot %s: %s is %s, expected %s", what, a, v.t, t)
			}
			if p.ByRef {
				out = append(out, v.code)
			} else {
				out = append(out, fmt.Sprintf("%s.Clone(%d)", v.code, line))
			}
		case !p.ByRef:
			v := g.exprWant(a, t, line)
			out = append(out, fmt.Sprintf("%s{V: %s, Set: true}", t.cellType(), g.coerce(v, t, line, what)))
		default:
			out = append(out, g.refArg(a, t, line, what, copy, &pre, &post))
		}
	}
	return out, pre, post
}

// refArg returns a pointer to the cell passed for a BYREF parameter.
func (g *codeGen) refArg(a ast.Expr, t *Type, line int, what string, copy bool, pre, post *[]GoStmt) string {
	var p place
	switch a.(type) {
	case *ast.Ident, *ast.Index, *ast.Field:
		p = g.place(a, line)
	default:
		g.errorf(diag.Type, line, "cannot %s: a BYREF argument must be a variable", what)
	}
	if p.sym.kind == symConst {
		g.errorf(diag.Type, line, "cannot %s: constant %s cannot be passed BYREF", what, p.sym.Name)
	}
	if !p.t.same(t) {
		g.errorf(diag.Type, line, "type mismatch: cannot %s: %s is %s, BYREF needs exactly %s", what, a, p.t, t)
	}
	if p.whole() {
		if p.sym.ref {
			return p.sym.goName
		}
		return "&" + p.sym.goName
	}
	if !copy {
		g.errorf(diag.Type, line, "cannot %s: pass array elements and fields BYREF with CALL only", what)
	}
	tmp := g.temp("ref")
	*pre = append(*pre, GoAssignStmt{Target: tmp, Op: ":=", Value: GoRawExpr{
		Code: fmt.Sprintf("&%s{V: %s, Set: true}", t.cellType(), p.load(line)),
	}})
	*post = append(*post, p.store(line, tmp+".V"))
	return tmp
}
