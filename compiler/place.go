package compiler

import (
	"fmt"
	"strings"

	"github.com/rubiojr/pseudo/ast"
	"github.com/rubiojr/pseudo/diag"
)

// place is a readable and writable location: a variable, an array
// element, a record field, or a field of an array element.
type place struct {
	sym   *symbol
	t     *Type
	idx   []string // element indices; nil for the whole variable
	field string   // Go field name; empty for the whole value
}

func (p place) whole() bool { return p.idx == nil && p.field == "" }

func (p place) indices() string { return strings.Join(p.idx, ", ") }

func (p place) load(line int) string {
	base := p.sym.goName
	switch {
	case p.idx != nil:
		base = fmt.Sprintf("%s.Load(%d, %s)", base, line, p.indices())
	case p.sym.kind != symConst && p.sym.Type.Kind != Array:
		base += ".V"
	}
	if p.field != "" {
		base += "." + p.field
	}
	return base
}

func (p place) store(line int, code string) GoStmt {
	switch {
	case p.idx != nil && p.field != "":
		return GoAssignStmt{Target: fmt.Sprintf("%s.Ref(%d, %s).%s", p.sym.goName, line, p.indices(), p.field), Op: "=", Value: GoRawExpr{Code: code}}
	case p.idx != nil:
		return GoExprStmt{Expr: GoRawExpr{Code: fmt.Sprintf("%s.Store(%d, %s, %s)", p.sym.goName, line, code, p.indices())}}
	case p.field != "":
		return GoAssignStmt{Target: p.sym.goName + ".V." + p.field, Op: "=", Value: GoRawExpr{Code: code}}
	}
	return GoExprStmt{Expr: GoMethodCallExpr{Object: GoIdentExpr{Name: p.sym.goName}, Method: "Put", Args: []GoExpr{GoRawExpr{Code: code}}}}
}

// place resolves a reference expression to its location.
func (g *codeGen) place(e ast.Expr, line int) place {
	switch ex := e.(type) {
	case *ast.Ident:
		sym := g.resolve(ex.Name, line)
		return place{sym: sym, t: sym.Type}
	case *ast.Index:
		sym := g.resolve(ex.Name, line)
		if sym.Type.Kind != Array {
			g.errorf(diag.Type, line, "%s is not an array", ex.Name)
		}
		if dims := sym.Type.Dims; dims > 0 && dims != len(ex.Indices) {
			g.errorf(diag.Type, line, "array %s has %d dimension(s), got %d index(es) in %s", ex.Name, dims, len(ex.Indices), ex)
		}
		idx := make([]string, len(ex.Indices))
		for i, ie := range ex.Indices {
			v := g.expr(ie, line)
			if v.t.Kind != Integer {
				g.errorf(diag.Type, line, "array index %s must be INTEGER, got %s", ie, v.t)
			}
			idx[i] = v.code
		}
		return place{sym: sym, t: sym.Type.Elem, idx: idx}
	case *ast.Field:
		p := g.place(ex.Target, line)
		if p.t.Kind != Record || p.field != "" {
			g.errorf(diag.Type, line, "%s is not a record", ex.Target)
		}
		f, ok := p.t.Record.field(ex.Name)
		if !ok {
			g.errorf(diag.Declaration, line, "TYPE %s has no field %s%s", p.t.Record.Name, ex.Name, diag.Hint(ex.Name, p.t.Record.fieldNames()))
		}
		p.t, p.field = f.Type, "f_"+f.Name
		return p
	}
	g.errorf(diag.Type, line, "%s is not a variable", e)
	return place{}
}

// target resolves the destination of an assignment, INPUT or READFILE.
func (g *codeGen) target(e ast.Expr, line int) place {
	p := g.place(e, line)
	if p.sym.kind == symConst {
		g.errorf(diag.Type, line, "cannot assign to constant %s (declared on line %d)", p.sym.Name, p.sym.Line)
	}
	return p
}
