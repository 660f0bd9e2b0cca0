package compiler

import (
	"fmt"
	"strconv"

	"github.com/rubiojr/pseudo/ast"
	"github.com/rubiojr/pseudo/diag"
)

// branches compiles the alternative bodies of an IF or CASE. When one of
// them always runs, a variable assigned in every body is known to hold a
// value afterwards.
func (g *codeGen) branches(bodies [][]ast.Statement, exhaustive bool) [][]GoStmt {
	before := g.saveInit()
	out := make([][]GoStmt, len(bodies))
	after := make([]initState, len(bodies))
	for i, body := range bodies {
		g.push()
		out[i] = g.block(body)
		after[i] = g.saveInit()
		g.pop()
		g.restoreInit(before)
	}
	if !exhaustive || len(bodies) == 0 {
		return out
	}
	for sym, was := range before {
		if was {
			continue
		}
		all := true
		for _, st := range after {
			all = all && st[sym]
		}
		sym.init = all
	}
	return out
}

func (g *codeGen) ifStmt(s *ast.If) []GoStmt {
	c := g.cond(s.Cond, s.SourceLine, "IF")
	guards := g.takeGuards()
	bodies := [][]ast.Statement{s.Then}
	if s.Else != nil {
		bodies = append(bodies, s.Else)
	}
	out := g.branches(bodies, s.Else != nil)
	ifs := GoIfStmt{Cond: c.node(), Body: out[0]}
	if s.Else != nil {
		ifs.Else = out[1]
	}
	return append(guards, ifs)
}

// caseStmt compiles CASE OF into a chain of conditionals over a typed
// temporary that holds the subject, evaluated once. OTHERWISE is the final
// else, or the whole body when there are no clauses.
func (g *codeGen) caseStmt(s *ast.Case) []GoStmt {
	line := s.SourceLine
	subj := g.expr(s.Subject, line)
	switch subj.t.Kind {
	case Record, Array:
		g.errorf(diag.Type, line, "CASE OF needs a scalar value, got %s %s", subj.t, s.Subject)
	}
	sel := g.temp("sel")
	selv := value{code: sel, t: subj.t}

	conds := make([]GoExpr, len(s.Clauses))
	for i, cl := range s.Clauses {
		conds[i] = g.clauseCond(selv, cl)
	}
	guards := g.takeGuards()

	bodies := make([][]ast.Statement, 0, len(s.Clauses)+1)
	for _, cl := range s.Clauses {
		bodies = append(bodies, cl.Body)
	}
	if s.Otherwise != nil {
		bodies = append(bodies, s.Otherwise.Body)
	}
	out := g.branches(bodies, s.Otherwise != nil)

	block := append(guards, GoVarStmt{Name: sel, Type: subj.t.GoType(), Value: GoRawExpr{Code: subj.code}})
	if len(s.Clauses) == 0 {
		block = append(block, GoAssignStmt{Target: "_", Op: "=", Value: GoIdentExpr{Name: sel}})
		if s.Otherwise != nil {
			block = append(block, out[0]...)
		}
		return []GoStmt{GoBlockStmt{Body: block}}
	}
	chain := GoIfStmt{Cond: conds[0], Body: out[0]}
	for i := 1; i < len(s.Clauses); i++ {
		chain.ElseIf = append(chain.ElseIf, GoElseIf{Cond: conds[i], Body: out[i]})
	}
	if s.Otherwise != nil {
		chain.Else = out[len(out)-1]
	}
	return []GoStmt{GoBlockStmt{Body: append(block, chain)}}
}

// clauseCond builds the test of one CASE clause: equality for single
// values, a disjunction for lists and a bounds test for ranges.
func (g *codeGen) clauseCond(sel value, cl *ast.CaseClause) GoExpr {
	line := cl.Line
	cmp := func(op string, e ast.Expr) GoExpr {
		v := g.exprWant(e, sel.t, line)
		if sel.t.Kind == Char && v.t.Kind == String {
			v = value{code: g.coerce(v, tChar, line, "compare CASE value"), t: tChar, src: e}
		}
		return g.compare(op, sel, v, line).node()
	}
	if cl.Form == ast.ValueRange {
		return GoBinaryExpr{Left: cmp(">=", cl.Low), Op: "&&", Right: cmp("<=", cl.High)}
	}
	var cond GoExpr
	for _, e := range cl.Values {
		c := cmp("=", e)
		if cond == nil {
			cond = c
			continue
		}
		cond = GoBinaryExpr{Left: cond, Op: "||", Right: c}
	}
	return cond
}

// whileStmt checks the condition before each pass. Guards run once: a
// variable that holds a value never loses it.
func (g *codeGen) whileStmt(s *ast.While) []GoStmt {
	c := g.cond(s.Cond, s.SourceLine, "WHILE")
	guards := g.takeGuards()
	body := g.condBlock(s.Body)
	return append(guards, GoForStmt{Cond: goExprString(c.node()), Body: body})
}

// repeatStmt runs the body at least once, so assignments in it count.
func (g *codeGen) repeatStmt(s *ast.Repeat) []GoStmt {
	g.push()
	body := g.block(s.Body)
	g.pop()
	line := s.EndLine
	if line == 0 {
		line = s.SourceLine
	}
	c := g.cond(s.Until, line, "UNTIL")
	body = append(body, g.takeGuards()...)
	body = append(body, GoIfStmt{Cond: c.node(), Body: []GoStmt{GoBreakStmt{}}})
	return []GoStmt{GoForStmt{Body: body}}
}

// forStmt compiles a counted loop. The bound and step are evaluated once;
// a literal step picks the comparison statically, any other step is
// checked for zero and compared at run time.
func (g *codeGen) forStmt(s *ast.For) []GoStmt {
	line := s.SourceLine
	from := g.expr(s.From, line)
	to := g.expr(s.To, line)
	var step *value
	if s.Step != nil {
		v := g.expr(s.Step, line)
		step = &v
	}
	for _, v := range []*value{&from, &to, step} {
		if v != nil && !v.t.numeric() {
			g.errorf(diag.Type, line, "FOR %s bounds must be INTEGER or REAL, got %s %s", s.Var, v.t, v.src)
		}
	}

	sym := g.scope.lookup(s.Var)
	implicit := sym == nil
	g.push()
	defer g.pop()
	if implicit {
		t := tInteger
		for _, v := range []*value{&from, &to, step} {
			if v != nil && v.t.Kind == Real {
				t = tReal
			}
		}
		sym = &symbol{Name: s.Var, Type: t, Line: line, kind: symLoop, declared: true}
		g.declare(sym)
	} else {
		sym = g.target(&ast.Ident{Name: s.Var}, line).sym
		if !sym.Type.numeric() {
			g.errorf(diag.Type, line, "FOR variable %s must be INTEGER or REAL, got %s", s.Var, sym.Type)
		}
	}
	t := sym.Type
	what := "use as FOR " + s.Var + " bound"
	fromCode := g.coerce(from, t, line, what)
	toCode := g.coerce(to, t, line, what)

	block := g.takeGuards()
	if implicit {
		block = append(block, GoVarStmt{Name: sym.goName, Type: t.cellType()})
	}
	toTmp := g.temp("to")
	block = append(block, GoVarStmt{Name: toTmp, Type: t.GoType(), Value: GoRawExpr{Code: toCode}})

	v := sym.goName + ".V"
	loop := GoForStmt{Init: sym.goName + ".Put(" + fromCode + ")"}
	switch {
	case step == nil:
		loop.Cond = v + " <= " + toTmp
		loop.Post = v + "++"
	default:
		stepCode := g.coerce(*step, t, line, "use as FOR "+s.Var+" STEP")
		if sign, ok := literalSign(s.Step); ok {
			if sign == 0 {
				g.errorf(diag.Type, line, "FOR %s STEP cannot be 0", s.Var)
			}
			op := " <= "
			if sign < 0 {
				op = " >= "
			}
			loop.Cond = v + op + toTmp
			loop.Post = v + " += " + stepCode
			break
		}
		stepTmp := g.temp("step")
		block = append(block, GoVarStmt{Name: stepTmp, Type: t.GoType(), Value: GoRawExpr{
			Code: fmt.Sprintf("rtStep[%s](%d, %s)", t.GoType(), line, stepCode),
		}})
		loop.Cond = fmt.Sprintf("rtForCond(%s, %s, %s)", v, toTmp, stepTmp)
		loop.Post = v + " += " + stepTmp
	}

	g.assigned(sym)
	saved := g.saveInit()
	sym.init = true
	loop.Body = g.condBlock(s.Body)
	g.restoreInit(saved)
	g.assigned(sym)
	return []GoStmt{GoBlockStmt{Body: append(block, loop)}}
}

// literalSign returns the sign of a numeric literal step, looking through
// parentheses and unary minus.
func literalSign(e ast.Expr) (int, bool) {
	switch ex := ast.Unparen(e).(type) {
	case *ast.NumberLit:
		f, err := strconv.ParseFloat(ex.Text, 64)
		if err != nil {
			return 0, false
		}
		switch {
		case f > 0:
			return 1, true
		case f < 0:
			return -1, true
		}
		return 0, true
	case *ast.Unary:
		if ex.Op == "-" {
			s, ok := literalSign(ex.Operand)
			return -s, ok
		}
	}
	return 0, false
}
