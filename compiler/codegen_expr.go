package compiler

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rubiojr/pseudo/ast"
	"github.com/rubiojr/pseudo/diag"
	"github.com/rubiojr/pseudo/parser"
)

// value is a compiled expression: Go code plus its pseudocode type.
type value struct {
	code    string
	tree    GoExpr // operator tree code was rendered from, if any
	t       *Type
	src     ast.Expr
	builtin bool // result of a library call
	binary  bool // code is an unparenthesized binary operation
}

// built returns the value rendered from an operator tree.
func built(tree GoExpr, t *Type, src ast.Expr) value {
	_, binary := tree.(GoBinaryExpr)
	return value{code: goExprString(tree), tree: tree, t: t, src: src, binary: binary}
}

// node returns v as a Go expression.
func (v value) node() GoExpr {
	if v.tree != nil {
		return v.tree
	}
	return GoRawExpr{Code: v.code}
}

// operandNode is node, parenthesized when v is a binary operation.
func (v value) operandNode() GoExpr {
	if v.binary {
		return GoParenExpr{Inner: v.node()}
	}
	return v.node()
}

// operand returns code safe to embed as the operand of another operator.
func (v value) operand() string {
	return goExprString(v.operandNode())
}

// literal reports whether v was compiled from a literal, looking through
// parentheses.
func (v value) literal() ast.Expr {
	switch l := ast.Unparen(v.src).(type) {
	case *ast.NumberLit, *ast.StringLit, *ast.CharLit, *ast.BoolLit, *ast.DateLit:
		return l
	}
	return nil
}

// exprWant compiles e for a destination of type want. It resolves the
// forms whose meaning depends on the destination: STR_TO_NUM into an
// INTEGER and quoted dd/mm/yyyy text into a DATE.
func (g *codeGen) exprWant(e ast.Expr, want *Type, line int) value {
	switch ex := ast.Unparen(e).(type) {
	case *ast.CallExpr:
		if ex.Name == "STR_TO_NUM" && want.Kind == Integer {
			if _, user := g.routines[ex.Name]; !user {
				return g.builtinCall(ex, line, true)
			}
		}
	case *ast.StringLit:
		if want.Kind == Date {
			d, ok := parser.ParseDateText(ex.Value)
			if !ok {
				g.errorf(diag.Type, line, "invalid date %s: expected dd/mm/yyyy", ex)
			}
			v := g.expr(d, line)
			v.src = e
			return v
		}
	}
	return g.expr(e, line)
}

func (g *codeGen) expr(e ast.Expr, line int) value {
	switch ex := e.(type) {
	case *ast.NumberLit:
		if ex.Real {
			if _, err := strconv.ParseFloat(ex.Text, 64); err != nil {
				g.errorf(diag.Type, line, "invalid REAL literal %s", ex.Text)
			}
			return value{code: ex.Text, t: tReal, src: e}
		}
		n, err := strconv.ParseInt(ex.Text, 10, 64)
		if err != nil {
			g.errorf(diag.Type, line, "INTEGER literal %s is out of range", ex.Text)
		}
		return value{code: strconv.FormatInt(n, 10), t: tInteger, src: e}
	case *ast.StringLit:
		return value{code: strconv.Quote(ex.Value), t: tString, src: e}
	case *ast.CharLit:
		return value{code: strconv.QuoteRune(ex.Value), t: tChar, src: e}
	case *ast.BoolLit:
		return built(GoBoolLit{Value: ex.Value}, tBoolean, e)
	case *ast.DateLit:
		if !parser.ValidDate(ex.Day, ex.Month, ex.Year) {
			g.errorf(diag.Type, line, "invalid date %s", ex)
		}
		return value{code: fmt.Sprintf("rtMkDate(%d, %d, %d)", ex.Day, ex.Month, ex.Year), t: tDate, src: e}
	case *ast.Ident:
		if g.scope.lookup(ex.Name) == nil && g.callable(ex.Name) {
			v := g.call(&ast.CallExpr{Name: ex.Name}, line)
			v.src = e
			return v
		}
		p := g.place(ex, line)
		if p.sym.kind != symConst && p.t.scalar() {
			g.read(p.sym, line)
		}
		return value{code: p.load(line), t: p.t, src: e}
	case *ast.Index, *ast.Field:
		p := g.place(ex, line)
		return value{code: p.load(line), t: p.t, src: e}
	case *ast.CallExpr:
		return g.call(ex, line)
	case *ast.Paren:
		inner := g.expr(ex.Inner, line)
		v := built(GoParenExpr{Inner: inner.node()}, inner.t, e)
		v.builtin = inner.builtin
		return v
	case *ast.Unary:
		return g.unary(ex, line)
	case *ast.Binary:
		return g.binary(ex, line)
	}
	g.errorf(diag.Type, line, "unsupported expression %s", e)
	return value{}
}

func (g *codeGen) unary(u *ast.Unary, line int) value {
	v := g.expr(u.Operand, line)
	if u.Op == "NOT" {
		if v.t.Kind != Boolean {
			g.errorf(diag.Type, line, "NOT needs a BOOLEAN operand, got %s %s", v.t, u.Operand)
		}
		return built(GoUnaryExpr{Op: "!", Operand: v.operandNode()}, tBoolean, u)
	}
	if !v.t.numeric() {
		g.errorf(diag.Type, line, "unary minus needs an INTEGER or REAL operand, got %s %s", v.t, u.Operand)
	}
	operand := v.operandNode()
	if strings.HasPrefix(v.operand(), "-") {
		operand = GoParenExpr{Inner: operand}
	}
	return built(GoUnaryExpr{Op: "-", Operand: operand}, v.t, u)
}

func (g *codeGen) binary(b *ast.Binary, line int) value {
	l := g.expr(b.Left, line)
	r := g.expr(b.Right, line)
	switch b.Op {
	case "AND", "OR":
		if l.t.Kind != Boolean || r.t.Kind != Boolean {
			g.errorf(diag.Type, line, "%s needs BOOLEAN operands, got %s and %s in %s", b.Op, l.t, r.t, b)
		}
		op := "&&"
		if b.Op == "OR" {
			op = "||"
		}
		return built(GoBinaryExpr{Left: l.operandNode(), Op: op, Right: r.operandNode()}, tBoolean, b)
	case "=", "<>", "<", ">", "<=", ">=":
		v := g.compare(b.Op, l, r, line)
		v.src = b
		return v
	case "&":
		if !l.t.textual() || !r.t.textual() {
			bad := l
			if l.t.textual() {
				bad = r
			}
			hint := ""
			if bad.t.numeric() {
				hint = ": convert numbers with NUM_TO_STR"
			}
			g.errorf(diag.Type, line, "cannot join %s %s with &%s", bad.t, bad.src, hint)
		}
		return built(GoBinaryExpr{Left: textOperand(l), Op: "+", Right: textOperand(r)}, tString, b)
	case "+", "-", "*":
		if !l.t.numeric() || !r.t.numeric() {
			hint := ""
			if b.Op == "+" && l.t.textual() && r.t.textual() {
				hint = ": use & to join text"
			}
			g.errorf(diag.Type, line, "%s needs INTEGER or REAL operands, got %s and %s in %s%s", b.Op, l.t, r.t, b, hint)
		}
		if l.t.Kind == Integer && r.t.Kind == Integer {
			return built(GoBinaryExpr{Left: l.operandNode(), Op: b.Op, Right: r.operandNode()}, tInteger, b)
		}
		return built(GoBinaryExpr{Left: realOperand(l), Op: b.Op, Right: realOperand(r)}, tReal, b)
	case "/":
		if !l.t.numeric() || !r.t.numeric() {
			g.errorf(diag.Type, line, "/ needs INTEGER or REAL operands, got %s and %s in %s", l.t, r.t, b)
		}
		return built(GoCallExpr{Func: "rtRealDiv", Args: []GoExpr{GoIntLit{Value: strconv.Itoa(line)}, realArg(l), realArg(r)}}, tReal, b)
	case "DIV", "MOD":
		if l.t.Kind != Integer || r.t.Kind != Integer {
			g.errorf(diag.Type, line, "%s needs INTEGER operands, got %s and %s in %s", b.Op, l.t, r.t, b)
		}
		fn := "rtDiv"
		if b.Op == "MOD" {
			fn = "rtMod"
		}
		return built(GoCallExpr{Func: fn, Args: []GoExpr{GoIntLit{Value: strconv.Itoa(line)}, l.node(), r.node()}}, tInteger, b)
	}
	g.errorf(diag.Type, line, "unknown operator %s in %s", b.Op, b)
	return value{}
}

var goCompareOps = map[string]string{"=": "==", "<>": "!=", "<": "<", ">": ">", "<=": "<=", ">=": ">="}

// compare builds a comparison. Mixed INTEGER/REAL compare as REAL, mixed
// CHAR/STRING as STRING; CHAR with CHAR compares character codes.
func (g *codeGen) compare(op string, l, r value, line int) value {
	goOp := goCompareOps[op]
	bin := func(lc, rc GoExpr) value {
		return built(GoBinaryExpr{Left: lc, Op: goOp, Right: rc}, tBoolean, nil)
	}
	switch {
	case l.t.numeric() && r.t.numeric():
		if l.t.Kind == r.t.Kind {
			return bin(l.operandNode(), r.operandNode())
		}
		return bin(realOperand(l), realOperand(r))
	case l.t.textual() && r.t.textual():
		if l.t.Kind == r.t.Kind {
			return bin(l.operandNode(), r.operandNode())
		}
		return bin(textOperand(l), textOperand(r))
	case l.t.Kind == Boolean && r.t.Kind == Boolean:
		if op != "=" && op != "<>" {
			g.errorf(diag.Type, line, "BOOLEAN values can only be compared with = and <>")
		}
		return bin(l.operandNode(), r.operandNode())
	case l.t.Kind == Date && r.t.Kind == Date:
		method := map[string]string{"=": "Equal", "<>": "Equal", "<": "Before", ">": "After", "<=": "After", ">=": "Before"}[op]
		var tree GoExpr = GoMethodCallExpr{Object: l.operandNode(), Method: method, Args: []GoExpr{r.node()}}
		if op == "<>" || op == "<=" || op == ">=" {
			tree = GoUnaryExpr{Op: "!", Operand: tree}
		}
		return built(tree, tBoolean, nil)
	}
	g.errorf(diag.Type, line, "cannot compare %s with %s", l.t, r.t)
	return value{}
}

// realOperand converts an INTEGER operand for REAL arithmetic.
func realOperand(v value) GoExpr {
	if v.t.Kind == Real {
		return v.operandNode()
	}
	if _, ok := v.src.(*ast.NumberLit); ok {
		return GoRawExpr{Code: v.code + ".0"}
	}
	return GoCallExpr{Func: "float64", Args: []GoExpr{v.node()}}
}

// realArg is realOperand for a function argument position.
func realArg(v value) GoExpr {
	if v.t.Kind == Real {
		return v.node()
	}
	return realOperand(v)
}

func textOperand(v value) GoExpr {
	if v.t.Kind == Char {
		return GoCallExpr{Func: "string", Args: []GoExpr{v.node()}}
	}
	return v.operandNode()
}

// coerce converts v to the destination type to, allowing INTEGER to REAL,
// CHAR to STRING, and STRING to CHAR for one-character literals (checked
// here) or library results (checked at run time). what describes the
// destination for the error message.
func (g *codeGen) coerce(v value, to *Type, line int, what string) string {
	switch {
	case v.t.same(to):
		return v.code
	case v.t.Kind == Integer && to.Kind == Real:
		return goExprString(realArg(v))
	case v.t.Kind == Char && to.Kind == String:
		return "string(" + v.code + ")"
	case v.t.Kind == String && to.Kind == Char:
		if lit, ok := v.literal().(*ast.StringLit); ok && utf8.RuneCountInString(lit.Value) == 1 {
			r, _ := utf8.DecodeRuneInString(lit.Value)
			return strconv.QuoteRune(r)
		}
		if v.builtin {
			return fmt.Sprintf("rtToChar(%d, %s)", line, v.code)
		}
	}
	g.errorf(diag.Type, line, "type mismatch: cannot %s: %s is %s, expected %s", what, v.src, v.t, to)
	return ""
}

// format renders v as text for OUTPUT and WRITEFILE.
func (g *codeGen) format(v value, line int, stmt string) string {
	switch v.t.Kind {
	case Integer:
		return "rtFmtInt(" + v.code + ")"
	case Real:
		return "rtFmtReal(" + v.code + ")"
	case Char:
		return "rtFmtChar(" + v.code + ")"
	case String:
		return v.code
	case Boolean:
		return "rtFmtBool(" + v.code + ")"
	case Date:
		return "rtFmtDate(" + v.code + ")"
	}
	g.errorf(diag.Type, line, "cannot %s %s: it is %s", stmt, v.src, v.t)
	return ""
}

// parse converts input text src to type t for INPUT and READFILE.
func (g *codeGen) parse(t *Type, src string, line int, what string) string {
	fn := map[Kind]string{
		Integer: "rtParseInt",
		Real:    "rtParseReal",
		Char:    "rtParseChar",
		Boolean: "rtParseBool",
		Date:    "rtParseDate",
	}
	switch t.Kind {
	case String:
		return src
	case Record, Array:
		g.errorf(diag.Type, line, "%s: cannot read a whole %s", what, t)
	}
	return fmt.Sprintf("%s(%d, %s, %q)", fn[t.Kind], line, src, what)
}

// cond compiles a BOOLEAN condition.
func (g *codeGen) cond(e ast.Expr, line int, what string) value {
	v := g.expr(e, line)
	if v.t.Kind != Boolean {
		g.errorf(diag.Type, line, "%s condition must be BOOLEAN, got %s %s", what, v.t, e)
	}
	return v
}
