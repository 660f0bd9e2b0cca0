package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is the interface for expression nodes. String renders the
// expression back to pseudocode for diagnostics.
type Expr interface {
	Node
	expr()
	String() string
}

// NumberLit is an integer or decimal literal, kept as written.
type NumberLit struct {
	Text string
	Real bool // has a fractional part
}

func (n *NumberLit) node()          {}
func (n *NumberLit) expr()          {}
func (n *NumberLit) String() string { return n.Text }

// StringLit is a double-quoted literal.
type StringLit struct {
	Value string
}

func (s *StringLit) node()          {}
func (s *StringLit) expr()          {}
func (s *StringLit) String() string { return `"` + s.Value + `"` }

// CharLit is a single-quoted one-character literal.
type CharLit struct {
	Value rune
}

func (c *CharLit) node()          {}
func (c *CharLit) expr()          {}
func (c *CharLit) String() string { return "'" + string(c.Value) + "'" }

// BoolLit is TRUE or FALSE.
type BoolLit struct {
	Value bool
}

func (b *BoolLit) node() {}
func (b *BoolLit) expr() {}
func (b *BoolLit) String() string {
	if b.Value {
		return "TRUE"
	}
	return "FALSE"
}

// DateLit is an unquoted dd/mm/yyyy literal.
type DateLit struct {
	Day, Month, Year int
}

func (d *DateLit) node() {}
func (d *DateLit) expr() {}
func (d *DateLit) String() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
}

// Ident is a variable, constant or parameter reference.
type Ident struct {
	Name string
}

func (i *Ident) node()          {}
func (i *Ident) expr()          {}
func (i *Ident) String() string { return i.Name }

// Index is an array element reference: name[i, j].
type Index struct {
	Name    string
	Indices []Expr
}

func (i *Index) node() {}
func (i *Index) expr() {}
func (i *Index) String() string {
	return i.Name + "[" + joinExprs(i.Indices) + "]"
}

// Field is a record field reference. Target is an *Ident or *Index.
type Field struct {
	Target Expr
	Name   string
}

func (f *Field) node()          {}
func (f *Field) expr()          {}
func (f *Field) String() string { return f.Target.String() + "." + f.Name }

// CallExpr is a function call inside an expression.
type CallExpr struct {
	Name string
	Args []Expr
}

func (c *CallExpr) node() {}
func (c *CallExpr) expr() {}
func (c *CallExpr) String() string {
	return c.Name + "(" + joinExprs(c.Args) + ")"
}

// Binary is a binary operation. Op is one of OR AND = <> < > <= >= & + - *
// / DIV MOD.
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
}

func (b *Binary) node() {}
func (b *Binary) expr() {}
func (b *Binary) String() string {
	return b.Left.String() + " " + b.Op + " " + b.Right.String()
}

// Unary is a prefix operation: "-" or "NOT".
type Unary struct {
	Op      string
	Operand Expr
}

func (u *Unary) node() {}
func (u *Unary) expr() {}
func (u *Unary) String() string {
	if u.Op == "NOT" {
		return "NOT " + u.Operand.String()
	}
	return u.Op + u.Operand.String()
}

// Paren is a parenthesised expression.
type Paren struct {
	Inner Expr
}

func (p *Paren) node()          {}
func (p *Paren) expr()          {}
func (p *Paren) String() string { return "(" + p.Inner.String() + ")" }

func joinExprs(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// IntValue returns the value of an integer literal, looking through
// parentheses and unary minus.
func IntValue(e Expr) (int64, bool) {
	switch ex := e.(type) {
	case *NumberLit:
		if ex.Real {
			return 0, false
		}
		v, err := strconv.ParseInt(ex.Text, 10, 64)
		return v, err == nil
	case *Paren:
		return IntValue(ex.Inner)
	case *Unary:
		if ex.Op == "-" {
			v, ok := IntValue(ex.Operand)
			return -v, ok
		}
	}
	return 0, false
}

// Unparen strips any enclosing parentheses.
func Unparen(e Expr) Expr {
	for {
		p, ok := e.(*Paren)
		if !ok {
			return e
		}
		e = p.Inner
	}
}
