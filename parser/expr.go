package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rubiojr/pseudo/ast"
	"github.com/rubiojr/pseudo/diag"
)

type itemKind int

const (
	itemEOF itemKind = iota
	itemNumber
	itemString
	itemChar
	itemDate
	itemIdent
	itemKeyword // AND OR NOT DIV MOD TRUE FALSE
	itemOp
)

type item struct {
	kind itemKind
	text string
	pos  int
}

var (
	datePattern   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})`)
	numberPattern = regexp.MustCompile(`^\d+(\.\d+)?`)
	identPattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)
)

var exprKeywords = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "DIV": true, "MOD": true,
	"TRUE": true, "FALSE": true,
}

// Multi-byte operators first so "<=" is not read as "<".
var operators = []struct{ text, canon string }{
	{"<>", "<>"}, {"<=", "<="}, {">=", ">="},
	{"≠", "<>"}, {"≤", "<="}, {"≥", ">="},
	{"=", "="}, {"<", "<"}, {">", ">"},
	{"+", "+"}, {"-", "-"}, {"*", "*"}, {"/", "/"}, {"&", "&"},
	{"(", "("}, {")", ")"}, {"[", "["}, {"]", "]"}, {",", ","}, {".", "."},
}

func lexExpr(src string, line int) ([]item, error) {
	var items []item
	i := 0
	for i < len(src) {
		rest := src[i:]
		ch := src[i]
		switch {
		case ch == ' ' || ch == '\t':
			i++
			continue
		case ch == '"' || ch == '\'':
			end := strings.IndexByte(rest[1:], ch)
			if end < 0 {
				return nil, diag.ErrorAt(diag.Lexical, line, i+1, "unterminated literal in %q", src)
			}
			kind := itemString
			if ch == '\'' {
				kind = itemChar
			}
			items = append(items, item{kind: kind, text: rest[1 : end+1], pos: i})
			i += end + 2
			continue
		case ch >= '0' && ch <= '9':
			if m := datePattern.FindString(rest); m != "" {
				items = append(items, item{kind: itemDate, text: m, pos: i})
				i += len(m)
				continue
			}
			m := numberPattern.FindString(rest)
			items = append(items, item{kind: itemNumber, text: m, pos: i})
			i += len(m)
			continue
		}
		if m := identPattern.FindString(rest); m != "" {
			kind := itemIdent
			if exprKeywords[m] {
				kind = itemKeyword
			}
			items = append(items, item{kind: kind, text: m, pos: i})
			i += len(m)
			continue
		}
		matched := false
		for _, op := range operators {
			if strings.HasPrefix(rest, op.text) {
				items = append(items, item{kind: itemOp, text: op.canon, pos: i})
				i += len(op.text)
				matched = true
				break
			}
		}
		if !matched {
			r, _ := utf8.DecodeRuneInString(rest)
			return nil, diag.ErrorAt(diag.Lexical, line, i+1, "unexpected character %q in expression %q", r, src)
		}
	}
	return append(items, item{kind: itemEOF, pos: len(src)}), nil
}

// exprParser is a precedence-climbing parser over one expression. Loosest
// to tightest: OR, AND, NOT, comparison, &, + -, * / DIV MOD, unary -,
// primary.
type exprParser struct {
	src   string
	line  int
	items []item
	pos   int
}

// ParseExpr parses a pseudocode expression found on the given line.
func ParseExpr(src string, line int) (e ast.Expr, err error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, diag.Errorf(diag.Lexical, line, "missing expression")
	}
	items, err := lexExpr(src, line)
	if err != nil {
		return nil, err
	}
	p := &exprParser{src: src, line: line, items: items}
	defer p.recover(&err)
	e = p.parseOr()
	if tok := p.peek(); tok.kind != itemEOF {
		p.errorf("unexpected %q in expression %q", tok.text, src)
	}
	return e, nil
}

// ParseExprList parses comma-separated expressions at the top level.
func ParseExprList(src string, line int) (list []ast.Expr, err error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, nil
	}
	items, err := lexExpr(src, line)
	if err != nil {
		return nil, err
	}
	p := &exprParser{src: src, line: line, items: items}
	defer p.recover(&err)
	list = p.parseList()
	if tok := p.peek(); tok.kind != itemEOF {
		p.errorf("unexpected %q in expression list %q", tok.text, src)
	}
	return list, nil
}

func (p *exprParser) recover(errp *error) {
	if r := recover(); r != nil {
		de, ok := r.(*diag.Error)
		if !ok {
			panic(r)
		}
		*errp = de
	}
}

// errorf reports an error at the next unread item.
func (p *exprParser) errorf(format string, args ...any) {
	p.errorAt(p.peek(), format, args...)
}

// errorAt reports an error at it. Columns count from 1 at the start of the
// expression text.
func (p *exprParser) errorAt(it item, format string, args ...any) {
	panic(diag.ErrorAt(diag.Lexical, p.line, it.pos+1, format, args...))
}

func (p *exprParser) peek() item { return p.items[p.pos] }

func (p *exprParser) next() item {
	it := p.items[p.pos]
	if it.kind != itemEOF {
		p.pos++
	}
	return it
}

func (p *exprParser) isOp(text string) bool {
	it := p.peek()
	return it.kind == itemOp && it.text == text
}

func (p *exprParser) isKeyword(text string) bool {
	it := p.peek()
	return it.kind == itemKeyword && it.text == text
}

func (p *exprParser) expectOp(text string) {
	if !p.isOp(text) {
		it := p.peek()
		if it.kind == itemEOF {
			p.errorf("expected %q at end of expression %q", text, p.src)
		}
		p.errorf("expected %q but found %q in expression %q", text, it.text, p.src)
	}
	p.next()
}

func (p *exprParser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.isKeyword("OR") {
		p.next()
		left = &ast.Binary{Op: "OR", Left: left, Right: p.parseAnd()}
	}
	return left
}

func (p *exprParser) parseAnd() ast.Expr {
	left := p.parseNot()
	for p.isKeyword("AND") {
		p.next()
		left = &ast.Binary{Op: "AND", Left: left, Right: p.parseNot()}
	}
	return left
}

func (p *exprParser) parseNot() ast.Expr {
	if p.isKeyword("NOT") {
		p.next()
		return &ast.Unary{Op: "NOT", Operand: p.parseNot()}
	}
	return p.parseComparison()
}

var comparisonOps = map[string]bool{"=": true, "<>": true, "<": true, ">": true, "<=": true, ">=": true}

func (p *exprParser) parseComparison() ast.Expr {
	left := p.parseConcat()
	for it := p.peek(); it.kind == itemOp && comparisonOps[it.text]; it = p.peek() {
		p.next()
		left = &ast.Binary{Op: it.text, Left: left, Right: p.parseConcat()}
	}
	return left
}

func (p *exprParser) parseConcat() ast.Expr {
	left := p.parseAdditive()
	for p.isOp("&") {
		p.next()
		left = &ast.Binary{Op: "&", Left: left, Right: p.parseAdditive()}
	}
	return left
}

func (p *exprParser) parseAdditive() ast.Expr {
	left := p.parseTerm()
	for p.isOp("+") || p.isOp("-") {
		op := p.next().text
		left = &ast.Binary{Op: op, Left: left, Right: p.parseTerm()}
	}
	return left
}

func (p *exprParser) parseTerm() ast.Expr {
	left := p.parseUnary()
	for p.isOp("*") || p.isOp("/") || p.isKeyword("DIV") || p.isKeyword("MOD") {
		op := p.next().text
		left = &ast.Binary{Op: op, Left: left, Right: p.parseUnary()}
	}
	return left
}

func (p *exprParser) parseUnary() ast.Expr {
	if p.isOp("-") {
		p.next()
		operand := p.parseUnary()
		// Fold -literal so "-3" stays a literal.
		if n, ok := operand.(*ast.NumberLit); ok {
			return &ast.NumberLit{Text: "-" + n.Text, Real: n.Real}
		}
		return &ast.Unary{Op: "-", Operand: operand}
	}
	if p.isOp("+") {
		p.next()
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() ast.Expr {
	it := p.next()
	switch it.kind {
	case itemNumber:
		return &ast.NumberLit{Text: it.text, Real: strings.Contains(it.text, ".")}
	case itemString:
		return &ast.StringLit{Value: it.text}
	case itemChar:
		if utf8.RuneCountInString(it.text) != 1 {
			p.errorAt(it, "character literal '%s' must hold exactly one character", it.text)
		}
		r, _ := utf8.DecodeRuneInString(it.text)
		return &ast.CharLit{Value: r}
	case itemDate:
		return p.dateLit(it)
	case itemKeyword:
		switch it.text {
		case "TRUE":
			return &ast.BoolLit{Value: true}
		case "FALSE":
			return &ast.BoolLit{Value: false}
		}
		p.errorAt(it, "unexpected %s in expression %q", it.text, p.src)
	case itemIdent:
		return p.parseReference(it.text)
	case itemOp:
		if it.text == "(" {
			inner := p.parseOr()
			p.expectOp(")")
			return &ast.Paren{Inner: inner}
		}
		p.errorAt(it, "unexpected %q in expression %q", it.text, p.src)
	case itemEOF:
		p.errorAt(it, "incomplete expression %q", p.src)
	}
	return nil
}

// parseReference parses what follows an identifier: a call, subscripts
// and an optional record field.
func (p *exprParser) parseReference(name string) ast.Expr {
	if p.isOp("(") {
		p.next()
		call := &ast.CallExpr{Name: name}
		if !p.isOp(")") {
			call.Args = p.parseList()
		}
		p.expectOp(")")
		return call
	}
	var target ast.Expr = &ast.Ident{Name: name}
	if p.isOp("[") {
		idx := &ast.Index{Name: name}
		for p.isOp("[") {
			p.next()
			idx.Indices = append(idx.Indices, p.parseList()...)
			p.expectOp("]")
		}
		target = idx
	}
	if p.isOp(".") {
		p.next()
		field := p.next()
		if field.kind != itemIdent {
			p.errorAt(field, "expected a field name after %q in expression %q", target.String()+".", p.src)
		}
		target = &ast.Field{Target: target, Name: field.text}
	}
	return target
}

func (p *exprParser) parseList() []ast.Expr {
	list := []ast.Expr{p.parseOr()}
	for p.isOp(",") {
		p.next()
		list = append(list, p.parseOr())
	}
	return list
}

func (p *exprParser) dateLit(it item) ast.Expr {
	text := it.text
	m := datePattern.FindStringSubmatch(text)
	d, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	y, _ := strconv.Atoi(m[3])
	if !ValidDate(d, mo, y) {
		p.errorAt(it, "invalid date %s", text)
	}
	return &ast.DateLit{Day: d, Month: mo, Year: y}
}

// ValidDate reports whether d/m/y names a real calendar day.
func ValidDate(d, m, y int) bool {
	if m < 1 || m > 12 || d < 1 {
		return false
	}
	days := [...]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}[m-1]
	if m == 2 && (y%4 == 0 && y%100 != 0 || y%400 == 0) {
		days = 29
	}
	return d <= days
}

// ParseDateText parses a dd/mm/yyyy string, as found in a quoted literal
// assigned to a DATE.
func ParseDateText(s string) (*ast.DateLit, bool) {
	m := datePattern.FindStringSubmatch(s)
	if m == nil || len(m[0]) != len(s) {
		return nil, false
	}
	d, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	y, _ := strconv.Atoi(m[3])
	if !ValidDate(d, mo, y) {
		return nil, false
	}
	return &ast.DateLit{Day: d, Month: mo, Year: y}, true
}
