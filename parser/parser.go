// Package parser builds the AST from the flat token list produced by the
// lexer. Block statements are resolved by scanning forward from each
// opening token to its matching closer; expression text is parsed into
// ast.Expr trees.
package parser

import (
	"slices"

	"github.com/rubiojr/pseudo/ast"
	"github.com/rubiojr/pseudo/diag"
	"github.com/rubiojr/pseudo/lexer"
)

type parser struct {
	toks []lexer.Token
	pos  int
}

// ParseSource tokenizes and parses src. name is used in diagnostics.
func ParseSource(src, name string) (*ast.Program, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, diag.WithFile(err, name)
	}
	prog, err := Parse(toks)
	if err != nil {
		return nil, diag.WithFile(err, name)
	}
	prog.SourceFile = name
	return prog, nil
}

// Parse resolves block nesting in toks and returns the program. The first
// structural error aborts parsing.
func Parse(toks []lexer.Token) (prog *ast.Program, err error) {
	p := &parser{toks: toks}
	defer p.recover(&err)
	stmts, _ := p.parseBody()
	return &ast.Program{Statements: stmts}, nil
}

func (p *parser) recover(errp *error) {
	if r := recover(); r != nil {
		de, ok := r.(*diag.Error)
		if !ok {
			panic(r)
		}
		*errp = de
	}
}

func (p *parser) errorf(line int, format string, args ...any) {
	panic(diag.Errorf(diag.Structural, line, format, args...))
}

// check re-raises an error from a helper through the parser's panic path.
func (p *parser) check(err error) {
	if err != nil {
		panic(err)
	}
}

// parseBody parses statements until a token whose kind is in stops, which
// is returned unconsumed, or until the end of input (nil). Terminators that
// do not belong to the enclosing block are skipped.
func (p *parser) parseBody(stops ...lexer.Kind) ([]ast.Statement, *lexer.Token) {
	var out []ast.Statement
	for p.pos < len(p.toks) {
		tok := &p.toks[p.pos]
		if slices.Contains(stops, tok.Kind) {
			return out, tok
		}
		if tok.Kind.IsTerminator() {
			p.pos++
			continue
		}
		out = append(out, p.parseStatement())
	}
	return out, nil
}

func (p *parser) parseStatement() ast.Statement {
	tok := p.toks[p.pos]
	switch tok.Kind {
	case lexer.IfStart:
		return p.parseIf(tok)
	case lexer.ForStart:
		return p.parseFor(tok)
	case lexer.WhileStart:
		return p.parseWhile(tok)
	case lexer.RepeatStart:
		return p.parseRepeat(tok)
	case lexer.CaseStart:
		return p.parseCase(tok)
	case lexer.TypeStart:
		return p.parseType(tok)
	case lexer.ProcedureStart:
		return p.parseProcedure(tok)
	case lexer.FunctionStart:
		return p.parseFunction(tok)
	}
	p.pos++
	s, err := simpleStatement(tok)
	p.check(err)
	return s
}

// closeBlock parses a body that must end with closer and consumes it.
func (p *parser) closeBlock(open lexer.Token, opener, closer string, kind lexer.Kind) ([]ast.Statement, lexer.Token) {
	body, end := p.parseBody(kind)
	if end == nil {
		p.errorf(open.Line, "missing %s for %s opened on line %d", closer, opener, open.Line)
	}
	p.pos++
	return body, *end
}

func (p *parser) expr(at *locator, src string) ast.Expr {
	e, err := at.expr(src)
	p.check(err)
	return e
}

func (p *parser) parseIf(tok lexer.Token) ast.Statement {
	p.pos++
	s := &ast.If{BaseStmt: ast.BaseStmt{SourceLine: tok.Line}, Cond: p.expr(newLocator(tok), tok.Expr)}
	body, end := p.parseBody(lexer.Else, lexer.IfEnd)
	if end == nil {
		p.errorf(tok.Line, "missing ENDIF for IF opened on line %d", tok.Line)
	}
	s.Then = body
	if end.Kind == lexer.Else {
		p.pos++
		var last lexer.Token
		s.Else, last = p.closeBlock(tok, "IF", "ENDIF", lexer.IfEnd)
		s.EndLine = last.Line
		return s
	}
	p.pos++
	s.EndLine = end.Line
	return s
}

func (p *parser) parseFor(tok lexer.Token) ast.Statement {
	p.pos++
	at := newLocator(tok)
	at.skip(tok.Name)
	s := &ast.For{BaseStmt: ast.BaseStmt{SourceLine: tok.Line}, Var: tok.Name}
	s.From = p.expr(at, tok.From)
	s.To = p.expr(at, tok.To)
	if tok.Step != "" {
		s.Step = p.expr(at, tok.Step)
	}
	body, end := p.closeBlock(tok, "FOR", "NEXT "+tok.Name, lexer.ForEnd)
	if end.Name != "" && end.Name != tok.Name {
		p.errorf(end.Line, "NEXT %s does not match FOR %s opened on line %d", end.Name, tok.Name, tok.Line)
	}
	s.Body = body
	s.EndLine = end.Line
	return s
}

func (p *parser) parseWhile(tok lexer.Token) ast.Statement {
	p.pos++
	s := &ast.While{BaseStmt: ast.BaseStmt{SourceLine: tok.Line}, Cond: p.expr(newLocator(tok), tok.Expr)}
	body, end := p.closeBlock(tok, "WHILE", "ENDWHILE", lexer.WhileEnd)
	s.Body = body
	s.EndLine = end.Line
	return s
}

func (p *parser) parseRepeat(tok lexer.Token) ast.Statement {
	p.pos++
	body, end := p.closeBlock(tok, "REPEAT", "UNTIL", lexer.RepeatEnd)
	return &ast.Repeat{
		BaseStmt: ast.BaseStmt{SourceLine: tok.Line, EndLine: end.Line},
		Body:     body,
		Until:    p.expr(newLocator(end), end.Expr),
	}
}

func (p *parser) parseCase(tok lexer.Token) ast.Statement {
	p.pos++
	s := &ast.Case{BaseStmt: ast.BaseStmt{SourceLine: tok.Line}, Subject: p.expr(newLocator(tok), tok.Expr)}
	for {
		if p.pos >= len(p.toks) {
			p.errorf(tok.Line, "missing ENDCASE for CASE opened on line %d", tok.Line)
		}
		cur := p.toks[p.pos]
		switch cur.Kind {
		case lexer.CaseEnd:
			p.pos++
			s.EndLine = cur.Line
			return s
		case lexer.CaseClause:
			if s.Otherwise != nil {
				p.errorf(cur.Line, "CASE clause %q after OTHERWISE (line %d)", cur.Text, s.Otherwise.Line)
			}
			p.pos++
			clause := p.caseClause(cur)
			clause.Body = p.clauseBody(cur)
			s.Clauses = append(s.Clauses, clause)
		case lexer.Otherwise:
			if s.Otherwise != nil {
				p.errorf(cur.Line, "second OTHERWISE in CASE opened on line %d", tok.Line)
			}
			p.pos++
			s.Otherwise = &ast.Otherwise{Line: cur.Line, Body: p.clauseBody(cur)}
		default:
			p.errorf(cur.Line, "expected a CASE clause, OTHERWISE or ENDCASE but found %q", cur.Text)
		}
	}
}

func (p *parser) caseClause(tok lexer.Token) *ast.CaseClause {
	c := &ast.CaseClause{Line: tok.Line}
	at := newLocator(tok)
	switch tok.Clause.Form {
	case lexer.Range:
		c.Form = ast.ValueRange
		c.Low = p.expr(at, tok.Clause.Low)
		c.High = p.expr(at, tok.Clause.High)
	case lexer.Multiple:
		c.Form = ast.MultipleValues
	default:
		c.Form = ast.SingleValue
	}
	for _, v := range tok.Clause.Values {
		c.Values = append(c.Values, p.expr(at, v))
	}
	return c
}

// clauseBody is the inline statement after the colon or, without one, the
// statements up to the next clause, OTHERWISE or ENDCASE.
func (p *parser) clauseBody(tok lexer.Token) []ast.Statement {
	if tok.Inline != "" {
		at := newLocator(tok)
		column := at.base(tok.Inline)
		inline, err := lexer.MatchInline(tok.Inline, tok.Line)
		p.check(diag.Shift(err, column))
		inline.Column = column
		s, err := simpleStatement(inline)
		p.check(err)
		return []ast.Statement{s}
	}
	body, _ := p.parseBody(lexer.CaseClause, lexer.Otherwise, lexer.CaseEnd)
	return body
}

func (p *parser) parseType(tok lexer.Token) ast.Statement {
	p.pos++
	s := &ast.TypeDefinition{BaseStmt: ast.BaseStmt{SourceLine: tok.Line}, Name: tok.Name}
	for {
		if p.pos >= len(p.toks) {
			p.errorf(tok.Line, "missing ENDTYPE for TYPE opened on line %d", tok.Line)
		}
		cur := p.toks[p.pos]
		p.pos++
		switch cur.Kind {
		case lexer.TypeEnd:
			s.EndLine = cur.Line
			return s
		case lexer.Declare:
			s.Fields = append(s.Fields, &ast.Declare{
				BaseStmt: ast.BaseStmt{SourceLine: cur.Line},
				Name:     cur.Name,
				DataType: cur.DataType,
				Record:   cur.Record,
			})
		default:
			p.errorf(cur.Line, "only DECLARE statements are allowed inside TYPE %s, found %q", tok.Name, cur.Text)
		}
	}
}

func params(in []lexer.Param) []ast.Param {
	out := make([]ast.Param, len(in))
	for i, prm := range in {
		out[i] = ast.Param{Name: prm.Name, DataType: prm.DataType, Array: prm.Array, ByRef: prm.ByRef}
	}
	return out
}

func (p *parser) parseProcedure(tok lexer.Token) ast.Statement {
	p.pos++
	body, end := p.closeBlock(tok, "PROCEDURE "+tok.Name, "ENDPROCEDURE", lexer.ProcedureEnd)
	return &ast.ProcedureDefinition{
		BaseStmt: ast.BaseStmt{SourceLine: tok.Line, EndLine: end.Line},
		Name:     tok.Name,
		Params:   params(tok.Params),
		Body:     body,
	}
}

func (p *parser) parseFunction(tok lexer.Token) ast.Statement {
	p.pos++
	body, end := p.closeBlock(tok, "FUNCTION "+tok.Name, "ENDFUNCTION", lexer.FunctionEnd)
	return &ast.FunctionDefinition{
		BaseStmt: ast.BaseStmt{SourceLine: tok.Line, EndLine: end.Line},
		Name:     tok.Name,
		Params:   params(tok.Params),
		Returns:  tok.Returns,
		Body:     body,
	}
}
