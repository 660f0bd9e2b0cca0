package parser

import (
	"strings"

	"github.com/rubiojr/pseudo/ast"
	"github.com/rubiojr/pseudo/diag"
	"github.com/rubiojr/pseudo/lexer"
)

// simpleStatement converts a single-line token into its AST node. It is
// shared by the block parser and inline CASE clause statements.
func simpleStatement(tok lexer.Token) (ast.Statement, error) {
	base := ast.BaseStmt{SourceLine: tok.Line}
	line := tok.Line
	at := newLocator(tok)
	at.skip(tok.Name)
	switch tok.Kind {
	case lexer.Constant:
		v, err := at.expr(tok.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.Constant{BaseStmt: base, Name: tok.Name, Value: v}, nil

	case lexer.Declare:
		return &ast.Declare{BaseStmt: base, Name: tok.Name, DataType: tok.DataType, Record: tok.Record}, nil

	case lexer.DeclareArray:
		s := &ast.DeclareArray{BaseStmt: base, Name: tok.Name, DataType: tok.DataType}
		for _, b := range tok.Bounds {
			lo, err := at.expr(b.Lower)
			if err != nil {
				return nil, err
			}
			hi, err := at.expr(b.Upper)
			if err != nil {
				return nil, err
			}
			s.Bounds = append(s.Bounds, ast.Bound{Lower: lo, Upper: hi})
		}
		return s, nil

	case lexer.Assignment:
		v, err := at.expr(tok.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{BaseStmt: base, Name: tok.Name, Value: v}, nil

	case lexer.AssignRecordField:
		v, err := at.expr(tok.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.AssignRecordField{BaseStmt: base, Name: tok.Name, Field: tok.Field, Value: v}, nil

	case lexer.AssignArrayElement:
		idx, err := at.all(tok.Indices)
		if err != nil {
			return nil, err
		}
		v, err := at.expr(tok.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.AssignArrayElement{BaseStmt: base, Name: tok.Name, Indices: idx, Value: v}, nil

	case lexer.AssignArrayRecordField:
		idx, err := at.all(tok.Indices)
		if err != nil {
			return nil, err
		}
		v, err := at.expr(tok.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.AssignArrayRecordField{BaseStmt: base, Name: tok.Name, Indices: idx, Field: tok.Field, Value: v}, nil

	case lexer.Output:
		vals, err := at.list(tok.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.Output{BaseStmt: base, Values: vals}, nil

	case lexer.Input:
		target, err := at.target(tok.Target)
		if err != nil {
			return nil, err
		}
		return &ast.Input{BaseStmt: base, Target: target}, nil

	case lexer.Call:
		args, err := at.all(tok.Args)
		if err != nil {
			return nil, err
		}
		return &ast.Call{BaseStmt: base, Name: tok.Name, Args: args}, nil

	case lexer.OpenFile:
		f, err := at.expr(tok.File)
		if err != nil {
			return nil, err
		}
		return &ast.OpenFile{BaseStmt: base, File: f, Mode: tok.Mode}, nil

	case lexer.CloseFile:
		f, err := at.expr(tok.File)
		if err != nil {
			return nil, err
		}
		return &ast.CloseFile{BaseStmt: base, File: f}, nil

	case lexer.ReadFile:
		f, err := at.expr(tok.File)
		if err != nil {
			return nil, err
		}
		target, err := at.target(tok.Target)
		if err != nil {
			return nil, err
		}
		return &ast.ReadFile{BaseStmt: base, File: f, Target: target}, nil

	case lexer.WriteFile:
		f, err := at.expr(tok.File)
		if err != nil {
			return nil, err
		}
		v, err := at.expr(tok.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.WriteFile{BaseStmt: base, File: f, Value: v}, nil

	case lexer.Return:
		s := &ast.Return{BaseStmt: base}
		if tok.Expr != "" {
			v, err := at.expr(tok.Expr)
			if err != nil {
				return nil, err
			}
			s.Value = v
		}
		return s, nil
	}
	return nil, diag.Errorf(diag.Structural, line, "unexpected %s: %q", tok.Kind, tok.Text)
}

// locator parses the expression pieces of a token in the order they appear
// in its text, so an expression error reports its column in the source
// line rather than in the piece.
type locator struct {
	tok  lexer.Token
	from int // byte offset in tok.Text where the next piece is searched
}

func newLocator(tok lexer.Token) *locator {
	return &locator{tok: tok}
}

// skip moves past piece, such as the name before an assignment arrow.
func (l *locator) skip(piece string) {
	l.base(piece)
}

// base returns the column where piece starts, or the token's own column
// when piece cannot be found.
func (l *locator) base(piece string) int {
	piece = strings.TrimSpace(piece)
	if piece == "" {
		return l.tok.Column
	}
	i := strings.Index(l.tok.Text[l.from:], piece)
	if i < 0 {
		return l.tok.Column
	}
	start := l.from + i
	l.from = start + len(piece)
	return l.tok.Column + start
}

func (l *locator) locate(src string, err error) error {
	if err == nil || l.tok.Column == 0 {
		return err
	}
	return diag.Shift(err, l.base(src))
}

func (l *locator) expr(src string) (ast.Expr, error) {
	e, err := ParseExpr(src, l.tok.Line)
	return e, l.locate(src, err)
}

func (l *locator) list(src string) ([]ast.Expr, error) {
	list, err := ParseExprList(src, l.tok.Line)
	return list, l.locate(src, err)
}

func (l *locator) all(srcs []string) ([]ast.Expr, error) {
	out := make([]ast.Expr, 0, len(srcs))
	for _, s := range srcs {
		e, err := l.expr(s)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// target parses the destination of INPUT or READFILE, which must be a
// variable, array element or record field.
func (l *locator) target(src string) (ast.Expr, error) {
	e, err := l.expr(src)
	if err != nil {
		return nil, err
	}
	switch e.(type) {
	case *ast.Ident, *ast.Index, *ast.Field:
		return e, nil
	}
	return nil, diag.Errorf(diag.Structural, l.tok.Line, "%s target must be a variable: %q", l.tok.Kind, l.tok.Text)
}
