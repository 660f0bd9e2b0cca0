// Package lexer classifies pseudocode source lines into a flat token list.
// The language is line oriented: every non-blank line is one statement or
// one block delimiter. Nesting is resolved later by the parser.
package lexer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/rubiojr/pseudo/diag"
	"github.com/rubiojr/pseudo/scanner"
)

const (
	ident = `[A-Za-z_][A-Za-z0-9_]*`
	arrow = `(?:←|<--|<-)`
	// A subscript allows one level of nested brackets: a[b[1]].
	subscript = `\[(?:[^\[\]]|\[[^\[\]]*\])*\]`
	caseValue = `(?:-?\d+(?:\.\d+)?|"[^"]*"|'[^']*'|` + ident + `)`
)

// Keywords lists the statement keywords, used for "did you mean" hints.
var Keywords = []string{
	"APPEND", "ARRAY", "BYREF", "BYVAL", "CALL", "CASE", "CLOSEFILE", "CONSTANT",
	"DECLARE", "ELSE", "ENDCASE", "ENDFUNCTION", "ENDIF", "ENDPROCEDURE",
	"ENDTYPE", "ENDWHILE", "FOR", "FUNCTION", "IF", "INPUT", "NEXT", "OF",
	"OPENFILE", "OTHERWISE", "OUTPUT", "PROCEDURE", "READ", "READFILE",
	"REPEAT", "RETURN", "RETURNS", "THEN", "TYPE", "UNTIL", "WHILE", "WRITE",
	"WRITEFILE",
}

// ScalarTypes are the built-in datatypes. Any other datatype name in a
// DECLARE refers to a record type.
var ScalarTypes = []string{"INTEGER", "REAL", "CHAR", "STRING", "BOOLEAN", "DATE"}

// IsScalarType reports whether name is a built-in datatype.
func IsScalarType(name string) bool {
	for _, t := range ScalarTypes {
		if t == name {
			return true
		}
	}
	return false
}

// rule pairs a line pattern with the builder that fills in the token.
// A builder may reject a matched line with an error.
type rule struct {
	name  string
	re    *regexp.Regexp
	build func(m []string, t *Token) error
}

func newRule(name, pattern string, build func(m []string, t *Token) error) rule {
	return rule{name: name, re: regexp.MustCompile(`^` + pattern + `$`), build: build}
}

func fixed(kind Kind) func([]string, *Token) error {
	return func(_ []string, t *Token) error {
		t.Kind = kind
		return nil
	}
}

var (
	targetArrayField = regexp.MustCompile(`^(` + ident + `)\s*(` + subscript + `(?:\s*` + subscript + `)*)\s*\.\s*(` + ident + `)$`)
	targetField      = regexp.MustCompile(`^(` + ident + `)\s*\.\s*(` + ident + `)$`)
	targetElement    = regexp.MustCompile(`^(` + ident + `)\s*(` + subscript + `(?:\s*` + subscript + `)*)$`)
	targetPlain      = regexp.MustCompile(`^(` + ident + `)$`)
	paramPattern     = regexp.MustCompile(`^(?:(BYREF|BYVAL)\s+)?(` + ident + `)\s*:\s*(ARRAY\s+OF\s+)?(` + ident + `)$`)
)

// rules is the single ordered classification table. Order matters: the
// CASE clause patterns must run before DECLARE, and FOR before the generic
// assignment arrow.
var rules = []rule{
	newRule("CASE", `CASE\s+OF\s+(.+)`, func(m []string, t *Token) error {
		t.Kind = CaseStart
		t.Expr = m[1]
		return nil
	}),
	newRule("ENDCASE", `ENDCASE`, fixed(CaseEnd)),
	newRule("OTHERWISE", `OTHERWISE(?:\s*:\s*(.*)|\s+(.+))?`, func(m []string, t *Token) error {
		t.Kind = Otherwise
		t.Inline = strings.TrimSpace(m[1] + m[2])
		return nil
	}),
	newRule("CASE_RANGE", `(`+caseValue+`)\s+TO\s+(`+caseValue+`)\s*:(.*)`, func(m []string, t *Token) error {
		t.Kind = CaseClause
		t.Clause = Clause{Form: Range, Low: m[1], High: m[2]}
		t.Inline = strings.TrimSpace(m[3])
		return nil
	}),
	newRule("CASE_VALUES", `(`+caseValue+`(?:\s*,\s*`+caseValue+`)*)\s*:(.*)`, func(m []string, t *Token) error {
		t.Kind = CaseClause
		values := scanner.SplitTopLevel(m[1], ',')
		t.Clause = Clause{Form: Single, Values: values}
		if len(values) > 1 {
			t.Clause.Form = Multiple
		}
		t.Inline = strings.TrimSpace(m[2])
		return nil
	}),
	newRule("FOR", `FOR\s+(`+ident+`)\s*`+arrow+`\s*(.+?)\s+TO\s+(.+?)(?:\s+STEP\s+(.+))?`, func(m []string, t *Token) error {
		t.Kind = ForStart
		t.Name, t.From, t.To, t.Step = m[1], m[2], m[3], m[4]
		return nil
	}),
	newRule("WHILE", `WHILE\s+(.+?)(?:\s+DO)?`, func(m []string, t *Token) error {
		t.Kind = WhileStart
		t.Expr = m[1]
		return nil
	}),
	newRule("ENDWHILE", `ENDWHILE`, fixed(WhileEnd)),
	newRule("REPEAT", `REPEAT`, fixed(RepeatStart)),
	newRule("UNTIL", `UNTIL\s+(.+)`, func(m []string, t *Token) error {
		t.Kind = RepeatEnd
		t.Expr = m[1]
		return nil
	}),
	newRule("TYPE", `TYPE\s+(`+ident+`)`, func(m []string, t *Token) error {
		t.Kind = TypeStart
		t.Name = m[1]
		return nil
	}),
	newRule("ENDTYPE", `ENDTYPE`, fixed(TypeEnd)),
	newRule("DECLARE_ARRAY", `DECLARE\s+(`+ident+`)\s*:\s*ARRAY\s*\[(.+)\]\s*OF\s+(`+ident+`)`, func(m []string, t *Token) error {
		t.Kind = DeclareArray
		t.Name, t.DataType = m[1], m[3]
		for _, dim := range scanner.SplitTopLevel(m[2], ',') {
			colon := scanner.FindTopLevel(dim, func(ch byte, _ int, _ string) bool { return ch == ':' })
			if colon < 0 {
				return diag.Errorf(diag.Lexical, t.Line, "invalid array bounds %q in %q: expected lower:upper", dim, t.Text)
			}
			lower, upper := strings.TrimSpace(dim[:colon]), strings.TrimSpace(dim[colon+1:])
			if lower == "" || upper == "" {
				return diag.Errorf(diag.Lexical, t.Line, "invalid array bounds %q in %q", dim, t.Text)
			}
			t.Bounds = append(t.Bounds, Bound{Lower: lower, Upper: upper})
		}
		return nil
	}),
	newRule("DECLARE", `DECLARE\s+(`+ident+`)\s*:\s*(`+ident+`)`, func(m []string, t *Token) error {
		t.Kind = Declare
		t.Name, t.DataType = m[1], m[2]
		t.Record = !IsScalarType(m[2])
		return nil
	}),
	newRule("ASSIGN", `(`+ident+`(?:\s*`+subscript+`)*(?:\s*\.\s*`+ident+`)?)\s*`+arrow+`\s*(.+)`, func(m []string, t *Token) error {
		return classifyAssignment(strings.TrimSpace(m[1]), m[2], t)
	}),
	newRule("PROCEDURE", `PROCEDURE\s+(`+ident+`)\s*(?:\((.*)\))?`, func(m []string, t *Token) error {
		t.Kind = ProcedureStart
		t.Name = m[1]
		params, err := parseParams(m[2], t)
		t.Params = params
		return err
	}),
	newRule("ENDPROCEDURE", `ENDPROCEDURE`, fixed(ProcedureEnd)),
	newRule("FUNCTION", `FUNCTION\s+(`+ident+`)\s*(?:\((.*)\))?\s*RETURNS\s+(`+ident+`)`, func(m []string, t *Token) error {
		t.Kind = FunctionStart
		t.Name, t.Returns = m[1], m[3]
		params, err := parseParams(m[2], t)
		t.Params = params
		return err
	}),
	newRule("ENDFUNCTION", `ENDFUNCTION`, fixed(FunctionEnd)),
	newRule("RETURN", `RETURN(?:\s+(.+))?`, func(m []string, t *Token) error {
		t.Kind = Return
		t.Expr = m[1]
		return nil
	}),
	newRule("CONSTANT", `CONSTANT\s+(`+ident+`)\s*(?:=|`+arrow+`)\s*(.+)`, func(m []string, t *Token) error {
		t.Kind = Constant
		t.Name, t.Expr = m[1], m[2]
		return nil
	}),
	newRule("IF", `IF\s+(.+?)(?:\s+THEN)?`, func(m []string, t *Token) error {
		t.Kind = IfStart
		t.Expr = m[1]
		return nil
	}),
	newRule("ELSE", `ELSE`, fixed(Else)),
	newRule("ENDIF", `ENDIF`, fixed(IfEnd)),
	newRule("INPUT", `INPUT\s+(.+)`, func(m []string, t *Token) error {
		t.Kind = Input
		t.Target = m[1]
		return nil
	}),
	newRule("OPENFILE", `OPENFILE\s+(.+?)\s+FOR\s+(READ|WRITE|APPEND)`, func(m []string, t *Token) error {
		t.Kind = OpenFile
		t.File, t.Mode = m[1], m[2]
		return nil
	}),
	newRule("CLOSEFILE", `CLOSEFILE\s+(.+)`, func(m []string, t *Token) error {
		t.Kind = CloseFile
		t.File = m[1]
		return nil
	}),
	newRule("READFILE", `READFILE\s+(.+)`, func(m []string, t *Token) error {
		t.Kind = ReadFile
		parts := scanner.SplitTopLevel(m[1], ',')
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return diag.Errorf(diag.Lexical, t.Line, "READFILE expects a file name and a variable: %q", t.Text)
		}
		t.File, t.Target = parts[0], parts[1]
		return nil
	}),
	newRule("WRITEFILE", `WRITEFILE\s+(.+)`, func(m []string, t *Token) error {
		t.Kind = WriteFile
		comma := scanner.FindTopLevel(m[1], func(ch byte, _ int, _ string) bool { return ch == ',' })
		if comma < 0 {
			return diag.Errorf(diag.Lexical, t.Line, "WRITEFILE expects a file name and a value: %q", t.Text)
		}
		t.File = strings.TrimSpace(m[1][:comma])
		t.Expr = strings.TrimSpace(m[1][comma+1:])
		if t.File == "" || t.Expr == "" {
			return diag.Errorf(diag.Lexical, t.Line, "WRITEFILE expects a file name and a value: %q", t.Text)
		}
		return nil
	}),
	newRule("CALL", `CALL\s+(`+ident+`)\s*(?:\((.*)\))?`, func(m []string, t *Token) error {
		t.Kind = Call
		t.Name = m[1]
		t.Args = scanner.SplitTopLevel(m[2], ',')
		return nil
	}),
	newRule("OUTPUT", `(?:OUTPUT|PRINT)\s+(.+)`, func(m []string, t *Token) error {
		t.Kind = Output
		t.Expr = m[1]
		return nil
	}),
	newRule("NEXT", `(?:NEXT|ENDFOR)(?:\s+(`+ident+`))?`, func(m []string, t *Token) error {
		t.Kind = ForEnd
		t.Name = m[1]
		return nil
	}),
}

// inlineRules is the secondary matcher for statements written on the same
// line as a CASE clause or OTHERWISE.
var inlineRules = pickRules("OUTPUT", "ASSIGN", "CALL", "INPUT")

func pickRules(names ...string) []rule {
	var out []rule
	for _, name := range names {
		for _, r := range rules {
			if r.name == name {
				out = append(out, r)
			}
		}
	}
	return out
}

// Tokenize splits src into lines and classifies each non-blank line. The
// first unrecognised line aborts tokenization.
func Tokenize(src string) ([]Token, error) {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	var toks []Token
	for i, raw := range strings.Split(src, "\n") {
		code := scanner.StripComment(raw)
		line := strings.TrimSpace(code)
		if line == "" {
			continue
		}
		column := len(code) - len(strings.TrimLeftFunc(code, unicode.IsSpace)) + 1
		// A THEN on its own line belongs to the IF above it.
		if line == "THEN" && len(toks) > 0 && toks[len(toks)-1].Kind == IfStart {
			continue
		}
		tok, err := classify(line, i+1, rules)
		if err != nil {
			return nil, diag.Shift(err, column)
		}
		tok.Column = column
		toks = append(toks, tok)
	}
	return toks, nil
}

// MatchInline classifies the statement embedded in a CASE clause. Only
// OUTPUT, assignment, CALL and INPUT are recognised.
func MatchInline(text string, line int) (Token, error) {
	tok, err := classify(strings.TrimSpace(text), line, inlineRules)
	if err != nil {
		return Token{}, diag.Errorf(diag.Structural, line, "unsupported statement in CASE clause: %q (only OUTPUT, assignment, CALL and INPUT may follow the colon)", text)
	}
	return tok, nil
}

func classify(line string, lineNo int, table []rule) (Token, error) {
	for _, r := range table {
		m := r.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		tok := Token{Line: lineNo, Text: line}
		if err := r.build(m, &tok); err != nil {
			return Token{}, err
		}
		trimFields(&tok)
		return tok, nil
	}
	word := line
	if i := strings.IndexAny(line, " \t(:"); i > 0 {
		word = line[:i]
	}
	return Token{}, diag.Errorf(diag.Lexical, lineNo, "unrecognised statement: %q%s", line, diag.Hint(word, Keywords))
}

func trimFields(t *Token) {
	t.Name = strings.TrimSpace(t.Name)
	t.Expr = strings.TrimSpace(t.Expr)
	t.Target = strings.TrimSpace(t.Target)
	t.From = strings.TrimSpace(t.From)
	t.To = strings.TrimSpace(t.To)
	t.Step = strings.TrimSpace(t.Step)
	t.File = strings.TrimSpace(t.File)
	for i := range t.Indices {
		t.Indices[i] = strings.TrimSpace(t.Indices[i])
	}
	for i := range t.Clause.Values {
		t.Clause.Values[i] = strings.TrimSpace(t.Clause.Values[i])
	}
	t.Clause.Low = strings.TrimSpace(t.Clause.Low)
	t.Clause.High = strings.TrimSpace(t.Clause.High)
}

func classifyAssignment(target, value string, t *Token) error {
	t.Expr = value
	if m := targetArrayField.FindStringSubmatch(target); m != nil {
		t.Kind = AssignArrayRecordField
		t.Name, t.Indices, t.Field = m[1], splitSubscripts(m[2]), m[3]
		return nil
	}
	if m := targetField.FindStringSubmatch(target); m != nil {
		t.Kind = AssignRecordField
		t.Name, t.Field = m[1], m[2]
		return nil
	}
	if m := targetElement.FindStringSubmatch(target); m != nil {
		t.Kind = AssignArrayElement
		t.Name, t.Indices = m[1], splitSubscripts(m[2])
		return nil
	}
	if m := targetPlain.FindStringSubmatch(target); m != nil {
		t.Kind = Assignment
		t.Name = m[1]
		return nil
	}
	return diag.Errorf(diag.Lexical, t.Line, "invalid assignment target %q in %q", target, t.Text)
}

// splitSubscripts turns "[i, j]" or "[i][j]" into its index expressions.
func splitSubscripts(s string) []string {
	var out []string
	depth, start := 0, -1
	sc := scanner.New(s)
	for ch, ok := sc.Next(); ok; ch, ok = sc.Next() {
		if sc.InString() {
			continue
		}
		switch ch {
		case '[':
			if depth == 0 {
				start = sc.Pos() + 1
			}
			depth++
		case ']':
			depth--
			if depth == 0 && start >= 0 {
				out = append(out, scanner.SplitTopLevel(s[start:sc.Pos()], ',')...)
				start = -1
			}
		}
	}
	return out
}

func parseParams(s string, t *Token) ([]Param, error) {
	var params []Param
	byRef := false
	for _, part := range scanner.SplitTopLevel(s, ',') {
		m := paramPattern.FindStringSubmatch(part)
		if m == nil {
			return nil, diag.Errorf(diag.Lexical, t.Line, "invalid parameter %q in %q: expected [BYREF|BYVAL] name : TYPE", part, t.Text)
		}
		// A parameter without a passing mode inherits the previous one.
		switch m[1] {
		case "BYREF":
			byRef = true
		case "BYVAL":
			byRef = false
		}
		params = append(params, Param{Name: m[2], DataType: m[4], Array: m[3] != "", ByRef: byRef})
	}
	return params, nil
}
