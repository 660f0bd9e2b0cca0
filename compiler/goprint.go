package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// PrintGoFile renders f as Go source. Alignment is left to go/format,
// which Compile runs on the result.
func PrintGoFile(f *GoFile) string {
	p := &goPrinter{}
	p.file(f)
	return p.sb.String()
}

// goExprString renders a single expression.
func goExprString(e GoExpr) string {
	var sb strings.Builder
	writeExpr(&sb, e)
	return sb.String()
}

type goPrinter struct {
	sb    strings.Builder
	depth int
}

func (p *goPrinter) printf(format string, args ...any) {
	p.sb.WriteString(strings.Repeat("\t", p.depth))
	fmt.Fprintf(&p.sb, format, args...)
	p.sb.WriteByte('\n')
}

func (p *goPrinter) blank() { p.sb.WriteByte('\n') }

// nested prints body one level deeper than the current line.
func (p *goPrinter) nested(body []GoStmt) {
	p.depth++
	for _, s := range body {
		p.stmt(s)
	}
	p.depth--
}

func (p *goPrinter) file(f *GoFile) {
	p.printf("package %s", f.Package)
	p.blank()
	if len(f.Imports) > 0 {
		p.printf("import (")
		for _, imp := range f.Imports {
			p.printf("\t%q", imp.Path)
		}
		p.printf(")")
		p.blank()
	}
	for _, d := range f.Decls {
		p.decl(d)
	}
	if f.Init != nil {
		p.printf("func main() {")
		p.nested(f.Init)
		p.printf("}")
	}
}

func (p *goPrinter) decl(d GoDecl) {
	switch d := d.(type) {
	case GoTypeDecl:
		p.printf("type %s struct {", d.Name)
		for _, f := range d.Fields {
			p.printf("\t%s %s", f.Name, f.Type)
		}
		p.printf("}")
		p.blank()
	case GoVarDecl:
		p.varLine(d.Name, d.Type, d.Value)
	case GoFuncDecl:
		params := make([]string, len(d.Params))
		for i, param := range d.Params {
			params[i] = param.Name + " " + param.Type
		}
		ret := ""
		if d.Return != "" {
			ret = " " + d.Return
		}
		p.printf("func %s(%s)%s {", d.Name, strings.Join(params, ", "), ret)
		p.nested(d.Body)
		p.printf("}")
		p.blank()
	case GoRawDecl:
		p.sb.WriteString(d.Code)
	case GoBlankLine:
		p.blank()
	case GoComment:
		p.printf("// %s", d.Text)
	}
}

func (p *goPrinter) varLine(name, typ string, value GoExpr) {
	if value == nil {
		p.printf("var %s %s", name, typ)
		return
	}
	p.printf("var %s %s = %s", name, typ, goExprString(value))
}

func (p *goPrinter) stmt(s GoStmt) {
	switch s := s.(type) {
	case GoExprStmt:
		p.printf("%s", goExprString(s.Expr))
	case GoAssignStmt:
		p.printf("%s %s %s", s.Target, s.Op, goExprString(s.Value))
	case GoReturnStmt:
		if s.Value == nil {
			p.printf("return")
			return
		}
		p.printf("return %s", goExprString(s.Value))
	case GoVarStmt:
		p.varLine(s.Name, s.Type, s.Value)
	case GoIfStmt:
		p.printf("if %s {", goExprString(s.Cond))
		p.nested(s.Body)
		for _, branch := range s.ElseIf {
			p.printf("} else if %s {", goExprString(branch.Cond))
			p.nested(branch.Body)
		}
		if len(s.Else) > 0 {
			p.printf("} else {")
			p.nested(s.Else)
		}
		p.printf("}")
	case GoForStmt:
		switch {
		case s.Init != "" || s.Post != "":
			p.printf("for %s; %s; %s {", s.Init, s.Cond, s.Post)
		case s.Cond != "":
			p.printf("for %s {", s.Cond)
		default:
			p.printf("for {")
		}
		p.nested(s.Body)
		p.printf("}")
	case GoBlockStmt:
		p.printf("{")
		p.nested(s.Body)
		p.printf("}")
	case GoBreakStmt:
		p.printf("break")
	case GoBlankLine:
		p.blank()
	case GoComment:
		p.printf("// %s", s.Text)
	}
}

func writeExpr(sb *strings.Builder, e GoExpr) {
	switch e := e.(type) {
	case GoRawExpr:
		sb.WriteString(e.Code)
	case GoIdentExpr:
		sb.WriteString(e.Name)
	case GoIntLit:
		sb.WriteString(e.Value)
	case GoStringLit:
		sb.WriteString(`"` + e.Value + `"`)
	case GoBoolLit:
		sb.WriteString(strconv.FormatBool(e.Value))
	case GoBinaryExpr:
		writeExpr(sb, e.Left)
		sb.WriteString(" " + e.Op + " ")
		writeExpr(sb, e.Right)
	case GoUnaryExpr:
		sb.WriteString(e.Op)
		writeExpr(sb, e.Operand)
	case GoParenExpr:
		sb.WriteByte('(')
		writeExpr(sb, e.Inner)
		sb.WriteByte(')')
	case GoCallExpr:
		sb.WriteString(e.Func)
		writeArgs(sb, e.Args)
	case GoMethodCallExpr:
		writeExpr(sb, e.Object)
		sb.WriteString("." + e.Method)
		writeArgs(sb, e.Args)
	case GoDotExpr:
		writeExpr(sb, e.Object)
		sb.WriteString("." + e.Field)
	default:
		panic(fmt.Sprintf("goprint: unhandled expression %T", e))
	}
}

func writeArgs(sb *strings.Builder, args []GoExpr) {
	sb.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeExpr(sb, a)
	}
	sb.WriteByte(')')
}
