package compiler

import (
	"fmt"
	"strconv"

	"github.com/rubiojr/pseudo/ast"
	"github.com/rubiojr/pseudo/diag"
	"github.com/rubiojr/pseudo/prelude"
)

// codeGen generates a Go program from a pseudocode AST. Compile errors
// are raised as *diag.Error panics and recovered by generate.
type codeGen struct {
	*context
	types []GoDecl
	vars  []GoDecl
	funcs []GoDecl
	decls map[ast.Statement]*symbol // DECLARE statement -> hoisted symbol
}

// generate checks prog and produces the Go source of the program.
func generate(prog *ast.Program) (src string, err error) {
	if err := programChecks.Run(prog); err != nil {
		return "", err
	}
	rt, err := prelude.Load()
	if err != nil {
		return "", fmt.Errorf("loading runtime: %w", err)
	}

	g := &codeGen{context: newContext(), decls: map[ast.Statement]*symbol{}}
	defer g.recover(&err)

	g.defineRecords(prog.Statements)
	g.defineRoutines(prog.Statements)
	g.hoist(prog.Statements, "c_")

	var main []GoStmt
	for _, s := range prog.Statements {
		switch st := s.(type) {
		case *ast.TypeDefinition:
		case *ast.ProcedureDefinition:
			r := g.routines[st.Name]
			g.funcs = append(g.funcs, r.header(), g.routineBody(r, st.Body, st.EndLine))
		case *ast.FunctionDefinition:
			r := g.routines[st.Name]
			g.funcs = append(g.funcs, r.header(), g.routineBody(r, st.Body, st.EndLine))
		default:
			main = append(main, g.stmt(s)...)
		}
	}

	file := &GoFile{Package: "main"}
	for _, imp := range rt.Imports {
		file.Imports = append(file.Imports, GoImport{Path: imp})
	}
	file.Decls = append(file.Decls, GoRawDecl{Code: rt.Body}, GoBlankLine{})
	file.Decls = append(file.Decls, g.types...)
	if len(g.vars) > 0 {
		file.Decls = append(file.Decls, g.vars...)
		file.Decls = append(file.Decls, GoBlankLine{})
	}
	file.Decls = append(file.Decls, g.funcs...)
	file.Decls = append(file.Decls, GoFuncDecl{Name: "program", Body: main})
	file.Init = []GoStmt{GoExprStmt{Expr: GoCallExpr{Func: "rtMain", Args: []GoExpr{GoIdentExpr{Name: "program"}}}}}
	return PrintGoFile(file), nil
}

func (g *codeGen) recover(errp *error) {
	if r := recover(); r != nil {
		de, ok := r.(*diag.Error)
		if !ok {
			panic(r)
		}
		*errp = de
	}
}

// defineRecords registers every TYPE and emits its Go struct.
func (g *codeGen) defineRecords(stmts []ast.Statement) {
	for _, s := range stmts {
		td, ok := s.(*ast.TypeDefinition)
		if !ok {
			continue
		}
		if _, scalar := scalarTypes[td.Name]; scalar {
			g.errorf(diag.Declaration, td.SourceLine, "TYPE %s redefines a built-in datatype", td.Name)
		}
		rec := &recordType{Name: td.Name, Line: td.SourceLine}
		decl := GoTypeDecl{Name: rec.goName()}
		for _, f := range td.Fields {
			ft := g.resolveType(f.DataType, f.SourceLine)
			rec.Fields = append(rec.Fields, recordField{Name: f.Name, Type: ft})
			decl.Fields = append(decl.Fields, GoParam{Name: "f_" + f.Name, Type: ft.GoType()})
		}
		g.records[td.Name] = rec
		g.types = append(g.types, decl)
	}
}

// defineRoutines registers routine signatures so calls may precede
// definitions and routines may recurse.
func (g *codeGen) defineRoutines(stmts []ast.Statement) {
	for _, s := range stmts {
		var r *routine
		switch st := s.(type) {
		case *ast.ProcedureDefinition:
			r = &routine{Name: st.Name, Line: st.SourceLine, Params: st.Params}
		case *ast.FunctionDefinition:
			r = &routine{Name: st.Name, Line: st.SourceLine, Params: st.Params}
			r.Returns = g.resolveType(st.Returns, st.SourceLine)
		default:
			continue
		}
		for _, p := range r.Params {
			t := g.resolveType(p.DataType, r.Line)
			if p.Array {
				t = arrayOf(t, 0)
			}
			r.types = append(r.types, t)
		}
		g.routines[r.Name] = r
	}
}

// hoist declares every DECLARE and CONSTANT of a program or routine body
// in the current scope. Variables stay unusable until their DECLARE is
// reached; constants are usable everywhere.
func (g *codeGen) hoist(stmts []ast.Statement, constPrefix string) []*symbol {
	var vars []*symbol
	visit := func(s ast.Statement) bool {
		switch st := s.(type) {
		case *ast.Declare:
			t := g.resolveType(st.DataType, st.SourceLine)
			sym := &symbol{Name: st.Name, Type: t, Line: st.SourceLine, init: t.Kind == Record}
			g.declare(sym)
			g.decls[st] = sym
			vars = append(vars, sym)
		case *ast.DeclareArray:
			elem := g.resolveType(st.DataType, st.SourceLine)
			sym := &symbol{Name: st.Name, Type: arrayOf(elem, len(st.Bounds)), Line: st.SourceLine, init: true}
			g.declare(sym)
			g.decls[st] = sym
			vars = append(vars, sym)
		case *ast.Constant:
			code, t := g.constant(st)
			sym := &symbol{Name: st.Name, Type: t, Line: st.SourceLine, kind: symConst,
				goName: constPrefix + st.Name, declared: true, init: true}
			g.declare(sym)
			g.vars = append(g.vars, GoVarDecl{Name: sym.goName, Type: t.GoType(), Value: GoRawExpr{Code: code}})
		}
		return false
	}
	for _, s := range stmts {
		switch s.(type) {
		case *ast.ProcedureDefinition, *ast.FunctionDefinition, *ast.TypeDefinition:
			continue
		}
		ast.WalkStatements([]ast.Statement{s}, visit)
	}
	if g.scope == g.globals {
		for _, sym := range vars {
			g.vars = append(g.vars, GoVarDecl{Name: sym.goName, Type: sym.Type.cellType()})
		}
	}
	return vars
}

// constant returns the Go initializer and type of a CONSTANT, whose value
// must be a literal.
func (g *codeGen) constant(c *ast.Constant) (string, *Type) {
	switch v := c.Value.(type) {
	case *ast.NumberLit, *ast.StringLit, *ast.CharLit, *ast.BoolLit, *ast.DateLit:
		val := g.expr(v, c.SourceLine)
		return val.code, val.t
	}
	g.errorf(diag.Type, c.SourceLine, "CONSTANT %s must be a literal value, got %s", c.Name, c.Value)
	return "", nil
}

// routineBody compiles a PROCEDURE or FUNCTION into a Go function.
func (g *codeGen) routineBody(r *routine, body []ast.Statement, endLine int) GoFuncDecl {
	savedScope := g.scope
	g.scope = newScope(g.globals)
	g.current = r
	defer func() {
		g.scope = savedScope
		g.current = nil
	}()

	fn := GoFuncDecl{Name: r.goName()}
	if r.function() {
		fn.Return = r.Returns.GoType()
	}
	for i, p := range r.Params {
		t := r.types[i]
		sym := &symbol{Name: p.Name, Type: t, Line: r.Line, kind: symParam, declared: true}
		sym.ref = p.ByRef && t.Kind != Array
		sym.init = !sym.ref || !t.scalar()
		g.declare(sym)
		typ := t.cellType()
		if sym.ref {
			typ = "*" + typ
		}
		fn.Params = append(fn.Params, GoParam{Name: sym.goName, Type: typ})
	}

	locals := g.hoist(body, "c_"+r.Name+"_")
	stmts := g.block(body)

	for _, sym := range locals {
		fn.Body = append(fn.Body, GoVarStmt{Name: sym.goName, Type: sym.Type.cellType()})
		if !sym.used {
			fn.Body = append(fn.Body, GoAssignStmt{Target: "_", Op: "=", Value: GoIdentExpr{Name: sym.goName}})
		}
	}
	fn.Body = append(fn.Body, stmts...)
	if r.function() {
		fn.Body = append(fn.Body, GoExprStmt{Expr: GoCallExpr{Func: "panic", Args: []GoExpr{
			GoCallExpr{Func: "rtNoReturn", Args: []GoExpr{GoIntLit{Value: strconv.Itoa(endLine)}, GoStringLit{Value: r.Name}}},
		}}})
	}
	return fn
}
