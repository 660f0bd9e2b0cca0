package compiler

import (
	"github.com/rubiojr/pseudo/ast"
	"github.com/rubiojr/pseudo/diag"
)

// programChecks validate program shape before code generation.
var programChecks = ast.CheckChain{
	ast.CheckFunc{N: "top-level-definitions", F: checkTopLevelOnly},
	ast.CheckFunc{N: "return-placement", F: checkReturnPlacement},
	ast.CheckFunc{N: "record-fields", F: checkRecordFields},
	ast.CheckFunc{N: "unique-definitions", F: checkUniqueDefinitions},
}

// checkTopLevelOnly rejects TYPE, PROCEDURE and FUNCTION definitions
// inside other blocks.
func checkTopLevelOnly(prog *ast.Program) error {
	for _, s := range prog.Statements {
		for _, body := range ast.Bodies(s) {
			if err := rejectNestedDefinitions(body); err != nil {
				return err
			}
		}
	}
	return nil
}

func rejectNestedDefinitions(stmts []ast.Statement) error {
	var err error
	ast.WalkStatements(stmts, func(s ast.Statement) bool {
		switch st := s.(type) {
		case *ast.ProcedureDefinition:
			err = diag.Errorf(diag.Structural, st.SourceLine, "PROCEDURE %s must be defined at the top level", st.Name)
		case *ast.FunctionDefinition:
			err = diag.Errorf(diag.Structural, st.SourceLine, "FUNCTION %s must be defined at the top level", st.Name)
		case *ast.TypeDefinition:
			err = diag.Errorf(diag.Structural, st.SourceLine, "TYPE %s must be defined at the top level", st.Name)
		}
		return err != nil
	})
	return err
}

// checkReturnPlacement rejects RETURN in the main program.
func checkReturnPlacement(prog *ast.Program) error {
	for _, s := range prog.Statements {
		switch s.(type) {
		case *ast.ProcedureDefinition, *ast.FunctionDefinition:
			continue
		}
		var err error
		ast.WalkStatements([]ast.Statement{s}, func(st ast.Statement) bool {
			if r, ok := st.(*ast.Return); ok {
				err = diag.Errorf(diag.Structural, r.SourceLine, "RETURN outside a PROCEDURE or FUNCTION")
			}
			return err != nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// checkRecordFields enforces scalar, uniquely named record fields.
func checkRecordFields(prog *ast.Program) error {
	for _, s := range prog.Statements {
		td, ok := s.(*ast.TypeDefinition)
		if !ok {
			continue
		}
		if len(td.Fields) == 0 {
			return diag.Errorf(diag.Declaration, td.SourceLine, "TYPE %s has no fields", td.Name)
		}
		seen := map[string]int{}
		for _, f := range td.Fields {
			if f.Record {
				return diag.Errorf(diag.Declaration, f.SourceLine,
					"field %s of TYPE %s cannot have record type %s: fields must be INTEGER, REAL, CHAR, STRING, BOOLEAN or DATE",
					f.Name, td.Name, f.DataType)
			}
			if prev, dup := seen[f.Name]; dup {
				return diag.Errorf(diag.Declaration, f.SourceLine, "field %s of TYPE %s is already declared on line %d", f.Name, td.Name, prev)
			}
			seen[f.Name] = f.SourceLine
		}
	}
	return nil
}

// checkUniqueDefinitions rejects a second TYPE or routine of the same name.
func checkUniqueDefinitions(prog *ast.Program) error {
	types := map[string]int{}
	routines := map[string]int{}
	for _, s := range prog.Statements {
		var name, kind string
		switch st := s.(type) {
		case *ast.TypeDefinition:
			if prev, dup := types[st.Name]; dup {
				return diag.Errorf(diag.Declaration, st.SourceLine, "TYPE %s is already defined on line %d", st.Name, prev)
			}
			types[st.Name] = st.SourceLine
			continue
		case *ast.ProcedureDefinition:
			name, kind = st.Name, "PROCEDURE"
		case *ast.FunctionDefinition:
			name, kind = st.Name, "FUNCTION"
		default:
			continue
		}
		line := s.StmtLine()
		if prev, dup := routines[name]; dup {
			return diag.Errorf(diag.Declaration, line, "%s is already defined on line %d", name, prev)
		}
		if _, ok := builtins[name]; ok {
			return diag.Errorf(diag.Declaration, line, "%s %s redefines a built-in function", kind, name)
		}
		routines[name] = line
	}
	return nil
}
