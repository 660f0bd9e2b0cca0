package compiler

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/rubiojr/pseudo/ast"
	"github.com/rubiojr/pseudo/diag"
)

type symKind int

const (
	symVar symKind = iota
	symConst
	symParam
	symLoop
)

// symbol is a named value visible to pseudocode.
type symbol struct {
	Name   string
	Type   *Type
	Line   int // line of the DECLARE, CONSTANT, header or FOR
	kind   symKind
	goName string

	declared bool // the DECLARE has been passed in program order
	init     bool // statically known to hold a value
	global   bool
	ref      bool // BYREF parameter: goName is a pointer
	used     bool
}

// scope is one level of the lexical scope chain. Go blocks and
// pseudocode blocks nest the same way.
type scope struct {
	parent *scope
	syms   map[string]*symbol
	order  []*symbol
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, syms: map[string]*symbol{}}
}

func (s *scope) add(sym *symbol) {
	s.syms[sym.Name] = sym
	s.order = append(s.order, sym)
}

func (s *scope) lookup(name string) *symbol {
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.syms[name]; ok {
			return sym
		}
	}
	return nil
}

func (s *scope) names() []string {
	seen := map[string]bool{}
	var out []string
	for sc := s; sc != nil; sc = sc.parent {
		for _, sym := range sc.order {
			if !seen[sym.Name] {
				seen[sym.Name] = true
				out = append(out, sym.Name)
			}
		}
	}
	return out
}

// routine is the signature of a user PROCEDURE or FUNCTION.
type routine struct {
	Name    string
	Line    int
	Params  []ast.Param
	types   []*Type
	Returns *Type // nil for a procedure
}

func (r *routine) function() bool { return r.Returns != nil }

// header names the source routine above its Go function.
func (r *routine) header() GoComment {
	kind := "PROCEDURE"
	if r.function() {
		kind = "FUNCTION"
	}
	return GoComment{Text: fmt.Sprintf("%s %s, line %d", kind, r.Name, r.Line)}
}

func (r *routine) goName() string {
	if r.function() {
		return "fn_" + r.Name
	}
	return "p_" + r.Name
}

func (r *routine) kind() string {
	if r.function() {
		return "FUNCTION"
	}
	return "PROCEDURE"
}

// context is the state of one compilation: the scope chain, record types
// and routine signatures. It is created fresh by every call to generate.
type context struct {
	globals  *scope
	scope    *scope
	records  map[string]*recordType
	routines map[string]*routine
	current  *routine // routine being compiled; nil in the main program
	tmp      int

	guards  []GoStmt
	guarded map[*symbol]bool
}

func newContext() *context {
	g := newScope(nil)
	return &context{
		globals:  g,
		scope:    g,
		records:  map[string]*recordType{},
		routines: map[string]*routine{},
		guarded:  map[*symbol]bool{},
	}
}

func (c *context) errorf(kind diag.Kind, line int, format string, args ...any) {
	panic(diag.Errorf(kind, line, format, args...))
}

func (c *context) push() { c.scope = newScope(c.scope) }

func (c *context) pop() { c.scope = c.scope.parent }

func (c *context) temp(prefix string) string {
	c.tmp++
	return prefix + strconv.Itoa(c.tmp)
}

func (c *context) inRoutine() bool { return c.current != nil }

// resolveType maps a datatype name to its Type.
func (c *context) resolveType(name string, line int) *Type {
	if t, ok := scalarTypes[name]; ok {
		return t
	}
	if r, ok := c.records[name]; ok {
		return &Type{Kind: Record, Record: r}
	}
	c.errorf(diag.Declaration, line, "unknown datatype %s%s", name, diag.Hint(name, c.typeNames()))
	return nil
}

func (c *context) typeNames() []string {
	names := []string{"INTEGER", "REAL", "CHAR", "STRING", "BOOLEAN", "DATE"}
	var recs []string
	for n := range c.records {
		recs = append(recs, n)
	}
	sort.Strings(recs)
	return append(names, recs...)
}

// declare adds a symbol to the current scope, rejecting a second
// declaration of the same name at the same level.
func (c *context) declare(sym *symbol) {
	if prev, ok := c.scope.syms[sym.Name]; ok {
		c.errorf(diag.Declaration, sym.Line, "%s is already declared on line %d", sym.Name, prev.Line)
	}
	if sym.goName == "" {
		sym.goName = "v_" + sym.Name
	}
	sym.global = c.scope == c.globals
	c.scope.add(sym)
}

// resolve finds the symbol for a name read or written at line.
func (c *context) resolve(name string, line int) *symbol {
	sym := c.scope.lookup(name)
	if sym == nil {
		c.errorf(diag.Declaration, line, "%s is not declared%s", name, diag.Hint(name, c.scope.names()))
	}
	if !sym.declared && !(sym.global && c.inRoutine()) {
		c.errorf(diag.Declaration, line, "%s is used before its DECLARE on line %d", name, sym.Line)
	}
	sym.used = true
	return sym
}

// needsGuard reports whether reading sym must be checked at run time.
// Globals read inside a routine are always checked: the routine may run
// before the main program assigns them.
func (c *context) needsGuard(sym *symbol) bool {
	if sym.kind == symConst || !sym.Type.scalar() {
		return false
	}
	if sym.global && c.inRoutine() {
		return true
	}
	return !sym.init
}

// read records a read of sym, adding a guard to the current statement
// when it may not hold a value yet.
func (c *context) read(sym *symbol, line int) {
	if !c.needsGuard(sym) || c.guarded[sym] {
		return
	}
	c.guarded[sym] = true
	c.guards = append(c.guards, GoExprStmt{Expr: GoCallExpr{
		Func: "rtNeed",
		Args: []GoExpr{
			GoDotExpr{Object: GoIdentExpr{Name: sym.goName}, Field: "Set"},
			GoStringLit{Value: sym.Name},
			GoIntLit{Value: strconv.Itoa(line)},
		},
	}})
}

// takeGuards returns the guards collected since the last call.
func (c *context) takeGuards() []GoStmt {
	g := c.guards
	c.guards = nil
	c.guarded = map[*symbol]bool{}
	return g
}

// assigned marks sym as holding a value. Assignments made inside a routine
// do not count for globals, whose state depends on the call order.
func (c *context) assigned(sym *symbol) {
	if sym.global && c.inRoutine() {
		return
	}
	sym.init = true
}

type initState map[*symbol]bool

// saveInit snapshots the init flag of every visible symbol, so that
// assignments inside a conditional body can be undone on exit.
func (c *context) saveInit() initState {
	st := initState{}
	for sc := c.scope; sc != nil; sc = sc.parent {
		for _, sym := range sc.order {
			if _, ok := st[sym]; !ok {
				st[sym] = sym.init
			}
		}
	}
	return st
}

func (c *context) restoreInit(st initState) {
	for sym, v := range st {
		sym.init = v
	}
}
