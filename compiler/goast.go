package compiler

// The generator builds a GoFile tree and PrintGoFile renders it. Statement
// nodes carry the control flow of the source program; expressions are
// trees for operators and raw text for runtime calls whose shape never
// varies.

type (
	GoDecl interface{ goDecl() }
	GoStmt interface{ goStmt() }
	GoExpr interface{ goExpr() }
)

// GoFile is one generated main package. Init is the body of main.
type GoFile struct {
	Package string
	Imports []GoImport
	Decls   []GoDecl
	Init    []GoStmt
}

type GoImport struct {
	Path string
}

// GoParam is a function parameter or a struct field.
type GoParam struct {
	Name string
	Type string
}

// Declarations.

// GoTypeDecl is a struct type generated for a record TYPE.
type GoTypeDecl struct {
	Name   string
	Fields []GoParam
}

// GoVarDecl is a package-level var; Value may be nil.
type GoVarDecl struct {
	Name  string
	Type  string
	Value GoExpr
}

type GoFuncDecl struct {
	Name   string
	Params []GoParam
	Return string
	Body   []GoStmt
}

// GoRawDecl holds the embedded runtime verbatim.
type GoRawDecl struct {
	Code string
}

func (GoTypeDecl) goDecl() {}
func (GoVarDecl) goDecl()  {}
func (GoFuncDecl) goDecl() {}
func (GoRawDecl) goDecl()  {}

// Statements.

type GoExprStmt struct {
	Expr GoExpr
}

// GoAssignStmt is Target Op Value where Op is "=", ":=" or a compound
// assignment.
type GoAssignStmt struct {
	Target string
	Op     string
	Value  GoExpr
}

// GoReturnStmt returns Value, or nothing when Value is nil.
type GoReturnStmt struct {
	Value GoExpr
}

type GoVarStmt struct {
	Name  string
	Type  string
	Value GoExpr
}

// GoIfStmt is an if with optional else-if branches and a final else.
type GoIfStmt struct {
	Cond   GoExpr
	Body   []GoStmt
	ElseIf []GoElseIf
	Else   []GoStmt
}

type GoElseIf struct {
	Cond GoExpr
	Body []GoStmt
}

// GoForStmt prints as a three-clause loop when Init or Post is set, a
// condition loop when only Cond is set and an endless loop otherwise.
type GoForStmt struct {
	Init string
	Cond string
	Post string
	Body []GoStmt
}

type GoBlockStmt struct {
	Body []GoStmt
}

type GoBreakStmt struct{}

// GoBlankLine and GoComment work as declarations and as statements.
type GoBlankLine struct{}

type GoComment struct {
	Text string
}

func (GoExprStmt) goStmt()   {}
func (GoAssignStmt) goStmt() {}
func (GoReturnStmt) goStmt() {}
func (GoVarStmt) goStmt()    {}
func (GoIfStmt) goStmt()     {}
func (GoForStmt) goStmt()    {}
func (GoBlockStmt) goStmt()  {}
func (GoBreakStmt) goStmt()  {}
func (GoBlankLine) goStmt()  {}
func (GoBlankLine) goDecl()  {}
func (GoComment) goStmt()    {}
func (GoComment) goDecl()    {}

// Expressions.

// GoRawExpr is Go source text used as is.
type GoRawExpr struct {
	Code string
}

type GoIdentExpr struct {
	Name string
}

// GoIntLit holds the decimal digits of an integer literal.
type GoIntLit struct {
	Value string
}

// GoStringLit holds escaped string content without the quotes.
type GoStringLit struct {
	Value string
}

type GoBoolLit struct {
	Value bool
}

// GoBinaryExpr prints without parentheses. Callers wrap operands that bind
// looser than Op in a GoParenExpr.
type GoBinaryExpr struct {
	Left  GoExpr
	Op    string
	Right GoExpr
}

type GoUnaryExpr struct {
	Op      string
	Operand GoExpr
}

type GoParenExpr struct {
	Inner GoExpr
}

type GoCallExpr struct {
	Func string
	Args []GoExpr
}

type GoMethodCallExpr struct {
	Object GoExpr
	Method string
	Args   []GoExpr
}

// GoDotExpr is a field selector.
type GoDotExpr struct {
	Object GoExpr
	Field  string
}

func (GoRawExpr) goExpr()        {}
func (GoIdentExpr) goExpr()      {}
func (GoIntLit) goExpr()         {}
func (GoStringLit) goExpr()      {}
func (GoBoolLit) goExpr()        {}
func (GoBinaryExpr) goExpr()     {}
func (GoUnaryExpr) goExpr()      {}
func (GoParenExpr) goExpr()      {}
func (GoCallExpr) goExpr()       {}
func (GoMethodCallExpr) goExpr() {}
func (GoDotExpr) goExpr()        {}
