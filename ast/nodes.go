package ast

// Node is the interface for all AST nodes.
type Node interface {
	node()
}

// Statement is the interface for statement nodes.
type Statement interface {
	Node
	stmt()
	StmtLine() int
	StmtEndLine() int
}

// BaseStmt provides common fields for all statements.
type BaseStmt struct {
	SourceLine int // start line in the original source
	EndLine    int // line of the closing terminator for block statements (0 otherwise)
}

func (b BaseStmt) StmtLine() int    { return b.SourceLine }
func (b BaseStmt) StmtEndLine() int { return b.EndLine }

// Program is the root node.
type Program struct {
	Statements []Statement
	SourceFile string // display path of the source file
}

func (p *Program) node() {}

// Constant represents CONSTANT Name = value.
type Constant struct {
	BaseStmt
	Name  string
	Value Expr
}

func (c *Constant) node() {}
func (c *Constant) stmt() {}

// Declare represents DECLARE name : TYPE for a scalar or record type.
type Declare struct {
	BaseStmt
	Name     string
	DataType string
	Record   bool // DataType names a TYPE ... ENDTYPE definition
}

func (d *Declare) node() {}
func (d *Declare) stmt() {}

// Bound is one inclusive dimension of an array declaration.
type Bound struct {
	Lower Expr
	Upper Expr
}

// DeclareArray represents DECLARE name : ARRAY[l:u, ...] OF TYPE.
type DeclareArray struct {
	BaseStmt
	Name     string
	DataType string
	Bounds   []Bound
}

func (d *DeclareArray) node() {}
func (d *DeclareArray) stmt() {}

// Assignment represents name ← value.
type Assignment struct {
	BaseStmt
	Name  string
	Value Expr
}

func (a *Assignment) node() {}
func (a *Assignment) stmt() {}

// AssignRecordField represents name.field ← value.
type AssignRecordField struct {
	BaseStmt
	Name  string
	Field string
	Value Expr
}

func (a *AssignRecordField) node() {}
func (a *AssignRecordField) stmt() {}

// AssignArrayElement represents name[i, ...] ← value.
type AssignArrayElement struct {
	BaseStmt
	Name    string
	Indices []Expr
	Value   Expr
}

func (a *AssignArrayElement) node() {}
func (a *AssignArrayElement) stmt() {}

// AssignArrayRecordField represents name[i, ...].field ← value.
type AssignArrayRecordField struct {
	BaseStmt
	Name    string
	Indices []Expr
	Field   string
	Value   Expr
}

func (a *AssignArrayRecordField) node() {}
func (a *AssignArrayRecordField) stmt() {}

// Output represents OUTPUT v1, v2, ... printed as one line.
type Output struct {
	BaseStmt
	Values []Expr
}

func (o *Output) node() {}
func (o *Output) stmt() {}

// Input represents INPUT target. Target is an *Ident, *Index or *Field.
type Input struct {
	BaseStmt
	Target Expr
}

func (i *Input) node() {}
func (i *Input) stmt() {}

// Call represents CALL Name(args).
type Call struct {
	BaseStmt
	Name string
	Args []Expr
}

func (c *Call) node() {}
func (c *Call) stmt() {}

// OpenFile represents OPENFILE file FOR mode.
type OpenFile struct {
	BaseStmt
	File Expr
	Mode string // READ, WRITE or APPEND
}

func (o *OpenFile) node() {}
func (o *OpenFile) stmt() {}

// CloseFile represents CLOSEFILE file.
type CloseFile struct {
	BaseStmt
	File Expr
}

func (c *CloseFile) node() {}
func (c *CloseFile) stmt() {}

// ReadFile represents READFILE file, target.
type ReadFile struct {
	BaseStmt
	File   Expr
	Target Expr
}

func (r *ReadFile) node() {}
func (r *ReadFile) stmt() {}

// WriteFile represents WRITEFILE file, value.
type WriteFile struct {
	BaseStmt
	File  Expr
	Value Expr
}

func (w *WriteFile) node() {}
func (w *WriteFile) stmt() {}

// ClauseForm is the shape of a CASE clause condition.
type ClauseForm int

const (
	SingleValue ClauseForm = iota
	MultipleValues
	ValueRange
)

// CaseClause is one "values : body" arm of a CASE statement.
type CaseClause struct {
	Line   int
	Form   ClauseForm
	Values []Expr // SingleValue and MultipleValues
	Low    Expr   // ValueRange
	High   Expr   // ValueRange
	Body   []Statement
}

// Otherwise is the fallback arm of a CASE statement.
type Otherwise struct {
	Line int
	Body []Statement
}

// Case represents CASE OF subject ... ENDCASE.
type Case struct {
	BaseStmt
	Subject   Expr
	Clauses   []*CaseClause
	Otherwise *Otherwise // nil when absent
}

func (c *Case) node() {}
func (c *Case) stmt() {}

// While represents WHILE cond ... ENDWHILE.
type While struct {
	BaseStmt
	Cond Expr
	Body []Statement
}

func (w *While) node() {}
func (w *While) stmt() {}

// Repeat represents REPEAT ... UNTIL cond. The condition is checked after
// each pass; EndLine is the UNTIL line.
type Repeat struct {
	BaseStmt
	Body  []Statement
	Until Expr
}

func (r *Repeat) node() {}
func (r *Repeat) stmt() {}

// For represents FOR var ← from TO to [STEP step] ... NEXT.
type For struct {
	BaseStmt
	Var  string
	From Expr
	To   Expr
	Step Expr // nil means 1
	Body []Statement
}

func (f *For) node() {}
func (f *For) stmt() {}

// TypeDefinition represents TYPE Name ... ENDTYPE.
type TypeDefinition struct {
	BaseStmt
	Name   string
	Fields []*Declare
}

func (t *TypeDefinition) node() {}
func (t *TypeDefinition) stmt() {}

// Param is a routine parameter.
type Param struct {
	Name     string
	DataType string
	Array    bool // ARRAY OF DataType
	ByRef    bool
}

// ProcedureDefinition represents PROCEDURE Name(params) ... ENDPROCEDURE.
type ProcedureDefinition struct {
	BaseStmt
	Name   string
	Params []Param
	Body   []Statement
}

func (p *ProcedureDefinition) node() {}
func (p *ProcedureDefinition) stmt() {}

// FunctionDefinition represents FUNCTION Name(params) RETURNS T ... ENDFUNCTION.
type FunctionDefinition struct {
	BaseStmt
	Name    string
	Params  []Param
	Returns string
	Body    []Statement
}

func (f *FunctionDefinition) node() {}
func (f *FunctionDefinition) stmt() {}

// Return represents RETURN value.
type Return struct {
	BaseStmt
	Value Expr // nil for a bare RETURN
}

func (r *Return) node() {}
func (r *Return) stmt() {}

// If represents IF cond THEN ... [ELSE ...] ENDIF.
type If struct {
	BaseStmt
	Cond Expr
	Then []Statement
	Else []Statement
}

func (i *If) node() {}
func (i *If) stmt() {}
