package lexer

import "fmt"

// Kind identifies the statement shape of a token. Every non-blank source
// line produces exactly one token.
type Kind int

const (
	CaseStart Kind = iota
	CaseEnd
	CaseClause
	Otherwise
	ForStart
	ForEnd
	WhileStart
	WhileEnd
	RepeatStart
	RepeatEnd
	TypeStart
	TypeEnd
	Declare
	DeclareArray
	Assignment
	AssignRecordField
	AssignArrayElement
	AssignArrayRecordField
	ProcedureStart
	ProcedureEnd
	FunctionStart
	FunctionEnd
	Return
	Constant
	IfStart
	Else
	IfEnd
	Input
	OpenFile
	CloseFile
	ReadFile
	WriteFile
	Call
	Output
)

var kindNames = [...]string{
	CaseStart:              "CASE_START",
	CaseEnd:                "CASE_END",
	CaseClause:             "CASE_CLAUSE",
	Otherwise:              "OTHERWISE",
	ForStart:               "FOR_LOOP_START",
	ForEnd:                 "FOR_LOOP_END",
	WhileStart:             "WHILE_START",
	WhileEnd:               "WHILE_END",
	RepeatStart:            "REPEAT_START",
	RepeatEnd:              "REPEAT_END",
	TypeStart:              "TYPE_START",
	TypeEnd:                "TYPE_END",
	Declare:                "DECLARE",
	DeclareArray:           "DECLARE_ARRAY",
	Assignment:             "ASSIGNMENT",
	AssignRecordField:      "ASSIGN_RECORD_FIELD",
	AssignArrayElement:     "ASSIGN_ARRAY_ELEMENT",
	AssignArrayRecordField: "ASSIGN_ARRAY_RECORD_FIELD",
	ProcedureStart:         "PROCEDURE_START",
	ProcedureEnd:           "PROCEDURE_END",
	FunctionStart:          "FUNCTION_START",
	FunctionEnd:            "FUNCTION_END",
	Return:                 "RETURN",
	Constant:               "CONSTANT",
	IfStart:                "IF_START",
	Else:                   "ELSE",
	IfEnd:                  "IF_END",
	Input:                  "INPUT",
	OpenFile:               "OPENFILE",
	CloseFile:              "CLOSEFILE",
	ReadFile:               "READFILE",
	WriteFile:              "WRITEFILE",
	Call:                   "CALL",
	Output:                 "OUTPUT",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IsTerminator reports whether tokens of this kind only close or split a
// block and never stand alone as a statement.
func (k Kind) IsTerminator() bool {
	switch k {
	case CaseEnd, CaseClause, Otherwise, ForEnd, WhileEnd, RepeatEnd,
		TypeEnd, ProcedureEnd, FunctionEnd, Else, IfEnd:
		return true
	}
	return false
}

// ClauseForm is the shape of a CASE clause condition.
type ClauseForm int

const (
	Single   ClauseForm = iota // 'A' :
	Multiple                   // 1, 2, 3 :
	Range                      // 'A' TO 'M' :
)

func (f ClauseForm) String() string {
	switch f {
	case Single:
		return "single"
	case Multiple:
		return "multiple"
	case Range:
		return "range"
	}
	return fmt.Sprintf("ClauseForm(%d)", int(f))
}

// Clause is the condition of a CASE_CLAUSE token.
type Clause struct {
	Form   ClauseForm
	Values []string // Single and Multiple
	Low    string   // Range
	High   string   // Range
}

// Bound is one inclusive "lower:upper" array dimension.
type Bound struct {
	Lower string
	Upper string
}

// Param is a routine parameter as written in a PROCEDURE or FUNCTION header.
type Param struct {
	Name     string
	DataType string
	Array    bool // ARRAY OF DataType
	ByRef    bool
}

// Token is one classified source line. Which fields are set depends on
// Kind; expressions are kept as raw text for the parser.
type Token struct {
	Kind   Kind   `json:"kind"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"` // 1-based byte column where Text starts
	Text   string `json:"text"`             // the line after comment stripping and trimming

	Name     string   `json:"name,omitempty"`    // variable, constant, type, routine or loop variable name
	Expr     string   `json:"expr,omitempty"`    // value, condition, subject, output list, return value
	Target   string   `json:"target,omitempty"`  // INPUT and READFILE destination
	Field    string   `json:"field,omitempty"`   // record field
	Indices  []string `json:"indices,omitempty"` // array subscripts
	DataType string   `json:"data_type,omitempty"`
	Record   bool     `json:"record,omitempty"` // DECLARE of a record-typed variable
	Bounds   []Bound  `json:"bounds,omitempty"` // DECLARE_ARRAY
	From     string   `json:"from,omitempty"`   // FOR
	To       string   `json:"to,omitempty"`     // FOR
	Step     string   `json:"step,omitempty"`   // FOR, optional
	Params   []Param  `json:"params,omitempty"`
	Returns  string   `json:"returns,omitempty"`
	Args     []string `json:"args,omitempty"`   // CALL
	Mode     string   `json:"mode,omitempty"`   // OPENFILE: READ, WRITE or APPEND
	File     string   `json:"file,omitempty"`   // file name expression
	Clause   Clause   `json:"clause,omitzero"`
	Inline   string   `json:"inline,omitempty"` // statement text embedded in a CASE_CLAUSE or OTHERWISE
}

func (t Token) String() string {
	return fmt.Sprintf("%d:%s %q", t.Line, t.Kind, t.Text)
}
