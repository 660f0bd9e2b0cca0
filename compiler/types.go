package compiler

import "github.com/rubiojr/pseudo/lexer"

// Kind is the datatype category of a pseudocode value.
type Kind int

const (
	Integer Kind = iota
	Real
	Char
	String
	Boolean
	Date
	Record
	Array
)

// Type describes a pseudocode datatype.
type Type struct {
	Kind   Kind
	Record *recordType // Kind == Record
	Elem   *Type       // Kind == Array
	Dims   int         // Kind == Array; 0 for an ARRAY OF parameter of any rank
}

var (
	tInteger = &Type{Kind: Integer}
	tReal    = &Type{Kind: Real}
	tChar    = &Type{Kind: Char}
	tString  = &Type{Kind: String}
	tBoolean = &Type{Kind: Boolean}
	tDate    = &Type{Kind: Date}
)

var scalarTypes = map[string]*Type{
	"INTEGER": tInteger,
	"REAL":    tReal,
	"CHAR":    tChar,
	"STRING":  tString,
	"BOOLEAN": tBoolean,
	"DATE":    tDate,
}

func arrayOf(elem *Type, dims int) *Type {
	return &Type{Kind: Array, Elem: elem, Dims: dims}
}

// String returns the pseudocode spelling of the type.
func (t *Type) String() string {
	switch t.Kind {
	case Record:
		return t.Record.Name
	case Array:
		return "ARRAY OF " + t.Elem.String()
	}
	return lexer.ScalarTypes[t.Kind]
}

// GoType returns the Go type used to hold a value of t.
func (t *Type) GoType() string {
	switch t.Kind {
	case Integer:
		return "int64"
	case Real:
		return "float64"
	case Char:
		return "rune"
	case String:
		return "string"
	case Boolean:
		return "bool"
	case Date:
		return "rtDate"
	case Record:
		return t.Record.goName()
	case Array:
		return "*rtArray[" + t.Elem.GoType() + "]"
	}
	return "any"
}

// cellType is the Go type of a variable of type t: arrays are held by
// pointer, everything else lives in a cell that tracks initialization.
func (t *Type) cellType() string {
	if t.Kind == Array {
		return t.GoType()
	}
	return "rtCell[" + t.GoType() + "]"
}

func (t *Type) numeric() bool { return t.Kind == Integer || t.Kind == Real }

func (t *Type) scalar() bool { return t.Kind != Record && t.Kind != Array }

func (t *Type) textual() bool { return t.Kind == String || t.Kind == Char }

// same reports whether values of t and u are interchangeable without
// conversion. An array of unknown rank matches any rank.
func (t *Type) same(u *Type) bool {
	if t.Kind != u.Kind {
		return false
	}
	switch t.Kind {
	case Record:
		return t.Record == u.Record
	case Array:
		return t.Elem.same(u.Elem) && (t.Dims == 0 || u.Dims == 0 || t.Dims == u.Dims)
	}
	return true
}

// recordType is a TYPE ... ENDTYPE definition.
type recordType struct {
	Name   string
	Line   int
	Fields []recordField
}

type recordField struct {
	Name string
	Type *Type
}

func (r *recordType) goName() string { return "T_" + r.Name }

func (r *recordType) field(name string) (recordField, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return recordField{}, false
}

func (r *recordType) fieldNames() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}
