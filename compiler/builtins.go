package compiler

import "sort"

// builtin is the signature of a library function implemented in the
// runtime as rt<NAME>.
type builtin struct {
	Params []*Type
	Return *Type
	Line   bool // the runtime function takes the call line first
}

var builtins = map[string]builtin{
	"LEFT":       {Params: []*Type{tString, tInteger}, Return: tString, Line: true},
	"RIGHT":      {Params: []*Type{tString, tInteger}, Return: tString, Line: true},
	"MID":        {Params: []*Type{tString, tInteger, tInteger}, Return: tString, Line: true},
	"LENGTH":     {Params: []*Type{tString}, Return: tInteger},
	"TO_UPPER":   {Params: []*Type{tString}, Return: tString},
	"TO_LOWER":   {Params: []*Type{tString}, Return: tString},
	"UCASE":      {Params: []*Type{tChar}, Return: tChar},
	"LCASE":      {Params: []*Type{tChar}, Return: tChar},
	"NUM_TO_STR": {Params: []*Type{tReal}, Return: tString},
	"STR_TO_NUM": {Params: []*Type{tString}, Return: tReal, Line: true},
	"IS_NUM":     {Params: []*Type{tString}, Return: tBoolean},
	"ASC":        {Params: []*Type{tChar}, Return: tInteger},
	"CHR":        {Params: []*Type{tInteger}, Return: tChar, Line: true},
	"INT":        {Params: []*Type{tReal}, Return: tInteger},
	"RAND":       {Params: []*Type{tReal}, Return: tReal, Line: true},
	"DAY":        {Params: []*Type{tDate}, Return: tInteger},
	"MONTH":      {Params: []*Type{tDate}, Return: tInteger},
	"YEAR":       {Params: []*Type{tDate}, Return: tInteger},
	"DAYINDEX":   {Params: []*Type{tDate}, Return: tInteger},
	"SETDATE":    {Params: []*Type{tInteger, tInteger, tInteger}, Return: tDate, Line: true},
	"TODAY":      {Return: tDate},
	"EOF":        {Params: []*Type{tString}, Return: tBoolean, Line: true},
}

// BuiltinNames returns the library function names in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
