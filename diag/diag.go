// Package diag defines the line-tagged diagnostics produced by every stage
// of the pseudocode compiler. Compilation is fail-fast: a stage returns the
// first *Error it meets and the pipeline stops.
package diag

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"modernc.org/token"
)

// Kind classifies a diagnostic.
type Kind int

const (
	Lexical        Kind = iota // unrecognised statement shape
	Structural                 // missing terminator, misplaced clause
	Declaration                // undeclared identifier, unknown datatype
	Type                       // assignment/argument/return mismatch, arity, bad literal
	Initialization             // read before assignment
	Runtime                    // raised by generated code
)

var kindNames = [...]string{
	Lexical:        "lexical",
	Structural:     "structural",
	Declaration:    "declaration",
	Type:           "type",
	Initialization: "initialization",
	Runtime:        "runtime",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a compile diagnostic anchored to a source line. Pos.Column is
// the 1-based byte column, or 0 when only the line is known.
type Error struct {
	Kind Kind
	Pos  token.Position
	Msg  string
}

func (e *Error) Error() string {
	switch {
	case e.Pos.Filename != "" && e.Pos.Column > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename, e.Pos.Line, e.Pos.Column, e.Msg)
	case e.Pos.Filename != "":
		return fmt.Sprintf("%s:%d: %s", e.Pos.Filename, e.Pos.Line, e.Msg)
	case e.Pos.Column > 0:
		return fmt.Sprintf("line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
	}
	return fmt.Sprintf("line %d: %s", e.Pos.Line, e.Msg)
}

// Errorf builds an *Error of the given kind at line.
func Errorf(kind Kind, line int, format string, args ...any) *Error {
	return ErrorAt(kind, line, 0, format, args...)
}

// ErrorAt builds an *Error of the given kind at line and column.
func ErrorAt(kind Kind, line, column int, format string, args ...any) *Error {
	return &Error{
		Kind: kind,
		Pos:  token.Position{Line: line, Column: column},
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Shift moves err's column to base+column-1, placing a column measured
// within a substring at its position in the line. An error without a
// column takes base itself. Errors other than *Error are returned as is.
func Shift(err error, base int) error {
	var de *Error
	if base <= 0 || !errors.As(err, &de) {
		return err
	}
	if de.Pos.Column == 0 {
		de.Pos.Column = base
		return err
	}
	de.Pos.Column = base + de.Pos.Column - 1
	return err
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// WithFile stamps filename on err when it is a *Error without one.
func WithFile(err error, filename string) error {
	var de *Error
	if filename == "" || !errors.As(err, &de) || de.Pos.Filename != "" {
		return err
	}
	de.Pos.Filename = filename
	return err
}

// Suggest returns the candidate closest to name, or "" when nothing is
// close enough to be worth mentioning.
func Suggest(name string, candidates []string) string {
	if name == "" || len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		// Typos that drop or swap letters are not subsequences of the
		// intended word, so try the other direction as well.
		for _, c := range candidates {
			if c != "" && fuzzy.MatchFold(c, name) {
				ranks = append(ranks, fuzzy.Rank{Source: c, Target: c})
			}
		}
	}
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	if ranks[0].Target == name {
		return ""
	}
	return ranks[0].Target
}

// Hint formats a " (did you mean X?)" suffix, or "" without a suggestion.
func Hint(name string, candidates []string) string {
	if s := Suggest(name, candidates); s != "" {
		return fmt.Sprintf(" (did you mean %s?)", s)
	}
	return ""
}
