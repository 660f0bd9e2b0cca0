// Package scanner provides quote-aware scanning over pseudocode lines. It
// tracks double-quoted string and single-quoted character literal
// boundaries so callers can look for comments, separators and operators
// without re-implementing literal handling. Pseudocode literals have no
// escape sequences: a literal ends at the next matching quote.
package scanner

import "strings"

// closingKind tracks which literal delimiter was just closed.
type closingKind byte

const (
	noClosing     closingKind = iota
	closingDouble             // just closed a "..." string
	closingSingle             // just closed a '...' char
)

// CodeScanner iterates byte-by-byte over source text, tracking literal
// boundaries. InString() returns true for the entire literal span including
// both delimiters.
type CodeScanner struct {
	src     string
	pos     int
	line    int
	inDbl   bool
	inSgl   bool
	closing closingKind
}

// New creates a CodeScanner for the given source text.
// Call Next() to advance to the first byte.
func New(src string) *CodeScanner {
	return &CodeScanner{src: src, pos: -1, line: 1}
}

// Next advances to the next byte, updating literal state.
// Returns the byte and true, or (0, false) at end of input.
func (s *CodeScanner) Next() (byte, bool) {
	s.closing = noClosing
	s.pos++
	if s.pos >= len(s.src) {
		return 0, false
	}
	ch := s.src[s.pos]
	switch {
	case ch == '\n':
		s.line++
	case ch == '"' && !s.inSgl:
		if s.inDbl {
			s.closing = closingDouble
		}
		s.inDbl = !s.inDbl
	case ch == '\'' && !s.inDbl:
		if s.inSgl {
			s.closing = closingSingle
		}
		s.inSgl = !s.inSgl
	}
	return ch, true
}

// InString reports whether the current position is inside a literal,
// including both delimiters.
func (s *CodeScanner) InString() bool {
	return s.inDbl || s.inSgl || s.closing != noClosing
}

// InCode reports whether the current position is outside all literals.
func (s *CodeScanner) InCode() bool { return !s.InString() }

// Pos returns the current byte offset (the position of the last byte
// returned by Next). Returns -1 before the first call to Next.
func (s *CodeScanner) Pos() int { return s.pos }

// Line returns the current 1-based line number.
func (s *CodeScanner) Line() int { return s.line }

// LookingAt checks if src[pos:] starts with the given prefix.
func (s *CodeScanner) LookingAt(prefix string) bool {
	return strings.HasPrefix(s.src[s.pos:], prefix)
}

// Unterminated reports whether the scan ended inside a literal.
func (s *CodeScanner) Unterminated() bool { return s.inDbl || s.inSgl }

// IsOpenBracket reports whether ch is an opening bracket or paren.
func IsOpenBracket(ch byte) bool { return ch == '(' || ch == '[' }

// IsCloseBracket reports whether ch is a closing bracket or paren.
func IsCloseBracket(ch byte) bool { return ch == ')' || ch == ']' }

// StripComment removes a trailing // comment from line. A // inside a
// string or char literal is kept.
func StripComment(line string) string {
	sc := New(line)
	for _, ok := sc.Next(); ok; _, ok = sc.Next() {
		if sc.InCode() && sc.LookingAt("//") {
			return line[:sc.Pos()]
		}
	}
	return line
}

// FindTopLevel scans s for a byte matching pred at bracket depth 0,
// outside all literals. Returns the byte offset or -1.
func FindTopLevel(s string, pred func(ch byte, pos int, src string) bool) int {
	depth := 0
	sc := New(s)
	for ch, ok := sc.Next(); ok; ch, ok = sc.Next() {
		if sc.InString() {
			continue
		}
		if IsOpenBracket(ch) {
			depth++
		} else if IsCloseBracket(ch) {
			depth--
		}
		if depth == 0 && pred(ch, sc.Pos(), s) {
			return sc.Pos()
		}
	}
	return -1
}

// FindAllTopLevel is like FindTopLevel but returns all matching positions.
func FindAllTopLevel(s string, pred func(ch byte, pos int, src string) bool) []int {
	var positions []int
	depth := 0
	sc := New(s)
	for ch, ok := sc.Next(); ok; ch, ok = sc.Next() {
		if sc.InString() {
			continue
		}
		if IsOpenBracket(ch) {
			depth++
		} else if IsCloseBracket(ch) {
			depth--
		}
		if depth == 0 && pred(ch, sc.Pos(), s) {
			positions = append(positions, sc.Pos())
		}
	}
	return positions
}

// SplitTopLevel splits s on sep occurring at bracket depth 0 outside
// literals. Parts are trimmed. An empty s yields no parts.
func SplitTopLevel(s string, sep byte) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	cuts := FindAllTopLevel(s, func(ch byte, _ int, _ string) bool { return ch == sep })
	parts := make([]string, 0, len(cuts)+1)
	start := 0
	for _, c := range cuts {
		parts = append(parts, strings.TrimSpace(s[start:c]))
		start = c + 1
	}
	return append(parts, strings.TrimSpace(s[start:]))
}

// IsInsideString reports whether byte offset pos in s falls inside a
// literal. Opening delimiters return false and closing delimiters true.
func IsInsideString(s string, pos int) bool {
	sc := New(s)
	for i := 0; i < pos; i++ {
		if _, ok := sc.Next(); !ok {
			return false
		}
	}
	return sc.inDbl || sc.inSgl
}
