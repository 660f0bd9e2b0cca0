// Package prelude is the runtime support library of generated programs.
// Its non-test sources are embedded verbatim (minus package clause and
// imports) into every emitted main.go, so everything here must build with
// the standard library alone and every identifier carries the rt prefix.
package prelude

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"
)

// rtError is a run-time failure raised by generated code.
type rtError struct {
	Line int
	Msg  string
}

func (e *rtError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Msg) }

func rtFail(line int, format string, args ...any) {
	panic(&rtError{Line: line, Msg: fmt.Sprintf(format, args...)})
}

// rtCell holds a scalar or record variable. Set is false until the first
// assignment. BYREF parameters receive a pointer to the caller's cell.
type rtCell[T any] struct {
	V   T
	Set bool
}

func (c *rtCell[T]) Put(v T) {
	c.V = v
	c.Set = true
}

// rtNeed guards a read of a variable that may not have been assigned yet.
func rtNeed(set bool, name string, line int) {
	if !set {
		rtFail(line, "variable %q has no value", name)
	}
}

// rtDate is the DATE type.
type rtDate = time.Time

var (
	rtStdout = bufio.NewWriter(os.Stdout)
	rtStdin  = bufio.NewScanner(os.Stdin)
	rtRand   *rand.Rand
)

// rtOutputHook receives one line per OUTPUT statement.
var rtOutputHook = func(s string) {
	rtStdout.WriteString(s)
	rtStdout.WriteByte('\n')
}

// rtInputHook returns the next input line for an INPUT statement. ok is
// false when input is exhausted.
var rtInputHook = func(prompt string) (string, bool) {
	rtStdout.Flush()
	if !rtStdin.Scan() {
		return "", false
	}
	return strings.TrimRight(rtStdin.Text(), "\r"), true
}

func rtSetup() {
	seed := uint64(time.Now().UnixNano())
	if s := os.Getenv("PSEUDO_SEED"); s != "" {
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			seed = n
		}
	}
	rtRand = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	rtLoadFiles()
}

// rtRun executes body and converts an rtError panic into exit status 1.
func rtRun(body func()) (code int) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*rtError)
			if !ok {
				panic(r)
			}
			rtStdout.Flush()
			fmt.Fprintf(os.Stderr, "error: %v\n", e)
			code = 1
		}
	}()
	body()
	return 0
}

func rtMain(body func()) {
	rtSetup()
	code := rtRun(body)
	rtStdout.Flush()
	if err := rtSaveFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "error: saving files: %v\n", err)
		code = 1
	}
	os.Exit(code)
}

func rtOutput(parts ...string) {
	rtOutputHook(strings.Join(parts, ""))
}

func rtInput(line int, target string) string {
	s, ok := rtInputHook(target)
	if !ok {
		rtFail(line, "INPUT %s: no more input", target)
	}
	return s
}

// rtForCond reports whether a FOR loop with the given step continues.
func rtForCond[T int64 | float64](v, to, step T) bool {
	if step < 0 {
		return v >= to
	}
	return v <= to
}

func rtStep[T int64 | float64](line int, step T) T {
	if step == 0 {
		rtFail(line, "FOR loop STEP must not be 0")
	}
	return step
}

// rtDiv is DIV: integer division rounding towards negative infinity.
func rtDiv(line int, a, b int64) int64 {
	if b == 0 {
		rtFail(line, "division by zero")
	}
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// rtMod is MOD: the remainder of truncated division.
func rtMod(line int, a, b int64) int64 {
	if b == 0 {
		rtFail(line, "division by zero")
	}
	return a % b
}

func rtRealDiv(line int, a, b float64) float64 {
	if b == 0 {
		rtFail(line, "division by zero")
	}
	return a / b
}

// rtToChar narrows a one-character string to a CHAR.
func rtToChar(line int, s string) rune {
	r := []rune(s)
	if len(r) != 1 {
		rtFail(line, "cannot use %q as a CHAR: expected exactly one character", s)
	}
	return r[0]
}

func rtNoReturn(line int, name string) *rtError {
	return &rtError{Line: line, Msg: fmt.Sprintf("FUNCTION %s ended without RETURN", name)}
}
