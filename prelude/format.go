package prelude

import (
	"strconv"
	"strings"
	"time"
)

func rtFmtInt(n int64) string { return strconv.FormatInt(n, 10) }

// rtFmtReal prints the shortest representation that round-trips; whole
// numbers have no fractional part.
func rtFmtReal(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func rtFmtChar(c rune) string { return string(c) }

func rtFmtBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func rtFmtDate(d rtDate) string { return d.Format("02/01/2006") }

func rtParseInt(line int, s, what string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		rtFail(line, "%s: %q is not an INTEGER", what, s)
	}
	return n
}

func rtParseReal(line int, s, what string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		rtFail(line, "%s: %q is not a REAL", what, s)
	}
	return f
}

func rtParseBool(line int, s, what string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	rtFail(line, "%s: %q is not a BOOLEAN", what, s)
	return false
}

func rtParseChar(line int, s, what string) rune {
	r := []rune(s)
	if len(r) != 1 {
		rtFail(line, "%s: %q is not a single CHAR", what, s)
	}
	return r[0]
}

func rtParseDate(line int, s, what string) rtDate {
	d, err := time.Parse("2/1/2006", strings.TrimSpace(s))
	if err != nil {
		rtFail(line, "%s: %q is not a DATE (dd/mm/yyyy)", what, s)
	}
	return d
}
