package prelude

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

func rtLEFT(line int, s string, n int64) string {
	r := []rune(s)
	if n < 0 {
		rtFail(line, "LEFT: length %d is negative", n)
	}
	return string(r[:min(n, int64(len(r)))])
}

func rtRIGHT(line int, s string, n int64) string {
	r := []rune(s)
	if n < 0 {
		rtFail(line, "RIGHT: length %d is negative", n)
	}
	n = min(n, int64(len(r)))
	return string(r[int64(len(r))-n:])
}

// rtMID returns n characters starting at the 1-based position start.
func rtMID(line int, s string, start, n int64) string {
	r := []rune(s)
	if start < 1 || start > int64(len(r))+1 {
		rtFail(line, "MID: start %d outside string of length %d", start, len(r))
	}
	if n < 0 {
		rtFail(line, "MID: length %d is negative", n)
	}
	end := min(start-1+n, int64(len(r)))
	return string(r[start-1 : end])
}

func rtLENGTH(s string) int64 { return int64(len([]rune(s))) }

func rtTO_UPPER(s string) string { return strings.ToUpper(s) }
func rtTO_LOWER(s string) string { return strings.ToLower(s) }
func rtUCASE(c rune) rune        { return unicode.ToUpper(c) }
func rtLCASE(c rune) rune        { return unicode.ToLower(c) }

func rtNUM_TO_STR(f float64) string { return rtFmtReal(f) }

func rtSTR_TO_NUM(line int, s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		rtFail(line, "STR_TO_NUM: %q is not a number", s)
	}
	return f
}

// rtSTR_TO_INT is STR_TO_NUM assigned to an INTEGER.
func rtSTR_TO_INT(line int, s string) int64 {
	f := rtSTR_TO_NUM(line, s)
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		rtFail(line, "STR_TO_NUM: %q is not a whole number", s)
	}
	return int64(f)
}

func rtIS_NUM(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

func rtASC(c rune) int64 { return int64(c) }

func rtCHR(line int, n int64) rune {
	if n < 0 || n > unicode.MaxRune {
		rtFail(line, "CHR: %d is not a character code", n)
	}
	return rune(n)
}

// rtINT truncates towards zero.
func rtINT(f float64) int64 { return int64(math.Trunc(f)) }

// rtRAND returns a REAL in [0, x).
func rtRAND(line int, x float64) float64 {
	if x <= 0 {
		rtFail(line, "RAND: bound %s must be positive", rtFmtReal(x))
	}
	return rtRand.Float64() * x
}

func rtDAY(d rtDate) int64   { return int64(d.Day()) }
func rtMONTH(d rtDate) int64 { return int64(d.Month()) }
func rtYEAR(d rtDate) int64  { return int64(d.Year()) }

// rtDAYINDEX numbers weekdays from Sunday = 1.
func rtDAYINDEX(d rtDate) int64 { return int64(d.Weekday()) + 1 }

func rtSETDATE(line int, day, month, year int64) rtDate {
	d := time.Date(int(year), time.Month(month), int(day), 0, 0, 0, 0, time.UTC)
	if d.Day() != int(day) || d.Month() != time.Month(month) || d.Year() != int(year) {
		rtFail(line, "SETDATE: %d/%d/%d is not a valid date", day, month, year)
	}
	return d
}

func rtTODAY() rtDate {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// rtMkDate builds a date from a checked literal.
func rtMkDate(day, month, year int) rtDate {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
