package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeScanner_BasicIteration(t *testing.T) {
	sc := New("abc")
	ch, ok := sc.Next()
	require.True(t, ok)
	assert.Equal(t, byte('a'), ch)
	assert.Equal(t, 0, sc.Pos())

	ch, ok = sc.Next()
	require.True(t, ok)
	assert.Equal(t, byte('b'), ch)

	ch, ok = sc.Next()
	require.True(t, ok)
	assert.Equal(t, byte('c'), ch)

	_, ok = sc.Next()
	assert.False(t, ok)
}

func TestCodeScanner_LineTracking(t *testing.T) {
	sc := New("a\nb")
	sc.Next() // a
	assert.Equal(t, 1, sc.Line())
	sc.Next() // \n
	assert.Equal(t, 2, sc.Line())
	sc.Next() // b
	assert.Equal(t, 2, sc.Line())
}

func TestCodeScanner_DoubleQuotedString(t *testing.T) {
	sc := New(`x <- "hello" & y`)
	var codeBytes, strBytes []byte
	for ch, ok := sc.Next(); ok; ch, ok = sc.Next() {
		if sc.InString() {
			strBytes = append(strBytes, ch)
		} else {
			codeBytes = append(codeBytes, ch)
		}
	}
	assert.Equal(t, `x <-  & y`, string(codeBytes))
	assert.Equal(t, `"hello"`, string(strBytes))
}

func TestCodeScanner_CharInsideString(t *testing.T) {
	sc := New(`"it's" & 'x'`)
	var strBytes []byte
	for ch, ok := sc.Next(); ok; ch, ok = sc.Next() {
		if sc.InString() {
			strBytes = append(strBytes, ch)
		}
	}
	assert.Equal(t, `"it's"'x'`, string(strBytes))
	assert.False(t, sc.Unterminated())
}

func TestCodeScanner_Unterminated(t *testing.T) {
	sc := New(`OUTPUT "oops`)
	for _, ok := sc.Next(); ok; _, ok = sc.Next() {
	}
	assert.True(t, sc.Unterminated())
}

func TestStripComment(t *testing.T) {
	tests := []struct {
		name, input, want string
	}{
		{"no comment", `x <- 1`, `x <- 1`},
		{"trailing comment", `x <- 1 // set x`, `x <- 1 `},
		{"full line", `// just a comment`, ``},
		{"slashes in string", `OUTPUT "http://example"`, `OUTPUT "http://example"`},
		{"comment after string", `OUTPUT "a//b" // note`, `OUTPUT "a//b" `},
		{"division is not a comment", `x <- a / b`, `x <- a / b`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripComment(tt.input))
		})
	}
}

func TestSplitTopLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "  ", nil},
		{"single", `"hello"`, []string{`"hello"`}},
		{"list", `a, "b, c", 'd'`, []string{"a", `"b, c"`, "'d'"}},
		{"nested calls", `MID(s, 1, 2), LENGTH(s)`, []string{"MID(s, 1, 2)", "LENGTH(s)"}},
		{"array index", `grid[1, 2], x`, []string{"grid[1, 2]", "x"}},
		{"char comma", `',', x`, []string{"','", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitTopLevel(tt.input, ','))
		})
	}
}

func TestFindTopLevel(t *testing.T) {
	colon := func(ch byte, _ int, _ string) bool { return ch == ':' }
	assert.Equal(t, 4, FindTopLevel(`'A' : OUTPUT "x:y"`, colon))
	assert.Equal(t, -1, FindTopLevel(`OUTPUT "x:y"`, colon))
	assert.Equal(t, 7, FindTopLevel(`a[1:2] : x`, colon))
}

func TestIsInsideString(t *testing.T) {
	s := `x <- "abc"`
	assert.False(t, IsInsideString(s, 0))
	assert.False(t, IsInsideString(s, 5))
	assert.True(t, IsInsideString(s, 6))
	assert.True(t, IsInsideString(s, 9))
}
