package prelude

import (
	"fmt"
	"strings"
)

// rtArray is an N-dimensional array with inclusive, arbitrary lower
// bounds. Elements live in one row-major buffer; an index is translated
// with the stride vector.
type rtArray[T any] struct {
	name   string
	lower  []int64
	size   []int64
	stride []int64
	data   []T
}

// rtNewArray allocates an array from lower/upper bound pairs.
func rtNewArray[T any](name string, line int, bounds ...int64) *rtArray[T] {
	n := len(bounds) / 2
	a := &rtArray[T]{
		name:   name,
		lower:  make([]int64, n),
		size:   make([]int64, n),
		stride: make([]int64, n),
	}
	total := int64(1)
	for d := n - 1; d >= 0; d-- {
		lo, hi := bounds[2*d], bounds[2*d+1]
		if hi < lo {
			rtFail(line, "invalid bounds %d:%d for array %s", lo, hi, name)
		}
		a.lower[d] = lo
		a.size[d] = hi - lo + 1
		a.stride[d] = total
		total *= a.size[d]
	}
	a.data = make([]T, total)
	return a
}

func (a *rtArray[T]) bounds() string {
	parts := make([]string, len(a.lower))
	for d := range a.lower {
		parts[d] = fmt.Sprintf("%d:%d", a.lower[d], a.lower[d]+a.size[d]-1)
	}
	return strings.Join(parts, ", ")
}

func (a *rtArray[T]) offset(line int, idx []int64) int64 {
	if a == nil {
		rtFail(line, "array used before its DECLARE")
	}
	if len(idx) != len(a.lower) {
		rtFail(line, "array %s has %d dimension(s), got %d index(es)", a.name, len(a.lower), len(idx))
	}
	off := int64(0)
	for d, i := range idx {
		rel := i - a.lower[d]
		if rel < 0 || rel >= a.size[d] {
			rtFail(line, "index %d out of bounds for %s[%s]", i, a.name, a.bounds())
		}
		off += rel * a.stride[d]
	}
	return off
}

func (a *rtArray[T]) Load(line int, idx ...int64) T {
	off := a.offset(line, idx)
	return a.data[off]
}

func (a *rtArray[T]) Store(line int, v T, idx ...int64) {
	off := a.offset(line, idx)
	a.data[off] = v
}

// Ref returns the address of an element, for record field updates.
func (a *rtArray[T]) Ref(line int, idx ...int64) *T {
	off := a.offset(line, idx)
	return &a.data[off]
}

// CopyFrom replaces every element with src's. Both arrays must have the
// same shape; lower bounds may differ.
func (a *rtArray[T]) CopyFrom(line int, src *rtArray[T]) {
	if a == nil || src == nil {
		rtFail(line, "array used before its DECLARE")
	}
	if len(a.size) != len(src.size) {
		rtFail(line, "cannot assign array %s to %s: dimensions differ", src.name, a.name)
	}
	for d := range a.size {
		if a.size[d] != src.size[d] {
			rtFail(line, "cannot assign array %s[%s] to %s[%s]: sizes differ", src.name, src.bounds(), a.name, a.bounds())
		}
	}
	copy(a.data, src.data)
}

// Clone returns an independent copy, used for BYVAL array parameters.
func (a *rtArray[T]) Clone(line int) *rtArray[T] {
	if a == nil {
		rtFail(line, "array used before its DECLARE")
	}
	c := *a
	c.data = append([]T(nil), a.data...)
	return &c
}
