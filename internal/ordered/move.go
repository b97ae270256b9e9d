// Package ordered relocates and splices elements of ordered sequences.
//
// Every function returns a freshly allocated slice, even for no-op moves:
// callers detect changes by identity, so the input is never returned as-is.
package ordered

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned when an index falls outside the sequence.
var ErrIndexOutOfRange = errors.New("ordered: index out of range")

// IndexError describes the offending index. It unwraps to ErrIndexOutOfRange.
type IndexError struct {
	Op    string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("ordered: %s index %d out of range [0,%d)", e.Op, e.Index, e.Len)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}

// Move returns a copy of s with the element at from relocated to to.
// All other elements keep their relative order. Both indices must lie in
// [0, len(s)); indices are never clamped.
func Move[S ~[]E, E any](s S, from, to int) (S, error) {
	if from < 0 || from >= len(s) {
		return nil, &IndexError{Op: "move from", Index: from, Len: len(s)}
	}
	if to < 0 || to >= len(s) {
		return nil, &IndexError{Op: "move to", Index: to, Len: len(s)}
	}

	out := make(S, len(s))
	copy(out, s)
	if from == to {
		return out, nil
	}

	v := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = v
	return out, nil
}

// Insert returns a copy of s with v placed at index. index may equal len(s).
func Insert[S ~[]E, E any](s S, index int, v E) (S, error) {
	if index < 0 || index > len(s) {
		return nil, &IndexError{Op: "insert", Index: index, Len: len(s) + 1}
	}
	out := make(S, 0, len(s)+1)
	out = append(out, s[:index]...)
	out = append(out, v)
	out = append(out, s[index:]...)
	return out, nil
}

// Remove returns a copy of s without the element at index, plus that element.
func Remove[S ~[]E, E any](s S, index int) (S, E, error) {
	var zero E
	if index < 0 || index >= len(s) {
		return nil, zero, &IndexError{Op: "remove", Index: index, Len: len(s)}
	}
	out := make(S, 0, len(s)-1)
	out = append(out, s[:index]...)
	out = append(out, s[index+1:]...)
	return out, s[index], nil
}
