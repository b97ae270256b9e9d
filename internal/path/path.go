// Package path addresses list containers inside the configuration tree.
//
// A Path is an ordered list of ancestor discriminators: the room position,
// then the position of each enclosing element. A discriminator is either
// absent (the container sits at that level's root) or a non-negative index.
// Paths are immutable values and are comparable with ==, so they can key maps.
package path

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// absentToken is the textual form of an absent discriminator.
const absentToken = "~"

// ErrSyntax is returned by Parse for malformed input.
var ErrSyntax = errors.New("path: invalid syntax")

// Segment is one discriminator. The zero Segment is absent.
type Segment struct {
	n  int
	ok bool
}

// At returns a present discriminator. A negative n yields an absent one.
func At(n int) Segment {
	if n < 0 {
		return Segment{}
	}
	return Segment{n: n, ok: true}
}

// Absent returns the absent discriminator.
func Absent() Segment {
	return Segment{}
}

// Value reports the index and whether it is present.
func (s Segment) Value() (int, bool) {
	return s.n, s.ok
}

// Present reports whether the discriminator carries an index.
func (s Segment) Present() bool {
	return s.ok
}

func (s Segment) String() string {
	if !s.ok {
		return absentToken
	}
	return strconv.Itoa(s.n)
}

// Path identifies one container. The zero Path is the root container.
type Path struct {
	enc string // segments joined by "/"; "" is the root
	n   int
}

// Root returns the Path with no discriminators.
func Root() Path {
	return Path{}
}

// New builds a Path from segments.
func New(segs ...Segment) Path {
	if len(segs) == 0 {
		return Path{}
	}
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.String()
	}
	return Path{enc: strings.Join(parts, "/"), n: len(segs)}
}

// Of is shorthand for a Path of present discriminators.
func Of(indices ...int) Path {
	segs := make([]Segment, len(indices))
	for i, n := range indices {
		segs[i] = At(n)
	}
	return New(segs...)
}

// Parse reads the form produced by String. "/" and "" both denote the root.
func Parse(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "/" {
		return Path{}, nil
	}
	raw := strings.Split(s, "/")
	segs := make([]Segment, len(raw))
	for i, r := range raw {
		if r == absentToken {
			segs[i] = Absent()
			continue
		}
		n, err := strconv.Atoi(r)
		if err != nil || n < 0 {
			return Path{}, fmt.Errorf("%w: %q", ErrSyntax, s)
		}
		segs[i] = At(n)
	}
	return New(segs...), nil
}

// Len returns the number of discriminators.
func (p Path) Len() int {
	return p.n
}

// IsRoot reports whether p has no discriminators.
func (p Path) IsRoot() bool {
	return p.n == 0
}

// Segments returns a copy of the discriminators.
func (p Path) Segments() []Segment {
	if p.n == 0 {
		return nil
	}
	raw := strings.Split(p.enc, "/")
	segs := make([]Segment, len(raw))
	for i, r := range raw {
		if r == absentToken {
			continue
		}
		n, _ := strconv.Atoi(r)
		segs[i] = At(n)
	}
	return segs
}

// Child returns p extended by one discriminator.
func (p Path) Child(s Segment) Path {
	return New(append(p.Segments(), s)...)
}

// Equal reports whether both paths have the same length and pairwise equal
// discriminators. Absent only equals absent, never a present zero.
func (p Path) Equal(o Path) bool {
	return p == o
}

// String renders p as "/"-joined discriminators with "~" for absent ones.
// The root renders as "/".
func (p Path) String() string {
	if p.n == 0 {
		return "/"
	}
	return p.enc
}
