// Package paths implements the absolute path value used to address nodes in a file tree.
package paths

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins path components
const Separator = "/"

var (
	// ErrBadPath is returned when a raw string is not a well-formed absolute path
	ErrBadPath = errors.New("bad path")
	// ErrNoPrefix is returned when a prefix depth is outside 1..Depth()
	ErrNoPrefix = errors.New("no such prefix")
)

// Path is an immutable absolute path made of one or more non-empty components.
// The zero value is not a valid path; see [Path.IsZero].
type Path struct {
	comps []string
	name  string // cached canonical rendering
}

// New parses raw into a Path.
//
// A well-formed path starts with "/", has at least one component and contains no
// empty, "." or ".." components and no NUL bytes. "/a/b" is valid; "/", "a/b",
// "/a//b" and "/a/" are not.
func New(raw string) (Path, error) {
	if !strings.HasPrefix(raw, Separator) {
		return Path{}, fmt.Errorf("%w: %q is not absolute", ErrBadPath, raw)
	}
	if strings.ContainsRune(raw, 0) {
		return Path{}, fmt.Errorf("%w: %q contains a NUL byte", ErrBadPath, raw)
	}
	comps := strings.Split(raw[1:], Separator)
	for _, c := range comps {
		switch c {
		case "":
			return Path{}, fmt.Errorf("%w: %q has an empty component", ErrBadPath, raw)
		case ".", "..":
			return Path{}, fmt.Errorf("%w: %q has a relative component", ErrBadPath, raw)
		}
	}
	return Path{comps: comps, name: raw}, nil
}

// MustNew is like [New] but panics on a malformed path. Intended for tests and constants.
func MustNew(raw string) Path {
	p, err := New(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// Depth returns the number of components; a root-level path has depth 1
func (p Path) Depth() int {
	return len(p.comps)
}

// IsZero reports whether p is the zero Path
func (p Path) IsZero() bool {
	return len(p.comps) == 0
}

// Prefix returns the path truncated to its first k components
func (p Path) Prefix(k int) (Path, error) {
	if k < 1 || k > len(p.comps) {
		return Path{}, fmt.Errorf("%w: depth %d of %q", ErrNoPrefix, k, p.name)
	}
	if k == len(p.comps) {
		return p, nil
	}
	// full slice expression so an append on the prefix can never write into p
	comps := p.comps[:k:k]
	return Path{comps: comps, name: Separator + strings.Join(comps, Separator)}, nil
}

// SharedPrefixDepth returns the number of leading components p and other have in common
func (p Path) SharedPrefixDepth(other Path) int {
	n := min(len(p.comps), len(other.comps))
	for i := 0; i < n; i++ {
		if p.comps[i] != other.comps[i] {
			return i
		}
	}
	return n
}

// Compare orders paths component by component. A proper prefix sorts before
// every path it prefixes. Returns <0, 0 or >0.
func (p Path) Compare(other Path) int {
	n := min(len(p.comps), len(other.comps))
	for i := 0; i < n; i++ {
		if c := strings.Compare(p.comps[i], other.comps[i]); c != 0 {
			return c
		}
	}
	return len(p.comps) - len(other.comps)
}

// Equal reports whether p and other name the same location
func (p Path) Equal(other Path) bool {
	return p.Compare(other) == 0
}

// Base returns the last component, or "" for the zero Path
func (p Path) Base() string {
	if len(p.comps) == 0 {
		return ""
	}
	return p.comps[len(p.comps)-1]
}

// Components returns a copy of the components
func (p Path) Components() []string {
	out := make([]string, len(p.comps))
	copy(out, p.comps)
	return out
}

// Pathname renders the canonical absolute form, e.g. "/a/b/c"
func (p Path) Pathname() string {
	return p.name
}

func (p Path) String() string {
	return p.name
}
