package ids

import "strings"

// Path is a dotted identifier sequence, e.g. "a", "a.b", "a.b.c". A path
// with one part is local, two parts is foreign (a submodule port), and
// more than two is remote.
type Path struct {
	parts []string
}

// NewPath builds a Path from its parts.
func NewPath(parts ...string) Path {
	cp := make([]string, len(parts))
	copy(cp, parts)
	return Path{parts: cp}
}

// ParsePath splits a dotted string into a Path.
func ParsePath(s string) Path {
	if s == "" {
		return Path{}
	}
	return Path{parts: strings.Split(s, ".")}
}

// Parts returns the path's components in order.
func (p Path) Parts() []string { return p.parts }

// Head returns the first component.
func (p Path) Head() string {
	if len(p.parts) == 0 {
		return ""
	}
	return p.parts[0]
}

// Parent returns the path with its last component removed, and false if
// the path has only one component.
func (p Path) Parent() (Path, bool) {
	if len(p.parts) <= 1 {
		return Path{}, false
	}
	return Path{parts: p.parts[:len(p.parts)-1]}, true
}

// Join appends a component and returns the resulting path.
func (p Path) Join(name string) Path {
	np := make([]string, len(p.parts)+1)
	copy(np, p.parts)
	np[len(p.parts)] = name
	return Path{parts: np}
}

// Last returns the final component.
func (p Path) Last() string {
	if len(p.parts) == 0 {
		return ""
	}
	return p.parts[len(p.parts)-1]
}

// Len returns the number of components.
func (p Path) Len() int { return len(p.parts) }

// IsLocal reports whether the path has exactly one component.
func (p Path) IsLocal() bool { return len(p.parts) == 1 }

// IsForeign reports whether the path has exactly two components
// (submodule port form, "sub.port").
func (p Path) IsForeign() bool { return len(p.parts) == 2 }

// IsRemote reports whether the path has more than two components.
func (p Path) IsRemote() bool { return len(p.parts) > 2 }

// String renders the path in dotted form.
func (p Path) String() string { return strings.Join(p.parts, ".") }
