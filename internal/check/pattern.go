package check

import "github.com/virdant-lang/virdant/internal/ids"

// PatternKind tags a pattern's surface form: @C(p1,...,pk), a bare
// name binding the subject, or the _ wildcard.
type PatternKind int

const (
	PCtor PatternKind = iota
	PBind
	PWild
)

// Pattern is a checked match pattern.
type Pattern struct {
	Kind PatternKind

	CtorName string     // PCtor
	CtorID   ids.CtorID // PCtor
	Sub      []Pattern  // PCtor subpatterns

	BindName string // PBind
}

// exhaustive reports whether a union's constructors are all covered by
// some arm's pattern. A wildcard or bare bind pattern in any arm
// covers every remaining constructor on its own.
func exhaustive(ctors []string, patterns []Pattern) (bool, []string) {
	covered := make(map[string]bool)
	for _, p := range patterns {
		switch p.Kind {
		case PCtor:
			covered[p.CtorName] = true
		case PBind, PWild:
			return true, nil
		}
	}
	var missing []string
	for _, c := range ctors {
		if !covered[c] {
			missing = append(missing, c)
		}
	}
	return len(missing) == 0, missing
}
