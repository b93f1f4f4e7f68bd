// Package vtypes implements Virdant's resolved type representation,
// the type resolver over type syntax, a lazily-populated struct/union
// definition table, and the union bit-packing layout engine. The type
// grammar has no user-defined type operators, so an interface with one
// struct per alternative is a complete and exhaustive representation.
package vtypes

import (
	"fmt"

	"github.com/virdant-lang/virdant/internal/ids"
)

// Type is the resolved type of an expression, component, or field.
type Type interface {
	isType()
	String() string
}

// Word is an n-bit unsigned word.
type Word struct{ Width int }

func (Word) isType()          {}
func (w Word) String() string { return fmt.Sprintf("Word[%d]", w.Width) }

// Clock is the type of a clock signal; it carries no width in source but
// occupies a single bit when packed.
type Clock struct{}

func (Clock) isType()        {}
func (Clock) String() string { return "Clock" }

// Bool is a one-bit boolean type. No surface syntax in this grammar
// produces a Bool value directly (comparison methods yield Word(1));
// it exists so Bitwidth has a total rule over every type family and is
// available to a future grammar extension without changing this
// package's shape.
type Bool struct{}

func (Bool) isType()        {}
func (Bool) String() string { return "Bool" }

// Struct names a struct item by id.
type Struct struct{ ID ids.StructDefID }

func (Struct) isType()          {}
func (s Struct) String() string { return s.ID.String() }

// Union names a union item by id.
type Union struct{ ID ids.UnionDefID }

func (Union) isType()          {}
func (u Union) String() string { return u.ID.String() }

// Builtin names a non-Word builtin item by id. Only Word takes a
// generic width argument; every other builtin resolves bare.
type Builtin struct{ ID ids.BuiltinDefID }

func (Builtin) isType()          {}
func (b Builtin) String() string { return b.ID.String() }

// Vec is a fixed-length homogeneous vector, the resolved type backing
// a vec literal (`[e1, e2, ...]`). There is no Vec[T, n] surface type
// syntax; a vec literal's type is always inferred from its elements.
type Vec struct {
	Elem Type
	Len  int
}

func (Vec) isType()          {}
func (v Vec) String() string { return fmt.Sprintf("Vec[%s, %d]", v.Elem, v.Len) }

// Equal reports whether two resolved types are identical.
func Equal(a, b Type) bool {
	switch av := a.(type) {
	case Word:
		bv, ok := b.(Word)
		return ok && av.Width == bv.Width
	case Clock:
		_, ok := b.(Clock)
		return ok
	case Bool:
		_, ok := b.(Bool)
		return ok
	case Struct:
		bv, ok := b.(Struct)
		return ok && av.ID == bv.ID
	case Union:
		bv, ok := b.(Union)
		return ok && av.ID == bv.ID
	case Builtin:
		bv, ok := b.(Builtin)
		return ok && av.ID == bv.ID
	case Vec:
		bv, ok := b.(Vec)
		return ok && av.Len == bv.Len && Equal(av.Elem, bv.Elem)
	default:
		return false
	}
}
