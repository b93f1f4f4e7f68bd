// Package check implements the bidirectional type checker and the
// driver/connect checker: check/infer judgments over ast.Node
// expressions producing a TypedExpr tree, the fixed method-dispatch
// table, pattern-matching with exhaustiveness-by-constructor, path
// resolution in expression position, and per-module driver validation.
// The judgment is a closed table of forms; there is no unification,
// only structural equality of resolved types.
package check

import (
	"github.com/virdant-lang/virdant/internal/ids"
	"github.com/virdant-lang/virdant/internal/vtypes"
)

// ExprKind tags which surface form a TypedExpr elaborates.
type ExprKind int

const (
	EReference ExprKind = iota
	EWordLit
	EVec
	EStruct
	EMethodCall
	ECtor
	EAs
	EIdx
	EIdxRange
	ECat
	EIf
	ELet
	EMatch
)

// RefKind classifies a resolved Referent: a let-bound local, a local
// element, or a submodule's port (incoming or outgoing, both
// addressable from the parent).
type RefKind int

const (
	RefLocal RefKind = iota
	RefElement
	RefSubPort
)

// Referent is the resolved target of a path in expression position.
type Referent struct {
	Kind RefKind
	Name string // element/local name, or submodule name for RefSubPort
	Port string // populated only for RefSubPort
	Type vtypes.Type
}

// FieldInit is one field of a checked struct literal.
type FieldInit struct {
	Name  string
	Value *TypedExpr
}

// MatchArm is one checked match arm.
type MatchArm struct {
	Pattern Pattern
	Guard   *TypedExpr
	Body    *TypedExpr
}

// TypedExpr is a fully elaborated expression: every subexpression
// carries its resolved Type, and which other fields are populated
// depends on Kind.
type TypedExpr struct {
	Kind ExprKind
	Type vtypes.Type

	Referent *Referent // EReference

	WordValue uint64 // EWordLit

	Parts []*TypedExpr // EVec elements, ECat parts

	StructID   ids.StructDefID // EStruct
	FieldInits []FieldInit     // EStruct

	Subject *TypedExpr   // EMethodCall, EIdx, EIdxRange, EMatch
	Method  string       // EMethodCall
	Args    []*TypedExpr // EMethodCall, ECtor

	CtorID ids.CtorID // ECtor

	Inner *TypedExpr // EAs

	Index  int // EIdx
	Hi, Lo int // EIdxRange

	Cond, Then, Else *TypedExpr // EIf

	LetName  string     // ELet
	LetValue *TypedExpr // ELet
	Body     *TypedExpr // ELet

	Arms []MatchArm // EMatch
}
