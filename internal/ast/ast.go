// Package ast defines Virdant's parse-tree node shape: the fixed
// accessor surface that makes the concrete surface grammar pluggable.
// internal/parser is the one implementation shipped here; any other
// grammar producing the same node shape is acceptable to the semantic
// analyzer in internal/structure and internal/check, which import
// neither internal/parser nor internal/lexer; internal/registry reaches
// the parser only through parser.ParsePackage. A single Node struct tagged by Kind, rather
// than one Go type per construct, keeps that surface to a handful of
// generic accessors.
package ast

import (
	"fmt"
	"strings"

	"github.com/virdant-lang/virdant/internal/errors"
)

// Kind tags what a Node represents.
type Kind int

const (
	// Top level
	KFile Kind = iota
	KImport
	KModDef
	KStructDef
	KUnionDef
	KBuiltinDef
	KPortDef

	// Item members
	KFieldDecl // struct field: name, typ
	KCtorDecl  // union alternative: name, children (param decls)
	KParamDecl // a ctor/method parameter: name, typ

	// Module members
	KIncoming
	KOutgoing
	KNodeDecl
	KRegDecl
	KSubmodule
	KWire // target path, op (":=" or "<="), expr

	// Types
	KTypeWord // args[0] = width literal
	KTypeClock
	KTypeName // name = referenced type name (possibly pkg::Name)

	// Expressions
	KExprPath    // name = dotted path text
	KExprWordLit // str = literal text; a sized literal keeps its width in the text ("3w8")
	KExprVec
	KExprStruct     // of = type name node, args = field-value pairs (KFieldInit)
	KFieldInit      // name = field name, expr = value
	KExprMethodCall // of = subject, name = method name, args = call args
	KExprCtor       // name = bare constructor name, args = ctor args
	KExprAs         // of = subject, typ = ascribed type
	KExprIdx        // of = subject, args[0] = index expr
	KExprIdxRange   // of = subject, args[0] = hi expr, args[1] = lo expr
	KExprCat        // args = parts
	KExprIf         // args[0]=cond, args[1]=then, args[2]=else
	KExprLet        // name = bound name, typ = optional ascription, expr = bound value, args[0] = body
	KExprMatch      // of = subject, args = match arms (KMatchArm)
	KMatchArm       // args[0] = pattern, guard = optional guard expr, expr = body
	KPatternCtor    // name = constructor name, args = subpatterns
	KPatternBind    // name = bound variable
	KPatternWild
)

func (k Kind) String() string {
	names := map[Kind]string{
		KFile: "File", KImport: "Import", KModDef: "ModDef", KStructDef: "StructDef",
		KUnionDef: "UnionDef", KBuiltinDef: "BuiltinDef", KPortDef: "PortDef",
		KFieldDecl: "FieldDecl", KCtorDecl: "CtorDecl", KParamDecl: "ParamDecl",
		KIncoming: "Incoming", KOutgoing: "Outgoing", KNodeDecl: "NodeDecl", KRegDecl: "RegDecl",
		KSubmodule: "Submodule", KWire: "Wire",
		KTypeWord: "TypeWord", KTypeClock: "TypeClock", KTypeName: "TypeName",
		KExprPath: "ExprPath", KExprWordLit: "ExprWordLit", KExprVec: "ExprVec",
		KExprStruct: "ExprStruct", KFieldInit: "FieldInit", KExprMethodCall: "ExprMethodCall",
		KExprCtor: "ExprCtor", KExprAs: "ExprAs", KExprIdx: "ExprIdx", KExprIdxRange: "ExprIdxRange",
		KExprCat: "ExprCat", KExprIf: "ExprIf", KExprLet: "ExprLet", KExprMatch: "ExprMatch",
		KMatchArm: "MatchArm", KPatternCtor: "PatternCtor", KPatternBind: "PatternBind",
		KPatternWild: "PatternWild",
	}
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is the parse tree's single node shape. Every field is optional
// except Kind and Span; which fields a given Kind populates is documented
// next to the Kind constant above.
type Node struct {
	kind     Kind
	name     string
	str      string
	typ      *Node
	of       *Node
	expr     *Node
	guard    *Node
	args     []*Node
	children []*Node
	span     errors.Span
	ext      bool
	op       string
}

// New builds a Node of the given kind with no fields set, for callers
// (the parser) that fill fields in afterward via the With* helpers.
func New(kind Kind, span errors.Span) *Node {
	return &Node{kind: kind, span: span}
}

// --- accessors consumed by the semantic analyzer ---

// Children returns every child node in declaration order (decl lists for
// File/ModDef/StructDef/UnionDef; statement lists for module bodies).
func (n *Node) Children() []*Node { return n.children }

// Child returns the i'th child, or nil if out of range.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// IsItem reports whether this node declares a top-level item.
func (n *Node) IsItem() bool {
	switch n.kind {
	case KModDef, KStructDef, KUnionDef, KBuiltinDef, KPortDef:
		return true
	default:
		return false
	}
}

// IsImport reports whether this node is an import declaration.
func (n *Node) IsImport() bool { return n.kind == KImport }

// IsStatement reports whether this node is a module-body statement
// (component declaration, submodule instantiation, or wire).
func (n *Node) IsStatement() bool {
	switch n.kind {
	case KIncoming, KOutgoing, KNodeDecl, KRegDecl, KSubmodule, KWire:
		return true
	default:
		return false
	}
}

// ItemKindTag is the shape-classified kind of an item node, independent
// of (and input to) the registry's kind bookkeeping.
type ItemKindTag int

const (
	ItemModDef ItemKindTag = iota
	ItemStructDef
	ItemUnionDef
	ItemBuiltinDef
	ItemPortDef
)

// ItemKind classifies an item node by its declared shape.
func (n *Node) ItemKind() (ItemKindTag, bool) {
	switch n.kind {
	case KModDef:
		return ItemModDef, true
	case KStructDef:
		return ItemStructDef, true
	case KUnionDef:
		return ItemUnionDef, true
	case KBuiltinDef:
		return ItemBuiltinDef, true
	case KPortDef:
		return ItemPortDef, true
	default:
		return 0, false
	}
}

// Kind returns the node's shape tag.
func (n *Node) Kind() Kind { return n.kind }

// Name returns the node's identifier text: an item/field/ctor/component
// name, a wire target path, a method name, or a bound variable name,
// depending on Kind.
func (n *Node) Name() string { return n.name }

// Package splits a (possibly) package-qualified name of the form
// "pkg::Name" into its package and bare-name parts. If there is no
// "::" separator, ok is false and bare equals the whole name.
func (n *Node) Package() (pkg string, bare string, ok bool) {
	if idx := strings.Index(n.name, "::"); idx >= 0 {
		return n.name[:idx], n.name[idx+2:], true
	}
	return "", n.name, false
}

// Of returns the node's "subject" child: a submodule's target module
// name node, a struct literal's type node, a method call's receiver, an
// index/slice/as expression's subject.
func (n *Node) Of() *Node { return n.of }

// Typ returns the node's declared or ascribed type node.
func (n *Node) Typ() *Node { return n.typ }

// Expr returns the node's driving expression: a wire's value, a clock
// expression, a let's bound value, a field-init's value.
func (n *Node) Expr() *Node { return n.expr }

// Guard returns a match arm's optional guard expression, or nil.
func (n *Node) Guard() *Node { return n.guard }

// Args returns the node's ordered argument list: ctor/method call
// arguments, cat/vec elements, struct field inits, match arms, pattern
// subpatterns, or an if's subexpressions, depending on Kind.
func (n *Node) Args() []*Node { return n.args }

// AsStr returns the node's literal text (a word-literal's digits, or a
// connect operator's token).
func (n *Node) AsStr() string {
	if n.str != "" {
		return n.str
	}
	return n.op
}

// Span returns the node's source location.
func (n *Node) Span() errors.Span { return n.span }

// Ext reports whether a builtin item was declared with the "ext" flag
// (foreign primitive passthrough for the emitters).
func (n *Node) Ext() bool { return n.ext }

// Op returns a wire statement's connect operator, ":=" or "<=".
func (n *Node) Op() string { return n.op }

// --- builder helpers used by internal/parser ---

func (n *Node) WithName(name string) *Node   { n.name = name; return n }
func (n *Node) WithStr(str string) *Node     { n.str = str; return n }
func (n *Node) WithTyp(t *Node) *Node        { n.typ = t; return n }
func (n *Node) WithOf(of *Node) *Node        { n.of = of; return n }
func (n *Node) WithExpr(e *Node) *Node       { n.expr = e; return n }
func (n *Node) WithGuard(g *Node) *Node      { n.guard = g; return n }
func (n *Node) WithOp(op string) *Node       { n.op = op; return n }
func (n *Node) WithExt(ext bool) *Node       { n.ext = ext; return n }
func (n *Node) AddArg(a *Node) *Node         { n.args = append(n.args, a); return n }
func (n *Node) AddChild(c *Node) *Node       { n.children = append(n.children, c); return n }
func (n *Node) SetArgs(as []*Node) *Node     { n.args = as; return n }
func (n *Node) SetChildren(cs []*Node) *Node { n.children = cs; return n }

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(%s)", n.kind, n.name)
}
