// Package structure builds each module's shape from its parse tree:
// the ordered element list, the ordered submodule list, and each
// element's attached driver expression. It is a single traversal over
// the module body that reports errors without aborting.
package structure

import (
	"github.com/virdant-lang/virdant/internal/ast"
	"github.com/virdant-lang/virdant/internal/errors"
	"github.com/virdant-lang/virdant/internal/ids"
	"github.com/virdant-lang/virdant/internal/registry"
	"github.com/virdant-lang/virdant/internal/vtypes"
)

// ElementKind classifies a module element: ports (Incoming, Outgoing)
// or internals (Node, Reg).
type ElementKind int

const (
	KindIncoming ElementKind = iota
	KindOutgoing
	KindNode
	KindReg
)

func (k ElementKind) String() string {
	switch k {
	case KindIncoming:
		return "Incoming"
	case KindOutgoing:
		return "Outgoing"
	case KindNode:
		return "Node"
	case KindReg:
		return "Reg"
	default:
		return "Unknown"
	}
}

// IsPort reports whether this element kind is addressable from a
// parent module via "sub.port".
func (k ElementKind) IsPort() bool { return k == KindIncoming || k == KindOutgoing }

// Element is one named component of a module.
type Element struct {
	ID     ids.ComponentID
	Name   string
	Kind   ElementKind
	Type   vtypes.Type
	Driver *ast.Node // wire's value expression, nil if undriven
	Op     string    // ":=" or "<=", empty if undriven
	Clock  *ast.Node // a Reg's clock expression, nil otherwise
	Span   errors.Span
}

// Submodule is one module instantiation inside a parent module.
type Submodule struct {
	ID          ids.ComponentID
	Name        string
	Target      ids.ModDefID
	Span        errors.Span
	PortDrivers []*PortDriver
}

// PortDriver is a driver the parent module attaches to one of a
// submodule's incoming ports (a wire statement of the form
// "sub.port := expr;").
type PortDriver struct {
	Port   string
	Driver *ast.Node
	Op     string
	Span   errors.Span
}

// PortDriverFor looks up a submodule's driver for one of its ports.
func (m *Submodule) PortDriverFor(port string) (*PortDriver, bool) {
	for _, pd := range m.PortDrivers {
		if pd.Port == port {
			return pd, true
		}
	}
	return nil, false
}

// Structure is a fully built ModDef: its elements and submodules, in
// declaration order. Elements and submodules share one namespace, so
// a name may occupy at most one slot across both lists.
type Structure struct {
	ID         ids.ModDefID
	Elements   []*Element
	Submodules []*Submodule
}

// ElementByName looks up an element by name.
func (s *Structure) ElementByName(name string) (*Element, bool) {
	for _, e := range s.Elements {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// SubmoduleByName looks up a submodule by name.
func (s *Structure) SubmoduleByName(name string) (*Submodule, bool) {
	for _, m := range s.Submodules {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Builder constructs and caches Structure for each ModDef/PortDef item.
type Builder struct {
	reg   *registry.Registry
	defs  *vtypes.Defs
	built map[ids.ItemID]*builtEntry
}

// builtEntry caches a structure together with the diagnostics its build
// produced, so a module first reached indirectly (through a parent's
// submodule reference) still surfaces its own errors when checked
// directly later.
type builtEntry struct {
	s     *Structure
	diags *errors.Diagnostics
}

// NewBuilder creates a structure builder backed by reg and defs.
func NewBuilder(reg *registry.Registry, defs *vtypes.Defs) *Builder {
	return &Builder{reg: reg, defs: defs, built: make(map[ids.ItemID]*builtEntry)}
}

// Forget drops a cached structure so it's recomputed on next access.
func (b *Builder) Forget(id ids.ItemID) { delete(b.built, id) }

// Build returns the built Structure for a ModDef/PortDef item,
// computing and caching it on first access. Duplicate element/submodule
// names, unresolvable types, and driver-operator mismatches are
// reported but never halt the traversal early. Repeated calls
// return the same diagnostics; the accumulator's dedup keeps them from
// double-counting when merged more than once.
func (b *Builder) Build(id ids.ModDefID) (*Structure, *errors.Diagnostics) {
	item := ids.AsItem(id)
	if e, ok := b.built[item]; ok {
		return e.s, e.diags
	}

	diags := errors.NewDiagnostics()
	node, ok := b.reg.ItemNode(item)
	if !ok {
		diags.Add(errors.Other("unknown module item " + item.String()))
		return nil, diags
	}
	pkg := b.defs.PackageOf(item)

	s := &Structure{ID: id}
	seen := make(map[string]bool)

	for _, member := range node.Children() {
		switch member.Kind() {
		case ast.KIncoming, ast.KOutgoing, ast.KNodeDecl, ast.KRegDecl:
			b.buildElement(pkg, item, member, s, seen, diags)
		case ast.KSubmodule:
			b.buildSubmodule(pkg, item, member, s, seen, diags)
		case ast.KWire:
			b.attachWire(member, s, diags)
		}
	}

	b.built[item] = &builtEntry{s: s, diags: diags}
	return s, diags
}

func (b *Builder) buildElement(pkg string, owner ids.ItemID, member *ast.Node, s *Structure, seen map[string]bool, diags *errors.Diagnostics) {
	name := member.Name()
	if seen[name] {
		diags.Add(errors.Other("duplicate element name " + name).WithSpan(member.Span()))
		return
	}
	seen[name] = true

	typ, rerr := b.defs.ResolveType(pkg, member.Typ())
	if rerr != nil {
		diags.Add(rerr)
	}

	kind := elementKindOf(member.Kind())
	el := &Element{
		ID:   ids.QualifyMember[ids.CompTag](owner, name),
		Name: name,
		Kind: kind,
		Type: typ,
		Span: member.Span(),
	}

	if kind == KindReg {
		if member.Expr() == nil {
			diags.Add(errors.DriverDiscipline("register " + name + " has no clock expression").WithSpan(member.Span()))
		} else {
			el.Clock = member.Expr()
		}
	}

	// Driver coalescing: an inline driver is attached to the decl node
	// itself via Of() (parser.parseComponentDecl).
	if wire := member.Of(); wire != nil && wire.Kind() == ast.KWire {
		b.setDriver(el, wire.Op(), wire.Expr(), member.Span(), kind, diags)
	}

	s.Elements = append(s.Elements, el)
}

func elementKindOf(k ast.Kind) ElementKind {
	switch k {
	case ast.KIncoming:
		return KindIncoming
	case ast.KOutgoing:
		return KindOutgoing
	case ast.KNodeDecl:
		return KindNode
	case ast.KRegDecl:
		return KindReg
	default:
		return KindNode
	}
}

func (b *Builder) buildSubmodule(pkg string, owner ids.ItemID, member *ast.Node, s *Structure, seen map[string]bool, diags *errors.Diagnostics) {
	name := member.Name()
	if seen[name] {
		diags.Add(errors.Other("duplicate element name " + name).WithSpan(member.Span()))
		return
	}
	seen[name] = true

	target := member.Of()
	var targetID ids.ModDefID
	if target != nil {
		id, rerr := b.reg.Resolve(pkg, target.Name())
		if rerr != nil {
			diags.Add(rerr)
		} else if kind, _ := b.reg.ItemKind(id); kind != ids.KindModDef {
			diags.Add(errors.KindError(target.Name() + " is not a module").WithSpan(member.Span()))
		} else {
			targetID, _ = ids.Coerce[ids.ModDefTag](id, kind, ids.KindModDef)
		}
	}

	s.Submodules = append(s.Submodules, &Submodule{
		ID:     ids.QualifyMember[ids.CompTag](owner, name),
		Name:   name,
		Target: targetID,
		Span:   member.Span(),
	})
}

// attachWire attaches a free-standing wire statement to its target's
// driver slot. A local, single-segment target ("path := expr;") names
// an element of this module. A two-part target ("sub.port := expr;")
// drives one of a submodule's incoming ports from the parent.
func (b *Builder) attachWire(wire *ast.Node, s *Structure, diags *errors.Diagnostics) {
	path := ids.ParsePath(wire.Name())

	if path.IsLocal() {
		el, ok := s.ElementByName(path.Head())
		if !ok {
			diags.Add(errors.Other("wire targets undeclared element " + wire.Name()).WithSpan(wire.Span()))
			return
		}
		b.setDriver(el, wire.Op(), wire.Expr(), wire.Span(), el.Kind, diags)
		return
	}

	if !path.IsForeign() {
		diags.Add(errors.Other("wire target must be local or a submodule port: " + wire.Name()).WithSpan(wire.Span()))
		return
	}

	sub, ok := s.SubmoduleByName(path.Head())
	if !ok {
		diags.Add(errors.Other("wire targets undeclared submodule " + path.Head()).WithSpan(wire.Span()))
		return
	}
	if _, dup := sub.PortDriverFor(path.Last()); dup {
		diags.Add(errors.DriverDiscipline("submodule port " + wire.Name() + " has more than one driver").WithSpan(wire.Span()))
		return
	}
	if wire.Op() != ":=" {
		diags.Add(errors.DriverDiscipline("submodule port " + wire.Name() + " must be driven with :=, found " + wire.Op()).WithSpan(wire.Span()))
	}
	sub.PortDrivers = append(sub.PortDrivers, &PortDriver{
		Port:   path.Last(),
		Driver: wire.Expr(),
		Op:     wire.Op(),
		Span:   wire.Span(),
	})
}

func (b *Builder) setDriver(el *Element, op string, expr *ast.Node, span errors.Span, kind ElementKind, diags *errors.Diagnostics) {
	if el.Driver != nil {
		diags.Add(errors.DriverDiscipline("element " + el.Name + " has more than one driver").WithSpan(span))
		return
	}
	if kind == KindIncoming {
		diags.Add(errors.DriverDiscipline("incoming element " + el.Name + " cannot be driven inside its declaring module").WithSpan(span))
		return
	}
	wantOp := ":="
	if kind == KindReg {
		wantOp = "<="
	}
	if op != wantOp {
		diags.Add(errors.DriverDiscipline("element " + el.Name + " must be driven with " + wantOp + ", found " + op).WithSpan(span))
	}
	el.Driver = expr
	el.Op = op
}
