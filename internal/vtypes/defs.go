package vtypes

import (
	"fmt"

	"github.com/virdant-lang/virdant/internal/ast"
	"github.com/virdant-lang/virdant/internal/errors"
	"github.com/virdant-lang/virdant/internal/ids"
	"github.com/virdant-lang/virdant/internal/registry"
)

// FieldInfo is one resolved struct field, in declaration order.
type FieldInfo struct {
	ID   ids.FieldID
	Name string
	Type Type
}

// StructInfo is a struct item's resolved field list.
type StructInfo struct {
	ID     ids.StructDefID
	Fields []FieldInfo
}

// FieldByName looks up a field by name; ok is false if no such field.
func (s *StructInfo) FieldByName(name string) (FieldInfo, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldInfo{}, false
}

// CtorInfo is one resolved union constructor, in declaration order.
type CtorInfo struct {
	ID     ids.CtorID
	Name   string
	Tag    int
	Params []FieldInfo
}

// UnionInfo is a union item's resolved constructor list.
type UnionInfo struct {
	ID    ids.UnionDefID
	Ctors []CtorInfo
}

// CtorByName looks up a constructor by name; ok is false if no such
// constructor.
func (u *UnionInfo) CtorByName(name string) (CtorInfo, bool) {
	for _, c := range u.Ctors {
		if c.Name == name {
			return c, true
		}
	}
	return CtorInfo{}, false
}

// Defs is the lazily-populated table of resolved struct/union shapes
// and the type resolver over it. It owns no state the registry doesn't
// already have; it exists to memoize the expensive step of resolving
// every field/param type once per struct or union item.
type Defs struct {
	reg     *registry.Registry
	structs map[ids.ItemID]*structEntry
	unions  map[ids.ItemID]*unionEntry
}

// structEntry/unionEntry cache a resolved shape together with the
// diagnostics resolving it produced, so every caller sees the same
// errors regardless of which query touched the item first. The
// accumulator's dedup keeps repeated merges from double-counting.
type structEntry struct {
	info  *StructInfo
	diags *errors.Diagnostics
}

type unionEntry struct {
	info  *UnionInfo
	diags *errors.Diagnostics
}

// NewDefs creates a definition table backed by reg.
func NewDefs(reg *registry.Registry) *Defs {
	return &Defs{
		reg:     reg,
		structs: make(map[ids.ItemID]*structEntry),
		unions:  make(map[ids.ItemID]*unionEntry),
	}
}

// Forget drops a cached struct/union shape so it's recomputed on next
// access.
func (d *Defs) Forget(id ids.ItemID) {
	delete(d.structs, id)
	delete(d.unions, id)
}

// ResolveType resolves a type AST node in the context of package pkg:
// Word[n] and Clock directly, any other name through qualified-ident
// resolution to a struct, union, or builtin item.
func (d *Defs) ResolveType(pkg string, typ *ast.Node) (Type, *errors.Report) {
	switch typ.Kind() {
	case ast.KTypeWord:
		if len(typ.Args()) != 1 {
			return nil, errors.KindError("Word requires a width argument")
		}
		n, err := parseWidth(typ.Args()[0].AsStr())
		if err != nil {
			return nil, errors.KindError(err.Error()).WithSpan(typ.Span())
		}
		return Word{Width: n}, nil

	case ast.KTypeClock:
		return Clock{}, nil

	case ast.KTypeName:
		name := typ.Name()
		id, rerr := d.reg.Resolve(pkg, name)
		if rerr != nil {
			return nil, rerr
		}
		kind, _ := d.reg.ItemKind(id)
		hasArg := len(typ.Args()) > 0

		switch kind {
		case ids.KindStructDef:
			if hasArg {
				return nil, errors.KindError("struct type " + name + " takes no generic argument").WithSpan(typ.Span())
			}
			sid, _ := ids.Coerce[ids.StructTag](id, kind, ids.KindStructDef)
			return Struct{ID: sid}, nil

		case ids.KindUnionDef:
			if hasArg {
				return nil, errors.KindError("union type " + name + " takes no generic argument").WithSpan(typ.Span())
			}
			uid, _ := ids.Coerce[ids.UnionTag](id, kind, ids.KindUnionDef)
			return Union{ID: uid}, nil

		case ids.KindBuiltinDef:
			if hasArg {
				return nil, errors.KindError("builtin type " + name + " takes no generic argument").WithSpan(typ.Span())
			}
			bid, _ := ids.Coerce[ids.BuiltinTag](id, kind, ids.KindBuiltinDef)
			return Builtin{ID: bid}, nil

		default:
			return nil, errors.KindError(name + " does not name a type").WithSpan(typ.Span())
		}

	default:
		return nil, errors.KindError("not a type").WithSpan(typ.Span())
	}
}

func parseWidth(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, fmt.Errorf("empty width literal")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid width literal %q", s)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

// PackageOf returns the package that owns an item id.
func (d *Defs) PackageOf(id ids.ItemID) string {
	pkg, _ := d.reg.ItemPackage(id)
	return pkg
}

// Struct returns the resolved field list for a struct item, computing
// and caching it on first access. Field types are resolved in the
// context of the struct's own owning package, not the caller's.
func (d *Defs) Struct(id ids.StructDefID) (*StructInfo, *errors.Diagnostics) {
	item := ids.AsItem(id)
	if e, ok := d.structs[item]; ok {
		return e.info, e.diags
	}
	diags := errors.NewDiagnostics()
	node, ok := d.reg.ItemNode(item)
	if !ok {
		diags.Add(errors.Other("unknown struct item " + item.String()))
		return nil, diags
	}
	pkg := d.PackageOf(item)
	info := &StructInfo{ID: id}
	for _, fieldNode := range node.Children() {
		ftyp, rerr := d.ResolveType(pkg, fieldNode.Typ())
		if rerr != nil {
			diags.Add(rerr)
			continue
		}
		info.Fields = append(info.Fields, FieldInfo{
			ID:   ids.QualifyMember[ids.FieldTag](item, fieldNode.Name()),
			Name: fieldNode.Name(),
			Type: ftyp,
		})
	}
	d.structs[item] = &structEntry{info: info, diags: diags}
	return info, diags
}

// Union returns the resolved constructor list for a union item,
// computing and caching it on first access. Parameter types are
// resolved in the context of the union's own owning package, not the
// caller's.
func (d *Defs) Union(id ids.UnionDefID) (*UnionInfo, *errors.Diagnostics) {
	item := ids.AsItem(id)
	if e, ok := d.unions[item]; ok {
		return e.info, e.diags
	}
	diags := errors.NewDiagnostics()
	node, ok := d.reg.ItemNode(item)
	if !ok {
		diags.Add(errors.Other("unknown union item " + item.String()))
		return nil, diags
	}
	pkg := d.PackageOf(item)
	info := &UnionInfo{ID: id}
	for tag, ctorNode := range node.Children() {
		ctorID := ids.QualifyMember[ids.CtorTag](item, ctorNode.Name())
		ctor := CtorInfo{ID: ctorID, Name: ctorNode.Name(), Tag: tag}
		for _, paramNode := range ctorNode.Children() {
			ptyp, rerr := d.ResolveType(pkg, paramNode.Typ())
			if rerr != nil {
				diags.Add(rerr)
				continue
			}
			ctor.Params = append(ctor.Params, FieldInfo{
				ID:   ids.QualifyMember[ids.FieldTag](ids.AsItem(ctorID), paramNode.Name()),
				Name: paramNode.Name(),
				Type: ptyp,
			})
		}
		info.Ctors = append(info.Ctors, ctor)
	}
	d.unions[item] = &unionEntry{info: info, diags: diags}
	return info, diags
}
