// Package registry implements the package & item registry, the import
// resolver, and qualified-identifier resolution. It sits directly on
// top of internal/source: where source owns package name -> path ->
// text, registry owns text -> parse tree -> item table.
package registry

import (
	"github.com/virdant-lang/virdant/internal/ast"
	"github.com/virdant-lang/virdant/internal/errors"
	"github.com/virdant-lang/virdant/internal/ids"
	"github.com/virdant-lang/virdant/internal/parser"
	"github.com/virdant-lang/virdant/internal/source"
)

// Registry owns the parse-tree and item-table layer above a source
// registry. It is not safe for concurrent use; the whole analyzer is
// single-threaded.
type Registry struct {
	src *source.Registry

	asts map[string]*ast.Node

	items     map[string][]ids.ItemID
	itemKind  map[ids.ItemID]ids.ItemKind
	itemNode  map[ids.ItemID]*ast.Node
	itemOwner map[ids.ItemID]string // package name

	imports map[string][]string
}

// NewRegistry creates an item registry over src.
func NewRegistry(src *source.Registry) *Registry {
	return &Registry{
		src:       src,
		asts:      make(map[string]*ast.Node),
		items:     make(map[string][]ids.ItemID),
		itemKind:  make(map[ids.ItemID]ids.ItemKind),
		itemNode:  make(map[ids.ItemID]*ast.Node),
		itemOwner: make(map[ids.ItemID]string),
		imports:   make(map[string][]string),
	}
}

// Forget drops every cached fact derived from a package's source
// (parse tree, items, imports) so the next access recomputes them. The
// caller (internal/elaborate) is responsible for pairing this with a
// cache.Store bump for the package's epoch.
func (r *Registry) Forget(pkg string) {
	delete(r.asts, pkg)
	delete(r.imports, pkg)
	for _, id := range r.items[pkg] {
		delete(r.itemKind, id)
		delete(r.itemNode, id)
		delete(r.itemOwner, id)
	}
	delete(r.items, pkg)
}

// PackageAST returns a package's parse tree, reading and parsing its
// source on first access. Fails with KindIo if the source cannot be
// read, or accumulates KindParse diagnostics for syntax errors;
// parsing never stops at the first error.
func (r *Registry) PackageAST(pkg string) (*ast.Node, *errors.Diagnostics) {
	if file, ok := r.asts[pkg]; ok {
		return file, errors.NewDiagnostics()
	}

	text, ioErr := r.src.PackageSource(pkg)
	if ioErr != nil {
		d := errors.NewDiagnostics()
		d.Add(ioErr)
		return nil, d
	}

	path, _ := r.src.Path(pkg)
	file, diags := parser.ParsePackage(path, text)
	r.asts[pkg] = file
	return file, diags
}

// Items returns the ordered list of item ids declared in pkg, along
// with any DupItem diagnostics. Item ids are interned from the
// package-qualified name. On a duplicate name, the first declaration
// wins and the rest are reported but dropped from the returned list.
func (r *Registry) Items(pkg string) ([]ids.ItemID, *errors.Diagnostics) {
	if list, ok := r.items[pkg]; ok {
		return list, errors.NewDiagnostics()
	}

	file, diags := r.PackageAST(pkg)
	if file == nil {
		return nil, diags
	}

	seen := make(map[string]bool)
	var list []ids.ItemID
	for _, child := range file.Children() {
		kindTag, ok := child.ItemKind()
		if !ok {
			continue
		}
		name := child.Name()
		if seen[name] {
			diags.Add(errors.DupItem(name).WithSpan(child.Span()))
			continue
		}
		seen[name] = true

		id := ids.Qualify(pkg, name)
		list = append(list, id)
		r.itemKind[id] = itemKindFromTag(kindTag)
		r.itemNode[id] = child
		r.itemOwner[id] = pkg
	}

	r.items[pkg] = list
	return list, diags
}

func itemKindFromTag(tag ast.ItemKindTag) ids.ItemKind {
	switch tag {
	case ast.ItemModDef:
		return ids.KindModDef
	case ast.ItemStructDef:
		return ids.KindStructDef
	case ast.ItemUnionDef:
		return ids.KindUnionDef
	case ast.ItemBuiltinDef:
		return ids.KindBuiltinDef
	case ast.ItemPortDef:
		return ids.KindPortDef
	default:
		return ids.KindModDef
	}
}

// ItemKind returns the recorded kind of a registered item id.
func (r *Registry) ItemKind(id ids.ItemID) (ids.ItemKind, bool) {
	k, ok := r.itemKind[id]
	return k, ok
}

// ItemNode returns the parse-tree node that declared an item id.
func (r *Registry) ItemNode(id ids.ItemID) (*ast.Node, bool) {
	n, ok := r.itemNode[id]
	return n, ok
}

// ItemPackage returns the package name that owns an item id.
func (r *Registry) ItemPackage(id ids.ItemID) (string, bool) {
	pkg, ok := r.itemOwner[id]
	return pkg, ok
}

// Imports returns pkg's ordered, validated import list: every imported
// name must name a registered package (else CantImport), and no name
// may repeat (else DupImport). Both checks run to completion rather
// than stopping at the first failure.
func (r *Registry) Imports(pkg string) ([]string, *errors.Diagnostics) {
	if list, ok := r.imports[pkg]; ok {
		return list, errors.NewDiagnostics()
	}

	file, diags := r.PackageAST(pkg)
	if file == nil {
		return nil, diags
	}

	seen := make(map[string]bool)
	var list []string
	for _, child := range file.Children() {
		if !child.IsImport() {
			continue
		}
		name := child.Name()
		if seen[name] {
			diags.Add(errors.DupImport(name).WithSpan(child.Span()))
			continue
		}
		seen[name] = true
		if !r.src.Registered(name) {
			diags.Add(errors.CantImport(name).WithSpan(child.Span()))
			continue
		}
		list = append(list, name)
	}

	r.imports[pkg] = list
	return list, diags
}

// Resolve resolves an identifier referenced from package ownerPkg.
// ident is either bare ("Name"), which resolves first in ownerPkg and
// then in builtin, or package-prefixed ("pkg::Name"), which resolves
// in the named package if it is imported by ownerPkg or is ownerPkg
// itself.
func (r *Registry) Resolve(ownerPkg string, ident string) (ids.ItemID, *errors.Report) {
	qual, bare, isQualified := splitQualIdent(ident)

	if isQualified {
		imports, _ := r.Imports(ownerPkg)
		if qual == ownerPkg || containsStr(imports, qual) {
			id := ids.Qualify(qual, bare)
			if r.hasItem(qual, id) {
				return id, nil
			}
		}
		return "", errors.UnresolvedIdent(ident)
	}

	if id := ids.Qualify(ownerPkg, bare); r.hasItem(ownerPkg, id) {
		return id, nil
	}
	if id := ids.Qualify("builtin", bare); r.hasItem("builtin", id) {
		return id, nil
	}
	return "", errors.UnresolvedIdent(ident)
}

func (r *Registry) hasItem(pkg string, id ids.ItemID) bool {
	if _, ok := r.itemKind[id]; ok {
		return true
	}
	if !r.src.Registered(pkg) {
		return false
	}
	r.Items(pkg)
	_, ok := r.itemKind[id]
	return ok
}

func splitQualIdent(ident string) (qual, bare string, ok bool) {
	for i := 0; i+1 < len(ident); i++ {
		if ident[i] == ':' && ident[i+1] == ':' {
			return ident[:i], ident[i+2:], true
		}
	}
	return "", ident, false
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
