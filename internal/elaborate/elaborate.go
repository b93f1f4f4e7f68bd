// Package elaborate is the top-level entry point of Virdant's semantic
// analyzer: it owns one Context per analysis session and sequences
// registry -> depgraph -> vtypes -> structure -> check -> layout into
// the elaborated IR consumed by emitters and the simulator. Every
// query on a Context is a synchronous function; there are no
// suspension points.
package elaborate

import (
	"github.com/virdant-lang/virdant/internal/cache"
	"github.com/virdant-lang/virdant/internal/check"
	"github.com/virdant-lang/virdant/internal/depgraph"
	"github.com/virdant-lang/virdant/internal/errors"
	"github.com/virdant-lang/virdant/internal/ids"
	"github.com/virdant-lang/virdant/internal/registry"
	"github.com/virdant-lang/virdant/internal/source"
	"github.com/virdant-lang/virdant/internal/structure"
	"github.com/virdant-lang/virdant/internal/vtypes"
)

// Context is a Virdant analysis session, owned by one driver
// goroutine. It is not safe for concurrent use.
type Context struct {
	Src     *source.Registry
	Reg     *registry.Registry
	Defs    *vtypes.Defs
	Builder *structure.Builder
	Checker *check.Checker
	Graph   *depgraph.Graph
	Cache   *cache.Store
}

// NewContext creates an empty analysis session with no packages
// registered.
func NewContext() *Context {
	src := source.NewRegistry()
	reg := registry.NewRegistry(src)
	defs := vtypes.NewDefs(reg)
	builder := structure.NewBuilder(reg, defs)
	graph := depgraph.NewGraph(reg)
	checker := check.NewChecker(reg, defs, builder)
	return &Context{
		Src:     src,
		Reg:     reg,
		Defs:    defs,
		Builder: builder,
		Checker: checker,
		Graph:   graph,
		Cache:   cache.NewStore(),
	}
}

// RegisterPackage seeds the source registry with a package's
// filesystem path. Idempotent by name.
func (c *Context) RegisterPackage(name, path string) {
	c.Src.RegisterPackage(name, path)
}

// SetSource injects a package's source text directly, invalidating the
// transitive closure of its consumers: every package that imports
// name, directly or indirectly, is also invalidated, since
// a changed item shape or type is observed through an import edge; a
// change to the builtin package invalidates every other package, since
// bare names resolve against builtin without an import. Unaffected packages' per-item caches (depgraph, vtypes, structure)
// are left untouched, which is where the actual incrementality lives;
// this function's own cost is proportional to the package graph, not to
// the total parse-tree size.
func (c *Context) SetSource(name, text string) {
	affected := c.transitiveDependents(name)

	c.forgetPackageItems(name)
	c.Src.SetSource(name, text)
	c.Cache.Bump(name)

	for _, pkg := range affected {
		c.forgetPackageItems(pkg)
		c.Cache.Bump(pkg)
	}
}

// transitiveDependents returns every registered package that imports
// name, directly or indirectly, computed from the import graph as it
// stands before name's source is replaced. For builtin, whose items are
// reachable from every package without an import, it returns every
// other registered package.
func (c *Context) transitiveDependents(name string) []string {
	if name == "builtin" {
		var out []string
		for _, pkg := range c.Src.PackageNames() {
			if pkg != name {
				out = append(out, pkg)
			}
		}
		return out
	}

	importers := make(map[string][]string) // pkg -> packages it imports
	for _, pkg := range c.Src.PackageNames() {
		imps, _ := c.Reg.Imports(pkg)
		importers[pkg] = imps
	}

	visited := make(map[string]bool)
	var out []string
	var visit func(target string)
	visit = func(target string) {
		for pkg, imps := range importers {
			if visited[pkg] {
				continue
			}
			for _, imp := range imps {
				if imp == target {
					visited[pkg] = true
					out = append(out, pkg)
					visit(pkg)
					break
				}
			}
		}
	}
	visit(name)
	return out
}

// forgetPackageItems drops every cached fact keyed by one of pkg's item
// ids (depgraph dependency sets, resolved struct/union shapes, built
// module structures) before forgetting the registry's own parse-tree and
// item-table entries for pkg. The order matters: the item ids must be
// read out of the registry before Forget deletes the list that names
// them.
func (c *Context) forgetPackageItems(pkg string) {
	items, _ := c.Reg.Items(pkg)
	for _, id := range items {
		c.Graph.Forget(id)
		c.Defs.Forget(id)
		c.Builder.Forget(id)
	}
	c.Reg.Forget(pkg)
}

// Elaborated is the read-only, dependency-ordered view of a successful
// check. It is the interface emitters and the simulator consume; this
// package never interprets it beyond providing accessors.
type Elaborated struct {
	Modules []*check.ModuleCheck
	Layouts map[ids.UnionDefID]vtypes.Layout
}

// ModuleByID looks up a checked module's elaborated form by id.
func (e *Elaborated) ModuleByID(id ids.ModDefID) (*check.ModuleCheck, bool) {
	for _, m := range e.Modules {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// Check runs the full pipeline: enumerate every registered package's
// items, verify the item-dependency graph is acyclic, resolve every
// struct/union shape, build and typecheck every module, and compute
// the layout of every union. Within the shape, module and layout phases
// a failure for one item does not stop the rest, and Check returns every
// diagnostic gathered. An item-dependency cycle is the exception: Check
// then stops after dependency analysis and returns the diagnostics
// gathered so far with no modules and no layouts. The result is
// memoized against the current epoch of every known package, so a
// repeated call with no intervening SetSource is a cache hit.
func (c *Context) Check() (*Elaborated, *errors.Diagnostics) {
	pkgs := c.Src.PackageNames()
	deps := append([]string(nil), pkgs...)

	value, _ := c.Cache.Get("check", "", deps, func() (any, error) {
		return c.check(pkgs), nil
	})
	result := value.(*checkResult)
	return result.elaborated, result.diags
}

type checkResult struct {
	elaborated *Elaborated
	diags      *errors.Diagnostics
}

func (c *Context) check(pkgs []string) *checkResult {
	diags := errors.NewDiagnostics()

	var allItems []ids.ItemID
	var modIDs []ids.ModDefID
	var unionIDs []ids.UnionDefID

	for _, pkg := range pkgs {
		_, importDiags := c.Reg.Imports(pkg)
		diags.Merge(importDiags)

		items, itemDiags := c.Reg.Items(pkg)
		diags.Merge(itemDiags)

		for _, id := range items {
			allItems = append(allItems, id)
			kind, _ := c.Reg.ItemKind(id)
			switch kind {
			case ids.KindModDef:
				if mid, err := ids.Coerce[ids.ModDefTag](id, kind, ids.KindModDef); err == nil {
					modIDs = append(modIDs, mid)
				}
			case ids.KindUnionDef:
				if uid, err := ids.Coerce[ids.UnionTag](id, kind, ids.KindUnionDef); err == nil {
					unionIDs = append(unionIDs, uid)
				}
			}
		}
	}

	// Item-dependency analysis runs over every item regardless of kind;
	// a cycle anywhere stops every later phase for every item, and only
	// the diagnostics collected so far are returned.
	if cyc := c.Graph.DetectCycle(allItems); cyc != nil {
		diags.Add(cyc)
		return &checkResult{elaborated: &Elaborated{Layouts: map[ids.UnionDefID]vtypes.Layout{}}, diags: diags}
	}

	elaborated := &Elaborated{Layouts: make(map[ids.UnionDefID]vtypes.Layout)}

	for _, uid := range unionIDs {
		info, unionDiags := c.Defs.Union(uid)
		diags.Merge(unionDiags)
		if info != nil {
			elaborated.Layouts[uid] = vtypes.ComputeLayout(c.Defs, info)
		}
	}

	for _, mid := range modIDs {
		mc, modDiags := c.Checker.CheckModule(mid)
		diags.Merge(modDiags)
		if mc != nil {
			elaborated.Modules = append(elaborated.Modules, mc)
		}
	}

	return &checkResult{elaborated: elaborated, diags: diags}
}
