// Package depgraph implements the item-dependency analyzer: for each
// item, the set of other items it directly depends on, and cycle
// detection over that graph via DFS with a visited/inPath map pair,
// building the cycle's path for the error message on back-edge
// detection.
package depgraph

import (
	"github.com/virdant-lang/virdant/internal/ast"
	"github.com/virdant-lang/virdant/internal/errors"
	"github.com/virdant-lang/virdant/internal/ids"
	"github.com/virdant-lang/virdant/internal/registry"
)

// Graph computes and caches each item's direct dependency set.
type Graph struct {
	reg  *registry.Registry
	deps map[ids.ItemID][]ids.ItemID
}

// NewGraph creates a dependency graph backed by reg.
func NewGraph(reg *registry.Registry) *Graph {
	return &Graph{reg: reg, deps: make(map[ids.ItemID][]ids.ItemID)}
}

// Forget drops a cached dependency set so it is recomputed on next
// access (used after a package's source is updated).
func (g *Graph) Forget(id ids.ItemID) { delete(g.deps, id) }

// Deps returns id's direct dependencies, computing and caching them on
// first access. A reference that fails to resolve is skipped here; the
// type resolver and structure builder independently report
// UnresolvedIdent/KindError for the same reference.
func (g *Graph) Deps(id ids.ItemID) []ids.ItemID {
	if d, ok := g.deps[id]; ok {
		return d
	}
	d := g.computeDeps(id)
	g.deps[id] = d
	return d
}

func (g *Graph) computeDeps(id ids.ItemID) []ids.ItemID {
	pkg, ok := g.reg.ItemPackage(id)
	if !ok {
		return nil
	}
	node, ok := g.reg.ItemNode(id)
	if !ok {
		return nil
	}

	var out []ids.ItemID
	seen := make(map[ids.ItemID]bool)
	add := func(target ids.ItemID) {
		if target == "" || seen[target] {
			return
		}
		seen[target] = true
		out = append(out, target)
	}

	switch node.Kind() {
	case ast.KStructDef:
		for _, field := range node.Children() {
			g.addTypeDep(pkg, field.Typ(), add)
		}
	case ast.KUnionDef:
		for _, ctor := range node.Children() {
			for _, param := range ctor.Children() {
				g.addTypeDep(pkg, param.Typ(), add)
			}
		}
	case ast.KModDef, ast.KPortDef:
		for _, member := range node.Children() {
			switch member.Kind() {
			case ast.KIncoming, ast.KOutgoing, ast.KNodeDecl, ast.KRegDecl:
				g.addTypeDep(pkg, member.Typ(), add)
				if member.Kind() == ast.KRegDecl && member.Expr() != nil {
					g.addClockDep(pkg, node, member.Expr(), add)
				}
			case ast.KSubmodule:
				if target := member.Of(); target != nil {
					if dep, err := g.reg.Resolve(pkg, target.Name()); err == nil {
						add(dep)
					}
				}
			}
		}
	}

	return out
}

func (g *Graph) addTypeDep(pkg string, typ *ast.Node, add func(ids.ItemID)) {
	if typ == nil || typ.Kind() != ast.KTypeName {
		return
	}
	if dep, err := g.reg.Resolve(pkg, typ.Name()); err == nil {
		add(dep)
	}
}

// addClockDep resolves a register's clock expression when it routes
// through a submodule port ("on sub.clk"). The submodule's target
// module is ordinarily already a dependency via its own KSubmodule
// declaration; this covers the clock referent naming a submodule port
// directly.
func (g *Graph) addClockDep(pkg string, mod *ast.Node, clock *ast.Node, add func(ids.ItemID)) {
	if clock.Kind() != ast.KExprPath {
		return
	}
	path := ids.ParsePath(clock.Name())
	if !path.IsForeign() {
		return
	}
	for _, member := range mod.Children() {
		if member.Kind() == ast.KSubmodule && member.Name() == path.Head() {
			if target := member.Of(); target != nil {
				if dep, err := g.reg.Resolve(pkg, target.Name()); err == nil {
					add(dep)
				}
			}
		}
	}
}

// DetectCycle runs a depth-first search over every item reachable from
// roots. On the first back edge it reports ItemDepCycle(path), where
// path lists the cycle in declaration order starting from the node the
// back edge closes on. Returns nil if no cycle is found.
func (g *Graph) DetectCycle(roots []ids.ItemID) *errors.Report {
	visited := make(map[ids.ItemID]bool)
	inPath := make(map[ids.ItemID]bool)
	var path []ids.ItemID

	var dfs func(id ids.ItemID) *errors.Report
	dfs = func(id ids.ItemID) *errors.Report {
		if visited[id] {
			return nil
		}
		if inPath[id] {
			return errors.ItemDepCycle(closeCycle(path, id))
		}
		inPath[id] = true
		path = append(path, id)
		for _, dep := range g.Deps(id) {
			if r := dfs(dep); r != nil {
				return r
			}
		}
		inPath[id] = false
		path = path[:len(path)-1]
		visited[id] = true
		return nil
	}

	for _, root := range roots {
		if r := dfs(root); r != nil {
			return r
		}
	}
	return nil
}

func closeCycle(path []ids.ItemID, closing ids.ItemID) []string {
	start := 0
	for i, id := range path {
		if id == closing {
			start = i
			break
		}
	}
	cycle := make([]string, 0, len(path)-start+1)
	for _, id := range path[start:] {
		cycle = append(cycle, id.String())
	}
	return append(cycle, closing.String())
}
