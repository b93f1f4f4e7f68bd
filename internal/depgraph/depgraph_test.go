package depgraph

import (
	"testing"

	"github.com/virdant-lang/virdant/internal/ids"
	"github.com/virdant-lang/virdant/internal/registry"
	"github.com/virdant-lang/virdant/internal/source"
)

func setup(pkgs map[string]string) (*registry.Registry, *Graph) {
	src := source.NewRegistry()
	for name, text := range pkgs {
		src.SetSource(name, text)
	}
	reg := registry.NewRegistry(src)
	return reg, NewGraph(reg)
}

func TestStructDepsOnFieldTypes(t *testing.T) {
	reg, g := setup(map[string]string{
		"p": `struct Inner { x : Word[8]; } struct Outer { a : Inner; }`,
	})
	reg.Items("p")

	deps := g.Deps(ids.Qualify("p", "Outer"))
	if len(deps) != 1 || deps[0] != ids.Qualify("p", "Inner") {
		t.Fatalf("expected [p::Inner], got %v", deps)
	}
}

func TestModDepsOnComponentTypesAndSubmodules(t *testing.T) {
	reg, g := setup(map[string]string{
		"p": `struct S { x : Word[8]; }
			mod Child { incoming in : Word[8]; outgoing out : Word[8]; out := in; }
			mod Top {
				incoming in : S;
				mod c of Child;
				outgoing out : Word[8];
				out := c.out;
			}`,
	})
	reg.Items("p")

	deps := g.Deps(ids.Qualify("p", "Top"))
	want := map[string]bool{"p::S": true, "p::Child": true}
	if len(deps) != 2 {
		t.Fatalf("expected 2 deps, got %v", deps)
	}
	for _, d := range deps {
		if !want[d.String()] {
			t.Fatalf("unexpected dep %v", d)
		}
	}
}

func TestDetectCycleReportsPath(t *testing.T) {
	reg, g := setup(map[string]string{
		"p": `struct A { x : B; } struct B { y : A; }`,
	})
	items, _ := reg.Items("p")

	r := g.DetectCycle(items)
	if r == nil {
		t.Fatal("expected a cycle diagnostic")
	}
	if r.Code != "VIR-DEP-001" {
		t.Fatalf("unexpected code: %s", r.Code)
	}
}

func TestDetectCycleNoneOnAcyclicGraph(t *testing.T) {
	reg, g := setup(map[string]string{
		"p": `struct A { x : Word[1]; } struct B { y : A; }`,
	})
	items, _ := reg.Items("p")

	if r := g.DetectCycle(items); r != nil {
		t.Fatalf("expected no cycle, got %v", r)
	}
}
