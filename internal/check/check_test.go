package check

import (
	"testing"

	"github.com/virdant-lang/virdant/internal/ids"
	"github.com/virdant-lang/virdant/internal/registry"
	"github.com/virdant-lang/virdant/internal/source"
	"github.com/virdant-lang/virdant/internal/structure"
	"github.com/virdant-lang/virdant/internal/vtypes"
)

func setup(pkgs map[string]string) (*registry.Registry, *Checker) {
	src := source.NewRegistry()
	for name, text := range pkgs {
		src.SetSource(name, text)
	}
	reg := registry.NewRegistry(src)
	defs := vtypes.NewDefs(reg)
	builder := structure.NewBuilder(reg, defs)
	return reg, NewChecker(reg, defs, builder)
}

func modIDNamed(reg *registry.Registry, pkg, name string) ids.ModDefID {
	items, _ := reg.Items(pkg)
	for _, id := range items {
		if id.String() == pkg+"::"+name {
			mid, _ := ids.Coerce[ids.ModDefTag](id, ids.KindModDef, ids.KindModDef)
			return mid
		}
	}
	return ""
}

func TestCheckPassThroughModule(t *testing.T) {
	reg, c := setup(map[string]string{
		"p": `mod Top { incoming in : Word[8]; outgoing out : Word[8]; out := in; }`,
	})
	mc, diags := c.CheckModule(modIDNamed(reg, "p", "Top"))
	if !diags.OK() {
		t.Fatalf("unexpected diagnostics: %v", diags.Reports())
	}
	out := findElement(mc, "out")
	if out == nil || out.Driver == nil {
		t.Fatal("expected out to have a typed driver")
	}
	if out.Driver.Kind != EReference {
		t.Fatalf("expected a reference driver, got %v", out.Driver.Kind)
	}
}

func TestCheckRejectsDriverTypeMismatch(t *testing.T) {
	reg, c := setup(map[string]string{
		"p": `mod Top { incoming in : Word[4]; outgoing out : Word[8]; out := in; }`,
	})
	_, diags := c.CheckModule(modIDNamed(reg, "p", "Top"))
	if diags.OK() {
		t.Fatal("expected a TypeMismatch diagnostic for Word[4] driving Word[8]")
	}
}

func TestCheckRegRequiresTypedClock(t *testing.T) {
	reg, c := setup(map[string]string{
		"p": `mod Top { incoming clk : Clock; incoming in : Word[8]; reg r : Word[8] on clk; r <= in; }`,
	})
	mc, diags := c.CheckModule(modIDNamed(reg, "p", "Top"))
	if !diags.OK() {
		t.Fatalf("unexpected diagnostics: %v", diags.Reports())
	}
	r := findElement(mc, "r")
	if r == nil || r.Clock == nil {
		t.Fatal("expected r to have a typechecked clock expression")
	}
	if _, ok := r.Clock.Type.(vtypes.Clock); !ok {
		t.Fatalf("expected clock expression to have type Clock, got %v", r.Clock.Type)
	}
}

func TestCheckRegRejectsNonClockClock(t *testing.T) {
	reg, c := setup(map[string]string{
		"p": `mod Top { incoming notclk : Word[1]; incoming in : Word[8]; reg r : Word[8] on notclk; r <= in; }`,
	})
	_, diags := c.CheckModule(modIDNamed(reg, "p", "Top"))
	if diags.OK() {
		t.Fatal("expected a diagnostic for a Word[1] clock expression")
	}
}

func TestCheckMethodCallArithmeticPreservesWidth(t *testing.T) {
	reg, c := setup(map[string]string{
		"p": `mod Top { incoming a : Word[8]; incoming b : Word[8]; outgoing out : Word[8]; out := a.add(b); }`,
	})
	mc, diags := c.CheckModule(modIDNamed(reg, "p", "Top"))
	if !diags.OK() {
		t.Fatalf("unexpected diagnostics: %v", diags.Reports())
	}
	out := findElement(mc, "out")
	if out == nil || out.Driver == nil || out.Driver.Kind != EMethodCall {
		t.Fatal("expected out's driver to be a method call")
	}
	if w, ok := out.Driver.Type.(vtypes.Word); !ok || w.Width != 8 {
		t.Fatalf("expected add to preserve width 8, got %v", out.Driver.Type)
	}
}

func TestCheckComparisonMethodReturnsWord1(t *testing.T) {
	reg, c := setup(map[string]string{
		"p": `mod Top { incoming a : Word[8]; incoming b : Word[8]; outgoing out : Word[1]; out := a.eq(b); }`,
	})
	mc, diags := c.CheckModule(modIDNamed(reg, "p", "Top"))
	if !diags.OK() {
		t.Fatalf("unexpected diagnostics: %v", diags.Reports())
	}
	out := findElement(mc, "out")
	if w, ok := out.Driver.Type.(vtypes.Word); !ok || w.Width != 1 {
		t.Fatalf("expected eq to produce Word[1], got %v", out.Driver.Type)
	}
}

func TestCheckRejectsUnknownMethod(t *testing.T) {
	reg, c := setup(map[string]string{
		"p": `mod Top { incoming a : Word[8]; outgoing out : Word[8]; out := a.frobnicate(); }`,
	})
	_, diags := c.CheckModule(modIDNamed(reg, "p", "Top"))
	if diags.OK() {
		t.Fatal("expected a diagnostic for an unknown method")
	}
}

func TestCheckIdxAndCat(t *testing.T) {
	reg, c := setup(map[string]string{
		"p": `mod Top {
			incoming a : Word[8];
			outgoing hi : Word[4];
			outgoing bit : Word[1];
			outgoing doubled : Word[16];
			hi := a[8..4];
			bit := a[0];
			doubled := cat(a, a);
		}`,
	})
	mc, diags := c.CheckModule(modIDNamed(reg, "p", "Top"))
	if !diags.OK() {
		t.Fatalf("unexpected diagnostics: %v", diags.Reports())
	}
	if w, ok := findElement(mc, "hi").Driver.Type.(vtypes.Word); !ok || w.Width != 4 {
		t.Fatalf("expected hi driver to have width 4, got %v", findElement(mc, "hi").Driver.Type)
	}
	if w, ok := findElement(mc, "bit").Driver.Type.(vtypes.Word); !ok || w.Width != 1 {
		t.Fatalf("expected bit driver to have width 1, got %v", findElement(mc, "bit").Driver.Type)
	}
	if w, ok := findElement(mc, "doubled").Driver.Type.(vtypes.Word); !ok || w.Width != 16 {
		t.Fatalf("expected doubled driver to have width 16, got %v", findElement(mc, "doubled").Driver.Type)
	}
}

func TestCheckIdxOutOfBounds(t *testing.T) {
	reg, c := setup(map[string]string{
		"p": `mod Top { incoming a : Word[8]; outgoing bit : Word[1]; bit := a[9]; }`,
	})
	_, diags := c.CheckModule(modIDNamed(reg, "p", "Top"))
	if diags.OK() {
		t.Fatal("expected an out-of-bounds index diagnostic")
	}
}

func TestCheckMatchExhaustiveWithWildcard(t *testing.T) {
	reg, c := setup(map[string]string{
		"p": `union Opt { @None(); @Some(x : Word[8]); }
			mod Top {
				incoming tag : Word[1];
				outgoing out : Word[8];
				node o : Opt := @Some(cat(tag, tag, tag, tag, tag, tag, tag, tag));
				out := match o {
					@Some(x) => x,
					_ => 0w8,
				};
			}`,
	})
	_, diags := c.CheckModule(modIDNamed(reg, "p", "Top"))
	if !diags.OK() {
		t.Fatalf("unexpected diagnostics: %v", diags.Reports())
	}
}

func TestCheckMatchRejectsNonExhaustive(t *testing.T) {
	reg, c := setup(map[string]string{
		"p": `union Opt { @None(); @Some(x : Word[8]); }
			mod Top {
				incoming tag : Word[1];
				outgoing out : Word[8];
				node o : Opt := @Some(cat(tag, tag, tag, tag, tag, tag, tag, tag));
				out := match o {
					@Some(x) => x,
				};
			}`,
	})
	_, diags := c.CheckModule(modIDNamed(reg, "p", "Top"))
	if diags.OK() {
		t.Fatal("expected a non-exhaustive match diagnostic")
	}
}

func TestCheckStructLiteral(t *testing.T) {
	reg, c := setup(map[string]string{
		"p": `struct Pair { x : Word[8]; y : Word[8]; }
			mod Top {
				incoming a : Word[8];
				outgoing out : Word[8];
				node pr : Pair := Pair { x: a, y: a };
				out := a;
			}`,
	})
	mc, diags := c.CheckModule(modIDNamed(reg, "p", "Top"))
	if !diags.OK() {
		t.Fatalf("unexpected diagnostics: %v", diags.Reports())
	}
	pr := findElement(mc, "pr")
	if pr == nil || pr.Driver == nil || pr.Driver.Kind != EStruct {
		t.Fatal("expected pr's driver to be a checked struct literal")
	}
	if len(pr.Driver.FieldInits) != 2 {
		t.Fatalf("expected 2 field inits, got %d", len(pr.Driver.FieldInits))
	}
}

func TestCheckStructLiteralRejectsMissingField(t *testing.T) {
	reg, c := setup(map[string]string{
		"p": `struct Pair { x : Word[8]; y : Word[8]; }
			mod Top {
				incoming a : Word[8];
				node pr : Pair := Pair { x: a };
			}`,
	})
	_, diags := c.CheckModule(modIDNamed(reg, "p", "Top"))
	if diags.OK() {
		t.Fatal("expected a diagnostic for a struct literal missing a field")
	}
}

func TestCheckWordLitBoundary(t *testing.T) {
	reg, c := setup(map[string]string{
		"p": `mod Top { outgoing out : Word[4]; out := 15; }`,
	})
	if _, diags := c.CheckModule(modIDNamed(reg, "p", "Top")); !diags.OK() {
		t.Fatalf("expected 2^4-1 to fit Word[4]: %v", diags.Reports())
	}

	reg, c = setup(map[string]string{
		"p": `mod Top { outgoing out : Word[4]; out := 16; }`,
	})
	if _, diags := c.CheckModule(modIDNamed(reg, "p", "Top")); diags.OK() {
		t.Fatal("expected 2^4 not to fit Word[4]")
	}
}

func TestCheckZeroWidthSlice(t *testing.T) {
	reg, c := setup(map[string]string{
		"p": `mod Top { incoming a : Word[8]; outgoing z : Word[0]; z := a[4..4]; }`,
	})
	mc, diags := c.CheckModule(modIDNamed(reg, "p", "Top"))
	if !diags.OK() {
		t.Fatalf("expected a[4..4] to yield a zero-width word: %v", diags.Reports())
	}
	z := findElement(mc, "z")
	if w, ok := z.Driver.Type.(vtypes.Word); !ok || w.Width != 0 {
		t.Fatalf("expected Word[0], got %v", z.Driver.Type)
	}
}

func TestCheckSubmodulePortDrivingComplete(t *testing.T) {
	reg, c := setup(map[string]string{
		"p": `mod Child { incoming in : Word[8]; outgoing out : Word[8]; out := in; }
			mod Top {
				incoming in : Word[8];
				mod ch of Child;
				outgoing out : Word[8];
				ch.in := in;
				out := ch.out;
			}`,
	})
	mc, diags := c.CheckModule(modIDNamed(reg, "p", "Top"))
	if !diags.OK() {
		t.Fatalf("unexpected diagnostics: %v", diags.Reports())
	}
	if len(mc.Submodules) != 1 || mc.Submodules[0].PortDrivers["in"] == nil {
		t.Fatal("expected ch.in to have a typechecked port driver")
	}
}

func TestCheckSubmoduleMissingPortDriver(t *testing.T) {
	reg, c := setup(map[string]string{
		"p": `mod Child { incoming in : Word[8]; outgoing out : Word[8]; out := in; }
			mod Top {
				mod ch of Child;
				outgoing out : Word[8];
				out := ch.out;
			}`,
	})
	_, diags := c.CheckModule(modIDNamed(reg, "p", "Top"))
	if diags.OK() {
		t.Fatal("expected a DriverDiscipline diagnostic for an undriven submodule port")
	}
}

func findElement(mc *ModuleCheck, name string) *CheckedElement {
	for _, ce := range mc.Elements {
		if ce.Element.Name == name {
			return ce
		}
	}
	return nil
}
