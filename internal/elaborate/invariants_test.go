package elaborate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/virdant-lang/virdant/internal/vtypes"
)

func TestItemsBelongToTheirPackage(t *testing.T) {
	c := NewContext()
	c.SetSource("a", `struct S { x : Word[8]; }`)
	c.SetSource("b", `import a;
		mod Top { outgoing out : Word[1]; out := 0w1; }`)

	for _, pkg := range []string{"a", "b"} {
		items, diags := c.Reg.Items(pkg)
		require.True(t, diags.OK(), "unexpected diagnostics for %s: %v", pkg, diags.Reports())
		for _, id := range items {
			owner, ok := c.Reg.ItemPackage(id)
			require.True(t, ok, "item %s has no recorded owner", id)
			require.Equal(t, pkg, owner, "item %s owned by the wrong package", id)
		}
	}
}

func TestDriverTypeEqualsElementType(t *testing.T) {
	c := NewContext()
	c.SetSource("p", `union Opt { @None(); @Some(x : Word[8]); }
		mod Top {
			incoming clk : Clock;
			incoming in : Word[8];
			reg r : Word[8] on clk;
			r <= in;
			node o : Opt := @Some(in);
			outgoing out : Word[8];
			out := match o { @Some(x) => x, @None() => r };
		}`)

	elaborated, diags := c.Check()
	require.True(t, diags.OK(), "unexpected diagnostics: %v", diags.Reports())

	for _, m := range elaborated.Modules {
		for _, el := range m.Elements {
			if el.Driver == nil {
				continue
			}
			require.True(t, vtypes.Equal(el.Driver.Type, el.Element.Type),
				"%s.%s: driver type %v != element type %v", m.ID, el.Element.Name, el.Driver.Type, el.Element.Type)
		}
	}
}

// Re-setting a package source to its previous bytes must leave the
// elaborated IR bit-identical.
func TestResetSameSourceYieldsIdenticalIR(t *testing.T) {
	src := `union Opt { @None(); @Some(x : Word[8]); }
		mod Top { incoming in : Word[8]; outgoing out : Word[8]; out := in; }`

	c := NewContext()
	c.SetSource("p", src)
	first, diags := c.Check()
	require.True(t, diags.OK(), "unexpected diagnostics: %v", diags.Reports())

	c.SetSource("p", src)
	second, diags := c.Check()
	require.True(t, diags.OK(), "unexpected diagnostics after reset: %v", diags.Reports())

	if diff := cmp.Diff(first.Layouts, second.Layouts); diff != "" {
		t.Errorf("layouts diverged after re-setting identical source (-first +second):\n%s", diff)
	}
	require.Equal(t, len(first.Modules), len(second.Modules))
	for i := range first.Modules {
		require.Equal(t, first.Modules[i].ID, second.Modules[i].ID)
		require.Equal(t, len(first.Modules[i].Elements), len(second.Modules[i].Elements))
	}
}
