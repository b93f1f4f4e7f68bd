package vtypes

import (
	"testing"

	"github.com/virdant-lang/virdant/internal/ids"
	"github.com/virdant-lang/virdant/internal/registry"
	"github.com/virdant-lang/virdant/internal/source"
)

func setup(pkgs map[string]string) (*registry.Registry, *Defs) {
	src := source.NewRegistry()
	for name, text := range pkgs {
		src.SetSource(name, text)
	}
	reg := registry.NewRegistry(src)
	return reg, NewDefs(reg)
}

func TestResolveTypeWordAndClock(t *testing.T) {
	reg, d := setup(map[string]string{
		"p": `mod Top { incoming clk : Clock; incoming in : Word[8]; }`,
	})
	reg.Items("p")
	node, _ := reg.PackageAST("p")
	mod := node.Child(0)

	clkType, err := d.ResolveType("p", mod.Child(0).Typ())
	if err != nil || !Equal(clkType, Clock{}) {
		t.Fatalf("expected Clock, got %v (%v)", clkType, err)
	}
	inType, err := d.ResolveType("p", mod.Child(1).Typ())
	if err != nil || !Equal(inType, Word{Width: 8}) {
		t.Fatalf("expected Word[8], got %v (%v)", inType, err)
	}
}

func TestStructFieldsResolved(t *testing.T) {
	reg, d := setup(map[string]string{
		"p": `struct Point { x : Word[8]; y : Word[8]; }`,
	})
	items, _ := reg.Items("p")
	sid, _ := ids.Coerce[ids.StructTag](items[0], ids.KindStructDef, ids.KindStructDef)

	info, diags := d.Struct(sid)
	if !diags.OK() {
		t.Fatalf("unexpected diagnostics: %v", diags.Reports())
	}
	if len(info.Fields) != 2 || info.Fields[0].Name != "x" || info.Fields[1].Name != "y" {
		t.Fatalf("unexpected fields: %+v", info.Fields)
	}
	if Bitwidth(d, Struct{ID: sid}) != 16 {
		t.Fatalf("expected struct bitwidth 16, got %d", Bitwidth(d, Struct{ID: sid}))
	}
}

func TestUnionLayoutTwoCtors(t *testing.T) {
	reg, d := setup(map[string]string{
		"p": `union Opt { @None(); @Some(x : Word[8]); }`,
	})
	items, _ := reg.Items("p")
	uid, _ := ids.Coerce[ids.UnionTag](items[0], ids.KindUnionDef, ids.KindUnionDef)

	info, diags := d.Union(uid)
	if !diags.OK() {
		t.Fatalf("unexpected diagnostics: %v", diags.Reports())
	}
	layout := ComputeLayout(d, info)
	if layout.TagWidth != 1 {
		t.Fatalf("expected tag width 1, got %d", layout.TagWidth)
	}
	if layout.PayloadWidth != 8 {
		t.Fatalf("expected payload width 8, got %d", layout.PayloadWidth)
	}
	if layout.TotalWidth != 9 {
		t.Fatalf("expected total width 9, got %d", layout.TotalWidth)
	}
	some := layout.Ctors[1]
	if len(some.Slots) != 1 || (some.Slots[0] != Slot{Offset: 1, Width: 8}) {
		t.Fatalf("expected @Some slots [(1, 8)], got %v", some.Slots)
	}
}

func TestUnionLayoutSingleCtorStillGetsTagBit(t *testing.T) {
	reg, d := setup(map[string]string{
		"p": `union Single { @Only(x : Word[4]); }`,
	})
	items, _ := reg.Items("p")
	uid, _ := ids.Coerce[ids.UnionTag](items[0], ids.KindUnionDef, ids.KindUnionDef)

	info, _ := d.Union(uid)
	layout := ComputeLayout(d, info)
	if layout.TagWidth != 1 {
		t.Fatalf("expected single-ctor union to still reserve a 1-bit tag, got %d", layout.TagWidth)
	}
	if layout.TotalWidth != 5 {
		t.Fatalf("expected total width 5, got %d", layout.TotalWidth)
	}
}

func TestUnionLayoutFourCtorsTwoBitTag(t *testing.T) {
	reg, d := setup(map[string]string{
		"p": `union Quad { @A(); @B(); @C(); @D(x : Word[2]); }`,
	})
	items, _ := reg.Items("p")
	uid, _ := ids.Coerce[ids.UnionTag](items[0], ids.KindUnionDef, ids.KindUnionDef)

	info, _ := d.Union(uid)
	layout := ComputeLayout(d, info)
	if layout.TagWidth != 2 {
		t.Fatalf("expected 2-bit tag for 4 ctors, got %d", layout.TagWidth)
	}
	if layout.PayloadWidth != 2 {
		t.Fatalf("expected payload width 2, got %d", layout.PayloadWidth)
	}
}

func TestResolveTypeRejectsGenericArgOnStruct(t *testing.T) {
	reg, d := setup(map[string]string{
		"p": `struct Point { x : Word[8]; } mod Top { incoming bad : Point[3]; }`,
	})
	reg.Items("p")
	node, _ := reg.PackageAST("p")
	mod := node.Child(1)
	_, err := d.ResolveType("p", mod.Child(0).Typ())
	if err == nil {
		t.Fatal("expected KindError for generic arg on struct type")
	}
}
