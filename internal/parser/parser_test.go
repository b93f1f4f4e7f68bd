package parser

import (
	"testing"

	"github.com/virdant-lang/virdant/internal/ast"
)

func TestParsePassThrough(t *testing.T) {
	src := `mod Top { incoming clk : Clock; incoming in : Word[8]; outgoing out : Word[8]; out := in; }`
	file, diags := ParsePackage("top.vir", src)
	if !diags.OK() {
		t.Fatalf("unexpected parse errors: %v", diags.Reports())
	}
	if len(file.Children()) != 1 {
		t.Fatalf("expected 1 item, got %d", len(file.Children()))
	}
	mod := file.Child(0)
	if mod.Kind() != ast.KModDef || mod.Name() != "Top" {
		t.Fatalf("expected ModDef Top, got %v(%s)", mod.Kind(), mod.Name())
	}
	if len(mod.Children()) != 4 {
		t.Fatalf("expected 4 module members, got %d", len(mod.Children()))
	}
}

func TestParseRegisterWithClock(t *testing.T) {
	src := `mod Top {
		incoming clk : Clock;
		incoming in : Word[8];
		reg r : Word[8] on clk;
		r <= in;
		outgoing out : Word[8];
		out := r;
	}`
	file, diags := ParsePackage("top.vir", src)
	if !diags.OK() {
		t.Fatalf("unexpected parse errors: %v", diags.Reports())
	}
	mod := file.Child(0)
	var reg *ast.Node
	for _, c := range mod.Children() {
		if c.Kind() == ast.KRegDecl {
			reg = c
		}
	}
	if reg == nil {
		t.Fatal("expected a reg declaration")
	}
	if reg.Expr() == nil {
		t.Fatal("expected reg clock expression")
	}
}

func TestParseUnionLayout(t *testing.T) {
	src := `union Opt { @None(); @Some(x : Word[8]); }`
	file, diags := ParsePackage("opt.vir", src)
	if !diags.OK() {
		t.Fatalf("unexpected parse errors: %v", diags.Reports())
	}
	u := file.Child(0)
	if u.Kind() != ast.KUnionDef || len(u.Children()) != 2 {
		t.Fatalf("expected union with 2 ctors, got %v %d", u.Kind(), len(u.Children()))
	}
	some := u.Child(1)
	if some.Name() != "Some" || len(some.Children()) != 1 {
		t.Fatalf("expected ctor Some with 1 param, got %s %d", some.Name(), len(some.Children()))
	}
}

func TestParseMatchAndCtorExpr(t *testing.T) {
	src := `mod Top {
		incoming in : Word[8];
		outgoing out : Word[1];
		node v : Opt;
		v := @Some(in);
		out := match v { @Some(x) => x.eq(in), @None => 0w1 };
	}`
	_, diags := ParsePackage("top.vir", src)
	if !diags.OK() {
		t.Fatalf("unexpected parse errors: %v", diags.Reports())
	}
}

func TestParseDriverDiscipline(t *testing.T) {
	src := `mod Top { incoming in : Word[8]; reg r : Word[8] on clk; r := in; }`
	_, diags := ParsePackage("top.vir", src)
	if !diags.OK() {
		t.Fatalf("unexpected parse errors: %v", diags.Reports())
	}
}
