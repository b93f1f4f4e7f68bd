package replshell

import (
	"bytes"
	"strings"
	"testing"
)

func TestDispatchCheckReportsOK(t *testing.T) {
	s := New()
	s.Context().SetSource("p", `mod Top {
		incoming in : Word[8];
		outgoing out : Word[8];
		out := in;
	}`)

	var out bytes.Buffer
	s.dispatch(":check", &out)

	if !strings.Contains(out.String(), "ok") {
		t.Fatalf("expected ok status, got %q", out.String())
	}
}

func TestDispatchItemsListsDeclaredItems(t *testing.T) {
	s := New()
	s.Context().SetSource("p", `struct Foo { x : Word[8]; }`)

	var out bytes.Buffer
	s.dispatch(":items p", &out)

	if !strings.Contains(out.String(), "p::Foo") {
		t.Fatalf("expected p::Foo to be listed, got %q", out.String())
	}
}

func TestDispatchStructurePrintsElements(t *testing.T) {
	s := New()
	s.Context().SetSource("p", `mod Top {
		incoming in : Word[8];
		outgoing out : Word[8];
		out := in;
	}`)

	var out bytes.Buffer
	s.dispatch(":structure p::Top", &out)

	got := out.String()
	if !strings.Contains(got, "in") || !strings.Contains(got, "out") {
		t.Fatalf("expected both elements printed, got %q", got)
	}
}

func TestDispatchLayoutPrintsWidths(t *testing.T) {
	s := New()
	s.Context().SetSource("p", `union Opt { @None(); @Some(x : Word[8]); }`)

	var out bytes.Buffer
	s.dispatch(":layout p::Opt", &out)

	got := out.String()
	if !strings.Contains(got, "tag_width=1") || !strings.Contains(got, "total_width=9") {
		t.Fatalf("expected layout widths printed, got %q", got)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	s := New()
	var out bytes.Buffer
	s.dispatch(":bogus", &out)

	if !strings.Contains(out.String(), "unknown command") {
		t.Fatalf("expected unknown command message, got %q", out.String())
	}
}

func TestSplitQualified(t *testing.T) {
	pkg, bare := splitQualified("p::Top")
	if pkg != "p" || bare != "Top" {
		t.Fatalf("got pkg=%q bare=%q", pkg, bare)
	}

	pkg, bare = splitQualified("Top")
	if pkg != "" || bare != "Top" {
		t.Fatalf("expected empty package for unqualified ident, got pkg=%q bare=%q", pkg, bare)
	}
}
