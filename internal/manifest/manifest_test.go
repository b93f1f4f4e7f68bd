package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/virdant-lang/virdant/internal/elaborate"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestLoadAndSeed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "top.vir", `mod Top {
		incoming in : Word[8];
		outgoing out : Word[8];
		out := in;
	}`)
	manifestPath := writeFile(t, dir, "virdant.yaml", `
packages:
  - name: top
    path: top.vir
`)

	m, err := Load(manifestPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ctx := elaborate.NewContext()
	m.Seed(ctx, dir)

	_, diags := ctx.Check()
	if !diags.OK() {
		t.Fatalf("unexpected diagnostics: %v", diags.Reports())
	}
}

func TestValidateRejectsDuplicateNames(t *testing.T) {
	m := &Manifest{Packages: []PackageEntry{{Name: "a", Path: "a.vir"}, {Name: "a", Path: "b.vir"}}}
	if err := m.Validate(); err == nil {
		t.Fatal("expected an error for duplicate package names")
	}
}

func TestCheckAgainstExpectations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "top.vir", `mod Top {
		incoming in : Word[8];
		outgoing out : Word[8];
	}`)
	manifestPath := writeFile(t, dir, "virdant.yaml", `
packages:
  - name: top
    path: top.vir
expect:
  top:
    kinds: [DriverDiscipline]
`)

	m, err := Load(manifestPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ctx := elaborate.NewContext()
	m.Seed(ctx, dir)

	mismatches := m.CheckAgainstExpectations(ctx)
	if len(mismatches) != 0 {
		t.Fatalf("unexpected mismatches: %v", mismatches)
	}
}
