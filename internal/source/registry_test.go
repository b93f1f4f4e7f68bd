package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPackageSourceReadsAndCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "top.vir")
	if err := os.WriteFile(path, []byte("mod Top {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	r.RegisterPackage("top", path)

	text, diag := r.PackageSource("top")
	if diag != nil {
		t.Fatalf("unexpected error: %v", diag)
	}
	if text != "mod Top {}" {
		t.Fatalf("unexpected text: %q", text)
	}

	// Mutate the file on disk; cached text should not change.
	if err := os.WriteFile(path, []byte("mod Changed {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	text2, _ := r.PackageSource("top")
	if text2 != text {
		t.Fatalf("expected cached text to remain stable, got %q", text2)
	}
}

func TestPackageSourceMissingPath(t *testing.T) {
	r := NewRegistry()
	r.RegisterPackage("nope", "/does/not/exist.vir")
	_, diag := r.PackageSource("nope")
	if diag == nil {
		t.Fatal("expected an Io diagnostic")
	}
}

func TestSetSourceOverridesPath(t *testing.T) {
	r := NewRegistry()
	r.SetSource("inline", "mod Top {}")
	text, diag := r.PackageSource("inline")
	if diag != nil {
		t.Fatalf("unexpected error: %v", diag)
	}
	if text != "mod Top {}" {
		t.Fatalf("unexpected text: %q", text)
	}
}
