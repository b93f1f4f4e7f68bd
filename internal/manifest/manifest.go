// Package manifest defines Virdant's YAML-backed package manifest
// (virdant.yaml): the file a caller hands to the CLI (and to golden
// tests) naming which packages to register and, optionally, what
// diagnostics checking them is expected to produce.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/virdant-lang/virdant/internal/elaborate"
	"github.com/virdant-lang/virdant/internal/errors"
)

// PackageEntry names one package to seed into a source registry.
type PackageEntry struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Expect describes the diagnostics a package's check is expected to
// produce, for golden-file-style manifest tests. An empty Expect means
// "check succeeds with no diagnostics".
type Expect struct {
	Kinds []string `yaml:"kinds,omitempty"`
	Count *int     `yaml:"count,omitempty"`
}

// Manifest is the top-level shape of virdant.yaml.
type Manifest struct {
	Packages []PackageEntry    `yaml:"packages"`
	Expect   map[string]Expect `yaml:"expect,omitempty"`

	// resolvedPaths maps each package's filesystem path (as registered
	// with the source registry by Seed) back to its package name, so
	// CheckAgainstExpectations can attribute a diagnostic's span to the
	// package that raised it.
	resolvedPaths map[string]string
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: invalid yaml in %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks that every package entry has a name and a path, that
// no name repeats, and that every expect block names a listed package.
// It does not check that the paths exist.
func (m *Manifest) Validate() error {
	seen := make(map[string]bool)
	for _, p := range m.Packages {
		if p.Name == "" {
			return fmt.Errorf("package entry missing name")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate package name %q", p.Name)
		}
		seen[p.Name] = true
		if p.Path == "" {
			return fmt.Errorf("package %q missing path", p.Name)
		}
	}
	for name := range m.Expect {
		if !seen[name] {
			return fmt.Errorf("expect block references unknown package %q", name)
		}
	}
	return nil
}

// Seed registers every package named by the manifest into ctx, resolving
// relative paths against baseDir (typically the manifest file's own
// directory, so virdant.yaml can be checked in next to the sources it
// names).
func (m *Manifest) Seed(ctx *elaborate.Context, baseDir string) {
	m.resolvedPaths = make(map[string]string, len(m.Packages))
	for _, p := range m.Packages {
		path := p.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		ctx.RegisterPackage(p.Name, path)
		m.resolvedPaths[path] = p.Name
	}
}

// CheckAgainstExpectations runs ctx.Check() and compares the resulting
// diagnostics against each package's Expect block, returning a
// human-readable list of mismatches (empty if everything matched).
func (m *Manifest) CheckAgainstExpectations(ctx *elaborate.Context) []string {
	_, diags := ctx.Check()
	reports := diags.Reports()

	counts := make(map[string]int)
	kindsSeen := make(map[string]map[string]bool)
	for _, r := range reports {
		pkg := m.packageOf(r)
		counts[pkg]++
		if kindsSeen[pkg] == nil {
			kindsSeen[pkg] = make(map[string]bool)
		}
		kindsSeen[pkg][string(r.Kind)] = true
	}

	var mismatches []string
	for name, exp := range m.Expect {
		if exp.Count == nil && len(exp.Kinds) == 0 && counts[name] != 0 {
			mismatches = append(mismatches, fmt.Sprintf("%s: expected no diagnostics, got %d", name, counts[name]))
		}
		if exp.Count != nil && counts[name] != *exp.Count {
			mismatches = append(mismatches, fmt.Sprintf("%s: expected %d diagnostics, got %d", name, *exp.Count, counts[name]))
		}
		for _, k := range exp.Kinds {
			if !kindsSeen[name][k] {
				mismatches = append(mismatches, fmt.Sprintf("%s: expected a %s diagnostic, found none", name, k))
			}
		}
	}
	return mismatches
}

// packageOf attributes a diagnostic to one of this manifest's named
// packages: an Ident that is itself a known package name (Io errors) or
// is qualified "pkg::Item" (registry/depgraph errors) resolves directly;
// otherwise the diagnostic's span is matched against the filesystem path
// Seed registered for each package (check/structure/vtypes errors, which
// carry a span but no ident).
func (m *Manifest) packageOf(r *errors.Report) string {
	if r.Ident != "" {
		for i := 0; i+1 < len(r.Ident); i++ {
			if r.Ident[i] == ':' && r.Ident[i+1] == ':' {
				return r.Ident[:i]
			}
		}
		for _, p := range m.Packages {
			if p.Name == r.Ident {
				return r.Ident
			}
		}
	}
	if r.Span != nil {
		return m.resolvedPaths[r.Span.File]
	}
	return ""
}
