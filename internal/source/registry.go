// Package source implements Virdant's source registry: the
// caller-seeded mapping from package name to filesystem path, with
// lazy, cached reads. The registry does not search any path; callers
// name every package explicitly.
package source

import (
	"os"
	"sort"
	"sync"

	"github.com/virdant-lang/virdant/internal/errors"
	"github.com/virdant-lang/virdant/internal/lexer"
)

// Registry owns the package -> path -> source-text mapping and its
// read cache. Cached text is immutable until the package's source is
// re-set.
type Registry struct {
	mu    sync.RWMutex
	paths map[string]string
	order []string
	text  map[string]string
	stale map[string]bool // true for a package whose source was injected
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{
		paths: make(map[string]string),
		text:  make(map[string]string),
		stale: make(map[string]bool),
	}
}

// RegisterPackage adds a package entry mapping name to a filesystem
// path. Idempotent by name: re-registering the same name simply
// updates its path and drops any cached text so the new path is
// honored on next read.
func (r *Registry) RegisterPackage(name, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.paths[name]; !exists {
		r.order = append(r.order, name)
	}
	r.paths[name] = path
	delete(r.text, name)
}

// SetSource injects source text directly for a package, bypassing the
// filesystem: the route tests and long-running hosts use to update a
// package's source at runtime.
func (r *Registry) SetSource(name, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.paths[name]; !exists {
		r.order = append(r.order, name)
		r.paths[name] = "<injected>"
	}
	r.text[name] = string(lexer.Normalize([]byte(text)))
	r.stale[name] = true
}

// PackageNames returns every registered package name in registration
// order, never hash order, so downstream iteration is deterministic.
func (r *Registry) PackageNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Registered reports whether a package name has been registered.
func (r *Registry) Registered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.paths[name]
	return ok
}

// SortedPackageNames is a convenience for deterministic diagnostic
// output when declaration order isn't meaningful (e.g. listing known
// packages in an error message).
func (r *Registry) SortedPackageNames() []string {
	names := r.PackageNames()
	sort.Strings(names)
	return names
}

// PackageSource returns a package's source text, reading and caching it
// on first access. Fails with a Report of KindIo if the path cannot be
// read. Text read from disk, like text injected via SetSource, is
// UTF-8-normalized (BOM stripped, NFC-normalized) at the registry
// boundary so every downstream consumer sees canonical bytes.
func (r *Registry) PackageSource(name string) (string, *errors.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if text, ok := r.text[name]; ok {
		return text, nil
	}

	path, ok := r.paths[name]
	if !ok {
		return "", errors.Io("package not registered: " + name).WithIdent(name)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Io(err.Error()).WithIdent(name)
	}

	text := string(lexer.Normalize(raw))
	r.text[name] = text
	return text, nil
}

// Path returns a registered package's filesystem path.
func (r *Registry) Path(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.paths[name]
	return p, ok
}
