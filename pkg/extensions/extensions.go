// Package extensions maps STAC extension schema URIs to their validation
// hooks and declared applicability.
//
// Concrete extension packages (classification, raster, mlm) import this
// package and export an *Extension descriptor. The builtins subpackage
// aggregates them; it exists to break import cycles, since this package
// cannot import the packages that depend on it.
package extensions

import (
	"fmt"
	"slices"
	"strings"

	"github.com/stacsmith/stacsmith/pkg/stac"
)

// Extension describes one STAC extension: its identity, the object kinds it
// applies to, and the structural checks for the fields it owns.
type Extension struct {
	// Name is the short extension name, e.g. "classification".
	Name string
	// URI is the versioned schema URI objects declare in stac_extensions.
	URI string
	// Kinds lists the object kinds the extension applies to. Empty means
	// every kind.
	Kinds []stac.Kind
	// Validate checks the extension-owned fields of a rendered document.
	// It reports all violations at once, aggregated into one error.
	Validate func(doc map[string]any) error
}

// AppliesTo reports whether the extension covers the given object kind.
func (e *Extension) AppliesTo(kind stac.Kind) bool {
	return len(e.Kinds) == 0 || slices.Contains(e.Kinds, kind)
}

// Registry resolves schema URIs to extensions. The zero value is unusable;
// use NewRegistry.
type Registry struct {
	byURI map[string]*Extension
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byURI: map[string]*Extension{}}
}

// Register adds ext, replacing any previous registration under the same
// URI. Re-registering is allowed so populating a registry stays idempotent.
func (r *Registry) Register(ext *Extension) error {
	if ext == nil || ext.URI == "" {
		return fmt.Errorf("register extension: missing schema URI")
	}
	if ext.Validate == nil {
		return fmt.Errorf("register extension %s: missing validate hook", ext.URI)
	}
	r.byURI[ext.URI] = ext
	return nil
}

// Lookup returns the extension registered under uri.
func (r *Registry) Lookup(uri string) (*Extension, bool) {
	ext, ok := r.byURI[uri]
	return ext, ok
}

// All returns the registered extensions, sorted by name.
func (r *Registry) All() []*Extension {
	out := make([]*Extension, 0, len(r.byURI))
	for _, e := range r.byURI {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Extension) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Declared returns the extensions obj declares that this registry knows, in
// declaration order. Unknown URIs are skipped.
func (r *Registry) Declared(obj stac.Object) []*Extension {
	var out []*Extension
	for _, uri := range obj.Extensions() {
		if e, ok := r.Lookup(uri); ok {
			out = append(out, e)
		}
	}
	return out
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry. It starts empty; call
// builtins.Register to populate it with the bundled extensions.
func Default() *Registry { return defaultRegistry }
