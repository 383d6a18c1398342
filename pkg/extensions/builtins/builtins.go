// Package builtins lists the extension packages bundled with this module.
//
// It exists to break import cycles: the individual extension packages
// (classification, raster, mlm) import pkg/extensions, so pkg/extensions
// cannot import them back. Consumers that want the bundled extensions
// registered import this package and call Register once at startup; there
// is deliberately no init wiring.
package builtins

import (
	"github.com/stacsmith/stacsmith/pkg/extensions"
	"github.com/stacsmith/stacsmith/pkg/extensions/classification"
	"github.com/stacsmith/stacsmith/pkg/extensions/mlm"
	"github.com/stacsmith/stacsmith/pkg/extensions/raster"
)

// All is the canonical list of bundled extensions.
var All = []*extensions.Extension{
	classification.Extension,
	raster.Extension,
	mlm.Extension,
}

// Register adds every bundled extension to r. A nil r targets the default
// registry. Registration is idempotent, so calling it twice is harmless.
func Register(r *extensions.Registry) *extensions.Registry {
	if r == nil {
		r = extensions.Default()
	}
	for _, ext := range All {
		// The descriptors are static and valid; Register only rejects
		// missing URIs or hooks.
		_ = r.Register(ext)
	}
	return r
}
