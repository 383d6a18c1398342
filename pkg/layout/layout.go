// Package layout computes canonical hrefs for STAC objects.
//
// A layout strategy answers one question: given an object and the directory
// its parent lives in, where should the object's document be written? The
// catalog tree's NormalizeHrefs uses strategies to assign every node a
// location; GenerateSubcatalogs uses templates to derive directory chains
// from item metadata.
//
// Strategies are pure. They never touch storage and never mutate the
// objects they are given.
package layout

import (
	"errors"
	"fmt"
	"path"

	"github.com/stacsmith/stacsmith/pkg/href"
)

// Standard file names for container documents, per STAC best practices.
const (
	CatalogFileName    = "catalog.json"
	CollectionFileName = "collection.json"
)

// ErrNoStrategy is returned when a strategy has neither a specific rule nor
// a fallback for the requested object kind.
var ErrNoStrategy = errors.New("no layout rule for object kind")

// Node is the view of a STAC object that strategies operate on. All STAC
// object types satisfy it.
type Node interface {
	// ID returns the object's id.
	ID() string
	// TemplateValue resolves a template variable (see Template) against the
	// object's metadata. It returns an error for unknown variables.
	TemplateValue(name string) (string, error)
}

// Strategy computes the canonical href for each object kind. parentDir is
// the directory of the parent's document (for the tree root, the normalize
// root href). isRoot marks the top of the tree, which conventionally sits
// directly in parentDir rather than in an id-named subdirectory.
type Strategy interface {
	CatalogHref(n Node, parentDir string, isRoot bool) (string, error)
	CollectionHref(n Node, parentDir string, isRoot bool) (string, error)
	ItemHref(n Node, parentDir string) (string, error)
}

// BestPractices is the default strategy from the STAC best practices
// document: catalogs at "<id>/catalog.json", collections at
// "<id>/collection.json", items at "<id>/<id>.json", all relative to the
// parent's directory.
type BestPractices struct{}

// CatalogHref places the catalog at parentDir/<id>/catalog.json, or
// parentDir/catalog.json for the root.
func (BestPractices) CatalogHref(n Node, parentDir string, isRoot bool) (string, error) {
	if isRoot {
		return href.Join(parentDir, CatalogFileName), nil
	}
	return href.Join(parentDir, n.ID(), CatalogFileName), nil
}

// CollectionHref places the collection at parentDir/<id>/collection.json,
// or parentDir/collection.json for the root.
func (BestPractices) CollectionHref(n Node, parentDir string, isRoot bool) (string, error) {
	if isRoot {
		return href.Join(parentDir, CollectionFileName), nil
	}
	return href.Join(parentDir, n.ID(), CollectionFileName), nil
}

// ItemHref places the item at parentDir/<id>/<id>.json.
func (BestPractices) ItemHref(n Node, parentDir string) (string, error) {
	return href.Join(parentDir, n.ID(), n.ID()+".json"), nil
}

// Func computes an href for one object. Used by Custom for per-kind
// overrides.
type Func func(n Node, parentDir string, isRoot bool) (string, error)

// Custom overrides individual kinds with user functions and defers the rest
// to Fallback (BestPractices when nil).
type Custom struct {
	Catalog    Func
	Collection Func
	Item       Func
	Fallback   Strategy
}

func (c Custom) fallback() Strategy {
	if c.Fallback != nil {
		return c.Fallback
	}
	return BestPractices{}
}

// CatalogHref applies the Catalog override, else the fallback.
func (c Custom) CatalogHref(n Node, parentDir string, isRoot bool) (string, error) {
	if c.Catalog != nil {
		return c.Catalog(n, parentDir, isRoot)
	}
	return c.fallback().CatalogHref(n, parentDir, isRoot)
}

// CollectionHref applies the Collection override, else the fallback.
func (c Custom) CollectionHref(n Node, parentDir string, isRoot bool) (string, error) {
	if c.Collection != nil {
		return c.Collection(n, parentDir, isRoot)
	}
	return c.fallback().CollectionHref(n, parentDir, isRoot)
}

// ItemHref applies the Item override, else the fallback.
func (c Custom) ItemHref(n Node, parentDir string) (string, error) {
	if c.Item != nil {
		return c.Item(n, parentDir, false)
	}
	return c.fallback().ItemHref(n, parentDir)
}

// Templated derives hrefs from metadata templates. Each kind may carry its
// own template; kinds without one defer to Fallback (BestPractices when
// nil). A template that expands to a bare directory path gets the standard
// file name for the kind appended ("catalog.json", "collection.json",
// "<id>.json").
type Templated struct {
	Catalog    *Template
	Collection *Template
	Item       *Template
	Fallback   Strategy
}

func (t Templated) fallbackStrategy() Strategy {
	if t.Fallback != nil {
		return t.Fallback
	}
	return BestPractices{}
}

// CatalogHref expands the Catalog template under parentDir.
func (t Templated) CatalogHref(n Node, parentDir string, isRoot bool) (string, error) {
	if t.Catalog == nil {
		return t.fallbackStrategy().CatalogHref(n, parentDir, isRoot)
	}
	return templatedHref(t.Catalog, n, parentDir, CatalogFileName)
}

// CollectionHref expands the Collection template under parentDir.
func (t Templated) CollectionHref(n Node, parentDir string, isRoot bool) (string, error) {
	if t.Collection == nil {
		return t.fallbackStrategy().CollectionHref(n, parentDir, isRoot)
	}
	return templatedHref(t.Collection, n, parentDir, CollectionFileName)
}

// ItemHref expands the Item template under parentDir.
func (t Templated) ItemHref(n Node, parentDir string) (string, error) {
	if t.Item == nil {
		return t.fallbackStrategy().ItemHref(n, parentDir)
	}
	return templatedHref(t.Item, n, parentDir, n.ID()+".json")
}

func templatedHref(tpl *Template, n Node, parentDir, fileName string) (string, error) {
	sub, err := tpl.Substitute(n)
	if err != nil {
		return "", fmt.Errorf("layout template: %w", err)
	}
	out := href.Join(parentDir, sub)
	if path.Ext(out) == "" {
		out = href.Join(out, fileName)
	}
	return out, nil
}
