package stac

// Rel identifies the relation type of a [Link]. The hierarchical relations
// shape the catalog tree; everything else is opaque metadata carried along
// with the document.
type Rel string

// Relation types used by the catalog tree.
const (
	RelSelf       Rel = "self"
	RelRoot       Rel = "root"
	RelParent     Rel = "parent"
	RelChild      Rel = "child"
	RelItem       Rel = "item"
	RelCollection Rel = "collection"
)

// Common non-hierarchical relation types. These are carried and serialized
// but never traversed by tree algorithms.
const (
	RelLicense     Rel = "license"
	RelAlternate   Rel = "alternate"
	RelCanonical   Rel = "canonical"
	RelVia         Rel = "via"
	RelPreview     Rel = "preview"
	RelDerivedFrom Rel = "derived_from"
)

// IsHierarchical reports whether the relation participates in tree-shape
// algorithms (walk, normalize, save). Hierarchical links are rewritten
// between absolute and relative forms at publish time; other links are
// passed through untouched.
func (r Rel) IsHierarchical() bool {
	switch r {
	case RelSelf, RelRoot, RelParent, RelChild, RelItem, RelCollection:
		return true
	}
	return false
}
