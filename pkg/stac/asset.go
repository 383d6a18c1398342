package stac

import (
	"github.com/stacsmith/stacsmith/pkg/href"
)

// Asset points at data belonging to an item or collection: an image, a
// metadata file, a thumbnail. Assets are plain values hanging off their
// owner, not nodes of the catalog tree, so they carry no links and are
// never resolved.
type Asset struct {
	// Href locates the asset, absolute or relative to the owner's self
	// href.
	Href string
	// Title is an optional display name.
	Title string
	// Description optionally explains what the asset contains.
	Description string
	// MediaType is the asset's media type, e.g. "image/tiff;
	// application=geotiff".
	MediaType string
	// Roles describe the asset's purpose: "data", "thumbnail", "metadata".
	Roles []string
	// Extra holds unrecognized fields from the serialized asset, including
	// any extension fields.
	Extra map[string]any

	owner Object
}

// NewAsset creates an asset pointing at hrefStr.
func NewAsset(hrefStr string) *Asset {
	return &Asset{Href: hrefStr}
}

// Owner returns the object the asset hangs off, or nil for a detached
// asset.
func (a *Asset) Owner() Object { return a.owner }

// AbsoluteHref resolves the asset's href against its owner's self href.
// The result may still be relative when the owner has no location.
func (a *Asset) AbsoluteHref() string {
	if a.Href == "" || href.IsAbsolute(a.Href) || a.owner == nil {
		return a.Href
	}
	base := a.owner.SelfHref()
	if base == "" {
		return a.Href
	}
	return href.MakeAbsolute(a.Href, base, false)
}

// Clone copies the asset without its owner; AddAsset rebinds it.
func (a *Asset) Clone() *Asset {
	return &Asset{
		Href:        a.Href,
		Title:       a.Title,
		Description: a.Description,
		MediaType:   a.MediaType,
		Roles:       append([]string(nil), a.Roles...),
		Extra:       deepCopyMap(a.Extra),
	}
}

// Document renders the asset for serialization.
func (a *Asset) Document() map[string]any {
	d := map[string]any{"href": a.Href}
	if a.Title != "" {
		d["title"] = a.Title
	}
	if a.Description != "" {
		d["description"] = a.Description
	}
	if a.MediaType != "" {
		d["type"] = a.MediaType
	}
	if len(a.Roles) > 0 {
		d["roles"] = append([]string(nil), a.Roles...)
	}
	mergeExtra(d, a.Extra)
	return d
}

// assetFromDocument decodes one serialized asset.
func assetFromDocument(doc map[string]any) *Asset {
	return &Asset{
		Href:        docString(doc, "href"),
		Title:       docString(doc, "title"),
		Description: docString(doc, "description"),
		MediaType:   docString(doc, "type"),
		Roles:       docStringSlice(doc, "roles"),
		Extra:       extraFields(doc, "href", "title", "description", "type", "roles"),
	}
}
