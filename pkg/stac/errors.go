package stac

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyHref is returned by [NewLink] when the href is empty. A link
	// needs either an href or an in-memory target; use [NewLinkTo] for the
	// latter.
	ErrEmptyHref = errors.New("link href must not be empty")

	// ErrNilTarget is returned by [NewLinkTo] when the target is nil.
	ErrNilTarget = errors.New("link target must not be nil")

	// ErrNoHref is returned when a link must produce an href and none is
	// derivable: the link has no stored href and its target (if any) has no
	// self href. Serializing such a link fails rather than emitting an empty
	// href.
	ErrNoHref = errors.New("link has no derivable href")

	// ErrWrongObjectType is returned when a link resolves to an object of an
	// unexpected kind, such as a child link pointing at an item document.
	ErrWrongObjectType = errors.New("unexpected object type")

	// ErrUnknownObjectType is returned by [Decode] and [FromDocument] when a
	// document cannot be identified as a catalog, collection, or item.
	ErrUnknownObjectType = errors.New("unknown STAC object type")

	// ErrCycle is returned by tree traversals when a hierarchical link loops
	// back to an already-visited node. Catalog trees must be acyclic.
	ErrCycle = errors.New("catalog tree contains a cycle")

	// ErrNoReader is returned when resolving an unresolved link requires I/O
	// and neither the call nor the tree provides a [storage.Reader].
	ErrNoReader = errors.New("no reader available to resolve link")

	// ErrNoWriter is returned by save operations when neither the call nor
	// the tree provides a [storage.Writer].
	ErrNoWriter = errors.New("no writer available to save object")

	// ErrNoSelfHref is returned by save operations on an object that has no
	// self href and no destination override.
	ErrNoSelfHref = errors.New("object has no self href")
)

// ResolutionError wraps a failure to resolve a link to its target object:
// the fetch failed, the payload did not parse, or the document was of an
// unexpected kind. The href identifies the offending target.
type ResolutionError struct {
	Rel  Rel    // relation type of the link being resolved
	Href string // absolute href that failed to resolve
	Err  error  // underlying failure
}

// Error returns a message naming the relation and href.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s link %q: %v", e.Rel, e.Href, e.Err)
}

// Unwrap returns the underlying failure.
func (e *ResolutionError) Unwrap() error { return e.Err }

// resolutionErr wraps err for the given link unless it already is a
// ResolutionError.
func resolutionErr(rel Rel, href string, err error) error {
	var re *ResolutionError
	if errors.As(err, &re) {
		return err
	}
	return &ResolutionError{Rel: rel, Href: href, Err: err}
}
