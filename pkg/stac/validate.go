package stac

import (
	"context"

	"github.com/hashicorp/go-multierror"
)

// Validator checks rendered documents against the core STAC rules and
// declared extensions. pkg/validate provides implementations; the interface
// lives here so validating a tree needs no import of the implementation.
type Validator interface {
	// ValidateCore checks doc against the core rules for its kind.
	ValidateCore(ctx context.Context, kind Kind, version string, doc map[string]any) error
	// ValidateExtension checks doc against the rules of one declared
	// extension, identified by its schema URI. Unknown URIs are not an
	// error; a validator may only know a subset.
	ValidateExtension(ctx context.Context, uri string, doc map[string]any) error
}

// Validate renders the object and checks it against v: the core rules
// first, then every declared extension. All failures are aggregated into
// one error rather than stopping at the first.
func (n *node) Validate(ctx context.Context, v Validator) error {
	doc, err := n.self.Document(EncodeOptions{})
	if err != nil {
		return err
	}
	var result *multierror.Error
	if err := v.ValidateCore(ctx, n.kind, n.version, doc); err != nil {
		result = multierror.Append(result, err)
	}
	for _, uri := range n.extensions {
		if err := v.ValidateExtension(ctx, uri, doc); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// ValidateAll validates every resolved object in the subtree: the
// container itself, resolved children recursively, and resolved items.
// Unresolved links are not fetched. Failures across objects aggregate into
// one error.
func ValidateAll(ctx context.Context, v Validator, c Container) error {
	var result *multierror.Error
	validateTree(ctx, v, c, &result, map[Object]struct{}{})
	return result.ErrorOrNil()
}

func validateTree(ctx context.Context, v Validator, cur Container, result **multierror.Error, visited map[Object]struct{}) {
	if _, seen := visited[cur]; seen {
		return
	}
	visited[cur] = struct{}{}

	if err := cur.Validate(ctx, v); err != nil {
		*result = multierror.Append(*result, err)
	}
	for _, l := range cur.FindLinks(RelChild) {
		if child, ok := AsContainer(l.Resolved()); ok {
			validateTree(ctx, v, child, result, visited)
		}
	}
	for _, l := range cur.FindLinks(RelItem) {
		item, ok := l.Resolved().(*Item)
		if !ok {
			continue
		}
		if _, seen := visited[item]; seen {
			continue
		}
		visited[item] = struct{}{}
		if err := item.Validate(ctx, v); err != nil {
			*result = multierror.Append(*result, err)
		}
	}
}
