package stac

import (
	"strings"

	"github.com/google/uuid"
)

// ResolvedObjectCache deduplicates resolved objects within one catalog
// tree. Every tree has exactly one live cache, owned by its root; when two
// trees are joined (SetRoot on a catalog), the caches are merged and both
// sides adopt the survivor.
//
// Objects are keyed by absolute self href when they have one, falling back
// to the chain of ids up the parent axis, and finally to a generated key
// for objects with no usable identity. Collections are additionally
// indexed by id for collection-id lookups.
type ResolvedObjectCache struct {
	byHref      map[string]Object
	byIDChain   map[string]Object
	collections map[string]*Collection
}

// NewResolvedObjectCache returns an empty cache.
func NewResolvedObjectCache() *ResolvedObjectCache {
	return &ResolvedObjectCache{
		byHref:      map[string]Object{},
		byIDChain:   map[string]Object{},
		collections: map[string]*Collection{},
	}
}

// cacheKey computes obj's cache key and reports whether it is an href key.
// The fallback key is generated once per object and reused, so an object
// with no identity can still be removed after it was cached.
func cacheKey(obj Object) (key string, isHref bool) {
	if sh := obj.SelfHref(); sh != "" {
		return sh, true
	}
	ids := []string{obj.ID()}
	for p := obj.Parent(); p != nil; p = p.Parent() {
		ids = append(ids, p.ID())
	}
	chain := strings.Join(ids, "/")
	if strings.Trim(chain, "/") != "" {
		return chain, false
	}
	b := obj.base()
	if b.fallbackKey == "" {
		b.fallbackKey = uuid.NewString()
	}
	return b.fallbackKey, false
}

// Cache inserts obj, replacing any entry under the same key.
func (rc *ResolvedObjectCache) Cache(obj Object) {
	key, isHref := cacheKey(obj)
	if isHref {
		rc.byHref[key] = obj
	} else {
		rc.byIDChain[key] = obj
	}
	if col, ok := obj.(*Collection); ok {
		rc.collections[col.ID()] = col
	}
}

// Get returns the cached object stored under obj's key, if any. The result
// may be a different instance than obj: that is the point.
func (rc *ResolvedObjectCache) Get(obj Object) (Object, bool) {
	key, isHref := cacheKey(obj)
	if isHref {
		o, ok := rc.byHref[key]
		return o, ok
	}
	o, ok := rc.byIDChain[key]
	return o, ok
}

// GetOrCache returns the cached object under obj's key, inserting and
// returning obj itself when absent.
func (rc *ResolvedObjectCache) GetOrCache(obj Object) Object {
	if existing, ok := rc.Get(obj); ok {
		return existing
	}
	rc.Cache(obj)
	return obj
}

// GetByHref returns the object cached under the given absolute href.
func (rc *ResolvedObjectCache) GetByHref(hrefStr string) (Object, bool) {
	o, ok := rc.byHref[hrefStr]
	return o, ok
}

// ContainsHref reports whether an object is cached under the given href.
func (rc *ResolvedObjectCache) ContainsHref(hrefStr string) bool {
	_, ok := rc.byHref[hrefStr]
	return ok
}

// Contains reports whether an object is cached under obj's key.
func (rc *ResolvedObjectCache) Contains(obj Object) bool {
	_, ok := rc.Get(obj)
	return ok
}

// Remove drops obj's entry. The key is computed from obj's current state,
// so callers changing an object's self href must remove it first and
// re-cache it after (SetSelfHref does this).
func (rc *ResolvedObjectCache) Remove(obj Object) {
	key, isHref := cacheKey(obj)
	if isHref {
		delete(rc.byHref, key)
	} else {
		delete(rc.byIDChain, key)
	}
	if obj.Kind() == KindCollection {
		delete(rc.collections, obj.ID())
	}
}

// GetCollectionByID returns the cached collection with the given id.
func (rc *ResolvedObjectCache) GetCollectionByID(id string) (*Collection, bool) {
	col, ok := rc.collections[id]
	return col, ok
}

// Len returns the number of cached objects.
func (rc *ResolvedObjectCache) Len() int {
	return len(rc.byHref) + len(rc.byIDChain)
}

// absorb copies other's entries into rc, keeping rc's entry on key
// conflicts. Used when two trees join under one root.
func (rc *ResolvedObjectCache) absorb(other *ResolvedObjectCache) {
	if other == nil || other == rc {
		return
	}
	for k, v := range other.byHref {
		if _, ok := rc.byHref[k]; !ok {
			rc.byHref[k] = v
		}
	}
	for k, v := range other.byIDChain {
		if _, ok := rc.byIDChain[k]; !ok {
			rc.byIDChain[k] = v
		}
	}
	for k, v := range other.collections {
		if _, ok := rc.collections[k]; !ok {
			rc.collections[k] = v
		}
	}
}
