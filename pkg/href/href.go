// Package href implements the location algebra used throughout stacsmith.
//
// A STAC href is either a URL (scheme://host/path) or a filesystem path,
// absolute or relative. Documents reference each other with hrefs, and the
// catalog tree algorithms constantly convert between the two forms: links
// are resolved against the location of the document that declares them, and
// published catalogs rewrite links as absolute or relative depending on the
// catalog type.
//
// All functions are pure string manipulation. Filesystem hrefs use forward
// slashes regardless of platform (the on-disk JSON convention); Windows
// drive prefixes such as "C:/data" are recognized as absolute rather than
// being misread as a URL scheme.
package href

import (
	"net/url"
	"path"
	"strings"
)

// IsAbsolute reports whether h is an absolute href: a URL with a scheme,
// a rooted path ("/data/catalog.json"), or a Windows drive path
// ("C:/data/catalog.json").
func IsAbsolute(h string) bool {
	if h == "" {
		return false
	}
	if hasScheme(h) {
		return true
	}
	if strings.HasPrefix(h, "/") {
		return true
	}
	return hasDrivePrefix(h)
}

// IsURL reports whether h carries a URL scheme (http, https, s3, ...).
// Windows drive letters do not count as schemes.
func IsURL(h string) bool { return hasScheme(h) }

// MakeAbsolute resolves h against base and returns the absolute form.
//
// If h is already absolute it is returned unchanged (cleaned). If base is a
// URL, resolution follows RFC 3986 reference resolution; otherwise plain
// path joining applies. baseIsDir controls whether base itself is the
// directory to resolve in; when false, base is taken to be a file and its
// parent directory is used, mirroring how a link inside
// "/data/catalog.json" resolves relative to "/data/".
//
// An empty base returns h unchanged: there is nothing to resolve against,
// and callers treat the result as still-relative.
func MakeAbsolute(h, base string, baseIsDir bool) string {
	if h == "" || IsAbsolute(h) {
		return Clean(h)
	}
	if base == "" {
		return Clean(h)
	}
	if IsURL(base) {
		return resolveURL(h, base, baseIsDir)
	}
	dir := base
	if !baseIsDir {
		dir = path.Dir(base)
	}
	return path.Clean(path.Join(dir, h))
}

// MakeRelative rewrites h relative to base.
//
// Both hrefs must be absolute and live in the same space for a relative form
// to exist: two URLs must share scheme and host, and a URL can never be
// relative to a filesystem path (or vice versa). When no relative form
// exists, h is returned unchanged — the caller keeps the absolute href.
//
// Results use the "./" prefix for forward references ("./child/catalog.json")
// per STAC best practices; upward references begin with "..".
func MakeRelative(h, base string, baseIsDir bool) string {
	if h == "" || base == "" {
		return h
	}
	hURL, baseURL := IsURL(h), IsURL(base)
	if hURL != baseURL {
		return h
	}
	if hURL {
		hu, err1 := url.Parse(h)
		bu, err2 := url.Parse(base)
		if err1 != nil || err2 != nil {
			return h
		}
		if hu.Scheme != bu.Scheme || hu.Host != bu.Host {
			return h
		}
		dir := bu.Path
		if !baseIsDir {
			dir = path.Dir(bu.Path)
		}
		rel, ok := relPath(hu.Path, dir)
		if !ok {
			return h
		}
		return rel
	}
	if !IsAbsolute(h) || !IsAbsolute(base) {
		return h
	}
	dir := base
	if !baseIsDir {
		dir = path.Dir(base)
	}
	rel, ok := relPath(h, dir)
	if !ok {
		return h
	}
	return rel
}

// Parent returns the directory portion of h. For URLs the scheme and host
// are preserved; for paths this is path.Dir. The result never carries a
// trailing slash except for a bare root.
func Parent(h string) string {
	if IsURL(h) {
		u, err := url.Parse(h)
		if err != nil {
			return path.Dir(h)
		}
		u.Path = path.Dir(u.Path)
		u.RawQuery = ""
		u.Fragment = ""
		return u.String()
	}
	return path.Dir(h)
}

// Basename returns the last path segment of h. Query strings and
// fragments on URLs are not part of the name.
func Basename(h string) string {
	if IsURL(h) {
		u, err := url.Parse(h)
		if err != nil {
			return path.Base(h)
		}
		return path.Base(u.Path)
	}
	return path.Base(h)
}

// Join appends elem segments to base, treating base as a directory.
// URL bases keep their scheme and host; path bases use plain joining.
func Join(base string, elem ...string) string {
	if IsURL(base) {
		u, err := url.Parse(base)
		if err != nil {
			return path.Join(append([]string{base}, elem...)...)
		}
		u.Path = path.Join(append([]string{u.Path}, elem...)...)
		return u.String()
	}
	return path.Join(append([]string{base}, elem...)...)
}

// Clean normalizes h without changing what it points at: "." and ".."
// segments are collapsed in the path portion, backslashes become forward
// slashes. URLs keep query and fragment intact.
func Clean(h string) string {
	if h == "" {
		return h
	}
	h = strings.ReplaceAll(h, `\`, "/")
	if IsURL(h) {
		u, err := url.Parse(h)
		if err != nil {
			return h
		}
		if u.Path != "" {
			u.Path = path.Clean(u.Path)
		}
		return u.String()
	}
	return path.Clean(h)
}

// resolveURL applies RFC 3986 reference resolution of ref against base.
func resolveURL(ref, base string, baseIsDir bool) string {
	bu, err := url.Parse(base)
	if err != nil {
		return ref
	}
	if baseIsDir && !strings.HasSuffix(bu.Path, "/") {
		bu.Path += "/"
	}
	ru, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	res := bu.ResolveReference(ru)
	if res.Path != "" {
		res.Path = path.Clean(res.Path)
	}
	return res.String()
}

func hasScheme(h string) bool {
	i := strings.Index(h, "://")
	if i <= 0 {
		return false
	}
	scheme := h[:i]
	if len(scheme) == 1 {
		// Single letter before "://" is a Windows drive, not a scheme.
		return false
	}
	for _, r := range scheme {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

func hasDrivePrefix(h string) bool {
	if len(h) < 3 {
		return false
	}
	c := h[0]
	isLetter := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
	return isLetter && h[1] == ':' && (h[2] == '/' || h[2] == '\\')
}

// relPath computes target relative to the directory dir. Both are absolute
// slash paths. ok is false when the two share no root (differing Windows
// drives).
func relPath(target, dir string) (string, bool) {
	tSegs := splitSegments(target)
	dSegs := splitSegments(dir)

	// Windows drive prefixes must match exactly.
	if len(tSegs) > 0 && len(dSegs) > 0 &&
		strings.HasSuffix(tSegs[0], ":") != strings.HasSuffix(dSegs[0], ":") {
		return "", false
	}
	if len(tSegs) > 0 && len(dSegs) > 0 &&
		strings.HasSuffix(tSegs[0], ":") && !strings.EqualFold(tSegs[0], dSegs[0]) {
		return "", false
	}

	common := 0
	for common < len(tSegs) && common < len(dSegs) && tSegs[common] == dSegs[common] {
		common++
	}

	var parts []string
	for i := common; i < len(dSegs); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, tSegs[common:]...)
	if len(parts) == 0 {
		return ".", true
	}
	rel := strings.Join(parts, "/")
	if !strings.HasPrefix(rel, "..") {
		rel = "./" + rel
	}
	return rel, true
}

func splitSegments(p string) []string {
	p = strings.Trim(path.Clean(p), "/")
	if p == "" || p == "." {
		return nil
	}
	return strings.Split(p, "/")
}
