// Package storage provides byte-level access to documents addressed by href.
//
// # Overview
//
// Every object in a catalog lives at an href: a local file path or an HTTP(S)
// URL. This package abstracts over those locations so the rest of the library
// never touches os or net/http directly:
//
//   - [Reader]: fetch the raw bytes behind an href
//   - [Writer]: persist or remove the bytes behind an href
//   - [Store]: both halves together
//
// # Implementations
//
//   - [FileStore] reads and writes local paths (including file:// hrefs).
//   - [HTTPReader] fetches http(s) hrefs with timeouts and bounded retries.
//   - [Memory] keeps documents in a map, for tests and staging trees.
//   - [CachingReader] wraps any Reader with a byte cache for read-through
//     caching of remote documents.
//   - mongostore.Store (subpackage) keeps documents in a MongoDB collection.
//
// # Dispatch
//
// [Default] returns a Store that routes by scheme: http and https hrefs go to
// an HTTPReader, everything else to a FileStore. Writes to http(s) hrefs fail
// with [ErrReadOnly]; publishing to object stores or APIs needs a dedicated
// Writer.
//
// Missing documents surface as [ErrNotFound] regardless of backend, so
// callers can errors.Is once and handle every source the same way.
package storage
