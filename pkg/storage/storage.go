package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no document exists at the requested href.
	ErrNotFound = errors.New("document not found")

	// ErrReadOnly is returned by write operations on backends that cannot
	// persist documents, such as plain HTTP sources.
	ErrReadOnly = errors.New("storage is read-only")
)

// Reader fetches the raw bytes behind an href.
type Reader interface {
	Get(ctx context.Context, href string) ([]byte, error)
}

// Writer persists and removes the bytes behind an href.
type Writer interface {
	Put(ctx context.Context, href string, data []byte) error
	Delete(ctx context.Context, href string) error
}

// Store combines Reader and Writer.
type Store interface {
	Reader
	Writer
}

// Default returns a Store that dispatches on the href scheme: http and
// https hrefs are fetched with an [HTTPReader], everything else is treated
// as a local file path. Writes to http(s) hrefs return [ErrReadOnly].
func Default() Store {
	return NewStore(NewHTTPReader(), NewFileStore())
}

// NewStore builds a scheme-dispatching Store from explicit backends:
// remote serves http(s) hrefs, local everything else. Writes to remote
// hrefs return [ErrReadOnly].
func NewStore(remote Reader, local Store) Store {
	return &schemeStore{remote: remote, local: local}
}

type schemeStore struct {
	remote Reader
	local  Store
}

func (s *schemeStore) Get(ctx context.Context, href string) ([]byte, error) {
	if isHTTP(href) {
		return s.remote.Get(ctx, href)
	}
	return s.local.Get(ctx, href)
}

func (s *schemeStore) Put(ctx context.Context, href string, data []byte) error {
	if isHTTP(href) {
		return fmt.Errorf("put %s: %w", href, ErrReadOnly)
	}
	return s.local.Put(ctx, href, data)
}

func (s *schemeStore) Delete(ctx context.Context, href string) error {
	if isHTTP(href) {
		return fmt.Errorf("delete %s: %w", href, ErrReadOnly)
	}
	return s.local.Delete(ctx, href)
}

func isHTTP(href string) bool {
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")
}
