// Package store persists navigation preferences and tree read grants.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Preference keys.
const (
	KeyTreeURI = "tree_uri"
	KeyHomeURI = "home_uri"
)

// Backend types accepted by Open.
const (
	TypeSQLite = "sqlite"
	TypeBadger = "badger"
	TypeMemory = "memory"
)

var (
	ErrClosed      = errors.New("store: closed")
	ErrUnknownType = errors.New("store: unknown backend type")
)

// Preferences is a string key/value store.
type Preferences interface {
	// Get returns the value and whether the key was set.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Grants records the tree URIs the user granted persistent read access to.
type Grants interface {
	AddGrant(ctx context.Context, treeURI string) error
	RevokeGrant(ctx context.Context, treeURI string) error
	HasGrant(ctx context.Context, treeURI string) (bool, error)
	ListGrants(ctx context.Context) ([]string, error)
}

// Store is a complete backend.
type Store interface {
	Preferences
	Grants
	Close() error
}

// Open opens a backend by type. path is a file for sqlite and a directory
// for badger; memory ignores it.
func Open(kind, path string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch kind {
	case TypeSQLite, "":
		s, err = OpenSQLite(path)
	case TypeBadger:
		s, err = OpenBadger(path)
	case TypeMemory:
		s, err = OpenMemory()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, kind)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
