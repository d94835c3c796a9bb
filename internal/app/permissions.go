package app

import (
	"context"

	"github.com/justyntemme/shelf/internal/debug"
	"github.com/justyntemme/shelf/internal/store"
)

// Permissions is the platform permission flow.
type Permissions interface {
	// TakePersistable records a persistent read grant for a tree root URI.
	TakePersistable(ctx context.Context, treeURI string) error
	// RequestStorageRead asks for the coarse permission path-addressed
	// roots need and reports whether it was granted.
	RequestStorageRead(ctx context.Context) (bool, error)
}

// StorePermissions grants every tree the user picks and answers storage
// read requests from configuration.
type StorePermissions struct {
	grants      store.Grants
	storageRead bool
}

func NewStorePermissions(grants store.Grants, storageRead bool) *StorePermissions {
	return &StorePermissions{grants: grants, storageRead: storageRead}
}

func (p *StorePermissions) TakePersistable(ctx context.Context, treeURI string) error {
	debug.Log(debug.STORE, "TakePersistable %s", treeURI)
	return p.grants.AddGrant(ctx, treeURI)
}

func (p *StorePermissions) RequestStorageRead(ctx context.Context) (bool, error) {
	return p.storageRead, nil
}
