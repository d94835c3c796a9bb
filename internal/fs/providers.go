package fs

import (
	"context"
	"errors"
	"fmt"
)

// ErrPermissionDenied is returned for path identifiers while the coarse
// storage read permission is refused.
var ErrPermissionDenied = errors.New("fs: storage permission denied")

// StorageGate decides whether path-addressed access is currently allowed.
type StorageGate interface {
	RequestStorageRead(ctx context.Context) (bool, error)
}

// Providers dispatches on identifier shape: content:// goes to the tree
// provider, file:// and absolute paths to the path provider. It satisfies
// Provider itself, so callers never branch on the backend.
type Providers struct {
	tree *TreeProvider
	path *PathProvider
	gate StorageGate
}

// NewProviders combines the two backends. tree may be nil when no document
// trees are configured; tree identifiers then resolve to ErrNotAccessible.
func NewProviders(tree *TreeProvider, path *PathProvider) *Providers {
	return &Providers{tree: tree, path: path}
}

// WithStorageGate makes every path resolution and listing ask gate first.
func (p *Providers) WithStorageGate(gate StorageGate) *Providers {
	p.gate = gate
	return p
}

// access returns the provider for identifier after the permission check.
func (p *Providers) access(ctx context.Context, identifier string) (Provider, error) {
	prov, err := p.For(identifier)
	if err != nil {
		return nil, err
	}
	if p.gate == nil || !IsPathIdentifier(identifier) {
		return prov, nil
	}
	granted, err := p.gate.RequestStorageRead(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	if !granted {
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, identifier)
	}
	return prov, nil
}

// For returns the provider responsible for identifier.
func (p *Providers) For(identifier string) (Provider, error) {
	switch {
	case IsTreeIdentifier(identifier):
		if p.tree == nil {
			return nil, fmt.Errorf("%w: no document trees configured for %q", ErrNotAccessible, identifier)
		}
		return p.tree, nil
	case IsPathIdentifier(identifier):
		if p.path == nil {
			return nil, fmt.Errorf("%w: path access disabled for %q", ErrNotAccessible, identifier)
		}
		return p.path, nil
	default:
		return nil, fmt.Errorf("%w: unrecognized identifier %q", ErrNotAccessible, identifier)
	}
}

func (p *Providers) Resolve(ctx context.Context, identifier string) (Node, error) {
	prov, err := p.access(ctx, identifier)
	if err != nil {
		return Node{}, err
	}
	return prov.Resolve(ctx, identifier)
}

func (p *Providers) ListChildren(ctx context.Context, node Node) ([]Node, error) {
	prov, err := p.access(ctx, node.ID())
	if err != nil {
		return nil, err
	}
	return prov.ListChildren(ctx, node)
}

func (p *Providers) IsDirectory(node Node) bool { return node.IsDir() }
func (p *Providers) Name(node Node) string      { return node.DisplayName() }
