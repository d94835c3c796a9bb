package fs

import (
	"context"
	"errors"
)

// UnnamedPlaceholder is shown for nodes whose backend reports no name.
const UnnamedPlaceholder = "(unnamed)"

var (
	ErrNotAccessible = errors.New("fs: not accessible")
	ErrNotDirectory  = errors.New("fs: not a directory")
)

// Node is an immutable snapshot of a file or directory in either backend.
// The identifier is a tree URI (content://...) or a file identifier
// (file:///... or an absolute path).
type Node struct {
	id    string
	name  string
	named bool
	dir   bool
}

// NewNode creates a node. An empty name is treated as absent.
func NewNode(id, name string, isDir bool) Node {
	return Node{id: id, name: name, named: name != "", dir: isDir}
}

func (n Node) ID() string  { return n.id }
func (n Node) IsDir() bool { return n.dir }

// IsZero reports whether n is the zero Node (never resolved).
func (n Node) IsZero() bool { return n.id == "" }

// Name returns the backend name and whether one was reported.
func (n Node) Name() (string, bool) { return n.name, n.named }

// DisplayName returns the name, or UnnamedPlaceholder when absent.
func (n Node) DisplayName() string {
	if !n.named {
		return UnnamedPlaceholder
	}
	return n.name
}

// Provider resolves identifiers to nodes and enumerates directories.
// Implementations must be safe for use from a search goroutine while the
// navigation goroutine uses them too.
type Provider interface {
	// Resolve maps an identifier to a node. Failures wrap ErrNotAccessible.
	Resolve(ctx context.Context, identifier string) (Node, error)

	// ListChildren returns the direct children of a directory node in
	// name order. A non-directory yields an empty slice.
	ListChildren(ctx context.Context, node Node) ([]Node, error)

	IsDirectory(node Node) bool
	Name(node Node) string
}
