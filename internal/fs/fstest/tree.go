// Package fstest provides an in-memory fs.Provider for tests.
package fstest

import (
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/justyntemme/shelf/internal/fs"
)

// Tree is an in-memory document tree addressed by slash paths such as
// "/docs/a.pdf". Children are listed in insertion order.
type Tree struct {
	mu       sync.Mutex
	nodes    map[string]fs.Node
	children map[string][]string
	failing  map[string]error
	lists    map[string]int

	// OnList, if set, runs before every ListChildren call.
	OnList func(id string)
}

// New returns a tree containing only the root directory "/".
func New() *Tree {
	t := &Tree{
		nodes:    make(map[string]fs.Node),
		children: make(map[string][]string),
		failing:  make(map[string]error),
		lists:    make(map[string]int),
	}
	t.nodes["/"] = fs.NewNode("/", "", true)
	return t
}

func (t *Tree) add(p string, n fs.Node) fs.Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	parent := path.Dir(p)
	if _, ok := t.nodes[parent]; !ok {
		panic(fmt.Sprintf("fstest: parent of %q not added", p))
	}
	t.nodes[p] = n
	t.children[parent] = append(t.children[parent], p)
	return n
}

// Dir adds a directory. Parents must already exist.
func (t *Tree) Dir(p string) fs.Node {
	return t.add(p, fs.NewNode(p, path.Base(p), true))
}

// File adds a file.
func (t *Tree) File(p string) fs.Node {
	return t.add(p, fs.NewNode(p, path.Base(p), false))
}

// Unnamed adds a node whose backend reports no name.
func (t *Tree) Unnamed(p string, isDir bool) fs.Node {
	return t.add(p, fs.NewNode(p, "", isDir))
}

// Fail makes listing p return err.
func (t *Tree) Fail(p string, err error) {
	t.mu.Lock()
	t.failing[p] = err
	t.mu.Unlock()
}

// Node returns the node stored at p.
func (t *Tree) Node(p string) fs.Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nodes[p]
}

// Lists returns how often p has been listed.
func (t *Tree) Lists(p string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lists[p]
}

func (t *Tree) Resolve(ctx context.Context, identifier string) (fs.Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.nodes[identifier]
	if !ok {
		return fs.Node{}, fmt.Errorf("%w: %s", fs.ErrNotAccessible, identifier)
	}
	return n, nil
}

func (t *Tree) ListChildren(ctx context.Context, node fs.Node) ([]fs.Node, error) {
	if t.OnList != nil {
		t.OnList(node.ID())
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.lists[node.ID()]++
	if err := t.failing[node.ID()]; err != nil {
		return nil, err
	}
	if !node.IsDir() {
		return nil, nil
	}
	ids := t.children[node.ID()]
	out := make([]fs.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.nodes[id])
	}
	return out, nil
}

func (t *Tree) IsDirectory(node fs.Node) bool { return node.IsDir() }
func (t *Tree) Name(node fs.Node) string      { return node.DisplayName() }
