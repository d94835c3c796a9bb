package fs

import (
	"context"
	"fmt"

	"github.com/justyntemme/shelf/internal/debug"
)

// SourceEntry is a document as reported by a TreeSource.
type SourceEntry struct {
	DocID string
	Name  string
	IsDir bool
}

// TreeSource serves the documents of one authority. Document ids have the
// form "<root>:<relative/path>".
type TreeSource interface {
	Authority() string
	Stat(ctx context.Context, docID string) (SourceEntry, error)
	List(ctx context.Context, docID string) ([]SourceEntry, error)
}

// GrantChecker reports whether a persisted read grant exists for a tree URI.
type GrantChecker interface {
	HasGrant(ctx context.Context, treeURI string) (bool, error)
}

// TreeProvider serves content:// identifiers. Every resolve and list is
// gated on a persisted grant for the enclosing tree; a missing or revoked
// grant is indistinguishable from a missing document.
type TreeProvider struct {
	grants  GrantChecker
	sources map[string]TreeSource
}

func NewTreeProvider(grants GrantChecker, sources ...TreeSource) *TreeProvider {
	p := &TreeProvider{
		grants:  grants,
		sources: make(map[string]TreeSource, len(sources)),
	}
	for _, s := range sources {
		p.sources[s.Authority()] = s
	}
	return p
}

// access parses id and checks the source and the grant.
func (p *TreeProvider) access(ctx context.Context, id string) (TreeURI, TreeSource, error) {
	u, err := ParseTreeURI(id)
	if err != nil {
		return TreeURI{}, nil, err
	}
	if !u.Contains() {
		return TreeURI{}, nil, fmt.Errorf("%w: %s is outside tree %s", ErrNotAccessible, u.DocID, u.TreeID)
	}

	src, ok := p.sources[u.Authority]
	if !ok {
		return TreeURI{}, nil, fmt.Errorf("%w: unknown authority %q", ErrNotAccessible, u.Authority)
	}

	tree := u.Tree().String()
	granted, err := p.grants.HasGrant(ctx, tree)
	if err != nil {
		return TreeURI{}, nil, fmt.Errorf("%w: grant lookup for %s: %v", ErrNotAccessible, tree, err)
	}
	if !granted {
		debug.Log(debug.FS, "TreeProvider: no grant for %s", tree)
		return TreeURI{}, nil, fmt.Errorf("%w: no read grant for %s", ErrNotAccessible, tree)
	}
	return u, src, nil
}

func (p *TreeProvider) Resolve(ctx context.Context, identifier string) (Node, error) {
	u, src, err := p.access(ctx, identifier)
	if err != nil {
		return Node{}, err
	}
	e, err := src.Stat(ctx, u.DocID)
	if err != nil {
		return Node{}, fmt.Errorf("%w: %s: %v", ErrNotAccessible, identifier, err)
	}
	return NewNode(u.String(), e.Name, e.IsDir), nil
}

func (p *TreeProvider) ListChildren(ctx context.Context, node Node) ([]Node, error) {
	if !node.IsDir() {
		return nil, nil
	}
	u, src, err := p.access(ctx, node.ID())
	if err != nil {
		return nil, err
	}
	entries, err := src.List(ctx, u.DocID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", node.ID(), err)
	}
	nodes := make([]Node, 0, len(entries))
	for _, e := range entries {
		nodes = append(nodes, NewNode(u.Child(e.DocID).String(), e.Name, e.IsDir))
	}
	debug.Log(debug.FS, "TreeProvider.ListChildren: %s -> %d", node.ID(), len(nodes))
	return nodes, nil
}

func (p *TreeProvider) IsDirectory(node Node) bool { return node.IsDir() }
func (p *TreeProvider) Name(node Node) string      { return node.DisplayName() }
