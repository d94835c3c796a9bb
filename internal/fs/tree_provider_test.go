package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeGrants struct {
	granted map[string]bool
	err     error
}

func (g *fakeGrants) HasGrant(ctx context.Context, treeURI string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	return g.granted[treeURI], nil
}

func newDirTree(t *testing.T) (*TreeProvider, *fakeGrants, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "Books", "Sci Fi"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Books", "Sci Fi", "dune.epub"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Books", "manual.pdf"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	src, err := NewDirSource("local", "primary", dir)
	if err != nil {
		t.Fatalf("NewDirSource: %v", err)
	}
	grants := &fakeGrants{granted: map[string]bool{}}
	return NewTreeProvider(grants, src), grants, TreeIdentifier("local", src.RootDocID())
}

func TestTreeProvider_ResolveAndList(t *testing.T) {
	p, grants, root := newDirTree(t)
	grants.granted[root] = true
	ctx := context.Background()

	rootNode, err := p.Resolve(ctx, root)
	if err != nil {
		t.Fatalf("Resolve(root): %v", err)
	}
	if !p.IsDirectory(rootNode) {
		t.Fatal("root should be a directory")
	}

	children, err := p.ListChildren(ctx, rootNode)
	if err != nil {
		t.Fatalf("ListChildren(root): %v", err)
	}
	if len(children) != 1 || p.Name(children[0]) != "Books" {
		t.Fatalf("unexpected root children: %+v", children)
	}

	books, err := p.ListChildren(ctx, children[0])
	if err != nil {
		t.Fatalf("ListChildren(Books): %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 entries in Books, got %d", len(books))
	}
	if p.Name(books[0]) != "Sci Fi" || !books[0].IsDir() {
		t.Errorf("expected Sci Fi dir first, got %+v", books[0])
	}
	if p.Name(books[1]) != "manual.pdf" || books[1].IsDir() {
		t.Errorf("expected manual.pdf second, got %+v", books[1])
	}

	// Child identifiers stay within the granted tree and resolve again
	again, err := p.Resolve(ctx, books[0].ID())
	if err != nil {
		t.Fatalf("Resolve(child): %v", err)
	}
	if again.ID() != books[0].ID() || !again.IsDir() {
		t.Errorf("re-resolve mismatch: %+v vs %+v", again, books[0])
	}
	u, err := ParseTreeURI(again.ID())
	if err != nil {
		t.Fatal(err)
	}
	if u.TreeID != "primary:" || u.DocID != "primary:Books/Sci Fi" {
		t.Errorf("unexpected child uri: %+v", u)
	}
}

func TestTreeProvider_NoGrant(t *testing.T) {
	p, grants, root := newDirTree(t)
	ctx := context.Background()

	if _, err := p.Resolve(ctx, root); !errors.Is(err, ErrNotAccessible) {
		t.Errorf("expected ErrNotAccessible without grant, got %v", err)
	}

	// Grant, resolve, then revoke: listing must fail afterwards
	grants.granted[root] = true
	node, err := p.Resolve(ctx, root)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	delete(grants.granted, root)
	if _, err := p.ListChildren(ctx, node); !errors.Is(err, ErrNotAccessible) {
		t.Errorf("expected ErrNotAccessible after revoke, got %v", err)
	}
}

func TestTreeProvider_GrantLookupError(t *testing.T) {
	p, grants, root := newDirTree(t)
	grants.err = errors.New("store closed")
	if _, err := p.Resolve(context.Background(), root); !errors.Is(err, ErrNotAccessible) {
		t.Errorf("expected ErrNotAccessible, got %v", err)
	}
}

func TestTreeProvider_Rejects(t *testing.T) {
	p, grants, root := newDirTree(t)
	grants.granted[root] = true
	ctx := context.Background()

	testCases := []string{
		// unknown authority
		TreeIdentifier("other", "primary:"),
		// document outside its tree
		TreeURI{Authority: "local", TreeID: "primary:Books", DocID: "primary:Music"}.String(),
		// escaping the exported directory
		TreeURI{Authority: "local", TreeID: "primary:", DocID: "primary:../etc"}.String(),
		// unknown root
		TreeURI{Authority: "local", TreeID: "sdcard:", DocID: "sdcard:"}.String(),
		// missing document
		TreeURI{Authority: "local", TreeID: "primary:", DocID: "primary:nope.pdf"}.String(),
		"content://local",
	}

	for _, id := range testCases {
		if _, err := p.Resolve(ctx, id); !errors.Is(err, ErrNotAccessible) {
			t.Errorf("Resolve(%q): expected ErrNotAccessible, got %v", id, err)
		}
	}
}

func TestTreeProvider_SubtreeGrant(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"Public", "Private"} {
		if err := os.Mkdir(filepath.Join(dir, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "Public", "open.pdf"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Private", "secret.pdf"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	src, err := NewDirSource("local", "primary", dir)
	if err != nil {
		t.Fatal(err)
	}
	public := TreeIdentifier("local", "primary:Public")
	p := NewTreeProvider(&fakeGrants{granted: map[string]bool{public: true}}, src)
	ctx := context.Background()

	node, err := p.Resolve(ctx, public)
	if err != nil {
		t.Fatalf("Resolve(granted subtree): %v", err)
	}
	children, err := p.ListChildren(ctx, node)
	if err != nil || len(children) != 1 || p.Name(children[0]) != "open.pdf" {
		t.Fatalf("ListChildren(granted subtree): %v, %v", children, err)
	}

	escapes := []string{
		"primary:Public/../Private",
		"primary:Public/../Private/secret.pdf",
		"primary:Public/./../Private",
	}
	for _, docID := range escapes {
		id := TreeURI{Authority: "local", TreeID: "primary:Public", DocID: docID}.String()
		if _, err := p.Resolve(ctx, id); !errors.Is(err, ErrNotAccessible) {
			t.Errorf("Resolve(%q): expected ErrNotAccessible, got %v", docID, err)
		}
		forged := NewNode(id, "Private", true)
		if kids, err := p.ListChildren(ctx, forged); !errors.Is(err, ErrNotAccessible) {
			t.Errorf("ListChildren(%q): expected ErrNotAccessible, got %v, %v", docID, kids, err)
		}
	}
}

func TestSplitDocID(t *testing.T) {
	testCases := []struct {
		in        string
		root, rel string
		ok        bool
	}{
		{"primary:", "primary", "", true},
		{"primary:a/b", "primary", "a/b", true},
		{"primary:a/./b/", "primary", "a/b", true},
		{"primary:a/../b", "primary", "b", true},
		{"primary:.", "primary", "", true},
		{"primary:..", "", "", false},
		{"primary:a/../../b", "", "", false},
		{"primary:/etc", "", "", false},
		{":a", "", "", false},
		{"noroot", "", "", false},
	}

	for _, tc := range testCases {
		root, rel, err := splitDocID(tc.in)
		if tc.ok != (err == nil) {
			t.Errorf("splitDocID(%q): ok=%v, err=%v", tc.in, tc.ok, err)
			continue
		}
		if tc.ok && (root != tc.root || rel != tc.rel) {
			t.Errorf("splitDocID(%q): expected (%q, %q), got (%q, %q)", tc.in, tc.root, tc.rel, root, rel)
		}
	}
}

func TestNewDirSource_Invalid(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.pdf")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewDirSource("", "primary", dir); err == nil {
		t.Error("expected error for empty authority")
	}
	if _, err := NewDirSource("local", "a:b", dir); err == nil {
		t.Error("expected error for root id containing ':'")
	}
	if _, err := NewDirSource("local", "primary", filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
	if _, err := NewDirSource("local", "primary", file); !errors.Is(err, ErrNotDirectory) {
		t.Errorf("expected ErrNotDirectory, got %v", err)
	}
}
