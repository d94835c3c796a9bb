package fs

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

const treeScheme = "content://"

// IsTreeIdentifier reports whether id addresses a document tree.
func IsTreeIdentifier(id string) bool {
	return strings.HasPrefix(id, treeScheme)
}

// TreeURI addresses a document inside a granted tree:
//
//	content://<authority>/tree/<treeID>                       tree root
//	content://<authority>/tree/<treeID>/document/<docID>      descendant
//
// Document ids are path-escaped so they may contain '/'.
type TreeURI struct {
	Authority string
	TreeID    string
	DocID     string
}

// ParseTreeURI parses a content:// identifier.
func ParseTreeURI(s string) (TreeURI, error) {
	rest, ok := strings.CutPrefix(s, treeScheme)
	if !ok {
		return TreeURI{}, fmt.Errorf("%w: not a tree uri %q", ErrNotAccessible, s)
	}
	authority, path, _ := strings.Cut(rest, "/")
	if authority == "" {
		return TreeURI{}, fmt.Errorf("%w: missing authority in %q", ErrNotAccessible, s)
	}

	segs := strings.Split(path, "/")
	if (len(segs) != 2 && len(segs) != 4) || segs[0] != "tree" {
		return TreeURI{}, fmt.Errorf("%w: malformed tree uri %q", ErrNotAccessible, s)
	}
	treeID, err := url.PathUnescape(segs[1])
	if err != nil || treeID == "" {
		return TreeURI{}, fmt.Errorf("%w: bad tree id in %q", ErrNotAccessible, s)
	}

	u := TreeURI{Authority: authority, TreeID: treeID, DocID: treeID}
	if len(segs) == 4 {
		if segs[2] != "document" {
			return TreeURI{}, fmt.Errorf("%w: malformed tree uri %q", ErrNotAccessible, s)
		}
		docID, err := url.PathUnescape(segs[3])
		if err != nil || docID == "" {
			return TreeURI{}, fmt.Errorf("%w: bad document id in %q", ErrNotAccessible, s)
		}
		u.DocID = docID
	}
	return u, nil
}

// String renders the canonical form. The tree root omits the document part.
func (u TreeURI) String() string {
	var b strings.Builder
	b.WriteString(treeScheme)
	b.WriteString(u.Authority)
	b.WriteString("/tree/")
	b.WriteString(url.PathEscape(u.TreeID))
	if u.DocID != "" && u.DocID != u.TreeID {
		b.WriteString("/document/")
		b.WriteString(url.PathEscape(u.DocID))
	}
	return b.String()
}

// Tree returns the URI of the granted tree root, the key grants are stored under.
func (u TreeURI) Tree() TreeURI {
	return TreeURI{Authority: u.Authority, TreeID: u.TreeID, DocID: u.TreeID}
}

// Child returns the URI for docID within the same tree.
func (u TreeURI) Child(docID string) TreeURI {
	return TreeURI{Authority: u.Authority, TreeID: u.TreeID, DocID: docID}
}

// Contains reports whether DocID lies inside the granted tree. Document ids
// are "<root>:<relative/path>", so the root id ends with ':'. Only clean
// relative paths qualify: "root:Public/../Private" is outside "root:Public".
func (u TreeURI) Contains() bool {
	if u.DocID == u.TreeID {
		return true
	}
	if !isCleanDocID(u.DocID) {
		return false
	}
	prefix := u.TreeID
	if !strings.HasSuffix(prefix, ":") && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(u.DocID, prefix)
}

// isCleanDocID reports whether the relative part of id is already in
// path.Clean form and stays below its root.
func isCleanDocID(id string) bool {
	_, rel, ok := strings.Cut(id, ":")
	if !ok {
		rel = id
	}
	if rel == "" {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, "../") || strings.HasPrefix(rel, "/") {
		return false
	}
	return path.Clean(rel) == rel
}

// TreeIdentifier builds a tree-root identifier for a source's document.
func TreeIdentifier(authority, treeID string) string {
	return TreeURI{Authority: authority, TreeID: treeID, DocID: treeID}.String()
}
