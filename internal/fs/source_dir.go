package fs

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// splitDocID splits "<root>:<relative/path>" and rejects escapes from the root.
func splitDocID(docID string) (root, rel string, err error) {
	root, rel, ok := strings.Cut(docID, ":")
	if !ok || root == "" {
		return "", "", fmt.Errorf("%w: malformed document id %q", ErrNotAccessible, docID)
	}
	if rel == "" {
		return root, "", nil
	}
	rel = path.Clean(rel)
	if rel == "." {
		return root, "", nil
	}
	if rel == ".." || strings.HasPrefix(rel, "../") || strings.HasPrefix(rel, "/") {
		return "", "", fmt.Errorf("%w: document id %q escapes its root", ErrNotAccessible, docID)
	}
	return root, rel, nil
}

func joinDocID(root, rel string) string {
	return root + ":" + rel
}

// DirSource exports a local directory as a document tree, the way a device
// exposes a storage volume to the document picker.
type DirSource struct {
	authority string
	rootID    string
	dir       string
}

// NewDirSource exports dir under authority; documents are "<rootID>:<rel>".
func NewDirSource(authority, rootID, dir string) (*DirSource, error) {
	if authority == "" || rootID == "" || strings.Contains(rootID, ":") {
		return nil, fmt.Errorf("dir source: invalid authority %q or root id %q", authority, rootID)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("dir source %s: %w", authority, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("dir source %s: %w", authority, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dir source %s: %s: %w", authority, abs, ErrNotDirectory)
	}
	return &DirSource{authority: authority, rootID: rootID, dir: abs}, nil
}

func (s *DirSource) Authority() string { return s.authority }

// RootDocID is the document id of the exported directory itself.
func (s *DirSource) RootDocID() string { return joinDocID(s.rootID, "") }

func (s *DirSource) localPath(docID string) (string, string, error) {
	root, rel, err := splitDocID(docID)
	if err != nil {
		return "", "", err
	}
	if root != s.rootID {
		return "", "", fmt.Errorf("%w: unknown root %q", ErrNotAccessible, root)
	}
	return filepath.Join(s.dir, filepath.FromSlash(rel)), rel, nil
}

func (s *DirSource) Stat(ctx context.Context, docID string) (SourceEntry, error) {
	p, rel, err := s.localPath(docID)
	if err != nil {
		return SourceEntry{}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return SourceEntry{}, err
	}
	return SourceEntry{
		DocID: joinDocID(s.rootID, rel),
		Name:  filepath.Base(p),
		IsDir: info.IsDir(),
	}, nil
}

func (s *DirSource) List(ctx context.Context, docID string) ([]SourceEntry, error) {
	p, rel, err := s.localPath(docID)
	if err != nil {
		return nil, err
	}
	entries, err := readDir(p)
	if err != nil {
		return nil, err
	}
	out := make([]SourceEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, SourceEntry{
			DocID: joinDocID(s.rootID, path.Join(rel, e.Name)),
			Name:  e.Name,
			IsDir: e.IsDir,
		})
	}
	return out, nil
}
