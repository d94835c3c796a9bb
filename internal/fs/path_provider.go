package fs

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/justyntemme/shelf/internal/debug"
)

const fileScheme = "file://"

// IsPathIdentifier reports whether id addresses the plain filesystem.
func IsPathIdentifier(id string) bool {
	return strings.HasPrefix(id, fileScheme) || filepath.IsAbs(id)
}

// FileIdentifier converts an absolute path into a file:// identifier.
func FileIdentifier(path string) string {
	p := filepath.ToSlash(filepath.Clean(path))
	if !strings.HasPrefix(p, "/") {
		// Windows drive paths: file:///C:/dir
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// PathFromIdentifier is the inverse of FileIdentifier. Bare absolute paths
// are accepted as-is.
func PathFromIdentifier(id string) (string, error) {
	if filepath.IsAbs(id) {
		return filepath.Clean(id), nil
	}
	u, err := url.Parse(id)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return "", fmt.Errorf("%w: malformed file identifier %q", ErrNotAccessible, id)
	}
	p := u.Path
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.Clean(filepath.FromSlash(p)), nil
}

// PathProvider serves nodes straight from the local filesystem. Access is
// governed by ordinary file permissions only.
type PathProvider struct{}

func NewPathProvider() *PathProvider {
	return &PathProvider{}
}

func (p *PathProvider) Resolve(ctx context.Context, identifier string) (Node, error) {
	path, err := PathFromIdentifier(identifier)
	if err != nil {
		return Node{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		debug.Log(debug.FS, "PathProvider.Resolve: %q: %v", path, err)
		return Node{}, fmt.Errorf("%w: %s: %v", ErrNotAccessible, path, err)
	}
	return NewNode(FileIdentifier(path), filepath.Base(path), info.IsDir()), nil
}

func (p *PathProvider) ListChildren(ctx context.Context, node Node) ([]Node, error) {
	if !node.IsDir() {
		return nil, nil
	}
	path, err := PathFromIdentifier(node.ID())
	if err != nil {
		return nil, err
	}
	entries, err := readDir(path)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	nodes := make([]Node, 0, len(entries))
	for _, e := range entries {
		nodes = append(nodes, NewNode(FileIdentifier(e.Path), e.Name, e.IsDir))
	}
	return nodes, nil
}

func (p *PathProvider) IsDirectory(node Node) bool { return node.IsDir() }
func (p *PathProvider) Name(node Node) string      { return node.DisplayName() }
