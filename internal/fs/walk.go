package fs

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/justyntemme/shelf/internal/debug"
)

// dirEntry is a direct child found by readDir.
type dirEntry struct {
	Name  string
	Path  string
	IsDir bool
}

// childCollector gathers the direct children of root from a fastwalk walk.
type childCollector struct {
	root string

	mu      sync.Mutex
	entries []dirEntry
}

func (c *childCollector) visit(fullPath string, d fs.DirEntry, err error) error {
	if err != nil {
		if fullPath == c.root {
			// The directory itself could not be read
			return err
		}
		debug.Log(debug.FS_ENTRY, "readDir: skipping %q: %v", fullPath, err)
		return nil
	}
	if fullPath == c.root {
		return nil
	}
	if filepath.Dir(fullPath) != c.root {
		// Grandchildren only show up if a descent slipped through
		if d.IsDir() {
			return fastwalk.SkipDir
		}
		return nil
	}

	isDir, ok := resolveKind(fullPath, d)
	if !ok {
		return nil
	}
	debug.Log(debug.FS_ENTRY, "readDir: %q isDir=%v", d.Name(), isDir)

	c.mu.Lock()
	c.entries = append(c.entries, dirEntry{Name: d.Name(), Path: fullPath, IsDir: isDir})
	c.mu.Unlock()

	// Never descend; only one level is wanted
	if d.IsDir() {
		return fastwalk.SkipDir
	}
	return nil
}

// resolveKind follows symlinks so a link to a directory counts as one. A
// broken link is reported as the link itself.
func resolveKind(fullPath string, d fs.DirEntry) (isDir, ok bool) {
	info, err := fastwalk.StatDirEntry(fullPath, d)
	if err == nil {
		return info.IsDir(), true
	}
	info, err = os.Lstat(fullPath)
	if err != nil {
		debug.Log(debug.FS_ENTRY, "readDir: skipping %q: stat error: %v", d.Name(), err)
		return false, false
	}
	return info.IsDir(), true
}

// readDir lists the direct children of dir sorted by name. An unreadable
// dir is an error; unreadable children are skipped.
func readDir(dir string) ([]dirEntry, error) {
	c := &childCollector{root: filepath.Clean(dir)}
	conf := &fastwalk.Config{Follow: true}

	if err := fastwalk.Walk(conf, c.root, c.visit); err != nil {
		debug.Log(debug.FS, "readDir: %q: %v", dir, err)
		return nil, err
	}

	slices.SortFunc(c.entries, func(a, b dirEntry) int {
		return strings.Compare(a.Name, b.Name)
	})
	debug.Log(debug.FS, "readDir: %q -> %d entries", dir, len(c.entries))
	return c.entries, nil
}
