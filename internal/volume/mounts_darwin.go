//go:build darwin

package volume

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charlievieth/fastwalk"
)

const volumesDir = "/Volumes"

type systemSource struct{}

// SystemSource returns the platform mount enumeration: the user's home
// directory first, then the mounted volumes under /Volumes.
func SystemSource() MountSource { return systemSource{} }

func (systemSource) Candidates(ctx context.Context) ([]string, error) {
	var out []string
	if home, err := os.UserHomeDir(); err == nil {
		out = append(out, home)
	}

	var mounts []string
	var mu sync.Mutex

	conf := &fastwalk.Config{Follow: true}
	err := fastwalk.Walk(conf, volumesDir, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil || fullPath == volumesDir {
			return nil
		}
		// Only direct children
		if filepath.Dir(fullPath) != volumesDir {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		// The boot volume is a symlink to /, which home already covers
		if target, err := os.Readlink(fullPath); err == nil && target == "/" {
			return fastwalk.SkipDir
		}
		if info, err := os.Stat(fullPath); err != nil || !info.IsDir() {
			return nil
		}

		mu.Lock()
		mounts = append(mounts, fullPath)
		mu.Unlock()
		return fastwalk.SkipDir
	})
	if err != nil {
		return out, nil
	}

	// fastwalk visits concurrently
	sort.Strings(mounts)
	return append(out, mounts...), nil
}
