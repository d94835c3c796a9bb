// Package volume enumerates the storage volumes a user can switch between
// and cycles through them.
package volume

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/justyntemme/shelf/internal/debug"
	"github.com/justyntemme/shelf/internal/logging"
)

// DefaultPrivateMarker separates a volume root from the application-private
// directory below it.
const DefaultPrivateMarker = "/Android/"

var ErrNoVolumesFound = errors.New("volume: no storage volumes found")

// Volume is one detected storage root.
type Volume struct {
	RootPath string
	Index    int
}

// Space reports free and total bytes on the volume.
func (v Volume) Space() (free, total uint64, err error) {
	return diskSpace(v.RootPath)
}

// String renders the root with its free space when available,
// e.g. "/media/sd (12 GB free of 64 GB)".
func (v Volume) String() string {
	free, total, err := v.Space()
	if err != nil || total == 0 {
		return v.RootPath
	}
	return fmt.Sprintf("%s (%s free of %s)", v.RootPath, humanize.Bytes(free), humanize.Bytes(total))
}

// MountSource yields candidate directories, internal storage first. A
// candidate may point below a volume root at an application-private
// directory; Detect strips that part.
type MountSource interface {
	Candidates(ctx context.Context) ([]string, error)
}

// StaticSource is a fixed candidate list.
type StaticSource []string

func (s StaticSource) Candidates(ctx context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}

// MultiSource concatenates sources in order. A failing source is logged and
// skipped so one unreadable mount table does not hide the others.
type MultiSource []MountSource

func (m MultiSource) Candidates(ctx context.Context) ([]string, error) {
	var out []string
	for _, src := range m {
		c, err := src.Candidates(ctx)
		if err != nil {
			logging.Warn("volume candidates unavailable", logging.Err(err))
			continue
		}
		out = append(out, c...)
	}
	return out, nil
}

// Registry holds the ordered, deduplicated volume list.
type Registry struct {
	source MountSource
	marker string

	mu      sync.RWMutex
	volumes []Volume
}

// NewRegistry creates a registry. An empty marker selects DefaultPrivateMarker.
func NewRegistry(source MountSource, marker string) *Registry {
	if marker == "" {
		marker = DefaultPrivateMarker
	}
	return &Registry{source: source, marker: marker}
}

// Detect re-reads the candidates and replaces the volume list.
func (r *Registry) Detect(ctx context.Context) ([]Volume, error) {
	candidates, err := r.source.Candidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("volume: detect: %w", err)
	}

	seen := make(map[string]bool, len(candidates))
	var vols []Volume
	for _, c := range candidates {
		root, ok := r.rootOf(c)
		if !ok || seen[root] {
			continue
		}
		seen[root] = true
		vols = append(vols, Volume{RootPath: root, Index: len(vols)})
		debug.Log(debug.VOLUME, "Detect: volume %d at %s (from %s)", len(vols)-1, root, c)
	}

	r.mu.Lock()
	r.volumes = vols
	r.mu.Unlock()

	logging.Debug("storage volumes detected", logging.Int("count", len(vols)))
	return append([]Volume(nil), vols...), nil
}

// rootOf strips the private suffix and checks the result is an existing
// directory. The cleaned absolute path is the dedup key.
func (r *Registry) rootOf(candidate string) (string, bool) {
	p := filepath.ToSlash(candidate)
	if idx := strings.Index(p, r.marker); idx > 0 {
		p = p[:idx]
	}
	abs, err := filepath.Abs(filepath.FromSlash(p))
	if err != nil {
		return "", false
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return abs, true
}

// Volumes returns the list from the last Detect.
func (r *Registry) Volumes() []Volume {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Volume(nil), r.volumes...)
}

// Next returns the volume after current, wrapping around. Any current
// outside the list (such as -1 before the first switch) selects volume 0.
func (r *Registry) Next(current int) (Volume, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := len(r.volumes)
	if n == 0 {
		return Volume{}, 0, ErrNoVolumesFound
	}
	next := 0
	if current >= 0 && current < n {
		next = (current + 1) % n
	}
	return r.volumes[next], next, nil
}
