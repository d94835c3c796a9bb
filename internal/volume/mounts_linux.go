//go:build linux

package volume

import (
	"context"
	"os"
)

const mountTable = "/proc/mounts"

type systemSource struct{}

// SystemSource returns the platform mount enumeration: the user's home
// directory first, then real mounted filesystems from /proc/mounts.
func SystemSource() MountSource { return systemSource{} }

func (systemSource) Candidates(ctx context.Context) ([]string, error) {
	var out []string
	if home, err := os.UserHomeDir(); err == nil {
		out = append(out, home)
	}

	f, err := os.Open(mountTable)
	if err != nil {
		// Home alone is still usable
		return out, nil
	}
	defer f.Close()

	return append(out, parseMounts(f)...), nil
}
