//go:build !linux && !darwin && !windows

package volume

import (
	"context"
	"os"
)

type systemSource struct{}

// SystemSource returns the user's home directory as the only volume.
func SystemSource() MountSource { return systemSource{} }

func (systemSource) Candidates(ctx context.Context) ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return []string{home}, nil
}
