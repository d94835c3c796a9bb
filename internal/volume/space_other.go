//go:build !linux && !darwin && !freebsd && !windows

package volume

import "errors"

func diskSpace(path string) (free, total uint64, err error) {
	return 0, 0, errors.New("volume: disk space not supported on this platform")
}
