//go:build windows

package volume

import (
	"context"
	"os"

	"golang.org/x/sys/windows"
)

type systemSource struct{}

// SystemSource returns the platform mount enumeration: the user's home
// directory first, then every logical drive with a root directory.
func SystemSource() MountSource { return systemSource{} }

func (systemSource) Candidates(ctx context.Context) ([]string, error) {
	var out []string
	if home, err := os.UserHomeDir(); err == nil {
		out = append(out, home)
	}

	// GetLogicalDrives returns immediately, even for disconnected drives
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return out, nil
	}
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		root := string(rune('A'+i)) + ":\\"
		ptr, err := windows.UTF16PtrFromString(root)
		if err != nil {
			continue
		}
		switch windows.GetDriveType(ptr) {
		case windows.DRIVE_UNKNOWN, windows.DRIVE_NO_ROOT_DIR:
			continue
		}
		out = append(out, root)
	}
	return out, nil
}
