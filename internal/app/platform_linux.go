//go:build linux

package app

import "os/exec"

// platformOpen opens the file using 'xdg-open' (default application).
func platformOpen(path string) error {
	_, err := startDetached(exec.Command("xdg-open", path))
	return err
}
