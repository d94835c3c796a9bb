//go:build windows

package volume

import "golang.org/x/sys/windows"

func diskSpace(path string) (free, total uint64, err error) {
	ptr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, 0, err
	}
	var totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(ptr, &free, &total, &totalFree); err != nil {
		return 0, 0, err
	}
	return free, total, nil
}
