package volume

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// virtualFS lists filesystem types that never hold user documents.
var virtualFS = map[string]bool{
	"tmpfs":    true,
	"devtmpfs": true,
	"cgroup":   true,
	"cgroup2":  true,
	"proc":     true,
	"sysfs":    true,
	"overlay":  true,
	"squashfs": true,
}

// parseMounts extracts real mount points from a /proc/mounts style table.
// The root filesystem is skipped; callers add home storage themselves.
func parseMounts(r io.Reader) []string {
	var out []string
	seen := map[string]bool{"/": true}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mountPoint := unescapeMount(fields[1])
		fsType := fields[2]

		if strings.HasPrefix(mountPoint, "/sys") ||
			strings.HasPrefix(mountPoint, "/proc") ||
			strings.HasPrefix(mountPoint, "/dev") ||
			strings.HasPrefix(mountPoint, "/run") ||
			strings.HasPrefix(mountPoint, "/snap") ||
			strings.HasPrefix(mountPoint, "/boot") ||
			virtualFS[fsType] {
			continue
		}
		if seen[mountPoint] {
			continue
		}
		seen[mountPoint] = true
		out = append(out, mountPoint)
	}
	return out
}

// unescapeMount decodes the octal escapes (\040 for space) the kernel
// writes into mount tables.
func unescapeMount(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
