package volume

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdirs(t *testing.T, base string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(base, d), 0755))
	}
}

func TestRegistry_Detect(t *testing.T) {
	base := t.TempDir()
	mkdirs(t, base, "internal", "sdcard")
	require.NoError(t, os.WriteFile(filepath.Join(base, "file.pdf"), nil, 0644))

	src := StaticSource{
		filepath.Join(base, "internal", "Android", "data", "app", "files"),
		filepath.Join(base, "sdcard", "Android", "data", "app", "files"),
		filepath.Join(base, "internal", "Android", "media", "app"),
		filepath.Join(base, "missing", "Android", "data"),
		filepath.Join(base, "file.pdf"),
		filepath.Join(base, "sdcard") + string(filepath.Separator),
	}

	r := NewRegistry(src, "")
	vols, err := r.Detect(context.Background())
	require.NoError(t, err)
	require.Len(t, vols, 2)

	assert.Equal(t, filepath.Join(base, "internal"), vols[0].RootPath)
	assert.Equal(t, 0, vols[0].Index)
	assert.Equal(t, filepath.Join(base, "sdcard"), vols[1].RootPath)
	assert.Equal(t, 1, vols[1].Index)
	assert.Equal(t, vols, r.Volumes())
}

func TestRegistry_CustomMarker(t *testing.T) {
	base := t.TempDir()
	mkdirs(t, base, "vol")

	r := NewRegistry(StaticSource{filepath.Join(base, "vol", ".shelf", "cache")}, "/.shelf/")
	vols, err := r.Detect(context.Background())
	require.NoError(t, err)
	require.Len(t, vols, 1)
	assert.Equal(t, filepath.Join(base, "vol"), vols[0].RootPath)
}

func TestRegistry_Next(t *testing.T) {
	base := t.TempDir()
	mkdirs(t, base, "v0", "v1")

	r := NewRegistry(StaticSource{filepath.Join(base, "v0"), filepath.Join(base, "v1")}, "")
	_, err := r.Detect(context.Background())
	require.NoError(t, err)

	v, idx, err := r.Next(0)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, filepath.Join(base, "v1"), v.RootPath)

	v, idx, err = r.Next(1)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, filepath.Join(base, "v0"), v.RootPath)

	// Before the first switch
	_, idx, err = r.Next(-1)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestRegistry_NextCycles(t *testing.T) {
	base := t.TempDir()
	names := []string{"a", "b", "c", "d", "e"}
	mkdirs(t, base, names...)

	var src StaticSource
	for _, n := range names {
		src = append(src, filepath.Join(base, n))
	}
	r := NewRegistry(src, "")
	_, err := r.Detect(context.Background())
	require.NoError(t, err)

	for start := range names {
		idx := start
		for i := 0; i < len(names); i++ {
			_, idx, err = r.Next(idx)
			require.NoError(t, err)
		}
		assert.Equal(t, start, idx, "N switches must return to the start")
	}
}

func TestRegistry_Empty(t *testing.T) {
	r := NewRegistry(StaticSource{filepath.Join(t.TempDir(), "nope")}, "")
	vols, err := r.Detect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, vols)

	_, _, err = r.Next(0)
	assert.ErrorIs(t, err, ErrNoVolumesFound)
}

type failingSource struct{}

func (failingSource) Candidates(ctx context.Context) ([]string, error) {
	return nil, errors.New("mount table unreadable")
}

func TestMultiSource_SkipsFailures(t *testing.T) {
	base := t.TempDir()
	mkdirs(t, base, "x")

	src := MultiSource{failingSource{}, StaticSource{filepath.Join(base, "x")}}
	got, err := src.Candidates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(base, "x")}, got)

	_, err = NewRegistry(failingSource{}, "").Detect(context.Background())
	assert.Error(t, err)
}

func TestParseMounts(t *testing.T) {
	table := `sysfs /sys sysfs rw,nosuid 0 0
proc /proc proc rw 0 0
/dev/nvme0n1p2 / ext4 rw,relatime 0 0
/dev/nvme0n1p1 /boot/efi vfat rw 0 0
tmpfs /tmp tmpfs rw 0 0
/dev/sda1 /media/user/SD\040CARD vfat rw 0 0
/dev/sdb1 /mnt/archive ext4 rw 0 0
/dev/sdb1 /mnt/archive ext4 rw 0 0
/dev/nvme0n1p3 /home ext4 rw 0 0
garbage
`
	got := parseMounts(strings.NewReader(table))
	assert.Equal(t, []string{"/media/user/SD CARD", "/mnt/archive", "/home"}, got)
}

func TestUnescapeMount(t *testing.T) {
	assert.Equal(t, "/a b", unescapeMount(`/a\040b`))
	assert.Equal(t, "/tab\there", unescapeMount(`/tab\011here`))
	assert.Equal(t, `/odd\9`, unescapeMount(`/odd\9`))
	assert.Equal(t, "/plain", unescapeMount("/plain"))
}

func TestVolume_Space(t *testing.T) {
	switch runtime.GOOS {
	case "linux", "darwin", "freebsd", "windows":
	default:
		t.Skip("disk space not supported")
	}

	v := Volume{RootPath: t.TempDir()}
	free, total, err := v.Space()
	require.NoError(t, err)
	assert.Greater(t, total, uint64(0))
	assert.LessOrEqual(t, free, total)
	assert.Contains(t, v.String(), " free of ")
	assert.True(t, strings.HasPrefix(v.String(), v.RootPath))
}

func TestVolume_StringWithoutSpace(t *testing.T) {
	v := Volume{RootPath: filepath.Join(t.TempDir(), "gone")}
	assert.Equal(t, v.RootPath, v.String())
}
