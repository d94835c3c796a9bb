package app

import (
	"context"
	"testing"

	"github.com/justyntemme/shelf/internal/fs"
	"github.com/justyntemme/shelf/internal/fs/fstest"
	"github.com/justyntemme/shelf/internal/search"
	"github.com/justyntemme/shelf/internal/store"
	"github.com/justyntemme/shelf/internal/volume"
)

type fakePermissions struct {
	storageRead bool
	taken       []string
}

func (p *fakePermissions) TakePersistable(ctx context.Context, treeURI string) error {
	p.taken = append(p.taken, treeURI)
	return nil
}

func (p *fakePermissions) RequestStorageRead(ctx context.Context) (bool, error) {
	return p.storageRead, nil
}

type fakeOpener struct {
	opened []string
}

func (o *fakeOpener) Open(ctx context.Context, node fs.Node) error {
	o.opened = append(o.opened, node.ID())
	return nil
}

// newLibrary builds:
//
//	/lib/manual-1.pdf
//	/lib/notes.txt
//	/lib/sub/manual-2.pdf
//	/lib/sub/deeper/manual-3.epub
//	/other/readme.pdf
func newLibrary() *fstest.Tree {
	t := fstest.New()
	t.Dir("/lib")
	t.File("/lib/manual-1.pdf")
	t.File("/lib/notes.txt")
	t.Dir("/lib/sub")
	t.File("/lib/sub/manual-2.pdf")
	t.Dir("/lib/sub/deeper")
	t.File("/lib/sub/deeper/manual-3.epub")
	t.Dir("/other")
	t.File("/other/readme.pdf")
	return t
}

func openMemoryStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

type browserFixture struct {
	browser *Browser
	store   store.Store
	perms   *fakePermissions
	opener  *fakeOpener
}

func newBrowser(t *testing.T, p fs.Provider, volumes *volume.Registry, limit int) *browserFixture {
	t.Helper()
	st := openMemoryStore(t)
	filter := fs.NewExtensionFilter(fs.DefaultExtensions...)
	f := &browserFixture{
		store:  st,
		perms:  &fakePermissions{storageRead: true},
		opener: &fakeOpener{},
	}
	f.browser = NewBrowser(Deps{
		Provider:    p,
		Prefs:       st,
		Volumes:     volumes,
		Lister:      fs.NewLister(filter),
		Engine:      search.NewEngine(filter, limit),
		Permissions: f.perms,
		Opener:      f.opener,
		Grants:      st,
	})
	t.Cleanup(f.browser.Close)
	return f
}

func entryNames(v View) []string {
	out := make([]string, len(v.Entries))
	for i, e := range v.Entries {
		out[i] = e.Name
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
