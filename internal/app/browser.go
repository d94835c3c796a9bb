package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/justyntemme/shelf/internal/debug"
	"github.com/justyntemme/shelf/internal/fs"
	"github.com/justyntemme/shelf/internal/logging"
	"github.com/justyntemme/shelf/internal/search"
	"github.com/justyntemme/shelf/internal/store"
	"github.com/justyntemme/shelf/internal/volume"
)

// Entry is one row of a View.
type Entry struct {
	ID    string
	Name  string
	IsDir bool
}

// View is what the shell renders after every operation.
type View struct {
	Title   string
	Entries []Entry
	State   State
	Notice  string
}

// Deps are the collaborators a Browser needs.
type Deps struct {
	Provider    fs.Provider
	Prefs       store.Preferences
	Volumes     *volume.Registry
	Lister      *fs.Lister
	Engine      *search.Engine
	Permissions Permissions
	Opener      Opener
	Grants      store.Grants // optional
}

// Browser is the operation surface: every user action is one method that
// returns the resulting View or an error for Describe.
type Browser struct {
	deps    Deps
	session *Session
	search  *SearchController

	mu      sync.Mutex
	entries []fs.Node     // rows of the last view
	results search.Result // last applied search
}

func NewBrowser(deps Deps) *Browser {
	return &Browser{
		deps:    deps,
		session: NewSession(deps.Provider, deps.Prefs, deps.Volumes),
		search:  NewSearchController(deps.Engine),
	}
}

// Session exposes the navigation state for inspection.
func (b *Browser) Session() *Session { return b.session }

// Close stops any running search.
func (b *Browser) Close() {
	b.search.Close()
}

// Restore reopens the persisted root, if any. A missing or inaccessible
// root leaves the browser uninitialized.
func (b *Browser) Restore(ctx context.Context) (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id, ok, err := b.deps.Prefs.Get(ctx, store.KeyTreeURI)
	if err != nil {
		return b.view(""), err
	}
	if !ok || id == "" {
		return b.view("No folder selected. Choose a folder or switch storage."), nil
	}
	if err := b.session.OpenRoot(ctx, id); err != nil {
		logging.Warn("saved root unavailable", logging.String("uri", id), logging.Err(err))
		return b.view(""), err
	}
	return b.listing(ctx, "")
}

// ChooseRoot opens a user-picked tree or path as the new root.
func (b *Browser) ChooseRoot(ctx context.Context, identifier string) (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.search.Invalidate()

	switch {
	case fs.IsTreeIdentifier(identifier):
		if u, err := fs.ParseTreeURI(identifier); err == nil {
			tree := u.Tree().String()
			if err := b.deps.Permissions.TakePersistable(ctx, tree); err != nil {
				// Resolution below reports the outcome
				logging.Warn("persistable grant failed", logging.String("uri", tree), logging.Err(err))
			}
		}
	default:
		if err := b.requireStorageRead(ctx); err != nil {
			return b.view(""), err
		}
	}

	if err := b.session.OpenRoot(ctx, identifier); err != nil {
		return b.view(""), err
	}
	b.persistRoot(ctx)
	return b.listing(ctx, "")
}

// OpenLegacyRoot opens the first storage volume.
func (b *Browser) OpenLegacyRoot(ctx context.Context) (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.search.Invalidate()

	if err := b.requireStorageRead(ctx); err != nil {
		return b.view(""), err
	}
	vol, err := b.session.OpenFirstVolume(ctx)
	if err != nil {
		return b.view(""), err
	}
	b.persistRoot(ctx)
	return b.listing(ctx, "Storage: "+vol.RootPath)
}

// SwitchVolume cycles to the next storage volume.
func (b *Browser) SwitchVolume(ctx context.Context) (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.search.Invalidate()

	if err := b.requireStorageRead(ctx); err != nil {
		return b.view(""), err
	}
	vol, err := b.session.SwitchVolume(ctx)
	if err != nil {
		return b.view(""), err
	}
	b.persistRoot(ctx)
	return b.listing(ctx, "Storage: "+vol.String())
}

// Enter descends into the directory at index of the current view, or hands
// a file to the opener.
func (b *Browser) Enter(ctx context.Context, index int) (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session.State() == StateUninitialized {
		return b.view(""), ErrNoRoot
	}
	if index < 0 || index >= len(b.entries) {
		return b.current(), invalidEntry(index, len(b.entries))
	}
	node := b.entries[index]

	if !b.deps.Provider.IsDirectory(node) {
		if err := b.deps.Opener.Open(ctx, node); err != nil {
			return b.current(), err
		}
		v := b.current()
		v.Notice = "Opening " + b.deps.Provider.Name(node)
		return v, nil
	}

	b.search.Invalidate()
	if err := b.session.EnterDirectory(node); err != nil {
		return b.current(), err
	}
	return b.listing(ctx, "")
}

// Up returns to the parent directory; at the root it just leaves search
// results.
func (b *Browser) Up(ctx context.Context) (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session.State() == StateUninitialized {
		return b.view(""), ErrNoRoot
	}
	b.search.Invalidate()
	b.session.GoUp()
	return b.listing(ctx, "")
}

// SetHome persists the current directory as home.
func (b *Browser) SetHome(ctx context.Context) (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.session.SetHomeToCurrent(ctx); err != nil {
		return b.current(), err
	}
	v := b.current()
	v.Notice = "Home set"
	return v, nil
}

// ClearHome forgets the persisted home. Search then starts at the root.
func (b *Browser) ClearHome(ctx context.Context) (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.deps.Prefs.Delete(ctx, store.KeyHomeURI); err != nil {
		return b.current(), err
	}
	v := b.current()
	v.Notice = "Home cleared"
	return v, nil
}

// Grants lists the document trees with a persisted read grant.
func (b *Browser) Grants(ctx context.Context) ([]string, error) {
	if b.deps.Grants == nil {
		return nil, nil
	}
	return b.deps.Grants.ListGrants(ctx)
}

// RevokeGrant drops the read grant of the tree enclosing uri. A root inside
// that tree stays on screen but fails on the next listing.
func (b *Browser) RevokeGrant(ctx context.Context, uri string) (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, err := fs.ParseTreeURI(uri)
	if err != nil {
		return b.current(), err
	}
	if b.deps.Grants == nil {
		return b.current(), fmt.Errorf("%w: no grant for %s", fs.ErrNotAccessible, uri)
	}
	tree := u.Tree().String()
	if err := b.deps.Grants.RevokeGrant(ctx, tree); err != nil {
		return b.current(), err
	}
	debug.Log(debug.APP, "RevokeGrant: %s", tree)
	v := b.current()
	v.Notice = "Access revoked: " + tree
	return v, nil
}

// GoHome jumps to the persisted home directory.
func (b *Browser) GoHome(ctx context.Context) (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.search.Invalidate()
	if err := b.session.GoHome(ctx); err != nil {
		return b.current(), err
	}
	return b.listing(ctx, "")
}

// Refresh re-lists the current directory, leaving search results.
func (b *Browser) Refresh(ctx context.Context) (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session.State() == StateUninitialized {
		return b.view(""), ErrNoRoot
	}
	b.search.Invalidate()
	b.session.ShowListing()
	return b.listing(ctx, "")
}

// Volumes re-detects storage volumes.
func (b *Browser) Volumes(ctx context.Context) ([]volume.Volume, error) {
	if b.deps.Volumes == nil {
		return nil, volume.ErrNoVolumesFound
	}
	return b.deps.Volumes.Detect(ctx)
}

// Search starts a search below home, or below the root when home is unset
// or unreachable. The result arrives through AwaitSearch or ApplySearch.
func (b *Browser) Search(ctx context.Context, query string) (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, err := search.Normalize(query)
	if err != nil {
		return b.current(), err
	}

	start, adopted, err := b.searchRoot(ctx)
	if err != nil {
		return b.current(), err
	}

	b.search.Start(context.WithoutCancel(ctx), b.deps.Provider, start, q)
	if adopted {
		return b.listing(ctx, "Searching…")
	}
	v := b.current()
	v.Notice = "Searching…"
	return v, nil
}

// searchRoot picks home, or the root when home is unset or unreachable.
// With nothing open, home becomes the root so the results have somewhere
// to land; adopted reports that case.
func (b *Browser) searchRoot(ctx context.Context) (node fs.Node, adopted bool, err error) {
	if b.session.State() == StateUninitialized {
		if err := b.session.GoHome(ctx); err != nil {
			if errors.Is(err, ErrHomeNotSet) {
				return fs.Node{}, false, ErrNoRoot
			}
			return fs.Node{}, false, err
		}
		return b.session.Current(), true, nil
	}

	home, ok, err := b.session.Home(ctx)
	if err == nil && ok {
		return home, false, nil
	}
	if err != nil {
		logging.Warn("home unavailable, searching from root", logging.Err(err))
	}
	return b.session.Root(), false, nil
}

// CancelSearch stops the running search. Its partial result is still
// delivered.
func (b *Browser) CancelSearch(ctx context.Context) (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := b.current()
	if b.search.Cancel() {
		v.Notice = "Cancelling search…"
	} else {
		v.Notice = "No search running"
	}
	return v, nil
}

// SearchResponses exposes the raw response channel for event loops that
// multiplex it with other input.
func (b *Browser) SearchResponses() <-chan SearchResponse {
	return b.search.Responses()
}

// SearchPending reports whether a search result is outstanding.
func (b *Browser) SearchPending() bool {
	return b.search.Pending()
}

// ApplySearch installs a search response. Stale responses are ignored and
// reported with ok=false.
func (b *Browser) ApplySearch(resp SearchResponse) (v View, ok bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.search.Accept(resp) {
		return b.current(), false, nil
	}
	if resp.Err != nil {
		return b.current(), true, resp.Err
	}

	res := resp.Result
	b.results = res
	b.entries = res.Matches
	b.session.ShowSearchResults()

	var notice string
	switch {
	case res.Cancelled:
		notice = fmt.Sprintf("Search cancelled (%d partial results)", len(res.Matches))
	case len(res.Matches) == 0:
		notice = "No matches"
	case res.Truncated:
		notice = fmt.Sprintf("Showing first %d results", len(res.Matches))
	}
	if res.Skipped > 0 {
		skipped := fmt.Sprintf("%d folders could not be read", res.Skipped)
		if notice == "" {
			notice = skipped
		} else {
			notice += "; " + skipped
		}
	}
	debug.Log(debug.APP, "ApplySearch: gen=%d matches=%d", resp.Gen, len(res.Matches))
	return b.view(notice), true, nil
}

// AwaitSearch blocks until the live search delivers, then applies it.
func (b *Browser) AwaitSearch(ctx context.Context) (View, error) {
	for {
		if !b.search.Pending() {
			b.mu.Lock()
			v := b.current()
			b.mu.Unlock()
			return v, nil
		}
		select {
		case <-ctx.Done():
			b.mu.Lock()
			v := b.current()
			b.mu.Unlock()
			return v, ctx.Err()
		case resp := <-b.search.Responses():
			v, ok, err := b.ApplySearch(resp)
			if ok {
				return v, err
			}
		}
	}
}

func (b *Browser) requireStorageRead(ctx context.Context) error {
	granted, err := b.deps.Permissions.RequestStorageRead(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	if !granted {
		return ErrPermissionDenied
	}
	return nil
}

func (b *Browser) persistRoot(ctx context.Context) {
	id := b.session.Root().ID()
	if err := b.deps.Prefs.Set(ctx, store.KeyTreeURI, id); err != nil {
		logging.Warn("failed to persist root", logging.String("uri", id), logging.Err(err))
	}
}

// listing lists the current directory and makes it the view. Caller holds mu.
func (b *Browser) listing(ctx context.Context, notice string) (View, error) {
	b.session.ShowListing()
	nodes, err := b.deps.Lister.List(ctx, b.deps.Provider, b.session.Current())
	if err != nil {
		b.entries = nil
		return b.view(notice), err
	}
	b.entries = nodes
	return b.view(notice), nil
}

// current re-renders the last view without listing. Caller holds mu.
func (b *Browser) current() View {
	return b.view("")
}

func (b *Browser) view(notice string) View {
	v := View{State: b.session.State(), Notice: notice}
	switch v.State {
	case StateUninitialized:
		v.Title = "(no folder selected)"
		return v
	case StateSearchResults:
		v.Title = fmt.Sprintf("Search: %q (%d)", b.results.Query, len(b.results.Matches))
	default:
		cur := b.session.Current()
		if name, ok := cur.Name(); ok {
			v.Title = name
		} else {
			v.Title = cur.ID()
		}
	}

	v.Entries = make([]Entry, len(b.entries))
	for i, n := range b.entries {
		v.Entries[i] = Entry{ID: n.ID(), Name: b.deps.Provider.Name(n), IsDir: b.deps.Provider.IsDirectory(n)}
	}
	return v
}
