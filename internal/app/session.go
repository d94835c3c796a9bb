package app

import (
	"context"
	"fmt"

	"github.com/justyntemme/shelf/internal/debug"
	"github.com/justyntemme/shelf/internal/fs"
	"github.com/justyntemme/shelf/internal/store"
	"github.com/justyntemme/shelf/internal/volume"
)

// State is the browsing state of a Session.
type State int

const (
	StateUninitialized State = iota
	StateBrowsing
	StateSearchResults
)

func (s State) String() string {
	switch s {
	case StateBrowsing:
		return "browsing"
	case StateSearchResults:
		return "search-results"
	default:
		return "uninitialized"
	}
}

// Session tracks where the user is: the open root, the current directory
// and the stack of directories entered on the way there. Home lives in the
// preference store and is independent of navigation.
//
// A Session is not safe for concurrent use; the Browser serializes access.
type Session struct {
	provider fs.Provider
	prefs    store.Preferences
	volumes  *volume.Registry

	state       State
	root        fs.Node
	current     fs.Node
	backStack   []fs.Node
	volumeIndex int
}

func NewSession(provider fs.Provider, prefs store.Preferences, volumes *volume.Registry) *Session {
	return &Session{
		provider: provider,
		prefs:    prefs,
		volumes:  volumes,
	}
}

func (s *Session) State() State     { return s.state }
func (s *Session) Root() fs.Node    { return s.root }
func (s *Session) Current() fs.Node { return s.current }
func (s *Session) Depth() int       { return len(s.backStack) }
func (s *Session) VolumeIndex() int { return s.volumeIndex }

// OpenRoot resolves identifier and makes it the new root and current
// directory. On failure the session is left untouched.
func (s *Session) OpenRoot(ctx context.Context, identifier string) error {
	node, err := s.provider.Resolve(ctx, identifier)
	if err != nil {
		debug.Log(debug.NAV, "OpenRoot %s failed: %v", identifier, err)
		return err
	}
	if !s.provider.IsDirectory(node) {
		return fmt.Errorf("open root %s: %w", identifier, fs.ErrNotDirectory)
	}

	s.backStack = s.backStack[:0]
	s.root = node
	s.current = node
	s.state = StateBrowsing
	debug.Log(debug.NAV, "OpenRoot: %s", node.ID())
	return nil
}

// EnterDirectory pushes the current directory and descends into node.
func (s *Session) EnterDirectory(node fs.Node) error {
	if s.state == StateUninitialized {
		return ErrNoRoot
	}
	if !s.provider.IsDirectory(node) {
		return fmt.Errorf("enter %s: %w", node.ID(), fs.ErrNotDirectory)
	}
	s.backStack = append(s.backStack, s.current)
	s.current = node
	s.state = StateBrowsing
	debug.Log(debug.NAV, "EnterDirectory: %s (depth %d)", node.ID(), len(s.backStack))
	return nil
}

// GoUp pops the back stack. It reports false, changing nothing but the
// state, when the stack is empty.
func (s *Session) GoUp() bool {
	if s.state != StateUninitialized {
		s.state = StateBrowsing
	}
	if len(s.backStack) == 0 {
		return false
	}
	last := len(s.backStack) - 1
	s.current = s.backStack[last]
	s.backStack = s.backStack[:last]
	debug.Log(debug.NAV, "GoUp: %s (depth %d)", s.current.ID(), len(s.backStack))
	return true
}

// ShowListing leaves search results without moving.
func (s *Session) ShowListing() {
	if s.state == StateSearchResults {
		s.state = StateBrowsing
	}
}

// ShowSearchResults switches to the search results state.
func (s *Session) ShowSearchResults() {
	if s.state != StateUninitialized {
		s.state = StateSearchResults
	}
}

// SetHomeToCurrent persists the current directory (or the root when there
// is none) as home.
func (s *Session) SetHomeToCurrent(ctx context.Context) (fs.Node, error) {
	node := s.current
	if node.IsZero() {
		node = s.root
	}
	if node.IsZero() {
		return fs.Node{}, ErrNoRoot
	}
	if err := s.prefs.Set(ctx, store.KeyHomeURI, node.ID()); err != nil {
		return fs.Node{}, fmt.Errorf("set home: %w", err)
	}
	debug.Log(debug.NAV, "SetHomeToCurrent: %s", node.ID())
	return node, nil
}

// Home resolves the persisted home. ok is false when no home is set.
func (s *Session) Home(ctx context.Context) (node fs.Node, ok bool, err error) {
	id, ok, err := s.prefs.Get(ctx, store.KeyHomeURI)
	if err != nil {
		return fs.Node{}, false, fmt.Errorf("read home: %w", err)
	}
	if !ok || id == "" {
		return fs.Node{}, false, nil
	}
	node, err = s.provider.Resolve(ctx, id)
	if err != nil {
		return fs.Node{}, true, err
	}
	return node, true, nil
}

// GoHome makes home the current directory and clears the back stack. The
// root is unchanged.
func (s *Session) GoHome(ctx context.Context) error {
	node, ok, err := s.Home(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrHomeNotSet
	}
	if !s.provider.IsDirectory(node) {
		return fmt.Errorf("home %s: %w", node.ID(), fs.ErrNotDirectory)
	}
	if s.root.IsZero() {
		s.root = node
	}
	s.backStack = s.backStack[:0]
	s.current = node
	s.state = StateBrowsing
	debug.Log(debug.NAV, "GoHome: %s", node.ID())
	return nil
}

// SwitchVolume opens the volume after the current index as root. A fresh
// session sits at index 0, so the first switch moves to volume 1 when there
// is more than one. The index advances even when the volume cannot be
// opened, so repeated switches move past a broken volume.
func (s *Session) SwitchVolume(ctx context.Context) (volume.Volume, error) {
	if err := s.ensureVolumes(ctx); err != nil {
		return volume.Volume{}, err
	}
	vol, idx, err := s.volumes.Next(s.volumeIndex)
	if err != nil {
		return volume.Volume{}, err
	}
	s.volumeIndex = idx
	debug.Log(debug.VOLUME, "SwitchVolume: index %d -> %s", idx, vol.RootPath)
	return vol, s.OpenRoot(ctx, fs.FileIdentifier(vol.RootPath))
}

// OpenFirstVolume opens volume 0, the legacy fallback when no tree has
// been chosen.
func (s *Session) OpenFirstVolume(ctx context.Context) (volume.Volume, error) {
	if err := s.ensureVolumes(ctx); err != nil {
		return volume.Volume{}, err
	}
	vols := s.volumes.Volumes()
	if len(vols) == 0 {
		return volume.Volume{}, volume.ErrNoVolumesFound
	}
	s.volumeIndex = 0
	debug.Log(debug.VOLUME, "OpenFirstVolume: %s", vols[0].RootPath)
	return vols[0], s.OpenRoot(ctx, fs.FileIdentifier(vols[0].RootPath))
}

// ensureVolumes detects volumes on first use.
func (s *Session) ensureVolumes(ctx context.Context) error {
	if s.volumes == nil {
		return volume.ErrNoVolumesFound
	}
	if len(s.volumes.Volumes()) > 0 {
		return nil
	}
	_, err := s.volumes.Detect(ctx)
	return err
}
