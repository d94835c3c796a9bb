package app

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/justyntemme/shelf/internal/debug"
	"github.com/justyntemme/shelf/internal/fs"
	"github.com/justyntemme/shelf/internal/logging"
)

// Opener hands a document to a viewer.
type Opener interface {
	Open(ctx context.Context, node fs.Node) error
}

// SystemOpener opens path-addressed documents with the platform default
// application. Tree documents have no local path and are rejected.
type SystemOpener struct {
	filter fs.ExtensionFilter
	open   func(path string) error
}

func NewSystemOpener(filter fs.ExtensionFilter) *SystemOpener {
	return &SystemOpener{filter: filter, open: platformOpen}
}

func (o *SystemOpener) Open(ctx context.Context, node fs.Node) error {
	name, ok := node.Name()
	if !ok || !o.filter.Supports(name) || fs.IsTreeIdentifier(node.ID()) {
		return fmt.Errorf("%w: %s", ErrCannotOpen, node.ID())
	}
	path, err := fs.PathFromIdentifier(node.ID())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCannotOpen, err)
	}
	if err := o.open(path); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	logging.Info("opened document", logging.String("path", path))
	return nil
}

// startDetached starts cmd and reaps it in the background. The returned
// channel yields the exit result once the viewer launcher quits.
func startDetached(cmd *exec.Cmd) (<-chan error, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		if err != nil {
			debug.Log(debug.APP, "viewer %s exited: %v", cmd.Path, err)
		}
		done <- err
	}()
	return done, nil
}
