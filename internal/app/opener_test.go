package app

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/justyntemme/shelf/internal/fs"
)

func TestSystemOpener(t *testing.T) {
	var opened []string
	o := NewSystemOpener(fs.NewExtensionFilter(fs.DefaultExtensions...))
	o.open = func(path string) error {
		opened = append(opened, path)
		return nil
	}
	ctx := context.Background()

	doc := filepath.Join(t.TempDir(), "Guide.PDF")
	if err := o.Open(ctx, fs.NewNode(fs.FileIdentifier(doc), "Guide.PDF", false)); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(opened) != 1 || opened[0] != doc {
		t.Errorf("opened: %v", opened)
	}

	rejected := []fs.Node{
		fs.NewNode("/tmp/notes.txt", "notes.txt", false),
		fs.NewNode("/tmp/x", "", false),
		fs.NewNode(fs.TreeIdentifier("local", "primary:")+"/document/primary%3Aa.pdf", "a.pdf", false),
	}
	for _, n := range rejected {
		if err := o.Open(ctx, n); !errors.Is(err, ErrCannotOpen) {
			t.Errorf("Open(%s): expected ErrCannotOpen, got %v", n.ID(), err)
		}
	}
	if len(opened) != 1 {
		t.Errorf("rejected documents reached the platform: %v", opened)
	}
}

func TestSystemOpener_PlatformFailure(t *testing.T) {
	o := NewSystemOpener(fs.NewExtensionFilter(fs.DefaultExtensions...))
	boom := errors.New("no viewer")
	o.open = func(string) error { return boom }

	err := o.Open(context.Background(), fs.NewNode("/tmp/a.pdf", "a.pdf", false))
	if !errors.Is(err, boom) {
		t.Errorf("expected platform error, got %v", err)
	}
}

func TestStartDetached_Reaps(t *testing.T) {
	cmd := exec.Command(os.Args[0], "-test.run=^$")
	done, err := startDetached(cmd)
	if err != nil {
		t.Fatalf("startDetached: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("child exited with %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("child was not reaped")
	}
	if cmd.ProcessState == nil || !cmd.ProcessState.Exited() {
		t.Errorf("process state not collected: %v", cmd.ProcessState)
	}
}

func TestStartDetached_StartError(t *testing.T) {
	done, err := startDetached(exec.Command(filepath.Join(t.TempDir(), "missing")))
	if err == nil || done != nil {
		t.Errorf("expected start error, got %v", err)
	}
}
