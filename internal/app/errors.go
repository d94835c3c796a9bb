package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/justyntemme/shelf/internal/fs"
	"github.com/justyntemme/shelf/internal/search"
	"github.com/justyntemme/shelf/internal/volume"
)

var (
	ErrPermissionDenied = fs.ErrPermissionDenied
	ErrHomeNotSet       = errors.New("app: home is not set")
	ErrNoRoot           = errors.New("app: no folder open")
	ErrInvalidEntry     = errors.New("app: no such entry")
	ErrCannotOpen       = errors.New("app: unsupported file")
)

// Describe turns an operation error into the message shown to the user.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "Storage permission denied"
	case errors.Is(err, volume.ErrNoVolumesFound):
		return "No storage volumes found"
	case errors.Is(err, ErrHomeNotSet):
		return "Home is not set"
	case errors.Is(err, ErrNoRoot):
		return "Open a folder first"
	case errors.Is(err, fs.ErrNotDirectory):
		return "Not a folder"
	case errors.Is(err, fs.ErrNotAccessible):
		return "Folder not accessible. Choose again."
	case errors.Is(err, search.ErrEmptyQuery):
		return "Enter a search term"
	case errors.Is(err, ErrInvalidEntry):
		return "No such entry"
	case errors.Is(err, ErrCannotOpen):
		return "Unsupported file"
	default:
		msg := err.Error()
		if msg == "" {
			return "Something went wrong"
		}
		return strings.ToUpper(msg[:1]) + msg[1:]
	}
}

func invalidEntry(index, n int) error {
	return fmt.Errorf("%w: %d (have %d)", ErrInvalidEntry, index, n)
}
