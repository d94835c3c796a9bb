package fs

import (
	"context"
	"slices"
	"strings"

	"github.com/justyntemme/shelf/internal/debug"
)

// Lister produces the listing shown for a directory: supported files and
// all directories, directories first, each group ordered by case-insensitive
// name.
type Lister struct {
	filter ExtensionFilter
}

func NewLister(filter ExtensionFilter) *Lister {
	return &Lister{filter: filter}
}

func (l *Lister) List(ctx context.Context, p Provider, node Node) ([]Node, error) {
	children, err := p.ListChildren(ctx, node)
	if err != nil {
		return nil, err
	}

	var dirs, files []Node
	for _, c := range children {
		if !l.filter.Keep(c) {
			continue
		}
		if p.IsDirectory(c) {
			dirs = append(dirs, c)
		} else {
			files = append(files, c)
		}
	}

	slices.SortStableFunc(dirs, compareNames)
	slices.SortStableFunc(files, compareNames)

	debug.Log(debug.FS, "Lister.List: %s dirs=%d files=%d (of %d)", node.ID(), len(dirs), len(files), len(children))
	return append(dirs, files...), nil
}

// sortKey is the lowercased name; absent names sort as "".
func sortKey(n Node) string {
	name, _ := n.Name()
	return strings.ToLower(name)
}

func compareNames(a, b Node) int {
	return strings.Compare(sortKey(a), sortKey(b))
}
