package search

import (
	"errors"
	"strings"

	"github.com/justyntemme/shelf/internal/fs"
)

var ErrEmptyQuery = errors.New("search: empty query")

// Normalize trims and lowercases a user query.
func Normalize(input string) (string, error) {
	q := strings.ToLower(strings.TrimSpace(input))
	if q == "" {
		return "", ErrEmptyQuery
	}
	return q, nil
}

// Matcher decides whether a node is a search hit: a file that passes the
// extension filter and whose lowercased name contains the query.
type Matcher struct {
	filter fs.ExtensionFilter
	query  string
}

// NewMatcher expects an already normalized query.
func NewMatcher(filter fs.ExtensionFilter, query string) *Matcher {
	return &Matcher{filter: filter, query: query}
}

func (m *Matcher) Match(p fs.Provider, n fs.Node) bool {
	if p.IsDirectory(n) || !m.filter.Keep(n) {
		return false
	}
	name, _ := n.Name()
	return strings.Contains(strings.ToLower(name), m.query)
}
