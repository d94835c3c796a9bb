// Package search implements the recursive document search: a depth-first,
// pre-order walk over a provider that collects matching files up to a limit
// and can be cancelled between directories.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/justyntemme/shelf/internal/debug"
	"github.com/justyntemme/shelf/internal/fs"
	"github.com/justyntemme/shelf/internal/logging"
)

// DefaultLimit caps the number of matches collected by one search.
const DefaultLimit = 1000

// ErrTraversal marks a subtree that could not be listed. Search skips such
// subtrees and counts them in Result.Skipped; it never returns this error.
var ErrTraversal = errors.New("search: traversal failed")

// Result is the outcome of one search invocation.
type Result struct {
	ID        uuid.UUID
	Query     string
	Matches   []fs.Node // discovery order
	Truncated bool      // stopped at the limit
	Cancelled bool      // stopped by context cancellation
	Skipped   int       // subtrees whose listing failed
	Elapsed   time.Duration
}

// Engine runs searches. It is stateless between calls and safe for
// concurrent use.
type Engine struct {
	filter fs.ExtensionFilter
	limit  int
}

// NewEngine creates an engine. A limit <= 0 selects DefaultLimit.
func NewEngine(filter fs.ExtensionFilter, limit int) *Engine {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Engine{filter: filter, limit: limit}
}

func (e *Engine) Limit() int { return e.limit }

// frame is one directory being iterated on the explicit DFS stack.
type frame struct {
	children []fs.Node
	next     int
}

// Search walks the subtree below root. Cancellation is checked before
// descending into every directory (root included); a cancelled search
// returns the matches found so far with Cancelled set.
func (e *Engine) Search(ctx context.Context, p fs.Provider, root fs.Node, query string) (Result, error) {
	q, err := Normalize(query)
	if err != nil {
		return Result{}, err
	}

	res := Result{ID: uuid.New(), Query: q}
	start := time.Now()

	matcher := NewMatcher(e.filter, q)
	debug.Log(debug.SEARCH, "Search %s: query=%q root=%s limit=%d", res.ID, q, root.ID(), e.limit)

	var stack []*frame
	descend := func(dir fs.Node) bool {
		if ctx.Err() != nil {
			res.Cancelled = true
			return false
		}
		children, err := p.ListChildren(ctx, dir)
		if err != nil {
			// A listing interrupted by cancellation is not a traversal failure
			if ctx.Err() != nil {
				res.Cancelled = true
				return false
			}
			res.Skipped++
			terr := fmt.Errorf("%w: %s: %v", ErrTraversal, dir.ID(), err)
			logging.Warn("search skipped unreadable directory", logging.String("dir", dir.ID()), logging.Err(terr))
			return true
		}
		debug.Log(debug.SEARCH_WALK, "Search %s: enter %s (%d children)", res.ID, dir.ID(), len(children))
		stack = append(stack, &frame{children: children})
		return true
	}

	if !descend(root) {
		return e.finish(res, start), nil
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.children) {
			stack = stack[:len(stack)-1]
			continue
		}
		child := top.children[top.next]
		top.next++

		if p.IsDirectory(child) {
			if !descend(child) {
				break
			}
			continue
		}
		if !matcher.Match(p, child) {
			continue
		}
		res.Matches = append(res.Matches, child)
		if len(res.Matches) >= e.limit {
			res.Truncated = true
			break
		}
	}

	return e.finish(res, start), nil
}

func (e *Engine) finish(res Result, start time.Time) Result {
	res.Elapsed = time.Since(start)
	logging.Debug("search finished",
		logging.String("id", res.ID.String()),
		logging.String("query", res.Query),
		logging.Int("matches", len(res.Matches)),
		logging.Bool("truncated", res.Truncated),
		logging.Bool("cancelled", res.Cancelled),
		logging.Int("skipped", res.Skipped),
		logging.Duration("elapsed", res.Elapsed),
	)
	return res
}
