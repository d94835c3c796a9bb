package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/justyntemme/shelf/internal/debug"
	"github.com/justyntemme/shelf/internal/fs"
	"github.com/justyntemme/shelf/internal/search"
)

// SearchResponse carries one finished search back to the navigation side,
// tagged with the generation it was started under.
type SearchResponse struct {
	Gen    int64
	Result search.Result
	Err    error
}

// SearchController runs at most one live search on a worker goroutine.
// Starting a search or invalidating bumps the generation so responses from
// older searches can be recognised and dropped.
type SearchController struct {
	engine *search.Engine

	gen     atomic.Int64
	mu      sync.Mutex
	cancel  context.CancelFunc
	pending bool

	responses chan SearchResponse
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewSearchController(engine *search.Engine) *SearchController {
	return &SearchController{
		engine:    engine,
		responses: make(chan SearchResponse, 16),
		stop:      make(chan struct{}),
	}
}

// Start cancels any running search and starts a new one. It returns the
// generation the response will carry.
func (s *SearchController) Start(parent context.Context, p fs.Provider, root fs.Node, query string) int64 {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	gen := s.gen.Add(1)
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.pending = true
	s.mu.Unlock()

	s.drain()

	debug.Log(debug.SEARCH, "SearchController.Start: gen=%d root=%s query=%q", gen, root.ID(), query)
	go func() {
		defer cancel()
		res, err := s.engine.Search(ctx, p, root, query)
		select {
		case s.responses <- SearchResponse{Gen: gen, Result: res, Err: err}:
		case <-s.stop:
		}
	}()
	return gen
}

// Cancel stops the running search but keeps its generation, so the partial
// result is still delivered.
func (s *SearchController) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil || !s.pending {
		return false
	}
	s.cancel()
	debug.Log(debug.SEARCH, "SearchController.Cancel: gen=%d", s.gen.Load())
	return true
}

// Invalidate cancels the running search and discards its response.
func (s *SearchController) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.pending = false
	s.gen.Add(1)
}

// Pending reports whether a current-generation response is outstanding.
func (s *SearchController) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Current is the generation of the live search.
func (s *SearchController) Current() int64 { return s.gen.Load() }

// Responses delivers finished searches, stale ones included.
func (s *SearchController) Responses() <-chan SearchResponse { return s.responses }

// Accept reports whether resp belongs to the live search and, if so,
// marks it consumed.
func (s *SearchController) Accept(resp SearchResponse) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if resp.Gen != s.gen.Load() || !s.pending {
		debug.Log(debug.SEARCH, "SearchController: dropping stale gen=%d (current %d)", resp.Gen, s.gen.Load())
		return false
	}
	s.pending = false
	s.cancel = nil
	return true
}

// Close releases workers blocked on delivery.
func (s *SearchController) Close() {
	s.Invalidate()
	s.stopOnce.Do(func() { close(s.stop) })
}

// drain discards queued responses; all of them predate the current generation.
func (s *SearchController) drain() {
	for {
		select {
		case <-s.responses:
		default:
			return
		}
	}
}
