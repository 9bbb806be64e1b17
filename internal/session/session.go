// Package session joins the tree store and the generation coordinator: it
// expands a node into N generated children, streaming text into them as it
// arrives.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"loom/internal/generation"
	"loom/internal/logging"
	"loom/internal/tree"

	"golang.org/x/sync/errgroup"
)

// ErrNodeNotFound is returned when the node to expand does not resolve.
var ErrNodeNotFound = errors.New("node not found")

// Generator produces streamed completions. *generation.Coordinator satisfies it.
type Generator interface {
	GenerateStreaming(ctx context.Context, prompt string, s generation.Settings, onChunk generation.ChunkFunc) error
}

// Result reports what an expansion produced. NodeIDs[i] holds the child
// created for completion i; Completed[i] is true once that completion ended
// normally. Children of failed or unstarted completions may be missing or
// hold partial text.
type Result struct {
	TreeID    string
	ParentID  string
	NodeIDs   []string
	Completed []bool
}

// Done reports whether every requested completion finished.
func (r Result) Done() bool {
	if len(r.Completed) == 0 {
		return false
	}
	for _, ok := range r.Completed {
		if !ok {
			return false
		}
	}
	return true
}

// ObserverFunc is told about every chunk after it has been applied to the
// store. It runs on the writer goroutine.
type ObserverFunc func(index int, nodeID, text string, done bool)

// Session serializes all store mutations made on behalf of generation.
type Session struct {
	mu       sync.Mutex
	store    *tree.Store
	gen      Generator
	observer ObserverFunc
}

// Option configures a Session.
type Option func(*Session)

// WithObserver registers fn to follow generation progress.
func WithObserver(fn ObserverFunc) Option {
	return func(s *Session) { s.observer = fn }
}

// New creates a Session.
func New(store *tree.Store, gen Generator, opts ...Option) *Session {
	s := &Session{store: store, gen: gen}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildPrompt concatenates node texts from the root to the target.
func BuildPrompt(ancestry []*tree.Node) string {
	return tree.JoinText(ancestry)
}

type chunk struct {
	index int
	text  string
	done  bool
}

// Expand generates s.NumContinuations children of nodeID using the text of
// the path to nodeID as the prompt. Each child is created on its first
// fragment and updated on every later one. On failure the partial result is
// returned alongside the error.
func (s *Session) Expand(ctx context.Context, treeID, nodeID string, settings generation.Settings) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := max(settings.NumContinuations, 0)
	res := Result{
		TreeID:    treeID,
		ParentID:  nodeID,
		NodeIDs:   make([]string, n),
		Completed: make([]bool, n),
	}
	if s.store.GetNode(treeID, nodeID) == nil {
		return res, fmt.Errorf("expand %s/%s: %w", treeID, nodeID, ErrNodeNotFound)
	}

	prompt := BuildPrompt(s.store.GetAncestry(treeID, nodeID))
	logging.Session("Expand: tree=%s node=%s n=%d prompt_len=%d", treeID, nodeID, settings.NumContinuations, len(prompt))

	g, gctx := errgroup.WithContext(ctx)
	updates := make(chan chunk, 64)

	// The only goroutine that touches the store.
	g.Go(func() error {
		for c := range updates {
			if err := s.apply(&res, c); err != nil {
				return err
			}
		}
		return nil
	})

	g.Go(func() error {
		defer close(updates)
		return s.gen.GenerateStreaming(gctx, prompt, settings, func(index int, text string, done bool) error {
			select {
			case updates <- chunk{index, text, done}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	if err := g.Wait(); err != nil {
		logging.SessionError("Expand: tree=%s node=%s: %v", treeID, nodeID, err)
		return res, err
	}
	logging.Session("Expand: created %d children under %s", len(res.NodeIDs), nodeID)
	return res, nil
}

func (s *Session) apply(res *Result, c chunk) error {
	if c.index < 0 || c.index >= len(res.NodeIDs) {
		return fmt.Errorf("completion index %d out of range", c.index)
	}
	if res.NodeIDs[c.index] == "" {
		id, ok := s.store.CreateNode(res.TreeID, c.text, res.ParentID)
		if !ok {
			return fmt.Errorf("create child of %s: %w", res.ParentID, ErrNodeNotFound)
		}
		res.NodeIDs[c.index] = id
		logging.SessionDebug("completion %d -> node %s", c.index, id)
	} else {
		s.store.UpdateNode(res.TreeID, res.NodeIDs[c.index], tree.SetText(c.text))
	}
	if c.done {
		res.Completed[c.index] = true
	}
	if s.observer != nil {
		s.observer(c.index, res.NodeIDs[c.index], c.text, c.done)
	}
	return nil
}
