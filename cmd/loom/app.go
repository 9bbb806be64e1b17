package main

import (
	"fmt"
	"strings"

	"loom/internal/store"
	"loom/internal/tree"

	"go.uber.org/zap"
)

// app bundles the storage backend and the tree store for one command.
type app struct {
	backend store.Backend
	trees   *tree.Store
}

// openApp opens the configured backend and rehydrates the tree store from it.
func openApp() (*app, error) {
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	path := cfg.StorePath()
	backend, err := store.Open(cfg.Store, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	trees := tree.NewStore(
		tree.WithPersister(backend),
		tree.WithStorageName(cfg.Store.Name),
	)
	if err := trees.Rehydrate(); err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("failed to load trees: %w", err)
	}

	logger.Debug("Store opened",
		zap.String("backend", cfg.Store.Backend),
		zap.String("path", path),
		zap.Int("trees", len(trees.ListTrees())))
	return &app{backend: backend, trees: trees}, nil
}

func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		logger.Warn("Failed to close store", zap.Error(err))
	}
}

// saved reports a failed snapshot write from the last mutation.
func (a *app) saved() error {
	if err := a.trees.PersistError(); err != nil {
		return fmt.Errorf("change applied but not saved: %w", err)
	}
	return nil
}

// resolveTree maps an id or unique id prefix to a tree id. An empty arg
// selects the active tree.
func (a *app) resolveTree(arg string) (string, error) {
	if arg == "" {
		id := a.trees.ActiveTreeID()
		if id == "" {
			return "", fmt.Errorf("no active tree; create one with 'loom tree new'")
		}
		return id, nil
	}
	var ids []string
	for _, s := range a.trees.ListTrees() {
		ids = append(ids, s.ID)
	}
	id, err := matchID(ids, arg)
	if err != nil {
		return "", fmt.Errorf("tree %w", err)
	}
	return id, nil
}

// resolveNode maps an id or unique id prefix to a node of treeID. An empty
// arg selects the tree's current node.
func (a *app) resolveNode(treeID, arg string) (string, error) {
	t := a.trees.GetTree(treeID)
	if t == nil {
		return "", fmt.Errorf("tree %s not found", treeID)
	}
	if arg == "" {
		return t.CurrentNodeID, nil
	}
	ids := make([]string, 0, len(t.Nodes))
	for id := range t.Nodes {
		ids = append(ids, id)
	}
	id, err := matchID(ids, arg)
	if err != nil {
		return "", fmt.Errorf("node %w", err)
	}
	return id, nil
}

func matchID(ids []string, arg string) (string, error) {
	var matches []string
	for _, id := range ids {
		if id == arg {
			return id, nil
		}
		if strings.HasPrefix(id, arg) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s not found", arg)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s is ambiguous (%d matches)", arg, len(matches))
	}
}
