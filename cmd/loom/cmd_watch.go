package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"loom/internal/render"
	"loom/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// watchCmd redraws the active tree whenever another process saves
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Redraw the active tree whenever the saved trees change (file store only)",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&showIDs, "ids", false, "Show node ids")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	fs, ok := a.backend.(*store.FileStore)
	if !ok {
		return fmt.Errorf("watch requires the file store backend (current: %s)", cfg.Store.Backend)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("Watching", zap.String("path", fs.Path(cfg.Store.Name)))
	return watchTrees(ctx, a, fs)
}

// watchTrees draws the active tree, then redraws it after every change to
// the snapshot file until ctx is done.
func watchTrees(ctx context.Context, a *app, fs *store.FileStore) error {
	draw := func() {
		id := a.trees.ActiveTreeID()
		if id == "" {
			fmt.Println("(no trees)")
			return
		}
		fmt.Println(render.Tree(a.trees.GetTree(id), render.DefaultStyles(), render.TreeOptions{ShowIDs: showIDs}))
	}

	draw()
	return fs.Watch(ctx, cfg.Store.Name, func() {
		if err := a.trees.Rehydrate(); err != nil {
			logger.Warn("Reload failed", zap.Error(err))
			return
		}
		draw()
	})
}
