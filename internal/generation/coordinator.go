package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"loom/internal/logging"
)

// Coordinator runs multi-completion generation against one provider.
type Coordinator struct {
	cfg     ProviderConfig
	resolve Resolver
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithResolver replaces ResolveModel.
func WithResolver(r Resolver) CoordinatorOption {
	return func(c *Coordinator) { c.resolve = r }
}

// NewCoordinator creates a Coordinator for cfg.
func NewCoordinator(cfg ProviderConfig, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{cfg: cfg, resolve: ResolveModel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the provider configuration.
func (c *Coordinator) Config() ProviderConfig {
	return c.cfg
}

// GenerateStreaming produces s.NumContinuations completions of prompt, one at
// a time in index order. For each completion onChunk sees the running text
// after every fragment and then a final call with done=true. The first error
// from resolution, the stream or onChunk stops the whole call; text already
// delivered is not retracted.
func (c *Coordinator) GenerateStreaming(ctx context.Context, prompt string, s Settings, onChunk ChunkFunc) error {
	if s.NumContinuations < 1 {
		return fmt.Errorf("%w: num_continuations must be at least 1, got %d", ErrInvalidSettings, s.NumContinuations)
	}
	if onChunk == nil {
		return fmt.Errorf("%w: nil chunk callback", ErrInvalidSettings)
	}

	logging.Generation("GenerateStreaming: provider=%s model=%s n=%d temperature=%.2f prompt_len=%d",
		c.cfg.Provider, s.Model, s.NumContinuations, s.Temperature, len(prompt))
	timer := logging.StartTimer(logging.CategoryGeneration, "GenerateStreaming")
	defer timer.Stop()

	for i := 0; i < s.NumContinuations; i++ {
		if err := c.generateOne(ctx, i, prompt, s, onChunk); err != nil {
			logging.GenerationError("GenerateStreaming: completion %d/%d failed: %v", i+1, s.NumContinuations, err)
			return fmt.Errorf("completion %d: %w", i, err)
		}
	}
	return nil
}

func (c *Coordinator) generateOne(ctx context.Context, index int, prompt string, s Settings, onChunk ChunkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	model, err := c.resolve(c.cfg, s.Model)
	if err != nil {
		return err
	}

	// Cancelling on return stops the stream if we abort early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	textChan, errChan := model.Stream(ctx, c.messages(prompt), s.Temperature)

	var total strings.Builder
	fragments := 0
	for textChan != nil {
		select {
		case frag, ok := <-textChan:
			if !ok {
				textChan = nil
				continue
			}
			fragments++
			total.WriteString(frag)
			if err := onChunk(index, total.String(), false); err != nil {
				return fmt.Errorf("chunk callback: %w", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := <-errChan; err != nil {
		return err
	}

	logging.GenerationDebug("completion %d: %d fragments, %d bytes in %v", index, fragments, total.Len(), time.Since(start))
	if err := onChunk(index, total.String(), true); err != nil {
		return fmt.Errorf("chunk callback: %w", err)
	}
	return nil
}

func (c *Coordinator) messages(prompt string) []Message {
	msgs := make([]Message, 0, 2)
	if c.cfg.SystemPrompt != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: c.cfg.SystemPrompt})
	}
	return append(msgs, Message{Role: RoleUser, Content: prompt})
}
