package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loom/internal/config"
	"loom/internal/generation"
	"loom/internal/render"
	"loom/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	genNode        string
	genCount       int
	genModel       string
	genTemperature float64
	genSelect      bool
	genQuiet       bool
)

// generateCmd expands a node into generated continuations
var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen"},
	Short:   "Generate continuations of a node as new child branches",
	Long: `Builds a prompt from the text of the path root -> node and asks the
configured provider for -n continuations, one after another. Each
continuation is saved as a child of the node while it streams in.

Providers (llm.provider / LOOM_PROVIDER): anthropic, openai, ollama, custom.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genNode, "node", "", "Node to expand (default: the current node)")
	generateCmd.Flags().StringVarP(&treeFlag, "tree", "t", "", "Tree id (default: the active tree)")
	generateCmd.Flags().IntVarP(&genCount, "num", "n", 0, "Number of continuations (default: generation.num_continuations)")
	generateCmd.Flags().StringVarP(&genModel, "model", "m", "", "Model name (default: generation.model)")
	generateCmd.Flags().Float64Var(&genTemperature, "temperature", -1, "Sampling temperature (default: generation.temperature)")
	generateCmd.Flags().BoolVarP(&genSelect, "select", "s", false, "Move the cursor to the first finished continuation")
	generateCmd.Flags().BoolVarP(&genQuiet, "quiet", "q", false, "Do not echo text while it streams")
}

// generationSettings merges flag overrides into the configured defaults.
func generationSettings(g config.GenerationConfig) generation.Settings {
	s := generation.Settings{
		NumContinuations: g.NumContinuations,
		Model:            g.Model,
		Temperature:      g.Temperature,
	}
	if genCount > 0 {
		s.NumContinuations = genCount
	}
	if genModel != "" {
		s.Model = genModel
	}
	if genTemperature >= 0 {
		s.Temperature = genTemperature
	}
	return s
}

func providerConfig(c *config.Config) generation.ProviderConfig {
	pc := generation.ProviderConfig{
		Provider:     generation.Provider(c.LLM.Provider),
		APIKey:       c.LLM.APIKey,
		APIBase:      c.LLM.APIBase,
		SystemPrompt: c.LLM.SystemPrompt,
		Timeout:      c.GetLLMTimeout(),
		MaxRetries:   c.LLM.MaxRetries,
	}
	if timeout > 0 {
		pc.Timeout = timeout
	}
	return pc
}

// streamPrinter echoes each completion's new text as it arrives.
type streamPrinter struct {
	total int
	shown map[int]int
}

func (p *streamPrinter) observe(index int, nodeID, text string, done bool) {
	prev, started := p.shown[index]
	if !started {
		fmt.Printf("\n── %d/%d %s ──\n", index+1, p.total, nodeID)
	}
	if len(text) > prev {
		fmt.Print(text[prev:])
	}
	p.shown[index] = len(text)
	if done {
		fmt.Println()
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := cfg.LLM.Validate(); err != nil {
		return err
	}
	settings := generationSettings(cfg.Generation)

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	treeID, err := a.resolveTree(treeFlag)
	if err != nil {
		return err
	}
	nodeID, err := a.resolveNode(treeID, genNode)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	var opts []session.Option
	if !genQuiet {
		p := &streamPrinter{total: settings.NumContinuations, shown: make(map[int]int)}
		opts = append(opts, session.WithObserver(p.observe))
	}
	sess := session.New(a.trees, generation.NewCoordinator(providerConfig(cfg)), opts...)

	logger.Info("Generating",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", settings.Model),
		zap.Int("n", settings.NumContinuations),
		zap.Float64("temperature", settings.Temperature))
	start := time.Now()

	res, genErr := sess.Expand(ctx, treeID, nodeID, settings)

	finished := 0
	for i, id := range res.NodeIDs {
		if res.Completed[i] {
			finished++
			if genSelect && finished == 1 {
				a.trees.SetCurrentNode(treeID, id)
			}
		}
	}
	fmt.Printf("\n%d/%d continuations finished in %v\n", finished, settings.NumContinuations, time.Since(start).Round(time.Millisecond))

	if genErr != nil {
		logger.Error("Generation failed", zap.Error(genErr))
		return fmt.Errorf("generation failed: %w", genErr)
	}
	if genQuiet {
		fmt.Print(render.Children(a.trees.GetChildren(treeID, nodeID), render.DefaultStyles()))
	}
	return a.saved()
}
