package main

import (
	"fmt"
	"os"
	"time"

	"loom/internal/config"
	"loom/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dataDir    string
	timeout    time.Duration

	// Loaded in PersistentPreRunE
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "loom - branching documents with streamed model continuations",
	Long: `loom keeps documents as trees of text. Any node can be expanded into several
generated continuations, each becoming a child branch you can read, edit,
prune or continue from.

Trees are stored under the data directory (default ~/.loom) and every change
is saved immediately.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = loadConfig()
		if err != nil {
			return err
		}

		if err := logging.Initialize(logging.Options{
			Dir:        cfg.LogsDir(),
			DebugMode:  cfg.Logging.DebugMode,
			Level:      cfg.Logging.Level,
			JSONFormat: cfg.Logging.Format == "json",
			Categories: cfg.Logging.Categories,
		}); err != nil {
			logger.Warn("Failed to initialize category logging", zap.Error(err))
		}
		logging.Boot("loom starting: command=%s data_dir=%s backend=%s", cmd.CommandPath(), cfg.DataDir, cfg.Store.Backend)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ~/.loom/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (overrides config and LOOM_DATA_DIR)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Generation timeout (default: llm.timeout from config)")

	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	c, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		c.DataDir = dataDir
	}
	return c, nil
}
