// Command gatheringctl inspects and maintains a Gathering store offline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	configPath string
	verbose    bool

	logger *zap.Logger
	cfg    config
)

var rootCmd = &cobra.Command{
	Use:   "gatheringctl",
	Short: "Inspect and maintain the Gathering store",
	Long: `gatheringctl works directly on the persisted Gathering document, using the
same storage backend and key as the running service.

Stop the service before seed or import: it rewrites the whole document on
every change and would overwrite yours.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg, err = loadConfig(configPath)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults to a local SQLite store)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "file to write, - for stdout")
	importCmd.Flags().StringVarP(&importIn, "in", "i", "", "document to import")
	_ = importCmd.MarkFlagRequired("in")
	tailCmd.Flags().StringVar(&tailQueue, "queue", "", "durable queue name (empty for a private queue)")

	rootCmd.AddCommand(showCmd, statsCmd, seedCmd, exportCmd, importCmd, tailCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
