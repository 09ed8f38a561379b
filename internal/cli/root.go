package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cortex/config"
	"cortex/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "cortex",
	Short: "Cortex - Ground answers and study artifacts in your own sources",
	Long: `Cortex keeps a local library of text, Markdown and PDF sources, retrieves
the passages most relevant to a question with a smoothed TF-IDF ranker, and
answers with numbered citations. Without a usable model it answers offline
from the passages themselves.

Example usage:
  cortex add ./notes                     # Add a directory of sources
  cortex search "engine failure"         # Rank passages
  cortex ask "what caused the failure?"  # Citation-aware answer
  cortex studio quiz                     # Generate a study artifact
  cortex serve                           # Expose the HTTP API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		level, err := logger.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
		if verbose {
			logger.SetVerbose(true)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./cortex.yaml or ./.cortex/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
