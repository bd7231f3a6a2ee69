package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chriserin/xlfeat/internal/config"
	"github.com/chriserin/xlfeat/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "xlfeat",
	Short:        "xlfeat converts spreadsheet test cases into Gherkin features",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./xlfeat.yaml)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// settings loads the configuration and a logger writing to w.
func settings(w io.Writer) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.LogLevel, w)
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return cfg, log, nil
}
