// Package cli provides the command-line interface for texblend.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vearutop/texblend"
	"github.com/vearutop/texblend/internal/config"
)

// globalFlags are shared by all subcommands.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

// NewRootCommand creates the root command for texblend.
func NewRootCommand(version string) *cobra.Command {
	var gf globalFlags

	root := &cobra.Command{
		Use:   "texblend",
		Short: "Composite weighted texture layers into one image",
		Long: `texblend blends normal maps, or any RGB images of the same kind, into one output.
Each layer has a weight, a blend mode (normal, multiply, add, overlay) and can be
switched off. Layers of a different size are stretched to the first enabled layer.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (handled in main)
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&gf.configPath, "config", "c", "", "config file (.toml, .yaml)")
	root.PersistentFlags().StringVar(&gf.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&gf.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		newBlendCommand(&gf),
		newBatchCommand(&gf),
		newModesCommand(),
		newVersionCommand(version),
	)

	return root
}

// loadConfig reads the config file if given and applies global flag overrides.
// The resulting logger is installed as the texblend package logger.
func loadConfig(cmd *cobra.Command, gf *globalFlags) (*config.Config, error) {
	cfg := config.Default()
	if gf.configPath != "" {
		var err error
		if cfg, err = config.Load(gf.configPath); err != nil {
			return nil, err
		}
	}
	cfg = config.Merge(cfg, &config.Config{
		LogLevel:  gf.logLevel,
		LogFormat: gf.logFormat,
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := cfg.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	texblend.SetLogger(logger)

	return cfg, nil
}

func newModesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List blend modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, m := range texblend.BlendModes() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), m); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}
