// Package cmd implements the glucotrack command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwulff/glucotrack/internal/config"
	"github.com/jwulff/glucotrack/internal/logger"
)

// Version is set at build time.
var Version = "0.1.0-dev"

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "glucotrack",
		Short: "Blood glucose & HbA1c tracker",
		Long: `glucotrack estimates HbA1c from a fasting and a postprandial glucose
reading, gives a health recommendation, and keeps a per-session log of
every calculation shown as a trend chart and a table.

Run "glucotrack serve" for the web form or "glucotrack tui" for the
terminal form.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			level := logger.ParseLevel(cfg.Log.Level)
			if level == logger.LevelInfo {
				level = logger.GetLogLevelFromEnv(cfg.Log.Dev)
			}
			logger.ConfigureWriter(cmd.ErrOrStderr(), level, cfg.Log.Dev)
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file (default $"+config.EnvConfigPath+")")

	root.AddCommand(
		newServeCmd(a),
		newTUICmd(a),
		newCalcCmd(),
		newPushCmd(a),
	)
	return root
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
