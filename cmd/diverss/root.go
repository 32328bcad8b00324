package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tenlabs01/Diverss/internal/config"
	"github.com/tenlabs01/Diverss/internal/logging"
)

const version = "1.0.0"

type cliOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "diverss",
		Short:         "Portfolio allocation scoring and stock analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "TOML config file (overrides DIVERSS_CONFIG)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr at debug level")

	root.AddCommand(
		newScoreCmd(),
		newSuggestCmd(),
		newStocksCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "diverss version %s\n", version)
			},
		},
	)
	return root
}

// load reads configuration and builds a stderr logger. Without --verbose
// only warnings and errors are logged.
func (o *cliOptions) load(stderr io.Writer) (config.Config, *slog.Logger, error) {
	if o.configPath != "" {
		if err := os.Setenv("DIVERSS_CONFIG", o.configPath); err != nil {
			return config.Config{}, nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}

	logCfg := cfg.Logging
	logCfg.Format = "text"
	logCfg.Level = slog.LevelWarn
	if o.verbose {
		logCfg.Level = slog.LevelDebug
	}
	logger, err := logging.NewWithWriter(logCfg, stderr)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
