// Package cli implements the flowtree command line.
package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// Version is reported by tracing resources and --version.
var Version = "dev"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// NewRootCommand creates the root command for the flowtree CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "flowtree",
		Short:   "Run workflow trees",
		Long:    "flowtree runs the bundled demo workflow trees and exposes their renderings.",
		Version: Version,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewWorkflowsCommand(opts))

	return cmd
}

// load reads the config file and applies the global flags to it.
func (o *RootOptions) load() (Config, error) {
	cfg, err := LoadConfig(o.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	l, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}
