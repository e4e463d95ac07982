// Package cli implements the gorate command line.
package cli

import (
	"runtime/debug"

	"github.com/cli/go-gh/v2/pkg/term"
	"github.com/spf13/cobra"

	"github.com/adorostkar/gorate/internal/logger"
)

var version = "dev"

var (
	cfgPath string
	verbose bool
)

// isTerminal reports whether stdout is a terminal. Without one the root
// command prints the list instead of starting the TUI.
var isTerminal = func() bool {
	return term.FromEnv().IsTerminalOutput()
}

var rootCmd = &cobra.Command{
	Use:   "gorate [folders...]",
	Short: "Browse, rate and search your movie folders",
	Long: `gorate scans movie folders, looks each movie up on OMDb and lets you
search the result by title and genre.

With no subcommand it starts the terminal UI, or prints the movie list
when stdout is not a terminal. Folders default to the current directory.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if isTerminal() {
			return runTUI(cmd, args)
		}
		return runList(cmd, args)
	},
}

func init() {
	if version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default $XDG_CONFIG_HOME/gorate/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
