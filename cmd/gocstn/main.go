// Command gocstn checks dynamic controllability of conditional temporal
// networks with uncertainty. Networks are described in YAML files; see
// netfile.go for the layout and the examples directory for complete
// networks.
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Exit codes shared by check and batch.
const (
	ExitConsistent   = 0
	ExitInconsistent = 1
	ExitTimeout      = 2
	ExitError        = 3
)

var (
	logLevel string

	rootCmd = &cobra.Command{
		Use:   "gocstn",
		Short: "Dynamic-controllability checker for conditional temporal networks",
		Long: `gocstn reads conditional simple temporal networks with uncertainty
from YAML descriptions and decides dynamic controllability by
labeled-value constraint propagation.

A network file lists time points (plain, observation, or contingent),
the labeled distance constraints between them, and the checking variant
to apply: ir, epsilon, epsilon3, parameterized, or stnu.

Examples:
  gocstn check appointment.yaml
  gocstn check --variant epsilon --epsilon 2 appointment.yaml
  gocstn batch --workers 8 networks/
  gocstn version`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(logLevel)
		},
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"Log verbosity: debug, info, warn, or error")
}

// configureLogging installs a text handler on stderr at the requested
// level, so operational messages never mix with result output on stdout.
func configureLogging(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	slog.SetDefault(slog.New(handler))
}
