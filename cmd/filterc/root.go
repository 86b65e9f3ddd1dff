package main

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	registryPath string
	debugLogging bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "filterc",
	Short: "Compile OPTIMADE filter expressions to backend-native queries",
	Long: `filterc parses OPTIMADE-style filter expressions, resolves their
properties against a YAML registry, and prints the query each storage
backend would receive. Use it to debug filters and registry aliases
without a running service.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if debugLogging {
			level = slog.LevelDebug
		}
		logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
		slog.SetDefault(logger)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&registryPath, "registry", "r", "registry.yaml", "path to the YAML property registry")
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "enable debug logging")

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(backendsCmd)
}
