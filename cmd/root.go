// Package cmd implements the sharpclaw CLI: one cobra command tree
// wiring serve/migrate/job/sandbox/doctor/version.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "mk8",
	Short: "mk8.shell AgentJob gateway",
	Long: "mk8 runs the AgentJob lifecycle: it compiles mk8.shell scripts, " +
		"resolves permission, and dispatches shell/transcription jobs to " +
		"sandboxed task containers.",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config.json (default: $SHARPCLAW_CONFIG or ./config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(jobCmd())
	rootCmd.AddCommand(sandboxCmd())
	rootCmd.AddCommand(doctorCmd())
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if v := os.Getenv("SHARPCLAW_CONFIG"); v != "" {
		return v
	}
	return "config.json"
}

// Execute runs the root command, exiting 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
