package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Persistent flags available to all subcommands
	configPath string
	jsonOutput bool
	logLevel   string
	logFormat  string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reqlab",
	Short: "reqlab converts HTTP requests to and from cURL and code snippets",
	Long: `reqlab turns HTTP requests into cURL commands and code snippets, imports
pasted cURL commands back into requests, and serves all of it over an HTTP API
with saved requests, collections, history and share links.

Configuration can be provided via flags, REQLAB_* environment variables, or a
configuration file. By default, reqlab looks for reqlab.yaml in the current
directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./reqlab.yaml or $REQLAB_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")
}
