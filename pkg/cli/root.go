package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/routemock/pkg/cli/internal/flags"
)

var (
	// Persistent flags available to all subcommands
	rootFlags struct {
		configPath string
		routes     flags.StringSlice
		watch      flags.StringSlice
		ignore     string
		silent     bool
		logLevel   string
		logFormat  string
		json       bool
	}

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "routemock",
	Short: "routemock serves mock API routes that reload when their files change",
	Long: `routemock mounts route definition files (YAML, JSON or HCL) on an HTTP
server and re-mounts them whenever a definition file, or any file it
includes, changes. Responses are rendered from templates with request data
and randomized mock values.

Configuration is read from routemock.yaml in the working directory, or from
--config, and can be overridden by flags.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Main()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootFlags.configPath, "config", "c", "", "Config file (default: ./routemock.yaml if present)")
	pf.Var(&rootFlags.routes, "routes", "Route definition file or glob (repeatable)")
	pf.Var(&rootFlags.watch, "watch", "Extra file, directory or glob to watch (repeatable)")
	pf.StringVar(&rootFlags.ignore, "ignore", "", "Regexp of dependency paths not to watch")
	pf.BoolVar(&rootFlags.silent, "silent", false, "Report reload failures without stopping")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "", "Log format (text, json)")
	pf.BoolVar(&rootFlags.json, "json", false, "Output command results in JSON format")
}

// Execute runs the root command with os.Args.
func Execute() error {
	return rootCmd.Execute()
}

// Main runs the CLI and returns the process exit code.
func Main() int {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
