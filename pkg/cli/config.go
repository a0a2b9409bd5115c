package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/routemock/pkg/config"
	"github.com/getmockd/routemock/pkg/logging"
)

// loadConfig builds the effective configuration: the config file, or the
// defaults when there is none, overridden by the flags set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	path := rootFlags.configPath
	if path == "" {
		if found, derr := config.Discover(cwd); derr == nil {
			path = found
		} else if len(rootFlags.routes) == 0 {
			return nil, fmt.Errorf("no route files: pass --routes or create %s", config.DiscoveryOrder[0])
		}
	}
	if path != "" {
		if cfg, err = config.LoadFromFile(path); err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
		cfg.SetBaseDir(cwd)
	}

	fs := cmd.Flags()
	// Flag paths are relative to the working directory, not the config file.
	if len(rootFlags.routes) > 0 {
		cfg.RouteFiles = absAll(cwd, rootFlags.routes)
	}
	if len(rootFlags.watch) > 0 {
		cfg.Watch = append(cfg.Watch, absAll(cwd, rootFlags.watch)...)
	}
	if fs.Changed("ignore") {
		cfg.Ignore = rootFlags.ignore
	}
	if fs.Changed("silent") {
		cfg.Silent = rootFlags.silent
	}
	if rootFlags.logLevel != "" {
		cfg.Log.Level = rootFlags.logLevel
	}
	if rootFlags.logFormat != "" {
		cfg.Log.Format = rootFlags.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func absAll(base string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, config.ResolvePath(base, p))
	}
	return out
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
		Output: cmd.ErrOrStderr(),
	})
}

// relPath shortens path for display when it is under the working directory.
func relPath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

var errValidationFailed = errors.New("validation failed")
