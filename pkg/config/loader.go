package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound = errors.New("configuration file not found")
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
	ErrNoMatches    = errors.New("glob matched no files")
)

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars replaces ${VAR} and ${VAR:-default} references with values
// from the environment. Unset variables without a default become empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		if val := os.Getenv(submatch[1]); val != "" {
			return val
		}
		if len(submatch) >= 3 {
			return submatch[2]
		}
		return ""
	})
}

// Discover returns the first config file from DiscoveryOrder present in dir.
func Discover(dir string) (string, error) {
	for _, name := range DiscoveryOrder {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s (tried %s)", ErrFileNotFound, dir, strings.Join(DiscoveryOrder, ", "))
}

// LoadFromFile reads, expands, schema-checks and decodes a config file.
// Missing fields take the values of Default. The result is not validated;
// call Validate after applying overrides.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data, filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a config document. Relative paths resolve against baseDir.
func Parse(data []byte, baseDir string) (*Config, error) {
	expanded := []byte(ExpandEnvVars(string(data)))

	if err := ValidateSchema(expanded); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	cfg.baseDir = baseDir
	return cfg, nil
}

// ResolvePath resolves a potentially relative path against a base directory.
func ResolvePath(basePath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	// Handle ~ expansion
	if strings.HasPrefix(targetPath, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, targetPath[2:])
		}
	}
	return filepath.Join(basePath, targetPath)
}

func (c *Config) resolve(p string) string {
	base := c.baseDir
	if base == "" {
		base, _ = os.Getwd()
	}
	return ResolvePath(base, p)
}

// RouteFilePaths returns the entry files with globs expanded, in declaration
// order. Matches of one glob are sorted and duplicates are dropped.
func (c *Config) RouteFilePaths() ([]string, error) {
	var out []string
	seen := map[string]bool{}
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, f := range c.RouteFiles {
		resolved := c.resolve(f)
		if !isGlob(f) {
			add(resolved)
			continue
		}
		// FilepathGlob returns matches using the OS path separator
		matches, err := doublestar.FilepathGlob(resolved, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expanding glob pattern %q: %w", f, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoMatches, f)
		}
		slices.Sort(matches)
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}

// WatchPaths returns the extra watch paths resolved against the base
// directory. Globs are kept as globs.
func (c *Config) WatchPaths() []string {
	out := make([]string, 0, len(c.Watch))
	for _, w := range c.Watch {
		out = append(out, c.resolve(w))
	}
	return out
}

// IgnoreGlobPaths returns the ignore globs resolved against the base
// directory.
func (c *Config) IgnoreGlobPaths() []string {
	out := make([]string, 0, len(c.IgnoreGlobs))
	for _, g := range c.IgnoreGlobs {
		out = append(out, c.resolve(g))
	}
	return out
}

// IgnoreRegexp compiles Ignore. It returns nil when Ignore is empty.
func (c *Config) IgnoreRegexp() (*regexp.Regexp, error) {
	if c.Ignore == "" {
		return nil, nil
	}
	re, err := regexp.Compile(c.Ignore)
	if err != nil {
		return nil, fmt.Errorf("ignore: %w", err)
	}
	return re, nil
}

func isGlob(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}
