package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultAddr           = ":4280"
	DefaultAdminPrefix    = "/__routemock"
	DefaultPollInterval   = 500 * time.Millisecond
	DefaultRequestLogSize = 1000
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 30 * time.Second
	DefaultMaxBodySize    = 10 << 20
)

// DiscoveryOrder lists the file names searched when no config path is given.
var DiscoveryOrder = []string{
	"routemock.yaml",
	"routemock.yml",
}

// Config is the engine configuration.
type Config struct {
	// RouteFiles are the entry definition files, in mount order. Doublestar
	// globs are expanded by Resolve.
	RouteFiles StringList `yaml:"routeFiles" json:"routeFiles"`
	// Watch lists extra files, directories or globs whose change triggers a
	// reload.
	Watch StringList `yaml:"watch,omitempty" json:"watch,omitempty"`
	// Ignore is a regexp; matching dependency paths are not watched.
	Ignore string `yaml:"ignore,omitempty" json:"ignore,omitempty"`
	// IgnoreGlobs are doublestar globs with the same effect as Ignore.
	IgnoreGlobs StringList `yaml:"ignoreGlobs,omitempty" json:"ignoreGlobs,omitempty"`
	// Silent reports reload failures as notifications instead of errors.
	Silent bool `yaml:"silent,omitempty" json:"silent,omitempty"`

	PollInterval   time.Duration `yaml:"pollInterval,omitempty" json:"pollInterval,omitempty"`
	RequestLogSize int           `yaml:"requestLogSize,omitempty" json:"requestLogSize,omitempty"`

	Server ServerConfig `yaml:"server,omitempty" json:"server,omitempty"`
	Log    LogConfig    `yaml:"log,omitempty" json:"log,omitempty"`

	// baseDir is the directory of the loaded file, used by Resolve.
	baseDir string
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr         string        `yaml:"addr,omitempty" json:"addr,omitempty"`
	ReadTimeout  time.Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout time.Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`
	AdminPrefix  string        `yaml:"adminPrefix,omitempty" json:"adminPrefix,omitempty"`
	// Strict rejects a route whose method and pattern duplicate another one.
	Strict      bool  `yaml:"strict,omitempty" json:"strict,omitempty"`
	MaxBodySize int64 `yaml:"maxBodySize,omitempty" json:"maxBodySize,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// Default returns a Config with every default applied and no route files.
func Default() *Config {
	return &Config{
		PollInterval:   DefaultPollInterval,
		RequestLogSize: DefaultRequestLogSize,
		Server: ServerConfig{
			Addr:         DefaultAddr,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			AdminPrefix:  DefaultAdminPrefix,
			MaxBodySize:  DefaultMaxBodySize,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// BaseDir returns the directory relative paths resolve against. It is empty
// for configs not loaded from a file.
func (c *Config) BaseDir() string {
	return c.baseDir
}

// SetBaseDir overrides the directory relative paths resolve against.
func (c *Config) SetBaseDir(dir string) {
	c.baseDir = dir
}

// StringList is a list of strings that also accepts a single string.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*l = nil
			return nil
		}
		*l = StringList{value.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
	}
}
