package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultAdminPrefix, cfg.Server.AdminPrefix)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.False(t, cfg.Silent)
	assert.Error(t, cfg.Validate(), "no route files")
}

func TestParse_Full(t *testing.T) {
	doc := `
routeFiles: [routes/a.yaml, routes/b.yaml]
watch: data/
ignore: "node_modules|\\.tmp$"
ignoreGlobs: ["**/vendor/**"]
silent: true
pollInterval: 250ms
requestLogSize: 50
server:
  addr: ":9999"
  readTimeout: 5s
  adminPrefix: /admin
  strict: true
log:
  level: debug
  format: json
`
	cfg, err := Parse([]byte(doc), "/srv")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, StringList{"routes/a.yaml", "routes/b.yaml"}, cfg.RouteFiles)
	assert.Equal(t, StringList{"data/"}, cfg.Watch, "a single string decodes to a list")
	assert.True(t, cfg.Silent)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 50, cfg.RequestLogSize)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DefaultWriteTimeout, cfg.Server.WriteTimeout, "unset fields keep defaults")
	assert.True(t, cfg.Server.Strict)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/srv", cfg.BaseDir())

	assert.Equal(t, []string{filepath.Join("/srv", "data")}, cfg.WatchPaths())
	assert.Equal(t, []string{"/srv/**/vendor/**"}, cfg.IgnoreGlobPaths())

	re, err := cfg.IgnoreRegexp()
	require.NoError(t, err)
	assert.True(t, re.MatchString("/x/node_modules/y"))
	assert.True(t, re.MatchString("/x/a.tmp"))
}

func TestParse_RouteFilesAsString(t *testing.T) {
	cfg, err := Parse([]byte("routeFiles: routes.yaml\n"), "/srv")
	require.NoError(t, err)
	assert.Equal(t, StringList{"routes.yaml"}, cfg.RouteFiles)
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("ROUTEMOCK_TEST_ADDR", ":7000")
	doc := `
routeFiles: ${ROUTEMOCK_TEST_FILE:-routes.yaml}
server:
  addr: "${ROUTEMOCK_TEST_ADDR}"
`
	cfg, err := Parse([]byte(doc), "/srv")
	require.NoError(t, err)
	assert.Equal(t, StringList{"routes.yaml"}, cfg.RouteFiles)
	assert.Equal(t, ":7000", cfg.Server.Addr)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("ROUTEMOCK_TEST_SET", "yes")
	assert.Equal(t, "yes", ExpandEnvVars("${ROUTEMOCK_TEST_SET}"))
	assert.Equal(t, "fallback", ExpandEnvVars("${ROUTEMOCK_TEST_UNSET:-fallback}"))
	assert.Equal(t, "", ExpandEnvVars("${ROUTEMOCK_TEST_UNSET}"))
	assert.Equal(t, "$HOME", ExpandEnvVars("$HOME"))
}

func TestParse_SchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"unknown key", "routeFiles: a.yaml\nbogus: 1\n", ""},
		{"bad duration", "routeFiles: a.yaml\npollInterval: soon\n", "pollInterval"},
		{"bad log level", "routeFiles: a.yaml\nlog:\n  level: loud\n", "log.level"},
		{"route files not strings", "routeFiles: [1, 2]\n", "routeFiles"},
		{"admin prefix without slash", "routeFiles: a.yaml\nserver:\n  adminPrefix: admin\n", "server.adminPrefix"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), "/srv")
			require.Error(t, err)

			var result *ValidationResult
			require.True(t, errors.As(err, &result), "got %T: %v", err, err)
			assert.False(t, result.IsValid())
			if tt.field != "" {
				var fields []string
				for _, e := range result.Errors {
					fields = append(fields, e.Field)
				}
				assert.Contains(t, fields, tt.field)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("routeFiles: [a\n"), "/srv")
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.RouteFiles = StringList{"a.yaml", "b/[x.yaml"}
	cfg.Ignore = "("
	cfg.IgnoreGlobs = StringList{"{a"}

	err := cfg.Validate()
	require.Error(t, err)
	var result *ValidationResult
	require.ErrorAs(t, err, &result)

	var fields []string
	for _, e := range result.Errors {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"routeFiles[1]", "ignore", "ignoreGlobs[0]"}, fields)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "routes", "b.yaml"), "[]")
	writeFile(t, filepath.Join(dir, "routes", "a.yaml"), "[]")
	writeFile(t, filepath.Join(dir, "routes", "nested", "c.yaml"), "[]")
	writeFile(t, filepath.Join(dir, "extra.yaml"), "[]")
	writeFile(t, filepath.Join(dir, "routemock.yaml"), "routeFiles: [extra.yaml, \"routes/**/*.yaml\", routes/a.yaml]\n")

	path, err := Discover(dir)
	require.NoError(t, err)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	files, err := cfg.RouteFilePaths()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "extra.yaml"),
		filepath.Join(dir, "routes", "a.yaml"),
		filepath.Join(dir, "routes", "b.yaml"),
		filepath.Join(dir, "routes", "nested", "c.yaml"),
	}, files)
}

func TestRouteFilePaths_GlobWithoutMatches(t *testing.T) {
	cfg := Default()
	cfg.SetBaseDir(t.TempDir())
	cfg.RouteFiles = StringList{"missing/*.yaml"}
	_, err := cfg.RouteFilePaths()
	assert.ErrorIs(t, err, ErrNoMatches)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = Discover(t.TempDir())
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestSchema(t *testing.T) {
	assert.Contains(t, string(Schema()), "routeFiles")
}
