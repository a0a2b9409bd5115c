package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/routemock/pkg/route"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data/user.yaml", "name: jack\nborn: 1970-01-01T00:00:00Z\n")
	writeFile(t, dir, "data/banner.txt", "hello")
	entry := writeFile(t, dir, "routes.yaml", `
- ["/url-response/:name", "${req.params.name}"]
- [get, /user, !include data/user.yaml]
- [get, /banner, !include data/banner.txt]
- [get, /echo, !fn echo]
- [get, /upper, "${req.params.name}", !expr "upper(value)"]
- method: get
  url: /object
  range: "..10"
  response: {$include: data/user.yaml}
`)

	l := New(route.Builtins())
	v, err := l.Load(entry)
	require.NoError(t, err)

	list, ok := v.([]any)
	require.True(t, ok)
	require.Len(t, list, 6)

	assert.Equal(t, []any{"/url-response/:name", "${req.params.name}"}, list[0])

	user := list[1].([]any)[2].(map[string]any)
	assert.Equal(t, "jack", user["name"])
	assert.Equal(t, time.Unix(0, 0).UTC(), user["born"])

	assert.Equal(t, "hello", list[2].([]any)[2])

	fn, ok := list[3].([]any)[2].(*route.Func)
	require.True(t, ok)
	assert.Equal(t, "echo", fn.Name)
	assert.NotNil(t, fn.Generator)

	assert.Equal(t, route.Expr{Source: "upper(value)"}, list[4].([]any)[3])

	obj := list[5].(map[string]any)
	assert.Equal(t, "jack", obj["response"].(map[string]any)["name"])

	specs, err := route.NormalizeAll(v, entry)
	require.NoError(t, err)
	assert.Len(t, specs, 6)
}

func TestLoad_JSONMarkersAndRoutesKey(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "body.json", `{"ok": true}`)
	entry := writeFile(t, dir, "routes.json", `{
  "routes": [
    ["post", "/items", {"$include": "body.json"}, {"$fn": "wrap"}],
    {"url": "/gen", "response": {"$expr": "req.method"}}
  ]
}`)

	v, err := New(nil).Load(entry)
	require.NoError(t, err)

	routes := v.(map[string]any)["routes"].([]any)
	first := routes[0].([]any)
	assert.Equal(t, map[string]any{"ok": true}, first[2])
	assert.Equal(t, "wrap", first[3].(*route.Func).Name)
	assert.Equal(t, route.Expr{Source: "req.method"}, routes[1].(map[string]any)["response"])
}

func TestLoad_HCL(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user.yaml", "name: lily\n")
	entry := writeFile(t, dir, "routes.hcl", `
routes = [
  ["/a", upper("a")],
  ["get", "/user", include("user.yaml"), 3, "1..2"],
  ["get", "/echo", fn("echo")],
  {
    method   = "post"
    url      = "/expr"
    response = expr("req.method")
    delay    = [0.5, 1]
    args     = { n = 2, ratio = 0.5 }
  },
]
`)

	v, err := New(route.Builtins()).Load(entry)
	require.NoError(t, err)

	routes := v.(map[string]any)["routes"].([]any)
	require.Len(t, routes, 4)
	assert.Equal(t, []any{"/a", "A"}, routes[0])

	user := routes[1].([]any)
	assert.Equal(t, map[string]any{"name": "lily"}, user[2])
	assert.Equal(t, 3, user[3])

	assert.Equal(t, "echo", routes[2].([]any)[2].(*route.Func).Name)

	obj := routes[3].(map[string]any)
	assert.Equal(t, route.Expr{Source: "req.method"}, obj["response"])
	assert.Equal(t, []any{0.5, 1}, obj["delay"])
	assert.Equal(t, map[string]any{"n": 2, "ratio": 0.5}, obj["args"])

	specs, err := route.NormalizeAll(v, entry)
	require.NoError(t, err)
	require.Len(t, specs, 4)
	assert.Equal(t, &route.Range{Min: 1, Max: 2}, specs[1].Range)
	assert.Equal(t, "POST", specs[3].Method)
}

func TestLoad_Merge(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "routes.yaml", `
base: &base
  method: get
  args: {greeting: hi}
routes:
  - <<: *base
    url: /a
    response: a
  - <<: *base
    method: post
    url: /b
    response: b
`)
	v, err := New(nil).Load(entry)
	require.NoError(t, err)

	specs, err := route.NormalizeAll(v, entry)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "GET", specs[0].Method)
	assert.Equal(t, "POST", specs[1].Method)
	assert.Equal(t, map[string]any{"greeting": "hi"}, specs[1].Args)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := New(nil).Load(filepath.Join(dir, "nope.yaml"))
		var loadErr *LoadError
		require.True(t, errors.As(err, &loadErr))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("unsupported entry", func(t *testing.T) {
		path := writeFile(t, dir, "routes.txt", "x")
		_, err := New(nil).Load(path)
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("syntax error", func(t *testing.T) {
		path := writeFile(t, dir, "broken.yaml", "- [a, b\n")
		_, err := New(nil).Load(path)
		var loadErr *LoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Equal(t, path, loadErr.Path)
	})

	t.Run("unknown function", func(t *testing.T) {
		path := writeFile(t, dir, "fn.yaml", "- [/x, !fn nope]\n")
		_, err := New(nil).Load(path)
		assert.ErrorIs(t, err, route.ErrUnknownFunc)
		assert.Contains(t, err.Error(), "line 1")
	})

	t.Run("unknown tag", func(t *testing.T) {
		path := writeFile(t, dir, "tag.yaml", "- [/x, !weird y]\n")
		_, err := New(nil).Load(path)
		assert.ErrorContains(t, err, "unknown tag !weird")
	})

	t.Run("bad marker argument", func(t *testing.T) {
		path := writeFile(t, dir, "marker.json", `[["/x", {"$fn": 3}]]`)
		_, err := New(nil).Load(path)
		assert.ErrorContains(t, err, "$fn: want a string")
	})

	t.Run("include cycle", func(t *testing.T) {
		a := writeFile(t, dir, "cycle/a.yaml", "inner: !include b.yaml\n")
		writeFile(t, dir, "cycle/b.yaml", "inner: !include a.yaml\n")
		_, err := New(nil).Load(a)
		assert.ErrorIs(t, err, ErrIncludeCycle)
		assert.ErrorContains(t, err, "a.yaml -> ")
	})

	t.Run("expression check", func(t *testing.T) {
		path := writeFile(t, dir, "expr.yaml", "- [/x, !expr \"1 +\"]\n")
		check := func(string) error { return errors.New("syntax") }
		_, err := New(nil, WithExprCheck(check)).Load(path)
		assert.ErrorContains(t, err, `expr "1 +": syntax`)
	})

	t.Run("hcl diagnostics", func(t *testing.T) {
		path := writeFile(t, dir, "bad.hcl", "routes = [\n")
		_, err := New(nil).Load(path)
		var loadErr *LoadError
		assert.True(t, errors.As(err, &loadErr))
	})
}

func TestCache_GraphAndInvalidation(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "data.yaml", "v: 1\n")
	shared := writeFile(t, dir, "shared.yaml", "s: 1\n")
	entry := writeFile(t, dir, "entry.yaml", "data: !include data.yaml\nshared: !include shared.yaml\n")
	other := writeFile(t, dir, "other.yaml", "shared: !include shared.yaml\n")

	l := New(nil)
	_, err := l.Load(entry)
	require.NoError(t, err)
	_, err = l.Load(other)
	require.NoError(t, err)

	c := l.Cache()
	assert.Equal(t, []string{entry, data, shared}, c.Chain(entry))
	assert.ElementsMatch(t, []string{data, entry, other, shared}, c.IDs())

	m, ok := c.Get(shared)
	require.True(t, ok)
	assert.Len(t, m.Dependents, 2)

	// cached value is served until the file is invalidated
	writeFile(t, dir, "data.yaml", "v: 2\n")
	v, err := l.Load(entry)
	require.NoError(t, err)
	assert.Equal(t, 1, v.(map[string]any)["data"].(map[string]any)["v"])

	dropped := c.Invalidate(data)
	assert.Equal(t, []string{data, entry}, dropped)
	_, ok = c.Get(other)
	assert.True(t, ok, "unrelated entry stays cached")

	v, err = l.Load(entry)
	require.NoError(t, err)
	assert.Equal(t, 2, v.(map[string]any)["data"].(map[string]any)["v"])

	assert.ElementsMatch(t, []string{shared, entry, other}, c.Invalidate(shared))
	assert.Empty(t, c.Chain(entry))
}

func TestCache_LinkedPlaceholderIsNotLoaded(t *testing.T) {
	c := NewCache()
	c.link("/entry.yaml", "/dep.yaml")

	_, ok := c.lookup("/dep.yaml")
	assert.False(t, ok, "an include edge alone must not count as loaded")

	c.store("/dep.yaml", map[string]any{"v": 1}, nil)
	v, ok := c.lookup("/dep.yaml")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"v": 1}, v)

	c.reset("/dep.yaml")
	_, ok = c.lookup("/dep.yaml")
	assert.False(t, ok, "reset forgets the loaded value")
}

func TestLoad_IncludeReadsTheIncludedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dep.yaml", "v: 1\n")
	entry := writeFile(t, dir, "r.yaml", "- [/a, !include dep.yaml]\n")

	l := New(nil)
	v, err := l.Load(entry)
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{"/a", map[string]any{"v": 1}}}, v)

	// a broken dependency fails the entry once invalidated
	dep := writeFile(t, dir, "dep.yaml", "v: {\n")
	l.Cache().Invalidate(dep)
	_, err = l.Load(entry)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, dep, loadErr.Path)
}

func TestCache_FailedLoadKeepsEdges(t *testing.T) {
	dir := t.TempDir()
	dep := writeFile(t, dir, "dep.yaml", "v: [1\n")
	entry := writeFile(t, dir, "entry.yaml", "- [/x, !include dep.yaml]\n")

	l := New(nil)
	_, err := l.Load(entry)
	require.Error(t, err)

	assert.Equal(t, []string{entry, dep}, l.Cache().Chain(entry), "failed modules stay in the graph")
	m, ok := l.Cache().Get(dep)
	require.True(t, ok)
	assert.Error(t, m.Err)

	// failed modules are retried even without invalidation
	writeFile(t, dir, "dep.yaml", "v: [1]\n")
	_, err = l.Load(entry)
	require.NoError(t, err)
}

func TestCache_ReloadDropsStaleEdges(t *testing.T) {
	dir := t.TempDir()
	old := writeFile(t, dir, "old.yaml", "x: 1\n")
	entry := writeFile(t, dir, "entry.yaml", "a: !include old.yaml\n")

	l := New(nil)
	_, err := l.Load(entry)
	require.NoError(t, err)

	writeFile(t, dir, "new.yaml", "y: 1\n")
	writeFile(t, dir, "entry.yaml", "a: !include new.yaml\n")
	l.Cache().Invalidate(entry)
	_, err = l.Load(entry)
	require.NoError(t, err)

	m, ok := l.Cache().Get(old)
	require.True(t, ok)
	assert.Empty(t, m.Dependents)
	assert.Equal(t, []string{entry, filepath.Join(dir, "new.yaml")}, l.Cache().Chain(entry))

	l.Cache().Clear()
	assert.Empty(t, l.Cache().IDs())
}
