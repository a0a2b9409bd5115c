package depgraph

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/routemock/pkg/loader"
)

type fakeGraph struct {
	children    map[string][]string
	invalidated []string
}

func (g *fakeGraph) Chain(id string) []string {
	if _, ok := g.children[id]; !ok {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	var walk func(string)
	walk = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
		for _, c := range g.children[id] {
			walk(c)
		}
	}
	walk(id)
	return out
}

func (g *fakeGraph) Invalidate(id string) []string {
	g.invalidated = append(g.invalidated, id)
	return []string{id}
}

type fakeFiles struct {
	paths map[string]int
}

func newFakeFiles() *fakeFiles { return &fakeFiles{paths: map[string]int{}} }

func (f *fakeFiles) Add(path string) error {
	f.paths[path]++
	return nil
}

func (f *fakeFiles) Remove(path string) {
	delete(f.paths, path)
}

func (f *fakeFiles) list() []string {
	var out []string
	for p := range f.paths {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

func TestWatchChain(t *testing.T) {
	g := &fakeGraph{children: map[string][]string{
		"/r/entry.yaml": {"/r/data.yaml", "/r/body.txt"},
		"/r/data.yaml":  {"/r/deep.yaml"},
		"/r/body.txt":   nil,
		"/r/deep.yaml":  nil,
	}}
	files := newFakeFiles()
	w, err := New(g, files)
	require.NoError(t, err)

	require.NoError(t, w.WatchChain("/r/entry.yaml"))
	want := []string{"/r/body.txt", "/r/data.yaml", "/r/deep.yaml", "/r/entry.yaml"}
	assert.Equal(t, want, w.Watched())
	assert.Equal(t, want, files.list())

	// Watching again does not re-add.
	require.NoError(t, w.WatchChain("/r/entry.yaml"))
	assert.Equal(t, 1, files.paths["/r/data.yaml"])
}

func TestUnwatchChain_KeepsSelfAndPinned(t *testing.T) {
	g := &fakeGraph{children: map[string][]string{
		"/r/entry.yaml":  {"/r/data.yaml", "/r/shared.yaml"},
		"/r/data.yaml":   nil,
		"/r/shared.yaml": nil,
	}}
	files := newFakeFiles()
	w, err := New(g, files)
	require.NoError(t, err)

	require.NoError(t, w.Pin("/r/entry.yaml"))
	require.NoError(t, w.Pin("/r/shared.yaml"))
	require.NoError(t, w.WatchChain("/r/entry.yaml"))

	w.UnwatchChain("/r/entry.yaml")
	assert.Equal(t, []string{"/r/entry.yaml", "/r/shared.yaml"}, w.Watched())
	assert.Equal(t, []string{"/r/entry.yaml", "/r/shared.yaml"}, files.list())
	assert.Equal(t, []string{"/r/entry.yaml", "/r/shared.yaml"}, w.Pinned())
}

func TestUnwatchChain_UnknownIDIsNoop(t *testing.T) {
	files := newFakeFiles()
	w, err := New(&fakeGraph{}, files)
	require.NoError(t, err)
	require.NoError(t, w.Pin("/data"))

	w.UnwatchChain("/data/x.json")
	assert.Equal(t, []string{"/data"}, files.list())
}

func TestIgnore(t *testing.T) {
	g := &fakeGraph{children: map[string][]string{
		"/r/entry.yaml":          {"/r/node_modules/x.yaml", "/r/vendor/v.yaml", "/r/a.yaml"},
		"/r/node_modules/x.yaml": nil,
		"/r/vendor/v.yaml":       nil,
		"/r/a.yaml":              nil,
	}}
	files := newFakeFiles()
	w, err := New(g, files,
		WithIgnore(regexp.MustCompile(`node_modules`)),
		WithIgnoreGlobs([]string{"/r/vendor/**"}),
	)
	require.NoError(t, err)

	require.NoError(t, w.WatchChain("/r/entry.yaml"))
	assert.Equal(t, []string{"/r/a.yaml", "/r/entry.yaml"}, w.Watched())
	assert.True(t, w.Ignored("/r/vendor/v.yaml"))
	assert.False(t, w.Ignored("/r/a.yaml"))
}

func TestNew_BadIgnoreGlob(t *testing.T) {
	_, err := New(&fakeGraph{}, newFakeFiles(), WithIgnoreGlobs([]string{"[a-"}))
	assert.Error(t, err)
}

func TestInvalidate_Delegates(t *testing.T) {
	g := &fakeGraph{}
	w, err := New(g, newFakeFiles())
	require.NoError(t, err)

	assert.Equal(t, []string{"/r/a.yaml"}, w.Invalidate("/r/a.yaml"))
	assert.Equal(t, []string{"/r/a.yaml"}, g.invalidated)
}

func TestWithLoaderCache(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "entry.yaml")
	data := filepath.Join(dir, "data.yaml")
	require.NoError(t, os.WriteFile(entry, []byte("- [/users, !include data.yaml]\n"), 0o644))
	require.NoError(t, os.WriteFile(data, []byte("name: jack\n"), 0o644))

	l := loader.New(nil)
	_, err := l.Load(entry)
	require.NoError(t, err)

	files := newFakeFiles()
	w, err := New(l.Cache(), files)
	require.NoError(t, err)

	entryID, err := loader.ID(entry)
	require.NoError(t, err)
	dataID, err := loader.ID(data)
	require.NoError(t, err)

	require.NoError(t, w.Pin(entryID))
	require.NoError(t, w.WatchChain(entryID))
	assert.ElementsMatch(t, []string{entryID, dataID}, w.Watched())

	// Changing data.yaml drops both modules.
	w.UnwatchChain(dataID)
	assert.ElementsMatch(t, []string{entryID, dataID}, w.Invalidate(dataID))
	_, ok := l.Cache().Get(entryID)
	assert.False(t, ok)

	_, err = l.Load(entry)
	require.NoError(t, err)
	require.NoError(t, w.WatchChain(entryID))

	// Replace the include; the old dependency leaves the watch set.
	other := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(other, []byte("name: jill\n"), 0o644))
	require.NoError(t, os.WriteFile(entry, []byte("- [/users, !include other.yaml]\n"), 0o644))
	w.UnwatchChain(entryID)
	w.Invalidate(entryID)

	_, err = l.Load(entry)
	require.NoError(t, err)
	require.NoError(t, w.WatchChain(entryID))

	otherID, err := loader.ID(other)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{entryID, otherID}, w.Watched())
}
