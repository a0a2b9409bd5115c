package mount

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/routemock/pkg/route"
	"github.com/getmockd/routemock/pkg/router"
)

// textBuilder answers every route with its template.
type textBuilder struct{}

func (textBuilder) Build(spec *route.Spec) http.Handler {
	body, _ := spec.Template.(string)
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	})
}

func specs(pairs ...string) []*route.Spec {
	var out []*route.Spec
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, &route.Spec{Method: "GET", URL: pairs[i], Template: pairs[i+1]})
	}
	return out
}

func body(h http.Handler, path string) string {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Body.String()
}

func patterns(r *router.Router) []string {
	var out []string
	for _, l := range r.Layers() {
		out = append(out, l.Pattern.String())
	}
	return out
}

func TestMount_FirstMountAppends(t *testing.T) {
	host := router.New()
	_, _ = host.Handle("GET", "/__admin/status", http.NotFoundHandler())

	m := New(host)
	assert.Equal(t, Idle, m.State())

	require.NoError(t, m.Mount(specs("/a", "a", "/b", "b"), textBuilder{}))
	assert.Equal(t, Mounted, m.State())
	assert.Equal(t, []string{"/__admin/status", "/a", "/b"}, patterns(host))
	assert.Equal(t, NoAnchor, m.Set().Anchor)
	assert.Equal(t, "a", body(host, "/a"))
}

func TestMount_ReloadKeepsPosition(t *testing.T) {
	host := router.New()
	_, _ = host.Handle("GET", "/before", http.NotFoundHandler())

	m := New(host)
	require.NoError(t, m.Mount(specs("/a", "a1", "/b", "b1"), textBuilder{}))

	// registered after the first mount, so it sits behind the block
	_, _ = host.Handle("GET", "/after", http.NotFoundHandler())

	for range 3 {
		require.NoError(t, m.Mount(specs("/a", "a2", "/c", "c2", "/d", "d2"), textBuilder{}))
		assert.Equal(t, []string{"/before", "/a", "/c", "/d", "/after"}, patterns(host))
		assert.Equal(t, 1, m.Set().Anchor)
	}
	assert.Equal(t, "a2", body(host, "/a"))
	assert.Equal(t, http.StatusNotFound, func() int {
		rec := httptest.NewRecorder()
		host.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/b", nil))
		return rec.Code
	}())
	assert.Len(t, m.Specs(), 3)
}

func TestMount_EmptyReloadThenRefill(t *testing.T) {
	host := router.New()
	_, _ = host.Handle("GET", "/x", http.NotFoundHandler())
	m := New(host)
	require.NoError(t, m.Mount(specs("/a", "a"), textBuilder{}))
	_, _ = host.Handle("GET", "/y", http.NotFoundHandler())

	require.NoError(t, m.Mount(nil, textBuilder{}))
	assert.Equal(t, []string{"/x", "/y"}, patterns(host))
	assert.Equal(t, 1, m.Set().Anchor)

	// anchor does not move without a removal
	require.NoError(t, m.Mount(specs("/b", "b"), textBuilder{}))
	assert.Equal(t, []string{"/x", "/b", "/y"}, patterns(host))
}

func TestMount_InvalidPatternLeavesHostUntouched(t *testing.T) {
	host := router.New()
	_, _ = host.Handle("GET", "/ext", http.NotFoundHandler())
	m := New(host)
	require.NoError(t, m.Mount(specs("/a", "a"), textBuilder{}))
	before := host.Layers()

	err := m.Mount(specs("/ok", "ok", "no-slash", "bad"), textBuilder{})
	var mountErr *MountError
	require.True(t, errors.As(err, &mountErr))
	assert.Equal(t, "no-slash", mountErr.Pattern)
	assert.ErrorIs(t, err, router.ErrInvalidPattern)

	assert.Equal(t, Failed, m.State())
	assert.Equal(t, err, m.Err())
	assert.Equal(t, before, host.Layers())
	assert.Equal(t, "a", body(host, "/a"))
}

func TestMount_HostRejectionRestoresOldLayers(t *testing.T) {
	host := router.New(router.WithStrict(true))
	_, _ = host.Handle("GET", "/ext", http.NotFoundHandler())
	m := New(host)
	require.NoError(t, m.Mount(specs("/a", "a"), textBuilder{}))
	_, _ = host.Handle("GET", "/tail", http.NotFoundHandler())
	before := host.Layers()

	err := m.Mount(specs("/b", "b", "/ext", "conflict"), textBuilder{})
	var mountErr *MountError
	require.True(t, errors.As(err, &mountErr))
	assert.Equal(t, "/ext", mountErr.Pattern)
	assert.ErrorIs(t, err, router.ErrConflict)

	assert.Equal(t, before, host.Layers())
	assert.Equal(t, NoAnchor, m.Set().Anchor, "anchor unchanged by a failed swap")

	// a later good reload still lands at the original position
	require.NoError(t, m.Mount(specs("/c", "c"), textBuilder{}))
	assert.Equal(t, []string{"/ext", "/c", "/tail"}, patterns(host))
	assert.Nil(t, m.Err())
}

func TestMount_ExternallyRemovedLayersAreSkipped(t *testing.T) {
	host := router.New()
	m := New(host)
	require.NoError(t, m.Mount(specs("/a", "a", "/b", "b"), textBuilder{}))

	_, err := host.RemoveRange(1, 1)
	require.NoError(t, err)

	require.NoError(t, m.Mount(specs("/c", "c"), textBuilder{}))
	assert.Equal(t, []string{"/c"}, patterns(host))
	assert.Equal(t, 0, m.Set().Anchor)
}

func TestMount_BeginAbort(t *testing.T) {
	m := New(router.New())
	m.Begin()
	assert.Equal(t, Reloading, m.State())

	boom := errors.New("boom")
	m.Abort(boom)
	assert.Equal(t, Failed, m.State())
	assert.Equal(t, boom, m.Err())
	assert.Equal(t, "failed", m.State().String())
}
