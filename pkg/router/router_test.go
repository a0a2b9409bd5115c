package router

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/routemock/pkg/route"
)

func TestCompilePattern(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    map[string]string
		match   bool
	}{
		{"/users", "/users", map[string]string{}, true},
		{"/users", "/users/", map[string]string{}, true},
		{"/users", "/orders", nil, false},
		{"/users/:id", "/users/42", map[string]string{"id": "42"}, true},
		{"/users/{id}", "/users/42", map[string]string{"id": "42"}, true},
		{"/users/:id", "/users/42/posts", nil, false},
		{"/users/:id/posts/:post", "/users/1/posts/2", map[string]string{"id": "1", "post": "2"}, true},
		{"/files/*", "/files/a/b/c.txt", map[string]string{"0": "a/b/c.txt"}, true},
		{"/files/*", "/files", map[string]string{"0": ""}, true},
		{"/api/*/items/*", "/api/users/items/789", map[string]string{"0": "users", "1": "789"}, true},
		{"/", "/", map[string]string{}, true},
		{"/", "/x", nil, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s~%s", tt.pattern, tt.path), func(t *testing.T) {
			p, err := CompilePattern(tt.pattern)
			require.NoError(t, err)
			got, ok := p.Match(tt.path)
			assert.Equal(t, tt.match, ok)
			if tt.match {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCompilePattern_Invalid(t *testing.T) {
	for _, pattern := range []string{"users", "", "/users/:", "/users/{}", "/a/{id", "/a/:id/b/:id", "/a/:bad-name"} {
		t.Run(pattern, func(t *testing.T) {
			_, err := CompilePattern(pattern)
			assert.ErrorIs(t, err, ErrInvalidPattern)
		})
	}
}

func text(s string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(s))
	})
}

func get(r http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRouter_FirstMatchWins(t *testing.T) {
	r := New()
	_, err := r.Handle("GET", "/users/me", text("me"))
	require.NoError(t, err)
	_, err = r.Handle("GET", "/users/:id", text("by id"))
	require.NoError(t, err)
	_, err = r.Handle("all", "/any", text("any"))
	require.NoError(t, err)

	assert.Equal(t, "me", get(r, "GET", "/users/me").Body.String())
	assert.Equal(t, "by id", get(r, "GET", "/users/7").Body.String())
	assert.Equal(t, "any", get(r, "DELETE", "/any").Body.String())
	assert.Equal(t, http.StatusOK, get(r, "HEAD", "/users/7").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "POST", "/users/7").Code)
}

func TestRouter_ParamsInContext(t *testing.T) {
	r := New()
	var got map[string]string
	_, err := r.HandleFunc("GET", "/u/:name", func(_ http.ResponseWriter, req *http.Request) {
		got = route.ParamsFrom(req.Context())
	})
	require.NoError(t, err)

	get(r, "GET", "/u/jack")
	assert.Equal(t, map[string]string{"name": "jack"}, got)
}

func TestRouter_NotFound(t *testing.T) {
	rec := get(New(), "GET", "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no route for GET /missing")

	custom := New(WithNotFound(text("custom")))
	assert.Equal(t, "custom", get(custom, "GET", "/missing").Body.String())
}

func TestRouter_InsertAndRemove(t *testing.T) {
	r := New()
	a, _ := r.Handle("GET", "/a", text("a"))
	d, _ := r.Handle("GET", "/d", text("d"))

	b, err := NewLayer("GET", "/b", text("b"))
	require.NoError(t, err)
	c, err := NewLayer("GET", "/c", text("c"))
	require.NoError(t, err)

	require.NoError(t, r.InsertAt(1, b, c))
	assert.Equal(t, []*Layer{a, b, c, d}, r.Layers())
	assert.Equal(t, 2, r.IndexOf(c))
	assert.Equal(t, -1, r.IndexOf(&Layer{}))

	removed, err := r.RemoveRange(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []*Layer{b, c}, removed)
	assert.Equal(t, []*Layer{a, d}, r.Layers())

	assert.Error(t, r.InsertAt(5, b))
	_, err = r.RemoveRange(1, 5)
	assert.Error(t, err)
}

func TestRouter_SnapshotsAreStable(t *testing.T) {
	r := New()
	a, _ := r.Handle("GET", "/a", text("a"))
	snap := r.Layers()

	_, err := r.RemoveRange(0, 1)
	require.NoError(t, err)
	assert.Equal(t, []*Layer{a}, snap)
}

func TestRouter_Strict(t *testing.T) {
	r := New(WithStrict(true))
	_, err := r.Handle("GET", "/a", text("a"))
	require.NoError(t, err)

	_, err = r.Handle("get", "/a", text("again"))
	assert.True(t, errors.Is(err, ErrConflict))

	x, _ := NewLayer("GET", "/x", text("x"))
	dup, _ := NewLayer("GET", "/a", text("a2"))
	err = r.InsertAt(0, x, dup)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, r.Len(), "rejected insert leaves the list untouched")

	// same pattern with another method is fine
	_, err = r.Handle("POST", "/a", text("post"))
	assert.NoError(t, err)
}

func TestRouter_ConcurrentServeAndMutate(t *testing.T) {
	r := New()
	_, _ = r.Handle("GET", "/stable", text("ok"))

	var wg sync.WaitGroup
	wg.Go(func() {
		for i := range 200 {
			l, _ := NewLayer("GET", fmt.Sprintf("/tmp/%d", i), text("tmp"))
			_ = r.InsertAt(0, l)
			_, _ = r.RemoveRange(0, 1)
		}
	})
	for range 4 {
		wg.Go(func() {
			for range 200 {
				if rec := get(r, "GET", "/stable"); rec.Body.String() != "ok" {
					t.Errorf("unexpected body %q", rec.Body.String())
					return
				}
			}
		})
	}
	wg.Wait()
}

func TestRouter_UpdateIsAllOrNothing(t *testing.T) {
	r := New()
	a, _ := r.Handle("GET", "/a", text("a"))
	b, _ := NewLayer("GET", "/b", text("b"))

	boom := errors.New("boom")
	err := r.Update(func(list *List) error {
		if _, err := list.RemoveRange(0, 1); err != nil {
			return err
		}
		if err := list.InsertAt(0, b); err != nil {
			return err
		}
		assert.Equal(t, []*Layer{b}, list.Layers())
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []*Layer{a}, r.Layers())

	require.NoError(t, r.Update(func(list *List) error {
		return list.InsertAt(list.IndexOf(a), b)
	}))
	assert.Equal(t, []*Layer{b, a}, r.Layers())
}
