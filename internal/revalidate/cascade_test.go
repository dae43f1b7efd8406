package revalidate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-cms/backend/internal/revalidate"
)

// recorder collects the revalidation requests a stub endpoint receives.
type recorder struct {
	mu   sync.Mutex
	reqs []revalidate.Request
}

func (r *recorder) add(req revalidate.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
}

func (r *recorder) all() []revalidate.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]revalidate.Request(nil), r.reqs...)
}

// newStubEndpoint returns a test server that records every request and
// responds with the status produced by status(req).
func newStubEndpoint(t *testing.T, rec *recorder, status func(revalidate.Request) int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req revalidate.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		rec.add(req)
		w.WriteHeader(status(req))
	}))
}

func ok(revalidate.Request) int { return http.StatusOK }

func TestDispatch_DeliversOneCallPerTarget(t *testing.T) {
	rec := &recorder{}
	srv := newStubEndpoint(t, rec, ok)
	defer srv.Close()

	c := revalidate.New(revalidate.Config{Endpoint: srv.URL, Secret: "s3cret"}, srv.Client(), nil)

	c.Dispatch(published("hello-world"), nil)
	c.Drain()

	got := rec.all()
	require.Len(t, got, 4) // /blog, /search, /blog/hello-world, tag:posts

	var gotPaths, gotTags []string
	for _, r := range got {
		assert.Equal(t, "s3cret", r.Secret)
		if r.Path != "" {
			gotPaths = append(gotPaths, r.Path)
		}
		if r.Tag != "" {
			gotTags = append(gotTags, r.Tag)
		}
	}
	assert.ElementsMatch(t, []string{"/blog", "/search", "/blog/hello-world"}, gotPaths)
	assert.ElementsMatch(t, []string{"posts"}, gotTags)
}

// Dispatch must return before any delivery completes; the write path never
// waits on the cache tier. The stub blocks every request until released.
func TestDispatch_DoesNotBlockCaller(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	c := revalidate.New(revalidate.Config{Endpoint: srv.URL, Secret: "s"}, srv.Client(), nil)

	done := make(chan struct{})
	go func() {
		c.Dispatch(published("slow"), nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on delivery")
	}
}

// One failing target must not affect the others: every target still gets its
// own attempt even when the endpoint rejects some of them.
func TestDispatch_IsolatesPerTargetFailures(t *testing.T) {
	rec := &recorder{}
	srv := newStubEndpoint(t, rec, func(req revalidate.Request) int {
		if req.Path == "/blog" {
			return http.StatusInternalServerError
		}
		return http.StatusOK
	})
	defer srv.Close()

	c := revalidate.New(revalidate.Config{Endpoint: srv.URL, Secret: "s"}, srv.Client(), nil)

	c.Dispatch(published("resilient"), nil)
	c.Drain()

	assert.Len(t, rec.all(), 4)
}

// A dead endpoint must be completely unobservable to the dispatching caller.
func TestDispatch_SwallowsConnectionErrors(t *testing.T) {
	c := revalidate.New(revalidate.Config{
		Endpoint: "http://127.0.0.1:1", // nothing listens here
		Secret:   "s",
		Timeout:  200 * time.Millisecond,
	}, nil, nil)

	c.Dispatch(published("unreachable"), nil)
	c.Drain() // must terminate; failures are logged, not raised
}

func TestDispatch_UnpublishDeliversOldPath(t *testing.T) {
	rec := &recorder{}
	srv := newStubEndpoint(t, rec, ok)
	defer srv.Close()

	c := revalidate.New(revalidate.Config{Endpoint: srv.URL, Secret: "s"}, srv.Client(), nil)

	prev := published("old-post")
	c.Dispatch(draft("old-post"), &prev)
	c.Drain()

	var gotPaths []string
	for _, r := range rec.all() {
		if r.Path != "" {
			gotPaths = append(gotPaths, r.Path)
		}
	}
	assert.Contains(t, gotPaths, "/blog/old-post")
}

func TestMemoryInvalidator_CountsAndIdempotence(t *testing.T) {
	m := revalidate.NewMemoryInvalidator()

	ctx := context.Background()
	require.NoError(t, m.InvalidatePath(ctx, "/blog/a"))
	require.NoError(t, m.InvalidatePath(ctx, "/blog/a"))
	require.NoError(t, m.InvalidateTag(ctx, "posts"))

	assert.Equal(t, 2, m.PathCount("/blog/a"))
	assert.Equal(t, 1, m.TagCount("posts"))
	assert.Equal(t, 0, m.PathCount("/blog/b"))
}
