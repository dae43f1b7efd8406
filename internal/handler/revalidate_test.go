package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-cms/backend/internal/handler"
	"github.com/inkwell-cms/backend/internal/revalidate"
)

// flakyInvalidator fails selected paths while recording every attempt.
type flakyInvalidator struct {
	*revalidate.MemoryInvalidator
	failPaths map[string]bool
	attempts  []string
}

func newFlakyInvalidator(failPaths ...string) *flakyInvalidator {
	f := &flakyInvalidator{
		MemoryInvalidator: revalidate.NewMemoryInvalidator(),
		failPaths:         map[string]bool{},
	}
	for _, p := range failPaths {
		f.failPaths[p] = true
	}
	return f
}

func (f *flakyInvalidator) InvalidatePath(ctx context.Context, path string) error {
	f.attempts = append(f.attempts, path)
	if f.failPaths[path] {
		return errors.New("cache backend unavailable")
	}
	return f.MemoryInvalidator.InvalidatePath(ctx, path)
}

func newRevalidateHandler(inv revalidate.CacheInvalidator, secret string) http.Handler {
	return handler.NewServer(&mockPostServicer{}, inv, secret, nil).Routes()
}

func TestRevalidate_200OnValidSecret(t *testing.T) {
	inv := revalidate.NewMemoryInvalidator()
	h := newRevalidateHandler(inv, "s3cret")

	rec := doRequest(h, http.MethodPost, "/api/revalidate", jsonBody(t, map[string]any{
		"secret": "s3cret",
		"path":   "/blog/hello",
		"paths":  []string{"/blog", "/search"},
		"tag":    "posts",
	}), false)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.OK)

	assert.Equal(t, 1, inv.PathCount("/blog/hello"))
	assert.Equal(t, 1, inv.PathCount("/blog"))
	assert.Equal(t, 1, inv.PathCount("/search"))
	assert.Equal(t, 1, inv.TagCount("posts"))
}

// A wrong secret must have no side effect at all.
func TestRevalidate_401OnWrongSecret(t *testing.T) {
	inv := revalidate.NewMemoryInvalidator()
	h := newRevalidateHandler(inv, "s3cret")

	rec := doRequest(h, http.MethodPost, "/api/revalidate", jsonBody(t, map[string]any{
		"secret": "wrong",
		"path":   "/blog/hello",
	}), false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, inv.PathCount("/blog/hello"))

	var got struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.OK)
	assert.NotEmpty(t, got.Message)
}

func TestRevalidate_401OnMissingSecret(t *testing.T) {
	h := newRevalidateHandler(revalidate.NewMemoryInvalidator(), "s3cret")

	rec := doRequest(h, http.MethodPost, "/api/revalidate", jsonBody(t, map[string]any{
		"path": "/blog/hello",
	}), false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// An empty configured secret must never accidentally match an empty field.
func TestRevalidate_401WhenSecretUnconfigured(t *testing.T) {
	h := newRevalidateHandler(revalidate.NewMemoryInvalidator(), "")

	rec := doRequest(h, http.MethodPost, "/api/revalidate", jsonBody(t, map[string]any{
		"secret": "",
		"path":   "/blog/hello",
	}), false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// One failing path must not stop the remaining paths, and the response is
// still ok — the dispatching side is fire-and-forget and cannot react.
func TestRevalidate_CollectAndContinue(t *testing.T) {
	inv := newFlakyInvalidator("/blog")
	h := newRevalidateHandler(inv, "s3cret")

	rec := doRequest(h, http.MethodPost, "/api/revalidate", jsonBody(t, map[string]any{
		"secret": "s3cret",
		"paths":  []string{"/blog", "/search", "/blog/hello"},
	}), false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"/blog", "/search", "/blog/hello"}, inv.attempts)
	assert.Equal(t, 1, inv.PathCount("/search"))
	assert.Equal(t, 1, inv.PathCount("/blog/hello"))
}

func TestRevalidate_400OnBadJSON(t *testing.T) {
	h := newRevalidateHandler(revalidate.NewMemoryInvalidator(), "s3cret")

	// An empty body fails to decode before the secret check runs.
	rec := doRequest(h, http.MethodPost, "/api/revalidate", nil, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
