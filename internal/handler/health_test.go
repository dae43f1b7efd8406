package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_200(t *testing.T) {
	h := newHTTPHandler(&mockPostServicer{})

	rec := doRequest(h, http.MethodGet, "/healthz", nil, false)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ok", got["status"])
}
