package transport

import (
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicAuth(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://mdm.example.com/computers", nil)
	require.NoError(t, err)

	auth := &BasicAuth{User: "svc-sync", Password: "hunter2"}
	auth.Apply(req)

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("svc-sync:hunter2"))
	assert.Equal(t, want, req.Header.Get("Authorization"))
}

func TestBearerAuth(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://assets.example.com/api/v1/models", nil)
	require.NoError(t, err)

	auth := &BearerAuth{Token: "tok-123"}
	auth.Apply(req)

	assert.Equal(t, "Bearer tok-123", req.Header.Get("Authorization"))
}

func TestNoAuth(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://example.com", nil)
	require.NoError(t, err)

	(&NoAuth{}).Apply(req)

	assert.Empty(t, req.Header.Get("Authorization"))
}
