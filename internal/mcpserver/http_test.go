package mcpserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTPServer(t *testing.T, token string) *HTTPServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHTTPServer(newTestServer(t), "*", token, logger)
}

func TestAuthenticateNoTokenAcceptsAnyRequest(t *testing.T) {
	h := newTestHTTPServer(t, "")
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	assert.True(t, h.authenticate(req))
}

func TestAuthenticateRejectsMissingBearer(t *testing.T) {
	h := newTestHTTPServer(t, "secret")
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	assert.False(t, h.authenticate(req))
}

func TestAuthenticateAcceptsMatchingBearer(t *testing.T) {
	h := newTestHTTPServer(t, "secret")
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer secret")
	assert.True(t, h.authenticate(req))
}

func TestAuthenticateRejectsWrongBearer(t *testing.T) {
	h := newTestHTTPServer(t, "secret")
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	assert.False(t, h.authenticate(req))
}

func TestHandleHealth(t *testing.T) {
	h := newTestHTTPServer(t, "")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	h.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWithSSEIsAliasForWithStreamableHTTP(t *testing.T) {
	s := newTestServer(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := WithSSE(s, "*", "", logger)
	b := WithStreamableHTTP(s, "*", "", logger)
	require.NotNil(t, a)
	require.NotNil(t, b)
}
