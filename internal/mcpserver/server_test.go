package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecraft/sah/internal/mcptool"
	"github.com/forgecraft/sah/internal/parameter"
)

type echoTool struct{}

func (echoTool) Name() string                 { return "echo" }
func (echoTool) Description() string          { return "echoes input" }
func (echoTool) InputSchema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (echoTool) Execute(ctx context.Context, params json.RawMessage) (*mcptool.ToolsCallResult, error) {
	return mcptool.JSONResult(map[string]string{"ok": "true"})
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := mcptool.NewRegistry()
	require.NoError(t, reg.Register(echoTool{}))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(reg, mcptool.ServerInfo{Name: "sah", Version: "test"}, logger, &mcptool.ToolContext{Logger: logger})
}

func TestHandleMessageNotificationReturnsNil(t *testing.T) {
	s := newTestServer(t)
	resp := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	assert.Nil(t, resp)
}

func TestHandleMessageUnknownMethod(t *testing.T) {
	s := newTestServer(t)
	resp := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"bogus"}`))
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, mcptool.ErrCodeMethodNotFound, resp.Error.Code)
}

func TestHandleMessageToolsList(t *testing.T) {
	s := newTestServer(t)
	resp := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)
	result, ok := resp.Result.(*mcptool.ToolsListResult)
	require.True(t, ok)
	require.Len(t, result.Tools, 1)
	assert.Equal(t, "echo", result.Tools[0].Name)
}

func TestHandleMessageToolsCall(t *testing.T) {
	s := newTestServer(t)
	resp := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo"}}`))
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)
	result, ok := resp.Result.(*mcptool.ToolsCallResult)
	require.True(t, ok)
	assert.False(t, result.IsError)
}

func TestHandleMessageToolsCallUnknownTool(t *testing.T) {
	s := newTestServer(t)
	resp := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nope"}}`))
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, mcptool.ErrCodeMethodNotFound, resp.Error.Code)
}

type failingTool struct{ err error }

func (t failingTool) Name() string                 { return "failing" }
func (t failingTool) Description() string          { return "always fails" }
func (t failingTool) InputSchema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (t failingTool) Execute(ctx context.Context, params json.RawMessage) (*mcptool.ToolsCallResult, error) {
	return nil, t.err
}

func TestHandleMessageToolsCallMapsTypedErrorToRPCCode(t *testing.T) {
	reg := mcptool.NewRegistry()
	require.NoError(t, reg.Register(failingTool{err: parameter.MissingRequired("name")}))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewServer(reg, mcptool.ServerInfo{Name: "sah", Version: "test"}, logger, &mcptool.ToolContext{Logger: logger})

	resp := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"failing"}}`))
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, mcptool.ErrCodeInvalidParams, resp.Error.Code)
	data, ok := resp.Error.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "missing_required", data["error"])
}

func TestHandleMessageInitialize(t *testing.T) {
	s := newTestServer(t)
	resp := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"test"}}}`))
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)
	result, ok := resp.Result.(*mcptool.InitializeResult)
	require.True(t, ok)
	assert.NotNil(t, result.Capabilities.Tools)
	assert.Nil(t, result.Capabilities.Prompts)
}
