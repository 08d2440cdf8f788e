// Package mcpserver implements the MCP protocol over stdio and Streamable
// HTTP, dispatching tools/call through an internal/mcptool.Registry.
package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/forgecraft/sah/internal/errs"
	"github.com/forgecraft/sah/internal/mcptool"
)

// Server implements the MCP protocol over stdio.
type Server struct {
	registry *mcptool.Registry
	info     mcptool.ServerInfo
	logger   *slog.Logger
	toolCtx  *mcptool.ToolContext
}

// NewServer creates an MCP server with the given registry, server info, and
// ToolContext. toolCtx is attached to every tools/call dispatch the same
// way clitree.Build attaches it to the generated CLI's leaf commands, so a
// tool sees the same issue/memo/kanban stores, git handle, and rate
// limiter regardless of which transport invoked it.
func NewServer(registry *mcptool.Registry, info mcptool.ServerInfo, logger *slog.Logger, toolCtx *mcptool.ToolContext) *Server {
	return &Server{
		registry: registry,
		info:     info,
		logger:   logger,
		toolCtx:  toolCtx,
	}
}

// Run reads JSON-RPC requests from stdin and writes responses to stdout.
// It blocks until stdin is closed or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)
	// MCP messages can be large (e.g. issue content, compacted transcripts).
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)
	encoder := json.NewEncoder(os.Stdout)

	s.logger.Info("sah mcp server started", "name", s.info.Name, "version", s.info.Version)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := s.HandleMessage(ctx, line)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to write response", "error", err)
				return fmt.Errorf("writing response: %w", err)
			}
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("reading stdin: %w", err)
	}

	s.logger.Info("sah mcp server stopped (stdin closed)")
	return nil
}

// HandleMessage parses a JSON-RPC request and dispatches to the appropriate
// handler, returning nil for notifications that get no response. Exported
// so the HTTP transport can share the same dispatch path.
func (s *Server) HandleMessage(ctx context.Context, data []byte) *mcptool.Response {
	var req mcptool.Request
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Error("failed to parse request", "error", err)
		return &mcptool.Response{
			JSONRPC: "2.0",
			Error: &mcptool.RPCError{
				Code:    mcptool.ErrCodeParse,
				Message: "Parse error",
				Data:    err.Error(),
			},
		}
	}

	// Notifications (no ID) don't get a response.
	if req.ID == nil && req.Method == "notifications/initialized" {
		s.logger.Info("client initialized")
		return nil
	}
	if req.ID == nil {
		s.logger.Debug("received notification", "method", req.Method)
		return nil
	}

	s.logger.Debug("handling request", "method", req.Method, "id", string(req.ID))

	result, rpcErr := s.dispatch(ctx, &req)
	resp := &mcptool.Response{
		JSONRPC: "2.0",
		ID:      req.ID,
	}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}
	return resp
}

// dispatch routes a request to the appropriate handler method.
func (s *Server) dispatch(ctx context.Context, req *mcptool.Request) (any, *mcptool.RPCError) {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req.Params)
	case "tools/list":
		return s.handleToolsList()
	case "tools/call":
		return s.handleToolsCall(ctx, req.Params)
	case "prompts/list":
		return s.handlePromptsList()
	case "prompts/get":
		return s.handlePromptsGet(req.Params)
	case "resources/list":
		return s.handleResourcesList()
	case "resources/read":
		return s.handleResourcesRead(req.Params)
	default:
		return nil, &mcptool.RPCError{
			Code:    mcptool.ErrCodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		}
	}
}

// handleInitialize responds to the MCP handshake.
func (s *Server) handleInitialize(params json.RawMessage) (any, *mcptool.RPCError) {
	var initParams mcptool.InitializeParams
	if params != nil {
		if err := json.Unmarshal(params, &initParams); err != nil {
			return nil, &mcptool.RPCError{
				Code:    mcptool.ErrCodeInvalidParams,
				Message: "Invalid initialize params",
				Data:    err.Error(),
			}
		}
	}

	s.logger.Info("client connecting",
		"client", initParams.ClientInfo.Name,
		"client_version", initParams.ClientInfo.Version,
		"protocol_version", initParams.ProtocolVersion,
	)

	caps := mcptool.ServerCapability{
		Tools: &mcptool.ToolsCapability{},
	}
	if s.registry.HasPrompts() {
		caps.Prompts = &mcptool.PromptsCapability{}
	}
	if s.registry.HasResources() {
		caps.Resources = &mcptool.ResourcesCapability{}
	}

	return &mcptool.InitializeResult{
		ProtocolVersion: "2024-11-05",
		Capabilities:    caps,
		ServerInfo:      s.info,
	}, nil
}

// handleToolsList returns all registered tools.
func (s *Server) handleToolsList() (any, *mcptool.RPCError) {
	return &mcptool.ToolsListResult{
		Tools: s.registry.List(),
	}, nil
}

// handleToolsCall dispatches a tool call to the registry.
func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (any, *mcptool.RPCError) {
	var callParams mcptool.ToolsCallParams
	if err := json.Unmarshal(params, &callParams); err != nil {
		return nil, &mcptool.RPCError{
			Code:    mcptool.ErrCodeInvalidParams,
			Message: "Invalid tools/call params",
			Data:    err.Error(),
		}
	}

	s.logger.Info("calling tool", "tool", callParams.Name)

	result, err := s.registry.Execute(mcptool.WithToolContext(ctx, s.toolCtx), callParams.Name, callParams.Arguments)
	if err != nil {
		if s.registry.Get(callParams.Name) == nil {
			return nil, &mcptool.RPCError{
				Code:    mcptool.ErrCodeMethodNotFound,
				Message: fmt.Sprintf("tool not found: %s", callParams.Name),
			}
		}
		s.logger.Error("tool execution failed", "tool", callParams.Name, "error", err)
		return nil, rpcErrorFor(err)
	}

	return result, nil
}

// rpcErrorFor maps a tool execution error to its JSON-RPC shape. An
// *errs.E carries its own code and enhancement data; anything else (a
// plain Go error from a tool that didn't build on internal/errs) falls
// back to a generic internal error.
func rpcErrorFor(err error) *mcptool.RPCError {
	var e *errs.E
	if errs.As(err, &e) {
		data := map[string]any{"error": e.Code}
		for k, v := range e.Data {
			data[k] = v
		}
		if e.Enhanced != nil {
			if e.Enhanced.Explanation != "" {
				data["explanation"] = e.Enhanced.Explanation
			}
			if len(e.Enhanced.Examples) > 0 {
				data["examples"] = e.Enhanced.Examples
			}
			if len(e.Enhanced.Suggestions) > 0 {
				data["suggestions"] = e.Enhanced.Suggestions
			}
			data["recoverable"] = e.Enhanced.Recoverable
		}
		return &mcptool.RPCError{
			Code:    e.JSONRPCCode(),
			Message: e.Error(),
			Data:    data,
		}
	}

	return &mcptool.RPCError{
		Code:    mcptool.ErrCodeInternal,
		Message: fmt.Sprintf("tool execution failed: %v", err),
	}
}

// handlePromptsList returns all registered prompts.
func (s *Server) handlePromptsList() (any, *mcptool.RPCError) {
	return &mcptool.PromptsListResult{
		Prompts: s.registry.ListPrompts(),
	}, nil
}

// handlePromptsGet returns a specific prompt by name.
func (s *Server) handlePromptsGet(params json.RawMessage) (any, *mcptool.RPCError) {
	var getParams mcptool.PromptsGetParams
	if err := json.Unmarshal(params, &getParams); err != nil {
		return nil, &mcptool.RPCError{
			Code:    mcptool.ErrCodeInvalidParams,
			Message: "Invalid prompts/get params",
			Data:    err.Error(),
		}
	}

	prompt := s.registry.GetPrompt(getParams.Name)
	if prompt == nil {
		return nil, &mcptool.RPCError{
			Code:    mcptool.ErrCodeMethodNotFound,
			Message: fmt.Sprintf("prompt not found: %s", getParams.Name),
		}
	}

	s.logger.Debug("getting prompt", "prompt", getParams.Name)

	result, err := prompt.Get(getParams.Arguments)
	if err != nil {
		return nil, &mcptool.RPCError{
			Code:    mcptool.ErrCodeInternal,
			Message: fmt.Sprintf("prompt error: %v", err),
		}
	}

	return result, nil
}

// handleResourcesList returns all registered resources.
func (s *Server) handleResourcesList() (any, *mcptool.RPCError) {
	return &mcptool.ResourcesListResult{
		Resources: s.registry.ListResources(),
	}, nil
}

// handleResourcesRead returns the content of a specific resource.
func (s *Server) handleResourcesRead(params json.RawMessage) (any, *mcptool.RPCError) {
	var readParams mcptool.ResourcesReadParams
	if err := json.Unmarshal(params, &readParams); err != nil {
		return nil, &mcptool.RPCError{
			Code:    mcptool.ErrCodeInvalidParams,
			Message: "Invalid resources/read params",
			Data:    err.Error(),
		}
	}

	resource := s.registry.GetResource(readParams.URI)
	if resource == nil {
		return nil, &mcptool.RPCError{
			Code:    mcptool.ErrCodeMethodNotFound,
			Message: fmt.Sprintf("resource not found: %s", readParams.URI),
		}
	}

	s.logger.Debug("reading resource", "uri", readParams.URI)

	result, err := resource.Read()
	if err != nil {
		return nil, &mcptool.RPCError{
			Code:    mcptool.ErrCodeInternal,
			Message: fmt.Sprintf("resource read error: %v", err),
		}
	}

	return result, nil
}
