// Package memotool wraps internal/memo's Store as MCP tools: memo_create,
// memo_get, memo_list, memo_update, memo_delete. Follows internal/
// issuetool's one-struct-per-tool pattern, trimmed to memo's simpler
// ID-keyed lifecycle.
//
// As in issuetool, every tool here is stateless and pulls its memo.Store
// from the mcptool.ToolContext attached to ctx rather than from its own
// constructor.
package memotool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/forgecraft/sah/internal/mcptool"
	"github.com/forgecraft/sah/internal/parameter"
)

const category = "memo"

var validator = parameter.NewValidator()

var idParam = []parameter.Parameter{
	parameter.New("id", "Memo id", parameter.TypeString).WithRequired(true),
}

func decodeAndValidate(raw json.RawMessage, params []parameter.Parameter, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	values := map[string]any{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	if err := parameter.DetectCycles(params); err != nil {
		return err
	}
	return validator.ValidateAll(params, values)
}

// --- memo_create ---

var createParamsSchema = []parameter.Parameter{
	parameter.New("title", "Short memo title", parameter.TypeString).WithRequired(true),
	parameter.New("content", "Memo body", parameter.TypeString).WithRequired(true),
}

type createParams struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type Create struct{}

func NewCreate() *Create { return &Create{} }

func (t *Create) Name() string        { return "memo_create" }
func (t *Create) Category() string    { return category }
func (t *Create) Description() string { return "Create a new freeform memo with a title and content." }
func (t *Create) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "title": {"type": "string", "description": "Short memo title"},
    "content": {"type": "string", "description": "Memo body"}
  },
  "required": ["title", "content"]
}`)
}

func (t *Create) Execute(ctx context.Context, params json.RawMessage) (*mcptool.ToolsCallResult, error) {
	var p createParams
	if err := decodeAndValidate(params, createParamsSchema, &p); err != nil {
		return nil, err
	}

	tc := mcptool.ToolContextFrom(ctx)
	m, err := tc.Memos.Create(p.Title, p.Content)
	if err != nil {
		return nil, err
	}
	return mcptool.JSONResult(m)
}

// --- memo_get ---

type getParams struct {
	ID string `json:"id"`
}

type Get struct{}

func NewGet() *Get { return &Get{} }

func (t *Get) Name() string        { return "memo_get" }
func (t *Get) Category() string    { return category }
func (t *Get) Description() string { return "Fetch a single memo by id." }
func (t *Get) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "id": {"type": "string", "description": "Memo id"}
  },
  "required": ["id"]
}`)
}

func (t *Get) Execute(ctx context.Context, params json.RawMessage) (*mcptool.ToolsCallResult, error) {
	var p getParams
	if err := decodeAndValidate(params, idParam, &p); err != nil {
		return nil, err
	}

	tc := mcptool.ToolContextFrom(ctx)
	m, err := tc.Memos.Get(p.ID)
	if err != nil {
		return nil, err
	}
	return mcptool.JSONResult(m)
}

// --- memo_list ---

type List struct{}

func NewList() *List { return &List{} }

func (t *List) Name() string                 { return "memo_list" }
func (t *List) Category() string             { return category }
func (t *List) Description() string          { return "List every memo, sorted by creation order." }
func (t *List) InputSchema() json.RawMessage { return json.RawMessage(`{"type": "object"}`) }

func (t *List) Execute(ctx context.Context, params json.RawMessage) (*mcptool.ToolsCallResult, error) {
	tc := mcptool.ToolContextFrom(ctx)
	return mcptool.JSONResult(tc.Memos.List())
}

// --- memo_update ---

var updateParamsSchema = []parameter.Parameter{
	parameter.New("id", "Memo id", parameter.TypeString).WithRequired(true),
	parameter.New("title", "New title", parameter.TypeString).WithRequired(true),
	parameter.New("content", "New content", parameter.TypeString).WithRequired(true),
}

type updateParams struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type Update struct{}

func NewUpdate() *Update { return &Update{} }

func (t *Update) Name() string        { return "memo_update" }
func (t *Update) Category() string    { return category }
func (t *Update) Description() string { return "Replace a memo's title and content." }
func (t *Update) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "id": {"type": "string", "description": "Memo id"},
    "title": {"type": "string", "description": "New title"},
    "content": {"type": "string", "description": "New content"}
  },
  "required": ["id", "title", "content"]
}`)
}

func (t *Update) Execute(ctx context.Context, params json.RawMessage) (*mcptool.ToolsCallResult, error) {
	var p updateParams
	if err := decodeAndValidate(params, updateParamsSchema, &p); err != nil {
		return nil, err
	}

	tc := mcptool.ToolContextFrom(ctx)
	m, err := tc.Memos.Update(p.ID, p.Title, p.Content)
	if err != nil {
		return nil, err
	}
	return mcptool.JSONResult(m)
}

// --- memo_delete ---

type deleteParams struct {
	ID string `json:"id"`
}

type Delete struct{}

func NewDelete() *Delete { return &Delete{} }

func (t *Delete) Name() string        { return "memo_delete" }
func (t *Delete) Category() string    { return category }
func (t *Delete) Description() string { return "Delete a memo by id." }
func (t *Delete) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "id": {"type": "string", "description": "Memo id"}
  },
  "required": ["id"]
}`)
}

func (t *Delete) Execute(ctx context.Context, params json.RawMessage) (*mcptool.ToolsCallResult, error) {
	var p deleteParams
	if err := decodeAndValidate(params, idParam, &p); err != nil {
		return nil, err
	}

	tc := mcptool.ToolContextFrom(ctx)
	if err := tc.Memos.Delete(p.ID); err != nil {
		return nil, err
	}
	return mcptool.JSONResult(map[string]string{"id": p.ID, "status": "deleted"})
}
