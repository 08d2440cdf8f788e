// Package kanbantool wraps internal/kanban's Store as MCP tools:
// kanban_add_card, kanban_move_card, kanban_list, kanban_get.
// Follows internal/issuetool and internal/memotool's one-struct-per-tool
// pattern. MoveCard additionally feeds internal/kanban's PlanBroadcaster
// with a best-effort plan notification.
//
// As in issuetool/memotool, every tool here is stateless and pulls its
// kanban.Store (and, for MoveCard, the PlanBroadcaster) from the
// mcptool.ToolContext attached to ctx.
package kanbantool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/forgecraft/sah/internal/kanban"
	"github.com/forgecraft/sah/internal/mcptool"
	"github.com/forgecraft/sah/internal/parameter"
)

const category = "kanban"

var validator = parameter.NewValidator()

var idParam = []parameter.Parameter{
	parameter.New("id", "Card id", parameter.TypeString).WithRequired(true),
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

// --- kanban_add_card ---

var addCardParamsSchema = []parameter.Parameter{
	parameter.New("title", "Card title", parameter.TypeString).WithRequired(true),
}

type addCardParams struct {
	Title string `json:"title"`
}

type AddCard struct{}

func NewAddCard() *AddCard { return &AddCard{} }

func (t *AddCard) Name() string        { return "kanban_add_card" }
func (t *AddCard) Category() string    { return category }
func (t *AddCard) Description() string { return "Create a new kanban card in the todo column." }
func (t *AddCard) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "title": {"type": "string", "description": "Card title"}
  },
  "required": ["title"]
}`)
}

func (t *AddCard) Execute(ctx context.Context, params json.RawMessage) (*mcptool.ToolsCallResult, error) {
	var p addCardParams
	if err := decodeAndValidate(params, addCardParamsSchema, &p); err != nil {
		return nil, err
	}

	tc := mcptool.ToolContextFrom(ctx)
	c, err := tc.Cards.AddCard(p.Title)
	if err != nil {
		return nil, err
	}
	return mcptool.JSONResult(c)
}

// --- kanban_get ---

type getParams struct {
	ID string `json:"id"`
}

type Get struct{}

func NewGet() *Get { return &Get{} }

func (t *Get) Name() string        { return "kanban_get" }
func (t *Get) Category() string    { return category }
func (t *Get) Description() string { return "Fetch a single kanban card by id." }
func (t *Get) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "id": {"type": "string", "description": "Card id"}
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
	c, err := tc.Cards.Get(p.ID)
	if err != nil {
		return nil, err
	}
	return mcptool.JSONResult(c)
}

// --- kanban_list ---

type List struct{}

func NewList() *List { return &List{} }

func (t *List) Name() string                 { return "kanban_list" }
func (t *List) Category() string             { return category }
func (t *List) Description() string          { return "List every kanban card, sorted by creation order." }
func (t *List) InputSchema() json.RawMessage { return json.RawMessage(`{"type": "object"}`) }

func (t *List) Execute(ctx context.Context, params json.RawMessage) (*mcptool.ToolsCallResult, error) {
	tc := mcptool.ToolContextFrom(ctx)
	return mcptool.JSONResult(tc.Cards.List())
}

// --- kanban_move_card ---

var moveCardParamsSchema = []parameter.Parameter{
	parameter.New("id", "Card id", parameter.TypeString).WithRequired(true),
	parameter.New("column", "Destination column", parameter.TypeChoice).
		WithRequired(true).
		WithChoices("todo", "in_progress", "done"),
}

type moveCardParams struct {
	ID     string `json:"id"`
	Column string `json:"column"`
}

// MoveCard transitions a card between columns and, on success, pushes a
// PlanUpdate onto the ToolContext's PlanSender. PlanSender may be nil, in
// which case no notification is attempted.
type MoveCard struct{}

func NewMoveCard() *MoveCard { return &MoveCard{} }

func (t *MoveCard) Name() string        { return "kanban_move_card" }
func (t *MoveCard) Category() string    { return category }
func (t *MoveCard) Description() string { return "Move a kanban card to a different column." }
func (t *MoveCard) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "id": {"type": "string", "description": "Card id"},
    "column": {"type": "string", "enum": ["todo", "in_progress", "done"], "description": "Destination column"}
  },
  "required": ["id", "column"]
}`)
}

func (t *MoveCard) Execute(ctx context.Context, params json.RawMessage) (*mcptool.ToolsCallResult, error) {
	var p moveCardParams
	if err := decodeAndValidate(params, moveCardParamsSchema, &p); err != nil {
		return nil, err
	}

	tc := mcptool.ToolContextFrom(ctx)
	col := kanban.Column(p.Column)
	c, err := tc.Cards.MoveCard(p.ID, col)
	if err != nil {
		return nil, err
	}

	if tc.PlanSender != nil {
		tc.PlanSender.Send(kanban.PlanUpdate{CardID: c.ID, Column: c.Column})
	}

	return mcptool.JSONResult(c)
}
