// Package issuetool wraps internal/issue's Store and Workflow as MCP
// tools: issue_create, issue_work, issue_complete, issue_merge,
// issue_list, issue_show. Each tool is a small stateless struct wrapping
// one operation of the filesystem-backed issue Store/Workflow.
//
// None of these tool structs hold a store or workflow themselves: every
// Execute pulls its dependencies from the mcptool.ToolContext attached to
// ctx, the same aggregate the MCP server and the generated CLI both
// attach before calling Registry.Execute. That keeps a single
// construction site (cmd/sah's app wiring) as the only place that knows
// about concrete stores.
package issuetool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/forgecraft/sah/internal/issue"
	"github.com/forgecraft/sah/internal/mcptool"
	"github.com/forgecraft/sah/internal/parameter"
)

// Category implements mcptool.Categorizer for every tool in this
// package, so the CLI generator groups them under one "issue" domain
// command.
const category = "issue"

var validator = parameter.NewValidator()

var nameParam = []parameter.Parameter{
	parameter.New("name", "Name of the issue", parameter.TypeString).WithRequired(true),
}

func validate(params []parameter.Parameter, values map[string]any) error {
	// None of this package's schemas declare a Condition today, but
	// decodeAndValidate is the one shared choke point every tool call
	// passes through, so a cycle introduced by a future conditional
	// parameter is caught here rather than in generated CLI help text.
	if err := parameter.DetectCycles(params); err != nil {
		return err
	}
	return validator.ValidateAll(params, values)
}

func decodeAndValidate(raw json.RawMessage, params []parameter.Parameter, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	values := map[string]any{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return validate(params, values)
}

// --- issue_create ---

var createParamsSchema = []parameter.Parameter{
	parameter.New("name", "Unique issue name, used as the work branch suffix", parameter.TypeString).WithRequired(true),
	parameter.New("content", "Markdown body describing the issue", parameter.TypeString).WithRequired(true),
}

type createParams struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type Create struct{}

func NewCreate() *Create { return &Create{} }

func (t *Create) Name() string        { return "issue_create" }
func (t *Create) Category() string    { return category }
func (t *Create) Description() string { return "Create a new issue with a name and markdown content." }
func (t *Create) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "name": {"type": "string", "description": "Unique issue name, used as the work branch suffix"},
    "content": {"type": "string", "description": "Markdown body describing the issue"}
  },
  "required": ["name", "content"]
}`)
}

func (t *Create) Execute(ctx context.Context, params json.RawMessage) (*mcptool.ToolsCallResult, error) {
	var p createParams
	if err := decodeAndValidate(params, createParamsSchema, &p); err != nil {
		return nil, err
	}

	tc := mcptool.ToolContextFrom(ctx)
	i, err := tc.Issues.Create(p.Name, p.Content)
	if err != nil {
		return nil, err
	}
	return mcptool.JSONResult(i)
}

// --- issue_work ---

type workParams struct {
	Name string `json:"name"`
}

type Work struct{}

func NewWork() *Work { return &Work{} }

func (t *Work) Name() string     { return "issue_work" }
func (t *Work) Category() string { return category }
func (t *Work) Description() string {
	return "Begin or resume work on an issue: creates and checks out its work branch, recording the current branch as the issue's source branch on first use."
}
func (t *Work) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "name": {"type": "string", "description": "Name of the issue to work on"}
  },
  "required": ["name"]
}`)
}

func (t *Work) Execute(ctx context.Context, params json.RawMessage) (*mcptool.ToolsCallResult, error) {
	var p workParams
	if err := decodeAndValidate(params, nameParam, &p); err != nil {
		return nil, err
	}

	tc := mcptool.ToolContextFrom(ctx)
	i, err := tc.IssueWorkflow.Work(ctx, p.Name)
	if err != nil {
		return nil, err
	}
	return mcptool.JSONResult(i)
}

// --- issue_complete ---

type completeParams struct {
	Name string `json:"name"`
}

type Complete struct{}

func NewComplete() *Complete { return &Complete{} }

func (t *Complete) Name() string     { return "issue_complete" }
func (t *Complete) Category() string { return category }
func (t *Complete) Description() string {
	return "Mark an issue completed and move its file into the complete/ directory. Does not merge its work branch."
}
func (t *Complete) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "name": {"type": "string", "description": "Name of the issue to complete"}
  },
  "required": ["name"]
}`)
}

func (t *Complete) Execute(ctx context.Context, params json.RawMessage) (*mcptool.ToolsCallResult, error) {
	var p completeParams
	if err := decodeAndValidate(params, nameParam, &p); err != nil {
		return nil, err
	}

	tc := mcptool.ToolContextFrom(ctx)
	i, err := tc.Issues.Complete(p.Name)
	if err != nil {
		return nil, err
	}
	return mcptool.JSONResult(i)
}

// --- issue_merge ---

type mergeParams struct {
	Name string `json:"name"`
}

type Merge struct{}

func NewMerge() *Merge { return &Merge{} }

func (t *Merge) Name() string     { return "issue_merge" }
func (t *Merge) Category() string { return category }
func (t *Merge) Description() string {
	return "Merge an issue's work branch back into its recorded source branch. Requires the current branch to be the issue's work branch."
}
func (t *Merge) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "name": {"type": "string", "description": "Name of the issue to merge"}
  },
  "required": ["name"]
}`)
}

func (t *Merge) Execute(ctx context.Context, params json.RawMessage) (*mcptool.ToolsCallResult, error) {
	var p mergeParams
	if err := decodeAndValidate(params, nameParam, &p); err != nil {
		return nil, err
	}

	tc := mcptool.ToolContextFrom(ctx)
	i, err := tc.IssueWorkflow.Merge(ctx, p.Name)
	if err != nil {
		return nil, err
	}
	return mcptool.JSONResult(i)
}

// issueView is the list/show response shape: the issue plus its work
// branch name while one is expected to exist (active issues only; a
// pending issue has no branch yet and a completed one has merged).
type issueView struct {
	*issue.Issue
	WorkBranch string `json:"work_branch,omitempty"`
}

func view(i *issue.Issue) issueView {
	v := issueView{Issue: i}
	if i.Status == issue.StatusActive {
		v.WorkBranch = i.WorkBranch()
	}
	return v
}

// --- issue_list ---

type List struct{}

func NewList() *List { return &List{} }

func (t *List) Name() string                 { return "issue_list" }
func (t *List) Category() string             { return category }
func (t *List) Description() string          { return "List every tracked issue, sorted by name." }
func (t *List) InputSchema() json.RawMessage { return json.RawMessage(`{"type": "object"}`) }

func (t *List) Execute(ctx context.Context, params json.RawMessage) (*mcptool.ToolsCallResult, error) {
	tc := mcptool.ToolContextFrom(ctx)
	issues := tc.Issues.List()
	views := make([]issueView, 0, len(issues))
	for _, i := range issues {
		views = append(views, view(i))
	}
	return mcptool.JSONResult(views)
}

// --- issue_show ---

type showParams struct {
	Name string `json:"name"`
}

type Show struct{}

func NewShow() *Show { return &Show{} }

func (t *Show) Name() string        { return "issue_show" }
func (t *Show) Category() string    { return category }
func (t *Show) Description() string { return "Show a single issue's content, status, and source branch." }
func (t *Show) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "name": {"type": "string", "description": "Name of the issue to show"}
  },
  "required": ["name"]
}`)
}

func (t *Show) Execute(ctx context.Context, params json.RawMessage) (*mcptool.ToolsCallResult, error) {
	var p showParams
	if err := decodeAndValidate(params, nameParam, &p); err != nil {
		return nil, err
	}

	tc := mcptool.ToolContextFrom(ctx)
	i, err := tc.Issues.Get(p.Name)
	if err != nil {
		return nil, err
	}
	return mcptool.JSONResult(view(i))
}
