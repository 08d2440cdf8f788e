package clitree

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecraft/sah/internal/mcptool"
)

type fakeTool struct {
	name, desc string
	schema     string
	excluded   bool
}

func (f *fakeTool) Name() string                 { return f.name }
func (f *fakeTool) Description() string          { return f.desc }
func (f *fakeTool) InputSchema() json.RawMessage { return json.RawMessage(f.schema) }
func (f *fakeTool) CLIExcluded() bool            { return f.excluded }
func (f *fakeTool) Execute(ctx context.Context, params json.RawMessage) (*mcptool.ToolsCallResult, error) {
	return mcptool.JSONResult(map[string]string{"ok": "true"})
}

func registryWith(tools ...*fakeTool) *mcptool.Registry {
	r := mcptool.NewRegistry()
	for _, t := range tools {
		_ = r.Register(t)
	}
	return r
}

const issueCreateSchema = `{
  "type": "object",
  "properties": {
    "name": {"type": "string", "description": "issue name"},
    "content": {"type": "string", "description": "issue content"},
    "flexible_branch": {"type": "boolean", "description": "allow any source branch"}
  },
  "required": ["name"]
}`

func TestGenerateCommandsKeepsOriginalNames(t *testing.T) {
	reg := registryWith(
		&fakeTool{name: "issue_create", desc: "create an issue", schema: issueCreateSchema},
		&fakeTool{name: "memo_list", desc: "list memos", schema: `{"type":"object","properties":{}}`},
	)
	gen := NewGenerator(reg)

	commands, err := gen.GenerateCommands()
	require.NoError(t, err)
	require.Len(t, commands, 2)
	assert.Equal(t, "issue_create", commands[0].Name)
	assert.Equal(t, "memo_list", commands[1].Name)
}

func TestGenerateCommandsSkipsExcludedTools(t *testing.T) {
	reg := registryWith(
		&fakeTool{name: "issue_create", desc: "create", schema: issueCreateSchema},
		&fakeTool{name: "issue_work", desc: "work on an issue", schema: `{}`, excluded: true},
	)
	gen := NewGenerator(reg)

	commands, err := gen.GenerateCommands()
	require.NoError(t, err)
	require.Len(t, commands, 1)
	assert.Equal(t, "issue_create", commands[0].Name)
}

func TestGenerateCommandsIncludeExcluded(t *testing.T) {
	reg := registryWith(
		&fakeTool{name: "issue_create", desc: "create", schema: issueCreateSchema},
		&fakeTool{name: "issue_work", desc: "work on an issue", schema: `{}`, excluded: true},
	)
	gen := NewGenerator(reg).WithConfig(GenerationConfig{
		NamingStrategy:  KeepOriginal,
		MaxCommands:     500,
		IncludeExcluded: true,
	})

	commands, err := gen.GenerateCommands()
	require.NoError(t, err)
	assert.Len(t, commands, 2)
}

func TestTooManyCommands(t *testing.T) {
	reg := registryWith(
		&fakeTool{name: "issue_create", desc: "create", schema: issueCreateSchema},
		&fakeTool{name: "memo_list", desc: "list", schema: `{}`},
	)
	gen := NewGenerator(reg).WithConfig(GenerationConfig{NamingStrategy: KeepOriginal, MaxCommands: 1})

	_, err := gen.GenerateCommands()
	require.Error(t, err)
}

func TestConfigValidationEmptyPrefixAllowed(t *testing.T) {
	cfg := DefaultGenerationConfig()
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidationWhitespacePrefixRejected(t *testing.T) {
	cfg := DefaultGenerationConfig()
	cfg.CommandPrefix = "sah "
	assert.Error(t, cfg.Validate())
}

func TestConfigValidationZeroMaxCommandsRejected(t *testing.T) {
	cfg := DefaultGenerationConfig()
	cfg.MaxCommands = 0
	assert.Error(t, cfg.Validate())
}

func TestGroupByDomainCreatesSubcommandStructure(t *testing.T) {
	reg := registryWith(
		&fakeTool{name: "issue_create", desc: "create", schema: issueCreateSchema},
		&fakeTool{name: "issue_list", desc: "list", schema: `{}`},
	)
	gen := NewGenerator(reg).WithConfig(GenerationConfig{
		NamingStrategy: GroupByDomain,
		UseSubcommands: true,
		MaxCommands:    500,
	})

	commands, err := gen.GenerateCommands()
	require.NoError(t, err)

	var parent *GeneratedCommand
	var children []GeneratedCommand
	for i := range commands {
		if commands[i].IsSyntheticParent {
			parent = &commands[i]
		} else {
			children = append(children, commands[i])
		}
	}
	require.NotNil(t, parent)
	assert.Equal(t, "issue", parent.Name)
	require.Len(t, children, 2)
	for _, c := range children {
		assert.Equal(t, "issue", c.SubcommandOf)
	}
}

func TestSchemaToArgsRequiredScalarPresent(t *testing.T) {
	args, err := schemaToArgs(json.RawMessage(issueCreateSchema))
	require.NoError(t, err)

	var nameArg, boolArg Arg
	for _, a := range args {
		if a.Name == "name" {
			nameArg = a
		}
		if a.Name == "flexible_branch" {
			boolArg = a
		}
	}
	assert.True(t, nameArg.Required)
	assert.Equal(t, "string", nameArg.Type)
	assert.Equal(t, "boolean", boolArg.Type)
	assert.False(t, boolArg.Required, "not in this schema's required list")
}

func TestSchemaToArgsBooleanNeverRequired(t *testing.T) {
	schema := `{"type":"object","properties":{"force":{"type":"boolean"}},"required":["force"]}`
	args, err := schemaToArgs(json.RawMessage(schema))
	require.NoError(t, err)
	require.Len(t, args, 1)
	assert.False(t, args[0].Required, "a boolean flag is never required, even when the schema lists it")
}

func TestSchemaToArgsObjectPropertyBecomesJSONStringArg(t *testing.T) {
	schema := `{"type":"object","properties":{"metadata":{"type":"object","description":"extra fields"}}}`
	args, err := schemaToArgs(json.RawMessage(schema))
	require.NoError(t, err)
	require.Len(t, args, 1)
	assert.Equal(t, "object", args[0].Type)
	assert.Contains(t, args[0].Help, "JSON object string")
}

func TestSchemaToArgsArrayItemType(t *testing.T) {
	schema := `{"type":"object","properties":{"tags":{"type":"array","items":{"type":"string"}}}}`
	args, err := schemaToArgs(json.RawMessage(schema))
	require.NoError(t, err)
	require.Len(t, args, 1)
	assert.Equal(t, "array", args[0].Type)
	assert.Equal(t, "string", args[0].ItemType)
}

func TestSchemaToArgsUnsupportedTypeRejected(t *testing.T) {
	schema := `{"type":"object","properties":{"callback":{"type":"function"}}}`
	_, err := schemaToArgs(json.RawMessage(schema))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestSchemaToArgsNullTypeRejected(t *testing.T) {
	schema := `{"type":"object","properties":{"whatever":{"type":"null"}}}`
	_, err := schemaToArgs(json.RawMessage(schema))
	require.Error(t, err)
}

func TestEmptyRegistryGeneratesNoCommands(t *testing.T) {
	gen := NewGenerator(mcptool.NewRegistry())
	commands, err := gen.GenerateCommands()
	require.NoError(t, err)
	assert.Empty(t, commands)
}
