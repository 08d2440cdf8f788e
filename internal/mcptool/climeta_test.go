package mcptool

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type categorizedTool struct {
	stubTool
	category string
}

func (c *categorizedTool) Category() string { return c.category }

type excludedTool struct {
	stubTool
}

func (e *excludedTool) CliExclusionReason() string { return "interactive-only" }

type hiddenTool struct {
	stubTool
}

func (h *hiddenTool) HiddenFromCLI() bool { return true }

func (c *categorizedTool) Execute(ctx context.Context, params json.RawMessage) (*ToolsCallResult, error) {
	return JSONResult(map[string]string{"name": c.name})
}

func TestGetCLIEligibleToolsExcludesMarkedAndHidden(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubTool{name: "memo_create"}))
	require.NoError(t, r.Register(&excludedTool{stubTool{name: "issue_internal"}}))
	require.NoError(t, r.Register(&hiddenTool{stubTool{name: "memo_debug"}}))

	eligible := r.GetCLIEligibleTools()
	require.Len(t, eligible, 1)
	assert.Equal(t, "memo_create", eligible[0].Name())
}

func TestCliMetadataReportsExclusionReason(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&excludedTool{stubTool{name: "issue_internal"}}))

	meta := r.CliMetadata("issue_internal")
	assert.True(t, meta.IsCliExcluded)
	assert.Equal(t, "interactive-only", meta.ExclusionReason)
}

func TestGetToolsForCategoryAndCategories(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&categorizedTool{stubTool{name: "issue_create"}, "issue"}))
	require.NoError(t, r.Register(&categorizedTool{stubTool{name: "issue_list"}, "issue"}))
	require.NoError(t, r.Register(&categorizedTool{stubTool{name: "memo_get"}, "memo"}))

	issueTools := r.GetToolsForCategory("issue")
	require.Len(t, issueTools, 2)

	cats := r.GetCLICategories()
	assert.Equal(t, []string{"issue", "memo"}, cats)
}

func TestAllCliMetadataPreservesRegistryOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubTool{name: "b_tool"}))
	require.NoError(t, r.Register(&stubTool{name: "a_tool"}))

	all := r.AllCliMetadata()
	require.Len(t, all, 2)
	assert.Equal(t, "b_tool", all[0].Name)
	assert.Equal(t, "a_tool", all[1].Name)
}
