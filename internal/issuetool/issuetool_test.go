package issuetool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecraft/sah/internal/gitops"
	"github.com/forgecraft/sah/internal/issue"
	"github.com/forgecraft/sah/internal/mcptool"
	"github.com/forgecraft/sah/internal/workflow"
)

func newTestStore(t *testing.T) *issue.Store {
	t.Helper()
	return issue.NewStore(t.TempDir())
}

func newTestGit(t *testing.T) *gitops.Git {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	readme := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(readme, []byte("hello"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	commit, err := wt.Commit("initial commit", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com"},
	})
	require.NoError(t, err)

	require.NoError(t, repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), commit)))
	require.NoError(t, repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))))

	g, err := gitops.Open(dir)
	require.NoError(t, err)
	return g
}

// ctxWith attaches a ToolContext backed by store (and, when non-nil, wf)
// the way cmd/sah's app wiring and the MCP server both do before calling
// Registry.Execute.
func ctxWith(store *issue.Store, wf *issue.Workflow) context.Context {
	return mcptool.WithToolContext(context.Background(), &mcptool.ToolContext{
		Issues:        store,
		IssueWorkflow: wf,
	})
}

func TestCreateRegistersUnderIssueCategory(t *testing.T) {
	create := NewCreate()
	assert.Equal(t, "issue_create", create.Name())
	assert.Equal(t, "issue", create.Category())
}

func TestCreateExecuteRequiresName(t *testing.T) {
	store := newTestStore(t)
	create := NewCreate()

	_, err := create.Execute(ctxWith(store, nil), json.RawMessage(`{"content": "body"}`))
	require.Error(t, err)
}

func TestCreateExecuteWritesIssue(t *testing.T) {
	store := newTestStore(t)
	create := NewCreate()

	res, err := create.Execute(ctxWith(store, nil), json.RawMessage(`{"name": "fix-login", "content": "# fix"}`))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	i, err := store.Get("fix-login")
	require.NoError(t, err)
	assert.Equal(t, "# fix", i.Content)
}

func TestListAndShow(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Create("alpha", "a")
	require.NoError(t, err)
	_, err = store.Create("beta", "b")
	require.NoError(t, err)

	ctx := ctxWith(store, nil)

	list := NewList()
	res, err := list.Execute(ctx, nil)
	require.NoError(t, err)
	assert.False(t, res.IsError)

	show := NewShow()
	res, err = show.Execute(ctx, json.RawMessage(`{"name": "alpha"}`))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	_, err = show.Execute(ctx, json.RawMessage(`{"name": "does-not-exist"}`))
	require.Error(t, err)
}

func TestAllToolsRegisterWithoutCollision(t *testing.T) {
	r := mcptool.NewRegistry()
	require.NoError(t, r.Register(NewCreate()))
	require.NoError(t, r.Register(NewWork()))
	require.NoError(t, r.Register(NewComplete()))
	require.NoError(t, r.Register(NewMerge()))
	require.NoError(t, r.Register(NewList()))
	require.NoError(t, r.Register(NewShow()))

	assert.Len(t, r.Names(), 6)
	for _, tool := range r.GetCLIEligibleTools() {
		meta := r.CliMetadata(tool.Name())
		assert.Equal(t, "issue", meta.Category)
	}
}

func TestWorkAndMergeUseWorkflowFromToolContext(t *testing.T) {
	store := newTestStore(t)
	g := newTestGit(t)
	guard := workflow.New(filepath.Join(t.TempDir(), ".swissarmyhammer"))
	wf := issue.NewWorkflow(store, g, guard)

	_, err := store.Create("fix-login", "# fix")
	require.NoError(t, err)

	ctx := ctxWith(store, wf)

	work := NewWork()
	res, err := work.Execute(ctx, json.RawMessage(`{"name": "fix-login"}`))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	merge := NewMerge()
	res, err = merge.Execute(ctx, json.RawMessage(`{"name": "fix-login"}`))
	require.NoError(t, err)
	assert.False(t, res.IsError)
}
