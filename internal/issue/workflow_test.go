package issue

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecraft/sah/internal/gitops"
	"github.com/forgecraft/sah/internal/workflow"
)

func initRepoWithCommit(t *testing.T) string {
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

	_, err = wt.Commit("initial commit", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com"},
	})
	require.NoError(t, err)

	head, err := repo.Head()
	require.NoError(t, err)
	require.NoError(t, repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("feature/user-management"), head.Hash())))
	require.NoError(t, repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("feature/user-management"))))

	return dir
}

func newTestWorkflow(t *testing.T) (*Workflow, string) {
	t.Helper()
	dir := initRepoWithCommit(t)
	g, err := gitops.Open(dir)
	require.NoError(t, err)
	store := NewStore(filepath.Join(dir, ".swissarmyhammer", "issues"))
	guard := workflow.New(filepath.Join(dir, ".swissarmyhammer"))
	return NewWorkflow(store, g, guard), dir
}

func TestWorkflowWorkRecordsSourceBranchOnce(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	_, err := wf.Store.Create("user-tests", "# tests")
	require.NoError(t, err)

	i, err := wf.Work(context.Background(), "user-tests")
	require.NoError(t, err)
	assert.Equal(t, "feature/user-management", i.SourceBranch)
	assert.Equal(t, StatusActive, i.Status)

	current, err := wf.Git.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "issue/user-tests", current)
}

func TestWorkflowWorkIsIdempotentOnWorkBranch(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	_, err := wf.Store.Create("user-tests", "# tests")
	require.NoError(t, err)

	_, err = wf.Work(context.Background(), "user-tests")
	require.NoError(t, err)

	i, err := wf.Work(context.Background(), "user-tests")
	require.NoError(t, err)
	assert.Equal(t, "feature/user-management", i.SourceBranch)

	current, err := wf.Git.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "issue/user-tests", current)
}

func TestWorkflowWorkClearsStaleSentinel(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	_, err := wf.Store.Create("user-tests", "# tests")
	require.NoError(t, err)

	_, err = wf.Guard.Abort(context.Background(), "a previous run failed")
	require.NoError(t, err)

	_, err = wf.Work(context.Background(), "user-tests")
	require.NoError(t, err)

	_, active, err := wf.Guard.Active(context.Background())
	require.NoError(t, err)
	assert.False(t, active)
}

func TestWorkflowWorkForbiddenFromAnotherWorkBranch(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	_, err := wf.Store.Create("first", "# first")
	require.NoError(t, err)
	_, err = wf.Store.Create("second", "# second")
	require.NoError(t, err)

	_, err = wf.Work(context.Background(), "first")
	require.NoError(t, err)

	_, err = wf.Work(context.Background(), "second")
	require.Error(t, err)
}

func TestWorkflowMergeRequiresWorkBranch(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	_, err := wf.Store.Create("user-tests", "# tests")
	require.NoError(t, err)
	_, err = wf.Work(context.Background(), "user-tests")
	require.NoError(t, err)

	require.NoError(t, wf.Git.CheckoutBranch("feature/user-management"))

	_, err = wf.Merge(context.Background(), "user-tests")
	require.Error(t, err)

	reason, active, sErr := wf.Guard.Active(context.Background())
	require.NoError(t, sErr)
	require.True(t, active)
	assert.Contains(t, reason, "user-tests")
	assert.Contains(t, reason, "feature/user-management")
}

func TestWorkflowMergeSucceedsFromWorkBranch(t *testing.T) {
	wf, dir := newTestWorkflow(t)
	_, err := wf.Store.Create("great-feature", "# feature")
	require.NoError(t, err)
	_, err = wf.Work(context.Background(), "great-feature")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "feature.txt"), []byte("work"), 0o644))
	require.NoError(t, wf.Git.AddAll())
	require.NoError(t, wf.Git.Commit("add feature file"))

	_, err = wf.Merge(context.Background(), "great-feature")
	require.NoError(t, err)

	current, err := wf.Git.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "feature/user-management", current)
}
