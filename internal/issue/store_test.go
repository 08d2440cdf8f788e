package issue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func TestCreateWritesMarkdownFile(t *testing.T) {
	s := newTestStore(t)
	i, err := s.Create("fix-login", "# Fix login bug")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, i.Status)

	data, err := os.ReadFile(filepath.Join(s.root, "fix-login.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Fix login bug", string(data))
}

func TestCreateDuplicateNameRejected(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create("dup", "first")
	require.NoError(t, err)

	_, err = s.Create("dup", "second")
	require.Error(t, err)
}

func TestStartSetsSourceBranchOnce(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create("feature-x", "content")
	require.NoError(t, err)

	i, err := s.Start("feature-x", "develop")
	require.NoError(t, err)
	assert.Equal(t, "develop", i.SourceBranch)
	assert.Equal(t, StatusActive, i.Status)
}

func TestStartRejectsChangingSourceBranch(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create("feature-y", "content")
	require.NoError(t, err)
	_, err = s.Start("feature-y", "main")
	require.NoError(t, err)

	// Re-starting an already-active issue is itself an invalid transition,
	// so force the immutability check by resetting status directly.
	i, err := s.Get("feature-y")
	require.NoError(t, err)
	i.Status = StatusPending

	_, err = s.Start("feature-y", "develop")
	require.Error(t, err, "source branch must not change once recorded")
}

func TestCompleteRequiresSourceBranch(t *testing.T) {
	s := newTestStore(t)
	i, err := s.Create("no-branch", "content")
	require.NoError(t, err)
	i.Status = StatusActive // bypass Start to simulate a missing source branch

	_, err = s.Complete("no-branch")
	require.Error(t, err)
}

func TestCompleteMovesFileToCompleteDir(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create("done-me", "content")
	require.NoError(t, err)
	_, err = s.Start("done-me", "main")
	require.NoError(t, err)

	i, err := s.Complete("done-me")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, i.Status)
	require.NotNil(t, i.CompletedAt)

	_, err = os.Stat(filepath.Join(s.root, "done-me.md"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(s.root, "complete", "done-me.md"))
	assert.NoError(t, err)
}

func TestCompleteIsTerminal(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create("terminal", "content")
	require.NoError(t, err)
	_, err = s.Start("terminal", "main")
	require.NoError(t, err)
	_, err = s.Complete("terminal")
	require.NoError(t, err)

	_, err = s.Complete("terminal")
	require.Error(t, err, "completed is a terminal state")
}

func TestListReturnsSortedByName(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		_, err := s.Create(name, "x")
		require.NoError(t, err)
	}

	names := make([]string, 0, 3)
	for _, i := range s.List() {
		names = append(names, i.Name)
	}
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, names)
}

func TestLoadReadsPersistedIndex(t *testing.T) {
	dir := t.TempDir()
	s1 := NewStore(dir)
	_, err := s1.Create("survives-restart", "content")
	require.NoError(t, err)
	_, err = s1.Start("survives-restart", "main")
	require.NoError(t, err)

	s2 := NewStore(dir)
	require.NoError(t, s2.Load())

	i, err := s2.Get("survives-restart")
	require.NoError(t, err)
	assert.Equal(t, "main", i.SourceBranch)
	assert.Equal(t, StatusActive, i.Status)
}

func TestLoadOnEmptyStoreIsNoOp(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Load())
	assert.Empty(t, s.List())
}

func TestWorkBranchNaming(t *testing.T) {
	i := &Issue{Name: "my-issue"}
	assert.Equal(t, "issue/my-issue", i.WorkBranch())
}
