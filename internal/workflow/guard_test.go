package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClearRemovesStaleSentinel(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(SentinelPath(dir), []byte("stale"), 0o644))

	g := New(dir)
	require.NoError(t, g.Clear())

	_, err := os.Stat(SentinelPath(dir))
	assert.True(t, os.IsNotExist(err))
}

func TestClearIsNoopWhenMissing(t *testing.T) {
	g := New(t.TempDir())
	assert.NoError(t, g.Clear())
}

func TestAbortWritesSentinelAndActiveReadsIt(t *testing.T) {
	dir := t.TempDir()

	g := New(dir)
	result, err := g.Abort(context.Background(), `Cannot merge issue "fix-login": current branch is "main", expected work branch "issue/fix-login"`)
	require.NoError(t, err)
	assert.Equal(t, HardBlock, result.Severity)

	reason, active, err := g.Active(context.Background())
	require.NoError(t, err)
	require.True(t, active)
	assert.Contains(t, reason, `Cannot merge issue "fix-login"`)
}

func TestActiveReturnsNilWhenNoSentinel(t *testing.T) {
	g := New(t.TempDir())
	reason, active, err := g.Active(context.Background())
	require.NoError(t, err)
	assert.False(t, active)
	assert.Empty(t, reason)
}

func TestSentinelPathUnderStateDir(t *testing.T) {
	assert.Equal(t, filepath.Join("root", ".abort"), SentinelPath("root"))
}
