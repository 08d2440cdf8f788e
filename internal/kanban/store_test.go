package kanban

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func TestAddCardStartsInTodo(t *testing.T) {
	s := newTestStore(t)
	c, err := s.AddCard("write docs")
	require.NoError(t, err)
	assert.Equal(t, ColumnTodo, c.Column)
	assert.Equal(t, "write docs", c.Title)
}

func TestGetMissingCard(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get("nope")
	require.Error(t, err)
}

func TestListSortedByID(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddCard("first")
	require.NoError(t, err)
	_, err = s.AddCard("second")
	require.NoError(t, err)

	all := s.List()
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Title)
	assert.Equal(t, "second", all[1].Title)
}

func TestMoveCardValidTransition(t *testing.T) {
	s := newTestStore(t)
	c, err := s.AddCard("task")
	require.NoError(t, err)

	moved, err := s.MoveCard(c.ID, ColumnInProgress)
	require.NoError(t, err)
	assert.Equal(t, ColumnInProgress, moved.Column)

	moved, err = s.MoveCard(c.ID, ColumnDone)
	require.NoError(t, err)
	assert.Equal(t, ColumnDone, moved.Column)
}

func TestMoveCardRejectsSkippingInProgress(t *testing.T) {
	s := newTestStore(t)
	c, err := s.AddCard("task")
	require.NoError(t, err)

	_, err = s.MoveCard(c.ID, ColumnDone)
	require.Error(t, err)
}

func TestMoveCardRejectsLeavingDone(t *testing.T) {
	s := newTestStore(t)
	c, err := s.AddCard("task")
	require.NoError(t, err)

	_, err = s.MoveCard(c.ID, ColumnInProgress)
	require.NoError(t, err)
	_, err = s.MoveCard(c.ID, ColumnDone)
	require.NoError(t, err)

	_, err = s.MoveCard(c.ID, ColumnTodo)
	require.Error(t, err)
}

func TestMoveCardPersistsAcrossLoad(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	c, err := s.AddCard("task")
	require.NoError(t, err)
	_, err = s.MoveCard(c.ID, ColumnInProgress)
	require.NoError(t, err)

	reloaded := NewStore(dir)
	require.NoError(t, reloaded.Load())
	got, err := reloaded.Get(c.ID)
	require.NoError(t, err)
	assert.Equal(t, ColumnInProgress, got.Column)
}
