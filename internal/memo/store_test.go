package memo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGetList(t *testing.T) {
	s := NewStore(t.TempDir())

	m1, err := s.Create("first", "body one")
	require.NoError(t, err)
	m2, err := s.Create("second", "body two")
	require.NoError(t, err)

	got, err := s.Get(m1.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, m1.ID, list[0].ID)
	assert.Equal(t, m2.ID, list[1].ID)
}

func TestUpdateAndDelete(t *testing.T) {
	s := NewStore(t.TempDir())
	m, err := s.Create("title", "body")
	require.NoError(t, err)

	updated, err := s.Update(m.ID, "new title", "new body")
	require.NoError(t, err)
	assert.Equal(t, "new title", updated.Title)

	require.NoError(t, s.Delete(m.ID))
	_, err = s.Get(m.ID)
	assert.Error(t, err)
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	s := NewStore(t.TempDir())
	_, err := s.Get("nonexistent")
	assert.Error(t, err)
}

func TestLoadPopulatesFromPersistedIndex(t *testing.T) {
	dir := t.TempDir()
	s1 := NewStore(dir)
	m, err := s1.Create("persisted", "body")
	require.NoError(t, err)

	s2 := NewStore(dir)
	require.NoError(t, s2.Load())
	got, err := s2.Get(m.ID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Title)
}
