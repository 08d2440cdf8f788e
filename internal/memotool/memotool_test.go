package memotool

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecraft/sah/internal/mcptool"
	"github.com/forgecraft/sah/internal/memo"
)

func newTestStore(t *testing.T) *memo.Store {
	t.Helper()
	return memo.NewStore(t.TempDir())
}

func ctxWith(store *memo.Store) context.Context {
	return mcptool.WithToolContext(context.Background(), &mcptool.ToolContext{Memos: store})
}

func TestCreateGetUpdateDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := ctxWith(store)
	create := NewCreate()
	get := NewGet()
	update := NewUpdate()
	del := NewDelete()

	res, err := create.Execute(ctx, json.RawMessage(`{"title": "t", "content": "c"}`))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	all := store.List()
	require.Len(t, all, 1)
	id := all[0].ID

	res, err = get.Execute(ctx, json.RawMessage(`{"id": "`+id+`"}`))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = update.Execute(ctx, json.RawMessage(`{"id": "`+id+`", "title": "t2", "content": "c2"}`))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	m, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "t2", m.Title)

	res, err = del.Execute(ctx, json.RawMessage(`{"id": "`+id+`"}`))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	_, err = store.Get(id)
	require.Error(t, err)
}

func TestGetMissingIDReturnsError(t *testing.T) {
	store := newTestStore(t)
	get := NewGet()
	_, err := get.Execute(ctxWith(store), json.RawMessage(`{}`))
	require.Error(t, err)
}

func TestAllToolsRegisterUnderMemoCategory(t *testing.T) {
	r := mcptool.NewRegistry()
	require.NoError(t, r.Register(NewCreate()))
	require.NoError(t, r.Register(NewGet()))
	require.NoError(t, r.Register(NewList()))
	require.NoError(t, r.Register(NewUpdate()))
	require.NoError(t, r.Register(NewDelete()))

	assert.Len(t, r.Names(), 5)
	for _, tool := range r.GetCLIEligibleTools() {
		meta := r.CliMetadata(tool.Name())
		assert.Equal(t, "memo", meta.Category)
	}
}
