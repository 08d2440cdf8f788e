package kanbantool

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecraft/sah/internal/kanban"
	"github.com/forgecraft/sah/internal/mcptool"
)

func newTestStore(t *testing.T) *kanban.Store {
	t.Helper()
	return kanban.NewStore(t.TempDir())
}

func ctxWith(store *kanban.Store, broadcaster *kanban.PlanBroadcaster) context.Context {
	return mcptool.WithToolContext(context.Background(), &mcptool.ToolContext{
		Cards:      store,
		PlanSender: broadcaster,
	})
}

func TestAddCardGetList(t *testing.T) {
	store := newTestStore(t)
	ctx := ctxWith(store, nil)
	add := NewAddCard()
	get := NewGet()
	list := NewList()

	res, err := add.Execute(ctx, json.RawMessage(`{"title": "write docs"}`))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	all := store.List()
	require.Len(t, all, 1)
	id := all[0].ID

	res, err = get.Execute(ctx, json.RawMessage(`{"id": "`+id+`"}`))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = list.Execute(ctx, json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.False(t, res.IsError)
}

func TestMoveCardRejectsInvalidTransition(t *testing.T) {
	store := newTestStore(t)
	ctx := ctxWith(store, nil)
	add := NewAddCard()
	move := NewMoveCard()

	_, err := add.Execute(ctx, json.RawMessage(`{"title": "task"}`))
	require.NoError(t, err)
	id := store.List()[0].ID

	_, err = move.Execute(ctx, json.RawMessage(`{"id": "`+id+`", "column": "done"}`))
	require.Error(t, err)
}

func TestMoveCardBroadcastsNonBlocking(t *testing.T) {
	store := newTestStore(t)
	broadcaster := kanban.NewPlanBroadcaster(1)
	ctx := ctxWith(store, broadcaster)
	add := NewAddCard()
	move := NewMoveCard()

	_, err := add.Execute(ctx, json.RawMessage(`{"title": "task"}`))
	require.NoError(t, err)
	id := store.List()[0].ID

	_, err = move.Execute(ctx, json.RawMessage(`{"id": "`+id+`", "column": "in_progress"}`))
	require.NoError(t, err)

	select {
	case u := <-broadcaster.Updates():
		assert.Equal(t, id, u.CardID)
		assert.Equal(t, kanban.ColumnInProgress, u.Column)
	case <-time.After(time.Second):
		t.Fatal("expected a plan update")
	}

	// A full buffer must not block the move.
	_, err = move.Execute(ctx, json.RawMessage(`{"id": "`+id+`", "column": "done"}`))
	require.NoError(t, err)
	_, err = move.Execute(ctx, json.RawMessage(`{"id": "`+id+`", "column": "done"}`))
	require.NoError(t, err)
}

func TestAllToolsRegisterUnderKanbanCategory(t *testing.T) {
	r := mcptool.NewRegistry()
	require.NoError(t, r.Register(NewAddCard()))
	require.NoError(t, r.Register(NewGet()))
	require.NoError(t, r.Register(NewList()))
	require.NoError(t, r.Register(NewMoveCard()))

	assert.Len(t, r.Names(), 4)
	for _, tool := range r.GetCLIEligibleTools() {
		meta := r.CliMetadata(tool.Name())
		assert.Equal(t, "kanban", meta.Category)
	}
}
