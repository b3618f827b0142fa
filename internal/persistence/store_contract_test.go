package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrijr/flowtree/pkg/api"
)

func sampleTree() api.TreeSnapshot {
	return api.TreeSnapshot{
		Workflow: api.SnapshotOf("root-state"),
		Children: map[string]api.TreeSnapshot{
			"item/a": {Workflow: api.SnapshotOf("a-state")},
			"item/b": {
				Children: map[string]api.TreeSnapshot{
					"leaf/x": {Workflow: api.SnapshotOf("x-state")},
				},
			},
		},
	}
}

// testSnapshotStore exercises the SnapshotStore contract against store.
// The store must be empty when called.
func testSnapshotStore(t *testing.T, store SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("load missing", func(t *testing.T) {
		_, err := store.Load(ctx, "missing")
		require.ErrorIs(t, err, ErrSnapshotNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "tree-1", sampleTree()))

		got, err := store.Load(ctx, "tree-1")
		require.NoError(t, err)
		assert.Equal(t, sampleTree(), got)
	})

	t.Run("save overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "tree-2", sampleTree()))
		require.NoError(t, store.Save(ctx, "tree-2", api.TreeSnapshot{Workflow: api.SnapshotOf("v2")}))

		got, err := store.Load(ctx, "tree-2")
		require.NoError(t, err)
		assert.Equal(t, "v2", got.Workflow.String())
		assert.Empty(t, got.Children)
	})

	t.Run("list sorted", func(t *testing.T) {
		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"tree-1", "tree-2"}, keys)
	})

	t.Run("empty snapshot is not nil", func(t *testing.T) {
		snap := api.TreeSnapshot{
			Workflow: api.SnapshotOf(""),
			Children: map[string]api.TreeSnapshot{
				"item/empty": {Workflow: api.Snapshot{}},
				"item/none":  {Children: map[string]api.TreeSnapshot{"leaf/x": {Workflow: api.SnapshotOf("x")}}},
			},
		}
		require.NoError(t, store.Save(ctx, "tree-empty", snap))
		t.Cleanup(func() { _ = store.Delete(ctx, "tree-empty") })

		got, err := store.Load(ctx, "tree-empty")
		require.NoError(t, err)
		require.NotNil(t, got.Workflow)
		assert.Empty(t, got.Workflow)
		require.NotNil(t, got.Children["item/empty"].Workflow)
		assert.Nil(t, got.Children["item/none"].Workflow)
		assert.Equal(t, "x", got.Children["item/none"].Children["leaf/x"].Workflow.String())

		require.NoError(t, store.Delete(ctx, "tree-empty"))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "tree-1"))
		require.NoError(t, store.Delete(ctx, "tree-1"))

		_, err := store.Load(ctx, "tree-1")
		require.ErrorIs(t, err, ErrSnapshotNotFound)

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"tree-2"}, keys)
	})
}

// testEventStore exercises the EventStore contract against store.
func testEventStore(t *testing.T, store EventStore) {
	t.Helper()
	ctx := context.Background()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	evs := []api.Event{
		{RuntimeID: "rt-1", SessionID: 1, At: at, Type: api.EventSessionStarted, Workflow: "root"},
		{RuntimeID: "rt-2", SessionID: 7, At: at, Type: api.EventSessionStarted, Workflow: "other"},
		{RuntimeID: "rt-1", SessionID: 2, At: at.Add(time.Second), Type: api.EventChildRendered, Workflow: "item", Key: "a", Detail: "child"},
	}
	for _, ev := range evs {
		require.NoError(t, store.AppendEvent(ctx, ev))
	}

	got, err := store.ListEvents(ctx, "rt-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, api.EventSessionStarted, got[0].Type)
	assert.Equal(t, int64(1), got[0].SessionID)
	assert.True(t, at.Equal(got[0].At))

	assert.Equal(t, api.EventChildRendered, got[1].Type)
	assert.Equal(t, "item", got[1].Workflow)
	assert.Equal(t, "a", got[1].Key)
	assert.Equal(t, "child", got[1].Detail)

	none, err := store.ListEvents(ctx, "rt-unknown")
	require.NoError(t, err)
	assert.Empty(t, none)
}
