package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studynotes/cmd/internal/domain/docstore"
)

func newTestStore(t *testing.T) *DocumentStore {
	t.Helper()

	db, err := Init(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return NewStore(db)
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := newTestStore(t)

	doc, err := store.Get(context.Background(), docstore.CollectionNotes, "nope")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, err := store.Create(ctx, docstore.CollectionSubjects, map[string]any{
		"title":     "Physics",
		"createdAt": docstore.ServerTimestamp,
	})
	require.NoError(t, err)
	require.NotEmpty(t, doc.ID)
	assert.Equal(t, "Physics", doc.Data["title"])

	// ServerTimestamp resolved to a concrete epoch-millis value.
	createdAt, ok := doc.Data["createdAt"].(float64)
	require.True(t, ok)
	assert.Greater(t, createdAt, float64(0))

	again, err := store.Get(ctx, docstore.CollectionSubjects, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, doc.Data, again.Data)
}

func TestSetOverwritesWholeDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Set(ctx, docstore.CollectionNotes, "n1", map[string]any{
		"title": "old", "content": "body",
	})
	require.NoError(t, err)

	err = store.Set(ctx, docstore.CollectionNotes, "n1", map[string]any{"title": "new"})
	require.NoError(t, err)

	doc, err := store.Get(ctx, docstore.CollectionNotes, "n1")
	require.NoError(t, err)
	assert.Equal(t, "new", doc.Data["title"])
	assert.NotContains(t, doc.Data, "content")
}

func TestUpdateMergesFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Set(ctx, docstore.CollectionNotes, "n1", map[string]any{
		"title": "old", "content": "body",
	})
	require.NoError(t, err)

	err = store.Update(ctx, docstore.CollectionNotes, "n1", map[string]any{"title": "new"})
	require.NoError(t, err)

	doc, err := store.Get(ctx, docstore.CollectionNotes, "n1")
	require.NoError(t, err)
	assert.Equal(t, "new", doc.Data["title"])
	assert.Equal(t, "body", doc.Data["content"])
}

func TestUpdateMissingReturnsErrNotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.Update(context.Background(), docstore.CollectionNotes, "nope", map[string]any{"title": "x"})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestUpdateResolvesArraySentinels(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Set(ctx, docstore.CollectionNotes, "n1", map[string]any{"tags": []string{"go"}})
	require.NoError(t, err)

	err = store.Update(ctx, docstore.CollectionNotes, "n1", map[string]any{
		"tags": docstore.ArrayUnion("db", "go"),
	})
	require.NoError(t, err)

	doc, err := store.Get(ctx, docstore.CollectionNotes, "n1")
	require.NoError(t, err)
	assert.Equal(t, []any{"go", "db"}, doc.Data["tags"])

	err = store.Update(ctx, docstore.CollectionNotes, "n1", map[string]any{
		"tags": docstore.ArrayRemove("go"),
	})
	require.NoError(t, err)

	doc, err = store.Get(ctx, docstore.CollectionNotes, "n1")
	require.NoError(t, err)
	assert.Equal(t, []any{"db"}, doc.Data["tags"])
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, docstore.CollectionNotes, "n1", map[string]any{"title": "x"}))
	require.NoError(t, store.Delete(ctx, docstore.CollectionNotes, "n1"))
	require.NoError(t, store.Delete(ctx, docstore.CollectionNotes, "n1"))

	doc, err := store.Get(ctx, docstore.CollectionNotes, "n1")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestQueryFiltersOrdersAndLimits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := []struct {
		id        string
		createdBy string
		updatedAt int64
		tags      []string
	}{
		{"a", "u1", 100, []string{"go"}},
		{"b", "u1", 300, []string{"go", "db"}},
		{"c", "u1", 200, nil},
		{"d", "u2", 400, []string{"go"}},
	}
	for _, row := range seed {
		require.NoError(t, store.Set(ctx, docstore.CollectionNotes, row.id, map[string]any{
			"createdBy": row.createdBy,
			"updatedAt": row.updatedAt,
			"tags":      row.tags,
		}))
	}

	docs, err := store.Query(ctx, docstore.CollectionNotes,
		docstore.Where("createdBy", docstore.OpEqual, "u1").
			OrderDesc("updatedAt").
			WithLimit(2))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[0].ID)
	assert.Equal(t, "c", docs[1].ID)

	docs, err = store.Query(ctx, docstore.CollectionNotes,
		docstore.Where("createdBy", docstore.OpEqual, "u1").
			Where("tags", docstore.OpArrayContains, "db"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b", docs[0].ID)
}

func TestQueryIsScopedToCollection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, docstore.CollectionNotes, "x", map[string]any{"kind": "note"}))
	require.NoError(t, store.Set(ctx, docstore.CollectionSubjects, "x", map[string]any{"kind": "subject"}))

	docs, err := store.Query(ctx, docstore.CollectionNotes, docstore.Query{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "note", docs[0].Data["kind"])
}

func TestBatchCommitsAtomically(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, docstore.CollectionNotes, "n1", map[string]any{"title": "x"}))

	batch := store.Batch()
	batch.Set(docstore.CollectionShares, "sh1", map[string]any{"itemId": "n1"})
	batch.Delete(docstore.CollectionNotes, "n1")
	require.NoError(t, batch.Commit(ctx))

	note, err := store.Get(ctx, docstore.CollectionNotes, "n1")
	require.NoError(t, err)
	assert.Nil(t, note)

	share, err := store.Get(ctx, docstore.CollectionShares, "sh1")
	require.NoError(t, err)
	require.NotNil(t, share)
}

func TestBatchRollsBackOnFailure(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch := store.Batch()
	batch.Set(docstore.CollectionShares, "sh1", map[string]any{"itemId": "n1"})
	// Updating a document that does not exist fails the whole batch.
	batch.Update(docstore.CollectionNotes, "missing", map[string]any{"title": "x"})

	err := batch.Commit(ctx)
	require.ErrorIs(t, err, docstore.ErrNotFound)

	share, gerr := store.Get(ctx, docstore.CollectionShares, "sh1")
	require.NoError(t, gerr)
	assert.Nil(t, share)
}

func TestBatchSharesOneTimestamp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch := store.Batch()
	batch.Set(docstore.CollectionNotes, "n1", map[string]any{"updatedAt": docstore.ServerTimestamp})
	batch.Set(docstore.CollectionShares, "sh1", map[string]any{"sharedAt": docstore.ServerTimestamp})
	require.NoError(t, batch.Commit(ctx))

	note, err := store.Get(ctx, docstore.CollectionNotes, "n1")
	require.NoError(t, err)
	share, err := store.Get(ctx, docstore.CollectionShares, "sh1")
	require.NoError(t, err)

	assert.Equal(t, note.Data["updatedAt"], share.Data["sharedAt"])
}
