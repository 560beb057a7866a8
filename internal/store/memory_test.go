package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySaveAndGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Save(ctx, "a", Record{"name": "first"}))

	rec, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "first", rec.String("name"))

	_, ok, err = m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemorySaveOverwrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Save(ctx, "a", Record{"name": "first"}))
	require.NoError(t, m.Save(ctx, "a", Record{"name": "second"}))

	rec, _, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "second", rec.String("name"))

	count, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryRejectsEmptyID(t *testing.T) {
	m := NewMemory()
	assert.ErrorIs(t, m.Save(context.Background(), "", Record{}), ErrEmptyID)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	original := Record{"name": "first"}
	require.NoError(t, m.Save(ctx, "a", original))

	// Mutating either the input or a returned record must not leak into the
	// stored copy.
	original["name"] = "mutated"
	rec, _, err := m.Get(ctx, "a")
	require.NoError(t, err)
	rec["name"] = "also mutated"

	fresh, _, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "first", fresh.String("name"))
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Save(ctx, "a", Record{}))

	deleted, err := m.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = m.Delete(ctx, "a")
	require.NoError(t, err)
	assert.False(t, deleted)

	exists, err := m.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryList(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Save(ctx, "a", Record{"id": "a"}))
	require.NoError(t, m.Save(ctx, "b", Record{"id": "b"}))

	recs, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}
