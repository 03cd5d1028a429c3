package db_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/db/dbtest"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
)

func TestGuardianLifecycle(t *testing.T) {
	store := dbtest.NewStore(t)

	id, err := store.CreateGuardian("parent@example.com", "hash", nil)
	require.NoError(t, err)

	g, err := store.GetGuardianByEmail("parent@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, g.ID)
	assert.Nil(t, g.Name)

	name := "Alex"
	require.NoError(t, store.UpdateGuardianProfile(id, "alex@example.com", &name))
	g, err = store.GetGuardianByID(id)
	require.NoError(t, err)
	assert.Equal(t, "alex@example.com", g.Email)
	require.NotNil(t, g.Name)
	assert.Equal(t, "Alex", *g.Name)

	_, err = store.GetGuardianByEmail("parent@example.com")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, store.UpdateGuardianProfile(9999, "x@example.com", nil), sql.ErrNoRows)
}

func TestChildrenAndApprovedItems(t *testing.T) {
	store := dbtest.NewStore(t)
	fx := dbtest.Seed(t, store, "parent@example.com", 2, 1)

	children, err := store.ListChildrenForGuardian(fx.Guardian)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "child-1", children[0].Name)

	child, err := store.GetChild(fx.Children[1].ID)
	require.NoError(t, err)
	assert.Equal(t, fx.Guardian, child.GuardianID)

	thumb := "https://img.example.com/t.jpg"
	item, err := store.CreateApprovedItem(model.ApprovedItem{
		GuardianID:   fx.Guardian,
		VideoID:      "abc123",
		Title:        "Counting with Cats",
		ThumbnailURL: &thumb,
	})
	require.NoError(t, err)
	got, err := store.GetApprovedItem(item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Counting with Cats", got.Title)
	require.NotNil(t, got.ThumbnailURL)
	assert.Nil(t, got.DurationSeconds)

	_, err = store.GetChild(9999)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
