package storage

import (
	"context"
	"testing"

	"github.com/magabrotheeeer/classifieds/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_Listings(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	owner := newTestUser(t, s, "owner@x.io")
	other := newTestUser(t, s, "other@x.io")

	t.Run("create and get", func(t *testing.T) {
		l := newTestListing(t, s, owner.UUID, 0)
		assert.NotEmpty(t, l.ID)

		got, err := s.GetListing(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, owner.UUID, got.OwnerUID)
		assert.Equal(t, "Listing 0", got.Title)
		assert.Equal(t, 100, got.Price)
		assert.Equal(t, []models.Image{{ID: "img-0", URL: "http://img/0"}}, got.Images)
	})

	t.Run("create without images", func(t *testing.T) {
		l := &models.Listing{OwnerUID: owner.UUID, Title: "Bare", Price: 5, Category: "misc", Description: "d"}
		_, err := s.CreateListing(ctx, l)
		require.NoError(t, err)

		got, err := s.GetListing(ctx, l.ID)
		require.NoError(t, err)
		assert.NotNil(t, got.Images)
		assert.Empty(t, got.Images)
	})

	t.Run("list by owner", func(t *testing.T) {
		newTestListing(t, s, other.UUID, 1)
		newTestListing(t, s, other.UUID, 2)

		got, err := s.ListListingsByOwner(ctx, other.UUID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, l := range got {
			assert.Equal(t, other.UUID, l.OwnerUID)
		}
	})

	t.Run("list paged", func(t *testing.T) {
		all, err := s.ListListings(ctx, 100, 0)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(all), 3)

		page, err := s.ListListings(ctx, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, all[1].ID, page[0].ID)
	})

	t.Run("update and delete", func(t *testing.T) {
		l := newTestListing(t, s, owner.UUID, 3)
		l.Title = "Updated"
		l.Price = 999
		l.Images = nil
		require.NoError(t, s.UpdateListing(ctx, l))

		got, err := s.GetListing(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, "Updated", got.Title)
		assert.Equal(t, 999, got.Price)
		assert.Empty(t, got.Images)

		require.NoError(t, s.DeleteListing(ctx, l.ID))
		_, err = s.GetListing(ctx, l.ID)
		assert.ErrorIs(t, err, ErrListingNotFound)
		assert.ErrorIs(t, s.DeleteListing(ctx, l.ID), ErrListingNotFound)
	})

	t.Run("update missing", func(t *testing.T) {
		err := s.UpdateListing(ctx, &models.Listing{ID: "00000000-0000-0000-0000-000000000000", Title: "x", Price: 1})
		assert.ErrorIs(t, err, ErrListingNotFound)
	})
}
