package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/pricebot/pkg/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	userID := "contract-test-user-" + time.Now().Format("20060102150405")

	matches := []domain.Match{
		{LanguageCode: "EN", PartitionID: "391082834", PublisherCost: decimal.NewFromInt(350)},
		{LanguageCode: "LT", PartitionID: "2698281907", PublisherCost: decimal.RequireFromString("99.9")},
	}

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession(userID, "acme.com", matches)

		err := store.Save(ctx, userID, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err, "Load should not return error")
		require.NoError(t, loaded.Validate())
		assert.Equal(t, "acme.com", loaded.Domain)
		assert.Equal(t, domain.StepAwaitingLanguageCode, loaded.Step)
		require.Len(t, loaded.Language.Matches, 2)
		assert.Equal(t, "LT", loaded.Language.Matches[1].LanguageCode)
		assert.True(t, loaded.Language.Matches[1].PublisherCost.Equal(decimal.RequireFromString("99.9")))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		session := domain.NewSession(userID, "acme.com", matches)
		session.SelectLanguage(matches[0])
		require.NoError(t, store.Save(ctx, userID, session))

		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, domain.StepAwaitingCopyDecision, loaded.Step)
		require.NotNil(t, loaded.Copy)
		assert.Nil(t, loaded.Language)
		assert.Equal(t, "EN", loaded.Copy.Selection.LanguageCode)
	})

	t.Run("Loaded Copy Is Isolated", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, userID, domain.NewSession(userID, "acme.com", matches)))

		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err)
		loaded.Domain = "mutated.com"

		again, err := store.Load(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "acme.com", again.Domain)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+userID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, userID, domain.NewSession(userID, "acme.com", matches))
		require.NoError(t, err)

		err = store.Delete(ctx, userID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, userID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, userID), "Deleting twice should be a no-op")
	})

	t.Run("List", func(t *testing.T) {
		id1 := userID + "-1"
		id2 := userID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1, "a.com", matches))
		_ = store.Save(ctx, id2, domain.NewSession(id2, "b.com", matches))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		users, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, users, id1)
		assert.Contains(t, users, id2)
	})
}
