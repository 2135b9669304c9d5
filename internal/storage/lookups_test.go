package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

// createTestStorage opens a migrated database in a temp dir.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func singleOutcome(name, code, title string, method model.MatchMethod) model.Outcome {
	return model.Outcome{
		Status: model.StatusSingle,
		Result: &model.ClassificationResult{
			BusinessName:              name,
			DetectedType:              "cafe",
			Address:                   "1 Main St",
			RawTypes:                  []string{"cafe"},
			MatchMethod:               method,
			RecommendedClassification: model.Classification{Code: code, Title: title},
		},
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	require.ErrorIs(t, err, ErrEmptyString)

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	assert.Equal(t, ":memory:", store.Path())
}

func TestMigrate(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	// Running again is a no-op.
	require.NoError(t, store.Migrate(ctx))

	var version int
	require.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestRecordLookup(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	t.Run("single", func(t *testing.T) {
		outcome := singleOutcome("Test Cafe", "4511", "Cafes and Restaurants", model.MatchDirectMap)

		id, err := store.RecordLookup(ctx, "req-1", "1 Main St", outcome)
		require.NoError(t, err)
		assert.Positive(t, id)

		got, err := store.GetLookup(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "req-1", got.RequestID)
		assert.Equal(t, "1 Main St", got.Address)
		assert.Equal(t, "single", got.Status)
		assert.Equal(t, 1, got.CandidateCount)
		assert.Equal(t, outcome, got.Outcome)
		assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
	})

	t.Run("multiple with ai classification", func(t *testing.T) {
		outcome := model.Outcome{
			Status: model.StatusMultiple,
			Candidates: []model.ClassificationResult{
				singleOutcome("Test Cafe", "4511", "Cafes and Restaurants", model.MatchDirectMap).Results()[0],
				{
					BusinessName:              "Zephyr Holdings",
					DetectedType:              "corporate_office",
					Address:                   "1 Main St",
					RawTypes:                  []string{},
					MatchMethod:               model.MatchFailed,
					RecommendedClassification: model.UnknownClassification(),
					AIClassification:          &model.Classification{Code: "6932", Title: "Accounting Services"},
				},
			},
		}

		id, err := store.RecordLookup(ctx, "", "1 Main St", outcome)
		require.NoError(t, err)

		got, err := store.GetLookup(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, got.RequestID)
		assert.Equal(t, 2, got.CandidateCount)
		assert.Equal(t, outcome, got.Outcome)
	})

	t.Run("error outcome", func(t *testing.T) {
		id, err := store.RecordLookup(ctx, "req-3", "Nowhere", model.ErrorOutcome("No business found at this address."))
		require.NoError(t, err)

		got, err := store.GetLookup(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, StatusError, got.Status)
		assert.Equal(t, "No business found at this address.", got.Error)
		assert.Zero(t, got.CandidateCount)
	})

	t.Run("empty address", func(t *testing.T) {
		_, err := store.RecordLookup(ctx, "", "", model.Outcome{})
		require.ErrorIs(t, err, ErrEmptyString)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := store.GetLookup(ctx, 9999)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRecentLookups(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	addresses := []string{"1 A St", "2 B St", "3 C St"}
	for i, addr := range addresses {
		outcome := singleOutcome("Biz", "4511", "Cafes and Restaurants", model.MatchDirectMap)
		if i == 1 {
			outcome = singleOutcome("Law", "6931", "Legal Services", model.MatchKeyword)
		}
		_, err := store.RecordLookup(ctx, "", addr, outcome)
		require.NoError(t, err)
	}
	_, err := store.RecordLookup(ctx, "", "4 D St", model.ErrorOutcome("API Request Failed: boom"))
	require.NoError(t, err)

	t.Run("newest first", func(t *testing.T) {
		got, err := store.RecentLookups(ctx, HistoryFilter{})
		require.NoError(t, err)
		require.Len(t, got, 4)
		assert.Equal(t, "4 D St", got[0].Address)
		assert.Equal(t, "1 A St", got[3].Address)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := store.RecentLookups(ctx, HistoryFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("status", func(t *testing.T) {
		got, err := store.RecentLookups(ctx, HistoryFilter{Status: StatusError})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "4 D St", got[0].Address)
	})

	t.Run("code", func(t *testing.T) {
		got, err := store.RecentLookups(ctx, HistoryFilter{Code: "6931"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "2 B St", got[0].Address)
	})

	t.Run("since excludes older rows", func(t *testing.T) {
		future := time.Now().Add(time.Hour)
		got, err := store.RecentLookups(ctx, HistoryFilter{Since: &future})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("invalid filters", func(t *testing.T) {
		_, err := store.RecentLookups(ctx, HistoryFilter{Limit: -1})
		require.ErrorIs(t, err, ErrInvalidLimit)

		_, err = store.RecentLookups(ctx, HistoryFilter{Status: "pending"})
		require.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestDeleteLookupsBefore(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.RecordLookup(ctx, "", "1 A St", singleOutcome("Biz", "4511", "Cafes", model.MatchDirectMap))
	require.NoError(t, err)

	n, err := store.DeleteLookupsBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.DeleteLookupsBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := store.RecentLookups(ctx, HistoryFilter{Code: "4511"})
	require.NoError(t, err)
	assert.Empty(t, got)
}
