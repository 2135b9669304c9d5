// Package testutil provides shared test fixtures.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/business-anzsic-locator/internal/model"
	"github.com/Veraticus/business-anzsic-locator/internal/storage"
)

// NewHistoryStore opens a migrated history database in a temp dir that is closed
// when the test ends.
func NewHistoryStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return store
}

// SingleOutcome builds a one-business outcome classified by the direct type map.
func SingleOutcome(name, primaryType, code, title string) model.Outcome {
	return model.Outcome{
		Status: model.StatusSingle,
		Result: &model.ClassificationResult{
			BusinessName:              name,
			DetectedType:              primaryType,
			Address:                   "123 Test St",
			RawTypes:                  []string{primaryType},
			MatchMethod:               model.MatchDirectMap,
			RecommendedClassification: model.Classification{Code: code, Title: title},
		},
	}
}
