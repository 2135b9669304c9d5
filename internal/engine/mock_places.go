package engine

import (
	"context"
	"sync"

	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

// MockPlaceLookup is a test implementation of PlaceLookup that returns canned
// results and records every query.
type MockPlaceLookup struct {
	TextErr       error
	NearbyErr     error
	TextResults   map[string][]model.PlaceRecord
	NearbyResults []model.PlaceRecord
	textQueries   []string
	nearbyQueries []model.NearbyQuery
	mu            sync.Mutex
}

// NewMockPlaceLookup creates an empty mock lookup.
func NewMockPlaceLookup() *MockPlaceLookup {
	return &MockPlaceLookup{TextResults: make(map[string][]model.PlaceRecord)}
}

// SearchText returns the canned results for query, capped at maxResults.
func (m *MockPlaceLookup) SearchText(_ context.Context, query string, maxResults int) ([]model.PlaceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.textQueries = append(m.textQueries, query)
	if m.TextErr != nil {
		return nil, m.TextErr
	}
	found := m.TextResults[query]
	if maxResults > 0 && len(found) > maxResults {
		found = found[:maxResults]
	}
	return found, nil
}

// SearchNearby returns NearbyResults regardless of the query.
func (m *MockPlaceLookup) SearchNearby(_ context.Context, query model.NearbyQuery) ([]model.PlaceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nearbyQueries = append(m.nearbyQueries, query)
	if m.NearbyErr != nil {
		return nil, m.NearbyErr
	}
	return m.NearbyResults, nil
}

// TextQueries returns a copy of the text queries received.
func (m *MockPlaceLookup) TextQueries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.textQueries...)
}

// NearbyQueries returns a copy of the nearby queries received.
func (m *MockPlaceLookup) NearbyQueries() []model.NearbyQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.NearbyQuery(nil), m.nearbyQueries...)
}
