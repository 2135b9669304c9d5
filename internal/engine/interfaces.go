package engine

import (
	"context"
	"time"

	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

// PlaceLookup finds businesses by free text or proximity.
type PlaceLookup interface {
	SearchText(ctx context.Context, query string, maxResults int) ([]model.PlaceRecord, error)
	SearchNearby(ctx context.Context, query model.NearbyQuery) ([]model.PlaceRecord, error)
}

// AIClassifier classifies a batch of candidates the deterministic tiers could not.
// Names it cannot classify are absent from the returned map; it never fails.
type AIClassifier interface {
	ClassifyBatch(ctx context.Context, candidates []model.BatchCandidate) map[string]model.Classification
}

// Recorder observes resolver activity. Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveLookup(status string, duration time.Duration)
	ObserveCandidate(method model.MatchMethod)
	ObserveEscalation(candidates int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveLookup(string, time.Duration) {}
func (nopRecorder) ObserveCandidate(model.MatchMethod)  {}
func (nopRecorder) ObserveEscalation(int)               {}
