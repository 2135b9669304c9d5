package places

import (
	"context"
	"strings"

	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

// DemoSuffix marks business names produced by DemoLookup.
const DemoSuffix = " (MOCK DATA)"

// placeholderKeys are values shipped in sample config files that never authenticate.
var placeholderKeys = map[string]bool{
	"your_api_key_here": true,
}

// IsDemoKey reports whether key cannot reach the real API and demo data should be used.
func IsDemoKey(key string) bool {
	key = strings.TrimSpace(key)
	return key == "" || placeholderKeys[key]
}

type demoPlace struct {
	name        string
	primaryType string
	types       []string
	keywords    []string
}

// Checked in order; the last entry is the fallback.
var demoPlaces = []demoPlace{
	{keywords: []string{"gym", "fitness"}, name: "Demo Fitness Centre", primaryType: "gym", types: []string{"gym", "health", "point_of_interest"}},
	{keywords: []string{"bank"}, name: "Demo Bank Branch", primaryType: "bank", types: []string{"bank", "finance"}},
	{keywords: []string{"school"}, name: "Demo Primary School", primaryType: "school", types: []string{"school", "education"}},
	{keywords: []string{"hotel"}, name: "The Grand Demo Hotel", primaryType: "hotel", types: []string{"hotel", "accommodation"}},
	{keywords: []string{"doctor", "medical"}, name: "Demo Medical Centre", primaryType: "doctor", types: []string{"doctor", "health"}},
	{name: "The Demo Cafe", primaryType: "cafe", types: []string{"cafe", "restaurant", "food", "point_of_interest", "establishment"}},
}

// DemoLookup answers text searches with a canned business chosen by keywords in the
// address. It never returns a location, so generic-address escalation never runs.
type DemoLookup struct{}

// NewDemoLookup returns the offline lookup.
func NewDemoLookup() *DemoLookup {
	return &DemoLookup{}
}

// SearchText returns one mock place for query.
func (d *DemoLookup) SearchText(_ context.Context, query string, _ int) ([]model.PlaceRecord, error) {
	lower := strings.ToLower(query)

	chosen := demoPlaces[len(demoPlaces)-1]
	for _, p := range demoPlaces[:len(demoPlaces)-1] {
		if containsAny(lower, p.keywords) {
			chosen = p
			break
		}
	}

	return []model.PlaceRecord{{
		DisplayName:      chosen.name + DemoSuffix,
		PrimaryType:      chosen.primaryType,
		Types:            append([]string(nil), chosen.types...),
		FormattedAddress: query,
	}}, nil
}

// SearchNearby has no demo data.
func (d *DemoLookup) SearchNearby(context.Context, model.NearbyQuery) ([]model.PlaceRecord, error) {
	return nil, nil
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
