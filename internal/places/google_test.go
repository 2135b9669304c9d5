package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/business-anzsic-locator/internal/common"
	"github.com/Veraticus/business-anzsic-locator/internal/model"
	"github.com/Veraticus/business-anzsic-locator/internal/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *GoogleClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := resilience.DefaultConfig()
	cfg.RetryMaxAttempts = 2
	cfg.RetryInitialBackoff = time.Millisecond
	cfg.BreakerEnabled = false

	client, err := NewGoogleClient(context.Background(), Config{
		APIKey:   "test-key",
		Endpoint: server.URL + "/",
		Executor: resilience.NewExecutor(cfg),
	})
	require.NoError(t, err)
	return client
}

func TestNewGoogleClientRequiresKey(t *testing.T) {
	_, err := NewGoogleClient(context.Background(), Config{})
	require.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestSearchText(t *testing.T) {
	t.Run("converts places", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.True(t, strings.HasSuffix(r.URL.Path, "places:searchText"), r.URL.Path)
			assert.Equal(t, textSearchFieldMask, r.Header.Get("X-Goog-FieldMask"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "1 George St Sydney", body["textQuery"])
			assert.EqualValues(t, 1, body["maxResultCount"])

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"places":[{
				"displayName":{"text":"Test Cafe","languageCode":"en"},
				"primaryType":"cafe",
				"types":["cafe","restaurant"],
				"formattedAddress":"1 George St, Sydney NSW 2000",
				"location":{"latitude":-33.86,"longitude":151.21}
			}]}`))
		})

		got, err := client.SearchText(context.Background(), "1 George St Sydney", 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, model.PlaceRecord{
			DisplayName:      "Test Cafe",
			PrimaryType:      "cafe",
			Types:            []string{"cafe", "restaurant"},
			FormattedAddress: "1 George St, Sydney NSW 2000",
			Location:         &model.LatLng{Latitude: -33.86, Longitude: 151.21},
		}, got[0])
	})

	t.Run("empty result", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		})

		got, err := client.SearchText(context.Background(), "nowhere", 1)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("client error is not retried", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
		})

		_, err := client.SearchText(context.Background(), "1 George St", 1)
		require.ErrorIs(t, err, common.ErrPlaceLookup)

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
		assert.Contains(t, err.Error(), "API key not valid")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("server error is retried", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"places":[{"displayName":{"text":"Retry Cafe"},"primaryType":"cafe"}]}`))
		})

		got, err := client.SearchText(context.Background(), "1 George St", 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Retry Cafe", got[0].DisplayName)
		assert.Nil(t, got[0].Location)
		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestSearchNearby(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "places:searchNearby"), r.URL.Path)
		assert.Equal(t, nearbySearchFieldMask, r.Header.Get("X-Goog-FieldMask"))

		var body struct {
			LocationRestriction struct {
				Circle struct {
					Center struct {
						Latitude  float64 `json:"latitude"`
						Longitude float64 `json:"longitude"`
					} `json:"center"`
					Radius float64 `json:"radius"`
				} `json:"circle"`
			} `json:"locationRestriction"`
			RankPreference string `json:"rankPreference"`
			MaxResultCount int    `json:"maxResultCount"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.InDelta(t, -33.86, body.LocationRestriction.Circle.Center.Latitude, 1e-9)
		assert.InDelta(t, 50.0, body.LocationRestriction.Circle.Radius, 1e-9)
		assert.Equal(t, "DISTANCE", body.RankPreference)
		assert.Equal(t, 20, body.MaxResultCount)

		_, _ = w.Write([]byte(`{"places":[
			{"displayName":{"text":"Joe's Cafe"},"primaryType":"cafe","types":["cafe"]},
			{"displayName":{"text":"Level 2"},"primaryType":"subpremise"}
		]}`))
	})

	got, err := client.SearchNearby(context.Background(), model.NearbyQuery{
		Center:         model.LatLng{Latitude: -33.86, Longitude: 151.21},
		RadiusMeters:   50,
		MaxResults:     20,
		RankByDistance: true,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Joe's Cafe", got[0].DisplayName)
	assert.Equal(t, "subpremise", got[1].PrimaryType)
}

func TestDemoLookup(t *testing.T) {
	tests := []struct {
		address  string
		wantName string
		wantType string
	}{
		{"1 Fitness Way", "Demo Fitness Centre", "gym"},
		{"Gym Street", "Demo Fitness Centre", "gym"},
		{"10 Bank Rd", "Demo Bank Branch", "bank"},
		{"School Lane", "Demo Primary School", "school"},
		{"Hotel Ave", "The Grand Demo Hotel", "hotel"},
		{"Medical Plaza", "Demo Medical Centre", "doctor"},
		{"1 George St", "The Demo Cafe", "cafe"},
	}

	demo := NewDemoLookup()
	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			got, err := demo.SearchText(context.Background(), tt.address, 1)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantName+DemoSuffix, got[0].DisplayName)
			assert.Equal(t, tt.wantType, got[0].PrimaryType)
			assert.Equal(t, tt.address, got[0].FormattedAddress)
			assert.Nil(t, got[0].Location)
		})
	}

	nearby, err := demo.SearchNearby(context.Background(), model.NearbyQuery{})
	require.NoError(t, err)
	assert.Empty(t, nearby)
}

func TestIsDemoKey(t *testing.T) {
	assert.True(t, IsDemoKey(""))
	assert.True(t, IsDemoKey("  "))
	assert.True(t, IsDemoKey("your_api_key_here"))
	assert.False(t, IsDemoKey("AIzaSyExample"))
}
