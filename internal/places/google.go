// Package places looks up businesses by address through the Google Places API (New),
// with a keyword-driven demo lookup for running without credentials.
package places

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	placesapi "google.golang.org/api/places/v1"

	"github.com/Veraticus/business-anzsic-locator/internal/common"
	"github.com/Veraticus/business-anzsic-locator/internal/model"
	"github.com/Veraticus/business-anzsic-locator/internal/resilience"
)

// Field masks requested from the Places API. Nearby results never need a location.
const (
	textSearchFieldMask   = "places.displayName,places.primaryType,places.types,places.formattedAddress,places.location"
	nearbySearchFieldMask = "places.displayName,places.primaryType,places.types,places.formattedAddress"
)

const (
	defaultTextTimeout   = 10 * time.Second
	defaultNearbyTimeout = 5 * time.Second
)

// StatusError is a non-2xx answer from the Places API.
type StatusError struct {
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("places API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("places API error (status %d): %s", e.StatusCode, e.Message)
}

// Config configures the Google Places client.
type Config struct {
	Executor      *resilience.Executor
	Logger        *slog.Logger
	APIKey        string
	Endpoint      string
	TextTimeout   time.Duration
	NearbyTimeout time.Duration
}

// GoogleClient implements text and nearby search against places.googleapis.com.
type GoogleClient struct {
	svc           *placesapi.Service
	executor      *resilience.Executor
	logger        *slog.Logger
	textTimeout   time.Duration
	nearbyTimeout time.Duration
}

// NewGoogleClient creates a Places client authenticated with an API key.
func NewGoogleClient(ctx context.Context, cfg Config) (*GoogleClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: places API key", common.ErrMissingConfig)
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := placesapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create places service: %w", err)
	}

	executor := cfg.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}

	return &GoogleClient{
		svc:           svc,
		executor:      executor,
		logger:        common.OrDefault(cfg.Logger),
		textTimeout:   orDuration(cfg.TextTimeout, defaultTextTimeout),
		nearbyTimeout: orDuration(cfg.NearbyTimeout, defaultNearbyTimeout),
	}, nil
}

// SearchText returns up to maxResults places matching the free-text query.
func (c *GoogleClient) SearchText(ctx context.Context, query string, maxResults int) ([]model.PlaceRecord, error) {
	req := &placesapi.GoogleMapsPlacesV1SearchTextRequest{
		TextQuery:      query,
		MaxResultCount: int64(maxResults),
	}

	var resp *placesapi.GoogleMapsPlacesV1SearchTextResponse
	err := c.executor.Execute(ctx, "places.search_text", func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.textTimeout)
		defer cancel()

		call := c.svc.Places.SearchText(req).Context(ctx)
		call.Header().Set("X-Goog-FieldMask", textSearchFieldMask)

		out, err := call.Do()
		if err != nil {
			return classify(err)
		}
		resp = out
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrPlaceLookup, err)
	}

	return convertPlaces(resp.Places), nil
}

// SearchNearby returns places inside the query circle.
func (c *GoogleClient) SearchNearby(ctx context.Context, q model.NearbyQuery) ([]model.PlaceRecord, error) {
	req := &placesapi.GoogleMapsPlacesV1SearchNearbyRequest{
		LocationRestriction: &placesapi.GoogleMapsPlacesV1SearchNearbyRequestLocationRestriction{
			Circle: &placesapi.GoogleMapsPlacesV1Circle{
				Center: &placesapi.GoogleTypeLatLng{
					Latitude:  q.Center.Latitude,
					Longitude: q.Center.Longitude,
				},
				Radius: q.RadiusMeters,
			},
		},
		MaxResultCount: int64(q.MaxResults),
	}
	if q.RankByDistance {
		req.RankPreference = "DISTANCE"
	}

	var resp *placesapi.GoogleMapsPlacesV1SearchNearbyResponse
	err := c.executor.Execute(ctx, "places.search_nearby", func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.nearbyTimeout)
		defer cancel()

		call := c.svc.Places.SearchNearby(req).Context(ctx)
		call.Header().Set("X-Goog-FieldMask", nearbySearchFieldMask)

		out, err := call.Do()
		if err != nil {
			return classify(err)
		}
		resp = out
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrPlaceLookup, err)
	}

	c.logger.Debug("nearby search complete",
		"latitude", q.Center.Latitude,
		"longitude", q.Center.Longitude,
		"results", len(resp.Places))

	return convertPlaces(resp.Places), nil
}

// classify turns API errors into StatusError and marks transient ones retryable.
func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		statusErr := &StatusError{StatusCode: gerr.Code, Message: strings.TrimSpace(gerr.Message)}
		retry := gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500
		return &common.RetryableError{Err: statusErr, Retryable: retry}
	}

	return &common.RetryableError{Err: err, Retryable: true}
}

func convertPlaces(in []*placesapi.GoogleMapsPlacesV1Place) []model.PlaceRecord {
	out := make([]model.PlaceRecord, 0, len(in))
	for _, p := range in {
		if p == nil {
			continue
		}
		out = append(out, convertPlace(p))
	}
	return out
}

func convertPlace(p *placesapi.GoogleMapsPlacesV1Place) model.PlaceRecord {
	rec := model.PlaceRecord{
		PrimaryType:      p.PrimaryType,
		FormattedAddress: p.FormattedAddress,
		Types:            p.Types,
	}
	if p.DisplayName != nil {
		rec.DisplayName = p.DisplayName.Text
	}
	if p.Location != nil {
		rec.Location = &model.LatLng{
			Latitude:  p.Location.Latitude,
			Longitude: p.Location.Longitude,
		}
	}
	return rec
}

func orDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
