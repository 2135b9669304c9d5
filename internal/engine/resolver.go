// Package engine resolves a free-text address to the businesses found there and their
// ANZSIC classifications.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/business-anzsic-locator/internal/common"
	"github.com/Veraticus/business-anzsic-locator/internal/matcher"
	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

// Messages returned in Outcome.Error.
const (
	MsgAddressRequired = "Address is required"
	MsgNoBusinessFound = "No business found at this address."
	MsgRequestFailed   = "API Request Failed"
)

// Defaults used when a result field is missing from the place record.
const (
	UnknownBusiness = "Unknown Business"
	UnknownAddress  = "Unknown Address"
)

const (
	defaultNearbyRadius     = 50.0
	defaultNearbyMaxResults = 20
)

// Config holds the nearby-search parameters.
type Config struct {
	NearbyRadius     float64
	NearbyMaxResults int
}

// DefaultConfig searches 50 meters around a generic address for up to 20 businesses.
func DefaultConfig() Config {
	return Config{
		NearbyRadius:     defaultNearbyRadius,
		NearbyMaxResults: defaultNearbyMaxResults,
	}
}

// Resolver drives the lookup and the classification tiers for each query.
type Resolver struct {
	places   PlaceLookup
	direct   *matcher.DirectTypeMapper
	keywords *matcher.KeywordMatcher
	ai       AIClassifier
	recorder Recorder
	logger   *slog.Logger
	cfg      Config
}

// Options wires a Resolver. Places and Direct are required; a nil AI disables the AI
// tier and a nil Keywords matcher never matches.
type Options struct {
	Places   PlaceLookup
	Direct   *matcher.DirectTypeMapper
	Keywords *matcher.KeywordMatcher
	AI       AIClassifier
	Recorder Recorder
	Logger   *slog.Logger
	Config   Config
}

// NewResolver validates opts and fills defaults.
func NewResolver(opts Options) (*Resolver, error) {
	if opts.Places == nil {
		return nil, fmt.Errorf("%w: place lookup", common.ErrMissingConfig)
	}
	if opts.Direct == nil {
		return nil, fmt.Errorf("%w: direct type mapping", common.ErrMissingConfig)
	}

	cfg := opts.Config
	if cfg.NearbyRadius <= 0 {
		cfg.NearbyRadius = defaultNearbyRadius
	}
	if cfg.NearbyMaxResults <= 0 {
		cfg.NearbyMaxResults = defaultNearbyMaxResults
	}

	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	return &Resolver{
		places:   opts.Places,
		direct:   opts.Direct,
		keywords: opts.Keywords,
		ai:       opts.AI,
		recorder: recorder,
		logger:   common.OrDefault(opts.Logger),
		cfg:      cfg,
	}, nil
}

// Identify finds the business at address and classifies it. A generic address (a
// street, premise or locality rather than a business) is replaced by the businesses
// within the nearby radius when there are any. Lookup failures come back as an
// error outcome; every later failure degrades to a less specific classification.
func (r *Resolver) Identify(ctx context.Context, address string) model.Outcome {
	start := time.Now()
	outcome := r.identify(ctx, address)

	status := string(outcome.Status)
	if outcome.Failed() {
		status = "error"
	}
	r.recorder.ObserveLookup(status, time.Since(start))

	return outcome
}

func (r *Resolver) identify(ctx context.Context, address string) model.Outcome {
	address = strings.TrimSpace(address)
	if address == "" {
		return model.ErrorOutcome(MsgAddressRequired)
	}

	found, err := r.places.SearchText(ctx, address, 1)
	if err != nil {
		r.logger.Warn("place lookup failed", "address", address, "error", err)
		return model.ErrorOutcome(fmt.Sprintf("%s: %s", MsgRequestFailed, requestDetail(err)))
	}
	if len(found) == 0 {
		return model.ErrorOutcome(MsgNoBusinessFound)
	}

	place := found[0]
	if IsGenericType(place.PrimaryType) && place.Location != nil {
		r.logger.Info("generic address result, searching nearby",
			"address", address,
			"primary_type", place.PrimaryType)

		if nearby := r.searchNearby(ctx, *place.Location); len(nearby) > 0 {
			r.recorder.ObserveEscalation(len(nearby))
			return model.Outcome{
				Status:     model.StatusMultiple,
				Candidates: r.Classify(ctx, nearby),
			}
		}
	}

	result := r.Classify(ctx, []model.PlaceRecord{place})[0]
	return model.Outcome{Status: model.StatusSingle, Result: &result}
}

// searchNearby returns the businesses around center. Failures yield no candidates.
func (r *Resolver) searchNearby(ctx context.Context, center model.LatLng) []model.PlaceRecord {
	found, err := r.places.SearchNearby(ctx, model.NearbyQuery{
		Center:         center,
		RadiusMeters:   r.cfg.NearbyRadius,
		MaxResults:     r.cfg.NearbyMaxResults,
		RankByDistance: true,
	})
	if err != nil {
		r.logger.Warn("nearby search failed",
			"latitude", center.Latitude,
			"longitude", center.Longitude,
			"error", err)
		return nil
	}

	businesses := make([]model.PlaceRecord, 0, len(found))
	for _, p := range found {
		if isBusiness(p) {
			businesses = append(businesses, p)
		}
	}
	return businesses
}

// Classify runs both deterministic tiers over every place, then sends the places
// neither tier could classify to the AI tier in a single batch.
func (r *Resolver) Classify(ctx context.Context, places []model.PlaceRecord) []model.ClassificationResult {
	results := make([]model.ClassificationResult, len(places))

	var pending []model.BatchCandidate
	for i, p := range places {
		results[i] = r.classifyDeterministic(p)
		r.recorder.ObserveCandidate(results[i].MatchMethod)

		if results[i].MatchMethod == model.MatchFailed {
			pending = append(pending, model.BatchCandidate{
				Name:    results[i].BusinessName,
				Type:    results[i].DetectedType,
				Address: results[i].Address,
			})
		}
	}

	if len(pending) == 0 || r.ai == nil {
		return results
	}

	classified := r.ai.ClassifyBatch(ctx, pending)
	for i := range results {
		if results[i].MatchMethod != model.MatchFailed {
			continue
		}
		c, ok := classified[results[i].BusinessName]
		if !ok || c.IsUnknown() {
			continue
		}
		results[i].AIClassification = &c
	}

	return results
}

func (r *Resolver) classifyDeterministic(p model.PlaceRecord) model.ClassificationResult {
	primaryType := strings.ToLower(p.PrimaryType)

	result := model.ClassificationResult{
		BusinessName: orDefault(p.DisplayName, UnknownBusiness),
		DetectedType: orDefault(primaryType, model.UnknownCode),
		Address:      orDefault(p.FormattedAddress, UnknownAddress),
		RawTypes:     append([]string{}, p.Types...),
	}

	if c, method, ok := r.direct.Map(p.PrimaryType, p.Types); ok {
		result.RecommendedClassification = c
		result.MatchMethod = method
		return result
	}

	// Matching on the placeholder name would only find titles containing "business".
	if p.DisplayName != "" {
		if entry, ok := r.keywords.Match(p.DisplayName); ok {
			result.RecommendedClassification = entry.Classification()
			result.MatchMethod = model.MatchKeyword
			return result
		}
	}

	result.RecommendedClassification = model.UnknownClassification()
	result.MatchMethod = model.MatchFailed
	return result
}

// requestDetail strips the package sentinel so the message reads like the provider's.
func requestDetail(err error) string {
	msg := err.Error()
	if errors.Is(err, common.ErrPlaceLookup) {
		msg = strings.TrimPrefix(msg, common.ErrPlaceLookup.Error()+": ")
	}
	return msg
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
