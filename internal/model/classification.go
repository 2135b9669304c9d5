// Package model defines the core domain models used throughout the application.
package model

import "slices"

// MatchMethod records which tier produced a candidate's recommended classification.
type MatchMethod string

// Match method constants.
const (
	MatchDirectMap         MatchMethod = "direct_map"
	MatchDirectMapFallback MatchMethod = "direct_map_fallback"
	MatchKeyword           MatchMethod = "keyword_match"
	MatchFailed            MatchMethod = "failed"
)

// Sentinel values used when no tier can classify a candidate.
const (
	UnknownCode  = "Unknown"
	UnknownTitle = "Classification Not Found"
)

// Classification is a {code, title} pair from the taxonomy or from the AI tier.
type Classification struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// UnknownClassification returns the sentinel used for unclassified candidates.
func UnknownClassification() Classification {
	return Classification{Code: UnknownCode, Title: UnknownTitle}
}

// IsUnknown reports whether c carries no usable code.
func (c Classification) IsUnknown() bool {
	return c.Code == "" || c.Code == UnknownCode
}

// ClassificationResult is the per-candidate answer assembled by the resolver.
type ClassificationResult struct {
	AIClassification          *Classification `json:"ai_classification"`
	BusinessName              string          `json:"business_name"`
	DetectedType              string          `json:"detected_type"`
	Address                   string          `json:"address"`
	MatchMethod               MatchMethod     `json:"match_method"`
	RecommendedClassification Classification  `json:"recommended_classification"`
	RawTypes                  []string        `json:"raw_types"`
}

// Clone returns a deep copy so callers can hand out snapshots safely.
func (r ClassificationResult) Clone() ClassificationResult {
	out := r
	out.RawTypes = slices.Clone(r.RawTypes)
	if out.RawTypes == nil {
		out.RawTypes = []string{}
	}
	if r.AIClassification != nil {
		ai := *r.AIClassification
		out.AIClassification = &ai
	}
	return out
}

// EffectiveClassification prefers the AI answer when the deterministic tiers failed.
func (r ClassificationResult) EffectiveClassification() Classification {
	if r.MatchMethod == MatchFailed && r.AIClassification != nil {
		return *r.AIClassification
	}
	return r.RecommendedClassification
}

// BatchCandidate is one entry of an AI classification batch.
type BatchCandidate struct {
	Name    string
	Type    string
	Address string
}
