package engine

import "github.com/Veraticus/business-anzsic-locator/internal/model"

// genericTypes are place types that describe a location rather than a business.
var genericTypes = map[string]bool{
	"street_address": true,
	"subpremise":     true,
	"premise":        true,
	"route":          true,
	"postal_code":    true,
	"locality":       true,
	"political":      true,
}

// IsGenericType reports whether primaryType is empty or a location-only type.
func IsGenericType(primaryType string) bool {
	return primaryType == "" || genericTypes[primaryType]
}

// isBusiness reports whether a nearby result names an actual business.
func isBusiness(p model.PlaceRecord) bool {
	return !IsGenericType(p.PrimaryType)
}
