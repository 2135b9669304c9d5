package model

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PlaceRecord is a raw result from the place-lookup provider. Every field may be empty.
type PlaceRecord struct {
	Location         *LatLng  `json:"location,omitempty"`
	DisplayName      string   `json:"display_name"`
	PrimaryType      string   `json:"primary_type,omitempty"`
	FormattedAddress string   `json:"formatted_address"`
	Types            []string `json:"types,omitempty"`
}

// NearbyQuery asks the place-lookup provider for businesses around a coordinate.
type NearbyQuery struct {
	Center         LatLng
	RadiusMeters   float64
	MaxResults     int
	RankByDistance bool
}
