package models

import "database/sql"

// Listing is one property as returned by the listings-search endpoint.
// Only the fields the pipeline reads are decoded. Zip is a pointer so an
// absent key can be told apart from an empty one.
type Listing struct {
	RentalID           string    `json:"rental_id"`
	City               string    `json:"city"`
	Zip                *string   `json:"zip"`
	AllUnits           []Unit    `json:"all_units"`
	CommunityAmenities []Amenity `json:"community_amenities"`
	UnitAmenities      []Amenity `json:"unit_amenities,omitempty"`
}

// Unit is a single rentable space inside a Listing. A nil Bed means the key
// was missing, which is not the same as a studio (0).
type Unit struct {
	ID   string `json:"id"`
	Bed  *int   `json:"bed"`
	Sqft *int   `json:"sqft"`
}

// Amenity is a named amenity descriptor.
type Amenity struct {
	DisplayName string `json:"display_name"`
}

// ListingsResponse is the body of GET /listings-search/listings.
type ListingsResponse struct {
	Listings []Listing `json:"listings"`
}

// AmenityType classifies an AmenityRecord.
type AmenityType string

const (
	AmenityTypeProperty AmenityType = "property"
	AmenityTypeUnit     AmenityType = "unit"
)

// UnitRecord is a flattened row of the units table.
// Sqft.Valid is false when the square footage is unknown.
type UnitRecord struct {
	UnitID string
	Zip    string
	City   string
	Bed    int
	Sqft   sql.NullInt64
}

// AmenityRecord is a flattened row of the amenities table.
type AmenityRecord struct {
	UnitID      string
	Amenity     string
	AmenityType AmenityType
}

// RunReport holds summary figures over the normalized records of one run.
type RunReport struct {
	TotalUnits       int
	TotalAmenities   int
	UnitsByZip       map[string]int
	UnitsByBedrooms  map[int]int
	KnownSqftUnits   int
	UnknownSqftUnits int
	AverageSqft      float64
	MinSqft          int64
	MaxSqft          int64
	TopAmenities     []AmenityCount
}

// AmenityCount is how many units carry a given amenity.
type AmenityCount struct {
	Amenity string
	Units   int
}
