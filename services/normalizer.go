package services

import (
	"database/sql"
	"fmt"

	"rental-ingest/config"
	"rental-ingest/models"
	"rental-ingest/utils"
)

// Normalizer flattens listings into unit and amenity rows for one target city.
type Normalizer struct {
	city              string
	unitAmenitySource string
	logger            *utils.Logger
}

// NewNormalizer creates a Normalizer keeping only listings in city.
// unitAmenitySource is config.UnitAmenitiesFromCommunity or
// config.UnitAmenitiesFromUnit.
func NewNormalizer(city, unitAmenitySource string, logger *utils.Logger) *Normalizer {
	return &Normalizer{city: city, unitAmenitySource: unitAmenitySource, logger: logger}
}

// Normalize returns one UnitRecord per unit and the per-unit amenity rows of
// every listing in the target city. Listings elsewhere are dropped.
func (n *Normalizer) Normalize(listings []models.Listing) ([]models.UnitRecord, []models.AmenityRecord) {
	var (
		units     []models.UnitRecord
		amenities []models.AmenityRecord
		kept      int
	)

	for _, l := range listings {
		if l.City != n.city {
			continue
		}
		kept++

		unitSource := n.unitAmenities(l)
		for _, u := range l.AllUnits {
			for _, a := range l.CommunityAmenities {
				amenities = append(amenities, models.AmenityRecord{
					UnitID:      u.ID,
					Amenity:     a.DisplayName,
					AmenityType: models.AmenityTypeProperty,
				})
			}
			for _, a := range unitSource {
				amenities = append(amenities, models.AmenityRecord{
					UnitID:      u.ID,
					Amenity:     a.DisplayName,
					AmenityType: models.AmenityTypeUnit,
				})
			}
		}

		for _, u := range l.AllUnits {
			units = append(units, models.UnitRecord{
				UnitID: u.ID,
				Zip:    stringValue(l.Zip),
				City:   l.City,
				Bed:    intValue(u.Bed),
				Sqft:   cleanSqft(u.Sqft),
			})
		}
	}

	n.logger.Info("[normalizer] Kept %d of %d listings in %s → %d units, %d amenity rows",
		kept, len(listings), n.city, len(units), len(amenities))
	return units, amenities
}

// unitAmenities picks the list "unit" amenity rows are built from. The API
// exposes a single community list, which by default is attributed to both
// classes.
func (n *Normalizer) unitAmenities(l models.Listing) []models.Amenity {
	if n.unitAmenitySource == config.UnitAmenitiesFromUnit {
		return l.UnitAmenities
	}
	return l.CommunityAmenities
}

// cleanSqft maps missing and non-positive square footage to NULL.
func cleanSqft(sqft *int) sql.NullInt64 {
	if sqft == nil || *sqft <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*sqft), Valid: true}
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// Validate checks the fields Normalize relies on for listings in the target
// city and reports the first one missing.
func (n *Normalizer) Validate(listings []models.Listing) error {
	for i, l := range listings {
		if l.City != n.city {
			continue
		}
		if l.Zip == nil {
			return &models.ParseError{Field: fmt.Sprintf("listings[%d].zip", i)}
		}
		for j, u := range l.AllUnits {
			if u.ID == "" {
				return &models.ParseError{Field: fmt.Sprintf("listings[%d].all_units[%d].id", i, j)}
			}
			if u.Bed == nil {
				return &models.ParseError{Field: fmt.Sprintf("listings[%d].all_units[%d].bed", i, j)}
			}
		}
		for j, a := range l.CommunityAmenities {
			if a.DisplayName == "" {
				return &models.ParseError{Field: fmt.Sprintf("listings[%d].community_amenities[%d].display_name", i, j)}
			}
		}
	}
	return nil
}
