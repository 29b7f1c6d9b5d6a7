package services

import (
	"encoding/json"
	"errors"
	"testing"

	"rental-ingest/config"
	"rental-ingest/models"
	"rental-ingest/utils"
)

func newTestLogger() *utils.Logger { return utils.NewDiscardLogger() }

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

func newEvanstonNormalizer() *Normalizer {
	return NewNormalizer("Evanston", config.UnitAmenitiesFromCommunity, newTestLogger())
}

func TestNormalizerCleanSqft(t *testing.T) {
	tests := []struct {
		sqft      *int
		wantValid bool
		want      int64
	}{
		{intPtr(0), false, 0},
		{intPtr(-5), false, 0},
		{nil, false, 0},
		{intPtr(450), true, 450},
		{intPtr(1), true, 1},
	}

	for _, tt := range tests {
		got := cleanSqft(tt.sqft)
		if got.Valid != tt.wantValid || got.Int64 != tt.want {
			t.Errorf("cleanSqft(%v) = %+v; want valid=%v value=%d", tt.sqft, got, tt.wantValid, tt.want)
		}
	}
}

func TestNormalizerDropsOtherCities(t *testing.T) {
	n := newEvanstonNormalizer()
	listings := []models.Listing{
		{City: "Chicago", Zip: strPtr("60601"),
			AllUnits:           []models.Unit{{ID: "c1", Bed: intPtr(1), Sqft: intPtr(600)}},
			CommunityAmenities: []models.Amenity{{DisplayName: "Gym"}}},
	}

	units, amenities := n.Normalize(listings)
	if len(units) != 0 || len(amenities) != 0 {
		t.Errorf("expected nothing for Chicago, got %d units and %d amenities", len(units), len(amenities))
	}
}

func TestNormalizerCityMatchIsExact(t *testing.T) {
	n := newEvanstonNormalizer()
	listings := []models.Listing{
		{City: "evanston", AllUnits: []models.Unit{{ID: "a"}}},
		{City: "Evanston ", AllUnits: []models.Unit{{ID: "b"}}},
	}

	if units, _ := n.Normalize(listings); len(units) != 0 {
		t.Errorf("expected no units for inexact city names, got %d", len(units))
	}
}

func TestNormalizerUnitCount(t *testing.T) {
	n := newEvanstonNormalizer()
	listings := []models.Listing{
		{City: "Evanston", Zip: strPtr("60201"), AllUnits: []models.Unit{{ID: "u1"}, {ID: "u2"}, {ID: "u3"}}},
		{City: "Chicago", Zip: strPtr("60601"), AllUnits: []models.Unit{{ID: "c1"}}},
	}

	units, _ := n.Normalize(listings)
	if len(units) != 3 {
		t.Fatalf("units: got %d, want 3", len(units))
	}
	for _, u := range units {
		if u.Zip != "60201" || u.City != "Evanston" {
			t.Errorf("unit %s did not inherit parent zip/city: %+v", u.UnitID, u)
		}
	}
}

func TestNormalizerAmenityCount(t *testing.T) {
	n := newEvanstonNormalizer()
	listings := []models.Listing{{
		City:     "Evanston",
		Zip:      strPtr("60202"),
		AllUnits: []models.Unit{{ID: "u1"}, {ID: "u2"}},
		CommunityAmenities: []models.Amenity{
			{DisplayName: "Pool"}, {DisplayName: "Gym"}, {DisplayName: "Parking"},
		},
	}}

	_, amenities := n.Normalize(listings)
	if len(amenities) != 12 {
		t.Fatalf("amenities: got %d, want 12", len(amenities))
	}

	counts := make(map[string]map[models.AmenityType]int)
	for _, a := range amenities {
		if counts[a.UnitID] == nil {
			counts[a.UnitID] = make(map[models.AmenityType]int)
		}
		counts[a.UnitID][a.AmenityType]++
	}
	for _, id := range []string{"u1", "u2"} {
		if counts[id][models.AmenityTypeProperty] != 3 || counts[id][models.AmenityTypeUnit] != 3 {
			t.Errorf("unit %s: got %v, want 3 property + 3 unit", id, counts[id])
		}
	}
}

func TestNormalizerEndToEndScenario(t *testing.T) {
	n := newEvanstonNormalizer()
	listings := []models.Listing{{
		City:               "Evanston",
		Zip:                strPtr("60201"),
		AllUnits:           []models.Unit{{ID: "u1", Bed: intPtr(1), Sqft: intPtr(0)}},
		CommunityAmenities: []models.Amenity{{DisplayName: "Pool"}},
	}}

	units, amenities := n.Normalize(listings)

	if len(units) != 1 {
		t.Fatalf("units: got %d, want 1", len(units))
	}
	u := units[0]
	if u.UnitID != "u1" || u.Zip != "60201" || u.City != "Evanston" || u.Bed != 1 || u.Sqft.Valid {
		t.Errorf("unit: got %+v", u)
	}

	want := []models.AmenityRecord{
		{UnitID: "u1", Amenity: "Pool", AmenityType: models.AmenityTypeProperty},
		{UnitID: "u1", Amenity: "Pool", AmenityType: models.AmenityTypeUnit},
	}
	if len(amenities) != len(want) {
		t.Fatalf("amenities: got %d, want %d", len(amenities), len(want))
	}
	for i := range want {
		if amenities[i] != want[i] {
			t.Errorf("amenities[%d] = %+v; want %+v", i, amenities[i], want[i])
		}
	}
}

func TestNormalizerUnitAmenitySource(t *testing.T) {
	n := NewNormalizer("Evanston", config.UnitAmenitiesFromUnit, newTestLogger())
	listings := []models.Listing{
		{
			City:               "Evanston",
			AllUnits:           []models.Unit{{ID: "u1"}},
			CommunityAmenities: []models.Amenity{{DisplayName: "Pool"}},
			UnitAmenities:      []models.Amenity{{DisplayName: "Dishwasher"}, {DisplayName: "Balcony"}},
		},
		{
			City:               "Evanston",
			AllUnits:           []models.Unit{{ID: "u2"}},
			CommunityAmenities: []models.Amenity{{DisplayName: "Gym"}},
		},
	}

	_, amenities := n.Normalize(listings)

	var unitRows []string
	for _, a := range amenities {
		if a.AmenityType == models.AmenityTypeUnit {
			unitRows = append(unitRows, a.UnitID+":"+a.Amenity)
		}
	}
	if len(unitRows) != 2 || unitRows[0] != "u1:Dishwasher" || unitRows[1] != "u1:Balcony" {
		t.Errorf("unit amenity rows: got %v", unitRows)
	}
	if len(amenities) != 4 {
		t.Errorf("total amenity rows: got %d, want 4", len(amenities))
	}
}

func TestNormalizerDoesNotAliasSource(t *testing.T) {
	n := newEvanstonNormalizer()
	listings := []models.Listing{{
		City:     "Evanston",
		Zip:      strPtr("60201"),
		AllUnits: []models.Unit{{ID: "u1", Sqft: intPtr(700)}},
	}}

	units, _ := n.Normalize(listings)
	*listings[0].AllUnits[0].Sqft = 1
	*listings[0].Zip = "00000"

	if units[0].Sqft.Int64 != 700 || units[0].Zip != "60201" {
		t.Errorf("record changed with its source: %+v", units[0])
	}
}

func TestNormalizerValidate(t *testing.T) {
	n := newEvanstonNormalizer()

	ok := []models.Listing{
		{City: "Evanston", Zip: strPtr("60201"), AllUnits: []models.Unit{{ID: "u1", Bed: intPtr(0)}},
			CommunityAmenities: []models.Amenity{{DisplayName: "Pool"}}},
		{City: "Chicago", AllUnits: []models.Unit{{ID: ""}}},
	}
	if err := n.Validate(ok); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		listings []models.Listing
		field    string
	}{
		{
			name: "empty unit id",
			listings: []models.Listing{{City: "Evanston", Zip: strPtr("60201"),
				AllUnits: []models.Unit{{ID: "u1", Bed: intPtr(1)}, {ID: "", Bed: intPtr(1)}}}},
			field: "listings[0].all_units[1].id",
		},
		{
			name: "missing zip",
			listings: []models.Listing{
				{City: "Chicago"},
				{City: "Evanston", AllUnits: []models.Unit{{ID: "u1", Bed: intPtr(1)}}},
			},
			field: "listings[1].zip",
		},
		{
			name: "missing bed",
			listings: []models.Listing{{City: "Evanston", Zip: strPtr("60201"),
				AllUnits: []models.Unit{{ID: "u1", Bed: intPtr(2)}, {ID: "u2"}}}},
			field: "listings[0].all_units[1].bed",
		},
		{
			name: "empty amenity name",
			listings: []models.Listing{{City: "Evanston", Zip: strPtr("60201"),
				AllUnits:           []models.Unit{{ID: "u1", Bed: intPtr(1)}},
				CommunityAmenities: []models.Amenity{{DisplayName: "Pool"}, {DisplayName: ""}}}},
			field: "listings[0].community_amenities[1].display_name",
		},
	}

	for _, tt := range tests {
		err := n.Validate(tt.listings)
		var parseErr *models.ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("%s: expected ParseError, got %v", tt.name, err)
			continue
		}
		if parseErr.Field != tt.field {
			t.Errorf("%s: Field: got %q, want %q", tt.name, parseErr.Field, tt.field)
		}
	}
}

func TestNormalizerValidateDecodedListing(t *testing.T) {
	n := newEvanstonNormalizer()
	body := `{"listings":[{"city":"Evanston","all_units":[{"id":"u1","sqft":500}],
		"community_amenities":[{"display_name":"Pool"}]}]}`

	var resp models.ListingsResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	var parseErr *models.ParseError
	if err := n.Validate(resp.Listings); !errors.As(err, &parseErr) || parseErr.Field != "listings[0].zip" {
		t.Errorf("expected missing zip to be rejected, got %v", err)
	}
}
