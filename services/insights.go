package services

import (
	"fmt"
	"sort"
	"strings"

	"rental-ingest/models"
	"rental-ingest/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(units []models.UnitRecord, amenities []models.AmenityRecord) *models.RunReport {
	report := &models.RunReport{
		TotalUnits:      len(units),
		TotalAmenities:  len(amenities),
		UnitsByZip:      make(map[string]int),
		UnitsByBedrooms: make(map[int]int),
	}

	var totalSqft int64
	for _, u := range units {
		report.UnitsByZip[u.Zip]++
		report.UnitsByBedrooms[u.Bed]++

		if !u.Sqft.Valid {
			report.UnknownSqftUnits++
			continue
		}
		if report.KnownSqftUnits == 0 || u.Sqft.Int64 < report.MinSqft {
			report.MinSqft = u.Sqft.Int64
		}
		if u.Sqft.Int64 > report.MaxSqft {
			report.MaxSqft = u.Sqft.Int64
		}
		report.KnownSqftUnits++
		totalSqft += u.Sqft.Int64
	}
	if report.KnownSqftUnits > 0 {
		report.AverageSqft = round2(float64(totalSqft) / float64(report.KnownSqftUnits))
	}

	// Property rows only, so duplicated unit-class rows don't double count.
	counts := make(map[string]int)
	for _, a := range amenities {
		if a.AmenityType == models.AmenityTypeProperty {
			counts[a.Amenity]++
		}
	}
	for name, n := range counts {
		report.TopAmenities = append(report.TopAmenities, models.AmenityCount{Amenity: name, Units: n})
	}
	sort.Slice(report.TopAmenities, func(i, j int) bool {
		a, b := report.TopAmenities[i], report.TopAmenities[j]
		if a.Units != b.Units {
			return a.Units > b.Units
		}
		return a.Amenity < b.Amenity
	})
	if len(report.TopAmenities) > 5 {
		report.TopAmenities = report.TopAmenities[:5]
	}

	s.logger.Debug("[insights] Summarised %d units and %d amenity rows", len(units), len(amenities))
	return report
}

func (s *InsightService) Print(r *models.RunReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  RENTAL INGEST SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Unit rows    : \033[1m%d\033[0m\n", r.TotalUnits)
	fmt.Printf("  Amenity rows : \033[1m%d\033[0m\n", r.TotalAmenities)
	fmt.Println()

	fmt.Printf("\033[1;33m  Square Footage\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.KnownSqftUnits > 0 {
		fmt.Printf("  Average : \033[1;32m%.2f\033[0m\n", r.AverageSqft)
		fmt.Printf("  Minimum : \033[1;32m%d\033[0m\n", r.MinSqft)
		fmt.Printf("  Maximum : \033[1;32m%d\033[0m\n", r.MaxSqft)
	} else {
		fmt.Printf("  No square footage data available\n")
	}
	fmt.Printf("  Unknown : %d unit(s)\n", r.UnknownSqftUnits)
	fmt.Println()

	fmt.Printf("\033[1;33m  Units by Bedrooms\033[0m\n")
	fmt.Printf("  %s\n", thin)
	beds := make([]int, 0, len(r.UnitsByBedrooms))
	for b := range r.UnitsByBedrooms {
		beds = append(beds, b)
	}
	sort.Ints(beds)
	for _, b := range beds {
		label := fmt.Sprintf("%d bed", b)
		if b == 0 {
			label = "studio"
		}
		fmt.Printf("  %-10s %d\n", label, r.UnitsByBedrooms[b])
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Units by Zip\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, z := range sortedZips(r.UnitsByZip) {
		fmt.Printf("  %-10s %d\n", z, r.UnitsByZip[z])
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Top Community Amenities\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.TopAmenities) == 0 {
		fmt.Printf("  No amenities found\n")
	}
	for i, a := range r.TopAmenities {
		fmt.Printf("  \033[1m%d.\033[0m %-40s %d units\n", i+1, truncate(a.Amenity, 38), a.Units)
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

// sortedZips orders zip codes by unit count, busiest first, then by zip.
func sortedZips(counts map[string]int) []string {
	zips := make([]string, 0, len(counts))
	for z := range counts {
		zips = append(zips, z)
	}
	sort.Slice(zips, func(i, j int) bool {
		if counts[zips[i]] != counts[zips[j]] {
			return counts[zips[i]] > counts[zips[j]]
		}
		return zips[i] < zips[j]
	})
	return zips
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
