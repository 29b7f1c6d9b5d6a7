package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"rental-ingest/models"
)

// CSVWriter writes a snapshot of the normalized records as units.csv and
// amenities.csv under one directory.
type CSVWriter struct {
	dir string
}

// NewCSVWriter creates the output directory if needed.
func NewCSVWriter(dir string) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{dir: dir}, nil
}

// WriteSnapshot (re)writes both files. An unknown sqft is written as an empty cell.
func (c *CSVWriter) WriteSnapshot(units []models.UnitRecord, amenities []models.AmenityRecord) error {
	unitRows := make([][]string, 0, len(units))
	for _, u := range units {
		sqft := ""
		if u.Sqft.Valid {
			sqft = strconv.FormatInt(u.Sqft.Int64, 10)
		}
		unitRows = append(unitRows, []string{u.UnitID, u.Zip, u.City, strconv.Itoa(u.Bed), sqft})
	}
	if err := c.writeFile("units.csv", unitColumns, unitRows); err != nil {
		return err
	}

	amenityRows := make([][]string, 0, len(amenities))
	for _, a := range amenities {
		amenityRows = append(amenityRows, []string{a.UnitID, a.Amenity, string(a.AmenityType)})
	}
	return c.writeFile("amenities.csv", amenityColumns, amenityRows)
}

func (c *CSVWriter) writeFile(name string, header []string, rows [][]string) error {
	path := filepath.Join(c.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("csv: write %s: %w", name, err)
	}
	return nil
}
