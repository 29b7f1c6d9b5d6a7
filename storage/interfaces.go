package storage

import (
	"context"

	"rental-ingest/models"
)

// RecordLoader is the interface any relational backend must satisfy.
type RecordLoader interface {
	Load(ctx context.Context, units []models.UnitRecord, amenities []models.AmenityRecord) error
	Close() error
}

// SnapshotWriter persists a copy of the normalized records outside the database.
type SnapshotWriter interface {
	WriteSnapshot(units []models.UnitRecord, amenities []models.AmenityRecord) error
}
