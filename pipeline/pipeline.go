package pipeline

import (
	"context"
	"fmt"
	"time"

	"rental-ingest/metrics"
	"rental-ingest/models"
	"rental-ingest/scraper/apartmentlist"
	"rental-ingest/services"
	"rental-ingest/storage"
	"rental-ingest/utils"
)

// Authenticator establishes the API session.
type Authenticator interface {
	Authenticate(ctx context.Context) error
}

// Pipeline runs authenticate → discover → fetch → normalize → load. Each
// stage's output is the only input of the next; the first error ends the run.
type Pipeline struct {
	Auth       Authenticator
	Pages      apartmentlist.PageSource
	RegionURL  string
	Fetcher    *apartmentlist.Fetcher
	Normalizer *services.Normalizer
	Loader     storage.RecordLoader
	Snapshot   storage.SnapshotWriter
	Metrics    *metrics.Recorder
	Logger     *utils.Logger
}

// Result is what a successful run produced.
type Result struct {
	Units     []models.UnitRecord
	Amenities []models.AmenityRecord
}

func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	if err := p.Auth.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	p.Metrics.ObserveStage("authenticate", start)

	start = time.Now()
	ids, err := apartmentlist.DiscoverIDs(ctx, p.Pages, p.RegionURL, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("discover ids: %w", err)
	}
	p.Metrics.ObserveStage("discover", start)
	p.Metrics.IDsDiscovered.Set(float64(ids.Size()))

	if ids.Size() == 0 {
		p.Logger.Warn("No rental ids found on %s — nothing to load", p.RegionURL)
		return &Result{}, nil
	}

	start = time.Now()
	listings, err := p.Fetcher.FetchListings(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch listings: %w", err)
	}
	p.Metrics.ObserveStage("fetch", start)
	p.Metrics.ListingsFetched.Set(float64(len(listings)))

	start = time.Now()
	if err := p.Normalizer.Validate(listings); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	units, amenities := p.Normalizer.Normalize(listings)
	p.Metrics.ObserveStage("normalize", start)
	p.Metrics.UnitRows.Set(float64(len(units)))
	p.Metrics.AmenityRows.Set(float64(len(amenities)))

	if p.Snapshot != nil {
		if err := p.Snapshot.WriteSnapshot(units, amenities); err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		p.Logger.Info("Snapshot written (%d units, %d amenity rows)", len(units), len(amenities))
	}

	start = time.Now()
	if err := p.Loader.Load(ctx, units, amenities); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	p.Metrics.ObserveStage("load", start)
	p.Metrics.LastSuccess.SetToCurrentTime()

	return &Result{Units: units, Amenities: amenities}, nil
}
