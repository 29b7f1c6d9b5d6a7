package apartmentlist

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"rental-ingest/models"
	"rental-ingest/utils"
)

// listingFields is the projection requested from the listings endpoint.
var listingFields = []string{"address", "amenities", "all_units"}

// Fetcher retrieves full listing payloads for a set of rental ids, one batch
// at a time.
type Fetcher struct {
	session   *Session
	batchSize int
	limiter   *rate.Limiter
	logger    *utils.Logger
}

// NewFetcher creates a Fetcher. rateLimitMs > 0 spaces consecutive batch
// requests at least that far apart.
func NewFetcher(session *Session, batchSize, rateLimitMs int, logger *utils.Logger) *Fetcher {
	f := &Fetcher{session: session, batchSize: batchSize, logger: logger}
	if rateLimitMs > 0 {
		f.limiter = rate.NewLimiter(rate.Every(time.Duration(rateLimitMs)*time.Millisecond), 1)
	}
	return f
}

// FetchListings fetches every id in batches and concatenates the listings in
// batch order. The first failing batch aborts the fetch and no listings are
// returned.
func (f *Fetcher) FetchListings(ctx context.Context, ids *utils.IDSet) ([]models.Listing, error) {
	batches := ids.Batches(f.batchSize)
	f.logger.Info("[fetcher] Fetching %d ids in %d batch(es) of up to %d", ids.Size(), len(batches), f.batchSize)

	var all []models.Listing
	for i, batch := range batches {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, &models.FetchError{Batch: i, Err: err}
			}
		}

		listings, err := f.fetchBatch(ctx, i, batch)
		if err != nil {
			f.logger.Error("[fetcher] Batch %d failed: %v", i, err)
			return nil, err
		}

		f.logger.Debug("[fetcher] Batch %d — %d ids → %d listings", i, len(batch), len(listings))
		all = append(all, listings...)
	}

	f.logger.Info("[fetcher] Fetched %d listings", len(all))
	return all, nil
}

func (f *Fetcher) fetchBatch(ctx context.Context, index int, batch []string) ([]models.Listing, error) {
	query := url.Values{}
	query.Set("rental_ids", strings.Join(batch, ","))
	query.Set("only", strings.Join(listingFields, ","))
	reqURL := f.session.apiBaseURL + listingsPath + "?" + query.Encode()

	status, body, err := f.session.getAPI(ctx, reqURL)
	if err != nil {
		return nil, &models.FetchError{StatusCode: status, Batch: index, URL: reqURL, Err: err}
	}
	if !isSuccess(status) {
		return nil, &models.FetchError{StatusCode: status, Batch: index, URL: reqURL}
	}

	var resp models.ListingsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &models.ParseError{Field: "listings", Err: err}
	}
	return resp.Listings, nil
}
