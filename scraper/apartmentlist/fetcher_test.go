package apartmentlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"rental-ingest/models"
	"rental-ingest/utils"
)

// listingsServer answers listings-search by echoing one listing per requested
// id. Requests for batch index failBatch get a 502.
type listingsServer struct {
	mu        sync.Mutex
	requests  [][]string
	failBatch int
	only      []string
}

func (ls *listingsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != listingsPath {
		http.NotFound(w, r)
		return
	}

	ls.mu.Lock()
	ids := strings.Split(r.URL.Query().Get("rental_ids"), ",")
	ls.requests = append(ls.requests, ids)
	ls.only = strings.Split(r.URL.Query().Get("only"), ",")
	index := len(ls.requests) - 1
	ls.mu.Unlock()

	if index == ls.failBatch {
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	zip := "60201"
	resp := models.ListingsResponse{}
	for _, id := range ids {
		resp.Listings = append(resp.Listings, models.Listing{RentalID: id, City: "Evanston", Zip: &zip})
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func makeIDs(n int) *utils.IDSet {
	ids := utils.NewIDSet()
	for i := 0; i < n; i++ {
		ids.Add(fmt.Sprintf("r%04d", i))
	}
	return ids
}

func TestFetchListingsBatches(t *testing.T) {
	ls := &listingsServer{failBatch: -1}
	srv := httptest.NewServer(ls)
	defer srv.Close()

	f := NewFetcher(newTestSession(t, srv.URL), 250, 0, utils.NewDiscardLogger())
	listings, err := f.FetchListings(context.Background(), makeIDs(600))
	if err != nil {
		t.Fatalf("FetchListings: %v", err)
	}

	if len(ls.requests) != 3 {
		t.Fatalf("requests: got %d, want 3", len(ls.requests))
	}
	wantSizes := []int{250, 250, 100}
	for i, want := range wantSizes {
		if len(ls.requests[i]) != want {
			t.Errorf("batch %d size: got %d, want %d", i, len(ls.requests[i]), want)
		}
	}
	if strings.Join(ls.only, ",") != "address,amenities,all_units" {
		t.Errorf("only: got %v", ls.only)
	}

	if len(listings) != 600 {
		t.Fatalf("listings: got %d, want 600", len(listings))
	}
	seen := make(map[string]bool)
	for _, l := range listings {
		if seen[l.RentalID] {
			t.Errorf("id %s fetched twice", l.RentalID)
		}
		seen[l.RentalID] = true
	}
}

func TestFetchListingsBatchOrderIsSorted(t *testing.T) {
	ls := &listingsServer{failBatch: -1}
	srv := httptest.NewServer(ls)
	defer srv.Close()

	f := NewFetcher(newTestSession(t, srv.URL), 2, 0, utils.NewDiscardLogger())
	listings, err := f.FetchListings(context.Background(), utils.NewIDSet("c", "a", "d", "b", "e"))
	if err != nil {
		t.Fatalf("FetchListings: %v", err)
	}

	var got []string
	for _, l := range listings {
		got = append(got, l.RentalID)
	}
	if strings.Join(got, "") != "abcde" {
		t.Errorf("order: got %v, want [a b c d e]", got)
	}
}

func TestFetchListingsFailingBatchAborts(t *testing.T) {
	ls := &listingsServer{failBatch: 1}
	srv := httptest.NewServer(ls)
	defer srv.Close()

	f := NewFetcher(newTestSession(t, srv.URL), 250, 0, utils.NewDiscardLogger())
	listings, err := f.FetchListings(context.Background(), makeIDs(600))

	if listings != nil {
		t.Errorf("expected no listings after a failed batch, got %d", len(listings))
	}
	var fetchErr *models.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Batch != 1 || fetchErr.StatusCode != http.StatusBadGateway {
		t.Errorf("unexpected error fields: batch=%d status=%d", fetchErr.Batch, fetchErr.StatusCode)
	}
	if len(ls.requests) != 2 {
		t.Errorf("requests after abort: got %d, want 2", len(ls.requests))
	}
}

func TestFetchListingsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"listings": [`))
	}))
	defer srv.Close()

	f := NewFetcher(newTestSession(t, srv.URL), 250, 0, utils.NewDiscardLogger())
	_, err := f.FetchListings(context.Background(), makeIDs(3))

	var parseErr *models.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestFetchListingsEmptySet(t *testing.T) {
	ls := &listingsServer{failBatch: -1}
	srv := httptest.NewServer(ls)
	defer srv.Close()

	f := NewFetcher(newTestSession(t, srv.URL), 250, 0, utils.NewDiscardLogger())
	listings, err := f.FetchListings(context.Background(), utils.NewIDSet())
	if err != nil {
		t.Fatalf("FetchListings: %v", err)
	}
	if len(listings) != 0 || len(ls.requests) != 0 {
		t.Errorf("expected no requests and no listings, got %d requests", len(ls.requests))
	}
}

func TestFetchListingsDecodesUnits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"listings":[{"rental_id":"r1","city":"Evanston","zip":"60201",
			"all_units":[{"id":"u1","bed":2,"sqft":850},{"id":"u2","bed":0,"sqft":null}],
			"community_amenities":[{"display_name":"Pool"},{"display_name":"Gym"}]}]}`))
	}))
	defer srv.Close()

	f := NewFetcher(newTestSession(t, srv.URL), 250, 0, utils.NewDiscardLogger())
	listings, err := f.FetchListings(context.Background(), utils.NewIDSet("r1"))
	if err != nil {
		t.Fatalf("FetchListings: %v", err)
	}
	if len(listings) != 1 || len(listings[0].AllUnits) != 2 {
		t.Fatalf("unexpected decode: %+v", listings)
	}
	u := listings[0].AllUnits
	if u[0].Sqft == nil || *u[0].Sqft != 850 || u[1].Sqft != nil {
		t.Errorf("sqft decode wrong: %+v", u)
	}
	if listings[0].CommunityAmenities[1].DisplayName != "Gym" {
		t.Errorf("amenity decode wrong: %+v", listings[0].CommunityAmenities)
	}
}
