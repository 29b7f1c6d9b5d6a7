package apartmentlist

import (
	"context"
	"regexp"

	"rental-ingest/utils"
)

// rentalIDRegexp matches the rental ids embedded in the landing page's
// serialized state. The page carries more ids than it renders as cards.
var rentalIDRegexp = regexp.MustCompile(`"rental_id":"(.+?)"`)

// PageSource returns the raw body of a web page.
type PageSource interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
}

// DiscoverIDs loads the region landing page and returns every distinct rental
// id found in it. Only the first page is read.
func DiscoverIDs(ctx context.Context, src PageSource, pageURL string, logger *utils.Logger) (*utils.IDSet, error) {
	logger.Info("[discovery] Loading %s", pageURL)

	body, err := src.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	ids := ExtractRentalIDs(body)
	logger.Info("[discovery] Found %d unique rental ids (%d bytes scanned)", ids.Size(), len(body))
	return ids, nil
}

// ExtractRentalIDs scans body for "rental_id":"<value>" and collects the values.
func ExtractRentalIDs(body string) *utils.IDSet {
	ids := utils.NewIDSet()
	for _, m := range rentalIDRegexp.FindAllStringSubmatch(body, -1) {
		ids.Add(m[1])
	}
	return ids
}
