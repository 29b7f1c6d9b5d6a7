package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const jobName = "rental_ingest"

// Recorder collects the figures of one pipeline run. The process is a batch
// job, so nothing is scraped; Push sends the values to a Pushgateway.
type Recorder struct {
	registry *prometheus.Registry

	IDsDiscovered   prometheus.Gauge
	ListingsFetched prometheus.Gauge
	UnitRows        prometheus.Gauge
	AmenityRows     prometheus.Gauge
	StageDuration   *prometheus.GaugeVec
	LastSuccess     prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		IDsDiscovered: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rental_ingest_ids_discovered",
			Help: "Unique rental ids found on the region landing page",
		}),
		ListingsFetched: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rental_ingest_listings_fetched",
			Help: "Listings returned by the listings-search endpoint",
		}),
		UnitRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rental_ingest_unit_rows",
			Help: "Unit rows produced by normalization",
		}),
		AmenityRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rental_ingest_amenity_rows",
			Help: "Amenity rows produced by normalization",
		}),
		StageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rental_ingest_stage_duration_seconds",
			Help: "Wall time spent in each pipeline stage",
		}, []string{"stage"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rental_ingest_last_success_timestamp_seconds",
			Help: "Unix time of the last run that loaded successfully",
		}),
	}

	r.registry.MustRegister(r.IDsDiscovered, r.ListingsFetched, r.UnitRows, r.AmenityRows, r.StageDuration, r.LastSuccess)
	return r
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveStage records how long a stage took since start.
func (r *Recorder) ObserveStage(stage string, start time.Time) {
	r.StageDuration.WithLabelValues(stage).Set(time.Since(start).Seconds())
}

// Push sends all collected values to the Pushgateway at url, grouped by run id.
func (r *Recorder) Push(ctx context.Context, url, runID string) error {
	return push.New(url, jobName).
		Gatherer(r.registry).
		Grouping("run_id", runID).
		PushContext(ctx)
}
