package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Recorder collects run metrics in a private registry. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	registry       *prom.Registry
	fetchResults   *prom.CounterVec
	fetchDuration  prom.Histogram
	packagesListed prom.Gauge
	documentPages  prom.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prom.NewRegistry(),
		fetchResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "manbook",
			Name:      "fetch_results_total",
			Help:      "Man page fetches by outcome",
		}, []string{"status"}),
		fetchDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "manbook",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of individual man page fetches",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		packagesListed: prom.NewGauge(prom.GaugeOpts{
			Namespace: "manbook",
			Name:      "packages_listed",
			Help:      "Unique packages returned by the package listing",
		}),
		documentPages: prom.NewGauge(prom.GaugeOpts{
			Namespace: "manbook",
			Name:      "document_pages",
			Help:      "Pages in the generated document",
		}),
	}
	r.registry.MustRegister(r.fetchResults, r.fetchDuration, r.packagesListed, r.documentPages)
	return r
}

func (r *Recorder) ObserveFetch(status string, d time.Duration) {
	if r == nil {
		return
	}
	r.fetchResults.WithLabelValues(status).Inc()
	r.fetchDuration.Observe(d.Seconds())
}

func (r *Recorder) SetPackagesListed(n int) {
	if r != nil {
		r.packagesListed.Set(float64(n))
	}
}

func (r *Recorder) SetDocumentPages(n int) {
	if r != nil {
		r.documentPages.Set(float64(n))
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prom.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteTextfile writes the metrics in the node_exporter textfile format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prom.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
