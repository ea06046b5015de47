// Package metrics records operational metrics for ETL runs behind a small,
// backend-agnostic interface.
//
// The global backend defaults to a no-op, so instrumentation is always safe to
// call. Concrete systems live in subpackages (prompush for a Prometheus
// Pushgateway, datadog for DogStatsD) and are installed with SetBackend by the
// command wiring.
package metrics

import "time"

// Metric names shared by every backend.
const (
	StageTotal    = "elecetl_stage_total"
	StageDuration = "elecetl_stage_duration_seconds"
	RowsTotal     = "elecetl_rows_total"
	RunsTotal     = "elecetl_runs_total"
)

// Row kinds reported through RecordRow.
const (
	RowsExtracted     = "extracted"
	RowsDroppedNull   = "dropped_null_price"
	RowsDroppedSector = "dropped_sector"
	RowsLoaded        = "loaded"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Reset restores the no-op backend.
func Reset() { backend = nopBackend{} }

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

func status(err error) string {
	if err != nil {
		return statusFailure
	}
	return statusSuccess
}

// RecordStep counts one execution of a pipeline stage and observes its
// duration. step names the stage, e.g. "extract_sales" or "load_capability".
func RecordStep(job, step string, err error, d time.Duration) {
	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status(err),
	}
	backend.IncCounter(StageTotal, 1, lbls)
	backend.ObserveHistogram(StageDuration, d.Seconds(), lbls)
}

// RecordRow adds delta rows of the given kind for a dataset ("sales" or
// "capability"). Non-positive deltas are ignored.
func RecordRow(job, dataset, kind string, delta int) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"job":     job,
		"dataset": dataset,
		"kind":    kind,
	})
}

// RecordRun counts one finished run.
func RecordRun(job string, err error) {
	backend.IncCounter(RunsTotal, 1, Labels{
		"job":    job,
		"status": status(err),
	})
}
