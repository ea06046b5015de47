// Package pipeline runs one electricity ETL pass:
//
//	capability JSON → flatten → Parquet
//	sales table     → transform → CSV
//
// Inputs are local files or HTTP(S) URLs.
//
// Stages run in that order and the first failure stops the run, so no output
// is written after an error. Every stage is timed, logged with the run's
// run_id, and reported to the metrics backend.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"elecetl/internal/config"
	"elecetl/internal/extract"
	"elecetl/internal/logger"
	"elecetl/internal/metrics"
	"elecetl/internal/storage"
	"elecetl/internal/transformer"
	"elecetl/pkg/records"
)

// Stage names used in logs and metrics.
const (
	StageExtractCapability = "extract_capability"
	StageLoadCapability    = "load_capability"
	StageExtractSales      = "extract_sales"
	StageTransformSales    = "transform_sales"
	StageLoadSales         = "load_sales"
)

// Datasets.
const (
	DatasetSales      = "sales"
	DatasetCapability = "capability"
)

// Seams for tests.
var (
	extractSalesFn      = extract.Sales
	extractCapabilityFn = extract.Capability
	saveFn              = storage.Save
	newRunID            = uuid.NewString
)

// Summary describes a finished run.
type Summary struct {
	RunID string

	CapabilityRows    int
	CapabilityColumns int

	SalesRowsIn      int
	SalesRowsOut     int
	DroppedNullPrice int
	DroppedSector    int

	// SalesFingerprint is the xxh3 digest of the cleaned sales table.
	SalesFingerprint uint64

	Duration time.Duration
}

// Run executes the pipeline described by p. The logger is taken from ctx
// (see logger.WithContext). The returned Summary is filled as far as the run
// got, even on error.
func Run(ctx context.Context, p config.Pipeline) (Summary, error) {
	start := time.Now()
	sum := Summary{RunID: newRunID()}

	log := logger.FromContext(ctx).With().
		Str("run_id", sum.RunID).
		Str("job", p.Job).
		Logger()
	ctx = logger.WithContext(ctx, log)

	err := run(ctx, p, &sum)
	sum.Duration = time.Since(start)
	metrics.RecordRun(p.Job, err)

	if err != nil {
		log.Error().Err(err).Dur("elapsed", sum.Duration).Msg("pipeline failed")
		return sum, err
	}
	log.Info().
		Int("capability_rows", sum.CapabilityRows).
		Int("sales_rows_in", sum.SalesRowsIn).
		Int("sales_rows_out", sum.SalesRowsOut).
		Int("dropped_null_price", sum.DroppedNullPrice).
		Int("dropped_sector", sum.DroppedSector).
		Str("sales_fingerprint", fmt.Sprintf("%016x", sum.SalesFingerprint)).
		Dur("elapsed", sum.Duration).
		Msg("pipeline completed")
	return sum, nil
}

func run(ctx context.Context, p config.Pipeline, sum *Summary) error {
	var capability, rawSales, sales *records.Table

	// 1) Capability: extract and load unchanged.
	if err := stage(ctx, p.Job, StageExtractCapability, func() (err error) {
		capability, err = extractCapabilityFn(ctx, p.Sources.Capability)
		return err
	}); err != nil {
		return fmt.Errorf("extract capability: %w", err)
	}
	sum.CapabilityRows = capability.Len()
	sum.CapabilityColumns = len(capability.Columns)
	metrics.RecordRow(p.Job, DatasetCapability, metrics.RowsExtracted, capability.Len())

	if err := stage(ctx, p.Job, StageLoadCapability, func() error {
		return saveFn(ctx, capability, p.Outputs.Capability.Path)
	}); err != nil {
		return fmt.Errorf("load capability: %w", err)
	}
	metrics.RecordRow(p.Job, DatasetCapability, metrics.RowsLoaded, capability.Len())

	// 2) Sales: extract, transform, load.
	if err := stage(ctx, p.Job, StageExtractSales, func() (err error) {
		rawSales, err = extractSalesFn(ctx, p.Sources.Sales)
		return err
	}); err != nil {
		return fmt.Errorf("extract sales: %w", err)
	}
	sum.SalesRowsIn = rawSales.Len()
	metrics.RecordRow(p.Job, DatasetSales, metrics.RowsExtracted, rawSales.Len())

	var st transformer.Stats
	if err := stage(ctx, p.Job, StageTransformSales, func() (err error) {
		sales, st, err = transformer.SalesWithStats(rawSales, transformer.OptionsFrom(p.Transform.Options))
		return err
	}); err != nil {
		return fmt.Errorf("transform sales: %w", err)
	}
	sum.SalesRowsOut = st.RowsOut
	sum.DroppedNullPrice = st.DroppedNullPrice
	sum.DroppedSector = st.DroppedSector
	sum.SalesFingerprint = sales.Fingerprint()
	metrics.RecordRow(p.Job, DatasetSales, metrics.RowsDroppedNull, st.DroppedNullPrice)
	metrics.RecordRow(p.Job, DatasetSales, metrics.RowsDroppedSector, st.DroppedSector)

	if err := stage(ctx, p.Job, StageLoadSales, func() error {
		return saveFn(ctx, sales, p.Outputs.Sales.Path)
	}); err != nil {
		return fmt.Errorf("load sales: %w", err)
	}
	metrics.RecordRow(p.Job, DatasetSales, metrics.RowsLoaded, sales.Len())
	return nil
}

// stage times fn, records it and logs the outcome at debug level.
func stage(ctx context.Context, job, name string, fn func() error) error {
	log := logger.FromContext(ctx)
	log.Debug().Str("stage", name).Msg("stage started")

	start := time.Now()
	err := fn()
	d := time.Since(start)
	metrics.RecordStep(job, name, err, d)

	if err != nil {
		log.Debug().Str("stage", name).Err(err).Dur("elapsed", d).Msg("stage failed")
		return err
	}
	log.Debug().Str("stage", name).Dur("elapsed", d).Msg("stage finished")
	return nil
}
