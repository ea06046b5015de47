package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elecetl/internal/config"
	"elecetl/internal/etlerr"
	"elecetl/internal/logger"
	"elecetl/internal/metrics"
	pqparser "elecetl/internal/parser/parquet"
	_ "elecetl/internal/storage/all"
	"elecetl/pkg/records"
)

const salesCSV = `period,stateid,sectorName,price,price-units
202301,CA,residential,15.5,cents per kWh
202302,NY,residential,,cents per kWh
202301,TX,commercial,9.1,cents per kWh
202301,WA,transportation,11,cents per kWh
`

const capabilityJSON = `[
  {"period": 2023, "state": {"id": "CA", "name": "California"}, "capability": 80.5},
  {"period": 2023, "state": {"id": "TX", "name": "Texas"}, "capability": null}
]`

// recorder captures counter calls.
type recorder struct {
	mu    sync.Mutex
	steps []metrics.Labels
	rows  map[string]float64
}

func (r *recorder) IncCounter(name string, delta float64, l metrics.Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch name {
	case metrics.StageTotal:
		r.steps = append(r.steps, l)
	case metrics.RowsTotal:
		if r.rows == nil {
			r.rows = map[string]float64{}
		}
		r.rows[l["dataset"]+"/"+l["kind"]] += delta
	}
}
func (r *recorder) ObserveHistogram(string, float64, metrics.Labels) {}
func (r *recorder) Flush() error                                     { return nil }

func fixture(t *testing.T) (config.Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	p := config.Default()
	p.Sources.Sales.File.Path = filepath.Join(dir, "electricity_sales.csv")
	p.Sources.Capability.File.Path = filepath.Join(dir, "electricity_capability_nested.json")
	p.Outputs.Sales.Path = filepath.Join(dir, "loaded__electricity_sales.csv")
	p.Outputs.Capability.Path = filepath.Join(dir, "loaded__electricity_capability.parquet")
	require.NoError(t, os.WriteFile(p.Sources.Sales.File.Path, []byte(salesCSV), 0o644))
	require.NoError(t, os.WriteFile(p.Sources.Capability.File.Path, []byte(capabilityJSON), 0o644))
	return p, dir
}

func withRecorder(t *testing.T) *recorder {
	t.Helper()
	r := &recorder{}
	metrics.SetBackend(r)
	t.Cleanup(metrics.Reset)
	return r
}

func TestRun_EndToEnd(t *testing.T) {
	p, _ := fixture(t)
	rec := withRecorder(t)

	var logs bytes.Buffer
	ctx := logger.WithContext(context.Background(), logger.New(config.Log{Level: "debug", Format: "json"}, &logs))

	sum, err := Run(ctx, p)
	require.NoError(t, err)

	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 2, sum.CapabilityRows)
	assert.Equal(t, 4, sum.CapabilityColumns)
	assert.Equal(t, 4, sum.SalesRowsIn)
	assert.Equal(t, 2, sum.SalesRowsOut)
	assert.Equal(t, 1, sum.DroppedNullPrice)
	assert.Equal(t, 1, sum.DroppedSector)
	assert.NotZero(t, sum.SalesFingerprint)

	out, err := os.ReadFile(p.Outputs.Sales.Path)
	require.NoError(t, err)
	assert.Equal(t, "year,month,stateid,price,price-units\n"+
		"01,2023,CA,15.5,cents per kWh\n"+
		"01,2023,WA,11,cents per kWh\n", string(out))

	f, err := os.Open(p.Outputs.Capability.Path)
	require.NoError(t, err)
	defer f.Close()
	capTbl, err := pqparser.NewParser().Parse(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"period", "state.id", "state.name", "capability"}, capTbl.Columns)
	assert.Equal(t, int64(2023), capTbl.Rows[0]["period"])
	assert.Equal(t, 80.5, capTbl.Rows[0]["capability"])
	assert.Nil(t, capTbl.Rows[1]["capability"])

	var steps []string
	for _, l := range rec.steps {
		assert.Equal(t, "success", l["status"])
		steps = append(steps, l["step"])
	}
	assert.Equal(t, []string{StageExtractCapability, StageLoadCapability, StageExtractSales, StageTransformSales, StageLoadSales}, steps)
	assert.Equal(t, 4.0, rec.rows["sales/extracted"])
	assert.Equal(t, 2.0, rec.rows["sales/loaded"])
	assert.Equal(t, 1.0, rec.rows["sales/dropped_null_price"])
	assert.Equal(t, 2.0, rec.rows["capability/loaded"])

	assert.Contains(t, logs.String(), sum.RunID)
	assert.Contains(t, logs.String(), "pipeline completed")
}

func TestRun_DoesNotMutateExtractedSales(t *testing.T) {
	p, _ := fixture(t)

	var extracted *records.Table
	orig := extractSalesFn
	t.Cleanup(func() { extractSalesFn = orig })
	extractSalesFn = func(ctx context.Context, s config.Source) (*records.Table, error) {
		tbl, err := orig(ctx, s)
		extracted = tbl
		return tbl, err
	}

	_, err := Run(context.Background(), p)
	require.NoError(t, err)
	require.NotNil(t, extracted)
	assert.Equal(t, 4, extracted.Len())
	assert.Nil(t, extracted.Rows[1]["price"])
}

func TestRun_MissingCapabilityWritesNothing(t *testing.T) {
	p, _ := fixture(t)
	require.NoError(t, os.Remove(p.Sources.Capability.File.Path))

	_, err := Run(context.Background(), p)
	require.ErrorIs(t, err, etlerr.ErrNotFound)
	assert.Contains(t, err.Error(), "extract capability")

	for _, out := range []string{p.Outputs.Capability.Path, p.Outputs.Sales.Path} {
		_, statErr := os.Stat(out)
		assert.True(t, errors.Is(statErr, os.ErrNotExist), out)
	}
}

func TestRun_ColumnMismatchStopsBeforeSalesOutput(t *testing.T) {
	p, _ := fixture(t)
	require.NoError(t, os.WriteFile(p.Sources.Sales.File.Path, []byte("period,stateid,sectorName,price-units\n202301,CA,residential,x\n"), 0o644))
	rec := withRecorder(t)

	sum, err := Run(context.Background(), p)
	require.ErrorIs(t, err, etlerr.ErrMissingColumns)
	assert.Equal(t, 1, sum.SalesRowsIn)

	_, statErr := os.Stat(p.Outputs.Sales.Path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
	_, statErr = os.Stat(p.Outputs.Capability.Path)
	assert.NoError(t, statErr, "capability output is written before sales runs")

	last := rec.steps[len(rec.steps)-1]
	assert.Equal(t, StageTransformSales, last["step"])
	assert.Equal(t, "failure", last["status"])
}

func TestRun_EmptyCapability(t *testing.T) {
	p, _ := fixture(t)
	require.NoError(t, os.WriteFile(p.Sources.Capability.File.Path, []byte(`[]`), 0o644))

	sum, err := Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.CapabilityRows)
	assert.Equal(t, 0, sum.CapabilityColumns)
	assert.Equal(t, 2, sum.SalesRowsOut)

	b, err := os.ReadFile(p.Outputs.Capability.Path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("PAR1")))
}

func TestRun_UnsupportedOutput(t *testing.T) {
	p, _ := fixture(t)
	p.Outputs.Sales.Path = filepath.Join(t.TempDir(), "sales.json")

	_, err := Run(context.Background(), p)
	assert.ErrorIs(t, err, etlerr.ErrUnsupportedFormat)
}

func TestRun_HTTPSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/electricity_sales.csv":
			_, _ = io.WriteString(w, salesCSV)
		case "/electricity_capability_nested.json":
			_, _ = io.WriteString(w, capabilityJSON)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p, _ := fixture(t)
	p.Sources.Sales = config.Source{Kind: "http", HTTP: config.SourceHTTP{URL: srv.URL + "/electricity_sales.csv"}}
	p.Sources.Capability = config.Source{Kind: "http", HTTP: config.SourceHTTP{URL: srv.URL + "/electricity_capability_nested.json"}}
	require.Empty(t, config.ValidatePipeline(p))

	sum, err := Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.CapabilityRows)
	assert.Equal(t, 2, sum.SalesRowsOut)

	out, err := os.ReadFile(p.Outputs.Sales.Path)
	require.NoError(t, err)
	assert.Contains(t, string(out), "01,2023,WA,11,cents per kWh")
}

func TestRun_HTTPNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	p, _ := fixture(t)
	p.Sources.Sales = config.Source{Kind: "http", HTTP: config.SourceHTTP{URL: srv.URL + "/electricity_sales.csv"}}

	_, err := Run(context.Background(), p)
	require.ErrorIs(t, err, etlerr.ErrNotFound)
	assert.Contains(t, err.Error(), "extract sales")
}
