package transformer

import (
	"elecetl/internal/config"
	"elecetl/internal/etlerr"
	"elecetl/internal/transformer/builtin"
	"elecetl/pkg/records"
)

// Canonical sales column names.
const (
	ColPeriod     = "period"
	ColStateID    = "stateid"
	ColSectorName = "sectorName"
	ColPrice      = "price"
	ColPriceUnits = "price-units"
	ColYear       = "year"
	ColMonth      = "month"
)

// SalesColumns are the columns a sales input must carry after aliasing.
var SalesColumns = []string{ColPeriod, ColStateID, ColSectorName, ColPrice, ColPriceUnits}

// OutputColumns are the columns of the transformed sales table, in order.
var OutputColumns = []string{ColYear, ColMonth, ColStateID, ColPrice, ColPriceUnits}

// Sectors are the sectorName values kept by the sales transform.
var Sectors = []string{"residential", "transportation"}

// SalesAliases is the fixed alias table applied before validation.
var SalesAliases = builtin.Aliases{
	{Canonical: ColPeriod, Names: []string{"Period", "Date"}},
	{Canonical: ColStateID, Names: []string{"StateID", "StateId"}},
	{Canonical: ColSectorName, Names: []string{"SectorName", "sectorname"}},
	{Canonical: ColPrice, Names: []string{"Price", "UnitPrice"}},
	{Canonical: ColPriceUnits, Names: []string{"Price-Units", "price_units", "unit_price"}},
}

// Options tunes the sales transform.
type Options struct {
	// StrictSchema reports every missing column as MissingColumns, even when
	// none of the required columns are present.
	StrictSchema bool
}

// OptionsFrom reads transform options from a config bag.
func OptionsFrom(o config.Options) Options {
	return Options{StrictSchema: o.Bool("strict_schema", false)}
}

// Stats summarizes a sales transform run.
type Stats struct {
	RowsIn           int
	RowsOut          int
	DroppedNullPrice int
	DroppedSector    int
	Steps            Report
}

// SalesChain returns the ordered steps of the sales transform.
func SalesChain(opts Options) Chain {
	return Chain{
		SalesAliases,
		builtin.RequireColumns{Columns: SalesColumns, Strict: opts.StrictSchema},
		builtin.DropNull{Field: ColPrice},
		builtin.Filter{Field: ColSectorName, In: Sectors},
		// Coerce after filtering so prices on discarded sectors are never parsed.
		builtin.Coerce{Types: map[string]string{ColPrice: "float"}},
		// month takes the first four characters and year the last two.
		builtin.Slice{From: ColPeriod, To: ColMonth, First: 4},
		builtin.Slice{From: ColPeriod, To: ColYear, Last: 2},
		builtin.Project{Columns: OutputColumns},
	}
}

// Sales cleans and reshapes a raw sales table. raw is never modified.
//
// Errors: etlerr.ErrInvalidArgument for a nil table, etlerr.ErrSchemaMismatch
// or etlerr.ErrMissingColumns when required columns are absent, and
// etlerr.ErrParse for a kept row whose price is not numeric.
func Sales(raw *records.Table, opts Options) (*records.Table, error) {
	out, _, err := SalesWithStats(raw, opts)
	return out, err
}

// SalesWithStats is Sales plus per-step row counts.
func SalesWithStats(raw *records.Table, opts Options) (*records.Table, Stats, error) {
	if raw == nil {
		return nil, Stats{}, etlerr.InvalidArgument("sales table must not be nil")
	}
	st := Stats{RowsIn: raw.Len()}
	out, rep, err := SalesChain(opts).Apply(raw.Clone())
	st.Steps = rep
	if err != nil {
		return nil, st, err
	}
	st.RowsOut = out.Len()
	st.DroppedNullPrice = rep.Dropped(builtin.DropNull{Field: ColPrice}.Name())
	st.DroppedSector = rep.Dropped(builtin.Filter{Field: ColSectorName}.Name())
	return out, st, nil
}
