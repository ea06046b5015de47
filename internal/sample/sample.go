// Package sample builds the small sales table written by "elecetl sample"
// to seed a first run.
package sample

import "elecetl/pkg/records"

// Columns of the sample sales file, in file order.
var Columns = []string{"period", "stateid", "stateDescription", "sectorid", "sectorName", "price", "price-units"}

// Sales returns five sales rows covering every transform branch: two kept
// sectors, one discarded sector and one missing price.
func Sales() *records.Table {
	row := func(period, state, desc, sectorID, sector string, price any) records.Record {
		return records.Record{
			"period":           period,
			"stateid":          state,
			"stateDescription": desc,
			"sectorid":         sectorID,
			"sectorName":       sector,
			"price":            price,
			"price-units":      "cents per kWh",
		}
	}
	tbl := records.NewTable(Columns...)
	tbl.Rows = []records.Record{
		row("202301", "CA", "California", "RES", "residential", 15.5),
		row("202301", "NY", "New York", "TRA", "transportation", 14.2),
		row("202302", "CA", "California", "COM", "commercial", 16.0),
		row("202302", "NY", "New York", "RES", "residential", nil),
		row("202303", "TX", "Texas", "TRA", "transportation", 13.8),
	}
	return tbl
}
