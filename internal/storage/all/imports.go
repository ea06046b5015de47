// Package all wires all built-in output writers into the storage registry.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete writer, which register
// themselves with storage.Register.
//
// Importing this package makes the following output formats available:
//
//   - ".csv"     (elecetl/internal/storage/csv)
//   - ".parquet" (elecetl/internal/storage/parquet)
//
// Typical usage (in cmd/elecetl or a similar wiring layer):
//
//	import (
//	    _ "elecetl/internal/storage/all"
//
//	    "elecetl/internal/storage"
//	)
//
//	if err := storage.Save(ctx, tbl, "loaded__electricity_sales.csv"); err != nil {
//	    // handle error
//	}
//
// A binary that needs only a subset of writers can define its own wiring
// package that imports just those.
package all

import (
	_ "elecetl/internal/storage/csv"
	_ "elecetl/internal/storage/parquet"
)
