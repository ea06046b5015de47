// Command elecetl runs the electricity sales ETL: it loads the capability
// JSON into Parquet and the cleaned sales table into CSV.
//
//	elecetl run --config pipeline.yaml
//	elecetl validate --config pipeline.yaml
package main

import (
	"os"

	// register the built-in output writers (.csv, .parquet).
	_ "elecetl/internal/storage/all"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
