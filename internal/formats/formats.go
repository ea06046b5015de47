// Package formats names the file extensions each pipeline stage accepts.
package formats

import (
	"path/filepath"
	"strings"
)

const (
	CSV     = ".csv"
	Parquet = ".parquet"
	XLSX    = ".xlsx"
	JSON    = ".json"
)

// TabularInputs are the extensions the tabular extractor can read.
var TabularInputs = []string{CSV, Parquet, XLSX}

// Outputs are the extensions the loader can write.
var Outputs = []string{CSV, Parquet}

// Ext returns the lowercased extension of path, including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// Accepts reports whether path's extension is one of allowed.
func Accepts(path string, allowed []string) bool {
	ext := Ext(path)
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
