// Package parser defines the contract shared by the format readers under
// internal/parser/*. Each reader decodes a whole stream into a records.Table
// and reports malformed input as an etlerr ParseError.
package parser

import (
	"io"

	"elecetl/pkg/records"
)

// Parser decodes r into a table.
type Parser interface {
	Parse(r io.Reader) (*records.Table, error)
}

// ParserFunc adapts a plain function to Parser.
type ParserFunc func(r io.Reader) (*records.Table, error)

// Parse calls f(r).
func (f ParserFunc) Parse(r io.Reader) (*records.Table, error) { return f(r) }
