// Package json implements the JSON reader for the extractor. Nested objects
// are flattened into dotted column names, one row per top-level record:
//
//	[{"plant": {"id": 7, "fuel": {"primary": "NG"}}, "mw": 12.5}]
//
// becomes the columns plant.id, plant.fuel.primary, mw.
//
// Accepted shapes:
//
//   - a root array of objects: [ {...}, {...} ]
//   - a single object: { ... } (one record)
//   - newline-delimited objects or arrays, concatenated
//
// Column order follows first appearance in the document.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"elecetl/internal/config"
	"elecetl/internal/etlerr"
	"elecetl/pkg/records"
)

// Options mirrors the csv package's options pattern.
type Options struct {
	// Separator joins nested keys. When empty, "." is used.
	Separator string
}

// FromConfigOptions constructs Options from a parser options bag.
func FromConfigOptions(o config.Options) Options {
	return Options{Separator: o.String("separator", ".")}
}

// Parser decodes and flattens JSON documents.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser {
	if opt.Separator == "" {
		opt.Separator = "."
	}
	return &Parser{opt: opt}
}

// member is one key/value pair of a decoded object, kept in document order.
type member struct {
	key string
	val any
}

// object is a JSON object whose key order survives decoding.
type object []member

// Parse reads every top-level value from r and returns the flattened table.
// Empty input, invalid JSON, and top-level values that are not objects (or
// arrays of objects) fail with etlerr.ErrParse.
func (p *Parser) Parse(r io.Reader) (*records.Table, error) {
	dec := json.NewDecoder(r)
	// UseNumber so integral values stay integral for the Parquet writer.
	dec.UseNumber()

	out := records.NewTable()
	seen := 0
	for {
		root, err := decodeValue(dec)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, etlerr.Parse("json", err)
		}
		seen++

		switch v := root.(type) {
		case object:
			p.appendRow(out, v)
		case []any:
			for i, elem := range v {
				obj, ok := elem.(object)
				if !ok {
					return nil, etlerr.Parse("json", fmt.Errorf("element %d in array is %s, not an object", i, kindOf(elem)))
				}
				p.appendRow(out, obj)
			}
		default:
			return nil, etlerr.Parse("json", fmt.Errorf("unsupported top-level JSON value %s", kindOf(root)))
		}
	}
	if seen == 0 {
		return nil, etlerr.Parse("json", errors.New("empty document"))
	}
	return out, nil
}

func (p *Parser) appendRow(t *records.Table, obj object) {
	rec := records.Record{}
	var keys []string
	p.flatten("", obj, rec, &keys)
	t.Append(rec, keys...)
}

// flatten writes the leaves of obj into rec under prefixed names and records
// each name in order of appearance.
func (p *Parser) flatten(prefix string, obj object, rec records.Record, keys *[]string) {
	for _, m := range obj {
		name := m.key
		if prefix != "" {
			name = prefix + p.opt.Separator + m.key
		}
		if nested, ok := m.val.(object); ok && len(nested) > 0 {
			p.flatten(name, nested, rec, keys)
			continue
		}
		if _, dup := rec[name]; !dup {
			*keys = append(*keys, name)
		}
		rec[name] = plain(m.val)
	}
}

// decodeValue reads one JSON value, keeping object key order.
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '{':
		var obj object
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, unexpectedEOF(err)
			}
			key, _ := kt.(string)
			v, err := decodeValue(dec)
			if err != nil {
				return nil, unexpectedEOF(err)
			}
			obj = append(obj, member{key: key, val: v})
		}
		if _, err := dec.Token(); err != nil {
			return nil, unexpectedEOF(err)
		}
		if obj == nil {
			obj = object{}
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, unexpectedEOF(err)
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, unexpectedEOF(err)
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", d)
	}
}

// unexpectedEOF turns an EOF inside a value into io.ErrUnexpectedEOF so the
// top-level loop does not mistake truncation for a clean end of input.
func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// plain converts ordered objects nested inside leaves (e.g. objects inside
// arrays) into ordinary maps.
func plain(v any) any {
	switch x := v.(type) {
	case object:
		m := make(map[string]any, len(x))
		for _, mem := range x {
			m[mem.key] = plain(mem.val)
		}
		return m
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	default:
		return v
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case object:
		return "an object"
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
