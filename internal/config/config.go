// Package config defines the JSON/YAML-serializable configuration model for
// the electricity ETL run. A pipeline file names the two inputs, the two
// outputs, transform options, and the logging and metrics setup.
//
// Example (trimmed):
//
//	{
//	  "job": "electricity_etl",
//	  "sources": {
//	    "sales":      { "kind": "file", "file": { "path": "electricity_sales.csv" },
//	                    "parser": { "options": { "trim_space": true } } },
//	    "capability": { "kind": "file", "file": { "path": "electricity_capability_nested.json" } }
//	  },
//	  "transform": { "options": { "strict_schema": false } },
//	  "outputs": {
//	    "sales":      { "path": "loaded__electricity_sales.csv" },
//	    "capability": { "path": "loaded__electricity_capability.parquet" }
//	  },
//	  "metrics": { "backend": "none" },
//	  "log": { "level": "info", "format": "console" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"sigs.k8s.io/yaml"

	"elecetl/internal/formats"
)

// EnvPrefix prefixes every environment override, e.g. ELECETL_SALES_PATH.
const EnvPrefix = "ELECETL"

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job labels the run in logs and metrics.
	Job string `json:"job"`

	Sources   Sources   `json:"sources"`
	Transform Transform `json:"transform"`
	Outputs   Outputs   `json:"outputs"`
	Metrics   Metrics   `json:"metrics"`
	Log       Log       `json:"log"`
}

// Sources holds the two inputs of a run.
type Sources struct {
	// Sales is the tabular sales file (.csv, .parquet or .xlsx).
	Sales Source `json:"sales"`
	// Capability is the nested JSON capability file.
	Capability Source `json:"capability"`
}

// Source kinds.
const (
	SourceKindFile = "file"
	SourceKindHTTP = "http"
)

// Source identifies one input.
type Source struct {
	// Kind selects the source implementation: "file" (default) or "http".
	Kind string `json:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file"`

	// HTTP carries options for the "http" source kind.
	HTTP SourceHTTP `json:"http"`

	// Parser carries format-specific reader options.
	Parser Parser `json:"parser"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	// URL is fetched with GET; its path extension selects the format unless
	// parser.kind is set.
	URL string `json:"url"`
	// MaxRetries bounds retries of transport errors, 429 and 5xx responses.
	MaxRetries int `json:"max_retries"`
	// Timeout is a Go duration string such as "30s". Empty means 30s.
	Timeout string `json:"timeout"`
}

// TimeoutDuration parses Timeout. An empty value returns 0.
func (h SourceHTTP) TimeoutDuration() (time.Duration, error) {
	if strings.TrimSpace(h.Timeout) == "" {
		return 0, nil
	}
	return time.ParseDuration(h.Timeout)
}

// IsHTTP reports whether s is fetched over HTTP.
func (s Source) IsHTTP() bool { return strings.EqualFold(s.Kind, SourceKindHTTP) }

// Location returns the file path or URL of s.
func (s Source) Location() string {
	if s.IsHTTP() {
		return s.HTTP.URL
	}
	return s.File.Path
}

// Format returns the input extension of s (".csv", ".json", ...). Parser.Kind
// wins when set; otherwise it comes from the file path or the URL path.
func (s Source) Format() string {
	if k := strings.TrimSpace(s.Parser.Kind); k != "" {
		return "." + strings.TrimPrefix(strings.ToLower(k), ".")
	}
	if s.IsHTTP() {
		u, err := url.Parse(s.HTTP.URL)
		if err != nil {
			return ""
		}
		return formats.Ext(u.Path)
	}
	return formats.Ext(s.File.Path)
}

// Parser carries reader options. Kind is optional; the file extension decides
// the format when it is empty.
type Parser struct {
	// Kind names the format ("csv", "parquet", "xlsx", "json").
	Kind string `json:"kind,omitempty"`

	// Options is a free-form map interpreted by the parser implementation.
	// CSV: comma (string), trim_space (bool), encoding (string), has_header (bool),
	// keep_default_na (bool).
	// XLSX: sheet (string).
	Options Options `json:"options"`
}

// Transform carries options for the sales transform.
type Transform struct {
	// Options keys: strict_schema (bool).
	Options Options `json:"options"`
}

// Outputs holds the two destinations of a run.
type Outputs struct {
	Sales      Output `json:"sales"`
	Capability Output `json:"capability"`
}

// Output names a destination file; the extension selects the writer.
type Output struct {
	Path string `json:"path"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is one of "pushgateway", "datadog", "none" (or empty).
	Backend        string `json:"backend"`
	PushgatewayURL string `json:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr"`
	Namespace      string `json:"namespace"`
}

// Log configures the process logger.
type Log struct {
	// Level is a zerolog level name: trace, debug, info, warn, error.
	Level string `json:"level"`
	// Format is "console" (human readable) or "json".
	Format string `json:"format"`
}

// Default returns the pipeline used when no config file is given. Paths are
// relative to the working directory.
func Default() Pipeline {
	return Pipeline{
		Job: "electricity_etl",
		Sources: Sources{
			Sales: Source{
				Kind:   "file",
				File:   SourceFile{Path: "electricity_sales.csv"},
				Parser: Parser{Options: Options{}},
			},
			Capability: Source{
				Kind:   "file",
				File:   SourceFile{Path: "electricity_capability_nested.json"},
				Parser: Parser{Options: Options{}},
			},
		},
		Transform: Transform{Options: Options{}},
		Outputs: Outputs{
			Sales:      Output{Path: "loaded__electricity_sales.csv"},
			Capability: Output{Path: "loaded__electricity_capability.parquet"},
		},
		Metrics: Metrics{Backend: "none"},
		Log:     Log{Level: "info", Format: "console"},
	}
}

// Load reads a pipeline file on top of Default. Files ending in .yaml/.yml
// are YAML, anything else is JSON; both use the json field names.
func Load(path string) (Pipeline, error) {
	p := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read config: %w", err)
	}
	switch formats.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &p)
	default:
		err = json.Unmarshal(b, &p)
	}
	if err != nil {
		return p, fmt.Errorf("decode config %s: %w", path, err)
	}
	return p, nil
}

// Env lists the supported environment overrides. Empty values leave the file
// setting untouched.
type Env struct {
	Job              string `envconfig:"JOB"`
	SalesPath        string `envconfig:"SALES_PATH"`
	SalesURL         string `envconfig:"SALES_URL"`
	CapabilityPath   string `envconfig:"CAPABILITY_PATH"`
	CapabilityURL    string `envconfig:"CAPABILITY_URL"`
	SalesOutput      string `envconfig:"SALES_OUTPUT"`
	CapabilityOutput string `envconfig:"CAPABILITY_OUTPUT"`
	StrictSchema     string `envconfig:"STRICT_SCHEMA"`
	MetricsBackend   string `envconfig:"METRICS_BACKEND"`
	PushgatewayURL   string `envconfig:"PUSHGATEWAY_URL"`
	DatadogAddr      string `envconfig:"DATADOG_ADDR"`
	LogLevel         string `envconfig:"LOG_LEVEL"`
	LogFormat        string `envconfig:"LOG_FORMAT"`
}

// ApplyEnv overlays ELECETL_* environment variables onto p.
func ApplyEnv(p *Pipeline) error {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("config env: %w", err)
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.Job, env.Job)
	set(&p.Sources.Sales.File.Path, env.SalesPath)
	set(&p.Sources.Capability.File.Path, env.CapabilityPath)
	if env.SalesURL != "" {
		p.Sources.Sales.Kind = SourceKindHTTP
		p.Sources.Sales.HTTP.URL = env.SalesURL
	}
	if env.CapabilityURL != "" {
		p.Sources.Capability.Kind = SourceKindHTTP
		p.Sources.Capability.HTTP.URL = env.CapabilityURL
	}
	set(&p.Outputs.Sales.Path, env.SalesOutput)
	set(&p.Outputs.Capability.Path, env.CapabilityOutput)
	set(&p.Metrics.Backend, env.MetricsBackend)
	set(&p.Metrics.PushgatewayURL, env.PushgatewayURL)
	set(&p.Metrics.DatadogAddr, env.DatadogAddr)
	set(&p.Log.Level, env.LogLevel)
	set(&p.Log.Format, env.LogFormat)
	if env.StrictSchema != "" {
		strict, err := strconv.ParseBool(env.StrictSchema)
		if err != nil {
			return fmt.Errorf("config env: %s_STRICT_SCHEMA: %w", EnvPrefix, err)
		}
		if p.Transform.Options == nil {
			p.Transform.Options = Options{}
		}
		p.Transform.Options["strict_schema"] = strict
	}
	return nil
}

// Options is a small helper to fetch typed values from arbitrary JSON maps.
// It performs only minimal type coercion and returns provided defaults when a
// key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Used for single-character settings such as a CSV
// delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// UnmarshalJSON makes a missing or null "options" object decode to a
// non-nil, empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
