// Package config provides configuration models and helpers for the ETL run.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"elecetl/internal/formats"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "sources.sales.file.path").
// Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is a SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Callers decide whether to treat warnings
// as fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource("sources.sales", p.Sources.Sales, formats.TabularInputs)...)
	issues = append(issues, validateSource("sources.capability", p.Sources.Capability, []string{formats.JSON})...)
	issues = append(issues, validateTransform(p.Transform)...)
	issues = append(issues, validateOutput("outputs.sales", p.Outputs.Sales)...)
	issues = append(issues, validateOutput("outputs.capability", p.Outputs.Capability)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	issues = append(issues, validateLog(p.Log)...)

	return issues
}

// validateSource validates one input. An empty kind means "file".
func validateSource(path string, s Source, exts []string) []Issue {
	var issues []Issue

	loc := path + ".file.path"
	switch {
	case s.Kind == "" || strings.EqualFold(s.Kind, SourceKindFile):
		if strings.TrimSpace(s.File.Path) == "" {
			return append(issues, Issue{
				Severity: SeverityError,
				Path:     loc,
				Message:  "file source requires a non-empty path",
			})
		}
	case s.IsHTTP():
		loc = path + ".http.url"
		issues = append(issues, validateHTTP(path+".http", s.HTTP)...)
		if HasErrors(issues) {
			return issues
		}
	default:
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".kind",
			Message:  fmt.Sprintf("unknown source kind %q; expected \"file\" or \"http\"", s.Kind),
		})
	}

	format := s.Format()
	if s.Parser.Kind != "" {
		loc = path + ".parser.kind"
	}
	if !contains(exts, format) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     loc,
			Message:  fmt.Sprintf("%q has an unsupported extension; expected one of %s", s.Location(), strings.Join(exts, ", ")),
		})
	}

	if format == formats.CSV {
		if c := s.Parser.Options.String("comma", ","); len([]rune(c)) != 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".parser.options.comma",
				Message:  fmt.Sprintf("comma must be a single character, got %q", c),
			})
		}
	}

	return issues
}

func validateHTTP(path string, h SourceHTTP) []Issue {
	var issues []Issue
	u, err := url.Parse(strings.TrimSpace(h.URL))
	switch {
	case h.URL == "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".url",
			Message:  "http source requires a non-empty url",
		})
	case err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".url",
			Message:  fmt.Sprintf("%q is not an absolute http(s) URL", h.URL),
		})
	}
	if h.MaxRetries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     path + ".max_retries",
			Message:  "max_retries is negative; retries are disabled",
		})
	}
	if _, err := h.TimeoutDuration(); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".timeout",
			Message:  fmt.Sprintf("timeout %q is not a duration", h.Timeout),
		})
	}
	return issues
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func validateTransform(t Transform) []Issue {
	var issues []Issue
	known := map[string]struct{}{"strict_schema": {}}
	for k, v := range t.Options {
		if _, ok := known[k]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "transform.options." + k,
				Message:  fmt.Sprintf("unknown transform option %q is ignored", k),
			})
			continue
		}
		if _, ok := v.(bool); !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "transform.options." + k,
				Message:  fmt.Sprintf("%s must be a boolean, got %T", k, v),
			})
		}
	}
	return issues
}

func validateOutput(path string, o Output) []Issue {
	p := strings.TrimSpace(o.Path)
	if p == "" {
		return []Issue{{
			Severity: SeverityError,
			Path:     path + ".path",
			Message:  "output path must not be empty",
		}}
	}
	if !formats.Accepts(p, formats.Outputs) {
		return []Issue{{
			Severity: SeverityError,
			Path:     path + ".path",
			Message:  fmt.Sprintf("%q has an unsupported extension; expected one of %s", p, strings.Join(formats.Outputs, ", ")),
		}}
	}
	return nil
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "", "none":
		return nil
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			return []Issue{{
				Severity: SeverityWarning,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway_url is empty; http://localhost:9091 will be used",
			}}
		}
		return nil
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			return []Issue{{
				Severity: SeverityWarning,
				Path:     "metrics.datadog_addr",
				Message:  "datadog_addr is empty; 127.0.0.1:8125 will be used",
			}}
		}
		return nil
	default:
		return []Issue{{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", m.Backend),
		}}
	}
}

func validateLog(l Log) []Issue {
	var issues []Issue
	switch strings.ToLower(l.Level) {
	case "", "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "log.level",
			Message:  fmt.Sprintf("unknown log level %q; info will be used", l.Level),
		})
	}
	switch l.Format {
	case "", "console", "json":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "log.format",
			Message:  fmt.Sprintf("unknown log format %q; console will be used", l.Format),
		})
	}
	return issues
}
