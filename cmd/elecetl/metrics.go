package main

import (
	"github.com/rs/zerolog"

	"elecetl/internal/config"
	"elecetl/internal/metrics"
	"elecetl/internal/metrics/datadog"
	"elecetl/internal/metrics/prompush"
)

// setupMetrics installs the configured backend and returns a function that
// flushes it. Backend construction failures leave the no-op backend in place.
func setupMetrics(p config.Pipeline, log zerolog.Logger) (flush func()) {
	var (
		b   metrics.Backend
		err error
	)
	switch p.Metrics.Backend {
	case "pushgateway":
		url := p.Metrics.PushgatewayURL
		if url == "" {
			url = prompush.DefaultURL
		}
		b, err = newPushgateway(p.Job, url)
		log.Debug().Str("backend", "pushgateway").Str("url", url).Msg("metrics enabled")
	case "datadog":
		addr := p.Metrics.DatadogAddr
		if addr == "" {
			addr = datadog.DefaultAddr
		}
		b, err = newDatadog(datadog.Config{
			Addr:       addr,
			Namespace:  p.Metrics.Namespace,
			GlobalTags: []string{"job:" + p.Job},
		})
		log.Debug().Str("backend", "datadog").Str("addr", addr).Msg("metrics enabled")
	case "", "none":
		log.Debug().Msg("metrics disabled")
		return func() {}
	default:
		log.Warn().Str("backend", p.Metrics.Backend).Msg("unknown metrics backend; metrics disabled")
		return func() {}
	}
	if err != nil {
		log.Warn().Err(err).Msg("metrics backend unavailable; using nop")
		return func() {}
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn().Err(err).Msg("metrics flush failed")
		}
		metrics.Reset()
	}
}

// The constructors below return a nil interface on error.
func newPushgateway(job, url string) (metrics.Backend, error) {
	b, err := prompush.NewBackend(job, url)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func newDatadog(cfg datadog.Config) (metrics.Backend, error) {
	b, err := datadog.NewBackend(cfg)
	if err != nil {
		return nil, err
	}
	return b, nil
}
