// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics exposes Prometheus metrics for procedure calls, uploads
// and the read cache.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olegiv/heritage-archive/internal/cache"
)

const namespace = "heritage"

// Collector is a prometheus.Collector for application metrics. It also
// observes procedure calls for the rpc server.
type Collector struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	uploads  *prometheus.CounterVec

	cache        cache.StatsProvider
	cacheBackend string
	cacheHits    *prometheus.Desc
	cacheMisses  *prometheus.Desc
	cacheItems   *prometheus.Desc
}

// NewCollector returns a new Collector.
func NewCollector() *Collector {
	return &Collector{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rpc_calls_total",
				Help:      "The number of procedure calls by procedure and outcome code.",
			}, []string{"procedure", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rpc_duration_seconds",
				Help:      "The time taken to execute a procedure call.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"procedure"},
		),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_total",
				Help:      "The number of upload attempts by outcome.",
			}, []string{"outcome"},
		),
		cacheHits: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "cache", "hits_total"),
			"The number of read cache hits.", []string{"backend"}, nil,
		),
		cacheMisses: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "cache", "misses_total"),
			"The number of read cache misses.", []string{"backend"}, nil,
		),
		cacheItems: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "cache", "items"),
			"The number of entries held by the read cache.", []string{"backend"}, nil,
		),
	}
}

// WatchCache exports the counters of c on every scrape. Backends that keep
// no statistics are ignored.
func (c *Collector) WatchCache(backend cache.Cache) {
	if sp, ok := backend.(cache.StatsProvider); ok {
		c.cache = sp
		c.cacheBackend = cache.Backend(backend)
	}
}

// ObserveCall records one finished procedure call.
func (c *Collector) ObserveCall(procedure, code string, elapsed time.Duration) {
	c.calls.WithLabelValues(procedure, code).Inc()
	c.duration.WithLabelValues(procedure).Observe(elapsed.Seconds())
}

// ObserveUpload records one upload attempt; outcome is "ok", "too_large",
// "rejected" or "error".
func (c *Collector) ObserveUpload(outcome string) {
	c.uploads.WithLabelValues(outcome).Inc()
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.calls.Describe(ch)
	c.duration.Describe(ch)
	c.uploads.Describe(ch)
	ch <- c.cacheHits
	ch <- c.cacheMisses
	ch <- c.cacheItems
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.calls.Collect(ch)
	c.duration.Collect(ch)
	c.uploads.Collect(ch)

	if c.cache == nil {
		return
	}
	s := c.cache.Stats()
	ch <- prometheus.MustNewConstMetric(c.cacheHits, prometheus.CounterValue, float64(s.Hits), c.cacheBackend)
	ch <- prometheus.MustNewConstMetric(c.cacheMisses, prometheus.CounterValue, float64(s.Misses), c.cacheBackend)
	ch <- prometheus.MustNewConstMetric(c.cacheItems, prometheus.GaugeValue, float64(s.Items), c.cacheBackend)
}

// NewRegistry returns a registry holding c plus the Go runtime and process
// collectors.
func NewRegistry(c *Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		c,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics in reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
