// Package metrics exposes prometheus counters and histograms for the
// calculation services, the timetable cache, the feed server and the MQTT
// publisher.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "prayertimer"

var (
	Calculations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calculations_total",
		Help:      "Prayer day calculations by source and result",
	}, []string{"source", "result"})

	TimetableFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "timetable_fetches_total",
		Help:      "Remote timetable downloads by source and result",
	}, []string{"source", "result"})

	TimetableFetchSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "timetable_fetch_seconds",
		Help:      "Remote timetable download latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})

	// YearCache counts lookups by the tier that answered: memory, store or
	// remote.
	YearCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "year_cache_lookups_total",
		Help:      "Timetable year lookups by answering tier",
	}, []string{"tier"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Feed requests by route and status code",
	}, []string{"route", "code"})

	HTTPSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_seconds",
		Help:      "Feed request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	Published = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mqtt_published_total",
		Help:      "Timer snapshots published by result",
	}, []string{"result"})

	GeoLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geolocation_lookups_total",
		Help:      "IP geolocation lookups by result",
	}, []string{"result"})

	TimelineEntries = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "timeline_entries",
		Help:      "Entries returned per timeline build",
		Buckets:   prometheus.LinearBuckets(0, 10, 10),
	})
)

// Result labels an outcome.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveFetch records one timetable download.
func ObserveFetch(source string, start time.Time, err error) {
	TimetableFetches.WithLabelValues(source, Result(err)).Inc()
	TimetableFetchSeconds.WithLabelValues(source).Observe(time.Since(start).Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
