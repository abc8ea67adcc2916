package docstore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "couponbook_docstore_loads_total",
		Help: "Collection loads by result (ok, missing, corrupt)",
	}, []string{"collection", "result"})

	savesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "couponbook_docstore_saves_total",
		Help: "Collection commits by result",
	}, []string{"collection", "result"})

	saveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "couponbook_docstore_save_duration_seconds",
		Help:    "Duration of collection commits",
		Buckets: prometheus.DefBuckets,
	}, []string{"collection"})

	quarantinedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "couponbook_docstore_quarantined_total",
		Help: "Corrupt documents moved aside before being overwritten",
	}, []string{"collection"})
)

func observeLoad(collection string, status loadStatus) {
	loadsTotal.WithLabelValues(collection, status.String()).Inc()
}

func observeSave(collection, result string, start time.Time) {
	savesTotal.WithLabelValues(collection, result).Inc()
	saveDuration.WithLabelValues(collection).Observe(time.Since(start).Seconds())
}
