package delivery

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSent    = "sent"
	resultFailed  = "failed"
	resultSkipped = "skipped"
)

var (
	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "couponbook_notifications_total",
		Help: "Notices by provider and result (sent, failed, skipped)",
	}, []string{"provider", "result"})

	notificationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "couponbook_notification_duration_seconds",
		Help:    "Duration of single delivery attempts",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
)

func observeNotification(provider, result string, duration time.Duration) {
	notificationsTotal.WithLabelValues(provider, result).Inc()
	if result != resultSkipped {
		notificationDuration.WithLabelValues(provider).Observe(duration.Seconds())
	}
}
