package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnet_http_requests_total",
		Help: "HTTP requests by method, route pattern and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "socialnet_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// FollowToggles counts applied follow and unfollow transitions.
	FollowToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnet_follow_toggles_total",
		Help: "Follow graph transitions by action",
	}, []string{"action"})

	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnet_like_toggles_total",
		Help: "Post like transitions by action",
	}, []string{"action"})

	NotificationsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnet_notifications_emitted_total",
		Help: "Notifications created by type",
	}, []string{"type"})

	MediaOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnet_media_operations_total",
		Help: "Media store calls by operation and outcome",
	}, []string{"op", "outcome"})
)
