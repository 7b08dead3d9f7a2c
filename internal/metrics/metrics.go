// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "disaster_bot_http_requests_total",
		Help: "Total HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "disaster_bot_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	ChatReplies = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "disaster_bot_chat_replies_total",
		Help: "Chat replies by outcome (llm, cached, fallback)",
	}, []string{"outcome"})

	ChatCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "disaster_bot_chat_cache_lookups_total",
		Help: "Chat response cache lookups by result (hit, miss, error)",
	}, []string{"result"})

	AlertsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disaster_bot_alerts_published_total",
		Help: "Alerts published to the live feed",
	})

	AlertsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disaster_bot_alerts_expired_total",
		Help: "Expired alerts removed by the sweeper",
	})

	ReportsTriaged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "disaster_bot_reports_triaged_total",
		Help: "Reports processed by the triage workers by result (escalated, skipped, failed)",
	}, []string{"result"})

	LiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "disaster_bot_live_feed_clients",
		Help: "Connected live alert feed clients",
	})
)
