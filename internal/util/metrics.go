package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "equipment_requests_created_total",
		Help: "Total number of equipment requests created",
	})

	RequestTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "equipment_request_transitions_total",
		Help: "Total number of request status transitions",
	}, []string{"status"})

	CodesIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authorization_codes_issued_total",
		Help: "Total number of authorization codes issued",
	})

	CodesRedeemedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authorization_codes_redeemed_total",
		Help: "Total number of authorization codes redeemed into checkouts",
	})

	CodesExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authorization_codes_expired_total",
		Help: "Total number of authorization codes lazily marked expired",
	})

	CodesCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authorization_codes_cancelled_total",
		Help: "Total number of authorization codes cancelled",
	})

	CodeValidationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authorization_code_validations_failed_total",
		Help: "Total number of failed code validations",
	}, []string{"reason"})

	CheckoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "equipment_checkouts_total",
		Help: "Total number of equipment checkouts",
	})

	CheckinsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "equipment_checkins_total",
		Help: "Total number of equipment check-ins",
	})

	InsufficientInventoryTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "insufficient_inventory_total",
		Help: "Total number of operations rejected for insufficient inventory",
	})

	RedeemLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "code_redeem_latency_seconds",
		Help:    "Latency of code redemption transactions",
		Buckets: prometheus.DefBuckets,
	})

	AuditEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_events_published_total",
		Help: "Total number of audit events published",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
