package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "giveaway"

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"route", "method"})

	// Campaigns
	EntriesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "campaign",
		Name:      "entries_created_total",
		Help:      "Total entries accepted",
	})

	EntriesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "campaign",
		Name:      "entries_rejected_total",
		Help:      "Entries refused at creation, by reason",
	}, []string{"reason"})

	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "campaign",
		Name:      "verifications_total",
		Help:      "Entry verifications by result (verified, failed, error, skipped)",
	}, []string{"result"})

	WinnersSelected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "campaign",
		Name:      "winners_selected_total",
		Help:      "Winner rows created by selection",
	})

	GiveawaysExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "campaign",
		Name:      "giveaways_expired_total",
		Help:      "Active giveaways ended by the expiry job",
	})

	// Instagram
	InstagramCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "instagram",
		Name:      "api_calls_total",
		Help:      "Outbound Instagram API calls by endpoint and outcome",
	}, []string{"endpoint", "status"})

	InstagramRateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "instagram",
		Name:      "rate_limit_waits_total",
		Help:      "Calls delayed by the client-side limiter",
	})

	// Background
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "job_runs_total",
		Help:      "Scheduled job runs by job and result",
	}, []string{"job", "result"})

	StreamEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "events_processed_total",
		Help:      "Audit stream events consumed by action type and result",
	}, []string{"action", "result"})

	AuditPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "audit",
		Name:      "publish_errors_total",
		Help:      "Audit rows stored but not published to the stream",
	})
)
