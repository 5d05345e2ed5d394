package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_cycles_total",
			Help: "Total number of polling cycles labeled by outcome",
		},
		[]string{"status"},
	)
	updatesFetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "updates_fetched_total",
			Help: "Total number of updates returned by getUpdates",
		},
	)
	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_total",
			Help: "Dispatched updates labeled by branch and outcome",
		},
		[]string{"branch", "status"},
	)
	ledgerAppendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_appends_total",
			Help: "Structured records appended to the ledger sink",
		},
		[]string{"status"},
	)
	telegramCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_api_calls_total",
			Help: "Outbound Telegram Bot API calls by method and status",
		},
		[]string{"method", "status"},
	)
	telegramCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telegram_api_call_duration_seconds",
			Help:    "Latency of outbound Telegram Bot API calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	pollOffset = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poll_offset",
			Help: "Highest update id seen by the fetcher",
		},
	)
	lastHandledUpdateID = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poll_last_handled_update_id",
			Help: "Highest update id the dispatcher acted upon",
		},
	)
)

// RecordCycle increments the cycle counter for the given outcome
// ("ok", "fetch_failed", "empty", "error").
func RecordCycle(status string) {
	if status == "" {
		status = "unknown"
	}

	pollCyclesTotal.WithLabelValues(status).Inc()
}

// RecordUpdatesFetched adds the batch size to the fetched counter.
func RecordUpdatesFetched(count int) {
	if count <= 0 {
		return
	}

	updatesFetchedTotal.Add(float64(count))
}

// RecordDispatch tracks one dispatched update by branch
// ("keyboard", "template", "callback", "record", "duplicate", "unhandled")
// and status ("handled", "skipped", "error").
func RecordDispatch(branch, status string) {
	if branch == "" {
		branch = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	dispatchTotal.WithLabelValues(branch, status).Inc()
}

// RecordLedgerAppend counts one sink append attempt.
func RecordLedgerAppend(status string) {
	if status == "" {
		status = "unknown"
	}

	ledgerAppendsTotal.WithLabelValues(status).Inc()
}

// ObserveTelegramCall records one outbound Bot API call.
func ObserveTelegramCall(method, status string, duration time.Duration) {
	if method == "" {
		method = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	telegramCallsTotal.WithLabelValues(method, status).Inc()
	telegramCallDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// SetPollState exports the persisted watermarks as gauges.
func SetPollState(offset, lastHandled int64) {
	pollOffset.Set(float64(offset))
	lastHandledUpdateID.Set(float64(lastHandled))
}
