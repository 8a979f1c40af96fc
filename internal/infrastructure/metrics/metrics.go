package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var transitionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modqueue_transitions_total",
	Help: "Number of transition attempts by action and outcome",
}, []string{"action", "outcome"})

var transitionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "modqueue_transition_duration_sec",
	Help: "Duration of a single transition including the commit",
}, []string{"action"})

var bulkItemCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modqueue_bulk_items_total",
	Help: "Number of bulk items by outcome",
}, []string{"outcome"})

var publishFailureCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modqueue_publish_failures_total",
	Help: "Number of transition events which could not be delivered",
}, []string{"sink"})

var relayedEventCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "modqueue_relayed_events_total",
	Help: "Number of audit entries delivered by the event relay",
})

var ingestedRecordCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modqueue_ingested_records_total",
	Help: "Number of records accepted into the queue",
}, []string{"kind"})

// ObserveTransition records one transition attempt. outcome is "applied" or an error kind.
func ObserveTransition(action string, outcome string, elapsed time.Duration) {
	transitionCount.WithLabelValues(action, outcome).Inc()
	transitionDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

func ObserveBulkItem(outcome string) {
	bulkItemCount.WithLabelValues(outcome).Inc()
}

func ObservePublishFailure(sink string) {
	publishFailureCount.WithLabelValues(sink).Inc()
}

func ObserveRelayed(n int) {
	relayedEventCount.Add(float64(n))
}

func ObserveIngest(kind string) {
	ingestedRecordCount.WithLabelValues(kind).Inc()
}
