package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QueueMetrics records queue depth and sync cycle outcomes.
type QueueMetrics struct {
	depth         *prometheus.GaugeVec
	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	submissions   *prometheus.CounterVec
	enqueueDrops  prometheus.Counter
}

// NewQueueMetrics registers the queue metrics on the provided registerer.
func NewQueueMetrics(reg prometheus.Registerer) *QueueMetrics {
	if reg == nil {
		return &QueueMetrics{}
	}
	depth := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "queue_depth",
		Help: "Queued submissions by status.",
	}, []string{"status"})
	cycles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_cycles_total",
		Help: "Completed sync cycles by trigger.",
	}, []string{"trigger"})
	cycleDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sync_cycle_duration_seconds",
		Help:    "Duration of sync cycles in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_submissions_total",
		Help: "Per-item delivery outcomes.",
	}, []string{"outcome"})
	enqueueDrops := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "enqueue_storage_drops_total",
		Help: "Enqueues lost to local storage failures.",
	})
	reg.MustRegister(depth, cycles, cycleDuration, submissions, enqueueDrops)
	return &QueueMetrics{
		depth:         depth,
		cycles:        cycles,
		cycleDuration: cycleDuration,
		submissions:   submissions,
		enqueueDrops:  enqueueDrops,
	}
}

// SetDepth records the current number of submissions in the given status.
func (q *QueueMetrics) SetDepth(status string, n int) {
	if q == nil || q.depth == nil {
		return
	}
	q.depth.WithLabelValues(normalizeLabel(status)).Set(float64(n))
}

// IncCycle counts a completed cycle for the named trigger.
func (q *QueueMetrics) IncCycle(trigger string) {
	if q == nil || q.cycles == nil {
		return
	}
	q.cycles.WithLabelValues(normalizeLabel(trigger)).Inc()
}

// ObserveCycleDuration records how long a cycle took.
func (q *QueueMetrics) ObserveCycleDuration(d time.Duration) {
	if q == nil || q.cycleDuration == nil {
		return
	}
	q.cycleDuration.Observe(d.Seconds())
}

// IncSubmission counts a per-item outcome (delivered, duplicate, retried, failed).
func (q *QueueMetrics) IncSubmission(outcome string) {
	if q == nil || q.submissions == nil {
		return
	}
	q.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncEnqueueDrop counts a submission lost to a storage failure at enqueue.
func (q *QueueMetrics) IncEnqueueDrop() {
	if q == nil || q.enqueueDrops == nil {
		return
	}
	q.enqueueDrops.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
