package shardqueue

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "influenter_client",
		Subsystem: "shardqueue",
		Name:      "submissions_total",
		Help:      "Jobs accepted per shard.",
	}, []string{"shard"})

	queueFullTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "influenter_client",
		Subsystem: "shardqueue",
		Name:      "queue_full_total",
		Help:      "Submissions rejected because the shard queue stayed full.",
	}, []string{"shard"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "influenter_client",
		Subsystem: "shardqueue",
		Name:      "run_duration_seconds",
		Help:      "Duration of a single job attempt.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"shard"})

	queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "influenter_client",
		Subsystem: "shardqueue",
		Name:      "queue_depth",
		Help:      "Jobs waiting in the shard queue.",
	}, []string{"shard"})
)

func labelFor(shard int) string { return strconv.Itoa(shard) }
