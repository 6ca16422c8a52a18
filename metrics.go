package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	remoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "influenter_client",
			Name:      "remote_calls_total",
			Help:      "Backend calls made by the stores, by outcome.",
		},
		[]string{"store", "op", "outcome"},
	)

	fallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "influenter_client",
			Name:      "fallbacks_total",
			Help:      "Operations answered from the local cache after a backend failure.",
		},
		[]string{"store", "op"},
	)

	provisionalCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "influenter_client",
			Name:      "provisional_created_total",
			Help:      "Records created locally under a temporary id.",
		},
		[]string{"store"},
	)

	reconciledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "influenter_client",
			Name:      "reconciled_total",
			Help:      "Provisional records replayed against the backend.",
		},
		[]string{"store", "outcome"},
	)

	fetchGuardTimeoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "influenter_client",
			Name:      "fetch_guard_timeouts_total",
			Help:      "Fetches whose loading flag was reset by the guard timer.",
		},
		[]string{"store"},
	)
)

// promRecorder is the default Recorder.
type promRecorder struct{}

func (promRecorder) RemoteCall(store, op, outcome string) {
	remoteCallsTotal.WithLabelValues(store, op, outcome).Inc()
}

func (promRecorder) Fallback(store, op string) {
	fallbacksTotal.WithLabelValues(store, op).Inc()
}

func (promRecorder) Provisional(store string) {
	provisionalCreatedTotal.WithLabelValues(store).Inc()
}

func (promRecorder) Reconciled(store, outcome string) {
	reconciledTotal.WithLabelValues(store, outcome).Inc()
}

func (promRecorder) GuardTimeout(store string) {
	fetchGuardTimeoutsTotal.WithLabelValues(store).Inc()
}
