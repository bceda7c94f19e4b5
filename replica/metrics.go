package replica

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacemeshos/go-netstate/metrics"
)

const (
	namespace  = "replica"
	kindLabel  = "kind"
	stateLabel = "state"
)

var (
	sentPayloads = metrics.NewCounter(
		"sent_payloads",
		namespace,
		"payloads sent by the aggregator",
		[]string{kindLabel},
	)
	sentBytes = metrics.NewCounter(
		"sent_bytes",
		namespace,
		"payload bytes sent by the aggregator",
		[]string{kindLabel},
	)
	sentEntries = metrics.NewHistogramWithBuckets(
		"sent_entries",
		namespace,
		"field entries per sent payload",
		[]string{kindLabel},
		prometheus.ExponentialBuckets(1, 2, 8),
	)
	deferredDrains = metrics.NewCounter(
		"deferred_drains",
		namespace,
		"drains skipped until the object's sync interval elapses",
		[]string{},
	).WithLabelValues()
	sendFailures = metrics.NewCounter(
		"send_failures",
		namespace,
		"payloads the transport refused",
		[]string{},
	).WithLabelValues()

	received = metrics.NewCounter(
		"received_payloads",
		namespace,
		"payloads handled by the applier",
		[]string{stateLabel},
	)
	pendingObjects = metrics.NewGauge(
		"pending_objects",
		namespace,
		"unknown objects with buffered payloads",
		[]string{},
	).WithLabelValues()
	spawnedObjects = metrics.NewGauge(
		"objects",
		namespace,
		"objects in the registry",
		[]string{},
	).WithLabelValues()

	deltaPayloads = sentPayloads.WithLabelValues("delta")
	fullPayloads  = sentPayloads.WithLabelValues("full")
	deltaBytes    = sentBytes.WithLabelValues("delta")
	fullBytes     = sentBytes.WithLabelValues("full")
	deltaEntries  = sentEntries.WithLabelValues("delta")
	fullEntries   = sentEntries.WithLabelValues("full")

	appliedPayloads   = received.WithLabelValues("applied")
	stalePayloads     = received.WithLabelValues("stale")
	malformedPayloads = received.WithLabelValues("malformed")
	bufferedPayloads  = received.WithLabelValues("buffered")
	replayedPayloads  = received.WithLabelValues("replayed")
	expiredPayloads   = received.WithLabelValues("expired")
	evictedPayloads   = received.WithLabelValues("evicted")
	despawnedPayloads = received.WithLabelValues("despawned")
)
