package transport

import "github.com/spacemeshos/go-netstate/metrics"

const (
	namespace  = "transport"
	stateLabel = "state"
)

var (
	messages = metrics.NewCounter(
		"messages",
		namespace,
		"messages passing through the in-memory hub",
		[]string{stateLabel},
	)
	sentBytes = metrics.NewCounter(
		"sent_bytes",
		namespace,
		"bytes queued by the in-memory hub",
		[]string{},
	).WithLabelValues()

	queued     = messages.WithLabelValues("queued")
	delivered  = messages.WithLabelValues("delivered")
	duplicated = messages.WithLabelValues("duplicated")
	failed     = messages.WithLabelValues("failed")
)
