package session

import (
	"github.com/spacemeshos/go-netstate/metrics"
)

const namespace = "session"

var (
	handshakes = metrics.NewCounter(
		"handshakes",
		namespace,
		"hello messages by result",
		[]string{"result"},
	)
	acceptedHandshakes = handshakes.WithLabelValues("accepted")
	rejectedHandshakes = handshakes.WithLabelValues("rejected")

	ticks = metrics.NewCounter(
		"ticks",
		namespace,
		"ticks run by the session loop",
		[]string{},
	).WithLabelValues()
	tickErrors = metrics.NewCounter(
		"tick_errors",
		namespace,
		"ticks that returned an error",
		[]string{},
	).WithLabelValues()
	tickDuration = metrics.NewHistogram(
		"tick_duration_seconds",
		namespace,
		"duration of a single tick",
		[]string{},
	).WithLabelValues()
)
