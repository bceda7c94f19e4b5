package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cfg "github.com/spacemeshos/go-netstate/config"
	"github.com/spacemeshos/go-netstate/config/presets"
)

var defaults = cfg.DefaultConfig()

// flagKeys maps flag names to the config keys they override.
var flagKeys = map[string]string{
	"log-encoder":         "logging.log-encoder",
	"log-level":           "logging.app",
	"metrics":             "main.metrics",
	"metrics-port":        "main.metrics-port",
	"metrics-push":        "main.metrics-push.url",
	"metrics-push-period": "main.metrics-push.period",
	"tick-interval":       "session.tick-interval",
	"pending-grace":       "session.replica.pending-grace",
	"max-delta-size":      "session.replica.max-delta-size",
	"clients":             "sim.clients",
	"objects":             "sim.objects",
	"ticks":               "sim.ticks",
	"mutations":           "sim.mutations",
	"seed":                "sim.seed",
	"shuffle":             "sim.shuffle",
	"duplicates":          "sim.duplicates",
	"sync-interval":       "sim.sync-interval",
}

// AddCommands adds cobra flags to the app.
func AddCommands(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("preset", "p", "",
		fmt.Sprintf("preset overwrites default values of the config. options %+s", presets.Options()))
	cmd.PersistentFlags().StringP("config", "c", "", "Load configuration from file")

	/** ======================== BaseConfig Flags ========================== **/
	cmd.PersistentFlags().String("log-encoder", defaults.LOGGING.Encoder, "Log as JSON instead of plain text")
	cmd.PersistentFlags().String("log-level", defaults.LOGGING.AppLoggerLevel, "Log level of the app logger")
	cmd.PersistentFlags().Bool("metrics", defaults.CollectMetrics, "collect metrics")
	cmd.PersistentFlags().Int("metrics-port", defaults.MetricsPort, "metric server port")
	cmd.PersistentFlags().String("metrics-push", defaults.MetricsPush.URL, "Push metrics to url")
	cmd.PersistentFlags().Duration("metrics-push-period", defaults.MetricsPush.Period, "Push period")

	/** ======================== Session Flags ========================== **/
	cmd.PersistentFlags().Duration("tick-interval", defaults.Session.TickInterval,
		"period of sending changes from the host")
	cmd.PersistentFlags().Duration("pending-grace", defaults.Session.Replica.PendingGrace,
		"how long clients keep payloads for objects they did not spawn yet")
	cmd.PersistentFlags().Int("max-delta-size", defaults.Session.Replica.MaxDeltaSize,
		"max size in bytes of a single field delta")

	/** ======================== Simulation Flags ========================== **/
	cmd.PersistentFlags().Int("clients", defaults.Sim.Clients, "number of client sessions")
	cmd.PersistentFlags().Int("objects", defaults.Sim.Objects, "number of objects spawned by the host")
	cmd.PersistentFlags().Int("ticks", defaults.Sim.Ticks, "number of ticks to run, 0 runs until interrupted")
	cmd.PersistentFlags().Int("mutations", defaults.Sim.Mutations, "field mutations per object per tick")
	cmd.PersistentFlags().Uint64("seed", defaults.Sim.Seed, "seed for mutations and delivery order")
	cmd.PersistentFlags().Bool("shuffle", defaults.Sim.Shuffle, "deliver messages of a tick in random order")
	cmd.PersistentFlags().Float64("duplicates", defaults.Sim.Duplicates, "probability of delivering a message twice")
	cmd.PersistentFlags().Duration("sync-interval", defaults.Sim.SyncInterval,
		"min time between sends of one object, 0 sends on every tick")
}
