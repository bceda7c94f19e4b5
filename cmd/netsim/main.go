// netsim replicates randomly mutated objects from a host session to client
// sessions over an in-memory network and checks that every client converges.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cmdp "github.com/spacemeshos/go-netstate/cmd"
	"github.com/spacemeshos/go-netstate/config"
	"github.com/spacemeshos/go-netstate/log"
	"github.com/spacemeshos/go-netstate/metrics"
)

var (
	version string
	commit  string
	branch  string
)

// Cmd is the netsim command.
var Cmd = &cobra.Command{
	Use:   "netsim",
	Short: "simulate state replication between a host and clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := cmdp.LoadConfig(cmd)
		if err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()
		return run(ctx, conf)
	},
}

// VersionCmd prints the build version.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(cmdp.Version)
		if cmdp.Commit != "" {
			fmt.Printf("+%s", cmdp.Commit)
		}
		fmt.Println()
	},
}

func init() {
	cmdp.AddCommands(Cmd)
	Cmd.AddCommand(VersionCmd)
}

func newLoggers(conf config.LoggerConfig) (loggers, error) {
	app, err := log.New("netsim", conf.AppLoggerLevel, conf.Encoder)
	if err != nil {
		return loggers{}, err
	}
	lg := loggers{app: app}
	for _, l := range []struct {
		dst   **zap.Logger
		name  string
		level string
	}{
		{&lg.session, "session", conf.SessionLoggerLevel},
		{&lg.replica, "replica", conf.ReplicaLoggerLevel},
		{&lg.transport, "transport", conf.TransportLoggerLevel},
		{&lg.dispatch, "dispatch", conf.DispatchLoggerLevel},
	} {
		if *l.dst, err = log.Named(app, l.name, l.level); err != nil {
			return loggers{}, err
		}
	}
	return lg, nil
}

func run(ctx context.Context, conf *config.Config) error {
	lg, err := newLoggers(conf.LOGGING)
	if err != nil {
		return err
	}
	defer lg.app.Sync()

	runID := uuid.New()
	clock := clockwork.NewRealClock()
	if conf.CollectMetrics {
		srv := metrics.StartCollectingMetrics(ctx, lg.app, conf.MetricsPort)
		defer srv.Close()
	}
	if conf.MetricsPush.URL != "" {
		metrics.StartPushingMetrics(ctx, lg.app, clock, conf.MetricsPush, "netsim", runID.String())
	}

	lg.app.Info("starting simulation",
		zap.Stringer("run", runID),
		zap.Int("clients", conf.Sim.Clients),
		zap.Int("objects", conf.Sim.Objects),
		zap.Int("ticks", conf.Sim.Ticks),
		zap.Duration("tick", conf.Session.TickInterval),
	)
	s, err := newSim(*conf, lg, clock)
	if err != nil {
		return err
	}
	return s.run(ctx)
}

func main() {
	cmdp.Version = version
	cmdp.Commit = commit
	cmdp.Branch = branch
	if err := Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
