package main

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-netstate/config"
	"github.com/spacemeshos/go-netstate/log/logtest"
	"github.com/spacemeshos/go-netstate/replica"
)

func testLoggers(t *testing.T) loggers {
	l := logtest.New(t)
	return loggers{
		app:       l,
		session:   l.Named("session"),
		replica:   l.Named("replica"),
		transport: l.Named("transport"),
		dispatch:  l.Named("dispatch"),
	}
}

func TestSimConverges(t *testing.T) {
	for _, tc := range []struct {
		desc       string
		shuffle    bool
		duplicates float64
		interval   time.Duration
	}{
		{desc: "ordered"},
		{desc: "shuffled with duplicates", shuffle: true, duplicates: 0.3},
		{desc: "sync intervals", interval: 120 * time.Millisecond},
		{desc: "sync intervals shuffled", shuffle: true, duplicates: 0.3, interval: 200 * time.Millisecond},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			conf := config.DefaultConfig()
			conf.Sim.Clients = 3
			conf.Sim.Mutations = 3
			conf.Sim.Shuffle = tc.shuffle
			conf.Sim.Duplicates = tc.duplicates
			conf.Sim.SyncInterval = tc.interval

			clock := clockwork.NewFakeClock()
			s, err := newSim(conf, testLoggers(t), clock)
			require.NoError(t, err)
			for id := range 4 {
				require.NoError(t, s.spawn(replica.ObjectID(id+1)))
			}
			ctx := context.Background()
			require.NoError(t, s.connect(ctx))
			for range 100 {
				require.NoError(t, s.step(ctx))
				clock.Advance(conf.Session.TickInterval)
			}
			require.NoError(t, s.settle(ctx))
			require.NoError(t, s.verify())
		})
	}
}

func TestSimSyncIntervalHoldsChanges(t *testing.T) {
	conf := config.DefaultConfig()
	conf.Sim.Clients = 1
	conf.Sim.SyncInterval = time.Hour
	s, err := newSim(conf, testLoggers(t), clockwork.NewFakeClock())
	require.NoError(t, err)
	require.NoError(t, s.spawn(1))
	require.NoError(t, s.connect(context.Background()))
	require.NoError(t, s.step(context.Background()))
	require.NoError(t, s.verify(), "new observers get full state right away")

	health := s.host.units[1].health
	require.NoError(t, health.Set((health.Get()+1)%1001))
	require.NoError(t, s.step(context.Background()))
	require.Error(t, s.verify())

	require.NoError(t, s.settle(context.Background()))
	require.NoError(t, s.verify())
}

func TestSimRun(t *testing.T) {
	conf := config.DefaultConfig()
	conf.Session.TickInterval = time.Millisecond
	conf.Sim.Ticks = 20
	conf.Sim.Objects = 3

	s, err := newSim(conf, testLoggers(t), clockwork.NewRealClock())
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, s.run(ctx))
}

func TestSimDetectsDivergence(t *testing.T) {
	conf := config.DefaultConfig()
	conf.Sim.Clients = 1
	conf.Sim.SyncInterval = 0
	s, err := newSim(conf, testLoggers(t), clockwork.NewFakeClock())
	require.NoError(t, err)
	require.NoError(t, s.spawn(1))
	require.NoError(t, s.connect(context.Background()))
	require.NoError(t, s.step(context.Background()))
	require.NoError(t, s.verify())

	health := s.host.units[1].health
	require.NoError(t, health.Set((health.Get()+1)%1001))
	require.Error(t, s.verify())
}
