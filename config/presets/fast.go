package presets

import (
	"time"

	"github.com/spacemeshos/go-netstate/config"
)

func init() {
	register("fast", fast())
}

// fast runs a short simulation with tight limits, for local experiments.
func fast() config.Config {
	conf := config.DefaultConfig()

	conf.Session.TickInterval = 10 * time.Millisecond
	conf.Session.Replica.PendingGrace = 200 * time.Millisecond
	conf.Session.Replica.PendingLimit = 64
	conf.Session.Replica.TombstoneLimit = 256

	conf.Sim.Clients = 3
	conf.Sim.Objects = 4
	conf.Sim.Ticks = 50
	conf.Sim.Mutations = 2
	return conf
}
