package presets

import (
	"time"

	"github.com/spacemeshos/go-netstate/config"
)

func init() {
	register("lan", lan())
}

// lan mimics a lossy datagram network: reordered and duplicated delivery.
func lan() config.Config {
	conf := config.DefaultConfig()

	conf.Session.TickInterval = 33 * time.Millisecond
	conf.Session.Replica.PendingGrace = 5 * time.Second
	conf.Session.Replica.MaxDeltaSize = 1200

	conf.Sim.Clients = 8
	conf.Sim.Objects = 64
	conf.Sim.Ticks = 0
	conf.Sim.Shuffle = true
	conf.Sim.Duplicates = 0.05
	return conf
}
