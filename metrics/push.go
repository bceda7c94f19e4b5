package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

// PushConfig describes a prometheus push gateway.
type PushConfig struct {
	URL      string            `mapstructure:"url"`
	Username string            `mapstructure:"username"`
	Password string            `mapstructure:"password"`
	Headers  map[string]string `mapstructure:"headers"`
	Period   time.Duration     `mapstructure:"period"`
}

// StartPushingMetrics pushes the default registry to cfg.URL every cfg.Period
// until ctx is canceled.
func StartPushingMetrics(
	ctx context.Context,
	logger *zap.Logger,
	clock clockwork.Clock,
	cfg PushConfig,
	job, sessionID string,
) {
	header := http.Header{}
	for k, v := range cfg.Headers {
		header.Add(k, v)
	}
	pusher := push.New(cfg.URL, job).Gatherer(prometheus.DefaultGatherer).
		Grouping("session", sessionID).
		Header(header)
	if cfg.Username != "" && cfg.Password != "" {
		pusher = pusher.BasicAuth(cfg.Username, cfg.Password)
	}
	go func() {
		ticker := clock.NewTicker(cfg.Period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if err := pusher.PushContext(ctx); err != nil {
					logger.Warn("failed to push metrics", zap.Error(err))
				}
			}
		}
	}()
}
