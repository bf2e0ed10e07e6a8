package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/cadencehq/cadence/internal/config"
)

// Poller triggers executor runs on a cron cadence in serve mode.
type Poller struct {
	executor *Executor
	cron     *cron.Cron
	spec     string
}

// NewPoller creates a poller from the executor config.
func NewPoller(exec *Executor, cfg *config.ExecutorConfig) (*Poller, error) {
	tz := cfg.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("loading timezone: %w", err)
	}

	return &Poller{
		executor: exec,
		cron:     cron.New(cron.WithLocation(loc)),
		spec:     cfg.CronSpec,
	}, nil
}

// Start schedules runs and begins the cron loop. The context bounds
// each triggered run, not the loop itself; call Stop to end the loop.
func (p *Poller) Start(ctx context.Context) error {
	_, err := p.cron.AddFunc(p.spec, func() {
		if _, err := p.executor.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Scheduled executor run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("adding cron entry: %w", err)
	}

	p.cron.Start()
	log.Info().Str("cron_spec", p.spec).Msg("Executor poller started")
	return nil
}

// Stop ends the cron loop, waiting for an in-flight run to finish.
func (p *Poller) Stop() {
	stopCtx := p.cron.Stop()
	<-stopCtx.Done()
	log.Info().Msg("Executor poller stopped")
}
