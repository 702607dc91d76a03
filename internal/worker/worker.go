package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/wb-go/wbf/zlog"
)

type sweeper interface {
	Sweep(maxAge time.Duration, now time.Time) (int, error)
}

// Janitor periodically removes staged files left behind by requests that
// never reached their cleanup, e.g. after a crash.
type Janitor struct {
	store    sweeper
	maxAge   time.Duration
	interval time.Duration
	logger   *zlog.Zerolog
	now      func() time.Time
}

func NewJanitor(store sweeper, maxAge, interval time.Duration, logger *zlog.Zerolog) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{
		store:    store,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	j.logger.Info().
		Dur("interval", j.interval).
		Dur("max_age", j.maxAge).
		Msg("Staging janitor started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		if err := j.safeSweep(); err != nil {
			j.logger.Error().Err(err).Msg("Staging sweep failed")
		}

		select {
		case <-ctx.Done():
			j.logger.Info().Msg("Staging janitor stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (j *Janitor) safeSweep() (err error) {
	defer func() {
		if r := recover(); r != nil {
			j.logger.Error().Interface("panic", r).Msg("Panic recovered while sweeping staging directory")
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	start := j.now()
	removed, err := j.store.Sweep(j.maxAge, start)
	if err != nil {
		return err
	}
	if removed > 0 {
		j.logger.Info().Int("removed", removed).Dur("duration", time.Since(start)).Msg("Stale staged files removed")
	}
	return nil
}
