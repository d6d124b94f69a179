package library

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// RunSchedule reloads the library on a standard five-field cron spec until
// ctx is cancelled. An empty spec disables scheduled reloads and returns
// immediately. Reload errors are logged and the schedule keeps running.
func (l *Library) RunSchedule(ctx context.Context, spec string, loc *time.Location) error {
	if spec == "" {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(spec, func() {
		if _, err := l.Reload(ctx); err != nil {
			l.log.Warn().Err(err).Msg("scheduled reload failed")
		}
	}); err != nil {
		return fmt.Errorf("refresh schedule %q: %w", spec, err)
	}

	c.Start()
	l.log.Info().Str("spec", spec).Msg("scheduled refresh started")

	<-ctx.Done()

	// Wait for a reload that is already running.
	<-c.Stop().Done()
	l.log.Info().Msg("scheduled refresh stopped")
	return nil
}
