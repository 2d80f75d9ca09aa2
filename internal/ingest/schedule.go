package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Schedule runs p on the cron expression until ctx is cancelled. A run still
// in progress when the next tick fires causes that tick to be skipped.
func Schedule(ctx context.Context, spec string, loc *time.Location, p *Pipeline, logger arbor.ILogger) error {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	_, err := c.AddFunc(spec, func() {
		report, err := p.Run(ctx)
		if err != nil {
			logger.Error().Str("run_id", report.RunID).Err(err).Msg("Scheduled pipeline run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	logger.Info().Str("schedule", spec).Str("timezone", loc.String()).Msg("Pipeline scheduler started")
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info().Msg("Pipeline scheduler stopped")
	return nil
}
