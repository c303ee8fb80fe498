package crontab

import (
	"context"
	"fmt"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"chat-gateway/internal/config"
	"chat-gateway/internal/domain/ownership"
)

const jobTimeout = 5 * time.Minute

// Crontab runs the scheduled anonymous-log retention sweep. Log rows only
// back quota counting, so anything older than the retention window can go.
type Crontab struct {
	ctab *crontab.Crontab
	cfg  *config.Config
	repo ownership.Repository
	log  zerolog.Logger
}

// NewCrontab constructs the scheduler.
func NewCrontab(cfg *config.Config, repo ownership.Repository, log zerolog.Logger) *Crontab {
	return &Crontab{
		ctab: crontab.New(),
		cfg:  cfg,
		repo: repo,
		log:  log.With().Str("component", "crontab").Logger(),
	}
}

// Run schedules the prune job and blocks until the context is cancelled.
func (c *Crontab) Run(ctx context.Context) error {
	if !c.cfg.LogPruneEnabled {
		c.log.Info().Msg("anonymous log pruning disabled")
		<-ctx.Done()
		return nil
	}

	// execute once on startup
	c.pruneAnonymousLogs(ctx)

	cronExpr := fmt.Sprintf("0 */%d * * *", c.cfg.LogPruneIntervalHours)
	if err := c.ctab.AddJob(cronExpr, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		c.pruneAnonymousLogs(jobCtx)
	}); err != nil {
		return fmt.Errorf("schedule anonymous log prune: %w", err)
	}
	c.log.Info().Int("interval_hours", c.cfg.LogPruneIntervalHours).Msg("anonymous log pruning scheduled")

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

func (c *Crontab) pruneAnonymousLogs(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -c.cfg.LogRetentionDays)

	pruned, err := c.repo.PruneAnonymousLogs(ctx, cutoff)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to prune anonymous chat logs")
		return
	}
	if pruned > 0 {
		c.log.Info().Int64("rows", pruned).Time("cutoff", cutoff).Msg("pruned anonymous chat logs")
	}
}
