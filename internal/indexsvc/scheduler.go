package indexsvc

import (
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// StartCleanupScheduler runs a single-threaded cron schedule that evicts
// expired task records once an hour, mirroring the task-status cleanup
// cadence. Returns the cron runner so the caller can Stop() it on
// shutdown.
func StartCleanupScheduler(svc *Service, logger arbor.ILogger) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("@hourly", func() {
		n := svc.EvictExpiredTasks()
		if n > 0 {
			logger.Info().Int("evicted", n).Msg("indexsvc: cleanup scheduler evicted expired tasks")
		}
	})
	if err != nil {
		logger.Error().Err(err).Msg("indexsvc: failed to schedule cleanup job")
	}
	c.Start()
	return c
}
