// Package jobs provides scheduled background tasks for the dispatch service.
//
// Jobs are built on github.com/robfig/cron/v3 with second-resolution
// schedules evaluated in the business time zone.
//
// # Available Jobs
//
// RolloverJob closes the business day, by default at 23:59:00. It sends the
// administrator a summary of the day's orders, empties the ledger and drops
// unconfirmed amendments. Order ids keep counting across days.
//
// # Usage
//
//	rollover := jobs.NewRolloverJob(jobs.RolloverConfig{Location: loc, Admin: adminID},
//		reportHandler, notifier, coordinator, reconciler, logger)
//	jobManager := jobs.NewJobManager(rollover)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// A failed summary is logged and the rollover proceeds. A failed ledger
// reset is logged and retried at the next scheduled run.
package jobs
