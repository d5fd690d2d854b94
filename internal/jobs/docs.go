// Package jobs provides the background tasks of the ordering service.
//
// # Available Jobs
//
//  1. OutboxDispatcher polls outbox_messages every second (OUTBOX_POLL_INTERVAL)
//     and publishes undispatched records to the event bus, oldest first.
//  2. OutboxRetentionJob runs on a github.com/robfig/cron/v3 schedule
//     (default "@every 12h") and deletes dispatched records older than the
//     retention window (default 168h).
//
// # Usage
//
//	dispatcher := jobs.NewOutboxDispatcher(store, bus, router, jobs.DispatcherConfig{}, m, logger)
//	retention := jobs.NewOutboxRetentionJob(store, "", 0, m, logger)
//
//	manager := jobs.NewJobManager(dispatcher, retention, logger)
//	g.Go(func() error { return manager.Run(ctx) })
//
// # Error Handling
//
//   - A publish failure is logged and counted. The record stays undispatched
//     and is retried on the next cycle with no upper bound.
//   - Store failures are logged; the next cycle or run retries.
//   - On shutdown records already acknowledged by the broker are still
//     marked dispatched, bounded by DispatcherConfig.MarkTimeout.
package jobs
