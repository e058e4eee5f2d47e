// Package scheduler provides keyed recurring and one-shot task scheduling.
//
// It wraps robfig/cron with a small keyed API: each recurring task is
// registered under a caller-chosen key, and registering the same key twice
// is rejected rather than silently doubling the work. This matters for
// animation engines where a duplicate ticker would double the step rate.
//
// Usage:
//
//	sched := scheduler.New(logger)
//	sched.Start()
//	defer sched.Stop()
//
//	err := sched.RunRecurring("preset-combustion", 120*time.Millisecond, step)
//	...
//	sched.Cancel("preset-combustion")
//
// One-shot tasks are fire-and-forget with a cancel function:
//
//	cancel := sched.RunOnce(time.Hour, evict)
//	defer cancel()
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Callbacks run on the cron goroutine; recurring callbacks for all keys
//     are serialised with respect to each other.
package scheduler
