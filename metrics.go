package keyz

// Metrics provides observability data for engine monitoring.
// All counter fields use atomic operations for thread safety.
// QueueCapacity is set when the scheduler starts and is otherwise
// static.
type Metrics struct {
	// Listener counters
	EventsObserved int64 // Key transitions consumed from the source
	MatchesFired   int64 // Completed combo matches dispatched

	// Sync dispatch counters
	SyncCompleted int64 // Sync callbacks that returned nil
	SyncFailed    int64 // Sync callbacks that errored or panicked

	// Scheduler counters
	QueueDepth     int64 // Current tasks in the scheduler queue
	QueueCapacity  int64 // Scheduler queue capacity
	TasksProcessed int64 // Async callbacks completed successfully
	TasksRejected  int64 // Async invocations dropped (queue full or no scheduler)
	TasksFailed    int64 // Async callbacks that errored or panicked
	TasksExpired   int64 // Async callbacks cut short by context cancellation

	// Registry
	RegisteredHotkeys int64 // Current registered combos
}
