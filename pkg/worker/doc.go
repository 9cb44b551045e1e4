// Package worker provides a generic, thread-safe worker pool for concurrent
// task processing.
//
// The pool manages a fixed number of goroutines processing work items of any
// type T from a bounded channel. Submit is non-blocking: a full queue returns
// ErrQueueFull rather than waiting, so callers get an immediate backpressure
// signal. The engine host uses a Pool[*engine.Job] to bound how many clustering
// jobs run concurrently.
//
// Lifecycle follows the framework pattern: Start(ctx) launches workers that
// exit on context cancellation, Stop(timeout) closes the queue, drains
// remaining items, and returns ErrStopTimeout if workers do not finish in
// time. Statistics are always tracked with atomics; Prometheus metrics are
// opt-in via WithMetricsRegistry.
//
//	pool := worker.NewPool[Job](4, 64, process,
//	    worker.WithMetricsRegistry[Job](registry, "engine_jobs"))
//	pool.Start(ctx)
//	defer pool.Stop(10 * time.Second)
//
// Worker count is fixed at creation; there is no dynamic scaling, no priority
// queue, and no per-item cancellation. Implement per-item timeouts inside the
// processor function using the context it receives.
package worker
